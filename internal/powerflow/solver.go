package powerflow

import (
	"fmt"
	"math"

	"github.com/go-logr/logr"
	"github.com/san-kum/gridflow/internal/ecf"
	"github.com/san-kum/gridflow/internal/grid"
	"github.com/san-kum/gridflow/internal/linsolve"
)

type Option func(*Solver)

func WithLinearSolver(ls linsolve.Solver) Option {
	return func(s *Solver) {
		if ls != nil {
			s.linear = ls
		}
	}
}

// WithLimiter sets the hook used when Config.EnableLimiting is true.
func WithLimiter(l Limiter) Option {
	return func(s *Solver) {
		if l != nil {
			s.limiter = l
		}
	}
}

func WithLogger(log logr.Logger) Option {
	return func(s *Solver) { s.log = log }
}

func WithObserver(o Observer) Option {
	return func(s *Solver) {
		if o != nil {
			s.observers = append(s.observers, o)
		}
	}
}

// Solver is the Newton-Raphson driver. A Solver holds no per-run state, but
// its limiter and observers may; give each goroutine its own Solver.
type Solver struct {
	cfg       Config
	linear    linsolve.Solver
	limiter   Limiter
	log       logr.Logger
	observers []Observer
}

func New(cfg Config, opts ...Option) (*Solver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s := &Solver{
		cfg:     cfg,
		linear:  linsolve.NewSparseLU(),
		limiter: NoLimit{},
		log:     logr.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Solver) Config() Config { return s.cfg }

// Run initializes from the network and iterates.
func (s *Solver) Run(net *grid.Network) (*Result, error) {
	v0, err := Initialize(net, s.cfg.FlatStart)
	if err != nil {
		return nil, err
	}
	return s.RunFrom(net, v0)
}

// RunFrom iterates from v0. v0 is not modified.
func (s *Solver) RunFrom(net *grid.Network, v0 ecf.Vector) (*Result, error) {
	if !net.Bound() {
		return nil, grid.ErrNotBound
	}
	n := net.Size()
	if len(v0) != n {
		return nil, fmt.Errorf("%w: initial estimate length %d, network size %d", ecf.ErrIndex, len(v0), n)
	}

	yLin, jLin, err := NewAssembler(n, Elements(net.Linear())).Assemble(v0)
	if err != nil {
		return nil, &ecf.SolveError{Iteration: 0, Wrapped: err}
	}
	nonlinear := NewAssembler(n, Elements(net.Nonlinear()))

	log := s.log.WithValues("unknowns", n, "solver", s.linear.Name())
	v := v0.Clone()
	res := &Result{History: make([]float64, 0, min(s.cfg.MaxIters, 64))}

	for it := 1; ; it++ {
		yNl, jNl, err := nonlinear.Assemble(v)
		if err != nil {
			return nil, &ecf.SolveError{Iteration: it, Wrapped: err}
		}
		y := yLin.Add(yNl)
		j := make([]float64, n)
		for i := range j {
			j[i] = jLin[i] + jNl[i]
		}

		vSol, err := s.linear.Solve(y, j)
		if err != nil {
			return nil, &ecf.SolveError{Iteration: it, Wrapped: err}
		}

		stepErr := vSol.MaxAbsDiff(v)
		res.Iterations = it
		res.FinalError = stepErr
		res.History = append(res.History, stepErr)
		log.V(1).Info("iteration", "n", it, "err", stepErr)
		for _, o := range s.observers {
			o.OnIteration(Iteration{N: it, Err: stepErr, V: vSol})
		}

		if stepErr <= s.cfg.Tolerance {
			v = vSol
			res.Converged = true
			break
		}
		if it >= s.cfg.MaxIters {
			break
		}
		if s.cfg.EnableLimiting {
			vSol = s.limiter.Limit(v, vSol)
		}
		v = vSol
	}

	res.V = v
	res.Mismatch, err = Mismatch(net, v)
	if err != nil {
		log.Error(err, "mismatch undefined at final estimate")
		res.Mismatch = math.Inf(1)
	}

	if res.Converged {
		log.Info("converged", "iterations", res.Iterations, "err", res.FinalError, "mismatch", res.Mismatch)
	} else {
		log.Info("iteration limit reached, result is provisional", "iterations", res.Iterations, "err", res.FinalError)
	}
	return res, nil
}
