package powerflow

import (
	"context"
	"errors"
	"strings"

	"github.com/go-logr/logr/funcr"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/gridflow/internal/ecf"
	"github.com/san-kum/gridflow/internal/grid"
	"github.com/san-kum/gridflow/internal/linsolve"
)

type spyLimiter struct {
	calls int
	prev  []ecf.Vector
}

func (s *spyLimiter) Limit(prev, candidate ecf.Vector) ecf.Vector {
	s.calls++
	s.prev = append(s.prev, prev.Clone())
	return candidate
}

func newSolver(cfg Config, opts ...Option) *Solver {
	s, err := New(cfg, opts...)
	Expect(err).NotTo(HaveOccurred())
	return s
}

func flatConfig() Config {
	cfg := DefaultConfig()
	cfg.FlatStart = true
	return cfg
}

var _ = Describe("Solver", func() {
	Describe("configuration", func() {
		It("uses the reference defaults", func() {
			cfg := DefaultConfig()
			Expect(cfg.Tolerance).To(Equal(1e-5))
			Expect(cfg.MaxIters).To(Equal(1000))
			Expect(cfg.EnableLimiting).To(BeFalse())
			Expect(cfg.FlatStart).To(BeFalse())
		})

		DescribeTable("rejects invalid settings",
			func(cfg Config) {
				_, err := New(cfg)
				Expect(err).To(MatchError(ecf.ErrInvalidConfig))
			},
			Entry("zero tolerance", Config{Tolerance: 0, MaxIters: 10}),
			Entry("negative tolerance", Config{Tolerance: -1, MaxIters: 10}),
			Entry("zero iterations", Config{Tolerance: 1e-5, MaxIters: 0}),
		)
	})

	Describe("a network with only a slack source", func() {
		It("converges in exactly one iteration from a flat start", func() {
			net := singleSlack(1, 0)
			res, err := newSolver(flatConfig()).Run(net)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Converged).To(BeTrue())
			Expect(res.Iterations).To(Equal(1))
			Expect(res.FinalError).To(BeNumerically("<=", 1e-5))

			vm, va := busPolar(net, res.V, 1)
			Expect(vm).To(BeNumerically("~", 1, 1e-12))
			Expect(va).To(BeNumerically("~", 0, 1e-12))
		})

		It("converges in exactly one iteration from its stored operating point", func() {
			net := singleSlack(1.05, 10)
			res, err := newSolver(DefaultConfig()).Run(net)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Iterations).To(Equal(1))
			Expect(res.Converged).To(BeTrue())

			vm, va := busPolar(net, res.V, 1)
			Expect(vm).To(BeNumerically("~", 1.05, 1e-12))
			Expect(va).To(BeNumerically("~", 10, 1e-9))
		})
	})

	Describe("a two-bus load", func() {
		It("matches the closed-form receiving-end voltage", func() {
			net := twoBus(100, 50)
			res, err := newSolver(DefaultConfig()).Run(net)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Converged).To(BeTrue())
			Expect(res.Iterations).To(Equal(3))
			Expect(res.History).To(HaveLen(3))

			vm, va := busPolar(net, res.V, 2)
			Expect(vm).To(BeNumerically("~", 0.9412172407866674, 1e-9))
			Expect(va).To(BeNumerically("~", -6.098923983835599, 1e-6))
			Expect(res.Mismatch).To(BeNumerically("<", 1e-8))
		})

		It("contracts quadratically", func() {
			res, err := newSolver(DefaultConfig()).Run(twoBus(100, 50))
			Expect(err).NotTo(HaveOccurred())
			h := res.History
			Expect(h[2]).To(BeNumerically("<", h[1]*h[1]*100))
		})
	})

	Describe("the Grainger-Stevenson four-bus case", func() {
		var (
			net *grid.Network
			res *Result
		)

		BeforeEach(func() {
			net = graingerStevenson()
			var err error
			res, err = newSolver(flatConfig()).Run(net)
			Expect(err).NotTo(HaveOccurred())
		})

		It("converges", func() {
			Expect(res.Converged).To(BeTrue())
			Expect(res.Provisional()).To(BeFalse())
			Expect(res.Iterations).To(Equal(4))
			Expect(res.FinalError).To(BeNumerically("<=", 1e-5))
			Expect(res.Mismatch).To(BeNumerically("<", 1e-6))
		})

		DescribeTable("reproduces the published bus voltages",
			func(bus int, vm, va float64) {
				gotVm, gotVa := busPolar(net, res.V, bus)
				Expect(gotVm).To(BeNumerically("~", vm, 1e-3))
				Expect(gotVa).To(BeNumerically("~", va, 1e-3))
			},
			Entry("bus 1", 1, 1.0, 0.0),
			Entry("bus 2", 2, 0.982, -0.976),
			Entry("bus 3", 3, 0.969, -1.872),
			Entry("bus 4", 4, 1.020, 1.523),
		)

		It("reproduces the published slack output", func() {
			p, q := net.Slacks[0].Output(net.Base, res.V)
			Expect(p).To(BeNumerically("~", 186.81, 0.05))
			Expect(q).To(BeNumerically("~", 114.50, 0.05))
		})

		It("holds the generator at its voltage setpoint", func() {
			vm, _ := busPolar(net, res.V, 4)
			Expect(vm).To(BeNumerically("~", 1.02, 1e-9))
		})

		It("gives the same answer with the dense backend", func() {
			dense, err := newSolver(flatConfig(), WithLinearSolver(linsolve.NewDense())).Run(net)
			Expect(err).NotTo(HaveOccurred())
			Expect(dense.Iterations).To(Equal(res.Iterations))
			Expect(dense.V.MaxAbsDiff(res.V)).To(BeNumerically("<", 1e-9))
		})
	})

	Describe("a five-bus case with transformers and ZIP loads", func() {
		It("converges to the reference solution", func() {
			net := fiveBus()
			res, err := newSolver(flatConfig()).Run(net)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Converged).To(BeTrue())
			Expect(res.Iterations).To(Equal(4))

			for _, want := range []struct {
				bus    int
				vm, va float64
			}{
				{2, 1.045, -2.7014668551333343},
				{3, 1.0429199041273092, -7.365673418155154},
				{4, 1.028618684075393, -8.037965531200468},
				{5, 1.0203720301837742, -7.648569970172339},
			} {
				vm, va := busPolar(net, res.V, want.bus)
				Expect(vm).To(BeNumerically("~", want.vm, 1e-8), "bus %d", want.bus)
				Expect(va).To(BeNumerically("~", want.va, 1e-6), "bus %d", want.bus)
			}
		})

		It("converges to the same point with step limiting", func() {
			net := fiveBus()
			cfg := flatConfig()
			cfg.EnableLimiting = true
			plain, err := newSolver(flatConfig()).Run(net)
			Expect(err).NotTo(HaveOccurred())
			limited, err := newSolver(cfg, WithLimiter(NewStepLimiter(net, 0.05, 0.2))).Run(net)
			Expect(err).NotTo(HaveOccurred())
			Expect(limited.Converged).To(BeTrue())
			Expect(limited.Iterations).To(BeNumerically(">=", plain.Iterations))
			Expect(limited.V.MaxAbsDiff(plain.V)).To(BeNumerically("<", 1e-5))
		})
	})

	Describe("non-convergence", func() {
		It("runs an infeasible load to the iteration cap without an error", func() {
			var candidates []ecf.Vector
			obs := ObserverFunc(func(it Iteration) { candidates = append(candidates, it.V.Clone()) })

			cfg := DefaultConfig()
			cfg.MaxIters = 25
			res, err := newSolver(cfg, WithObserver(obs)).Run(twoBus(500, 250))
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Converged).To(BeFalse())
			Expect(res.Provisional()).To(BeTrue())
			Expect(res.Iterations).To(Equal(25))
			Expect(res.History).To(HaveLen(25))
			Expect(res.FinalError).To(BeNumerically(">", cfg.Tolerance))

			// the returned estimate is the last accepted one, not the
			// rejected final candidate
			Expect(candidates).To(HaveLen(25))
			Expect(res.V).To(Equal(candidates[23]))
		})

		It("returns the initial estimate when the cap is one solve", func() {
			net := twoBus(100, 50)
			cfg := flatConfig()
			cfg.MaxIters = 1
			res, err := newSolver(cfg).Run(net)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Iterations).To(Equal(1))
			Expect(res.Converged).To(BeFalse())

			v0, err := Initialize(net, true)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.V).To(Equal(v0))
		})
	})

	Describe("failures", func() {
		It("aborts on a degenerate operating point", func() {
			net := twoBus(100, 50)
			_, err := newSolver(DefaultConfig()).RunFrom(net, make(ecf.Vector, net.Size()))
			Expect(err).To(MatchError(ecf.ErrDomain))

			var solveErr *ecf.SolveError
			Expect(errors.As(err, &solveErr)).To(BeTrue())
			Expect(solveErr.Iteration).To(Equal(1))

			var stampErr *ecf.StampError
			Expect(errors.As(err, &stampErr)).To(BeTrue())
			Expect(stampErr.Kind).To(Equal("load"))
		})

		DescribeTable("aborts on a singular system",
			func(ls linsolve.Solver) {
				net := mustNet(func(n *grid.Network) error {
					if err := addBuses(n, 1, 2, 3); err != nil {
						return err
					}
					if _, err := n.AddSlack(grid.SlackParams{Bus: 1, Vset: 1}); err != nil {
						return err
					}
					_, err := n.AddBranch(grid.BranchParams{From: 1, To: 2, X: 0.1})
					return err
				})
				_, err := newSolver(flatConfig(), WithLinearSolver(ls)).Run(net)
				Expect(err).To(MatchError(ecf.ErrLinearSystem))
			},
			Entry("sparse", linsolve.NewSparseLU()),
			Entry("dense", linsolve.NewDense()),
		)

		It("rejects an estimate of the wrong length", func() {
			net := twoBus(10, 5)
			_, err := newSolver(DefaultConfig()).RunFrom(net, ecf.Vector{1, 0})
			Expect(err).To(MatchError(ecf.ErrIndex))
		})

		It("rejects an unbound network", func() {
			net, err := grid.NewNetwork(grid.DefaultBase())
			Expect(err).NotTo(HaveOccurred())
			_, err = newSolver(DefaultConfig()).Run(net)
			Expect(err).To(MatchError(grid.ErrNotBound))
		})
	})

	Describe("the limiting hook", func() {
		It("is never called when limiting is disabled", func() {
			spy := &spyLimiter{}
			_, err := newSolver(DefaultConfig(), WithLimiter(spy)).Run(twoBus(100, 50))
			Expect(err).NotTo(HaveOccurred())
			Expect(spy.calls).To(BeZero())
		})

		It("is called on every iteration that does not terminate", func() {
			spy := &spyLimiter{}
			cfg := DefaultConfig()
			cfg.EnableLimiting = true
			net := twoBus(100, 50)
			res, err := newSolver(cfg, WithLimiter(spy)).Run(net)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Converged).To(BeTrue())
			Expect(spy.calls).To(Equal(res.Iterations - 1))

			v0, err := Initialize(net, false)
			Expect(err).NotTo(HaveOccurred())
			Expect(spy.prev[0]).To(Equal(v0))
		})

		It("is not called on the final iteration of a capped run", func() {
			spy := &spyLimiter{}
			cfg := DefaultConfig()
			cfg.EnableLimiting = true
			cfg.MaxIters = 5
			_, err := newSolver(cfg, WithLimiter(spy)).Run(twoBus(500, 250))
			Expect(err).NotTo(HaveOccurred())
			Expect(spy.calls).To(Equal(4))
		})
	})

	Describe("observers and logging", func() {
		It("reports every iteration in order", func() {
			var seen []int
			obs := ObserverFunc(func(it Iteration) { seen = append(seen, it.N) })
			res, err := newSolver(flatConfig(), WithObserver(obs)).Run(graingerStevenson())
			Expect(err).NotTo(HaveOccurred())
			Expect(seen).To(Equal([]int{1, 2, 3, 4}))
			Expect(res.History).To(HaveLen(4))
		})

		It("logs iterations at V(1) and the outcome at V(0)", func() {
			var lines []string
			log := funcr.New(func(prefix, args string) {
				lines = append(lines, args)
			}, funcr.Options{Verbosity: 1})

			_, err := newSolver(DefaultConfig(), WithLogger(log)).Run(twoBus(100, 50))
			Expect(err).NotTo(HaveOccurred())
			Expect(lines).To(HaveLen(4))
			Expect(lines[0]).To(ContainSubstring(`"msg"="iteration"`))
			Expect(strings.Join(lines, "\n")).To(ContainSubstring(`"msg"="converged"`))
		})
	})

	Describe("batch solving", func() {
		It("solves independent networks and keeps their order", func() {
			nets := []*grid.Network{twoBus(100, 50), graingerStevenson(), fiveBus()}
			results, err := SolveAll(context.Background(), nets, func(*grid.Network) (*Solver, error) {
				return New(flatConfig())
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(HaveLen(3))
			for i, res := range results {
				Expect(res.Converged).To(BeTrue(), "network %d", i)
				Expect(res.V).To(HaveLen(nets[i].Size()))
			}
		})

		It("reports the failing network", func() {
			nets := []*grid.Network{twoBus(100, 50), twoBus(100, 50)}
			_, err := SolveAll(context.Background(), nets, func(net *grid.Network) (*Solver, error) {
				if net == nets[1] {
					return New(Config{})
				}
				return New(DefaultConfig())
			})
			Expect(err).To(MatchError(ecf.ErrInvalidConfig))
			Expect(err.Error()).To(HavePrefix("network 1"))
		})
	})
})
