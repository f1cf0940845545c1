// Package registry maps configuration names to linear solver backends and
// limiters.
package registry

import (
	"fmt"
	"sort"

	"github.com/san-kum/gridflow/internal/grid"
	"github.com/san-kum/gridflow/internal/linsolve"
	"github.com/san-kum/gridflow/internal/powerflow"
)

type Registry struct {
	solvers  map[string]func() linsolve.Solver
	limiters map[string]func(*grid.Network, map[string]float64) powerflow.Limiter
}

func New() *Registry {
	r := &Registry{
		solvers:  make(map[string]func() linsolve.Solver),
		limiters: make(map[string]func(*grid.Network, map[string]float64) powerflow.Limiter),
	}

	r.solvers["sparse"] = func() linsolve.Solver { return linsolve.NewSparseLU() }
	r.solvers["dense"] = func() linsolve.Solver { return linsolve.NewDense() }

	r.limiters["none"] = func(*grid.Network, map[string]float64) powerflow.Limiter {
		return powerflow.NoLimit{}
	}
	r.limiters["step"] = func(net *grid.Network, params map[string]float64) powerflow.Limiter {
		return powerflow.NewStepLimiter(net, params["max_voltage_step"], params["max_q_step"])
	}

	return r
}

func (r *Registry) Solver(name string) (linsolve.Solver, error) {
	fn, ok := r.solvers[name]
	if !ok {
		return nil, fmt.Errorf("unknown solver backend: %s", name)
	}
	return fn(), nil
}

// Limiter builds a limiter bound to net. An empty name selects "none".
func (r *Registry) Limiter(name string, net *grid.Network, params map[string]float64) (powerflow.Limiter, error) {
	if name == "" {
		name = "none"
	}
	fn, ok := r.limiters[name]
	if !ok {
		return nil, fmt.Errorf("unknown limiter: %s", name)
	}
	return fn(net, params), nil
}

func (r *Registry) ListSolvers() []string {
	return sortedKeys(r.solvers)
}

func (r *Registry) ListLimiters() []string {
	return sortedKeys(r.limiters)
}

func sortedKeys[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
