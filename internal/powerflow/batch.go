package powerflow

import (
	"context"
	"fmt"
	"sync"

	"github.com/san-kum/gridflow/internal/grid"
)

// SolveAll runs independent networks concurrently, one Solver per network
// built by newSolver. Each solve is itself single-threaded. Results are in
// input order; the first error by index is returned.
func SolveAll(ctx context.Context, nets []*grid.Network, newSolver func(*grid.Network) (*Solver, error)) ([]*Result, error) {
	results := make([]*Result, len(nets))
	errs := make([]error, len(nets))

	var wg sync.WaitGroup
	for i, net := range nets {
		if err := ctx.Err(); err != nil {
			errs[i] = err
			continue
		}
		wg.Add(1)
		go func(idx int, net *grid.Network) {
			defer wg.Done()

			s, err := newSolver(net)
			if err != nil {
				errs[idx] = err
				return
			}
			results[idx], errs[idx] = s.Run(net)
		}(i, net)
	}

	wg.Wait()

	for i, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("network %d: %w", i, err)
		}
	}
	return results, nil
}
