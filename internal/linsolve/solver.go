// Package linsolve solves the assembled ECF system Y·v = J.
package linsolve

import (
	"fmt"

	"github.com/san-kum/gridflow/internal/ecf"
	"github.com/san-kum/gridflow/internal/sparse"
)

// Solver solves one linear system. Implementations never retry; any
// singular, ill-conditioned or non-finite result is reported as
// ecf.ErrLinearSystem.
type Solver interface {
	Name() string
	Solve(y *sparse.CSR, j []float64) (ecf.Vector, error)
}

func checkShape(y *sparse.CSR, j []float64) (int, error) {
	if y == nil {
		return 0, fmt.Errorf("%w: nil matrix", ecf.ErrLinearSystem)
	}
	r, c := y.Dims()
	if r != c {
		return 0, fmt.Errorf("%w: matrix is %dx%d", ecf.ErrLinearSystem, r, c)
	}
	if len(j) != r {
		return 0, fmt.Errorf("%w: rhs length %d for %dx%d matrix", ecf.ErrLinearSystem, len(j), r, c)
	}
	return r, nil
}

func checkFinite(x ecf.Vector) error {
	if !x.IsValid() {
		return fmt.Errorf("%w: non-finite solution", ecf.ErrLinearSystem)
	}
	return nil
}
