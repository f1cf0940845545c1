package linsolve

import (
	"fmt"

	"github.com/san-kum/gridflow/internal/ecf"
	"github.com/san-kum/gridflow/internal/sparse"
	"gonum.org/v1/gonum/mat"
)

// Dense factorizes the system with gonum's LU. It is the reference
// backend for small networks and for cross-checking SparseLU.
type Dense struct{}

func NewDense() *Dense { return &Dense{} }

func (d *Dense) Name() string { return "dense" }

func (d *Dense) Solve(y *sparse.CSR, j []float64) (ecf.Vector, error) {
	n, err := checkShape(y, j)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return ecf.Vector{}, nil
	}

	a := mat.NewDense(n, n, nil)
	y.Do(func(i, k int, v float64) {
		a.Set(i, k, v)
	})

	var lu mat.LU
	lu.Factorize(a)

	x := mat.NewVecDense(n, nil)
	if err := lu.SolveVecTo(x, false, mat.NewVecDense(n, append([]float64(nil), j...))); err != nil {
		return nil, fmt.Errorf("%w: %v", ecf.ErrLinearSystem, err)
	}

	out := ecf.Vector(x.RawVector().Data)
	if err := checkFinite(out); err != nil {
		return nil, err
	}
	return out, nil
}
