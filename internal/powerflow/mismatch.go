package powerflow

import (
	"fmt"

	"github.com/san-kum/gridflow/internal/ecf"
	"github.com/san-kum/gridflow/internal/grid"
)

// Mismatch returns the infinity norm of Y_lin·v - J_lin plus every
// nonlinear residual at v. It is zero at an exact solution regardless of
// how the estimate was reached.
func Mismatch(net *grid.Network, v ecf.Vector) (float64, error) {
	if !net.Bound() {
		return 0, grid.ErrNotBound
	}
	if len(v) != net.Size() {
		return 0, fmt.Errorf("mismatch: %w: estimate length %d, network size %d", ecf.ErrIndex, len(v), net.Size())
	}

	y, j, err := NewAssembler(net.Size(), Elements(net.Linear())).Assemble(v)
	if err != nil {
		return 0, err
	}
	resid := ecf.Vector(y.MulVec(v))
	for i := range resid {
		resid[i] -= j[i]
	}
	for _, e := range net.Nonlinear() {
		if err := e.Residual(v, resid); err != nil {
			return 0, &ecf.StampError{Kind: e.Kind(), ID: e.ID(), Wrapped: err}
		}
	}
	return resid.MaxAbs(), nil
}
