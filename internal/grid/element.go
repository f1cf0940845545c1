package grid

import (
	"fmt"
	"math"

	"github.com/san-kum/gridflow/internal/ecf"
	"github.com/san-kum/gridflow/internal/sparse"
)

// MinVoltageSquared is the smallest Vr²+Vi² a nonlinear element accepts
// before reporting ecf.ErrDomain.
const MinVoltageSquared = 1e-12

const unbound = -1

const pi180 = math.Pi / 180

type Element interface {
	Kind() string
	// ID is the element's index in its network collection.
	ID() int
	InService() bool
	// Footprint is the exact number of matrix and vector entries a single
	// Stamp call appends.
	Footprint() (y, j int)
	// Stamp appends the element's contributions around the estimate v. It
	// never mutates the element.
	Stamp(v ecf.Vector, y *sparse.Triplets, j *sparse.Entries) error
}

// Nonlinear elements are re-stamped every iteration and report their true
// current (and constraint) mismatch at v.
type Nonlinear interface {
	Element
	Residual(v ecf.Vector, resid ecf.Vector) error
}

var (
	_ Element   = (*Branch)(nil)
	_ Element   = (*Transformer)(nil)
	_ Element   = (*Shunt)(nil)
	_ Element   = (*Slack)(nil)
	_ Nonlinear = (*Load)(nil)
	_ Nonlinear = (*Generator)(nil)
)

// nodes is the (Vr, Vi) index pair of a bus.
type nodes struct {
	r, i int
}

func unboundNodes() nodes { return nodes{r: unbound, i: unbound} }

func (n nodes) bound() bool { return n.r >= 0 && n.i >= 0 }

// stampComplex stamps a complex coefficient a coupling the current at row to
// the voltage at col: I_row += a·V_col, split into real and imaginary rows.
func stampComplex(y *sparse.Triplets, row, col nodes, a complex128) {
	g, b := real(a), imag(a)
	y.Add(row.r, col.r, g)
	y.Add(row.r, col.i, -b)
	y.Add(row.i, col.r, b)
	y.Add(row.i, col.i, g)
}

// voltage reads (Vr, Vi) at n and guards the degenerate operating point.
func voltage(v ecf.Vector, n nodes) (vr, vi, den float64, err error) {
	if !n.bound() {
		return 0, 0, 0, ecf.ErrUnbound
	}
	if n.r >= len(v) || n.i >= len(v) {
		return 0, 0, 0, fmt.Errorf("%w: nodes (%d, %d) outside estimate of length %d", ecf.ErrIndex, n.r, n.i, len(v))
	}
	vr, vi = v[n.r], v[n.i]
	den = vr*vr + vi*vi
	if !(den > MinVoltageSquared) || math.IsInf(den, 0) {
		return vr, vi, den, fmt.Errorf("%w: Vr²+Vi² = %g", ecf.ErrDomain, den)
	}
	return vr, vi, den, nil
}

func polar(vm, vaDeg float64) (vr, vi float64) {
	rad := vaDeg * pi180
	return vm * math.Cos(rad), vm * math.Sin(rad)
}
