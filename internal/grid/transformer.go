package grid

import (
	"math/cmplx"

	"github.com/san-kum/gridflow/internal/ecf"
	"github.com/san-kum/gridflow/internal/sparse"
)

// TransformerParams describes a two-winding transformer with an off-nominal
// tap ratio and phase shift on the from side. R and X are in pu on the
// system base, Angle in degrees. A zero Tap is read as 1.
type TransformerParams struct {
	From, To     int
	R, X         float64
	Tap          float64
	Angle        float64
	OutOfService bool
}

type Transformer struct {
	id     int
	params TransformerParams
	yff    complex128
	yft    complex128
	ytf    complex128
	ytt    complex128
	from   nodes
	to     nodes
}

func newTransformer(id int, p TransformerParams) *Transformer {
	tap := p.Tap
	if tap == 0 {
		tap = 1
	}
	a := cmplx.Rect(tap, p.Angle*pi180)
	y := 1 / complex(p.R, p.X)
	return &Transformer{
		id:     id,
		params: p,
		yff:    y / complex(tap*tap, 0),
		yft:    -y / cmplx.Conj(a),
		ytf:    -y / a,
		ytt:    y,
		from:   unboundNodes(),
		to:     unboundNodes(),
	}
}

func (t *Transformer) Kind() string              { return "transformer" }
func (t *Transformer) ID() int                   { return t.id }
func (t *Transformer) InService() bool           { return !t.params.OutOfService }
func (t *Transformer) Params() TransformerParams { return t.params }

func (t *Transformer) Footprint() (int, int) {
	if !t.InService() {
		return 0, 0
	}
	return 16, 0
}

func (t *Transformer) Stamp(_ ecf.Vector, y *sparse.Triplets, _ *sparse.Entries) error {
	if !t.InService() {
		return nil
	}
	if !t.from.bound() || !t.to.bound() {
		return ecf.ErrUnbound
	}
	stampComplex(y, t.from, t.from, t.yff)
	stampComplex(y, t.from, t.to, t.yft)
	stampComplex(y, t.to, t.from, t.ytf)
	stampComplex(y, t.to, t.to, t.ytt)
	return nil
}
