package grid

import (
	"github.com/san-kum/gridflow/internal/ecf"
	"github.com/san-kum/gridflow/internal/sparse"
)

// BranchParams describes a transmission line π model. R, X and the total
// line charging B are in pu on the system base.
type BranchParams struct {
	From, To     int
	R, X, B      float64
	OutOfService bool
}

type Branch struct {
	id     int
	params BranchParams
	y      complex128
	bsh    float64
	from   nodes
	to     nodes
}

func newBranch(id int, p BranchParams) *Branch {
	return &Branch{
		id:     id,
		params: p,
		y:      1 / complex(p.R, p.X),
		bsh:    p.B / 2,
		from:   unboundNodes(),
		to:     unboundNodes(),
	}
}

func (b *Branch) Kind() string         { return "branch" }
func (b *Branch) ID() int              { return b.id }
func (b *Branch) InService() bool      { return !b.params.OutOfService }
func (b *Branch) Params() BranchParams { return b.params }

func (b *Branch) Footprint() (int, int) {
	if !b.InService() {
		return 0, 0
	}
	return 16, 0
}

func (b *Branch) Stamp(_ ecf.Vector, y *sparse.Triplets, _ *sparse.Entries) error {
	if !b.InService() {
		return nil
	}
	if !b.from.bound() || !b.to.bound() {
		return ecf.ErrUnbound
	}
	self := b.y + complex(0, b.bsh)
	stampComplex(y, b.from, b.from, self)
	stampComplex(y, b.from, b.to, -b.y)
	stampComplex(y, b.to, b.from, -b.y)
	stampComplex(y, b.to, b.to, self)
	return nil
}
