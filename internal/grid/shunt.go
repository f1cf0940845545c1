package grid

import (
	"github.com/san-kum/gridflow/internal/ecf"
	"github.com/san-kum/gridflow/internal/sparse"
)

// ShuntParams describes a fixed shunt: G (MW) and B (MVAr) consumed and
// supplied at 1 pu voltage.
type ShuntParams struct {
	Bus          int
	G, B         float64
	OutOfService bool
}

type Shunt struct {
	id     int
	params ShuntParams
	y      complex128
	n      nodes
}

func newShunt(id int, base Base, p ShuntParams) *Shunt {
	return &Shunt{
		id:     id,
		params: p,
		y:      complex(base.PerUnit(p.G), base.PerUnit(p.B)),
		n:      unboundNodes(),
	}
}

func (s *Shunt) Kind() string        { return "shunt" }
func (s *Shunt) ID() int             { return s.id }
func (s *Shunt) InService() bool     { return !s.params.OutOfService }
func (s *Shunt) Params() ShuntParams { return s.params }

func (s *Shunt) Footprint() (int, int) {
	if !s.InService() {
		return 0, 0
	}
	return 4, 0
}

func (s *Shunt) Stamp(_ ecf.Vector, y *sparse.Triplets, _ *sparse.Entries) error {
	if !s.InService() {
		return nil
	}
	if !s.n.bound() {
		return ecf.ErrUnbound
	}
	stampComplex(y, s.n, s.n, s.y)
	return nil
}
