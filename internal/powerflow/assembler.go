package powerflow

import (
	"github.com/san-kum/gridflow/internal/ecf"
	"github.com/san-kum/gridflow/internal/grid"
	"github.com/san-kum/gridflow/internal/sparse"
)

// Assembler stamps one category of elements into buffers sized exactly by
// their footprints. It is reused across iterations.
type Assembler struct {
	n     int
	elems []grid.Element
	y     *sparse.Triplets
	j     *sparse.Entries
}

func NewAssembler(n int, elems []grid.Element) *Assembler {
	var fy, fj int
	for _, e := range elems {
		y, j := e.Footprint()
		fy += y
		fj += j
	}
	return &Assembler{
		n:     n,
		elems: elems,
		y:     sparse.NewTriplets(n, fy),
		j:     sparse.NewEntries(n, fj),
	}
}

// Elements converts a typed element list for NewAssembler.
func Elements[E grid.Element](list []E) []grid.Element {
	out := make([]grid.Element, len(list))
	for i, e := range list {
		out[i] = e
	}
	return out
}

func (a *Assembler) Capacity() (y, j int) { return a.y.Cap(), a.j.Cap() }

// Assemble rebuilds the system from scratch around v. Every element reads
// the same v.
func (a *Assembler) Assemble(v ecf.Vector) (*sparse.CSR, []float64, error) {
	a.y.Reset()
	a.j.Reset()

	for _, e := range a.elems {
		err := e.Stamp(v, a.y, a.j)
		if err == nil {
			err = a.y.Err()
		}
		if err == nil {
			err = a.j.Err()
		}
		if err != nil {
			return nil, nil, &ecf.StampError{Kind: e.Kind(), ID: e.ID(), Wrapped: err}
		}
	}

	y, err := a.y.Compress()
	if err != nil {
		return nil, nil, err
	}
	j, err := a.j.Dense()
	if err != nil {
		return nil, nil, err
	}
	return y, j, nil
}
