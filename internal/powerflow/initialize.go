package powerflow

import (
	"fmt"

	"github.com/san-kum/gridflow/internal/ecf"
	"github.com/san-kum/gridflow/internal/grid"
)

// Initialize builds the starting estimate.
//
// Flat start sets every bus to 1∠0, every generator Q unknown to the
// midpoint of the summed [Qmin, Qmax] of the generators sharing it and the
// slack currents to zero. The midpoint is assigned as is, without the sign
// flip the warm start applies.
//
// Warm start takes the stored bus voltages, -ΣQinit for each generator Q
// unknown and the slack currents derived from Pinit and Qinit.
//
// Each index is written exactly once; a repeated write or a hole is an
// error.
func Initialize(net *grid.Network, flat bool) (ecf.Vector, error) {
	if !net.Bound() {
		return nil, grid.ErrNotBound
	}
	n := net.Size()
	v := make(ecf.Vector, n)
	written := make([]bool, n)

	set := func(idx int, x float64) error {
		if idx < 0 || idx >= n {
			return fmt.Errorf("initialize: %w: %d", ecf.ErrIndex, idx)
		}
		if written[idx] {
			return fmt.Errorf("initialize: node %d written twice", idx)
		}
		v[idx] = x
		written[idx] = true
		return nil
	}

	for _, b := range net.Buses {
		vr, vi := b.Nodes()
		x, y := 1.0, 0.0
		if !flat {
			x, y = b.VrInit(), b.ViInit()
		}
		if err := set(vr, x); err != nil {
			return nil, err
		}
		if err := set(vi, y); err != nil {
			return nil, err
		}
	}

	type qGroup struct {
		mid, init float64
	}
	groups := make(map[int]*qGroup)
	var order []int
	for _, g := range net.Generators {
		if !g.InService() {
			continue
		}
		grp, ok := groups[g.QNode()]
		if !ok {
			grp = &qGroup{}
			groups[g.QNode()] = grp
			order = append(order, g.QNode())
		}
		grp.mid += g.QMid()
		grp.init += g.QInit()
	}
	for _, q := range order {
		x := -groups[q].init
		if flat {
			x = groups[q].mid
		}
		if err := set(q, x); err != nil {
			return nil, err
		}
	}

	for _, s := range net.Slacks {
		if !s.InService() {
			continue
		}
		ir, ii := s.CurrentNodes()
		x, y := 0.0, 0.0
		if !flat {
			x, y = s.IrInit(), s.IiInit()
		}
		if err := set(ir, x); err != nil {
			return nil, err
		}
		if err := set(ii, y); err != nil {
			return nil, err
		}
	}

	for i, ok := range written {
		if !ok {
			return nil, fmt.Errorf("initialize: node %d never written", i)
		}
	}
	return v, nil
}
