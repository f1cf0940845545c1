package casefile

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/san-kum/gridflow/internal/ecf"
	"github.com/san-kum/gridflow/internal/grid"
)

// Build adds every element to a new network, in file order, and binds it.
func (c *Case) Build() (*grid.Network, error) {
	base := grid.Base{MVA: c.BaseMVA}
	if c.BaseMVA == 0 {
		base = grid.DefaultBase()
	}
	net, err := grid.NewNetwork(base)
	if err != nil {
		return nil, err
	}

	for i, b := range c.Buses {
		vm := b.Vm
		if vm == 0 {
			vm = 1
		}
		p := grid.BusParams{Number: b.Number, Type: b.Type, Vm: vm, Va: b.Va, Area: b.Area, Name: b.Name}
		if _, err := net.AddBus(p); err != nil {
			return nil, fmt.Errorf("buses[%d]: %w", i, err)
		}
	}
	for i, s := range c.Slacks {
		p := grid.SlackParams{
			Bus: s.Bus, Vset: s.Vset, Angle: s.Angle,
			Pinit: s.Pinit, Qinit: s.Qinit, OutOfService: s.OutOfService,
		}
		if _, err := net.AddSlack(p); err != nil {
			return nil, fmt.Errorf("slacks[%d]: %w", i, err)
		}
	}
	for i, g := range c.Generators {
		p := grid.GeneratorParams{
			Bus: g.Bus, P: g.P, Vset: g.Vset, Qmax: g.Qmax, Qmin: g.Qmin,
			Qinit: g.Qinit, OutOfService: g.OutOfService,
		}
		if _, err := net.AddGenerator(p); err != nil {
			return nil, fmt.Errorf("generators[%d]: %w", i, err)
		}
	}
	for i, b := range c.Branches {
		p := grid.BranchParams{From: b.From, To: b.To, R: b.R, X: b.X, B: b.B, OutOfService: b.OutOfService}
		if _, err := net.AddBranch(p); err != nil {
			return nil, fmt.Errorf("branches[%d]: %w", i, err)
		}
	}
	for i, t := range c.Transformers {
		p := grid.TransformerParams{
			From: t.From, To: t.To, R: t.R, X: t.X,
			Tap: t.Tap, Angle: t.Angle, OutOfService: t.OutOfService,
		}
		if _, err := net.AddTransformer(p); err != nil {
			return nil, fmt.Errorf("transformers[%d]: %w", i, err)
		}
	}
	for i, s := range c.Shunts {
		p := grid.ShuntParams{Bus: s.Bus, G: s.G, B: s.B, OutOfService: s.OutOfService}
		if _, err := net.AddShunt(p); err != nil {
			return nil, fmt.Errorf("shunts[%d]: %w", i, err)
		}
	}
	for i, l := range c.Loads {
		p := grid.LoadParams{
			Bus: l.Bus, P: l.P, Q: l.Q, IP: l.IP, IQ: l.IQ, ZP: l.ZP, ZQ: l.ZQ,
			Area: l.Area, OutOfService: l.OutOfService,
		}
		if _, err := net.AddLoad(p); err != nil {
			return nil, fmt.Errorf("loads[%d]: %w", i, err)
		}
	}

	if err := net.Bind(); err != nil {
		return nil, err
	}
	return net, nil
}

// ApplySolution stores a solution of net as the case's operating point:
// bus voltages, generator reactive output and slack power. net must have
// been built from c. Solving the updated case with a warm start begins at v.
func (c *Case) ApplySolution(net *grid.Network, v ecf.Vector) error {
	if len(net.Buses) != len(c.Buses) || len(net.Generators) != len(c.Generators) ||
		len(net.Slacks) != len(c.Slacks) {
		return fmt.Errorf("network was not built from case %q", c.Name)
	}

	for i := range c.Buses {
		z, err := net.BusVoltage(v, c.Buses[i].Number)
		if err != nil {
			return err
		}
		c.Buses[i].Vm = cmplx.Abs(z)
		c.Buses[i].Va = cmplx.Phase(z) * 180 / math.Pi
	}
	for i, g := range net.Generators {
		if !g.InService() {
			continue
		}
		_, q := g.Output(net.Base, v)
		c.Generators[i].Qinit = q
	}
	for i, s := range net.Slacks {
		if !s.InService() {
			continue
		}
		c.Slacks[i].Pinit, c.Slacks[i].Qinit = s.Output(net.Base, v)
	}
	return nil
}
