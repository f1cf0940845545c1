package powerflow

import (
	"math"
	"math/cmplx"

	"github.com/san-kum/gridflow/internal/ecf"
	"github.com/san-kum/gridflow/internal/grid"
)

// mustNet builds and binds a network, panicking on any construction error.
func mustNet(build func(n *grid.Network) error) *grid.Network {
	net, err := grid.NewNetwork(grid.DefaultBase())
	if err != nil {
		panic(err)
	}
	if err := build(net); err != nil {
		panic(err)
	}
	if err := net.Bind(); err != nil {
		panic(err)
	}
	return net
}

func addBuses(n *grid.Network, numbers ...int) error {
	for _, num := range numbers {
		if _, err := n.AddBus(grid.BusParams{Number: num, Type: grid.BusPQ, Vm: 1}); err != nil {
			return err
		}
	}
	return nil
}

func singleSlack(vset, angle float64) *grid.Network {
	return mustNet(func(n *grid.Network) error {
		if _, err := n.AddBus(grid.BusParams{Number: 1, Type: grid.BusSlack, Vm: vset, Va: angle}); err != nil {
			return err
		}
		_, err := n.AddSlack(grid.SlackParams{Bus: 1, Vset: vset, Angle: angle})
		return err
	})
}

// twoBus is a slack feeding a PQ load over a lossless line of X = 0.1 pu.
func twoBus(p, q float64) *grid.Network {
	return mustNet(func(n *grid.Network) error {
		if err := addBuses(n, 1, 2); err != nil {
			return err
		}
		if _, err := n.AddSlack(grid.SlackParams{Bus: 1, Vset: 1}); err != nil {
			return err
		}
		if _, err := n.AddBranch(grid.BranchParams{From: 1, To: 2, X: 0.1}); err != nil {
			return err
		}
		_, err := n.AddLoad(grid.LoadParams{Bus: 2, P: p, Q: q})
		return err
	})
}

// graingerStevenson is the four-bus example of Grainger & Stevenson,
// Power System Analysis, Example 9.5.
func graingerStevenson() *grid.Network {
	return mustNet(func(n *grid.Network) error {
		if err := addBuses(n, 1, 2, 3, 4); err != nil {
			return err
		}
		if _, err := n.AddSlack(grid.SlackParams{Bus: 1, Vset: 1}); err != nil {
			return err
		}
		for _, br := range []grid.BranchParams{
			{From: 1, To: 2, R: 0.01008, X: 0.05040, B: 0.1025},
			{From: 1, To: 3, R: 0.00744, X: 0.03720, B: 0.0775},
			{From: 2, To: 4, R: 0.00744, X: 0.03720, B: 0.0775},
			{From: 3, To: 4, R: 0.01272, X: 0.06360, B: 0.1275},
		} {
			if _, err := n.AddBranch(br); err != nil {
				return err
			}
		}
		for _, l := range []grid.LoadParams{
			{Bus: 1, P: 50, Q: 30.99},
			{Bus: 2, P: 170, Q: 105.35},
			{Bus: 3, P: 200, Q: 123.94},
			{Bus: 4, P: 80, Q: 49.58},
		} {
			if _, err := n.AddLoad(l); err != nil {
				return err
			}
		}
		_, err := n.AddGenerator(grid.GeneratorParams{Bus: 4, P: 318, Vset: 1.02, Qmax: 300, Qmin: -300})
		return err
	})
}

// fiveBus mixes transformers, a shunt, ZIP loads and a PV generator.
func fiveBus() *grid.Network {
	return mustNet(func(n *grid.Network) error {
		if err := addBuses(n, 1, 2, 3, 4, 5); err != nil {
			return err
		}
		if _, err := n.AddSlack(grid.SlackParams{Bus: 1, Vset: 1.04}); err != nil {
			return err
		}
		for _, br := range []grid.BranchParams{
			{From: 1, To: 2, R: 0.02, X: 0.06, B: 0.06},
			{From: 3, To: 4, R: 0.01, X: 0.03, B: 0.02},
			{From: 1, To: 4, R: 0.08, X: 0.24, B: 0.05},
		} {
			if _, err := n.AddBranch(br); err != nil {
				return err
			}
		}
		for _, tr := range []grid.TransformerParams{
			{From: 2, To: 3, X: 0.08, Tap: 0.975},
			{From: 4, To: 5, R: 0.005, X: 0.05, Tap: 1, Angle: -2},
		} {
			if _, err := n.AddTransformer(tr); err != nil {
				return err
			}
		}
		if _, err := n.AddShunt(grid.ShuntParams{Bus: 3, B: 19}); err != nil {
			return err
		}
		for _, l := range []grid.LoadParams{
			{Bus: 3, P: 45, Q: 15, IP: 10, IQ: 5, ZP: 5, ZQ: 2},
			{Bus: 5, P: 60, Q: 10},
			{Bus: 4, P: 40, Q: 5, ZP: 8},
		} {
			if _, err := n.AddLoad(l); err != nil {
				return err
			}
		}
		_, err := n.AddGenerator(grid.GeneratorParams{Bus: 2, P: 40, Vset: 1.045, Qmax: 50, Qmin: -40})
		return err
	})
}

// busPolar returns |V| and the angle in degrees of a bus in v.
func busPolar(net *grid.Network, v ecf.Vector, bus int) (float64, float64) {
	z, err := net.BusVoltage(v, bus)
	if err != nil {
		panic(err)
	}
	return cmplx.Abs(z), cmplx.Phase(z) * 180 / math.Pi
}
