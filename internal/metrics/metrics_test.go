package metrics

import (
	"math"
	"testing"

	"github.com/san-kum/gridflow/internal/grid"
	"github.com/san-kum/gridflow/internal/powerflow"
)

func feed(m powerflow.Observer, errs ...float64) {
	for i, e := range errs {
		m.OnIteration(powerflow.Iteration{N: i + 1, Err: e})
	}
}

func TestHistory(t *testing.T) {
	h := NewHistory()
	if h.Value() != 0 {
		t.Errorf("expected 0 before any iteration, got %v", h.Value())
	}

	feed(h, 0.5, 0.1, 0.01)
	if h.Value() != 0.01 {
		t.Errorf("expected last error 0.01, got %v", h.Value())
	}
	errs := h.Errors()
	if len(errs) != 3 || errs[0] != 0.5 {
		t.Errorf("unexpected trace %v", errs)
	}

	errs[0] = 42
	if h.Errors()[0] != 0.5 {
		t.Error("Errors must return a copy")
	}

	h.Reset()
	if len(h.Errors()) != 0 {
		t.Error("expected empty trace after reset")
	}
}

func TestContraction(t *testing.T) {
	tests := []struct {
		name string
		errs []float64
		want float64
	}{
		{"too few", []float64{1, 0.1}, 0},
		{"quadratic", []float64{1e-1, 1e-2, 1e-4, 1e-8}, 2},
		{"linear", []float64{1, 0.5, 0.25}, 1},
		{"exact zero", []float64{1, 0.1, 0}, 0},
		{"stalled", []float64{0.3, 0.3, 0.1}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewContraction()
			feed(c, tt.errs...)
			if got := c.Value(); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("expected order %v, got %v", tt.want, got)
			}
		})
	}
}

func TestContractionReset(t *testing.T) {
	c := NewContraction()
	feed(c, 1e-1, 1e-2, 1e-4)
	if c.Value() == 0 {
		t.Fatal("expected an order estimate")
	}
	c.Reset()
	if c.Value() != 0 {
		t.Error("expected zero after reset")
	}
}

func TestMonotonicity(t *testing.T) {
	m := NewMonotonicity()
	if m.Value() != 1 {
		t.Errorf("expected 1 with no samples, got %v", m.Value())
	}

	feed(m, 1, 0.5, 0.8, 0.2, 0.1)
	if got := m.Value(); got != 0.75 {
		t.Errorf("expected 0.75, got %v", got)
	}

	m.Reset()
	feed(m, 1, 0.5)
	if m.Value() != 1 {
		t.Errorf("expected 1 after reset, got %v", m.Value())
	}
}

func TestSetOnSolverRun(t *testing.T) {
	net, err := grid.NewNetwork(grid.DefaultBase())
	if err != nil {
		t.Fatal(err)
	}
	net.AddBus(grid.BusParams{Number: 1, Vm: 1})
	net.AddBus(grid.BusParams{Number: 2, Vm: 1})
	net.AddSlack(grid.SlackParams{Bus: 1, Vset: 1})
	net.AddBranch(grid.BranchParams{From: 1, To: 2, X: 0.1})
	net.AddLoad(grid.LoadParams{Bus: 2, P: 100, Q: 50})
	if err := net.Bind(); err != nil {
		t.Fatal(err)
	}

	set := Default()
	s, err := powerflow.New(powerflow.DefaultConfig(), powerflow.WithObserver(set))
	if err != nil {
		t.Fatal(err)
	}
	res, err := s.Run(net)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	vals := set.Values()
	if vals["final_error"] != res.FinalError {
		t.Errorf("final_error %v != %v", vals["final_error"], res.FinalError)
	}
	if order := vals["convergence_order"]; order < 1.5 || order > 2.5 {
		t.Errorf("expected near-quadratic convergence, got order %v", order)
	}
	if vals["monotonicity"] != 1 {
		t.Errorf("expected monotone run, got %v", vals["monotonicity"])
	}

	set.Reset()
	if set.Values()["final_error"] != 0 {
		t.Error("Set.Reset should reset every metric")
	}
}
