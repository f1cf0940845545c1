package powerflow

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/san-kum/gridflow/internal/ecf"
	"github.com/san-kum/gridflow/internal/grid"
	"github.com/san-kum/gridflow/internal/sparse"
)

func sameVector(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if math.Float64bits(a[i]) != math.Float64bits(b[i]) {
			return false
		}
	}
	return true
}

func TestAssemblyOrderIndependent(t *testing.T) {
	net := fiveBus()
	v, err := Initialize(net, true)
	if err != nil {
		t.Fatal(err)
	}
	// move away from the flat start so every stamp is non-trivial
	for i := range v {
		v[i] += 0.01 * float64(i%3)
	}

	categories := map[string][]grid.Element{
		"linear":    Elements(net.Linear()),
		"nonlinear": Elements(net.Nonlinear()),
	}
	for name, elems := range categories {
		t.Run(name, func(t *testing.T) {
			y0, j0, err := NewAssembler(net.Size(), elems).Assemble(v)
			if err != nil {
				t.Fatal(err)
			}
			rng := rand.New(rand.NewSource(1))
			for trial := 0; trial < 20; trial++ {
				perm := append([]grid.Element(nil), elems...)
				rng.Shuffle(len(perm), func(i, k int) { perm[i], perm[k] = perm[k], perm[i] })
				y, j, err := NewAssembler(net.Size(), perm).Assemble(v)
				if err != nil {
					t.Fatal(err)
				}
				if !y.Equal(y0) {
					t.Fatalf("trial %d: matrix depends on stamp order", trial)
				}
				if !sameVector(j, j0) {
					t.Fatalf("trial %d: injections depend on stamp order", trial)
				}
			}
		})
	}
}

func TestAssemblerReuse(t *testing.T) {
	net := graingerStevenson()
	v, _ := Initialize(net, true)
	a := NewAssembler(net.Size(), Elements(net.Nonlinear()))

	y1, j1, err := a.Assemble(v)
	if err != nil {
		t.Fatal(err)
	}
	other := v.Clone()
	other[2] = 0.9
	if _, _, err := a.Assemble(other); err != nil {
		t.Fatal(err)
	}
	y2, j2, err := a.Assemble(v)
	if err != nil {
		t.Fatal(err)
	}
	if !y1.Equal(y2) || !sameVector(j1, j2) {
		t.Error("stale entries survived a rebuild")
	}
}

func TestAssemblerSizedByFootprint(t *testing.T) {
	net := fiveBus()
	elems := Elements(net.Nonlinear())
	var wantY, wantJ int
	for _, e := range elems {
		y, j := e.Footprint()
		wantY += y
		wantJ += j
	}
	gotY, gotJ := NewAssembler(net.Size(), elems).Capacity()
	if gotY != wantY || gotJ != wantJ {
		t.Errorf("capacity (%d, %d), footprints (%d, %d)", gotY, gotJ, wantY, wantJ)
	}
}

// greedy stamps one entry more than its footprint admits.
type greedy struct{}

func (greedy) Kind() string          { return "greedy" }
func (greedy) ID() int               { return 7 }
func (greedy) InService() bool       { return true }
func (greedy) Footprint() (int, int) { return 1, 0 }
func (greedy) Stamp(_ ecf.Vector, y *sparse.Triplets, _ *sparse.Entries) error {
	y.Add(0, 0, 1)
	y.Add(0, 0, 1)
	return nil
}

func TestAssemblerOverflowIsLoud(t *testing.T) {
	_, _, err := NewAssembler(2, []grid.Element{greedy{}}).Assemble(ecf.Vector{1, 0})
	if !errors.Is(err, ecf.ErrOverflow) {
		t.Fatalf("expected ErrOverflow, got %v", err)
	}
	var stampErr *ecf.StampError
	if !errors.As(err, &stampErr) || stampErr.Kind != "greedy" || stampErr.ID != 7 {
		t.Errorf("overflow not attributed to the element: %v", err)
	}
}

func TestMismatch(t *testing.T) {
	net := twoBus(100, 50)
	v0, _ := Initialize(net, true)
	m0, err := Mismatch(net, v0)
	if err != nil {
		t.Fatal(err)
	}
	// flat start carries the full load current as mismatch
	if math.Abs(m0-1) > 1e-12 {
		t.Errorf("flat-start mismatch %v, want 1", m0)
	}

	s, _ := New(DefaultConfig())
	res, err := s.Run(net)
	if err != nil {
		t.Fatal(err)
	}
	m, err := Mismatch(net, res.V)
	if err != nil {
		t.Fatal(err)
	}
	if m > 1e-8 || m != res.Mismatch {
		t.Errorf("solution mismatch %v, result reports %v", m, res.Mismatch)
	}

	if _, err := Mismatch(net, ecf.Vector{1}); !errors.Is(err, ecf.ErrIndex) {
		t.Errorf("expected ErrIndex, got %v", err)
	}
}
