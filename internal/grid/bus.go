package grid

// Bus types as numbered in network case files.
const (
	BusPQ       = 1
	BusPV       = 2
	BusSlack    = 3
	BusIsolated = 4
)

type BusParams struct {
	Number int
	Type   int
	// Vm (pu) and Va (deg) are the stored operating point used by warm start.
	Vm   float64
	Va   float64
	Area int
	Name string
}

type Bus struct {
	id     int
	params BusParams
	vrInit float64
	viInit float64
	n      nodes
}

func newBus(id int, p BusParams) *Bus {
	vr, vi := polar(p.Vm, p.Va)
	return &Bus{id: id, params: p, vrInit: vr, viInit: vi, n: unboundNodes()}
}

func (b *Bus) ID() int           { return b.id }
func (b *Bus) Number() int       { return b.params.Number }
func (b *Bus) Params() BusParams { return b.params }
func (b *Bus) VrInit() float64   { return b.vrInit }
func (b *Bus) ViInit() float64   { return b.viInit }

// Nodes returns the (Vr, Vi) indices, or (-1, -1) before binding.
func (b *Bus) Nodes() (vr, vi int) { return b.n.r, b.n.i }
