package grid

import (
	"github.com/san-kum/gridflow/internal/ecf"
	"github.com/san-kum/gridflow/internal/sparse"
)

// SlackParams describes the reference source. Vset is in pu, Angle in
// degrees; Pinit and Qinit (MW / MVAr) seed the warm-start currents.
type SlackParams struct {
	Bus          int
	Vset         float64
	Angle        float64
	Pinit, Qinit float64
	OutOfService bool
}

// Slack is an ideal voltage source. Its two auxiliary unknowns are the
// current flowing from the bus into the source.
type Slack struct {
	id     int
	params SlackParams
	vr, vi float64
	irInit float64
	iiInit float64
	n      nodes
	cur    nodes
}

func newSlack(id int, base Base, p SlackParams) *Slack {
	vr, vi := polar(p.Vset, p.Angle)
	s := &Slack{
		id:     id,
		params: p,
		vr:     vr,
		vi:     vi,
		n:      unboundNodes(),
		cur:    unboundNodes(),
	}
	if den := vr*vr + vi*vi; den > MinVoltageSquared {
		pp, qq := base.PerUnit(p.Pinit), base.PerUnit(p.Qinit)
		s.irInit = -(pp*vr + qq*vi) / den
		s.iiInit = -(pp*vi - qq*vr) / den
	}
	return s
}

func (s *Slack) Kind() string        { return "slack" }
func (s *Slack) ID() int             { return s.id }
func (s *Slack) InService() bool     { return !s.params.OutOfService }
func (s *Slack) Params() SlackParams { return s.params }
func (s *Slack) IrInit() float64     { return s.irInit }
func (s *Slack) IiInit() float64     { return s.iiInit }

// CurrentNodes returns the (Ir, Ii) unknowns, or (-1, -1) before binding.
func (s *Slack) CurrentNodes() (ir, ii int) { return s.cur.r, s.cur.i }

// Setpoint returns the configured voltage as (Vr, Vi).
func (s *Slack) Setpoint() (vr, vi float64) { return s.vr, s.vi }

func (s *Slack) Footprint() (int, int) {
	if !s.InService() {
		return 0, 0
	}
	return 4, 2
}

func (s *Slack) Stamp(_ ecf.Vector, y *sparse.Triplets, j *sparse.Entries) error {
	if !s.InService() {
		return nil
	}
	if !s.n.bound() || !s.cur.bound() {
		return ecf.ErrUnbound
	}
	y.Add(s.n.r, s.cur.r, 1)
	y.Add(s.cur.r, s.n.r, 1)
	j.Add(s.cur.r, s.vr)

	y.Add(s.n.i, s.cur.i, 1)
	y.Add(s.cur.i, s.n.i, 1)
	j.Add(s.cur.i, s.vi)
	return nil
}

// Output returns the power delivered by the source (MW, MVAr) at v.
func (s *Slack) Output(base Base, v ecf.Vector) (p, q float64) {
	if !s.n.bound() || !s.cur.bound() {
		return 0, 0
	}
	vr, vi := v[s.n.r], v[s.n.i]
	ir, ii := v[s.cur.r], v[s.cur.i]
	p = -(vr*ir + vi*ii) * base.MVA
	q = -(vi*ir - vr*ii) * base.MVA
	return p, q
}
