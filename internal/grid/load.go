package grid

import (
	"math"

	"github.com/san-kum/gridflow/internal/ecf"
	"github.com/san-kum/gridflow/internal/sparse"
)

// LoadParams describes a ZIP load in MW / MVAr. P and Q are the
// constant-power part, IP and IQ the constant-current part and ZP and ZQ the
// constant-impedance part, the latter two quoted at 1 pu voltage.
type LoadParams struct {
	Bus          int
	P, Q         float64
	IP, IQ       float64
	ZP, ZQ       float64
	Area         int
	OutOfService bool
}

// Load is a PQ/ZIP load. Around an estimate (Vr, Vi) it stamps as a
// conductance, a voltage-controlled current source coupling the real and
// imaginary circuits, and an independent current source that makes the
// linear model reproduce the nonlinear current at the expansion point.
type Load struct {
	id     int
	params LoadParams
	p, q   float64
	ip, iq float64
	zp, zq float64
	n      nodes
}

func newLoad(id int, base Base, p LoadParams) *Load {
	return &Load{
		id:     id,
		params: p,
		p:      base.PerUnit(p.P),
		q:      base.PerUnit(p.Q),
		ip:     base.PerUnit(p.IP),
		iq:     base.PerUnit(p.IQ),
		zp:     base.PerUnit(p.ZP),
		zq:     base.PerUnit(p.ZQ),
		n:      unboundNodes(),
	}
}

func (l *Load) Kind() string       { return "load" }
func (l *Load) ID() int            { return l.id }
func (l *Load) InService() bool    { return !l.params.OutOfService }
func (l *Load) Params() LoadParams { return l.params }

func (l *Load) Footprint() (int, int) {
	if !l.InService() {
		return 0, 0
	}
	return 4, 2
}

// loadModel is the load current and its Jacobian at one operating point.
type loadModel struct {
	ir, ii         float64
	dIrdVr, dIrdVi float64
	dIidVr, dIidVi float64
}

func (l *Load) model(vr, vi, den float64) loadModel {
	var m loadModel

	// constant power
	den2 := den * den
	m.ir = (l.p*vr + l.q*vi) / den
	m.ii = (l.p*vi - l.q*vr) / den
	m.dIrdVr = (l.p*(vi*vi-vr*vr) - 2*l.q*vr*vi) / den2
	m.dIrdVi = (l.q*(vr*vr-vi*vi) - 2*l.p*vr*vi) / den2
	m.dIidVr = m.dIrdVi
	m.dIidVi = -m.dIrdVr

	// constant current: I = (IP - jIQ)·V/|V|
	if l.ip != 0 || l.iq != 0 {
		mag := math.Sqrt(den)
		mag3 := mag * den
		m.ir += (l.ip*vr + l.iq*vi) / mag
		m.ii += (l.ip*vi - l.iq*vr) / mag
		m.dIrdVr += (l.ip*vi*vi - l.iq*vr*vi) / mag3
		m.dIrdVi += (l.iq*vr*vr - l.ip*vr*vi) / mag3
		m.dIidVr += (-l.iq*vi*vi - l.ip*vr*vi) / mag3
		m.dIidVi += (l.ip*vr*vr + l.iq*vr*vi) / mag3
	}

	// constant impedance: I = (ZP - jZQ)·V
	if l.zp != 0 || l.zq != 0 {
		m.ir += l.zp*vr + l.zq*vi
		m.ii += l.zp*vi - l.zq*vr
		m.dIrdVr += l.zp
		m.dIrdVi += l.zq
		m.dIidVr -= l.zq
		m.dIidVi += l.zp
	}
	return m
}

func (l *Load) Stamp(v ecf.Vector, y *sparse.Triplets, j *sparse.Entries) error {
	if !l.InService() {
		return nil
	}
	vr, vi, den, err := voltage(v, l.n)
	if err != nil {
		return err
	}
	m := l.model(vr, vi, den)

	y.Add(l.n.r, l.n.r, m.dIrdVr)
	y.Add(l.n.r, l.n.i, m.dIrdVi)
	j.Add(l.n.r, -m.ir+m.dIrdVr*vr+m.dIrdVi*vi)

	y.Add(l.n.i, l.n.r, m.dIidVr)
	y.Add(l.n.i, l.n.i, m.dIidVi)
	j.Add(l.n.i, -m.ii+m.dIidVr*vr+m.dIidVi*vi)
	return nil
}

// Residual adds the load's nonlinear current at v.
func (l *Load) Residual(v ecf.Vector, resid ecf.Vector) error {
	if !l.InService() {
		return nil
	}
	vr, vi, den, err := voltage(v, l.n)
	if err != nil {
		return err
	}
	m := l.model(vr, vi, den)
	resid[l.n.r] += m.ir
	resid[l.n.i] += m.ii
	return nil
}
