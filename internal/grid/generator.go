package grid

import (
	"github.com/san-kum/gridflow/internal/ecf"
	"github.com/san-kum/gridflow/internal/sparse"
)

// GeneratorParams describes a voltage-controlled (PV) generator. P, Qmax,
// Qmin and Qinit are in MW / MVAr of generation, Vset in pu.
type GeneratorParams struct {
	Bus          int
	P            float64
	Vset         float64
	Qmax, Qmin   float64
	Qinit        float64
	OutOfService bool
}

// Generator is a PV generator with one reactive-power unknown. The unknown
// holds Q in load convention (-Qgen, pu). Generators on the same bus share
// that unknown; only the primary one stamps the Q coupling and the voltage
// magnitude constraint.
type Generator struct {
	id      int
	params  GeneratorParams
	p       float64 // load convention: -Pgen
	vset    float64
	qmax    float64
	qmin    float64
	qinit   float64
	n       nodes
	q       int
	primary bool
}

func newGenerator(id int, base Base, p GeneratorParams) *Generator {
	return &Generator{
		id:     id,
		params: p,
		p:      -base.PerUnit(p.P),
		vset:   p.Vset,
		qmax:   base.PerUnit(p.Qmax),
		qmin:   base.PerUnit(p.Qmin),
		qinit:  base.PerUnit(p.Qinit),
		n:      unboundNodes(),
		q:      unbound,
	}
}

func (g *Generator) Kind() string            { return "generator" }
func (g *Generator) ID() int                 { return g.id }
func (g *Generator) InService() bool         { return !g.params.OutOfService }
func (g *Generator) Params() GeneratorParams { return g.params }

// QNode is the shared reactive-power unknown of the generator's bus.
func (g *Generator) QNode() int     { return g.q }
func (g *Generator) Primary() bool  { return g.primary }
func (g *Generator) QMid() float64  { return (g.qmax + g.qmin) / 2 }
func (g *Generator) QInit() float64 { return g.qinit }

func (g *Generator) Footprint() (int, int) {
	switch {
	case !g.InService():
		return 0, 0
	case g.primary:
		return 8, 3
	default:
		return 4, 2
	}
}

type generatorModel struct {
	ir, ii         float64
	dIrdVr, dIrdVi float64
	dIidVr, dIidVi float64
	dIrdQ, dIidQ   float64
}

func (g *Generator) model(vr, vi, den, q float64) generatorModel {
	den2 := den * den
	m := generatorModel{
		ir:     (g.p*vr + q*vi) / den,
		ii:     (g.p*vi - q*vr) / den,
		dIrdVr: (g.p*(vi*vi-vr*vr) - 2*q*vr*vi) / den2,
		dIrdVi: (q*(vr*vr-vi*vi) - 2*g.p*vr*vi) / den2,
	}
	m.dIidVr = m.dIrdVi
	m.dIidVi = -m.dIrdVr
	if g.primary {
		m.dIrdQ = vi / den
		m.dIidQ = -vr / den
	}
	return m
}

func (g *Generator) operatingPoint(v ecf.Vector) (vr, vi, den, q float64, err error) {
	vr, vi, den, err = voltage(v, g.n)
	if err != nil {
		return 0, 0, 0, 0, err
	}
	if g.q < 0 {
		return 0, 0, 0, 0, ecf.ErrUnbound
	}
	if g.q >= len(v) {
		return 0, 0, 0, 0, ecf.ErrIndex
	}
	if g.primary {
		q = v[g.q]
	}
	return vr, vi, den, q, nil
}

func (g *Generator) Stamp(v ecf.Vector, y *sparse.Triplets, j *sparse.Entries) error {
	if !g.InService() {
		return nil
	}
	vr, vi, den, q, err := g.operatingPoint(v)
	if err != nil {
		return err
	}
	m := g.model(vr, vi, den, q)

	y.Add(g.n.r, g.n.r, m.dIrdVr)
	y.Add(g.n.r, g.n.i, m.dIrdVi)
	y.Add(g.n.i, g.n.r, m.dIidVr)
	y.Add(g.n.i, g.n.i, m.dIidVi)
	if !g.primary {
		j.Add(g.n.r, -m.ir+m.dIrdVr*vr+m.dIrdVi*vi)
		j.Add(g.n.i, -m.ii+m.dIidVr*vr+m.dIidVi*vi)
		return nil
	}

	y.Add(g.n.r, g.q, m.dIrdQ)
	y.Add(g.n.i, g.q, m.dIidQ)
	j.Add(g.n.r, -m.ir+m.dIrdVr*vr+m.dIrdVi*vi+m.dIrdQ*q)
	j.Add(g.n.i, -m.ii+m.dIidVr*vr+m.dIidVi*vi+m.dIidQ*q)

	// Vr²+Vi² = Vset², linearized.
	y.Add(g.q, g.n.r, 2*vr)
	y.Add(g.q, g.n.i, 2*vi)
	j.Add(g.q, g.vset*g.vset+den)
	return nil
}

func (g *Generator) Residual(v ecf.Vector, resid ecf.Vector) error {
	if !g.InService() {
		return nil
	}
	vr, vi, den, q, err := g.operatingPoint(v)
	if err != nil {
		return err
	}
	m := g.model(vr, vi, den, q)
	resid[g.n.r] += m.ir
	resid[g.n.i] += m.ii
	if g.primary {
		resid[g.q] += den - g.vset*g.vset
	}
	return nil
}

// Output returns the generated P (MW) and, for the primary generator, the
// bus reactive output Q (MVAr) at solution v. Secondary generators report
// Q = 0 since the bus Q is carried by the primary.
func (g *Generator) Output(base Base, v ecf.Vector) (p, q float64) {
	p = g.params.P
	if g.primary && g.q >= 0 && g.q < len(v) {
		q = -v[g.q] * base.MVA
	}
	return p, q
}
