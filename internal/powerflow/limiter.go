package powerflow

import (
	"github.com/san-kum/gridflow/internal/ecf"
	"github.com/san-kum/gridflow/internal/grid"
)

// Limiter adjusts a candidate estimate before it is accepted. It is called
// only when limiting is enabled and the step still exceeds the tolerance.
// Implementations must not modify prev or candidate.
type Limiter interface {
	Limit(prev, candidate ecf.Vector) ecf.Vector
}

// NoLimit accepts every candidate unchanged.
type NoLimit struct{}

func (NoLimit) Limit(_, candidate ecf.Vector) ecf.Vector { return candidate }

// StepLimiter clamps the per-iteration change of each bus voltage component
// (Vr and Vi separately, so |V| may move by up to sqrt(2) times the step)
// and of each generator Q unknown. A non-positive step leaves that group
// unlimited. Slack currents are never limited.
type StepLimiter struct {
	MaxVoltageStep float64
	MaxQStep       float64

	voltage  []int
	reactive []int
}

// NewStepLimiter binds the limiter to the unknowns of a bound network.
func NewStepLimiter(net *grid.Network, maxVoltageStep, maxQStep float64) *StepLimiter {
	l := &StepLimiter{MaxVoltageStep: maxVoltageStep, MaxQStep: maxQStep}
	for _, b := range net.Buses {
		vr, vi := b.Nodes()
		l.voltage = append(l.voltage, vr, vi)
	}
	for _, g := range net.Generators {
		if g.InService() && g.Primary() {
			l.reactive = append(l.reactive, g.QNode())
		}
	}
	return l
}

func (l *StepLimiter) Limit(prev, candidate ecf.Vector) ecf.Vector {
	out := candidate.Clone()
	clampSteps(out, prev, l.voltage, l.MaxVoltageStep)
	clampSteps(out, prev, l.reactive, l.MaxQStep)
	return out
}

func clampSteps(out, prev ecf.Vector, idx []int, step float64) {
	if step <= 0 {
		return
	}
	for _, i := range idx {
		if i < 0 || i >= len(out) || i >= len(prev) {
			continue
		}
		d := out[i] - prev[i]
		switch {
		case d > step:
			out[i] = prev[i] + step
		case d < -step:
			out[i] = prev[i] - step
		}
	}
}
