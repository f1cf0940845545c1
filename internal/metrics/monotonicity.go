package metrics

import "github.com/san-kum/gridflow/internal/powerflow"

// Monotonicity is the fraction of iterations whose step error did not grow
// over the previous one. A healthy run scores 1.
type Monotonicity struct {
	name       string
	prev       float64
	violations int
	samples    int
}

func NewMonotonicity() *Monotonicity {
	return &Monotonicity{
		name: "monotonicity",
	}
}

func (m *Monotonicity) Name() string {
	return m.name
}

func (m *Monotonicity) OnIteration(it powerflow.Iteration) {
	if m.samples > 0 && it.Err > m.prev {
		m.violations++
	}
	m.prev = it.Err
	m.samples++
}

func (m *Monotonicity) Value() float64 {
	if m.samples < 2 {
		return 1.0
	}
	return 1.0 - float64(m.violations)/float64(m.samples-1)
}

func (m *Monotonicity) Reset() {
	m.prev = 0
	m.violations = 0
	m.samples = 0
}
