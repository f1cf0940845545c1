package metrics

import (
	"math"

	"github.com/san-kum/gridflow/internal/powerflow"
)

// Contraction estimates the order of convergence from the last three step
// errors:
//
//	p = log(e_k / e_{k-1}) / log(e_{k-1} / e_{k-2})
//
// Newton-Raphson near a regular solution gives p close to 2.
type Contraction struct {
	name string
	last [3]float64
	seen int
}

func NewContraction() *Contraction {
	return &Contraction{
		name: "convergence_order",
	}
}

func (c *Contraction) Name() string { return c.name }

func (c *Contraction) OnIteration(it powerflow.Iteration) {
	c.last[0], c.last[1], c.last[2] = c.last[1], c.last[2], it.Err
	c.seen++
}

// Value is 0 until three iterations were seen, or when the errors do not
// define an order (a zero error or a stalled step).
func (c *Contraction) Value() float64 {
	if c.seen < 3 {
		return 0
	}
	e0, e1, e2 := c.last[0], c.last[1], c.last[2]
	if e0 <= 0 || e1 <= 0 || e2 <= 0 || e1 == e0 {
		return 0
	}
	p := math.Log(e2/e1) / math.Log(e1/e0)
	if math.IsNaN(p) || math.IsInf(p, 0) {
		return 0
	}
	return p
}

func (c *Contraction) Reset() {
	c.last = [3]float64{}
	c.seen = 0
}
