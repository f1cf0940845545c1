package metrics

import "github.com/san-kum/gridflow/internal/powerflow"

// History records the step error of every iteration.
type History struct {
	name string
	errs []float64
}

func NewHistory() *History {
	return &History{
		name: "final_error",
	}
}

func (h *History) Name() string {
	return h.name
}

func (h *History) OnIteration(it powerflow.Iteration) {
	h.errs = append(h.errs, it.Err)
}

// Value is the error of the last observed iteration.
func (h *History) Value() float64 {
	if len(h.errs) == 0 {
		return 0
	}
	return h.errs[len(h.errs)-1]
}

func (h *History) Errors() []float64 {
	out := make([]float64, len(h.errs))
	copy(out, h.errs)
	return out
}

func (h *History) Reset() {
	h.errs = h.errs[:0]
}
