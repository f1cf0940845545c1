// Package metrics collects figures of merit from Newton-Raphson iterations.
package metrics

import "github.com/san-kum/gridflow/internal/powerflow"

type Metric interface {
	powerflow.Observer
	Name() string
	Value() float64
	Reset()
}

// Set fans iterations out to several metrics.
type Set []Metric

func (s Set) OnIteration(it powerflow.Iteration) {
	for _, m := range s {
		m.OnIteration(it)
	}
}

func (s Set) Reset() {
	for _, m := range s {
		m.Reset()
	}
}

// Values returns every metric keyed by name.
func (s Set) Values() map[string]float64 {
	out := make(map[string]float64, len(s))
	for _, m := range s {
		out[m.Name()] = m.Value()
	}
	return out
}

// Default is the set the command line attaches to every run.
func Default() Set {
	return Set{NewHistory(), NewContraction(), NewMonotonicity()}
}
