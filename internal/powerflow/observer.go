package powerflow

import "github.com/san-kum/gridflow/internal/ecf"

// Iteration is reported once per Newton-Raphson step. V is the candidate
// solution of that step and must not be modified.
type Iteration struct {
	N   int
	Err float64
	V   ecf.Vector
}

type Observer interface {
	OnIteration(it Iteration)
}

type ObserverFunc func(Iteration)

func (f ObserverFunc) OnIteration(it Iteration) { f(it) }
