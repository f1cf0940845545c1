package powerflow

import "github.com/san-kum/gridflow/internal/ecf"

type Status struct {
	Iterations int
	FinalError float64
	Converged  bool
}

type Result struct {
	// V is the solution when Converged, otherwise the last accepted
	// estimate.
	V ecf.Vector
	Status
	// History holds the step error of every iteration.
	History []float64
	// Mismatch is the infinity norm of the network current and constraint
	// residual at V. It is +Inf when V is outside the model's domain.
	Mismatch float64
}

// Provisional reports whether V must not be used as a solution.
func (r *Result) Provisional() bool {
	return !r.Converged
}
