package ecf

import (
	"errors"
	"fmt"
)

var (
	// ErrDomain indicates a degenerate operating point (e.g. Vr²+Vi² at or near zero).
	ErrDomain = errors.New("ecf: degenerate operating point")

	// ErrLinearSystem indicates a singular, ill-conditioned or non-finite linear solve.
	ErrLinearSystem = errors.New("ecf: linear system cannot be solved")

	// ErrIndex indicates a node index outside the allocated range.
	ErrIndex = errors.New("ecf: node index out of range")

	// ErrOverflow indicates an accumulator written past its capacity.
	ErrOverflow = errors.New("ecf: accumulator capacity exceeded")

	// ErrUnbound indicates an element stamped before node binding.
	ErrUnbound = errors.New("ecf: element nodes are not bound")

	// ErrInvalidConfig indicates a solver configuration outside valid bounds.
	ErrInvalidConfig = errors.New("ecf: invalid solver configuration")
)

// StampError wraps an error with the element that produced it.
type StampError struct {
	Kind    string
	ID      int
	Wrapped error
}

func (e *StampError) Error() string {
	return fmt.Sprintf("%s %d: %v", e.Kind, e.ID, e.Wrapped)
}

func (e *StampError) Unwrap() error {
	return e.Wrapped
}

// SolveError wraps an error with the Newton-Raphson iteration it occurred in.
// Iteration 0 is the one-time linear stamp.
type SolveError struct {
	Iteration int
	Wrapped   error
}

func (e *SolveError) Error() string {
	return fmt.Sprintf("iteration %d: %v", e.Iteration, e.Wrapped)
}

func (e *SolveError) Unwrap() error {
	return e.Wrapped
}
