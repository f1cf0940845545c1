package powerflow

import (
	"fmt"
	"math"

	"github.com/san-kum/gridflow/internal/ecf"
)

type Config struct {
	// Tolerance bounds the infinity norm of the Newton step.
	Tolerance float64
	// MaxIters is the maximum number of linear solves.
	MaxIters       int
	EnableLimiting bool
	FlatStart      bool
}

func DefaultConfig() Config {
	return Config{
		Tolerance: 1e-5,
		MaxIters:  1000,
	}
}

func (c Config) Validate() error {
	if !(c.Tolerance > 0) || math.IsInf(c.Tolerance, 0) {
		return fmt.Errorf("%w: tolerance must be positive and finite, got %g", ecf.ErrInvalidConfig, c.Tolerance)
	}
	if c.MaxIters < 1 {
		return fmt.Errorf("%w: max iterations must be at least 1, got %d", ecf.ErrInvalidConfig, c.MaxIters)
	}
	return nil
}
