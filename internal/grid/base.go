package grid

import "fmt"

const DefaultBaseMVA = 100.0

// Base is the system apparent-power base used for per-unit conversion.
type Base struct {
	MVA float64
}

func DefaultBase() Base {
	return Base{MVA: DefaultBaseMVA}
}

func (b Base) PerUnit(x float64) float64 {
	return x / b.MVA
}

func (b Base) Validate() error {
	if b.MVA <= 0 {
		return fmt.Errorf("grid: base MVA must be positive, got %g", b.MVA)
	}
	return nil
}
