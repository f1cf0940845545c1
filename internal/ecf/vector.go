package ecf

import "math"

// Vector is a dense vector indexed by node.
type Vector []float64

func (v Vector) Clone() Vector {
	c := make(Vector, len(v))
	copy(c, v)
	return c
}

func (v Vector) IsValid() bool {
	for _, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}

func (v Vector) Norm() float64 {
	sum := 0.0
	for _, x := range v {
		sum += x * x
	}
	return math.Sqrt(sum)
}

// MaxAbsDiff returns max_i |v[i] - other[i]|. Vectors of different length
// compare as +Inf.
func (v Vector) MaxAbsDiff(other Vector) float64 {
	if len(v) != len(other) {
		return math.Inf(1)
	}
	maxDiff := 0.0
	for i := range v {
		d := math.Abs(v[i] - other[i])
		if math.IsNaN(d) {
			return math.Inf(1)
		}
		if d > maxDiff {
			maxDiff = d
		}
	}
	return maxDiff
}

// MaxAbs returns the infinity norm of v.
func (v Vector) MaxAbs() float64 {
	maxAbs := 0.0
	for _, x := range v {
		if a := math.Abs(x); a > maxAbs {
			maxAbs = a
		}
	}
	return maxAbs
}
