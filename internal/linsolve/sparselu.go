package linsolve

import (
	"fmt"
	"math"
	"slices"

	"github.com/san-kum/gridflow/internal/ecf"
	"github.com/san-kum/gridflow/internal/sparse"
)

const (
	// DefaultPivotThreshold admits any pivot within this fraction of the
	// largest candidate in its column.
	DefaultPivotThreshold = 0.1

	// DefaultSingularTolerance is the smallest pivot accepted, relative to
	// the largest matrix entry.
	DefaultSingularTolerance = 1e-14
)

// SparseLU is Gaussian elimination on row maps with threshold partial
// pivoting. Among admissible pivots the row with the fewest nonzeros wins,
// then the lowest row index, so the factorization is deterministic.
type SparseLU struct {
	Threshold float64
	Tolerance float64
}

func NewSparseLU() *SparseLU {
	return &SparseLU{Threshold: DefaultPivotThreshold, Tolerance: DefaultSingularTolerance}
}

func (s *SparseLU) Name() string { return "sparse" }

func (s *SparseLU) Solve(y *sparse.CSR, j []float64) (ecf.Vector, error) {
	n, err := checkShape(y, j)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return ecf.Vector{}, nil
	}

	rows := make([]map[int]float64, n)
	colRows := make([]map[int]struct{}, n)
	for i := 0; i < n; i++ {
		rows[i] = make(map[int]float64)
		colRows[i] = make(map[int]struct{})
	}
	y.Do(func(i, k int, v float64) {
		rows[i][k] = v
		colRows[k][i] = struct{}{}
	})
	b := slices.Clone(j)

	floor := s.Tolerance * y.MaxAbs()
	if floor == 0 {
		floor = math.SmallestNonzeroFloat64
	}

	pivotRow := make([]int, n)
	done := make([]bool, n)

	for k := 0; k < n; k++ {
		p, err := s.choosePivot(k, rows, colRows, done, floor)
		if err != nil {
			return nil, err
		}
		pivotRow[k] = p
		done[p] = true
		delete(colRows[k], p)

		prow := rows[p]
		pivot := prow[k]
		for r := range colRows[k] {
			if done[r] {
				continue
			}
			row := rows[r]
			f := row[k] / pivot
			delete(row, k)
			for c, v := range prow {
				if c == k {
					continue
				}
				if _, ok := row[c]; !ok {
					colRows[c][r] = struct{}{}
				}
				row[c] -= f * v
			}
			b[r] -= f * b[p]
		}
		clear(colRows[k])
	}

	x := make(ecf.Vector, n)
	for k := n - 1; k >= 0; k-- {
		prow := rows[pivotRow[k]]
		cols := make([]int, 0, len(prow))
		for c := range prow {
			if c != k {
				cols = append(cols, c)
			}
		}
		slices.Sort(cols)
		sum := b[pivotRow[k]]
		for _, c := range cols {
			sum -= prow[c] * x[c]
		}
		x[k] = sum / prow[k]
	}

	if err := checkFinite(x); err != nil {
		return nil, err
	}
	return x, nil
}

func (s *SparseLU) choosePivot(k int, rows []map[int]float64, colRows []map[int]struct{}, done []bool, floor float64) (int, error) {
	maxAbs := 0.0
	for r := range colRows[k] {
		if done[r] {
			continue
		}
		if a := math.Abs(rows[r][k]); a > maxAbs {
			maxAbs = a
		}
	}
	if !(maxAbs > floor) {
		return -1, fmt.Errorf("%w: no usable pivot in column %d", ecf.ErrLinearSystem, k)
	}

	best, bestNNZ := -1, 0
	for r := range colRows[k] {
		if done[r] || math.Abs(rows[r][k]) < s.Threshold*maxAbs {
			continue
		}
		nnz := len(rows[r])
		if best < 0 || nnz < bestNNZ || (nnz == bestNNZ && r < best) {
			best, bestNNZ = r, nnz
		}
	}
	return best, nil
}
