package sparse

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// CSR is an immutable compressed sparse row matrix. It satisfies mat.Matrix.
type CSR struct {
	r, c   int
	rowPtr []int
	colInd []int
	values []float64
}

var _ mat.Matrix = (*CSR)(nil)

// NewCSR returns an empty r×c matrix.
func NewCSR(r, c int) *CSR {
	return &CSR{r: r, c: c, rowPtr: make([]int, r+1)}
}

func (m *CSR) Dims() (int, int) { return m.r, m.c }

func (m *CSR) At(i, j int) float64 {
	if i < 0 || i >= m.r || j < 0 || j >= m.c {
		panic(mat.ErrIndexOutOfRange)
	}
	start, end := m.rowPtr[i], m.rowPtr[i+1]
	pos := sort.SearchInts(m.colInd[start:end], j) + start
	if pos < end && m.colInd[pos] == j {
		return m.values[pos]
	}
	return 0
}

func (m *CSR) T() mat.Matrix { return mat.Transpose{Matrix: m} }

func (m *CSR) NNZ() int { return len(m.values) }

// Row returns the column indices and values of row i. The slices alias the
// matrix storage and must not be modified.
func (m *CSR) Row(i int) ([]int, []float64) {
	start, end := m.rowPtr[i], m.rowPtr[i+1]
	return m.colInd[start:end], m.values[start:end]
}

// Do calls fn for every stored entry in row-major order.
func (m *CSR) Do(fn func(i, j int, v float64)) {
	for i := 0; i < m.r; i++ {
		for k := m.rowPtr[i]; k < m.rowPtr[i+1]; k++ {
			fn(i, m.colInd[k], m.values[k])
		}
	}
}

// Add returns m + o. Entries that cancel to exactly zero are dropped.
func (m *CSR) Add(o *CSR) *CSR {
	if m.r != o.r || m.c != o.c {
		panic(mat.ErrShape)
	}
	out := &CSR{
		r:      m.r,
		c:      m.c,
		rowPtr: make([]int, m.r+1),
		colInd: make([]int, 0, len(m.values)+len(o.values)),
		values: make([]float64, 0, len(m.values)+len(o.values)),
	}
	for i := 0; i < m.r; i++ {
		a, b := m.rowPtr[i], o.rowPtr[i]
		aEnd, bEnd := m.rowPtr[i+1], o.rowPtr[i+1]
		for a < aEnd || b < bEnd {
			var col int
			var v float64
			switch {
			case b >= bEnd || (a < aEnd && m.colInd[a] < o.colInd[b]):
				col, v = m.colInd[a], m.values[a]
				a++
			case a >= aEnd || o.colInd[b] < m.colInd[a]:
				col, v = o.colInd[b], o.values[b]
				b++
			default:
				col, v = m.colInd[a], m.values[a]+o.values[b]
				a++
				b++
			}
			if v == 0 {
				continue
			}
			out.colInd = append(out.colInd, col)
			out.values = append(out.values, v)
		}
		out.rowPtr[i+1] = len(out.values)
	}
	return out
}

// MulVec returns m·x.
func (m *CSR) MulVec(x []float64) []float64 {
	if len(x) != m.c {
		panic(mat.ErrShape)
	}
	y := make([]float64, m.r)
	for i := 0; i < m.r; i++ {
		sum := 0.0
		for k := m.rowPtr[i]; k < m.rowPtr[i+1]; k++ {
			sum += m.values[k] * x[m.colInd[k]]
		}
		y[i] = sum
	}
	return y
}

// MaxAbs returns the largest stored magnitude.
func (m *CSR) MaxAbs() float64 {
	maxAbs := 0.0
	for _, v := range m.values {
		maxAbs = math.Max(maxAbs, math.Abs(v))
	}
	return maxAbs
}

// Equal reports whether both matrices store bit-identical entries.
func (m *CSR) Equal(o *CSR) bool {
	if m.r != o.r || m.c != o.c || len(m.values) != len(o.values) {
		return false
	}
	for i := range m.rowPtr {
		if m.rowPtr[i] != o.rowPtr[i] {
			return false
		}
	}
	for k := range m.values {
		if m.colInd[k] != o.colInd[k] || math.Float64bits(m.values[k]) != math.Float64bits(o.values[k]) {
			return false
		}
	}
	return true
}

func (m *CSR) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "CSR %dx%d nnz=%d\n", m.r, m.c, len(m.values))
	m.Do(func(i, j int, v float64) {
		fmt.Fprintf(&sb, "  (%d, %d) %g\n", i, j, v)
	})
	return sb.String()
}
