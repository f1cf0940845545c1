// Package sparse accumulates element stamps as triplets and compresses them
// into CSR matrices.
package sparse

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/san-kum/gridflow/internal/ecf"
)

// Triplets is an append-only (row, col, value) buffer for an n×n matrix.
// The buffer owns its write position; the first invalid write is recorded
// and every later write is ignored until Reset.
type Triplets struct {
	n    int
	rows []int
	cols []int
	vals []float64
	err  error
}

func NewTriplets(n, capacity int) *Triplets {
	return &Triplets{
		n:    n,
		rows: make([]int, 0, capacity),
		cols: make([]int, 0, capacity),
		vals: make([]float64, 0, capacity),
	}
}

// Add appends one matrix contribution. Duplicate (row, col) pairs are summed
// on Compress, never overwritten.
func (t *Triplets) Add(row, col int, v float64) {
	if t.err != nil {
		return
	}
	if row < 0 || row >= t.n || col < 0 || col >= t.n {
		t.err = fmt.Errorf("%w: entry (%d, %d) outside %dx%d", ecf.ErrIndex, row, col, t.n, t.n)
		return
	}
	if len(t.vals) == cap(t.vals) {
		t.err = fmt.Errorf("%w: more than %d matrix entries", ecf.ErrOverflow, cap(t.vals))
		return
	}
	t.rows = append(t.rows, row)
	t.cols = append(t.cols, col)
	t.vals = append(t.vals, v)
}

func (t *Triplets) Len() int   { return len(t.vals) }
func (t *Triplets) Cap() int   { return cap(t.vals) }
func (t *Triplets) Dim() int   { return t.n }
func (t *Triplets) Err() error { return t.err }

// Reset empties the buffer and clears any recorded error, keeping capacity.
func (t *Triplets) Reset() {
	t.rows = t.rows[:0]
	t.cols = t.cols[:0]
	t.vals = t.vals[:0]
	t.err = nil
}

// Compress builds a CSR matrix. Exact zeros are dropped and duplicates are
// summed in ascending value order, so the result does not depend on the
// order in which entries were appended.
func (t *Triplets) Compress() (*CSR, error) {
	if t.err != nil {
		return nil, t.err
	}

	idx := make([]int, 0, len(t.vals))
	for i, v := range t.vals {
		if v != 0 {
			idx = append(idx, i)
		}
	}
	slices.SortFunc(idx, func(a, b int) int {
		if c := cmp.Compare(t.rows[a], t.rows[b]); c != 0 {
			return c
		}
		if c := cmp.Compare(t.cols[a], t.cols[b]); c != 0 {
			return c
		}
		return cmp.Compare(t.vals[a], t.vals[b])
	})

	m := &CSR{
		r:      t.n,
		c:      t.n,
		rowPtr: make([]int, t.n+1),
		colInd: make([]int, 0, len(idx)),
		values: make([]float64, 0, len(idx)),
	}
	for k := 0; k < len(idx); {
		row, col := t.rows[idx[k]], t.cols[idx[k]]
		sum := 0.0
		for ; k < len(idx) && t.rows[idx[k]] == row && t.cols[idx[k]] == col; k++ {
			sum += t.vals[idx[k]]
		}
		if sum == 0 {
			continue
		}
		m.colInd = append(m.colInd, col)
		m.values = append(m.values, sum)
		m.rowPtr[row+1]++
	}
	for i := 0; i < t.n; i++ {
		m.rowPtr[i+1] += m.rowPtr[i]
	}
	return m, nil
}

// Entries is an append-only (row, value) buffer for a length-n vector.
type Entries struct {
	n    int
	rows []int
	vals []float64
	err  error
}

func NewEntries(n, capacity int) *Entries {
	return &Entries{
		n:    n,
		rows: make([]int, 0, capacity),
		vals: make([]float64, 0, capacity),
	}
}

func (e *Entries) Add(row int, v float64) {
	if e.err != nil {
		return
	}
	if row < 0 || row >= e.n {
		e.err = fmt.Errorf("%w: entry %d outside length %d", ecf.ErrIndex, row, e.n)
		return
	}
	if len(e.vals) == cap(e.vals) {
		e.err = fmt.Errorf("%w: more than %d vector entries", ecf.ErrOverflow, cap(e.vals))
		return
	}
	e.rows = append(e.rows, row)
	e.vals = append(e.vals, v)
}

func (e *Entries) Len() int   { return len(e.vals) }
func (e *Entries) Cap() int   { return cap(e.vals) }
func (e *Entries) Dim() int   { return e.n }
func (e *Entries) Err() error { return e.err }

func (e *Entries) Reset() {
	e.rows = e.rows[:0]
	e.vals = e.vals[:0]
	e.err = nil
}

// Dense sums the entries into a length-n vector, in the same canonical
// order as Triplets.Compress.
func (e *Entries) Dense() ([]float64, error) {
	if e.err != nil {
		return nil, e.err
	}

	idx := make([]int, 0, len(e.vals))
	for i, v := range e.vals {
		if v != 0 {
			idx = append(idx, i)
		}
	}
	slices.SortFunc(idx, func(a, b int) int {
		if c := cmp.Compare(e.rows[a], e.rows[b]); c != 0 {
			return c
		}
		return cmp.Compare(e.vals[a], e.vals[b])
	})

	out := make([]float64, e.n)
	for _, i := range idx {
		out[e.rows[i]] += e.vals[i]
	}
	return out, nil
}
