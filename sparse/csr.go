// Package sparse is the reference sparse-matrix substrate: the concrete
// implementation of the capability set spec.md section 4.3 specifies as an
// abstract interface ("not implemented here; specified so replacements are
// drop-in"). Every sampler in package sampler and multigrid is written
// only against these types, so a production substrate backed by a real
// distributed sparse-linear-algebra library is a drop-in replacement.
package sparse

import (
	"sort"

	"gonum.org/v1/gonum/floats"
)

// Entry is a single (row, col, value) triplet used to build a CSR matrix.
type Entry struct {
	I, J int
	V    float64
}

// CSR is a compressed-sparse-row matrix. Entries within a row are sorted
// by column index.
type CSR struct {
	Rows, Cols int
	RowPtr     []int
	ColIdx     []int
	Val        []float64
}

// NewCSR builds a CSR matrix from triplets, summing duplicate (i,j)
// entries. It panics if any index is out of range, matching the corpus's
// convention of panicking on programmer-error dimension mismatches
// (rwcarlsen-fem/sparse and vladimir-ch-iterative/internal/dok both do the
// same for out-of-range access).
func NewCSR(rows, cols int, entries []Entry) *CSR {
	sorted := make([]Entry, len(entries))
	copy(sorted, entries)
	for _, e := range sorted {
		if e.I < 0 || e.I >= rows || e.J < 0 || e.J >= cols {
			panic("sparse: index out of range")
		}
	}
	sort.Slice(sorted, func(a, b int) bool {
		if sorted[a].I != sorted[b].I {
			return sorted[a].I < sorted[b].I
		}
		return sorted[a].J < sorted[b].J
	})

	c := &CSR{Rows: rows, Cols: cols, RowPtr: make([]int, rows+1)}
	i := 0
	for i < len(sorted) {
		row := sorted[i].I
		col := sorted[i].J
		v := sorted[i].V
		i++
		for i < len(sorted) && sorted[i].I == row && sorted[i].J == col {
			v += sorted[i].V
			i++
		}
		c.ColIdx = append(c.ColIdx, col)
		c.Val = append(c.Val, v)
		c.RowPtr[row+1]++
	}
	for r := 0; r < rows; r++ {
		c.RowPtr[r+1] += c.RowPtr[r]
	}
	return c
}

// Row returns the column indices and values of row i, valid until the
// next mutation of c.
func (c *CSR) Row(i int) ([]int, []float64) {
	lo, hi := c.RowPtr[i], c.RowPtr[i+1]
	return c.ColIdx[lo:hi], c.Val[lo:hi]
}

// At returns A[i][j], or 0 if the entry is not stored.
func (c *CSR) At(i, j int) float64 {
	cols, vals := c.Row(i)
	for k, col := range cols {
		if col == j {
			return vals[k]
		}
	}
	return 0
}

// MulVec computes dst = A*x. dst must have length c.Rows and x length
// c.Cols; dst and x must not alias.
func (c *CSR) MulVec(dst, x []float64) {
	if len(dst) != c.Rows || len(x) != c.Cols {
		panic("sparse: dimension mismatch")
	}
	for i := range dst {
		sum := 0.0
		lo, hi := c.RowPtr[i], c.RowPtr[i+1]
		for k := lo; k < hi; k++ {
			sum += c.Val[k] * x[c.ColIdx[k]]
		}
		dst[i] = sum
	}
}

// MulAddVec computes dst += A*x.
func (c *CSR) MulAddVec(dst, x []float64) {
	if len(dst) != c.Rows || len(x) != c.Cols {
		panic("sparse: dimension mismatch")
	}
	for i := range dst {
		sum := 0.0
		lo, hi := c.RowPtr[i], c.RowPtr[i+1]
		for k := lo; k < hi; k++ {
			sum += c.Val[k] * x[c.ColIdx[k]]
		}
		dst[i] += sum
	}
}

// DiagPtrs returns, for each row, the index into ColIdx/Val holding the
// diagonal entry A[i][i]. It returns a Structural-class error (via the
// caller) by returning -1 for any row missing an explicit diagonal entry.
func (c *CSR) DiagPtrs() []int {
	ptrs := make([]int, c.Rows)
	for i := range ptrs {
		ptrs[i] = -1
		cols, _ := c.Row(i)
		for k, col := range cols {
			if col == i {
				ptrs[i] = c.RowPtr[i] + k
				break
			}
		}
	}
	return ptrs
}

// AXPY computes y += alpha*x elementwise, grounded on
// gonum.org/v1/gonum/floats.AddScaled's signature and semantics.
func AXPY(alpha float64, x, y []float64) {
	floats.AddScaled(y, alpha, x)
}

// Dot computes the Euclidean inner product of x and y via
// gonum.org/v1/gonum/floats.Dot.
func Dot(x, y []float64) float64 {
	return floats.Dot(x, y)
}
