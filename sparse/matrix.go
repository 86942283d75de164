package sparse

import (
	"sort"

	"github.com/nfriess-labs/gmrfsample/gmerrors"
	"github.com/nfriess-labs/gmrfsample/shard"
)

const component = "sparse"

// Matrix is the row-partitioned precision operator: a global SPD CSR
// matrix together with the shard layout that splits its rows. Diagonal
// and off-diagonal blocks per shard are derived views, computed once at
// NewMatrix and cached, matching the data model's "split" invariant.
type Matrix struct {
	Global *CSR
	Layout shard.Layout

	diag    []*CSR
	off     []*CSR
	colMap  [][]int
	dptrs   [][]int
}

// NewMatrix validates A[i][i] > 0 for every row (the SPD precondition the
// whole sampling engine relies on) and splits it into numShards
// row-contiguous shards.
func NewMatrix(global *CSR, numShards int) (*Matrix, error) {
	if global.Rows != global.Cols {
		return nil, gmerrors.Structuralf(component, "matrix must be square, got %dx%d", global.Rows, global.Cols)
	}
	if numShards < 1 {
		return nil, gmerrors.Configf(component, "numShards must be >= 1, got %d", numShards)
	}

	for i := 0; i < global.Rows; i++ {
		if global.At(i, i) <= 0 {
			return nil, gmerrors.Numericf(component, "zero or negative diagonal entry at row %d", i)
		}
	}

	m := &Matrix{
		Global: global,
		Layout: shard.Layout{N: global.Rows, NumShards: numShards},
	}
	m.build()
	return m, nil
}

func (m *Matrix) build() {
	n := m.Layout.NumShards
	m.diag = make([]*CSR, n)
	m.off = make([]*CSR, n)
	m.colMap = make([][]int, n)
	m.dptrs = make([][]int, n)

	for s := 0; s < n; s++ {
		lo, hi := m.Layout.RowRange(s)
		localRows := hi - lo

		var diagEntries, offEntries []Entry
		remoteCols := map[int]bool{}

		for i := lo; i < hi; i++ {
			cols, vals := m.Global.Row(i)
			for k, j := range cols {
				if j >= lo && j < hi {
					diagEntries = append(diagEntries, Entry{I: i - lo, J: j - lo, V: vals[k]})
				} else {
					offEntries = append(offEntries, Entry{I: i - lo, J: j, V: vals[k]})
					remoteCols[j] = true
				}
			}
		}

		colmap := make([]int, 0, len(remoteCols))
		for j := range remoteCols {
			colmap = append(colmap, j)
		}
		sort.Ints(colmap)
		pos := make(map[int]int, len(colmap))
		for p, j := range colmap {
			pos[j] = p
		}
		for i := range offEntries {
			offEntries[i].J = pos[offEntries[i].J]
		}

		m.diag[s] = NewCSR(localRows, localRows, diagEntries)
		m.off[s] = NewCSR(localRows, len(colmap), offEntries)
		m.colMap[s] = colmap
		m.dptrs[s] = m.diag[s].DiagPtrs()
	}
}

// RowRange returns the global row range owned by shard s.
func (m *Matrix) RowRange(s int) (lo, hi int) { return m.Layout.RowRange(s) }

// DiagCSR returns the local-local diagonal block of shard s.
func (m *Matrix) DiagCSR(s int) *CSR { return m.diag[s] }

// OffDiagCSR returns the off-diagonal block of shard s, columns indexed
// by position into ColMap(s).
func (m *Matrix) OffDiagCSR(s int) *CSR { return m.off[s] }

// ColMap returns the sorted list of distinct global columns referenced
// by shard s's off-diagonal block.
func (m *Matrix) ColMap(s int) []int { return m.colMap[s] }

// DiagPtrs returns, for shard s, the index into DiagCSR(s)'s ColIdx/Val of
// each row's diagonal entry, precomputed once at setup.
func (m *Matrix) DiagPtrs(s int) []int { return m.dptrs[s] }

// Diagonal fills dst (length = global N) with A's diagonal.
func (m *Matrix) Diagonal(dst []float64) {
	for i := 0; i < m.Global.Rows; i++ {
		dst[i] = m.Global.At(i, i)
	}
}

// MatVec computes dst = A*x using the global matrix directly; shard-local
// samplers use DiagCSR/OffDiagCSR instead so they never touch rows they
// do not own.
func (m *Matrix) MatVec(dst, x []float64) { m.Global.MulVec(dst, x) }

// LowRank is the composite operator A + B*diag(Sigma)^-1*B^T described in
// the data model: never explicitly materialized except when a sampler's
// setup precomputes the low-rank correction.
type LowRank struct {
	A     *Matrix
	B     *CSR // Rows = A.Global.Rows, Cols = number of observations
	Sigma []float64
}

// MatVec computes dst = (A + B Σ^-1 B^T) x.
func (lr *LowRank) MatVec(dst, x []float64) {
	lr.A.MatVec(dst, x)
	k := lr.B.Cols
	tmp := make([]float64, k)
	// B^T x
	for j := 0; j < k; j++ {
		tmp[j] = 0
	}
	for i := 0; i < lr.B.Rows; i++ {
		cols, vals := lr.B.Row(i)
		for idx, j := range cols {
			tmp[j] += vals[idx] * x[i]
		}
	}
	for j := range tmp {
		tmp[j] /= lr.Sigma[j]
	}
	for i := 0; i < lr.B.Rows; i++ {
		cols, vals := lr.B.Row(i)
		sum := 0.0
		for idx, j := range cols {
			sum += vals[idx] * tmp[j]
		}
		dst[i] += sum
	}
}
