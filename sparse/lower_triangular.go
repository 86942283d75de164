package sparse

import "github.com/nfriess-labs/gmrfsample/gmerrors"

// LowerTriangular is the Gauss-Seidel splitting matrix D + strictLower(A):
// the lower triangle of A taken as-is, with no elimination performed.
// This is a different, cheaper object than a Cholesky factor — it is not
// symmetric and A != LowerTriangular * LowerTriangular^T in general.
type LowerTriangular struct {
	N int
	L *CSR
}

// FactorizeLower extracts D + strictLower(A), grounded on
// original_source/src/mc_sor.c's MatLUFactorLowerTriangular: that routine
// copies, for each row, every stored entry up to and including the
// diagonal and calls the result already-triangular, since a lower
// triangular matrix's LU factorization is itself. Used by MCSOR's
// low-rank post-correction (spec.md §4.4 step 4), not by the exact
// Cholesky sampler.
func FactorizeLower(a *Matrix) (*LowerTriangular, error) {
	g := a.Global
	n := g.Rows
	entries := make([]Entry, 0, len(g.Val))
	for i := 0; i < n; i++ {
		cols, vals := g.Row(i)
		saw := false
		for k, j := range cols {
			if j > i {
				continue
			}
			entries = append(entries, Entry{I: i, J: j, V: vals[k]})
			if j == i {
				saw = true
			}
		}
		if !saw {
			return nil, gmerrors.Numericf(component, "FactorizeLower: missing diagonal entry at row %d", i)
		}
	}
	return &LowerTriangular{N: n, L: NewCSR(n, n, entries)}, nil
}

// ForwardSolve solves L y = b by forward substitution.
func (lt *LowerTriangular) ForwardSolve(b []float64) []float64 {
	y := make([]float64, lt.N)
	for i := 0; i < lt.N; i++ {
		cols, vals := lt.L.Row(i)
		sum := b[i]
		diag := 1.0
		for k, j := range cols {
			if j == i {
				diag = vals[k]
				continue
			}
			sum -= vals[k] * y[j]
		}
		y[i] = sum / diag
	}
	return y
}
