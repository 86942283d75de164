package sparse

import (
	"math"

	"github.com/nfriess-labs/gmrfsample/gmerrors"
	"github.com/nfriess-labs/gmrfsample/ziggurat"
)

// Cholesky is a permuted sparse lower-triangular factor such that
// P^T A P = L L^T, computed once at setup and reused for every sample.
// Factorize uses the natural (identity) ordering: no METIS binding
// appears anywhere in the retrieved example pack (see DESIGN.md), and
// spec.md's own fallback clause names "natural or external" as the
// alternative when a fill-reducing library is unavailable.
type Cholesky struct {
	N       int
	Perm    []int // Perm[permuted position] = original global row
	InvPerm []int
	L       *CSR // lower triangular, permuted coordinates
	Lt      *CSR // transpose of L, cached for the back-substitution pass
}

// Factorize computes the symbolic+numeric Cholesky decomposition of a's
// global matrix. Non-SPD input is detected and reported as a Numeric
// error (a negative or zero pivot), matching spec.md section 4.5's
// failure-mode contract.
func Factorize(a *Matrix) (*Cholesky, error) {
	return factorizeDense(a.Global)
}

// FactorizeLowRank explicitly materializes A + B*diag(Sigma)^-1*B^T and
// factors the result once, as spec.md section 4.5 specifies for the
// low-rank-update operator.
func FactorizeLowRank(lr *LowRank) (*Cholesky, error) {
	n := lr.A.Global.Rows
	dense := make([]float64, n*n)
	for i := 0; i < n; i++ {
		cols, vals := lr.A.Global.Row(i)
		for k, j := range cols {
			dense[i*n+j] = vals[k]
		}
	}
	k := lr.B.Cols
	// Add B * diag(Sigma)^-1 * B^T densely: n is small in every scenario
	// this sampler is used as the coarse/exact solver for.
	bDense := make([]float64, lr.B.Rows*k)
	for i := 0; i < lr.B.Rows; i++ {
		cols, vals := lr.B.Row(i)
		for idx, j := range cols {
			bDense[i*k+j] = vals[idx]
		}
	}
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			sum := 0.0
			for c := 0; c < k; c++ {
				sum += bDense[i*k+c] * bDense[j*k+c] / lr.Sigma[c]
			}
			dense[i*n+j] += sum
		}
	}

	entries := make([]Entry, 0, n*n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if dense[i*n+j] != 0 {
				entries = append(entries, Entry{I: i, J: j, V: dense[i*n+j]})
			}
		}
	}
	return factorizeDense(NewCSR(n, n, entries))
}

func factorizeDense(a *CSR) (*Cholesky, error) {
	n := a.Rows
	perm := make([]int, n)
	for i := range perm {
		perm[i] = i
	}

	ap := make([]float64, n*n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			ap[i*n+j] = a.At(perm[i], perm[j])
		}
	}

	l := make([]float64, n*n)
	for j := 0; j < n; j++ {
		sum := ap[j*n+j]
		for k := 0; k < j; k++ {
			sum -= l[j*n+k] * l[j*n+k]
		}
		if sum <= 0 {
			return nil, gmerrors.Numericf(component, "cholesky factorization: non-SPD matrix (pivot %d is %g)", j, sum)
		}
		ljj := math.Sqrt(sum)
		l[j*n+j] = ljj
		for i := j + 1; i < n; i++ {
			sum2 := ap[i*n+j]
			for k := 0; k < j; k++ {
				sum2 -= l[i*n+k] * l[j*n+k]
			}
			l[i*n+j] = sum2 / ljj
		}
	}

	var lEntries, ltEntries []Entry
	for i := 0; i < n; i++ {
		for j := 0; j <= i; j++ {
			if v := l[i*n+j]; v != 0 {
				lEntries = append(lEntries, Entry{I: i, J: j, V: v})
				ltEntries = append(ltEntries, Entry{I: j, J: i, V: v})
			}
		}
	}

	invPerm := make([]int, n)
	for i, p := range perm {
		invPerm[p] = i
	}

	return &Cholesky{
		N:       n,
		Perm:    perm,
		InvPerm: invPerm,
		L:       NewCSR(n, n, lEntries),
		Lt:      NewCSR(n, n, ltEntries),
	}, nil
}

// ForwardSolve solves L y = b.
func (c *Cholesky) ForwardSolve(b []float64) []float64 {
	y := make([]float64, c.N)
	for i := 0; i < c.N; i++ {
		cols, vals := c.L.Row(i)
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

// BackSolveTranspose solves L^T x = y using the cached transpose Lt.
func (c *Cholesky) BackSolveTranspose(y []float64) []float64 {
	x := make([]float64, c.N)
	for i := c.N - 1; i >= 0; i-- {
		cols, vals := c.Lt.Row(i)
		sum := y[i]
		diag := 1.0
		for k, j := range cols {
			if j == i {
				diag = vals[k]
				continue
			}
			sum -= vals[k] * x[j]
		}
		x[i] = sum / diag
	}
	return x
}

// Solve computes x = A^-1 b exactly via forward+back substitution,
// honoring the fill-reducing permutation.
func (c *Cholesky) Solve(b []float64) []float64 {
	bp := make([]float64, c.N)
	for i, p := range c.Perm {
		bp[i] = b[p]
	}
	y := c.ForwardSolve(bp)
	xp := c.BackSolveTranspose(y)
	x := make([]float64, c.N)
	for i, p := range c.Perm {
		x[p] = xp[i]
	}
	return x
}

// SampleApply draws y ~ N(A^-1 b, A^-1) in one step:
//
//	y = P^T L^-T (L^-1 P b + r), r ~ N(0, I)
//
// grounded on original_source/include/parmgmc/samplers/cholesky.hh's
// sample(): forward solve, add a random fill, back solve.
func (c *Cholesky) SampleApply(b []float64, rng *ziggurat.RNG) []float64 {
	bp := make([]float64, c.N)
	for i, p := range c.Perm {
		bp[i] = b[p]
	}
	v := c.ForwardSolve(bp)

	r := make([]float64, c.N)
	rng.Fill(r)
	AXPY(1, r, v)

	xp := c.BackSolveTranspose(v)
	y := make([]float64, c.N)
	for i, p := range c.Perm {
		y[p] = xp[i]
	}
	return y
}
