package sparse_test

import (
	"math"
	"testing"

	"github.com/nfriess-labs/gmrfsample/assembly"
	"github.com/nfriess-labs/gmrfsample/sparse"
	"github.com/nfriess-labs/gmrfsample/ziggurat"
	"github.com/stretchr/testify/require"
)

func TestCSRMulVecMatchesDense(t *testing.T) {
	a := sparse.NewCSR(3, 3, []sparse.Entry{
		{I: 0, J: 0, V: 2}, {I: 0, J: 1, V: -1},
		{I: 1, J: 0, V: -1}, {I: 1, J: 1, V: 2}, {I: 1, J: 2, V: -1},
		{I: 2, J: 1, V: -1}, {I: 2, J: 2, V: 2},
	})
	x := []float64{1, 2, 3}
	dst := make([]float64, 3)
	a.MulVec(dst, x)
	require.Equal(t, []float64{0, 0, 4}, dst)
}

func TestCSRDuplicateEntriesSum(t *testing.T) {
	a := sparse.NewCSR(2, 2, []sparse.Entry{
		{I: 0, J: 0, V: 1}, {I: 0, J: 0, V: 1}, {I: 1, J: 1, V: 5},
	})
	require.Equal(t, 2.0, a.At(0, 0))
}

func TestNewMatrixRejectsNonPositiveDiagonal(t *testing.T) {
	a := sparse.NewCSR(2, 2, []sparse.Entry{{I: 0, J: 0, V: 1}, {I: 1, J: 1, V: 0}})
	_, err := sparse.NewMatrix(a, 1)
	require.Error(t, err)
}

func TestColoringIsDistance1Valid(t *testing.T) {
	a := assembly.Laplacian2D(9, 10)
	m, err := sparse.NewMatrix(a, 4)
	require.NoError(t, err)

	col, err := sparse.Color(m)
	require.NoError(t, err)
	require.NoError(t, sparse.ValidateDistance1(m, col))

	// Every owned row appears in exactly one color.
	seen := map[int]bool{}
	for _, rows := range col.Colors {
		for _, r := range rows {
			require.False(t, seen[r])
			seen[r] = true
		}
	}
	require.Len(t, seen, 81)
}

func TestColoringPartitionsOwnedRowsPerShard(t *testing.T) {
	a := assembly.Laplacian2D(9, 10)
	m, err := sparse.NewMatrix(a, 3)
	require.NoError(t, err)
	col, err := sparse.Color(m)
	require.NoError(t, err)

	for s := 0; s < 3; s++ {
		lo, hi := m.RowRange(s)
		count := 0
		for _, localRows := range col.Local[s] {
			count += len(localRows)
		}
		require.Equal(t, hi-lo, count)
	}
}

func TestCholeskyExactSolveMatchesDirect(t *testing.T) {
	a := assembly.Laplacian2D(9, 10)
	m, err := sparse.NewMatrix(a, 1)
	require.NoError(t, err)

	chol, err := sparse.Factorize(m)
	require.NoError(t, err)

	b := make([]float64, 81)
	for i := range b {
		b[i] = 1
	}
	x := chol.Solve(b)

	resid := make([]float64, 81)
	a.MulVec(resid, x)
	maxErr := 0.0
	for i := range resid {
		if d := math.Abs(resid[i] - b[i]); d > maxErr {
			maxErr = d
		}
	}
	require.Less(t, maxErr, 1e-8)
}

func TestCholeskySampleApplyMeanConvergesToExactSolve(t *testing.T) {
	a := assembly.Laplacian2D(9, 10)
	m, err := sparse.NewMatrix(a, 1)
	require.NoError(t, err)
	chol, err := sparse.Factorize(m)
	require.NoError(t, err)

	b := make([]float64, 81)
	for i := range b {
		b[i] = 1
	}
	exact := chol.Solve(b)

	rng := ziggurat.New(1)
	const nSamples = 10000
	mean := make([]float64, 81)
	for s := 0; s < nSamples; s++ {
		y := chol.SampleApply(b, rng)
		for i, v := range y {
			mean[i] += (v - mean[i]) / float64(s+1)
		}
	}

	normExact := 0.0
	for _, v := range exact {
		normExact += v * v
	}
	normExact = math.Sqrt(normExact)

	diff := 0.0
	for i := range mean {
		d := mean[i] - exact[i]
		diff += d * d
	}
	diff = math.Sqrt(diff)

	require.Less(t, diff/normExact, 0.05)
}

func TestFactorizeLowerExtractsGaussSeidelSplitNotCholesky(t *testing.T) {
	a := sparse.NewCSR(3, 3, []sparse.Entry{
		{I: 0, J: 0, V: 4}, {I: 0, J: 1, V: -1},
		{I: 1, J: 0, V: -1}, {I: 1, J: 1, V: 4}, {I: 1, J: 2, V: -1},
		{I: 2, J: 1, V: -1}, {I: 2, J: 2, V: 4},
	})
	m, err := sparse.NewMatrix(a, 1)
	require.NoError(t, err)

	lower, err := sparse.FactorizeLower(m)
	require.NoError(t, err)

	// D + strictLower(A): diagonal entries equal A's own diagonal, not a
	// Cholesky sqrt-pivot, and no fill above the diagonal.
	require.Equal(t, 4.0, lower.L.At(0, 0))
	require.Equal(t, 4.0, lower.L.At(1, 1))
	require.Equal(t, 4.0, lower.L.At(2, 2))
	require.Equal(t, -1.0, lower.L.At(1, 0))
	require.Equal(t, -1.0, lower.L.At(2, 1))
	require.Equal(t, 0.0, lower.L.At(0, 1))
	require.Equal(t, 0.0, lower.L.At(0, 2))

	b := []float64{1, 1, 1}
	y := lower.ForwardSolve(b)
	// Hand-solved forward substitution for the above splitting.
	require.InDelta(t, 0.25, y[0], 1e-12)
	require.InDelta(t, (1.0+0.25)/4, y[1], 1e-12)
	require.InDelta(t, (1.0+y[1])/4, y[2], 1e-12)
}

func TestOffDiagColumnsIndexIntoColMap(t *testing.T) {
	a := assembly.Laplacian2D(5, 1)
	m, err := sparse.NewMatrix(a, 5)
	require.NoError(t, err)

	for s := 0; s < 5; s++ {
		off := m.OffDiagCSR(s)
		colmap := m.ColMap(s)
		for i := 0; i < off.Rows; i++ {
			cols, _ := off.Row(i)
			for _, c := range cols {
				require.GreaterOrEqual(t, c, 0)
				require.Less(t, c, len(colmap))
			}
		}
	}
}
