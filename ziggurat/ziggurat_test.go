package ziggurat

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDeterministicForFixedSeedAndStream(t *testing.T) {
	a := New(42)
	a.SeedStream(3)
	b := New(42)
	b.SeedStream(3)

	va := make([]float64, 256)
	vb := make([]float64, 256)
	a.Fill(va)
	b.Fill(vb)

	require.Equal(t, va, vb)
}

func TestDistinctStreamsDecorrelate(t *testing.T) {
	a := New(7)
	a.SeedStream(0)
	b := New(7)
	b.SeedStream(1)

	va := make([]float64, 64)
	vb := make([]float64, 64)
	a.Fill(va)
	b.Fill(vb)

	require.NotEqual(t, va, vb)
}

func TestMeanAndVarianceApproachStandardNormal(t *testing.T) {
	r := New(1234)
	const n = 200000
	v := make([]float64, n)
	r.Fill(v)

	var mean, m2 float64
	for i, x := range v {
		delta := x - mean
		mean += delta / float64(i+1)
		m2 += delta * (x - mean)
	}
	variance := m2 / float64(n-1)

	require.InDelta(t, 0.0, mean, 0.02)
	require.InDelta(t, 1.0, variance, 0.03)
}

func TestNextNeverNaNOrInf(t *testing.T) {
	r := New(99)
	for i := 0; i < 100000; i++ {
		x := r.Next()
		require.False(t, math.IsNaN(x) || math.IsInf(x, 0))
	}
}
