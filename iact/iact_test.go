package iact

import (
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
)

// ar1Chain generates an AR(1) chain q_{k+1} = phi*q_k + eps_k with unit
// innovation variance.
func ar1Chain(n int, phi float64, seed uint64) []float64 {
	src := rand.New(rand.NewSource(seed))
	q := make([]float64, n)
	for i := 1; i < n; i++ {
		q[i] = phi*q[i-1] + src.NormFloat64()
	}
	return q
}

func TestIACTRoundTripAR1(t *testing.T) {
	const phi = 0.9
	const n = 60000
	q := ar1Chain(n, phi, 1)

	tau, valid := EstimateBenchmark(q)
	// EstimateBenchmark uses the strict 500x factor; the analytic tau is
	// (1+phi)/(1-phi) = 19, so 500*19 = 9500 < 60000, well within reach.
	require.True(t, valid)

	want := (1 + phi) / (1 - phi)
	require.InDelta(t, want, tau, 0.1*want)
}

func TestIACTFlagsShortChainInsufficient(t *testing.T) {
	const phi = 0.95
	q := ar1Chain(200, phi, 2)
	_, valid := Estimate(q)
	require.False(t, valid)
}

func TestIACTLowerBoundIsOne(t *testing.T) {
	// White noise: tau should be close to 1 and the chain is long enough
	// relative to that tau to be valid.
	src := rand.New(rand.NewSource(5))
	q := make([]float64, 20000)
	for i := range q {
		q[i] = src.NormFloat64()
	}
	tau, valid := Estimate(q)
	require.True(t, valid)
	require.InDelta(t, 1.0, tau, 0.5)
}

func TestEstimateWithACFReturnsWindow(t *testing.T) {
	q := ar1Chain(5000, 0.5, 3)
	tau, _, acf := EstimateWithACF(q, DefaultWindowConstant, DefaultMinFactor)
	require.NotEmpty(t, acf)
	require.InDelta(t, 1.0, acf[0], 1e-9)
	require.Greater(t, tau, 1.0)
}
