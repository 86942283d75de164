package richardson_test

import (
	"errors"
	"math"
	"testing"

	"github.com/nfriess-labs/gmrfsample/assembly"
	"github.com/nfriess-labs/gmrfsample/iact"
	"github.com/nfriess-labs/gmrfsample/richardson"
	"github.com/nfriess-labs/gmrfsample/sampler"
	"github.com/nfriess-labs/gmrfsample/sparse"
	"github.com/nfriess-labs/gmrfsample/ziggurat"
	"github.com/stretchr/testify/require"
)

type countingSampler struct {
	calls  int
	fail   error
	failAt int
}

func (c *countingSampler) Apply(b, y []float64) error {
	c.calls++
	if c.fail != nil && c.calls == c.failAt {
		return c.fail
	}
	return nil
}

func TestRunAppliesExactlyNTimes(t *testing.T) {
	s := &countingSampler{}
	b := make([]float64, 4)
	x := make([]float64, 4)
	res, err := richardson.Run(s, b, x, 17)
	require.NoError(t, err)
	require.Equal(t, 17, s.calls)
	require.Equal(t, 17, res.Iterations)
}

func TestRunAbortsOnFirstError(t *testing.T) {
	boom := errors.New("sampler failed")
	s := &countingSampler{fail: boom, failAt: 3}
	b := make([]float64, 4)
	x := make([]float64, 4)
	res, err := richardson.Run(s, b, x, 10)
	require.ErrorIs(t, err, boom)
	require.Equal(t, 2, res.Iterations)
	require.Equal(t, 3, s.calls)
}

func TestRunRejectsMismatchedLengths(t *testing.T) {
	s := &countingSampler{}
	_, err := richardson.Run(s, make([]float64, 3), make([]float64, 4), 1)
	require.Error(t, err)
}

func TestWelfordMatchesClosedFormOnConstantSequence(t *testing.T) {
	w := richardson.NewWelford(2)
	require.NoError(t, w.Update([]float64{1, 2}))
	require.NoError(t, w.Update([]float64{3, 4}))
	require.NoError(t, w.Update([]float64{5, 6}))

	require.InDelta(t, 3, w.Mean()[0], 1e-12)
	require.InDelta(t, 4, w.Mean()[1], 1e-12)
	// population variance of {1,3,5} is 8/3
	require.InDelta(t, 8.0/3.0, w.Variance()[0], 1e-9)
}

func TestQoIAccumulatesLinearMeasurement(t *testing.T) {
	q := richardson.NewQoI([]float64{1, 0, -1})
	require.NoError(t, q.Update([]float64{2, 5, 1}))
	require.NoError(t, q.Update([]float64{3, 0, 3}))
	require.Equal(t, []float64{1, 0}, q.Chain())
}

func TestIACTRoundTripThroughRichardsonDriver(t *testing.T) {
	a := assembly.Laplacian2D(17, 10)
	m, err := sparse.NewMatrix(a, 1)
	require.NoError(t, err)

	mc, err := sampler.NewMCSOR(m, 0, nil)
	require.NoError(t, err)
	mc.SetSweepDirection(sampler.Symmetric)
	mc.SetRNG(ziggurat.New(9))

	n := 17 * 17
	measurement := make([]float64, n)
	measurement[n/2] = 1
	q := richardson.NewQoI(measurement)
	mc.SetCallback(q.Callback, nil, nil)

	b := make([]float64, n)
	for i := range b {
		b[i] = 1
	}
	x := make([]float64, n)

	const burnin = 500
	_, err = richardson.Run(mc, b, x, burnin)
	require.NoError(t, err)

	const samples = 60000
	_, err = richardson.Run(mc, b, x, samples)
	require.NoError(t, err)

	tau, valid, _ := iact.EstimateWithACF(q.Chain(), iact.DefaultWindowConstant, iact.DefaultMinFactor)
	require.True(t, math.IsNaN(tau) == false)
	_ = valid
}
