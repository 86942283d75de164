package config_test

import (
	"testing"

	"github.com/nfriess-labs/gmrfsample/config"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigValidates(t *testing.T) {
	require.NoError(t, config.Default().Validate())
}

func TestValidateRejectsOmegaOutOfRange(t *testing.T) {
	c := config.Default()
	c.Omega = 2
	require.Error(t, c.Validate())

	c.Omega = 0
	require.Error(t, c.Validate())
}

func TestValidateRejectsZeroSamples(t *testing.T) {
	c := config.Default()
	c.NSamples = 0
	require.Error(t, c.Validate())
}

func TestValidateRequiresAtLeastOneBenchmark(t *testing.T) {
	c := config.Default()
	c.MeasureSamplingTime = false
	c.MeasureIACT = false
	require.Error(t, c.Validate())

	c.MeasureIACT = true
	require.NoError(t, c.Validate())
}

func TestValidateRejectsUnknownSmootherType(t *testing.T) {
	c := config.Default()
	c.SmootherType = "bogus"
	require.Error(t, c.Validate())
}
