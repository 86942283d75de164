package gmerrors_test

import (
	"errors"
	"testing"

	"github.com/nfriess-labs/gmrfsample/gmerrors"
	"github.com/stretchr/testify/require"
)

func TestConstructorsTagTheirKind(t *testing.T) {
	cases := []struct {
		err  error
		kind gmerrors.Kind
	}{
		{gmerrors.Configf("x", "bad %d", 1), gmerrors.Configuration},
		{gmerrors.Numericf("x", "bad"), gmerrors.Numeric},
		{gmerrors.Structuralf("x", "bad"), gmerrors.Structural},
		{gmerrors.Resourcef("x", "bad"), gmerrors.Resource},
		{gmerrors.Commf("x", "bad"), gmerrors.Communication},
	}
	for _, c := range cases {
		var e *gmerrors.Error
		require.True(t, errors.As(c.err, &e))
		require.Equal(t, c.kind, e.Kind)
		require.Equal(t, "x", e.Component)
	}
}

func TestCallbackWrapsUnderlyingErrorForErrorsIs(t *testing.T) {
	boom := errors.New("callback failed")
	wrapped := gmerrors.Callback("sampler", boom)
	require.ErrorIs(t, wrapped, boom)

	var e *gmerrors.Error
	require.True(t, errors.As(wrapped, &e))
	require.Equal(t, gmerrors.CallbackFailed, e.Kind)
}

func TestErrorStringIncludesComponentKindAndCause(t *testing.T) {
	err := gmerrors.Numericf("sparse", "zero diagonal at row %d", 3)
	require.Contains(t, err.Error(), "sparse")
	require.Contains(t, err.Error(), "numeric")
	require.Contains(t, err.Error(), "zero diagonal at row 3")
}

func TestNewWithNilErrStillFormats(t *testing.T) {
	e := gmerrors.New("cmd", gmerrors.Resource, nil)
	require.Nil(t, e.Unwrap())
	require.Contains(t, e.Error(), "resource error")
}
