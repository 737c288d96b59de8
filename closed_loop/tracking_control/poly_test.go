package control

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPolyfitRoundTrip(t *testing.T) {
	t.Parallel()

	t.Run("recovers a cubic exactly", func(t *testing.T) {
		t.Parallel()
		want := Polynomial{1.0, -0.5, 0.25, 0.125}

		xs := []float64{-3, -2, -1, 0, 1, 2, 3}
		ys := make([]float64, len(xs))
		for i, x := range xs {
			ys[i] = want.Eval(x)
		}

		got, err := Polyfit(xs, ys, 3)
		require.NoError(t, err)
		require.Len(t, got, 4)
		for i := range want {
			assert.InDelta(t, want[i], got[i], 1e-9, "coefficient %d", i)
		}
	})

	t.Run("recovers a line with excess order", func(t *testing.T) {
		t.Parallel()
		xs := []float64{0, 1, 2, 3, 4}
		ys := []float64{2, 4.5, 7, 9.5, 12}

		got, err := Polyfit(xs, ys, 3)
		require.NoError(t, err)
		assert.InDelta(t, 2.0, got[0], 1e-9)
		assert.InDelta(t, 2.5, got[1], 1e-9)
		assert.InDelta(t, 0.0, got[2], 1e-9)
		assert.InDelta(t, 0.0, got[3], 1e-9)
	})
}

func TestPolyfitMalformedInput(t *testing.T) {
	t.Parallel()

	t.Run("too few samples", func(t *testing.T) {
		t.Parallel()
		_, err := Polyfit([]float64{0, 1, 2}, []float64{0, 1, 2}, 3)
		require.Error(t, err)
		var fitErr *FitError
		require.True(t, errors.As(err, &fitErr))
		assert.Equal(t, 3, fitErr.Samples)
		assert.Equal(t, 3, fitErr.Order)
	})

	t.Run("mismatched lengths", func(t *testing.T) {
		t.Parallel()
		_, err := Polyfit([]float64{0, 1, 2, 3}, []float64{0, 1}, 1)
		var fitErr *FitError
		require.True(t, errors.As(err, &fitErr))
	})

	t.Run("order below one", func(t *testing.T) {
		t.Parallel()
		_, err := Polyfit([]float64{0, 1}, []float64{0, 1}, 0)
		var fitErr *FitError
		require.True(t, errors.As(err, &fitErr))
	})
}

func TestPolynomialDerivative(t *testing.T) {
	t.Parallel()

	p := Polynomial{1.0, -0.5, 0.25, 0.125}
	d := p.Derivative()

	require.Len(t, d, 3)
	assert.InDelta(t, -0.5, d[0], 1e-12)
	assert.InDelta(t, 0.5, d[1], 1e-12)
	assert.InDelta(t, 0.375, d[2], 1e-12)

	// Slope matches the derivative polynomial at an arbitrary point.
	x := 1.7
	assert.InDelta(t, d.Eval(x), p.Slope(x), 1e-12)

	// A constant has zero slope everywhere.
	assert.Equal(t, 0.0, Polynomial{4.2}.Slope(3.0))
}
