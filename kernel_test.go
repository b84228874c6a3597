package bo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thalesfsp/bo/dual"
)

var _ dimensioned = (*Radial[float64])(nil)

func TestNewRadialRejectsBadBandwidth(t *testing.T) {
	for _, sigma := range [][]float64{
		nil,
		{0},
		{-1},
		{1, 0},
		{math.NaN()},
		{math.Inf(1)},
	} {
		_, err := NewRadial(sigma...)
		assert.ErrorIs(t, err, ErrInvalidBandwidth, "sigma %v", sigma)
	}
}

func TestRadialEval(t *testing.T) {
	k, err := NewRadial(1.0)
	require.NoError(t, err)

	assert.Equal(t, 0, k.Dimension())
	assert.Equal(t, 1.0, k.Eval([]float64{2, 3}, []float64{2, 3}))

	// exp(-(1² + 2²) / 2)
	assert.InDelta(t, math.Exp(-2.5), k.Eval([]float64{0, 0}, []float64{1, 2}), 1e-15)

	// Symmetric.
	x, y := []float64{0.3, -1}, []float64{2, 0.5}
	assert.Equal(t, k.Eval(x, y), k.Eval(y, x))
}

func TestRadialPerDimension(t *testing.T) {
	k, err := NewRadial(1.0, 2.0)
	require.NoError(t, err)

	assert.Equal(t, 2, k.Dimension())

	// exp(-(1/2 + 4/8))
	assert.InDelta(t, math.Exp(-1), k.Eval([]float64{0, 0}, []float64{1, 2}), 1e-15)

	assert.Panics(t, func() { k.Eval([]float64{1, 2, 3}, []float64{1, 2, 3}) })
}

func TestRadialPanicsOnLengthMismatch(t *testing.T) {
	k, err := NewRadial(1.0)
	require.NoError(t, err)

	assert.PanicsWithValue(t, "input vectors must have the same length", func() {
		k.Eval([]float64{1}, []float64{1, 2})
	})
}

func TestRadialLiftedAgreesWithEval(t *testing.T) {
	k, err := NewRadial(0.7, 1.3)
	require.NoError(t, err)

	x := []float64{0.2, -0.4}
	q := []float64{1.1, 0.6}

	want := k.Eval(x, q)

	assert.InDelta(t, want, k.Real().Cross(x, dual.Reals(q)).Value(), 1e-15)
	assert.InDelta(t, want, k.Dual().Cross(x, dual.Variables(q)).Value(), 1e-15)

	assert.Equal(t, 1.0, k.Real().Self(dual.Reals(q)).Value())
	assert.Equal(t, 1.0, k.Dual().Self(dual.Variables(q)).Value())
}

func TestRadialDualDerivative(t *testing.T) {
	sigma := []float64{0.7, 1.3}

	k, err := NewRadial(sigma...)
	require.NoError(t, err)

	x := []float64{0.2, -0.4}
	q := []float64{1.1, 0.6}

	got := k.Dual().Cross(x, dual.Variables(q))

	// ∂k/∂q_i = -k (q_i - x_i) / σ_i²
	for i := range q {
		want := -got.Value() * (q[i] - x[i]) / (sigma[i] * sigma[i])
		assert.InDelta(t, want, got.Derivative(i), 1e-14)
	}

	// k(q, q) is constant in q.
	self := k.Dual().Self(dual.Variables(q))
	for i := range q {
		assert.Zero(t, self.Derivative(i))
	}
}
