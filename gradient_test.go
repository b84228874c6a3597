package bo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thalesfsp/bo/dual"
)

func TestGradientMinimizeSquare(t *testing.T) {
	// Record every objective value the optimizer sees.
	var values []float64

	square := func(x []dual.Number[float64]) dual.Number[float64] {
		y := x[0].Mul(x[0])
		values = append(values, y.Value())

		return y
	}

	x0 := []float64{37}

	g := NewGradient[float64](square, GradientConfig[float64]{MaxSteps: 10, Rate: 0.1})
	x := g.Minimize(x0)

	require.Len(t, x, 1)
	assert.Less(t, math.Abs(x[0]), 37.0)

	// x ← x - 0.1·2x = 0.8x per step.
	assert.InDelta(t, 37*math.Pow(0.8, 10), x[0], 1e-9)

	require.Len(t, values, 10)
	for i := 1; i < len(values); i++ {
		assert.Less(t, values[i], values[i-1], "step %d", i)
	}

	// The start point is not modified.
	assert.Equal(t, []float64{37}, x0)
}

func TestGradientMaximize(t *testing.T) {
	// f(x, y) = -(x-1)² - (y+2)², maximum at (1, -2).
	f := func(x []dual.Number[float64]) dual.Number[float64] {
		a := x[0].SubConst(1)
		b := x[1].AddConst(2)

		return a.Mul(a).Add(b.Mul(b)).Neg()
	}

	g := NewGradient[float64](f, GradientConfig[float64]{MaxSteps: 1000, Rate: 0.1, Eps: 1e-9})
	x := g.Maximize([]float64{5, 5})

	assert.InDelta(t, 1, x[0], 1e-8)
	assert.InDelta(t, -2, x[1], 1e-8)
}

func TestGradientStopsWhenConverged(t *testing.T) {
	calls := 0
	flat := func(x []dual.Number[float64]) dual.Number[float64] {
		calls++

		return x[0].MulConst(1e-9)
	}

	g := NewGradient[float64](flat, DefaultGradientConfig[float64]())
	x := g.Minimize([]float64{3})

	// The first step already sees a derivative below Eps.
	assert.Equal(t, 1, calls)
	assert.Equal(t, []float64{3}, x)
}

func TestGradientRunsFullBudget(t *testing.T) {
	calls := 0
	linear := func(x []dual.Number[float64]) dual.Number[float64] {
		calls++

		return x[0].Add(x[1].MulConst(2))
	}

	g := NewGradient[float64](linear, GradientConfig[float64]{MaxSteps: 7, Rate: 0.5})
	x := g.Minimize([]float64{0, 0})

	// Non-convergence is silent; the last point is returned.
	assert.Equal(t, 7, calls)
	assert.InDelta(t, -3.5, x[0], 1e-12)
	assert.InDelta(t, -7, x[1], 1e-12)
}

func TestGradientIgnoresUntrackedCoordinates(t *testing.T) {
	// Only x[1] influences the result.
	f := func(x []dual.Number[float64]) dual.Number[float64] {
		return x[1].Mul(x[1])
	}

	g := NewGradient[float64](f, GradientConfig[float64]{MaxSteps: 5, Rate: 0.25})
	x := g.Minimize([]float64{4, 4})

	assert.Equal(t, 4.0, x[0])
	assert.InDelta(t, 4*math.Pow(0.5, 5), x[1], 1e-12)
}

func TestGradientConfigValidate(t *testing.T) {
	assert.NoError(t, DefaultGradientConfig[float64]().Validate())

	for _, c := range []GradientConfig[float64]{
		{MaxSteps: -1, Rate: 0.1},
		{MaxSteps: 1, Rate: 0},
		{MaxSteps: 1, Rate: -0.1},
		{MaxSteps: 1, Rate: math.Inf(1)},
		{MaxSteps: 1, Rate: 0.1, Eps: -1},
		{MaxSteps: 1, Rate: 0.1, Eps: math.NaN()},
	} {
		assert.ErrorIs(t, c.Validate(), ErrInvalidConfig, "%+v", c)
	}
}
