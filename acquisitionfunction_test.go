package bo

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thalesfsp/bo/dual"
	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/stat/distuv"
)

func TestNormalHelpersMatchGonum(t *testing.T) {
	for _, x := range []float64{-6, -2.5, -1, -0.1, 0, 0.3, 1, 2, 4.5} {
		assert.InDelta(t, distuv.UnitNormal.CDF(x), normalCDF[dual.Real[float64], float64](dual.RealOf(x)).Value(), 1e-15)
		assert.InDelta(t, distuv.UnitNormal.Prob(x), normalPDF[dual.Real[float64], float64](dual.RealOf(x)).Value(), 1e-15)
	}
}

func TestExpectedImprovementFormula(t *testing.T) {
	gp := newTestProcess(t, 1, 1, lineSamples(), 0)
	ei := NewExpectedImprovement[float64](gp, 1.3)

	for _, x := range []float64{0, 1, 1.6, 2.5, 4, 8} {
		mu, variance := gp.Predict([]float64{x})

		sigma := math.Sqrt(variance + Jitter)
		delta := 1.3 - mu
		z := delta / sigma
		want := delta*distuv.UnitNormal.CDF(z) + sigma*distuv.UnitNormal.Prob(z)

		assert.InDelta(t, want, ei.Eval([]float64{x}), 1e-12, "x = %v", x)
	}
}

func TestExpectedImprovementIsNonNegative(t *testing.T) {
	r := rand.New(rand.NewPCG(21, 22))
	gp := newTestProcess(t, 0.6, 2, randomSamples(r, 20, 2), 0)

	for _, best := range []float64{-10, -1, 0, 1, 10} {
		ei := NewExpectedImprovement[float64](gp, best)

		// Φ is computed from erf, which loses absolute precision in the far
		// left tail, so the exact zero lower bound holds up to rounding.
		for i := 0; i < 100; i++ {
			x := []float64{4*r.Float64() - 2, 4*r.Float64() - 2}
			assert.GreaterOrEqual(t, ei.Eval(x), -1e-12)
		}

		// At training points the variance is clamped near zero.
		for _, s := range gp.Samples() {
			assert.GreaterOrEqual(t, ei.Eval(s.X), -1e-12)
		}
	}
}

func TestExpectedImprovementBest(t *testing.T) {
	gp := newTestProcess(t, 1, 1, lineSamples(), 0)
	ei := NewExpectedImprovement[float64](gp, 1.3)

	e, ok := ei.(*ExpectedImprovement[float64])
	require.True(t, ok)
	assert.Equal(t, 1.3, e.Best())
}

func TestAcquisitionGradientsMatchFiniteDifferences(t *testing.T) {
	r := rand.New(rand.NewPCG(23, 24))
	gp := newTestProcess(t, 0.9, 2, randomSamples(r, 15, 2), 0.1)

	settings := &fd.Settings{Formula: fd.Central, Step: 1e-6}

	acquisitions := map[string]Acquisition[float64]{
		"ei":  NewExpectedImprovement[float64](gp, -0.5),
		"pi":  ProbabilityOfImprovement(0.01)(gp, -0.5),
		"lcb": LowerConfidenceBound(2.0)(gp, -0.5),
	}

	for name, acq := range acquisitions {
		for i := 0; i < 10; i++ {
			x := []float64{4*r.Float64() - 2, 4*r.Float64() - 2}

			got := acq.EvalDual(dual.Variables(x))
			assert.InDelta(t, acq.Eval(x), got.Value(), 1e-12, name)

			want := fd.Gradient(nil, acq.Eval, x, settings)
			assert.InDeltaSlice(t, want, got.Gradient(2), 1e-5, name)
		}
	}
}

func TestExpectedImprovementOneDimension(t *testing.T) {
	gp := newTestProcess(t, 1, 1, lineSamples(), 0)
	ei := NewExpectedImprovement[float64](gp, 1.3)

	got := ei.EvalDual(dual.Variables([]float64{1.6}))
	assert.Greater(t, got.Value(), 0.0)

	// Moving toward the low sample at x=1 raises the expected improvement.
	assert.Less(t, got.Derivative(0), 0.0)

	want := fd.Derivative(func(x float64) float64 {
		return ei.Eval([]float64{x})
	}, 1.6, &fd.Settings{Formula: fd.Central, Step: 1e-6})
	assert.InDelta(t, want, got.Derivative(0), 1e-6)
}

func TestProbabilityOfImprovement(t *testing.T) {
	gp := newTestProcess(t, 1, 1, lineSamples(), 0)
	pi := ProbabilityOfImprovement(0.01)(gp, 1.3)

	for _, x := range []float64{-3, 0, 1, 1.5, 2, 3, 9} {
		mu, variance := gp.Predict([]float64{x})
		want := distuv.UnitNormal.CDF((1.3 - 0.01 - mu) / math.Sqrt(variance+Jitter))

		got := pi.Eval([]float64{x})
		assert.InDelta(t, want, got, 1e-12)
		assert.GreaterOrEqual(t, got, 0.0)
		assert.LessOrEqual(t, got, 1.0)
	}
}

func TestLowerConfidenceBound(t *testing.T) {
	gp := newTestProcess(t, 1, 1, lineSamples(), 0)
	lcb := LowerConfidenceBound(2.0)(gp, 1.3)

	for _, x := range []float64{-3, 0, 1, 1.5, 2, 3, 9} {
		mu, variance := gp.Predict([]float64{x})
		assert.InDelta(t, 2*math.Sqrt(variance+Jitter)-mu, lcb.Eval([]float64{x}), 1e-12)
	}

	// The incumbent plays no part.
	other := LowerConfidenceBound(2.0)(gp, -100)
	assert.Equal(t, lcb.Eval([]float64{1.5}), other.Eval([]float64{1.5}))
}
