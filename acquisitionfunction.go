package bo

import (
	"github.com/thalesfsp/bo/dual"
	"golang.org/x/exp/constraints"
)

//////
// Available acquisition functions for Bayesian optimization.
// Each function helps decide which points to evaluate next by balancing
// exploration (trying new areas) and exploitation (focusing on known good
// areas). All of them are maximized, and all are written against the generic
// scalar arithmetic so the same formula yields plain scores and gradients.
//////

// expectedImprovement scores a point with mean mu and variance variance
// against the incumbent value best, minimize convention:
//
//	σ = sqrt(variance + Jitter)
//	δ = best - μ
//	z = δ / σ
//	EI = δ Φ(z) + σ φ(z)
func expectedImprovement[S dual.Scalar[S, T], T constraints.Float](mu, variance S, best T) S {
	sigma := variance.AddConst(Jitter).Sqrt()
	delta := mu.ConstSub(best)
	z := delta.Div(sigma)

	return delta.Mul(normalCDF[S, T](z)).Add(sigma.Mul(normalPDF[S, T](z)))
}

// probabilityOfImprovement is Φ((best - μ - xi) / σ).
func probabilityOfImprovement[S dual.Scalar[S, T], T constraints.Float](mu, variance S, best, xi T) S {
	sigma := variance.AddConst(Jitter).Sqrt()

	return normalCDF[S, T](mu.ConstSub(best - xi).Div(sigma))
}

// lowerConfidenceBound is beta σ - μ, the negated lower confidence bound, so
// that maximizing it favours low means and high uncertainty.
func lowerConfidenceBound[S dual.Scalar[S, T], T constraints.Float](mu, variance S, beta T) S {
	return variance.AddConst(Jitter).Sqrt().MulConst(beta).Sub(mu)
}

// ExpectedImprovement is the expected amount by which a sample at a point
// beats the incumbent.
//
// How it works:
// - Combines the probability of improvement with the magnitude of improvement
// - Balances how likely and how large the improvement might be
// - Always >= 0; Jitter keeps it defined where the model is certain
//
// Example:
//
//	ei := NewExpectedImprovement[float64](gp, 1.3)
//	score := ei.Eval([]float64{1.6})
//	grad := ei.EvalDual(dual.Variables([]float64{1.6})).Gradient(1)
type ExpectedImprovement[T constraints.Float] struct {
	model Surrogate[T]
	best  T
}

// NewExpectedImprovement creates the acquisition for a model and incumbent
// value. It has the AcquisitionFunc signature.
func NewExpectedImprovement[T constraints.Float](model Surrogate[T], best T) Acquisition[T] {
	return &ExpectedImprovement[T]{model: model, best: best}
}

// Best returns the incumbent value the acquisition compares against.
func (e *ExpectedImprovement[T]) Best() T {
	return e.best
}

func (e *ExpectedImprovement[T]) Eval(x []T) T {
	mu, variance := e.model.Predict(x)

	return expectedImprovement(dual.RealOf(mu), dual.RealOf(variance), e.best).Value()
}

func (e *ExpectedImprovement[T]) EvalDual(x []dual.Number[T]) dual.Number[T] {
	mu, variance := e.model.PredictDual(x)

	return expectedImprovement(mu, variance, e.best)
}

// ProbabilityOfImprovement calculates the probability that a point will
// improve upon the incumbent by at least xi.
//
// When to use:
// - When you want to be conservative in exploring new points
// - When you're fine with small improvements
//
// Example:
//
//	config.AcquisitionFunc = ProbabilityOfImprovement[float64](0.01)
func ProbabilityOfImprovement[T constraints.Float](xi T) AcquisitionFunc[T] {
	return func(model Surrogate[T], best T) Acquisition[T] {
		return &scored[T]{
			model:  model,
			onReal: func(mu, variance dual.Real[T]) dual.Real[T] {
				return probabilityOfImprovement(mu, variance, best, xi)
			},
			onDual: func(mu, variance dual.Number[T]) dual.Number[T] {
				return probabilityOfImprovement(mu, variance, best, xi)
			},
		}
	}
}

// LowerConfidenceBound combines the predicted mean with the uncertainty.
// The Beta parameter controls the trade-off between exploration and
// exploitation (higher = more exploration). The incumbent is ignored.
//
// Example:
//
//	config.AcquisitionFunc = LowerConfidenceBound[float64](2.0)
func LowerConfidenceBound[T constraints.Float](beta T) AcquisitionFunc[T] {
	return func(model Surrogate[T], _ T) Acquisition[T] {
		return &scored[T]{
			model:  model,
			onReal: func(mu, variance dual.Real[T]) dual.Real[T] {
				return lowerConfidenceBound(mu, variance, beta)
			},
			onDual: func(mu, variance dual.Number[T]) dual.Number[T] {
				return lowerConfidenceBound(mu, variance, beta)
			},
		}
	}
}

// scored is an acquisition defined by a score of the predictive mean and
// variance, given once per scalar type.
type scored[T constraints.Float] struct {
	model  Surrogate[T]
	onReal func(mu, variance dual.Real[T]) dual.Real[T]
	onDual func(mu, variance dual.Number[T]) dual.Number[T]
}

func (s *scored[T]) Eval(x []T) T {
	mu, variance := s.model.Predict(x)

	return s.onReal(dual.RealOf(mu), dual.RealOf(variance)).Value()
}

func (s *scored[T]) EvalDual(x []dual.Number[T]) dual.Number[T] {
	mu, variance := s.model.PredictDual(x)

	return s.onDual(mu, variance)
}
