package bo

import (
	"fmt"
	"math"

	"github.com/thalesfsp/bo/dual"
	"golang.org/x/exp/constraints"
)

//////
// Const, vars, types.
//////

// GradientConfig bounds the fixed-step gradient search.
//
// Fields:
// - MaxSteps: Step budget
// - Rate: Step size applied to each partial derivative
// - Eps: The search stops once every partial derivative is below Eps in
//   magnitude
type GradientConfig[T constraints.Float] struct {
	MaxSteps int
	Rate     T
	Eps      T
}

// DefaultGradientConfig returns a configuration suited to acquisition
// surfaces on unit-scale domains.
func DefaultGradientConfig[T constraints.Float]() GradientConfig[T] {
	return GradientConfig[T]{
		MaxSteps: 100,
		Rate:     1e-2,
		Eps:      1e-6,
	}
}

// Validate checks the configuration.
func (c GradientConfig[T]) Validate() error {
	if c.MaxSteps < 0 {
		return fmt.Errorf("gradient: max steps %d: %w", c.MaxSteps, ErrInvalidConfig)
	}

	if !(c.Rate > 0) || math.IsInf(float64(c.Rate), 0) {
		return fmt.Errorf("gradient: rate %v: %w", c.Rate, ErrInvalidConfig)
	}

	if !(c.Eps >= 0) {
		return fmt.Errorf("gradient: eps %v: %w", c.Eps, ErrInvalidConfig)
	}

	return nil
}

// Differentiable is a scalar function of dual coordinates. The derivative of
// the result with respect to coordinate i is read at variable id i.
type Differentiable[T constraints.Float] func(x []dual.Number[T]) dual.Number[T]

// Gradient is a local hill-climb over a Differentiable function. It has no
// global optimality guarantee.
type Gradient[T constraints.Float] struct {
	fn     Differentiable[T]
	config GradientConfig[T]
}

//////
// Factory.
//////

// NewGradient creates a gradient optimizer.
//
// Usage example:
//
//	g := NewGradient(func(x []dual.Number[float64]) dual.Number[float64] {
//	    return x[0].Mul(x[0])
//	}, GradientConfig[float64]{MaxSteps: 10, Rate: 0.1})
//	x := g.Minimize([]float64{37})
func NewGradient[T constraints.Float](fn Differentiable[T], config GradientConfig[T]) *Gradient[T] {
	return &Gradient[T]{fn: fn, config: config}
}

//////
// Methods.
//////

// Minimize descends from x0 and returns the final point. x0 is not modified.
func (g *Gradient[T]) Minimize(x0 []T) []T {
	return g.search(x0, -g.config.Rate)
}

// Maximize ascends from x0 and returns the final point. x0 is not modified.
func (g *Gradient[T]) Maximize(x0 []T) []T {
	return g.search(x0, g.config.Rate)
}

func (g *Gradient[T]) search(x0 []T, step T) []T {
	x := dual.Variables(x0)

	for range g.config.MaxSteps {
		grad := g.fn(x).Gradient(len(x))

		if g.converged(grad) {
			break
		}

		for i := range x {
			x[i] = x[i].WithValue(x[i].Value() + step*grad[i])
		}
	}

	return dual.Values[dual.Number[T], T](x)
}

func (g *Gradient[T]) converged(grad []T) bool {
	for _, d := range grad {
		if !(math.Abs(float64(d)) < float64(g.config.Eps)) {
			return false
		}
	}

	return true
}
