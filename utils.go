package bo

import (
	"math"

	"github.com/thalesfsp/bo/dual"
	"golang.org/x/exp/constraints"
)

//////
// Helper functions.
//////

const (
	invSqrt2   = 0.707106781186547524400844362104849
	invSqrt2Pi = 0.39894228040143267793994605993438
)

// normalCDF is the cumulative distribution function of the standard normal
// distribution, 0.5 * (1 + erf(x / √2)).
func normalCDF[S dual.Scalar[S, T], T constraints.Float](x S) S {
	return x.MulConst(invSqrt2).Erf().AddConst(1).MulConst(0.5)
}

// normalPDF is the density of the standard normal distribution,
// exp(-x²/2) / √(2π).
func normalPDF[S dual.Scalar[S, T], T constraints.Float](x S) S {
	return x.Mul(x).MulConst(-0.5).Exp().MulConst(invSqrt2Pi)
}

// isFinite reports whether every coordinate of x is a finite number.
func isFinite[T constraints.Float](x []T) bool {
	for _, v := range x {
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			return false
		}
	}

	return true
}

// center returns the midpoint of every range.
func center[T constraints.Float](ranges []ParameterRange[T]) []T {
	out := make([]T, len(ranges))
	for i, r := range ranges {
		out[i] = r.Min + (r.Max-r.Min)/2
	}

	return out
}
