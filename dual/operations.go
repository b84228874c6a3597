package dual

import (
	"math"

	"golang.org/x/exp/constraints"
)

//////
// Operation rules.
//
// Each rule is a zero-size type describing one elementwise operation: how to
// compute the value and how to propagate one partial derivative. The generic
// drivers below are instantiated per rule, so there is no dynamic dispatch.
//////

// binaryRule describes f(a, b). For a tracked id, left is used when only a
// depends on it, right when only b does, and both when both do.
type binaryRule[T constraints.Float] interface {
	value(a, b T) T
	both(a, da, b, db T) T
	left(a, da, b T) T
	right(a, b, db T) T
}

// unaryRule describes f(v): value and f'(v)*d.
type unaryRule[T constraints.Float] interface {
	value(v T) T
	deriv(v, d T) T
}

type plus[T constraints.Float] struct{}

func (plus[T]) value(a, b T) T        { return a + b }
func (plus[T]) both(_, da, _, db T) T { return da + db }
func (plus[T]) left(_, da, _ T) T     { return da }
func (plus[T]) right(_, _, db T) T    { return db }

type minus[T constraints.Float] struct{}

func (minus[T]) value(a, b T) T        { return a - b }
func (minus[T]) both(_, da, _, db T) T { return da - db }
func (minus[T]) left(_, da, _ T) T     { return da }
func (minus[T]) right(_, _, db T) T    { return -db }

type multiplies[T constraints.Float] struct{}

func (multiplies[T]) value(a, b T) T        { return a * b }
func (multiplies[T]) both(a, da, b, db T) T { return a*db + b*da }
func (multiplies[T]) left(_, da, b T) T     { return b * da }
func (multiplies[T]) right(a, _, db T) T    { return a * db }

type divides[T constraints.Float] struct{}

func (divides[T]) value(a, b T) T        { return a / b }
func (divides[T]) both(a, da, b, db T) T { return (b*da - a*db) / (b * b) }
func (divides[T]) left(_, da, b T) T     { return da / b }
func (divides[T]) right(a, b, db T) T    { return (-a * db) / (b * b) }

// maximum is the subgradient of max: ties take the first operand.
type maximum[T constraints.Float] struct{}

func (maximum[T]) value(a, b T) T {
	if a >= b {
		return a
	}

	return b
}

func (maximum[T]) both(a, da, b, db T) T {
	if a >= b {
		return da
	}

	return db
}

func (maximum[T]) left(a, da, b T) T {
	if a >= b {
		return da
	}

	return 0
}

func (maximum[T]) right(a, b, db T) T {
	if a >= b {
		return 0
	}

	return db
}

type negate[T constraints.Float] struct{}

func (negate[T]) value(v T) T    { return -v }
func (negate[T]) deriv(_, d T) T { return -d }

type squareRoot[T constraints.Float] struct{}

func (squareRoot[T]) value(v T) T { return T(math.Sqrt(float64(v))) }

// deriv is infinite at zero.
func (squareRoot[T]) deriv(v, d T) T { return d / (2 * T(math.Sqrt(float64(v)))) }

type exponential[T constraints.Float] struct{}

func (exponential[T]) value(v T) T    { return T(math.Exp(float64(v))) }
func (exponential[T]) deriv(v, d T) T { return T(math.Exp(float64(v))) * d }

type logarithm[T constraints.Float] struct{}

func (logarithm[T]) value(v T) T    { return T(math.Log(float64(v))) }
func (logarithm[T]) deriv(v, d T) T { return d / v }

// 2/sqrt(pi)
const twoOverSqrtPi = 1.12837916709551257389615890312154517

type errorFunction[T constraints.Float] struct{}

func (errorFunction[T]) value(v T) T { return T(math.Erf(float64(v))) }

func (errorFunction[T]) deriv(v, d T) T {
	return T(twoOverSqrtPi) * T(math.Exp(-float64(v*v))) * d
}

//////
// Drivers.
//////

// binary applies r to two Numbers, merging their index sets.
func binary[T constraints.Float, R binaryRule[T]](x, y Number[T]) Number[T] {
	var r R

	out := Number[T]{value: r.value(x.value, y.value)}
	if len(x.index) == 0 && len(y.index) == 0 {
		return out
	}

	deriv := make([]T, max(len(x.deriv), len(y.deriv)))
	index := make([]int, 0, len(x.index)+len(y.index))

	mergeIndex(
		x.index,
		y.index,
		func(i int) {
			deriv[i] = r.left(x.value, x.deriv[i], y.value)
			index = append(index, i)
		},
		func(i int) {
			deriv[i] = r.right(x.value, y.value, y.deriv[i])
			index = append(index, i)
		},
		func(i int) {
			deriv[i] = r.both(x.value, x.deriv[i], y.value, y.deriv[i])
			index = append(index, i)
		},
	)

	out.index = index
	out.deriv = deriv

	return out
}

// binaryConst applies r to (x, c), iterating x's ids only.
func binaryConst[T constraints.Float, R binaryRule[T]](x Number[T], c T) Number[T] {
	var r R

	out := Number[T]{value: r.value(x.value, c), index: x.index}
	if len(x.index) == 0 {
		return out
	}

	out.deriv = make([]T, len(x.deriv))
	for _, i := range x.index {
		out.deriv[i] = r.left(x.value, x.deriv[i], c)
	}

	return out
}

// constBinary applies r to (c, y), iterating y's ids only.
func constBinary[T constraints.Float, R binaryRule[T]](c T, y Number[T]) Number[T] {
	var r R

	out := Number[T]{value: r.value(c, y.value), index: y.index}
	if len(y.index) == 0 {
		return out
	}

	out.deriv = make([]T, len(y.deriv))
	for _, i := range y.index {
		out.deriv[i] = r.right(c, y.value, y.deriv[i])
	}

	return out
}

func unary[T constraints.Float, R unaryRule[T]](x Number[T]) Number[T] {
	var r R

	out := Number[T]{value: r.value(x.value), index: x.index}
	if len(x.index) == 0 {
		return out
	}

	out.deriv = make([]T, len(x.deriv))
	for _, i := range x.index {
		out.deriv[i] = r.deriv(x.value, x.deriv[i])
	}

	return out
}

//////
// Methods.
//////

// Add returns n + o.
func (n Number[T]) Add(o Number[T]) Number[T] { return binary[T, plus[T]](n, o) }

// Sub returns n - o.
func (n Number[T]) Sub(o Number[T]) Number[T] { return binary[T, minus[T]](n, o) }

// Mul returns n * o.
func (n Number[T]) Mul(o Number[T]) Number[T] { return binary[T, multiplies[T]](n, o) }

// Div returns n / o.
func (n Number[T]) Div(o Number[T]) Number[T] { return binary[T, divides[T]](n, o) }

// Max returns the larger of n and o. On a tie the derivatives of n are kept.
func (n Number[T]) Max(o Number[T]) Number[T] { return binary[T, maximum[T]](n, o) }

func (n Number[T]) AddConst(c T) Number[T] { return binaryConst[T, plus[T]](n, c) }
func (n Number[T]) SubConst(c T) Number[T] { return binaryConst[T, minus[T]](n, c) }
func (n Number[T]) MulConst(c T) Number[T] { return binaryConst[T, multiplies[T]](n, c) }
func (n Number[T]) DivConst(c T) Number[T] { return binaryConst[T, divides[T]](n, c) }

// MaxConst returns max(n, c); a tie keeps n's derivatives.
func (n Number[T]) MaxConst(c T) Number[T] { return binaryConst[T, maximum[T]](n, c) }

// ConstSub returns c - n.
func (n Number[T]) ConstSub(c T) Number[T] { return constBinary[T, minus[T]](c, n) }

// ConstDiv returns c / n.
func (n Number[T]) ConstDiv(c T) Number[T] { return constBinary[T, divides[T]](c, n) }

// ConstMax returns max(c, n); a tie has zero derivative.
func (n Number[T]) ConstMax(c T) Number[T] { return constBinary[T, maximum[T]](c, n) }

// Neg returns -n.
func (n Number[T]) Neg() Number[T] { return unary[T, negate[T]](n) }

// Sqrt returns the square root of n. Panics on negative values; at zero the
// derivative is infinite.
func (n Number[T]) Sqrt() Number[T] {
	if n.value < 0 {
		panic("dual: sqrt of negative value")
	}

	return unary[T, squareRoot[T]](n)
}

// Exp returns e^n.
func (n Number[T]) Exp() Number[T] { return unary[T, exponential[T]](n) }

// Log returns the natural logarithm of n. Panics unless n > 0.
func (n Number[T]) Log() Number[T] {
	if !(n.value > 0) {
		panic("dual: log of non-positive value")
	}

	return unary[T, logarithm[T]](n)
}

// Erf returns the error function of n.
func (n Number[T]) Erf() Number[T] { return unary[T, errorFunction[T]](n) }
