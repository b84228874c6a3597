package dual

import (
	"math"

	"golang.org/x/exp/constraints"
)

//////
// Const, vars, types.
//////

// Scalar is the arithmetic shared by plain numbers (Real) and dual numbers
// (Number). S is the implementing type itself and T is the underlying
// floating-point type.
//
// Binary methods taking an S combine two scalars. The *Const methods combine
// the receiver with a plain T on the right; the Const* methods put the plain
// T on the left:
//
//	s.SubConst(c) // s - c
//	s.ConstSub(c) // c - s
//
// Implementations must treat their zero value as the constant zero.
type Scalar[S any, T constraints.Float] interface {
	Value() T

	Add(S) S
	Sub(S) S
	Mul(S) S
	Div(S) S
	Max(S) S

	AddConst(T) S
	SubConst(T) S
	MulConst(T) S
	DivConst(T) S
	MaxConst(T) S

	ConstSub(T) S
	ConstDiv(T) S
	ConstMax(T) S

	Neg() S
	Sqrt() S
	Exp() S
	Log() S
	Erf() S
}

// Real is a plain floating-point value satisfying Scalar. It is what generic
// code runs on when no derivatives are needed.
type Real[T constraints.Float] struct {
	v T
}

//////
// Factory.
//////

// RealOf wraps v.
func RealOf[T constraints.Float](v T) Real[T] {
	return Real[T]{v: v}
}

// Reals wraps every element of values.
func Reals[T constraints.Float](values []T) []Real[T] {
	out := make([]Real[T], len(values))
	for i, v := range values {
		out[i] = Real[T]{v: v}
	}

	return out
}

// Values extracts the plain values of a slice of scalars.
func Values[S Scalar[S, T], T constraints.Float](s []S) []T {
	out := make([]T, len(s))
	for i := range s {
		out[i] = s[i].Value()
	}

	return out
}

//////
// Methods.
//////

// Value returns the wrapped value.
func (r Real[T]) Value() T { return r.v }

func (r Real[T]) Add(o Real[T]) Real[T] { return Real[T]{r.v + o.v} }
func (r Real[T]) Sub(o Real[T]) Real[T] { return Real[T]{r.v - o.v} }
func (r Real[T]) Mul(o Real[T]) Real[T] { return Real[T]{r.v * o.v} }
func (r Real[T]) Div(o Real[T]) Real[T] { return Real[T]{r.v / o.v} }

// Max returns r when r >= o, matching Number's tie convention.
func (r Real[T]) Max(o Real[T]) Real[T] {
	if r.v >= o.v {
		return r
	}

	return o
}

func (r Real[T]) AddConst(c T) Real[T] { return Real[T]{r.v + c} }
func (r Real[T]) SubConst(c T) Real[T] { return Real[T]{r.v - c} }
func (r Real[T]) MulConst(c T) Real[T] { return Real[T]{r.v * c} }
func (r Real[T]) DivConst(c T) Real[T] { return Real[T]{r.v / c} }

func (r Real[T]) MaxConst(c T) Real[T] {
	if r.v >= c {
		return r
	}

	return Real[T]{c}
}

func (r Real[T]) ConstSub(c T) Real[T] { return Real[T]{c - r.v} }
func (r Real[T]) ConstDiv(c T) Real[T] { return Real[T]{c / r.v} }

func (r Real[T]) ConstMax(c T) Real[T] {
	if c >= r.v {
		return Real[T]{c}
	}

	return r
}

func (r Real[T]) Neg() Real[T] { return Real[T]{-r.v} }

// Sqrt panics on negative values.
func (r Real[T]) Sqrt() Real[T] {
	if r.v < 0 {
		panic("dual: sqrt of negative value")
	}

	return Real[T]{T(math.Sqrt(float64(r.v)))}
}

func (r Real[T]) Exp() Real[T] { return Real[T]{T(math.Exp(float64(r.v)))} }

// Log panics on non-positive values.
func (r Real[T]) Log() Real[T] {
	if !(r.v > 0) {
		panic("dual: log of non-positive value")
	}

	return Real[T]{T(math.Log(float64(r.v)))}
}

func (r Real[T]) Erf() Real[T] { return Real[T]{T(math.Erf(float64(r.v)))} }
