// Package dual implements sparse forward-mode automatic differentiation.
//
// A Number carries a value together with the partial derivatives of that
// value with respect to a set of independent variables. Only the variables a
// Number actually depends on are tracked: the sorted list of their ids (the
// active indices) indexes into a dense derivative array. Every operation
// returns a fresh Number and never mutates its operands.
//
// # Seeding
//
// Independent variables are created with Variable, one id per coordinate:
//
//	x := dual.Variable(1.5, 0) // dx/dx = 1
//	y := dual.Variable(2.0, 1) // dy/dy = 1
//	f := x.Mul(y).Add(x.Exp())  // f = x*y + e^x
//	f.Value()                   // 3 + e^1.5
//	f.Derivative(0)             // y + e^x
//	f.Derivative(1)             // x
//
// # Mixing with plain numbers
//
// Operations against a plain scalar skip the index merge entirely:
//
//	g := x.MulConst(3).ConstSub(1) // 1 - 3x
//
// # Generic code
//
// Scalar is the numeric trait satisfied by both Number and Real. Code written
// against Scalar runs unchanged on plain values and on dual numbers, which is
// how derivatives of a whole Gaussian-process prediction are obtained:
//
//	func square[S dual.Scalar[S, T], T constraints.Float](s S) S {
//	    return s.Mul(s)
//	}
//
// The zero value of any Scalar is the constant zero.
package dual
