package dual

import (
	"fmt"

	"golang.org/x/exp/constraints"
)

//////
// Const, vars, types.
//////

// MaxIndex bounds the id of any independent variable. It only guards against
// runaway ids; storage is sized by the largest id actually referenced.
const MaxIndex = 100000

// Number is a dual number: a value plus the partial derivatives of that value
// with respect to the variables it depends on.
//
// Fields:
//   - value: the primal value
//   - index: sorted, unique ids of the variables with a tracked derivative
//   - deriv: dense derivative storage indexed by variable id, sized to the
//     largest id referenced
//
// Invariants:
//   - every id in index is < len(deriv)
//   - deriv entries whose id is not in index carry no meaning
//
// Number has value semantics. Operations never modify their operands, so
// index and deriv may be shared between Numbers.
//
// The zero value is the constant 0.
type Number[T constraints.Float] struct {
	value T
	index []int
	deriv []T
}

//////
// Factory.
//////

// Constant returns a Number with no derivatives.
func Constant[T constraints.Float](v T) Number[T] {
	return Number[T]{value: v}
}

// Variable seeds independent variable i with value v.
//
// Parameters:
//   - v: the value of the variable
//   - i: the variable id, in [0, MaxIndex)
//
// Returns:
//   - Number[T]: v with derivative 1 at id i and nothing else tracked
//
// Usage example:
//
//	x := dual.Variable(2.0, 0)
//	x.Mul(x).Derivative(0) // 4
//
// Panics if i is out of range.
func Variable[T constraints.Float](v T, i int) Number[T] {
	if i < 0 || i >= MaxIndex {
		panic(fmt.Sprintf("dual: variable index %d out of range [0, %d)", i, MaxIndex))
	}

	deriv := make([]T, i+1)
	deriv[i] = 1

	return Number[T]{value: v, index: []int{i}, deriv: deriv}
}

// Variables seeds one variable per element of values, variable i taking
// values[i].
func Variables[T constraints.Float](values []T) []Number[T] {
	out := make([]Number[T], len(values))
	for i, v := range values {
		out[i] = Variable(v, i)
	}

	return out
}

// Constants lifts every element of values to a Number without derivatives.
func Constants[T constraints.Float](values []T) []Number[T] {
	out := make([]Number[T], len(values))
	for i, v := range values {
		out[i] = Constant(v)
	}

	return out
}

//////
// Methods.
//////

// Value returns the primal value.
func (n Number[T]) Value() T {
	return n.value
}

// WithValue returns a copy of n holding value v and the same derivatives.
func (n Number[T]) WithValue(v T) Number[T] {
	return Number[T]{value: v, index: n.index, deriv: n.deriv}
}

// Index returns the sorted ids of the tracked variables. The slice must not
// be modified.
func (n Number[T]) Index() []int {
	return n.index
}

// Size returns the length of the derivative storage.
func (n Number[T]) Size() int {
	return len(n.deriv)
}

// Derivative returns the partial derivative with respect to variable i, zero
// when i is not tracked.
func (n Number[T]) Derivative(i int) T {
	if i < 0 || i >= len(n.deriv) {
		return 0
	}

	return n.deriv[i]
}

// Gradient returns the partial derivatives with respect to variables
// 0..size-1 as a dense slice. Only tracked ids are read.
func (n Number[T]) Gradient(size int) []T {
	out := make([]T, size)
	for _, i := range n.index {
		if i < size {
			out[i] = n.deriv[i]
		}
	}

	return out
}

// String formats n as "value[id:derivative ...]".
func (n Number[T]) String() string {
	s := fmt.Sprintf("%v[", n.value)
	for k, i := range n.index {
		if k > 0 {
			s += " "
		}

		s += fmt.Sprintf("%d:%v", i, n.deriv[i])
	}

	return s + "]"
}
