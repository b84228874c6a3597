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

// Covariance evaluates a kernel against a query whose coordinates have scalar
// type S. The training side is always plain.
type Covariance[T constraints.Float, S dual.Scalar[S, T]] interface {
	// Cross returns k(x, q) for a training input x.
	Cross(x []T, q []S) S

	// Self returns k(q, q).
	Self(q []S) S
}

// dimensioned is implemented by kernels whose bandwidths fix the input
// dimension. Dimension returns 0 when any dimension is accepted.
type dimensioned interface {
	Dimension() int
}

// Kernel is a symmetric covariance function, k(x, y) = k(y, x).
//
// Eval is used while training. Real and Dual return the same function
// lifted to plain and dual queries; both must agree with Eval on values.
// Writing the formula once as a generic Covariance, as Radial does, keeps
// them consistent.
type Kernel[T constraints.Float] interface {
	Eval(x, y []T) T
	Real() Covariance[T, dual.Real[T]]
	Dual() Covariance[T, dual.Number[T]]
}

// Radial is the squared-exponential kernel
//
//	k(x, y) = exp(-Σ_i (x_i - y_i)² / (2 σ_i²))
//
// with either one bandwidth shared by all dimensions or one per dimension.
type Radial[T constraints.Float] struct {
	// denominator holds 2σ² per dimension, or a single shared entry.
	denominator []T
}

// radial is Radial's formula for queries of scalar type S.
type radial[T constraints.Float, S dual.Scalar[S, T]] struct {
	k *Radial[T]
}

//////
// Factory.
//////

// NewRadial creates a radial kernel.
//
// Parameters:
//   - sigma: one bandwidth for every dimension, or one bandwidth per
//     dimension
//
// Returns:
//   - *Radial[T]: the kernel
//   - error: ErrInvalidBandwidth if sigma is empty or any entry is not
//     strictly positive
//
// Usage example:
//
//	k, err := NewRadial(2.0)           // isotropic
//	k, err := NewRadial(1.0, 0.5, 3.0) // one bandwidth per dimension
func NewRadial[T constraints.Float](sigma ...T) (*Radial[T], error) {
	if len(sigma) == 0 {
		return nil, fmt.Errorf("radial kernel: no bandwidth: %w", ErrInvalidBandwidth)
	}

	denominator := make([]T, len(sigma))
	for i, s := range sigma {
		if !(s > 0) || math.IsInf(float64(s), 0) {
			return nil, fmt.Errorf("radial kernel: sigma[%d] = %v: %w", i, s, ErrInvalidBandwidth)
		}

		denominator[i] = 2 * s * s
	}

	return &Radial[T]{denominator: denominator}, nil
}

//////
// Methods.
//////

// Dimension returns the number of per-dimension bandwidths, or 0 when one
// bandwidth is shared by any number of dimensions.
func (r *Radial[T]) Dimension() int {
	if len(r.denominator) == 1 {
		return 0
	}

	return len(r.denominator)
}

func (r *Radial[T]) denominatorAt(i int) T {
	if len(r.denominator) == 1 {
		return r.denominator[0]
	}

	return r.denominator[i]
}

func (r *Radial[T]) check(nx, ny int) {
	if nx != ny {
		panic("input vectors must have the same length")
	}

	if d := r.Dimension(); d != 0 && d != nx {
		panic(fmt.Sprintf("radial kernel: %d bandwidths for %d dimensions", d, nx))
	}
}

// Eval returns k(x, y) for plain inputs.
func (r *Radial[T]) Eval(x, y []T) T {
	return radial[T, dual.Real[T]]{k: r}.Cross(x, dual.Reals(y)).Value()
}

// Real returns the kernel for plain queries.
func (r *Radial[T]) Real() Covariance[T, dual.Real[T]] {
	return radial[T, dual.Real[T]]{k: r}
}

// Dual returns the kernel for dual queries.
func (r *Radial[T]) Dual() Covariance[T, dual.Number[T]] {
	return radial[T, dual.Number[T]]{k: r}
}

func (c radial[T, S]) Cross(x []T, q []S) S {
	c.k.check(len(x), len(q))

	var sum S
	for i := range x {
		delta := q[i].ConstSub(x[i])
		sum = sum.Add(delta.Mul(delta).DivConst(c.k.denominatorAt(i)))
	}

	return sum.Neg().Exp()
}

func (c radial[T, S]) Self(q []S) S {
	c.k.check(len(q), len(q))

	var sum S
	for i := range q {
		delta := q[i].Sub(q[i])
		sum = sum.Add(delta.Mul(delta).DivConst(c.k.denominatorAt(i)))
	}

	return sum.Neg().Exp()
}
