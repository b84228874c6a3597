package bo

import (
	"fmt"

	"github.com/thalesfsp/bo/dual"
	"golang.org/x/exp/constraints"
)

//////
// Const, vars, types.
//////

// Jitter is the smallest noise variance and the offset added to predictive
// variances before taking square roots.
const Jitter = 1e-12

// Process implements Gaussian Process regression with multidimensional
// inputs and incremental training.
//
// Given training inputs X, targets y, kernel k and noise variance s²:
//
//	K = k(X, X) + s² I         covariance matrix
//	K = L Lᵗ                   Cholesky factor
//	z = L⁻¹ y                  forward substitution
//	a = L⁻ᵗ z = K⁻¹ y          backward substitution
//
// and for a query q with k* = k(X, q) and v = L⁻¹ k*:
//
//	mean(q)     = k*ᵗ a
//	variance(q) = max(0, k(q, q) - vᵗ v)
//
// Fields:
// - kernel: Covariance function
// - noise: Noise variance added to the diagonal, floored at Jitter
// - x, y: Observation set, append-only; index i is row/column i of k and l
// - k: Full covariance matrix, one row per observation
// - l: Lower Cholesky factor, row i holds i+1 entries
// - z, a: Solved vectors
//
// Memory usage:
// - O(n²) for n observations.
//
// Thread safety:
// - Not safe for concurrent mutation. Predict may run concurrently with
//   other Predict calls.
type Process[T constraints.Float] struct {
	kernel Kernel[T]
	noise  T
	dim    int

	x [][]T
	y []T

	k [][]T
	l [][]T
	z []T
	a []T
}

//////
// Factory.
//////

// NewProcess creates a Gaussian Process and trains it on samples.
//
// Parameters:
//   - kernel: Covariance function
//   - dim: Input dimension, fixed for the lifetime of the model
//   - samples: Initial observations (may be empty)
//   - noise: Observation noise standard deviation
//
// Returns:
//   - *Process[T]: The trained model
//   - error: ErrDimensionMismatch if dim is not positive, disagrees with the
//     kernel, or a sample has the wrong length
//
// Usage example:
//
//	k, _ := NewRadial(1.0)
//	gp, err := NewProcess[float64](k, 1, []Sample[float64]{
//	    {X: []float64{1}, Y: 1},
//	    {X: []float64{2}, Y: 3},
//	    {X: []float64{3}, Y: 5},
//	}, 0)
//	mean, variance := gp.Predict([]float64{2})
//
// Important notes:
// - Training is O(n³) once; use Emplace afterwards.
// - Samples are copied.
func NewProcess[T constraints.Float](kernel Kernel[T], dim int, samples []Sample[T], noise T) (*Process[T], error) {
	if dim <= 0 {
		return nil, fmt.Errorf("gaussian process: dimension %d: %w", dim, ErrDimensionMismatch)
	}

	if d, ok := kernel.(dimensioned); ok && d.Dimension() != 0 && d.Dimension() != dim {
		return nil, fmt.Errorf("gaussian process: kernel has %d dimensions, model %d: %w",
			d.Dimension(), dim, ErrDimensionMismatch)
	}

	p := &Process[T]{
		kernel: kernel,
		noise:  max(noise*noise, Jitter),
		dim:    dim,
	}

	for i, s := range samples {
		if len(s.X) != dim {
			return nil, fmt.Errorf("gaussian process: sample %d has %d dimensions, want %d: %w",
				i, len(s.X), dim, ErrDimensionMismatch)
		}

		p.x = append(p.x, append([]T(nil), s.X...))
		p.y = append(p.y, s.Y)
	}

	p.buildCovariance()
	p.solveFull()

	return p, nil
}

//////
// Methods.
//////

// Len returns the number of observations.
func (p *Process[T]) Len() int {
	return len(p.x)
}

// Dim returns the input dimension.
func (p *Process[T]) Dim() int {
	return p.dim
}

// NoiseVariance returns the variance added to the covariance diagonal.
func (p *Process[T]) NoiseVariance() T {
	return p.noise
}

// Samples returns a copy of the observation set in insertion order.
func (p *Process[T]) Samples() []Sample[T] {
	out := make([]Sample[T], len(p.x))
	for i := range p.x {
		out[i] = Sample[T]{X: append([]T(nil), p.x[i]...), Y: p.y[i]}
	}

	return out
}

// Covariance returns the covariance matrix rows. They must not be modified.
func (p *Process[T]) Covariance() [][]T {
	return p.k
}

// Factor returns the lower Cholesky factor rows. They must not be modified.
func (p *Process[T]) Factor() [][]T {
	return p.l
}

// Weights returns the posterior weights a = K⁻¹ y. They must not be
// modified.
func (p *Process[T]) Weights() []T {
	return p.a
}

// Emplace adds one observation and updates the model incrementally: one new
// covariance row and column, one new factor row, one new entry of z, and a
// full O(n²) backward substitution for a.
//
// Panics if len(x) differs from Dim.
func (p *Process[T]) Emplace(x []T, y T) {
	if len(x) != p.dim {
		panic(fmt.Sprintf("gaussian process: point has %d dimensions, want %d", len(x), p.dim))
	}

	p.x = append(p.x, append([]T(nil), x...))
	p.y = append(p.y, y)

	p.extendCovariance()
	p.solveLast()
}

// Predict estimates the mean and variance at x.
//
// Returns (0, k(x, x)) when the model has no observations.
//
// Panics if len(x) differs from Dim.
func (p *Process[T]) Predict(x []T) (mean, variance T) {
	m, v := PredictScalar(p, p.kernel.Real(), dual.Reals(x))

	return m.Value(), v.Value()
}

// PredictDual estimates the mean and variance at a dual query. Seeding the
// query with dual.Variables yields the gradient of both with respect to the
// query coordinates.
func (p *Process[T]) PredictDual(x []dual.Number[T]) (mean, variance dual.Number[T]) {
	return PredictScalar(p, p.kernel.Dual(), x)
}

// PredictScalar is the prediction shared by Predict and PredictDual, for a
// query of any scalar type. Summation runs in training order.
func PredictScalar[S dual.Scalar[S, T], T constraints.Float](p *Process[T], cov Covariance[T, S], q []S) (mean, variance S) {
	if len(q) != p.dim {
		panic(fmt.Sprintf("gaussian process: query has %d dimensions, want %d", len(q), p.dim))
	}

	self := cov.Self(q)

	xs := make([]S, len(p.x))
	for i := range p.x {
		xs[i] = cov.Cross(p.x[i], q)
	}

	v := ForwardSubstituteScalar(p.l, xs)

	for i := range xs {
		mean = mean.Add(xs[i].MulConst(p.a[i]))
	}

	var vv S
	for i := range v {
		vv = vv.Add(v[i].Mul(v[i]))
	}

	return mean, self.Sub(vv).MaxConst(0)
}

func (p *Process[T]) buildCovariance() {
	n := len(p.x)

	p.k = make([][]T, n)
	for i := 0; i < n; i++ {
		p.k[i] = make([]T, n)
		for j := 0; j < n; j++ {
			p.k[i][j] = p.kernel.Eval(p.x[i], p.x[j])
		}

		p.k[i][i] += p.noise
	}
}

func (p *Process[T]) extendCovariance() {
	n := len(p.k)
	x := p.x[n]

	for i := 0; i < n; i++ {
		p.k[i] = append(p.k[i], p.kernel.Eval(p.x[i], x))
	}

	row := make([]T, n+1)
	for j := 0; j < n; j++ {
		row[j] = p.kernel.Eval(x, p.x[j])
	}

	row[n] = p.kernel.Eval(x, x) + p.noise
	p.k = append(p.k, row)
}

func (p *Process[T]) solveFull() {
	p.l = Factorize(p.k, nil, 0)
	p.z = ForwardSubstitute(p.l, p.y, nil, 0)
	p.a = BackSubstitute(p.l, p.z)
}

func (p *Process[T]) solveLast() {
	p.l = Factorize(p.k, p.l, len(p.l))
	p.z = ForwardSubstitute(p.l, p.y, p.z, len(p.z))
	p.a = BackSubstitute(p.l, p.z)
}
