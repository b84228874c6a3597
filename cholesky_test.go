package bo

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thalesfsp/bo/dual"
	"gonum.org/v1/gonum/mat"
)

// lower triangle of a small SPD matrix, rows of increasing length.
var smallLower = [][]float64{
	{5.0},
	{2.0, 4.0},
	{1.0, 0.5, 3.0},
	{0.5, 1.0, 0.2, 2.0},
}

func symmetric(lower [][]float64) *mat.SymDense {
	n := len(lower)
	s := mat.NewSymDense(n, nil)

	for i := range lower {
		for j := range lower[i] {
			s.SetSym(i, j, lower[i][j])
		}
	}

	return s
}

// randomSPD returns B Bᵗ + n I as full rows.
func randomSPD(r *rand.Rand, n int) [][]float64 {
	b := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			b.Set(i, j, r.NormFloat64())
		}
	}

	var a mat.Dense
	a.Mul(b, b.T())

	out := make([][]float64, n)
	for i := range out {
		out[i] = make([]float64, n)
		for j := range out[i] {
			out[i][j] = a.At(i, j)
		}

		out[i][i] += float64(n)
	}

	return out
}

func TestFactorizeMatchesGonum(t *testing.T) {
	l := Factorize(smallLower, nil, 0)
	require.Len(t, l, 4)

	var ch mat.Cholesky
	require.True(t, ch.Factorize(symmetric(smallLower)))

	var want mat.TriDense
	ch.LTo(&want)

	for i := range l {
		// Row i holds exactly i+1 entries.
		require.Len(t, l[i], i+1)

		for j := range l[i] {
			assert.InDelta(t, want.At(i, j), l[i][j], 1e-12, "L[%d][%d]", i, j)
		}
	}
}

func TestSubstitutionSolvesSystem(t *testing.T) {
	b := []float64{7, 8, 5, 3}

	l := Factorize(smallLower, nil, 0)
	y := ForwardSubstitute(l, b, nil, 0)
	x := BackSubstitute(l, y)

	var ch mat.Cholesky
	require.True(t, ch.Factorize(symmetric(smallLower)))

	var want mat.VecDense
	require.NoError(t, ch.SolveVecTo(&want, mat.NewVecDense(4, b)))

	for i := range x {
		assert.InDelta(t, want.AtVec(i), x[i], 1e-12)
	}
}

func TestIncrementalFactorEqualsFull(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))

	for _, n := range []int{1, 2, 5, 12} {
		a := randomSPD(r, n)
		b := make([]float64, n)
		for i := range b {
			b[i] = r.NormFloat64()
		}

		full := Factorize(a, nil, 0)
		fullY := ForwardSubstitute(full, b, nil, 0)

		var l [][]float64
		var y []float64

		for k := 1; k <= n; k++ {
			l = Factorize(a[:k], l, len(l))
			y = ForwardSubstitute(l, b[:k], y, len(y))

			// The top-left k x k block of the full factor is the factor of
			// the top-left k x k block.
			for i := 0; i < k; i++ {
				for j := 0; j <= i; j++ {
					assert.InDelta(t, full[i][j], l[i][j], 1e-12)
				}

				assert.InDelta(t, fullY[i], y[i], 1e-12)
			}
		}
	}
}

func TestFactorReconstructsMatrix(t *testing.T) {
	r := rand.New(rand.NewPCG(3, 4))
	a := randomSPD(r, 9)
	l := Factorize(a, nil, 0)

	for i := range a {
		for j := 0; j <= i; j++ {
			var sum float64
			for k := 0; k <= j; k++ {
				sum += l[i][k] * l[j][k]
			}

			assert.InDelta(t, a[i][j], sum, 1e-9)
		}
	}
}

func TestFactorizeFloorsPivot(t *testing.T) {
	// Singular: the second pivot is exactly zero.
	l := Factorize([][]float64{{1, 1}, {1, 1}}, nil, 0)

	assert.Equal(t, 1.0, l[0][0])
	assert.Equal(t, 1.0, l[1][0])
	assert.InDelta(t, 1e-6, l[1][1], 1e-18)
}

func TestFactorizePanicsBeyondFactor(t *testing.T) {
	assert.Panics(t, func() {
		Factorize(smallLower, nil, 2)
	})

	assert.Panics(t, func() {
		ForwardSubstitute(Factorize(smallLower, nil, 0), []float64{1, 2, 3, 4}, []float64{1}, 2)
	})
}

func TestForwardSubstituteScalarMatchesPlain(t *testing.T) {
	b := []float64{7, 8, 5, 3}
	l := Factorize(smallLower, nil, 0)

	want := ForwardSubstitute(l, b, nil, 0)

	plain := ForwardSubstituteScalar(l, dual.Reals(b))
	withDerivatives := ForwardSubstituteScalar(l, dual.Variables(b))

	for i := range want {
		assert.InDelta(t, want[i], plain[i].Value(), 1e-15)
		assert.InDelta(t, want[i], withDerivatives[i].Value(), 1e-15)
	}

	// y = L⁻¹ b is linear in b, so ∂y/∂b is L⁻¹: lower triangular with
	// 1/L[i][i] on the diagonal.
	for i := range withDerivatives {
		assert.InDelta(t, 1/l[i][i], withDerivatives[i].Derivative(i), 1e-15)

		for j := i + 1; j < len(b); j++ {
			assert.Zero(t, withDerivatives[i].Derivative(j))
		}
	}
}
