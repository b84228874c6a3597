package bo

import (
	"fmt"
	"math"

	"github.com/thalesfsp/bo/dual"
	"golang.org/x/exp/constraints"
)

//////
// Triangular solver.
//
// Lower-triangular factors are stored as jagged rows: row i holds the i+1
// entries L[i][0..i]. Square matrices fed to Factorize are full rows, of
// which only the lower triangle and the diagonal are read.
//////

// PivotFloor is the smallest value allowed under the square root of a
// diagonal pivot. It keeps the factor real when rounding pushes a pivot of a
// nearly singular matrix to zero or below.
const PivotFloor = 1e-12

// Factorize computes the Cholesky factor L of the symmetric positive-definite
// matrix a, so that L Lᵗ = a, starting at row beg.
//
// Parameters:
//   - a: the matrix, at least as many rows as the result should have
//   - l: a factor valid for the first beg rows of a (may be nil when beg is 0)
//   - beg: first row to compute; rows before it are kept unchanged
//
// Returns:
//   - [][]T: the factor of a, len(a) rows
//
// Usage example:
//
//	l := Factorize(a, nil, 0)        // full factorization
//	a = growByOneRow(a)
//	l = Factorize(a, l, len(l))      // one new row, O(n²)
func Factorize[T constraints.Float](a, l [][]T, beg int) [][]T {
	if beg > len(l) {
		panic(fmt.Sprintf("cholesky: start row %d beyond factor of %d rows", beg, len(l)))
	}

	l = l[:beg]
	for i := beg; i < len(a); i++ {
		row := make([]T, i+1)

		for j := 0; j < i; j++ {
			sum := a[i][j]
			for k := 0; k < j; k++ {
				sum -= row[k] * l[j][k]
			}

			row[j] = sum / l[j][j]
		}

		pivot := a[i][i]
		for k := 0; k < i; k++ {
			pivot -= row[k] * row[k]
		}

		row[i] = T(math.Sqrt(float64(max(pivot, PivotFloor))))
		l = append(l, row)
	}

	return l
}

// ForwardSubstitute solves L y = b top-down. Entries of y before beg are
// trusted unchanged; only y[beg:] is computed.
func ForwardSubstitute[T constraints.Float](l [][]T, b, y []T, beg int) []T {
	if beg > len(y) {
		panic(fmt.Sprintf("cholesky: start row %d beyond solution of %d rows", beg, len(y)))
	}

	y = y[:beg]
	for i := beg; i < len(b); i++ {
		sum := b[i]
		for k := 0; k < i; k++ {
			sum -= l[i][k] * y[k]
		}

		y = append(y, sum/l[i][i])
	}

	return y
}

// BackSubstitute solves Lᵗ x = y bottom-up. Every entry depends on all
// entries below it, so x is always recomputed in full.
func BackSubstitute[T constraints.Float](l [][]T, y []T) []T {
	n := len(y)
	x := make([]T, n)

	for i := n - 1; i >= 0; i-- {
		sum := y[i]
		for k := i + 1; k < n; k++ {
			sum -= l[k][i] * x[k]
		}

		x[i] = sum / l[i][i]
	}

	return x
}

// ForwardSubstituteScalar solves L y = b for a right-hand side of any scalar
// type, with L plain. Prediction uses it with dual numbers so that the
// solution carries derivatives with respect to the query point.
func ForwardSubstituteScalar[S dual.Scalar[S, T], T constraints.Float](l [][]T, b []S) []S {
	y := make([]S, len(b))

	for i := range b {
		sum := b[i]
		for k := 0; k < i; k++ {
			sum = sum.Sub(y[k].MulConst(l[i][k]))
		}

		y[i] = sum.DivConst(l[i][i])
	}

	return y
}
