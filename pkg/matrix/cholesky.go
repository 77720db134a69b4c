package matrix

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Cholesky factors the symmetric positive-definite matrix m into a
// lower-triangular L such that L*L' = m. It returns an error, rather
// than a result, when any diagonal square is non-positive: callers
// must treat that as a signal that m was not SPD, not a bug in the
// factorization itself.
func Cholesky(m *mat.Dense) (*mat.Dense, error) {
	r, c := m.Dims()
	if r != c {
		return nil, fmt.Errorf("matrix: cholesky requires a square matrix, got %d x %d", r, c)
	}
	n := r
	l := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j <= i; j++ {
			sum := m.At(i, j)
			for k := 0; k < j; k++ {
				sum -= l.At(i, k) * l.At(j, k)
			}
			if i == j {
				if sum <= 0 {
					return nil, fmt.Errorf("matrix: cholesky failed, matrix is not positive definite at diagonal %d (value %g)", i, sum)
				}
				l.Set(i, i, math.Sqrt(sum))
			} else {
				l.Set(i, j, sum/l.At(j, j))
			}
		}
	}
	return l, nil
}
