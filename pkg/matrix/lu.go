package matrix

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// tinyPivot replaces an exact zero pivot during LU factorization so
// that the elimination can continue; matches the 1e-20 constant used
// throughout the originating numerical kernel.
const tinyPivot = 1e-20

// LU holds the in-place permuted LU factorization of a square matrix
// together with its pivot index vector.
type LU struct {
	lu    *mat.Dense
	piv   []int
	n     int
	swaps int
}

// DecomposeLU factors the square matrix m via Gaussian elimination with
// partial (row) pivoting, returning the combined L/U storage and pivot
// vector. It refuses non-square input.
func DecomposeLU(m *mat.Dense) (*LU, error) {
	r, c := m.Dims()
	if r != c {
		return nil, fmt.Errorf("matrix: LU decomposition requires a square matrix, got %d x %d", r, c)
	}
	n := r
	a := mat.DenseCopyOf(m)
	piv := make([]int, n)
	for i := range piv {
		piv[i] = i
	}
	swaps := 0
	for k := 0; k < n; k++ {
		// partial pivot: largest magnitude in column k at or below row k
		maxRow, maxVal := k, math.Abs(a.At(k, k))
		for i := k + 1; i < n; i++ {
			if v := math.Abs(a.At(i, k)); v > maxVal {
				maxVal, maxRow = v, i
			}
		}
		if maxRow != k {
			tmp := make([]float64, n)
			for j := 0; j < n; j++ {
				tmp[j] = a.At(k, j)
			}
			for j := 0; j < n; j++ {
				a.Set(k, j, a.At(maxRow, j))
			}
			for j := 0; j < n; j++ {
				a.Set(maxRow, j, tmp[j])
			}
			piv[k], piv[maxRow] = piv[maxRow], piv[k]
			swaps++
		}
		pivot := a.At(k, k)
		if pivot == 0 {
			pivot = tinyPivot
			a.Set(k, k, pivot)
		}
		for i := k + 1; i < n; i++ {
			factor := a.At(i, k) / pivot
			a.Set(i, k, factor)
			for j := k + 1; j < n; j++ {
				a.Set(i, j, a.At(i, j)-factor*a.At(k, j))
			}
		}
	}
	return &LU{lu: a, piv: piv, n: n, swaps: swaps}, nil
}

// SolveVec solves A*x = b using the stored factorization, where b is
// given in the original (unpermuted) row order.
func (f *LU) SolveVec(b []float64) ([]float64, error) {
	if len(b) != f.n {
		return nil, fmt.Errorf("matrix: LU solve expects %d entries, got %d", f.n, len(b))
	}
	y := make([]float64, f.n)
	for i := 0; i < f.n; i++ {
		y[i] = b[f.piv[i]]
	}
	// forward substitution with unit lower triangle
	for i := 0; i < f.n; i++ {
		sum := y[i]
		for j := 0; j < i; j++ {
			sum -= f.lu.At(i, j) * y[j]
		}
		y[i] = sum
	}
	// back substitution with upper triangle
	x := make([]float64, f.n)
	for i := f.n - 1; i >= 0; i-- {
		sum := y[i]
		for j := i + 1; j < f.n; j++ {
			sum -= f.lu.At(i, j) * x[j]
		}
		x[i] = sum / f.lu.At(i, i)
	}
	return x, nil
}

// Inverse computes the inverse of the original matrix by solving
// against every column of the identity.
func (f *LU) Inverse() (*mat.Dense, error) {
	inv := mat.NewDense(f.n, f.n, nil)
	for j := 0; j < f.n; j++ {
		e := make([]float64, f.n)
		e[j] = 1.0
		col, err := f.SolveVec(e)
		if err != nil {
			return nil, err
		}
		for i := 0; i < f.n; i++ {
			inv.Set(i, j, col[i])
		}
	}
	return inv, nil
}

// Determinant returns the determinant of the original matrix as the
// signed product of the diagonal of U.
func (f *LU) Determinant() float64 {
	det := 1.0
	if f.swaps%2 == 1 {
		det = -1.0
	}
	for i := 0; i < f.n; i++ {
		det *= f.lu.At(i, i)
	}
	return det
}
