package matrix

import (
	"fmt"
	"math"
)

// residualThreshold governs the rank detection used by full-pivoting
// Gaussian elimination: a pivot row whose remaining entries are all
// below this magnitude is treated as structurally zero.
const residualThreshold = 1e-12

// SolveGaussFullPivot solves A*x = b by Gaussian elimination with full
// (row and column) pivoting, tolerating rank-deficient A: any
// under-determined rows are left at zero in x. It returns a non-nil
// error only when a pivot row with non-negligible residual cannot be
// eliminated (a genuine inconsistency), matching the "nonzero status"
// contract of the rest of the kernel.
func SolveGaussFullPivot(a [][]float64, b []float64) ([]float64, error) {
	n := len(a)
	if n == 0 {
		return nil, fmt.Errorf("matrix: gauss solve requires a non-empty system")
	}
	for _, row := range a {
		if len(row) != n {
			return nil, fmt.Errorf("matrix: gauss solve requires a square coefficient matrix")
		}
	}
	if len(b) != n {
		return nil, fmt.Errorf("matrix: gauss solve rhs length %d does not match system size %d", len(b), n)
	}

	// work on a local copy
	m := make([][]float64, n)
	for i := range a {
		m[i] = append([]float64(nil), a[i]...)
	}
	rhs := append([]float64(nil), b...)
	colOrder := make([]int, n)
	for i := range colOrder {
		colOrder[i] = i
	}

	rank := 0
	for k := 0; k < n; k++ {
		// find largest magnitude pivot in the remaining submatrix
		maxVal, pr, pc := 0.0, -1, -1
		for i := k; i < n; i++ {
			for j := k; j < n; j++ {
				if v := math.Abs(m[i][j]); v > maxVal {
					maxVal, pr, pc = v, i, j
				}
			}
		}
		if maxVal <= residualThreshold {
			// remaining rows are structurally zero: check consistency
			for i := k; i < n; i++ {
				if math.Abs(rhs[i]) > residualThreshold {
					return nil, fmt.Errorf("matrix: gauss solve detected an inconsistent rank-deficient system at row %d", i)
				}
			}
			break
		}
		rank = k + 1
		if pr != k {
			m[k], m[pr] = m[pr], m[k]
			rhs[k], rhs[pr] = rhs[pr], rhs[k]
		}
		if pc != k {
			for i := 0; i < n; i++ {
				m[i][k], m[i][pc] = m[i][pc], m[i][k]
			}
			colOrder[k], colOrder[pc] = colOrder[pc], colOrder[k]
		}
		pivot := m[k][k]
		for i := k + 1; i < n; i++ {
			factor := m[i][k] / pivot
			if factor == 0 {
				continue
			}
			for j := k; j < n; j++ {
				m[i][j] -= factor * m[k][j]
			}
			rhs[i] -= factor * rhs[k]
		}
	}
	_ = rank

	xOrdered := make([]float64, n)
	for i := n - 1; i >= 0; i-- {
		if math.Abs(m[i][i]) <= residualThreshold {
			xOrdered[i] = 0
			continue
		}
		sum := rhs[i]
		for j := i + 1; j < n; j++ {
			sum -= m[i][j] * xOrdered[j]
		}
		xOrdered[i] = sum / m[i][i]
	}

	x := make([]float64, n)
	for i := 0; i < n; i++ {
		x[colOrder[i]] = xOrdered[i]
	}
	return x, nil
}
