package matrix

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// QR factors the n x m matrix m (n >= m) into Q (n x m, orthonormal
// columns) and R (m x m, upper triangular) via Householder reflections,
// such that Q*R equals the original matrix.
func QR(m *mat.Dense) (q, r *mat.Dense, err error) {
	n, mm := m.Dims()
	if n < mm {
		return nil, nil, fmt.Errorf("matrix: QR requires n >= m, got %d x %d", n, mm)
	}
	a := mat.DenseCopyOf(m)
	qAcc := Identity(n)

	for k := 0; k < mm; k++ {
		// build Householder vector for column k, rows k..n-1
		normX := 0.0
		for i := k; i < n; i++ {
			normX += a.At(i, k) * a.At(i, k)
		}
		normX = math.Sqrt(normX)
		if normX == 0 {
			continue
		}
		alpha := -normX
		if a.At(k, k) < 0 {
			alpha = normX
		}
		v := make([]float64, n)
		v[k] = a.At(k, k) - alpha
		for i := k + 1; i < n; i++ {
			v[i] = a.At(i, k)
		}
		vNorm := 0.0
		for i := k; i < n; i++ {
			vNorm += v[i] * v[i]
		}
		if vNorm == 0 {
			continue
		}
		// apply H = I - 2vv'/v'v to A (rows k..n-1, all columns)
		_, acols := a.Dims()
		for j := 0; j < acols; j++ {
			dot := 0.0
			for i := k; i < n; i++ {
				dot += v[i] * a.At(i, j)
			}
			coeff := 2 * dot / vNorm
			for i := k; i < n; i++ {
				a.Set(i, j, a.At(i, j)-coeff*v[i])
			}
		}
		// accumulate Q = Q * H
		for i := 0; i < n; i++ {
			dot := 0.0
			for j := k; j < n; j++ {
				dot += qAcc.At(i, j) * v[j]
			}
			coeff := 2 * dot / vNorm
			for j := k; j < n; j++ {
				qAcc.Set(i, j, qAcc.At(i, j)-coeff*v[j])
			}
		}
	}

	q = mat.NewDense(n, mm, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < mm; j++ {
			q.Set(i, j, qAcc.At(i, j))
		}
	}
	r = mat.NewDense(mm, mm, nil)
	for i := 0; i < mm; i++ {
		for j := 0; j < mm; j++ {
			if j >= i {
				r.Set(i, j, a.At(i, j))
			}
		}
	}
	return q, r, nil
}
