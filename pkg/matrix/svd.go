package matrix

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// SVD computes the singular value decomposition of the n x m matrix m
// (n >= m): U (n x m), V (m x m) and singular values sigma in
// non-increasing order, such that m = U * diag(sigma) * V'. It follows
// the classic LINPACK/JAMA golub-reinsch bidiagonalization followed by
// an implicit-shift QR sweep over the bidiagonal form, with the four
// standard cases (deflate negligible s[p-1], split at negligible s[k-1],
// QR step, convergence).
func SVD(a *mat.Dense) (u, v *mat.Dense, sigma []float64, err error) {
	n, mcols := a.Dims()
	if n < mcols {
		return nil, nil, nil, fmt.Errorf("matrix: SVD requires n >= m, got %d x %d", n, mcols)
	}
	m := mcols
	u = mat.DenseCopyOf(a)
	v = mat.NewDense(m, m, nil)
	s := make([]float64, m+1)
	e := make([]float64, m+1)
	work := make([]float64, n)

	nct := min(n-1, m)
	nrt := max(0, min(m-2, n))

	// Householder reduction to bidiagonal form
	for k := 0; k < max(nct, nrt); k++ {
		if k < nct {
			s[k] = 0
			for i := k; i < n; i++ {
				s[k] = math.Hypot(s[k], u.At(i, k))
			}
			if s[k] != 0 {
				if u.At(k, k) < 0 {
					s[k] = -s[k]
				}
				for i := k; i < n; i++ {
					u.Set(i, k, u.At(i, k)/s[k])
				}
				u.Set(k, k, u.At(k, k)+1)
			}
			s[k] = -s[k]
		}
		for j := k + 1; j < m; j++ {
			if k < nct && s[k] != 0 {
				t := 0.0
				for i := k; i < n; i++ {
					t += u.At(i, k) * u.At(i, j)
				}
				t = -t / u.At(k, k)
				for i := k; i < n; i++ {
					u.Set(i, j, u.At(i, j)+t*u.At(i, k))
				}
			}
			e[j] = u.At(k, j)
		}
		if k < nrt {
			e[k] = 0
			for i := k + 1; i < m; i++ {
				e[k] = math.Hypot(e[k], e[i])
			}
			if e[k] != 0 {
				if e[k+1] < 0 {
					e[k] = -e[k]
				}
				for i := k + 1; i < m; i++ {
					e[i] /= e[k]
				}
				e[k+1] += 1
			}
			e[k] = -e[k]
			if k+1 < n && e[k] != 0 {
				for i := k + 1; i < n; i++ {
					work[i] = 0
				}
				for j := k + 1; j < m; j++ {
					for i := k + 1; i < n; i++ {
						work[i] += e[j] * u.At(i, j)
					}
				}
				for j := k + 1; j < m; j++ {
					t := -e[j] / e[k+1]
					for i := k + 1; i < n; i++ {
						u.Set(i, j, u.At(i, j)+t*work[i])
					}
				}
			}
			for i := k + 1; i < m; i++ {
				v.Set(i, k, e[i])
			}
		}
	}

	p := min(m, n+1)
	if nct < m {
		s[nct] = u.At(nct, nct)
	}
	if n < p {
		s[p-1] = 0
	}
	if nrt+1 < p {
		e[nrt] = u.At(nrt, p-1)
	}
	e[p-1] = 0

	// accumulate V
	for k := m - 1; k >= 0; k-- {
		if k < nrt && e[k] != 0 {
			for j := k + 1; j < m; j++ {
				t := 0.0
				for i := k + 1; i < m; i++ {
					t += v.At(i, k) * v.At(i, j)
				}
				t = -t / v.At(k+1, k)
				for i := k + 1; i < m; i++ {
					v.Set(i, j, v.At(i, j)+t*v.At(i, k))
				}
			}
		}
		for i := 0; i < m; i++ {
			v.Set(i, k, 0)
		}
		v.Set(k, k, 1)
	}

	// accumulate U
	for k := m - 1; k >= 0; k-- {
		if k < nct && s[k] != 0 {
			for j := k + 1; j < m; j++ {
				t := 0.0
				for i := k; i < n; i++ {
					t += u.At(i, k) * u.At(i, j)
				}
				t = -t / u.At(k, k)
				for i := k; i < n; i++ {
					u.Set(i, j, u.At(i, j)+t*u.At(i, k))
				}
			}
			for i := k; i < n; i++ {
				u.Set(i, k, -u.At(i, k))
			}
			u.Set(k, k, 1+u.At(k, k))
			for i := 0; i < k-1; i++ {
				u.Set(i, k, 0)
			}
		} else {
			for i := 0; i < n; i++ {
				u.Set(i, k, 0)
			}
			u.Set(k, k, 1)
		}
	}

	// main implicit-shift QR loop over the bidiagonal form
	pp := p - 1
	eps := 2.220446049250313e-16
	iter := 0
	for p > 0 {
		var k, kase int
		for k = p - 2; k >= -1; k-- {
			if k == -1 {
				break
			}
			if math.Abs(e[k]) <= eps*(math.Abs(s[k])+math.Abs(s[k+1])) {
				e[k] = 0
				break
			}
		}
		if k == p-2 {
			kase = 4
		} else {
			var ks int
			for ks = p - 1; ks >= k; ks-- {
				if ks == k {
					break
				}
				t := 0.0
				if ks != p {
					t += math.Abs(e[ks])
				}
				if ks != k+1 {
					t += math.Abs(e[ks-1])
				}
				if math.Abs(s[ks]) <= eps*t {
					s[ks] = 0
					break
				}
			}
			switch {
			case ks == k:
				kase = 3
			case ks == p-1:
				kase = 1
			default:
				kase = 2
				k = ks
			}
		}
		k++

		switch kase {
		case 1: // deflate negligible s[p-1]: chase e[p-2] out
			f := e[p-2]
			e[p-2] = 0
			for j := p - 2; j >= k; j-- {
				t := math.Hypot(s[j], f)
				cs := s[j] / t
				sn := f / t
				s[j] = t
				if j != k {
					f = -sn * e[j-1]
					e[j-1] = cs * e[j-1]
				}
				for i := 0; i < m; i++ {
					t = cs*v.At(i, j) + sn*v.At(i, p-1)
					v.Set(i, p-1, -sn*v.At(i, j)+cs*v.At(i, p-1))
					v.Set(i, j, t)
				}
			}
		case 2: // split at negligible diagonal s[k-1]
			f := e[k-1]
			e[k-1] = 0
			for j := k; j < p; j++ {
				t := math.Hypot(s[j], f)
				cs := s[j] / t
				sn := f / t
				s[j] = t
				f = -sn * e[j]
				e[j] = cs * e[j]
				for i := 0; i < n; i++ {
					t = cs*u.At(i, j) + sn*u.At(i, k-1)
					u.Set(i, k-1, -sn*u.At(i, j)+cs*u.At(i, k-1))
					u.Set(i, j, t)
				}
			}
		case 3: // implicit-shift QR step
			scale := math.Max(math.Max(math.Max(math.Max(
				math.Abs(s[p-1]), math.Abs(s[p-2])), math.Abs(e[p-2])),
				math.Abs(s[k])), math.Abs(e[k]))
			sp := s[p-1] / scale
			spm1 := s[p-2] / scale
			epm1 := e[p-2] / scale
			sk := s[k] / scale
			ek := e[k] / scale
			b := ((spm1+sp)*(spm1-sp) + epm1*epm1) / 2
			c := (sp * epm1) * (sp * epm1)
			shift := 0.0
			if b != 0 || c != 0 {
				shift = math.Sqrt(b*b + c)
				if b < 0 {
					shift = -shift
				}
				shift = c / (b + shift)
			}
			f := (sk+sp)*(sk-sp) + shift
			g := sk * ek
			for j := k; j < p-1; j++ {
				t := math.Hypot(f, g)
				cs := f / t
				sn := g / t
				if j != k {
					e[j-1] = t
				}
				f = cs*s[j] + sn*e[j]
				e[j] = cs*e[j] - sn*s[j]
				g = sn * s[j+1]
				s[j+1] = cs * s[j+1]
				for i := 0; i < m; i++ {
					t = cs*v.At(i, j) + sn*v.At(i, j+1)
					v.Set(i, j+1, -sn*v.At(i, j)+cs*v.At(i, j+1))
					v.Set(i, j, t)
				}
				t = math.Hypot(f, g)
				cs = f / t
				sn = g / t
				s[j] = t
				f = cs*e[j] + sn*s[j+1]
				s[j+1] = -sn*e[j] + cs*s[j+1]
				g = sn * e[j+1]
				e[j+1] = cs * e[j+1]
				if j < n-1 {
					for i := 0; i < n; i++ {
						t = cs*u.At(i, j) + sn*u.At(i, j+1)
						u.Set(i, j+1, -sn*u.At(i, j)+cs*u.At(i, j+1))
						u.Set(i, j, t)
					}
				}
			}
			e[p-2] = f
			iter++
		case 4: // converged: make singular value positive, order it
			if s[k] <= 0 {
				if s[k] < 0 {
					s[k] = -s[k]
				} else {
					s[k] = 0
				}
				for i := 0; i <= pp; i++ {
					v.Set(i, k, -v.At(i, k))
				}
			}
			// bubble the newly converged value into descending order
			for k < pp && s[k] < s[k+1] {
				t := s[k]
				s[k] = s[k+1]
				s[k+1] = t
				if k < m-1 {
					for i := 0; i < m; i++ {
						t2 := v.At(i, k)
						v.Set(i, k, v.At(i, k+1))
						v.Set(i, k+1, t2)
					}
				}
				if k < n-1 {
					for i := 0; i < n; i++ {
						t2 := u.At(i, k)
						u.Set(i, k, u.At(i, k+1))
						u.Set(i, k+1, t2)
					}
				}
				k++
			}
			iter = 0
			p--
		}
	}

	sigma = make([]float64, m)
	copy(sigma, s[:m])
	return u, v, sigma, nil
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
