// Package statespace implements the single-input, single-output linear
// state-space filter shared by the Laguerre realizations and the reduced
// balanced realizations: x(k+1) = A x(k) + B u(k), y(k) = C' x(k).
package statespace

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/CCSI-Toolset/drm/pkg/matrix"
)

// Filter holds the (A, B, C) triple of a SISO discrete state-space
// system together with its current state vector x.
type Filter struct {
	N int // number of states
	A *mat.Dense
	B []float64
	C []float64
	X []float64
}

// New allocates a Filter with n states. A is n x n, B and C are length n.
// The state vector starts at zero; call InitSteadyState or Reset to
// seed it before stepping.
func New(n int) *Filter {
	return &Filter{
		N: n,
		A: mat.NewDense(n, n, nil),
		B: make([]float64, n),
		C: make([]float64, n),
		X: make([]float64, n),
	}
}

// Reset zeroes the state vector.
func (f *Filter) Reset() {
	for i := range f.X {
		f.X[i] = 0
	}
}

// InitSteadyState seeds the state vector to the steady state the filter
// would reach under a constant input u, by solving (A - I) x = -B u with
// full-pivoting Gaussian elimination. When 1 is an eigenvalue of A,
// (A - I) is singular: an inconsistent system returns an error, and a
// consistent one yields a solution with its undetermined components zero.
func (f *Filter) InitSteadyState(u float64) error {
	n := f.N
	m := make([][]float64, n)
	for i := 0; i < n; i++ {
		m[i] = make([]float64, n)
		for j := 0; j < n; j++ {
			m[i][j] = f.A.At(i, j)
		}
		m[i][i] -= 1
	}
	rhs := make([]float64, n)
	for i := 0; i < n; i++ {
		rhs[i] = -u * f.B[i]
	}
	x, err := matrix.SolveGaussFullPivot(m, rhs)
	if err != nil {
		return fmt.Errorf("statespace: steady-state init failed: %w", err)
	}
	copy(f.X, x)
	return nil
}

// Step advances the state vector by one sample given input u: x <- Ax + Bu.
func (f *Filter) Step(u float64) {
	n := f.N
	next := make([]float64, n)
	for i := 0; i < n; i++ {
		sum := 0.0
		for j := 0; j < n; j++ {
			sum += f.A.At(i, j) * f.X[j]
		}
		next[i] = sum + u*f.B[i]
	}
	copy(f.X, next)
}

// Output computes y = C' x at the current state.
func (f *Filter) Output() float64 {
	y := 0.0
	for i := 0; i < f.N; i++ {
		y += f.C[i] * f.X[i]
	}
	return y
}

// StateCopy returns a defensive copy of the current state vector.
func (f *Filter) StateCopy() []float64 {
	out := make([]float64, f.N)
	copy(out, f.X)
	return out
}
