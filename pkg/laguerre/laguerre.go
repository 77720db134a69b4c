// Package laguerre builds Laguerre-basis state-space realizations and
// reduces them through balanced truncation driven by a neural network's
// trained input weights. It implements Wang's canonical realization (Zhou
// et al., 1996, p.66) of a delay chain followed by a cascade of low-pass /
// all-pass Laguerre filters, and the Gramian-Lyapunov / Cholesky / Hankel-SVD
// pipeline that reduces that realization to a smaller balanced one.
package laguerre

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/CCSI-Toolset/drm/pkg/matrix"
	"github.com/CCSI-Toolset/drm/pkg/statespace"
)

// Spec describes the parameters of one (possibly two-pole) Laguerre
// realization before it is built.
type Spec struct {
	NState  int     // total number of states
	A       float64 // 1st pole, 1 - T/tau_1
	A2      float64 // 2nd pole, 1 - T/tau_2, used only when Pole2 is true
	NDelay  int     // number of delay states shared by both poles
	NState2 int     // states allotted to the 2nd Laguerre series when Pole2
	Pole2   bool
}

// Build constructs the unbalanced SISO state-space realization described
// by spec, following Wang's canonical form: a delay chain of length NDelay,
// a cascade of NState1-NDelay low-pass/all-pass Laguerre sections at pole
// A, and, when Pole2 is set, a second independent cascade at pole A2
// appended block-diagonally (without its own delay chain).
func Build(spec Spec) (*statespace.Filter, error) {
	nstate1 := spec.NState
	if spec.Pole2 {
		nstate1 = spec.NState - spec.NState2
		if nstate1 < spec.NDelay+1 {
			return nil, fmt.Errorf("laguerre: state-space order %d is less than ndelay+1 (%d) for the 1st pole", nstate1, spec.NDelay+1)
		}
		if spec.NState2 < spec.NDelay+1 {
			return nil, fmt.Errorf("laguerre: state-space order %d is less than ndelay+1 (%d) for the 2nd pole", spec.NState2, spec.NDelay+1)
		}
	} else if spec.NState < spec.NDelay+1 {
		return nil, fmt.Errorf("laguerre: state-space order %d is less than ndelay+1 (%d)", spec.NState, spec.NDelay+1)
	}

	f := statespace.New(spec.NState)
	a := make([][]float64, spec.NState)
	for i := range a {
		a[i] = make([]float64, spec.NState)
	}
	b := make([]float64, spec.NState)
	c := make([]float64, spec.NState)

	buildCascade(a, b, c, 0, nstate1, spec.NDelay, spec.A)

	if spec.Pole2 {
		a2 := make([][]float64, spec.NState2)
		for i := range a2 {
			a2[i] = make([]float64, spec.NState2)
		}
		b2 := make([]float64, spec.NState2)
		c2 := make([]float64, spec.NState2)
		buildCascade(a2, b2, c2, 0, spec.NState2, 0, spec.A2)

		for i := 0; i < spec.NState2; i++ {
			for j := 0; j < spec.NState2; j++ {
				a[nstate1+i][nstate1+j] = a2[i][j]
			}
			b[nstate1+i] = b2[i]
			c[nstate1+i] = c2[i]
		}
	}

	for i := 0; i < spec.NState; i++ {
		for j := 0; j < spec.NState; j++ {
			f.A.Set(i, j, a[i][j])
		}
		f.B[i] = b[i]
		f.C[i] = c[i]
	}
	return f, nil
}

// buildCascade fills the nLocal x nLocal block of a (and the matching
// slices of b, c starting at offset 0) with a delay chain of length
// ndelay followed by a low-pass/all-pass Laguerre cascade at pole p, per
// Wang's realization. a, b, c must already be sized nLocal x nLocal /
// nLocal.
func buildCascade(a [][]float64, b, c []float64, offset, nLocal, ndelay int, p float64) {
	sqrtBeta := math.Sqrt(1 - p*p)

	b[0] = 1
	for i := 1; i < nLocal; i++ {
		b[i] = 0
	}

	if ndelay > 0 {
		for j := 0; j < ndelay; j++ {
			a[0][j] = 0
		}
		for i := 1; i < ndelay; i++ {
			for j := 0; j < ndelay; j++ {
				if j == i-1 {
					a[i][j] = 1
				} else {
					a[i][j] = 0
				}
			}
		}
		for j := 0; j < ndelay-1; j++ {
			c[j] = 0
		}
		c[ndelay-1] = 1
		a[ndelay][ndelay] = p
		for j := 0; j < ndelay; j++ {
			a[ndelay][j] = c[j]
		}
		c[ndelay-1] = 0
		c[ndelay] = sqrtBeta
	} else {
		a[0][0] = p
		c[0] = sqrtBeta
	}

	for i := ndelay + 1; i < nLocal; i++ {
		a[i][i] = p
		for j := 0; j < i; j++ {
			a[i][j] = sqrtBeta * c[j]
		}
		c[i] = sqrtBeta
		for j := 0; j < i; j++ {
			c[j] *= -p
		}
	}
}

// PrepareWeightMatrix normalizes a trained neural network's input-layer
// weight matrix (nneuron x nstate) by the per-state scaling factors sigma,
// producing the weight matrix the Gramian W'W uses during reduction. When
// scale is false, ppweight is copied unchanged.
func PrepareWeightMatrix(ppweight *mat.Dense, sigma []float64, scale bool) *mat.Dense {
	nneuron, nstate := ppweight.Dims()
	out := mat.NewDense(nneuron, nstate, nil)
	for i := 0; i < nneuron; i++ {
		for j := 0; j < nstate; j++ {
			v := ppweight.At(i, j)
			if scale {
				v /= sigma[j]
			}
			out.Set(i, j, v)
		}
	}
	return out
}

// ReduceBalanced reduces the unbalanced realization f using the trained
// weight matrix w (nneuron x nstate, already scaled by PrepareWeightMatrix)
// through balanced truncation: it solves the observability and
// controllability Gramians via the symmetric Lyapunov solve, Cholesky
// factors them, takes the Hankel SVD of the cross product of the factors,
// builds the balancing transform T/T^-1, and truncates at the first index
// where the Hankel singular value drops below a tenth of its predecessor.
// It returns the reduced Filter and the full, untruncated vector of Hankel
// singular values (for diagnostics).
func ReduceBalanced(f *statespace.Filter, w *mat.Dense) (*statespace.Filter, []float64, error) {
	n := f.N
	at := f.A.T()

	var wwm mat.Dense
	wwm.Mul(w.T(), w)

	bbm := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			bbm.Set(i, j, f.B[i]*f.B[j])
		}
	}

	atDense := mat.DenseCopyOf(at)

	pm, err := matrix.SolveDiscreteLyapunovByHalf(f.A, &wwm)
	if err != nil {
		return nil, nil, fmt.Errorf("laguerre: observability Gramian solve failed: %w", err)
	}
	qm, err := matrix.SolveDiscreteLyapunovByHalf(atDense, bbm)
	if err != nil {
		return nil, nil, fmt.Errorf("laguerre: controllability Gramian solve failed: %w", err)
	}

	pmc, err := matrix.Cholesky(pm)
	if err != nil {
		return nil, nil, fmt.Errorf("laguerre: observability Gramian P is not symmetric positive definite: %w", err)
	}
	qmc, err := matrix.Cholesky(qm)
	if err != nil {
		return nil, nil, fmt.Errorf("laguerre: controllability Gramian Q is not symmetric positive definite: %w", err)
	}

	var hm mat.Dense
	hm.Mul(pmc.T(), qmc)

	um, vm, sv, err := matrix.SVD(&hm)
	if err != nil {
		return nil, nil, fmt.Errorf("laguerre: Hankel SVD failed: %w", err)
	}

	// zeroAt is the index of the first zero Hankel singular value, or n
	// if none of them are zero. Dividing by sqrt(sv[i]) is only valid
	// for i < zeroAt, so the truncation index is clamped there and no
	// division is ever attempted at or past it.
	zeroAt := firstZeroIndex(sv)
	svSqrt := make([]float64, n)
	for i := 0; i < zeroAt; i++ {
		svSqrt[i] = math.Sqrt(sv[i])
	}

	// T^-1 = Qc V diag(sv^-1/2)
	var tmi mat.Dense
	tmi.Mul(qmc, vm)
	for i := 0; i < n; i++ {
		for j := 0; j < zeroAt; j++ {
			tmi.Set(i, j, tmi.At(i, j)/svSqrt[j])
		}
	}

	// T = diag(sv^-1/2) (Pc U)'
	var puT mat.Dense
	puT.Mul(pmc, um)
	tm := mat.DenseCopyOf(puT.T())
	for i := 0; i < zeroAt; i++ {
		for j := 0; j < n; j++ {
			tm.Set(i, j, tm.At(i, j)/svSqrt[i])
		}
	}

	var tmp, abm mat.Dense
	tmp.Mul(tm, f.A)
	abm.Mul(&tmp, &tmi)

	nTrunc := truncationIndex(sv, zeroAt)

	reduced := statespace.New(nTrunc)
	for i := 0; i < nTrunc; i++ {
		for j := 0; j < nTrunc; j++ {
			reduced.A.Set(i, j, abm.At(i, j))
		}
	}

	bVec := mat.NewVecDense(n, f.B)
	var tb mat.VecDense
	tb.MulVec(tm, bVec)
	for i := 0; i < nTrunc; i++ {
		reduced.B[i] = tb.AtVec(i)
	}

	cVec := mat.NewVecDense(n, f.C)
	var tic mat.VecDense
	tic.MulVec(tmi.T(), cVec)
	for i := 0; i < nTrunc; i++ {
		reduced.C[i] = tic.AtVec(i)
	}

	return reduced, sv, nil
}

// firstZeroIndex returns the index of the first zero entry in sv, or
// len(sv) if none of them are zero.
func firstZeroIndex(sv []float64) int {
	for i, s := range sv {
		if s == 0 {
			return i
		}
	}
	return len(sv)
}

// truncationIndex picks the number of states to keep in the balanced
// realization: the first index where a Hankel singular value drops
// below a tenth of its predecessor, clamped at zeroAt so that no state
// past a zero singular value is ever kept (its transform would require
// dividing by its square root).
func truncationIndex(sv []float64, zeroAt int) int {
	nTrunc := len(sv)
	for i := 1; i < len(sv); i++ {
		if sv[i]*10 < sv[i-1] {
			nTrunc = i
			break
		}
	}
	if zeroAt < nTrunc {
		nTrunc = zeroAt
	}
	return nTrunc
}
