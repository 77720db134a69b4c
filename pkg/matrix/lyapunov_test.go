package matrix

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/mat"
)

func TestSolveDiscreteLyapunovByHalf(t *testing.T) {
	assert := assert.New(t)
	a := mat.NewDense(2, 2, []float64{0.5, 0.1, 0.0, 0.3})
	b := mat.NewDense(2, 2, []float64{1, 0, 0, 1})

	x, err := SolveDiscreteLyapunovByHalf(a, b)
	assert.NoError(err)

	// residual X - A'XA - B
	var atx, atxa mat.Dense
	atx.Mul(a.T(), x)
	atxa.Mul(&atx, a)
	resid := new(mat.Dense)
	resid.Sub(x, &atxa)
	resid.Sub(resid, b)
	ratio := FrobeniusNorm(resid) / FrobeniusNorm(b)
	assert.Less(ratio, 1e-8)
}

func TestSolveDiscreteLyapunovFullMatchesByHalf(t *testing.T) {
	assert := assert.New(t)
	a := mat.NewDense(2, 2, []float64{0.2, 0.0, 0.05, 0.4})
	b := mat.NewDense(2, 2, []float64{2, 0.5, 0.5, 3})

	xFull, err := SolveDiscreteLyapunovFull(a, b)
	assert.NoError(err)
	xHalf, err := SolveDiscreteLyapunovByHalf(a, b)
	assert.NoError(err)

	assert.True(mat.EqualApprox(xFull, xHalf, 1e-6))
}

func TestSolveDiscreteLyapunovDimensionMismatch(t *testing.T) {
	assert := assert.New(t)
	a := mat.NewDense(2, 2, nil)
	b := mat.NewDense(3, 3, nil)
	_, err := SolveDiscreteLyapunovByHalf(a, b)
	assert.Error(err)
}
