package matrix

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSolveGaussFullPivot(t *testing.T) {
	assert := assert.New(t)
	a := [][]float64{
		{2, 1, -1},
		{-3, -1, 2},
		{-2, 1, 2},
	}
	b := []float64{8, -11, -3}
	x, err := SolveGaussFullPivot(a, b)
	assert.NoError(err)
	assert.InDelta(2.0, x[0], 1e-9)
	assert.InDelta(3.0, x[1], 1e-9)
	assert.InDelta(-1.0, x[2], 1e-9)
}

func TestSolveGaussFullPivotRankDeficientConsistent(t *testing.T) {
	assert := assert.New(t)
	a := [][]float64{
		{1, 1},
		{2, 2},
	}
	b := []float64{3, 6}
	x, err := SolveGaussFullPivot(a, b)
	assert.NoError(err)
	assert.Len(x, 2)
}

func TestSolveGaussFullPivotInconsistent(t *testing.T) {
	assert := assert.New(t)
	a := [][]float64{
		{1, 1},
		{2, 2},
	}
	b := []float64{3, 100}
	_, err := SolveGaussFullPivot(a, b)
	assert.Error(err)
}

func TestSolveGaussFullPivotDimensionMismatch(t *testing.T) {
	assert := assert.New(t)
	a := [][]float64{{1, 2}, {3, 4}}
	_, err := SolveGaussFullPivot(a, []float64{1})
	assert.Error(err)
}
