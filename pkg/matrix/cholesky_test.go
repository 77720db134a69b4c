package matrix

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/mat"
)

func TestCholeskyReconstructs(t *testing.T) {
	assert := assert.New(t)
	m := mat.NewDense(3, 3, []float64{
		4, 12, -16,
		12, 37, -43,
		-16, -43, 98,
	})
	l, err := Cholesky(m)
	assert.NoError(err)

	var recon mat.Dense
	recon.Mul(l, l.T())
	diff := new(mat.Dense)
	diff.Sub(&recon, m)
	ratio := FrobeniusNorm(diff) / FrobeniusNorm(m)
	assert.Less(ratio, 1e-9)
}

func TestCholeskyNotPositiveDefinite(t *testing.T) {
	assert := assert.New(t)
	m := mat.NewDense(2, 2, []float64{1, 2, 2, 1})
	_, err := Cholesky(m)
	assert.Error(err)
}

func TestCholeskyNonSquare(t *testing.T) {
	assert := assert.New(t)
	m := mat.NewDense(2, 3, make([]float64, 6))
	_, err := Cholesky(m)
	assert.Error(err)
}
