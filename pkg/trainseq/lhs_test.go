package trainseq

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSimpleSamplingColumnsArePermutations(t *testing.T) {
	assert := assert.New(t)
	rnd := rand.New(rand.NewSource(1))
	l, err := SimpleSampling(2, 4, rnd)
	assert.NoError(err)

	for j := 0; j < l.NDim; j++ {
		col := make([]int, l.NPoint)
		for i := 0; i < l.NPoint; i++ {
			col[i] = l.X[i][j]
		}
		sort.Ints(col)
		assert.Equal([]int{0, 1, 2, 3}, col)
	}
}

func TestGivenFirstSamplingForcesFirstRow(t *testing.T) {
	assert := assert.New(t)
	rnd := rand.New(rand.NewSource(2))
	l, err := GivenFirstSampling(2, 4, []int{1, 2}, rnd)
	assert.NoError(err)
	assert.Equal([]int{1, 2}, l.X[0])

	for j := 0; j < l.NDim; j++ {
		col := make([]int, l.NPoint)
		for i := 0; i < l.NPoint; i++ {
			col[i] = l.X[i][j]
		}
		sort.Ints(col)
		assert.Equal([]int{0, 1, 2, 3}, col)
	}
}

func TestQualityPhiFiniteAndPositive(t *testing.T) {
	assert := assert.New(t)
	rnd := rand.New(rand.NewSource(3))
	l, err := SimpleSampling(2, 4, rnd)
	assert.NoError(err)
	phi := l.QualityPhi(50)
	assert.Greater(phi, 0.0)
	assert.False(isInfOrNaN(phi))
}

func TestBestOfNReturnsASample(t *testing.T) {
	assert := assert.New(t)
	rnd := rand.New(rand.NewSource(4))
	best, err := BestOfN(5, 50, func() (*LHS, error) {
		return SimpleSampling(2, 5, rnd)
	})
	assert.NoError(err)
	assert.NotNil(best)
}

func isInfOrNaN(x float64) bool {
	return x != x || x > 1e300 || x < -1e300
}
