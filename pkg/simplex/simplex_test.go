package simplex

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOptimizeFindsQuadraticMinimum(t *testing.T) {
	assert := assert.New(t)
	obj := func(p []float64) float64 {
		dx := p[0] - 2.0
		dy := p[1] + 1.0
		return dx*dx + dy*dy
	}
	s, err := New(2, obj, []float64{-10, -10}, []float64{10, 10}, DefaultConfig())
	assert.NoError(err)
	assert.NoError(s.Init([]float64{0, 0}, []float64{1, 1}))

	result, err := s.Optimize()
	assert.NoError(err)
	assert.InDelta(2.0, result.Best[0], 1e-2)
	assert.InDelta(-1.0, result.Best[1], 1e-2)
	assert.Less(result.BestValue, 1e-3)
}

func TestOptimizeRespectsBounds(t *testing.T) {
	assert := assert.New(t)
	obj := func(p []float64) float64 {
		dx := p[0] - 100.0
		return dx * dx
	}
	s, err := New(1, obj, []float64{0}, []float64{5}, DefaultConfig())
	assert.NoError(err)
	assert.NoError(s.Init([]float64{1}, []float64{1}))

	result, err := s.Optimize()
	assert.NoError(err)
	assert.LessOrEqual(result.Best[0], 5.0)
	assert.GreaterOrEqual(result.Best[0], 0.0)
}

func TestNewRejectsBadDimensions(t *testing.T) {
	assert := assert.New(t)
	_, err := New(0, func([]float64) float64 { return 0 }, nil, nil, DefaultConfig())
	assert.Error(err)

	_, err = New(2, func([]float64) float64 { return 0 }, []float64{0}, []float64{1, 1}, DefaultConfig())
	assert.Error(err)
}

func TestOptimizeRequiresInit(t *testing.T) {
	assert := assert.New(t)
	s, err := New(1, func(p []float64) float64 { return p[0] * p[0] }, []float64{-1}, []float64{1}, DefaultConfig())
	assert.NoError(err)
	_, err = s.Optimize()
	assert.Error(err)
}
