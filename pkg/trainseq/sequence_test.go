package trainseq

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAssembleSequenceLength(t *testing.T) {
	assert := assert.New(t)
	spec := Spec{
		Dims: []DimSpec{
			{Lower: 0, Upper: 1, Default: 0.5, Varied: true},
		},
		PointsPerDuration: 3,
		Durations:         1,
		StepCounts:        []int{2},
		InitSteps:         5,
		BestOfN:           1,
		QualityP:          50,
		Reverse:           true,
	}
	rnd := rand.New(rand.NewSource(1))
	seq, err := Assemble(spec, rnd)
	assert.NoError(err)
	assert.Len(seq, 12)
}

func TestAssembleRequiresVariedDimension(t *testing.T) {
	assert := assert.New(t)
	spec := Spec{
		Dims:              []DimSpec{{Lower: 0, Upper: 1, Default: 0, Varied: false}},
		PointsPerDuration: 3,
		Durations:         1,
		StepCounts:        []int{1},
	}
	rnd := rand.New(rand.NewSource(1))
	_, err := Assemble(spec, rnd)
	assert.Error(err)
}

func TestAssembleRejectsStepCountMismatch(t *testing.T) {
	assert := assert.New(t)
	spec := Spec{
		Dims:              []DimSpec{{Lower: 0, Upper: 1, Default: 0, Varied: true}},
		PointsPerDuration: 3,
		Durations:         2,
		StepCounts:        []int{1},
	}
	rnd := rand.New(rand.NewSource(1))
	_, err := Assemble(spec, rnd)
	assert.Error(err)
}

func TestAssembleChainsDurations(t *testing.T) {
	assert := assert.New(t)
	spec := Spec{
		Dims: []DimSpec{
			{Lower: 0, Upper: 10, Default: 5, Varied: true},
			{Lower: -1, Upper: 1, Default: 0, Varied: true},
		},
		PointsPerDuration: 4,
		Durations:         3,
		StepCounts:        []int{1, 1, 1},
		InitSteps:         1,
		BestOfN:           2,
		QualityP:          50,
	}
	rnd := rand.New(rand.NewSource(42))
	seq, err := Assemble(spec, rnd)
	assert.NoError(err)
	assert.NotEmpty(seq)
	for _, row := range seq {
		assert.Len(row, 2)
		assert.GreaterOrEqual(row[0], 0.0)
		assert.LessOrEqual(row[0], 10.0)
	}
}
