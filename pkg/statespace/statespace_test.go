package statespace

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInitSteadyStateMatchesFixedPoint(t *testing.T) {
	assert := assert.New(t)
	f := New(2)
	f.A.Set(0, 0, 0.5)
	f.A.Set(0, 1, 0.1)
	f.A.Set(1, 0, 0.0)
	f.A.Set(1, 1, 0.3)
	f.B[0] = 1.0
	f.B[1] = 0.5
	f.C[0] = 1.0
	f.C[1] = 1.0

	assert.NoError(f.InitSteadyState(2.0))
	before := f.StateCopy()

	f.Step(2.0)
	after := f.StateCopy()

	assert.InDelta(before[0], after[0], 1e-9)
	assert.InDelta(before[1], after[1], 1e-9)
}

func TestStepAndOutput(t *testing.T) {
	assert := assert.New(t)
	f := New(1)
	f.A.Set(0, 0, 0.0)
	f.B[0] = 1.0
	f.C[0] = 2.0

	f.Reset()
	f.Step(3.0) // x = 0*0 + 3 = 3
	assert.InDelta(6.0, f.Output(), 1e-12)

	f.Step(1.0) // x = 0*3 + 1 = 1
	assert.InDelta(2.0, f.Output(), 1e-12)
}

func TestReset(t *testing.T) {
	assert := assert.New(t)
	f := New(2)
	f.X[0] = 5
	f.X[1] = -3
	f.Reset()
	assert.Equal([]float64{0, 0}, f.X)
}
