package dabnet

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/CCSI-Toolset/drm/pkg/laguerre"
	"github.com/CCSI-Toolset/drm/pkg/neuralnet"
	"github.com/CCSI-Toolset/drm/pkg/simplex"
)

func identityIdentificationData(n int, rnd *rand.Rand) (inputs [][]float64, targets []float64) {
	inputs = make([][]float64, n)
	targets = make([]float64, n)
	for i := 0; i < n; i++ {
		u := rnd.Float64()*2 - 1
		inputs[i] = []float64{u}
		targets[i] = u
	}
	return inputs, targets
}

// linearTargetsFromFilterStates builds a target sequence that is an exact
// linear functional of the Laguerre filter's own state trajectory under
// inputs, replicating ProcessIdentificationDataForLaguerreTraining's own
// propagation so that (trainX, trainY) it produces is an exact,
// noise-free linear regression problem: trainY[k] == coeffs . trainX[k].
// This isolates the training+reduction pipeline's ability to drive error
// to near zero from the separate, data-dependent question of whether a
// given identification sequence's own future is predictable from its past.
func linearTargetsFromFilterStates(t *testing.T, ic InputConfig, inputs [][]float64, coeffs []float64) []float64 {
	f, err := laguerre.Build(ic.spec())
	assert.NoError(t, err)

	n := len(inputs)
	targets := make([]float64, n)
	u := make([]float64, n)
	for i, row := range inputs {
		u[i] = row[0]
	}
	assert.NoError(t, f.InitSteadyState(u[0]))
	for k := 0; k < n; k++ {
		dot := 0.0
		for j, c := range coeffs {
			dot += c * f.X[j]
		}
		targets[k] = dot
		f.Step(u[k])
	}
	return targets
}

func newSingleInputDabnet(t *testing.T) *Dabnet {
	cfg := Config{
		OutputIndex:   0,
		HiddenNeurons: 4,
		LinearHidden:  false,
		ScaleInput:    false,
		Inputs: []InputConfig{
			{Pole: 0.5, NDelay: 0, NState: 3},
		},
	}
	d, err := New(cfg)
	assert.NoError(t, err)
	return d
}

func TestBuildLaguerreFiltersSetsStateCount(t *testing.T) {
	d := newSingleInputDabnet(t)
	assert.Equal(t, 3, d.NStateLag)
	assert.Len(t, d.Laguerre, 1)
	assert.Equal(t, 3, d.Laguerre[0].N)
}

func TestProcessIdentificationDataForLaguerreTrainingPairsStateWithSameRowTarget(t *testing.T) {
	d := newSingleInputDabnet(t)
	rnd := rand.New(rand.NewSource(1))
	inputs, targets := identityIdentificationData(20, rnd)

	trainX, trainY, err := d.ProcessIdentificationDataForLaguerreTraining(inputs, targets)
	assert.NoError(t, err)
	assert.Len(t, trainX, 20)
	assert.Len(t, trainY, 20)
	for k, y := range trainY {
		assert.Len(t, y, 1)
		assert.Equal(t, targets[k], y[0])
	}
}

// TestIdentityInputDabnetReducesWithLowError exercises the identity-model
// scenario: a target sequence that is an exact linear functional of the
// Laguerre states ("identity" in the sense that the plant maps its own
// filtered input history to the output with no nonlinearity), trained
// with a single linear hidden neuron so the whole network reduces to
// that same linear map, then carried through balanced reduction and
// retrained. Average batch error should be small both before and after
// reduction.
func TestIdentityInputDabnetReducesWithLowError(t *testing.T) {
	inputCfg := InputConfig{Pole: 0.5, NDelay: 0, NState: 3}
	cfg := Config{
		HiddenNeurons: 1,
		LinearHidden:  true,
		Inputs:        []InputConfig{inputCfg},
	}
	d, err := New(cfg)
	assert.NoError(t, err)

	rnd := rand.New(rand.NewSource(7))
	inputs, _ := identityIdentificationData(80, rnd)
	targets := linearTargetsFromFilterStates(t, inputCfg, inputs, []float64{0.6, -0.3, 0.1})

	trainX, trainY, err := d.ProcessIdentificationDataForLaguerreTraining(inputs, targets)
	assert.NoError(t, err)

	trainCfg := neuralnet.DefaultTrainConfig()
	trainCfg.MaxEpochs = 3000
	trainCfg.StopError = 1e-9
	lagResult, err := d.TrainLaguerreNetwork(trainX, trainY, rnd, trainCfg)
	assert.NoError(t, err)
	assert.Less(t, lagResult.FinalMean, 1e-3)

	weights, err := d.PrepareWeightMatrices()
	assert.NoError(t, err)
	assert.Len(t, weights, 1)

	err = d.ReduceLaguerreStateSpace(weights)
	assert.NoError(t, err)
	assert.Greater(t, d.NStateRed, 0)
	assert.LessOrEqual(t, d.NStateRed, d.NStateLag)

	redX, redY, err := d.ProcessIdentificationDataForReducedModelTraining(inputs, targets)
	assert.NoError(t, err)

	redCfg := neuralnet.DefaultTrainConfig()
	redCfg.MaxEpochs = 3000
	redCfg.StopError = 1e-9
	redResult, err := d.TrainReducedNetwork(redX, redY, rnd, redCfg)
	assert.NoError(t, err)
	assert.Less(t, redResult.FinalMean, 0.1)
}

func TestPredictAdvancesFiltersAndReturnsFinite(t *testing.T) {
	d := newSingleInputDabnet(t)
	rnd := rand.New(rand.NewSource(3))
	inputs, targets := identityIdentificationData(30, rnd)
	trainX, trainY, err := d.ProcessIdentificationDataForLaguerreTraining(inputs, targets)
	assert.NoError(t, err)

	cfg := neuralnet.DefaultTrainConfig()
	cfg.MaxEpochs = 200
	_, err = d.TrainLaguerreNetwork(trainX, trainY, rnd, cfg)
	assert.NoError(t, err)

	assert.NoError(t, d.InitSteadyState(inputs[0]))
	for _, row := range inputs {
		y, err := d.Predict(row)
		assert.NoError(t, err)
		assert.False(t, math.IsNaN(y) || math.IsInf(y, 0))
	}
}

func TestPredictRejectsWrongInputLength(t *testing.T) {
	d := newSingleInputDabnet(t)
	rnd := rand.New(rand.NewSource(9))
	inputs, targets := identityIdentificationData(10, rnd)
	trainX, trainY, err := d.ProcessIdentificationDataForLaguerreTraining(inputs, targets)
	assert.NoError(t, err)
	_, err = d.TrainLaguerreNetwork(trainX, trainY, rnd, neuralnet.DefaultTrainConfig())
	assert.NoError(t, err)

	_, err = d.Predict([]float64{1, 2})
	assert.Error(t, err)
}

func TestCalcMeanAndSigmaOfReducedModelStateVariables(t *testing.T) {
	rows := [][]float64{
		{0, 2},
		{2, 4},
		{4, 6},
	}
	mean, sigma := CalcMeanAndSigmaOfReducedModelStateVariables(rows)
	assert.InDelta(t, 2.0, mean[0], 1e-9)
	assert.InDelta(t, 4.0, mean[1], 1e-9)
	assert.Greater(t, sigma[0], 0.0)
}

func TestOptimizePolesKeepsBestPoleWithinBounds(t *testing.T) {
	d := newSingleInputDabnet(t)
	rnd := rand.New(rand.NewSource(11))
	inputs, targets := identityIdentificationData(40, rnd)

	trainCfg := neuralnet.DefaultTrainConfig()
	trainCfg.MaxEpochs = 60

	result, err := d.OptimizePoles(PoleFast, inputs, targets, []float64{0.05}, []float64{0.95}, simplex.DefaultConfig(), trainCfg, rnd)
	assert.NoError(t, err)
	assert.GreaterOrEqual(t, result.Best[0], 0.05)
	assert.LessOrEqual(t, result.Best[0], 0.95)
}
