package drm

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/CCSI-Toolset/drm/pkg/dabnet"
	"github.com/CCSI-Toolset/drm/pkg/dataset"
	"github.com/CCSI-Toolset/drm/pkg/narma"
)

func identificationRows(n int, rnd *rand.Rand) [][]float64 {
	rows := make([][]float64, n)
	for i := range rows {
		u := rnd.Float64()*2 - 1
		rows[i] = []float64{u, u * 0.5}
	}
	return rows
}

func smallDabnetConfig() Config {
	return Config{
		Kind:    ModelDabnet,
		NInput:  1,
		NOutput: 1,
		Outputs: []OutputBuild{
			{
				Dabnet: dabnet.Config{
					HiddenNeurons: 2,
					Inputs: []dabnet.InputConfig{
						{Pole: 0.5, NDelay: 0, NState: 3},
					},
				},
				PoleOpt: PoleOptNone,
			},
		},
		MaxIterations: 50,
	}
}

func TestNewRejectsDimensionMismatch(t *testing.T) {
	assert := assert.New(t)
	rnd := rand.New(rand.NewSource(1))
	rows := identificationRows(20, rnd)
	d, err := dataset.New(1, 1, rows)
	assert.NoError(err)

	cfg := smallDabnetConfig()
	cfg.NInput = 2
	_, err = New(cfg, d)
	assert.Error(err)
}

func TestNewRejectsWrongOutputCount(t *testing.T) {
	assert := assert.New(t)
	rnd := rand.New(rand.NewSource(1))
	rows := identificationRows(20, rnd)
	d, err := dataset.New(1, 1, rows)
	assert.NoError(err)

	cfg := smallDabnetConfig()
	cfg.Outputs = nil
	_, err = New(cfg, d)
	assert.Error(err)
}

func TestGenerateDabnetBuildsReducedModelsAndStateStats(t *testing.T) {
	assert := assert.New(t)
	rnd := rand.New(rand.NewSource(42))
	rows := identificationRows(40, rnd)
	d, err := dataset.New(1, 1, rows)
	assert.NoError(err)

	m, err := New(smallDabnetConfig(), d)
	assert.NoError(err)

	assert.NoError(m.Generate(rnd))
	assert.Len(m.Dabnets, 1)
	assert.NotNil(m.Dabnets[0].Reduced)
	assert.NotNil(m.Dabnets[0].RedNet)
	assert.Len(m.MeanStateRed, m.Dabnets[0].NStateRed)
	assert.Len(m.SigmaStateRed, m.Dabnets[0].NStateRed)

	var buf strings.Builder
	assert.NoError(m.Export(&buf))
	out := buf.String()
	assert.Contains(out, "number of input variables")
	assert.Contains(out, "DABNet model for output 1")
	assert.Contains(out, "hidden layer weights")
}

func TestGenerateDabnetWithPoleOptimization(t *testing.T) {
	assert := assert.New(t)
	rnd := rand.New(rand.NewSource(5))
	rows := identificationRows(40, rnd)
	d, err := dataset.New(1, 1, rows)
	assert.NoError(err)

	cfg := smallDabnetConfig()
	cfg.Outputs[0].PoleOpt = PoleOptFast
	cfg.Outputs[0].PoleMin = []float64{0.05}
	cfg.Outputs[0].PoleMax = []float64{0.95}
	cfg.MaxIterations = 10

	m, err := New(cfg, d)
	assert.NoError(err)
	assert.NoError(m.Generate(rnd))
	assert.NotNil(m.Dabnets[0].Reduced)
}

func TestGenerateNarma(t *testing.T) {
	assert := assert.New(t)
	rnd := rand.New(rand.NewSource(3))
	rows := identificationRows(30, rnd)
	d, err := dataset.New(1, 1, rows)
	assert.NoError(err)

	cfg := Config{
		Kind:    ModelNarma,
		NInput:  1,
		NOutput: 1,
		Narma: narma.Config{
			NInput:        1,
			NOutput:       1,
			NHistory:      2,
			HiddenNeurons: 3,
		},
		MaxIterations: 50,
	}
	m, err := New(cfg, d)
	assert.NoError(err)
	assert.NoError(m.Generate(rnd))
	assert.NotNil(m.Narma)
	assert.NotNil(m.Narma.Net)

	var buf strings.Builder
	assert.NoError(m.Export(&buf))
	assert.Contains(buf.String(), "NARMA network")
}
