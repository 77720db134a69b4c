package config

import (
	"io/ioutil"
	"log"
	"os"
	"path"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"gopkg.in/yaml.v3"
)

var fileName = "manifest.yml"

func dabnetManifestYAML() []byte {
	return []byte(`kind: dabnet
n_in: 1
n_out: 1
training:
  laguerre_method: rprop
  reduced_method: newton
  max_iterations: 200
  init_weight_magnitude: 1.0
outputs:
  - linear_activation: false
    pole_optimize: none
    hidden_neurons: 4
    inputs:
      - two_pole: false
        ndelay: 0
        order1: 3
        pole1: 0.5`)
}

func setup() {
	tmpPath := filepath.Join(os.TempDir(), fileName)
	if err := ioutil.WriteFile(tmpPath, dabnetManifestYAML(), 0666); err != nil {
		log.Fatal(err)
	}
}

func teardown() {
	os.Remove(filepath.Join(os.TempDir(), fileName))
}

func TestMain(m *testing.M) {
	setup()
	retCode := m.Run()
	teardown()
	os.Exit(retCode)
}

func TestNewBuildConfigParsesDabnetManifest(t *testing.T) {
	assert := assert.New(t)

	tmpPath := path.Join(os.TempDir(), fileName)
	c, err := NewBuildConfig(tmpPath)
	assert.NoError(err)
	assert.NotNil(c)
	assert.Equal("dabnet", c.Kind)
	assert.Equal(1, c.NInput)
	assert.Equal(1, c.NOutput)
	assert.Equal(MethodRPROP, c.LaguerreMethod)
	assert.Equal(MethodNewton, c.ReducedMethod)
	assert.Equal(200, c.MaxIterations)
	assert.Len(c.Outputs, 1)
	assert.Equal(4, c.Outputs[0].HiddenNeurons)
	assert.Equal(PoleOptNone, c.Outputs[0].PoleOptimize)
	assert.Len(c.Outputs[0].Inputs, 1)
	assert.Equal(3, c.Outputs[0].Inputs[0].Order1)

	// nonexistent file
	c, err = NewBuildConfig(filepath.Join(os.TempDir(), "random"))
	assert.Nil(c)
	assert.Error(err)

	// malformed YAML
	tmpfile, err := ioutil.TempFile("", "example.yml")
	assert.NoError(err)
	defer os.Remove(tmpfile.Name())
	_, err = tmpfile.Write([]byte("kind: [not, a, scalar"))
	assert.NoError(err)
	tmpfile.Close()
	c, err = NewBuildConfig(tmpfile.Name())
	assert.Nil(c)
	assert.Error(err)
}

func loadManifest(t *testing.T) Manifest {
	tmpPath := path.Join(os.TempDir(), fileName)
	data, err := ioutil.ReadFile(tmpPath)
	assert.NoError(t, err)
	var m Manifest
	assert.NoError(t, yaml.Unmarshal(data, &m))
	return m
}

func TestParseRejectsUnsupportedKind(t *testing.T) {
	assert := assert.New(t)
	m := loadManifest(t)
	m.Kind = "unsupported"
	c, err := Parse(&m)
	assert.Nil(c)
	assert.Error(err)
}

func TestParseRejectsBadDimensions(t *testing.T) {
	assert := assert.New(t)
	m := loadManifest(t)
	m.NInput = 0
	c, err := Parse(&m)
	assert.Nil(c)
	assert.Error(err)

	m = loadManifest(t)
	m.NOutput = 0
	c, err = Parse(&m)
	assert.Nil(c)
	assert.Error(err)
}

func TestParseRejectsUnsupportedTrainingMethod(t *testing.T) {
	assert := assert.New(t)
	m := loadManifest(t)
	m.Training.LaguerreMethod = "foobar"
	c, err := Parse(&m)
	assert.Nil(c)
	assert.Error(err)

	m = loadManifest(t)
	m.Training.ReducedMethod = "foobar"
	c, err = Parse(&m)
	assert.Nil(c)
	assert.Error(err)
}

func TestParseDefaultsMaxIterationsAndWeightMagnitude(t *testing.T) {
	assert := assert.New(t)
	m := loadManifest(t)
	m.Training.MaxIterations = 0
	m.Training.InitWeightMag = 0
	c, err := Parse(&m)
	assert.NoError(err)
	assert.Equal(20, c.MaxIterations)
	assert.Equal(1.0, c.InitWeightMag)
}

func TestParseRejectsMismatchedOutputCount(t *testing.T) {
	assert := assert.New(t)
	m := loadManifest(t)
	m.Outputs = nil
	c, err := Parse(&m)
	assert.Nil(c)
	assert.Error(err)
}

func TestParseRejectsMismatchedInputCount(t *testing.T) {
	assert := assert.New(t)
	m := loadManifest(t)
	m.Outputs[0].Inputs = nil
	c, err := Parse(&m)
	assert.Nil(c)
	assert.Error(err)
}

func TestParseRejectsUnsupportedPoleOptimize(t *testing.T) {
	assert := assert.New(t)
	m := loadManifest(t)
	m.Outputs[0].PoleOptimize = "foobar"
	c, err := Parse(&m)
	assert.Nil(c)
	assert.Error(err)
}

func TestParseRejectsBadOutputAndInputFields(t *testing.T) {
	assert := assert.New(t)
	m := loadManifest(t)
	m.Outputs[0].HiddenNeurons = 0
	c, err := Parse(&m)
	assert.Nil(c)
	assert.Error(err)

	m = loadManifest(t)
	m.Outputs[0].Inputs[0].Order1 = 0
	c, err = Parse(&m)
	assert.Nil(c)
	assert.Error(err)

	m = loadManifest(t)
	m.Outputs[0].Inputs[0].TwoPole = true
	m.Outputs[0].Inputs[0].Order2 = 0
	c, err = Parse(&m)
	assert.Nil(c)
	assert.Error(err)
}

func TestParseNarmaManifest(t *testing.T) {
	assert := assert.New(t)
	m := Manifest{Kind: "narma", NInput: 2, NOutput: 1}
	m.Training.LaguerreMethod = "rprop"
	m.Training.ReducedMethod = "rprop"
	m.Narma.NHistory = 3
	m.Narma.HiddenNeurons = 5
	c, err := Parse(&m)
	assert.NoError(err)
	assert.Equal(3, c.NarmaHistory)
	assert.Equal(5, c.NarmaHiddenNeurons)

	m.Narma.NHistory = 0
	c, err = Parse(&m)
	assert.Nil(c)
	assert.Error(err)
}
