// Package config parses the YAML build manifest that describes a D-RM
// build: model kind, per-output and per-(output,input) DABNet options,
// or NARMA options, and the training method selection, generalized from
// the teacher's classifier-network manifest to this domain.
package config

import (
	"fmt"
	"io/ioutil"
	"os"

	"gopkg.in/yaml.v3"
)

// Manifest is the YAML-decoded form of a D-RM build configuration.
type Manifest struct {
	// Kind selects the model family: "dabnet" or "narma".
	Kind    string `yaml:"kind"`
	NInput  int    `yaml:"n_in"`
	NOutput int    `yaml:"n_out"`

	Training struct {
		// LaguerreMethod and ReducedMethod select "rprop" or "newton".
		LaguerreMethod string  `yaml:"laguerre_method"`
		ReducedMethod  string  `yaml:"reduced_method"`
		MaxIterations  int     `yaml:"max_iterations"`
		InitWeightMag  float64 `yaml:"init_weight_magnitude"`
	} `yaml:"training"`

	// Narma holds NARMA-only options; ignored when Kind is "dabnet".
	Narma struct {
		NHistory      int `yaml:"nhistory"`
		HiddenNeurons int `yaml:"hidden_neurons"`
	} `yaml:"narma,omitempty"`

	// Outputs holds one entry per output variable; ignored when Kind is "narma".
	Outputs []OutputManifest `yaml:"outputs,omitempty"`
}

// OutputManifest configures one DABNet output model.
type OutputManifest struct {
	LinearActivation bool   `yaml:"linear_activation"`
	PoleOptimize     string `yaml:"pole_optimize"` // "none", "fast", "slow", "both"
	HiddenNeurons    int    `yaml:"hidden_neurons"`
	Inputs           []InputManifest `yaml:"inputs"`
}

// InputManifest configures one (output,input) Laguerre filter.
type InputManifest struct {
	TwoPole bool    `yaml:"two_pole"`
	NDelay  int     `yaml:"ndelay"`
	Order1  int     `yaml:"order1"`
	Order2  int     `yaml:"order2"`
	Pole1   float64 `yaml:"pole1"`
	Pole2   float64 `yaml:"pole2"`
}

// TrainMethod selects the optimizer driving one network's training.
type TrainMethod int

const (
	MethodRPROP TrainMethod = iota
	MethodNewton
)

// PoleOptMode selects which pole families, if any, are optimized before
// an output's Laguerre training.
type PoleOptMode int

const (
	PoleOptNone PoleOptMode = iota
	PoleOptFast
	PoleOptSlow
	PoleOptBoth
)

var trainMethods = map[string]TrainMethod{
	"rprop":  MethodRPROP,
	"newton": MethodNewton,
}

var poleOptModes = map[string]PoleOptMode{
	"none": PoleOptNone,
	"fast": PoleOptFast,
	"slow": PoleOptSlow,
	"both": PoleOptBoth,
}

// InputConfig is the resolved, validated form of InputManifest.
type InputConfig struct {
	TwoPole bool
	NDelay  int
	Order1  int
	Order2  int
	Pole1   float64
	Pole2   float64
}

// OutputConfig is the resolved, validated form of OutputManifest.
type OutputConfig struct {
	LinearActivation bool
	PoleOptimize     PoleOptMode
	HiddenNeurons    int
	Inputs           []InputConfig
}

// BuildConfig is the resolved, validated D-RM build configuration.
type BuildConfig struct {
	Kind    string
	NInput  int
	NOutput int

	LaguerreMethod TrainMethod
	ReducedMethod  TrainMethod
	MaxIterations  int
	InitWeightMag  float64

	Outputs []OutputConfig // Kind == "dabnet"

	NarmaHistory      int // Kind == "narma"
	NarmaHiddenNeurons int
}

// NewBuildConfig reads and parses the YAML manifest at manPath.
func NewBuildConfig(manPath string) (*BuildConfig, error) {
	f, err := os.Open(manPath)
	if err != nil {
		return nil, fmt.Errorf("config: could not open manifest file: %w", err)
	}
	defer f.Close()
	mData, err := ioutil.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("config: could not read manifest file: %w", err)
	}
	var m Manifest
	if err := yaml.Unmarshal(mData, &m); err != nil {
		return nil, fmt.Errorf("config: could not decode manifest file: %w", err)
	}
	return Parse(&m)
}

// Parse validates m and resolves it into a BuildConfig.
func Parse(m *Manifest) (*BuildConfig, error) {
	if m.Kind != "dabnet" && m.Kind != "narma" {
		return nil, fmt.Errorf("config: unsupported model kind: %q", m.Kind)
	}
	if m.NInput <= 0 {
		return nil, fmt.Errorf("config: n_in must be positive, got %d", m.NInput)
	}
	if m.NOutput <= 0 {
		return nil, fmt.Errorf("config: n_out must be positive, got %d", m.NOutput)
	}

	c := &BuildConfig{Kind: m.Kind, NInput: m.NInput, NOutput: m.NOutput}

	lagMethod, ok := trainMethods[m.Training.LaguerreMethod]
	if !ok {
		return nil, fmt.Errorf("config: unsupported laguerre training method: %q", m.Training.LaguerreMethod)
	}
	c.LaguerreMethod = lagMethod
	redMethod, ok := trainMethods[m.Training.ReducedMethod]
	if !ok {
		return nil, fmt.Errorf("config: unsupported reduced training method: %q", m.Training.ReducedMethod)
	}
	c.ReducedMethod = redMethod
	if m.Training.MaxIterations <= 0 {
		c.MaxIterations = 20
	} else {
		c.MaxIterations = m.Training.MaxIterations
	}
	if m.Training.InitWeightMag <= 0 {
		c.InitWeightMag = 1.0
	} else {
		c.InitWeightMag = m.Training.InitWeightMag
	}

	switch m.Kind {
	case "dabnet":
		if err := parseOutputs(m, c); err != nil {
			return nil, err
		}
	case "narma":
		if m.Narma.NHistory <= 0 {
			return nil, fmt.Errorf("config: narma.nhistory must be positive, got %d", m.Narma.NHistory)
		}
		if m.Narma.HiddenNeurons <= 0 {
			return nil, fmt.Errorf("config: narma.hidden_neurons must be positive, got %d", m.Narma.HiddenNeurons)
		}
		c.NarmaHistory = m.Narma.NHistory
		c.NarmaHiddenNeurons = m.Narma.HiddenNeurons
	}
	return c, nil
}

func parseOutputs(m *Manifest, c *BuildConfig) error {
	if len(m.Outputs) != m.NOutput {
		return fmt.Errorf("config: need %d output entries, got %d", m.NOutput, len(m.Outputs))
	}
	c.Outputs = make([]OutputConfig, len(m.Outputs))
	for i, om := range m.Outputs {
		if om.HiddenNeurons <= 0 {
			return fmt.Errorf("config: output %d: hidden_neurons must be positive, got %d", i, om.HiddenNeurons)
		}
		if len(om.Inputs) != m.NInput {
			return fmt.Errorf("config: output %d: need %d input entries, got %d", i, m.NInput, len(om.Inputs))
		}
		mode, ok := poleOptModes[om.PoleOptimize]
		if !ok {
			return fmt.Errorf("config: output %d: unsupported pole_optimize: %q", i, om.PoleOptimize)
		}
		oc := OutputConfig{
			LinearActivation: om.LinearActivation,
			PoleOptimize:     mode,
			HiddenNeurons:    om.HiddenNeurons,
			Inputs:           make([]InputConfig, len(om.Inputs)),
		}
		for j, im := range om.Inputs {
			if im.Order1 <= 0 {
				return fmt.Errorf("config: output %d input %d: order1 must be positive, got %d", i, j, im.Order1)
			}
			if im.TwoPole && im.Order2 <= 0 {
				return fmt.Errorf("config: output %d input %d: order2 must be positive when two_pole is set, got %d", i, j, im.Order2)
			}
			oc.Inputs[j] = InputConfig{
				TwoPole: im.TwoPole,
				NDelay:  im.NDelay,
				Order1:  im.Order1,
				Order2:  im.Order2,
				Pole1:   im.Pole1,
				Pole2:   im.Pole2,
			}
		}
		c.Outputs[i] = oc
	}
	return nil
}
