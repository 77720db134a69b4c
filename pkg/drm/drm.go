// Package drm ties the identification dataset, the per-output DABNet
// models (or the single NARMA model), and the export format together
// into one build: it is the orchestration layer a build tool drives,
// generalized from the DABNet/NARMA pipelines the same way the
// teacher's CLI drives a single classifier network.
package drm

import (
	"fmt"
	"io"
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"github.com/CCSI-Toolset/drm/pkg/dabnet"
	"github.com/CCSI-Toolset/drm/pkg/dataset"
	"github.com/CCSI-Toolset/drm/pkg/matrix"
	"github.com/CCSI-Toolset/drm/pkg/narma"
	"github.com/CCSI-Toolset/drm/pkg/neuralnet"
	"github.com/CCSI-Toolset/drm/pkg/simplex"
)

// ModelKind selects which model family a DRM builds.
type ModelKind int

const (
	ModelDabnet ModelKind = iota
	ModelNarma
)

// PoleOptMode selects which pole families, if any, OptimizePoles should
// vary for one DABNet output before training its Laguerre network.
type PoleOptMode int

const (
	PoleOptNone PoleOptMode = iota
	PoleOptFast
	PoleOptSlow
	PoleOptBoth
)

// OutputBuild configures one DABNet output model plus its pole
// optimization mode and bounds.
type OutputBuild struct {
	Dabnet  dabnet.Config
	PoleOpt PoleOptMode
	PoleMin []float64
	PoleMax []float64
}

// Config configures a DRM build: the model kind, the per-output DABNet
// configurations or the single NARMA configuration, plus the global
// training options shared by every output.
type Config struct {
	Kind ModelKind

	NInput  int
	NOutput int

	Outputs []OutputBuild // Kind == ModelDabnet, one entry per output
	Narma   narma.Config  // Kind == ModelNarma

	LaguerreNewton bool // true selects the second-order Newton path over RPROP
	ReducedNewton  bool
	MaxIterations  int
}

// DRM owns the identification data and the trained model(s) built from
// it, plus the summary statistics a downstream consumer needs to rescale
// predictions.
type DRM struct {
	cfg  Config
	Data *dataset.DataSet

	Dabnets []*dabnet.Dabnet // one per output, Kind == ModelDabnet
	Narma   *narma.Narma     // Kind == ModelNarma

	// MeanStateRed/SigmaStateRed concatenate, in output order, the
	// per-reduced-state mean/sigma of every DABNet output's reduced
	// state trajectory.
	MeanStateRed  []float64
	SigmaStateRed []float64
}

// New allocates a DRM over identification data d, per cfg.
func New(cfg Config, d *dataset.DataSet) (*DRM, error) {
	if d.NInput != cfg.NInput || d.NOutput != cfg.NOutput {
		return nil, fmt.Errorf("drm: dataset dims (%d,%d) do not match config dims (%d,%d)", d.NInput, d.NOutput, cfg.NInput, cfg.NOutput)
	}
	switch cfg.Kind {
	case ModelDabnet:
		if len(cfg.Outputs) != cfg.NOutput {
			return nil, fmt.Errorf("drm: need %d output configs, got %d", cfg.NOutput, len(cfg.Outputs))
		}
	case ModelNarma:
	default:
		return nil, fmt.Errorf("drm: unknown model kind %d", cfg.Kind)
	}
	return &DRM{cfg: cfg, Data: d}, nil
}

func (m *DRM) trainConfig() neuralnet.TrainConfig {
	cfg := neuralnet.DefaultTrainConfig()
	if m.cfg.MaxIterations > 0 {
		cfg.MaxEpochs = m.cfg.MaxIterations
	}
	return cfg
}

// Generate scales the container's identification data to zero mean/unit
// variance, then either runs the DABNet per-output build loop (with
// optional Nelder-Mead pole optimization ahead of Laguerre training) or
// trains the NARMA network, driven by the build-wide seeded generator
// rnd, matching the source's GenerateDRM dispatch.
func (m *DRM) Generate(rnd *rand.Rand) error {
	m.Data.CalcMeanAndSigma()
	if err := m.Data.ScaleInputData(); err != nil {
		return fmt.Errorf("drm: %w", err)
	}
	if err := m.Data.ScaleOutputData(); err != nil {
		return fmt.Errorf("drm: %w", err)
	}

	inputs, _ := m.Data.InputsAndTargets()

	switch m.cfg.Kind {
	case ModelDabnet:
		fmt.Println("Starting to generate D-RM. It takes a while to train neural network. Please wait...")
		m.Dabnets = make([]*dabnet.Dabnet, m.cfg.NOutput)
		var meanAll, sigmaAll []float64
		for j, ob := range m.cfg.Outputs {
			fmt.Printf("Building DABNet model for output %d...\n", j+1)
			targets := m.Data.OutputColumn(j)
			d, err := dabnet.New(ob.Dabnet)
			if err != nil {
				return fmt.Errorf("drm: output %d: %w", j, err)
			}
			redX, err := m.buildDabnetOutput(d, ob, inputs, targets, rnd)
			if err != nil {
				return fmt.Errorf("drm: output %d: %w", j, err)
			}
			m.Dabnets[j] = d
			mean, sigma := dabnet.CalcMeanAndSigmaOfReducedModelStateVariables(redX)
			meanAll = append(meanAll, mean...)
			sigmaAll = append(sigmaAll, sigma...)
		}
		m.MeanStateRed = meanAll
		m.SigmaStateRed = sigmaAll
		fmt.Println("D-RM has been generated.")
	case ModelNarma:
		fmt.Println("Training neural network...")
		n, err := narma.New(m.cfg.Narma)
		if err != nil {
			return fmt.Errorf("drm: %w", err)
		}
		trainX, trainY, err := n.ProcessIdentificationDataForTraining(m.Data.Rows())
		if err != nil {
			return fmt.Errorf("drm: %w", err)
		}
		if _, err := n.TrainNeuralNetwork(trainX, trainY, rnd, m.trainConfig()); err != nil {
			return fmt.Errorf("drm: %w", err)
		}
		m.Narma = n
		fmt.Println("D-RM has been generated.")
	}
	return nil
}

// buildDabnetOutput runs one output's full build: optional pole
// optimization (which folds Laguerre training into each objective
// evaluation) or a single direct Laguerre training pass, followed
// unconditionally by weight preparation, balanced reduction, and reduced
// network training. It returns the reduced-model training inputs so the
// caller can fold them into the state-variable summary statistics.
func (m *DRM) buildDabnetOutput(d *dabnet.Dabnet, ob OutputBuild, inputs [][]float64, targets []float64, rnd *rand.Rand) (redX [][]float64, err error) {
	trainCfg := m.trainConfig()

	if ob.PoleOpt != PoleOptNone {
		fmt.Println("Optimize Laguerre poles...")
		mode, err := poleMode(ob.PoleOpt)
		if err != nil {
			return nil, err
		}
		if _, err := d.OptimizePoles(mode, inputs, targets, ob.PoleMin, ob.PoleMax, simplex.DefaultConfig(), trainCfg, rnd); err != nil {
			return nil, err
		}
	} else {
		fmt.Println("Training Laguerre model neural network...")
		trainX, trainY, err := d.ProcessIdentificationDataForLaguerreTraining(inputs, targets)
		if err != nil {
			return nil, err
		}
		if m.cfg.LaguerreNewton {
			if err := d.TrainLaguerreNetworkNewton(trainX, trainY, rnd); err != nil {
				return nil, err
			}
		} else if _, err := d.TrainLaguerreNetwork(trainX, trainY, rnd, trainCfg); err != nil {
			return nil, err
		}
	}

	fmt.Println("Reducing order of state space through balanced realization...")
	weights, err := d.PrepareWeightMatrices()
	if err != nil {
		return nil, err
	}
	if err := d.ReduceLaguerreStateSpace(weights); err != nil {
		return nil, err
	}

	redX, redY, err := d.ProcessIdentificationDataForReducedModelTraining(inputs, targets)
	if err != nil {
		return nil, err
	}
	fmt.Println("Training balanced model neural network...")
	if m.cfg.ReducedNewton {
		if err := d.TrainReducedNetworkNewton(redX, redY, rnd); err != nil {
			return nil, err
		}
	} else if _, err := d.TrainReducedNetwork(redX, redY, rnd, trainCfg); err != nil {
		return nil, err
	}
	return redX, nil
}

func poleMode(opt PoleOptMode) (dabnet.PoleMode, error) {
	switch opt {
	case PoleOptFast:
		return dabnet.PoleFast, nil
	case PoleOptSlow:
		return dabnet.PoleSlow, nil
	case PoleOptBoth:
		return dabnet.PoleBoth, nil
	default:
		return 0, fmt.Errorf("drm: pole optimization mode %d selects no poles to vary", opt)
	}
}

func writeVector(w io.Writer, v []float64) error {
	return matrix.WriteMatrix(w, mat.NewDense(1, len(v), v))
}

// Export writes the built D-RM's full projection in the textual export
// format (§6): input/output channel counts, per-channel mean/sigma, and
// then, per model kind, either every output's reduced state-space
// matrices and network weights followed by the reduced-state
// mean/sigma, or the single NARMA network's weights. Pole values and
// the unreduced Laguerre filters are not written.
func (m *DRM) Export(w io.Writer) error {
	fmt.Fprintf(w, "%d # number of input variables\n", m.cfg.NInput)
	fmt.Fprintf(w, "%d # number of output variables\n", m.cfg.NOutput)

	mean, sigma := m.Data.Mean(), m.Data.Sigma()
	fmt.Fprintln(w, "# mean of training input data")
	if err := writeVector(w, mean[:m.cfg.NInput]); err != nil {
		return err
	}
	fmt.Fprintln(w, "# standard deviation of training input data")
	if err := writeVector(w, sigma[:m.cfg.NInput]); err != nil {
		return err
	}
	fmt.Fprintln(w, "# mean of training output data")
	if err := writeVector(w, mean[m.cfg.NInput:]); err != nil {
		return err
	}
	fmt.Fprintln(w, "# standard deviation of training output data")
	if err := writeVector(w, sigma[m.cfg.NInput:]); err != nil {
		return err
	}

	switch m.cfg.Kind {
	case ModelDabnet:
		for i, d := range m.Dabnets {
			fmt.Fprintf(w, "# DABNet model for output %d\n", i+1)
			if err := exportDabnet(w, d); err != nil {
				return fmt.Errorf("drm: output %d: %w", i, err)
			}
		}
		fmt.Fprintln(w, "# mean of reduced model state variables")
		if err := writeVector(w, m.MeanStateRed); err != nil {
			return err
		}
		fmt.Fprintln(w, "# standard deviation of reduced model state variables")
		if err := writeVector(w, m.SigmaStateRed); err != nil {
			return err
		}
	case ModelNarma:
		fmt.Fprintln(w, "# NARMA network")
		if err := exportNetwork(w, m.Narma.Net); err != nil {
			return err
		}
	}
	return nil
}

// exportDabnet writes one output's reduced filter bank (A, B, C per
// input) and reduced network weights.
func exportDabnet(w io.Writer, d *dabnet.Dabnet) error {
	for i, f := range d.Reduced {
		fmt.Fprintf(w, "# input %d reduced state-space A\n", i+1)
		if err := matrix.WriteMatrix(w, f.A); err != nil {
			return err
		}
		fmt.Fprintf(w, "# input %d reduced state-space B\n", i+1)
		if err := writeVector(w, f.B); err != nil {
			return err
		}
		fmt.Fprintf(w, "# input %d reduced state-space C\n", i+1)
		if err := writeVector(w, f.C); err != nil {
			return err
		}
	}
	return exportNetwork(w, d.RedNet)
}

func exportNetwork(w io.Writer, n *neuralnet.Network) error {
	fmt.Fprintln(w, "# hidden layer weights")
	if err := matrix.WriteMatrix(w, n.Wh); err != nil {
		return err
	}
	fmt.Fprintln(w, "# output layer weights")
	return matrix.WriteMatrix(w, n.Wo)
}
