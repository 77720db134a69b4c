// Package dabnet assembles one DABNet model: a bank of per-input Laguerre
// filters feeding a one-hidden-layer neural network, plus the balanced
// reduction of that filter bank into a second, smaller filter bank and its
// own retrained network. One Dabnet models a single output channel.
package dabnet

import (
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"
	"gonum.org/v1/gonum/stat"

	"github.com/CCSI-Toolset/drm/pkg/laguerre"
	"github.com/CCSI-Toolset/drm/pkg/neuralnet"
	"github.com/CCSI-Toolset/drm/pkg/simplex"
	"github.com/CCSI-Toolset/drm/pkg/statespace"
)

// InputConfig describes how one input channel's Laguerre filter is built:
// its pole(s), delay length, and state allotment. It mirrors
// laguerre.Spec directly since each input gets exactly one realization.
type InputConfig struct {
	Pole     float64
	Pole2    float64
	NDelay   int
	NState   int // total states for this input, including any 2nd pole block
	NState2  int // states allotted to the 2nd pole block, when UsePole2
	UsePole2 bool
}

func (c InputConfig) spec() laguerre.Spec {
	return laguerre.Spec{
		NState:  c.NState,
		A:       c.Pole,
		A2:      c.Pole2,
		NDelay:  c.NDelay,
		NState2: c.NState2,
		Pole2:   c.UsePole2,
	}
}

// Config configures a Dabnet before it is built.
type Config struct {
	OutputIndex   int // zero-based output column this model predicts
	HiddenNeurons int
	LinearHidden  bool // linear activation in the hidden layer, instead of sigmoid
	ScaleInput    bool // whether the first-layer weight matrix is sigma-scaled at reduction time
	Inputs        []InputConfig
}

// Dabnet is one per-output dynamic adaptive basis network: a Laguerre
// filter bank and trained network, and, once reduced, a smaller balanced
// filter bank and its own retrained network.
type Dabnet struct {
	cfg Config

	Laguerre []*statespace.Filter // one per input, unbalanced Wang realization
	Reduced  []*statespace.Filter // one per input, after balanced truncation

	LagNet *neuralnet.Network
	RedNet *neuralnet.Network

	// lagSigma is the per-state scaling factor captured while assembling
	// the Laguerre network's training inputs; PrepareWeightMatrices reuses
	// this exact slice at reduction time rather than recomputing it, per
	// the source's PrepareLaguerreNeuralNetworkWeightMatrices.
	lagSigma []float64

	NStateLag int
	NStateRed int
}

// New allocates a Dabnet and builds its initial (unreduced) Laguerre
// filter bank from cfg.
func New(cfg Config) (*Dabnet, error) {
	if len(cfg.Inputs) == 0 {
		return nil, fmt.Errorf("dabnet: at least one input is required")
	}
	if cfg.HiddenNeurons <= 0 {
		return nil, fmt.Errorf("dabnet: hidden neuron count must be positive, got %d", cfg.HiddenNeurons)
	}
	d := &Dabnet{cfg: cfg}
	if err := d.BuildLaguerreFilters(); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Dabnet) hiddenAct() neuralnet.ActKind {
	if d.cfg.LinearHidden {
		return neuralnet.Linear
	}
	return neuralnet.SymSigmoid
}

// BuildLaguerreFilters (re)builds the per-input Laguerre realization from
// the current pole/order/delay configuration, discarding any previous
// filter states. Called once at construction and again by OptimizePoles
// every time a candidate pole vector is tried.
func (d *Dabnet) BuildLaguerreFilters() error {
	filters := make([]*statespace.Filter, len(d.cfg.Inputs))
	total := 0
	for i, ic := range d.cfg.Inputs {
		f, err := laguerre.Build(ic.spec())
		if err != nil {
			return fmt.Errorf("dabnet: input %d: %w", i, err)
		}
		filters[i] = f
		total += ic.NState
	}
	d.Laguerre = filters
	d.NStateLag = total
	return nil
}

// concatState concatenates the current state vectors of filters, in
// input order, into the flat feature vector the network consumes.
func concatState(filters []*statespace.Filter) []float64 {
	total := 0
	for _, f := range filters {
		total += f.N
	}
	out := make([]float64, 0, total)
	for _, f := range filters {
		out = append(out, f.X...)
	}
	return out
}

// initSteadyState seeds every filter in filters to the steady state for
// the corresponding column of u (length len(filters)).
func initSteadyState(filters []*statespace.Filter, u []float64) error {
	if len(u) != len(filters) {
		return fmt.Errorf("dabnet: expected %d initial inputs, got %d", len(filters), len(u))
	}
	for i, f := range filters {
		if err := f.InitSteadyState(u[i]); err != nil {
			return fmt.Errorf("dabnet: steady-state init for input %d: %w", i, err)
		}
	}
	return nil
}

// stepAll advances every filter in filters by its corresponding column of u.
func stepAll(filters []*statespace.Filter, u []float64) {
	for i, f := range filters {
		f.Step(u[i])
	}
}

// propagateForTraining runs identification data through filters and
// assembles (state, target) training pairs. It pairs the filter state
// x(k), read before the step, with row k's own target value: row k of
// the identification data is the pair (u(k), y(k+1)), so x(k) paired
// with idTargets[k] already expresses "state now" mapping to "plant
// output next", matching the source's
// ProcessIdentificationDataFor{Laguerre,ReducedModel}Training, which
// emits one training pair per identification row.
func propagateForTraining(filters []*statespace.Filter, idInputs [][]float64, idTargets []float64) (trainX, trainY [][]float64, err error) {
	npair := len(idInputs)
	if npair < 2 {
		return nil, nil, fmt.Errorf("dabnet: need at least 2 identification rows, got %d", npair)
	}
	if len(idTargets) != npair {
		return nil, nil, fmt.Errorf("dabnet: expected %d targets, got %d", npair, len(idTargets))
	}
	for _, f := range filters {
		f.Reset()
	}
	if err := initSteadyState(filters, idInputs[0]); err != nil {
		return nil, nil, err
	}
	trainX = make([][]float64, 0, npair)
	trainY = make([][]float64, 0, npair)
	for k := 0; k < npair; k++ {
		trainX = append(trainX, concatState(filters))
		trainY = append(trainY, []float64{idTargets[k]})
		stepAll(filters, idInputs[k])
	}
	return trainX, trainY, nil
}

// ProcessIdentificationDataForLaguerreTraining propagates identification
// data through the unbalanced Laguerre filter bank and returns the
// resulting (state, target) training set for the Laguerre network.
func (d *Dabnet) ProcessIdentificationDataForLaguerreTraining(idInputs [][]float64, idTargets []float64) (trainX, trainY [][]float64, err error) {
	return propagateForTraining(d.Laguerre, idInputs, idTargets)
}

// ProcessIdentificationDataForReducedModelTraining does the same as
// ProcessIdentificationDataForLaguerreTraining but through the reduced
// filter bank produced by ReduceLaguerreStateSpace.
func (d *Dabnet) ProcessIdentificationDataForReducedModelTraining(idInputs [][]float64, idTargets []float64) (trainX, trainY [][]float64, err error) {
	if d.Reduced == nil {
		return nil, nil, fmt.Errorf("dabnet: reduced state space not built yet")
	}
	return propagateForTraining(d.Reduced, idInputs, idTargets)
}

// columnSigma returns, for each column of rows, its sample standard
// deviation (N-1 denominator). When cfg.ScaleInput is set it is used only
// to scale the first-layer weights at reduction time; the Laguerre
// network itself is trained on unscaled inputs.
func columnSigma(rows [][]float64) []float64 {
	if len(rows) == 0 {
		return nil
	}
	ncol := len(rows[0])
	sigma := make([]float64, ncol)
	col := make([]float64, len(rows))
	for j := 0; j < ncol; j++ {
		for i, r := range rows {
			col[i] = r[j]
		}
		_, sd := stat.MeanStdDev(col, nil)
		if sd == 0 {
			sd = 1
		}
		sigma[j] = sd
	}
	return sigma
}

// TrainLaguerreNetwork trains (creating if necessary) the Laguerre
// network against trainX/trainY using cfg. When d.cfg.ScaleInput is set,
// it first captures the per-state sigma of trainX — the same sigma
// PrepareWeightMatrices later reuses unchanged at reduction time.
func (d *Dabnet) TrainLaguerreNetwork(trainX, trainY [][]float64, rnd *rand.Rand, cfg neuralnet.TrainConfig) (neuralnet.TrainResult, error) {
	if d.cfg.ScaleInput {
		d.lagSigma = columnSigma(trainX)
	}
	if d.LagNet == nil {
		net, err := neuralnet.New(d.NStateLag, d.cfg.HiddenNeurons, 1, d.hiddenAct(), neuralnet.Linear, 1.0, 1.0, rnd)
		if err != nil {
			return neuralnet.TrainResult{}, err
		}
		d.LagNet = net
	}
	return neuralnet.Train(d.LagNet, trainX, trainY, cfg)
}

// TrainLaguerreNetworkNewton trains the Laguerre network by the
// second-order Newton path instead of RPROP, via gonum's optimize.Newton.
func (d *Dabnet) TrainLaguerreNetworkNewton(trainX, trainY [][]float64, rnd *rand.Rand) error {
	if d.cfg.ScaleInput {
		d.lagSigma = columnSigma(trainX)
	}
	if d.LagNet == nil {
		net, err := neuralnet.New(d.NStateLag, d.cfg.HiddenNeurons, 1, d.hiddenAct(), neuralnet.Linear, 1.0, 1.0, rnd)
		if err != nil {
			return err
		}
		d.LagNet = net
	}
	return trainNewton(d.LagNet, trainX, trainY)
}

// PrepareWeightMatrices slices the trained Laguerre network's first-layer
// weight matrix into one (hidden x input-states) block per input, and
// sigma-scales each block with the sigma captured during training (never
// recomputed here), ready to drive ReduceLaguerreStateSpace.
func (d *Dabnet) PrepareWeightMatrices() ([]*mat.Dense, error) {
	if d.LagNet == nil {
		return nil, fmt.Errorf("dabnet: Laguerre network not trained yet")
	}
	out := make([]*mat.Dense, len(d.cfg.Inputs))
	col := 1 // skip the bias column
	for i, ic := range d.cfg.Inputs {
		sub := mat.NewDense(d.LagNet.NHidden, ic.NState, nil)
		for r := 0; r < d.LagNet.NHidden; r++ {
			for c := 0; c < ic.NState; c++ {
				sub.Set(r, c, d.LagNet.Wh.At(r, col+c))
			}
		}
		var sigma []float64
		if d.cfg.ScaleInput {
			if d.lagSigma == nil {
				return nil, fmt.Errorf("dabnet: input scaling requested but no sigma was captured during training")
			}
			sigma = d.lagSigma[col-1 : col-1+ic.NState]
		}
		out[i] = laguerre.PrepareWeightMatrix(sub, sigma, d.cfg.ScaleInput)
		col += ic.NState
	}
	return out, nil
}

// ReduceLaguerreStateSpace reduces every input's unbalanced Laguerre
// filter to a smaller balanced realization using the per-input weight
// matrices from PrepareWeightMatrices, and records the total reduced
// state count.
func (d *Dabnet) ReduceLaguerreStateSpace(weights []*mat.Dense) error {
	if len(weights) != len(d.Laguerre) {
		return fmt.Errorf("dabnet: expected %d weight matrices, got %d", len(d.Laguerre), len(weights))
	}
	reduced := make([]*statespace.Filter, len(d.Laguerre))
	total := 0
	for i, f := range d.Laguerre {
		r, _, err := laguerre.ReduceBalanced(f, weights[i])
		if err != nil {
			return fmt.Errorf("dabnet: reducing input %d: %w", i, err)
		}
		reduced[i] = r
		total += r.N
	}
	d.Reduced = reduced
	d.NStateRed = total
	return nil
}

// TrainReducedNetwork trains (creating if necessary) the reduced-model
// network against trainX/trainY using cfg.
func (d *Dabnet) TrainReducedNetwork(trainX, trainY [][]float64, rnd *rand.Rand, cfg neuralnet.TrainConfig) (neuralnet.TrainResult, error) {
	if d.RedNet == nil {
		net, err := neuralnet.New(d.NStateRed, d.cfg.HiddenNeurons, 1, d.hiddenAct(), neuralnet.Linear, 1.0, 1.0, rnd)
		if err != nil {
			return neuralnet.TrainResult{}, err
		}
		d.RedNet = net
	}
	return neuralnet.Train(d.RedNet, trainX, trainY, cfg)
}

// TrainReducedNetworkNewton trains the reduced-model network by the
// second-order Newton path.
func (d *Dabnet) TrainReducedNetworkNewton(trainX, trainY [][]float64, rnd *rand.Rand) error {
	if d.RedNet == nil {
		net, err := neuralnet.New(d.NStateRed, d.cfg.HiddenNeurons, 1, d.hiddenAct(), neuralnet.Linear, 1.0, 1.0, rnd)
		if err != nil {
			return err
		}
		d.RedNet = net
	}
	return trainNewton(d.RedNet, trainX, trainY)
}

// CalcMeanAndSigmaOfReducedModelStateVariables returns the per-reduced-
// state mean and sample standard deviation over trainX, the column
// statistics recorded alongside the reduced model for later rescaling.
func CalcMeanAndSigmaOfReducedModelStateVariables(trainX [][]float64) (mean, sigma []float64) {
	if len(trainX) == 0 {
		return nil, nil
	}
	ncol := len(trainX[0])
	mean = make([]float64, ncol)
	sigma = make([]float64, ncol)
	col := make([]float64, len(trainX))
	for j := 0; j < ncol; j++ {
		for i, r := range trainX {
			col[i] = r[j]
		}
		m, sd := stat.MeanStdDev(col, nil)
		mean[j] = m
		sigma[j] = sd
	}
	return mean, sigma
}

// InitSteadyState seeds the active filter bank (reduced if built, else
// Laguerre) to the steady state for input vector u.
func (d *Dabnet) InitSteadyState(u []float64) error {
	return initSteadyState(d.activeFilters(), u)
}

// activeFilters returns the reduced filter bank if it has been built,
// falling back to the unbalanced Laguerre bank otherwise.
func (d *Dabnet) activeFilters() []*statespace.Filter {
	if d.Reduced != nil {
		return d.Reduced
	}
	return d.Laguerre
}

func (d *Dabnet) activeNet() *neuralnet.Network {
	if d.Reduced != nil {
		return d.RedNet
	}
	return d.LagNet
}

// Predict reads the network's output from the current filter state (the
// prediction for the next plant sample), then advances every filter by
// u, matching the pairing used during training: Predict must be called
// once per identification row, in order, with InitSteadyState called
// once beforehand on the first row's input.
func (d *Dabnet) Predict(u []float64) (float64, error) {
	filters := d.activeFilters()
	net := d.activeNet()
	if net == nil {
		return 0, fmt.Errorf("dabnet: no trained network available for prediction")
	}
	if len(u) != len(filters) {
		return 0, fmt.Errorf("dabnet: expected %d inputs, got %d", len(filters), len(u))
	}
	state := concatState(filters)
	f := net.Propagate(state)
	y := f.Output[0]
	stepAll(filters, u)
	return y, nil
}

// PoleMode selects which pole families OptimizePoles varies.
type PoleMode int

const (
	// PoleFast varies only each input's 1st-pole value.
	PoleFast PoleMode = iota
	// PoleSlow varies only each input's 2nd-pole value, for inputs with UsePole2 set.
	PoleSlow
	// PoleBoth varies both.
	PoleBoth
)

// poleDims returns the indices into d.cfg.Inputs whose 1st pole (and,
// separately, 2nd pole) participate in the given mode, in the fixed
// order OptimizePoles uses to lay out the simplex's coordinate vector.
func (d *Dabnet) poleDims(mode PoleMode) (fast, slow []int) {
	for i, ic := range d.cfg.Inputs {
		if mode == PoleFast || mode == PoleBoth {
			fast = append(fast, i)
		}
		if (mode == PoleSlow || mode == PoleBoth) && ic.UsePole2 {
			slow = append(slow, i)
		}
	}
	return fast, slow
}

// applyPoleVector writes x's entries back into d.cfg.Inputs' pole fields,
// in the fast-then-slow order poleDims lays out.
func (d *Dabnet) applyPoleVector(mode PoleMode, x []float64) {
	fast, slow := d.poleDims(mode)
	idx := 0
	for _, i := range fast {
		d.cfg.Inputs[i].Pole = x[idx]
		idx++
	}
	for _, i := range slow {
		d.cfg.Inputs[i].Pole2 = x[idx]
		idx++
	}
}

// OptimizePoles searches for pole values minimizing the Laguerre
// network's mean training error via Nelder-Mead: each objective
// evaluation rebuilds the filter bank at the candidate pole vector,
// re-propagates identification data, and trains a fresh Laguerre network
// once, matching the source's pole-optimization outer loop.
func (d *Dabnet) OptimizePoles(mode PoleMode, idInputs [][]float64, idTargets []float64, min, max []float64, cfg simplex.Config, trainCfg neuralnet.TrainConfig, rnd *rand.Rand) (simplex.Result, error) {
	fast, slow := d.poleDims(mode)
	ndim := len(fast) + len(slow)
	if ndim == 0 {
		return simplex.Result{}, fmt.Errorf("dabnet: pole optimization mode selects no poles to vary")
	}

	objective := func(x []float64) float64 {
		d.applyPoleVector(mode, x)
		if err := d.BuildLaguerreFilters(); err != nil {
			return 1e18
		}
		trainX, trainY, err := d.ProcessIdentificationDataForLaguerreTraining(idInputs, idTargets)
		if err != nil {
			return 1e18
		}
		d.LagNet = nil
		result, err := d.TrainLaguerreNetwork(trainX, trainY, rnd, trainCfg)
		if err != nil {
			return 1e18
		}
		return result.FinalMean
	}

	sx, err := simplex.New(ndim, objective, min, max, cfg)
	if err != nil {
		return simplex.Result{}, err
	}
	p0 := make([]float64, ndim)
	step := make([]float64, ndim)
	idx := 0
	for _, i := range fast {
		p0[idx] = d.cfg.Inputs[i].Pole
		step[idx] = 0.05
		idx++
	}
	for _, i := range slow {
		p0[idx] = d.cfg.Inputs[i].Pole2
		step[idx] = 0.05
		idx++
	}
	if err := sx.Init(p0, step); err != nil {
		return simplex.Result{}, err
	}
	result, err := sx.Optimize()
	if err != nil {
		return simplex.Result{}, err
	}
	d.applyPoleVector(mode, result.Best)
	if err := d.BuildLaguerreFilters(); err != nil {
		return result, err
	}
	return result, nil
}

// trainNewton drives net's second-order Newton path (see
// neuralnet.SecondOrder) to convergence against trainX/trainY, writing
// the result back into net's weights, through optimize.Problem and
// optimize.Local with the Newton method and an explicit analytic Hessian.
func trainNewton(net *neuralnet.Network, trainX, trainY [][]float64) error {
	so := neuralnet.NewSecondOrder(net, trainX, trainY)
	problem, init, finalize := so.NewtonProblem()
	settings := optimize.DefaultSettings()
	settings.Recorder = nil
	result, err := optimize.Local(problem, init, settings, &optimize.Newton{})
	if err != nil {
		return fmt.Errorf("dabnet: Newton training failed: %w", err)
	}
	return finalize(result)
}
