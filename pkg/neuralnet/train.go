package neuralnet

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Rule identifies a batch weight-update rule.
type Rule int

const (
	// Classical is plain momentum gradient descent.
	Classical Rule = iota
	// RPROP is Riedmiller's resilient back-propagation.
	RPROP
	// IRPROPPlus is Igel & Husken's improved RPROP with error-driven
	// weight-backtracking.
	IRPROPPlus
)

// TrainConfig configures a batch training run.
type TrainConfig struct {
	Rule Rule

	// Classical rule parameters.
	LearnRate float64
	Momentum  float64

	// RPROP / iRPROP+ parameters.
	EtaPlus  float64 // step growth factor, default 1.2
	EtaMinus float64 // step shrink factor, default 0.5
	DeltaMax float64 // max per-weight step, default 50
	DeltaMin float64 // min per-weight step, default 0
	Delta0   float64 // initial per-weight step, default 0.5

	MaxEpochs  int
	StopError  float64 // mean batch error threshold, default 1e-5
}

// DefaultTrainConfig returns an RPROP configuration using the commonly
// recommended defaults.
func DefaultTrainConfig() TrainConfig {
	return TrainConfig{
		Rule:      RPROP,
		EtaPlus:   1.2,
		EtaMinus:  0.5,
		DeltaMax:  50,
		DeltaMin:  0,
		Delta0:    0.5,
		MaxEpochs: 1000,
		StopError: 1e-5,
	}
}

// rpropState tracks, per weight matrix, the previous gradient and the
// current per-weight step size used by RPROP and iRPROP+.
type rpropState struct {
	prevGradWh, stepWh *mat.Dense
	prevGradWo, stepWo *mat.Dense
	prevWh, prevWo     *mat.Dense // weights before the last step, for iRPROP+ backtracking
}

func newRPROPState(n *Network, delta0 float64) *rpropState {
	s := &rpropState{
		prevGradWh: mat.NewDense(n.NHidden, n.NIn+1, nil),
		stepWh:     mat.NewDense(n.NHidden, n.NIn+1, nil),
		prevGradWo: mat.NewDense(n.NOut, n.NHidden+1, nil),
		stepWo:     mat.NewDense(n.NOut, n.NHidden+1, nil),
		prevWh:     mat.NewDense(n.NHidden, n.NIn+1, nil),
		prevWo:     mat.NewDense(n.NOut, n.NHidden+1, nil),
	}
	s.stepWh.Apply(func(i, j int, _ float64) float64 { return delta0 }, s.stepWh)
	s.stepWo.Apply(func(i, j int, _ float64) float64 { return delta0 }, s.stepWo)
	return s
}

func sign(x float64) float64 {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	default:
		return 0
	}
}

// rpropUpdateMx applies one RPROP (or iRPROP+) update to a single weight
// matrix, given its gradient, previous gradient, step sizes, and the
// matrix of weights before the previous step (for iRPROP+ backtracking).
// errorIncreased is only consulted by iRPROP+.
func rpropUpdateMx(cfg TrainConfig, w, grad, prevGrad, step, prevW *mat.Dense, errorIncreased bool) {
	r, c := w.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			g := grad.At(i, j)
			pg := prevGrad.At(i, j)
			prod := g * pg
			d := step.At(i, j)
			switch {
			case prod > 0:
				d = math.Min(d*cfg.EtaPlus, cfg.DeltaMax)
				w.Set(i, j, w.At(i, j)-sign(g)*d)
				step.Set(i, j, d)
				prevGrad.Set(i, j, g)
			case prod < 0:
				d = math.Max(d*cfg.EtaMinus, cfg.DeltaMin)
				step.Set(i, j, d)
				if cfg.Rule == IRPROPPlus && errorIncreased {
					w.Set(i, j, prevW.At(i, j))
				}
				prevGrad.Set(i, j, 0)
			default:
				w.Set(i, j, w.At(i, j)-sign(g)*d)
				prevGrad.Set(i, j, g)
			}
		}
	}
}

// classicalUpdateMx applies one classical momentum update to a single
// weight matrix: deltaW <- momentum*deltaWPrev - learnRate*grad; w <- w + deltaW.
func classicalUpdateMx(cfg TrainConfig, w, grad, deltaWPrev *mat.Dense) {
	r, c := w.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			dw := cfg.Momentum*deltaWPrev.At(i, j) - cfg.LearnRate*grad.At(i, j)
			w.Set(i, j, w.At(i, j)+dw)
			deltaWPrev.Set(i, j, dw)
		}
	}
}

// TrainResult summarizes a finished training run.
type TrainResult struct {
	Epochs    int
	FinalMean float64
}

// Train runs batch training until MaxEpochs epochs have elapsed or the
// mean batch error (total batch error divided by sample count) drops
// below StopError.
func Train(n *Network, inputs, targets [][]float64, cfg TrainConfig) (TrainResult, error) {
	if len(inputs) == 0 || len(inputs) != len(targets) {
		return TrainResult{}, fmt.Errorf("neuralnet: inputs/targets must be equal length and non-empty, got %d/%d", len(inputs), len(targets))
	}
	samples := len(inputs)

	var rState *rpropState
	var deltaWhPrev, deltaWoPrev *mat.Dense
	switch cfg.Rule {
	case RPROP, IRPROPPlus:
		rState = newRPROPState(n, cfg.Delta0)
	case Classical:
		deltaWhPrev = mat.NewDense(n.NHidden, n.NIn+1, nil)
		deltaWoPrev = mat.NewDense(n.NOut, n.NHidden+1, nil)
	}

	prevError := math.Inf(1)
	epoch := 0
	meanErr := math.Inf(1)
	for ; epoch < cfg.MaxEpochs; epoch++ {
		g, total := n.BatchGradient(inputs, targets)
		meanErr = total / float64(samples)
		if meanErr < cfg.StopError {
			break
		}
		switch cfg.Rule {
		case Classical:
			classicalUpdateMx(cfg, n.Wh, g.Wh, deltaWhPrev)
			classicalUpdateMx(cfg, n.Wo, g.Wo, deltaWoPrev)
		case RPROP, IRPROPPlus:
			errorIncreased := total > prevError
			whBefore := mat.DenseCopyOf(n.Wh)
			woBefore := mat.DenseCopyOf(n.Wo)
			rpropUpdateMx(cfg, n.Wh, g.Wh, rState.prevGradWh, rState.stepWh, rState.prevWh, errorIncreased)
			rpropUpdateMx(cfg, n.Wo, g.Wo, rState.prevGradWo, rState.stepWo, rState.prevWo, errorIncreased)
			rState.prevWh.Copy(whBefore)
			rState.prevWo.Copy(woBefore)
		}
		prevError = total
	}
	return TrainResult{Epochs: epoch, FinalMean: meanErr}, nil
}
