// Package narma implements the nonlinear auto-regressive moving-average
// model: a single one-hidden-layer network mapping a fixed window of past
// inputs and past outputs directly to the next output, with no filter
// bank or reduction step.
package narma

import (
	"fmt"
	"math/rand"

	"github.com/CCSI-Toolset/drm/pkg/neuralnet"
)

// Config configures a Narma model before it is built.
type Config struct {
	NInput        int
	NOutput       int
	NHistory      int // number of past samples of each input/output channel used
	HiddenNeurons int
	// PredictFromModelOutput selects which history feeds PredictByDRM's
	// own output lags: when true, the model's own prior predictions are
	// fed back (closed loop); when false, the identification data's
	// actual output history is used (open loop, teacher-forced).
	PredictFromModelOutput bool
}

// Narma is a fixed-history-window nonlinear auto-regressive model.
type Narma struct {
	cfg Config
	Net *neuralnet.Network
}

// New allocates a Narma from cfg. The network itself is created lazily
// by TrainNeuralNetwork once its input dimension (history*(nin+nout)) is
// known to be consistent with cfg.
func New(cfg Config) (*Narma, error) {
	if cfg.NInput <= 0 || cfg.NOutput <= 0 {
		return nil, fmt.Errorf("narma: ninput and noutput must be positive, got ninput=%d noutput=%d", cfg.NInput, cfg.NOutput)
	}
	if cfg.NHistory <= 0 {
		return nil, fmt.Errorf("narma: nhistory must be positive, got %d", cfg.NHistory)
	}
	if cfg.HiddenNeurons <= 0 {
		return nil, fmt.Errorf("narma: hidden neuron count must be positive, got %d", cfg.HiddenNeurons)
	}
	return &Narma{cfg: cfg}, nil
}

// windowInputSize is the number of features in one ANN input row: a
// history-length window of every input channel followed by a
// history-length window of every output channel.
func (n *Narma) windowInputSize() int {
	return n.cfg.NHistory * (n.cfg.NInput + n.cfg.NOutput)
}

// historyIndex clamps i-nhistory+k to 0, matching the source's treatment
// of the first few identification rows: lacking real history, it repeats
// row 0.
func historyIndex(i, k, nhistory int) int {
	m := i - nhistory + k
	if m < 0 {
		m = 0
	}
	return m
}

// ProcessIdentificationDataForTraining assembles the ANN training set
// from already-scaled identification rows (each row ninput+noutput long:
// input channels then output channels). Row i's features are the
// nhistory-windows of every input and output channel ending just before
// i (clamped to row 0 for the first few rows), and its target is row i's
// own output channels.
func (n *Narma) ProcessIdentificationDataForTraining(idRows [][]float64) (trainX, trainY [][]float64, err error) {
	width := n.cfg.NInput + n.cfg.NOutput
	for idx, row := range idRows {
		if len(row) != width {
			return nil, nil, fmt.Errorf("narma: row %d has length %d, expected %d", idx, len(row), width)
		}
	}
	npair := len(idRows)
	trainX = make([][]float64, npair)
	trainY = make([][]float64, npair)
	for i := 0; i < npair; i++ {
		feat := make([]float64, 0, n.windowInputSize())
		for j := 0; j < n.cfg.NInput; j++ {
			for k := 0; k < n.cfg.NHistory; k++ {
				m := historyIndex(i, k, n.cfg.NHistory)
				feat = append(feat, idRows[m][j])
			}
		}
		for j := 0; j < n.cfg.NOutput; j++ {
			for k := 0; k < n.cfg.NHistory; k++ {
				m := historyIndex(i, k, n.cfg.NHistory)
				feat = append(feat, idRows[m][n.cfg.NInput+j])
			}
		}
		trainX[i] = feat
		target := make([]float64, n.cfg.NOutput)
		copy(target, idRows[i][n.cfg.NInput:])
		trainY[i] = target
	}
	return trainX, trainY, nil
}

// TrainNeuralNetwork trains (creating if necessary) the NARMA network
// against trainX/trainY using cfg.
func (n *Narma) TrainNeuralNetwork(trainX, trainY [][]float64, rnd *rand.Rand, cfg neuralnet.TrainConfig) (neuralnet.TrainResult, error) {
	if n.Net == nil {
		net, err := neuralnet.New(n.windowInputSize(), n.cfg.HiddenNeurons, n.cfg.NOutput, neuralnet.SymSigmoid, neuralnet.Linear, 1.0, 1.0, rnd)
		if err != nil {
			return neuralnet.TrainResult{}, err
		}
		n.Net = net
	}
	return neuralnet.Train(n.Net, trainX, trainY, cfg)
}

// PredictByDRM predicts one output row per input row of ppin (each row
// ninput+noutput long, with the output columns only consulted for
// history, never for the current row). When cfg.PredictFromModelOutput
// is set, the model's own previously predicted outputs feed later rows'
// output history instead of ppin's recorded output columns, matching the
// source's ipredict_opt switch.
func (n *Narma) PredictByDRM(ppin [][]float64) ([][]float64, error) {
	if n.Net == nil {
		return nil, fmt.Errorf("narma: network not trained yet")
	}
	width := n.cfg.NInput + n.cfg.NOutput
	for idx, row := range ppin {
		if len(row) != width {
			return nil, fmt.Errorf("narma: row %d has length %d, expected %d", idx, len(row), width)
		}
	}
	np := len(ppin)
	ppout := make([][]float64, np)
	if n.cfg.PredictFromModelOutput && np > 0 {
		first := make([]float64, n.cfg.NOutput)
		copy(first, ppin[0][n.cfg.NInput:])
		ppout[0] = first
	}
	for i := 0; i < np; i++ {
		feat := make([]float64, 0, n.windowInputSize())
		for j := 0; j < n.cfg.NInput; j++ {
			for k := 0; k < n.cfg.NHistory; k++ {
				m := historyIndex(i, k, n.cfg.NHistory)
				feat = append(feat, ppin[m][j])
			}
		}
		for j := 0; j < n.cfg.NOutput; j++ {
			for k := 0; k < n.cfg.NHistory; k++ {
				m := historyIndex(i, k, n.cfg.NHistory)
				if n.cfg.PredictFromModelOutput {
					feat = append(feat, ppout[m][j])
				} else {
					feat = append(feat, ppin[m][n.cfg.NInput+j])
				}
			}
		}
		f := n.Net.Propagate(feat)
		out := make([]float64, n.cfg.NOutput)
		copy(out, f.Output)
		ppout[i] = out
	}
	return ppout, nil
}
