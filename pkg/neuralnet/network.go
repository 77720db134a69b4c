// Package neuralnet implements the fixed-topology one-hidden-layer
// feed-forward network shared by the DABNet and NARMA model families: an
// input layer, a single hidden layer, and an output layer, each neuron
// (save the input layer) carrying a steepness-scaled activation and a
// bias input that is always 1 with no incoming weight. It supports
// forward and backward propagation with first and second derivatives,
// several weight-update rules, and a batch objective/gradient/Hessian
// interface that can drive a second-order optimizer.
package neuralnet

import (
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"github.com/CCSI-Toolset/drm/pkg/matrix"
)

// ActKind identifies a neuron activation function.
type ActKind int

const (
	// Linear activation: y = s*z.
	Linear ActKind = iota
	// Sigmoid activation: y = 1/(1+e^(-2sz)).
	Sigmoid
	// SymSigmoid is the symmetric (tanh-like) sigmoid: y = 2/(1+e^(-2sz)) - 1.
	SymSigmoid
)

func activate(k ActKind, s, z float64) float64 {
	switch k {
	case Sigmoid:
		return matrix.Sigmoid(s, z)
	case SymSigmoid:
		return matrix.SymSigmoid(s, z)
	default:
		return matrix.Linear(s, z)
	}
}

func derivFromOutput(k ActKind, s, y float64) float64 {
	switch k {
	case Sigmoid:
		return matrix.SigmoidDeriv(s, y)
	case SymSigmoid:
		return matrix.SymSigmoidDeriv(s, y)
	default:
		return matrix.LinearDeriv(s, y)
	}
}

func deriv2FromOutput(k ActKind, s, y float64) float64 {
	switch k {
	case Sigmoid:
		return matrix.SigmoidDeriv2(s, y)
	case SymSigmoid:
		return matrix.SymSigmoidDeriv2(s, y)
	default:
		return matrix.LinearDeriv2(s, y)
	}
}

// Network is a fixed one-hidden-layer feed-forward network: NIn inputs,
// NHidden hidden neurons, NOut output neurons. Weights are stored with an
// extra bias column (column 0) so that W.Mul([1, x]) computes the full
// weighted sum including the bias term.
type Network struct {
	id string

	NIn, NHidden, NOut int
	HiddenAct          ActKind
	OutputAct          ActKind
	HiddenSteep        float64
	OutputSteep        float64

	// Wh is NHidden x (NIn+1), Wo is NOut x (NHidden+1).
	Wh *mat.Dense
	Wo *mat.Dense
}

// New allocates a network with random weights uniformly drawn from
// (-1,1) using rnd, matching the teacher's weight initialization scheme
// generalized to an explicitly threaded generator.
func New(nIn, nHidden, nOut int, hiddenAct, outputAct ActKind, hiddenSteep, outputSteep float64, rnd *rand.Rand) (*Network, error) {
	if nIn <= 0 || nHidden <= 0 || nOut <= 0 {
		return nil, fmt.Errorf("neuralnet: layer sizes must be positive, got in=%d hidden=%d out=%d", nIn, nHidden, nOut)
	}
	wh, err := matrix.MakeRandMx(nHidden, nIn+1, -1.0, 1.0, rnd)
	if err != nil {
		return nil, err
	}
	wo, err := matrix.MakeRandMx(nOut, nHidden+1, -1.0, 1.0, rnd)
	if err != nil {
		return nil, err
	}
	return &Network{
		id:          randID(10),
		NIn:         nIn,
		NHidden:     nHidden,
		NOut:        nOut,
		HiddenAct:   hiddenAct,
		OutputAct:   outputAct,
		HiddenSteep: hiddenSteep,
		OutputSteep: outputSteep,
		Wh:          wh,
		Wo:          wo,
	}, nil
}

// ID returns the network's identifier.
func (n *Network) ID() string { return n.id }

// NumWeights returns the total number of trainable weights (including
// bias weights).
func (n *Network) NumWeights() int {
	return n.NHidden*(n.NIn+1) + n.NOut*(n.NHidden+1)
}

// WeightsToVec rolls Wh followed by Wo into a single flat vector, row-major.
func (n *Network) WeightsToVec() []float64 {
	v := make([]float64, 0, n.NumWeights())
	v = append(v, matrix.Mx2Vec(n.Wh, true)...)
	v = append(v, matrix.Mx2Vec(n.Wo, true)...)
	return v
}

// SetWeightsFromVec writes a flat vector (as produced by WeightsToVec)
// back into Wh and Wo.
func (n *Network) SetWeightsFromVec(w []float64) error {
	if len(w) != n.NumWeights() {
		return fmt.Errorf("neuralnet: expected %d weights, got %d", n.NumWeights(), len(w))
	}
	hLen := n.NHidden * (n.NIn + 1)
	if err := matrix.SetMx2Vec(w[:hLen], n.Wh, true); err != nil {
		return err
	}
	return matrix.SetMx2Vec(w[hLen:], n.Wo, true)
}

// Forward holds the full trace of a single forward pass: per-layer
// pre-bias inputs, outputs, and first and second derivatives, needed by
// both back-propagation and the Hessian computation.
type Forward struct {
	HiddenIn       []float64 // input vector including leading 1 bias
	HiddenOut      []float64 // hidden layer outputs y
	HiddenDeriv    []float64 // y'
	HiddenDeriv2   []float64 // y''
	OutputIn       []float64 // hidden outputs including leading 1 bias
	Output         []float64 // network outputs y
	OutputDeriv    []float64 // y'
	OutputDeriv2   []float64 // y''
}

// Propagate runs a forward pass of input x (length NIn) and records
// activations and both derivatives needed for back-propagation and the
// Hessian.
func (n *Network) Propagate(x []float64) *Forward {
	f := &Forward{
		HiddenIn:     append([]float64{1.0}, x...),
		HiddenOut:    make([]float64, n.NHidden),
		HiddenDeriv:  make([]float64, n.NHidden),
		HiddenDeriv2: make([]float64, n.NHidden),
		OutputDeriv:  make([]float64, n.NOut),
		OutputDeriv2: make([]float64, n.NOut),
		Output:       make([]float64, n.NOut),
	}
	for j := 0; j < n.NHidden; j++ {
		z := 0.0
		for i := 0; i < n.NIn+1; i++ {
			z += n.Wh.At(j, i) * f.HiddenIn[i]
		}
		y := activate(n.HiddenAct, n.HiddenSteep, z)
		f.HiddenOut[j] = y
		f.HiddenDeriv[j] = derivFromOutput(n.HiddenAct, n.HiddenSteep, y)
		f.HiddenDeriv2[j] = deriv2FromOutput(n.HiddenAct, n.HiddenSteep, y)
	}
	f.OutputIn = append([]float64{1.0}, f.HiddenOut...)
	for k := 0; k < n.NOut; k++ {
		z := 0.0
		for j := 0; j < n.NHidden+1; j++ {
			z += n.Wo.At(k, j) * f.OutputIn[j]
		}
		y := activate(n.OutputAct, n.OutputSteep, z)
		f.Output[k] = y
		f.OutputDeriv[k] = derivFromOutput(n.OutputAct, n.OutputSteep, y)
		f.OutputDeriv2[k] = deriv2FromOutput(n.OutputAct, n.OutputSteep, y)
	}
	return f
}

// PairError returns the half-squared-error of one (input, target) pair:
// 1/2 * sum (target - y_out)^2.
func PairError(target, out []float64) float64 {
	e := 0.0
	for k := range out {
		d := target[k] - out[k]
		e += 0.5 * d * d
	}
	return e
}

// randID returns a random alphanumeric string of size characters,
// used to tag a Network instance for logging/diagnostics.
func randID(size int) string {
	const alphanum = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"
	b := make([]byte, size)
	rand.Read(b)
	for i, c := range b {
		b[i] = alphanum[c%byte(len(alphanum))]
	}
	return string(b)
}
