package neuralnet

import (
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"
)

// SecondOrder exposes a network's batch objective, gradient and Hessian
// as a function of a single flat weight vector, letting the network
// drive a second-order optimizer such as gonum's Newton method. The
// weight layout matches WeightsToVec/SetWeightsFromVec: Wh rolled out
// row-major, followed by Wo rolled out row-major.
type SecondOrder struct {
	net     *Network
	inputs  [][]float64
	targets [][]float64
}

// NewSecondOrder builds a SecondOrder view of net trained against the
// given dataset.
func NewSecondOrder(net *Network, inputs, targets [][]float64) *SecondOrder {
	return &SecondOrder{net: net, inputs: inputs, targets: targets}
}

// whLen is the number of weights owned by the hidden layer.
func (s *SecondOrder) whLen() int { return s.net.NHidden * (s.net.NIn + 1) }

// Func evaluates the batch objective (sum of pair errors) at weights.
func (s *SecondOrder) Func(weights []float64) float64 {
	if err := s.net.SetWeightsFromVec(weights); err != nil {
		panic(err)
	}
	total := 0.0
	for i := range s.inputs {
		f := s.net.Propagate(s.inputs[i])
		total += PairError(s.targets[i], f.Output)
	}
	return total
}

// Grad evaluates the batch gradient at weights into grad, matching the
// accumulator BatchGradient produces after a full sweep with no weight
// update applied.
func (s *SecondOrder) Grad(grad, weights []float64) {
	if err := s.net.SetWeightsFromVec(weights); err != nil {
		panic(err)
	}
	g, _ := s.net.BatchGradient(s.inputs, s.targets)
	flat := append(matVecRowMajor(g.Wh), matVecRowMajor(g.Wo)...)
	copy(grad, flat)
}

func matVecRowMajor(m *mat.Dense) []float64 {
	r, c := m.Dims()
	out := make([]float64, 0, r*c)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			out = append(out, m.At(i, j))
		}
	}
	return out
}

// Hess evaluates the exact batch Hessian at weights into hess, following
// the closed-form block structure for a single hidden layer with a dense
// output layer: output-layer weight pairs belonging to different output
// neurons never interact (that block is exactly zero), hidden-layer
// weight pairs pick up a contribution from every output neuron they
// influence, and the mixed hidden/output block carries the diagonal
// delta correction from Bishop's fast exact Hessian formula.
func (s *SecondOrder) Hess(hess *mat.SymDense, weights []float64) {
	if err := s.net.SetWeightsFromVec(weights); err != nil {
		panic(err)
	}
	n := s.net
	whLen := s.whLen()
	total := whLen + n.NOut*(n.NHidden+1)
	acc := mat.NewSymDense(total, nil)

	for idx := range s.inputs {
		f := n.Propagate(s.inputs[idx])
		target := s.targets[idx]

		// h_mm for each output neuron: y''*(y-t) + (y')^2
		hmm := make([]float64, n.NOut)
		errK := make([]float64, n.NOut) // (y_k - t_k)
		for k := 0; k < n.NOut; k++ {
			errK[k] = f.Output[k] - target[k]
			hmm[k] = f.OutputDeriv2[k]*errK[k] + f.OutputDeriv[k]*f.OutputDeriv[k]
		}

		woIdx := func(k, j int) int { return whLen + k*(n.NHidden+1) + j }
		whIdx := func(j, i int) int { return j*(n.NIn+1) + i }

		// output-output block: only within the same output neuron k
		for k := 0; k < n.NOut; k++ {
			for j1 := 0; j1 < n.NHidden+1; j1++ {
				for j2 := j1; j2 < n.NHidden+1; j2++ {
					v := hmm[k] * f.OutputIn[j1] * f.OutputIn[j2]
					a, b := woIdx(k, j1), woIdx(k, j2)
					acc.SetSym(a, b, acc.At(a, b)+v)
				}
			}
		}

		// hidden-hidden block
		for j1 := 0; j1 < n.NHidden; j1++ {
			for j2 := j1; j2 < n.NHidden; j2++ {
				sum := 0.0
				for k := 0; k < n.NOut; k++ {
					sum += hmm[k] * n.Wo.At(k, j1+1) * n.Wo.At(k, j2+1)
				}
				v := f.HiddenDeriv[j1] * f.HiddenDeriv[j2] * sum
				if j1 == j2 {
					diag := 0.0
					for k := 0; k < n.NOut; k++ {
						diag += n.Wo.At(k, j1+1) * errK[k] * f.OutputDeriv[k]
					}
					v += diag * f.HiddenDeriv2[j1]
				}
				for i1 := 0; i1 < n.NIn+1; i1++ {
					for i2 := 0; i2 < n.NIn+1; i2++ {
						if j1 == j2 && i2 < i1 {
							continue
						}
						a, b := whIdx(j1, i1), whIdx(j2, i2)
						val := v * f.HiddenIn[i1] * f.HiddenIn[i2]
						acc.SetSym(a, b, acc.At(a, b)+val)
					}
				}
			}
		}

		// mixed hidden/output block
		for j := 0; j < n.NHidden; j++ {
			for k := 0; k < n.NOut; k++ {
				// derivative of E w.r.t. (w_ji, w_kj'): two contributions --
				// the "through y_k" term for every j', plus the direct delta
				// term when the hidden neuron j feeds output k directly.
				direct := f.OutputDeriv[k] * f.HiddenDeriv[j]
				for i := 0; i < n.NIn+1; i++ {
					a := whIdx(j, i)
					for jo := 0; jo < n.NHidden+1; jo++ {
						b := woIdx(k, jo)
						v := n.Wo.At(k, j+1) * f.HiddenDeriv[j] * hmm[k] * f.OutputIn[jo] * f.HiddenIn[i]
						if jo == j+1 {
							v += direct * errK[k] * f.HiddenIn[i]
						}
						lo, hi := a, b
						if lo > hi {
							lo, hi = hi, lo
						}
						acc.SetSym(lo, hi, acc.At(lo, hi)+v)
					}
				}
			}
		}
	}

	*hess = *acc
}

// NewtonProblem returns an optimize.Problem wired to s's Func/Grad/Hess,
// together with the flat initial weight vector and a finalize function
// that writes the optimizer's resulting location back into the network.
func (s *SecondOrder) NewtonProblem() (optimize.Problem, []float64, func(result *optimize.Result) error) {
	init := s.net.WeightsToVec()
	p := optimize.Problem{
		Func: s.Func,
		Grad: s.Grad,
		Hess: s.Hess,
	}
	finalize := func(result *optimize.Result) error {
		if result == nil {
			return nil
		}
		return s.net.SetWeightsFromVec(result.X)
	}
	return p, init, finalize
}
