package neuralnet

import "gonum.org/v1/gonum/mat"

// Gradient accumulates the partial derivative of the batch objective with
// respect to every weight, shaped like Wh and Wo so it can be added to or
// subtracted from them directly.
type Gradient struct {
	Wh *mat.Dense
	Wo *mat.Dense
}

// NewGradient allocates a zeroed Gradient matching n's topology.
func (n *Network) NewGradient() *Gradient {
	return &Gradient{
		Wh: mat.NewDense(n.NHidden, n.NIn+1, nil),
		Wo: mat.NewDense(n.NOut, n.NHidden+1, nil),
	}
}

// BackPropagate runs one back-propagation pass for a single (x, target)
// pair given its already-computed forward trace, and accumulates
// -delta_to * y_from into g for every connection (the gradient of the
// batch objective is the sum of these accumulations across the batch).
func (n *Network) BackPropagate(f *Forward, target []float64, g *Gradient) {
	deltaOut := make([]float64, n.NOut)
	for k := 0; k < n.NOut; k++ {
		deltaOut[k] = (target[k] - f.Output[k]) * f.OutputDeriv[k]
		for j := 0; j < n.NHidden+1; j++ {
			g.Wo.Set(k, j, g.Wo.At(k, j)-deltaOut[k]*f.OutputIn[j])
		}
	}
	deltaHidden := make([]float64, n.NHidden)
	for j := 0; j < n.NHidden; j++ {
		sum := 0.0
		for k := 0; k < n.NOut; k++ {
			sum += deltaOut[k] * n.Wo.At(k, j+1)
		}
		deltaHidden[j] = sum * f.HiddenDeriv[j]
		for i := 0; i < n.NIn+1; i++ {
			g.Wh.Set(j, i, g.Wh.At(j, i)-deltaHidden[j]*f.HiddenIn[i])
		}
	}
}

// BatchGradient runs a forward and backward pass over every sample in the
// dataset and returns the accumulated gradient alongside the total batch
// error (sum of per-pair half-squared errors).
func (n *Network) BatchGradient(inputs, targets [][]float64) (*Gradient, float64) {
	g := n.NewGradient()
	total := 0.0
	for i := range inputs {
		f := n.Propagate(inputs[i])
		total += PairError(targets[i], f.Output)
		n.BackPropagate(f, targets[i], g)
	}
	return g, total
}
