package matrix

import "math"

// LogMx allows to calculate log of each matrix element
func LogMx(i, j int, x float64) float64 {
	return math.Log(x)
}

// SubtrMx allows to subtract a number from all matrix elements
func SubtrMx(f float64) func(int, int, float64) float64 {
	return func(i, j int, x float64) float64 {
		return f - x
	}
}

// AddMx allows to add an arbitrary number to all matrix elements
func AddMx(f float64) func(int, int, float64) float64 {
	return func(i, j int, x float64) float64 {
		return f + x
	}
}

// PowMx allows to calculate power of matrix elements
func PowMx(f float64) func(int, int, float64) float64 {
	return func(i, j int, x float64) float64 {
		return math.Pow(x, f)
	}
}

// Sigmoid computes the steepness-scaled logistic sigmoid 1/(1+e^(-2s*z)).
func Sigmoid(s, z float64) float64 {
	return 1.0 / (1.0 + math.Exp(-2*s*z))
}

// SigmoidDeriv computes the first derivative of Sigmoid in terms of the
// already-computed activation y: y' = 2*s*y*(1-y).
func SigmoidDeriv(s, y float64) float64 {
	return 2 * s * y * (1 - y)
}

// SigmoidDeriv2 computes the second derivative of Sigmoid in terms of y.
func SigmoidDeriv2(s, y float64) float64 {
	return 4 * s * s * y * (1 - y) * (1 - 2*y)
}

// SymSigmoid computes the symmetric sigmoid 2/(1+e^(-2s*z)) - 1.
func SymSigmoid(s, z float64) float64 {
	return 2.0/(1.0+math.Exp(-2*s*z)) - 1.0
}

// SymSigmoidDeriv computes the first derivative of SymSigmoid in terms
// of y: y' = s*(1-y^2).
func SymSigmoidDeriv(s, y float64) float64 {
	return s * (1 - y*y)
}

// SymSigmoidDeriv2 computes the second derivative of SymSigmoid in terms of y.
func SymSigmoidDeriv2(s, y float64) float64 {
	return 2 * s * s * y * (1 - y*y)
}

// Linear is the identity activation scaled by steepness: y = s*z.
func Linear(s, z float64) float64 {
	return s * z
}

// LinearDeriv is constant: y' = s.
func LinearDeriv(s, y float64) float64 {
	return s
}

// LinearDeriv2 is always zero for the linear activation.
func LinearDeriv2(s, y float64) float64 {
	return 0
}
