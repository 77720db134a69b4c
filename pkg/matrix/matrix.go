// Package matrix provides the dense numerical kernel shared by every
// other package in this module: state-space filters, Laguerre
// realizations, balanced reduction and the neural network all operate
// on *mat.Dense values built and manipulated here.
package matrix

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// Ones returns a matrix of rows x cols filled with 1.0
// It returns error if the supplied number of rows or columns are not positive integers
func Ones(rows, cols int) (*mat.Dense, error) {
	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("matrix: incorrect dimensions supplied: %d x %d", rows, cols)
	}
	onesMx := mat.NewDense(rows, cols, nil)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			onesMx.Set(i, j, 1.0)
		}
	}
	return onesMx, nil
}

// AddBias adds a bias unit (a column of 1.0s) to m and returns the new
// augmented matrix without modifying the original one.
func AddBias(m mat.Matrix) (*mat.Dense, error) {
	rows, _ := m.Dims()
	bias, err := Ones(rows, 1)
	if err != nil {
		return nil, err
	}
	biasMx := new(mat.Dense)
	biasMx.Augment(bias, m)
	return biasMx, nil
}

// MakeRandMx creates a new matrix of size rows x cols initialized to
// values drawn uniformly from (min, max) via the supplied generator.
// When rnd is nil, a package-default seeded generator is used.
func MakeRandMx(rows, cols int, min, max float64, rnd *rand.Rand) (*mat.Dense, error) {
	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("matrix: incorrect dimensions supplied: %d x %d", rows, cols)
	}
	if rnd == nil {
		rnd = rand.New(rand.NewSource(55))
	}
	randVals := make([]float64, rows*cols)
	for i := range randVals {
		randVals[i] = rnd.Float64()*(max-min) + min
	}
	return mat.NewDense(rows, cols, randVals), nil
}

// Mx2Vec unrolls all elements of a matrix into a slice. Elements can be
// unrolled either by row or by column.
func Mx2Vec(m *mat.Dense, byRow bool) []float64 {
	if byRow {
		return mx2VecByRow(m)
	}
	return mx2VecByCol(m)
}

func mx2VecByRow(m *mat.Dense) []float64 {
	rows, cols := m.Dims()
	vec := make([]float64, rows*cols)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			vec[i*cols+j] = m.At(i, j)
		}
	}
	return vec
}

func mx2VecByCol(m *mat.Dense) []float64 {
	rows, cols := m.Dims()
	vec := make([]float64, rows*cols)
	for j := 0; j < cols; j++ {
		for i := 0; i < rows; i++ {
			vec[j*rows+i] = m.At(i, j)
		}
	}
	return vec
}

// SetMx2Vec sets all elements of mx to values stored in vec. It fails
// with error if mx has more elements than vec provides.
func SetMx2Vec(vec []float64, mx *mat.Dense, byRow bool) error {
	r, c := mx.Dims()
	if r*c > len(vec) {
		return fmt.Errorf("matrix: element count mismatch: vec %d, matrix %d", len(vec), r*c)
	}
	if byRow {
		setMx2VecByRow(vec, mx)
		return nil
	}
	setMx2VecByCol(vec, mx)
	return nil
}

func setMx2VecByRow(vec []float64, mx *mat.Dense) {
	rows, cols := mx.Dims()
	acc := 0
	for i := 0; i < rows; i++ {
		mx.SetRow(i, vec[acc:acc+cols])
		acc += cols
	}
}

func setMx2VecByCol(vec []float64, mx *mat.Dense) {
	rows, cols := mx.Dims()
	acc := 0
	for j := 0; j < cols; j++ {
		mx.SetCol(j, vec[acc:acc+rows])
		acc += rows
	}
}

// RowSums returns a slice of sums of all elements in each matrix row.
// It returns nil if m is nil.
func RowSums(m *mat.Dense) []float64 {
	if m == nil {
		return nil
	}
	rows, _ := m.Dims()
	sum := make([]float64, rows)
	for i := 0; i < rows; i++ {
		sum[i] = mat.Sum(m.RowView(i))
	}
	return sum
}

// ColSums returns a slice of sums of all elements in each matrix column.
// It returns nil if m is nil.
func ColSums(m *mat.Dense) []float64 {
	if m == nil {
		return nil
	}
	_, cols := m.Dims()
	sum := make([]float64, cols)
	for j := 0; j < cols; j++ {
		sum[j] = mat.Sum(m.ColView(j))
	}
	return sum
}

// Identity returns the n x n identity matrix.
func Identity(n int) *mat.Dense {
	id := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		id.Set(i, i, 1.0)
	}
	return id
}

// FrobeniusNorm returns the Frobenius norm of m.
func FrobeniusNorm(m mat.Matrix) float64 {
	rows, cols := m.Dims()
	sum := 0.0
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			v := m.At(i, j)
			sum += v * v
		}
	}
	return math.Sqrt(sum)
}

// SpectralRadius returns the largest absolute eigenvalue magnitude of
// the square matrix m.
func SpectralRadius(m *mat.Dense) (float64, error) {
	r, c := m.Dims()
	if r != c {
		return 0, fmt.Errorf("matrix: spectral radius requires a square matrix, got %d x %d", r, c)
	}
	var eig mat.Eigen
	if ok := eig.Factorize(m, mat.EigenNone); !ok {
		return 0, fmt.Errorf("matrix: eigendecomposition failed to converge")
	}
	max := 0.0
	for _, v := range eig.Values(nil) {
		if mag := math.Hypot(real(v), imag(v)); mag > max {
			max = mag
		}
	}
	return max, nil
}
