// Package simplex implements the Nelder-Mead downhill simplex method used
// to tune Laguerre pole locations against a scalar objective, with
// element-wise bound clamping on every candidate point.
package simplex

import (
	"fmt"
	"math"
)

// tiny guards the relative-error denominator against division by zero
// when the best objective value is exactly zero.
const tiny = 1e-10

// Objective is the scalar function being minimized.
type Objective func(p []float64) float64

// Config holds the Nelder-Mead coefficients and convergence tolerances.
type Config struct {
	Reflection  float64 // default 1
	Expansion   float64 // default 2
	Contraction float64 // default 0.5
	Shrink      float64 // default 0.5
	RelTol      float64 // default 2e-4
	MaxIters    int     // default 50*n, set by New if zero
}

// DefaultConfig returns the conventional Nelder-Mead coefficients.
func DefaultConfig() Config {
	return Config{
		Reflection:  1,
		Expansion:   2,
		Contraction: 0.5,
		Shrink:      0.5,
		RelTol:      2e-4,
	}
}

// vertex is one simplex point: n coordinates followed by its objective value.
type vertex []float64

// Simplex drives the Nelder-Mead search over n variables bounded
// component-wise by [min, max].
type Simplex struct {
	n    int
	cfg  Config
	obj  Objective
	min  []float64
	max  []float64
	v    []vertex // n+1 vertices
	psum []float64
}

// New builds a Simplex for an n-variable objective with component-wise
// bounds min/max (each length n). If cfg.MaxIters is zero it defaults to
// 50*n, matching the source tool's convention.
func New(n int, obj Objective, min, max []float64, cfg Config) (*Simplex, error) {
	if n <= 0 {
		return nil, fmt.Errorf("simplex: number of variables must be positive, got %d", n)
	}
	if len(min) != n || len(max) != n {
		return nil, fmt.Errorf("simplex: bounds must have length %d, got min=%d max=%d", n, len(min), len(max))
	}
	if cfg.MaxIters == 0 {
		cfg.MaxIters = 50 * n
	}
	return &Simplex{n: n, cfg: cfg, obj: obj, min: min, max: max, psum: make([]float64, n)}, nil
}

func (s *Simplex) clamp(p []float64) {
	for i := range p {
		if p[i] < s.min[i] {
			p[i] = s.min[i]
		}
		if p[i] > s.max[i] {
			p[i] = s.max[i]
		}
	}
}

func (s *Simplex) evaluate(v vertex) float64 {
	fun := s.obj(v[:s.n])
	v[s.n] = fun
	return fun
}

// Init seeds the simplex from starting point p0 and per-coordinate step
// lengths step: vertex 0 is p0, vertex j (1-indexed) offsets coordinate
// j-1 by step[j-1], clamped to bounds.
func (s *Simplex) Init(p0, step []float64) error {
	if len(p0) != s.n || len(step) != s.n {
		return fmt.Errorf("simplex: p0/step must have length %d", s.n)
	}
	s.v = make([]vertex, s.n+1)
	v0 := make(vertex, s.n+1)
	copy(v0, p0)
	s.v[0] = v0
	for j := 1; j <= s.n; j++ {
		vj := make(vertex, s.n+1)
		copy(vj, p0)
		vj[j-1] += step[j-1]
		s.clamp(vj[:s.n])
		s.v[j] = vj
	}
	for _, v := range s.v {
		s.evaluate(v)
	}
	s.calcPsum()
	return nil
}

func (s *Simplex) calcPsum() {
	for i := 0; i < s.n; i++ {
		sum := 0.0
		for j := 0; j <= s.n; j++ {
			sum += s.v[j][i]
		}
		s.psum[i] = sum
	}
}

// sortVertices orders vertices by objective value ascending.
func (s *Simplex) sortVertices() {
	for i := 0; i < s.n; i++ {
		for j := i + 1; j <= s.n; j++ {
			if s.v[j][s.n] < s.v[i][s.n] {
				s.v[j], s.v[i] = s.v[i], s.v[j]
			}
		}
	}
}

// newPoint computes a trial point reflected/expanded/contracted from the
// worst vertex through the centroid of the rest, by coefficient coef, and
// clamps it to bounds.
func (s *Simplex) newPoint(coef float64) vertex {
	cnew := (coef + 1) / float64(s.n)
	cnew1 := cnew + coef
	p := make(vertex, s.n+1)
	for i := 0; i < s.n; i++ {
		p[i] = cnew*s.psum[i] - cnew1*s.v[s.n][i]
	}
	s.clamp(p[:s.n])
	return p
}

func (s *Simplex) replaceWorst(p vertex) {
	for i := 0; i < s.n; i++ {
		s.psum[i] += p[i] - s.v[s.n][i]
	}
	s.v[s.n] = p
}

func (s *Simplex) shrink() {
	best := s.v[0]
	for i := 1; i <= s.n; i++ {
		for j := 0; j < s.n; j++ {
			s.v[i][j] = best[j] + s.cfg.Shrink*(s.v[i][j]-best[j])
		}
		s.evaluate(s.v[i])
	}
	s.calcPsum()
}

// Result is the outcome of an Optimize run.
type Result struct {
	Best       []float64
	BestValue  float64
	Iterations int
	Converged  bool
}

// Optimize runs the Nelder-Mead iteration to convergence or MaxIters,
// whichever comes first, and returns the best vertex found. Init must be
// called first.
func (s *Simplex) Optimize() (Result, error) {
	if s.v == nil {
		return Result{}, fmt.Errorf("simplex: Init must be called before Optimize")
	}
	nite := 0
	for {
		s.sortVertices()

		ferra := math.Abs(s.v[s.n][s.n] - s.v[0][s.n])
		ferrr := ferra / (math.Abs(s.v[0][s.n]) + tiny)

		dxMax := 0.0
		for i := 0; i < s.n; i++ {
			dx := math.Abs(s.v[s.n][i] - s.v[0][i])
			if dx > 0 {
				dx = math.Abs(dx / s.v[0][i])
			}
			if dx > dxMax {
				dxMax = dx
			}
		}

		if ferrr < s.cfg.RelTol || dxMax < s.cfg.RelTol {
			s.evaluate(s.v[0])
			return s.result(nite, true), nil
		}
		if nite >= s.cfg.MaxIters {
			s.evaluate(s.v[0])
			return s.result(nite, false), nil
		}
		nite++

		reflected := s.newPoint(s.cfg.Reflection)
		fref := s.evaluate(reflected)

		switch {
		case fref < s.v[s.n-1][s.n] && fref > s.v[0][s.n]:
			s.replaceWorst(reflected)
		case fref < s.v[0][s.n]:
			expanded := s.newPoint(s.cfg.Expansion)
			fexp := s.evaluate(expanded)
			if fexp < fref {
				s.replaceWorst(expanded)
			} else {
				s.replaceWorst(reflected)
			}
		default:
			contracted := s.newPoint(-s.cfg.Contraction)
			fcon := s.evaluate(contracted)
			if fcon < s.v[s.n][s.n] {
				s.replaceWorst(contracted)
			} else {
				s.shrink()
			}
		}
	}
}

func (s *Simplex) result(nite int, converged bool) Result {
	best := make([]float64, s.n)
	copy(best, s.v[0][:s.n])
	return Result{Best: best, BestValue: s.v[0][s.n], Iterations: nite, Converged: converged}
}
