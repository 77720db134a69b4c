package trainseq

import (
	"fmt"
	"math/rand"
)

// DimSpec describes one input dimension: its bounds, default value (used
// when the dimension is held fixed), and whether it is varied by the LHS
// draw at all.
type DimSpec struct {
	Lower, Upper, Default float64
	Varied                bool
}

// Spec configures an entire training-sequence assembly.
type Spec struct {
	Dims        []DimSpec
	PointsPerDuration int // p
	Durations   int       // m
	StepCounts  []int     // length Durations, samples to hold each point for
	InitSteps   int       // d0, steady-state lead-in length
	BestOfN     int       // number of LHS draws per duration to pick the best from
	QualityP    float64   // exponent for QualityPhi, conventionally 50
	Reverse     bool
}

// variedIndices returns the 0-based indices of Dims that are varied.
func (s Spec) variedIndices() []int {
	var idx []int
	for i, d := range s.Dims {
		if d.Varied {
			idx = append(idx, i)
		}
	}
	return idx
}

// binToValue maps an LHS bin index in [0,p) to a real value via its bin
// center, matching the conventional Latin Hypercube bin-to-value mapping.
func binToValue(idx, p int, lower, upper float64) float64 {
	return lower + (float64(idx)+0.5)*(upper-lower)/float64(p)
}

// Assemble runs the full training-sequence pipeline: best-of-n LHS draws
// per duration (chained so each duration's first row matches the
// previous duration's last row), converts bin indices to real values,
// and emits the flat row-major sequence: InitSteps lead-in rows (the
// defaults with the varied coordinates taken from the first duration's
// first row), then each duration's
// points (skipping its first, already emitted as the chaining point)
// repeated across its step count, optionally followed by the mirrored
// reverse (omitting the final point).
func Assemble(spec Spec, rnd *rand.Rand) ([][]float64, error) {
	varied := spec.variedIndices()
	nVaried := len(varied)
	if nVaried == 0 {
		return nil, fmt.Errorf("trainseq: spec must vary at least one dimension")
	}
	if len(spec.StepCounts) != spec.Durations {
		return nil, fmt.Errorf("trainseq: expected %d step counts, got %d", spec.Durations, len(spec.StepCounts))
	}
	if spec.PointsPerDuration < 2 {
		return nil, fmt.Errorf("trainseq: points per duration must be at least 2, got %d", spec.PointsPerDuration)
	}

	// steady-state defaults row, full dimension
	steady := make([]float64, len(spec.Dims))
	for i, d := range spec.Dims {
		steady[i] = d.Default
	}

	durationRows := make([][][]float64, spec.Durations) // per duration, full-dim rows (length p)
	var prevLastIdx []int                                // bin indices of the previous duration's last row

	for dur := 0; dur < spec.Durations; dur++ {
		draw := func() (*LHS, error) {
			if prevLastIdx == nil {
				return SimpleSampling(nVaried, spec.PointsPerDuration, rnd)
			}
			return GivenFirstSampling(nVaried, spec.PointsPerDuration, prevLastIdx, rnd)
		}
		n := spec.BestOfN
		if n <= 0 {
			n = 1
		}
		lhs, err := BestOfN(n, spec.QualityP, draw)
		if err != nil {
			return nil, fmt.Errorf("trainseq: duration %d LHS draw failed: %w", dur, err)
		}

		rows := make([][]float64, spec.PointsPerDuration)
		for r := 0; r < spec.PointsPerDuration; r++ {
			row := make([]float64, len(spec.Dims))
			copy(row, steady)
			for vi, dim := range varied {
				row[dim] = binToValue(lhs.X[r][vi], spec.PointsPerDuration, spec.Dims[dim].Lower, spec.Dims[dim].Upper)
			}
			rows[r] = row
		}
		durationRows[dur] = rows
		prevLastIdx = lhs.X[spec.PointsPerDuration-1]
	}

	var out [][]float64
	steadyVaried := make([]float64, len(spec.Dims))
	copy(steadyVaried, steady)
	for _, vi := range varied {
		steadyVaried[vi] = durationRows[0][0][vi]
	}
	for i := 0; i < spec.InitSteps; i++ {
		out = append(out, cloneRow(steadyVaried))
	}

	var fwd [][]float64
	for dur := 0; dur < spec.Durations; dur++ {
		rows := durationRows[dur]
		steps := spec.StepCounts[dur]
		for r := 1; r < spec.PointsPerDuration; r++ {
			for s := 0; s < steps; s++ {
				fwd = append(fwd, cloneRow(rows[r]))
			}
		}
	}
	out = append(out, fwd...)

	if spec.Reverse && len(fwd) > 0 {
		for i := len(fwd) - 2; i >= 0; i-- {
			out = append(out, cloneRow(fwd[i]))
		}
	}

	return out, nil
}

func cloneRow(r []float64) []float64 {
	out := make([]float64, len(r))
	copy(out, r)
	return out
}
