// Package dataset holds the identification data used to build a D-RM:
// npair rows, each ninput+noutput columns wide (input channels, then
// output channels), plus the per-column mean/sigma scaling every model
// family trains against.
package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"gonum.org/v1/gonum/stat"
)

// DataSet is the identification data passed to a DRM build: npair rows,
// each ninput+noutput columns wide.
type DataSet struct {
	NInput  int
	NOutput int

	rows  [][]float64 // npair x (ninput+noutput), mutated in place by scaling
	mean  []float64
	sigma []float64
}

// New builds a DataSet from already-assembled rows, each ninput+noutput
// columns wide.
func New(ninput, noutput int, rows [][]float64) (*DataSet, error) {
	if ninput <= 0 || noutput <= 0 {
		return nil, fmt.Errorf("dataset: ninput and noutput must be positive, got ninput=%d noutput=%d", ninput, noutput)
	}
	width := ninput + noutput
	for i, row := range rows {
		if len(row) != width {
			return nil, fmt.Errorf("dataset: row %d has length %d, expected %d", i, len(row), width)
		}
	}
	return &DataSet{NInput: ninput, NOutput: noutput, rows: rows}, nil
}

// NewFromColumnMajor builds a DataSet from a flat npair*(ninput+noutput)
// tensor laid out column-major: all npair samples of column 0, then all
// samples of column 1, and so on, matching the build interface's
// training tensor layout (§6).
func NewFromColumnMajor(ninput, noutput, npair int, flat []float64) (*DataSet, error) {
	width := ninput + noutput
	if len(flat) != npair*width {
		return nil, fmt.Errorf("dataset: column-major tensor has length %d, expected %d", len(flat), npair*width)
	}
	rows := make([][]float64, npair)
	for i := range rows {
		rows[i] = make([]float64, width)
	}
	for col := 0; col < width; col++ {
		for i := 0; i < npair; i++ {
			rows[i][col] = flat[col*npair+i]
		}
	}
	return New(ninput, noutput, rows)
}

// NewFromCSV loads identification data from a CSV file, each record
// ninput+noutput fields wide.
func NewFromCSV(path string, ninput, noutput int) (*DataSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("dataset: %w", err)
	}
	defer f.Close()
	rows, err := LoadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("dataset: %w", err)
	}
	return New(ninput, noutput, rows)
}

// LoadCSV reads a CSV identification dataset; every record becomes one row.
func LoadCSV(r io.Reader) ([][]float64, error) {
	cr := csv.NewReader(r)
	var rows [][]float64
	var width int
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if len(rows) == 0 {
			width = len(record)
		}
		if len(record) != width {
			return nil, fmt.Errorf("dataset: inconsistent field count: %d", len(record))
		}
		row := make([]float64, width)
		for i, field := range record {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, err
			}
			row[i] = v
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// Rows returns the (possibly scaled) identification rows.
func (d *DataSet) Rows() [][]float64 { return d.rows }

// NPair returns the number of identification samples.
func (d *DataSet) NPair() int { return len(d.rows) }

// Mean returns the per-column sample mean computed by CalcMeanAndSigma.
func (d *DataSet) Mean() []float64 { return d.mean }

// Sigma returns the per-column sample standard deviation computed by
// CalcMeanAndSigma.
func (d *DataSet) Sigma() []float64 { return d.sigma }

// CalcMeanAndSigma computes the sample mean and standard deviation
// (N-1 denominator, via gonum/stat) of every column.
func (d *DataSet) CalcMeanAndSigma() {
	width := d.NInput + d.NOutput
	d.mean = make([]float64, width)
	d.sigma = make([]float64, width)
	col := make([]float64, len(d.rows))
	for j := 0; j < width; j++ {
		for i, row := range d.rows {
			col[i] = row[j]
		}
		d.mean[j], d.sigma[j] = stat.MeanStdDev(col, nil)
	}
}

// ScaleInputData centers and scales the input columns (0..ninput-1) to
// zero mean, unit variance using the statistics from CalcMeanAndSigma.
func (d *DataSet) ScaleInputData() error {
	return d.scaleColumns(0, d.NInput)
}

// ScaleOutputData centers and scales the output columns
// (ninput..ninput+noutput-1).
func (d *DataSet) ScaleOutputData() error {
	return d.scaleColumns(d.NInput, d.NInput+d.NOutput)
}

func (d *DataSet) scaleColumns(lo, hi int) error {
	if d.mean == nil || d.sigma == nil {
		return fmt.Errorf("dataset: CalcMeanAndSigma must run before scaling")
	}
	for _, row := range d.rows {
		for j := lo; j < hi; j++ {
			if d.sigma[j] != 0 {
				row[j] = (row[j] - d.mean[j]) / d.sigma[j]
			}
		}
	}
	return nil
}

// InputsAndTargets splits each row into its input-channel slice and its
// output-channel slice, the shape dabnet.Dabnet and narma.Narma training
// expect.
func (d *DataSet) InputsAndTargets() (inputs [][]float64, outputs [][]float64) {
	inputs = make([][]float64, len(d.rows))
	outputs = make([][]float64, len(d.rows))
	for i, row := range d.rows {
		in := make([]float64, d.NInput)
		copy(in, row[:d.NInput])
		out := make([]float64, d.NOutput)
		copy(out, row[d.NInput:])
		inputs[i] = in
		outputs[i] = out
	}
	return inputs, outputs
}

// OutputColumn returns the j-th output channel (0-based) across every
// identification row, the target sequence one Dabnet model trains
// against.
func (d *DataSet) OutputColumn(j int) []float64 {
	col := make([]float64, len(d.rows))
	for i, row := range d.rows {
		col[i] = row[d.NInput+j]
	}
	return col
}
