package dataset

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewRejectsBadDimensionsAndRowWidth(t *testing.T) {
	assert := assert.New(t)
	_, err := New(0, 1, [][]float64{{1, 2}})
	assert.Error(err)
	_, err = New(1, 1, [][]float64{{1, 2, 3}})
	assert.Error(err)
}

func TestNewFromColumnMajorTransposesIntoRows(t *testing.T) {
	assert := assert.New(t)
	// 3 pairs, ninput=1, noutput=1: column 0 is [1,2,3], column 1 is [10,20,30].
	flat := []float64{1, 2, 3, 10, 20, 30}
	d, err := NewFromColumnMajor(1, 1, 3, flat)
	assert.NoError(err)
	assert.Equal([][]float64{{1, 10}, {2, 20}, {3, 30}}, d.Rows())
}

func TestNewFromColumnMajorRejectsWrongLength(t *testing.T) {
	assert := assert.New(t)
	_, err := NewFromColumnMajor(1, 1, 3, []float64{1, 2, 3})
	assert.Error(err)
}

func TestCalcMeanAndSigmaAndScaling(t *testing.T) {
	assert := assert.New(t)
	rows := [][]float64{
		{1, 10},
		{2, 20},
		{3, 30},
	}
	d, err := New(1, 1, rows)
	assert.NoError(err)
	d.CalcMeanAndSigma()
	assert.InDelta(2.0, d.Mean()[0], 1e-9)
	assert.InDelta(20.0, d.Mean()[1], 1e-9)
	assert.Greater(d.Sigma()[0], 0.0)

	assert.NoError(d.ScaleInputData())
	assert.NoError(d.ScaleOutputData())
	// scaled column mean is ~0.
	sum := 0.0
	for _, row := range d.Rows() {
		sum += row[0]
	}
	assert.InDelta(0.0, sum/3, 1e-9)
}

func TestScaleBeforeCalcMeanAndSigmaFails(t *testing.T) {
	assert := assert.New(t)
	d, err := New(1, 1, [][]float64{{1, 2}, {3, 4}})
	assert.NoError(err)
	assert.Error(d.ScaleInputData())
}

func TestInputsAndTargetsAndOutputColumn(t *testing.T) {
	assert := assert.New(t)
	rows := [][]float64{
		{1, 2, 10},
		{3, 4, 20},
	}
	d, err := New(2, 1, rows)
	assert.NoError(err)
	inputs, outputs := d.InputsAndTargets()
	assert.Equal([][]float64{{1, 2}, {3, 4}}, inputs)
	assert.Equal([][]float64{{10}, {20}}, outputs)
	assert.Equal([]float64{10, 20}, d.OutputColumn(0))
}

func TestLoadCSV(t *testing.T) {
	assert := assert.New(t)
	rows, err := LoadCSV(strings.NewReader("1,2,3\n4,5,6"))
	assert.NoError(err)
	assert.Equal([][]float64{{1, 2, 3}, {4, 5, 6}}, rows)

	_, err = LoadCSV(strings.NewReader("1,2,3\n4,5"))
	assert.Error(err)

	_, err = LoadCSV(strings.NewReader("1,x,3"))
	assert.Error(err)
}

func TestNewFromCSVRejectsMissingFile(t *testing.T) {
	assert := assert.New(t)
	_, err := NewFromCSV("/nonexistent/path.csv", 1, 1)
	assert.Error(err)
}
