package sobol_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/biome/sobol"
)

// linear model y = 3*x0 + x1, so x0 should carry most of the variance.
func linearModel(params []float64) (float64, error) {
	return 3*params[0] + params[1], nil
}

func sampleMatrix(seed, n, d int) [][]float64 {
	rows := make([][]float64, n)
	for r := range rows {
		row := make([]float64, d)
		for c := range row {
			row[c] = float64((r*7+c*13+seed)%100) / 100.0
		}
		rows[r] = row
	}
	return rows
}

func TestComputeIndicesRanksDominantDimensionHigher(t *testing.T) {
	a := sampleMatrix(1, 200, 2)
	b := sampleMatrix(2, 200, 2)

	idx, err := sobol.ComputeIndices(context.Background(), a, b, linearModel, 4)
	require.NoError(t, err)
	assert.Len(t, idx.FirstOrder, 2)
	assert.Greater(t, idx.Total[0], idx.Total[1])
}

func TestComputeIndicesEmptyInput(t *testing.T) {
	idx, err := sobol.ComputeIndices(context.Background(), nil, nil, linearModel, 2)
	require.NoError(t, err)
	assert.Empty(t, idx.FirstOrder)
}

func TestComputeIndicesPropagatesEvalError(t *testing.T) {
	a := sampleMatrix(1, 10, 2)
	b := sampleMatrix(2, 10, 2)
	boom := func(params []float64) (float64, error) { return 0, assert.AnError }
	_, err := sobol.ComputeIndices(context.Background(), a, b, boom, 2)
	assert.Error(t, err)
}
