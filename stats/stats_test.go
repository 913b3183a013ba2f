package stats_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/viant/biome/stats"
)

func TestSummarizeIgnoresNaN(t *testing.T) {
	s := stats.Summarize([]float64{1, 2, math.NaN(), 3})
	assert.Equal(t, 3, s.Count)
	assert.InDelta(t, 2.0, s.Mean, 1e-9)
	assert.Equal(t, 1.0, s.Min)
	assert.Equal(t, 3.0, s.Max)
}

func TestSummarizeAllNaNIsZeroCount(t *testing.T) {
	s := stats.Summarize([]float64{math.NaN(), math.NaN()})
	assert.Equal(t, 0, s.Count)
}

func TestCompareExactMatchIsPerfectFit(t *testing.T) {
	obs := []float64{1, 2, 3, 4}
	sim := []float64{1, 2, 3, 4}
	g := stats.Compare(obs, sim)
	assert.Equal(t, 4, g.N)
	assert.InDelta(t, 0, g.RMSE, 1e-12)
	assert.InDelta(t, 1, g.NashSutcliffe, 1e-9)
	assert.InDelta(t, 1, g.RSquared, 1e-9)
}

func TestCompareSkipsNaNPairs(t *testing.T) {
	obs := []float64{1, math.NaN(), 3}
	sim := []float64{1, 5, 3}
	g := stats.Compare(obs, sim)
	assert.Equal(t, 2, g.N)
}
