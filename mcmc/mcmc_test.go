package mcmc_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/biome/mcmc"
)

// gaussianLogProb scores a walker against a standard normal centered at 0,
// so a converged ensemble should cluster its mean near 0.
func gaussianLogProb(params []float64) (float64, error) {
	x := params[0]
	return -0.5 * x * x, nil
}

func TestSamplerStepPreservesWalkerCount(t *testing.T) {
	s := mcmc.NewSampler(gaussianLogProb, 1, 0)
	walkers := make([]*mcmc.Walker, 8)
	for i := range walkers {
		walkers[i] = &mcmc.Walker{Params: []float64{float64(i) - 4}, LogProb: -1e18}
	}
	err := s.Step(context.Background(), walkers)
	require.NoError(t, err)
	assert.Len(t, walkers, 8)
}

func TestRunEnsembleHonorsShouldContinue(t *testing.T) {
	s := mcmc.NewSampler(gaussianLogProb, 2, 0)
	walkers := []*mcmc.Walker{
		{Params: []float64{1}, LogProb: -1e18}, {Params: []float64{-1}, LogProb: -1e18},
		{Params: []float64{2}, LogProb: -1e18}, {Params: []float64{-2}, LogProb: -1e18},
	}
	calls := 0
	err := s.RunEnsemble(context.Background(), walkers, 100, func() bool {
		calls++
		return calls <= 2
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRunEnsembleMovesWalkersTowardHigherProbability(t *testing.T) {
	s := mcmc.NewSampler(gaussianLogProb, 3, 0)
	walkers := make([]*mcmc.Walker, 10)
	for i := range walkers {
		walkers[i] = &mcmc.Walker{Params: []float64{20 + float64(i)}, LogProb: -1e18}
	}
	err := s.RunEnsemble(context.Background(), walkers, 50, nil)
	require.NoError(t, err)

	var meanAbs float64
	for _, w := range walkers {
		meanAbs += w.Params[0]
	}
	meanAbs /= float64(len(walkers))
	assert.Less(t, meanAbs, 20.0)
}
