package runstate_test

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/biome/backend"
	"github.com/viant/biome/runstate"
	"github.com/viant/biome/solver"
)

func TestRunModelDirectBatchIncrementsEachStep(t *testing.T) {
	cfg := runstate.Config{
		Start:      time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
		End:        time.Date(2020, 1, 4, 0, 0, 0, 0, time.UTC),
		StepSize:   24 * time.Hour,
		TimeSteps:  3,
		StateCount: 1,
	}
	buffers := runstate.AllocateResults(cfg)

	model := &runstate.Model{Batches: []*runstate.Batch{
		{Name: "increment", Fn: func(args *backend.BatchArgs) {
			args.StateVars[0]++
		}},
	}}

	rs := &runstate.RunState{Args: backend.BatchArgs{StateVars: make([]float64, 1)}}
	ok, err := runstate.RunModel(cfg, model, rs, buffers)
	require.NoError(t, err)
	assert.True(t, ok)

	// step -1 runs once (1), then 3 steps each seeded from the prior
	// result and incremented again: 2, 3, 4.
	assert.Equal(t, []float64{2}, buffers.Results[0])
	assert.Equal(t, []float64{3}, buffers.Results[1])
	assert.Equal(t, []float64{4}, buffers.Results[2])
}

func TestRunModelNaNCheckAbortsWithDiagnostic(t *testing.T) {
	cfg := runstate.Config{
		Start: time.Now(), End: time.Now().Add(time.Hour),
		StepSize: time.Hour, TimeSteps: 2, StateCount: 1,
		CheckForNaN:  true,
		StateVarName: func(id int) string { return "biomass" },
	}
	buffers := runstate.AllocateResults(cfg)
	model := &runstate.Model{Batches: []*runstate.Batch{
		{Name: "blow_up", Fn: func(args *backend.BatchArgs) {
			args.StateVars[0] = math.NaN()
		}},
	}}
	rs := &runstate.RunState{Args: backend.BatchArgs{StateVars: make([]float64, 1)}}
	ok, err := runstate.RunModel(cfg, model, rs, buffers)
	assert.False(t, ok)
	require.Error(t, err)
	diag, isDiag := err.(*runstate.NaNDiagnostic)
	require.True(t, isDiag)
	assert.Equal(t, "biomass", diag.VariableName)
	assert.Equal(t, 0, diag.Step)
}

func TestRunModelValidatesBounds(t *testing.T) {
	cfg := runstate.Config{
		Start: time.Now(), End: time.Now().Add(-time.Hour),
		TimeSteps: 1, StateCount: 1,
	}
	buffers := runstate.AllocateResults(runstate.Config{TimeSteps: 1, StateCount: 1})
	_, err := runstate.RunModel(cfg, &runstate.Model{}, &runstate.RunState{}, buffers)
	assert.Error(t, err)
}

func TestRunModelWithSolverIntegratesODE(t *testing.T) {
	cfg := runstate.Config{
		Start: time.Now(), End: time.Now().Add(time.Hour),
		StepSize: time.Hour, TimeSteps: 1, StateCount: 1,
	}
	buffers := runstate.AllocateResults(cfg)
	model := &runstate.Model{Batches: []*runstate.Batch{
		{
			Name: "decay",
			Fn: func(args *backend.BatchArgs) {
				args.SolverWorkspace[0] = -args.StateVars[0]
			},
			Solver: &runstate.SolverDescriptor{
				Step: solver.NewRK4().Step, FirstODEOffset: 0, NumODE: 1, H: 0.1, HMin: 1e-6,
			},
		},
	}}
	rs := &runstate.RunState{Args: backend.BatchArgs{
		StateVars:       []float64{1.0},
		SolverWorkspace: make([]float64, 1),
	}}
	ok, err := runstate.RunModel(cfg, model, rs, buffers)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Less(t, buffers.Results[0][0], 1.0)
}
