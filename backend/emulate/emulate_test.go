package emulate_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/biome/backend"
	"github.com/viant/biome/backend/emulate"
	"github.com/viant/biome/diagnostics"
	"github.com/viant/biome/mathir"
)

func TestBackendCompilesAndRunsStateVarWrite(t *testing.T) {
	loc := diagnostics.SourceLoc{}
	root := &mathir.StateVarAssignment{
		StateVarID: 0,
		Value: &mathir.BinaryOp{
			Op:  "+",
			LHS: &mathir.Identifier{ScopeID: mathir.ScopeStateVar, LocalID: 0},
			RHS: mathir.RealLit(1, loc),
		},
	}

	b := emulate.New(nil)
	require.NoError(t, b.Initialize())
	require.NoError(t, b.CreateModule("tick", root))
	require.NoError(t, b.Compile())

	fn, err := b.Lookup("tick")
	require.NoError(t, err)

	args := &backend.BatchArgs{StateVars: []float64{5}}
	fn(args)
	assert.Equal(t, 6.0, args.StateVars[0])
	fn(args)
	assert.Equal(t, 7.0, args.StateVars[0])
}

func TestBackendLookupBeforeCompileFails(t *testing.T) {
	b := emulate.New(nil)
	require.NoError(t, b.Initialize())
	require.NoError(t, b.CreateModule("m", &mathir.NoOp{}))
	_, err := b.Lookup("m")
	assert.Error(t, err)
}
