package model_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/biome/ast"
	"github.com/viant/biome/catalog"
	"github.com/viant/biome/diagnostics"
	"github.com/viant/biome/lexer"
	"github.com/viant/biome/mathir"
	"github.com/viant/biome/model"
	"github.com/viant/biome/tokenstream"
)

func parseDecls(t *testing.T, src string) []*ast.Decl {
	t.Helper()
	sink := &diagnostics.Sink{}
	l := lexer.New([]byte(src), "test.model", sink)
	stream := tokenstream.New(l)
	decls := ast.New(stream, sink).ParseFile()
	require.Empty(t, sink.Errors())
	return decls
}

const modelSrc = `
unit("kilogram", "kg")
solver("rk4_solver") @kind("rk4")
constant("decay_rate", 0.05)

module("pond") {
  state_var("biomass") [10.0] @unit(kilogram) @solver(rk4_solver) {
    derivative( - (decay_rate * biomass) )
  }
  state_var("alert") {
    assign( sqrt(biomass) )
  }
}
`

func TestLoaderRegistersEntitiesAndEquations(t *testing.T) {
	decls := parseDecls(t, modelSrc)
	sink := &diagnostics.Sink{}
	cat := catalog.New(sink)

	m := model.NewLoader(cat, sink).Load(decls, cat.Global())
	require.Empty(t, sink.Errors())

	assert.Len(t, m.Units, 1)
	assert.Len(t, m.Solvers, 1)
	assert.Len(t, m.Constants, 1)
	assert.Len(t, m.Modules, 1)
	assert.Len(t, m.StateVars, 2)
	assert.Len(t, m.Equations, 2)

	record := cat.At(m.StateVars[0]).Header()
	assert.Equal(t, "biomass", record.Name)
}

func TestBuilderLowersEquationsIntoSolverAndDirectBatches(t *testing.T) {
	decls := parseDecls(t, modelSrc)
	sink := &diagnostics.Sink{}
	cat := catalog.New(sink)

	m := model.NewLoader(cat, sink).Load(decls, cat.Global())
	require.Empty(t, sink.Errors())

	batches := model.NewBuilder(cat, sink).Build(m)
	require.Empty(t, sink.Errors())
	require.Len(t, batches, 2)

	var solverBatch, directBatch *model.Batch
	for _, b := range batches {
		if b.SolverID.Valid() {
			solverBatch = b
		} else {
			directBatch = b
		}
	}
	require.NotNil(t, solverBatch)
	require.NotNil(t, directBatch)

	assert.Equal(t, 1, solverBatch.NumODE)
	block, ok := solverBatch.Root.(*mathir.Block)
	require.True(t, ok)
	require.Len(t, block.Stmts, 1)
	_, ok = block.Stmts[0].(*mathir.DerivativeAssignment)
	assert.True(t, ok)

	block, ok = directBatch.Root.(*mathir.Block)
	require.True(t, ok)
	require.Len(t, block.Stmts, 1)
	assign, ok := block.Stmts[0].(*mathir.StateVarAssignment)
	require.True(t, ok)
	call, ok := assign.Value.(*mathir.FunctionCall)
	require.True(t, ok)
	assert.True(t, call.Intrinsic, "sqrt must be marked intrinsic")
}

func TestResolveExternalReportsUndeclaredIdentifier(t *testing.T) {
	src := `
module("m") {
  state_var("x") {
    assign( nonexistent_name )
  }
}
`
	decls := parseDecls(t, src)
	sink := &diagnostics.Sink{}
	cat := catalog.New(sink)
	m := model.NewLoader(cat, sink).Load(decls, cat.Global())
	require.Empty(t, sink.Errors())

	model.NewBuilder(cat, sink).Build(m)
	assert.NotEmpty(t, sink.Errors())
}
