package emulator_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/viant/biome/diagnostics"
	"github.com/viant/biome/emulator"
	"github.com/viant/biome/mathir"
)

type fakeEnv struct {
	globals map[[2]int]float64
	calls   map[string]func([]emulator.Value) emulator.Value
}

func newFakeEnv() *fakeEnv {
	return &fakeEnv{globals: map[[2]int]float64{}, calls: map[string]func([]emulator.Value) emulator.Value{}}
}

func (e *fakeEnv) Global(scope, idx int) float64       { return e.globals[[2]int{scope, idx}] }
func (e *fakeEnv) SetGlobal(scope, idx int, v float64) { e.globals[[2]int{scope, idx}] = v }
func (e *fakeEnv) CallFunction(name string, args []emulator.Value) (emulator.Value, bool) {
	fn, ok := e.calls[name]
	if !ok {
		return emulator.Value{}, false
	}
	return fn(args), true
}
func (e *fakeEnv) CallExternal(name string, triples [][3]float64) {}

var loc = diagnostics.SourceLoc{}

func TestEvalArithmetic(t *testing.T) {
	tests := []struct {
		name string
		node mathir.Node
		want float64
	}{
		{"add", &mathir.BinaryOp{Op: "+", LHS: mathir.RealLit(2, loc), RHS: mathir.RealLit(3, loc)}, 5},
		{"mul_identity_survives_plain_eval", &mathir.BinaryOp{Op: "*", LHS: mathir.RealLit(4, loc), RHS: mathir.RealLit(1, loc)}, 4},
		{"intrinsic_sqrt", &mathir.FunctionCall{Name: "sqrt", Intrinsic: true, Args: []mathir.Node{mathir.RealLit(9, loc)}}, 3},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			env := newFakeEnv()
			got := emulator.NewInterpreter(env).Eval(tc.node)
			assert.Equal(t, tc.want, got.Real())
		})
	}
}

func TestEvalGlobalStateVarRoundTrip(t *testing.T) {
	env := newFakeEnv()
	interp := emulator.NewInterpreter(env)

	assign := &mathir.StateVarAssignment{StateVarID: 2, Value: mathir.RealLit(42, loc)}
	interp.Eval(assign)

	read := &mathir.Identifier{Header: mathir.Header{}, ScopeID: mathir.ScopeStateVar, LocalID: 2}
	got := interp.Eval(read)
	assert.Equal(t, 42.0, got.Real())
}

func TestEvalBlockLoopWritesLastIndex(t *testing.T) {
	env := newFakeEnv()
	interp := emulator.NewInterpreter(env)

	// for i in 0..3: state_var[0] = i. Checks that the loop var advances
	// and that the last iteration's value is observable via a state write.
	scopeID := 7
	block := &mathir.Block{
		ScopeID: scopeID,
		Count:   mathir.IntLit(3, loc),
		LoopVar: 0,
		Stmts: []mathir.Node{
			&mathir.StateVarAssignment{
				StateVarID: 0,
				Value:      &mathir.Identifier{ScopeID: scopeID, LocalID: 0},
			},
		},
	}
	interp.Eval(block)
	got := interp.Eval(&mathir.Identifier{ScopeID: mathir.ScopeStateVar, LocalID: 0})
	assert.Equal(t, 2.0, got.Real()) // last iteration index is 2
}

func TestEvalExternalCallDispatch(t *testing.T) {
	env := newFakeEnv()
	env.calls["double"] = func(args []emulator.Value) emulator.Value {
		return emulator.RealValue(args[0].Real() * 2)
	}
	interp := emulator.NewInterpreter(env)
	call := &mathir.FunctionCall{Name: "double", Args: []mathir.Node{mathir.RealLit(21, loc)}}
	got := interp.Eval(call)
	assert.Equal(t, 42.0, got.Real())
}

func TestEvalIfChainPicksFirstTrueBranch(t *testing.T) {
	env := newFakeEnv()
	interp := emulator.NewInterpreter(env)
	chain := &mathir.IfChain{Branches: []mathir.IfBranch{
		{Cond: mathir.BoolLit(false, loc), Body: mathir.RealLit(1, loc)},
		{Cond: mathir.BoolLit(true, loc), Body: mathir.RealLit(2, loc)},
		{Cond: nil, Body: mathir.RealLit(3, loc)},
	}}
	got := interp.Eval(chain)
	assert.Equal(t, 2.0, got.Real())
}
