// Package emulate implements backend.Backend by wrapping package emulator:
// "compiling" a module is simply keeping its IR root around, and a batch
// invocation tree-walks it, per spec.md §4.6's emulator backend.
package emulate

import (
	"fmt"

	"github.com/viant/biome/backend"
	"github.com/viant/biome/emulator"
	"github.com/viant/biome/extcall"
	"github.com/viant/biome/mathir"
)

// Backend is the emulator-backed implementation of backend.Backend.
type Backend struct {
	consts  map[string]float64
	modules map[string]*backend.Module
	calls   *extcall.Registry
}

// New constructs an emulate Backend; calls, if non-nil, is consulted for
// non-intrinsic FunctionCall names (externally linked computations).
func New(calls *extcall.Registry) *Backend {
	if calls == nil {
		calls = extcall.NewRegistry()
	}
	return &Backend{modules: map[string]*backend.Module{}, calls: calls}
}

func (b *Backend) Initialize() error {
	b.consts = map[string]float64{}
	b.modules = map[string]*backend.Module{}
	return nil
}

func (b *Backend) CreateModule(name string, root mathir.Node) error {
	if _, exists := b.modules[name]; exists {
		return fmt.Errorf("emulate: module %q already created", name)
	}
	b.modules[name] = &backend.Module{Name: name, Root: root}
	return nil
}

func (b *Backend) AddGlobalConstants(consts map[string]float64) error {
	for k, v := range consts {
		b.consts[k] = v
	}
	return nil
}

func (b *Backend) AddBatch(name string, root mathir.Node) error {
	return b.CreateModule(name, root)
}

// Compile builds each registered module's BatchFunc: a closure that binds a
// fresh emulator.Interpreter to the BatchArgs passed at call time.
func (b *Backend) Compile() error {
	for name, mod := range b.modules {
		root := mod.Root
		calls := b.calls
		mod.Fn = func(args *backend.BatchArgs) {
			env := &batchEnv{args: args, calls: calls}
			emulator.NewInterpreter(env).Eval(root)
		}
		b.modules[name] = mod
	}
	return nil
}

func (b *Backend) Lookup(name string) (backend.BatchFunc, error) {
	mod, ok := b.modules[name]
	if !ok || mod.Fn == nil {
		return nil, fmt.Errorf("emulate: module %q not compiled", name)
	}
	return mod.Fn, nil
}

func (b *Backend) Free() error {
	b.modules = nil
	b.consts = nil
	return nil
}

// batchEnv adapts one backend.BatchArgs call's flat arrays to emulator.Env.
type batchEnv struct {
	args  *backend.BatchArgs
	calls *extcall.Registry
}

func (e *batchEnv) Global(scope, idx int) float64 {
	switch scope {
	case mathir.ScopeParameter:
		return e.args.Parameters[idx]
	case mathir.ScopeStateVar:
		return e.args.StateVars[idx]
	case mathir.ScopeSeries:
		return e.args.Series[idx]
	case mathir.ScopeTempVar:
		return e.args.SolverWorkspace[idx]
	case mathir.ScopeConnInfo:
		return float64(e.args.ConnectionInfo[idx])
	case mathir.ScopeIndexCount:
		return float64(e.args.IndexCounts[idx])
	default:
		return 0
	}
}

func (e *batchEnv) SetGlobal(scope, idx int, v float64) {
	switch scope {
	case mathir.ScopeStateVar:
		e.args.StateVars[idx] = v
	case mathir.ScopeTempVar:
		e.args.SolverWorkspace[idx] = v
	default:
		// Parameters, series, connection info, and index counts are
		// read-only inputs to a batch invocation per spec.md §4.5; writes
		// to them are a model-building bug, not a runtime condition to
		// recover from, so they're silently dropped here same as the
		// teacher's emitter drops writes to const-qualified fields.
	}
}

func (e *batchEnv) CallFunction(name string, args []emulator.Value) (emulator.Value, bool) {
	scalarArgs := make([]float64, len(args))
	for i, a := range args {
		scalarArgs[i] = a.Real()
	}
	r, ok := e.calls.InvokeScalar(name, scalarArgs)
	if !ok {
		return emulator.Value{}, false
	}
	return emulator.RealValue(r), true
}

func (e *batchEnv) CallExternal(name string, triples [][3]float64) {
	e.calls.Invoke(name, e.args.ExternalBuffer, triples)
}
