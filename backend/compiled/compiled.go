// Package compiled implements backend.Backend by deferring to a pluggable
// NativeCompiler, per spec.md §4.6. The original's concrete emitter
// (LLVM IR generation, llvm_jit.cpp) is explicitly out of scope (spec.md §1);
// this package specifies the contract a real native-JIT implementation would
// satisfy, plus a no-op NativeCompiler so the rest of the tree (runstate,
// cmd/biome) can depend on backend.Backend without depending on any
// particular JIT library.
package compiled

import (
	"errors"

	"github.com/viant/biome/backend"
	"github.com/viant/biome/mathir"
)

// ErrNoNativeCompiler is returned by Compile when no NativeCompiler has been
// plugged in.
var ErrNoNativeCompiler = errors.New("compiled: no native compiler configured")

// NativeCompiler turns a named IR tree plus a global-constant table into a
// callable backend.BatchFunc. A real implementation would lower the IR to
// native code (e.g. via an LLVM binding) and return a func wrapping the
// compiled entry point.
type NativeCompiler interface {
	CompileModule(name string, root mathir.Node, consts map[string]float64) (backend.BatchFunc, error)
}

// noopCompiler is the zero-value NativeCompiler: every CompileModule call
// fails with ErrNoNativeCompiler.
type noopCompiler struct{}

func (noopCompiler) CompileModule(string, mathir.Node, map[string]float64) (backend.BatchFunc, error) {
	return nil, ErrNoNativeCompiler
}

// Backend is a backend.Backend that defers actual code generation to a
// NativeCompiler, falling back to noopCompiler (every Compile call fails)
// until one is plugged in via WithCompiler.
type Backend struct {
	compiler NativeCompiler
	consts   map[string]float64
	modules  map[string]*backend.Module
}

func New() *Backend {
	return &Backend{compiler: noopCompiler{}, modules: map[string]*backend.Module{}}
}

// WithCompiler plugs in a real NativeCompiler, returning b for chaining.
func (b *Backend) WithCompiler(c NativeCompiler) *Backend {
	b.compiler = c
	return b
}

func (b *Backend) Initialize() error {
	b.consts = map[string]float64{}
	b.modules = map[string]*backend.Module{}
	return nil
}

func (b *Backend) CreateModule(name string, root mathir.Node) error {
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

func (b *Backend) Compile() error {
	for name, mod := range b.modules {
		fn, err := b.compiler.CompileModule(name, mod.Root, b.consts)
		if err != nil {
			return err
		}
		mod.Fn = fn
	}
	return nil
}

func (b *Backend) Lookup(name string) (backend.BatchFunc, error) {
	mod, ok := b.modules[name]
	if !ok || mod.Fn == nil {
		return nil, errors.New("compiled: module " + name + " not compiled")
	}
	return mod.Fn, nil
}

func (b *Backend) Free() error {
	b.modules = nil
	b.consts = nil
	return nil
}
