// Package backend implements C10: the contract a compiled-module backend
// must satisfy, shared identically by the emulator (backend/emulate) and a
// pluggable native-JIT backend (backend/compiled), per spec.md §4.6.
// Grounded on the teacher's Inspector interface (inspector/golang and
// inspector/jsx both implement one shared contract for "turn source into a
// graph.File"; here the contract is "turn an IR tree into a callable batch
// function" instead).
package backend

import "github.com/viant/biome/mathir"

// DateTime is the expanded calendar timestamp passed to every batch
// invocation, per spec.md §4.5's "date_time_struct" argument.
type DateTime struct {
	Year, Month, Day     int
	Hour, Minute, Second int
	Nanosecond           int
}

// BatchArgs is the batch function contract of spec.md §4.5, verbatim:
// (parameters, series, state_vars, temp_vars, solver_workspace,
// connection_info_globals, index_count_globals, date_time_struct,
// fractional_step) -> void. A compiled module is simply a func(*BatchArgs).
type BatchArgs struct {
	Parameters      []float64
	Series          []float64
	StateVars       []float64
	TempVars        []float64
	SolverWorkspace []float64
	ConnectionInfo  []int32
	IndexCounts     []int32
	DateTime        DateTime
	FractionalStep  float64

	// ExternalBuffer is the flat address space ExternalComputation's
	// (offset, stride, count) triples are relative to, per spec.md §4.7 —
	// the original addresses linked functions' views with raw pointer
	// arithmetic over one contiguous allocation, so a run lays out
	// Parameters/StateVars/TempVars/Series back-to-back into this one
	// buffer rather than reusing any single typed slice above.
	ExternalBuffer []float64
}

// BatchFunc is one compiled module's entry point, callable identically
// whether produced by the emulator or a native JIT.
type BatchFunc func(args *BatchArgs)

// Intrinsics lists the names spec.md §4.6 reserves as backend intrinsics
// (as opposed to externally linked computations, package extcall). Shared
// by both backends so neither silently treats an intrinsic name as an
// external call or vice versa.
var Intrinsics = map[string]bool{
	"sqrt": true, "cbrt": true, "exp": true, "log": true, "log10": true, "log2": true,
	"sin": true, "cos": true, "tan": true, "asin": true, "acos": true, "atan": true,
	"sinh": true, "cosh": true, "tanh": true,
	"floor": true, "ceil": true, "abs": true, "fabs": true, "round": true,
	"copysign": true, "min": true, "max": true, "pow": true, "pow2": true,
	"is_finite": true,
}

// Module is a compiled artifact plus the metadata Lookup needs to resolve
// it back by name.
type Module struct {
	Name string
	Root mathir.Node
	Fn   BatchFunc
}

// Backend is the contract a compiled-module provider must satisfy, per
// spec.md §4.6: initialize a compilation unit, register global constants
// and named modules (each an IR tree to be turned into a BatchFunc), compile
// the whole unit, look modules back up by name, and release resources.
type Backend interface {
	Initialize() error
	CreateModule(name string, root mathir.Node) error
	AddGlobalConstants(consts map[string]float64) error
	AddBatch(name string, root mathir.Node) error
	Compile() error
	Lookup(name string) (BatchFunc, error)
	Free() error
}
