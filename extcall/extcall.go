// Package extcall implements C12: the external computation bridge of
// spec.md §4.7. An ExternalComputation IR node names a linked Go function
// and, per argument, an (offset, stride, count) triple; Invoke turns those
// triples into ValueAccess views over the run's flat buffer and calls the
// registered function. Grounded on the teacher's plugin-registry pattern
// (analyzer's per-language Inspector registered by name in a map and looked
// up at Parse time) translated from "named parser" to "named linked
// function."
package extcall

import "fmt"

// ValueAccess is a strided view into one of the run's flat f64 buffers
// (parameters, series, state vars, temp vars, solver workspace), per
// spec.md §4.7: Base is the first element's absolute offset into that
// buffer, Stride the element-to-element distance, Count the number of
// elements the view spans. A scalar argument is the Count == 1 case.
type ValueAccess struct {
	Buffer []float64
	Base   int
	Stride int
	Count  int
}

// At returns the view's i'th element, 0 <= i < Count.
func (v ValueAccess) At(i int) float64 { return v.Buffer[v.Base+i*v.Stride] }

// Set writes the view's i'th element.
func (v ValueAccess) Set(i int, val float64) { v.Buffer[v.Base+i*v.Stride] = val }

// Func is one linked external computation: given the views built from its
// ExternalComputation's Args, it reads and/or writes them in place.
type Func func(views []ValueAccess)

// ScalarFunc is a linked function called from an ordinary (non-intrinsic)
// FunctionCall node rather than an ExternalComputation: plain scalar
// arguments in, one scalar result out.
type ScalarFunc func(args []float64) float64

// Registry is the set of linked functions a run makes available to
// FunctionCall and ExternalComputation nodes, keyed by name. The two node
// kinds are kept in separate name tables since they have different calling
// conventions (scalar in/out vs. strided views).
type Registry struct {
	fns     map[string]Func
	scalars map[string]ScalarFunc
}

func NewRegistry() *Registry {
	return &Registry{fns: map[string]Func{}, scalars: map[string]ScalarFunc{}}
}

// Register links name to fn; re-registering a name overwrites the prior
// binding (the last registration for a name wins, matching the teacher's
// analyzer.RegisterAnalyzer semantics).
func (r *Registry) Register(name string, fn Func) {
	r.fns[name] = fn
}

// RegisterScalar links name to a scalar-calling-convention function, for a
// FunctionCall node whose Name isn't in the intrinsic table.
func (r *Registry) RegisterScalar(name string, fn ScalarFunc) {
	r.scalars[name] = fn
}

// Lookup returns the Func bound to name, if any.
func (r *Registry) Lookup(name string) (Func, bool) {
	fn, ok := r.fns[name]
	return fn, ok
}

// InvokeScalar calls the scalar-convention function bound to name, if any.
func (r *Registry) InvokeScalar(name string, args []float64) (float64, bool) {
	fn, ok := r.scalars[name]
	if !ok {
		return 0, false
	}
	return fn(args), true
}

// Invoke builds one ValueAccess per (offset, stride, count) triple against
// buf and calls the named linked function. It panics with a descriptive
// message if name isn't registered, since an unresolved external call is a
// model-building defect that should have been caught before a batch ever
// runs, not a runtime condition a batch invocation can recover from.
func (r *Registry) Invoke(name string, buf []float64, triples [][3]float64) {
	fn, ok := r.fns[name]
	if !ok {
		panic(fmt.Sprintf("extcall: no linked function registered for %q", name))
	}
	views := make([]ValueAccess, len(triples))
	for i, t := range triples {
		views[i] = ValueAccess{Buffer: buf, Base: int(t[0]), Stride: int(t[1]), Count: int(t[2])}
	}
	fn(views)
}
