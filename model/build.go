package model

import (
	"sort"

	"github.com/viant/biome/ast"
	"github.com/viant/biome/backend"
	"github.com/viant/biome/catalog"
	"github.com/viant/biome/diagnostics"
	"github.com/viant/biome/mathir"
)

// Batch is one named Math IR root ready for a backend.Backend.AddBatch call,
// plus the ODE metadata runstate needs to wire a solver.StepFunc around it,
// per spec.md §4.5 "per-batch data: pointer to compiled function or IR root,
// optional solver descriptor."
type Batch struct {
	Name           string
	Root           mathir.Node // always a *mathir.Block
	SolverID       catalog.EntityID
	FirstODEOffset int
	NumODE         int
}

// Builder lowers a Model's unlowered Equations to Math IR, once every model
// and data-set file sharing cat has been loaded (equations may forward- or
// cross-file-reference state variables, parameters, and series).
type Builder struct {
	cat  *catalog.Catalog
	sink *diagnostics.Sink
}

// NewBuilder constructs a Builder bound to cat/sink.
func NewBuilder(cat *catalog.Catalog, sink *diagnostics.Sink) *Builder {
	return &Builder{cat: cat, sink: sink}
}

// Build lowers every equation across all supplied models, grouping state
// variables by their declared solver: state variables with no @solver form
// one "direct" batch invoked without a solver; each distinct solver forms
// its own batch, invoked through solver.StepFunc over the contiguous
// [FirstODEOffset, FirstODEOffset+NumODE) range of state_vars its member
// state variables occupy. Member state variables of one solver must be
// declared contiguously (a simplifying convention over spec.md's general
// "first_ode_offset/n_ode" pair, recorded in DESIGN.md).
func (b *Builder) Build(models ...*Model) []*Batch {
	bySolver := map[catalog.EntityID][]*Equation{}
	var order []catalog.EntityID
	for _, m := range models {
		for _, eq := range m.Equations {
			if _, ok := bySolver[eq.SolverID]; !ok {
				order = append(order, eq.SolverID)
			}
			bySolver[eq.SolverID] = append(bySolver[eq.SolverID], eq)
		}
	}

	var batches []*Batch
	for _, solverID := range order {
		batches = append(batches, b.buildBatch(solverID, bySolver[solverID]))
	}
	return batches
}

func (b *Builder) buildBatch(solverID catalog.EntityID, eqs []*Equation) *Batch {
	scope := mathir.NewScope(b.sink)
	sid := scope.Push()
	defer scope.Pop()

	stmts := make([]mathir.Node, 0, len(eqs))
	loOffset, hiOffset := -1, -1
	for _, eq := range eqs {
		expr := equationExpr(eq.Body)
		if expr == nil {
			b.sink.Fatalf(diagnostics.ModelBuilding, eq.Loc, "%s() requires exactly one expression argument", eq.Kind)
			continue
		}
		value := scope.LowerExpr(expr, func(name string, loc diagnostics.SourceLoc) mathir.Node {
			return b.resolveExternal(eq.Scope, name, loc)
		})
		markIntrinsics(value)

		offset := eq.StateVar.Index
		if loOffset == -1 || offset < loOffset {
			loOffset = offset
		}
		if offset > hiOffset {
			hiOffset = offset
		}

		switch eq.Kind {
		case "derivative":
			stmts = append(stmts, &mathir.DerivativeAssignment{
				Header:     mathir.Header{Loc: eq.Loc, Type: mathir.ValueTypeOf(value)},
				StateVarID: offset,
				Value:      value,
			})
		default:
			stmts = append(stmts, &mathir.StateVarAssignment{
				Header:     mathir.Header{Loc: eq.Loc, Type: mathir.ValueTypeOf(value)},
				StateVarID: offset,
				Value:      value,
			})
		}
	}

	root := &mathir.Block{Header: mathir.Header{Type: mathir.None}, ScopeID: sid, Stmts: stmts}
	batch := &Batch{Root: root, SolverID: solverID}
	if solverID.Valid() {
		batch.FirstODEOffset = loOffset
		batch.NumODE = hiOffset - loOffset + 1
		if entry := b.cat.At(solverID); entry != nil {
			batch.Name = entry.Header().Name
		}
	} else {
		batch.Name = "direct"
	}
	return batch
}

// equationExpr returns the single expression argument of an `assign(...)`
// or `derivative(...)` equation body, or nil if malformed.
func equationExpr(decl *ast.Decl) *ast.Arg {
	if len(decl.Args) != 1 {
		return nil
	}
	return decl.Args[0]
}

// resolveExternal resolves a bare identifier referenced from an equation
// against scope (catalog.Scope.Find walks lexical ancestors itself).
func (b *Builder) resolveExternal(scope *catalog.Scope, name string, loc diagnostics.SourceLoc) mathir.Node {
	id := scope.Find(name)
	if id.Valid() {
		switch id.RegType {
		case catalog.RegParameter:
			offset := id.Index
			if p, ok := b.cat.At(id).(*catalog.ParameterEntry); ok {
				offset = p.Offset
			}
			return &mathir.Identifier{Header: mathir.Header{Loc: loc, Type: mathir.Real}, ScopeID: mathir.ScopeParameter, LocalID: offset}
		case catalog.RegStateVar:
			return &mathir.Identifier{Header: mathir.Header{Loc: loc, Type: mathir.Real}, ScopeID: mathir.ScopeStateVar, LocalID: id.Index}
		case catalog.RegSeries:
			offset := id.Index
			if sEntry, ok := b.cat.At(id).(*catalog.SeriesEntry); ok {
				offset = sEntry.Offset
			}
			return &mathir.Identifier{Header: mathir.Header{Loc: loc, Type: mathir.Real}, ScopeID: mathir.ScopeSeries, LocalID: offset}
		case catalog.RegConstant:
			if entry, ok := b.cat.At(id).(*catalog.ConstantEntry); ok {
				return mathir.RealLit(entry.Value, loc)
			}
		}
	}
	b.sink.Fatalf(diagnostics.ModelBuilding, loc, "undeclared identifier %q", name)
	return &mathir.NoOp{Header: mathir.Header{Loc: loc}}
}

// markIntrinsics walks root and sets FunctionCall.Intrinsic for any call
// whose name is a backend intrinsic, per spec.md §4.6: mathir.Scope.LowerCall
// leaves Intrinsic false since the IR package doesn't know the backend's
// intrinsic table.
func markIntrinsics(root mathir.Node) {
	if root == nil {
		return
	}
	if call, ok := root.(*mathir.FunctionCall); ok {
		call.Intrinsic = backend.Intrinsics[call.Name]
	}
	for _, child := range root.Children() {
		markIntrinsics(child)
	}
}

// SortedSolverNames returns batch names in stable order, for callers (e.g.
// cmd/biome) that print a run's batch plan.
func SortedSolverNames(batches []*Batch) []string {
	names := make([]string, 0, len(batches))
	for _, b := range batches {
		names = append(names, b.Name)
	}
	sort.Strings(names)
	return names
}
