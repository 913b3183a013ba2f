// Package model implements the model-file half of the grammar: the
// declarations spec.md's "Build" step (§4.4) lowers to Math IR — units,
// solvers, externally linked functions, named constants, and the state
// variables and flux/derivative equations that make up a batch. It is the
// AST->mathir bridge dataset.Loader is for the data-set grammar: a model
// file is loaded against a catalog already populated by a data-set file (its
// index sets, connections, parameters, and series), and contributes the
// equations that reference them.
//
// Modeled on dataset.Loader's shape (one Loader per file, entities
// registered via Catalog.Add + Catalog.RegisterDecl, declaration order
// remembered on the returned aggregate).
package model

import (
	"github.com/viant/biome/ast"
	"github.com/viant/biome/catalog"
	"github.com/viant/biome/diagnostics"
	"github.com/viant/biome/token"
)

var topLevelKeywords = map[string]bool{
	"version": true, "unit": true, "solver": true, "function": true,
	"constant": true, "library": true, "module": true,
}

var moduleBodyKeywords = map[string]bool{
	"state_var": true, "constant": true, "unit": true, "solver": true,
	"function": true, "module": true,
}

// Equation is one state variable's defining equation, lowered separately by
// a Builder once every entity in the file has been registered (equations
// may forward-reference state variables/functions declared later in the
// same file).
type Equation struct {
	StateVar catalog.EntityID
	Kind     string // "assign" | "derivative"
	Body     *ast.Decl
	Scope    *catalog.Scope
	SolverID catalog.EntityID // Invalid unless @solver(...) was present
	Loc      diagnostics.SourceLoc
}

// Model is everything read out of one model file. Entities are registered
// in the catalog; Model remembers declaration order (for deterministic
// write-back, as dataset.Dataset does) plus the equation bodies a Builder
// lowers afterward.
type Model struct {
	Version string

	Units     []catalog.EntityID
	Solvers   []catalog.EntityID
	Functions []catalog.EntityID
	Constants []catalog.EntityID
	Libraries []catalog.EntityID
	Modules   []catalog.EntityID
	StateVars []catalog.EntityID

	Equations []*Equation

	scope *catalog.Scope
}

// Scope returns the top-level scope the model file's declarations were
// registered into.
func (m *Model) Scope() *catalog.Scope { return m.scope }

// Loader processes the top-level declarations of one model file.
type Loader struct {
	cat  *catalog.Catalog
	sink *diagnostics.Sink
	m    *Model
}

// NewLoader constructs a Loader bound to cat/sink.
func NewLoader(cat *catalog.Catalog, sink *diagnostics.Sink) *Loader {
	return &Loader{cat: cat, sink: sink}
}

// Load processes decls in file order and returns the assembled Model. The
// returned Model's Equations are unlowered (ast.Decl bodies, not mathir
// nodes); call Builder.Build once every model file touching the catalog has
// been loaded.
func (l *Loader) Load(decls []*ast.Decl, scope *catalog.Scope) *Model {
	l.m = &Model{scope: scope}
	for _, decl := range decls {
		if !topLevelKeywords[decl.Keyword] {
			l.sink.Fatalf(diagnostics.ModelBuilding, decl.Loc, "%q is not a valid model declaration", decl.Keyword)
			continue
		}
		l.loadTop(decl, scope)
	}
	return l.m
}

func (l *Loader) loadTop(decl *ast.Decl, scope *catalog.Scope) {
	switch decl.Keyword {
	case "version":
		if len(decl.Args) == 1 && decl.Args[0].Kind == ast.ArgLiteral {
			l.m.Version = decl.Args[0].Literal.StrVal
		}
	case "unit":
		l.loadUnit(decl, scope)
	case "solver":
		l.loadSolver(decl, scope)
	case "function":
		l.loadFunction(decl, scope)
	case "constant":
		l.loadConstant(decl, scope)
	case "library":
		l.loadLibrary(decl, scope)
	case "module":
		l.loadModule(decl, scope)
	}
}

func declName(decl *ast.Decl) string {
	if name, ok := catalog.SerialNameOf(decl); ok {
		return name
	}
	return catalog.IdentifierOf(decl)
}

// registerNamed mirrors dataset.Loader's helper of the same purpose: most
// model declarations carry a quoted display name as their first argument
// rather than a bareword identifier.
func (l *Loader) registerNamed(scope *catalog.Scope, decl *ast.Decl, id catalog.EntityID) *diagnostics.Error {
	if err := l.cat.RegisterDecl(scope, decl, id); err != nil {
		return err
	}
	if name, ok := catalog.SerialNameOf(decl); ok {
		l.cat.SetSerialName(scope, name, decl.Loc, id)
		if entry := l.cat.At(id); entry != nil && entry.Header().Name == "" {
			entry.Header().Name = name
		}
	}
	return nil
}

// loadUnit registers a `unit("name") ["standard_form"]` declaration: the
// canonical form every other unit of the same physical quantity is
// converted to/from, per spec.md §4.5's "unit-standard-form match."
func (l *Loader) loadUnit(decl *ast.Decl, scope *catalog.Scope) {
	entry := &catalog.UnitEntry{}
	if len(decl.Args) > 1 && decl.Args[1].Kind == ast.ArgLiteral {
		entry.StandardForm = decl.Args[1].Literal.StrVal
	}
	id := l.cat.Add(catalog.RegUnit, entry)
	if err := l.registerNamed(scope, decl, id); err != nil {
		return
	}
	l.m.Units = append(l.m.Units, id)
}

// loadSolver registers a `solver("name") @kind("rk4")` declaration.
func (l *Loader) loadSolver(decl *ast.Decl, scope *catalog.Scope) {
	entry := &catalog.SolverEntry{Kind: "rk4"}
	if note := decl.FindNote("kind"); note != nil && len(note.Args) == 1 && note.Args[0].Kind == ast.ArgLiteral {
		entry.Kind = note.Args[0].Literal.StrVal
	}
	id := l.cat.Add(catalog.RegSolver, entry)
	if err := l.registerNamed(scope, decl, id); err != nil {
		return
	}
	l.m.Solvers = append(l.m.Solvers, id)
}

// loadFunction registers a `function("name") @arity(n)` declaration naming
// an externally linked (or intrinsic) function; extcall.Registry binds the
// name to a Go implementation at run time, per spec.md §4.7.
func (l *Loader) loadFunction(decl *ast.Decl, scope *catalog.Scope) {
	entry := &catalog.FunctionEntry{}
	if note := decl.FindNote("arity"); note != nil && len(note.Args) == 1 && note.Args[0].Kind == ast.ArgLiteral {
		entry.Arity = int(note.Args[0].Literal.IntVal)
	}
	id := l.cat.Add(catalog.RegFunction, entry)
	if err := l.registerNamed(scope, decl, id); err != nil {
		return
	}
	l.m.Functions = append(l.m.Functions, id)
}

// loadConstant registers a `constant("name", value)` declaration: a
// compile-time scalar substituted directly into equations (not a run-time
// array cell), folded to a mathir.Literal wherever it's referenced.
func (l *Loader) loadConstant(decl *ast.Decl, scope *catalog.Scope) {
	entry := &catalog.ConstantEntry{}
	if len(decl.Args) > 1 && decl.Args[1].Kind == ast.ArgLiteral {
		entry.Value = literalReal(decl.Args[1])
	}
	id := l.cat.Add(catalog.RegConstant, entry)
	if err := l.registerNamed(scope, decl, id); err != nil {
		return
	}
	l.m.Constants = append(l.m.Constants, id)
}

func literalReal(a *ast.Arg) float64 {
	if a.Kind != ast.ArgLiteral {
		return 0
	}
	switch a.Literal.Kind {
	case token.Integer:
		return float64(a.Literal.IntVal)
	case token.Real:
		return a.Literal.RealVal
	}
	return 0
}

// loadLibrary registers a `library("name") { ... }` declaration: a named,
// importable scope of state variables/constants/functions, analogous to
// dataset's module but meant to be shared across modules via `@uses`
// (catalog.Import), per the design notes' reusable-equation-block bullet.
func (l *Loader) loadLibrary(decl *ast.Decl, scope *catalog.Scope) {
	entry := &catalog.LibraryEntry{}
	id := l.cat.Add(catalog.RegLibrary, entry)
	if err := l.registerNamed(scope, decl, id); err != nil {
		return
	}
	l.m.Libraries = append(l.m.Libraries, id)
	entry.Scope = l.cat.NewScope(scope, declName(decl))
	l.loadModuleBody(decl, entry.Scope)
}

// loadModule registers a `module("name") [@uses(lib,...)] { ... }`
// declaration: a nested scope of state variables, nested modules, and local
// constants/units/solvers/functions.
func (l *Loader) loadModule(decl *ast.Decl, scope *catalog.Scope) {
	entry := &catalog.ModuleEntry{}
	id := l.cat.Add(catalog.RegModule, entry)
	if err := l.registerNamed(scope, decl, id); err != nil {
		return
	}
	l.m.Modules = append(l.m.Modules, id)
	entry.Scope = l.cat.NewScope(scope, declName(decl))

	if note := decl.FindNote("uses"); note != nil {
		for _, a := range note.Args {
			libID, err := l.cat.ResolveArgument(scope, catalog.RegLibrary, a)
			if err != nil {
				continue
			}
			if lib, ok := l.cat.At(libID).(*catalog.LibraryEntry); ok {
				l.cat.Import(entry.Scope, lib.Scope, decl.Loc, true)
			}
		}
	}
	l.loadModuleBody(decl, entry.Scope)
}

func (l *Loader) loadModuleBody(decl *ast.Decl, scope *catalog.Scope) {
	for _, sub := range bodyDecls(decl) {
		if !moduleBodyKeywords[sub.Keyword] {
			l.sink.Fatalf(diagnostics.ModelBuilding, sub.Loc, "%q is not valid inside %q", sub.Keyword, decl.Keyword)
			continue
		}
		switch sub.Keyword {
		case "state_var":
			l.loadStateVar(sub, scope)
		case "constant":
			l.loadConstant(sub, scope)
		case "unit":
			l.loadUnit(sub, scope)
		case "solver":
			l.loadSolver(sub, scope)
		case "function":
			l.loadFunction(sub, scope)
		case "module":
			l.loadModule(sub, scope)
		}
	}
}

// loadStateVar registers a `state_var("name") [init_expr]? @unit(...)?
// @solver(...)? @index_sets(...)? { assign(expr) | derivative(expr) }`
// declaration, per the design notes' state-variable-equation grammar; the
// equation body is remembered for a later Builder pass rather than lowered
// immediately, since it may reference state variables/functions declared
// later in the same file.
func (l *Loader) loadStateVar(decl *ast.Decl, scope *catalog.Scope) {
	entry := &catalog.StateVarEntry{}
	if note := decl.FindNote("index_sets"); note != nil {
		for _, a := range note.Args {
			if set, err := l.cat.ResolveArgument(scope, catalog.RegIndexSet, a); err == nil {
				entry.IndexSets = append(entry.IndexSets, set)
			}
		}
	}
	id := l.cat.Add(catalog.RegStateVar, entry)
	if err := l.registerNamed(scope, decl, id); err != nil {
		return
	}
	l.m.StateVars = append(l.m.StateVars, id)

	var solverID catalog.EntityID = catalog.Invalid
	if note := decl.FindNote("solver"); note != nil && len(note.Args) == 1 {
		if sid, err := l.cat.ResolveArgument(scope, catalog.RegSolver, note.Args[0]); err == nil {
			solverID = sid
		}
	}

	for _, eq := range bodyDecls(decl) {
		kind := eq.Keyword
		if kind != "assign" && kind != "derivative" {
			continue
		}
		entry.HasODE = entry.HasODE || kind == "derivative"
		l.m.Equations = append(l.m.Equations, &Equation{
			StateVar: id,
			Kind:     kind,
			Body:     eq,
			Scope:    scope,
			SolverID: solverID,
			Loc:      eq.Loc,
		})
	}
}

func bodyDecls(decl *ast.Decl) []*ast.Decl {
	if decl.Body == nil || decl.Body.Kind != ast.BodyBraced {
		return nil
	}
	return decl.Body.Decls
}
