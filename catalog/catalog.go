package catalog

import (
	"strings"

	"github.com/viant/biome/ast"
	"github.com/viant/biome/diagnostics"
)

// reservedWords are identifiers that may never be used as entity names,
// because they collide with declaration keywords recognized by the grammar
// (spec.md §6).
var reservedWords = map[string]bool{
	"index_set": true, "connection": true, "directed_graph": true,
	"compartment": true, "quantity": true, "par_group": true,
	"par_real": true, "par_int": true, "par_bool": true,
	"par_datetime": true, "par_enum": true, "module": true,
	"library": true, "version": true, "series": true, "time_step": true,
	"unit": true, "out": true,
}

// Catalog is the immutable-after-compilation store of all registries and
// scopes, per spec.md §3 "The catalog is immutable after compilation."
type Catalog struct {
	sink   *diagnostics.Sink
	regs   [numRegTypes][]Entry
	scopes []*Scope
	global *Scope
}

// New constructs an empty Catalog rooted at a global scope.
func New(sink *diagnostics.Sink) *Catalog {
	c := &Catalog{sink: sink}
	c.global = c.newScope(nil, "")
	return c
}

// Global returns the root scope.
func (c *Catalog) Global() *Scope { return c.global }

func (c *Catalog) newScope(parent *Scope, ownerName string) *Scope {
	s := newScope(len(c.scopes), parent, ownerName)
	c.scopes = append(c.scopes, s)
	return s
}

// NewScope creates and registers a child scope of parent, owned by an entity
// registered in parent under ownerName (empty if this scope has no owning
// entity, e.g. a data-set top level).
func (c *Catalog) NewScope(parent *Scope, ownerName string) *Scope {
	return c.newScope(parent, ownerName)
}

// ScopeByID returns the scope with the given numeric handle.
func (c *Catalog) ScopeByID(id int) *Scope {
	if id < 0 || id >= len(c.scopes) {
		return nil
	}
	return c.scopes[id]
}

// Add appends entry to its RegType's registry (append-only; IDs never move)
// and returns the freshly assigned EntityID.
func (c *Catalog) Add(regType RegType, entry Entry) EntityID {
	idx := len(c.regs[regType])
	id := EntityID{RegType: regType, Index: idx}
	entry.Header().ID = id
	entry.Header().DeclType = regType
	c.regs[regType] = append(c.regs[regType], entry)
	return id
}

// At returns the registration for id, or nil if id is invalid or out of
// range.
func (c *Catalog) At(id EntityID) Entry {
	if !id.Valid() || id.RegType >= numRegTypes || id.Index >= len(c.regs[id.RegType]) {
		return nil
	}
	return c.regs[id.RegType][id.Index]
}

// Count returns the number of registrations of the given type.
func (c *Catalog) Count(regType RegType) int { return len(c.regs[regType]) }

// AddLocal inserts identifier into scope.visible_entities (and identifiers),
// and into all_ids when isLocallyDeclared, per spec.md §4.1. Fails with
// reserved-identifier or duplicate-identifier.
func (c *Catalog) AddLocal(scope *Scope, identifier string, loc diagnostics.SourceLoc, id EntityID, isLocallyDeclared bool) *diagnostics.Error {
	if identifier != "" {
		if reservedWords[identifier] {
			return c.sink.Fatalf(diagnostics.ModelBuilding, loc, "%q is a reserved identifier", identifier)
		}
		if existing, ok := scope.visible[identifier]; ok {
			err := diagnostics.New(diagnostics.ModelBuilding, loc, "duplicate identifier %q", identifier).WithOther(existing.Loc)
			c.sink.Report(err)
			return err
		}
		scope.visible[identifier] = &visibleEntry{ID: id, Loc: loc}
		scope.identifiers[id] = identifier
	}
	if isLocallyDeclared {
		scope.allIDs[id] = true
	}
	return nil
}

// RegisterDecl wraps AddLocal using decl's own identifier (its first
// argument when that is a bareword identifier chain; quoted serial
// names are set separately via SetSerialName) and records by_decl[decl] = id
// so a later re-encounter of the same inline declaration resolves to the
// same entity.
func (c *Catalog) RegisterDecl(scope *Scope, decl *ast.Decl, id EntityID) *diagnostics.Error {
	name := identifierOf(decl)
	if err := c.AddLocal(scope, name, decl.Loc, id, true); err != nil {
		return err
	}
	scope.byDecl[decl] = id
	if e := c.At(id); e != nil {
		e.Header().DeclAST = decl
		e.Header().SourceLoc = decl.Loc
		e.Header().ScopeID = scope.id
		if name != "" {
			e.Header().Name = name
		}
	}
	return nil
}

// ByDecl returns the entity previously registered for decl in scope, used by
// deferred processing passes to re-enter an inline declaration.
func (c *Catalog) ByDecl(scope *Scope, decl *ast.Decl) (EntityID, bool) {
	id, ok := scope.byDecl[decl]
	return id, ok
}

// identifierOf extracts the bareword local identifier of a declaration: its
// first argument if that is a single-element identifier chain, else "".
// Later arguments are not examined.
func identifierOf(decl *ast.Decl) string {
	for _, a := range decl.Args {
		if a.Kind == ast.ArgIdentChain && len(a.Chain) == 1 {
			return a.Chain[0]
		}
		break
	}
	return ""
}

// serialNameOf extracts the quoted user-facing name of a declaration: the
// first quoted-string literal argument.
func serialNameOf(decl *ast.Decl) (string, bool) {
	for _, a := range decl.Args {
		if a.Kind == ast.ArgLiteral && a.Literal.StrVal != "" {
			return a.Literal.StrVal, true
		}
	}
	return "", false
}

// SetSerialName inserts name into scope.serialized_entities for id's
// register type, enforcing per-type uniqueness; duplicates report both
// declarations.
func (c *Catalog) SetSerialName(scope *Scope, name string, loc diagnostics.SourceLoc, id EntityID) *diagnostics.Error {
	bucket, ok := scope.serialized[id.RegType]
	if !ok {
		bucket = map[string]*serialEntry{}
		scope.serialized[id.RegType] = bucket
	}
	if existing, ok := bucket[name]; ok {
		err := diagnostics.New(diagnostics.ModelBuilding, loc, "duplicate serial name %q for %s", name, id.RegType).WithOther(existing.Loc)
		c.sink.Report(err)
		return err
	}
	bucket[name] = &serialEntry{ID: id, Loc: loc}
	return nil
}

// Import copies only locally-declared entries of src into dst, marking them
// external, and refuses to overwrite existing identifiers. Parameters from a
// parent scope are re-imported only when allowRecursiveImportParams is set.
func (c *Catalog) Import(dst, src *Scope, importLoc diagnostics.SourceLoc, allowRecursiveImportParams bool) *diagnostics.Error {
	for id := range src.allIDs {
		name := src.identifiers[id]
		if name == "" {
			continue
		}
		if id.RegType == RegParameter && !allowRecursiveImportParams {
			continue
		}
		if _, ok := dst.visible[name]; ok {
			return c.sink.Fatalf(diagnostics.ModelBuilding, importLoc, "import conflict: identifier %q already declared", name)
		}
		dst.visible[name] = &visibleEntry{ID: id, Loc: importLoc, External: true}
		dst.identifiers[id] = name
	}
	return nil
}

// Expect resolves an identifier token against scope, type-checking against
// expectedType (RegType value < 0 ("unrecognized") skips the check).
func (c *Catalog) Expect(scope *Scope, expectedType RegType, identifier string, loc diagnostics.SourceLoc) (EntityID, *diagnostics.Error) {
	id := scope.Find(identifier)
	if !id.Valid() {
		return Invalid, c.sink.Fatalf(diagnostics.ModelBuilding, loc, "undeclared identifier %q", identifier)
	}
	if expectedType >= 0 && id.RegType != expectedType {
		return Invalid, c.sink.Fatalf(diagnostics.ModelBuilding, loc, "type mismatch: %q is %s, expected %s", identifier, id.RegType, expectedType)
	}
	return id, nil
}

// ResolveArgument resolves an inline-decl argument to its pre-registered ID,
// or an identifier-chain argument (which must have length 1) by name,
// type-checking against expectedType.
func (c *Catalog) ResolveArgument(scope *Scope, expectedType RegType, arg *ast.Arg) (EntityID, *diagnostics.Error) {
	switch arg.Kind {
	case ast.ArgInlineDecl:
		id, ok := c.ByDecl(scope, arg.Inline)
		if !ok {
			return Invalid, c.sink.Fatalf(diagnostics.Internal, arg.Loc, "inline declaration not pre-registered")
		}
		if expectedType >= 0 && id.RegType != expectedType {
			return Invalid, c.sink.Fatalf(diagnostics.ModelBuilding, arg.Loc, "type mismatch: expected %s", expectedType)
		}
		return id, nil
	case ast.ArgIdentChain:
		if len(arg.Chain) != 1 {
			return Invalid, c.sink.Fatalf(diagnostics.ModelBuilding, arg.Loc, "expected a single identifier, got path %q", arg.IdentText())
		}
		return c.Expect(scope, expectedType, arg.Chain[0], arg.Loc)
	default:
		return Invalid, c.sink.Fatalf(diagnostics.ModelBuilding, arg.Loc, "expected an identifier or declaration argument")
	}
}

// ByType returns a lazily-iterable view over scope.all_ids filtered to a
// single reg_type. The teacher's coroutine-style By_Type::Scope_It is
// replaced, per the design notes, with an explicit slice-backed iterator.
type ByTypeIter struct {
	ids []EntityID
	pos int
}

// ByType builds an iterator over scope's locally-declared entities of regType.
func (c *Catalog) ByType(scope *Scope, regType RegType) *ByTypeIter {
	var ids []EntityID
	for id := range scope.allIDs {
		if id.RegType == regType {
			ids = append(ids, id)
		}
	}
	return &ByTypeIter{ids: ids}
}

// Next returns the next entity ID and true, or Invalid and false at the end.
func (it *ByTypeIter) Next() (EntityID, bool) {
	if it.pos >= len(it.ids) {
		return Invalid, false
	}
	id := it.ids[it.pos]
	it.pos++
	return id, true
}

// RegisterDeclsRecursive visits decl, then each argument that contains an
// inline declaration, then each note's arguments, recursing everywhere
// except inside function-body declarations (which share syntax with decls
// but are not entities), per spec.md §4.1. register is called for every decl
// encountered (including the root) in pre-order; it must itself call Add +
// RegisterDecl and may return Invalid to skip recursing into a subtree.
func (c *Catalog) RegisterDeclsRecursive(scope *Scope, decl *ast.Decl, allowed map[string]bool, register func(scope *Scope, decl *ast.Decl) EntityID) {
	if allowed != nil && !allowed[decl.Keyword] {
		c.sink.Fatalf(diagnostics.ModelBuilding, decl.Loc, "declaration type %q is not allowed here", decl.Keyword)
		return
	}
	if decl.Keyword == "function_body" {
		return
	}
	register(scope, decl)
	for _, arg := range decl.Args {
		if arg.Kind == ast.ArgInlineDecl && arg.Inline != nil {
			c.RegisterDeclsRecursive(scope, arg.Inline, allowed, register)
		}
	}
	for _, note := range decl.Notes {
		for _, arg := range note.Args {
			if arg.Kind == ast.ArgInlineDecl && arg.Inline != nil {
				c.RegisterDeclsRecursive(scope, arg.Inline, allowed, register)
			}
		}
	}
}

// SerialNameOf is exported for data-set/parser components that need to pull
// the quoted user-facing name out of a declaration before registering it.
func SerialNameOf(decl *ast.Decl) (string, bool) { return serialNameOf(decl) }

// IdentifierOf is exported for the same reason, for the bareword identifier.
func IdentifierOf(decl *ast.Decl) string { return identifierOf(decl) }

// trimPath is a small helper used by Serialize/Deserialize.
func trimPath(s string) string { return strings.TrimSpace(s) }
