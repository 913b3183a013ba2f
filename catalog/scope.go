package catalog

import "github.com/viant/biome/diagnostics"

// visibleEntry is one entry of Scope.visible_entities, per spec.md §3.
type visibleEntry struct {
	ID            EntityID
	Loc           diagnostics.SourceLoc
	External      bool
	WasReferenced bool
	IsLoadArg     bool
}

// serialEntry is one entry of Scope.serialized_entities.
type serialEntry struct {
	ID  EntityID
	Loc diagnostics.SourceLoc
}

// Scope is a named lookup table of entities, owned by a module, library,
// data-set top level, or the global root, per spec.md §3.
type Scope struct {
	id     int
	Parent *Scope

	// OwnerName is the identifier this scope's owning entity is registered
	// under in Parent (empty for the global root), used by Serialize to walk
	// the scope chain.
	OwnerName string

	visible    map[string]*visibleEntry
	serialized map[RegType]map[string]*serialEntry
	identifiers map[EntityID]string
	byDecl      map[interface{}]EntityID
	allIDs      map[EntityID]bool
}

func newScope(id int, parent *Scope, ownerName string) *Scope {
	return &Scope{
		id:          id,
		Parent:      parent,
		OwnerName:   ownerName,
		visible:     map[string]*visibleEntry{},
		serialized:  map[RegType]map[string]*serialEntry{},
		identifiers: map[EntityID]string{},
		byDecl:      map[interface{}]EntityID{},
		allIDs:      map[EntityID]bool{},
	}
}

// ID returns the scope's own numeric handle (stable across the catalog's
// lifetime; used as Record.ScopeID).
func (s *Scope) ID() int { return s.id }

// Find looks up an identifier in this scope, then its lexical ancestors
// (Import is still how a *non-ancestor* scope's locals, e.g. a library's,
// become visible here), returning Invalid if absent anywhere in the chain.
func (s *Scope) Find(identifier string) EntityID {
	for scope := s; scope != nil; scope = scope.Parent {
		if e, ok := scope.visible[identifier]; ok {
			e.WasReferenced = true
			return e.ID
		}
	}
	return Invalid
}

// IdentifierOf returns the identifier an entity was registered under in this
// scope, or "" if it is not visible here.
func (s *Scope) IdentifierOf(id EntityID) string {
	return s.identifiers[id]
}

// AllIDs returns the set of entities locally declared in this scope (not
// merely imported).
func (s *Scope) AllIDs() map[EntityID]bool { return s.allIDs }
