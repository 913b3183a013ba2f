// Package catalog implements C4: typed entity IDs, scope tables, serial-name
// resolution, and recursive declaration registration, per spec.md §3 and
// §4.1. Modeled on the teacher's inheritance-free struct tree (graph.Type /
// graph.Field / graph.Function with fieldMap-style lookup indices), per the
// design notes' "Registration_Base + concrete registrations" ->
// "tagged variants" translation: one Go struct per RegType sharing a common
// Record header, dispatched by a type switch instead of virtual dispatch.
package catalog

import (
	"fmt"

	"github.com/viant/biome/ast"
	"github.com/viant/biome/diagnostics"
)

// RegType is the small enum distinguishing entity kinds, per spec.md §3.
type RegType int

const (
	RegIndexSet RegType = iota
	RegParameter
	RegParameterGroup
	RegModule
	RegLibrary
	RegConnection
	RegComponent
	RegSeries
	RegSolver
	RegUnit
	RegFunction
	RegConstant
	RegLoc
	RegStateVar
	numRegTypes
)

func (r RegType) String() string {
	switch r {
	case RegIndexSet:
		return "index_set"
	case RegParameter:
		return "parameter"
	case RegParameterGroup:
		return "parameter_group"
	case RegModule:
		return "module"
	case RegLibrary:
		return "library"
	case RegConnection:
		return "connection"
	case RegComponent:
		return "component"
	case RegSeries:
		return "series"
	case RegSolver:
		return "solver"
	case RegUnit:
		return "unit"
	case RegFunction:
		return "function"
	case RegConstant:
		return "constant"
	case RegLoc:
		return "loc"
	case RegStateVar:
		return "state_var"
	default:
		return "unrecognized"
	}
}

// EntityID is the pair (reg_type, index) identifying a registration record.
// Equality is structural; an ID is invalid iff Index < 0.
type EntityID struct {
	RegType RegType
	Index   int
}

// Invalid is the canonical invalid entity ID.
var Invalid = EntityID{Index: -1}

// Valid reports whether the ID addresses a real registration.
func (id EntityID) Valid() bool { return id.Index >= 0 }

func (id EntityID) String() string {
	if !id.Valid() {
		return "<invalid>"
	}
	return fmt.Sprintf("%s#%d", id.RegType, id.Index)
}

// Record is the registration base shared by every concrete entry type.
type Record struct {
	DeclAST       *ast.Decl
	ID            EntityID
	DeclType      RegType
	SourceLoc     diagnostics.SourceLoc
	ScopeID       int
	Name          string
	HasBeenProcessed bool
}

// Entry is satisfied by every concrete registration (type-specific fields
// embed Record and implement Header).
type Entry interface {
	Header() *Record
}

// ScopeOwner is implemented by entries that own a nested scope (modules,
// libraries), used by Deserialize to descend a serial-name path.
type ScopeOwner interface {
	Entry
	OwnedScope() *Scope
}

// ModuleEntry registers a `module` declaration and the scope it owns.
type ModuleEntry struct {
	Record
	Scope *Scope
}

func (m *ModuleEntry) Header() *Record    { return &m.Record }
func (m *ModuleEntry) OwnedScope() *Scope { return m.Scope }

// LibraryEntry registers a `library` declaration and the scope it owns.
type LibraryEntry struct {
	Record
	Scope *Scope
}

func (l *LibraryEntry) Header() *Record    { return &l.Record }
func (l *LibraryEntry) OwnedScope() *Scope { return l.Scope }

// ComponentEntry registers a compartment/quantity component of a connection.
type ComponentEntry struct {
	Record
	ComponentKind string // "compartment" | "quantity"
	Connection    EntityID
}

func (c *ComponentEntry) Header() *Record { return &c.Record }

// ConnectionEntry registers a `connection` declaration.
type ConnectionEntry struct {
	Record
	Components   []EntityID
	EdgeIndexSet EntityID // Invalid unless an edge index set was declared
}

func (c *ConnectionEntry) Header() *Record { return &c.Record }

// IndexSetEntry registers an `index_set` declaration, per spec.md §3.
type IndexSetEntry struct {
	Record
	SubIndexedTo       EntityID   // Invalid unless sub(parent)
	UnionOf            []EntityID // empty unless @union(...)
	IsEdgeOfConnection EntityID   // Invalid unless auto-populated by a connection
}

func (i *IndexSetEntry) Header() *Record { return &i.Record }

// ParameterEntry registers a par_real/par_int/par_bool/par_datetime/par_enum.
type ParameterEntry struct {
	Record
	ValueType  string // "real" | "int" | "bool" | "datetime" | "enum"
	IndexSets  []EntityID
	EnumValues []string // only for ValueType == "enum"

	// Offset is this parameter's first slot in the run's flat Parameters
	// buffer (backend.BatchArgs.Parameters); it occupies
	// [Offset, Offset+len(Values)). Values holds one entry per
	// get_instance_count(IndexSets) slot, in Index_Data::for_each order.
	Offset int
	Values []float64
}

func (p *ParameterEntry) Header() *Record { return &p.Record }

// ParameterGroupEntry registers a `par_group`.
type ParameterGroupEntry struct {
	Record
	IndexSets  []EntityID
	Parameters []EntityID
}

func (p *ParameterGroupEntry) Header() *Record { return &p.Record }

// SeriesEntry registers one named series column.
type SeriesEntry struct {
	Record
	IndexSets []EntityID
	Unit      string

	// Offset is this series' first slot in the run's flat Series buffer
	// (backend.BatchArgs.Series), mirroring dataset.Series.Offset; set once
	// the series' CSV file has been read and its column count is known.
	Offset int
}

func (s *SeriesEntry) Header() *Record { return &s.Record }

// SolverEntry registers a `solver`.
type SolverEntry struct {
	Record
	Kind string
}

func (s *SolverEntry) Header() *Record { return &s.Record }

// UnitEntry registers a `unit`.
type UnitEntry struct {
	Record
	StandardForm string
}

func (u *UnitEntry) Header() *Record { return &u.Record }

// FunctionEntry registers an external/intrinsic function reference.
type FunctionEntry struct {
	Record
	Arity int
}

func (f *FunctionEntry) Header() *Record { return &f.Record }

// ConstantEntry registers a named numeric constant.
type ConstantEntry struct {
	Record
	Value float64
}

func (c *ConstantEntry) Header() *Record { return &c.Record }

// LocEntry registers a named storage location reference (loc(...)).
type LocEntry struct {
	Record
	IndexSets []EntityID
}

func (l *LocEntry) Header() *Record { return &l.Record }

// StateVarEntry registers a state variable (and/or its derivative).
type StateVarEntry struct {
	Record
	IndexSets []EntityID
	HasODE    bool
}

func (s *StateVarEntry) Header() *Record { return &s.Record }
