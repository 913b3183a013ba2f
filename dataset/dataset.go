// Package dataset implements C6: the data-set file — index sets, connections,
// modules, parameter groups, series, the time step, and the engine version —
// per spec.md §4.3. Modeled on the teacher's Project/Package aggregate
// (inspector/info types assembled by a single top-level Load pass) but
// keyed by the catalog's entity registry instead of a file-tree.
package dataset

import (
	"github.com/viant/biome/ast"
	"github.com/viant/biome/catalog"
)

// TimeStep is the data-set's declared simulation step, e.g. `time_step(1,
// "day")`.
type TimeStep struct {
	Value float64
	Unit  string
}

// Dataset is everything read out of one data-set file, per spec.md §4.3.
// Entities are registered in the catalog; Dataset just remembers declaration
// order (needed to reproduce the grammar deterministically on write-back)
// and the non-entity scalars (version, time_step).
type Dataset struct {
	Version  string
	TimeStep TimeStep

	IndexSets   []catalog.EntityID
	Connections []catalog.EntityID
	Modules     []catalog.EntityID
	ParGroups   []catalog.EntityID
	Series      []*Series

	// ParamSlotCount is the total size the run's flat Parameters buffer
	// needs: the sum of every parameter's value count (1 for a scalar, or
	// get_instance_count(its index_sets) when distributed), assigned
	// contiguously as ParameterEntry.Offset in declaration order.
	ParamSlotCount int

	// AdditionalSeries is reserved for data_set.cpp's "additional_time_series"
	// path; left unspecified per spec.md §9 Open Questions.
	AdditionalSeries []*Series

	scope *catalog.Scope
}

// Scope returns the top-level scope the data-set's declarations were
// registered into.
func (d *Dataset) Scope() *catalog.Scope { return d.scope }

// bodyDecls pulls the braced-body sub-decls of a `connection` or
// `par_group` declaration, used by load.go when walking decl.Body.Decls.
func bodyDecls(decl *ast.Decl) []*ast.Decl {
	if decl.Body == nil || decl.Body.Kind != ast.BodyBraced {
		return nil
	}
	return decl.Body.Decls
}
