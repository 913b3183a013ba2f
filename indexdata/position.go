package indexdata

import (
	"github.com/viant/biome/catalog"
	"github.com/viant/biome/diagnostics"
)

// SetPositionMap installs a strictly increasing sequence of cut-points on a
// numeric1 set, per spec.md §4.2: the set must already be fully initialized,
// must not be a union, an edge set, or the parent of any sub-indexed set.
// The previous index_counts are preserved as backup_counts, and index_counts
// is re-derived so that index_counts[i] == len(posVals) for every outer
// slot — a position map turns the whole set into one position-mapped axis,
// it does not vary per sub-index slot.
func (s *Store) SetPositionMap(id catalog.EntityID, posVals []float64, loc diagnostics.SourceLoc) *diagnostics.Error {
	entry := s.entry(id)
	if entry != nil && len(entry.UnionOf) > 0 {
		return s.fatalf(loc, "cannot set a position map on a union index set")
	}
	if entry != nil && entry.IsEdgeOfConnection.Valid() {
		return s.fatalf(loc, "cannot set a position map on an edge index set")
	}
	if s.subIndexParent(id) {
		return s.fatalf(loc, "cannot set a position map on a set that is itself sub-indexed to another set's parent role")
	}
	rec := s.records[id]
	if rec == nil {
		return s.fatalf(loc, "index set is not yet initialized")
	}
	if rec.Kind != Numeric1 {
		return s.fatalf(loc, "position maps only apply to numeric1 index sets")
	}
	if len(posVals) < 2 {
		return s.fatalf(loc, "position map requires at least two cut-points")
	}
	for i := 1; i < len(posVals); i++ {
		if posVals[i] <= posVals[i-1] {
			return s.fatalf(loc, "position map cut-points must be strictly increasing")
		}
	}
	rec.BackupCounts = append([]int32(nil), rec.IndexCounts...)
	rec.HasPositionMap = true
	rec.PosVals = append([]float64(nil), posVals...)
	counts := make([]int32, len(rec.IndexCounts))
	for i := range counts {
		counts[i] = int32(len(posVals))
	}
	rec.IndexCounts = counts
	return nil
}

// subIndexParent reports whether id is used as the sub_indexed_to parent of
// any other registered index set; it is a guard used by SetPositionMap.
func (s *Store) subIndexParent(id catalog.EntityID) bool {
	for i := 0; i < s.cat.Count(catalog.RegIndexSet); i++ {
		candidate := catalog.EntityID{RegType: catalog.RegIndexSet, Index: i}
		entry, _ := s.cat.At(candidate).(*catalog.IndexSetEntry)
		if entry != nil && entry.SubIndexedTo == id {
			return true
		}
	}
	return false
}
