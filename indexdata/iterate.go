package indexdata

import (
	"github.com/viant/biome/catalog"
	"github.com/viant/biome/diagnostics"
)

// CheckValidDistribution verifies that a value distributed "over" sets (a
// series or parameter's index_sets list) has a consistent nesting: a
// sub-indexed set's parent must itself appear earlier in sets, per spec.md
// §4.2.
func (s *Store) CheckValidDistribution(sets []catalog.EntityID, loc diagnostics.SourceLoc) *diagnostics.Error {
	seen := map[catalog.EntityID]bool{}
	for _, set := range sets {
		entry := s.entry(set)
		if entry != nil && entry.SubIndexedTo.Valid() && !seen[entry.SubIndexedTo] {
			return s.fatalf(loc, "index set %s is sub-indexed to a parent that does not precede it in the distribution", set)
		}
		seen[set] = true
	}
	return nil
}

// GetInstanceCount returns the product of get_max_count over sets — the
// total number of storage slots a value distributed over sets occupies.
func (s *Store) GetInstanceCount(sets []catalog.EntityID) int64 {
	var total int64 = 1
	for _, set := range sets {
		total *= int64(s.GetMaxCount(set))
	}
	return total
}

// ForEach walks every valid combination of ordinals across sets in
// lexicographic order (sets[0] slowest-varying), honoring sub-indexing: a
// child set's iteration range depends on the current ordinal of its parent,
// which must precede it in sets per CheckValidDistribution. visit receives a
// lookup-ordered Indexes tuple for each combination; iteration stops early
// if visit returns false.
func (s *Store) ForEach(sets []catalog.EntityID, visit func(Indexes) bool) {
	ordinals := make([]int32, len(sets))
	s.forEachRec(sets, ordinals, 0, visit)
}

func (s *Store) forEachRec(sets []catalog.EntityID, ordinals []int32, depth int, visit func(Indexes) bool) bool {
	if depth == len(sets) {
		idx := make([]Index, len(sets))
		for i, set := range sets {
			idx[i] = Index{Set: set, Ordinal: ordinals[i]}
		}
		return visit(NewLookupOrdered(idx...))
	}
	set := sets[depth]
	outer := 0
	if entry := s.entry(set); entry != nil && entry.SubIndexedTo.Valid() {
		for i, parent := range sets[:depth] {
			if parent == entry.SubIndexedTo {
				outer = int(ordinals[i])
			}
		}
	}
	count := s.localCount(set, outer)
	for i := int32(0); i < count; i++ {
		ordinals[depth] = i
		if !s.forEachRec(sets, ordinals, depth+1, visit) {
			return false
		}
	}
	return true
}

func (s *Store) localCount(set catalog.EntityID, outer int) int32 {
	if entry := s.entry(set); entry != nil && len(entry.UnionOf) > 0 {
		return s.GetMaxCount(set)
	}
	rec := s.records[set]
	if rec == nil || outer >= len(rec.IndexCounts) {
		return 0
	}
	return rec.IndexCounts[outer]
}
