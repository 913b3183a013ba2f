package indexdata

import (
	"github.com/viant/biome/catalog"
	"github.com/viant/biome/diagnostics"
)

// InitializeUnion initializes a set with non-empty union_of after all its
// members are populated; all members must share Kind, and named unions
// cross-check for name collisions. Sub-indexed named unions are rejected
// (current limitation), per spec.md §4.2.
func (s *Store) InitializeUnion(id catalog.EntityID, loc diagnostics.SourceLoc) *diagnostics.Error {
	entry := s.entry(id)
	if entry == nil || len(entry.UnionOf) == 0 {
		return s.fatalf(loc, "index set is not a union")
	}
	var kind Kind
	seenNames := map[string]bool{}
	for i, member := range entry.UnionOf {
		rec := s.records[member]
		if rec == nil {
			return s.fatalf(loc, "union member %s not yet initialized", member)
		}
		if len(rec.IndexCounts) > 1 {
			return s.fatalf(loc, "sub-indexed unions are not supported (member %s)", member)
		}
		if i == 0 {
			kind = rec.Kind
		} else if rec.Kind != kind {
			return s.fatalf(loc, "union members must share the same index kind")
		}
		if rec.Kind == Named {
			for _, n := range rec.IndexNames[0] {
				if seenNames[n] {
					return s.fatalf(loc, "named union has colliding member name %q", n)
				}
				seenNames[n] = true
			}
		}
	}
	s.records[id] = &Record{Kind: Union}
	return nil
}

// Lower returns the member index whose partial-sum window contains
// union_idx.index, per spec.md §3/§4.2.
func (s *Store) Lower(unionIdx Index) (Index, *diagnostics.Error) {
	entry := s.entry(unionIdx.Set)
	if entry == nil || len(entry.UnionOf) == 0 {
		return Index{}, s.fatalf(diagnostics.SourceLoc{}, "lower() called on a non-union index set")
	}
	var offset int32
	for _, member := range entry.UnionOf {
		count := s.GetMaxCount(member)
		if unionIdx.Ordinal < offset+count {
			return Index{Set: member, Ordinal: unionIdx.Ordinal - offset}, nil
		}
		offset += count
	}
	return Index{}, s.fatalf(diagnostics.SourceLoc{}, "union ordinal %d out of range", unionIdx.Ordinal)
}

// Raise adds the partial-sum prefix to the member ordinal, producing an
// index into unionID.
func (s *Store) Raise(memberIdx Index, unionID catalog.EntityID) (Index, *diagnostics.Error) {
	entry := s.entry(unionID)
	if entry == nil || len(entry.UnionOf) == 0 {
		return Index{}, s.fatalf(diagnostics.SourceLoc{}, "raise() called on a non-union index set")
	}
	var offset int32
	for _, member := range entry.UnionOf {
		if member == memberIdx.Set {
			return Index{Set: unionID, Ordinal: offset + memberIdx.Ordinal}, nil
		}
		offset += s.GetMaxCount(member)
	}
	return Index{}, s.fatalf(diagnostics.SourceLoc{}, "member %s does not belong to union %s", memberIdx.Set, unionID)
}

// GetIndexName returns the display name of ordinal within set. For a
// named-union this "lowers" back to the member per spec.md §3.
func (s *Store) GetIndexName(set catalog.EntityID, ordinal int32) string {
	entry := s.entry(set)
	if entry != nil && len(entry.UnionOf) > 0 {
		member, err := s.Lower(Index{Set: set, Ordinal: ordinal})
		if err != nil {
			return ""
		}
		return s.GetIndexName(member.Set, member.Ordinal)
	}
	rec := s.records[set]
	if rec == nil {
		return ""
	}
	if rec.HasPositionMap {
		lo := 0.0
		if ordinal > 0 {
			lo = rec.PosVals[ordinal-1]
		}
		hi := rec.PosVals[ordinal]
		return formatInterval(lo, hi)
	}
	switch rec.Kind {
	case Named:
		if int(ordinal) < len(rec.IndexNames[0]) {
			return rec.IndexNames[0][ordinal]
		}
	case Numeric1:
		return formatOrdinal(ordinal)
	}
	return ""
}
