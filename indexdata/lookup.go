package indexdata

import (
	"github.com/viant/biome/catalog"
	"github.com/viant/biome/diagnostics"
	"github.com/viant/biome/token"
)

// noIndex is returned by FindIndex on an unsuccessful lookup that is not a
// hard failure (e.g. a value outside a position map's domain).
const noIndex int32 = -1

// FindIndex resolves a token to an ordinal within set, per spec.md §4.2:
//   - numeric1 with a position map and a real token: maps the value to the
//     index whose cut-point window contains it;
//   - named with a quoted-string token: map lookup;
//   - numeric1 (no position map) with an integer token: range check;
//   - union: search each member in declaration order, first hit wins.
//
// Invalid lookups return (noIndex, nil); a missing required parentIdx is
// fatal.
func (s *Store) FindIndex(set catalog.EntityID, tok token.Token, parentIdx *Index, loc diagnostics.SourceLoc) (int32, *diagnostics.Error) {
	entry := s.entry(set)
	if entry != nil && len(entry.UnionOf) > 0 {
		var offset int32
		for _, member := range entry.UnionOf {
			ord, err := s.FindIndex(member, tok, parentIdx, loc)
			if err != nil {
				return 0, err
			}
			if ord != noIndex {
				return offset + ord, nil
			}
			offset += s.GetMaxCount(member)
		}
		return noIndex, nil
	}

	outer := 0
	if entry != nil && entry.SubIndexedTo.Valid() {
		if parentIdx == nil {
			return 0, s.fatalf(loc, "index lookup in a sub-indexed set requires a parent index")
		}
		outer = int(parentIdx.Ordinal)
	}
	rec := s.records[set]
	if rec == nil {
		return noIndex, nil
	}
	if outer >= len(rec.IndexCounts) {
		return noIndex, nil
	}

	if rec.HasPositionMap && tok.Kind == token.Real {
		return findInPositionMap(rec.PosVals, tok.RealVal), nil
	}
	switch rec.Kind {
	case Named:
		if tok.Kind != token.QuotedString {
			return noIndex, nil
		}
		if ord, ok := rec.NameToIndex[outer][tok.StrVal]; ok {
			return ord, nil
		}
		return noIndex, nil
	case Numeric1:
		if tok.Kind != token.Integer {
			return noIndex, nil
		}
		n := int32(tok.IntVal)
		if n < 0 || n >= rec.IndexCounts[outer] {
			return noIndex, nil
		}
		return n, nil
	}
	return noIndex, nil
}

// findInPositionMap implements the canonical linear search over posVals, per
// spec.md §9 Open Questions ("the commented-out binary search in
// Index_Record::map_index is unfinished; linear search is canonical").
// Returns the unique i such that posVals[i-1] <= v < posVals[i] (with
// posVals[-1] = 0), or noIndex outside [0, posVals[N-1]).
func findInPositionMap(posVals []float64, v float64) int32 {
	if v < 0 || len(posVals) == 0 || v >= posVals[len(posVals)-1] {
		return noIndex
	}
	lo := 0.0
	for i, hi := range posVals {
		if v >= lo && v < hi {
			return int32(i)
		}
		lo = hi
	}
	return noIndex
}
