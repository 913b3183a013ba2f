// Package indexdata implements C5: multi-dimensional index sets with
// sub-indexing, unions, edge index sets, and position maps, per spec.md
// §3 and §4.2. Storage is addressed the way the teacher's graph.Type keeps
// a dense []Field plus a fieldMap[name]index for O(1) lookup by name
// (inspector/graph/types.go) — here Record.NameToIndex plays that role per
// outer (parent-index) slot.
package indexdata

import (
	"fmt"

	"github.com/viant/biome/catalog"
	"github.com/viant/biome/diagnostics"
)

// Kind is the semantic type of an index set's values, per spec.md §3.
type Kind int

const (
	Numeric1 Kind = iota
	Named
	Union
	SubIndexed
	Edge
)

// Record is the per-index-set storage described in spec.md §4.2. The outer
// vectors are sized to the parent-index cardinality for sub-indexed sets, or
// to length 1 otherwise.
type Record struct {
	Kind           Kind
	IndexCounts    []int32
	IndexNames     [][]string
	NameToIndex    []map[string]int32
	HasPositionMap bool
	PosVals        []float64
	BackupCounts   []int32
}

// Index is the pair (index_set_id, ordinal).
type Index struct {
	Set     catalog.EntityID
	Ordinal int32
}

func (i Index) String() string { return fmt.Sprintf("%s[%d]", i.Set, i.Ordinal) }

// Store owns the Record for every registered index set, plus a reference to
// the Catalog it resolves entity metadata (sub_indexed_to, union_of) from.
type Store struct {
	cat     *catalog.Catalog
	sink    *diagnostics.Sink
	records map[catalog.EntityID]*Record
}

// NewStore constructs a Store bound to cat.
func NewStore(cat *catalog.Catalog, sink *diagnostics.Sink) *Store {
	return &Store{cat: cat, sink: sink, records: map[catalog.EntityID]*Record{}}
}

func (s *Store) entry(id catalog.EntityID) *catalog.IndexSetEntry {
	e, _ := s.cat.At(id).(*catalog.IndexSetEntry)
	return e
}

// Record returns the storage record for id, or nil if uninitialized.
func (s *Store) Record(id catalog.EntityID) *Record { return s.records[id] }

func (s *Store) fatalf(loc diagnostics.SourceLoc, format string, args ...interface{}) *diagnostics.Error {
	return s.sink.Fatalf(diagnostics.Internal, loc, format, args...)
}

// InitializeScalar initializes a top-level (non-union, non-sub-indexed,
// non-edge) set from a data-set `[ ... ]` list. An empty-vs-nonempty first
// token determines numeric1 vs named: an integer token ⇒ single-count
// numeric1; quoted-string tokens ⇒ a list of distinct names.
func (s *Store) InitializeScalar(id catalog.EntityID, loc diagnostics.SourceLoc, count int32, names []string) *diagnostics.Error {
	if names != nil {
		nameToIdx := map[string]int32{}
		for i, n := range names {
			if _, dup := nameToIdx[n]; dup {
				return s.fatalf(loc, "duplicate index name %q", n)
			}
			nameToIdx[n] = int32(i)
		}
		s.records[id] = &Record{
			Kind:        Named,
			IndexCounts: []int32{int32(len(names))},
			IndexNames:  [][]string{names},
			NameToIndex: []map[string]int32{nameToIdx},
		}
		return nil
	}
	if count < 1 {
		return s.fatalf(loc, "numeric1 index set requires a positive count, got %d", count)
	}
	s.records[id] = &Record{Kind: Numeric1, IndexCounts: []int32{count}}
	return nil
}

// InitializeSubIndexed initializes index set id, declared `sub(parent)`; it
// requires parent already fully initialized, and its outer length equals
// get_max_count(parent). perParent supplies, for each parent ordinal, either
// a count (numeric1 child) or a name list (named child).
func (s *Store) InitializeSubIndexed(id, parent catalog.EntityID, loc diagnostics.SourceLoc, perParentCounts []int32, perParentNames [][]string) *diagnostics.Error {
	parentRec := s.records[parent]
	if parentRec == nil {
		return s.fatalf(loc, "sub-indexing parent is not yet initialized")
	}
	outer := int(s.GetMaxCount(parent))
	rec := &Record{}
	if perParentNames != nil {
		if len(perParentNames) != outer {
			return s.fatalf(loc, "sub-indexed named set expects %d parent groups, got %d", outer, len(perParentNames))
		}
		rec.Kind = Named
		rec.IndexCounts = make([]int32, outer)
		rec.IndexNames = make([][]string, outer)
		rec.NameToIndex = make([]map[string]int32, outer)
		for i, names := range perParentNames {
			nameToIdx := map[string]int32{}
			for j, n := range names {
				if _, dup := nameToIdx[n]; dup {
					return s.fatalf(loc, "duplicate index name %q in sub-table %d", n, i)
				}
				nameToIdx[n] = int32(j)
			}
			rec.IndexCounts[i] = int32(len(names))
			rec.IndexNames[i] = names
			rec.NameToIndex[i] = nameToIdx
		}
	} else {
		if len(perParentCounts) != outer {
			return s.fatalf(loc, "sub-indexed numeric1 set expects %d parent groups, got %d", outer, len(perParentCounts))
		}
		rec.Kind = Numeric1
		rec.IndexCounts = append([]int32(nil), perParentCounts...)
	}
	s.records[id] = rec
	return nil
}

// InitializeEdge pre-allocates an edge-index-set id in named mode with a
// single slot that holds every edge of the connection graph; AddEdgeIndex
// appends to it as the graph is read. sourceComponentCount is not used:
// edges are not grouped per source-component index.
func (s *Store) InitializeEdge(id catalog.EntityID, sourceComponentCount int) {
	s.records[id] = &Record{
		Kind:        Named,
		IndexCounts: []int32{0},
		IndexNames:  [][]string{{}},
		NameToIndex: []map[string]int32{{}},
	}
	_ = sourceComponentCount
}

// AddEdgeIndex appends one edge named after its target (or "out") to an
// edge index set.
func (s *Store) AddEdgeIndex(id catalog.EntityID, targetName string) int32 {
	rec := s.records[id]
	ord := rec.IndexCounts[0]
	rec.IndexNames[0] = append(rec.IndexNames[0], targetName)
	rec.NameToIndex[0][targetName] = ord
	rec.IndexCounts[0]++
	return ord
}

// GetMaxCount returns the maximum cardinality across all parent-index values,
// used for buffer allocation.
func (s *Store) GetMaxCount(id catalog.EntityID) int32 {
	if entry := s.entry(id); entry != nil && len(entry.UnionOf) > 0 {
		var total int32
		for _, m := range entry.UnionOf {
			total += s.GetMaxCount(m)
		}
		return total
	}
	rec := s.records[id]
	if rec == nil {
		return 0
	}
	var max int32
	for _, c := range rec.IndexCounts {
		if c > max {
			max = c
		}
	}
	return max
}

// GetIndexCount returns the local cardinality for set given the other
// indexes in the tuple (resolves sub-indexing via the parent's ordinal in
// indexes).
func (s *Store) GetIndexCount(id catalog.EntityID, indexes Indexes) int32 {
	entry := s.entry(id)
	rec := s.records[id]
	if rec == nil {
		return 0
	}
	if entry != nil && entry.SubIndexedTo.Valid() {
		if parentIdx, ok := indexes.Get(entry.SubIndexedTo); ok {
			if int(parentIdx) < len(rec.IndexCounts) {
				return rec.IndexCounts[parentIdx]
			}
		}
	}
	if len(rec.IndexCounts) > 0 {
		return rec.IndexCounts[0]
	}
	return 0
}
