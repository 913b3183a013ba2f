package indexdata

import "github.com/viant/biome/catalog"

// Indexes stores one index per relevant index set for a storage lookup, per
// spec.md §3. It has two modes: lookup-ordered (an ordered sequence, may
// contain duplicates — matrix-column use) and set-ordered (a sparse vector
// addressed by index_set_id).
type Indexes struct {
	lookupOrdered bool
	ordered       []Index
	bySet         map[catalog.EntityID]int32
}

// NewLookupOrdered builds a lookup-ordered Indexes tuple.
func NewLookupOrdered(idx ...Index) Indexes {
	return Indexes{lookupOrdered: true, ordered: idx}
}

// NewSetOrdered builds an empty set-ordered Indexes tuple.
func NewSetOrdered() Indexes {
	return Indexes{bySet: map[catalog.EntityID]int32{}}
}

// Set assigns the ordinal for set in a set-ordered tuple.
func (ix *Indexes) Set(set catalog.EntityID, ordinal int32) {
	if ix.bySet == nil {
		ix.bySet = map[catalog.EntityID]int32{}
	}
	ix.bySet[set] = ordinal
}

// Get returns the ordinal indexing set, if present, in either mode.
func (ix Indexes) Get(set catalog.EntityID) (int32, bool) {
	if ix.lookupOrdered {
		for _, e := range ix.ordered {
			if e.Set == set {
				return e.Ordinal, true
			}
		}
		return 0, false
	}
	v, ok := ix.bySet[set]
	return v, ok
}

// Sets returns every index set referenced by the tuple, in order for
// lookup-ordered tuples (order is unspecified for set-ordered ones).
func (ix Indexes) Sets() []catalog.EntityID {
	if ix.lookupOrdered {
		out := make([]catalog.EntityID, len(ix.ordered))
		for i, e := range ix.ordered {
			out[i] = e.Set
		}
		return out
	}
	out := make([]catalog.EntityID, 0, len(ix.bySet))
	for s := range ix.bySet {
		out = append(out, s)
	}
	return out
}
