package indexdata

import (
	"io"
	"strconv"
	"strings"

	"github.com/viant/biome/catalog"
	"github.com/viant/biome/diagnostics"
)

// formatInterval renders a position-map window as "lo-hi", the textual
// form used by GetIndexName and WriteIndexToFile for mapped numeric1 sets.
func formatInterval(lo, hi float64) string {
	return strconv.FormatFloat(lo, 'g', -1, 64) + "-" + strconv.FormatFloat(hi, 'g', -1, 64)
}

// formatOrdinal renders an unmapped numeric1 ordinal as a plain base-10
// integer string.
func formatOrdinal(ordinal int32) string {
	return strconv.FormatInt(int64(ordinal), 10)
}

// WriteIndexToFile writes the display name of one (set, ordinal) pair to w,
// per spec.md §4.2's textual I/O subsection.
func (s *Store) WriteIndexToFile(w io.Writer, set catalog.EntityID, ordinal int32) error {
	_, err := io.WriteString(w, s.GetIndexName(set, ordinal))
	return err
}

// WriteIndexesToFile writes a tab-separated line naming every index in idx,
// in the order given by sets.
func (s *Store) WriteIndexesToFile(w io.Writer, sets []catalog.EntityID, idx Indexes) error {
	names := make([]string, len(sets))
	for i, set := range sets {
		ord, _ := idx.Get(set)
		names[i] = s.GetIndexName(set, ord)
	}
	_, err := io.WriteString(w, strings.Join(names, "\t"))
	return err
}

// TransferValues copies values between two Indexes-addressed flat buffers
// that are distributed over the same index sets but whose sets may have
// since been reordered or had members inserted (e.g. reloading a data file
// after a module update). lookup maps a destination ordinal tuple to a
// source lookup key; values not found in src (ok == false) are left
// untouched in dst. This is a buffer-reconciliation helper distinct from
// TransferData below, which moves an index set's own layout, not the
// payload addressed by it.
func (s *Store) TransferValues(sets []catalog.EntityID, src, dst []float64, lookup func(dstIdx Indexes) (srcFlatIndex int, ok bool)) *diagnostics.Error {
	if len(src) == 0 || len(dst) == 0 {
		return nil
	}
	strides := flatStrides(s, sets)
	var xferErr *diagnostics.Error
	s.ForEach(sets, func(idx Indexes) bool {
		flat := 0
		for i, set := range sets {
			ord, _ := idx.Get(set)
			flat += int(ord) * strides[i]
		}
		if flat >= len(dst) {
			xferErr = s.fatalf(diagnostics.SourceLoc{}, "transfer_values: destination index out of range")
			return false
		}
		if srcFlat, ok := lookup(idx); ok {
			if srcFlat < 0 || srcFlat >= len(src) {
				xferErr = s.fatalf(diagnostics.SourceLoc{}, "transfer_values: source index out of range")
				return false
			}
			dst[flat] = src[srcFlat]
		}
		return true
	})
	return xferErr
}

// TransferData implements spec.md §4.2's transfer_data(other, id): it copies
// the layout (kind, counts, names) of a data-set-side index set srcID into
// dstID's catalog entry, so a model-side reference to "the same" index set
// addresses a record without re-declaring its data. Before copying it
// verifies compatibility between the two sides — union identity,
// sub-indexing parent presence, and named-vs-numeric mode — and fails
// fatally, naming dstID's user-facing identifier, on any mismatch.
func (s *Store) TransferData(srcID, dstID catalog.EntityID, loc diagnostics.SourceLoc) *diagnostics.Error {
	srcRec := s.records[srcID]
	if srcRec == nil {
		return s.fatalf(loc, "transfer_data: source index set %q has no data", s.displayName(srcID))
	}

	srcEntry, dstEntry := s.entry(srcID), s.entry(dstID)
	name := s.displayName(dstID)

	srcIsUnion := srcEntry != nil && len(srcEntry.UnionOf) > 0
	dstIsUnion := dstEntry != nil && len(dstEntry.UnionOf) > 0
	if srcIsUnion != dstIsUnion {
		return s.fatalf(loc, "transfer_data: index set %q union identity does not match its source", name)
	}
	if srcIsUnion && len(srcEntry.UnionOf) != len(dstEntry.UnionOf) {
		return s.fatalf(loc, "transfer_data: index set %q union membership does not match its source", name)
	}

	srcHasParent := srcEntry != nil && srcEntry.SubIndexedTo.Valid()
	dstHasParent := dstEntry != nil && dstEntry.SubIndexedTo.Valid()
	if srcHasParent != dstHasParent {
		return s.fatalf(loc, "transfer_data: index set %q sub-indexing parent does not match its source", name)
	}

	if dstRec := s.records[dstID]; dstRec != nil && dstRec.Kind != srcRec.Kind {
		return s.fatalf(loc, "transfer_data: index set %q mode (named vs numeric) does not match its source", name)
	}

	cp := *srcRec
	cp.IndexCounts = append([]int32(nil), srcRec.IndexCounts...)
	cp.IndexNames = append([][]string(nil), srcRec.IndexNames...)
	cp.NameToIndex = append([]map[string]int32(nil), srcRec.NameToIndex...)
	cp.PosVals = append([]float64(nil), srcRec.PosVals...)
	cp.BackupCounts = append([]int32(nil), srcRec.BackupCounts...)
	s.records[dstID] = &cp
	return nil
}

func (s *Store) displayName(id catalog.EntityID) string {
	if entry := s.cat.At(id); entry != nil {
		return entry.Header().Name
	}
	return "?"
}

// flatStrides computes row-major strides for sets, matching the layout
// ForEach visits them in (sets[0] slowest-varying).
func flatStrides(s *Store, sets []catalog.EntityID) []int {
	strides := make([]int, len(sets))
	acc := 1
	for i := len(sets) - 1; i >= 0; i-- {
		strides[i] = acc
		acc *= int(s.GetMaxCount(sets[i]))
	}
	return strides
}
