package dataset

import (
	"fmt"
	"strings"

	"github.com/viant/biome/catalog"
)

// WriteBack reproduces the data-set grammar deterministically from the
// catalog state: index sets, connections, series imports, parameter groups,
// modules, in that order, per spec.md §4.3.
func (d *Dataset) WriteBack(cat *catalog.Catalog, store interface {
	GetMaxCount(catalog.EntityID) int32
	GetIndexName(catalog.EntityID, int32) string
}) string {
	var b strings.Builder
	if d.Version != "" {
		fmt.Fprintf(&b, "version(%q)\n", d.Version)
	}
	if d.TimeStep.Unit != "" {
		fmt.Fprintf(&b, "time_step(%v, %q)\n", d.TimeStep.Value, d.TimeStep.Unit)
	}
	b.WriteString("\n")

	for _, id := range d.IndexSets {
		writeIndexSet(&b, cat, store, id)
	}
	for _, id := range d.Connections {
		writeConnection(&b, cat, id)
	}
	for _, s := range d.Series {
		fmt.Fprintf(&b, "series(%q, %q)\n", s.Name, s.SourceFile)
	}
	for _, id := range d.ParGroups {
		writeParGroup(&b, cat, id)
	}
	for _, id := range d.Modules {
		entry, _ := cat.At(id).(*catalog.ModuleEntry)
		if entry == nil {
			continue
		}
		fmt.Fprintf(&b, "module(%q) {\n}\n", entry.Header().Name)
	}
	return b.String()
}

func writeIndexSet(b *strings.Builder, cat *catalog.Catalog, store interface {
	GetMaxCount(catalog.EntityID) int32
	GetIndexName(catalog.EntityID, int32) string
}, id catalog.EntityID) {
	entry, _ := cat.At(id).(*catalog.IndexSetEntry)
	if entry == nil {
		return
	}
	fmt.Fprintf(b, "index_set(%q)", entry.Header().Name)
	if len(entry.UnionOf) > 0 {
		names := make([]string, len(entry.UnionOf))
		for i, m := range entry.UnionOf {
			if me, _ := cat.At(m).(*catalog.IndexSetEntry); me != nil {
				names[i] = me.Header().Name
			}
		}
		fmt.Fprintf(b, " @union(%s)", strings.Join(names, ", "))
	}
	b.WriteString(" [")
	count := store.GetMaxCount(id)
	names := make([]string, 0, count)
	for i := int32(0); i < count; i++ {
		names = append(names, fmt.Sprintf("%q", store.GetIndexName(id, i)))
	}
	b.WriteString(strings.Join(names, ", "))
	b.WriteString("]\n")
}

func writeConnection(b *strings.Builder, cat *catalog.Catalog, id catalog.EntityID) {
	entry, _ := cat.At(id).(*catalog.ConnectionEntry)
	if entry == nil {
		return
	}
	fmt.Fprintf(b, "connection(%q) {\n", entry.Header().Name)
	for _, c := range entry.Components {
		if ce, _ := cat.At(c).(*catalog.ComponentEntry); ce != nil {
			fmt.Fprintf(b, "\t%s(%q)\n", ce.ComponentKind, ce.Header().Name)
		}
	}
	b.WriteString("}\n")
}

func writeParGroup(b *strings.Builder, cat *catalog.Catalog, id catalog.EntityID) {
	entry, _ := cat.At(id).(*catalog.ParameterGroupEntry)
	if entry == nil {
		return
	}
	fmt.Fprintf(b, "par_group(%q) {\n", entry.Header().Name)
	for _, p := range entry.Parameters {
		if pe, _ := cat.At(p).(*catalog.ParameterEntry); pe != nil {
			fmt.Fprintf(b, "\tpar_%s(%q)\n", pe.ValueType, pe.Header().Name)
		}
	}
	b.WriteString("}\n")
}
