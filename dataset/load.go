package dataset

import (
	"time"

	"golang.org/x/mod/semver"

	"github.com/viant/biome/ast"
	"github.com/viant/biome/catalog"
	"github.com/viant/biome/diagnostics"
	"github.com/viant/biome/indexdata"
	"github.com/viant/biome/token"
)

// minEngineVersion/maxEngineVersion bound the data-set versions this build
// accepts, per original_source's data_set.cpp version gate (distilled out of
// spec.md, restored here per spec.md §9 Open Questions "silence is not a
// prohibition").
const (
	minEngineVersion = "v0.1.0"
	maxEngineVersion = "v2.0.0"
)

var topLevelKeywords = map[string]bool{
	"index_set": true, "connection": true, "module": true,
	"par_group": true, "series": true, "time_step": true, "version": true,
}

// Loader builds a Dataset from the top-level declarations of a data-set
// file, registering every entity in cat and initializing its index data in
// store. One Loader processes exactly one file; call Load once.
type Loader struct {
	cat   *catalog.Catalog
	store *indexdata.Store
	sink  *diagnostics.Sink
	ds    *Dataset

	sheets SpreadsheetReader

	// paramSlots is a running total assigning each parameter's Offset a
	// contiguous region of this file's flat Parameters buffer, in
	// declaration order. A single Loader processes exactly one file, so
	// offsets are contiguous only within that file; loading more than one
	// data-set file into a shared catalog would need its own continuation
	// scheme (not required by this driver, which loads one data-set file
	// per run). Series offsets are assigned separately, by the caller that
	// reads each series' file (ReadSeriesFile determines column count,
	// which isn't known until the CSV header is read).
	paramSlots int
}

// NewLoader constructs a Loader bound to cat/store/sink.
func NewLoader(cat *catalog.Catalog, store *indexdata.Store, sink *diagnostics.Sink) *Loader {
	return &Loader{cat: cat, store: store, sink: sink}
}

// WithSpreadsheetReader stores r on the Loader. Load does not consult it:
// no series() declaration is resolved through a spreadsheet reader, whether
// or not one is installed.
func (l *Loader) WithSpreadsheetReader(r SpreadsheetReader) *Loader {
	l.sheets = r
	return l
}

// Load processes decls in file order and returns the assembled Dataset.
// Declaration order matters: a sub-indexed or union index_set must be
// preceded by the index sets it depends on, per spec.md §4.2.
func (l *Loader) Load(decls []*ast.Decl, scope *catalog.Scope) *Dataset {
	l.ds = &Dataset{scope: scope}
	for _, decl := range decls {
		if !topLevelKeywords[decl.Keyword] {
			l.sink.Fatalf(diagnostics.ModelBuilding, decl.Loc, "%q is not a valid data-set declaration", decl.Keyword)
			continue
		}
		switch decl.Keyword {
		case "version":
			l.loadVersion(decl)
		case "time_step":
			l.loadTimeStep(decl)
		case "index_set":
			l.loadIndexSet(decl, scope)
		case "connection":
			l.loadConnection(decl, scope)
		case "module":
			l.loadModule(decl, scope)
		case "par_group":
			l.loadParGroup(decl, scope)
		case "series":
			l.loadSeries(decl, scope)
		}
	}
	l.ds.ParamSlotCount = l.paramSlots
	return l.ds
}

func (l *Loader) loadVersion(decl *ast.Decl) {
	if len(decl.Args) != 1 || decl.Args[0].Kind != ast.ArgLiteral {
		l.sink.Fatalf(diagnostics.File, decl.Loc, "version() expects one string argument")
		return
	}
	v := decl.Args[0].Literal.StrVal
	vTag := v
	if vTag != "" && vTag[0] != 'v' {
		vTag = "v" + vTag
	}
	if !semver.IsValid(vTag) {
		l.sink.Fatalf(diagnostics.File, decl.Loc, "version %q is not a valid semantic version", v)
		return
	}
	if semver.Compare(vTag, minEngineVersion) < 0 || semver.Compare(vTag, maxEngineVersion) >= 0 {
		l.sink.Fatalf(diagnostics.File, decl.Loc, "data-set version %q is outside the accepted range [%s, %s)", v, minEngineVersion, maxEngineVersion)
		return
	}
	l.ds.Version = v
}

func (l *Loader) loadTimeStep(decl *ast.Decl) {
	if len(decl.Args) != 2 || decl.Args[0].Kind != ast.ArgLiteral || decl.Args[1].Kind != ast.ArgLiteral {
		l.sink.Fatalf(diagnostics.File, decl.Loc, "time_step() expects (value, unit)")
		return
	}
	l.ds.TimeStep = TimeStep{
		Value: literalReal(decl.Args[0].Literal),
		Unit:  decl.Args[1].Literal.StrVal,
	}
}

func literalReal(t token.Token) float64 {
	switch t.Kind {
	case token.Real:
		return t.RealVal
	case token.Integer:
		return float64(t.IntVal)
	}
	return 0
}

func declName(decl *ast.Decl) string {
	if name, ok := catalog.SerialNameOf(decl); ok {
		return name
	}
	return catalog.IdentifierOf(decl)
}

// registerNamed wraps Catalog.RegisterDecl for the common data-set case
// where a declaration's first argument is a quoted display name rather than
// a bareword identifier: RegisterDecl alone only populates Header().Name
// from a bareword chain, so registerNamed also registers the quoted name as
// this scope's serialized name for id's RegType and falls back to it for
// Header().Name when no bareword identifier was present.
func (l *Loader) registerNamed(scope *catalog.Scope, decl *ast.Decl, id catalog.EntityID) *diagnostics.Error {
	if err := l.cat.RegisterDecl(scope, decl, id); err != nil {
		return err
	}
	if name, ok := catalog.SerialNameOf(decl); ok {
		l.cat.SetSerialName(scope, name, decl.Loc, id)
		if entry := l.cat.At(id); entry != nil && entry.Header().Name == "" {
			entry.Header().Name = name
		}
	}
	return nil
}

// loadIndexSet registers the entity, then initializes its storage: a
// @union note wins over a bracketed body, then @sub(parent), then a plain
// scalar list.
func (l *Loader) loadIndexSet(decl *ast.Decl, scope *catalog.Scope) {
	entry := &catalog.IndexSetEntry{}
	id := l.cat.Add(catalog.RegIndexSet, entry)
	if err := l.registerNamed(scope, decl, id); err != nil {
		return
	}
	l.ds.IndexSets = append(l.ds.IndexSets, id)

	if note := decl.FindNote("union"); note != nil {
		for _, a := range note.Args {
			member, err := l.cat.ResolveArgument(scope, catalog.RegIndexSet, a)
			if err != nil {
				continue
			}
			entry.UnionOf = append(entry.UnionOf, member)
		}
		l.store.InitializeUnion(id, decl.Loc)
		return
	}

	var parent catalog.EntityID = catalog.Invalid
	if note := decl.FindNote("sub"); note != nil && len(note.Args) == 1 {
		p, err := l.cat.ResolveArgument(scope, catalog.RegIndexSet, note.Args[0])
		if err == nil {
			parent = p
			entry.SubIndexedTo = p
		}
	}

	if decl.Body == nil || decl.Body.Kind != ast.BodyBracketed {
		l.sink.Fatalf(diagnostics.File, decl.Loc, "index_set %q requires a bracketed value list", declName(decl))
		return
	}
	if parent.Valid() {
		l.initSubIndexed(id, parent, decl)
		return
	}
	l.initScalar(id, decl)
}

func (l *Loader) initScalar(id catalog.EntityID, decl *ast.Decl) {
	var names []string
	for _, v := range decl.Body.Values {
		if v.Kind == ast.ArgLiteral && v.Literal.Kind == token.QuotedString {
			names = append(names, v.Literal.StrVal)
		}
	}
	if names != nil {
		l.store.InitializeScalar(id, decl.Loc, 0, names)
		return
	}
	count := int32(len(decl.Body.Values))
	if len(decl.Body.Values) > 0 && decl.Body.Values[0].Kind == ast.ArgLiteral && decl.Body.Values[0].Literal.Kind == token.Integer {
		count = int32(decl.Body.Values[0].Literal.IntVal)
	}
	l.store.InitializeScalar(id, decl.Loc, count, nil)
}

func (l *Loader) initSubIndexed(id, parent catalog.EntityID, decl *ast.Decl) {
	var perParentNames [][]string
	var perParentCounts []int32
	for _, sub := range decl.Body.SubTables {
		var names []string
		isNamed := false
		for _, v := range sub.Values {
			if v.Kind == ast.ArgLiteral && v.Literal.Kind == token.QuotedString {
				names = append(names, v.Literal.StrVal)
				isNamed = true
			}
		}
		if isNamed {
			perParentNames = append(perParentNames, names)
		} else {
			count := int32(len(sub.Values))
			if len(sub.Values) > 0 && sub.Values[0].Kind == ast.ArgLiteral && sub.Values[0].Literal.Kind == token.Integer {
				count = int32(sub.Values[0].Literal.IntVal)
			}
			perParentCounts = append(perParentCounts, count)
		}
	}
	if len(perParentNames) > 0 {
		l.store.InitializeSubIndexed(id, parent, decl.Loc, nil, perParentNames)
		return
	}
	l.store.InitializeSubIndexed(id, parent, decl.Loc, perParentCounts, nil)
}

// loadConnection registers the connection, its compartment/quantity
// components, and (if a directed_graph body is present) an auto-populated
// edge index set, per spec.md §4.3.
func (l *Loader) loadConnection(decl *ast.Decl, scope *catalog.Scope) {
	entry := &catalog.ConnectionEntry{}
	id := l.cat.Add(catalog.RegConnection, entry)
	if err := l.registerNamed(scope, decl, id); err != nil {
		return
	}
	l.ds.Connections = append(l.ds.Connections, id)

	for _, sub := range bodyDecls(decl) {
		switch sub.Keyword {
		case "compartment", "quantity":
			cEntry := &catalog.ComponentEntry{ComponentKind: sub.Keyword, Connection: id}
			cID := l.cat.Add(catalog.RegComponent, cEntry)
			l.registerNamed(scope, sub, cID)
			entry.Components = append(entry.Components, cID)
		case "directed_graph":
			l.loadDirectedGraph(sub, scope, id, entry)
		}
	}
}

func (l *Loader) loadDirectedGraph(sub *ast.Decl, scope *catalog.Scope, connID catalog.EntityID, entry *catalog.ConnectionEntry) {
	var edgeSetID catalog.EntityID = catalog.Invalid
	if len(sub.Args) == 1 {
		edgeEntry := &catalog.IndexSetEntry{IsEdgeOfConnection: connID}
		edgeSetID = l.cat.Add(catalog.RegIndexSet, edgeEntry)
		if sub.Args[0].Kind == ast.ArgIdentChain && len(sub.Args[0].Chain) == 1 {
			name := sub.Args[0].Chain[0]
			edgeEntry.Header().Name = name
			l.cat.AddLocal(scope, name, sub.Loc, edgeSetID, true)
		}
		entry.EdgeIndexSet = edgeSetID
		l.store.InitializeEdge(edgeSetID, len(entry.Components))
	}
	if sub.Body == nil || sub.Body.Kind != ast.BodyBracketed {
		return
	}
	for _, arrow := range sub.Body.Arrows {
		for i := 1; i < len(arrow.Nodes); i++ {
			if edgeSetID.Valid() {
				l.store.AddEdgeIndex(edgeSetID, arrow.Nodes[i].Name)
			}
		}
	}
}

// loadModule registers a data-set `module` block; its braced body nests
// par_group/series declarations in a child scope owned by the module.
func (l *Loader) loadModule(decl *ast.Decl, scope *catalog.Scope) {
	entry := &catalog.ModuleEntry{}
	id := l.cat.Add(catalog.RegModule, entry)
	if err := l.registerNamed(scope, decl, id); err != nil {
		return
	}
	l.ds.Modules = append(l.ds.Modules, id)
	entry.Scope = l.cat.NewScope(scope, declName(decl))

	for _, sub := range bodyDecls(decl) {
		switch sub.Keyword {
		case "par_group":
			l.loadParGroup(sub, entry.Scope)
		case "series":
			l.loadSeries(sub, entry.Scope)
		}
	}
}

// loadParGroup registers a par_group and its nested parameters, reading each
// parameter's bracketed value list and validating its length against
// get_instance_count(group.index_sets), per spec.md §4.3.
func (l *Loader) loadParGroup(decl *ast.Decl, scope *catalog.Scope) {
	entry := &catalog.ParameterGroupEntry{}
	id := l.cat.Add(catalog.RegParameterGroup, entry)
	if err := l.registerNamed(scope, decl, id); err != nil {
		return
	}
	l.ds.ParGroups = append(l.ds.ParGroups, id)

	if note := decl.FindNote("index_sets"); note != nil {
		for _, a := range note.Args {
			if set, err := l.cat.ResolveArgument(scope, catalog.RegIndexSet, a); err == nil {
				entry.IndexSets = append(entry.IndexSets, set)
			}
		}
	}
	l.store.CheckValidDistribution(entry.IndexSets, decl.Loc)
	instanceCount := int(l.store.GetInstanceCount(entry.IndexSets))

	parKinds := map[string]string{
		"par_real": "real", "par_int": "int", "par_bool": "bool",
		"par_datetime": "datetime", "par_enum": "enum",
	}
	for _, sub := range bodyDecls(decl) {
		valueType, ok := parKinds[sub.Keyword]
		if !ok {
			continue
		}
		pEntry := &catalog.ParameterEntry{ValueType: valueType, IndexSets: entry.IndexSets}
		if valueType == "enum" && len(sub.Args) > 1 {
			for _, a := range sub.Args[1:] {
				if a.Kind == ast.ArgLiteral {
					pEntry.EnumValues = append(pEntry.EnumValues, a.Literal.StrVal)
				}
			}
		}
		pID := l.cat.Add(catalog.RegParameter, pEntry)
		if err := l.registerNamed(scope, sub, pID); err != nil {
			continue
		}
		entry.Parameters = append(entry.Parameters, pID)

		vals := l.parseParameterValues(sub, pEntry, instanceCount)
		if vals == nil {
			continue
		}
		pEntry.Values = vals
		pEntry.Offset = l.paramSlots
		l.paramSlots += len(vals)
	}
}

// parseParameterValues reads decl's bracketed `[ vals ]` body (or its
// sub-tables, for a parameter distributed over a sub-indexed set) in
// Index_Data::for_each order and fatals, per spec.md §4.3, if the count
// doesn't equal get_instance_count(group.index_sets).
func (l *Loader) parseParameterValues(decl *ast.Decl, entry *catalog.ParameterEntry, wantCount int) []float64 {
	if decl.Body == nil || decl.Body.Kind != ast.BodyBracketed {
		l.sink.Fatalf(diagnostics.File, decl.Loc, "%s %q requires a bracketed value list", decl.Keyword, declName(decl))
		return nil
	}
	args := flattenBodyValues(decl.Body)
	if len(args) != wantCount {
		l.sink.Fatalf(diagnostics.File, decl.Loc, "%s %q has %d value(s), expected %d (get_instance_count of its index sets)",
			decl.Keyword, declName(decl), len(args), wantCount)
		return nil
	}
	vals := make([]float64, len(args))
	for i, a := range args {
		v, ok := l.literalParamValue(a, entry, decl.Loc)
		if !ok {
			return nil
		}
		vals[i] = v
	}
	return vals
}

// flattenBodyValues returns decl's bracketed values in for_each order: a
// flat `[ v1 v2 ... ]` body as-is, or a sub-indexed `[ key: [...] ; ... ]`
// body's sub-table values concatenated in parent-ordinal order.
func flattenBodyValues(body *ast.Body) []*ast.Arg {
	if len(body.Values) > 0 {
		return body.Values
	}
	var out []*ast.Arg
	for _, sub := range body.SubTables {
		out = append(out, sub.Values...)
	}
	return out
}

// literalParamValue decodes one value token according to entry.ValueType,
// uniformly as a float64 (the run's Parameters buffer, like every other
// backend.BatchArgs slice, is float64-only): real/int pass through, bool is
// 0/1, datetime is parsed as a calendar date and stored as Unix seconds, and
// enum is resolved to its declared label's ordinal in entry.EnumValues.
func (l *Loader) literalParamValue(a *ast.Arg, entry *catalog.ParameterEntry, loc diagnostics.SourceLoc) (float64, bool) {
	if a.Kind != ast.ArgLiteral {
		l.sink.Fatalf(diagnostics.File, loc, "%s value must be a literal", entry.ValueType)
		return 0, false
	}
	switch entry.ValueType {
	case "real", "int":
		return literalReal(a.Literal), true
	case "bool":
		if a.Literal.Kind != token.Boolean {
			l.sink.Fatalf(diagnostics.File, a.Loc, "expected a boolean value, got %s", a.Literal.Kind)
			return 0, false
		}
		if a.Literal.BoolVal {
			return 1, true
		}
		return 0, true
	case "datetime":
		raw := a.Literal.StrVal
		if raw == "" {
			raw = a.Literal.Raw
		}
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			l.sink.Fatalf(diagnostics.File, a.Loc, "invalid datetime value %q: %v", raw, err)
			return 0, false
		}
		return float64(t.Unix()), true
	case "enum":
		for i, label := range entry.EnumValues {
			if label == a.Literal.StrVal {
				return float64(i), true
			}
		}
		l.sink.Fatalf(diagnostics.File, a.Loc, "%q is not a declared enum value", a.Literal.StrVal)
		return 0, false
	default:
		l.sink.Fatalf(diagnostics.File, loc, "unknown parameter value type %q", entry.ValueType)
		return 0, false
	}
}

// loadSeries registers a series() declaration naming an external CSV file;
// the file itself is read separately via ReadSeriesFile once all index sets
// referenced by @index_sets are initialized.
func (l *Loader) loadSeries(decl *ast.Decl, scope *catalog.Scope) {
	entry := &catalog.SeriesEntry{}
	id := l.cat.Add(catalog.RegSeries, entry)
	if err := l.registerNamed(scope, decl, id); err != nil {
		return
	}
	if note := decl.FindNote("index_sets"); note != nil {
		for _, a := range note.Args {
			if set, err := l.cat.ResolveArgument(scope, catalog.RegIndexSet, a); err == nil {
				entry.IndexSets = append(entry.IndexSets, set)
			}
		}
	}
	if note := decl.FindNote("unit"); note != nil && len(note.Args) == 1 && note.Args[0].Kind == ast.ArgLiteral {
		entry.Unit = note.Args[0].Literal.StrVal
	}
	s := &Series{ID: id, Name: declName(decl)}
	if len(decl.Args) > 0 && decl.Args[len(decl.Args)-1].Kind == ast.ArgLiteral {
		s.SourceFile = decl.Args[len(decl.Args)-1].Literal.StrVal
	}
	l.ds.Series = append(l.ds.Series, s)
}
