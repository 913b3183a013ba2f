// Command biome parses a model file (and optional data-set file), builds
// and optimizes its Math IR, and runs it through the emulator backend, the
// way the teacher's inspector/coder/example driver wires a single Analyzer
// pass behind the stdlib flag package (no CLI framework dependency).
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/viant/afs"

	"github.com/viant/biome/ast"
	"github.com/viant/biome/backend"
	"github.com/viant/biome/backend/emulate"
	"github.com/viant/biome/catalog"
	"github.com/viant/biome/catalogview"
	"github.com/viant/biome/dataset"
	"github.com/viant/biome/diagnostics"
	"github.com/viant/biome/indexdata"
	"github.com/viant/biome/lexer"
	"github.com/viant/biome/mathir"
	"github.com/viant/biome/model"
	"github.com/viant/biome/optimizer"
	"github.com/viant/biome/runstate"
	"github.com/viant/biome/solver"
	"github.com/viant/biome/tokenstream"
)

// solverConstructors maps a solver's declared @kind to its StepFunc
// constructor. Only "rk4" is implemented (spec.md Non-goals excludes new
// solver families beyond the original's); any other declared kind fails the
// run rather than silently substituting RK4.
var solverConstructors = map[string]func() solver.StepFunc{
	"rk4": func() solver.StepFunc { return solver.NewRK4().Step },
}

func main() {
	timeout := flag.Duration("timeout", 0, "wall-clock limit for the run (0: no limit)")
	nanCheck := flag.Bool("nan-check", true, "abort the run with a diagnostic on the first non-finite value")
	dumpIR := flag.String("dump-ir", "", "write a YAML dataflow export of every batch's pruned IR to this path")
	steps := flag.Int("steps", 10, "number of time steps to run")
	stepSize := flag.Duration("step", 24*time.Hour, "duration of one time step")
	start := flag.String("start", "2000-01-01", "run start date, YYYY-MM-DD")
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "usage: biome [flags] model_file [data_file]")
		os.Exit(2)
	}
	modelFile := flag.Arg(0)
	var dataFile string
	if flag.NArg() > 1 {
		dataFile = flag.Arg(1)
	}

	if err := run(runArgs{
		modelFile: modelFile, dataFile: dataFile,
		timeout: *timeout, nanCheck: *nanCheck, dumpIR: *dumpIR,
		steps: *steps, stepSize: *stepSize, start: *start,
	}); err != nil {
		fmt.Fprintln(os.Stderr, "biome:", err)
		os.Exit(1)
	}
}

type runArgs struct {
	modelFile, dataFile string
	timeout             time.Duration
	nanCheck            bool
	dumpIR              string
	steps               int
	stepSize            time.Duration
	start               string
}

func run(a runArgs) error {
	ctx := context.Background()
	fs := afs.New()
	sink := &diagnostics.Sink{}
	cat := catalog.New(sink)
	store := indexdata.NewStore(cat, sink)

	var ds *dataset.Dataset
	if a.dataFile != "" {
		decls, err := parseFile(ctx, fs, a.dataFile, sink)
		if err != nil {
			return err
		}
		ds = dataset.NewLoader(cat, store, sink).Load(decls, cat.Global())
		if sink.HasErrors() {
			return reportErrors(sink)
		}
		if err := readSeriesFiles(ctx, fs, cat, ds, filepath.Dir(a.dataFile), sink); err != nil {
			return err
		}
	}

	modelDecls, err := parseFile(ctx, fs, a.modelFile, sink)
	if err != nil {
		return err
	}
	mdl := model.NewLoader(cat, sink).Load(modelDecls, cat.Global())
	if sink.HasErrors() {
		return reportErrors(sink)
	}

	batches := model.NewBuilder(cat, sink).Build(mdl)
	if sink.HasErrors() {
		return reportErrors(sink)
	}

	be := emulate.New(nil)
	if err := be.Initialize(); err != nil {
		return err
	}
	maxScope := highestScopeID(batches)
	for _, b := range batches {
		b.Root = optimizer.PruneTree(b.Root, sink, maxScope)
		if err := be.AddBatch(b.Name, b.Root); err != nil {
			return err
		}
	}
	if err := be.Compile(); err != nil {
		return err
	}

	if a.dumpIR != "" {
		if err := dumpBatches(batches, a.dumpIR); err != nil {
			return err
		}
	}

	startTime, perr := time.Parse("2006-01-02", a.start)
	if perr != nil {
		return perr
	}
	cfg := runstate.Config{
		Start:       startTime,
		End:         startTime.Add(time.Duration(a.steps) * a.stepSize),
		StepSize:    a.stepSize,
		TimeSteps:   a.steps,
		StateCount:  cat.Count(catalog.RegStateVar),
		CheckForNaN: a.nanCheck,
		Timeout:     a.timeout,
		StateVarName: func(id int) string {
			if e := cat.At(catalog.EntityID{RegType: catalog.RegStateVar, Index: id}); e != nil {
				return e.Header().Name
			}
			return "state_var"
		},
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	runModel, err := assembleRunModel(cat, batches, be)
	if err != nil {
		return err
	}
	runstate.ResolveStepSizes(runModel)

	params := parametersBuffer(cat, ds)
	seriesBuf := make([]float64, seriesBufferSize(ds))
	if ds != nil {
		cfg.RefreshSeries = func(t time.Time, out []float64) {
			for _, s := range ds.Series {
				s.ValueAt(t, out)
			}
		}
	}

	buffers := runstate.AllocateResults(cfg)
	rs := &runstate.RunState{
		Args: backend.BatchArgs{
			Parameters: params,
			Series:     seriesBuf,
			StateVars:  make([]float64, cfg.StateCount),
			TempVars:   make([]float64, cfg.StateCount),
		},
		Step: -1,
	}

	ok, err := runstate.RunModel(cfg, runModel, rs, buffers)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintln(os.Stderr, "biome: run aborted (timeout)")
		os.Exit(1)
	}
	fmt.Printf("biome: ran %d steps over %d state variables, batches: %v\n",
		cfg.TimeSteps, cfg.StateCount, model.SortedSolverNames(batches))
	return nil
}

func parseFile(ctx context.Context, fs afs.Service, path string, sink *diagnostics.Sink) ([]*ast.Decl, error) {
	raw, err := fs.DownloadWithURL(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	l := lexer.New(raw, path, sink)
	stream := tokenstream.New(l)
	decls := ast.New(stream, sink).ParseFile()
	if sink.HasErrors() {
		return nil, reportErrors(sink)
	}
	return decls, nil
}

func reportErrors(sink *diagnostics.Sink) error {
	for _, e := range sink.Errors() {
		fmt.Fprintln(os.Stderr, e.Error())
	}
	return fmt.Errorf("%d error(s)", len(sink.Errors()))
}

func highestScopeID(batches []*model.Batch) int {
	highest := 0
	for _, b := range batches {
		if blk, ok := b.Root.(*mathir.Block); ok && blk.ScopeID > highest {
			highest = blk.ScopeID
		}
	}
	return highest
}

func dumpBatches(batches []*model.Batch, path string) error {
	g := &catalogview.Graph{}
	for _, b := range batches {
		sub := catalogview.BuildIRGraph(b.Root)
		g.Nodes = append(g.Nodes, sub.Nodes...)
		g.Edges = append(g.Edges, sub.Edges...)
	}
	return (catalogview.YAMLExporter{Path: path}).Export(g)
}

func assembleRunModel(cat *catalog.Catalog, batches []*model.Batch, be *emulate.Backend) (*runstate.Model, error) {
	rm := &runstate.Model{}
	for _, b := range batches {
		fn, err := be.Lookup(b.Name)
		if err != nil {
			return nil, err
		}
		rb := &runstate.Batch{Name: b.Name, Fn: fn}
		if b.SolverID.Valid() {
			kind := "rk4"
			if entry, ok := cat.At(b.SolverID).(*catalog.SolverEntry); ok && entry.Kind != "" {
				kind = entry.Kind
			}
			newStep, ok := solverConstructors[kind]
			if !ok {
				return nil, fmt.Errorf("solver %q declares unrecognized kind %q", b.Name, kind)
			}
			rb.Solver = &runstate.SolverDescriptor{
				Step:           newStep(),
				FirstODEOffset: b.FirstODEOffset,
				NumODE:         b.NumODE,
				H:              1,
				HMin:           1e-6,
			}
		}
		rm.Batches = append(rm.Batches, rb)
	}
	return rm, nil
}

// readSeriesFiles reads every data-set series' CSV file, assigns each
// series' flat-buffer Offset (mirrored into its catalog.SeriesEntry), and
// fatals via sink on any read/parse error (spec.md §4.3's series CSV
// dialect).
func readSeriesFiles(ctx context.Context, fs afs.Service, cat *catalog.Catalog, ds *dataset.Dataset, baseDir string, sink *diagnostics.Sink) error {
	if ds == nil {
		return nil
	}
	offset := 0
	for _, s := range ds.Series {
		s.Offset = offset
		if err := s.ReadSeriesFile(ctx, fs, baseDir, sink); err != nil {
			return reportErrors(sink)
		}
		if se, ok := cat.At(s.ID).(*catalog.SeriesEntry); ok {
			se.Offset = offset
		}
		offset += len(s.Columns)
	}
	if sink.HasErrors() {
		return reportErrors(sink)
	}
	return nil
}

// parametersBuffer allocates the run's flat Parameters buffer and copies
// every registered parameter's pre-parsed Values into it at its Offset, per
// spec.md §8's get_instance_count-sized value arrays.
func parametersBuffer(cat *catalog.Catalog, ds *dataset.Dataset) []float64 {
	size := 0
	if ds != nil {
		size = ds.ParamSlotCount
	}
	buf := make([]float64, size)
	n := cat.Count(catalog.RegParameter)
	for i := 0; i < n; i++ {
		if p, ok := cat.At(catalog.EntityID{RegType: catalog.RegParameter, Index: i}).(*catalog.ParameterEntry); ok {
			copy(buf[p.Offset:p.Offset+len(p.Values)], p.Values)
		}
	}
	return buf
}

// seriesBufferSize returns the total column count across every data-set
// series, i.e. the size the run's flat Series buffer needs once every
// series' CSV file has been read.
func seriesBufferSize(ds *dataset.Dataset) int {
	if ds == nil {
		return 0
	}
	total := 0
	for _, s := range ds.Series {
		total += len(s.Columns)
	}
	return total
}
