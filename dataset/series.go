package dataset

import (
	"context"
	"encoding/csv"
	"strconv"
	"strings"
	"time"

	"github.com/viant/afs"

	"github.com/viant/biome/catalog"
	"github.com/viant/biome/diagnostics"
)

// csvDateLayout is the date-and-time layout of the series CSV dialect's
// first column, per spec.md §6; parseSeriesTimestamp also accepts a bare
// date ("2006-01-02").
const csvDateLayout = "2006-01-02 15:04:05"

// Series is one series() declaration's in-memory payload: a header naming
// its value columns (each distributed over IndexSets, flattened
// column-major the way runstate expects a persisted buffer) plus the time
// axis and the flat value matrix read from SourceFile.
type Series struct {
	ID         catalog.EntityID
	Name       string
	SourceFile string

	// Offset is this series' first slot in the run's flat Series buffer
	// (backend.BatchArgs.Series); its columns occupy [Offset, Offset+len(Columns)).
	Offset int

	Columns []string // qualified column names, as they appeared in the CSV header
	Times   []time.Time
	// Values[col][row] — column-major, one slice per CSV data column.
	Values [][]float64
}

// ValueAt writes this series' value at calendar time t into out[Offset:],
// per spec.md §4.3's CSV dialect: the row in effect at t is the last one
// whose timestamp does not exceed t (step_interpolate/"inside" semantics),
// falling back to the first row for t before the series starts. A series
// with no rows read yet (ReadSeriesFile not called, or an empty file)
// leaves out untouched.
func (s *Series) ValueAt(t time.Time, out []float64) {
	if len(s.Times) == 0 {
		return
	}
	row := 0
	for i, rt := range s.Times {
		if rt.After(t) {
			break
		}
		row = i
	}
	for col := range s.Columns {
		if s.Offset+col < len(out) {
			out[s.Offset+col] = s.Values[col][row]
		}
	}
}

// ReadSeriesFile loads s.SourceFile via fs (teacher's afs.Service pattern,
// inspector/info.Document.CreateDocuments) and parses it in the CSV dialect:
// first column a "YYYY-MM-DD HH:MM:SS" timestamp (or date-only, time
// defaulting to midnight), remaining columns floats; a blank cell means "no
// observation at this step" and is recorded as NaN.
func (s *Series) ReadSeriesFile(ctx context.Context, fs afs.Service, baseDir string, sink *diagnostics.Sink) *diagnostics.Error {
	loc := diagnostics.SourceLoc{File: s.SourceFile}
	path := s.SourceFile
	if baseDir != "" && !strings.HasPrefix(path, "/") {
		path = baseDir + "/" + path
	}
	raw, err := fs.DownloadWithURL(ctx, path)
	if err != nil {
		return sink.Fatalf(diagnostics.File, loc, "reading series file %q: %v", s.SourceFile, err)
	}
	r := csv.NewReader(strings.NewReader(string(raw)))
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return sink.Fatalf(diagnostics.File, loc, "parsing series CSV %q: %v", s.SourceFile, err)
	}
	if len(rows) < 1 {
		return sink.Fatalf(diagnostics.File, loc, "series file %q has no header row", s.SourceFile)
	}
	header := rows[0]
	if len(header) < 2 {
		return sink.Fatalf(diagnostics.File, loc, "series file %q needs a time column plus at least one value column", s.SourceFile)
	}
	s.Columns = header[1:]
	s.Values = make([][]float64, len(s.Columns))

	for rowNum, row := range rows[1:] {
		rowLoc := diagnostics.SourceLoc{File: s.SourceFile, Line: rowNum + 2}
		if len(row) == 0 {
			continue
		}
		t, terr := parseSeriesTimestamp(row[0])
		if terr != nil {
			return sink.Fatalf(diagnostics.File, rowLoc, "bad timestamp %q: %v", row[0], terr)
		}
		s.Times = append(s.Times, t)
		for col := range s.Columns {
			v := nan()
			if col+1 < len(row) && strings.TrimSpace(row[col+1]) != "" {
				parsed, perr := strconv.ParseFloat(strings.TrimSpace(row[col+1]), 64)
				if perr != nil {
					return sink.Fatalf(diagnostics.File, rowLoc, "bad value %q in column %q: %v", row[col+1], s.Columns[col], perr)
				}
				v = parsed
			}
			s.Values[col] = append(s.Values[col], v)
		}
	}
	return nil
}

func parseSeriesTimestamp(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(csvDateLayout, raw); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", raw)
}

func nan() float64 {
	var zero float64
	return zero / zero
}

// WriteSeriesFile reproduces the CSV dialect deterministically: a header
// row, then one row per recorded time step, blank cells for NaN.
func (s *Series) WriteSeriesFile() string {
	var b strings.Builder
	b.WriteString("time")
	for _, c := range s.Columns {
		b.WriteString(",")
		b.WriteString(c)
	}
	b.WriteString("\n")
	for row, t := range s.Times {
		b.WriteString(t.Format(csvDateLayout))
		for col := range s.Columns {
			b.WriteString(",")
			v := s.Values[col][row]
			if v == v { // not NaN
				b.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
			}
		}
		b.WriteString("\n")
	}
	return b.String()
}
