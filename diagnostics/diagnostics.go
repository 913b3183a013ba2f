// Package diagnostics provides a uniform error channel with file/line/column
// source locations, modeled on the teacher's inspector/info.Location and
// inspector/graph.LocationNode positional metadata.
package diagnostics

import "fmt"

// Kind classifies a diagnostic per spec.md §7.
type Kind string

const (
	Parsing       Kind = "parsing"
	File          Kind = "file"
	ModelBuilding Kind = "model_building"
	APIUsage      Kind = "api_usage"
	Numerical     Kind = "numerical"
	Spreadsheet   Kind = "spreadsheet"
	Internal      Kind = "internal"
)

// SourceLoc identifies a position in a source file, or in a spreadsheet tab.
type SourceLoc struct {
	File   string `yaml:"file"`
	Line   int    `yaml:"line"`
	Column int    `yaml:"column"`

	// Spreadsheet-specific fields; only meaningful when Kind == Spreadsheet.
	Tab  string `yaml:"tab,omitempty"`
	Cell string `yaml:"cell,omitempty"`
}

func (l SourceLoc) String() string {
	if l.Tab != "" || l.Cell != "" {
		return fmt.Sprintf("tab %s cell %s", l.Tab, l.Cell)
	}
	if l.File == "" && l.Line == 0 && l.Column == 0 {
		return "internal"
	}
	return fmt.Sprintf("In %s line %d column %d", l.File, l.Line, l.Column)
}

// Error is the standard diagnostic type propagated by every component.
type Error struct {
	Kind Kind
	Loc  SourceLoc
	Msg  string
	// Other, when set, is a second location cited by duplicate-definition
	// errors (the prior declaration).
	Other *SourceLoc
}

func (e *Error) Error() string {
	if e.Other != nil {
		return fmt.Sprintf("ERROR (%s): %s: %s (previously declared %s)", e.Kind, e.Loc, e.Msg, *e.Other)
	}
	return fmt.Sprintf("ERROR (%s): %s: %s", e.Kind, e.Loc, e.Msg)
}

// New constructs an Error.
func New(kind Kind, loc SourceLoc, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Loc: loc, Msg: fmt.Sprintf(format, args...)}
}

// WithOther attaches a second, prior location to a duplicate-definition error.
func (e *Error) WithOther(loc SourceLoc) *Error {
	o := loc
	e.Other = &o
	return e
}

// Sink collects diagnostics for a single compilation run. Compilation errors
// are fatal to the run (the caller should stop using the partial catalog),
// but are never presented via os.Exit inside library code — see design notes
// ("library mode" result type) — the top-level driver decides whether to
// print and exit.
type Sink struct {
	errors []*Error
}

// Report appends a diagnostic to the sink.
func (s *Sink) Report(err *Error) {
	s.errors = append(s.errors, err)
}

// Fatalf is a convenience wrapper for Report(New(...)).
func (s *Sink) Fatalf(kind Kind, loc SourceLoc, format string, args ...interface{}) *Error {
	err := New(kind, loc, format, args...)
	s.Report(err)
	return err
}

// HasErrors reports whether any diagnostic has been recorded.
func (s *Sink) HasErrors() bool { return len(s.errors) > 0 }

// Errors returns all recorded diagnostics in report order.
func (s *Sink) Errors() []*Error { return s.errors }

// First returns the first recorded diagnostic, or nil.
func (s *Sink) First() *Error {
	if len(s.errors) == 0 {
		return nil
	}
	return s.errors[0]
}
