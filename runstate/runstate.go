// Package runstate implements C11: the run-state record and the batch
// executor's model-run protocol of spec.md §4.5. Grounded on the teacher's
// inspector.Inspector "one pass builds one result" shape for the overall
// control flow, but the time-stepped/ODE loop itself has no direct teacher
// analogue (a static-analysis tool has no runtime loop) so its structure
// follows spec.md §4.5 directly; logging/error conventions still follow the
// rest of this repo's diagnostics package.
package runstate

import (
	"time"

	"github.com/viant/biome/backend"
	"github.com/viant/biome/diagnostics"
	"github.com/viant/biome/solver"
)

// SolverDescriptor is a batch's optional ODE integration hook, per
// spec.md §4.5: `{solver_fun, first_ode_offset, n_ode, h, hmin}`.
type SolverDescriptor struct {
	Step           solver.StepFunc
	FirstODEOffset int
	NumODE         int
	H              float64
	HMin           float64
}

// Batch is one compiled code region executed once per time step, optionally
// under an ODE solver, per spec.md §4.5.
type Batch struct {
	Name   string
	Fn     backend.BatchFunc
	Solver *SolverDescriptor // nil: invoked directly, no solver
}

// RunState is the plain buffer record of spec.md §3: contiguous arrays plus
// the calendar cursor and fractional step. One RunState backs every batch
// invocation for the duration of a run.
type RunState struct {
	Args backend.BatchArgs
	Step int // -1 before the first real time step, per spec.md §4.5 step 3
}

// NaNDiagnostic names the offending state variable, the step, and the index
// tuple at which a non-finite value was first observed, per spec.md §4.5
// step 6.d and scenario 6.
type NaNDiagnostic struct {
	VariableName string
	Step         int
	IndexNames   []string
}

func (d *NaNDiagnostic) Error() string {
	return diagnostics.New(diagnostics.Numerical, diagnostics.SourceLoc{}, "non-finite value in %s at step %d, index (%s)",
		d.VariableName, d.Step, joinNames(d.IndexNames)).Error()
}

func joinNames(names []string) string {
	out := ""
	for i, n := range names {
		if i > 0 {
			out += ", "
		}
		out += n
	}
	return out
}

// Config carries the fixed, validated-once-per-run parameters of the model
// run protocol: time bounds, state layout, and the optional diagnostics
// hooks NaN-checking needs to name the variable/index that went bad.
type Config struct {
	Start, End time.Time
	StepSize   time.Duration
	TimeSteps  int
	StateCount int

	CheckForNaN bool
	Timeout     time.Duration // zero means no wall-clock limit

	// StateVarName resolves a flat state var index to a diagnostic name;
	// IndexNames resolves it to the index-tuple names cited by a NaN
	// diagnostic (spec.md §8 scenario 6). Both default to a numeric
	// placeholder when nil.
	StateVarName func(id int) string
	IndexNames   func(id int) []string

	// RefreshSeries, if set, is called with the run's calendar cursor before
	// the initial batch invocation and again after every step's DateTime
	// advance, to overwrite out (backend.BatchArgs.Series) with whatever
	// value each external series holds at t. Left nil, series stay whatever
	// the caller pre-loaded RunState.Args.Series with.
	RefreshSeries func(t time.Time, out []float64)
}

func (c Config) stateVarName(id int) string {
	if c.StateVarName != nil {
		return c.StateVarName(id)
	}
	return "state_var"
}

func (c Config) indexNames(id int) []string {
	if c.IndexNames != nil {
		return c.IndexNames(id)
	}
	return nil
}

// Model is a run's full set of batches sharing one RunState.
type Model struct {
	Batches []*Batch
}

// Validate checks spec.md §4.5 step 1: start <= end and that TimeSteps/
// StateCount are positive.
func (c Config) Validate() *diagnostics.Error {
	if c.End.Before(c.Start) {
		return diagnostics.New(diagnostics.APIUsage, diagnostics.SourceLoc{}, "run end %s precedes start %s", c.End, c.Start)
	}
	if c.TimeSteps <= 0 {
		return diagnostics.New(diagnostics.APIUsage, diagnostics.SourceLoc{}, "time_steps must be positive, got %d", c.TimeSteps)
	}
	if c.StateCount <= 0 {
		return diagnostics.New(diagnostics.APIUsage, diagnostics.SourceLoc{}, "state_var_count must be positive, got %d", c.StateCount)
	}
	return nil
}

// ResultBuffers is the allocation of spec.md §4.5 step 2: `results` sized
// time_steps × state_var_count, and `temp_results` as scratch of the same
// shape.
type ResultBuffers struct {
	Results     [][]float64
	TempResults [][]float64
}

// AllocateResults allocates Results/TempResults per Config.
func AllocateResults(c Config) ResultBuffers {
	alloc := func() [][]float64 {
		rows := make([][]float64, c.TimeSteps)
		for i := range rows {
			rows[i] = make([]float64, c.StateCount)
		}
		return rows
	}
	return ResultBuffers{Results: alloc(), TempResults: alloc()}
}

// clampH/clampHMin implement spec.md §4.5 step 4's range clamps.
func clampH(h float64) float64 {
	if h < 0 {
		return 0
	}
	if h > 1 {
		return 1
	}
	return h
}

func clampHMin(hmin float64) float64 {
	if hmin < 1e-10 {
		return 1e-10
	}
	if hmin > 1 {
		return 1
	}
	return hmin
}

// ResolveStepSizes applies spec.md §4.5 step 4 to every batch with a solver
// descriptor: clamp H to [0,1], clamp HMin to [1e-10,1], then store HMin as
// an absolute step size (HMin *= H). Batches already carry H/HMin resolved
// from a parameter or literal unit by the caller (unit conversion is a
// model-building concern, done once when the batch is built, not here).
func ResolveStepSizes(m *Model) {
	for _, b := range m.Batches {
		if b.Solver == nil {
			continue
		}
		b.Solver.H = clampH(b.Solver.H)
		b.Solver.HMin = clampHMin(b.Solver.HMin) * b.Solver.H
	}
}
