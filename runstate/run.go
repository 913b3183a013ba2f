package runstate

import (
	"math"
	"time"

	"github.com/viant/biome/backend"
)

// advanceDateTime steps dt's backend.DateTime by one step_size, per
// spec.md §4.5's ExpandedDateTime cursor.
func advanceDateTime(dt backend.DateTime, step time.Duration) backend.DateTime {
	t := time.Date(dt.Year, time.Month(dt.Month), dt.Day, dt.Hour, dt.Minute, dt.Second, dt.Nanosecond, time.UTC)
	t = t.Add(step)
	return backend.DateTime{
		Year: t.Year(), Month: int(t.Month()), Day: t.Day(),
		Hour: t.Hour(), Minute: t.Minute(), Second: t.Second(), Nanosecond: t.Nanosecond(),
	}
}

// dateTimeToTime converts a backend.DateTime cursor back to a time.Time, the
// inverse of expandedDateTime, so RefreshSeries can look values up by
// calendar time.
func dateTimeToTime(dt backend.DateTime) time.Time {
	return time.Date(dt.Year, time.Month(dt.Month), dt.Day, dt.Hour, dt.Minute, dt.Second, dt.Nanosecond, time.UTC)
}

// expandedDateTime builds the starting backend.DateTime per spec.md §4.5
// step 3: ExpandedDateTime(start, step_size). start is the calendar
// timestamp; step_size isn't needed to build the initial cursor, only to
// advance it, but is accepted here to mirror the original's single
// constructor call.
func expandedDateTime(start time.Time, _ time.Duration) backend.DateTime {
	return backend.DateTime{
		Year: start.Year(), Month: int(start.Month()), Day: start.Day(),
		Hour: start.Hour(), Minute: start.Minute(), Second: start.Second(), Nanosecond: start.Nanosecond(),
	}
}

// RunModel executes the full model-run protocol of spec.md §4.5 over m and
// rs. buffers must already be allocated via AllocateResults and m's solver
// descriptors already resolved via ResolveStepSizes. It returns (true, nil)
// on a clean finish, (false, nil) on a silent wall-clock-timeout abort, and
// (false, err) when NaN-checking catches a non-finite write.
func RunModel(c Config, m *Model, rs *RunState, buffers ResultBuffers) (bool, error) {
	if err := c.Validate(); err != nil {
		return false, err
	}

	rs.Args.DateTime = expandedDateTime(c.Start, c.StepSize)
	rs.Step = -1

	deadline := time.Time{}
	if c.Timeout > 0 {
		deadline = time.Now().Add(c.Timeout)
	}

	if c.RefreshSeries != nil {
		c.RefreshSeries(c.Start, rs.Args.Series)
	}
	runBatches(m, rs)

	for step := 0; step < c.TimeSteps; step++ {
		copyForward(rs.Args.StateVars, buffers.Results, step)

		runBatches(m, rs)

		rs.Args.DateTime = advanceDateTime(rs.Args.DateTime, c.StepSize)
		rs.Step = step
		if c.RefreshSeries != nil {
			c.RefreshSeries(dateTimeToTime(rs.Args.DateTime), rs.Args.Series)
		}
		copy(buffers.Results[step], rs.Args.StateVars)

		if c.CheckForNaN {
			if idx, ok := firstNonFinite(buffers.Results[step]); ok {
				return false, &NaNDiagnostic{
					VariableName: c.stateVarName(idx),
					Step:         step,
					IndexNames:   c.indexNames(idx),
				}
			}
		}

		if !deadline.IsZero() && time.Now().After(deadline) {
			return false, nil
		}
	}
	return true, nil
}

// copyForward implements spec.md §4.5 step 6.a: seed the current state
// slice from the previous step's result (or leave RunState's already-
// initialized state alone for step 0, whose "previous slice" is the initial
// batch's output).
func copyForward(stateVars []float64, results [][]float64, step int) {
	if step == 0 {
		return
	}
	copy(stateVars, results[step-1])
}

// runBatches implements spec.md §4.5 step 6.b: invoke every batch directly,
// or through its solver if it has one.
func runBatches(m *Model, rs *RunState) {
	for _, b := range m.Batches {
		if b.Solver == nil {
			b.Fn(&rs.Args)
			continue
		}
		x0 := rs.Args.StateVars[b.Solver.FirstODEOffset : b.Solver.FirstODEOffset+b.Solver.NumODE]
		x := append([]float64(nil), x0...)
		rhs := func(xt, dxdt []float64) {
			copy(x0, xt)
			b.Fn(&rs.Args)
			copy(dxdt, rs.Args.SolverWorkspace[b.Solver.FirstODEOffset:b.Solver.FirstODEOffset+b.Solver.NumODE])
		}
		b.Solver.Step(&b.Solver.H, b.Solver.HMin, b.Solver.NumODE, x, rhs)
		copy(x0, x)
	}
}

func firstNonFinite(vals []float64) (int, bool) {
	for i, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return i, true
		}
	}
	return 0, false
}
