// Package solver implements the ODE solver hook of spec.md §4.5: the
// `solver_fun(&h, hmin, n_ode, x0, run_state, fn)` callback a run-state batch
// with a solver descriptor invokes instead of calling its batch function
// directly. Grounded in the *spirit* of the original's jacobian.cpp (a
// pluggable numerical-method extension point around the same `fn`
// right-hand-side signature), adapted from a finite-difference-Jacobian
// implicit solver to an explicit RK4 stepper since no implicit solver is in
// scope (spec.md Non-goals).
package solver

// RHS is the ODE right-hand-side: given the current state vector x (the
// n_ode-long slice at state_vars[first_ode_offset:]), it evaluates
// derivatives into dxdt by invoking the batch function and reading back
// solver_workspace. Callers adapt their backend.BatchFunc to this shape.
type RHS func(x, dxdt []float64)

// StepFunc is the `solver_fun` signature of spec.md §4.5: advances x by one
// adaptive step starting from step size *h (a warm start carried across
// calls), never taking a step smaller than hmin, writing the integrated
// state back into x. It returns the step size actually achieved.
type StepFunc func(h *float64, hmin float64, nODE int, x []float64, fn RHS) float64

// Jacobian is an optional extension point for a future implicit solver
// (finite-difference or analytic), matching the original's jacobian.cpp
// hook without an implementation behind it (spec.md Non-goals: no new
// solver families beyond what original_source ships).
type Jacobian func(x []float64, fn RHS) [][]float64

// RK4 is a fixed- or adaptive-step Runge-Kutta-4 StepFunc. When h <= hmin it
// takes one fixed step of size hmin. Otherwise it estimates local error by step
// doubling (one step of h vs two of h/2) and halves h until the estimate is
// within tol, never going below hmin.
type RK4 struct {
	Tolerance float64
}

// NewRK4 returns an RK4 stepper with a sensible default tolerance.
func NewRK4() *RK4 {
	return &RK4{Tolerance: 1e-6}
}

func (r *RK4) Step(h *float64, hmin float64, nODE int, x []float64, fn RHS) float64 {
	tol := r.Tolerance
	if tol <= 0 {
		tol = 1e-6
	}
	step := *h
	if step < hmin {
		step = hmin
	}

	for {
		full := rk4Step(x, step, nODE, fn)
		if step <= hmin {
			copy(x, full)
			*h = step
			return step
		}

		half := step / 2
		mid := rk4Step(x, half, nODE, fn)
		twoHalf := rk4Step(mid, half, nODE, fn)

		if errorNorm(full, twoHalf) <= tol {
			copy(x, twoHalf)
			*h = step
			return step
		}
		step /= 2
		if step < hmin {
			step = hmin
		}
	}
}

// rk4Step returns a new slice holding x advanced by one classic RK4 step of
// size h; it does not mutate x.
func rk4Step(x []float64, h float64, n int, fn RHS) []float64 {
	k1 := make([]float64, n)
	k2 := make([]float64, n)
	k3 := make([]float64, n)
	k4 := make([]float64, n)
	tmp := make([]float64, n)
	out := make([]float64, n)

	fn(x, k1)

	for i := 0; i < n; i++ {
		tmp[i] = x[i] + h/2*k1[i]
	}
	fn(tmp, k2)

	for i := 0; i < n; i++ {
		tmp[i] = x[i] + h/2*k2[i]
	}
	fn(tmp, k3)

	for i := 0; i < n; i++ {
		tmp[i] = x[i] + h*k3[i]
	}
	fn(tmp, k4)

	for i := 0; i < n; i++ {
		out[i] = x[i] + h/6*(k1[i]+2*k2[i]+2*k3[i]+k4[i])
	}
	return out
}

func errorNorm(a, b []float64) float64 {
	var max float64
	for i := range a {
		d := a[i] - b[i]
		if d < 0 {
			d = -d
		}
		if d > max {
			max = d
		}
	}
	return max
}
