package solver_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/viant/biome/solver"
)

// dx/dt = -x, exact solution x(t) = x0 * exp(-t).
func decayRHS(x, dxdt []float64) {
	for i := range x {
		dxdt[i] = -x[i]
	}
}

func TestRK4StepApproximatesExponentialDecay(t *testing.T) {
	rk4 := solver.NewRK4()
	x := []float64{1.0}
	h := 0.1
	achieved := rk4.Step(&h, 1e-10, 1, x, decayRHS)

	assert.Greater(t, achieved, 0.0)
	assert.InDelta(t, 0.9048, x[0], 0.01) // exp(-0.1)
}

func TestRK4StepNeverGoesBelowHMin(t *testing.T) {
	rk4 := &solver.RK4{Tolerance: 1e-15}
	x := []float64{1.0}
	h := 1.0
	achieved := rk4.Step(&h, 0.05, 1, x, decayRHS)
	assert.GreaterOrEqual(t, achieved, 0.05)
}
