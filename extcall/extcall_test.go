package extcall_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/viant/biome/extcall"
)

func TestInvokeBuildsStridedViews(t *testing.T) {
	buf := []float64{10, 20, 30, 40, 50, 60}
	reg := extcall.NewRegistry()

	var seen [][]float64
	reg.Register("collect", func(views []extcall.ValueAccess) {
		for _, v := range views {
			var vals []float64
			for i := 0; i < v.Count; i++ {
				vals = append(vals, v.At(i))
			}
			seen = append(seen, vals)
		}
	})

	// arg0: base 0, stride 2, count 3 -> 10, 30, 50
	// arg1: base 1, stride 1, count 2 -> 20, 30
	reg.Invoke("collect", buf, [][3]float64{{0, 2, 3}, {1, 1, 2}})

	assert.Equal(t, [][]float64{{10, 30, 50}, {20, 30}}, seen)
}

func TestInvokeWriteBackThroughView(t *testing.T) {
	buf := []float64{0, 0, 0}
	reg := extcall.NewRegistry()
	reg.Register("fill", func(views []extcall.ValueAccess) {
		for i := 0; i < views[0].Count; i++ {
			views[0].Set(i, float64(i+1))
		}
	})
	reg.Invoke("fill", buf, [][3]float64{{0, 1, 3}})
	assert.Equal(t, []float64{1, 2, 3}, buf)
}

func TestInvokeScalarRoundTrip(t *testing.T) {
	reg := extcall.NewRegistry()
	reg.RegisterScalar("add", func(args []float64) float64 { return args[0] + args[1] })
	got, ok := reg.InvokeScalar("add", []float64{2, 3})
	assert.True(t, ok)
	assert.Equal(t, 5.0, got)

	_, ok = reg.InvokeScalar("missing", nil)
	assert.False(t, ok)
}

func TestInvokePanicsOnUnregisteredName(t *testing.T) {
	reg := extcall.NewRegistry()
	assert.Panics(t, func() {
		reg.Invoke("nope", nil, nil)
	})
}
