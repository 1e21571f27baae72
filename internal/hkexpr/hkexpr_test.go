package hkexpr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluatorComputesDerivedParameter(t *testing.T) {
	e, err := NewEvaluator([]Definition{
		{Name: "bus_power_w", Expr: "bus_voltage * bus_current"},
	})
	require.NoError(t, err)

	out, err := e.Evaluate(map[string]float64{"bus_voltage": 28.0, "bus_current": 1.5})
	require.NoError(t, err)
	assert.InDelta(t, 42.0, out["bus_power_w"], 1e-9)
	assert.Equal(t, 28.0, out["bus_voltage"])
}

func TestEvaluatorChainsDefinitions(t *testing.T) {
	e, err := NewEvaluator([]Definition{
		{Name: "bus_power_w", Expr: "bus_voltage * bus_current"},
		{Name: "bus_power_mw", Expr: "bus_power_w * 1000"},
	})
	require.NoError(t, err)

	out, err := e.Evaluate(map[string]float64{"bus_voltage": 10.0, "bus_current": 2.0})
	require.NoError(t, err)
	assert.InDelta(t, 20000.0, out["bus_power_mw"], 1e-9)
}

func TestEvaluatorReportsErrorButKeepsPartialResults(t *testing.T) {
	e, err := NewEvaluator([]Definition{
		{Name: "ok", Expr: "temp_c + 1"},
		{Name: "broken", Expr: "missing_param.field"},
	})
	require.NoError(t, err)

	out, err := e.Evaluate(map[string]float64{"temp_c": 20.0})
	require.Error(t, err)
	assert.InDelta(t, 21.0, out["ok"], 1e-9)
	_, hasBroken := out["broken"]
	assert.False(t, hasBroken)
}
