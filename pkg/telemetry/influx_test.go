package telemetry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildFlux(t *testing.T) {
	flux, err := buildFlux("telemetry", "R1", "1h", "cpu", "usage_percent", AggregateMean)
	require.NoError(t, err)

	assert.Contains(t, flux, `from(bucket: "telemetry")`)
	assert.Contains(t, flux, "range(start: -1h)")
	assert.Contains(t, flux, `r._measurement == "cpu"`)
	assert.Contains(t, flux, `r.device_id == "R1"`)
	assert.Contains(t, flux, `r._field == "usage_percent"`)
	assert.Contains(t, flux, "mean()")
}

func TestBuildFlux_CriticalErrorsFilterSeverity(t *testing.T) {
	flux, err := buildFlux("telemetry", "R1", "1h", "errors", "count", AggregateSum)
	require.NoError(t, err)

	assert.Contains(t, flux, `r.severity == "critical"`)
	assert.Contains(t, flux, "sum()")
}

func TestBuildFlux_WindowValidation(t *testing.T) {
	valid := []string{"30s", "5m", "1h", "7d", "2w"}
	for _, window := range valid {
		_, err := buildFlux("telemetry", "R1", window, "cpu", "usage_percent", AggregateMean)
		assert.NoError(t, err, "window %q", window)
	}

	invalid := []string{"", "1", "h", "-1h", "1 h", "1y", `1h")|>drop()`}
	for _, window := range invalid {
		_, err := buildFlux("telemetry", "R1", window, "cpu", "usage_percent", AggregateMean)
		assert.ErrorIs(t, err, ErrInvalidWindow, "window %q", window)
	}
}

func TestBuildFlux_RejectsInjectableIdentifiers(t *testing.T) {
	_, err := buildFlux("telemetry", `R1") |> yield(`, "1h", "cpu", "usage_percent", AggregateMean)
	assert.Error(t, err)

	_, err = buildFlux("telemetry", "R1", "1h", `cpu"`, "usage_percent", AggregateMean)
	assert.Error(t, err)
}

func TestBuildFlux_RejectsUnknownAggregation(t *testing.T) {
	_, err := buildFlux("telemetry", "R1", "1h", "cpu", "usage_percent", AggregationKind("median"))
	assert.ErrorIs(t, err, ErrInvalidAggregation)
}

func TestToFloat(t *testing.T) {
	v, ok := toFloat(float64(42.5))
	assert.True(t, ok)
	assert.InDelta(t, 42.5, v, 0.001)

	v, ok = toFloat(int64(7))
	assert.True(t, ok)
	assert.InDelta(t, 7.0, v, 0.001)

	_, ok = toFloat("not a number")
	assert.False(t, ok)
}
