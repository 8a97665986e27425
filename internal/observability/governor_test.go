package observability

import (
	"testing"

	"github.com/goalbreaker/goalbreaker-api/internal/generation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

type usageFunc func() generation.Usage

func (f usageFunc) Usage() generation.Usage { return f() }

func gaugeByWindow(t *testing.T, m metricdata.Metrics, window string) int64 {
	t.Helper()
	g, ok := m.Data.(metricdata.Gauge[int64])
	require.True(t, ok, "metric %s is not an int64 gauge", m.Name)
	for _, dp := range g.DataPoints {
		if v, ok := dp.Attributes.Value(attribute.Key("window")); ok && v.AsString() == window {
			return dp.Value
		}
	}
	t.Fatalf("no data point for window %q", window)
	return 0
}

func TestRegisterGovernorMetrics(t *testing.T) {
	tt := newTestTelemetry(t)

	gov, err := generation.NewGovernor(generation.GovernorConfig{MaxPerMinute: 10, MaxPerDay: 500})
	require.NoError(t, err)
	gov.Record()
	gov.Record()

	reg, err := RegisterGovernorMetrics(tt.provider, gov)
	require.NoError(t, err)

	rm := tt.collect(t)
	used, ok := findMetric(rm, "goalbreaker.ratelimit.used")
	require.True(t, ok)
	assert.Equal(t, int64(2), gaugeByWindow(t, used, "minute"))
	assert.Equal(t, int64(2), gaugeByWindow(t, used, "day"))

	limit, ok := findMetric(rm, "goalbreaker.ratelimit.limit")
	require.True(t, ok)
	assert.Equal(t, int64(10), gaugeByWindow(t, limit, "minute"))
	assert.Equal(t, int64(500), gaugeByWindow(t, limit, "day"))

	require.NoError(t, reg.Unregister())
}

func TestRegisterGovernorMetrics_ReadsAtCollection(t *testing.T) {
	tt := newTestTelemetry(t)

	current := generation.Usage{RequestsThisMinute: 1, MaxPerMinute: 5, MaxPerDay: 50}
	_, err := RegisterGovernorMetrics(tt.provider, usageFunc(func() generation.Usage { return current }))
	require.NoError(t, err)

	used, _ := findMetric(tt.collect(t), "goalbreaker.ratelimit.used")
	assert.Equal(t, int64(1), gaugeByWindow(t, used, "minute"))

	current.RequestsThisMinute = 4
	used, _ = findMetric(tt.collect(t), "goalbreaker.ratelimit.used")
	assert.Equal(t, int64(4), gaugeByWindow(t, used, "minute"))
}
