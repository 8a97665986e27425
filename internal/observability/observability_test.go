package observability

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goalbreaker/goalbreaker-api/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseConfig() config.ObservabilityConfig {
	return config.ObservabilityConfig{
		ServiceName:     "goalbreaker-test",
		MetricsPort:     9090,
		MetricsPath:     "/metrics",
		TracingExporter: ExporterStdout,
		SampleRate:      1.0,
	}
}

func shutdown(t *testing.T, p *Provider) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	assert.NoError(t, p.Shutdown(ctx))
}

func TestSetup_Disabled(t *testing.T) {
	p, err := Setup(context.Background(), baseConfig(), "test")
	require.NoError(t, err)

	assert.Nil(t, p.tracerProvider)
	assert.Nil(t, p.meterProvider)
	assert.False(t, p.MetricsEnabled())
	assert.NotNil(t, p.Tracer())
	assert.NotNil(t, p.Meter())

	rec := httptest.NewRecorder()
	p.MetricsHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	shutdown(t, p)
}

func TestSetup_MetricsOnly(t *testing.T) {
	cfg := baseConfig()
	cfg.MetricsEnabled = true

	p, err := Setup(context.Background(), cfg, "test")
	require.NoError(t, err)
	defer shutdown(t, p)

	assert.True(t, p.MetricsEnabled())
	assert.Nil(t, p.tracerProvider)

	counter, err := p.Meter().Int64Counter("goalbreaker.test.events")
	require.NoError(t, err)
	counter.Add(context.Background(), 2)

	rec := httptest.NewRecorder()
	p.MetricsHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "goalbreaker_test_events")
	assert.Contains(t, string(body), "go_goroutines")
}

func TestSetup_TracingStdout(t *testing.T) {
	cfg := baseConfig()
	cfg.TracingEnabled = true

	var out bytes.Buffer
	p, err := Setup(context.Background(), cfg, "test", WithTraceWriter(&out))
	require.NoError(t, err)
	require.NotNil(t, p.tracerProvider)

	_, span := p.Tracer().Start(context.Background(), "unit-span")
	span.End()

	shutdown(t, p)
	assert.Contains(t, out.String(), "unit-span")
}

func TestSetup_TracingOTLP(t *testing.T) {
	cfg := baseConfig()
	cfg.TracingEnabled = true
	cfg.TracingExporter = ExporterOTLP
	cfg.OTLPEndpoint = "localhost:4317"
	cfg.SampleRate = 0

	p, err := Setup(context.Background(), cfg, "test")
	require.NoError(t, err)
	require.NotNil(t, p.tracerProvider)
	shutdown(t, p)
}

func TestSetup_UnsupportedExporter(t *testing.T) {
	cfg := baseConfig()
	cfg.TracingEnabled = true
	cfg.TracingExporter = "zipkin"

	_, err := Setup(context.Background(), cfg, "test")
	assert.ErrorIs(t, err, ErrUnsupportedExporter)
}

func TestSampler(t *testing.T) {
	assert.Equal(t, "AlwaysOnSampler", sampler(1).Description())
	assert.Equal(t, "AlwaysOffSampler", sampler(0).Description())
	assert.Contains(t, sampler(0.25).Description(), "TraceIDRatioBased{0.25}")
}

func TestNilProvider(t *testing.T) {
	var p *Provider
	assert.NotNil(t, p.Tracer())
	assert.NotNil(t, p.Meter())
	assert.False(t, p.MetricsEnabled())
	assert.NoError(t, p.Shutdown(context.Background()))
}

func TestMetricsServer(t *testing.T) {
	cfg := baseConfig()
	cfg.MetricsEnabled = true
	p, err := Setup(context.Background(), cfg, "test")
	require.NoError(t, err)
	defer shutdown(t, p)

	ms := NewMetricsServer(9191, "/metrics", p, nil)
	assert.Equal(t, ":9191", ms.Addr())

	rec := httptest.NewRecorder()
	ms.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	ms.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/other", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
