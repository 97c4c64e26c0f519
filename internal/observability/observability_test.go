package observability

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"skillmatch/internal/config"
)

func newTestMetrics(t *testing.T, custom config.CustomMetricsConfig) (*Metrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	m, err := NewMetrics(provider.Meter("test"), custom)
	require.NoError(t, err)
	return m, reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Aggregation {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := make(map[string]metricdata.Aggregation)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m.Data
		}
	}
	return out
}

func sumOf(t *testing.T, data metricdata.Aggregation) int64 {
	t.Helper()
	sum, ok := data.(metricdata.Sum[int64])
	require.True(t, ok, "expected int64 sum, got %T", data)
	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	return total
}

func TestTrackAnalysisRecordsMetrics(t *testing.T) {
	m, reader := newTestMetrics(t, defaultCustomMetrics())

	err := m.TrackAnalysis(context.Background(), "full_stack", func(context.Context) *AnalysisOutcome {
		return &AnalysisOutcome{Score: 14.29, DocumentSize: 2048}
	})
	require.NoError(t, err)

	failure := errors.New("no text")
	err = m.TrackAnalysis(context.Background(), "full_stack", func(context.Context) *AnalysisOutcome {
		return &AnalysisOutcome{Error: failure, ExtractionFailed: true, DocumentSize: 10}
	})
	assert.ErrorIs(t, err, failure)

	data := collect(t, reader)
	assert.Equal(t, int64(2), sumOf(t, data["skillmatch_analyses_total"]))
	assert.Equal(t, int64(1), sumOf(t, data["skillmatch_extraction_failures_total"]))

	scores, ok := data["skillmatch_match_score_percent"].(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, scores.DataPoints, 1)
	assert.Equal(t, uint64(1), scores.DataPoints[0].Count)
	assert.InDelta(t, 14.29, scores.DataPoints[0].Sum, 0.001)

	assert.Contains(t, data, "skillmatch_analysis_duration_seconds")
	assert.Contains(t, data, "skillmatch_document_size_bytes")
}

func TestTrackAnalysisHonoursDisabledMetrics(t *testing.T) {
	custom := defaultCustomMetrics()
	custom.Analysis.Enabled = false
	m, reader := newTestMetrics(t, custom)

	require.NoError(t, m.TrackAnalysis(context.Background(), "devops", func(context.Context) *AnalysisOutcome {
		return &AnalysisOutcome{}
	}))

	assert.NotContains(t, collect(t, reader), "skillmatch_analyses_total")
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	called := false
	err := m.TrackAnalysis(context.Background(), "devops", func(context.Context) *AnalysisOutcome {
		called = true
		return nil
	})
	assert.NoError(t, err)
	assert.True(t, called)

	m.RecordStorageFetch(context.Background(), "s3", nil)
	m.RecordRateLimitHit(context.Background(), "ip")
	m.RecordCertReload(context.Background(), true)
	m.RecordCertExpiry(context.Background(), time.Now().Add(time.Hour))

	empty := &Metrics{}
	empty.RecordRateLimitHit(context.Background(), "ip")
}

func TestInfrastructureMetrics(t *testing.T) {
	m, reader := newTestMetrics(t, defaultCustomMetrics())

	m.RecordStorageFetch(context.Background(), "s3", nil)
	m.RecordStorageFetch(context.Background(), "s3", errors.New("timeout"))
	m.RecordRateLimitHit(context.Background(), "api_key")
	m.RecordCertReload(context.Background(), true)

	data := collect(t, reader)
	assert.Equal(t, int64(2), sumOf(t, data["skillmatch_storage_fetches_total"]))
	assert.Equal(t, int64(1), sumOf(t, data["skillmatch_rate_limit_hits_total"]))
	assert.Equal(t, int64(1), sumOf(t, data["skillmatch_cert_reloads_total"]))
}

func TestRateLimitTrackingCanBeDisabled(t *testing.T) {
	custom := defaultCustomMetrics()
	custom.Infrastructure.TrackRateLimits = false
	m, reader := newTestMetrics(t, custom)

	m.RecordRateLimitHit(context.Background(), "ip")
	assert.NotContains(t, collect(t, reader), "skillmatch_rate_limit_hits_total")
}

func TestGetObservabilityConfig(t *testing.T) {
	cfg := &config.Config{}
	cfg.Observability.Enabled = true
	cfg.Observability.ServiceName = "skillmatch"
	cfg.Observability.Tracing = config.TracingConfig{Enabled: true, SampleRate: 0.5}
	cfg.Observability.Metrics.Enabled = true
	cfg.Observability.Console.Enabled = true
	cfg.Observability.Prometheus = config.PrometheusConfig{Enabled: true, Endpoint: "/metrics", Port: "9191"}

	obs := GetObservabilityConfig(cfg, "1.2.3")
	assert.Equal(t, "skillmatch", obs.ServiceName)
	assert.Equal(t, "1.2.3", obs.ServiceVersion)
	assert.True(t, obs.ConsoleOutput)
	assert.Equal(t, 0.5, obs.SampleRate)
	assert.Equal(t, "9191", obs.Prometheus.Port)

	cfg.Observability.ServiceVersion = "override"
	assert.Equal(t, "override", GetObservabilityConfig(cfg, "1.2.3").ServiceVersion)

	fallback := GetObservabilityConfig(nil, "dev")
	assert.Equal(t, "skillmatch", fallback.ServiceName)
	assert.True(t, fallback.Enabled)
}

func TestDisabledManager(t *testing.T) {
	om, err := NewObservabilityManager(ObservabilityConfig{ServiceName: "skillmatch"}, nil)
	require.NoError(t, err)

	assert.NotNil(t, om.GetMetrics())
	assert.Nil(t, om.PrometheusServer())

	handler := om.HTTPMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)

	assert.NoError(t, om.Shutdown(context.Background()))
}

func TestEnabledManagerExposesPrometheus(t *testing.T) {
	om, err := NewObservabilityManager(ObservabilityConfig{
		ServiceName:    "skillmatch",
		ServiceVersion: "test",
		Enabled:        true,
		TracingEnabled: true,
		MetricsEnabled: true,
		SampleRate:     1,
		Prometheus:     PrometheusConfig{Enabled: true, Endpoint: "/metrics", Port: "0"},
	}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = om.Shutdown(context.Background()) })

	srv := om.PrometheusServer()
	require.NotNil(t, srv)
	assert.Equal(t, ":0", srv.Addr)

	om.GetMetrics().RecordRateLimitHit(context.Background(), "ip")

	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "skillmatch_rate_limit_hits_total")
}
