package observability

import (
	"context"
	"fmt"
	"time"

	"skillmatch/internal/config"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	oteltrace "go.opentelemetry.io/otel/trace"
)

const analyzerTracer = "skillmatch.analyzer"

// Metrics holds all custom metrics for skillmatch. A nil or zero Metrics
// records nothing.
type Metrics struct {
	// Analysis metrics
	AnalysisDuration   metric.Float64Histogram
	AnalysesTotal      metric.Int64Counter
	MatchScore         metric.Float64Histogram
	ExtractionFailures metric.Int64Counter
	DocumentSize       metric.Int64Histogram

	// Infrastructure metrics
	StorageFetches metric.Int64Counter
	RateLimitHits  metric.Int64Counter

	// Certificate metrics
	CertReloadCount metric.Int64Counter
	CertExpiryTime  metric.Float64Gauge

	custom config.CustomMetricsConfig
}

// AnalysisOutcome is what an instrumented analysis reports back
type AnalysisOutcome struct {
	Error            error
	Score            float64
	DocumentSize     int
	ExtractionFailed bool
}

// NewMetrics creates all custom instruments on meter
func NewMetrics(meter metric.Meter, custom config.CustomMetricsConfig) (*Metrics, error) {
	m := &Metrics{custom: custom}

	if err := m.createAnalysisMetrics(meter); err != nil {
		return nil, err
	}
	if err := m.createInfrastructureMetrics(meter); err != nil {
		return nil, err
	}
	if err := m.createCertificateMetrics(meter); err != nil {
		return nil, err
	}
	return m, nil
}

func defaultCustomMetrics() config.CustomMetricsConfig {
	return config.CustomMetricsConfig{
		Analysis: config.AnalysisMetricsConfig{
			Enabled:            true,
			TrackScores:        true,
			TrackDocumentSizes: true,
		},
		Infrastructure: config.InfrastructureMetricsConfig{
			Enabled:         true,
			TrackRateLimits: true,
			TrackStorage:    true,
		},
	}
}

// createAnalysisMetrics creates resume analysis metrics
func (m *Metrics) createAnalysisMetrics(meter metric.Meter) error {
	var err error

	m.AnalysisDuration, err = meter.Float64Histogram(
		"skillmatch_analysis_duration_seconds",
		metric.WithDescription("Time spent analysing a resume"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return fmt.Errorf("failed to create analysis duration metric: %w", err)
	}

	m.AnalysesTotal, err = meter.Int64Counter(
		"skillmatch_analyses_total",
		metric.WithDescription("Total number of resume analyses"),
	)
	if err != nil {
		return fmt.Errorf("failed to create analyses count metric: %w", err)
	}

	m.MatchScore, err = meter.Float64Histogram(
		"skillmatch_match_score_percent",
		metric.WithDescription("Keyword match score of analysed resumes"),
		metric.WithUnit("%"),
		metric.WithExplicitBucketBoundaries(10, 20, 30, 40, 50, 60, 70, 80, 90, 100),
	)
	if err != nil {
		return fmt.Errorf("failed to create match score metric: %w", err)
	}

	m.ExtractionFailures, err = meter.Int64Counter(
		"skillmatch_extraction_failures_total",
		metric.WithDescription("Total number of documents with no extractable text"),
	)
	if err != nil {
		return fmt.Errorf("failed to create extraction failures metric: %w", err)
	}

	m.DocumentSize, err = meter.Int64Histogram(
		"skillmatch_document_size_bytes",
		metric.WithDescription("Size of analysed documents"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return fmt.Errorf("failed to create document size metric: %w", err)
	}

	return nil
}

// createInfrastructureMetrics creates storage and rate limiting metrics
func (m *Metrics) createInfrastructureMetrics(meter metric.Meter) error {
	var err error

	m.StorageFetches, err = meter.Int64Counter(
		"skillmatch_storage_fetches_total",
		metric.WithDescription("Total number of document fetches from storage"),
	)
	if err != nil {
		return fmt.Errorf("failed to create storage fetches metric: %w", err)
	}

	m.RateLimitHits, err = meter.Int64Counter(
		"skillmatch_rate_limit_hits_total",
		metric.WithDescription("Total number of rate limit hits"),
	)
	if err != nil {
		return fmt.Errorf("failed to create rate limit hits metric: %w", err)
	}

	return nil
}

// createCertificateMetrics creates certificate-related metrics
func (m *Metrics) createCertificateMetrics(meter metric.Meter) error {
	var err error

	m.CertReloadCount, err = meter.Int64Counter(
		"skillmatch_cert_reloads_total",
		metric.WithDescription("Total number of certificate reloads"),
	)
	if err != nil {
		return fmt.Errorf("failed to create certificate reload count metric: %w", err)
	}

	m.CertExpiryTime, err = meter.Float64Gauge(
		"skillmatch_cert_expiry_seconds",
		metric.WithDescription("Seconds until certificate expiry"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return fmt.Errorf("failed to create certificate expiry time metric: %w", err)
	}

	return nil
}

// TrackAnalysis instruments one analysis with a span and the analysis metrics
func (m *Metrics) TrackAnalysis(ctx context.Context, role string, fn func(context.Context) *AnalysisOutcome) error {
	ctx, span := otel.Tracer(analyzerTracer).Start(ctx, "resume.analyze",
		oteltrace.WithAttributes(attribute.String("role", role)))
	defer span.End()

	start := time.Now()
	outcome := fn(ctx)
	if outcome == nil {
		outcome = &AnalysisOutcome{}
	}
	duration := time.Since(start).Seconds()

	m.recordAnalysis(ctx, role, outcome, duration)

	span.SetAttributes(
		attribute.Bool("success", outcome.Error == nil),
		attribute.Int("document.size", outcome.DocumentSize),
	)
	if outcome.Error != nil {
		span.RecordError(outcome.Error)
		span.SetStatus(codes.Error, outcome.Error.Error())
	} else {
		span.SetAttributes(attribute.Float64("match.score", outcome.Score))
	}

	return outcome.Error
}

func (m *Metrics) recordAnalysis(ctx context.Context, role string, outcome *AnalysisOutcome, duration float64) {
	if m == nil || m.AnalysesTotal == nil || !m.custom.Analysis.Enabled {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String("role", role),
		attribute.Bool("success", outcome.Error == nil),
	)
	m.AnalysesTotal.Add(ctx, 1, attrs)
	m.AnalysisDuration.Record(ctx, duration, attrs)

	if outcome.ExtractionFailed {
		m.ExtractionFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("role", role)))
	}
	if m.custom.Analysis.TrackScores && outcome.Error == nil {
		m.MatchScore.Record(ctx, outcome.Score, metric.WithAttributes(attribute.String("role", role)))
	}
	if m.custom.Analysis.TrackDocumentSizes && outcome.DocumentSize > 0 {
		m.DocumentSize.Record(ctx, int64(outcome.DocumentSize))
	}
}

// RecordStorageFetch counts a document fetch from the given backend
func (m *Metrics) RecordStorageFetch(ctx context.Context, backend string, err error) {
	if m == nil || m.StorageFetches == nil || !m.infrastructureEnabled(m.custom.Infrastructure.TrackStorage) {
		return
	}
	m.StorageFetches.Add(ctx, 1, metric.WithAttributes(
		attribute.String("backend", backend),
		attribute.Bool("success", err == nil),
	))
}

// RecordRateLimitHit counts a rejected request
func (m *Metrics) RecordRateLimitHit(ctx context.Context, limiter string) {
	if m == nil || m.RateLimitHits == nil || !m.infrastructureEnabled(m.custom.Infrastructure.TrackRateLimits) {
		return
	}
	m.RateLimitHits.Add(ctx, 1, metric.WithAttributes(attribute.String("limiter", limiter)))
}

// RecordCertReload counts a certificate reload attempt
func (m *Metrics) RecordCertReload(ctx context.Context, success bool) {
	if m == nil || m.CertReloadCount == nil {
		return
	}
	m.CertReloadCount.Add(ctx, 1, metric.WithAttributes(attribute.Bool("success", success)))
}

// RecordCertExpiry records the time left until the serving certificate expires
func (m *Metrics) RecordCertExpiry(ctx context.Context, notAfter time.Time) {
	if m == nil || m.CertExpiryTime == nil {
		return
	}
	m.CertExpiryTime.Record(ctx, time.Until(notAfter).Seconds())
}

func (m *Metrics) infrastructureEnabled(track bool) bool {
	return m.custom.Infrastructure.Enabled && track
}
