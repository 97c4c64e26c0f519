package observability

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"time"

	"skillmatch/internal/config"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.34.0"
	oteltrace "go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

const defaultCollectionInterval = 15 * time.Second

// ObservabilityConfig holds configuration for observability
type ObservabilityConfig struct {
	ServiceName     string
	ServiceVersion  string
	ServiceInstance string
	Enabled         bool
	TracingEnabled  bool
	MetricsEnabled  bool
	ConsoleOutput   bool
	PrettyPrint     bool
	SampleRate      float64
	Prometheus      PrometheusConfig
}

// ObservabilityManager owns the tracer and meter providers of a server run
type ObservabilityManager struct {
	config ObservabilityConfig

	otlp     config.OTLPConfig
	interval time.Duration
	custom   config.CustomMetricsConfig

	tracerProvider   oteltrace.TracerProvider
	meterProvider    *sdkmetric.MeterProvider
	metrics          *Metrics
	prometheusServer *http.Server
	shutdownFuncs    []func(context.Context) error
}

// NewObservabilityManager creates a new observability manager. fullConfig
// supplies OTLP, collection interval and custom metric settings and may be nil.
func NewObservabilityManager(obsConfig ObservabilityConfig, fullConfig *config.Config) (*ObservabilityManager, error) {
	om := &ObservabilityManager{
		config:         obsConfig,
		interval:       defaultCollectionInterval,
		custom:         defaultCustomMetrics(),
		tracerProvider: noop.NewTracerProvider(),
	}
	if fullConfig != nil {
		om.otlp = fullConfig.Observability.OTLP
		om.custom = fullConfig.Observability.CustomMetrics
		if interval := fullConfig.Observability.Metrics.CollectionInterval; interval > 0 {
			om.interval = interval
		}
	}
	if !obsConfig.Enabled {
		return om, nil
	}

	res, err := newResource(obsConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize resource: %w", err)
	}

	if obsConfig.TracingEnabled {
		if err := om.startTracing(res); err != nil {
			return nil, fmt.Errorf("failed to initialize tracing: %w", err)
		}
	}
	if obsConfig.MetricsEnabled {
		if err := om.startMetrics(res); err != nil {
			return nil, fmt.Errorf("failed to initialize metrics: %w", err)
		}
	}
	return om, nil
}

func newResource(cfg ObservabilityConfig) (*resource.Resource, error) {
	instance := cfg.ServiceInstance
	if instance == "" {
		instance = cfg.ServiceName + "-1"
	}
	return resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.ServiceVersion),
			attribute.String("service.instance.id", instance),
		),
	)
}

// startTracing installs the global tracer provider. Without an exporter
// spans are still created for context propagation but go nowhere.
func (om *ObservabilityManager) startTracing(res *resource.Resource) error {
	opts := []trace.TracerProviderOption{
		trace.WithResource(res),
		trace.WithSampler(trace.ParentBased(trace.TraceIDRatioBased(om.config.SampleRate))),
	}

	exporter, err := om.spanExporter()
	if err != nil {
		return err
	}
	if exporter != nil {
		opts = append(opts, trace.WithBatcher(exporter))
	}

	tp := trace.NewTracerProvider(opts...)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	om.tracerProvider = tp
	om.shutdownFuncs = append(om.shutdownFuncs, tp.Shutdown)
	return nil
}

// spanExporter picks the console exporter over OTLP; nil means none configured
func (om *ObservabilityManager) spanExporter() (trace.SpanExporter, error) {
	switch {
	case om.config.ConsoleOutput:
		// Spans go to stderr so stdout keeps carrying command results
		opts := []stdouttrace.Option{stdouttrace.WithWriter(consoleWriter)}
		if om.config.PrettyPrint {
			opts = append(opts, stdouttrace.WithPrettyPrint())
		}
		return stdouttrace.New(opts...)
	case om.otlp.Enabled:
		opts := []otlptracehttp.Option{otlptracehttp.WithEndpointURL(om.otlp.Endpoint)}
		if om.otlp.Insecure {
			opts = append(opts, otlptracehttp.WithInsecure())
		}
		if len(om.otlp.Headers) > 0 {
			opts = append(opts, otlptracehttp.WithHeaders(om.otlp.Headers))
		}
		exporter, err := otlptracehttp.New(context.Background(), opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create OTLP trace exporter: %w", err)
		}
		return exporter, nil
	default:
		return nil, nil
	}
}

// startMetrics installs the global meter provider and creates the instruments
func (om *ObservabilityManager) startMetrics(res *resource.Resource) error {
	readers, err := om.metricReaders()
	if err != nil {
		return err
	}

	opts := []sdkmetric.Option{sdkmetric.WithResource(res)}
	for _, reader := range readers {
		opts = append(opts, sdkmetric.WithReader(reader))
	}
	mp := sdkmetric.NewMeterProvider(opts...)
	otel.SetMeterProvider(mp)

	om.meterProvider = mp
	om.shutdownFuncs = append(om.shutdownFuncs, mp.Shutdown)

	metrics, err := NewMetrics(mp.Meter(om.config.ServiceName), om.custom)
	if err != nil {
		return err
	}
	om.metrics = metrics
	return nil
}

// metricReaders builds one reader per enabled sink; with none enabled a
// manual reader keeps the instruments valid
func (om *ObservabilityManager) metricReaders() ([]sdkmetric.Reader, error) {
	var readers []sdkmetric.Reader

	if om.config.ConsoleOutput {
		exporter, err := stdoutmetric.New(stdoutmetric.WithWriter(consoleWriter))
		if err != nil {
			return nil, fmt.Errorf("failed to create console metric exporter: %w", err)
		}
		readers = append(readers, sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(om.interval)))
	}

	if om.otlp.Enabled {
		opts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpointURL(om.otlp.Endpoint)}
		if om.otlp.Insecure {
			opts = append(opts, otlpmetrichttp.WithInsecure())
		}
		if len(om.otlp.Headers) > 0 {
			opts = append(opts, otlpmetrichttp.WithHeaders(om.otlp.Headers))
		}
		exporter, err := otlpmetrichttp.New(context.Background(), opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create OTLP metrics exporter: %w", err)
		}
		readers = append(readers, sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(om.interval)))
	}

	if om.config.Prometheus.Enabled {
		reader, mux, err := SetupPrometheusExporter(om.config.Prometheus)
		if err != nil {
			return nil, fmt.Errorf("failed to create Prometheus exporter: %w", err)
		}
		readers = append(readers, reader)
		// Started by the caller through PrometheusServer
		om.prometheusServer = NewPrometheusServer(mux, om.config.Prometheus.Port)
	}

	if len(readers) == 0 {
		readers = append(readers, sdkmetric.NewManualReader())
	}
	return readers, nil
}

// GetMetrics returns the metrics instance
func (om *ObservabilityManager) GetMetrics() *Metrics {
	if om.metrics == nil {
		return &Metrics{}
	}
	return om.metrics
}

// PrometheusServer returns the metrics listener, or nil when Prometheus is disabled
func (om *ObservabilityManager) PrometheusServer() *http.Server {
	return om.prometheusServer
}

// HTTPMiddleware returns HTTP middleware with OpenTelemetry instrumentation
func (om *ObservabilityManager) HTTPMiddleware() func(http.Handler) http.Handler {
	if !om.config.Enabled {
		return func(h http.Handler) http.Handler { return h }
	}

	opts := []otelhttp.Option{
		otelhttp.WithTracerProvider(om.tracerProvider),
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}),
	}
	if om.meterProvider != nil {
		opts = append(opts, otelhttp.WithMeterProvider(om.meterProvider))
	}
	return otelhttp.NewMiddleware(om.config.ServiceName, opts...)
}

// Shutdown flushes and stops every provider, reporting all failures
func (om *ObservabilityManager) Shutdown(ctx context.Context) error {
	var errs []error
	for _, shutdown := range om.shutdownFuncs {
		errs = append(errs, shutdown(ctx))
	}
	om.shutdownFuncs = nil
	return stderrors.Join(errs...)
}
