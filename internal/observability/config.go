package observability

import (
	"io"
	"os"

	"skillmatch/internal/config"
)

// consoleWriter receives console exporter output
var consoleWriter io.Writer = os.Stderr

// GetObservabilityConfig creates observability config from provided config
func GetObservabilityConfig(cfg *config.Config, version string) ObservabilityConfig {
	if cfg == nil {
		return ObservabilityConfig{
			ServiceName:    "skillmatch",
			ServiceVersion: version,
			Enabled:        true,
			TracingEnabled: true,
			MetricsEnabled: true,
			ConsoleOutput:  true,
			PrettyPrint:    true,
			SampleRate:     1.0,
			Prometheus:     GetPrometheusConfig(cfg),
		}
	}

	obsConfig := cfg.Observability

	// Use app version if service version not specified
	serviceVersion := obsConfig.ServiceVersion
	if serviceVersion == "" {
		serviceVersion = version
	}

	return ObservabilityConfig{
		ServiceName:     obsConfig.ServiceName,
		ServiceVersion:  serviceVersion,
		ServiceInstance: obsConfig.ServiceInstance,
		Enabled:         obsConfig.Enabled,
		TracingEnabled:  obsConfig.Tracing.Enabled,
		MetricsEnabled:  obsConfig.Metrics.Enabled,
		ConsoleOutput:   obsConfig.ConsoleOutput || obsConfig.Console.Enabled,
		PrettyPrint:     obsConfig.Console.PrettyPrint,
		SampleRate:      obsConfig.Tracing.SampleRate,
		Prometheus:      GetPrometheusConfig(cfg),
	}
}
