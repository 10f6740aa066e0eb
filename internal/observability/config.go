package observability

import (
	"time"

	"jobgen/internal/config"
)

// GetObservabilityConfig creates observability config from provided config
func GetObservabilityConfig(cfg *config.Config, version string) ObservabilityConfig {
	if cfg == nil {
		// Fallback to defaults if config not available
		return ObservabilityConfig{
			ServiceName:        "jobgen",
			ServiceVersion:     version,
			ServiceInstance:    "jobgen-1",
			Enabled:            true,
			ConsoleOutput:      true,
			PrettyPrint:        true,
			SampleRate:         1.0,
			CollectionInterval: 15 * time.Second,
			AIMetrics:          true,
			TrackDuration:      true,
			TrackTokenUsage:    true,
			BusinessMetrics:    true,
			Prometheus:         GetPrometheusConfig(cfg),
		}
	}

	obsConfig := cfg.Observability

	// Use app version if service version not specified
	serviceVersion := obsConfig.ServiceVersion
	if serviceVersion == "" {
		serviceVersion = version
	}

	return ObservabilityConfig{
		ServiceName:        obsConfig.ServiceName,
		ServiceVersion:     serviceVersion,
		ServiceInstance:    obsConfig.ServiceInstance,
		Enabled:            obsConfig.Enabled,
		ConsoleOutput:      obsConfig.ConsoleOutput,
		PrettyPrint:        obsConfig.Console.PrettyPrint,
		SampleRate:         obsConfig.SampleRate,
		CollectionInterval: obsConfig.Metrics.CollectionInterval,
		AIMetrics:          obsConfig.CustomMetrics.AIOperations.Enabled,
		TrackDuration:      obsConfig.CustomMetrics.AIOperations.TrackDuration,
		TrackTokenUsage:    obsConfig.CustomMetrics.AIOperations.TrackTokenUsage,
		BusinessMetrics:    obsConfig.CustomMetrics.BusinessMetrics.Enabled,
		Prometheus:         GetPrometheusConfig(cfg),
		OTLP: OTLPConfig{
			Enabled:  obsConfig.OTLP.Enabled,
			Endpoint: obsConfig.OTLP.Endpoint,
			Insecure: obsConfig.OTLP.Insecure,
			Headers:  obsConfig.OTLP.Headers,
		},
	}
}
