package observability

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"jobgen/internal/config"
	"jobgen/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

var testLogger = errors.NewLogger(slog.LevelDebug)

func quietConfig() ObservabilityConfig {
	return ObservabilityConfig{
		ServiceName:     "jobgen-test",
		ServiceVersion:  "test",
		Enabled:         true,
		SampleRate:      1.0,
		AIMetrics:       true,
		TrackDuration:   true,
		TrackTokenUsage: true,
		BusinessMetrics: true,
	}
}

func collect(t *testing.T, om *ObservabilityManager) map[string]metricdata.Metrics {
	t.Helper()
	require.NotNil(t, om.manualReader)

	var rm metricdata.ResourceMetrics
	require.NoError(t, om.manualReader.Collect(context.Background(), &rm))

	byName := make(map[string]metricdata.Metrics)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			byName[m.Name] = m
		}
	}
	return byName
}

func TestDisabledManagerIsNoop(t *testing.T) {
	om, err := NewObservabilityManager(ObservabilityConfig{Enabled: false}, testLogger)
	require.NoError(t, err)

	metrics := om.GetMetrics()
	assert.NotPanics(t, func() {
		metrics.RecordGeneration(context.Background(), "description", time.Second, &TokenUsage{TotalTokens: 3}, "")
		metrics.RecordBusinessMetric(context.Background(), "description", true)
		metrics.RecordReload(context.Background(), "prompts", true)
	})
	assert.NoError(t, om.Shutdown(context.Background()))

	var nilManager *ObservabilityManager
	assert.NotNil(t, nilManager.GetMetrics())
	assert.NoError(t, nilManager.Shutdown(context.Background()))
}

func TestRecordGeneration(t *testing.T) {
	om, err := NewObservabilityManager(quietConfig(), testLogger)
	require.NoError(t, err)
	defer func() { _ = om.Shutdown(context.Background()) }()

	ctx := context.Background()
	metrics := om.GetMetrics()
	metrics.RecordGeneration(ctx, "description", 200*time.Millisecond, &TokenUsage{InputTokens: 10, OutputTokens: 20, TotalTokens: 30}, "")
	metrics.RecordGeneration(ctx, "description", time.Second, nil, "upstream")
	metrics.RecordBusinessMetric(ctx, "description", true)
	metrics.RecordReload(ctx, "prompts", true)

	collected := collect(t, om)

	requests, ok := collected["jobgen_ai_requests_total"]
	require.True(t, ok)
	sum := requests.Data.(metricdata.Sum[int64])
	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	assert.Equal(t, int64(2), total)

	errorsTotal := collected["jobgen_ai_errors_total"].Data.(metricdata.Sum[int64])
	require.Len(t, errorsTotal.DataPoints, 1)
	kind, _ := errorsTotal.DataPoints[0].Attributes.Value("kind")
	assert.Equal(t, "upstream", kind.AsString())

	assert.Contains(t, collected, "jobgen_ai_processing_duration_seconds")
	assert.Contains(t, collected, "jobgen_ai_token_usage_total")
	assert.Contains(t, collected, "jobgen_descriptions_generated_total")
	assert.Contains(t, collected, "jobgen_prompt_reloads_total")
}

func TestRecordGenerationRespectsToggles(t *testing.T) {
	cfg := quietConfig()
	cfg.TrackTokenUsage = false
	cfg.BusinessMetrics = false

	om, err := NewObservabilityManager(cfg, testLogger)
	require.NoError(t, err)
	defer func() { _ = om.Shutdown(context.Background()) }()

	metrics := om.GetMetrics()
	metrics.RecordGeneration(context.Background(), "structured", time.Second, &TokenUsage{TotalTokens: 5}, "")
	metrics.RecordBusinessMetric(context.Background(), "structured", true)

	collected := collect(t, om)
	assert.Contains(t, collected, "jobgen_ai_requests_total")
	assert.NotContains(t, collected, "jobgen_ai_token_usage_total")
	assert.NotContains(t, collected, "jobgen_profiles_generated_total")
}

func TestGetObservabilityConfig(t *testing.T) {
	cfg := &config.Config{}
	cfg.Observability.ServiceName = "jobgen"
	cfg.Observability.Enabled = true
	cfg.Observability.Metrics.CollectionInterval = 30 * time.Second
	cfg.Observability.CustomMetrics.AIOperations.Enabled = true
	cfg.Observability.OTLP.Endpoint = "http://collector:4318"

	obs := GetObservabilityConfig(cfg, "1.2.3")
	assert.Equal(t, "1.2.3", obs.ServiceVersion)
	assert.Equal(t, 30*time.Second, obs.CollectionInterval)
	assert.True(t, obs.AIMetrics)
	assert.Equal(t, "http://collector:4318", obs.OTLP.Endpoint)

	fallback := GetObservabilityConfig(nil, "dev")
	assert.Equal(t, "jobgen", fallback.ServiceName)
	assert.True(t, fallback.Prometheus.Enabled)
}
