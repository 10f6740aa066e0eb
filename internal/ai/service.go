package ai

import (
	"context"
	"fmt"
	"time"

	"jobgen/internal/config"
	"jobgen/internal/errors"
	"jobgen/internal/types"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/time/rate"
)

const defaultModelCheckTimeout = 10 * time.Second

// Service runs completions for one operation: it applies the operation's
// model settings, guards the invoker with a circuit breaker and classifies
// failures.
type Service struct {
	invoker      Invoker
	config       config.OperationConfig
	breaker      *CircuitBreaker[*Completion]
	logger       *errors.Logger
	checkTimeout time.Duration
	warn         *rate.Sometimes
}

// Result is the outcome of a successful generation
type Result struct {
	Content  string
	Model    string
	Usage    *TokenUsage
	Profile  *types.JobProfile
	Duration time.Duration
}

// Option configures a Service
type Option func(*Service)

// WithInvoker replaces the provider client, typically with a stub.
func WithInvoker(invoker Invoker) Option {
	return func(s *Service) { s.invoker = invoker }
}

// WithModelCheckTimeout bounds health check lookups.
func WithModelCheckTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.checkTimeout = d
		}
	}
}

// WithWarnPeriod sets how often repeated upstream failures are logged at
// warn level.
func WithWarnPeriod(d time.Duration) Option {
	return func(s *Service) { s.warn = &rate.Sometimes{First: 1, Interval: d} }
}

// NewService creates the service for cfg.Operation
func NewService(cfg config.OperationConfig, logger *errors.Logger, opts ...Option) (*Service, error) {
	s := &Service{
		config:       cfg,
		logger:       logger.With("operation", string(cfg.Operation)),
		checkTimeout: defaultModelCheckTimeout,
		warn:         &rate.Sometimes{First: 1, Interval: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(s)
	}

	s.logger.Debug("Initializing AI service",
		"provider", cfg.Provider,
		"model", cfg.Model,
		"temperature", cfg.Temperature,
		"max_tokens", cfg.MaxTokens,
		"timeout", cfg.Timeout,
		"validate_output", cfg.ValidateOutput)

	if s.invoker == nil {
		invoker, err := newInvoker(cfg, s.checkTimeout, s.logger)
		if err != nil {
			return nil, err
		}
		s.invoker = invoker
	}
	if cfg.APIKey == "" {
		s.logger.Warn("No model API key configured; generation requests will fail",
			"provider", cfg.Provider)
	}

	s.breaker = NewCompletionBreaker(string(cfg.Operation), cfg.CircuitBreaker, s.logger)
	return s, nil
}

func newInvoker(cfg config.OperationConfig, checkTimeout time.Duration, logger *errors.Logger) (Invoker, error) {
	var (
		invoker Invoker
		err     error
	)
	switch cfg.Provider {
	case config.ProviderOpenAI:
		invoker, err = NewOpenAIProvider(cfg, checkTimeout, logger)
	case config.ProviderGemini:
		invoker, err = NewGeminiProvider(cfg, checkTimeout, logger)
	default:
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig,
			fmt.Sprintf("Unsupported AI provider: %s", cfg.Provider), nil)
	}
	if err != nil {
		return nil, errors.NewAIError(errors.ErrCodeGenerationFailed,
			"Failed to create AI provider", err)
	}
	return invoker, nil
}

// Operation returns the operation this service runs
func (s *Service) Operation() types.Operation {
	return s.config.Operation
}

// Model returns the configured model name
func (s *Service) Model() string {
	return s.config.Model
}

// Generate sends systemPrompt and userPrompt to the model. An empty
// systemPrompt sends the user message alone. The model text is returned
// unchanged unless output validation is enabled for the operation.
func (s *Service) Generate(ctx context.Context, systemPrompt, userPrompt string) (*Result, error) {
	ctx, span := otel.Tracer("jobgen.ai").Start(ctx, "ai."+string(s.config.Operation))
	defer span.End()

	span.SetAttributes(
		attribute.String("ai.provider", s.config.Provider),
		attribute.String("ai.model", s.config.Model),
		attribute.Float64("ai.temperature", float64(s.config.Temperature)),
		attribute.Int("ai.max_tokens", s.config.MaxTokens),
		attribute.Bool("ai.system_prompt", systemPrompt != ""),
		attribute.Int("input.prompt_length", len(userPrompt)),
	)

	if s.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.Timeout)
		defer cancel()
	}

	req := CompletionRequest{
		SystemPrompt: systemPrompt,
		UserPrompt:   userPrompt,
		Model:        s.config.Model,
		Temperature:  s.config.Temperature,
		MaxTokens:    s.config.MaxTokens,
	}

	start := time.Now()
	completion, err := s.breaker.Execute(func() (*Completion, error) {
		completion, err := s.invoker.Complete(ctx, req)
		return completion, classifyError(err)
	})
	duration := time.Since(start)
	if err != nil {
		err = s.fail(classifyError(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, errors.CauseMessage(err))
		span.SetAttributes(
			attribute.Bool("success", false),
			attribute.String("error.kind", string(errors.KindOf(err))),
		)
		return nil, err
	}

	result := &Result{
		Content:  completion.Content,
		Model:    completion.Model,
		Usage:    completion.Usage,
		Duration: duration,
	}
	if result.Usage != nil {
		span.SetAttributes(
			attribute.Int64("ai.tokens.input", result.Usage.InputTokens),
			attribute.Int64("ai.tokens.output", result.Usage.OutputTokens),
			attribute.Int64("ai.tokens.total", result.Usage.TotalTokens),
		)
	}

	if s.config.ValidateOutput && s.config.Operation == types.OperationStructured {
		profile, err := ParseProfile(completion.Content)
		if err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.Bool("success", false))
			s.logger.LogError(err, "Model output failed validation",
				"output_length", len(completion.Content))
			return nil, err
		}
		result.Profile = profile
		result.Content = StripCodeFence(completion.Content)
		span.SetAttributes(attribute.Int("output.responsibilities", len(profile.KeyResponsibilities)))
	}

	span.SetAttributes(
		attribute.Bool("success", true),
		attribute.Int("output.length", len(result.Content)),
	)
	return result, nil
}

func (s *Service) fail(err error) error {
	kind := errors.KindOf(err)
	s.logger.Debug("Model call failed",
		"kind", string(kind),
		"code", errors.CodeOf(err),
		"error", err.Error())
	if kind != errors.KindUnknown {
		s.warn.Do(func() {
			s.logger.Warn("Model calls are failing",
				"kind", string(kind),
				"provider", s.config.Provider,
				"model", s.config.Model)
		})
	}
	return err
}

// ModelInfo returns information about the AI model for health checks
func (s *Service) ModelInfo(ctx context.Context) *ModelInfo {
	return s.invoker.ModelInfo(ctx)
}

// Healthy reports whether the completion breaker is closed
func (s *Service) Healthy() bool {
	return s.breaker.IsHealthy()
}

// Stats returns circuit breaker statistics for the operation
func (s *Service) Stats() map[string]any {
	stats := map[string]any{
		"operation":       string(s.config.Operation),
		"provider":        s.config.Provider,
		"model":           s.config.Model,
		"circuit_breaker": s.breaker.Stats(),
	}
	if p, ok := s.invoker.(interface{ ModelBreakerStats() map[string]any }); ok {
		stats["model_breaker"] = p.ModelBreakerStats()
	}
	stats["overall_healthy"] = s.breaker.IsHealthy()
	return stats
}

// Close releases the invoker
func (s *Service) Close() error {
	return s.invoker.Close()
}
