package ai

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"jobgen/internal/config"
	"jobgen/internal/errors"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"google.golang.org/genai"
)

// GeminiProvider implements Invoker for Google Gemini
type GeminiProvider struct {
	client       *genai.Client
	config       config.OperationConfig
	modelBreaker *CircuitBreaker[*genai.Model]
	checkTimeout time.Duration
	logger       *errors.Logger
}

var _ Invoker = (*GeminiProvider)(nil)

// NewGeminiProvider creates a new Gemini provider instance for a specific
// operation. Without an API key no client is created and calls fail with
// an auth error.
func NewGeminiProvider(cfg config.OperationConfig, checkTimeout time.Duration, logger *errors.Logger) (*GeminiProvider, error) {
	provider := &GeminiProvider{
		config:       cfg,
		modelBreaker: newModelBreaker[*genai.Model](string(cfg.Operation), cfg.CircuitBreaker, logger),
		checkTimeout: checkTimeout,
		logger:       logger,
	}
	if cfg.APIKey == "" {
		return provider, nil
	}

	clientConfig := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
		HTTPClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
	if cfg.BaseURL != "" {
		clientConfig.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(context.Background(), clientConfig)
	if err != nil {
		return nil, errors.NewAIError(errors.ErrCodeGenerationFailed,
			"Failed to create Gemini client", err)
	}
	provider.client = client
	return provider, nil
}

// Complete generates content for a single prompt
func (g *GeminiProvider) Complete(ctx context.Context, req CompletionRequest) (*Completion, error) {
	if g.client == nil {
		return nil, errMissingAPIKey
	}

	temperature := req.Temperature
	genaiConfig := &genai.GenerateContentConfig{
		Temperature:     &temperature,
		MaxOutputTokens: int32(req.MaxTokens),
	}
	if req.SystemPrompt != "" {
		genaiConfig.SystemInstruction = genai.NewContentFromText(req.SystemPrompt, genai.RoleUser)
	}

	result, err := g.client.Models.GenerateContent(ctx, req.Model, genai.Text(req.UserPrompt), genaiConfig)
	if err != nil {
		return nil, err
	}
	if result == nil || len(result.Candidates) == 0 {
		return nil, errors.NewModelError(errors.KindMalformed, "model response had no candidates", errNoChoices)
	}

	text := result.Text()
	if text == "" {
		return nil, errors.NewModelError(errors.KindMalformed, "model response had no text", errEmptyContent).
			WithContext("finish_reason", string(result.Candidates[0].FinishReason))
	}

	model := result.ModelVersion
	if model == "" {
		model = req.Model
	}
	return &Completion{
		Content:      text,
		Model:        model,
		FinishReason: string(result.Candidates[0].FinishReason),
		Usage:        extractTokenUsage(result),
	}, nil
}

// ModelInfo checks the readiness and availability of the configured model
func (g *GeminiProvider) ModelInfo(ctx context.Context) *ModelInfo {
	modelInfo := &ModelInfo{
		Name:      g.config.Model,
		Provider:  config.ProviderGemini,
		Available: false,
	}
	if g.client == nil {
		modelInfo.Error = errMissingAPIKey.Error()
		return modelInfo
	}

	checkCtx, cancel := context.WithTimeout(ctx, g.checkTimeout)
	defer cancel()

	model, err := g.modelBreaker.Execute(func() (*genai.Model, error) {
		return g.client.Models.Get(checkCtx, g.config.Model, &genai.GetModelConfig{})
	})
	if err != nil {
		modelInfo.Error = fmt.Sprintf("Failed to get model info: %v", err)
		g.logger.Warn("Model availability check failed",
			"model", g.config.Model,
			"provider", config.ProviderGemini,
			"error", err.Error())
		return modelInfo
	}

	modelInfo.Available = true
	modelInfo.DisplayName = model.DisplayName
	modelInfo.Version = model.Version
	g.logger.Debug("Model availability check successful",
		"model", g.config.Model,
		"display_name", modelInfo.DisplayName,
		"version", modelInfo.Version)
	return modelInfo
}

// ModelBreakerStats returns statistics of the model lookup breaker
func (g *GeminiProvider) ModelBreakerStats() map[string]any {
	return g.modelBreaker.Stats()
}

// Close implements Invoker. The client holds no resources in single-shot use.
func (g *GeminiProvider) Close() error {
	return nil
}

// extractTokenUsage extracts token usage information from Gemini API response
func extractTokenUsage(result *genai.GenerateContentResponse) *TokenUsage {
	if result == nil || result.UsageMetadata == nil {
		return nil
	}

	usage := result.UsageMetadata
	return &TokenUsage{
		InputTokens:  int64(usage.PromptTokenCount),
		OutputTokens: int64(usage.CandidatesTokenCount),
		TotalTokens:  int64(usage.TotalTokenCount),
	}
}
