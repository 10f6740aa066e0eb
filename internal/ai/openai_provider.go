package ai

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"jobgen/internal/config"
	"jobgen/internal/errors"

	"github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// OpenAIProvider implements Invoker for OpenAI-compatible chat endpoints
type OpenAIProvider struct {
	client       *openai.Client
	config       config.OperationConfig
	modelBreaker *CircuitBreaker[openai.Model]
	checkTimeout time.Duration
	logger       *errors.Logger
}

var _ Invoker = (*OpenAIProvider)(nil)

// NewOpenAIProvider creates a provider for one operation. A missing API key
// is not an error here; calls fail with an auth error instead.
func NewOpenAIProvider(cfg config.OperationConfig, checkTimeout time.Duration, logger *errors.Logger) (*OpenAIProvider, error) {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	clientConfig.HTTPClient = &http.Client{
		Timeout:   cfg.Timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}

	return &OpenAIProvider{
		client:       openai.NewClientWithConfig(clientConfig),
		config:       cfg,
		modelBreaker: newModelBreaker[openai.Model](string(cfg.Operation), cfg.CircuitBreaker, logger),
		checkTimeout: checkTimeout,
		logger:       logger,
	}, nil
}

// Complete sends a single chat completion request.
func (p *OpenAIProvider) Complete(ctx context.Context, req CompletionRequest) (*Completion, error) {
	if p.config.APIKey == "" {
		return nil, errMissingAPIKey
	}

	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if req.SystemPrompt != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.SystemPrompt,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: req.UserPrompt,
	})

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       req.Model,
		Messages:    messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		return nil, err
	}

	if len(resp.Choices) == 0 {
		return nil, errors.NewModelError(errors.KindMalformed, "model response had no choices", errNoChoices)
	}

	choice := resp.Choices[0]
	model := resp.Model
	if model == "" {
		model = req.Model
	}
	return &Completion{
		Content:      choice.Message.Content,
		Model:        model,
		FinishReason: string(choice.FinishReason),
		Usage: &TokenUsage{
			InputTokens:  int64(resp.Usage.PromptTokens),
			OutputTokens: int64(resp.Usage.CompletionTokens),
			TotalTokens:  int64(resp.Usage.TotalTokens),
		},
	}, nil
}

// ModelInfo checks that the configured model is visible to the API key
func (p *OpenAIProvider) ModelInfo(ctx context.Context) *ModelInfo {
	modelInfo := &ModelInfo{
		Name:      p.config.Model,
		Provider:  config.ProviderOpenAI,
		Available: false,
	}
	if p.config.APIKey == "" {
		modelInfo.Error = errMissingAPIKey.Error()
		return modelInfo
	}

	checkCtx, cancel := context.WithTimeout(ctx, p.checkTimeout)
	defer cancel()

	model, err := p.modelBreaker.Execute(func() (openai.Model, error) {
		return p.client.GetModel(checkCtx, p.config.Model)
	})
	if err != nil {
		modelInfo.Error = fmt.Sprintf("Failed to get model info: %v", err)
		p.logger.Warn("Model availability check failed",
			"model", p.config.Model,
			"provider", config.ProviderOpenAI,
			"error", err.Error())
		return modelInfo
	}

	modelInfo.Available = true
	modelInfo.DisplayName = model.ID
	p.logger.Debug("Model availability check successful",
		"model", p.config.Model,
		"owned_by", model.OwnedBy)
	return modelInfo
}

// ModelBreakerStats returns statistics of the model lookup breaker
func (p *OpenAIProvider) ModelBreakerStats() map[string]any {
	return p.modelBreaker.Stats()
}

// Close implements Invoker
func (p *OpenAIProvider) Close() error {
	return nil
}
