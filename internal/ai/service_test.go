package ai

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"jobgen/internal/config"
	"jobgen/internal/errors"
	"jobgen/internal/types"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubInvoker struct {
	mu       sync.Mutex
	content  string
	err      error
	requests []CompletionRequest
}

func (s *stubInvoker) Complete(ctx context.Context, req CompletionRequest) (*Completion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, req)
	if s.err != nil {
		return nil, s.err
	}
	return &Completion{Content: s.content, Model: req.Model}, nil
}

func (s *stubInvoker) ModelInfo(ctx context.Context) *ModelInfo {
	return &ModelInfo{Name: "stub", Available: true}
}

func (s *stubInvoker) Close() error { return nil }

func (s *stubInvoker) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}

func structuredConfig() config.OperationConfig {
	return config.OperationConfig{
		Operation:   types.OperationStructured,
		Provider:    config.ProviderOpenAI,
		Model:       "gpt-4",
		APIKey:      "sk-test",
		Temperature: 0.6,
		MaxTokens:   1000,
	}
}

func TestServiceGenerateShapesRequest(t *testing.T) {
	stub := &stubInvoker{content: "Section 1..."}
	service, err := NewService(testOperationConfig(""), testLogger, WithInvoker(stub))
	require.NoError(t, err)

	result, err := service.Generate(context.Background(), "", "Job Title: Data Analyst")
	require.NoError(t, err)
	assert.Equal(t, "Section 1...", result.Content)
	assert.Nil(t, result.Profile)

	require.Equal(t, 1, stub.calls())
	req := stub.requests[0]
	assert.Empty(t, req.SystemPrompt)
	assert.Equal(t, "Job Title: Data Analyst", req.UserPrompt)
	assert.Equal(t, "gpt-4", req.Model)
	assert.InDelta(t, 0.7, req.Temperature, 1e-6)
	assert.Equal(t, 1200, req.MaxTokens)
}

func TestServiceGeneratePassesTextThrough(t *testing.T) {
	stub := &stubInvoker{content: "not json at all"}
	service, err := NewService(structuredConfig(), testLogger, WithInvoker(stub))
	require.NoError(t, err)

	result, err := service.Generate(context.Background(), "You are an expert hiring assistant.", "prompt")
	require.NoError(t, err)
	assert.Equal(t, "not json at all", result.Content)
	assert.Equal(t, "You are an expert hiring assistant.", stub.requests[0].SystemPrompt)
}

func TestServiceGenerateValidatesStructuredOutput(t *testing.T) {
	cfg := structuredConfig()
	cfg.ValidateOutput = true

	t.Run("valid profile", func(t *testing.T) {
		stub := &stubInvoker{content: "```json\n" + validProfileJSON + "\n```"}
		service, err := NewService(cfg, testLogger, WithInvoker(stub))
		require.NoError(t, err)

		result, err := service.Generate(context.Background(), "", "prompt")
		require.NoError(t, err)
		require.NotNil(t, result.Profile)
		assert.Equal(t, "Data Analyst", result.Profile.JobTitle)
		assert.Equal(t, validProfileJSON, result.Content)
	})

	t.Run("malformed profile", func(t *testing.T) {
		stub := &stubInvoker{content: "Here is your JSON: {"}
		service, err := NewService(cfg, testLogger, WithInvoker(stub))
		require.NoError(t, err)

		_, err = service.Generate(context.Background(), "", "prompt")
		require.Error(t, err)
		assert.Equal(t, errors.KindMalformed, errors.KindOf(err))
		assert.Equal(t, errors.ErrCodeInvalidModelOutput, errors.CodeOf(err))
		assert.Equal(t, http.StatusInternalServerError, errors.HTTPStatus(err))
	})

	t.Run("description output is never validated", func(t *testing.T) {
		descCfg := testOperationConfig("")
		descCfg.ValidateOutput = true
		stub := &stubInvoker{content: "plain text"}
		service, err := NewService(descCfg, testLogger, WithInvoker(stub))
		require.NoError(t, err)

		result, err := service.Generate(context.Background(), "", "prompt")
		require.NoError(t, err)
		assert.Equal(t, "plain text", result.Content)
	})
}

func TestServiceGenerateFailures(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantKind   errors.Kind
		wantStatus int
		wantMsg    string
	}{
		{
			name:       "unclassified",
			err:        stderrors.New("M"),
			wantKind:   errors.KindUnknown,
			wantStatus: http.StatusInternalServerError,
			wantMsg:    "M",
		},
		{
			name:       "auth",
			err:        &openai.APIError{HTTPStatusCode: http.StatusUnauthorized, Message: "Incorrect API key provided"},
			wantKind:   errors.KindAuth,
			wantStatus: http.StatusServiceUnavailable,
		},
		{
			name:       "upstream",
			err:        &openai.APIError{HTTPStatusCode: http.StatusServiceUnavailable, Message: "overloaded"},
			wantKind:   errors.KindUpstream,
			wantStatus: http.StatusBadGateway,
		},
		{
			name:       "deadline",
			err:        fmt.Errorf("post: %w", context.DeadlineExceeded),
			wantKind:   errors.KindTransport,
			wantStatus: http.StatusGatewayTimeout,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, err := NewService(testOperationConfig(""), testLogger, WithInvoker(&stubInvoker{err: tt.err}))
			require.NoError(t, err)

			_, err = service.Generate(context.Background(), "", "prompt")
			require.Error(t, err)
			assert.Equal(t, tt.wantKind, errors.KindOf(err))
			assert.Equal(t, tt.wantStatus, errors.HTTPStatus(err))
			if tt.wantMsg != "" {
				assert.Equal(t, tt.wantMsg, errors.CauseMessage(err))
			}
		})
	}
}

func TestServiceBreakerOpensAfterFailures(t *testing.T) {
	cfg := testOperationConfig("")
	cfg.CircuitBreaker = config.CircuitBreakerConfig{
		Enabled:          true,
		MaxRequests:      1,
		Interval:         time.Minute,
		Timeout:          time.Minute,
		MinRequests:      2,
		FailureThreshold: 0.5,
	}
	stub := &stubInvoker{err: &openai.APIError{HTTPStatusCode: http.StatusBadGateway, Message: "bad gateway"}}
	service, err := NewService(cfg, testLogger, WithInvoker(stub))
	require.NoError(t, err)

	for range 2 {
		_, err = service.Generate(context.Background(), "", "prompt")
		assert.Equal(t, errors.KindUpstream, errors.KindOf(err))
	}
	assert.False(t, service.Healthy())

	_, err = service.Generate(context.Background(), "", "prompt")
	require.Error(t, err)
	assert.Equal(t, errors.KindTransport, errors.KindOf(err))
	assert.Equal(t, 2, stub.calls(), "open breaker must not reach the invoker")

	stats := service.Stats()
	breakerStats := stats["circuit_breaker"].(map[string]any)
	assert.Equal(t, "open", breakerStats["state"])
	assert.Equal(t, false, stats["overall_healthy"])
}

func TestServiceBreakerIgnoresAuthFailures(t *testing.T) {
	cfg := testOperationConfig("")
	cfg.APIKey = ""
	cfg.CircuitBreaker = config.CircuitBreakerConfig{
		Enabled:          true,
		MaxRequests:      1,
		Interval:         time.Minute,
		Timeout:          time.Minute,
		MinRequests:      1,
		FailureThreshold: 0.1,
	}
	stub := &stubInvoker{err: errMissingAPIKey}
	service, err := NewService(cfg, testLogger, WithInvoker(stub))
	require.NoError(t, err)

	for range 3 {
		_, err = service.Generate(context.Background(), "", "prompt")
		assert.Equal(t, errors.KindAuth, errors.KindOf(err))
	}
	assert.True(t, service.Healthy())
	assert.Equal(t, 3, stub.calls())
}

func TestServiceBreakerIgnoresRejectedRequests(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		healthy bool
	}{
		{"bad request", http.StatusBadRequest, true},
		{"unprocessable", http.StatusUnprocessableEntity, true},
		{"throttled", http.StatusTooManyRequests, false},
		{"server error", http.StatusInternalServerError, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testOperationConfig("")
			cfg.CircuitBreaker = config.CircuitBreakerConfig{
				Enabled:          true,
				MaxRequests:      1,
				Interval:         time.Minute,
				Timeout:          time.Minute,
				MinRequests:      2,
				FailureThreshold: 0.5,
			}
			stub := &stubInvoker{err: &openai.APIError{HTTPStatusCode: tt.status, Message: "rejected"}}
			service, err := NewService(cfg, testLogger, WithInvoker(stub))
			require.NoError(t, err)

			for range 2 {
				_, err = service.Generate(context.Background(), "", "prompt")
				assert.Equal(t, errors.KindUpstream, errors.KindOf(err))
			}
			assert.Equal(t, tt.healthy, service.Healthy())
		})
	}
}

func TestServiceTimeout(t *testing.T) {
	cfg := testOperationConfig("")
	cfg.Timeout = 20 * time.Millisecond

	blocking := invokerFunc(func(ctx context.Context, req CompletionRequest) (*Completion, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
	service, err := NewService(cfg, testLogger, WithInvoker(blocking))
	require.NoError(t, err)

	_, err = service.Generate(context.Background(), "", "prompt")
	require.Error(t, err)
	assert.Equal(t, errors.KindTransport, errors.KindOf(err))
}

func TestNewServiceUnknownProvider(t *testing.T) {
	cfg := testOperationConfig("")
	cfg.Provider = "llama"

	_, err := NewService(cfg, testLogger)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Unsupported AI provider")
}

func TestNewServiceBuildsProviders(t *testing.T) {
	service, err := NewService(testOperationConfig("http://127.0.0.1:1/v1"), testLogger)
	require.NoError(t, err)
	assert.IsType(t, &OpenAIProvider{}, service.invoker)

	geminiCfg := testOperationConfig("")
	geminiCfg.Provider = config.ProviderGemini
	geminiCfg.APIKey = ""
	service, err = NewService(geminiCfg, testLogger)
	require.NoError(t, err)
	assert.IsType(t, &GeminiProvider{}, service.invoker)

	_, err = service.Generate(context.Background(), "", "prompt")
	assert.Equal(t, errors.KindAuth, errors.KindOf(err))
}

type invokerFunc func(ctx context.Context, req CompletionRequest) (*Completion, error)

func (f invokerFunc) Complete(ctx context.Context, req CompletionRequest) (*Completion, error) {
	return f(ctx, req)
}

func (f invokerFunc) ModelInfo(ctx context.Context) *ModelInfo { return &ModelInfo{} }

func (f invokerFunc) Close() error { return nil }
