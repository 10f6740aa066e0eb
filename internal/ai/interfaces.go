package ai

import (
	"context"
)

// Invoker sends one prompt to a model and returns the text it produced.
// Implementations are safe for concurrent use.
type Invoker interface {
	Complete(ctx context.Context, req CompletionRequest) (*Completion, error)
	ModelInfo(ctx context.Context) *ModelInfo
	Close() error
}

// CompletionRequest is a single-turn chat request. An empty SystemPrompt
// sends the user message alone.
type CompletionRequest struct {
	SystemPrompt string
	UserPrompt   string
	Model        string
	Temperature  float32
	MaxTokens    int
}

// Completion is the model output for one request.
type Completion struct {
	Content      string
	Model        string
	FinishReason string
	Usage        *TokenUsage
}

// TokenUsage holds token counts reported by the provider
type TokenUsage struct {
	InputTokens  int64
	OutputTokens int64
	TotalTokens  int64
}

// ModelInfo represents information about the AI model
type ModelInfo struct {
	Name        string `json:"name"`
	Provider    string `json:"provider"`
	DisplayName string `json:"displayName,omitempty"`
	Version     string `json:"version,omitempty"`
	Available   bool   `json:"available"`
	Error       string `json:"error,omitempty"`
}
