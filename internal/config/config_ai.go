package config

import (
	"fmt"
	"time"

	"jobgen/internal/types"
)

// Supported model providers
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// Operations lists the generation variants in a stable order.
func Operations() []types.Operation {
	return []types.Operation{types.OperationDescription, types.OperationStructured}
}

// OperationConfig is the fully resolved model configuration of one variant.
type OperationConfig struct {
	Operation      types.Operation
	Provider       string
	Model          string
	Timeout        time.Duration
	APIKey         string
	BaseURL        string
	Temperature    float32
	MaxTokens      int
	ValidateOutput bool
	CircuitBreaker CircuitBreakerConfig
}

// Operation returns the configuration for op with fallback to the global
// AI settings.
func (c *Config) Operation(op types.Operation) OperationConfig {
	opCfg := c.operationOverrides(op)

	resolved := OperationConfig{
		Operation:      op,
		Provider:       firstNonEmpty(opCfg.Provider, c.AI.Provider),
		Model:          firstNonEmpty(opCfg.Model, c.AI.Model),
		Timeout:        c.AI.Timeout,
		APIKey:         firstNonEmpty(opCfg.APIKey, c.AI.APIKey),
		BaseURL:        firstNonEmpty(opCfg.BaseURL, c.AI.BaseURL),
		Temperature:    c.AI.Temperature,
		MaxTokens:      c.AI.MaxTokens,
		CircuitBreaker: opCfg.CircuitBreaker,
	}
	if opCfg.Timeout != nil {
		resolved.Timeout = *opCfg.Timeout
	}
	if opCfg.Temperature != nil {
		resolved.Temperature = *opCfg.Temperature
	}
	if opCfg.MaxTokens != nil {
		resolved.MaxTokens = *opCfg.MaxTokens
	}
	if opCfg.ValidateOutput != nil {
		resolved.ValidateOutput = *opCfg.ValidateOutput
	}
	return resolved
}

// Variant returns the operation served by the HTTP server.
func (c *Config) Variant() types.Operation {
	op, _ := parseVariant(c.Server.Variant)
	return op
}

func (c *Config) operationOverrides(op types.Operation) OperationAIConfig {
	if op == types.OperationStructured {
		return c.AI.Structured
	}
	return c.AI.Description
}

func (c *Config) validateOperation(op types.Operation) error {
	resolved := c.Operation(op)

	if err := validateProvider(resolved.Provider); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if resolved.Model == "" {
		return fmt.Errorf("%s: model is required", op)
	}
	if resolved.Temperature < 0 || resolved.Temperature > 2 {
		return fmt.Errorf("%s: temperature must be between 0 and 2, got %.2f", op, resolved.Temperature)
	}
	if resolved.MaxTokens <= 0 {
		return fmt.Errorf("%s: maxTokens must be positive", op)
	}
	if resolved.Timeout < 0 {
		return fmt.Errorf("%s: timeout must not be negative", op)
	}

	cb := resolved.CircuitBreaker
	if cb.Enabled && (cb.FailureThreshold <= 0 || cb.FailureThreshold > 1) {
		return fmt.Errorf("%s: circuitBreaker.failureThreshold must be in (0, 1]", op)
	}
	return nil
}

func validateProvider(provider string) error {
	switch provider {
	case ProviderOpenAI, ProviderGemini:
		return nil
	default:
		return fmt.Errorf("unsupported AI provider: %q (must be %q or %q)", provider, ProviderOpenAI, ProviderGemini)
	}
}

func parseVariant(s string) (types.Operation, bool) {
	return types.ParseOperation(s)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
