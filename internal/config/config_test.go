package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobgen/internal/types"
)

func clearModelEnv(t *testing.T) {
	t.Helper()
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("JOBGEN_AI_APIKEY", "")
}

func TestLoadDefaults(t *testing.T) {
	clearModelEnv(t)

	cfg, err := Load(viper.New())
	require.NoError(t, err)

	description := cfg.Operation(types.OperationDescription)
	assert.Equal(t, ProviderOpenAI, description.Provider)
	assert.Equal(t, "gpt-4", description.Model)
	assert.InDelta(t, 0.7, description.Temperature, 1e-6)
	assert.Equal(t, 1200, description.MaxTokens)
	assert.False(t, description.ValidateOutput)
	assert.Zero(t, description.Timeout)
	assert.False(t, description.CircuitBreaker.Enabled)
	assert.Zero(t, cfg.Server.WriteTimeout)

	structured := cfg.Operation(types.OperationStructured)
	assert.Equal(t, "gpt-4", structured.Model)
	assert.InDelta(t, 0.6, structured.Temperature, 1e-6)
	assert.Equal(t, 1000, structured.MaxTokens)
	assert.False(t, structured.ValidateOutput)
	assert.Zero(t, structured.Timeout)
	assert.False(t, structured.CircuitBreaker.Enabled)
	assert.Equal(t, "You are an expert hiring assistant.", cfg.AI.Structured.SystemPrompt)
	assert.Empty(t, cfg.AI.Description.SystemPrompt)

	assert.Equal(t, types.OperationDescription, cfg.Variant())
	assert.Equal(t, "", cfg.AI.APIKey)
	assert.Equal(t, 200, cfg.AI.MaxFieldLength)
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	clearModelEnv(t)
	t.Setenv("OPENAI_API_KEY", "sk-env")
	t.Setenv("JOBGEN_SERVER_VARIANT", "b")
	t.Setenv("JOBGEN_AI_STRUCTURED_MAXTOKENS", "800")
	t.Setenv("JOBGEN_AI_STRUCTURED_VALIDATEOUTPUT", "true")
	t.Setenv("JOBGEN_SERVER_APIKEYS", "one, two")

	cfg, err := Load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "sk-env", cfg.AI.APIKey)
	assert.Equal(t, types.OperationStructured, cfg.Variant())

	structured := cfg.Operation(types.OperationStructured)
	assert.Equal(t, 800, structured.MaxTokens)
	assert.True(t, structured.ValidateOutput)
	assert.Equal(t, "sk-env", structured.APIKey)
	assert.ElementsMatch(t, []string{"one", "two"}, cfg.Server.APIKeys)
}

func TestLoadExplicitKeyWins(t *testing.T) {
	clearModelEnv(t)
	t.Setenv("OPENAI_API_KEY", "sk-fallback")
	t.Setenv("JOBGEN_AI_APIKEY", "sk-explicit")

	cfg, err := Load(viper.New())
	require.NoError(t, err)
	assert.Equal(t, "sk-explicit", cfg.AI.APIKey)
}

func TestValidate(t *testing.T) {
	clearModelEnv(t)
	valid := func(t *testing.T) *Config {
		cfg, err := Load(viper.New())
		require.NoError(t, err)
		return cfg
	}

	tests := []struct {
		name   string
		mutate func(c *Config)
		errMsg string
	}{
		{"unknown provider", func(c *Config) { c.AI.Provider = "llama" }, "unsupported AI provider"},
		{"bad variant", func(c *Config) { c.Server.Variant = "c" }, "invalid server variant"},
		{"zero max tokens", func(c *Config) { zero := 0; c.AI.Description.MaxTokens = &zero }, "maxTokens must be positive"},
		{"hot temperature", func(c *Config) { hot := float32(3); c.AI.Structured.Temperature = &hot }, "temperature must be between 0 and 2"},
		{"empty port", func(c *Config) { c.Server.Port = "" }, "server port is required"},
		{"bad format", func(c *Config) { c.App.DefaultFormat = "xml" }, "invalid default format"},
		{"bad threshold", func(c *Config) {
			c.AI.Description.CircuitBreaker.Enabled = true
			c.AI.Description.CircuitBreaker.FailureThreshold = 1.5
		}, "failureThreshold"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid(t)
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestOperationFallsBackToGlobal(t *testing.T) {
	cfg := &Config{AI: AIConfig{
		Provider:    ProviderGemini,
		Model:       "gemini-2.0-flash",
		Timeout:     30 * time.Second,
		APIKey:      "global",
		Temperature: 0.2,
		MaxTokens:   500,
		Structured:  OperationAIConfig{Model: "gemini-2.5-pro"},
	}}

	description := cfg.Operation(types.OperationDescription)
	assert.Equal(t, "gemini-2.0-flash", description.Model)
	assert.Equal(t, 500, description.MaxTokens)
	assert.InDelta(t, 0.2, description.Temperature, 1e-6)

	structured := cfg.Operation(types.OperationStructured)
	assert.Equal(t, "gemini-2.5-pro", structured.Model)
	assert.Equal(t, ProviderGemini, structured.Provider)
	assert.Equal(t, "global", structured.APIKey)
}
