package config

import (
	"fmt"
	"log"
	"os"
	"strings"
)

// applyFallbacks applies environment variable fallbacks
func (c *Config) applyFallbacks() {
	c.applyModelAPIKeyFallback()
	c.applyServerAPIKeyFallbacks()
	c.applyTLSDefaults()
	c.applyObservabilityDefaults()
}

// applyModelAPIKeyFallback reads the provider's conventional key variable
// when no key was configured.
func (c *Config) applyModelAPIKeyFallback() {
	if c.AI.APIKey != "" {
		return
	}
	envVar := "OPENAI_API_KEY"
	if c.AI.Provider == ProviderGemini {
		envVar = "GEMINI_API_KEY"
	}
	c.AI.APIKey = os.Getenv(envVar)
}

// applyServerAPIKeyFallbacks accepts a comma-separated key list from the
// environment and drops blank entries.
func (c *Config) applyServerAPIKeyFallbacks() {
	if len(c.Server.APIKeys) == 0 {
		if apiKeysEnv := os.Getenv(EnvPrefix + "_SERVER_APIKEYS"); apiKeysEnv != "" {
			c.Server.APIKeys = []string{apiKeysEnv}
		}
	}
	c.Server.APIKeys = splitAndTrim(strings.Join(c.Server.APIKeys, ","))
}

// applyTLSDefaults applies default TLS configuration values
func (c *Config) applyTLSDefaults() {
	if c.Server.TLS.Mode == "mutual" && c.Server.TLS.ClientAuthPolicy == "" {
		c.Server.TLS.ClientAuthPolicy = "require"
	}
	if c.Server.TLS.MinVersion == "" && c.Server.TLS.Mode != "disabled" {
		c.Server.TLS.MinVersion = "1.2"
	}
}

// applyObservabilityDefaults applies default observability configuration values
func (c *Config) applyObservabilityDefaults() {
	if c.Observability.ServiceInstance == "" {
		c.Observability.ServiceInstance = generateServiceInstanceID(c.Observability.ServiceName)
	}
}

// generateServiceInstanceID generates a unique service instance ID
func generateServiceInstanceID(serviceName string) string {
	if hostname, err := os.Hostname(); err == nil {
		return fmt.Sprintf("%s-%s", serviceName, hostname)
	}
	return fmt.Sprintf("%s-1", serviceName)
}

func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

// logConfigurationSources logs a summary of configuration sources being used
func (c *Config) logConfigurationSources(configFileUsed string) {
	log.Println("[CONFIG] === Configuration Sources Summary ===")

	if configFileUsed != "" {
		log.Printf("[CONFIG] Config file: %s", configFileUsed)
	} else {
		log.Println("[CONFIG] Config file: None (using defaults)")
	}

	envVars := []string{
		EnvPrefix + "_AI_APIKEY",
		EnvPrefix + "_AI_PROVIDER",
		EnvPrefix + "_AI_MODEL",
		EnvPrefix + "_SERVER_PORT",
		EnvPrefix + "_SERVER_HOST",
		EnvPrefix + "_SERVER_VARIANT",
		EnvPrefix + "_APP_LOGLEVEL",
		EnvPrefix + "_VAULT_ENABLED",
		"OPENAI_API_KEY",
		"GEMINI_API_KEY",
	}

	log.Println("[CONFIG] Environment variables:")
	hasEnvVars := false
	for _, envVar := range envVars {
		if value := os.Getenv(envVar); value != "" {
			if strings.Contains(strings.ToLower(envVar), "key") {
				log.Printf("[CONFIG]   %s=***MASKED***", envVar)
			} else {
				log.Printf("[CONFIG]   %s=%s", envVar, value)
			}
			hasEnvVars = true
		}
	}
	if !hasEnvVars {
		log.Println("[CONFIG]   None set")
	}

	log.Println("[CONFIG] === Key Configuration Values ===")
	log.Printf("[CONFIG] AI Provider: %s", c.AI.Provider)
	log.Printf("[CONFIG] AI Model: %s", c.AI.Model)
	if c.AI.APIKey != "" {
		log.Println("[CONFIG] AI API Key: ***CONFIGURED***")
	} else {
		log.Println("[CONFIG] AI API Key: ***NOT SET***")
	}
	log.Printf("[CONFIG] Server: %s:%s (variant %s)", c.Server.Host, c.Server.Port, c.Server.Variant)
	log.Printf("[CONFIG] Log Level: %s", c.App.LogLevel)
	log.Printf("[CONFIG] TLS Mode: %s", c.Server.TLS.Mode)
	log.Printf("[CONFIG] Vault Enabled: %t", c.Vault.Enabled)
	log.Printf("[CONFIG] Observability Enabled: %t", c.Observability.Enabled)

	for _, op := range Operations() {
		resolved := c.Operation(op)
		log.Printf("[CONFIG] %s - Provider: %s, Model: %s, Temperature: %.2f, MaxTokens: %d, ValidateOutput: %t",
			op, resolved.Provider, resolved.Model, resolved.Temperature, resolved.MaxTokens, resolved.ValidateOutput)
	}

	log.Println("[CONFIG] =====================================")
}
