package config

import (
	"time"

	"github.com/spf13/viper"
)

// setDefaults sets the default configuration values
func setDefaults(v *viper.Viper) {
	// AI Configuration - Global defaults
	v.SetDefault("ai.provider", ProviderOpenAI)
	v.SetDefault("ai.model", "gpt-4")
	v.SetDefault("ai.timeout", 0) // transport default
	v.SetDefault("ai.apiKey", "")
	v.SetDefault("ai.baseURL", "")
	v.SetDefault("ai.temperature", 0.7)
	v.SetDefault("ai.maxTokens", 1200)
	v.SetDefault("ai.maxFieldLength", 200)

	// Free-form job card
	v.SetDefault("ai.description.provider", "")
	v.SetDefault("ai.description.model", "")
	v.SetDefault("ai.description.temperature", 0.7)
	v.SetDefault("ai.description.maxTokens", 1200)
	v.SetDefault("ai.description.validateOutput", false)
	v.SetDefault("ai.description.systemPrompt", "")
	v.SetDefault("ai.description.systemPromptFile", "")
	v.SetDefault("ai.description.userPrompt", "")
	v.SetDefault("ai.description.userPromptFile", "")

	// JSON job profile
	v.SetDefault("ai.structured.provider", "")
	v.SetDefault("ai.structured.model", "")
	v.SetDefault("ai.structured.temperature", 0.6)
	v.SetDefault("ai.structured.maxTokens", 1000)
	v.SetDefault("ai.structured.validateOutput", false)
	v.SetDefault("ai.structured.systemPrompt", "You are an expert hiring assistant.")
	v.SetDefault("ai.structured.systemPromptFile", "")
	v.SetDefault("ai.structured.userPrompt", "")
	v.SetDefault("ai.structured.userPromptFile", "")

	for _, op := range []string{"description", "structured"} {
		prefix := "ai." + op + ".circuitBreaker."
		// opt-in: an open breaker answers without calling the model
		v.SetDefault(prefix+"enabled", false)
		v.SetDefault(prefix+"maxRequests", 3)
		v.SetDefault(prefix+"interval", 60*time.Second)
		v.SetDefault(prefix+"timeout", 60*time.Second)
		v.SetDefault(prefix+"minRequests", 3)
		v.SetDefault(prefix+"failureThreshold", 0.6)
	}

	// Server Configuration
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.variant", "description")
	v.SetDefault("server.readTimeout", 30*time.Second)
	v.SetDefault("server.writeTimeout", 0) // must outlast ai.timeout; 0 never cuts a model call short
	v.SetDefault("server.idleTimeout", 120*time.Second)
	v.SetDefault("server.maxRequestSize", 64*1024)

	// TLS Configuration defaults
	v.SetDefault("server.tls.mode", "disabled")
	v.SetDefault("server.tls.certFile", "")
	v.SetDefault("server.tls.keyFile", "")
	v.SetDefault("server.tls.caFile", "")
	v.SetDefault("server.tls.minVersion", "1.2")
	v.SetDefault("server.tls.cipherSuites", []string{})
	v.SetDefault("server.tls.clientAuthPolicy", "require")
	v.SetDefault("server.tls.autoReload.enabled", true)
	v.SetDefault("server.tls.autoReload.debounceDelay", time.Second)

	v.SetDefault("server.apiKeys", []string{})

	// App Configuration
	v.SetDefault("app.logLevel", "info")
	v.SetDefault("app.defaultFormat", "json")
	v.SetDefault("app.supportedFormats", []string{"json", "yaml", "text", "markdown"})
	v.SetDefault("app.maxFileSize", 1024*1024) // 1MB
	v.SetDefault("app.watchPrompts", true)
	v.SetDefault("app.promptReloadDelay", 500*time.Millisecond)
	v.SetDefault("app.upstreamWarnPeriod", 30*time.Second)

	// Vault Configuration
	v.SetDefault("vault.enabled", false)
	v.SetDefault("vault.address", "")
	v.SetDefault("vault.token", "")
	v.SetDefault("vault.tokenFile", "")
	v.SetDefault("vault.namespace", "")
	v.SetDefault("vault.secrets.apiKeys", "")
	v.SetDefault("vault.secrets.modelKey", "")
	v.SetDefault("vault.secrets.tlsCerts", "")

	// Observability Configuration
	v.SetDefault("observability.enabled", true)
	v.SetDefault("observability.serviceName", "jobgen")
	v.SetDefault("observability.serviceVersion", "")  // app version if empty
	v.SetDefault("observability.serviceInstance", "") // derived from hostname if empty
	v.SetDefault("observability.consoleOutput", false)
	v.SetDefault("observability.sampleRate", 1.0)
	v.SetDefault("observability.console.prettyPrint", true)
	v.SetDefault("observability.metrics.collectionInterval", 15*time.Second)

	v.SetDefault("observability.customMetrics.aiOperations.enabled", true)
	v.SetDefault("observability.customMetrics.aiOperations.trackDuration", true)
	v.SetDefault("observability.customMetrics.aiOperations.trackTokenUsage", true)
	v.SetDefault("observability.customMetrics.businessMetrics.enabled", true)

	v.SetDefault("observability.prometheus.enabled", true)
	v.SetDefault("observability.prometheus.endpoint", "/metrics")
	v.SetDefault("observability.prometheus.port", "9090")

	v.SetDefault("observability.otlp.enabled", false)
	v.SetDefault("observability.otlp.endpoint", "http://localhost:4318")
	v.SetDefault("observability.otlp.insecure", true)
	v.SetDefault("observability.otlp.headers", map[string]string{})

	v.SetDefault("observability.healthCheck.aiModelCheckTimeout", 10*time.Second)
}
