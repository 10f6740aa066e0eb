package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g. JOBGEN_AI_MODEL.
const EnvPrefix = "JOBGEN"

// Config holds all application configuration
// Model API key precedence:
// 1. Vault (if configured)
// 2. Config file values
// 3. JOBGEN_AI_APIKEY, then OPENAI_API_KEY (GEMINI_API_KEY for gemini)
// 4. Default values
type Config struct {
	AI            AIConfig            `mapstructure:"ai"`
	Server        ServerConfig        `mapstructure:"server"`
	App           AppConfig           `mapstructure:"app"`
	Vault         VaultConfig         `mapstructure:"vault"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

// AIConfig holds the global model settings. Each operation may override
// any of them.
type AIConfig struct {
	Provider       string        `mapstructure:"provider"`
	Model          string        `mapstructure:"model"`
	Timeout        time.Duration `mapstructure:"timeout"`
	APIKey         string        `mapstructure:"apiKey"`
	BaseURL        string        `mapstructure:"baseURL"`
	Temperature    float32       `mapstructure:"temperature"`
	MaxTokens      int           `mapstructure:"maxTokens"`
	MaxFieldLength int           `mapstructure:"maxFieldLength"`

	Description OperationAIConfig `mapstructure:"description"`
	Structured  OperationAIConfig `mapstructure:"structured"`
}

// CircuitBreakerConfig represents circuit breaker configuration
type CircuitBreakerConfig struct {
	Enabled          bool          `mapstructure:"enabled"`          // Whether circuit breaker is enabled
	MaxRequests      uint32        `mapstructure:"maxRequests"`      // Max requests allowed when half-open
	Interval         time.Duration `mapstructure:"interval"`         // Interval to clear counts
	Timeout          time.Duration `mapstructure:"timeout"`          // Open duration before half-open
	MinRequests      uint32        `mapstructure:"minRequests"`      // Minimum requests before tripping
	FailureThreshold float64       `mapstructure:"failureThreshold"` // Failure ratio threshold (0.0-1.0)
}

// OperationAIConfig holds the settings of one generation variant. Nil
// pointers and empty strings fall back to AIConfig.
type OperationAIConfig struct {
	Provider       string         `mapstructure:"provider"`
	Model          string         `mapstructure:"model"`
	Timeout        *time.Duration `mapstructure:"timeout"`
	APIKey         string         `mapstructure:"apiKey"`
	BaseURL        string         `mapstructure:"baseURL"`
	Temperature    *float32       `mapstructure:"temperature"`
	MaxTokens      *int           `mapstructure:"maxTokens"`
	ValidateOutput *bool          `mapstructure:"validateOutput"`

	SystemPrompt     string `mapstructure:"systemPrompt"`
	SystemPromptFile string `mapstructure:"systemPromptFile"`
	UserPrompt       string `mapstructure:"userPrompt"`
	UserPromptFile   string `mapstructure:"userPromptFile"`

	CircuitBreaker CircuitBreakerConfig `mapstructure:"circuitBreaker"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host           string        `mapstructure:"host"`
	Port           string        `mapstructure:"port"`
	Variant        string        `mapstructure:"variant"` // description or structured
	ReadTimeout    time.Duration `mapstructure:"readTimeout"`
	WriteTimeout   time.Duration `mapstructure:"writeTimeout"`
	IdleTimeout    time.Duration `mapstructure:"idleTimeout"`
	MaxRequestSize int64         `mapstructure:"maxRequestSize"`

	TLS TLSConfig `mapstructure:"tls"`

	// Valid API keys for authentication. Empty disables auth.
	APIKeys []string `mapstructure:"apiKeys"`
}

// TLSConfig holds TLS/mTLS configuration
type TLSConfig struct {
	Mode     string `mapstructure:"mode"`     // disabled, server, mutual
	CertFile string `mapstructure:"certFile"` // PEM
	KeyFile  string `mapstructure:"keyFile"`  // PEM
	CAFile   string `mapstructure:"caFile"`   // PEM, required for mutual mode

	// Loaded from Vault instead of files
	CertContent string `mapstructure:"certContent"`
	KeyContent  string `mapstructure:"keyContent"`
	CAContent   string `mapstructure:"caContent"`

	MinVersion       string   `mapstructure:"minVersion"`       // 1.2 or 1.3
	CipherSuites     []string `mapstructure:"cipherSuites"`     // optional
	ClientAuthPolicy string   `mapstructure:"clientAuthPolicy"` // require, request, verify

	AutoReload AutoReloadConfig `mapstructure:"autoReload"`
}

// AutoReloadConfig controls reloading of certificate files on change
type AutoReloadConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	DebounceDelay time.Duration `mapstructure:"debounceDelay"`
}

// AppConfig holds general application configuration
type AppConfig struct {
	LogLevel           string        `mapstructure:"logLevel"`
	DefaultFormat      string        `mapstructure:"defaultFormat"`
	SupportedFormats   []string      `mapstructure:"supportedFormats"`
	MaxFileSize        int64         `mapstructure:"maxFileSize"`
	WatchPrompts       bool          `mapstructure:"watchPrompts"`
	PromptReloadDelay  time.Duration `mapstructure:"promptReloadDelay"`
	UpstreamWarnPeriod time.Duration `mapstructure:"upstreamWarnPeriod"`
}

// ObservabilityConfig holds observability configuration
type ObservabilityConfig struct {
	Enabled         bool                `mapstructure:"enabled"`
	ServiceName     string              `mapstructure:"serviceName"`
	ServiceVersion  string              `mapstructure:"serviceVersion"`
	ServiceInstance string              `mapstructure:"serviceInstance"`
	ConsoleOutput   bool                `mapstructure:"consoleOutput"`
	SampleRate      float64             `mapstructure:"sampleRate"`
	Metrics         MetricsConfig       `mapstructure:"metrics"`
	CustomMetrics   CustomMetricsConfig `mapstructure:"customMetrics"`
	Console         ConsoleConfig       `mapstructure:"console"`
	Prometheus      PrometheusConfig    `mapstructure:"prometheus"`
	OTLP            OTLPConfig          `mapstructure:"otlp"`
	HealthCheck     HealthCheckConfig   `mapstructure:"healthCheck"`
}

// MetricsConfig holds metric export settings
type MetricsConfig struct {
	CollectionInterval time.Duration `mapstructure:"collectionInterval"`
}

// ConsoleConfig holds console output configuration
type ConsoleConfig struct {
	PrettyPrint bool `mapstructure:"prettyPrint"`
}

// CustomMetricsConfig toggles groups of application metrics
type CustomMetricsConfig struct {
	AIOperations    AIOperationsMetricsConfig `mapstructure:"aiOperations"`
	BusinessMetrics BusinessMetricsConfig     `mapstructure:"businessMetrics"`
}

// AIOperationsMetricsConfig holds AI operation metrics configuration
type AIOperationsMetricsConfig struct {
	Enabled         bool `mapstructure:"enabled"`
	TrackDuration   bool `mapstructure:"trackDuration"`
	TrackTokenUsage bool `mapstructure:"trackTokenUsage"`
}

// BusinessMetricsConfig holds business metrics configuration
type BusinessMetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// PrometheusConfig holds Prometheus configuration
type PrometheusConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint"`
	Port     string `mapstructure:"port"`
}

// OTLPConfig holds OTLP exporter configuration
type OTLPConfig struct {
	Enabled  bool              `mapstructure:"enabled"`
	Endpoint string            `mapstructure:"endpoint"`
	Insecure bool              `mapstructure:"insecure"`
	Headers  map[string]string `mapstructure:"headers"`
}

// HealthCheckConfig holds health check configuration
type HealthCheckConfig struct {
	AIModelCheckTimeout time.Duration `mapstructure:"aiModelCheckTimeout"`
}

// LoadConfig loads configuration from defaults, a config file and the environment
func LoadConfig() (*Config, error) {
	return Load(viper.New())
}

// Load reads configuration into v. Callers may bind flags on v beforehand.
func Load(v *viper.Viper) (*Config, error) {
	log.Println("[CONFIG] Starting configuration loading process")

	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("/etc/jobgen/")
	v.AddConfigPath("$HOME/.jobgen")
	v.AddConfigPath(".")

	configFileUsed := ""
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		log.Println("[CONFIG] No config file found, using defaults and environment variables")
	} else {
		configFileUsed = v.ConfigFileUsed()
		log.Printf("[CONFIG] Loaded config file: %s", configFileUsed)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config.applyFallbacks()
	config.logConfigurationSources(configFileUsed)

	if err := config.validatePromptFiles(); err != nil {
		return nil, fmt.Errorf("prompt file validation failed: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	log.Println("[CONFIG] Configuration loading completed successfully")
	return &config, nil
}

// Validate checks if the configuration is valid. A missing model API key is
// not an error here; calls fail with an auth error instead.
func (c *Config) Validate() error {
	if err := validateProvider(c.AI.Provider); err != nil {
		return err
	}
	if c.AI.Timeout < 0 {
		return fmt.Errorf("AI timeout must not be negative")
	}
	if c.AI.MaxFieldLength < 0 {
		return fmt.Errorf("ai.maxFieldLength must not be negative")
	}

	for _, op := range Operations() {
		if err := c.validateOperation(op); err != nil {
			return err
		}
	}

	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if _, ok := parseVariant(c.Server.Variant); !ok {
		return fmt.Errorf("invalid server variant: %s (must be 'description' or 'structured')", c.Server.Variant)
	}
	if c.Server.MaxRequestSize <= 0 {
		return fmt.Errorf("server.maxRequestSize must be positive")
	}

	validFormats := make(map[string]bool)
	for _, format := range c.App.SupportedFormats {
		validFormats[format] = true
	}
	if !validFormats[c.App.DefaultFormat] {
		return fmt.Errorf("invalid default format: %s", c.App.DefaultFormat)
	}

	if err := c.ValidateTLSConfig(); err != nil {
		return fmt.Errorf("TLS configuration error: %w", err)
	}

	return nil
}
