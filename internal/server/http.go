package server

import (
	"context"
	"time"

	"jobgen/internal/ai"
	"jobgen/internal/config"
	"jobgen/internal/errors"
	"jobgen/internal/prompt"
	"jobgen/internal/types"
	"jobgen/internal/watcher"
)

// Generator runs one model call for the served variant. *ai.Service
// implements it.
type Generator interface {
	Generate(ctx context.Context, systemPrompt, userPrompt string) (*ai.Result, error)
	ModelInfo(ctx context.Context) *ai.ModelInfo
	Stats() map[string]any
	Healthy() bool
}

// Server holds configuration for the HTTP server
type Server struct {
	Host    string
	Port    string
	Version string

	// Variant selects the single generation route this deployment serves
	Variant types.Operation

	// Full application configuration
	AppConfig *config.Config

	// TLS Configuration
	TLSConfig config.TLSConfig

	// Certificate management
	CertificateReloader *CertificateReloader

	// API Authentication
	APIKeys map[string]bool

	// Timeout configurations
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	IdleTimeout        time.Duration
	HealthCheckTimeout time.Duration

	// Request size limit
	MaxRequestSize int64

	Generator Generator
	Prompts   *prompt.Store

	promptWatcher *watcher.FileWatcher

	// Logger
	Logger *errors.Logger
}

// ServerConfig holds configuration for creating a Server instance
type ServerConfig struct {
	Host               string
	Port               string
	Version            string
	Variant            types.Operation
	TLSConfig          config.TLSConfig
	APIKeys            []string
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	IdleTimeout        time.Duration
	HealthCheckTimeout time.Duration
	MaxRequestSize     int64

	// Optional. Start creates the AI service and loads the configured
	// prompts when these are nil.
	Generator Generator
	Prompts   *prompt.Store
}

// NewServer creates a new Server instance from a ServerConfig struct
func NewServer(appCfg *config.Config, cfg ServerConfig, logger *errors.Logger) *Server {
	// Convert API keys slice to map for O(1) lookup
	apiKeyMap := make(map[string]bool)
	for _, key := range cfg.APIKeys {
		if key != "" {
			apiKeyMap[key] = true
		}
	}

	variant := cfg.Variant
	if variant == "" {
		variant = types.OperationDescription
	}

	healthTimeout := cfg.HealthCheckTimeout
	if healthTimeout <= 0 {
		healthTimeout = 10 * time.Second
	}

	prompts := cfg.Prompts
	if prompts == nil {
		prompts = prompt.NewStore(nil)
	}

	return &Server{
		Host:               cfg.Host,
		Port:               cfg.Port,
		Version:            cfg.Version,
		Variant:            variant,
		AppConfig:          appCfg,
		TLSConfig:          cfg.TLSConfig,
		APIKeys:            apiKeyMap,
		ReadTimeout:        cfg.ReadTimeout,
		WriteTimeout:       cfg.WriteTimeout,
		IdleTimeout:        cfg.IdleTimeout,
		HealthCheckTimeout: healthTimeout,
		MaxRequestSize:     cfg.MaxRequestSize,
		Generator:          cfg.Generator,
		Prompts:            prompts,
		Logger:             logger,
	}
}

// Route returns the path the variant is mounted on. The free-form variant
// keeps its trailing slash.
func Route(op types.Operation) string {
	if op == types.OperationStructured {
		return "/generate-description"
	}
	return "/generate-description/"
}
