package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"jobgen/internal/errors"

	"github.com/hashicorp/vault/api"
)

// VaultConfig holds Vault connection configuration
type VaultConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Address   string `mapstructure:"address"`
	Token     string `mapstructure:"token"`
	TokenFile string `mapstructure:"tokenFile"`
	Namespace string `mapstructure:"namespace"`

	Secrets VaultSecrets `mapstructure:"secrets"`
}

// VaultSecrets defines where to find secrets in Vault. All paths point at
// KVv2 secrets.
type VaultSecrets struct {
	APIKeys  string `mapstructure:"apiKeys"`  // key "keys": comma-separated server API keys
	ModelKey string `mapstructure:"modelKey"` // key "api_key": model provider API key
	TLSCerts string `mapstructure:"tlsCerts"` // keys "cert", "key", "ca": PEM content
}

// VaultClient wraps the Vault API client
type VaultClient struct {
	client *api.Client
	logger *errors.Logger
}

// VaultSecret represents a secret read from Vault's KVv2 engine.
type VaultSecret struct {
	Data    map[string]any
	Version int64
}

// NewVaultClient creates a new Vault client from configuration. It returns
// nil when Vault is disabled.
func NewVaultClient(config VaultConfig, logger *errors.Logger) (*VaultClient, error) {
	if !config.Enabled {
		return nil, nil
	}

	vaultConfig := api.DefaultConfig()
	if config.Address != "" {
		vaultConfig.Address = config.Address
	}

	client, err := api.NewClient(vaultConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create vault client: %w", err)
	}
	if config.Namespace != "" {
		client.SetNamespace(config.Namespace)
	}

	token, err := resolveVaultToken(config)
	if err != nil {
		return nil, err
	}
	client.SetToken(token)

	health, err := client.Sys().Health()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to vault: %w", err)
	}
	if logger != nil {
		logger.Info("Connected to Vault",
			"address", vaultConfig.Address,
			"version", health.Version,
			"sealed", health.Sealed)
	}

	return &VaultClient{client: client, logger: logger}, nil
}

// resolveVaultToken resolves the Vault token from config or file
func resolveVaultToken(config VaultConfig) (string, error) {
	token := config.Token

	if token == "" && config.TokenFile != "" {
		tokenBytes, err := os.ReadFile(config.TokenFile)
		if err != nil {
			return "", fmt.Errorf("failed to read vault token file: %w", err)
		}
		token = strings.TrimSpace(string(tokenBytes))
	}

	if token == "" {
		return "", fmt.Errorf("vault token is required when vault is enabled")
	}
	return token, nil
}

// GetSecretV2 retrieves a secret from a Vault KVv2 store.
func (vc *VaultClient) GetSecretV2(path string) (*VaultSecret, error) {
	if vc == nil {
		return nil, fmt.Errorf("vault client not initialized")
	}

	secret, err := vc.client.Logical().Read(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read secret from %s: %w", path, err)
	}
	if secret == nil || secret.Data == nil {
		return nil, fmt.Errorf("secret not found at path: %s", path)
	}

	return parseKVv2(secret.Data, path)
}

// parseKVv2 splits a raw KVv2 payload into its data and version.
func parseKVv2(raw map[string]any, path string) (*VaultSecret, error) {
	data, ok := raw["data"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("secret at %s is not in KVv2 format (missing 'data' field)", path)
	}

	metadata, ok := raw["metadata"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("secret at %s is not in KVv2 format (missing 'metadata' field)", path)
	}
	versionRaw, ok := metadata["version"]
	if !ok {
		return nil, fmt.Errorf("secret metadata at %s is missing 'version' field", path)
	}
	version, err := parseVersionValue(versionRaw, path)
	if err != nil {
		return nil, err
	}

	return &VaultSecret{Data: data, Version: version}, nil
}

// parseVersionValue parses version value from the types Vault returns
func parseVersionValue(versionRaw any, path string) (int64, error) {
	switch v := versionRaw.(type) {
	case int64:
		return v, nil
	case float64:
		return int64(v), nil
	case json.Number:
		version, err := v.Int64()
		if err != nil {
			return 0, fmt.Errorf("could not parse secret version at %s: %w", path, err)
		}
		return version, nil
	case string:
		version, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("could not parse secret version at %s: %w", path, err)
		}
		return version, nil
	default:
		return 0, fmt.Errorf("unexpected type for version at %s: %T", path, versionRaw)
	}
}

// GetStringSecret retrieves a string value from a Vault secret
func (vc *VaultClient) GetStringSecret(path, key string) (string, error) {
	secret, err := vc.GetSecretV2(path)
	if err != nil {
		return "", err
	}
	return stringField(secret, path, key)
}

func stringField(secret *VaultSecret, path, key string) (string, error) {
	value, ok := secret.Data[key]
	if !ok {
		return "", fmt.Errorf("key '%s' not found in secret %s", key, path)
	}
	strValue, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("value for key '%s' is not a string in secret %s", key, path)
	}
	return strValue, nil
}

// GetStringSliceSecret retrieves a comma-separated string as a slice from Vault
func (vc *VaultClient) GetStringSliceSecret(path, key string) ([]string, error) {
	value, err := vc.GetStringSecret(path, key)
	if err != nil {
		return nil, err
	}
	return splitAndTrim(value), nil
}

// ApplyVaultSecrets loads secrets from Vault and applies them to the config
func ApplyVaultSecrets(config *Config, logger *errors.Logger) error {
	if !config.Vault.Enabled {
		return nil
	}

	client, err := NewVaultClient(config.Vault, logger)
	if err != nil {
		return errors.NewConfigError(errors.ErrCodeInvalidConfig, "failed to initialize vault client", err)
	}
	if client == nil {
		return nil
	}

	paths := config.Vault.Secrets

	if paths.APIKeys != "" {
		apiKeys, err := client.GetStringSliceSecret(paths.APIKeys, "keys")
		if err != nil {
			return fmt.Errorf("failed to load API keys from vault: %w", err)
		}
		if len(apiKeys) > 0 {
			config.Server.APIKeys = apiKeys
		}
		logger.Info("API keys loaded from Vault", "count", len(apiKeys))
	}

	if paths.ModelKey != "" {
		modelKey, err := client.GetStringSecret(paths.ModelKey, "api_key")
		if err != nil {
			return fmt.Errorf("failed to load model API key from vault: %w", err)
		}
		if modelKey == "" {
			logger.Warn("Empty model API key found in Vault", "path", paths.ModelKey)
		} else {
			applyModelKeyToConfig(config, modelKey)
			logger.Info("Model API key loaded from Vault", "masked_value", maskSecret(modelKey))
		}
	}

	if paths.TLSCerts != "" {
		tlsData, err := client.GetSecretV2(paths.TLSCerts)
		if err != nil {
			return fmt.Errorf("failed to load TLS certificates from vault: %w", err)
		}
		if err := validateTLSDeprecatedFields(tlsData); err != nil {
			return err
		}
		loaded := loadTLSCertificateContent(config, tlsData)
		logger.Info("TLS certificates loaded from Vault", "certificates_loaded", loaded)
	}

	return nil
}

// applyModelKeyToConfig makes key the global model key. Operations with
// their own key keep it.
func applyModelKeyToConfig(config *Config, key string) {
	config.AI.APIKey = key
}

// loadTLSCertificateContent copies the PEM fields present in tlsData and
// returns how many were set.
func loadTLSCertificateContent(config *Config, tlsData *VaultSecret) int {
	fields := []struct {
		key    string
		target *string
	}{
		{"cert", &config.Server.TLS.CertContent},
		{"key", &config.Server.TLS.KeyContent},
		{"ca", &config.Server.TLS.CAContent},
	}

	count := 0
	for _, f := range fields {
		if content, ok := tlsData.Data[f.key].(string); ok && content != "" {
			*f.target = content
			count++
		}
	}
	return count
}

// validateTLSDeprecatedFields rejects file-path fields in the Vault TLS secret
func validateTLSDeprecatedFields(tlsData *VaultSecret) error {
	for _, field := range []string{"cert_file", "key_file", "ca_file"} {
		if _, hasField := tlsData.Data[field]; hasField {
			return fmt.Errorf("vault TLS configuration error: '%s' field is no longer supported. Store certificate content in '%s' field instead",
				field, strings.TrimSuffix(field, "_file"))
		}
	}
	return nil
}

func maskSecret(s string) string {
	if len(s) > 8 {
		return s[:4] + "****" + s[len(s)-4:]
	}
	if s != "" {
		return "****"
	}
	return ""
}
