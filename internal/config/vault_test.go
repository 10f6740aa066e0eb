package config

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"jobgen/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger() *errors.Logger {
	logger, _ := errors.New("debug")
	return logger
}

func TestParseVersionValue(t *testing.T) {
	tests := []struct {
		name        string
		input       any
		expected    int64
		expectError bool
	}{
		{name: "int64 value", input: int64(42), expected: 42},
		{name: "float64 value", input: float64(42.0), expected: 42},
		{name: "string value", input: "42", expected: 42},
		{name: "json number", input: json.Number("7"), expected: 7},
		{name: "invalid string value", input: "not-a-number", expectError: true},
		{name: "float string", input: "42.5", expectError: true},
		{name: "unsupported type", input: []string{"42"}, expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := parseVersionValue(tt.input, "secret/data/test")

			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.expected, result)
			}
		})
	}
}

func TestParseKVv2(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		secret, err := parseKVv2(map[string]any{
			"data":     map[string]any{"api_key": "sk-test"},
			"metadata": map[string]any{"version": json.Number("3")},
		}, "secret/data/openai")
		require.NoError(t, err)
		assert.Equal(t, int64(3), secret.Version)
		assert.Equal(t, "sk-test", secret.Data["api_key"])
	})

	t.Run("missing data", func(t *testing.T) {
		_, err := parseKVv2(map[string]any{"metadata": map[string]any{}}, "p")
		assert.ErrorContains(t, err, "missing 'data' field")
	})

	t.Run("missing metadata", func(t *testing.T) {
		_, err := parseKVv2(map[string]any{"data": map[string]any{}}, "p")
		assert.ErrorContains(t, err, "missing 'metadata' field")
	})

	t.Run("missing version", func(t *testing.T) {
		_, err := parseKVv2(map[string]any{"data": map[string]any{}, "metadata": map[string]any{}}, "p")
		assert.ErrorContains(t, err, "missing 'version' field")
	})
}

func TestResolveVaultToken(t *testing.T) {
	t.Run("token from config", func(t *testing.T) {
		token, err := resolveVaultToken(VaultConfig{Token: "direct-token"})
		assert.NoError(t, err)
		assert.Equal(t, "direct-token", token)
	})

	t.Run("token from file", func(t *testing.T) {
		tokenFile := filepath.Join(t.TempDir(), "vault-token")
		require.NoError(t, os.WriteFile(tokenFile, []byte("  file-token  \n"), 0600))

		token, err := resolveVaultToken(VaultConfig{TokenFile: tokenFile})
		assert.NoError(t, err)
		assert.Equal(t, "file-token", token)
	})

	t.Run("missing token file", func(t *testing.T) {
		_, err := resolveVaultToken(VaultConfig{TokenFile: "/nonexistent/token/file"})
		assert.ErrorContains(t, err, "failed to read vault token file")
	})

	t.Run("no token provided", func(t *testing.T) {
		_, err := resolveVaultToken(VaultConfig{})
		assert.ErrorContains(t, err, "vault token is required")
	})
}

func TestLoadTLSCertificateContent(t *testing.T) {
	config := &Config{}
	loaded := loadTLSCertificateContent(config, &VaultSecret{Data: map[string]any{
		"cert": "CERT",
		"key":  "KEY",
		"ca":   "",
		"x":    123,
	}})

	assert.Equal(t, 2, loaded)
	assert.Equal(t, "CERT", config.Server.TLS.CertContent)
	assert.Equal(t, "KEY", config.Server.TLS.KeyContent)
	assert.Empty(t, config.Server.TLS.CAContent)
}

func TestValidateTLSDeprecatedFields(t *testing.T) {
	assert.NoError(t, validateTLSDeprecatedFields(&VaultSecret{Data: map[string]any{"cert": "c"}}))

	err := validateTLSDeprecatedFields(&VaultSecret{Data: map[string]any{"key_file": "/k.pem"}})
	assert.ErrorContains(t, err, "'key_file' field is no longer supported")
	assert.ErrorContains(t, err, "'key' field")
}

func TestApplyVaultSecretsDisabled(t *testing.T) {
	config := &Config{Vault: VaultConfig{Enabled: false}}
	assert.NoError(t, ApplyVaultSecrets(config, newTestLogger()))
}

func TestApplyVaultSecrets(t *testing.T) {
	secrets := map[string]map[string]any{
		"/v1/secret/data/jobgen/openai": {"api_key": "sk-from-vault-1234"},
		"/v1/secret/data/jobgen/server": {"keys": "alpha, beta ,gamma"},
		"/v1/secret/data/jobgen/tls":    {"cert": "CERT-PEM", "key": "KEY-PEM"},
	}

	vault := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Path == "/v1/sys/health" {
			_ = json.NewEncoder(w).Encode(map[string]any{
				"initialized": true,
				"sealed":      false,
				"version":     "1.15.0",
			})
			return
		}
		if r.Header.Get("X-Vault-Token") != "test-token" {
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"errors":["permission denied"]}`))
			return
		}
		data, ok := secrets[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"errors":[]}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]any{
				"data":     data,
				"metadata": map[string]any{"version": 2},
			},
		})
	}))
	defer vault.Close()

	config := &Config{
		Vault: VaultConfig{
			Enabled: true,
			Address: vault.URL,
			Token:   "test-token",
			Secrets: VaultSecrets{
				APIKeys:  "secret/data/jobgen/server",
				ModelKey: "secret/data/jobgen/openai",
				TLSCerts: "secret/data/jobgen/tls",
			},
		},
		AI: AIConfig{
			Structured: OperationAIConfig{APIKey: "sk-structured-own"},
		},
	}

	require.NoError(t, ApplyVaultSecrets(config, newTestLogger()))

	assert.Equal(t, "sk-from-vault-1234", config.AI.APIKey)
	assert.Equal(t, "sk-from-vault-1234", config.Operation("description").APIKey)
	assert.Equal(t, "sk-structured-own", config.Operation("structured").APIKey)
	assert.Equal(t, []string{"alpha", "beta", "gamma"}, config.Server.APIKeys)
	assert.Equal(t, "CERT-PEM", config.Server.TLS.CertContent)
	assert.Equal(t, "KEY-PEM", config.Server.TLS.KeyContent)

	t.Run("missing secret", func(t *testing.T) {
		config.Vault.Secrets = VaultSecrets{ModelKey: "secret/data/jobgen/absent"}
		assert.Error(t, ApplyVaultSecrets(config, newTestLogger()))
	})
}

func TestMaskSecret(t *testing.T) {
	assert.Equal(t, "sk-a****wxyz", maskSecret("sk-abcdefwxyz"))
	assert.Equal(t, "****", maskSecret("short"))
	assert.Equal(t, "", maskSecret(""))
}
