package config

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"skillmatch/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockLogger() *errors.Logger {
	logger, _ := errors.New("debug")
	return logger
}

// newFakeVault serves KVv2 reads for the given paths plus the health endpoint
func newFakeVault(t *testing.T, secrets map[string]map[string]any) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
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
		data, ok := secrets[strings.TrimPrefix(r.URL.Path, "/v1/")]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"errors":[]}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]any{
				"data":     data,
				"metadata": map[string]any{"version": 4},
			},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestParseVersionValue(t *testing.T) {
	tests := []struct {
		name        string
		input       any
		expected    int64
		expectError bool
	}{
		{name: "json number", input: json.Number("7"), expected: 7},
		{name: "int64 value", input: int64(42), expected: 42},
		{name: "int value", input: 42, expected: 42},
		{name: "float64 value", input: float64(42.0), expected: 42},
		{name: "string value", input: "42", expected: 42},
		{name: "invalid string value", input: "not-a-number", expectError: true},
		{name: "invalid json number", input: json.Number("1.5"), expectError: true},
		{name: "unsupported type", input: []string{"42"}, expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := parseVersionValue(tt.input, "test/path")

			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.expected, result)
			}
		})
	}
}

func TestResolveVaultToken(t *testing.T) {
	logger := newMockLogger()

	t.Run("token from config", func(t *testing.T) {
		token, err := resolveVaultToken(VaultConfig{Token: "direct"}, logger)
		require.NoError(t, err)
		assert.Equal(t, "direct", token)
	})

	t.Run("token from file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "token")
		require.NoError(t, os.WriteFile(path, []byte("  from-file\n"), 0600))

		token, err := resolveVaultToken(VaultConfig{TokenFile: path}, logger)
		require.NoError(t, err)
		assert.Equal(t, "from-file", token)
	})

	t.Run("missing token file", func(t *testing.T) {
		_, err := resolveVaultToken(VaultConfig{TokenFile: "/nonexistent/token"}, logger)
		assert.Error(t, err)
	})

	t.Run("no token provided", func(t *testing.T) {
		_, err := resolveVaultToken(VaultConfig{}, logger)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "vault token is required")
	})
}

func TestLoadTLSCertificateContent(t *testing.T) {
	cfg := &Config{Server: ServerConfig{TLS: TLSConfig{
		CertFile: "/etc/cert.pem",
		KeyFile:  "/etc/key.pem",
		CAFile:   "/etc/ca.pem",
	}}}
	secret := &VaultSecret{Data: map[string]any{
		"cert": "CERT",
		"key":  "KEY",
		"ca":   "",
	}}

	count := loadTLSCertificateContent(cfg, secret)

	assert.Equal(t, 2, count)
	assert.Equal(t, "CERT", cfg.Server.TLS.CertContent)
	assert.Equal(t, "KEY", cfg.Server.TLS.KeyContent)
	assert.Empty(t, cfg.Server.TLS.CertFile)
	assert.Empty(t, cfg.Server.TLS.KeyFile)
	assert.Equal(t, "/etc/ca.pem", cfg.Server.TLS.CAFile, "empty vault field keeps the file")
}

func TestApplyStorageCredentials(t *testing.T) {
	t.Run("both fields", func(t *testing.T) {
		cfg := &Config{}
		secret := &VaultSecret{Data: map[string]any{
			"access_key_id":     "AKIAEXAMPLE",
			"secret_access_key": "s3cr3t",
		}, Version: 2}

		require.NoError(t, applyStorageCredentials(cfg, secret, "secret/data/s3", newMockLogger()))
		assert.Equal(t, "AKIAEXAMPLE", cfg.Storage.S3.AccessKeyID)
		assert.Equal(t, "s3cr3t", cfg.Storage.S3.SecretAccessKey)
	})

	t.Run("missing secret key", func(t *testing.T) {
		cfg := &Config{}
		secret := &VaultSecret{Data: map[string]any{"access_key_id": "AKIAEXAMPLE"}}

		err := applyStorageCredentials(cfg, secret, "secret/data/s3", nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "secret_access_key")
		assert.Empty(t, cfg.Storage.S3.AccessKeyID)
	})
}

func TestMaskSecret(t *testing.T) {
	assert.Equal(t, "AKIA****MPLE", maskSecret("AKIAXXXXMPLE"))
	assert.Equal(t, "****", maskSecret("short"))
	assert.Equal(t, "", maskSecret(""))
}

func TestApplyVaultSecretsDisabled(t *testing.T) {
	cfg := &Config{Server: ServerConfig{APIKeys: []string{"local"}}}

	require.NoError(t, ApplyVaultSecrets(cfg, newMockLogger()))
	assert.Equal(t, []string{"local"}, cfg.Server.APIKeys)
}

func TestApplyVaultSecrets(t *testing.T) {
	srv := newFakeVault(t, map[string]map[string]any{
		"secret/data/skillmatch/api": {"keys": "k1, k2 ,k3"},
		"secret/data/skillmatch/s3": {
			"access_key_id":     "AKIAEXAMPLE",
			"secret_access_key": "s3cr3t",
		},
		"secret/data/skillmatch/tls": {"cert": "CERT", "key": "KEY"},
	})

	cfg := &Config{
		Vault: VaultConfig{
			Enabled: true,
			Address: srv.URL,
			Token:   "test-token",
			Secrets: VaultSecrets{
				APIKeys:            "secret/data/skillmatch/api",
				StorageCredentials: "secret/data/skillmatch/s3",
				TLSCerts:           "secret/data/skillmatch/tls",
			},
		},
	}

	require.NoError(t, ApplyVaultSecrets(cfg, newMockLogger()))
	assert.Equal(t, []string{"k1", "k2", "k3"}, cfg.Server.APIKeys)
	assert.Equal(t, "AKIAEXAMPLE", cfg.Storage.S3.AccessKeyID)
	assert.Equal(t, "s3cr3t", cfg.Storage.S3.SecretAccessKey)
	assert.Equal(t, "CERT", cfg.Server.TLS.CertContent)
	assert.Equal(t, "KEY", cfg.Server.TLS.KeyContent)
}

func TestGetSecretV2(t *testing.T) {
	srv := newFakeVault(t, map[string]map[string]any{
		"secret/data/app": {"name": "skillmatch"},
	})

	client, err := NewVaultClient(VaultConfig{Enabled: true, Address: srv.URL, Token: "test-token"}, newMockLogger())
	require.NoError(t, err)

	secret, err := client.GetSecretV2("secret/data/app")
	require.NoError(t, err)
	assert.Equal(t, int64(4), secret.Version)
	assert.Equal(t, "skillmatch", secret.Data["name"])

	value, err := client.GetStringSecret("secret/data/app", "name")
	require.NoError(t, err)
	assert.Equal(t, "skillmatch", value)

	_, err = client.GetStringSecret("secret/data/app", "missing")
	assert.Error(t, err)

	_, err = client.GetSecretV2("secret/data/absent")
	assert.Error(t, err)
}

func TestNilVaultClient(t *testing.T) {
	var client *VaultClient
	_, err := client.GetSecretV2("secret/data/app")
	assert.Error(t, err)

	disabled, err := NewVaultClient(VaultConfig{Enabled: false}, nil)
	assert.NoError(t, err)
	assert.Nil(t, disabled)
}
