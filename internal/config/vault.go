package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"skillmatch/internal/errors"

	"github.com/hashicorp/vault/api"
)

// VaultConfig holds Vault connection configuration
type VaultConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Address   string `mapstructure:"address" validate:"required_if=Enabled true"`
	Token     string `mapstructure:"token"`
	TokenFile string `mapstructure:"tokenFile"`
	Namespace string `mapstructure:"namespace"`

	Secrets VaultSecrets `mapstructure:"secrets"`
}

// VaultSecrets defines where to find secrets in Vault (KVv2 read paths)
type VaultSecrets struct {
	// APIKeys holds a "keys" field with comma-separated values, e.g. "key1,key2"
	APIKeys string `mapstructure:"apiKeys"`
	// StorageCredentials holds "access_key_id" and "secret_access_key" for the S3 source
	StorageCredentials string `mapstructure:"storageCredentials"`
	// TLSCerts holds PEM content in "cert", "key" and "ca"
	TLSCerts string `mapstructure:"tlsCerts"`
}

// VaultClient reads KVv2 secrets
type VaultClient struct {
	client *api.Client
	logger *errors.Logger
}

// VaultSecret represents a secret read from Vault's KVv2 engine
type VaultSecret struct {
	Data    map[string]any
	Version int64
}

// NewVaultClient connects to Vault and checks its health endpoint.
// It returns nil without error when Vault is disabled.
func NewVaultClient(config VaultConfig, logger *errors.Logger) (*VaultClient, error) {
	if !config.Enabled {
		return nil, nil
	}

	token, err := resolveVaultToken(config, logger)
	if err != nil {
		return nil, err
	}

	apiConfig := api.DefaultConfig()
	if config.Address != "" {
		apiConfig.Address = config.Address
	}
	client, err := api.NewClient(apiConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create vault client: %w", err)
	}
	if config.Namespace != "" {
		client.SetNamespace(config.Namespace)
	}
	client.SetToken(token)

	health, err := client.Sys().Health()
	if err != nil {
		if logger != nil {
			logger.LogError(err, "Failed to connect to Vault", "address", config.Address)
		}
		return nil, fmt.Errorf("failed to connect to vault: %w", err)
	}
	if logger != nil {
		logger.Info("Connected to Vault",
			"address", config.Address,
			"namespace", config.Namespace,
			"version", health.Version,
			"sealed", health.Sealed)
	}

	return &VaultClient{client: client, logger: logger}, nil
}

// resolveVaultToken prefers the configured token over the token file
func resolveVaultToken(config VaultConfig, logger *errors.Logger) (string, error) {
	if config.Token != "" {
		return config.Token, nil
	}
	if config.TokenFile == "" {
		return "", fmt.Errorf("vault token is required when vault is enabled")
	}

	data, err := os.ReadFile(config.TokenFile)
	if err != nil {
		if logger != nil {
			logger.LogError(err, "Failed to read Vault token file", "file", config.TokenFile)
		}
		return "", fmt.Errorf("failed to read vault token file: %w", err)
	}
	token := strings.TrimSpace(string(data))
	if token == "" {
		return "", fmt.Errorf("vault token is required when vault is enabled")
	}
	return token, nil
}

// GetSecretV2 reads the secret at a KVv2 data path
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

	data, ok := secret.Data["data"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("secret at %s is not in KVv2 format (missing 'data' field)", path)
	}
	metadata, ok := secret.Data["metadata"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("secret at %s is not in KVv2 format (missing 'metadata' field)", path)
	}
	version, err := parseVersionValue(metadata["version"], path)
	if err != nil {
		return nil, err
	}

	return &VaultSecret{Data: data, Version: version}, nil
}

// GetStringSecret reads one string field of the secret at path
func (vc *VaultClient) GetStringSecret(path, key string) (string, error) {
	secret, err := vc.GetSecretV2(path)
	if err != nil {
		return "", err
	}
	return stringField(secret, path, key)
}

// parseVersionValue accepts the number types the Vault client may decode,
// json.Number in practice, and numeric strings
func parseVersionValue(raw any, path string) (int64, error) {
	var (
		version int64
		err     error
	)
	switch v := raw.(type) {
	case json.Number:
		version, err = v.Int64()
	case int64:
		version = v
	case int:
		version = int64(v)
	case float64:
		version = int64(v)
	case string:
		version, err = strconv.ParseInt(v, 10, 64)
	case nil:
		return 0, fmt.Errorf("secret metadata at %s is missing 'version' field", path)
	default:
		return 0, fmt.Errorf("unexpected type for version at %s: %T", path, raw)
	}
	if err != nil {
		return 0, fmt.Errorf("could not parse secret version at %s: %w", path, err)
	}
	return version, nil
}

func stringField(secret *VaultSecret, path, key string) (string, error) {
	value, ok := secret.Data[key]
	if !ok {
		return "", fmt.Errorf("key '%s' not found in secret %s", key, path)
	}
	str, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("value for key '%s' is not a string in secret %s", key, path)
	}
	return str, nil
}

// maskSecret keeps the first and last four characters of long values
func maskSecret(value string) string {
	switch {
	case len(value) > 8:
		return value[:4] + "****" + value[len(value)-4:]
	case len(value) > 0:
		return "****"
	default:
		return ""
	}
}

// secretBinding applies one Vault secret onto the configuration
type secretBinding struct {
	name  string
	path  func(*Config) string
	apply func(cfg *Config, secret *VaultSecret, path string, logger *errors.Logger) error
}

var secretBindings = []secretBinding{
	{
		name:  "API keys",
		path:  func(c *Config) string { return c.Vault.Secrets.APIKeys },
		apply: applyAPIKeys,
	},
	{
		name:  "storage credentials",
		path:  func(c *Config) string { return c.Vault.Secrets.StorageCredentials },
		apply: applyStorageCredentials,
	},
	{
		name:  "TLS certificates",
		path:  func(c *Config) string { return c.Vault.Secrets.TLSCerts },
		apply: applyTLSCerts,
	},
}

// ApplyVaultSecrets overlays the configured Vault secrets onto config
func ApplyVaultSecrets(config *Config, logger *errors.Logger) error {
	if !config.Vault.Enabled {
		if logger != nil {
			logger.Debug("Vault integration disabled, skipping secret loading")
		}
		return nil
	}

	client, err := NewVaultClient(config.Vault, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize vault client: %w", err)
	}

	for _, binding := range secretBindings {
		path := binding.path(config)
		if path == "" {
			continue
		}
		secret, err := client.GetSecretV2(path)
		if err != nil {
			return fmt.Errorf("failed to load %s from vault: %w", binding.name, err)
		}
		if err := binding.apply(config, secret, path, logger); err != nil {
			return err
		}
	}
	return nil
}

// applyAPIKeys replaces the server API keys with the Vault list
func applyAPIKeys(config *Config, secret *VaultSecret, path string, logger *errors.Logger) error {
	value, err := stringField(secret, path, "keys")
	if err != nil {
		return fmt.Errorf("failed to load API keys from vault: %w", err)
	}

	keys := splitAndTrim(value)
	if len(keys) == 0 {
		if logger != nil {
			logger.Warn("No API keys found in Vault", "path", path)
		}
		return nil
	}

	config.Server.APIKeys = keys
	if logger != nil {
		logger.Info("API keys loaded from Vault", "count", len(keys), "version", secret.Version)
	}
	return nil
}

// applyStorageCredentials sets the S3 access key pair; both fields are required
func applyStorageCredentials(config *Config, secret *VaultSecret, path string, logger *errors.Logger) error {
	accessKeyID, err := stringField(secret, path, "access_key_id")
	if err != nil {
		return fmt.Errorf("failed to load storage credentials from vault: %w", err)
	}
	secretAccessKey, err := stringField(secret, path, "secret_access_key")
	if err != nil {
		return fmt.Errorf("failed to load storage credentials from vault: %w", err)
	}

	config.Storage.S3.AccessKeyID = accessKeyID
	config.Storage.S3.SecretAccessKey = secretAccessKey
	if logger != nil {
		logger.Info("Storage credentials loaded from Vault",
			"access_key_id", maskSecret(accessKeyID),
			"version", secret.Version)
	}
	return nil
}

func applyTLSCerts(config *Config, secret *VaultSecret, _ string, logger *errors.Logger) error {
	count := loadTLSCertificateContent(config, secret)
	if logger != nil {
		logger.Info("TLS certificates loaded from Vault", "certificates_loaded", count, "version", secret.Version)
	}
	return nil
}

// loadTLSCertificateContent copies cert, key and ca content into the TLS
// config. Content from Vault replaces the matching file path.
func loadTLSCertificateContent(config *Config, secret *VaultSecret) int {
	tls := &config.Server.TLS
	fields := []struct {
		key     string
		content *string
		file    *string
	}{
		{"cert", &tls.CertContent, &tls.CertFile},
		{"key", &tls.KeyContent, &tls.KeyFile},
		{"ca", &tls.CAContent, &tls.CAFile},
	}

	count := 0
	for _, f := range fields {
		content, ok := secret.Data[f.key].(string)
		if !ok || content == "" {
			continue
		}
		*f.content = content
		*f.file = ""
		count++
	}
	return count
}
