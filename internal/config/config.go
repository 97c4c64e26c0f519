package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config holds the application configuration
type Config struct {
	App           AppConfig           `mapstructure:"app"`
	Server        ServerConfig        `mapstructure:"server"`
	Storage       StorageConfig       `mapstructure:"storage"`
	Vault         VaultConfig         `mapstructure:"vault"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

// AppConfig holds settings shared by the CLI and the server
type AppConfig struct {
	LogLevel         string   `mapstructure:"logLevel" validate:"oneof=debug info warn error"`
	DefaultFormat    string   `mapstructure:"defaultFormat" validate:"required"`
	SupportedFormats []string `mapstructure:"supportedFormats" validate:"required,min=1"`
	MaxFileSize      int64    `mapstructure:"maxFileSize" validate:"gt=0"`
	UploadDir        string   `mapstructure:"uploadDir" validate:"required"`   // Spool directory for uploaded resumes
	DefaultRole      string   `mapstructure:"defaultRole" validate:"required"` // Role used when a request names none
	RolesFile        string   `mapstructure:"rolesFile"`                       // Optional JSON role table merged over the built-ins
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         string        `mapstructure:"port" validate:"required"`
	ReadTimeout  time.Duration `mapstructure:"readTimeout"`
	WriteTimeout time.Duration `mapstructure:"writeTimeout"`
	IdleTimeout  time.Duration `mapstructure:"idleTimeout"`

	TLS TLSConfig `mapstructure:"tls"`

	APIKeys []string `mapstructure:"apiKeys"` // Valid API keys for authentication

	RateLimit RateLimitConfig `mapstructure:"rateLimit"`
}

// TLSConfig holds TLS configuration for server and client modes
type TLSConfig struct {
	Mode     string `mapstructure:"mode"`     // TLS mode: "disabled", "server", "mutual"
	CertFile string `mapstructure:"certFile"` // Server certificate file (PEM)
	KeyFile  string `mapstructure:"keyFile"`  // Server private key file (PEM)
	CAFile   string `mapstructure:"caFile"`   // CA certificate for client verification (PEM, mutual mode)

	// Certificate content, typically supplied from Vault
	CertContent string `mapstructure:"certContent"`
	KeyContent  string `mapstructure:"keyContent"`
	CAContent   string `mapstructure:"caContent"`

	MinVersion       string   `mapstructure:"minVersion"`       // "1.2" or "1.3"
	CipherSuites     []string `mapstructure:"cipherSuites"`     // Allowed cipher suites (optional)
	ClientAuthPolicy string   `mapstructure:"clientAuthPolicy"` // "require", "request", "verify"

	AutoReload AutoReloadConfig `mapstructure:"autoReload"`
}

// AutoReloadConfig controls certificate hot reload from disk
type AutoReloadConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	DebounceDelay time.Duration `mapstructure:"debounceDelay"` // Debounce delay for file change events
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	RequestsPerMin int           `mapstructure:"requestsPerMin" validate:"gte=0"`
	BurstCapacity  int           `mapstructure:"burstCapacity" validate:"gte=0"`
	ByIP           bool          `mapstructure:"byIP"`     // Per-IP limiting
	ByAPIKey       bool          `mapstructure:"byAPIKey"` // Per-API-key limiting
	Window         time.Duration `mapstructure:"window"`
}

// StorageConfig holds remote document source configuration
type StorageConfig struct {
	S3 S3Config `mapstructure:"s3"`
}

// S3Config configures the s3:// document source. Endpoint and path-style
// addressing allow S3-compatible stores such as MinIO or R2.
type S3Config struct {
	Enabled         bool                 `mapstructure:"enabled"`
	Region          string               `mapstructure:"region" validate:"required_if=Enabled true"`
	Endpoint        string               `mapstructure:"endpoint" validate:"omitempty,url"`
	AccessKeyID     string               `mapstructure:"accessKeyId"`
	SecretAccessKey string               `mapstructure:"secretAccessKey"`
	UsePathStyle    bool                 `mapstructure:"usePathStyle"`
	Timeout         time.Duration        `mapstructure:"timeout"`
	Retries         int                  `mapstructure:"retries" validate:"gte=1,lte=10"`
	CircuitBreaker  CircuitBreakerConfig `mapstructure:"circuitBreaker"`
}

// CircuitBreakerConfig holds circuit breaker configuration
type CircuitBreakerConfig struct {
	Enabled          bool          `mapstructure:"enabled"`
	MaxRequests      uint32        `mapstructure:"maxRequests"`                             // Max requests allowed when half-open
	Interval         time.Duration `mapstructure:"interval"`                                // Interval to clear counts
	Timeout          time.Duration `mapstructure:"timeout"`                                 // Open state duration before half-open
	MinRequests      uint32        `mapstructure:"minRequests"`                             // Minimum requests before tripping
	FailureThreshold float64       `mapstructure:"failureThreshold" validate:"gte=0,lte=1"` // Failure ratio threshold
}

// ObservabilityConfig holds OpenTelemetry configuration
type ObservabilityConfig struct {
	Enabled         bool                `mapstructure:"enabled"`
	ServiceName     string              `mapstructure:"serviceName"`
	ServiceVersion  string              `mapstructure:"serviceVersion"`
	ServiceInstance string              `mapstructure:"serviceInstance"`
	ConsoleOutput   bool                `mapstructure:"consoleOutput"`
	Tracing         TracingConfig       `mapstructure:"tracing"`
	Metrics         MetricsConfig       `mapstructure:"metrics"`
	CustomMetrics   CustomMetricsConfig `mapstructure:"customMetrics"`
	Console         ConsoleConfig       `mapstructure:"console"`
	Prometheus      PrometheusConfig    `mapstructure:"prometheus"`
	OTLP            OTLPConfig          `mapstructure:"otlp"`
}

// TracingConfig holds tracing configuration
type TracingConfig struct {
	Enabled    bool    `mapstructure:"enabled"`
	SampleRate float64 `mapstructure:"sampleRate" validate:"gte=0,lte=1"`
}

// MetricsConfig holds metrics configuration
type MetricsConfig struct {
	Enabled            bool          `mapstructure:"enabled"`
	CollectionInterval time.Duration `mapstructure:"collectionInterval"`
}

// ConsoleConfig holds console exporter configuration
type ConsoleConfig struct {
	Enabled     bool `mapstructure:"enabled"`
	PrettyPrint bool `mapstructure:"prettyPrint"`
}

// CustomMetricsConfig selects which application metrics are recorded
type CustomMetricsConfig struct {
	Analysis       AnalysisMetricsConfig       `mapstructure:"analysis"`
	Infrastructure InfrastructureMetricsConfig `mapstructure:"infrastructure"`
}

// AnalysisMetricsConfig holds resume analysis metrics configuration
type AnalysisMetricsConfig struct {
	Enabled            bool `mapstructure:"enabled"`
	TrackScores        bool `mapstructure:"trackScores"`
	TrackDocumentSizes bool `mapstructure:"trackDocumentSizes"`
}

// InfrastructureMetricsConfig holds infrastructure metrics configuration
type InfrastructureMetricsConfig struct {
	Enabled         bool `mapstructure:"enabled"`
	TrackRateLimits bool `mapstructure:"trackRateLimits"`
	TrackStorage    bool `mapstructure:"trackStorage"`
}

// PrometheusConfig holds Prometheus exporter configuration
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

// Binder attaches extra value sources, such as command line flags, to the
// viper instance before configuration is read
type Binder func(v *viper.Viper) error

// LoadConfig loads configuration from environment variables and a config file
// found on the search path
func LoadConfig(binders ...Binder) (*Config, error) {
	return Load("", binders...)
}

// LoadConfigFile loads configuration from an explicit file path
func LoadConfigFile(path string) (*Config, error) {
	return Load(path)
}

// Load reads configuration from path, or from the search path when path is
// empty. Precedence: bound flags, environment, config file, defaults.
func Load(path string, binders ...Binder) (*Config, error) {
	log.Println("[CONFIG] Starting configuration loading process")

	v := viper.New()

	setDefaults(v)
	log.Println("[CONFIG] Applied default configuration values")

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	log.Printf("[CONFIG] Configured environment variable handling with prefix '%s'", envPrefix)

	for _, bind := range binders {
		if err := bind(v); err != nil {
			return nil, fmt.Errorf("failed to bind configuration source: %w", err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		log.Printf("[CONFIG] Successfully loaded config file: %s", path)
		return finishLoading(v, path)
	}

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("/etc/skillmatch/")
	v.AddConfigPath("$HOME/.skillmatch")
	v.AddConfigPath(".")
	log.Println("[CONFIG] Configured config file search paths: /etc/skillmatch/, $HOME/.skillmatch, .")

	configFileUsed := ""
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		log.Println("[CONFIG] No config file found, using defaults and environment variables")
	} else {
		configFileUsed = v.ConfigFileUsed()
		log.Printf("[CONFIG] Successfully loaded config file: %s", configFileUsed)
	}

	return finishLoading(v, configFileUsed)
}

func finishLoading(v *viper.Viper, configFileUsed string) (*Config, error) {
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	log.Println("[CONFIG] Successfully unmarshaled configuration")

	config.applyFallbacks()
	log.Println("[CONFIG] Applied configuration fallbacks and environment variable overrides")

	config.logConfigurationSources(configFileUsed)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	log.Println("[CONFIG] Configuration loading completed successfully")
	return &config, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		if ves, ok := err.(validator.ValidationErrors); ok && len(ves) > 0 {
			ve := ves[0]
			return fmt.Errorf("invalid value for %s: failed '%s' check", ve.Namespace(), ve.Tag())
		}
		return err
	}

	if !c.IsSupportedFormat(c.App.DefaultFormat) {
		return fmt.Errorf("invalid default format: %s", c.App.DefaultFormat)
	}

	if err := c.ValidateTLSConfig(); err != nil {
		return fmt.Errorf("TLS configuration error: %w", err)
	}

	return nil
}

// IsSupportedFormat reports whether format is one of app.supportedFormats
func (c *Config) IsSupportedFormat(format string) bool {
	for _, f := range c.App.SupportedFormats {
		if f == format {
			return true
		}
	}
	return false
}
