package server

import (
	"time"

	"skillmatch/internal/analyzer"
	"skillmatch/internal/config"
	"skillmatch/internal/errors"
	"skillmatch/internal/extract"
	"skillmatch/internal/observability"
	"skillmatch/internal/roles"
	"skillmatch/internal/storage"
)

// ErrorResponse represents an error response outside the analysis pipeline
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// Server holds configuration for the HTTP server
type Server struct {
	Host    string
	Port    string
	Version string

	// Full application configuration
	AppConfig *config.Config

	// TLS Configuration
	TLSConfig config.TLSConfig

	// API Authentication
	APIKeys map[string]bool

	// Timeout configurations
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	// Upload limits
	MaxFileSize    int64
	MaxRequestSize int64

	// Role used when an upload names none
	DefaultRole string

	// Spool directory for uploads
	UploadDir string

	// Rate limiting
	RateLimit   *config.RateLimitConfig
	RateLimiter *RateLimiter

	// Analysis pipeline
	Analyzer *analyzer.Service
	Roles    *roles.Table
	Source   *storage.Source

	certStore *CertStore
	metrics   *observability.Metrics

	// Logger
	Logger *errors.Logger
}

// ServerConfig holds configuration for creating a Server instance
type ServerConfig struct {
	Host         string
	Port         string
	Version      string
	TLSConfig    config.TLSConfig
	APIKeys      []string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	MaxFileSize  int64
	UploadDir    string
	DefaultRole  string
	RateLimit    *config.RateLimitConfig
	Roles        *roles.Table
	Source       *storage.Source
}

// multipartOverhead is the room left above the file limit for form fields and part headers
const multipartOverhead = 1 << 20

// NewServer creates a new Server instance from a ServerConfig struct
func NewServer(appCfg *config.Config, cfg ServerConfig, logger *errors.Logger) *Server {
	apiKeyMap := make(map[string]bool)
	for _, key := range cfg.APIKeys {
		if key != "" {
			apiKeyMap[key] = true
		}
	}

	var rateLimiter *RateLimiter
	if cfg.RateLimit != nil && cfg.RateLimit.Enabled {
		rateLimiter = NewRateLimiter(
			cfg.RateLimit.RequestsPerMin,
			cfg.RateLimit.Window,
			cfg.RateLimit.BurstCapacity,
			logger,
		)
	}

	var maxRequestSize int64
	if cfg.MaxFileSize > 0 {
		maxRequestSize = cfg.MaxFileSize + multipartOverhead
	}

	defaultRole := cfg.DefaultRole
	if defaultRole == "" {
		defaultRole = "full_stack"
	}

	s := &Server{
		Host:           cfg.Host,
		Port:           cfg.Port,
		Version:        cfg.Version,
		AppConfig:      appCfg,
		TLSConfig:      cfg.TLSConfig,
		APIKeys:        apiKeyMap,
		ReadTimeout:    cfg.ReadTimeout,
		WriteTimeout:   cfg.WriteTimeout,
		IdleTimeout:    cfg.IdleTimeout,
		MaxFileSize:    cfg.MaxFileSize,
		MaxRequestSize: maxRequestSize,
		DefaultRole:    defaultRole,
		UploadDir:      cfg.UploadDir,
		RateLimit:      cfg.RateLimit,
		RateLimiter:    rateLimiter,
		Roles:          cfg.Roles,
		Source:         cfg.Source,
		Logger:         logger,
	}
	s.Analyzer = s.buildAnalyzer(nil)
	return s
}

// buildAnalyzer wires the analysis pipeline; metrics may be nil
func (s *Server) buildAnalyzer(metrics *observability.Metrics) *analyzer.Service {
	opts := []analyzer.Option{analyzer.WithMetrics(metrics)}
	if s.UploadDir != "" {
		opts = append(opts, analyzer.WithUploadDir(s.UploadDir))
	}
	if s.Source != nil {
		opts = append(opts, analyzer.WithSource(s.Source))
	}
	return analyzer.NewService(extract.New(s.Logger), s.Roles, s.Logger, opts...)
}
