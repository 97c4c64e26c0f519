package server

import (
	"fmt"
	"net/http"

	"skillmatch/internal/utils"
)

// displayServerInfo logs the effective server configuration at startup
func (s *Server) displayServerInfo(httpServer *http.Server) {
	scheme := "http"
	if httpServer.TLSConfig != nil {
		scheme = "https"
	}

	s.Logger.Info("Server configuration",
		"url", fmt.Sprintf("%s://%s", scheme, httpServer.Addr),
		"tls_mode", s.tlsMode(),
		"endpoints", []string{
			"GET  /health",
			"GET  /stats",
			"GET  /api/resume/roles",
			"POST /api/resume/analyze",
		},
		"default_role", s.DefaultRole,
		"upload_limit", utils.FormatFileSize(s.MaxFileSize))

	s.displayAuthInfo()
	s.displayRateLimitInfo()
}

func (s *Server) tlsMode() string {
	if s.TLSConfig.Mode == "" {
		return "disabled"
	}
	return s.TLSConfig.Mode
}

// displayAuthInfo logs authentication configuration
func (s *Server) displayAuthInfo() {
	if len(s.APIKeys) > 0 {
		s.Logger.Info("API authentication enabled",
			"keys", len(s.APIKeys),
			"header", "X-API-Key")
		return
	}
	s.Logger.Warn("API authentication disabled, analyze endpoint is publicly accessible")
}

// displayRateLimitInfo logs rate limiting configuration
func (s *Server) displayRateLimitInfo() {
	if s.RateLimit == nil || !s.RateLimit.Enabled {
		s.Logger.Warn("Rate limiting disabled")
		return
	}
	s.Logger.Info("Rate limiting enabled",
		"requests_per_min", s.RateLimit.RequestsPerMin,
		"burst", s.RateLimit.BurstCapacity,
		"by_api_key", s.RateLimit.ByAPIKey,
		"by_ip", s.RateLimit.ByIP)
}
