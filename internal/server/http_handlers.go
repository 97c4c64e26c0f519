package server

import (
	"net/http"
	"time"
)

const (
	certCriticalThreshold = 24 * time.Hour
	certWarningThreshold  = 7 * 24 * time.Hour
)

// healthHandler reports service health including storage and certificate status
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	response := map[string]any{
		"status":  "healthy",
		"service": "skillmatch",
		"version": s.Version,
		"roles":   len(s.Analyzer.Roles().Roles),
	}
	healthy := true

	storageStatus := s.checkStorageHealth()
	response["storage"] = storageStatus
	if ok, _ := storageStatus["healthy"].(bool); !ok {
		healthy = false
	}

	if certStatus := s.checkCertificateHealth(); certStatus != nil {
		response["certificates"] = certStatus
		if ok, _ := certStatus["healthy"].(bool); !ok {
			healthy = false
		}
	}

	status := http.StatusOK
	if !healthy {
		response["status"] = "degraded"
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, response)
}

// checkStorageHealth reports the document source breaker state
func (s *Server) checkStorageHealth() map[string]any {
	if s.Source == nil {
		return map[string]any{"healthy": true, "s3_enabled": false}
	}
	status := s.Source.Stats()
	status["healthy"] = s.Source.Healthy()
	return status
}

// checkCertificateHealth checks the health of TLS certificates
func (s *Server) checkCertificateHealth() map[string]any {
	if s.certStore == nil {
		return nil
	}

	certStatus := s.certStore.Status()
	timeToExpiry := s.certStore.TimeToExpiry()
	certStatus["time_to_expiry_hours"] = int(timeToExpiry.Hours())
	certStatus["time_to_expiry"] = timeToExpiry.Round(time.Second).String()

	switch {
	case timeToExpiry <= 0:
		certStatus["healthy"] = false
		certStatus["status"] = "expired"
		certStatus["message"] = "Certificate has expired"
	case timeToExpiry <= certCriticalThreshold:
		certStatus["healthy"] = false
		certStatus["status"] = "critical"
		certStatus["message"] = "Certificate expires within 24 hours"
	case timeToExpiry <= certWarningThreshold:
		certStatus["healthy"] = true
		certStatus["status"] = "warning"
		certStatus["message"] = "Certificate expires within 7 days"
	default:
		certStatus["healthy"] = true
		certStatus["status"] = "ok"
		certStatus["message"] = "Certificate is valid"
	}

	certStatus["auto_reload"] = map[string]any{
		"enabled":       s.TLSConfig.AutoReload.Enabled,
		"watched_files": s.certStore.Files(),
	}
	return certStatus
}

// statsHandler provides server statistics including rate limiting info
func (s *Server) statsHandler(w http.ResponseWriter, r *http.Request) {
	response := map[string]any{
		"service": "skillmatch",
		"version": s.Version,
		"server": map[string]any{
			"max_file_size_bytes":    s.MaxFileSize,
			"max_request_size_bytes": s.MaxRequestSize,
			"default_role":           s.DefaultRole,
		},
		"storage": s.checkStorageHealth(),
	}

	if s.RateLimiter != nil {
		response["rate_limiting"] = s.RateLimiter.GetStats()
	} else {
		response["rate_limiting"] = map[string]any{
			"enabled": false,
		}
	}

	if s.RateLimit != nil {
		response["rate_limit_config"] = map[string]any{
			"enabled":          s.RateLimit.Enabled,
			"requests_per_min": s.RateLimit.RequestsPerMin,
			"burst_capacity":   s.RateLimit.BurstCapacity,
			"by_ip":            s.RateLimit.ByIP,
			"by_api_key":       s.RateLimit.ByAPIKey,
		}
	}

	writeJSON(w, http.StatusOK, response)
}

// writeErrorResponse writes a standardized error response
func writeErrorResponse(w http.ResponseWriter, error, message string, statusCode int) {
	writeJSON(w, statusCode, ErrorResponse{
		Error:   error,
		Message: message,
	})
}
