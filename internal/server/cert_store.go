package server

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"sync"
	"time"

	"skillmatch/internal/config"
	"skillmatch/internal/errors"
	"skillmatch/internal/observability"
)

// CertStore holds the active server certificate and client CA pool. Reloads
// swap both at once; a failed reload keeps the previous material.
type CertStore struct {
	mu       sync.RWMutex
	cfg      config.TLSConfig
	cert     *tls.Certificate
	caPool   *x509.CertPool
	notAfter time.Time

	reloadCount   int64
	reloadFailure int64
	lastReload    time.Time
	lastError     string

	metrics *observability.Metrics
	logger  *errors.Logger
}

// NewCertStore loads the configured certificate material
func NewCertStore(cfg config.TLSConfig, metrics *observability.Metrics, logger *errors.Logger) (*CertStore, error) {
	cs := &CertStore{cfg: cfg, metrics: metrics, logger: logger}
	if err := cs.load(); err != nil {
		return nil, err
	}
	cs.metrics.RecordCertExpiry(context.Background(), cs.notAfter)
	return cs, nil
}

func (cs *CertStore) load() error {
	cert, err := loadServerCertificate(cs.cfg)
	if err != nil {
		return err
	}
	leaf, err := x509.ParseCertificate(cert.Certificate[0])
	if err != nil {
		return fmt.Errorf("failed to parse server certificate: %w", err)
	}

	var pool *x509.CertPool
	if cs.cfg.Mode == "mutual" {
		if pool, err = loadCACertPool(cs.cfg); err != nil {
			return err
		}
	}

	cs.mu.Lock()
	cs.cert = &cert
	cs.caPool = pool
	cs.notAfter = leaf.NotAfter
	cs.mu.Unlock()
	return nil
}

// Reload re-reads the certificate material from its source
func (cs *CertStore) Reload(ctx context.Context) error {
	err := cs.load()

	cs.mu.Lock()
	cs.reloadCount++
	cs.lastReload = time.Now()
	if err != nil {
		cs.reloadFailure++
		cs.lastError = err.Error()
	} else {
		cs.lastError = ""
	}
	notAfter := cs.notAfter
	cs.mu.Unlock()

	cs.metrics.RecordCertReload(ctx, err == nil)
	if err != nil {
		if cs.logger != nil {
			cs.logger.LogError(err, "Failed to reload TLS certificates, keeping previous certificates")
		}
		return err
	}

	cs.metrics.RecordCertExpiry(ctx, notAfter)
	if cs.logger != nil {
		cs.logger.Info("TLS certificates reloaded", "not_after", notAfter)
	}
	return nil
}

// GetCertificate serves the current certificate to TLS handshakes
func (cs *CertStore) GetCertificate(*tls.ClientHelloInfo) (*tls.Certificate, error) {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	if cs.cert == nil {
		return nil, fmt.Errorf("no server certificate loaded")
	}
	return cs.cert, nil
}

// CACertPool returns the current client CA pool, nil outside mutual mode
func (cs *CertStore) CACertPool() *x509.CertPool {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return cs.caPool
}

// TimeToExpiry returns how long the server certificate remains valid
func (cs *CertStore) TimeToExpiry() time.Duration {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return time.Until(cs.notAfter)
}

// Files returns the certificate files on disk, empty when material came from content
func (cs *CertStore) Files() []string {
	var files []string
	if cs.cfg.CertContent == "" || cs.cfg.KeyContent == "" {
		for _, file := range []string{cs.cfg.CertFile, cs.cfg.KeyFile} {
			if file != "" {
				files = append(files, file)
			}
		}
	}
	if cs.cfg.Mode == "mutual" && cs.cfg.CAContent == "" && cs.cfg.CAFile != "" {
		files = append(files, cs.cfg.CAFile)
	}
	return files
}

// Status returns reload bookkeeping for the health endpoint
func (cs *CertStore) Status() map[string]any {
	cs.mu.RLock()
	defer cs.mu.RUnlock()

	status := map[string]any{
		"not_after":      cs.notAfter,
		"reload_count":   cs.reloadCount,
		"reload_failure": cs.reloadFailure,
	}
	if !cs.lastReload.IsZero() {
		status["last_reload_time"] = cs.lastReload
	}
	if cs.lastError != "" {
		status["last_reload_error"] = cs.lastError
	}
	return status
}
