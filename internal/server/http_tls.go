package server

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"

	"skillmatch/internal/config"
)

// buildTLSConfig creates the TLS configuration. Certificates are served from
// the store so reloads apply to new handshakes without a restart.
func (s *Server) buildTLSConfig(store *CertStore) (*tls.Config, error) {
	if store == nil {
		return nil, fmt.Errorf("certificate store is required for TLS mode %q", s.TLSConfig.Mode)
	}

	tlsConfig := &tls.Config{
		MinVersion:     tlsMinVersion(s.TLSConfig.MinVersion),
		CipherSuites:   cipherSuites(s.TLSConfig.CipherSuites),
		GetCertificate: store.GetCertificate,
		ClientAuth:     tls.NoClientCert,
	}

	if s.TLSConfig.Mode != "mutual" {
		return tlsConfig, nil
	}

	pool := store.CACertPool()
	if pool == nil {
		return nil, fmt.Errorf("CA certificate is required for mutual TLS mode (provide either caFile or caContent)")
	}
	tlsConfig.ClientAuth = clientAuthPolicy(s.TLSConfig.ClientAuthPolicy)
	tlsConfig.ClientCAs = pool

	// Pick up a rotated CA pool per handshake
	base := tlsConfig.Clone()
	tlsConfig.GetConfigForClient = func(*tls.ClientHelloInfo) (*tls.Config, error) {
		perConn := base.Clone()
		perConn.ClientCAs = store.CACertPool()
		return perConn, nil
	}

	return tlsConfig, nil
}

// loadServerCertificate loads the server certificate from content or files
func loadServerCertificate(cfg config.TLSConfig) (tls.Certificate, error) {
	if cfg.CertContent != "" && cfg.KeyContent != "" {
		cert, err := tls.X509KeyPair([]byte(cfg.CertContent), []byte(cfg.KeyContent))
		if err != nil {
			return tls.Certificate{}, fmt.Errorf("failed to load server cert/key from content: %w", err)
		}
		return cert, nil
	}

	if cfg.CertFile != "" && cfg.KeyFile != "" {
		cert, err := tls.LoadX509KeyPair(cfg.CertFile, cfg.KeyFile)
		if err != nil {
			return tls.Certificate{}, fmt.Errorf("failed to load server cert/key from files: %w", err)
		}
		return cert, nil
	}

	return tls.Certificate{}, fmt.Errorf("TLS certificate and key are required (provide either files or content)")
}

// loadCACertPool loads the client CA pool, or nil when no CA is configured
func loadCACertPool(cfg config.TLSConfig) (*x509.CertPool, error) {
	var caCert []byte
	switch {
	case cfg.CAContent != "":
		caCert = []byte(cfg.CAContent)
	case cfg.CAFile != "":
		data, err := os.ReadFile(cfg.CAFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read CA file: %w", err)
		}
		caCert = data
	default:
		return nil, nil
	}

	pool := x509.NewCertPool()
	if ok := pool.AppendCertsFromPEM(caCert); !ok {
		return nil, fmt.Errorf("failed to append CA cert")
	}
	return pool, nil
}

// tlsMinVersion maps the configured minimum version, defaulting to TLS 1.2
func tlsMinVersion(version string) uint16 {
	if version == "1.3" {
		return tls.VersionTLS13
	}
	return tls.VersionTLS12
}

// cipherSuites resolves configured suite names; unknown names are skipped
func cipherSuites(names []string) []uint16 {
	if len(names) == 0 {
		return nil
	}

	known := make(map[string]uint16)
	for _, suite := range tls.CipherSuites() {
		known[suite.Name] = suite.ID
	}

	ids := make([]uint16, 0, len(names))
	for _, name := range names {
		if id, ok := known[name]; ok {
			ids = append(ids, id)
		}
	}
	return ids
}

// clientAuthPolicy returns the client authentication policy for mutual TLS
func clientAuthPolicy(policy string) tls.ClientAuthType {
	switch policy {
	case "request":
		return tls.RequestClientCert
	case "verify":
		return tls.VerifyClientCertIfGiven
	default:
		return tls.RequireAndVerifyClientCert
	}
}
