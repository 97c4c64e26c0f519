package config

import "fmt"

// ValidateTLSConfig validates the TLS configuration
func (c *Config) ValidateTLSConfig() error {
	tls := c.Server.TLS

	if err := validateTLSMode(tls); err != nil {
		return err
	}
	return validateTLSVersion(tls)
}

// pemSource is one piece of TLS material that may come from a file or from content
type pemSource struct {
	name        string
	fileField   string
	file        string
	contentName string
	content     string
}

func (p pemSource) provided() bool { return p.file != "" || p.content != "" }

func (p pemSource) ambiguous() error {
	if p.file != "" && p.content != "" {
		return fmt.Errorf("cannot specify both %s and %s - choose one", p.fileField, p.contentName)
	}
	return nil
}

func certSource(tls TLSConfig) pemSource {
	return pemSource{"certificate", "certFile", tls.CertFile, "certContent", tls.CertContent}
}

func keySource(tls TLSConfig) pemSource {
	return pemSource{"key", "keyFile", tls.KeyFile, "keyContent", tls.KeyContent}
}

func caSource(tls TLSConfig) pemSource {
	return pemSource{"CA certificate", "caFile", tls.CAFile, "caContent", tls.CAContent}
}

// validateTLSMode validates the TLS mode and the material it requires
func validateTLSMode(tls TLSConfig) error {
	var required []pemSource
	switch tls.Mode {
	case "disabled":
		return nil
	case "server":
		required = []pemSource{certSource(tls), keySource(tls)}
	case "mutual":
		required = []pemSource{certSource(tls), keySource(tls), caSource(tls)}
	default:
		return fmt.Errorf("invalid TLS mode: %s (must be 'disabled', 'server', or 'mutual')", tls.Mode)
	}

	for _, src := range required {
		if !src.provided() {
			return fmt.Errorf("TLS %s is required for %s mode (provide either %s or %s)",
				src.name, tls.Mode, src.fileField, src.contentName)
		}
		if err := src.ambiguous(); err != nil {
			return err
		}
	}

	if tls.Mode == "mutual" {
		return validateClientAuthPolicy(tls)
	}
	return nil
}

// validateClientAuthPolicy validates the client authentication policy
func validateClientAuthPolicy(tls TLSConfig) error {
	switch tls.ClientAuthPolicy {
	case "require", "request", "verify", "":
		return nil
	default:
		return fmt.Errorf("invalid clientAuthPolicy: %s (must be 'require', 'request', or 'verify')", tls.ClientAuthPolicy)
	}
}

// validateTLSVersion validates the TLS version configuration
func validateTLSVersion(tls TLSConfig) error {
	switch tls.MinVersion {
	case "", "1.2", "1.3":
		return nil
	default:
		return fmt.Errorf("invalid TLS minVersion: %s (must be '1.2' or '1.3')", tls.MinVersion)
	}
}
