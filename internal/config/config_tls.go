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

// validateTLSMode validates the TLS mode and the material it needs
func validateTLSMode(tls TLSConfig) error {
	switch tls.Mode {
	case "disabled":
		return nil
	case "server":
		return validateTLSMaterial(tls, "server mode", false)
	case "mutual":
		if err := validateTLSMaterial(tls, "mutual mode", true); err != nil {
			return err
		}
		return validateClientAuthPolicy(tls)
	default:
		return fmt.Errorf("invalid TLS mode: %s (must be 'disabled', 'server', or 'mutual')", tls.Mode)
	}
}

// tlsSource is one piece of TLS material that can come from a file or from
// inline content.
type tlsSource struct {
	name    string
	file    string
	content string
}

func (s tlsSource) missing() bool   { return s.file == "" && s.content == "" }
func (s tlsSource) ambiguous() bool { return s.file != "" && s.content != "" }

// validateTLSMaterial requires the certificate and key, plus the CA when
// needCA is set, each from exactly one source.
func validateTLSMaterial(tls TLSConfig, mode string, needCA bool) error {
	cert := tlsSource{"cert", tls.CertFile, tls.CertContent}
	key := tlsSource{"key", tls.KeyFile, tls.KeyContent}
	ca := tlsSource{"ca", tls.CAFile, tls.CAContent}

	if cert.missing() || key.missing() {
		return fmt.Errorf("TLS certificate and key are required for %s (provide either files or content)", mode)
	}
	if needCA && ca.missing() {
		return fmt.Errorf("CA certificate is required for mutual TLS mode (provide either caFile or caContent)")
	}

	sources := []tlsSource{cert, key}
	if needCA {
		sources = append(sources, ca)
	}
	for _, s := range sources {
		if s.ambiguous() {
			return fmt.Errorf("cannot specify both %sFile and %sContent - choose one", s.name, s.name)
		}
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
