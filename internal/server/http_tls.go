package server

import (
	"crypto/tls"
	"fmt"
	"net/http"

	"jobgen/internal/observability"
)

// configureTLS sets up TLS configuration based on the mode
func (s *Server) configureTLS(httpServer *http.Server, om *observability.ObservabilityManager) error {
	addr := httpServer.Addr

	switch s.TLSConfig.Mode {
	case "server":
		fmt.Printf("Starting server with HTTPS (server-only TLS) on https://%s\n", addr)
		fmt.Println("TLS mode: Server-only (no client certificates required)")
	case "mutual":
		fmt.Printf("Starting server with mTLS (mutual TLS) on https://%s\n", addr)
		fmt.Println("TLS mode: Mutual (client certificates required)")
	case "disabled", "":
		fmt.Printf("Starting server on http://%s\n", addr)
		fmt.Println("TLS mode: Disabled (HTTP only)")
		return nil
	default:
		return fmt.Errorf("invalid TLS mode: %s (must be 'disabled', 'server', or 'mutual')", s.TLSConfig.Mode)
	}

	if err := s.setupCertificateReloader(om); err != nil {
		return err
	}

	tlsConfig, err := s.buildTLSConfig()
	if err != nil {
		return fmt.Errorf("failed to set up TLS: %w", err)
	}
	httpServer.TLSConfig = tlsConfig
	return nil
}

// setupCertificateReloader loads the certificates and starts watching the
// certificate files when auto-reload is enabled
func (s *Server) setupCertificateReloader(om *observability.ObservabilityManager) error {
	reloader, err := NewCertificateReloader(s.TLSConfig, om.GetMetrics(), s.Logger)
	if err != nil {
		return err
	}
	if err := reloader.StartWatching(); err != nil {
		return err
	}
	s.CertificateReloader = reloader

	if reloader.Watching() {
		fmt.Println("TLS auto-reload: ENABLED (watching certificate files)")
	}
	return nil
}

// buildTLSConfig creates the TLS configuration. Certificates and the client
// CA pool are served by the reloader so reloads apply to new handshakes.
func (s *Server) buildTLSConfig() (*tls.Config, error) {
	if s.CertificateReloader == nil {
		return nil, fmt.Errorf("no certificates loaded")
	}

	tlsConfig := &tls.Config{
		MinVersion:     tlsVersion(s.TLSConfig.MinVersion),
		CipherSuites:   cipherSuites(s.TLSConfig.CipherSuites),
		GetCertificate: s.CertificateReloader.GetCertificate,
		ClientAuth:     tls.NoClientCert,
	}

	if s.TLSConfig.Mode != "mutual" {
		return tlsConfig, nil
	}

	pool := s.CertificateReloader.CACertPool()
	if pool == nil {
		return nil, fmt.Errorf("CA certificate is required for mutual TLS mode")
	}
	tlsConfig.ClientCAs = pool
	tlsConfig.ClientAuth = clientAuthPolicy(s.TLSConfig.ClientAuthPolicy)

	reloader := s.CertificateReloader
	tlsConfig.GetConfigForClient = func(*tls.ClientHelloInfo) (*tls.Config, error) {
		cfg := tlsConfig.Clone()
		cfg.GetConfigForClient = nil
		cfg.ClientCAs = reloader.CACertPool()
		return cfg, nil
	}
	return tlsConfig, nil
}

// tlsVersion returns the minimum TLS version, defaulting to TLS 1.2
func tlsVersion(v string) uint16 {
	if v == "1.3" {
		return tls.VersionTLS13
	}
	return tls.VersionTLS12
}

// cipherSuites maps configured names to IDs, skipping unknown names
func cipherSuites(names []string) []uint16 {
	if len(names) == 0 {
		return nil
	}
	ids := make([]uint16, 0, len(names))
	for _, name := range names {
		if id := getCipherSuiteID(name); id != 0 {
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

// getCipherSuiteID returns the cipher suite ID for a given name
func getCipherSuiteID(name string) uint16 {
	for _, suite := range tls.CipherSuites() {
		if suite.Name == name {
			return suite.ID
		}
	}
	return 0
}
