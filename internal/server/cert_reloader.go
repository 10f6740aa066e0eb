package server

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"sync"
	"time"

	"jobgen/internal/config"
	"jobgen/internal/errors"
	"jobgen/internal/observability"
	"jobgen/internal/watcher"
)

// CertificateReloader serves the current TLS certificate and CA pool and
// reloads them from disk when the watched files change. Certificates given
// as content (for example from Vault) are loaded once.
type CertificateReloader struct {
	mu sync.RWMutex

	serverCert       *tls.Certificate
	caCertPool       *x509.CertPool
	serverCertExpiry time.Time
	lastReloadTime   time.Time

	fileWatcher *watcher.FileWatcher

	config  config.TLSConfig
	metrics *observability.Metrics
	logger  *errors.Logger

	reloadCount        int64
	reloadSuccessCount int64
	reloadFailureCount int64
	lastReloadSuccess  bool
	lastReloadError    string
}

// CertificateMetrics holds metrics about certificate operations
type CertificateMetrics struct {
	ReloadCount        int64
	ReloadSuccessCount int64
	ReloadFailureCount int64
	LastReloadTime     time.Time
	LastReloadSuccess  bool
	LastReloadError    string
}

// NewCertificateReloader loads the configured certificates. It fails if the
// initial load fails.
func NewCertificateReloader(tlsConfig config.TLSConfig, metrics *observability.Metrics, logger *errors.Logger) (*CertificateReloader, error) {
	cr := &CertificateReloader{
		config:  tlsConfig,
		metrics: metrics,
		logger:  logger,
	}
	if err := cr.Reload(); err != nil {
		return nil, fmt.Errorf("failed to load initial certificates: %w", err)
	}
	return cr, nil
}

// StartWatching reloads on changes to the certificate files. Content-based
// certificates have nothing to watch and are skipped.
func (cr *CertificateReloader) StartWatching() error {
	if !cr.config.AutoReload.Enabled {
		return nil
	}

	files := cr.watchedFiles()
	if len(files) == 0 {
		cr.logger.Info("TLS auto-reload skipped: certificates are not file based")
		return nil
	}

	fw, err := watcher.New("tls", files, cr.config.AutoReload.DebounceDelay, cr.triggerReload, cr.logger)
	if err != nil {
		return err
	}
	if err := fw.Start(); err != nil {
		return fmt.Errorf("failed to start certificate watcher: %w", err)
	}

	cr.mu.Lock()
	cr.fileWatcher = fw
	cr.mu.Unlock()
	return nil
}

// Stop stops the file watcher if running
func (cr *CertificateReloader) Stop() error {
	cr.mu.RLock()
	fw := cr.fileWatcher
	cr.mu.RUnlock()
	if fw == nil {
		return nil
	}
	return fw.Stop()
}

// Watching reports whether a file watcher is running
func (cr *CertificateReloader) Watching() bool {
	cr.mu.RLock()
	defer cr.mu.RUnlock()
	return cr.fileWatcher != nil && cr.fileWatcher.IsRunning()
}

func (cr *CertificateReloader) watchedFiles() []string {
	var files []string
	if cr.config.CertContent == "" && cr.config.KeyContent == "" {
		files = append(files, cr.config.CertFile, cr.config.KeyFile)
	}
	if cr.config.Mode == "mutual" && cr.config.CAContent == "" {
		files = append(files, cr.config.CAFile)
	}
	return files
}

// GetCertificate returns the current server certificate for TLS handshakes
func (cr *CertificateReloader) GetCertificate(hello *tls.ClientHelloInfo) (*tls.Certificate, error) {
	cr.mu.RLock()
	defer cr.mu.RUnlock()

	if cr.serverCert == nil {
		return nil, fmt.Errorf("no server certificate available")
	}
	if time.Now().After(cr.serverCertExpiry) {
		cr.logger.LogError(fmt.Errorf("server certificate expired"), "Server certificate expired",
			"expiry", cr.serverCertExpiry,
			"server_name", hello.ServerName)
		return nil, fmt.Errorf("server certificate expired")
	}
	return cr.serverCert, nil
}

// CACertPool returns the current CA certificate pool
func (cr *CertificateReloader) CACertPool() *x509.CertPool {
	cr.mu.RLock()
	defer cr.mu.RUnlock()
	return cr.caCertPool
}

// Reload re-reads the certificates. The previous certificates stay in use
// when loading fails.
func (cr *CertificateReloader) Reload() error {
	cert, expiry, err := cr.loadServerCertificate()
	var pool *x509.CertPool
	if err == nil {
		pool, err = cr.loadCACertificatePool()
	}

	cr.mu.Lock()
	defer cr.mu.Unlock()

	cr.reloadCount++
	if err != nil {
		cr.reloadFailureCount++
		cr.lastReloadSuccess = false
		cr.lastReloadError = err.Error()
		cr.metrics.RecordReload(context.Background(), "certificates", false)
		return err
	}

	cr.serverCert = cert
	cr.serverCertExpiry = expiry
	cr.caCertPool = pool
	cr.lastReloadTime = time.Now()
	cr.reloadSuccessCount++
	cr.lastReloadSuccess = true
	cr.lastReloadError = ""
	cr.metrics.RecordReload(context.Background(), "certificates", true)

	cr.logger.Info("Certificates loaded",
		"server_cert_expiry", cr.serverCertExpiry,
		"reload_time", cr.lastReloadTime)
	return nil
}

func (cr *CertificateReloader) triggerReload() {
	cr.logger.Info("Certificate files changed, reloading")
	if err := cr.Reload(); err != nil {
		cr.logger.LogError(err, "Failed to reload TLS certificates, keeping previous certificates")
	}
}

func (cr *CertificateReloader) loadServerCertificate() (*tls.Certificate, time.Time, error) {
	var (
		cert tls.Certificate
		err  error
	)
	switch {
	case cr.config.CertContent != "" && cr.config.KeyContent != "":
		cert, err = tls.X509KeyPair([]byte(cr.config.CertContent), []byte(cr.config.KeyContent))
		if err != nil {
			return nil, time.Time{}, fmt.Errorf("failed to load server cert/key from content: %w", err)
		}
	case cr.config.CertFile != "" && cr.config.KeyFile != "":
		cert, err = tls.LoadX509KeyPair(cr.config.CertFile, cr.config.KeyFile)
		if err != nil {
			return nil, time.Time{}, fmt.Errorf("failed to load server cert/key from files: %w", err)
		}
	default:
		return nil, time.Time{}, fmt.Errorf("TLS certificate and key are required (provide either files or content)")
	}

	if len(cert.Certificate) == 0 {
		return nil, time.Time{}, fmt.Errorf("server certificate is empty")
	}
	leaf, err := x509.ParseCertificate(cert.Certificate[0])
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("failed to parse server certificate: %w", err)
	}
	cert.Leaf = leaf
	return &cert, leaf.NotAfter, nil
}

func (cr *CertificateReloader) loadCACertificatePool() (*x509.CertPool, error) {
	if cr.config.Mode != "mutual" {
		return nil, nil
	}

	var caCert []byte
	switch {
	case cr.config.CAContent != "":
		caCert = []byte(cr.config.CAContent)
	case cr.config.CAFile != "":
		var err error
		caCert, err = os.ReadFile(cr.config.CAFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read CA file: %w", err)
		}
	default:
		return nil, fmt.Errorf("CA certificate is required for mutual TLS mode (provide either caFile or caContent)")
	}

	pool := x509.NewCertPool()
	if ok := pool.AppendCertsFromPEM(caCert); !ok {
		return nil, fmt.Errorf("failed to parse CA certificate")
	}
	return pool, nil
}

// CheckExpiry returns the time until the server certificate expires
func (cr *CertificateReloader) CheckExpiry() (time.Duration, error) {
	cr.mu.RLock()
	defer cr.mu.RUnlock()

	if cr.serverCertExpiry.IsZero() {
		return 0, fmt.Errorf("no certificates loaded")
	}
	return time.Until(cr.serverCertExpiry), nil
}

// GetMetrics returns certificate reload metrics
func (cr *CertificateReloader) GetMetrics() *CertificateMetrics {
	cr.mu.RLock()
	defer cr.mu.RUnlock()

	return &CertificateMetrics{
		ReloadCount:        cr.reloadCount,
		ReloadSuccessCount: cr.reloadSuccessCount,
		ReloadFailureCount: cr.reloadFailureCount,
		LastReloadTime:     cr.lastReloadTime,
		LastReloadSuccess:  cr.lastReloadSuccess,
		LastReloadError:    cr.lastReloadError,
	}
}
