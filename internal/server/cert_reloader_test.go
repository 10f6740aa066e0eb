package server

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"

	"jobgen/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeTestCert writes a self-signed certificate and key to dir and
// returns their paths.
func writeTestCert(t *testing.T, dir string, serial int64, notAfter time.Time) (string, string) {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	template := &x509.Certificate{
		SerialNumber:          big.NewInt(serial),
		Subject:               pkix.Name{CommonName: "localhost"},
		DNSNames:              []string{"localhost"},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              notAfter,
		KeyUsage:              x509.KeyUsageDigitalSignature | x509.KeyUsageCertSign,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth, x509.ExtKeyUsageClientAuth},
		BasicConstraintsValid: true,
		IsCA:                  true,
	}
	der, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	require.NoError(t, err)
	keyDER, err := x509.MarshalECPrivateKey(key)
	require.NoError(t, err)

	certFile := filepath.Join(dir, "server.crt")
	keyFile := filepath.Join(dir, "server.key")
	require.NoError(t, os.WriteFile(certFile, pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der}), 0o600))
	require.NoError(t, os.WriteFile(keyFile, pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: keyDER}), 0o600))
	return certFile, keyFile
}

func TestCertificateReloader_LoadAndReload(t *testing.T) {
	dir := t.TempDir()
	certFile, keyFile := writeTestCert(t, dir, 1, time.Now().Add(30*24*time.Hour))

	cr, err := NewCertificateReloader(config.TLSConfig{Mode: "server", CertFile: certFile, KeyFile: keyFile}, nil, testLogger)
	require.NoError(t, err)

	cert, err := cr.GetCertificate(&tls.ClientHelloInfo{ServerName: "localhost"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), cert.Leaf.SerialNumber.Int64())

	expiry, err := cr.CheckExpiry()
	require.NoError(t, err)
	assert.Greater(t, expiry, 29*24*time.Hour)

	writeTestCert(t, dir, 2, time.Now().Add(60*24*time.Hour))
	require.NoError(t, cr.Reload())

	cert, err = cr.GetCertificate(&tls.ClientHelloInfo{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), cert.Leaf.SerialNumber.Int64())

	metrics := cr.GetMetrics()
	assert.Equal(t, int64(2), metrics.ReloadCount)
	assert.Equal(t, int64(2), metrics.ReloadSuccessCount)
	assert.True(t, metrics.LastReloadSuccess)
}

func TestCertificateReloader_FailedReloadKeepsCertificate(t *testing.T) {
	dir := t.TempDir()
	certFile, keyFile := writeTestCert(t, dir, 7, time.Now().Add(24*time.Hour*10))

	cr, err := NewCertificateReloader(config.TLSConfig{Mode: "server", CertFile: certFile, KeyFile: keyFile}, nil, testLogger)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(certFile, []byte("garbage"), 0o600))
	assert.Error(t, cr.Reload())

	cert, err := cr.GetCertificate(&tls.ClientHelloInfo{})
	require.NoError(t, err)
	assert.Equal(t, int64(7), cert.Leaf.SerialNumber.Int64())

	metrics := cr.GetMetrics()
	assert.Equal(t, int64(1), metrics.ReloadFailureCount)
	assert.False(t, metrics.LastReloadSuccess)
	assert.NotEmpty(t, metrics.LastReloadError)
}

func TestCertificateReloader_MissingFiles(t *testing.T) {
	_, err := NewCertificateReloader(config.TLSConfig{Mode: "server", CertFile: "/nonexistent.crt", KeyFile: "/nonexistent.key"}, nil, testLogger)
	assert.Error(t, err)

	_, err = NewCertificateReloader(config.TLSConfig{Mode: "server"}, nil, testLogger)
	assert.Error(t, err)
}

func TestCertificateReloader_ContentIsNotWatched(t *testing.T) {
	dir := t.TempDir()
	certFile, keyFile := writeTestCert(t, dir, 3, time.Now().Add(24*time.Hour*10))
	certPEM, err := os.ReadFile(certFile)
	require.NoError(t, err)
	keyPEM, err := os.ReadFile(keyFile)
	require.NoError(t, err)

	cr, err := NewCertificateReloader(config.TLSConfig{
		Mode:        "server",
		CertContent: string(certPEM),
		KeyContent:  string(keyPEM),
		AutoReload:  config.AutoReloadConfig{Enabled: true},
	}, nil, testLogger)
	require.NoError(t, err)

	require.NoError(t, cr.StartWatching())
	assert.False(t, cr.Watching())
	assert.NoError(t, cr.Stop())
}

func TestBuildTLSConfig_Mutual(t *testing.T) {
	dir := t.TempDir()
	certFile, keyFile := writeTestCert(t, dir, 5, time.Now().Add(24*time.Hour*10))

	tlsCfg := config.TLSConfig{
		Mode:             "mutual",
		CertFile:         certFile,
		KeyFile:          keyFile,
		CAFile:           certFile,
		MinVersion:       "1.3",
		ClientAuthPolicy: "verify",
	}
	cr, err := NewCertificateReloader(tlsCfg, nil, testLogger)
	require.NoError(t, err)

	s := NewServer(nil, ServerConfig{TLSConfig: tlsCfg}, testLogger)
	s.CertificateReloader = cr

	built, err := s.buildTLSConfig()
	require.NoError(t, err)
	assert.Equal(t, uint16(tls.VersionTLS13), built.MinVersion)
	assert.Equal(t, tls.VerifyClientCertIfGiven, built.ClientAuth)
	require.NotNil(t, built.ClientCAs)
	require.NotNil(t, built.GetConfigForClient)

	perConn, err := built.GetConfigForClient(&tls.ClientHelloInfo{})
	require.NoError(t, err)
	assert.Nil(t, perConn.GetConfigForClient)
	assert.NotNil(t, perConn.ClientCAs)
}

func TestBuildTLSConfig_ServerOnly(t *testing.T) {
	dir := t.TempDir()
	certFile, keyFile := writeTestCert(t, dir, 6, time.Now().Add(24*time.Hour*10))

	tlsCfg := config.TLSConfig{
		Mode:         "server",
		CertFile:     certFile,
		KeyFile:      keyFile,
		CipherSuites: []string{"TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256", "NOT_A_SUITE"},
	}
	cr, err := NewCertificateReloader(tlsCfg, nil, testLogger)
	require.NoError(t, err)

	s := NewServer(nil, ServerConfig{TLSConfig: tlsCfg}, testLogger)
	s.CertificateReloader = cr

	built, err := s.buildTLSConfig()
	require.NoError(t, err)
	assert.Equal(t, uint16(tls.VersionTLS12), built.MinVersion)
	assert.Equal(t, tls.NoClientCert, built.ClientAuth)
	assert.Equal(t, []uint16{tls.TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256}, built.CipherSuites)
	assert.Nil(t, built.GetConfigForClient)
}
