package server

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// healthHandler reports the served variant, model availability, circuit
// breaker state and certificate status
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	response := map[string]any{
		"status":  "healthy",
		"service": "jobgen",
		"version": s.Version,
		"variant": string(s.Variant),
		"route":   Route(s.Variant),
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.HealthCheckTimeout)
	defer cancel()

	modelInfo := s.Generator.ModelInfo(ctx)
	response["ai_model"] = modelInfo

	breakerHealthy := s.Generator.Healthy()
	response["circuit_breaker"] = map[string]any{
		"healthy": breakerHealthy,
	}

	certStatus := s.checkCertificateHealth()
	if certStatus != nil {
		response["certificates"] = certStatus
	}

	overallHealthy := breakerHealthy && modelInfo != nil && modelInfo.Available
	if certStatus != nil {
		if healthy, ok := certStatus["healthy"].(bool); ok && !healthy {
			overallHealthy = false
		}
	}

	status := http.StatusOK
	if !overallHealthy {
		response["status"] = "degraded"
		status = http.StatusServiceUnavailable
	}
	s.writeJSON(w, status, response)
}

// checkCertificateHealth checks the health of TLS certificates
func (s *Server) checkCertificateHealth() map[string]any {
	if s.CertificateReloader == nil {
		return nil
	}

	certStatus := make(map[string]any)

	timeToExpiry, err := s.CertificateReloader.CheckExpiry()
	if err != nil {
		certStatus["healthy"] = false
		certStatus["error"] = fmt.Sprintf("Failed to check certificate expiry: %v", err)
		return certStatus
	}

	criticalThreshold := 24 * time.Hour
	warningThreshold := 7 * 24 * time.Hour

	certStatus["time_to_expiry_hours"] = int(timeToExpiry.Hours())
	certStatus["time_to_expiry"] = timeToExpiry.String()

	switch {
	case timeToExpiry <= 0:
		certStatus["healthy"] = false
		certStatus["status"] = "expired"
		certStatus["message"] = "Certificate has expired"
	case timeToExpiry <= criticalThreshold:
		certStatus["healthy"] = false
		certStatus["status"] = "critical"
		certStatus["message"] = "Certificate expires within 24 hours"
	case timeToExpiry <= warningThreshold:
		certStatus["healthy"] = true
		certStatus["status"] = "warning"
		certStatus["message"] = "Certificate expires within 7 days"
	default:
		certStatus["healthy"] = true
		certStatus["status"] = "ok"
		certStatus["message"] = "Certificate is valid"
	}

	certStatus["auto_reload"] = map[string]any{
		"enabled":              s.TLSConfig.AutoReload.Enabled,
		"file_watcher_running": s.CertificateReloader.Watching(),
	}

	metrics := s.CertificateReloader.GetMetrics()
	certStatus["metrics"] = map[string]any{
		"reload_count":         metrics.ReloadCount,
		"reload_success_count": metrics.ReloadSuccessCount,
		"reload_failure_count": metrics.ReloadFailureCount,
		"last_reload_time":     metrics.LastReloadTime,
		"last_reload_success":  metrics.LastReloadSuccess,
		"last_reload_error":    metrics.LastReloadError,
	}

	return certStatus
}

// statsHandler provides server and circuit breaker statistics
func (s *Server) statsHandler(w http.ResponseWriter, r *http.Request) {
	response := map[string]any{
		"service": "jobgen",
		"version": s.Version,
		"variant": string(s.Variant),
		"server": map[string]any{
			"max_request_size_bytes": s.MaxRequestSize,
			"auth_enabled":           len(s.APIKeys) > 0,
			"tls_mode":               s.tlsMode(),
		},
		"ai": s.Generator.Stats(),
		"prompts": map[string]any{
			"watching": s.promptWatcher != nil && s.promptWatcher.IsRunning(),
		},
	}
	s.writeJSON(w, http.StatusOK, response)
}

func (s *Server) tlsMode() string {
	if s.TLSConfig.Mode == "" {
		return "disabled"
	}
	return s.TLSConfig.Mode
}
