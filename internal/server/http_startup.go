package server

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"jobgen/internal/ai"
	"jobgen/internal/observability"
)

// Start starts the HTTP server with all configured components
func (s *Server) Start() error {
	om, err := s.initializeObservability()
	if err != nil {
		return err
	}
	defer s.shutdownObservability(om)

	if err := s.initializeGenerator(); err != nil {
		return err
	}
	defer s.closeGenerator()

	if err := s.loadPrompts(); err != nil {
		return err
	}
	if err := s.startPromptWatcher(om); err != nil {
		return err
	}

	httpServer := s.setupHTTPServer(om)

	if err := s.configureTLS(httpServer, om); err != nil {
		return err
	}

	s.displayServerInfo()

	return s.startWithGracefulShutdown(httpServer)
}

// initializeObservability sets up observability components
func (s *Server) initializeObservability() (*observability.ObservabilityManager, error) {
	obsConfig := observability.GetObservabilityConfig(s.AppConfig, s.Version)

	om, err := observability.NewObservabilityManager(obsConfig, s.Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize observability: %w", err)
	}

	return om, nil
}

// shutdownObservability handles observability cleanup
func (s *Server) shutdownObservability(om *observability.ObservabilityManager) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := om.Shutdown(ctx); err != nil {
		s.Logger.LogError(err, "Failed to shutdown observability")
	}
}

// initializeGenerator creates the AI service for the served variant unless
// one was supplied
func (s *Server) initializeGenerator() error {
	if s.Generator != nil {
		return nil
	}

	service, err := ai.NewService(s.AppConfig.Operation(s.Variant), s.Logger,
		ai.WithModelCheckTimeout(s.AppConfig.Observability.HealthCheck.AIModelCheckTimeout),
		ai.WithWarnPeriod(s.AppConfig.App.UpstreamWarnPeriod),
	)
	if err != nil {
		return fmt.Errorf("failed to create AI service: %w", err)
	}
	s.Generator = service
	return nil
}

func (s *Server) closeGenerator() {
	if closer, ok := s.Generator.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			s.Logger.LogError(err, "Failed to close AI service")
		}
	}
}

// setupHTTPServer creates and configures the HTTP server
func (s *Server) setupHTTPServer(om *observability.ObservabilityManager) *http.Server {
	return &http.Server{
		Addr:         fmt.Sprintf("%s:%s", s.Host, s.Port),
		Handler:      s.Handler(om),
		ReadTimeout:  s.ReadTimeout,
		WriteTimeout: s.WriteTimeout,
		IdleTimeout:  s.IdleTimeout,
	}
}

// startWithGracefulShutdown starts the HTTP server and handles graceful shutdown
func (s *Server) startWithGracefulShutdown(server *http.Server) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	serverErrors := make(chan error, 1)

	go func() {
		s.Logger.Info("Starting HTTP server",
			"address", server.Addr,
			"variant", string(s.Variant),
			"route", Route(s.Variant),
			"tls_enabled", server.TLSConfig != nil)

		var err error
		if server.TLSConfig != nil {
			// certificates come from TLSConfig.GetCertificate
			err = server.ListenAndServeTLS("", "")
		} else {
			err = server.ListenAndServe()
		}

		if err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server failed to start: %w", err)
	case sig := <-quit:
		s.Logger.Info("Received shutdown signal, starting graceful shutdown",
			"signal", sig.String())

		return s.performGracefulShutdown(server)
	}
}

// performGracefulShutdown handles the graceful shutdown process
func (s *Server) performGracefulShutdown(server *http.Server) error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if s.CertificateReloader != nil {
		if err := s.CertificateReloader.Stop(); err != nil {
			s.Logger.LogError(err, "Failed to stop certificate watcher")
		}
	}
	if err := s.stopPromptWatcher(); err != nil {
		s.Logger.LogError(err, "Failed to stop prompt watcher")
	}

	s.Logger.Info("Shutting down HTTP server...")
	if err := server.Shutdown(shutdownCtx); err != nil {
		s.Logger.LogError(err, "Failed to shutdown server gracefully, forcing close")
		return server.Close()
	}

	s.Logger.Info("Server shutdown completed successfully")
	return nil
}
