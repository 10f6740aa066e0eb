package cli

import (
	"fmt"

	"jobgen/internal/config"
	"jobgen/internal/server"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP job description service",
	Long: `Start an HTTP server that generates job descriptions for one variant.

Each deployment serves exactly one variant:
- description: POST /generate-description/ with job_title, company_type and
  location, answering {"output": ...}
- structured: POST /generate-description with job_title and optional
  company_name, seniority, department, location and domain, answering
  {"result": ...} with the model's JSON profile

Every deployment also serves:
- GET /health: Health check endpoint
- GET /stats: Server statistics

TLS Configuration:
- Use --tls-mode to set TLS mode: disabled, server, mutual
- Use --cert-file and --key-file for TLS certificates
- Use --ca-file for mutual TLS client certificate verification`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("variant", "", "Variant to serve: description or structured (default from config)")
	serveCmd.Flags().StringP("port", "p", "", "Port to listen on (default from config)")
	serveCmd.Flags().String("host", "", "Host to bind to (default from config)")
	serveCmd.Flags().String("tls-mode", "", "TLS mode: disabled, server, mutual (overrides config)")
	serveCmd.Flags().String("cert-file", "", "Server certificate file (PEM, overrides config)")
	serveCmd.Flags().String("key-file", "", "Server private key file (PEM, overrides config)")
	serveCmd.Flags().String("ca-file", "", "CA certificate file for client cert verification (PEM, overrides config)")

	_ = serveCmd.RegisterFlagCompletionFunc("variant", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return []string{"description", "structured"}, cobra.ShellCompDirectiveNoFileComp
	})

	bindFlag(serveCmd, "server.variant", "variant")
	bindFlag(serveCmd, "server.port", "port")
	bindFlag(serveCmd, "server.host", "host")
	bindFlag(serveCmd, "server.tls.mode", "tls-mode")
	bindFlag(serveCmd, "server.tls.certFile", "cert-file")
	bindFlag(serveCmd, "server.tls.keyFile", "key-file")
	bindFlag(serveCmd, "server.tls.caFile", "ca-file")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	// Vault may have replaced the certificate material after loading
	tempConfig := &config.Config{Server: cfg.Server}
	if err := tempConfig.ValidateTLSConfig(); err != nil {
		return fmt.Errorf("invalid TLS configuration: %w", err)
	}

	serverCfg := newServerConfig(cfg)
	return server.NewServer(cfg, serverCfg, logger).Start()
}

func newServerConfig(cfg *config.Config) server.ServerConfig {
	return server.ServerConfig{
		Host:               cfg.Server.Host,
		Port:               cfg.Server.Port,
		Version:            Version,
		Variant:            cfg.Variant(),
		TLSConfig:          cfg.Server.TLS,
		APIKeys:            cfg.Server.APIKeys,
		ReadTimeout:        cfg.Server.ReadTimeout,
		WriteTimeout:       cfg.Server.WriteTimeout,
		IdleTimeout:        cfg.Server.IdleTimeout,
		HealthCheckTimeout: cfg.Observability.HealthCheck.AIModelCheckTimeout,
		MaxRequestSize:     cfg.Server.MaxRequestSize,
	}
}
