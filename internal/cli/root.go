package cli

import (
	"context"
	"fmt"

	"jobgen/internal/config"
	"jobgen/internal/errors"
	"jobgen/internal/prompt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Define custom private types for context keys.
type configKeyType struct{}
type loggerKeyType struct{}

// Use variables of these types as the keys.
var configKey = configKeyType{}
var loggerKey = loggerKeyType{}

// v holds the configuration sources. Command flags are bound to it in init
// so they take part in loading.
var v = viper.New()

var rootCmd = &cobra.Command{
	Use:   "jobgen",
	Short: "Generate job descriptions with a language model",
	Long: `Jobgen turns a few facts about a role into a complete job description.
It renders a prompt from the job parameters, sends it to a chat completion
model and returns the answer, either as free-form text or as a JSON job
profile. The same prompts are served over HTTP by the serve command.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: initialize,
}

// Execute runs the root command with ctx
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// initialize loads the configuration and the logger and attaches them to
// the command context, making them available to all subcommands.
func initialize(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if _, ok := ctx.Value(configKey).(*config.Config); ok {
		return nil
	}

	cfg, err := config.Load(v)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := errors.New(cfg.App.LogLevel)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	if err := config.ApplyVaultSecrets(cfg, logger); err != nil {
		return fmt.Errorf("failed to apply vault secrets: %w", err)
	}

	logger.Debug("Starting jobgen",
		"version", Version,
		"command", cmd.Name(),
		"log_level", cfg.App.LogLevel,
		"ai_provider", cfg.AI.Provider)

	cmd.SetContext(withConfig(ctx, cfg, logger))
	return nil
}

func withConfig(ctx context.Context, cfg *config.Config, logger *errors.Logger) context.Context {
	ctx = context.WithValue(ctx, configKey, cfg)
	return context.WithValue(ctx, loggerKey, logger)
}

// getConfigFromContext is a helper function to get config from context
func getConfigFromContext(ctx context.Context) *config.Config {
	if cfg, ok := ctx.Value(configKey).(*config.Config); ok {
		return cfg
	}
	panic("config not found in context") // Should not happen if properly initialized
}

// getLoggerFromContext is a helper function to get logger from context
func getLoggerFromContext(ctx context.Context) *errors.Logger {
	if logger, ok := ctx.Value(loggerKey).(*errors.Logger); ok {
		return logger
	}
	panic("logger not found in context") // Should not happen if properly initialized
}

// promptBuilder builds the prompt templates configured in cfg
func promptBuilder(cfg *config.Config) (*prompt.Builder, error) {
	templates, _, err := cfg.LoadPrompts()
	if err != nil {
		return nil, fmt.Errorf("failed to load prompts: %w", err)
	}
	builder, err := prompt.NewBuilder(templates)
	if err != nil {
		return nil, fmt.Errorf("invalid prompt template: %w", err)
	}
	return builder, nil
}

// bindFlag binds a command flag to a configuration key
func bindFlag(cmd *cobra.Command, key, flagName string) {
	if err := v.BindPFlag(key, cmd.Flags().Lookup(flagName)); err != nil {
		panic(err)
	}
}

func init() {
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error (overrides config)")
	if err := v.BindPFlag("app.logLevel", rootCmd.PersistentFlags().Lookup("log-level")); err != nil {
		panic(err)
	}

	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(promptCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
}
