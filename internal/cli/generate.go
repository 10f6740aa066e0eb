package cli

import (
	"fmt"

	"jobgen/internal/ai"
	"jobgen/internal/common"
	"jobgen/internal/config"
	"jobgen/internal/errors"
	"jobgen/internal/types"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var generateCmd = &cobra.Command{
	Use:   "generate [description|structured]",
	Short: "Generate a job description",
	Long: `Generate a job description with a single model call.

The description variant produces a free-form job card from the job title,
company type and location. The structured variant asks for a JSON job
profile and accepts company name, seniority, department, location and
domain as optional context. Without an argument the variant configured
for the server is used.

Parameters can be given as flags or read from a YAML or JSON file with
--params; flags override values from the file.`,
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{"description", "structured"},
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return applyDefaultFormat(cmd, &generateConfig)
	},
	RunE: runGenerate,
}

var (
	generateConfig common.CommandConfig
	generateParams jobFlags
)

// jobFlags holds the job parameter flags shared by generate and prompt
type jobFlags struct {
	params     types.JobParameters
	paramsFile string
}

func (f *jobFlags) register(flags *pflag.FlagSet) {
	flags.StringVar(&f.params.JobTitle, "job-title", "", "Job title (required unless set in --params)")
	flags.StringVar(&f.params.CompanyType, "company-type", "", "Company type, e.g. Startup (description)")
	flags.StringVar(&f.params.CompanyName, "company-name", "", "Company name (structured)")
	flags.StringVar(&f.params.Seniority, "seniority", "", "Seniority level (structured)")
	flags.StringVar(&f.params.Department, "department", "", "Department (structured)")
	flags.StringVar(&f.params.Location, "location", "", "Job location")
	flags.StringVar(&f.params.Domain, "domain", "", "Business domain (structured)")
	flags.StringVar(&f.paramsFile, "params", "", "YAML or JSON file with job parameters")
}

// resolve merges the params file with the flags that were set
func (f *jobFlags) resolve(cmd *cobra.Command, cfg *config.Config, logger *errors.Logger) (types.JobParameters, error) {
	if f.paramsFile == "" {
		return f.params, nil
	}

	fp := common.NewFileProcessor(logger, cfg.App.MaxFileSize)
	params, err := fp.ReadParamsFile(f.paramsFile)
	if err != nil {
		return types.JobParameters{}, err
	}

	overrides := map[string]*string{
		"job-title":    &params.JobTitle,
		"company-type": &params.CompanyType,
		"company-name": &params.CompanyName,
		"seniority":    &params.Seniority,
		"department":   &params.Department,
		"location":     &params.Location,
		"domain":       &params.Domain,
	}
	for name, field := range overrides {
		if flag := cmd.Flags().Lookup(name); flag != nil && flag.Changed {
			*field = flag.Value.String()
		}
	}
	return params, nil
}

func applyDefaultFormat(cmd *cobra.Command, out *common.CommandConfig) error {
	cfg := getConfigFromContext(cmd.Context())
	// Apply default format if not specified
	if out.OutputFormat == "" {
		out.OutputFormat = cfg.App.DefaultFormat
	}
	// Validate format against supported formats
	return common.ValidateOutputFormat(out.OutputFormat, cfg.App.SupportedFormats)
}

func registerOutputFlags(cmd *cobra.Command, out *common.CommandConfig) {
	cmd.Flags().StringVarP(&out.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	cmd.Flags().StringVar(&out.OutputFormat, "format", "", "Output format: json, yaml, text, or markdown")

	// Add completion for format flag
	_ = cmd.RegisterFlagCompletionFunc("format", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		cfg := getConfigFromContext(cmd.Context())
		return common.GetSupportedFormats(cfg.App.SupportedFormats), cobra.ShellCompDirectiveNoFileComp
	})
}

func init() {
	generateParams.register(generateCmd.Flags())
	registerOutputFlags(generateCmd, &generateConfig)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	op, err := common.ParseOperationArg(args, cfg.Variant())
	if err != nil {
		return err
	}

	params, err := generateParams.resolve(cmd, cfg, logger)
	if err != nil {
		return err
	}
	if err := common.ValidateParameters(params); err != nil {
		return err
	}

	builder, err := promptBuilder(cfg)
	if err != nil {
		return err
	}

	aiService, err := ai.NewService(cfg.Operation(op), logger,
		ai.WithModelCheckTimeout(cfg.Observability.HealthCheck.AIModelCheckTimeout),
		ai.WithWarnPeriod(cfg.App.UpstreamWarnPeriod),
	)
	if err != nil {
		return fmt.Errorf("failed to create AI service: %w", err)
	}
	defer func() {
		if err := aiService.Close(); err != nil {
			logger.Warn("Failed to close AI service", "error", err.Error())
		}
	}()

	err = common.RunGenerateCommand(cmd.Context(), logger, aiService,
		common.NewOutputHandlerTo(cmd.OutOrStdout(), logger),
		common.GenerateRequest{
			Operation: op,
			Params:    params,
			Builder:   builder,
			Output:    generateConfig,
		})
	if err != nil {
		return fmt.Errorf("failed to generate job description: %w", err)
	}
	logger.Info("Job description generated successfully", "operation", string(op))
	return nil
}
