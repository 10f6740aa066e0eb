package cli

import (
	"jobgen/internal/common"

	"github.com/spf13/cobra"
)

var promptCmd = &cobra.Command{
	Use:   "prompt [description|structured]",
	Short: "Print the prompt a generation would send",
	Long: `Render the system and user prompt for the given parameters without
calling a model. Prompt overrides from the configuration are applied, so
this is a quick way to check a custom template.`,
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{"description", "structured"},
	PreRunE: func(cmd *cobra.Command, args []string) error {
		if promptConfig.OutputFormat == "" {
			promptConfig.OutputFormat = "text"
		}
		return applyDefaultFormat(cmd, &promptConfig)
	},
	RunE: runPrompt,
}

var (
	promptConfig common.CommandConfig
	promptParams jobFlags
)

func init() {
	promptParams.register(promptCmd.Flags())
	registerOutputFlags(promptCmd, &promptConfig)
}

func runPrompt(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	op, err := common.ParseOperationArg(args, cfg.Variant())
	if err != nil {
		return err
	}

	params, err := promptParams.resolve(cmd, cfg, logger)
	if err != nil {
		return err
	}

	builder, err := promptBuilder(cfg)
	if err != nil {
		return err
	}

	return common.RunPromptCommand(common.NewOutputHandlerTo(cmd.OutOrStdout(), logger), common.GenerateRequest{
		Operation: op,
		Params:    params,
		Builder:   builder,
		Output:    promptConfig,
	})
}
