package common

import (
	"context"
	"fmt"

	"jobgen/internal/ai"
	"jobgen/internal/errors"
	"jobgen/internal/prompt"
	"jobgen/internal/types"
)

// Generator runs one model call. *ai.Service implements it.
type Generator interface {
	Generate(ctx context.Context, systemPrompt, userPrompt string) (*ai.Result, error)
}

// GenerateRequest describes one CLI generation.
type GenerateRequest struct {
	Operation types.Operation
	Params    types.JobParameters
	Builder   *prompt.Builder
	Output    CommandConfig
}

// RunGenerateCommand renders the prompt for req, calls the model once and
// writes the formatted result.
func RunGenerateCommand(ctx context.Context, logger *errors.Logger, gen Generator, out *OutputHandler, req GenerateRequest) error {
	if err := ValidateParameters(req.Params); err != nil {
		return err
	}

	builder := req.Builder
	if builder == nil {
		builder = prompt.Default()
	}
	systemPrompt := builder.System(req.Operation)
	userPrompt := builder.User(req.Operation, req.Params)

	logger.Info("Starting job description generation",
		"operation", string(req.Operation),
		"job_title", req.Params.JobTitle,
		"prompt_chars", len(userPrompt),
		"output_format", req.Output.OutputFormat)

	result, err := gen.Generate(ctx, systemPrompt, userPrompt)
	if err != nil {
		return fmt.Errorf("generation failed (%s): %w", errors.CodeOf(err), err)
	}

	if result.Usage != nil {
		logger.Info("AI token usage",
			"input_tokens", result.Usage.InputTokens,
			"output_tokens", result.Usage.OutputTokens,
			"total_tokens", result.Usage.TotalTokens)
	}

	output := types.GenerationOutput{
		Operation: req.Operation,
		Model:     result.Model,
		Content:   result.Content,
		Profile:   result.Profile,
	}
	// best effort so text and markdown output can render sections
	if output.Profile == nil && req.Operation == types.OperationStructured {
		if profile, err := ai.ParseProfile(result.Content); err == nil {
			output.Profile = profile
		} else {
			logger.Debug("Structured output is not a job profile, rendering as text", "error", err.Error())
		}
	}

	return out.HandleOutput(output, req.Output)
}

// RunPromptCommand renders the prompt for req without calling a model.
func RunPromptCommand(out *OutputHandler, req GenerateRequest) error {
	builder := req.Builder
	if builder == nil {
		builder = prompt.Default()
	}
	preview := types.PromptPreview{
		Operation:    req.Operation,
		SystemPrompt: builder.System(req.Operation),
		UserPrompt:   builder.User(req.Operation, req.Params),
	}
	return out.HandleOutput(preview, req.Output)
}
