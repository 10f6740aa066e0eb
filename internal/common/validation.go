package common

import (
	"fmt"
	"slices"
	"strings"

	"jobgen/internal/errors"
	"jobgen/internal/types"
)

// ValidateOutputFormat validates format against configured supported formats
func ValidateOutputFormat(format string, supportedFormats []string) error {
	if len(supportedFormats) == 0 {
		return nil // No restrictions configured
	}

	if slices.Contains(supportedFormats, format) {
		return nil
	}

	return fmt.Errorf("unsupported output format '%s'. Supported formats: %v",
		format, supportedFormats)
}

// GetSupportedFormats returns the list of supported formats
func GetSupportedFormats(supportedFormats []string) []string {
	return supportedFormats
}

// ValidateParameters checks CLI input. Only the job title is mandatory.
func ValidateParameters(p types.JobParameters) error {
	if strings.TrimSpace(p.JobTitle) == "" {
		return errors.NewValidationError(errors.ErrCodeInvalidRequest,
			"job title is required (use --job-title or a params file)", nil)
	}
	return nil
}

// ParseOperationArg resolves the optional operation argument of a command.
func ParseOperationArg(args []string, fallback types.Operation) (types.Operation, error) {
	if len(args) == 0 {
		return fallback, nil
	}
	op, ok := types.ParseOperation(args[0])
	if !ok {
		return "", fmt.Errorf("unknown operation %q (must be 'description' or 'structured')", args[0])
	}
	return op, nil
}
