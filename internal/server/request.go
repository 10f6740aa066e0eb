package server

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"jobgen/internal/errors"
	"jobgen/internal/types"
)

// requiredFields lists the body fields each variant rejects when absent or
// null. Empty strings are accepted.
var requiredFields = map[types.Operation][]string{
	types.OperationDescription: {"job_title", "company_type", "location"},
	types.OperationStructured:  {"job_title"},
}

// decodeJobRequest parses the request body of op into JobParameters.
// Every failure is a validation error.
func decodeJobRequest(r *http.Request, op types.Operation, logger *errors.Logger) (types.JobParameters, error) {
	body, err := readJSONBody(r, logger)
	if err != nil {
		return types.JobParameters{}, err
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return types.JobParameters{}, invalidRequest(fmt.Sprintf("failed to parse JSON: %v", err))
	}

	var missing []string
	for _, name := range requiredFields[op] {
		raw, ok := fields[name]
		if !ok || string(raw) == "null" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return types.JobParameters{}, invalidRequest("missing required field(s): " + strings.Join(missing, ", "))
	}

	switch op {
	case types.OperationStructured:
		var req types.StructuredRequest
		if err := json.Unmarshal(body, &req); err != nil {
			return types.JobParameters{}, invalidRequest(fieldTypeMessage(err))
		}
		return req.Parameters(), nil
	default:
		var req types.DescriptionRequest
		if err := json.Unmarshal(body, &req); err != nil {
			return types.JobParameters{}, invalidRequest(fieldTypeMessage(err))
		}
		return req.Parameters(), nil
	}
}

// readJSONBody reads the request body. A missing Content-Type is treated as
// JSON; any other media type is rejected.
func readJSONBody(r *http.Request, logger *errors.Logger) ([]byte, error) {
	if ct := r.Header.Get("Content-Type"); ct != "" {
		mediaType, _, err := mime.ParseMediaType(ct)
		if err != nil || mediaType != "application/json" {
			return nil, invalidRequest("content-type must be application/json")
		}
	}

	body, err := io.ReadAll(r.Body)
	defer func() {
		if err := r.Body.Close(); err != nil {
			logger.Warn("Failed to close request body", "error", err.Error())
		}
	}()
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if stderrors.As(err, &maxBytesErr) {
			return nil, errors.NewValidationError(errors.ErrCodeRequestTooLarge,
				fmt.Sprintf("request body too large (limit is %d bytes)", maxBytesErr.Limit), nil)
		}
		return nil, invalidRequest(fmt.Sprintf("failed to read request body: %v", err))
	}
	return body, nil
}

func fieldTypeMessage(err error) string {
	var typeErr *json.UnmarshalTypeError
	if stderrors.As(err, &typeErr) && typeErr.Field != "" {
		return fmt.Sprintf("field %s must be a string", typeErr.Field)
	}
	return fmt.Sprintf("failed to parse JSON: %v", err)
}

func invalidRequest(message string) error {
	return errors.NewValidationError(errors.ErrCodeInvalidRequest, message, nil)
}
