package ai

import (
	"context"
	stderrors "errors"
	"net"
	"net/http"

	"jobgen/internal/errors"

	"github.com/sashabaranov/go-openai"
	"github.com/sony/gobreaker/v2"
	"google.golang.org/api/googleapi"
	"google.golang.org/genai"
)

var (
	errMissingAPIKey = stderrors.New("model API key is not configured")
	errNoChoices     = stderrors.New("model returned no choices")
	errEmptyContent  = stderrors.New("model returned no text")
)

// classifyError maps a provider failure onto an error kind. Errors that
// are already classified pass through; errors it cannot place are
// returned unchanged and surface as generation failures.
func classifyError(err error) error {
	if err == nil {
		return nil
	}

	var appErr *errors.AppError
	if stderrors.As(err, &appErr) && appErr.Kind != errors.KindUnknown {
		return err
	}

	switch {
	case stderrors.Is(err, errMissingAPIKey):
		return errors.NewModelError(errors.KindAuth, "model credentials missing", err)
	case stderrors.Is(err, gobreaker.ErrOpenState), stderrors.Is(err, gobreaker.ErrTooManyRequests):
		return errors.NewModelError(errors.KindTransport, "model endpoint temporarily unavailable", err)
	case stderrors.Is(err, context.DeadlineExceeded):
		return errors.NewModelError(errors.KindTransport, "model call timed out", err)
	}

	if status, ok := statusOf(err); ok {
		return errors.NewModelError(kindForStatus(status), "model endpoint rejected the request", err).
			WithContext("status", status)
	}

	var netErr net.Error
	if stderrors.As(err, &netErr) {
		return errors.NewModelError(errors.KindTransport, "model endpoint unreachable", err)
	}

	return err
}

// statusOf extracts the HTTP status carried by a provider SDK error.
func statusOf(err error) (int, bool) {
	var apiErr *openai.APIError
	if stderrors.As(err, &apiErr) && apiErr.HTTPStatusCode != 0 {
		return apiErr.HTTPStatusCode, true
	}
	var reqErr *openai.RequestError
	if stderrors.As(err, &reqErr) && reqErr.HTTPStatusCode != 0 {
		return reqErr.HTTPStatusCode, true
	}
	var genaiErr genai.APIError
	if stderrors.As(err, &genaiErr) && genaiErr.Code != 0 {
		return genaiErr.Code, true
	}
	var googleErr *googleapi.Error
	if stderrors.As(err, &googleErr) && googleErr.Code != 0 {
		return googleErr.Code, true
	}
	return 0, false
}

func kindForStatus(status int) errors.Kind {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return errors.KindAuth
	case http.StatusRequestTimeout, http.StatusGatewayTimeout:
		return errors.KindTransport
	default:
		return errors.KindUpstream
	}
}
