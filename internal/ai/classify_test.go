package ai

import (
	"context"
	stderrors "errors"
	"fmt"
	"net"
	"net/http"
	"testing"

	"jobgen/internal/errors"

	"github.com/sashabaranov/go-openai"
	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"google.golang.org/api/googleapi"
	"google.golang.org/genai"
)

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected errors.Kind
	}{
		{"missing key", errMissingAPIKey, errors.KindAuth},
		{"openai 401", &openai.APIError{HTTPStatusCode: http.StatusUnauthorized}, errors.KindAuth},
		{"openai 403 request error", &openai.RequestError{HTTPStatusCode: http.StatusForbidden, Err: stderrors.New("forbidden")}, errors.KindAuth},
		{"openai 500", &openai.APIError{HTTPStatusCode: http.StatusInternalServerError}, errors.KindUpstream},
		{"openai 504", &openai.APIError{HTTPStatusCode: http.StatusGatewayTimeout}, errors.KindTransport},
		{"gemini 403", genai.APIError{Code: http.StatusForbidden, Message: "API key not valid"}, errors.KindAuth},
		{"gemini 429", genai.APIError{Code: http.StatusTooManyRequests}, errors.KindUpstream},
		{"googleapi 503", &googleapi.Error{Code: http.StatusServiceUnavailable}, errors.KindUpstream},
		{"wrapped status", fmt.Errorf("call failed: %w", &openai.APIError{HTTPStatusCode: http.StatusBadRequest}), errors.KindUpstream},
		{"dial failure", &net.OpError{Op: "dial", Net: "tcp", Err: stderrors.New("connection refused")}, errors.KindTransport},
		{"deadline", context.DeadlineExceeded, errors.KindTransport},
		{"breaker open", gobreaker.ErrOpenState, errors.KindTransport},
		{"breaker half open", gobreaker.ErrTooManyRequests, errors.KindTransport},
		{"unknown", stderrors.New("boom"), errors.KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, errors.KindOf(classifyError(tt.err)))
		})
	}
}

func TestClassifyErrorKeepsClassified(t *testing.T) {
	original := errors.NewModelError(errors.KindMalformed, "bad output", errNoChoices)
	assert.Same(t, original, classifyError(original))
	assert.Nil(t, classifyError(nil))

	unknown := stderrors.New("M")
	assert.Equal(t, unknown, classifyError(unknown))
}

func TestClassifyErrorRecordsStatus(t *testing.T) {
	err := classifyError(&openai.APIError{HTTPStatusCode: http.StatusBadGateway})

	var appErr *errors.AppError
	assert.True(t, stderrors.As(err, &appErr))
	assert.Equal(t, http.StatusBadGateway, appErr.Context["status"])
	assert.Equal(t, errors.ErrCodeUpstreamError, appErr.Code)
}
