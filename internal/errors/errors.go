package errors

import (
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
)

// ErrorType represents different categories of errors
type ErrorType string

const (
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeIO         ErrorType = "io"
	ErrorTypeAI         ErrorType = "ai"
	ErrorTypeNetwork    ErrorType = "network"
	ErrorTypeConfig     ErrorType = "config"
	ErrorTypeInternal   ErrorType = "internal"
)

// Kind classifies a failure at the model boundary. The zero value means the
// failure was not classified.
type Kind string

const (
	KindUnknown   Kind = ""
	KindAuth      Kind = "auth"
	KindTransport Kind = "transport"
	KindUpstream  Kind = "upstream"
	KindMalformed Kind = "malformed"
)

// AppError represents a structured application error
type AppError struct {
	Type    ErrorType      `json:"type"`
	Kind    Kind           `json:"kind,omitempty"`
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Cause   error          `json:"cause,omitempty"`
	Context map[string]any `json:"context,omitempty"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func newAppError(typ ErrorType, code, message string, cause error) *AppError {
	return &AppError{
		Type:    typ,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// Error constructors for different types
func NewValidationError(code, message string, cause error) *AppError {
	return newAppError(ErrorTypeValidation, code, message, cause)
}

func NewIOError(code, message string, cause error) *AppError {
	return newAppError(ErrorTypeIO, code, message, cause)
}

func NewAIError(code, message string, cause error) *AppError {
	return newAppError(ErrorTypeAI, code, message, cause)
}

func NewNetworkError(code, message string, cause error) *AppError {
	return newAppError(ErrorTypeNetwork, code, message, cause)
}

func NewConfigError(code, message string, cause error) *AppError {
	return newAppError(ErrorTypeConfig, code, message, cause)
}

func NewInternalError(code, message string, cause error) *AppError {
	return newAppError(ErrorTypeInternal, code, message, cause)
}

// NewModelError creates an AI error carrying a boundary kind. The code is
// derived from the kind.
func NewModelError(kind Kind, message string, cause error) *AppError {
	err := newAppError(ErrorTypeAI, codeForKind(kind), message, cause)
	err.Kind = kind
	return err
}

// WithContext adds context to an error
func (e *AppError) WithContext(key string, value any) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// KindOf returns the boundary kind of err, or KindUnknown.
func KindOf(err error) Kind {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindUnknown
}

// CodeOf returns the error code carried by err. Unclassified errors report
// ErrCodeGenerationFailed.
func CodeOf(err error) string {
	var appErr *AppError
	if stderrors.As(err, &appErr) && appErr.Code != "" {
		return appErr.Code
	}
	return ErrCodeGenerationFailed
}

// HTTPStatus maps err to the status a handler should answer with.
func HTTPStatus(err error) int {
	var appErr *AppError
	if !stderrors.As(err, &appErr) {
		return http.StatusInternalServerError
	}
	if appErr.Type == ErrorTypeValidation {
		if appErr.Code == ErrCodeRequestTooLarge {
			return http.StatusRequestEntityTooLarge
		}
		return http.StatusBadRequest
	}
	switch appErr.Kind {
	case KindAuth:
		return http.StatusServiceUnavailable
	case KindTransport:
		return http.StatusGatewayTimeout
	case KindUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// CauseMessage returns the text a caller should see for err: the message of
// the innermost cause for application errors, err.Error() otherwise.
func CauseMessage(err error) string {
	if err == nil {
		return ""
	}
	var appErr *AppError
	if !stderrors.As(err, &appErr) {
		return err.Error()
	}
	if appErr.Cause == nil {
		return appErr.Message
	}
	return CauseMessage(appErr.Cause)
}

func codeForKind(kind Kind) string {
	switch kind {
	case KindAuth:
		return ErrCodeUpstreamAuth
	case KindTransport:
		return ErrCodeUpstreamUnreachable
	case KindUpstream:
		return ErrCodeUpstreamError
	case KindMalformed:
		return ErrCodeInvalidModelOutput
	default:
		return ErrCodeGenerationFailed
	}
}

// Logger wraps slog with application-specific methods
type Logger struct {
	logger *slog.Logger
}

// NewLogger creates a new structured logger
func NewLogger(level slog.Level) *Logger {
	return NewLoggerTo(os.Stdout, level)
}

// NewLoggerTo creates a structured logger writing JSON records to w
func NewLoggerTo(w io.Writer, level slog.Level) *Logger {
	opts := &slog.HandlerOptions{
		Level: level,
	}

	handler := slog.NewJSONHandler(w, opts)
	return &Logger{logger: slog.New(handler)}
}

// With returns a logger that adds args to every record.
func (l *Logger) With(args ...any) *Logger {
	if l == nil {
		return nil
	}
	return &Logger{logger: l.logger.With(args...)}
}

// LogError logs an application error with appropriate level and context.
// Logging methods are no-ops on a nil Logger.
func (l *Logger) LogError(err error, message string, args ...any) {
	if l == nil {
		return
	}
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		logArgs := []any{
			"error_type", appErr.Type,
			"error_code", appErr.Code,
			"error_message", appErr.Message,
		}
		if appErr.Kind != KindUnknown {
			logArgs = append(logArgs, "error_kind", appErr.Kind)
		}
		if appErr.Cause != nil {
			logArgs = append(logArgs, "cause", appErr.Cause.Error())
		}

		for key, value := range appErr.Context {
			logArgs = append(logArgs, key, value)
		}

		logArgs = append(logArgs, args...)
		l.logger.Error(message, logArgs...)
		return
	}

	logArgs := append([]any{"error", err.Error()}, args...)
	l.logger.Error(message, logArgs...)
}

func (l *Logger) Info(message string, args ...any) {
	if l == nil {
		return
	}
	l.logger.Info(message, args...)
}

func (l *Logger) Debug(message string, args ...any) {
	if l == nil {
		return
	}
	l.logger.Debug(message, args...)
}

func (l *Logger) Warn(message string, args ...any) {
	if l == nil {
		return
	}
	l.logger.Warn(message, args...)
}

// New creates a new logger instance
func New(level string) (*Logger, error) {
	var slogLevel slog.Level
	switch level {
	case "debug":
		slogLevel = slog.LevelDebug
	case "info":
		slogLevel = slog.LevelInfo
	case "warn":
		slogLevel = slog.LevelWarn
	case "error":
		slogLevel = slog.LevelError
	default:
		return nil, fmt.Errorf("invalid log level: %s", level)
	}

	return NewLogger(slogLevel), nil
}

// Common error codes
const (
	ErrCodeFileNotFound        = "FILE_NOT_FOUND"
	ErrCodeFileNotReadable     = "FILE_NOT_READABLE"
	ErrCodeInvalidFormat       = "INVALID_FORMAT"
	ErrCodeInvalidRequest      = "INVALID_REQUEST"
	ErrCodeRequestTooLarge     = "REQUEST_TOO_LARGE"
	ErrCodeMissingAPIKey       = "MISSING_API_KEY"
	ErrCodeInvalidConfig       = "INVALID_CONFIG"
	ErrCodeGenerationFailed    = "GENERATION_FAILED"
	ErrCodeUpstreamAuth        = "UPSTREAM_AUTH_FAILED"
	ErrCodeUpstreamUnreachable = "UPSTREAM_UNREACHABLE"
	ErrCodeUpstreamError       = "UPSTREAM_ERROR"
	ErrCodeInvalidModelOutput  = "INVALID_MODEL_OUTPUT"
	ErrCodeUnauthorized        = "UNAUTHORIZED"
	ErrCodeMethodNotAllowed    = "METHOD_NOT_ALLOWED"
)
