package ai

import (
	stderrors "errors"
	"fmt"
	"net/http"

	"jobgen/internal/config"
	"jobgen/internal/errors"

	"github.com/sony/gobreaker/v2"
)

// CircuitBreaker wraps calls returning T with the circuit breaker pattern.
// A nil *CircuitBreaker runs calls directly.
type CircuitBreaker[T any] struct {
	cb *gobreaker.CircuitBreaker[T]
}

// NewCompletionBreaker creates the breaker guarding completions of one
// operation. It returns nil when the breaker is disabled.
func NewCompletionBreaker(operation string, cfg config.CircuitBreakerConfig, logger *errors.Logger) *CircuitBreaker[*Completion] {
	if !cfg.Enabled {
		return nil
	}

	settings := gobreaker.Settings{
		Name:        fmt.Sprintf("AI-%s", operation),
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return tripped(counts, cfg.MinRequests, cfg.FailureThreshold)
		},
		IsSuccessful: func(err error) bool {
			return err == nil || clientRejected(err)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Info("Circuit breaker state changed",
				"name", name,
				"operation_type", operation,
				"from", from.String(),
				"to", to.String(),
				"max_requests", cfg.MaxRequests,
				"failure_threshold", cfg.FailureThreshold)
		},
	}

	return &CircuitBreaker[*Completion]{cb: gobreaker.NewCircuitBreaker[*Completion](settings)}
}

// newModelBreaker creates a breaker for model lookups. Health checks are
// less critical than completions, so it trips later.
func newModelBreaker[T any](operation string, cfg config.CircuitBreakerConfig, logger *errors.Logger) *CircuitBreaker[T] {
	if !cfg.Enabled {
		return nil
	}

	settings := gobreaker.Settings{
		Name:        fmt.Sprintf("AI-Model-%s", operation),
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return tripped(counts, 5, 0.8)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Info("Circuit breaker state changed",
				"name", name,
				"operation_type", operation,
				"from", from.String(),
				"to", to.String())
		},
	}

	return &CircuitBreaker[T]{cb: gobreaker.NewCircuitBreaker[T](settings)}
}

// clientRejected reports whether the endpoint refused the request itself:
// a rejected key or a 4xx answer other than timeout and throttling. Such
// failures say nothing about upstream health.
func clientRejected(err error) bool {
	var appErr *errors.AppError
	if !stderrors.As(err, &appErr) {
		return false
	}
	if appErr.Kind == errors.KindAuth {
		return true
	}
	status, ok := appErr.Context["status"].(int)
	if appErr.Kind != errors.KindUpstream || !ok {
		return false
	}
	return status >= 400 && status < 500 &&
		status != http.StatusRequestTimeout && status != http.StatusTooManyRequests
}

func tripped(counts gobreaker.Counts, minRequests uint32, threshold float64) bool {
	if counts.Requests == 0 || counts.Requests < minRequests {
		return false
	}
	failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
	return failureRatio >= threshold
}

// Execute executes the provided function with circuit breaker protection
func (b *CircuitBreaker[T]) Execute(fn func() (T, error)) (T, error) {
	if b == nil || b.cb == nil {
		return fn()
	}
	return b.cb.Execute(fn)
}

// Stats returns circuit breaker statistics
func (b *CircuitBreaker[T]) Stats() map[string]any {
	if b == nil || b.cb == nil {
		return map[string]any{
			"enabled": false,
		}
	}

	return map[string]any{
		"name":    b.cb.Name(),
		"state":   b.cb.State().String(),
		"counts":  b.cb.Counts(),
		"enabled": true,
	}
}

// IsHealthy reports whether the breaker is closed. A disabled breaker is
// always healthy.
func (b *CircuitBreaker[T]) IsHealthy() bool {
	if b == nil || b.cb == nil {
		return true
	}
	return b.cb.State() == gobreaker.StateClosed
}
