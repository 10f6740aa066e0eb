package server

import (
	"context"
	"net/http"
	"strings"

	"jobgen/internal/errors"
	"jobgen/internal/observability"

	"github.com/google/uuid"
)

type contextKey string

const requestIDKey contextKey = "request_id"

// Handler returns the full middleware chain for the served variant.
// om may be nil.
func (s *Server) Handler(om *observability.ObservabilityManager) http.Handler {
	return s.requestIDMiddleware(om.HTTPMiddleware()(s.setupRoutes(om)))
}

// setupRoutes configures all HTTP routes and middleware
func (s *Server) setupRoutes(om *observability.ObservabilityManager) *http.ServeMux {
	mux := http.NewServeMux()

	requestLimitHandler := s.requestSizeLimitMiddleware()

	mux.HandleFunc("/health", s.methodMiddleware(http.MethodGet, s.healthHandler))
	mux.HandleFunc("/stats", s.methodMiddleware(http.MethodGet, s.statsHandler))
	mux.HandleFunc(routePattern(Route(s.Variant)),
		s.methodMiddleware(http.MethodPost,
			s.authMiddleware(requestLimitHandler(s.createGenerateHandler(om))),
		),
	)

	return mux
}

// routePattern pins a trailing-slash route to its exact path instead of
// the whole subtree.
func routePattern(route string) string {
	if strings.HasSuffix(route, "/") {
		return route + "{$}"
	}
	return route
}

// requestIDMiddleware tags every request with an ID, reusing a sane
// client-supplied X-Request-ID.
func (s *Server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))
	})
}

func requestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// methodMiddleware answers 405 for any method other than method
func (s *Server) methodMiddleware(method string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != method {
			w.Header().Set("Allow", method)
			s.writeErrorResponse(w, "Method Not Allowed", errors.ErrCodeMethodNotAllowed, http.StatusMethodNotAllowed)
			return
		}
		next(w, r)
	}
}

// authMiddleware provides API key authentication
func (s *Server) authMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Skip authentication if no API keys are configured
		if len(s.APIKeys) == 0 {
			next(w, r)
			return
		}

		// Check for API key in X-API-Key header
		apiKey := r.Header.Get("X-API-Key")
		if apiKey == "" {
			// Check for Bearer token in Authorization header as fallback
			authHeader := r.Header.Get("Authorization")
			if after, ok := strings.CutPrefix(authHeader, "Bearer "); ok {
				apiKey = after
			}
		}

		if apiKey == "" {
			s.Logger.Info("Authentication failed: missing API key",
				"endpoint", r.URL.Path,
				"client_ip", r.RemoteAddr,
				"request_id", requestIDFrom(r.Context()))
			s.writeErrorResponse(w, "Missing API key", errors.ErrCodeUnauthorized, http.StatusUnauthorized)
			return
		}

		if !s.APIKeys[apiKey] {
			s.Logger.Info("Authentication failed: invalid API key",
				"endpoint", r.URL.Path,
				"client_ip", r.RemoteAddr,
				"request_id", requestIDFrom(r.Context()),
				"api_key_prefix", maskAPIKey(apiKey))
			s.writeErrorResponse(w, "Invalid API key", errors.ErrCodeUnauthorized, http.StatusUnauthorized)
			return
		}

		s.Logger.Debug("API authentication successful",
			"endpoint", r.URL.Path,
			"client_ip", r.RemoteAddr,
			"api_key_prefix", maskAPIKey(apiKey))

		next(w, r)
	}
}

// requestSizeLimitMiddleware limits the size of incoming requests
func (s *Server) requestSizeLimitMiddleware() func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if s.MaxRequestSize > 0 {
				r.Body = http.MaxBytesReader(w, r.Body, s.MaxRequestSize)
			}

			next(w, r)
		}
	}
}

// maskAPIKey masks an API key for logging (shows only first 8 characters)
func maskAPIKey(apiKey string) string {
	if len(apiKey) <= 8 {
		return "****"
	}
	return apiKey[:8] + "****"
}
