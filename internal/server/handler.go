package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"jobgen/internal/ai"
	"jobgen/internal/errors"
	"jobgen/internal/observability"
	"jobgen/internal/types"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// createGenerateHandler wraps the generation handler of the served variant
// with observability
func (s *Server) createGenerateHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	op := s.Variant
	return func(w http.ResponseWriter, r *http.Request) {
		tracer := om.Tracer("jobgen.api")
		ctx, span := tracer.Start(r.Context(), "api."+string(op))
		defer span.End()

		logger := s.Logger.With("request_id", requestIDFrom(ctx), "operation", string(op))

		params, err := decodeJobRequest(r, op, logger)
		if err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "validation"))
			logger.Debug("Rejected request", "error", err.Error())
			s.writeError(w, err)
			return
		}

		builder := s.Prompts.Get()
		systemPrompt := builder.System(op)
		userPrompt := builder.User(op, params)

		span.SetAttributes(
			attribute.String("operation", string(op)),
			attribute.Int("request.job_title_length", len(params.JobTitle)),
			attribute.Int("request.prompt_length", len(userPrompt)),
		)

		metrics := om.GetMetrics()
		start := time.Now()
		// a client disconnect must not abort the model call
		result, err := s.Generator.Generate(context.WithoutCancel(ctx), systemPrompt, userPrompt)
		elapsed := time.Since(start)

		if err != nil {
			kind := errors.KindOf(err)
			span.RecordError(err)
			span.SetStatus(codes.Error, errors.CauseMessage(err))
			span.SetAttributes(attribute.String("error.type", kindLabel(kind)))
			metrics.RecordGeneration(ctx, string(op), elapsed, nil, kindLabel(kind))
			metrics.RecordBusinessMetric(ctx, string(op), false,
				attribute.String("error.code", errors.CodeOf(err)))
			logger.LogError(err, "Generation failed",
				"kind", kindLabel(kind),
				"duration_ms", elapsed.Milliseconds())
			s.writeError(w, err)
			return
		}

		metrics.RecordGeneration(ctx, string(op), elapsed, tokenUsage(result.Usage), "")
		metrics.RecordBusinessMetric(ctx, string(op), true,
			attribute.Int("output.length", len(result.Content)))

		span.SetAttributes(
			attribute.Bool("success", true),
			attribute.Int("response.length", len(result.Content)),
		)
		logger.Info("Generation completed",
			"model", result.Model,
			"duration_ms", elapsed.Milliseconds(),
			"output_length", len(result.Content))

		s.writeResult(w, result.Content)
	}
}

// writeResult writes the variant's success body
func (s *Server) writeResult(w http.ResponseWriter, content string) {
	var body any = types.DescriptionResponse{Output: content}
	if s.Variant == types.OperationStructured {
		body = types.StructuredResponse{Result: content}
	}
	s.writeJSON(w, http.StatusOK, body)
}

// writeError maps err onto a status and the variant's error body
func (s *Server) writeError(w http.ResponseWriter, err error) {
	s.writeErrorResponse(w, errors.CauseMessage(err), errors.CodeOf(err), errors.HTTPStatus(err))
}

// writeErrorResponse writes the variant's error body. The error code
// travels in the X-Error-Code header so the body keeps a single key.
func (s *Server) writeErrorResponse(w http.ResponseWriter, message, code string, statusCode int) {
	if code != "" {
		w.Header().Set("X-Error-Code", code)
	}
	var body any = types.DescriptionError{Detail: message}
	if s.Variant == types.OperationStructured {
		body = types.StructuredError{Error: message}
	}
	s.writeJSON(w, statusCode, body)
}

func (s *Server) writeJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.Logger.Warn("Failed to encode response", "status", statusCode, "error", err.Error())
	}
}

func kindLabel(kind errors.Kind) string {
	if kind == errors.KindUnknown {
		return "unknown"
	}
	return string(kind)
}

func tokenUsage(usage *ai.TokenUsage) *observability.TokenUsage {
	if usage == nil {
		return nil
	}
	return &observability.TokenUsage{
		InputTokens:  usage.InputTokens,
		OutputTokens: usage.OutputTokens,
		TotalTokens:  usage.TotalTokens,
	}
}
