package apperr

import (
	"context"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/trace"

	"github.com/launchpadhq/launchpad-backend/internal/validation"
)

// ctxKey is the private context key type for request correlation IDs.
type ctxKey struct{}

// WithRequestID stores the request correlation ID on the context so that
// Format can include it in logs and responses outside the HTTP layer.
func WithRequestID(ctx context.Context, rid string) context.Context {
	return context.WithValue(ctx, ctxKey{}, rid)
}

// RequestIDFrom returns the correlation ID previously attached with
// WithRequestID, or "" when none is present.
func RequestIDFrom(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKey{}).(string); ok {
		return v
	}
	return ""
}

// Formatted is the caller-facing error record produced by Format. It is
// serialized as the "error" object of the response envelope.
type Formatted struct {
	Code      string                  `json:"code"`
	Message   string                  `json:"message"`
	Details   []validation.FieldError `json:"details,omitempty"`
	Resource  string                  `json:"resource,omitempty"`
	RequestID string                  `json:"request_id,omitempty"`
	// Stack is populated for unexpected errors outside production only.
	Stack string `json:"stack,omitempty"`
}

// Format decides what an error reveals to the caller and logs it.
//
// Expected errors (any *Error except INTERNAL_SERVER_ERROR) keep their
// real message, code, and safe metadata in every environment and are
// logged at warn level: they are normal request outcomes, not pages.
//
// Internal errors and anything not recognized as an *Error are always
// logged at error level with the full cause and stack; the response keeps
// the detail outside production and degrades to a generic message with
// code INTERNAL_SERVER_ERROR in production. The code never varies with
// the environment, only the amount of detail does.
//
// Format never mutates err and produces the same record for the same
// inputs, so it is safe to call more than once on one error.
func Format(ctx context.Context, err error, production bool) Formatted {
	rid := RequestIDFrom(ctx)

	if e, ok := From(err); ok && e.Code != CodeInternal {
		ev := log.Warn().
			Str("type", "expected").
			Str("code", e.Code).
			Str("request_id", rid)
		if tid := traceID(ctx); tid != "" {
			ev = ev.Str("trace_id", tid)
		}
		if len(e.Fields) > 0 {
			ev = ev.Int("field_errors", len(e.Fields))
		}
		ev.Msg(e.Message)

		return Formatted{
			Code:      e.Code,
			Message:   e.Message,
			Details:   e.Fields,
			Resource:  e.Resource,
			RequestID: rid,
		}
	}

	// Unexpected: an Internal error or a foreign error that escaped the
	// service layer. Log everything server-side regardless of environment.
	var stack []byte
	msg := err.Error()
	if e, ok := From(err); ok {
		stack = e.stack
		if e.cause != nil {
			msg = e.cause.Error()
		}
	}
	ev := log.Error().
		Str("type", "unexpected").
		Str("code", CodeInternal).
		Str("request_id", rid).
		Err(err)
	if tid := traceID(ctx); tid != "" {
		ev = ev.Str("trace_id", tid)
	}
	if stack != nil {
		ev = ev.Bytes("stack", stack)
	}
	ev.Msg("unexpected error")

	if production {
		return Formatted{
			Code:      CodeInternal,
			Message:   "An unexpected error occurred.",
			RequestID: rid,
		}
	}
	return Formatted{
		Code:      CodeInternal,
		Message:   msg,
		RequestID: rid,
		Stack:     string(stack),
	}
}

// traceID extracts the active OpenTelemetry trace ID, if any, so error
// logs can be correlated with traces.
func traceID(ctx context.Context) string {
	sc := trace.SpanFromContext(ctx).SpanContext()
	if sc.HasTraceID() {
		return sc.TraceID().String()
	}
	return ""
}
