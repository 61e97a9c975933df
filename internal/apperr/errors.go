// Package apperr defines the application error taxonomy and the single
// boundary that turns errors into caller-facing responses.
//
// Every anticipated failure in the service layer is represented by an
// *Error carrying a stable, machine-readable code. Handlers and clients
// branch on the code, never on the human message. The set of codes is
// closed: adding a kind means adding a constructor here, so the formatter
// and the HTTP status mapping cannot silently fall out of sync.
//
// Expected errors (everything except INTERNAL_SERVER_ERROR) propagate to
// the transport boundary with full detail; unexpected ones are masked in
// production by Format, which is the only place that masking decision is
// made.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/launchpadhq/launchpad-backend/internal/validation"
)

// Stable error codes. Clients branch on these programmatically.
const (
	CodeNotFound        = "NOT_FOUND"
	CodeValidation      = "VALIDATION_ERROR"
	CodeUnauthenticated = "UNAUTHENTICATED"
	CodeForbidden       = "FORBIDDEN"
	CodeConflict        = "CONFLICT"
	CodeInternal        = "INTERNAL_SERVER_ERROR"
)

// Error is the one concrete error type for all anticipated failures.
// Created at the point of failure, never mutated afterwards.
//
// Only the fields relevant to a given code are populated: Fields for
// VALIDATION_ERROR, Resource/ResourceID for NOT_FOUND, the wrapped cause
// (and its stack) for INTERNAL_SERVER_ERROR.
type Error struct {
	Code       string
	Message    string
	Fields     []validation.FieldError
	Resource   string
	ResourceID string

	cause error
	stack []byte
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

// Unwrap exposes the cause for errors.Is/errors.As chains. Non-internal
// errors have no cause and return nil.
func (e *Error) Unwrap() error { return e.cause }

// NotFound reports that resource (e.g. "Startup") with the given id does
// not exist.
func NotFound(resource, id string) *Error {
	return &Error{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s with id '%s' not found", resource, id),
		Resource:   resource,
		ResourceID: id,
	}
}

// Validation wraps the field errors produced by a validation.Schema.
// The slice must be non-empty; callers only construct this on failure.
func Validation(fields []validation.FieldError) *Error {
	return &Error{
		Code:    CodeValidation,
		Message: "Validation failed",
		Fields:  fields,
	}
}

// Unauthenticated reports a missing or unusable identity.
func Unauthenticated() *Error {
	return &Error{Code: CodeUnauthenticated, Message: "Authentication required"}
}

// Forbidden reports an authenticated caller acting outside its rights.
func Forbidden() *Error {
	return &Error{Code: CodeForbidden, Message: "You are not allowed to perform this action"}
}

// Conflict reports a state collision (duplicate slug, repeated upvote).
func Conflict(message string) *Error {
	return &Error{Code: CodeConflict, Message: message}
}

// Internal wraps an unexpected failure. The cause is logged server-side
// by Format but never surfaced to callers in production. The stack is
// captured here, at the point of failure, not at the boundary.
func Internal(cause error) *Error {
	return &Error{
		Code:    CodeInternal,
		Message: "An unexpected error occurred.",
		cause:   cause,
		stack:   debug.Stack(),
	}
}

// From extracts an *Error from an error chain.
func From(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// IsCode reports whether err is an *Error with the given code.
func IsCode(err error, code string) bool {
	if e, ok := From(err); ok {
		return e.Code == code
	}
	return false
}

// HTTPStatus maps an error to the HTTP status a REST transport should
// use. Unrecognized errors map to 500.
func HTTPStatus(err error) int {
	e, ok := From(err)
	if !ok {
		return http.StatusInternalServerError
	}
	switch e.Code {
	case CodeNotFound:
		return http.StatusNotFound
	case CodeValidation:
		return http.StatusBadRequest
	case CodeUnauthenticated:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
