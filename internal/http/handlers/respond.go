// Package handlers provides HTTP handler implementations for the public API.
//
// This file defines the standard response utilities used across all
// endpoints. Success responses carry the resource under a top-level "data"
// key (paginated lists already use the data + pagination envelope, so they
// are written as-is). Failures are formatted by the application error
// boundary and written under a top-level "error" key:
//
//	HTTP/1.1 404 Not Found
//	{
//	  "error": {
//	    "code": "NOT_FOUND",
//	    "message": "Startup with id '999' not found",
//	    "resource": "Startup",
//	    "request_id": "123e4567-e89b-12d3-a456-426614174000"
//	  }
//	}
//
// Handlers never choose status codes for application errors; the mapping
// lives next to the error taxonomy so transport and services cannot drift.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/launchpadhq/launchpad-backend/internal/apperr"
)

// DataEnvelope wraps a single resource for JSON serialization. Used in
// OpenAPI documentation via Swagger annotations.
type DataEnvelope struct {
	Data any `json:"data"`
}

// ErrorEnvelope is the standard error shape returned by all endpoints.
type ErrorEnvelope struct {
	Error apperr.Formatted `json:"error"`
}

// fail writes err through the error boundary: the taxonomy decides the
// status code, the formatter decides how much detail the caller sees.
func (h *Handlers) fail(c *gin.Context, err error) {
	f := apperr.Format(c.Request.Context(), err, h.production)
	c.AbortWithStatusJSON(apperr.HTTPStatus(err), ErrorEnvelope{Error: f})
}

// ok writes a single resource wrapped in the data envelope.
func ok(c *gin.Context, status int, body any) {
	c.JSON(status, DataEnvelope{Data: body})
}

// okRaw writes body as-is, for responses that already carry their own
// envelope (paginated pages).
func okRaw(c *gin.Context, status int, body any) {
	c.JSON(status, body)
}

// noContent writes an HTTP 204 No Content response.
func noContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
