// Live comment stream handler.
//
// This file exposes the Server-Sent Events endpoint:
//   - GET /startups/{id}/comments/stream
//
// Each connection holds one broker subscription. Events published while
// the connection is open arrive in publish order; events from before the
// connection never replay. Client disconnect cancels the request context,
// which closes the subscription and releases its registry entry.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/launchpadhq/launchpad-backend/internal/http/middleware"
	"github.com/launchpadhq/launchpad-backend/internal/services"
)

// StreamComments godoc
// @ID          streamComments
// @Summary     Live comment stream (SSE)
// @Description Opens a Server-Sent Events stream delivering comment_added events for one listing as they happen. No history is replayed.
// @Tags        Comments
// @Produce     text/event-stream
//
// @Param       id  path  string  true  "Startup ID (UUID)"  format(uuid)
//
// @Success     200  {string}  string "event stream"
// @Failure     404  {object}  handlers.ErrorEnvelope "Startup not found"
// @Router      /startups/{id}/comments/stream [get]
func (h *Handlers) StreamComments(c *gin.Context) {
	startupID := c.Param("id")
	if _, err := h.startups.Get(c.Request.Context(), startupID); err != nil {
		h.fail(c, err)
		return
	}

	sub := h.broker.Subscribe(services.CommentChannel(startupID))
	defer sub.Close()

	header := c.Writer.Header()
	header.Set("Content-Type", "text/event-stream")
	header.Set("Cache-Control", "no-cache")
	header.Set("Connection", "keep-alive")
	header.Set("X-Accel-Buffering", "no")
	c.Writer.WriteHeader(http.StatusOK)

	// Tell the client the stream is live before the first event.
	if _, err := c.Writer.WriteString(": connected\n\n"); err != nil {
		return
	}
	c.Writer.Flush()

	lg := middleware.LoggerFrom(c)
	ctx := c.Request.Context()
	for {
		payload, err := sub.Next(ctx)
		if err != nil {
			// Context cancellation (client gone) or broker shutdown.
			if !errors.Is(err, ctx.Err()) {
				lg.Debug().Err(err).Str("startup_id", startupID).Msg("stream closed")
			}
			return
		}
		data, err := json.Marshal(payload)
		if err != nil {
			lg.Error().Err(err).Msg("stream payload marshal")
			continue
		}
		if _, err := c.Writer.WriteString("event: comment_added\ndata: " + string(data) + "\n\n"); err != nil {
			return
		}
		c.Writer.Flush()
	}
}
