// Comment HTTP handlers.
//
// This file exposes REST endpoints for comments on a listing:
//   - POST /startups/{id}/comments   (add; also feeds the live stream)
//   - GET  /startups/{id}/comments   (list, paginated, newest first, ETag support)
package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/launchpadhq/launchpad-backend/internal/repo"
)

// clampPagination parses and bounds page and per_page query params.
func clampPagination(c *gin.Context) (page, perPage int) {
	const (
		defaultPage    = 1
		defaultPerPage = 20
		maxPerPage     = 100
	)
	page = atoiDefault(c.Query("page"), defaultPage)
	if page < 1 {
		page = 1
	}
	perPage = atoiDefault(c.Query("per_page"), defaultPerPage)
	if perPage < 1 {
		perPage = 1
	}
	if perPage > maxPerPage {
		perPage = maxPerPage
	}
	return
}

// atoiDefault parses s as an int, returning def on empty or invalid input.
func atoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

// AddComment godoc
// @ID          addComment
// @Summary     Comment on a startup
// @Description Validates and stores a comment; live stream subscribers on this listing receive it immediately.
// @Tags        Comments
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  string  true  "Caller identity"
// @Param       id         path    string  true  "Startup ID (UUID)"  format(uuid)
// @Param       body       body    object  true  "Comment payload (body)"
//
// @Success     201  {object}  handlers.DataEnvelope
// @Failure     400  {object}  handlers.ErrorEnvelope "Validation failed"
// @Failure     401  {object}  handlers.ErrorEnvelope "Missing identity"
// @Failure     404  {object}  handlers.ErrorEnvelope "Startup not found"
// @Failure     500  {object}  handlers.ErrorEnvelope "Internal error"
// @Router      /startups/{id}/comments [post]
func (h *Handlers) AddComment(c *gin.Context) {
	uid, okID := h.requireUser(c)
	if !okID {
		return
	}
	input, okBody := h.bindObject(c)
	if !okBody {
		return
	}
	cm, err := h.comments.Add(c.Request.Context(), uid, c.Param("id"), input)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusCreated, cm)
}

// ListComments godoc
// @ID          listComments
// @Summary     List comments (paginated)
// @Description Returns a page of comments for a listing, newest first. Supports weak ETag via If-None-Match.
// @Tags        Comments
// @Produce     json
//
// @Param       id        path   string  true  "Startup ID (UUID)"  format(uuid)
// @Param       page      query  int     false "Page number"        minimum(1) default(1)
// @Param       per_page  query  int     false "Items per page"     minimum(1) maximum(100) default(20)
//
// @Success     200  {object}  pagination.Page[domain.Comment]
// @Header      200  {string}  ETag  "Weak ETag for current result"
// @Success     304  {string}  string "Not Modified"
// @Failure     404  {object}  handlers.ErrorEnvelope "Startup not found"
// @Failure     500  {object}  handlers.ErrorEnvelope "Internal error"
// @Router      /startups/{id}/comments [get]
func (h *Handlers) ListComments(c *gin.Context) {
	ctx := c.Request.Context()
	startupID := c.Param("id")
	page, perPage := clampPagination(c)

	// ETag pre-check (best effort).
	if h.db != nil {
		count, maxTS, err := repo.CommentsStats(ctx, h.db, startupID)
		if err == nil {
			var ts int64
			if maxTS != nil {
				ts = maxTS.Unix()
			}
			etag := fmt.Sprintf(`W/"comments:%s:%d:%d:%d:%d"`, startupID, count, ts, page, perPage)
			c.Header("ETag", etag)
			if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
				c.Status(http.StatusNotModified)
				return
			}
		}
	}

	out, err := h.comments.ListPage(ctx, startupID, page, perPage)
	if err != nil {
		h.fail(c, err)
		return
	}
	okRaw(c, http.StatusOK, out)
}
