// Startup HTTP handlers.
//
// This file exposes REST endpoints for startup listings:
//   - POST   /startups               (submit)
//   - GET    /startups               (list: paginated, filtered, sorted, searched; ETag support)
//   - GET    /startups/{id}          (detail)
//   - PATCH  /startups/{id}          (partial update, submitter only)
//   - DELETE /startups/{id}          (soft delete, submitter only)
//   - POST   /startups/{id}/upvote   (one vote per user)
//   - GET    /suggest                (type-ahead suggestions)
//
// Handlers are transport-thin: they read identity and input, call
// application services, and write results. All validation and error
// classification happens below the transport.
package handlers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/launchpadhq/launchpad-backend/internal/apperr"
	"github.com/launchpadhq/launchpad-backend/internal/domain"
	"github.com/launchpadhq/launchpad-backend/internal/pagination"
	"github.com/launchpadhq/launchpad-backend/internal/pubsub"
	"github.com/launchpadhq/launchpad-backend/internal/repo"
	"github.com/launchpadhq/launchpad-backend/internal/search"
	"github.com/launchpadhq/launchpad-backend/internal/validation"
)

//
// Service contracts (context-aware)
//

// StartupService defines the listing operations consumed by HTTP
// handlers. Implementations must be safe for concurrent use and honor the
// provided context.
type StartupService interface {
	// Create validates and stores a new listing for submitterID.
	Create(ctx context.Context, submitterID string, input map[string]any) (*domain.Startup, error)
	// Get returns one listing by ID.
	Get(ctx context.Context, id string) (*domain.Startup, error)
	// List returns one validated page of listings.
	List(ctx context.Context, q url.Values) (*pagination.Page[domain.Startup], error)
	// Update applies a partial update on behalf of userID.
	Update(ctx context.Context, userID, id string, input map[string]any) (*domain.Startup, error)
	// Delete removes a listing on behalf of userID.
	Delete(ctx context.Context, userID, id string) error
	// Upvote records one vote by userID and returns the updated listing.
	Upvote(ctx context.Context, userID, id string) (*domain.Startup, error)
}

// CommentService defines comment operations consumed by HTTP handlers.
type CommentService interface {
	// Add validates and stores a comment, then publishes the live event.
	Add(ctx context.Context, authorID, startupID string, input map[string]any) (*domain.Comment, error)
	// ListPage returns one page of comments, newest first.
	ListPage(ctx context.Context, startupID string, page, perPage int) (*pagination.Page[domain.Comment], error)
}

// CategoryService defines category operations consumed by HTTP handlers.
type CategoryService interface {
	Create(ctx context.Context, input map[string]any) (*domain.Category, error)
	List(ctx context.Context) ([]domain.Category, error)
	GetBySlug(ctx context.Context, slug string) (*domain.Category, error)
}

// SuggestService defines the type-ahead operation consumed by handlers.
type SuggestService interface {
	Suggest(ctx context.Context, term string) ([]search.Suggestion, error)
}

//
// Handler wiring
//

// Handlers groups the HTTP endpoints for startups, comments, categories,
// suggestions, and the live comment stream.
type Handlers struct {
	startups   StartupService
	comments   CommentService
	categories CategoryService
	suggest    SuggestService
	broker     *pubsub.Broker

	// db is used for cheap aggregate stats backing conditional responses.
	db *gorm.DB
	// production controls how much detail unexpected errors reveal.
	production bool
}

// New constructs a Handlers instance bound to the given services.
func New(startups StartupService, comments CommentService, categories CategoryService,
	suggest SuggestService, broker *pubsub.Broker, db *gorm.DB, production bool) *Handlers {
	return &Handlers{
		startups:   startups,
		comments:   comments,
		categories: categories,
		suggest:    suggest,
		broker:     broker,
		db:         db,
		production: production,
	}
}

// userID extracts the caller identity from the Gin context (set by
// upstream middleware) falling back to the X-User-ID header. Returns ""
// when the request carries no identity.
func userID(c *gin.Context) string {
	if v, ok := c.Get("userID"); ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	if c != nil && c.Request != nil {
		return strings.TrimSpace(c.GetHeader("X-User-ID"))
	}
	return ""
}

// requireUser returns the caller identity, failing the request with
// UNAUTHENTICATED when absent.
func (h *Handlers) requireUser(c *gin.Context) (string, bool) {
	uid := userID(c)
	if uid == "" {
		h.fail(c, apperr.Unauthenticated())
		return "", false
	}
	return uid, true
}

// bindObject decodes the request body into an untyped map for schema
// validation. A body that is not a JSON object fails validation.
func (h *Handlers) bindObject(c *gin.Context) (map[string]any, bool) {
	var m map[string]any
	if err := c.ShouldBindJSON(&m); err != nil {
		h.fail(c, apperr.Validation([]validation.FieldError{{
			Field:   "body",
			Code:    validation.CodeInvalidType,
			Message: "request body must be a JSON object",
		}}))
		return nil, false
	}
	return m, true
}

//
// Handlers
//

// CreateStartup godoc
// @ID          createStartup
// @Summary     Submit a startup
// @Description Validates the submission and creates a new directory listing.
// @Tags        Startups
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  string  true  "Caller identity"  example(user123)
// @Param       body       body    object  true  "Submission payload (name, tagline, description, url, category_id)"
//
// @Success     201  {object}  handlers.DataEnvelope
// @Failure     400  {object}  handlers.ErrorEnvelope  "Validation failed"
// @Failure     401  {object}  handlers.ErrorEnvelope  "Missing identity"
// @Failure     409  {object}  handlers.ErrorEnvelope  "Duplicate URL"
// @Failure     500  {object}  handlers.ErrorEnvelope  "Internal error"
// @Router      /startups [post]
func (h *Handlers) CreateStartup(c *gin.Context) {
	uid, okID := h.requireUser(c)
	if !okID {
		return
	}
	input, okBody := h.bindObject(c)
	if !okBody {
		return
	}
	st, err := h.startups.Create(c.Request.Context(), uid, input)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusCreated, st)
}

// ListStartups godoc
// @ID          listStartups
// @Summary     List startups (paginated)
// @Description Returns a page of listings with optional category filter, minimum-upvote filter, allow-listed sorting, and free-text search. Supports weak ETag via If-None-Match.
// @Tags        Startups
// @Produce     json
//
// @Param       page         query  int     false "Page number"      minimum(1) default(1)
// @Param       per_page     query  int     false "Items per page"   minimum(1) maximum(100) default(20)
// @Param       sort         query  string  false "Sort key"         Enums(created_at, name, upvotes)
// @Param       order        query  string  false "Sort direction"   Enums(asc, desc)
// @Param       category     query  int     false "Category ID filter"
// @Param       min_upvotes  query  int     false "Minimum upvote count"
// @Param       search       query  string  false "Free-text search over name, tagline, description"
//
// @Success     200  {object}  pagination.Page[domain.Startup]
// @Header      200  {string}  ETag  "Weak ETag for current result"
// @Success     304  {string}  string "Not Modified"
// @Failure     400  {object}  handlers.ErrorEnvelope "Validation failed"
// @Failure     500  {object}  handlers.ErrorEnvelope "Internal error"
// @Router      /startups [get]
func (h *Handlers) ListStartups(c *gin.Context) {
	ctx := c.Request.Context()

	// ETag pre-check (best effort): count and latest change stamp.
	if h.db != nil {
		count, maxTS, err := repo.StartupsStats(ctx, h.db)
		if err == nil {
			var ts int64
			if maxTS != nil {
				ts = maxTS.Unix()
			}
			etag := fmt.Sprintf(`W/"startups:%d:%d:%s"`, count, ts, c.Request.URL.RawQuery)
			c.Header("ETag", etag)
			if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
				c.Status(http.StatusNotModified)
				return
			}
		}
	}

	page, err := h.startups.List(ctx, c.Request.URL.Query())
	if err != nil {
		h.fail(c, err)
		return
	}
	okRaw(c, http.StatusOK, page)
}

// GetStartup godoc
// @ID          getStartup
// @Summary     Get one startup
// @Tags        Startups
// @Produce     json
//
// @Param       id  path  string  true  "Startup ID (UUID)"  format(uuid)
//
// @Success     200  {object}  handlers.DataEnvelope
// @Failure     404  {object}  handlers.ErrorEnvelope "Not found"
// @Failure     500  {object}  handlers.ErrorEnvelope "Internal error"
// @Router      /startups/{id} [get]
func (h *Handlers) GetStartup(c *gin.Context) {
	st, err := h.startups.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, st)
}

// UpdateStartup godoc
// @ID          updateStartup
// @Summary     Update a startup
// @Description Applies a partial update. Only the original submitter may update a listing.
// @Tags        Startups
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  string  true  "Caller identity"
// @Param       id         path    string  true  "Startup ID (UUID)"  format(uuid)
// @Param       body       body    object  true  "Fields to change"
//
// @Success     200  {object}  handlers.DataEnvelope
// @Failure     400  {object}  handlers.ErrorEnvelope "Validation failed"
// @Failure     401  {object}  handlers.ErrorEnvelope "Missing identity"
// @Failure     403  {object}  handlers.ErrorEnvelope "Not the submitter"
// @Failure     404  {object}  handlers.ErrorEnvelope "Not found"
// @Failure     500  {object}  handlers.ErrorEnvelope "Internal error"
// @Router      /startups/{id} [patch]
func (h *Handlers) UpdateStartup(c *gin.Context) {
	uid, okID := h.requireUser(c)
	if !okID {
		return
	}
	input, okBody := h.bindObject(c)
	if !okBody {
		return
	}
	st, err := h.startups.Update(c.Request.Context(), uid, c.Param("id"), input)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, st)
}

// DeleteStartup godoc
// @ID          deleteStartup
// @Summary     Delete a startup
// @Description Soft-deletes a listing. Only the original submitter may delete it.
// @Tags        Startups
// @Produce     json
//
// @Param       X-User-ID  header  string  true  "Caller identity"
// @Param       id         path    string  true  "Startup ID (UUID)"  format(uuid)
//
// @Success     204  {string}  string "No Content"
// @Failure     401  {object}  handlers.ErrorEnvelope "Missing identity"
// @Failure     403  {object}  handlers.ErrorEnvelope "Not the submitter"
// @Failure     404  {object}  handlers.ErrorEnvelope "Not found"
// @Failure     500  {object}  handlers.ErrorEnvelope "Internal error"
// @Router      /startups/{id} [delete]
func (h *Handlers) DeleteStartup(c *gin.Context) {
	uid, okID := h.requireUser(c)
	if !okID {
		return
	}
	if err := h.startups.Delete(c.Request.Context(), uid, c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	noContent(c)
}

// UpvoteStartup godoc
// @ID          upvoteStartup
// @Summary     Upvote a startup
// @Description Records one vote per caller per listing and returns the updated listing.
// @Tags        Startups
// @Produce     json
//
// @Param       X-User-ID  header  string  true  "Caller identity"
// @Param       id         path    string  true  "Startup ID (UUID)"  format(uuid)
//
// @Success     200  {object}  handlers.DataEnvelope
// @Failure     401  {object}  handlers.ErrorEnvelope "Missing identity"
// @Failure     404  {object}  handlers.ErrorEnvelope "Not found"
// @Failure     409  {object}  handlers.ErrorEnvelope "Already upvoted"
// @Failure     500  {object}  handlers.ErrorEnvelope "Internal error"
// @Router      /startups/{id}/upvote [post]
func (h *Handlers) UpvoteStartup(c *gin.Context) {
	uid, okID := h.requireUser(c)
	if !okID {
		return
	}
	st, err := h.startups.Upvote(c.Request.Context(), uid, c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, st)
}

// Suggest godoc
// @ID          suggestStartups
// @Summary     Type-ahead suggestions
// @Description Returns up to five listings ranked against the query term. Case- and accent-insensitive.
// @Tags        Startups
// @Produce     json
//
// @Param       q  query  string  true  "Query term"
//
// @Success     200  {object}  handlers.DataEnvelope
// @Failure     500  {object}  handlers.ErrorEnvelope "Internal error"
// @Router      /suggest [get]
func (h *Handlers) Suggest(c *gin.Context) {
	out, err := h.suggest.Suggest(c.Request.Context(), c.Query("q"))
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, out)
}
