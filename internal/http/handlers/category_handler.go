// Category HTTP handlers.
//
// This file exposes REST endpoints for the directory's category set:
//   - POST /categories          (create)
//   - GET  /categories          (list, name order)
//   - GET  /categories/{slug}   (detail by slug)
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// CreateCategory godoc
// @ID          createCategory
// @Summary     Create a category
// @Description Creates a category; its URL slug is derived from the name.
// @Tags        Categories
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  string  true  "Caller identity"
// @Param       body       body    object  true  "Category payload (name)"
//
// @Success     201  {object}  handlers.DataEnvelope
// @Failure     400  {object}  handlers.ErrorEnvelope "Validation failed"
// @Failure     401  {object}  handlers.ErrorEnvelope "Missing identity"
// @Failure     409  {object}  handlers.ErrorEnvelope "Duplicate name"
// @Failure     500  {object}  handlers.ErrorEnvelope "Internal error"
// @Router      /categories [post]
func (h *Handlers) CreateCategory(c *gin.Context) {
	if _, okID := h.requireUser(c); !okID {
		return
	}
	input, okBody := h.bindObject(c)
	if !okBody {
		return
	}
	cat, err := h.categories.Create(c.Request.Context(), input)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusCreated, cat)
}

// ListCategories godoc
// @ID          listCategories
// @Summary     List categories
// @Tags        Categories
// @Produce     json
//
// @Success     200  {object}  handlers.DataEnvelope
// @Failure     500  {object}  handlers.ErrorEnvelope "Internal error"
// @Router      /categories [get]
func (h *Handlers) ListCategories(c *gin.Context) {
	out, err := h.categories.List(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, out)
}

// GetCategory godoc
// @ID          getCategory
// @Summary     Get one category by slug
// @Tags        Categories
// @Produce     json
//
// @Param       slug  path  string  true  "Category slug"  example(ai-ml-tools)
//
// @Success     200  {object}  handlers.DataEnvelope
// @Failure     404  {object}  handlers.ErrorEnvelope "Not found"
// @Failure     500  {object}  handlers.ErrorEnvelope "Internal error"
// @Router      /categories/{slug} [get]
func (h *Handlers) GetCategory(c *gin.Context) {
	cat, err := h.categories.GetBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, cat)
}
