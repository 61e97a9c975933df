package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/launchpadhq/launchpad-backend/internal/apperr"
	"github.com/launchpadhq/launchpad-backend/internal/domain"
	"github.com/launchpadhq/launchpad-backend/internal/pagination"
	"github.com/launchpadhq/launchpad-backend/internal/search"
	"github.com/launchpadhq/launchpad-backend/internal/validation"
)

func init() { gin.SetMode(gin.TestMode) }

// ----- Fake services -----

type fakeStartupSvc struct {
	createOut *domain.Startup
	createErr error

	getOut *domain.Startup
	getErr error

	listOut *pagination.Page[domain.Startup]
	listErr error
	listQ   url.Values

	updateOut *domain.Startup
	updateErr error

	deleteErr error

	upvoteOut *domain.Startup
	upvoteErr error
}

func (s *fakeStartupSvc) Create(ctx context.Context, submitterID string, input map[string]any) (*domain.Startup, error) {
	return s.createOut, s.createErr
}

func (s *fakeStartupSvc) Get(ctx context.Context, id string) (*domain.Startup, error) {
	return s.getOut, s.getErr
}

func (s *fakeStartupSvc) List(ctx context.Context, q url.Values) (*pagination.Page[domain.Startup], error) {
	s.listQ = q
	return s.listOut, s.listErr
}

func (s *fakeStartupSvc) Update(ctx context.Context, userID, id string, input map[string]any) (*domain.Startup, error) {
	return s.updateOut, s.updateErr
}

func (s *fakeStartupSvc) Delete(ctx context.Context, userID, id string) error {
	return s.deleteErr
}

func (s *fakeStartupSvc) Upvote(ctx context.Context, userID, id string) (*domain.Startup, error) {
	return s.upvoteOut, s.upvoteErr
}

type fakeCommentSvc struct {
	addOut  *domain.Comment
	addErr  error
	pageOut *pagination.Page[domain.Comment]
	pageErr error
}

func (s *fakeCommentSvc) Add(ctx context.Context, authorID, startupID string, input map[string]any) (*domain.Comment, error) {
	return s.addOut, s.addErr
}

func (s *fakeCommentSvc) ListPage(ctx context.Context, startupID string, page, perPage int) (*pagination.Page[domain.Comment], error) {
	return s.pageOut, s.pageErr
}

type fakeCategorySvc struct {
	createOut *domain.Category
	createErr error
	listOut   []domain.Category
	slugOut   *domain.Category
	slugErr   error
}

func (s *fakeCategorySvc) Create(ctx context.Context, input map[string]any) (*domain.Category, error) {
	return s.createOut, s.createErr
}

func (s *fakeCategorySvc) List(ctx context.Context) ([]domain.Category, error) {
	return s.listOut, nil
}

func (s *fakeCategorySvc) GetBySlug(ctx context.Context, slug string) (*domain.Category, error) {
	return s.slugOut, s.slugErr
}

type fakeSuggestSvc struct {
	out []search.Suggestion
	err error
}

func (s *fakeSuggestSvc) Suggest(ctx context.Context, term string) ([]search.Suggestion, error) {
	return s.out, s.err
}

// newRouter mounts the handlers under test with the fakes; the db and
// broker stay nil so ETag and stream paths are exercised separately.
func newRouter(h *Handlers) *gin.Engine {
	r := gin.New()
	r.POST("/startups", h.CreateStartup)
	r.GET("/startups", h.ListStartups)
	r.GET("/startups/:id", h.GetStartup)
	r.PATCH("/startups/:id", h.UpdateStartup)
	r.DELETE("/startups/:id", h.DeleteStartup)
	r.POST("/startups/:id/upvote", h.UpvoteStartup)
	r.POST("/startups/:id/comments", h.AddComment)
	r.GET("/startups/:id/comments", h.ListComments)
	r.POST("/categories", h.CreateCategory)
	r.GET("/categories", h.ListCategories)
	r.GET("/categories/:slug", h.GetCategory)
	r.GET("/suggest", h.Suggest)
	return r
}

func do(r *gin.Engine, method, path, user, body string) *httptest.ResponseRecorder {
	var rd *strings.Reader
	if body != "" {
		rd = strings.NewReader(body)
	} else {
		rd = strings.NewReader("")
	}
	req := httptest.NewRequest(method, path, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if user != "" {
		req.Header.Set("X-User-ID", user)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) apperr.Formatted {
	t.Helper()
	var env ErrorEnvelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode error envelope: %v (%s)", err, w.Body.String())
	}
	return env.Error
}

// ----- Tests -----

func TestCreateStartup_Created(t *testing.T) {
	svc := &fakeStartupSvc{createOut: &domain.Startup{ID: "s1", Name: "Aimee Labs"}}
	h := New(svc, &fakeCommentSvc{}, &fakeCategorySvc{}, &fakeSuggestSvc{}, nil, nil, true)
	r := newRouter(h)

	w := do(r, http.MethodPost, "/startups", "u1", `{"name":"Aimee Labs"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), `"data"`) {
		t.Fatalf("body missing data envelope: %s", w.Body.String())
	}
}

func TestCreateStartup_RequiresIdentity(t *testing.T) {
	h := New(&fakeStartupSvc{}, &fakeCommentSvc{}, &fakeCategorySvc{}, &fakeSuggestSvc{}, nil, nil, true)
	r := newRouter(h)

	w := do(r, http.MethodPost, "/startups", "", `{"name":"x"}`)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", w.Code)
	}
	if e := decodeError(t, w); e.Code != apperr.CodeUnauthenticated {
		t.Fatalf("code = %q", e.Code)
	}
}

func TestCreateStartup_ValidationEnvelope(t *testing.T) {
	svc := &fakeStartupSvc{createErr: apperr.Validation([]validation.FieldError{
		{Field: "name", Code: "required", Message: "name is required"},
		{Field: "url", Code: "pattern", Message: "url must match the expected format"},
	})}
	h := New(svc, &fakeCommentSvc{}, &fakeCategorySvc{}, &fakeSuggestSvc{}, nil, nil, true)
	r := newRouter(h)

	w := do(r, http.MethodPost, "/startups", "u1", `{}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
	e := decodeError(t, w)
	if e.Code != apperr.CodeValidation || len(e.Details) != 2 {
		t.Fatalf("error = %+v", e)
	}
	if e.Details[0].Field != "name" || e.Details[1].Field != "url" {
		t.Fatalf("details out of order: %+v", e.Details)
	}
}

func TestCreateStartup_MalformedBody(t *testing.T) {
	h := New(&fakeStartupSvc{}, &fakeCommentSvc{}, &fakeCategorySvc{}, &fakeSuggestSvc{}, nil, nil, true)
	r := newRouter(h)

	w := do(r, http.MethodPost, "/startups", "u1", `{"name": `)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
	if e := decodeError(t, w); e.Code != apperr.CodeValidation {
		t.Fatalf("code = %q", e.Code)
	}
}

func TestGetStartup_NotFoundEnvelope(t *testing.T) {
	svc := &fakeStartupSvc{getErr: apperr.NotFound("Startup", "999")}
	h := New(svc, &fakeCommentSvc{}, &fakeCategorySvc{}, &fakeSuggestSvc{}, nil, nil, true)
	r := newRouter(h)

	w := do(r, http.MethodGet, "/startups/999", "", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d", w.Code)
	}
	e := decodeError(t, w)
	if e.Code != apperr.CodeNotFound || e.Message != "Startup with id '999' not found" {
		t.Fatalf("error = %+v", e)
	}
	if e.Resource != "Startup" {
		t.Fatalf("resource = %q", e.Resource)
	}
}

func TestGetStartup_InternalMaskedInProduction(t *testing.T) {
	svc := &fakeStartupSvc{getErr: apperr.Internal(errDiskFull)}
	h := New(svc, &fakeCommentSvc{}, &fakeCategorySvc{}, &fakeSuggestSvc{}, nil, nil, true)
	r := newRouter(h)

	w := do(r, http.MethodGet, "/startups/s1", "", "")
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", w.Code)
	}
	e := decodeError(t, w)
	if e.Message != "An unexpected error occurred." || e.Stack != "" {
		t.Fatalf("internal detail leaked: %+v", e)
	}
	if strings.Contains(w.Body.String(), "disk full") {
		t.Fatalf("cause leaked: %s", w.Body.String())
	}
}

var errDiskFull = errTest("disk full")

type errTest string

func (e errTest) Error() string { return string(e) }

func TestListStartups_PageEnvelope(t *testing.T) {
	page := pagination.New([]domain.Startup{{ID: "s1", Name: "Aimee Labs"}}, 1, 1, 20)
	svc := &fakeStartupSvc{listOut: &page}
	h := New(svc, &fakeCommentSvc{}, &fakeCategorySvc{}, &fakeSuggestSvc{}, nil, nil, true)
	r := newRouter(h)

	w := do(r, http.MethodGet, "/startups?search=ai&category=1", "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if svc.listQ.Get("search") != "ai" || svc.listQ.Get("category") != "1" {
		t.Fatalf("query not forwarded: %v", svc.listQ)
	}
	var body struct {
		Data       []domain.Startup `json:"data"`
		Pagination pagination.Meta  `json:"pagination"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Data) != 1 || body.Pagination.Total != 1 {
		t.Fatalf("page = %+v", body)
	}
}

func TestDeleteStartup_NoContent(t *testing.T) {
	h := New(&fakeStartupSvc{}, &fakeCommentSvc{}, &fakeCategorySvc{}, &fakeSuggestSvc{}, nil, nil, true)
	r := newRouter(h)

	w := do(r, http.MethodDelete, "/startups/s1", "u1", "")
	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestUpvoteStartup_Conflict(t *testing.T) {
	svc := &fakeStartupSvc{upvoteErr: apperr.Conflict("You have already upvoted this startup")}
	h := New(svc, &fakeCommentSvc{}, &fakeCategorySvc{}, &fakeSuggestSvc{}, nil, nil, true)
	r := newRouter(h)

	w := do(r, http.MethodPost, "/startups/s1/upvote", "u1", "")
	if w.Code != http.StatusConflict {
		t.Fatalf("status = %d", w.Code)
	}
	if e := decodeError(t, w); e.Code != apperr.CodeConflict {
		t.Fatalf("code = %q", e.Code)
	}
}

func TestSuggest_OK(t *testing.T) {
	svc := &fakeSuggestSvc{out: []search.Suggestion{{ID: "s1", Name: "Aimee Labs", Score: 0.5}}}
	h := New(&fakeStartupSvc{}, &fakeCommentSvc{}, &fakeCategorySvc{}, svc, nil, nil, true)
	r := newRouter(h)

	w := do(r, http.MethodGet, "/suggest?q=aimee", "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Aimee Labs") {
		t.Fatalf("body = %s", w.Body.String())
	}
}

func TestCategoryRoutes(t *testing.T) {
	svc := &fakeCategorySvc{
		createOut: &domain.Category{ID: 1, Name: "AI", Slug: "ai"},
		listOut:   []domain.Category{{ID: 1, Name: "AI", Slug: "ai"}},
		slugErr:   apperr.NotFound("Category", "nope"),
	}
	h := New(&fakeStartupSvc{}, &fakeCommentSvc{}, svc, &fakeSuggestSvc{}, nil, nil, true)
	r := newRouter(h)

	if w := do(r, http.MethodPost, "/categories", "u1", `{"name":"AI"}`); w.Code != http.StatusCreated {
		t.Fatalf("create status = %d", w.Code)
	}
	if w := do(r, http.MethodGet, "/categories", "", ""); w.Code != http.StatusOK {
		t.Fatalf("list status = %d", w.Code)
	}
	w := do(r, http.MethodGet, "/categories/nope", "", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("slug status = %d", w.Code)
	}
}

func TestAddComment_Created(t *testing.T) {
	svc := &fakeCommentSvc{addOut: &domain.Comment{ID: "c1", StartupID: "s1", Body: "nice"}}
	h := New(&fakeStartupSvc{}, svc, &fakeCategorySvc{}, &fakeSuggestSvc{}, nil, nil, true)
	r := newRouter(h)

	w := do(r, http.MethodPost, "/startups/s1/comments", "u1", `{"body":"nice"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
}

func TestListComments_OK(t *testing.T) {
	page := pagination.New([]domain.Comment{{ID: "c1", Body: "nice"}}, 1, 1, 20)
	svc := &fakeCommentSvc{pageOut: &page}
	h := New(&fakeStartupSvc{}, svc, &fakeCategorySvc{}, &fakeSuggestSvc{}, nil, nil, true)
	r := newRouter(h)

	w := do(r, http.MethodGet, "/startups/s1/comments?page=1&per_page=20", "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"pagination"`) {
		t.Fatalf("body = %s", w.Body.String())
	}
}

func TestClampPagination(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/x?page=-2&per_page=9999", nil)
	page, perPage := clampPagination(c)
	if page != 1 || perPage != 100 {
		t.Fatalf("clamped = %d/%d", page, perPage)
	}

	c, _ = gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/x", nil)
	page, perPage = clampPagination(c)
	if page != 1 || perPage != 20 {
		t.Fatalf("defaults = %d/%d", page, perPage)
	}
}
