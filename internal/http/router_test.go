package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
	glogger "gorm.io/gorm/logger"

	"github.com/launchpadhq/launchpad-backend/internal/config"
	"github.com/launchpadhq/launchpad-backend/internal/pubsub"
	"github.com/launchpadhq/launchpad-backend/internal/repo"
)

func init() { gin.SetMode(gin.TestMode) }

func newTestApp(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:router_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: glogger.Default.LogMode(glogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.Exec("PRAGMA foreign_keys=ON;")
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}

	cfg := config.Config{
		Env:             "production",
		APIBasePath:     "/api/v1",
		DefaultPerPage:  20,
		MaxPerPage:      100,
		RateRPS:         1000,
		RateBurst:       1000,
		StreamWarnDepth: 100,
		Security:        config.SecurityConfig{HSTSMaxAge: 180 * 24 * time.Hour},
	}

	r := gin.New()
	RegisterRoutes(r, db, pubsub.New(), cfg)
	return r, db
}

func request(r *gin.Engine, method, path, user, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if user != "" {
		req.Header.Set("X-User-ID", user)
	}
	// Skip gzip decoding in assertions.
	req.Header.Set("Accept-Encoding", "identity")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRouter_Health(t *testing.T) {
	r, _ := newTestApp(t)

	w := request(r, http.MethodGet, "/health", "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"ok"`) {
		t.Fatalf("body = %s", w.Body.String())
	}
}

func TestRouter_MetricsEndpoint(t *testing.T) {
	r, _ := newTestApp(t)

	w := request(r, http.MethodGet, "/metrics", "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestRouter_NoRouteEnvelope(t *testing.T) {
	r, _ := newTestApp(t)

	w := request(r, http.MethodGet, "/nope", "", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "NOT_FOUND") {
		t.Fatalf("body = %s", w.Body.String())
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Fatal("X-Request-ID missing")
	}
}

func TestRouter_EndToEndLifecycle(t *testing.T) {
	r, _ := newTestApp(t)

	// Category first; startups reference it.
	w := request(r, http.MethodPost, "/api/v1/categories", "admin", `{"name":"AI"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("create category = %d: %s", w.Code, w.Body.String())
	}
	var catEnv struct {
		Data struct {
			ID   uint   `json:"id"`
			Slug string `json:"slug"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &catEnv); err != nil {
		t.Fatalf("decode category: %v", err)
	}

	// Submit a startup.
	payload := fmt.Sprintf(`{
		"name": "Aimee Labs",
		"tagline": "Applied AI for ops teams",
		"description": "Aimee Labs builds applied AI tooling for operations teams.",
		"url": "https://aimeelabs.example.com",
		"category_id": %d
	}`, catEnv.Data.ID)
	w = request(r, http.MethodPost, "/api/v1/startups", "founder", payload)
	if w.Code != http.StatusCreated {
		t.Fatalf("create startup = %d: %s", w.Code, w.Body.String())
	}
	var stEnv struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &stEnv); err != nil {
		t.Fatalf("decode startup: %v", err)
	}

	// Duplicate URL conflicts.
	w = request(r, http.MethodPost, "/api/v1/startups", "founder", payload)
	if w.Code != http.StatusConflict {
		t.Fatalf("duplicate url = %d: %s", w.Code, w.Body.String())
	}

	// List with search finds it.
	w = request(r, http.MethodGet, "/api/v1/startups?search=aimee", "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("list = %d: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "Aimee Labs") {
		t.Fatalf("list body = %s", w.Body.String())
	}

	// Upvote once, then conflict.
	path := "/api/v1/startups/" + stEnv.Data.ID + "/upvote"
	if w = request(r, http.MethodPost, path, "fan", ""); w.Code != http.StatusOK {
		t.Fatalf("upvote = %d: %s", w.Code, w.Body.String())
	}
	if w = request(r, http.MethodPost, path, "fan", ""); w.Code != http.StatusConflict {
		t.Fatalf("repeat upvote = %d: %s", w.Code, w.Body.String())
	}

	// Comment, then read it back.
	w = request(r, http.MethodPost, "/api/v1/startups/"+stEnv.Data.ID+"/comments", "fan", `{"body":"congrats on launching"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("comment = %d: %s", w.Code, w.Body.String())
	}
	w = request(r, http.MethodGet, "/api/v1/startups/"+stEnv.Data.ID+"/comments", "", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "congrats") {
		t.Fatalf("comments = %d: %s", w.Code, w.Body.String())
	}

	// Strangers cannot delete.
	w = request(r, http.MethodDelete, "/api/v1/startups/"+stEnv.Data.ID, "stranger", "")
	if w.Code != http.StatusForbidden {
		t.Fatalf("stranger delete = %d: %s", w.Code, w.Body.String())
	}
	w = request(r, http.MethodDelete, "/api/v1/startups/"+stEnv.Data.ID, "founder", "")
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete = %d: %s", w.Code, w.Body.String())
	}
	w = request(r, http.MethodGet, "/api/v1/startups/"+stEnv.Data.ID, "", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("get deleted = %d: %s", w.Code, w.Body.String())
	}
}

func TestRouter_ValidationErrorShape(t *testing.T) {
	r, _ := newTestApp(t)

	w := request(r, http.MethodPost, "/api/v1/startups", "founder", `{}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	var env struct {
		Error struct {
			Code    string `json:"code"`
			Details []struct {
				Field string `json:"field"`
				Code  string `json:"code"`
			} `json:"details"`
		} `json:"error"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.Error.Code != "VALIDATION_ERROR" || len(env.Error.Details) != 5 {
		t.Fatalf("error = %+v", env.Error)
	}
	if env.Error.Details[0].Field != "name" || env.Error.Details[4].Field != "category_id" {
		t.Fatalf("details order = %+v", env.Error.Details)
	}
}

func TestRouter_MethodNotAllowed(t *testing.T) {
	r, _ := newTestApp(t)

	w := request(r, http.MethodPut, "/api/v1/startups", "", "")
	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "METHOD_NOT_ALLOWED") {
		t.Fatalf("body = %s", w.Body.String())
	}
}
