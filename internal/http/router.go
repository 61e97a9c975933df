// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging, panic recovery, metrics, CORS,
// security headers, compression, and rate limiting.
//
// Design goals:
//   - Put observability first (OTel + Prometheus)
//   - Safe-by-default middleware ordering (RequestID → logging → recovery)
//   - Deterministic, minimal router setup; all dependencies injected
//   - Production-ready CORS and security header posture
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	_ "github.com/launchpadhq/launchpad-backend/docs"
	"github.com/launchpadhq/launchpad-backend/internal/apperr"
	"github.com/launchpadhq/launchpad-backend/internal/config"
	"github.com/launchpadhq/launchpad-backend/internal/domain"
	"github.com/launchpadhq/launchpad-backend/internal/http/handlers"
	"github.com/launchpadhq/launchpad-backend/internal/http/middleware"
	"github.com/launchpadhq/launchpad-backend/internal/pubsub"
	"github.com/launchpadhq/launchpad-backend/internal/query"
	"github.com/launchpadhq/launchpad-backend/internal/repo"
	"github.com/launchpadhq/launchpad-backend/internal/services"
)

// startupRepoShim adapts the repository free functions to the
// services.StartupRepo interface. This keeps services decoupled from the
// concrete repo package while reusing existing functions.
type startupRepoShim struct{}

func (startupRepoShim) CreateStartup(ctx context.Context, db *gorm.DB, s *domain.Startup) error {
	return repo.CreateStartup(ctx, db, s)
}

func (startupRepoShim) GetStartup(ctx context.Context, db *gorm.DB, id string) (*domain.Startup, error) {
	return repo.GetStartup(ctx, db, id)
}

func (startupRepoShim) CountStartups(ctx context.Context, db *gorm.DB, o query.Options, lq query.ListQuery) (int64, error) {
	return repo.CountStartups(ctx, db, o, lq)
}

func (startupRepoShim) ListStartupsPage(ctx context.Context, db *gorm.DB, o query.Options, lq query.ListQuery) ([]domain.Startup, error) {
	return repo.ListStartupsPage(ctx, db, o, lq)
}

func (startupRepoShim) UpdateStartupFields(ctx context.Context, db *gorm.DB, id string, fields map[string]any) error {
	return repo.UpdateStartupFields(ctx, db, id, fields)
}

func (startupRepoShim) DeleteStartup(ctx context.Context, db *gorm.DB, id string) error {
	return repo.DeleteStartup(ctx, db, id)
}

func (startupRepoShim) CreateUpvote(ctx context.Context, db *gorm.DB, startupID, userID string) error {
	return repo.CreateUpvote(ctx, db, startupID, userID)
}

func (startupRepoShim) IncrementUpvotes(ctx context.Context, db *gorm.DB, startupID string) error {
	return repo.IncrementUpvotes(ctx, db, startupID)
}

func (startupRepoShim) ListAllStartupsLite(ctx context.Context, db *gorm.DB) ([]domain.Startup, error) {
	return repo.ListAllStartupsLite(ctx, db)
}

// commentRepoShim adapts the repository free functions to the
// services.CommentRepo interface.
type commentRepoShim struct{}

func (commentRepoShim) CreateComment(ctx context.Context, db *gorm.DB, startupID, authorID, body string) (*domain.Comment, error) {
	return repo.CreateComment(ctx, db, startupID, authorID, body)
}

func (commentRepoShim) CountComments(ctx context.Context, db *gorm.DB, startupID string) (int64, error) {
	return repo.CountComments(ctx, db, startupID)
}

func (commentRepoShim) ListCommentsPage(ctx context.Context, db *gorm.DB, startupID string, offset, limit int) ([]domain.Comment, error) {
	return repo.ListCommentsPage(ctx, db, startupID, offset, limit)
}

// categoryRepoShim adapts the repository free functions to the
// services.CategoryRepo interface.
type categoryRepoShim struct{}

func (categoryRepoShim) CreateCategory(ctx context.Context, db *gorm.DB, c *domain.Category) error {
	return repo.CreateCategory(ctx, db, c)
}

func (categoryRepoShim) ListCategories(ctx context.Context, db *gorm.DB) ([]domain.Category, error) {
	return repo.ListCategories(ctx, db)
}

func (categoryRepoShim) GetCategory(ctx context.Context, db *gorm.DB, id uint) (*domain.Category, error) {
	return repo.GetCategory(ctx, db, id)
}

func (categoryRepoShim) GetCategoryBySlug(ctx context.Context, db *gorm.DB, slug string) (*domain.Category, error) {
	return repo.GetCategoryBySlug(ctx, db, slug)
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine: observability (tracing, metrics), rate limiting, CORS, security
// headers, compression, health and metrics endpoints, and the versioned
// public API under cfg.APIBasePath.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. Logger: structured logs with sensitive-header masking
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. Metrics
//  7. Rate limiter (per user/IP)
//  8. CORS, security headers, gzip (stream route excluded)
func RegisterRoutes(r *gin.Engine, db *gorm.DB, broker *pubsub.Broker, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured logging
	r.Use(middleware.Logger(middleware.LogOptions{
		MaskHeaders: []string{"X-API-Key"},
	}))

	// 4) Panic recovery to the JSON error envelope
	r.Use(middleware.Recovery())

	// 5) Global body size limit (1 MiB)
	r.Use(limitBody(1 << 20))

	// 6) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 7) Token-bucket rate limiter per user/IP
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByUserOrIP())
	r.Use(rl.Handler())

	// 8) CORS posture (safe defaults: allow all if none configured)
	if len(cfg.CORS.AllowedOrigins) == 0 {
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-User-ID"},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
			AllowCredentials: false, // must remain false with AllowAllOrigins
			MaxAge:           12 * time.Hour,
		}))
	} else {
		allowed := make(map[string]struct{}, len(cfg.CORS.AllowedOrigins))
		for _, o := range cfg.CORS.AllowedOrigins {
			allowed[o] = struct{}{}
		}
		r.Use(func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					h := c.Writer.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
			}
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-User-ID"},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	}

	// Security headers (HSTS only when enabled and request is HTTPS)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      false,
		EnablePolicy: true,
	}))

	// Compression; the SSE stream must not be buffered by gzip.
	r.Use(gzip.Gzip(gzip.DefaultCompression,
		gzip.WithExcludedPathsRegexs([]string{`.*/comments/stream$`})))

	// Fallbacks in the standard envelope
	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": gin.H{
			"code":       apperr.CodeNotFound,
			"message":    "Route not found",
			"request_id": apperr.RequestIDFrom(c.Request.Context()),
		}})
	})
	r.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{"error": gin.H{
			"code":       "METHOD_NOT_ALLOWED",
			"message":    "Method not allowed",
			"request_id": apperr.RequestIDFrom(c.Request.Context()),
		}})
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	// API docs (opt-in)
	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Dependency injection: services ← repo/db/broker
	startupSvc := services.NewStartupService(db, startupRepoShim{}, categoryRepoShim{},
		cfg.DefaultPerPage, cfg.MaxPerPage)
	commentSvc := services.NewCommentService(db, commentRepoShim{}, startupRepoShim{}, broker)
	categorySvc := services.NewCategoryService(db, categoryRepoShim{})
	suggestSvc := services.NewSuggestService(db, startupRepoShim{})

	h := handlers.New(startupSvc, commentSvc, categorySvc, suggestSvc, broker, db, cfg.Production())

	// Public API
	api := groupWithPrefix(r, cfg.APIBasePath)
	{
		// Startups
		api.POST("/startups", h.CreateStartup)
		api.GET("/startups", h.ListStartups)
		api.GET("/startups/:id", h.GetStartup)
		api.PATCH("/startups/:id", h.UpdateStartup)
		api.DELETE("/startups/:id", h.DeleteStartup)
		api.POST("/startups/:id/upvote", h.UpvoteStartup)

		// Comments
		api.POST("/startups/:id/comments", h.AddComment)
		api.GET("/startups/:id/comments", h.ListComments)
		api.GET("/startups/:id/comments/stream", h.StreamComments)

		// Categories
		api.POST("/categories", h.CreateCategory)
		api.GET("/categories", h.ListCategories)
		api.GET("/categories/:slug", h.GetCategory)

		// Suggestions
		api.GET("/suggest", h.Suggest)
	}
}

// limitBody caps the request body for all endpoints using
// http.MaxBytesReader; reads past the cap error downstream.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
