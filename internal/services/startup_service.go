// Package services – StartupService
//
// This file implements the StartupService, which owns the lifecycle of
// startup listings: validated submission, detail lookup, paginated and
// filtered listing, partial updates, one-vote-per-user upvoting, and
// soft deletion. All anticipated failures are returned as *apperr.Error
// so the HTTP layer can format them without inspecting causes.
package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"gorm.io/gorm"

	"github.com/launchpadhq/launchpad-backend/internal/apperr"
	"github.com/launchpadhq/launchpad-backend/internal/domain"
	"github.com/launchpadhq/launchpad-backend/internal/pagination"
	"github.com/launchpadhq/launchpad-backend/internal/query"
	"github.com/launchpadhq/launchpad-backend/internal/validation"
)

// StartupRepo defines the repository contract required by StartupService.
// Implementations are responsible for persistence of startup listings and
// their vote markers.
type StartupRepo interface {
	// CreateStartup inserts a new listing, assigning its ID.
	CreateStartup(ctx context.Context, db *gorm.DB, s *domain.Startup) error

	// GetStartup fetches a listing by ID.
	GetStartup(ctx context.Context, db *gorm.DB, id string) (*domain.Startup, error)

	// CountStartups returns the total matching the list predicate.
	CountStartups(ctx context.Context, db *gorm.DB, o query.Options, lq query.ListQuery) (int64, error)

	// ListStartupsPage returns one page under the same predicate.
	ListStartupsPage(ctx context.Context, db *gorm.DB, o query.Options, lq query.ListQuery) ([]domain.Startup, error)

	// UpdateStartupFields applies a partial update.
	UpdateStartupFields(ctx context.Context, db *gorm.DB, id string, fields map[string]any) error

	// DeleteStartup soft-deletes a listing.
	DeleteStartup(ctx context.Context, db *gorm.DB, id string) error

	// CreateUpvote records the (startup, user) vote marker.
	CreateUpvote(ctx context.Context, db *gorm.DB, startupID, userID string) error

	// IncrementUpvotes bumps the denormalized counter.
	IncrementUpvotes(ctx context.Context, db *gorm.DB, startupID string) error
}

// CategoryLookup is the slice of the category repository StartupService
// needs: existence checks on submission and update.
type CategoryLookup interface {
	GetCategory(ctx context.Context, db *gorm.DB, id uint) (*domain.Category, error)
}

// urlRE accepts absolute http(s) URLs with a dotted host. Stricter parsing
// is the frontend's job; this guards against garbage, not typos.
var urlRE = regexp.MustCompile(`^https?://[^\s/]+\.[^\s]+$`)

// StartupService provides listing-level operations. It validates input,
// enforces uniqueness and vote rules, and coordinates the repository.
type StartupService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the startup repository used by this service.
	Repo StartupRepo
	// Categories resolves category references on write.
	Categories CategoryLookup

	// ListOpts declares what the list endpoint accepts.
	ListOpts query.Options

	createSchema *validation.Schema
	updateSchema *validation.Schema
}

// NewStartupService constructs a StartupService with the listing schemas
// and list options wired in. perPage/maxPerPage come from configuration.
func NewStartupService(db *gorm.DB, r StartupRepo, cats CategoryLookup, perPage, maxPerPage int) *StartupService {
	required := startupFields(true)
	optional := startupFields(false)
	return &StartupService{
		DB:         db,
		Repo:       r,
		Categories: cats,
		ListOpts: query.Options{
			SortKeys: map[string]string{
				"created_at": "created_at",
				"name":       "name",
				"upvotes":    "upvotes",
			},
			DefaultSort:  "created_at",
			DefaultOrder: query.Desc,
			Filters: []query.Filter{
				{Name: "category", Column: "category_id", Type: validation.Int, Min: validation.MinOf(1)},
				{Name: "min_upvotes", Column: "upvotes", Type: validation.Int, Op: ">=", Min: validation.MinOf(0)},
			},
			SearchColumns:  []string{"name", "tagline", "description"},
			DefaultPerPage: perPage,
			MaxPerPage:     maxPerPage,
		},
		createSchema: validation.New(required...),
		updateSchema: validation.New(optional...),
	}
}

// startupFields declares the submission shape once; the update schema is
// the same shape with nothing required.
func startupFields(required bool) []validation.Field {
	return []validation.Field{
		{Name: "name", Type: validation.String, Required: required, MinLen: 2, MaxLen: 80},
		{Name: "tagline", Type: validation.String, Required: required, MinLen: 2, MaxLen: 140},
		{Name: "description", Type: validation.String, Required: required, MinLen: 10, MaxLen: 5000},
		{Name: "url", Type: validation.String, Required: required, MaxLen: 2048, Pattern: urlRE},
		{Name: "category_id", Type: validation.Int, Required: required, Min: validation.MinOf(1)},
	}
}

// Create validates the submission, checks the category reference, and
// inserts the listing. A duplicate URL maps to CONFLICT.
func (s *StartupService) Create(ctx context.Context, submitterID string, input map[string]any) (*domain.Startup, error) {
	vals, ferrs := s.createSchema.Validate(input)
	if ferrs != nil {
		return nil, apperr.Validation(ferrs)
	}

	categoryID := uint(vals["category_id"].(int64))
	if _, err := s.Categories.GetCategory(ctx, s.DB, categoryID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("Category", fmt.Sprint(categoryID))
		}
		return nil, apperr.Internal(err)
	}

	st := &domain.Startup{
		Name:        vals["name"].(string),
		Tagline:     vals["tagline"].(string),
		Description: vals["description"].(string),
		URL:         vals["url"].(string),
		CategoryID:  categoryID,
		SubmitterID: submitterID,
	}
	if err := s.Repo.CreateStartup(ctx, s.DB, st); err != nil {
		if isUniqueViolation(err) {
			return nil, apperr.Conflict("A startup with this URL is already listed")
		}
		return nil, apperr.Internal(err)
	}
	return st, nil
}

// Get returns one listing by ID.
func (s *StartupService) Get(ctx context.Context, id string) (*domain.Startup, error) {
	st, err := s.Repo.GetStartup(ctx, s.DB, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("Startup", id)
		}
		return nil, apperr.Internal(err)
	}
	return st, nil
}

// List validates the raw query string against the list options and
// returns one page plus the total under the same predicate. A page past
// the end yields empty data with an accurate total.
func (s *StartupService) List(ctx context.Context, q url.Values) (*pagination.Page[domain.Startup], error) {
	lq, ferrs := s.ListOpts.Parse(q)
	if ferrs != nil {
		return nil, apperr.Validation(ferrs)
	}

	total, err := s.Repo.CountStartups(ctx, s.DB, s.ListOpts, lq)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	var rows []domain.Startup
	if total > 0 {
		rows, err = s.Repo.ListStartupsPage(ctx, s.DB, s.ListOpts, lq)
		if err != nil {
			return nil, apperr.Internal(err)
		}
	}
	page := pagination.New(rows, total, lq.Page, lq.PerPage)
	return &page, nil
}

// Update applies a partial update to a listing the caller submitted.
// Unknown fields are dropped; present fields are validated with the same
// rules as submission. An empty patch is a no-op returning current state.
func (s *StartupService) Update(ctx context.Context, userID, id string, input map[string]any) (*domain.Startup, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.SubmitterID != userID {
		return nil, apperr.Forbidden()
	}

	vals, ferrs := s.updateSchema.Validate(input)
	if ferrs != nil {
		return nil, apperr.Validation(ferrs)
	}
	if len(vals) == 0 {
		return current, nil
	}

	if raw, ok := vals["category_id"]; ok {
		categoryID := uint(raw.(int64))
		if _, err := s.Categories.GetCategory(ctx, s.DB, categoryID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperr.NotFound("Category", fmt.Sprint(categoryID))
			}
			return nil, apperr.Internal(err)
		}
	}

	if err := s.Repo.UpdateStartupFields(ctx, s.DB, id, vals); err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return nil, apperr.NotFound("Startup", id)
		case isUniqueViolation(err):
			return nil, apperr.Conflict("A startup with this URL is already listed")
		default:
			return nil, apperr.Internal(err)
		}
	}
	return s.Get(ctx, id)
}

// Delete soft-deletes a listing the caller submitted.
func (s *StartupService) Delete(ctx context.Context, userID, id string) error {
	current, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if current.SubmitterID != userID {
		return apperr.Forbidden()
	}
	if err := s.Repo.DeleteStartup(ctx, s.DB, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("Startup", id)
		}
		return apperr.Internal(err)
	}
	return nil
}

// Upvote records one vote by userID on the listing. The vote marker and
// the counter bump commit atomically; a repeat vote maps to CONFLICT and
// leaves the counter untouched.
func (s *StartupService) Upvote(ctx context.Context, userID, id string) (*domain.Startup, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.Repo.CreateUpvote(ctx, tx, id, userID); err != nil {
			return err
		}
		return s.Repo.IncrementUpvotes(ctx, tx, id)
	})
	if err != nil {
		if isUniqueViolation(err) {
			return nil, apperr.Conflict("You have already upvoted this startup")
		}
		return nil, apperr.Internal(err)
	}
	return s.Get(ctx, id)
}

// isUniqueViolation reports whether err is a SQLite unique-index failure.
// The driver exposes it only as message text.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
