// Package repo – startup persistence.
//
// All functions are context-aware and accept a *gorm.DB handle, making
// them safe for use within transactions or connection-scoped operations.
// They follow the "thin repository" approach: no business logic, only
// CRUD persistence and query composition.
//
// Error semantics:
//   - When a startup is not found, functions return ErrNotFound
//     (gorm.ErrRecordNotFound).
//   - On other DB errors (constraint violations, connectivity issues),
//     the raw gorm error is propagated; the service layer maps it.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/launchpadhq/launchpad-backend/internal/domain"
	"github.com/launchpadhq/launchpad-backend/internal/query"
)

// CreateStartup inserts a new listing. The ID is a randomly generated
// UUID and CreatedAt is set to UTC. The caller provides validated copy.
func CreateStartup(ctx context.Context, db *gorm.DB, s *domain.Startup) error {
	s.ID = uuid.NewString()
	s.CreatedAt = time.Now().UTC()
	return db.WithContext(ctx).Create(s).Error
}

// GetStartup fetches a single startup by ID, or ErrNotFound.
func GetStartup(ctx context.Context, db *gorm.DB, id string) (*domain.Startup, error) {
	var s domain.Startup
	if err := db.WithContext(ctx).Where("id = ?", id).First(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

// CountStartups returns the number of rows matching the list predicate.
// It must be called with the same Options and ListQuery as
// ListStartupsPage so total and page agree.
func CountStartups(ctx context.Context, db *gorm.DB, o query.Options, lq query.ListQuery) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.Startup{}).
		Scopes(o.Predicate(lq)).
		Count(&total).Error
	return total, err
}

// ListStartupsPage returns one page of startups for the given list
// parameters: shared predicate, allow-listed ordering, LIMIT/OFFSET.
func ListStartupsPage(ctx context.Context, db *gorm.DB, o query.Options, lq query.ListQuery) ([]domain.Startup, error) {
	var out []domain.Startup
	err := db.WithContext(ctx).
		Model(&domain.Startup{}).
		Scopes(o.Predicate(lq), o.Ordered(lq)).
		Find(&out).Error
	return out, err
}

// ListAllStartupsLite returns id/name/tagline for every listing, used to
// build the in-memory suggestion index. Descriptions are skipped to keep
// the copy small.
func ListAllStartupsLite(ctx context.Context, db *gorm.DB) ([]domain.Startup, error) {
	var out []domain.Startup
	err := db.WithContext(ctx).
		Model(&domain.Startup{}).
		Select("id", "name", "tagline").
		Order("created_at desc").
		Find(&out).Error
	return out, err
}

// UpdateStartupFields applies a partial update to the startup identified
// by id. Returns ErrNotFound when no row was touched.
func UpdateStartupFields(ctx context.Context, db *gorm.DB, id string, fields map[string]any) error {
	res := db.WithContext(ctx).
		Model(&domain.Startup{}).
		Where("id = ?", id).
		Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteStartup soft-deletes a listing. Returns ErrNotFound when the row
// does not exist (or was already deleted).
func DeleteStartup(ctx context.Context, db *gorm.DB, id string) error {
	res := db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&domain.Startup{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// CreateUpvote inserts the (startup, user) vote marker. The unique index
// on (startup_id, user_id) turns a repeat vote into a constraint error,
// which the service maps to Conflict.
func CreateUpvote(ctx context.Context, db *gorm.DB, startupID, userID string) error {
	v := &domain.Upvote{
		ID:        uuid.NewString(),
		StartupID: startupID,
		UserID:    userID,
		CreatedAt: time.Now().UTC(),
	}
	return db.WithContext(ctx).Create(v).Error
}

// IncrementUpvotes bumps the denormalized counter. Call inside the same
// transaction as CreateUpvote.
func IncrementUpvotes(ctx context.Context, db *gorm.DB, startupID string) error {
	res := db.WithContext(ctx).
		Model(&domain.Startup{}).
		Where("id = ?", startupID).
		UpdateColumn("upvotes", gorm.Expr("upvotes + 1"))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
