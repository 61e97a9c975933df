// Package repo – comment persistence.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/launchpadhq/launchpad-backend/internal/domain"
)

// CreateComment inserts a comment with UUID primary key and UTC
// timestamp, returning the persisted row.
func CreateComment(ctx context.Context, db *gorm.DB, startupID, authorID, body string) (*domain.Comment, error) {
	c := &domain.Comment{
		ID:        uuid.NewString(),
		StartupID: startupID,
		AuthorID:  authorID,
		Body:      body,
		CreatedAt: time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(c).Error; err != nil {
		return nil, err
	}
	return c, nil
}

// CountComments returns the total number of comments on a startup.
func CountComments(ctx context.Context, db *gorm.DB, startupID string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.Comment{}).
		Where("startup_id = ?", startupID).
		Count(&total).Error
	return total, err
}

// ListCommentsPage returns a page of comments for a startup, newest
// first. The caller computes offset and limit.
func ListCommentsPage(ctx context.Context, db *gorm.DB, startupID string, offset, limit int) ([]domain.Comment, error) {
	var out []domain.Comment
	err := db.WithContext(ctx).
		Where("startup_id = ?", startupID).
		Order("created_at desc").
		Order("id asc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}
