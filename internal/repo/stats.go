// Package repo – aggregate/statistics queries used primarily for
// conditional responses (ETag generation) in the HTTP layer.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/launchpadhq/launchpad-backend/internal/domain"
)

// StartupsStats returns the total number of listings and the maximum
// UpdatedAt among them. When the directory is empty the count is 0 and
// maxUpdatedAt is nil. Two lightweight queries; MAX() is avoided because
// SQLite would return it as TEXT.
func StartupsStats(ctx context.Context, db *gorm.DB) (count int64, maxUpdatedAt *time.Time, err error) {
	q := db.WithContext(ctx).Model(&domain.Startup{})

	if err = q.Count(&count).Error; err != nil {
		return 0, nil, err
	}
	if count == 0 {
		return 0, nil, nil
	}

	var row struct {
		UpdatedAt time.Time
	}
	if err = q.Select("updated_at").Order("updated_at DESC").Limit(1).Scan(&row).Error; err != nil {
		return 0, nil, err
	}
	return count, &row.UpdatedAt, nil
}

// CommentsStats returns the comment count and the maximum UpdatedAt for
// one startup, for weak ETags on the comment list.
func CommentsStats(ctx context.Context, db *gorm.DB, startupID string) (count int64, maxUpdatedAt *time.Time, err error) {
	q := db.WithContext(ctx).Model(&domain.Comment{}).Where("startup_id = ?", startupID)

	if err = q.Count(&count).Error; err != nil {
		return 0, nil, err
	}
	if count == 0 {
		return 0, nil, nil
	}

	var row struct {
		UpdatedAt time.Time
	}
	if err = q.Select("updated_at").Order("updated_at DESC").Limit(1).Scan(&row).Error; err != nil {
		return 0, nil, err
	}
	return count, &row.UpdatedAt, nil
}
