// Package repo – category persistence.
package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/launchpadhq/launchpad-backend/internal/domain"
)

// CreateCategory inserts a category. Name and slug carry unique indexes;
// duplicates surface as constraint errors for the service to map.
func CreateCategory(ctx context.Context, db *gorm.DB, c *domain.Category) error {
	return db.WithContext(ctx).Create(c).Error
}

// ListCategories returns all categories ordered by name.
func ListCategories(ctx context.Context, db *gorm.DB) ([]domain.Category, error) {
	var out []domain.Category
	err := db.WithContext(ctx).Order("name asc").Find(&out).Error
	return out, err
}

// GetCategory fetches a category by numeric ID, or ErrNotFound.
func GetCategory(ctx context.Context, db *gorm.DB, id uint) (*domain.Category, error) {
	var c domain.Category
	if err := db.WithContext(ctx).Where("id = ?", id).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// GetCategoryBySlug fetches a category by slug, or ErrNotFound.
func GetCategoryBySlug(ctx context.Context, db *gorm.DB, slug string) (*domain.Category, error) {
	var c domain.Category
	if err := db.WithContext(ctx).Where("slug = ?", slug).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}
