// Package services – CategoryService
package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"gorm.io/gorm"

	"github.com/launchpadhq/launchpad-backend/internal/apperr"
	"github.com/launchpadhq/launchpad-backend/internal/domain"
	"github.com/launchpadhq/launchpad-backend/internal/validation"
)

// CategoryRepo defines the repository contract required by
// CategoryService.
type CategoryRepo interface {
	CreateCategory(ctx context.Context, db *gorm.DB, c *domain.Category) error
	ListCategories(ctx context.Context, db *gorm.DB) ([]domain.Category, error)
	GetCategory(ctx context.Context, db *gorm.DB, id uint) (*domain.Category, error)
	GetCategoryBySlug(ctx context.Context, db *gorm.DB, slug string) (*domain.Category, error)
}

// CategoryService manages the closed set of directory categories.
type CategoryService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the category repository used by this service.
	Repo CategoryRepo

	schema *validation.Schema
}

// NewCategoryService constructs a CategoryService.
func NewCategoryService(db *gorm.DB, r CategoryRepo) *CategoryService {
	return &CategoryService{
		DB:   db,
		Repo: r,
		schema: validation.New(
			validation.Field{Name: "name", Type: validation.String, Required: true, MinLen: 2, MaxLen: 60},
		),
	}
}

// Create inserts a category; the slug is derived from the name. A
// duplicate name or slug maps to CONFLICT.
func (s *CategoryService) Create(ctx context.Context, input map[string]any) (*domain.Category, error) {
	vals, ferrs := s.schema.Validate(input)
	if ferrs != nil {
		return nil, apperr.Validation(ferrs)
	}

	name := vals["name"].(string)
	c := &domain.Category{Name: name, Slug: Slugify(name)}
	if err := s.Repo.CreateCategory(ctx, s.DB, c); err != nil {
		if isUniqueViolation(err) {
			return nil, apperr.Conflict("A category with this name already exists")
		}
		return nil, apperr.Internal(err)
	}
	return c, nil
}

// List returns all categories ordered by name.
func (s *CategoryService) List(ctx context.Context) ([]domain.Category, error) {
	out, err := s.Repo.ListCategories(ctx, s.DB)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return out, nil
}

// Get returns one category by numeric ID.
func (s *CategoryService) Get(ctx context.Context, id uint) (*domain.Category, error) {
	c, err := s.Repo.GetCategory(ctx, s.DB, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("Category", fmt.Sprint(id))
		}
		return nil, apperr.Internal(err)
	}
	return c, nil
}

// GetBySlug returns one category by slug.
func (s *CategoryService) GetBySlug(ctx context.Context, slug string) (*domain.Category, error) {
	c, err := s.Repo.GetCategoryBySlug(ctx, s.DB, slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("Category", slug)
		}
		return nil, apperr.Internal(err)
	}
	return c, nil
}

// slugRE matches runs of characters that do not survive into a slug.
var slugRE = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lowercases name and collapses non-alphanumeric runs to single
// hyphens: "AI & ML Tools" becomes "ai-ml-tools".
func Slugify(name string) string {
	s := slugRE.ReplaceAllString(strings.ToLower(name), "-")
	return strings.Trim(s, "-")
}
