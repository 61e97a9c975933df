// Package services – CommentService
//
// Comments are the one write path that feeds the live event channel:
// after a comment commits, a CommentAdded event is published on the
// startup's channel so stream subscribers see it without polling.
// Publication happens after the transaction; subscribers never observe a
// comment that later rolled back.
package services

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/launchpadhq/launchpad-backend/internal/apperr"
	"github.com/launchpadhq/launchpad-backend/internal/domain"
	"github.com/launchpadhq/launchpad-backend/internal/pagination"
	"github.com/launchpadhq/launchpad-backend/internal/pubsub"
	"github.com/launchpadhq/launchpad-backend/internal/validation"
)

// CommentRepo defines the repository contract required by CommentService.
type CommentRepo interface {
	// CreateComment inserts a comment and returns the persisted row.
	CreateComment(ctx context.Context, db *gorm.DB, startupID, authorID, body string) (*domain.Comment, error)

	// CountComments returns the total for one startup.
	CountComments(ctx context.Context, db *gorm.DB, startupID string) (int64, error)

	// ListCommentsPage returns a page of comments, newest first.
	ListCommentsPage(ctx context.Context, db *gorm.DB, startupID string, offset, limit int) ([]domain.Comment, error)
}

// StartupLookup is the slice of the startup repository CommentService
// needs: existence checks before writing or listing.
type StartupLookup interface {
	GetStartup(ctx context.Context, db *gorm.DB, id string) (*domain.Startup, error)
}

// CommentAdded is the payload published on a startup's comment channel.
type CommentAdded struct {
	CommentID string    `json:"comment_id"`
	StartupID string    `json:"startup_id"`
	AuthorID  string    `json:"author_id"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// CommentChannel names the pub/sub channel carrying comment events for
// one startup.
func CommentChannel(startupID string) string {
	return "comment_added:" + startupID
}

// CommentService provides comment reads and writes plus event fan-out.
type CommentService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the comment repository used by this service.
	Repo CommentRepo
	// Startups resolves the parent listing.
	Startups StartupLookup
	// Broker receives CommentAdded events; nil disables publication.
	Broker *pubsub.Broker

	schema *validation.Schema
}

// NewCommentService constructs a CommentService with the body schema
// wired in.
func NewCommentService(db *gorm.DB, r CommentRepo, startups StartupLookup, broker *pubsub.Broker) *CommentService {
	return &CommentService{
		DB:       db,
		Repo:     r,
		Startups: startups,
		Broker:   broker,
		schema: validation.New(
			validation.Field{Name: "body", Type: validation.String, Required: true, MinLen: 1, MaxLen: 2000},
		),
	}
}

// Add validates and persists a comment on the startup, then publishes a
// CommentAdded event for live subscribers.
func (s *CommentService) Add(ctx context.Context, authorID, startupID string, input map[string]any) (*domain.Comment, error) {
	vals, ferrs := s.schema.Validate(input)
	if ferrs != nil {
		return nil, apperr.Validation(ferrs)
	}
	if err := s.ensureStartup(ctx, startupID); err != nil {
		return nil, err
	}

	c, err := s.Repo.CreateComment(ctx, s.DB, startupID, authorID, vals["body"].(string))
	if err != nil {
		return nil, apperr.Internal(err)
	}

	if s.Broker != nil {
		s.Broker.Publish(CommentChannel(startupID), CommentAdded{
			CommentID: c.ID,
			StartupID: c.StartupID,
			AuthorID:  c.AuthorID,
			Body:      c.Body,
			CreatedAt: c.CreatedAt,
		})
	}
	return c, nil
}

// ListPage returns one page of comments for the startup, newest first,
// with the standard pagination envelope.
func (s *CommentService) ListPage(ctx context.Context, startupID string, page, perPage int) (*pagination.Page[domain.Comment], error) {
	if page < 1 {
		page = 1
	}
	if perPage <= 0 {
		perPage = 20
	}
	if err := s.ensureStartup(ctx, startupID); err != nil {
		return nil, err
	}

	total, err := s.Repo.CountComments(ctx, s.DB, startupID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	var rows []domain.Comment
	if total > 0 {
		rows, err = s.Repo.ListCommentsPage(ctx, s.DB, startupID, pagination.Offset(page, perPage), perPage)
		if err != nil {
			return nil, apperr.Internal(err)
		}
	}
	out := pagination.New(rows, total, page, perPage)
	return &out, nil
}

func (s *CommentService) ensureStartup(ctx context.Context, startupID string) error {
	if _, err := s.Startups.GetStartup(ctx, s.DB, startupID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("Startup", startupID)
		}
		return apperr.Internal(err)
	}
	return nil
}
