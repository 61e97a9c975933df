// Package services – SuggestService
//
// Type-ahead suggestions are served from an immutable in-memory index
// rebuilt on a short TTL rather than on every write. Staleness of a few
// seconds is acceptable for autocomplete and keeps writes untouched.
package services

import (
	"context"
	"strings"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/launchpadhq/launchpad-backend/internal/apperr"
	"github.com/launchpadhq/launchpad-backend/internal/domain"
	"github.com/launchpadhq/launchpad-backend/internal/search"
)

// SuggestLister is the repository slice needed to build the index.
type SuggestLister interface {
	ListAllStartupsLite(ctx context.Context, db *gorm.DB) ([]domain.Startup, error)
}

// SuggestService answers type-ahead queries from a cached search index.
type SuggestService struct {
	// DB is the GORM handle used when rebuilding the index.
	DB *gorm.DB
	// Repo lists the rows the index is built from.
	Repo SuggestLister

	// TTL is how long a built index is served before a rebuild.
	TTL time.Duration
	// MaxResults caps how many suggestions one query returns.
	MaxResults int

	mu      sync.Mutex
	idx     search.Index
	builtAt time.Time
}

// NewSuggestService constructs a SuggestService with a 30s index TTL.
func NewSuggestService(db *gorm.DB, r SuggestLister) *SuggestService {
	return &SuggestService{
		DB:         db,
		Repo:       r,
		TTL:        30 * time.Second,
		MaxResults: 5,
	}
}

// Suggest returns up to MaxResults listings ranked against term. A blank
// term yields an empty result, not an error.
func (s *SuggestService) Suggest(ctx context.Context, term string) ([]search.Suggestion, error) {
	if strings.TrimSpace(term) == "" {
		return []search.Suggestion{}, nil
	}
	idx, err := s.index(ctx)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	out := idx.TopK(term, s.MaxResults)
	if out == nil {
		out = []search.Suggestion{}
	}
	return out, nil
}

// index returns the cached index, rebuilding it when past TTL. The build
// happens under the lock; concurrent callers wait rather than racing to
// rebuild the same snapshot.
func (s *SuggestService) index(ctx context.Context) (search.Index, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.idx != nil && time.Since(s.builtAt) < s.TTL {
		return s.idx, nil
	}
	rows, err := s.Repo.ListAllStartupsLite(ctx, s.DB)
	if err != nil {
		if s.idx != nil {
			// Stale index still serves until a rebuild succeeds.
			return s.idx, nil
		}
		return nil, err
	}
	s.idx = search.NewIndex(rows)
	s.builtAt = time.Now()
	return s.idx, nil
}
