// Package search provides a small, deterministic, concurrency-safe
// in-memory suggestion index over startup listings. It powers the
// type-ahead suggest endpoint; the paginated list endpoint's search is
// SQL-side and does not use this package.
//
//   - Immutable after construction (safe for concurrent reads)
//   - Unicode-aware: names and queries are case- and accent-folded
//   - Deterministic scoring and sorting (stable order for ties)
//
// Scoring uses Jaccard similarity between the query token set and each
// listing's token set (name + tagline): score = |Q ∩ D| / |Q ∪ D|.
package search

import (
	"regexp"
	"sort"
	"strings"

	"github.com/launchpadhq/launchpad-backend/internal/domain"
)

// Suggestion is one ranked listing with its similarity score.
type Suggestion struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Tagline string  `json:"tagline"`
	Score   float64 `json:"score"`
}

// Index is the read-only interface implemented by suggestion indices.
type Index interface {
	TopK(query string, k int) []Suggestion
}

// Option configures index construction.
type Option func(*config)

type config struct {
	stopwords map[string]struct{}
	maxDocs   int
}

// WithStopwords removes the given words from both documents and queries.
func WithStopwords(words []string) Option {
	return func(c *config) {
		m := make(map[string]struct{}, len(words))
		for _, w := range words {
			if w = Fold(strings.TrimSpace(w)); w != "" {
				m[w] = struct{}{}
			}
		}
		if len(m) > 0 {
			c.stopwords = m
		}
	}
}

// WithMaxDocs caps how many startups are indexed (0 = no cap).
func WithMaxDocs(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.maxDocs = n
		}
	}
}

type doc struct {
	id      string
	name    string
	tagline string
	tokens  map[string]struct{}
}

type index struct {
	cfg  config
	docs []doc
}

// NewIndex builds an Index from the given startups. Rebuild and swap the
// whole index when listings change; individual entries are never mutated.
func NewIndex(startups []domain.Startup, opts ...Option) Index {
	var cfg config
	for _, o := range opts {
		o(&cfg)
	}
	docs := make([]doc, 0, len(startups))
	for _, s := range startups {
		toks := tokenize(s.Name+" "+s.Tagline, cfg.stopwords)
		if len(toks) == 0 {
			continue
		}
		docs = append(docs, doc{id: s.ID, name: s.Name, tagline: s.Tagline, tokens: toks})
		if cfg.maxDocs > 0 && len(docs) >= cfg.maxDocs {
			break
		}
	}
	return &index{cfg: cfg, docs: docs}
}

// TopK returns up to k best-matching listings by Jaccard similarity.
// Ties break by name, then id, so results are reproducible.
func (i *index) TopK(query string, k int) []Suggestion {
	if len(i.docs) == 0 || strings.TrimSpace(query) == "" {
		return nil
	}
	if k <= 0 {
		k = 5
	}
	qTokens := tokenize(query, i.cfg.stopwords)
	if len(qTokens) == 0 {
		return nil
	}

	buf := make([]Suggestion, 0, len(i.docs))
	for _, d := range i.docs {
		over := overlap(qTokens, d.tokens)
		if over == 0 {
			continue
		}
		union := float64(len(qTokens) + len(d.tokens) - over)
		buf = append(buf, Suggestion{
			ID:      d.id,
			Name:    d.name,
			Tagline: d.tagline,
			Score:   float64(over) / union,
		})
	}
	if len(buf) == 0 {
		return nil
	}

	sort.SliceStable(buf, func(a, b int) bool {
		if buf[a].Score != buf[b].Score {
			return buf[a].Score > buf[b].Score
		}
		if buf[a].Name != buf[b].Name {
			return buf[a].Name < buf[b].Name
		}
		return buf[a].ID < buf[b].ID
	})
	if k > len(buf) {
		k = len(buf)
	}
	return buf[:k]
}

var wordRE = regexp.MustCompile(`\p{L}+\p{N}*`)

func tokenize(s string, stop map[string]struct{}) map[string]struct{} {
	words := wordRE.FindAllString(Fold(s), -1)
	if len(words) == 0 {
		return nil
	}
	out := make(map[string]struct{}, len(words))
	for _, w := range words {
		if stop != nil {
			if _, skip := stop[w]; skip {
				continue
			}
		}
		out[w] = struct{}{}
	}
	return out
}

func overlap(a, b map[string]struct{}) int {
	if len(a) > len(b) {
		a, b = b, a
	}
	n := 0
	for k := range a {
		if _, ok := b[k]; ok {
			n++
		}
	}
	return n
}
