// Package retrieval orchestrates filtered semantic retrieval. It widens the
// index query when filters are active, applies the metadata filter to the
// ranked hits, and truncates back to the requested count, so callers get up
// to n results that all satisfy their constraints.
package retrieval

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/tickerlens/tickerlens/engine/domain"
	"github.com/tickerlens/tickerlens/engine/filter"
)

// Searcher abstracts the vector index.
type Searcher interface {
	Search(ctx context.Context, query string, k int) ([]domain.SearchResult, error)
	Metadata() []domain.VideoMetadata
	Stats() domain.IndexStats
}

// Options configures retrieval behaviour.
type Options struct {
	// DefaultTopK is used when a caller passes n <= 0.
	DefaultTopK int
	// SearchTimeout bounds a single index query.
	SearchTimeout time.Duration
}

// DefaultOptions returns sensible defaults.
func DefaultOptions() Options {
	return Options{
		DefaultTopK:   5,
		SearchTimeout: 10 * time.Second,
	}
}

// Service is the retrieval orchestrator.
type Service struct {
	search Searcher
	opts   Options
	logger *slog.Logger
}

// New creates a retrieval Service.
func New(search Searcher, opts Options, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.DefaultTopK <= 0 {
		opts.DefaultTopK = DefaultOptions().DefaultTopK
	}
	return &Service{search: search, opts: opts, logger: logger}
}

// Retrieve returns up to n results matching spec, ranked by similarity.
// With active filters it over-fetches from the index first; fewer than n
// surviving results is not an error. Ranking order is never disturbed.
func (s *Service) Retrieve(ctx context.Context, query string, n int, spec domain.FilterSpec) ([]domain.SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("retrieval: empty query")
	}
	if n <= 0 {
		n = s.opts.DefaultTopK
	}

	active := filter.HasActive(spec)
	fetch := filter.OverFetch(n, active)

	searchCtx := ctx
	if s.opts.SearchTimeout > 0 {
		var cancel context.CancelFunc
		searchCtx, cancel = context.WithTimeout(ctx, s.opts.SearchTimeout)
		defer cancel()
	}

	hits, err := s.search.Search(searchCtx, query, fetch)
	if err != nil {
		return nil, fmt.Errorf("retrieval: search: %w", err)
	}

	results := hits
	if active {
		results = filter.Apply(hits, spec)
	}
	if len(results) > n {
		results = results[:n]
	}

	s.logger.Info("retrieve done",
		"query_len", len(query),
		"requested", n,
		"fetched", len(hits),
		"returned", len(results),
		"filters", filter.Summary(spec),
	)
	return results, nil
}

// FilterStatistics aggregates metadata statistics over the whole
// collection, deduplicated by source video.
func (s *Service) FilterStatistics() domain.FilterStats {
	return filter.Collect(s.search.Metadata())
}

// IndexStats reports the underlying collection state.
func (s *Service) IndexStats() domain.IndexStats {
	return s.search.Stats()
}
