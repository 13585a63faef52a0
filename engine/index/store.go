// Package index implements a flat L2 vector index over transcript chunks,
// with parallel document and metadata stores persisted as three co-located
// files per collection. Identity is positional: vector i, document i, and
// metadata i describe the same chunk.
package index

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/tickerlens/tickerlens/engine/domain"
)

// Embedder turns a batch of texts into fixed-dimension vectors. Calls fail
// atomically; retry and backoff belong to the implementation, never here.
type Embedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// Options configures a collection.
type Options struct {
	// Dir is the collection directory holding the three artifacts.
	Dir string
	// Dimension is the embedding width used when creating a fresh index.
	// An existing on-disk index overrides it.
	Dimension int
}

// Store is a flat nearest-neighbor index. Add is exclusive and holds the
// write lock through persistence; Search and Stats take the read lock, so
// readers never observe a half-committed batch.
type Store struct {
	mu       sync.RWMutex
	dir      string
	dim      int
	embedder Embedder
	logger   *slog.Logger

	vectors   [][]float32
	documents []string
	metadata  []domain.VideoMetadata
}

// Open loads the collection at opts.Dir, creating an empty one of the
// configured dimension when no index file exists. Artifacts with
// inconsistent lengths fail loudly with domain.ErrCorruptStore.
func Open(opts Options, embedder Embedder, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Dimension <= 0 {
		return nil, fmt.Errorf("index: dimension must be positive, got %d", opts.Dimension)
	}
	s := &Store{
		dir:      opts.Dir,
		dim:      opts.Dimension,
		embedder: embedder,
		logger:   logger,
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	s.logger.Info("index opened", "dir", s.dir, "documents", len(s.documents), "dim", s.dim)
	return s, nil
}

// Add embeds texts in one gateway batch and appends them with their
// metadata, persisting the full collection before returning. A nil or
// short metas slice pads with zero metadata. On any failure nothing is
// committed, in memory or on disk.
func (s *Store) Add(ctx context.Context, texts []string, metas []domain.VideoMetadata) error {
	if len(texts) == 0 {
		return nil
	}
	if metas != nil && len(metas) != len(texts) {
		return fmt.Errorf("index: %d texts but %d metadata entries", len(texts), len(metas))
	}

	vectors, err := s.embedTexts(ctx, texts)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prior := len(s.documents)
	s.vectors = append(s.vectors, vectors...)
	s.documents = append(s.documents, texts...)
	if metas == nil {
		metas = make([]domain.VideoMetadata, len(texts))
	}
	s.metadata = append(s.metadata, metas...)

	if err := s.saveLocked(); err != nil {
		// Roll back the in-memory append so a failed Add leaves the
		// previously persisted state untouched.
		s.vectors = s.vectors[:prior]
		s.documents = s.documents[:prior]
		s.metadata = s.metadata[:prior]
		return fmt.Errorf("index: persist after add: %w", err)
	}

	s.logger.Info("index add", "chunks", len(texts), "total", len(s.documents))
	return nil
}

// Search embeds the query and returns up to k results ordered by
// descending similarity. Score is 1/(1+d) over squared L2 distance, a
// monotonic transform into (0,1]; it is not a probability. An empty index
// returns an empty slice, not an error.
func (s *Store) Search(ctx context.Context, query string, k int) ([]domain.SearchResult, error) {
	if k <= 0 {
		return nil, fmt.Errorf("index: k must be positive, got %d", k)
	}

	s.mu.RLock()
	empty := len(s.vectors) == 0
	s.mu.RUnlock()
	if empty {
		return []domain.SearchResult{}, nil
	}

	qvecs, err := s.embedTexts(ctx, []string{query})
	if err != nil {
		return nil, err
	}
	qvec := qvecs[0]

	s.mu.RLock()
	defer s.mu.RUnlock()

	if k > len(s.vectors) {
		k = len(s.vectors)
	}

	dists := make([]float32, len(s.vectors))
	for i, v := range s.vectors {
		dists[i] = l2Squared(qvec, v)
	}
	idxs := make([]int, len(dists))
	for i := range idxs {
		idxs[i] = i
	}
	// Stable sort keeps insertion order among equidistant chunks.
	sort.SliceStable(idxs, func(a, b int) bool { return dists[idxs[a]] < dists[idxs[b]] })

	results := make([]domain.SearchResult, 0, k)
	for _, i := range idxs[:k] {
		results = append(results, domain.SearchResult{
			Content: s.documents[i],
			Score:   1 / (1 + dists[i]),
			Meta:    s.metadata[i],
		})
	}
	return results, nil
}

// Stats reports the collection state.
func (s *Store) Stats() domain.IndexStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return domain.IndexStats{
		TotalDocuments:     len(s.documents),
		EmbeddingDimension: s.dim,
		IndexSize:          len(s.vectors),
	}
}

// Metadata returns a copy of the stored metadata, positionally ordered.
// Used by the statistics reducer, which needs the whole collection.
func (s *Store) Metadata() []domain.VideoMetadata {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.VideoMetadata, len(s.metadata))
	copy(out, s.metadata)
	return out
}

// Reset destroys the collection in memory and on disk. There is no
// soft-delete; ingestion starts from scratch afterwards.
func (s *Store) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vectors = nil
	s.documents = nil
	s.metadata = nil
	if err := s.removeArtifacts(); err != nil {
		return fmt.Errorf("index: reset: %w", err)
	}
	s.logger.Info("index reset", "dir", s.dir)
	return nil
}

// embedTexts runs one batched gateway call and validates the output shape.
// Newlines are flattened first; embedding models score prose better that way.
func (s *Store) embedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	cleaned := make([]string, len(texts))
	for i, t := range texts {
		cleaned[i] = strings.ReplaceAll(t, "\n", " ")
	}
	vectors, err := s.embedder.EmbedBatch(ctx, cleaned)
	if err != nil {
		return nil, fmt.Errorf("index: embed %d texts: %w: %w", len(texts), domain.ErrEmbedding, err)
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("index: gateway returned %d vectors for %d texts: %w", len(vectors), len(texts), domain.ErrEmbedding)
	}
	for i, v := range vectors {
		if len(v) != s.dim {
			return nil, fmt.Errorf("index: vector %d has dimension %d, want %d: %w", i, len(v), s.dim, domain.ErrEmbedding)
		}
	}
	return vectors, nil
}

func l2Squared(a, b []float32) float32 {
	var sum float32
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}
