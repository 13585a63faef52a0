package index

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/tickerlens/tickerlens/engine/domain"
)

// --- Mocks ---

type stubEmbedder struct {
	vectors map[string][]float32
	err     error
	calls   int
}

func (s *stubEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, ok := s.vectors[t]
		if !ok {
			v = []float32{0, 0}
		}
		out[i] = v
	}
	return out, nil
}

func newTestStore(t *testing.T, emb Embedder) *Store {
	t.Helper()
	s, err := Open(Options{Dir: t.TempDir(), Dimension: 2}, emb, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return s
}

// --- Tests ---

func TestAddAndSearchOrdering(t *testing.T) {
	emb := &stubEmbedder{vectors: map[string][]float32{
		"gamma levels today": {1, 0},
		"fed rate decision":  {0, 1},
		"vix term structure": {0.9, 0.1},
		"query":              {1, 0},
	}}
	s := newTestStore(t, emb)

	texts := []string{"gamma levels today", "fed rate decision", "vix term structure"}
	metas := []domain.VideoMetadata{{VideoID: "a"}, {VideoID: "b"}, {VideoID: "c"}}
	if err := s.Add(context.Background(), texts, metas); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if emb.calls != 1 {
		t.Fatalf("Add made %d gateway calls, want 1 batch", emb.calls)
	}

	results, err := s.Search(context.Background(), "query", 3)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}
	gotIDs := []string{results[0].Meta.VideoID, results[1].Meta.VideoID, results[2].Meta.VideoID}
	wantIDs := []string{"a", "c", "b"}
	for i := range wantIDs {
		if gotIDs[i] != wantIDs[i] {
			t.Fatalf("result order %v, want %v", gotIDs, wantIDs)
		}
	}
	if results[0].Score != 1 {
		t.Errorf("exact match score = %v, want 1", results[0].Score)
	}
	for i := 1; i < len(results); i++ {
		if results[i].Score > results[i-1].Score {
			t.Errorf("scores not descending at %d: %v > %v", i, results[i].Score, results[i-1].Score)
		}
	}
}

func TestSearchEmptyIndex(t *testing.T) {
	emb := &stubEmbedder{vectors: map[string][]float32{}}
	s := newTestStore(t, emb)

	results, err := s.Search(context.Background(), "anything", 5)
	if err != nil {
		t.Fatalf("Search on empty index: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("got %d results from empty index, want 0", len(results))
	}
	if emb.calls != 0 {
		t.Errorf("empty index still hit the gateway %d times", emb.calls)
	}
}

func TestSearchCapsK(t *testing.T) {
	emb := &stubEmbedder{vectors: map[string][]float32{"only": {1, 1}}}
	s := newTestStore(t, emb)
	if err := s.Add(context.Background(), []string{"only"}, nil); err != nil {
		t.Fatalf("Add: %v", err)
	}
	results, err := s.Search(context.Background(), "only", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
}

func TestSearchRejectsNonPositiveK(t *testing.T) {
	s := newTestStore(t, &stubEmbedder{})
	if _, err := s.Search(context.Background(), "q", 0); err == nil {
		t.Fatal("Search(k=0) did not fail")
	}
}

func TestAddLengthMismatch(t *testing.T) {
	s := newTestStore(t, &stubEmbedder{})
	err := s.Add(context.Background(), []string{"a", "b"}, []domain.VideoMetadata{{}})
	if err == nil {
		t.Fatal("mismatched metadata length did not fail")
	}
	if s.Stats().TotalDocuments != 0 {
		t.Errorf("failed Add left %d documents behind", s.Stats().TotalDocuments)
	}
}

func TestAddEmbedderFailure(t *testing.T) {
	emb := &stubEmbedder{err: errors.New("gateway down")}
	s := newTestStore(t, emb)
	err := s.Add(context.Background(), []string{"doc"}, nil)
	if !errors.Is(err, domain.ErrEmbedding) {
		t.Fatalf("err = %v, want ErrEmbedding", err)
	}
	if s.Stats().TotalDocuments != 0 {
		t.Errorf("failed Add committed %d documents", s.Stats().TotalDocuments)
	}
}

func TestAddRejectsWrongDimension(t *testing.T) {
	emb := &stubEmbedder{vectors: map[string][]float32{"doc": {1, 2, 3}}}
	s := newTestStore(t, emb)
	err := s.Add(context.Background(), []string{"doc"}, nil)
	if !errors.Is(err, domain.ErrEmbedding) {
		t.Fatalf("err = %v, want ErrEmbedding for dimension mismatch", err)
	}
}

func TestPersistenceRoundTrip(t *testing.T) {
	dir := t.TempDir()
	emb := &stubEmbedder{vectors: map[string][]float32{
		"first doc":  {1, 0},
		"second doc": {0, 1},
	}}

	s, err := Open(Options{Dir: dir, Dimension: 2}, emb, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	metas := []domain.VideoMetadata{
		{VideoID: "v1", Title: "Market Update", Category: domain.CategoryDailyUpdate},
		{VideoID: "v2", Title: "Options 101"},
	}
	if err := s.Add(context.Background(), []string{"first doc", "second doc"}, metas); err != nil {
		t.Fatalf("Add: %v", err)
	}

	reopened, err := Open(Options{Dir: dir, Dimension: 2}, emb, nil)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	stats := reopened.Stats()
	if stats.TotalDocuments != 2 || stats.IndexSize != 2 || stats.EmbeddingDimension != 2 {
		t.Fatalf("reopened stats = %+v", stats)
	}

	results, err := reopened.Search(context.Background(), "first doc", 1)
	if err != nil {
		t.Fatalf("Search after reopen: %v", err)
	}
	if results[0].Meta.VideoID != "v1" {
		t.Errorf("top result = %q, want v1", results[0].Meta.VideoID)
	}
	if results[0].Meta.Category != domain.CategoryDailyUpdate {
		t.Errorf("category lost in round trip: %q", results[0].Meta.Category)
	}
}

func TestOpenDetectsLengthMismatch(t *testing.T) {
	dir := t.TempDir()
	emb := &stubEmbedder{vectors: map[string][]float32{"doc": {1, 1}}}
	s, err := Open(Options{Dir: dir, Dimension: 2}, emb, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := s.Add(context.Background(), []string{"doc"}, nil); err != nil {
		t.Fatalf("Add: %v", err)
	}

	// Truncate the document store so the artifacts disagree.
	if err := os.WriteFile(filepath.Join(dir, documentsFile), []byte("[]"), 0o644); err != nil {
		t.Fatalf("corrupt documents: %v", err)
	}
	if _, err := Open(Options{Dir: dir, Dimension: 2}, emb, nil); !errors.Is(err, domain.ErrCorruptStore) {
		t.Fatalf("Open on mismatched artifacts = %v, want ErrCorruptStore", err)
	}
}

func TestOpenDetectsBadIndexFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, indexFile), []byte("not an index"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Open(Options{Dir: dir, Dimension: 2}, &stubEmbedder{}, nil); !errors.Is(err, domain.ErrCorruptStore) {
		t.Fatalf("Open on garbage index = %v, want ErrCorruptStore", err)
	}
}

func TestOpenMissingIndexIsFresh(t *testing.T) {
	s, err := Open(Options{Dir: t.TempDir(), Dimension: 4}, &stubEmbedder{}, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if got := s.Stats(); got.TotalDocuments != 0 || got.EmbeddingDimension != 4 {
		t.Fatalf("fresh stats = %+v", got)
	}
}

func TestReset(t *testing.T) {
	dir := t.TempDir()
	emb := &stubEmbedder{vectors: map[string][]float32{"doc": {1, 1}}}
	s, err := Open(Options{Dir: dir, Dimension: 2}, emb, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := s.Add(context.Background(), []string{"doc"}, nil); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := s.Reset(); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if s.Stats().TotalDocuments != 0 {
		t.Errorf("documents survived reset")
	}
	if _, err := os.Stat(filepath.Join(dir, indexFile)); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("index file survived reset: %v", err)
	}

	reopened, err := Open(Options{Dir: dir, Dimension: 2}, emb, nil)
	if err != nil {
		t.Fatalf("reopen after reset: %v", err)
	}
	if reopened.Stats().TotalDocuments != 0 {
		t.Errorf("reset collection reloaded %d documents", reopened.Stats().TotalDocuments)
	}
}

func TestAddFlattensNewlines(t *testing.T) {
	emb := &stubEmbedder{vectors: map[string][]float32{"line one line two": {1, 0}}}
	s := newTestStore(t, emb)
	if err := s.Add(context.Background(), []string{"line one\nline two"}, nil); err != nil {
		t.Fatalf("Add: %v", err)
	}
	// The stored document keeps its newline; only the embed input is flattened.
	results, err := s.Search(context.Background(), "line one line two", 1)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if results[0].Content != "line one\nline two" {
		t.Errorf("stored content = %q", results[0].Content)
	}
}
