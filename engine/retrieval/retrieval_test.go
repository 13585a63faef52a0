package retrieval

import (
	"context"
	"errors"
	"testing"

	"github.com/tickerlens/tickerlens/engine/domain"
)

// --- Mocks ---

type mockSearcher struct {
	results []domain.SearchResult
	metas   []domain.VideoMetadata
	err     error
	gotK    int
}

func (m *mockSearcher) Search(_ context.Context, _ string, k int) ([]domain.SearchResult, error) {
	m.gotK = k
	if m.err != nil {
		return nil, m.err
	}
	if k > len(m.results) {
		k = len(m.results)
	}
	return m.results[:k], nil
}

func (m *mockSearcher) Metadata() []domain.VideoMetadata { return m.metas }

func (m *mockSearcher) Stats() domain.IndexStats {
	return domain.IndexStats{TotalDocuments: len(m.results)}
}

func captioned(id string) domain.SearchResult {
	return domain.SearchResult{
		Content: "chunk " + id,
		Meta:    domain.VideoMetadata{VideoID: id, HasCaptions: true},
	}
}

func uncaptioned(id string) domain.SearchResult {
	return domain.SearchResult{
		Content: "chunk " + id,
		Meta:    domain.VideoMetadata{VideoID: id},
	}
}

// --- Tests ---

func TestRetrieveNoFiltersFetchesExactlyN(t *testing.T) {
	m := &mockSearcher{results: []domain.SearchResult{captioned("a"), captioned("b"), captioned("c")}}
	svc := New(m, DefaultOptions(), nil)

	out, err := svc.Retrieve(context.Background(), "gamma exposure", 2, domain.FilterSpec{})
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if m.gotK != 2 {
		t.Errorf("index asked for k=%d, want 2", m.gotK)
	}
	if len(out) != 2 {
		t.Errorf("got %d results, want 2", len(out))
	}
}

func TestRetrieveActiveFiltersOverFetch(t *testing.T) {
	var results []domain.SearchResult
	for _, id := range []string{"a", "b", "c", "d", "e", "f"} {
		results = append(results, uncaptioned(id))
	}
	results[4] = captioned("e")
	results[5] = captioned("f")

	m := &mockSearcher{results: results}
	svc := New(m, DefaultOptions(), nil)

	out, err := svc.Retrieve(context.Background(), "vix", 2, domain.FilterSpec{RequireCaptions: true})
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if m.gotK != 6 {
		t.Errorf("index asked for k=%d, want 3x over-fetch of 6", m.gotK)
	}
	if len(out) != 2 || out[0].Meta.VideoID != "e" || out[1].Meta.VideoID != "f" {
		t.Errorf("got %+v, want the two captioned hits in rank order", out)
	}
}

func TestRetrieveOverFetchCapped(t *testing.T) {
	m := &mockSearcher{}
	svc := New(m, DefaultOptions(), nil)

	if _, err := svc.Retrieve(context.Background(), "q", 10, domain.FilterSpec{RequireCaptions: true}); err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if m.gotK != 20 {
		t.Errorf("index asked for k=%d, want capped 20", m.gotK)
	}
}

func TestRetrieveTruncatesToN(t *testing.T) {
	var results []domain.SearchResult
	for _, id := range []string{"a", "b", "c", "d", "e"} {
		results = append(results, captioned(id))
	}
	m := &mockSearcher{results: results}
	svc := New(m, DefaultOptions(), nil)

	out, err := svc.Retrieve(context.Background(), "q", 2, domain.FilterSpec{RequireCaptions: true})
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(out) != 2 || out[0].Meta.VideoID != "a" || out[1].Meta.VideoID != "b" {
		t.Errorf("got %+v, want top two by rank", out)
	}
}

func TestRetrieveFewerSurvivorsIsNotAnError(t *testing.T) {
	m := &mockSearcher{results: []domain.SearchResult{uncaptioned("a"), captioned("b")}}
	svc := New(m, DefaultOptions(), nil)

	out, err := svc.Retrieve(context.Background(), "q", 5, domain.FilterSpec{RequireCaptions: true})
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(out) != 1 || out[0].Meta.VideoID != "b" {
		t.Errorf("got %+v, want the single captioned survivor", out)
	}
}

func TestRetrieveEmptyQuery(t *testing.T) {
	svc := New(&mockSearcher{}, DefaultOptions(), nil)
	if _, err := svc.Retrieve(context.Background(), "   ", 5, domain.FilterSpec{}); err == nil {
		t.Fatal("blank query did not fail")
	}
}

func TestRetrieveDefaultTopK(t *testing.T) {
	m := &mockSearcher{}
	svc := New(m, Options{DefaultTopK: 7}, nil)
	if _, err := svc.Retrieve(context.Background(), "q", 0, domain.FilterSpec{}); err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if m.gotK != 7 {
		t.Errorf("index asked for k=%d, want default 7", m.gotK)
	}
}

func TestRetrieveSearchError(t *testing.T) {
	wantErr := errors.New("index exploded")
	svc := New(&mockSearcher{err: wantErr}, DefaultOptions(), nil)
	if _, err := svc.Retrieve(context.Background(), "q", 5, domain.FilterSpec{}); !errors.Is(err, wantErr) {
		t.Fatalf("err = %v, want wrapped search error", err)
	}
}

func TestFilterStatistics(t *testing.T) {
	m := &mockSearcher{metas: []domain.VideoMetadata{
		{VideoID: "v1", HasCaptions: true},
		{VideoID: "v1", HasCaptions: true},
		{VideoID: "v2"},
	}}
	svc := New(m, DefaultOptions(), nil)
	stats := svc.FilterStatistics()
	if stats.TotalDocuments != 2 {
		t.Errorf("TotalDocuments = %d, want 2 unique videos", stats.TotalDocuments)
	}
}
