package retrieval

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/kailas-cloud/quizgen/internal/domain"
)

// --- Mocks ---

type mockIndex struct {
	neighbors  []domain.Neighbor
	nearestErr error
	docs       map[string]domain.IndexedDocument
	getErr     error
	lastQuery  domain.NearestQuery
	called     bool
}

func (m *mockIndex) Nearest(_ context.Context, q domain.NearestQuery) ([]domain.Neighbor, error) {
	m.called = true
	m.lastQuery = q
	return m.neighbors, m.nearestErr
}

func (m *mockIndex) Get(_ context.Context, id string) (domain.IndexedDocument, error) {
	if m.getErr != nil {
		return domain.IndexedDocument{}, m.getErr
	}
	d, ok := m.docs[id]
	if !ok {
		return domain.IndexedDocument{}, domain.ErrNotFound
	}
	return d, nil
}

type mockEmbedder struct {
	vec      []float32
	err      error
	called   bool
	lastText string
}

func (m *mockEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	m.called = true
	m.lastText = text
	if m.err != nil {
		return domain.EmbeddingResult{}, m.err
	}
	return domain.EmbeddingResult{Embedding: m.vec}, nil
}

func newService(idx *mockIndex, emb *mockEmbedder) *Service {
	return New(idx, emb, 0, zap.NewNop())
}

// --- FindRelated ---

func TestFindRelated_RanksBySimilarity(t *testing.T) {
	idx := &mockIndex{neighbors: []domain.Neighbor{
		{DocumentID: "far", Content: "far", Distance: 0.8},
		{DocumentID: "near", Content: "near", Distance: 0.1},
		{DocumentID: "mid", Content: "mid", Distance: 0.4},
	}}
	emb := &mockEmbedder{vec: []float32{1, 0}}
	svc := newService(idx, emb)

	got := svc.FindRelated(context.Background(), "photosynthesis in plants", "user-1", 0)
	if len(got) != 3 {
		t.Fatalf("expected 3 candidates, got %d", len(got))
	}
	want := []string{"near", "mid", "far"}
	for i, id := range want {
		if got[i].DocumentID != id {
			t.Errorf("candidate %d: expected %s, got %s", i, id, got[i].DocumentID)
		}
	}
	if got[0].Similarity < 0.89 || got[0].Similarity > 0.91 {
		t.Errorf("expected similarity ~0.9, got %f", got[0].Similarity)
	}
	if idx.lastQuery.OwnerID != "user-1" {
		t.Errorf("expected owner filter user-1, got %q", idx.lastQuery.OwnerID)
	}
	if idx.lastQuery.TopK != DefaultTopK {
		t.Errorf("expected default topK %d, got %d", DefaultTopK, idx.lastQuery.TopK)
	}
}

func TestFindRelated_ClampsSimilarity(t *testing.T) {
	idx := &mockIndex{neighbors: []domain.Neighbor{
		{DocumentID: "opposite", Distance: 1.7},
		{DocumentID: "exact", Distance: -0.0001},
	}}
	svc := newService(idx, &mockEmbedder{vec: []float32{1}})

	for _, c := range svc.FindRelated(context.Background(), "some query text", "u", 5) {
		if c.Similarity < 0 || c.Similarity > 1 {
			t.Errorf("%s: similarity %f out of [0,1]", c.DocumentID, c.Similarity)
		}
	}
}

func TestFindRelated_TruncatesToTopK(t *testing.T) {
	idx := &mockIndex{neighbors: []domain.Neighbor{
		{DocumentID: "a", Distance: 0.1},
		{DocumentID: "b", Distance: 0.2},
		{DocumentID: "c", Distance: 0.3},
	}}
	svc := newService(idx, &mockEmbedder{vec: []float32{1}})

	got := svc.FindRelated(context.Background(), "query text", "u", 2)
	if len(got) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(got))
	}
}

func TestFindRelated_ShortOrBlankQuery(t *testing.T) {
	for _, text := range []string{"", "   ", "ab", " a \n"} {
		idx := &mockIndex{}
		emb := &mockEmbedder{vec: []float32{1}}
		svc := newService(idx, emb)

		if got := svc.FindRelated(context.Background(), text, "u", 5); len(got) != 0 {
			t.Errorf("%q: expected empty, got %d", text, len(got))
		}
		if emb.called || idx.called {
			t.Errorf("%q: expected no collaborator calls", text)
		}
	}
}

func TestFindRelated_BlankOwner(t *testing.T) {
	for _, owner := range []string{"", "  "} {
		idx := &mockIndex{neighbors: []domain.Neighbor{
			{DocumentID: "secret", Content: "private notes", Distance: 0},
		}}
		emb := &mockEmbedder{vec: []float32{1}}
		svc := newService(idx, emb)

		if got := svc.FindRelated(context.Background(), "some query text", owner, 5); len(got) != 0 {
			t.Errorf("owner %q: expected empty, got %+v", owner, got)
		}
		if emb.called || idx.called {
			t.Errorf("owner %q: expected no collaborator calls", owner)
		}
	}
}

func TestFindRelated_TruncatesEmbeddingInput(t *testing.T) {
	emb := &mockEmbedder{vec: []float32{1}}
	svc := newService(&mockIndex{}, emb)

	svc.FindRelated(context.Background(), strings.Repeat("é", 5000), "u", 5)

	if n := utf8.RuneCountInString(emb.lastText); n != domain.DefaultMaxEmbeddingChars {
		t.Fatalf("expected embedding input of %d runes, got %d", domain.DefaultMaxEmbeddingChars, n)
	}
}

func TestFindRelated_EmbedderFailureDegrades(t *testing.T) {
	idx := &mockIndex{}
	svc := newService(idx, &mockEmbedder{err: domain.ErrEmbeddingProviderError})

	if got := svc.FindRelated(context.Background(), "valid query", "u", 5); len(got) != 0 {
		t.Fatalf("expected empty result, got %d", len(got))
	}
	if idx.called {
		t.Error("expected index not to be queried")
	}
}

func TestFindRelated_EmptyEmbeddingDegrades(t *testing.T) {
	idx := &mockIndex{}
	svc := newService(idx, &mockEmbedder{})

	if got := svc.FindRelated(context.Background(), "valid query", "u", 5); len(got) != 0 {
		t.Fatalf("expected empty result, got %d", len(got))
	}
	if idx.called {
		t.Error("expected index not to be queried")
	}
}

func TestFindRelated_IndexFailureDegrades(t *testing.T) {
	idx := &mockIndex{nearestErr: errors.New("connection refused")}
	svc := newService(idx, &mockEmbedder{vec: []float32{1}})

	if got := svc.FindRelated(context.Background(), "valid query", "u", 5); len(got) != 0 {
		t.Fatalf("expected empty result, got %d", len(got))
	}
}

// --- FindSimilarTo ---

func TestFindSimilarTo_ExcludesSource(t *testing.T) {
	idx := &mockIndex{
		docs: map[string]domain.IndexedDocument{
			"doc-1": {ID: "doc-1", OwnerID: "u", Vector: []float32{0.5, 0.5}},
		},
		neighbors: []domain.Neighbor{
			{DocumentID: "doc-1", Distance: 0},
			{DocumentID: "doc-2", Distance: 0.3},
		},
	}
	emb := &mockEmbedder{}
	svc := newService(idx, emb)

	got, err := svc.FindSimilarTo(context.Background(), "doc-1", "u", 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].DocumentID != "doc-2" {
		t.Fatalf("expected only doc-2, got %+v", got)
	}
	if idx.lastQuery.ExcludeID != "doc-1" {
		t.Errorf("expected ExcludeID doc-1, got %q", idx.lastQuery.ExcludeID)
	}
	if emb.called {
		t.Error("expected stored vector to be reused without embedding")
	}
}

func TestFindSimilarTo_SourceNotFound(t *testing.T) {
	svc := newService(&mockIndex{docs: map[string]domain.IndexedDocument{}}, &mockEmbedder{})

	_, err := svc.FindSimilarTo(context.Background(), "missing", "u", 5)
	if !errors.Is(err, domain.ErrSourceNotFound) {
		t.Fatalf("expected ErrSourceNotFound, got %v", err)
	}
}

func TestFindSimilarTo_EmptyStoredVector(t *testing.T) {
	svc := newService(&mockIndex{docs: map[string]domain.IndexedDocument{
		"doc-1": {ID: "doc-1", OwnerID: "u"},
	}}, &mockEmbedder{})

	_, err := svc.FindSimilarTo(context.Background(), "doc-1", "u", 5)
	if !errors.Is(err, domain.ErrSourceNotFound) {
		t.Fatalf("expected ErrSourceNotFound, got %v", err)
	}
}

func TestFindSimilarTo_OtherOwnersDocument(t *testing.T) {
	idx := &mockIndex{
		docs: map[string]domain.IndexedDocument{
			"alice-doc": {ID: "alice-doc", OwnerID: "alice", Vector: []float32{1, 0}},
		},
		neighbors: []domain.Neighbor{{DocumentID: "bob-doc", Distance: 0.1}},
	}
	svc := newService(idx, &mockEmbedder{})

	got, err := svc.FindSimilarTo(context.Background(), "alice-doc", "bob", 5)
	if !errors.Is(err, domain.ErrSourceNotFound) {
		t.Fatalf("expected ErrSourceNotFound, got %v", err)
	}
	if len(got) != 0 || idx.called {
		t.Errorf("expected no search with a foreign source vector, got %+v", got)
	}
}

func TestFindSimilarTo_BlankOwner(t *testing.T) {
	idx := &mockIndex{docs: map[string]domain.IndexedDocument{
		"doc-1": {ID: "doc-1", OwnerID: "", Vector: []float32{1}},
	}}
	svc := newService(idx, &mockEmbedder{})

	_, err := svc.FindSimilarTo(context.Background(), "doc-1", "", 5)
	if !errors.Is(err, domain.ErrSourceNotFound) {
		t.Fatalf("expected ErrSourceNotFound, got %v", err)
	}
	if idx.called {
		t.Error("expected index not to be queried")
	}
}

func TestFindSimilarTo_BackendFailureDegrades(t *testing.T) {
	idx := &mockIndex{getErr: errors.New("timeout")}
	svc := newService(idx, &mockEmbedder{})

	got, err := svc.FindSimilarTo(context.Background(), "doc-1", "u", 5)
	if err != nil {
		t.Fatalf("expected degradation without error, got %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty result, got %d", len(got))
	}
}

func TestClampTopK(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{0, DefaultTopK},
		{-3, DefaultTopK},
		{7, 7},
		{MaxTopK + 1, MaxTopK},
	}
	for _, tc := range tests {
		if got := ClampTopK(tc.in); got != tc.want {
			t.Errorf("ClampTopK(%d) = %d, want %d", tc.in, got, tc.want)
		}
	}
}
