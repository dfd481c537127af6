package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/docqa/internal/domain"
	"github.com/kailas-cloud/docqa/internal/domain/passage"
)

type mockRepo struct {
	batches [][]passage.Passage
	err     error
}

func (m *mockRepo) Upsert(_ context.Context, ps []passage.Passage) error {
	m.batches = append(m.batches, append([]passage.Passage(nil), ps...))
	return m.err
}

type mockBatchEmbedder struct {
	calls int
	texts []string
	err   error
}

func (m *mockBatchEmbedder) Embed(context.Context, string) (domain.EmbeddingResult, error) {
	return domain.EmbeddingResult{}, errors.New("unexpected single embed")
}

func (m *mockBatchEmbedder) BatchEmbed(_ context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	m.calls++
	m.texts = texts
	if m.err != nil {
		return domain.BatchEmbeddingResult{}, m.err
	}
	out := domain.BatchEmbeddingResult{TotalTokens: 7}
	for range texts {
		out.Embeddings = append(out.Embeddings, []float32{0.5, 0.5})
	}
	return out, nil
}

func TestIngest_EmbedsOnlyMissing(t *testing.T) {
	repo := &mockRepo{}
	emb := &mockBatchEmbedder{}
	svc := New(repo, emb, 2, zap.NewNop())

	stats, err := svc.Ingest(context.Background(), []passage.Passage{
		{ID: "a", Text: "has vector", Embedding: []float32{1, 0}},
		{ID: "b", Text: "needs vector"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if emb.calls != 1 || len(emb.texts) != 1 || emb.texts[0] != "needs vector" {
		t.Fatalf("expected one batch for the missing passage, got %v", emb.texts)
	}
	if stats.Passages != 2 || stats.Embedded != 1 || stats.TotalTokens != 7 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if got := repo.batches[0][1].Embedding; len(got) != 2 {
		t.Fatalf("expected embedding filled in, got %v", got)
	}
}

func TestIngest_Batches(t *testing.T) {
	repo := &mockRepo{}
	svc := New(repo, nil, 0, zap.NewNop()).WithBatchSize(2)

	ps := []passage.Passage{{ID: "a", Text: "x"}, {ID: "b", Text: "x"}, {ID: "c", Text: "x"}}
	if _, err := svc.Ingest(context.Background(), ps); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(repo.batches) != 2 || len(repo.batches[0]) != 2 || len(repo.batches[1]) != 1 {
		t.Fatalf("expected batches of 2 and 1, got %d", len(repo.batches))
	}
}

func TestIngest_Validation(t *testing.T) {
	tests := []struct {
		name string
		ps   []passage.Passage
		want error
	}{
		{"missing id", []passage.Passage{{Text: "x"}}, domain.ErrInvalidQuery},
		{"missing text", []passage.Passage{{ID: "a"}}, domain.ErrInvalidQuery},
		{"duplicate", []passage.Passage{{ID: "a", Text: "x"}, {ID: "a", Text: "y"}}, domain.ErrInvalidQuery},
		{"bad dims", []passage.Passage{{ID: "a", Text: "x", Embedding: []float32{1}}}, domain.ErrVectorDimMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockRepo{}
			_, err := New(repo, nil, 2, zap.NewNop()).Ingest(context.Background(), tt.ps)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			if len(repo.batches) != 0 {
				t.Fatal("expected nothing written")
			}
		})
	}
}

func TestIngest_EmbedError(t *testing.T) {
	repo := &mockRepo{}
	emb := &mockBatchEmbedder{err: domain.ErrEmbeddingProviderError}

	_, err := New(repo, emb, 2, zap.NewNop()).Ingest(context.Background(), []passage.Passage{{ID: "a", Text: "x"}})
	if !errors.Is(err, domain.ErrEmbeddingProviderError) {
		t.Fatalf("expected provider error, got %v", err)
	}
	if len(repo.batches) != 0 {
		t.Fatal("expected nothing written")
	}
}

func TestIngest_UpsertError(t *testing.T) {
	repo := &mockRepo{err: domain.ErrStoreUnavailable}
	_, err := New(repo, nil, 0, zap.NewNop()).Ingest(context.Background(), []passage.Passage{{ID: "a", Text: "x"}})
	if !errors.Is(err, domain.ErrStoreUnavailable) {
		t.Fatalf("expected store error, got %v", err)
	}
}

func TestLoadFixture(t *testing.T) {
	path := filepath.Join(t.TempDir(), "passages.yaml")
	content := `passages:
  - id: install-1
    document: admin-guide
    section: Installation
    page: 12
    source: official
    text: Run initdb before starting PostgreSQL.
    embedding: [0.1, 0.2]
  - id: notes-1
    document: notes
    source: upload
    text: Personal notes.
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	ps, err := LoadFixture(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ps) != 2 {
		t.Fatalf("expected 2 passages, got %d", len(ps))
	}
	p := ps[0]
	if p.ID != "install-1" || p.DocumentID != "admin-guide" || p.Section != "Installation" ||
		p.Page != 12 || p.Source != "official" || len(p.Embedding) != 2 {
		t.Fatalf("unexpected passage: %+v", p)
	}
	if ps[1].HasEmbedding() {
		t.Fatal("expected second passage without embedding")
	}
}

func TestLoadFixture_Errors(t *testing.T) {
	if _, err := LoadFixture(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("passages: [: nope"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFixture(path); err == nil {
		t.Fatal("expected parse error")
	}
}
