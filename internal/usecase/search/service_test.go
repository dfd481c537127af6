package search

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/docqa/internal/domain"
	"github.com/kailas-cloud/docqa/internal/domain/passage"
)

type mockRepo struct {
	semantic    []passage.Scored
	lexical     []passage.Scored
	semErr      error
	lexErr      error
	semCalls    atomic.Int32
	lexCalls    atomic.Int32
	gotLimit    atomic.Int32
	gotScope    passage.Scope
	blockLexCtx bool
}

func (m *mockRepo) SemanticSearch(
	_ context.Context, _ []float32, scope passage.Scope, limit int,
) ([]passage.Scored, error) {
	m.semCalls.Add(1)
	m.gotLimit.Store(int32(limit))
	m.gotScope = scope
	return m.semantic, m.semErr
}

func (m *mockRepo) LexicalSearch(
	ctx context.Context, _ string, _ passage.Scope, _ int,
) ([]passage.Scored, error) {
	m.lexCalls.Add(1)
	if m.blockLexCtx {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return m.lexical, m.lexErr
}

func sem(id string, score float64) passage.Scored {
	return passage.Scored{Passage: passage.Passage{ID: id, Text: id}, Semantic: score, HasSemantic: true}
}

func lex(id string, score float64) passage.Scored {
	return passage.Scored{Passage: passage.Passage{ID: id, Text: id}, Lexical: score, HasLexical: true}
}

func ids(res []passage.Scored) []string {
	out := make([]string, len(res))
	for i, r := range res {
		out[i] = r.ID
	}
	return out
}

func equalIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestHybrid_MaxFusionOuterJoin(t *testing.T) {
	repo := &mockRepo{
		semantic: []passage.Scored{sem("a", 0.9), sem("b", 0.4)},
		lexical:  []passage.Scored{lex("b", 0.7), lex("c", 0.5)},
	}
	svc := New(repo, Options{TopK: 5}, zap.NewNop())

	res, err := svc.Hybrid(context.Background(), Request{Query: "install", Vector: []float32{1}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := []string{"a", "b", "c"}; !equalIDs(ids(res), want) {
		t.Fatalf("expected %v, got %v", want, ids(res))
	}
	b := res[1]
	if !b.HasSemantic || !b.HasLexical {
		t.Fatalf("expected b to carry both signals, got %+v", b)
	}
	if b.Combined != 0.7 {
		t.Fatalf("expected combined = max(0.4, 0.7) = 0.7, got %f", b.Combined)
	}
	if res[2].HasSemantic || res[2].Semantic != 0 {
		t.Fatalf("expected c to be lexical-only, got %+v", res[2])
	}
}

func TestHybrid_DefaultTopK(t *testing.T) {
	repo := &mockRepo{
		semantic: []passage.Scored{sem("a", 0.9), sem("b", 0.8), sem("c", 0.7), sem("d", 0.6)},
	}
	svc := New(repo, Options{}, zap.NewNop())

	res, err := svc.Hybrid(context.Background(), Request{Query: "q", Vector: []float32{1}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res) != DefaultTopK {
		t.Fatalf("expected %d results, got %d", DefaultTopK, len(res))
	}
	if got := repo.gotLimit.Load(); got != DefaultTopK {
		t.Fatalf("expected per-query limit %d, got %d", DefaultTopK, got)
	}
}

func TestHybrid_PerQueryLimit(t *testing.T) {
	repo := &mockRepo{}
	svc := New(repo, Options{TopK: 3, PerQueryLimit: 20}, zap.NewNop())

	if _, err := svc.Hybrid(context.Background(), Request{Query: "q", Vector: []float32{1}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := repo.gotLimit.Load(); got != 20 {
		t.Fatalf("expected limit 20, got %d", got)
	}
}

func TestHybrid_LexicalFailureDegradesToSemantic(t *testing.T) {
	repo := &mockRepo{
		semantic: []passage.Scored{sem("a", 0.9), sem("b", 0.5)},
		lexErr:   errors.New("full-text index offline"),
	}
	svc := New(repo, Options{TopK: 3}, zap.NewNop())

	res, err := svc.Hybrid(context.Background(), Request{Query: "q", Vector: []float32{1}})
	if err != nil {
		t.Fatalf("expected degradation, got error: %v", err)
	}
	if want := []string{"a", "b"}; !equalIDs(ids(res), want) {
		t.Fatalf("expected %v, got %v", want, ids(res))
	}
}

func TestHybrid_SemanticFailureDegradesToLexical(t *testing.T) {
	repo := &mockRepo{
		semErr:  errors.New("knn timeout"),
		lexical: []passage.Scored{lex("x", 2.5)},
	}
	svc := New(repo, Options{}, zap.NewNop())

	res, err := svc.Hybrid(context.Background(), Request{Query: "q", Vector: []float32{1}})
	if err != nil {
		t.Fatalf("expected degradation, got error: %v", err)
	}
	if len(res) != 1 || res[0].ID != "x" {
		t.Fatalf("expected lexical result, got %v", ids(res))
	}
}

func TestHybrid_BothFail(t *testing.T) {
	repo := &mockRepo{
		semErr: errors.New("down"),
		lexErr: errors.New("down"),
	}
	svc := New(repo, Options{}, zap.NewNop())

	_, err := svc.Hybrid(context.Background(), Request{Query: "q", Vector: []float32{1}})
	if !errors.Is(err, domain.ErrRetrievalFailed) {
		t.Fatalf("expected ErrRetrievalFailed, got %v", err)
	}
}

func TestHybrid_NilVectorSkipsSemantic(t *testing.T) {
	repo := &mockRepo{lexical: []passage.Scored{lex("x", 1)}}
	svc := New(repo, Options{}, zap.NewNop())

	res, err := svc.Hybrid(context.Background(), Request{Query: "q"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.semCalls.Load() != 0 {
		t.Fatal("expected no semantic call without a vector")
	}
	if len(res) != 1 {
		t.Fatalf("expected 1 result, got %d", len(res))
	}
}

func TestHybrid_NilVectorAndLexicalFailure(t *testing.T) {
	repo := &mockRepo{lexErr: errors.New("down")}
	svc := New(repo, Options{}, zap.NewNop())

	_, err := svc.Hybrid(context.Background(), Request{Query: "q"})
	if !errors.Is(err, domain.ErrRetrievalFailed) {
		t.Fatalf("expected ErrRetrievalFailed, got %v", err)
	}
}

func TestHybrid_EmptyRequest(t *testing.T) {
	repo := &mockRepo{}
	svc := New(repo, Options{}, zap.NewNop())

	_, err := svc.Hybrid(context.Background(), Request{Query: "   "})
	if !errors.Is(err, domain.ErrInvalidQuery) {
		t.Fatalf("expected ErrInvalidQuery, got %v", err)
	}
	if repo.semCalls.Load()+repo.lexCalls.Load() != 0 {
		t.Fatal("expected no store calls")
	}
}

func TestHybrid_CancelledContext(t *testing.T) {
	repo := &mockRepo{semantic: []passage.Scored{sem("a", 0.9)}, blockLexCtx: true}
	svc := New(repo, Options{}, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := svc.Hybrid(ctx, Request{Query: "q", Vector: []float32{1}})
	if err != nil {
		t.Fatalf("expected semantic result to survive, got %v", err)
	}
	if len(res) != 1 {
		t.Fatalf("expected 1 result, got %d", len(res))
	}
}

func TestHybrid_TieBreakByID(t *testing.T) {
	repo := &mockRepo{
		semantic: []passage.Scored{sem("b", 0.5), sem("a", 0.5), sem("c", 0.5)},
	}
	svc := New(repo, Options{TopK: 3}, zap.NewNop())

	for range 5 {
		res, err := svc.Hybrid(context.Background(), Request{Query: "q", Vector: []float32{1}})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if want := []string{"a", "b", "c"}; !equalIDs(ids(res), want) {
			t.Fatalf("expected %v, got %v", want, ids(res))
		}
	}
}

func TestHybrid_ScopeForwarded(t *testing.T) {
	repo := &mockRepo{}
	svc := New(repo, Options{}, zap.NewNop())

	scope := passage.Scope{Sources: []string{"official"}}
	if _, err := svc.Hybrid(context.Background(), Request{Query: "q", Vector: []float32{1}, Scope: scope}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(repo.gotScope.Sources) != 1 || repo.gotScope.Sources[0] != "official" {
		t.Fatalf("expected scope forwarded, got %+v", repo.gotScope)
	}
}
