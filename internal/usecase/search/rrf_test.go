package search

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/docqa/internal/domain/passage"
)

func TestFuseRRF_BothListsRankHigher(t *testing.T) {
	semantic := []passage.Scored{sem("a", 0.9), sem("b", 0.8)}
	lexical := []passage.Scored{lex("b", 3), lex("c", 2)}

	res := fuseRRF(semantic, lexical, 10)
	if want := []string{"b", "a", "c"}; !equalIDs(ids(res), want) {
		t.Fatalf("expected %v, got %v", want, ids(res))
	}
	want := 1.0/62 + 1.0/61
	if res[0].Combined != want {
		t.Fatalf("expected %f, got %f", want, res[0].Combined)
	}
}

func TestFuseRRF_IgnoresIncomingCombined(t *testing.T) {
	in := sem("a", 0.9)
	in.Combined = 42

	res := fuseRRF([]passage.Scored{in}, nil, 10)
	if res[0].Combined != 1.0/61 {
		t.Fatalf("expected 1/61, got %f", res[0].Combined)
	}
}

func TestHybrid_RRFMode(t *testing.T) {
	repo := &mockRepo{
		semantic: []passage.Scored{sem("a", 0.99), sem("b", 0.2)},
		lexical:  []passage.Scored{lex("b", 9)},
	}
	svc := New(repo, Options{TopK: 2, Fusion: FusionRRF}, zap.NewNop())

	res, err := svc.Hybrid(context.Background(), Request{Query: "q", Vector: []float32{1}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res[0].ID != "b" {
		t.Fatalf("expected b first under RRF, got %v", ids(res))
	}
}
