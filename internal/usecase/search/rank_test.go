package search

import (
	"math"
	"testing"

	"github.com/kailas-cloud/docqa/internal/domain/passage"
)

func scored(id, source string, sim, kw float64) passage.Scored {
	return passage.Scored{
		Passage:  passage.Passage{ID: id, Source: source},
		Semantic: sim,
		Lexical:  kw,
	}
}

func TestMergeAndRank_PerSourceNormalization(t *testing.T) {
	r := NewRanker(RankerConfig{SimilarityWeight: 0.65, KeywordWeight: 0.35, MaxResults: 10})

	// Upload scores are on a 10x scale; after normalization both sources' tops tie at 1.0.
	res := r.MergeAndRank([]passage.Scored{
		scored("u1", "upload", 9, 30),
		scored("u2", "upload", 4.5, 15),
		scored("o1", "official", 0.9, 3),
	})
	if len(res) != 3 {
		t.Fatalf("expected 3 results, got %d", len(res))
	}
	if math.Abs(res[0].Combined-1) > 1e-9 || math.Abs(res[1].Combined-1) > 1e-9 {
		t.Fatalf("expected both source leaders to score 1, got %f and %f", res[0].Combined, res[1].Combined)
	}
	if math.Abs(res[2].Combined-0.5) > 1e-9 {
		t.Fatalf("expected u2 combined 0.5, got %f", res[2].Combined)
	}
}

func TestMergeAndRank_ZeroMaxLeavesScores(t *testing.T) {
	r := NewRanker(RankerConfig{SimilarityWeight: 0.65, KeywordWeight: 0.35})

	res := r.MergeAndRank([]passage.Scored{scored("a", "s", 0, 0)})
	if res[0].Combined != 0 {
		t.Fatalf("expected 0, got %f", res[0].Combined)
	}
}

func TestMergeAndRank_SourceBoost(t *testing.T) {
	r := NewRanker(DefaultRankerConfig())

	res := r.MergeAndRank([]passage.Scored{
		scored("o1", "official", 1, 1),
		scored("u1", "upload", 1, 1),
	})
	if res[0].ID != "o1" {
		t.Fatalf("expected official first, got %s", res[0].ID)
	}
	if math.Abs(res[0].Combined-1.1) > 1e-9 {
		t.Fatalf("expected boosted score 1.1, got %f", res[0].Combined)
	}
}

func TestMergeAndRank_TieBreakPrefersSource(t *testing.T) {
	cfg := DefaultRankerConfig()
	cfg.SourceBoost = 0
	cfg.SimilarityWeight, cfg.KeywordWeight = 1, 0
	r := NewRanker(cfg)

	// Each passage is alone in its source so normalization needs a reference
	// passage to hold the raw values at 0.701 and 0.699.
	res := r.MergeAndRank([]passage.Scored{
		scored("u-ref", "upload", 1, 0),
		scored("u1", "upload", 0.701, 0),
		scored("o-ref", "official", 1, 0),
		scored("o1", "official", 0.699, 0),
	})

	pos := map[string]int{}
	for i, p := range res {
		pos[p.ID] = i
	}
	if pos["o1"] > pos["u1"] {
		t.Fatalf("expected official 0.699 ahead of upload 0.701, got order %v", ids(res))
	}
}

func TestMergeAndRank_NoTieOutsideEpsilon(t *testing.T) {
	cfg := DefaultRankerConfig()
	cfg.SourceBoost = 0
	cfg.SimilarityWeight, cfg.KeywordWeight = 1, 0
	r := NewRanker(cfg)

	res := r.MergeAndRank([]passage.Scored{
		scored("u-ref", "upload", 1, 0),
		scored("u1", "upload", 0.75, 0),
		scored("o-ref", "official", 1, 0),
		scored("o1", "official", 0.7, 0),
	})
	pos := map[string]int{}
	for i, p := range res {
		pos[p.ID] = i
	}
	if pos["u1"] > pos["o1"] {
		t.Fatalf("expected higher score to win outside epsilon, got %v", ids(res))
	}
}

func TestMergeAndRank_Deterministic(t *testing.T) {
	r := NewRanker(DefaultRankerConfig())
	pool := []passage.Scored{
		scored("a", "upload", 0.5, 1),
		scored("b", "upload", 0.5, 1),
		scored("c", "official", 0.2, 0.4),
		scored("d", "official", 0.5, 1),
		scored("e", "wiki", 0.3, 0),
		scored("f", "wiki", 0.3, 0),
	}

	first := ids(r.MergeAndRank(pool))
	for range 20 {
		if got := ids(r.MergeAndRank(pool)); !equalIDs(got, first) {
			t.Fatalf("expected stable order %v, got %v", first, got)
		}
	}
}

func TestMergeAndRank_Dedup(t *testing.T) {
	r := NewRanker(DefaultRankerConfig())

	res := r.MergeAndRank([]passage.Scored{
		scored("a", "upload", 1, 0),
		scored("a", "upload", 0.5, 0),
		scored("b", "upload", 0.2, 0),
	})
	if len(res) != 2 {
		t.Fatalf("expected duplicates collapsed to 2, got %d", len(res))
	}
	if res[0].ID != "a" || res[0].Semantic != 1 {
		t.Fatalf("expected best copy of a kept, got %+v", res[0])
	}
}

func TestMergeAndRank_MaxResults(t *testing.T) {
	r := NewRanker(RankerConfig{SimilarityWeight: 1, MaxResults: 2})

	res := r.MergeAndRank([]passage.Scored{
		scored("a", "s", 0.9, 0),
		scored("b", "s", 0.8, 0),
		scored("c", "s", 0.7, 0),
	})
	if want := []string{"a", "b"}; !equalIDs(ids(res), want) {
		t.Fatalf("expected %v, got %v", want, ids(res))
	}
}

func TestMergeAndRank_DefaultsMaxResults(t *testing.T) {
	r := NewRanker(RankerConfig{SimilarityWeight: 1})
	pool := make([]passage.Scored, 15)
	for i := range pool {
		pool[i] = scored(string(rune('a'+i)), "s", float64(i+1), 0)
	}
	if got := len(r.MergeAndRank(pool)); got != 10 {
		t.Fatalf("expected 10, got %d", got)
	}
}

func TestMergeAndRank_Empty(t *testing.T) {
	if res := NewRanker(DefaultRankerConfig()).MergeAndRank(nil); res != nil {
		t.Fatalf("expected nil, got %v", res)
	}
}

func TestMergeAndRank_DoesNotMutateInput(t *testing.T) {
	pool := []passage.Scored{scored("a", "s", 2, 0)}
	NewRanker(DefaultRankerConfig()).MergeAndRank(pool)
	if pool[0].Semantic != 2 || pool[0].Combined != 0 {
		t.Fatalf("expected input untouched, got %+v", pool[0])
	}
}
