package search

import (
	"cmp"
	"math"
	"slices"
	"strings"

	"github.com/kailas-cloud/docqa/internal/domain/passage"
)

// RankerConfig holds the multi-source merge weights.
type RankerConfig struct {
	SimilarityWeight float64
	KeywordWeight    float64
	SourceBoost      float64
	PreferredSource  string
	TieEpsilon       float64
	MaxResults       int
}

// DefaultRankerConfig returns the standard merge weights.
func DefaultRankerConfig() RankerConfig {
	return RankerConfig{
		SimilarityWeight: 0.65,
		KeywordWeight:    0.35,
		SourceBoost:      0.1,
		PreferredSource:  "official",
		TieEpsilon:       0.01,
		MaxResults:       10,
	}
}

// Ranker merges pooled passages from heterogeneous sources into one ranking.
// It holds only immutable configuration and is safe for concurrent use.
type Ranker struct {
	cfg RankerConfig
}

// NewRanker creates a ranker. A non-positive MaxResults falls back to 10.
func NewRanker(cfg RankerConfig) *Ranker {
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = DefaultRankerConfig().MaxResults
	}
	return &Ranker{cfg: cfg}
}

// MergeAndRank normalizes each source's scores by that source's maxima,
// combines them linearly with the preferred-source boost and returns at most
// MaxResults passages. Duplicate passage IDs keep their best-scoring entry.
// The input slice is not modified.
func (r *Ranker) MergeAndRank(pool []passage.Scored) []passage.Scored {
	if len(pool) == 0 {
		return nil
	}

	type maxima struct{ sim, kw float64 }
	bySource := make(map[string]maxima)
	for _, p := range pool {
		m := bySource[p.Source]
		m.sim = max(m.sim, finite(p.Semantic))
		m.kw = max(m.kw, finite(p.Lexical))
		bySource[p.Source] = m
	}

	best := make(map[string]passage.Scored, len(pool))
	for _, p := range pool {
		m := bySource[p.Source]
		sim := finite(p.Semantic) / nonZero(m.sim)
		kw := finite(p.Lexical) / nonZero(m.kw)

		p.Combined = r.cfg.SimilarityWeight*sim + r.cfg.KeywordWeight*kw
		if r.isPreferred(p) {
			p.Combined += r.cfg.SourceBoost
		}
		if prev, ok := best[p.ID]; ok && !r.before(p, prev) {
			continue
		}
		best[p.ID] = p
	}

	out := make([]passage.Scored, 0, len(best))
	for _, p := range best {
		out = append(out, p)
	}
	// Pre-order by a total key so the tolerant comparison below starts
	// from the same sequence regardless of map iteration order.
	slices.SortFunc(out, func(a, b passage.Scored) int {
		if c := cmp.Compare(b.Combined, a.Combined); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	slices.SortStableFunc(out, func(a, b passage.Scored) int {
		switch {
		case r.before(a, b):
			return -1
		case r.before(b, a):
			return 1
		}
		return 0
	})

	if len(out) > r.cfg.MaxResults {
		out = out[:r.cfg.MaxResults]
	}
	return out
}

// before reports whether a ranks ahead of b. Scores within TieEpsilon are a
// tie that the preferred source wins.
func (r *Ranker) before(a, b passage.Scored) bool {
	if math.Abs(a.Combined-b.Combined) <= r.cfg.TieEpsilon {
		ap, bp := r.isPreferred(a), r.isPreferred(b)
		if ap != bp {
			return ap
		}
	}
	if a.Combined != b.Combined {
		return a.Combined > b.Combined
	}
	return a.ID < b.ID
}

func (r *Ranker) isPreferred(p passage.Scored) bool {
	return r.cfg.PreferredSource != "" && p.Source == r.cfg.PreferredSource
}

func nonZero(v float64) float64 {
	if v == 0 {
		return 1
	}
	return v
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}
