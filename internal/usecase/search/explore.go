package search

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/docqa/internal/domain"
	"github.com/kailas-cloud/docqa/internal/domain/passage"
	"github.com/kailas-cloud/docqa/internal/domain/similarity"
	"github.com/kailas-cloud/docqa/internal/logger"
)

// DefaultExploreTopK is the per-source depth of an exploratory search.
const DefaultExploreTopK = 10

// ExploreRequest is a multi-source exploratory query.
type ExploreRequest struct {
	Query       string
	Vector      []float32
	Sources     []string // empty means one unscoped query
	DocumentIDs []string
	TopK        int // per source, 0 means DefaultExploreTopK
}

// Explorer runs the hybrid query once per source tag and merges the pooled
// results through the Ranker.
type Explorer struct {
	search *Service
	ranker *Ranker
	logger *zap.Logger
}

// NewExplorer creates an explorer.
func NewExplorer(search *Service, ranker *Ranker, log *zap.Logger) *Explorer {
	return &Explorer{search: search, ranker: ranker, logger: log}
}

// Explore returns the merged ranking across sources. A failing source is
// dropped; an error is returned only if every source failed.
func (e *Explorer) Explore(ctx context.Context, req ExploreRequest) ([]passage.Scored, error) {
	topK := req.TopK
	if topK <= 0 {
		topK = DefaultExploreTopK
	}
	sources := req.Sources
	if len(sources) == 0 {
		sources = []string{""}
	}

	var (
		mu     sync.Mutex
		pool   []passage.Scored
		failed int
	)
	g, gctx := errgroup.WithContext(ctx)
	for _, src := range sources {
		scope := passage.Scope{DocumentIDs: req.DocumentIDs}
		if src != "" {
			scope.Sources = []string{src}
		}
		g.Go(func() error {
			res, err := e.search.Hybrid(gctx, Request{
				Query: req.Query, Vector: req.Vector, Scope: scope, TopK: topK,
			})
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failed++
				logger.OrFallback(ctx, e.logger).Warn("Explore source failed",
					zap.String("source", src),
					zap.Error(err),
				)
				return nil
			}
			pool = append(pool, res...)
			return nil
		})
	}
	_ = g.Wait()

	if failed == len(sources) {
		return nil, fmt.Errorf("%w: all %d sources failed", domain.ErrRetrievalFailed, failed)
	}

	for i := range pool {
		if !pool[i].HasLexical {
			pool[i].Lexical = similarity.KeywordScore(req.Query, pool[i].Text)
		}
	}
	return e.ranker.MergeAndRank(pool), nil
}
