// Package search runs the hybrid semantic plus lexical passage query and
// ranks pooled multi-source results.
package search

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/docqa/internal/domain"
	"github.com/kailas-cloud/docqa/internal/domain/passage"
	"github.com/kailas-cloud/docqa/internal/logger"
	"github.com/kailas-cloud/docqa/internal/metrics"
	"github.com/kailas-cloud/docqa/internal/tracing"
)

// Fusion selects how the two signals are combined per passage.
type Fusion string

const (
	// FusionMax scores a passage by the stronger of its two signals.
	FusionMax Fusion = "max"
	// FusionRRF scores a passage by reciprocal rank fusion.
	FusionRRF Fusion = "rrf"
)

// DefaultTopK is the number of passages returned for chat context.
const DefaultTopK = 3

const (
	kindSemantic = "semantic"
	kindLexical  = "lexical"
)

// Options configure the hybrid query.
type Options struct {
	TopK          int
	PerQueryLimit int // 0 means TopK
	Fusion        Fusion
}

// Request is one hybrid query. A nil Vector means no semantic signal is
// available (for example the embedding call failed); only the lexical
// sub-query runs then.
type Request struct {
	Query  string
	Vector []float32
	Scope  passage.Scope
	TopK   int
}

// Service issues the semantic and lexical sub-queries concurrently and
// outer-joins their results.
type Service struct {
	repo   Repository
	opts   Options
	logger *zap.Logger
}

// New creates a search service.
func New(repo Repository, opts Options, log *zap.Logger) *Service {
	if opts.TopK <= 0 {
		opts.TopK = DefaultTopK
	}
	if opts.Fusion == "" {
		opts.Fusion = FusionMax
	}
	return &Service{repo: repo, opts: opts, logger: log}
}

// Hybrid runs both sub-queries in parallel and returns the top-K passages by
// combined score. A failing sub-query is logged and degrades to an empty
// signal; an error is returned only when no signal succeeded.
func (s *Service) Hybrid(ctx context.Context, req Request) ([]passage.Scored, error) {
	if strings.TrimSpace(req.Query) == "" && len(req.Vector) == 0 {
		return nil, domain.ErrInvalidQuery
	}
	topK := req.TopK
	if topK <= 0 {
		topK = s.opts.TopK
	}
	limit := s.opts.PerQueryLimit
	if limit <= 0 {
		limit = topK
	}

	var semantic, lexical []passage.Scored
	var semErr, lexErr error
	semRan := len(req.Vector) > 0
	lexRan := strings.TrimSpace(req.Query) != ""

	g, gctx := errgroup.WithContext(ctx)
	if semRan {
		g.Go(func() error {
			semantic, semErr = s.subquery(gctx, kindSemantic, func(ctx context.Context) ([]passage.Scored, error) {
				return s.repo.SemanticSearch(ctx, req.Vector, req.Scope, limit)
			})
			return nil
		})
	}
	if lexRan {
		g.Go(func() error {
			lexical, lexErr = s.subquery(gctx, kindLexical, func(ctx context.Context) ([]passage.Scored, error) {
				return s.repo.LexicalSearch(ctx, req.Query, req.Scope, limit)
			})
			return nil
		})
	}
	_ = g.Wait()

	semOK := semRan && semErr == nil
	lexOK := lexRan && lexErr == nil
	if !semOK && !lexOK {
		return nil, fmt.Errorf("%w: semantic: %w, lexical: %w",
			domain.ErrRetrievalFailed, orSkipped(semErr), orSkipped(lexErr))
	}

	if s.opts.Fusion == FusionRRF {
		return fuseRRF(semantic, lexical, topK), nil
	}
	return fuseMax(semantic, lexical, topK), nil
}

// subquery times one retrieval signal, records it on a span and logs failures.
func (s *Service) subquery(
	ctx context.Context, kind string, run func(context.Context) ([]passage.Scored, error),
) ([]passage.Scored, error) {
	ctx, span := tracing.Start(ctx, "search."+kind)
	defer span.End()

	start := time.Now()
	res, err := run(ctx)
	metrics.SubqueryDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())

	if err != nil {
		tracing.RecordError(span, err)
		metrics.SubqueryErrorsTotal.WithLabelValues(kind).Inc()
		logger.OrFallback(ctx, s.logger).Warn("Search sub-query failed",
			zap.String("kind", kind),
			zap.Error(err),
		)
		return nil, err
	}
	span.SetAttributes(attribute.Int("search.hits", len(res)))
	return res, nil
}

func orSkipped(err error) error {
	if err == nil {
		return errSkipped
	}
	return err
}

var errSkipped = errors.New("not run")

// fuseMax outer-joins both signals by passage ID and scores each passage by
// the larger of its semantic and lexical scores.
func fuseMax(semantic, lexical []passage.Scored, topK int) []passage.Scored {
	merged := join(semantic, lexical)
	for _, p := range merged {
		p.Combined = max(p.Semantic, p.Lexical)
	}
	return sortAndCut(merged, topK)
}

// join builds one entry per passage ID carrying whichever signals found it.
func join(semantic, lexical []passage.Scored) map[string]*passage.Scored {
	merged := make(map[string]*passage.Scored, len(semantic)+len(lexical))
	for _, r := range semantic {
		p := r
		p.HasLexical, p.Lexical, p.Combined = false, 0, 0
		merged[r.ID] = &p
	}
	for _, r := range lexical {
		if existing, ok := merged[r.ID]; ok {
			existing.Lexical, existing.HasLexical = r.Lexical, true
			continue
		}
		p := r
		p.HasSemantic, p.Semantic, p.Combined = false, 0, 0
		merged[r.ID] = &p
	}
	return merged
}

// sortAndCut orders by combined score descending with ID as a stable
// secondary key and truncates to topK.
func sortAndCut(merged map[string]*passage.Scored, topK int) []passage.Scored {
	out := make([]passage.Scored, 0, len(merged))
	for _, p := range merged {
		out = append(out, *p)
	}
	slices.SortFunc(out, func(a, b passage.Scored) int {
		if c := cmp.Compare(b.Combined, a.Combined); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	if len(out) > topK {
		out = out[:topK]
	}
	return out
}
