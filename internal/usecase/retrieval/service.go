// Package retrieval turns a conversation into a cited context string for the
// generation collaborator.
package retrieval

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/kailas-cloud/docqa/internal/domain"
	"github.com/kailas-cloud/docqa/internal/domain/chat"
	"github.com/kailas-cloud/docqa/internal/domain/passage"
	"github.com/kailas-cloud/docqa/internal/logger"
	"github.com/kailas-cloud/docqa/internal/metrics"
	"github.com/kailas-cloud/docqa/internal/tracing"
	"github.com/kailas-cloud/docqa/internal/usecase/normalize"
	"github.com/kailas-cloud/docqa/internal/usecase/search"
)

// NoContext is handed to the generation collaborator when nothing relevant
// was retrieved.
const NoContext = "No relevant documentation sections found."

// DefaultTimeout bounds one retrieval including embedding and both sub-queries.
const DefaultTimeout = 10 * time.Second

// Outcome classifies how a retrieval ended.
type Outcome string

// Retrieval outcomes.
const (
	OutcomeOK        Outcome = "ok"
	OutcomeNoContext Outcome = "no_context"
	OutcomeClarify   Outcome = "clarify"
)

// Options tune the orchestrator.
type Options struct {
	Timeout time.Duration
	TopK    int
	Scope   passage.Scope
}

// Result is the outcome of one retrieval.
type Result struct {
	Context     string
	Outcome     Outcome
	Original    string
	Query       string
	Corrections []normalize.Correction
	Passages    []passage.Scored
}

// Service orchestrates normalization, embedding and hybrid search.
type Service struct {
	normalizer Normalizer
	embedder   domain.Embedder
	search     Searcher
	opts       Options
	logger     *zap.Logger
}

// New creates a retrieval orchestrator. A nil embedder runs lexical-only.
func New(n Normalizer, e domain.Embedder, s Searcher, opts Options, log *zap.Logger) *Service {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	return &Service{normalizer: n, embedder: e, search: s, opts: opts, logger: log}
}

// RetrieveAndFormat retrieves passages for the latest user turn and formats
// them with citations. Collaborator failures and empty results produce the
// NoContext marker with a nil error. A conversation without a usable user
// turn returns OutcomeClarify with ErrNoUserTurn or ErrInvalidQuery and
// touches no collaborator.
func (s *Service) RetrieveAndFormat(ctx context.Context, turns []chat.Turn) (Result, error) {
	return s.RetrieveAndFormatIn(ctx, turns, s.opts.Scope)
}

// RetrieveAndFormatIn is RetrieveAndFormat restricted to scope.
func (s *Service) RetrieveAndFormatIn(ctx context.Context, turns []chat.Turn, scope passage.Scope) (Result, error) {
	turn, ok := chat.LatestUserTurn(turns)
	if !ok {
		metrics.RetrievalOutcomesTotal.WithLabelValues(string(OutcomeClarify)).Inc()
		return Result{Outcome: OutcomeClarify}, domain.ErrNoUserTurn
	}
	if strings.TrimSpace(turn.Content) == "" {
		metrics.RetrievalOutcomesTotal.WithLabelValues(string(OutcomeClarify)).Inc()
		return Result{Outcome: OutcomeClarify}, fmt.Errorf("%w: empty user turn", domain.ErrInvalidQuery)
	}
	return s.Retrieve(ctx, turn.Content, scope), nil
}

// Retrieve runs the pipeline for a single query within the given scope.
func (s *Service) Retrieve(ctx context.Context, query string, scope passage.Scope) Result {
	ctx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()
	ctx, span := tracing.Start(ctx, "retrieval.retrieve")
	defer span.End()

	log := logger.OrFallback(ctx, s.logger)

	normalized := s.normalizer.Normalize(ctx, query)
	res := Result{
		Original:    query,
		Query:       normalized.Query,
		Corrections: normalized.Corrections,
	}

	var vector []float32
	if s.embedder != nil {
		emb, err := s.embedder.Embed(ctx, normalized.Query)
		if err != nil {
			tracing.RecordError(span, err)
			log.Warn("Query embedding failed, continuing without semantic signal",
				zap.String("sub_path", "embedding"),
				zap.Error(err),
			)
		} else {
			vector = emb.Embedding
		}
	}

	passages, err := s.search.Hybrid(ctx, search.Request{
		Query:  normalized.Query,
		Vector: vector,
		Scope:  scope,
		TopK:   s.opts.TopK,
	})
	if err != nil {
		tracing.RecordError(span, err)
		log.Warn("Passage retrieval failed",
			zap.String("sub_path", "search"),
			zap.Error(err),
		)
	}

	res.Passages = passages
	if len(passages) == 0 {
		res.Context = NoContext
		res.Outcome = OutcomeNoContext
	} else {
		res.Context = Format(passages)
		res.Outcome = OutcomeOK
	}

	span.SetAttributes(
		attribute.String("retrieval.outcome", string(res.Outcome)),
		attribute.Int("retrieval.passages", len(passages)),
		attribute.Int("retrieval.corrections", len(res.Corrections)),
	)
	metrics.RetrievalOutcomesTotal.WithLabelValues(string(res.Outcome)).Inc()
	return res
}

// Format renders passages as citation blocks separated by blank lines.
func Format(passages []passage.Scored) string {
	blocks := make([]string, len(passages))
	for i, p := range passages {
		blocks[i] = Cite(p.Passage)
	}
	return strings.Join(blocks, "\n\n")
}

// Cite renders one passage with its section and page label. Missing labels
// render as "unknown".
func Cite(p passage.Passage) string {
	section := p.Section
	if section == "" {
		section = "unknown"
	}
	page := "unknown"
	if p.Page > 0 {
		page = strconv.Itoa(p.Page)
	}
	return fmt.Sprintf("[From section \"%s\" on page %s]:\n%s", section, page, p.Text)
}
