// Package ingest loads pre-chunked passages into the passage store,
// embedding the ones that arrive without a vector.
package ingest

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/docqa/internal/domain"
	"github.com/kailas-cloud/docqa/internal/domain/passage"
	"github.com/kailas-cloud/docqa/internal/logger"
)

// DefaultBatchSize is the number of passages written per store call.
const DefaultBatchSize = 100

// Repository persists passages.
type Repository interface {
	Upsert(ctx context.Context, passages []passage.Passage) error
}

// Stats summarizes one ingestion run.
type Stats struct {
	Passages    int
	Embedded    int
	TotalTokens int
}

// Service writes passages in batches.
type Service struct {
	repo       Repository
	embed      domain.Embedder
	dimensions int
	batchSize  int
	logger     *zap.Logger
}

// New creates an ingestion service. embed may be nil when every passage
// carries its own embedding.
func New(repo Repository, embed domain.Embedder, dimensions int, log *zap.Logger) *Service {
	return &Service{repo: repo, embed: embed, dimensions: dimensions, batchSize: DefaultBatchSize, logger: log}
}

// WithBatchSize configures the store write batch size.
func (s *Service) WithBatchSize(size int) *Service {
	if size > 0 {
		s.batchSize = size
	}
	return s
}

// Ingest validates, embeds and stores passages. The first invalid passage
// aborts the run before anything is written.
func (s *Service) Ingest(ctx context.Context, passages []passage.Passage) (Stats, error) {
	seen := make(map[string]struct{}, len(passages))
	var missing []int
	for i, p := range passages {
		if err := s.validate(p); err != nil {
			return Stats{}, fmt.Errorf("passage %d (%q): %w", i, p.ID, err)
		}
		if _, dup := seen[p.ID]; dup {
			return Stats{}, fmt.Errorf("passage %d: duplicate id %q: %w", i, p.ID, domain.ErrInvalidQuery)
		}
		seen[p.ID] = struct{}{}
		if !p.HasEmbedding() {
			missing = append(missing, i)
		}
	}

	stats := Stats{Passages: len(passages)}
	passages = slices.Clone(passages)
	if len(missing) > 0 && s.embed != nil {
		texts := make([]string, len(missing))
		for j, i := range missing {
			texts[j] = passages[i].Text
		}
		res, err := domain.EmbedAll(ctx, s.embed, texts)
		if err != nil {
			return Stats{}, fmt.Errorf("embed passages: %w", err)
		}
		for j, i := range missing {
			passages[i].Embedding = res.Embeddings[j]
		}
		stats.Embedded = len(missing)
		stats.TotalTokens = res.TotalTokens
	}

	for start := 0; start < len(passages); start += s.batchSize {
		end := min(start+s.batchSize, len(passages))
		if err := s.repo.Upsert(ctx, passages[start:end]); err != nil {
			return stats, fmt.Errorf("upsert passages [%d:%d]: %w", start, end, err)
		}
	}

	logger.OrFallback(ctx, s.logger).Info("Passages ingested",
		zap.Int("passages", stats.Passages),
		zap.Int("embedded", stats.Embedded),
		zap.Int("total_tokens", stats.TotalTokens),
	)
	return stats, nil
}

func (s *Service) validate(p passage.Passage) error {
	if strings.TrimSpace(p.ID) == "" {
		return fmt.Errorf("id is required: %w", domain.ErrInvalidQuery)
	}
	if strings.TrimSpace(p.Text) == "" {
		return fmt.Errorf("text is required: %w", domain.ErrInvalidQuery)
	}
	if p.HasEmbedding() && s.dimensions > 0 && len(p.Embedding) != s.dimensions {
		return fmt.Errorf("%w: expected %d, got %d", domain.ErrVectorDimMismatch, s.dimensions, len(p.Embedding))
	}
	return nil
}
