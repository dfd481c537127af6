package search

import (
	"context"

	"github.com/kailas-cloud/docqa/internal/domain/passage"
)

// Repository is the passage store port: two independent retrieval signals
// over the same corpus.
type Repository interface {
	SemanticSearch(ctx context.Context, vector []float32, scope passage.Scope, limit int) ([]passage.Scored, error)
	LexicalSearch(ctx context.Context, query string, scope passage.Scope, limit int) ([]passage.Scored, error)
}
