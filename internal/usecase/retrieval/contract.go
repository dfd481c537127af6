package retrieval

import (
	"context"

	"github.com/kailas-cloud/docqa/internal/domain/passage"
	"github.com/kailas-cloud/docqa/internal/usecase/normalize"
	"github.com/kailas-cloud/docqa/internal/usecase/search"
)

// Normalizer rewrites misspelled domain terms in a query.
type Normalizer interface {
	Normalize(ctx context.Context, query string) normalize.Result
}

// Searcher runs the hybrid passage query.
type Searcher interface {
	Hybrid(ctx context.Context, req search.Request) ([]passage.Scored, error)
}
