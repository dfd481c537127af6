package chi

import (
	"context"

	"github.com/kailas-cloud/docqa/internal/domain/chat"
	"github.com/kailas-cloud/docqa/internal/domain/passage"
	"github.com/kailas-cloud/docqa/internal/usecase/answer"
	"github.com/kailas-cloud/docqa/internal/usecase/health"
	"github.com/kailas-cloud/docqa/internal/usecase/normalize"
	"github.com/kailas-cloud/docqa/internal/usecase/retrieval"
	"github.com/kailas-cloud/docqa/internal/usecase/search"
)

// Retriever builds cited context for a conversation.
type Retriever interface {
	RetrieveAndFormatIn(ctx context.Context, turns []chat.Turn, scope passage.Scope) (retrieval.Result, error)
}

// Answerer produces assistant replies.
type Answerer interface {
	Answer(ctx context.Context, turns []chat.Turn) (answer.Reply, error)
}

// Normalizer corrects query spelling.
type Normalizer interface {
	Normalize(ctx context.Context, query string) normalize.Result
}

// Explorer runs multi-source ranked search.
type Explorer interface {
	Explore(ctx context.Context, req search.ExploreRequest) ([]passage.Scored, error)
}

// HealthChecker aggregates component health.
type HealthChecker interface {
	Check(ctx context.Context) health.Report
}
