package docqa

import (
	"context"

	"github.com/kailas-cloud/docqa/internal/domain/chat"
	"github.com/kailas-cloud/docqa/internal/domain/passage"
	healthuc "github.com/kailas-cloud/docqa/internal/usecase/health"
	ingestuc "github.com/kailas-cloud/docqa/internal/usecase/ingest"
	normalizeuc "github.com/kailas-cloud/docqa/internal/usecase/normalize"
	retrievaluc "github.com/kailas-cloud/docqa/internal/usecase/retrieval"
)

// --- Embedder mocks ---

type mockEmbedder struct {
	fn func(ctx context.Context, text string) (EmbeddingResult, error)
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) (EmbeddingResult, error) {
	return m.fn(ctx, text)
}

type mockBatchEmbedder struct {
	mockEmbedder
	batchFn func(ctx context.Context, texts []string) (BatchEmbeddingResult, error)
}

func (m *mockBatchEmbedder) BatchEmbed(ctx context.Context, texts []string) (BatchEmbeddingResult, error) {
	return m.batchFn(ctx, texts)
}

// vectorEmbedder maps known texts to fixed vectors.
func vectorEmbedder(vectors map[string][]float32) *mockEmbedder {
	return &mockEmbedder{fn: func(_ context.Context, text string) (EmbeddingResult, error) {
		v, ok := vectors[text]
		if !ok {
			v = []float32{0, 0, 1}
		}
		return EmbeddingResult{Embedding: v, TotalTokens: 1}, nil
	}}
}

// --- use case mocks ---

type mockNormalizerUC struct {
	fn func(ctx context.Context, q string) normalizeuc.Result
}

func (m *mockNormalizerUC) Normalize(ctx context.Context, q string) normalizeuc.Result {
	return m.fn(ctx, q)
}

type mockRetrievalUC struct {
	fn func(ctx context.Context, turns []chat.Turn, scope passage.Scope) (retrievaluc.Result, error)
}

func (m *mockRetrievalUC) RetrieveAndFormatIn(
	ctx context.Context, turns []chat.Turn, scope passage.Scope,
) (retrievaluc.Result, error) {
	return m.fn(ctx, turns, scope)
}

type mockIngestUC struct {
	fn func(ctx context.Context, ps []passage.Passage) (ingestuc.Stats, error)
}

func (m *mockIngestUC) Ingest(ctx context.Context, ps []passage.Passage) (ingestuc.Stats, error) {
	return m.fn(ctx, ps)
}

type mockHealthUC struct {
	report healthuc.Report
}

func (m *mockHealthUC) Check(context.Context) healthuc.Report { return m.report }
