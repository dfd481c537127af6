package main

import (
	"context"
		"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/docqa/internal/config"
	"github.com/kailas-cloud/docqa/internal/db"
	"github.com/kailas-cloud/docqa/internal/db/memory"
	dbPostgres "github.com/kailas-cloud/docqa/internal/db/postgres"
	dbRedis "github.com/kailas-cloud/docqa/internal/db/redis"
	"github.com/kailas-cloud/docqa/internal/domain"
	"github.com/kailas-cloud/docqa/internal/domain/vocabulary"
	"github.com/kailas-cloud/docqa/internal/metrics"
	"github.com/kailas-cloud/docqa/internal/repository/embcache"
	passagerepo "github.com/kailas-cloud/docqa/internal/repository/passage"
	openaiTransport "github.com/kailas-cloud/docqa/internal/transport/openai"
	answeruc "github.com/kailas-cloud/docqa/internal/usecase/answer"
	embeddinguc "github.com/kailas-cloud/docqa/internal/usecase/embedding"
	healthuc "github.com/kailas-cloud/docqa/internal/usecase/health"
	ingestuc "github.com/kailas-cloud/docqa/internal/usecase/ingest"
	normalizeuc "github.com/kailas-cloud/docqa/internal/usecase/normalize"
	retrievaluc "github.com/kailas-cloud/docqa/internal/usecase/retrieval"
	searchuc "github.com/kailas-cloud/docqa/internal/usecase/search"
)

// app is the composition root shared by all subcommands.
type app struct {
	cfg        config.Config
	logger     *zap.Logger
	store      db.Store
	passages   *passagerepo.Repo
	normalizer *normalizeuc.Service
	search     *searchuc.Service
	explorer   *searchuc.Explorer
	retrieval  *retrievaluc.Service
	ingest     *ingestuc.Service
	answer     *answeruc.Service // nil without a generation provider
	health     *healthuc.Service

	docEmbedder   domain.Embedder // nil without an embedding provider
	queryEmbedder domain.Embedder // nil without an embedding provider
	generator     *openaiTransport.Generator
}

func newApp(ctx context.Context, cfg config.Config, logger *zap.Logger) (*app, error) {
	metrics.RegisterCollaboratorMetrics()
	metrics.RegisterRetrievalMetrics()

	store, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		store.Close()
		return nil, fmt.Errorf("database not ready: %w", err)
	}
	logger.Info("Connected to passage store", zap.String("driver", cfg.Database.Driver))

	a := &app{cfg: cfg, logger: logger, store: store}

	a.passages = passagerepo.New(store, passagerepo.Options{
		KeyPrefix:       cfg.Storage.KeyPrefix,
		IndexName:       cfg.Database.Index.Name,
		Dimensions:      cfg.Embedding.Dimensions,
		HNSWM:           cfg.Database.Index.HNSWM,
		HNSWEFConstruct: cfg.Database.Index.HNSWEFConstruct,
	})
	if err := a.passages.EnsureIndex(ctx); err != nil {
		store.Close()
		return nil, fmt.Errorf("ensure passage index: %w", err)
	}

	vocab, err := loadVocabulary(cfg.Normalizer.VocabularyFile)
	if err != nil {
		store.Close()
		return nil, err
	}
	a.normalizer = normalizeuc.New(vocab, normalizeuc.Config{
		Enabled:        cfg.Normalizer.IsEnabled(),
		Threshold:      cfg.Normalizer.Threshold,
		MaxCorrections: cfg.Normalizer.MaxCorrections,
		Scorer:         normalizeuc.ScorerByName(cfg.Normalizer.Scorer),
	}, logger)

	a.buildEmbedders()

	a.search = searchuc.New(a.passages, searchuc.Options{
		TopK:          cfg.Search.TopK,
		PerQueryLimit: cfg.Search.PerQueryLimit,
		Fusion:        searchuc.Fusion(cfg.Search.Fusion),
	}, logger)
	a.explorer = searchuc.NewExplorer(a.search, searchuc.NewRanker(searchuc.RankerConfig{
		SimilarityWeight: cfg.Ranking.SimilarityWeight,
		KeywordWeight:    cfg.Ranking.KeywordWeight,
		SourceBoost:      cfg.Ranking.SourceBoost,
		PreferredSource:  cfg.Ranking.PreferredSource,
		TieEpsilon:       cfg.Ranking.TieEpsilon,
		MaxResults:       cfg.Ranking.MaxResults,
	}), logger)
	a.retrieval = retrievaluc.New(a.normalizer, a.queryEmbedder, a.search, retrievaluc.Options{
		Timeout: cfg.Retrieval.Timeout(),
		TopK:    cfg.Search.TopK,
	}, logger)
	a.ingest = ingestuc.New(a.passages, a.docEmbedder, cfg.Embedding.Dimensions, logger)

	if cfg.Generation.Provider != "" {
		prov := cfg.Providers[cfg.Generation.Provider]
		a.generator = openaiTransport.NewGenerator(&openaiTransport.GeneratorConfig{
			Config: openaiTransport.Config{
				APIKey:   prov.APIKey,
				BaseURL:  prov.BaseURL,
				Model:    cfg.Generation.Model,
				Provider: cfg.Generation.Provider,
				Logger:   logger,
			},
			Temperature:  cfg.Generation.Temperature,
			MaxTokens:    cfg.Generation.MaxTokens,
			SystemPrompt: cfg.Generation.SystemPrompt,
		})
		a.answer = answeruc.New(a.retrieval, a.generator, logger)
	}

	// Pass nil interfaces, not typed nil pointers, for absent collaborators.
	var embChecker, genChecker healthuc.Checker
	if hc, ok := a.docEmbedder.(domain.HealthChecker); ok {
		embChecker = hc
	}
	if a.generator != nil {
		genChecker = a.generator
	}
	a.health = healthuc.New(store, embChecker, genChecker)

	if cfg.Database.Fixture != "" {
		if err := a.loadFixture(ctx, cfg.Database.Fixture); err != nil {
			store.Close()
			return nil, err
		}
	}
	return a, nil
}

func (a *app) close() {
	a.store.Close()
}

func openStore(ctx context.Context, cfg config.Config) (db.Store, error) {
	switch cfg.Database.Driver {
	case config.DriverRedis:
		s, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Database.Addrs,
			Username: cfg.Database.Username,
			Password: cfg.Database.Password,
		})
		if err != nil {
			return nil, fmt.Errorf("create redis store: %w", err)
		}
		return s, nil
	case config.DriverPostgres:
		s, err := dbPostgres.NewStore(ctx, dbPostgres.Config{DSN: cfg.Database.DSN})
		if err != nil {
			return nil, fmt.Errorf("create postgres store: %w", err)
		}
		return s, nil
	case config.DriverMemory:
		return memory.NewStore(), nil
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Database.Driver)
	}
}

func loadVocabulary(path string) (*vocabulary.Vocabulary, error) {
	if path == "" {
		return vocabulary.Default(), nil
	}
	v, err := vocabulary.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load vocabulary: %w", err)
	}
	return v, nil
}

// buildEmbedders assembles the decorator chain:
// OpenAI -> Cached -> Instrumented -> query instruction (query side only).
func (a *app) buildEmbedders() {
	cfg := a.cfg
	if cfg.Embedding.Provider == "" {
		a.logger.Warn("No embedding provider configured, retrieval runs lexical-only")
		return
	}
	prov := cfg.Providers[cfg.Embedding.Provider]

	base := openaiTransport.NewEmbedder(&openaiTransport.Config{
		APIKey:     prov.APIKey,
		BaseURL:    prov.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Provider:   cfg.Embedding.Provider,
		Logger:     a.logger,
	})
	cached := embcache.New(base, a.store, embcache.Options{
		KeyPrefix: cfg.Storage.KeyPrefix,
		Model:     cfg.Embedding.Model,
		TTL:       time.Duration(cfg.Embedding.CacheTTLSec) * time.Second,
	}, metrics.EmbeddingCacheTotal, a.logger)
	instrumented := embeddinguc.NewInstrumentedEmbedder(
		cached, cfg.Embedding.Provider, cfg.Embedding.Model, cfg.Embedding.Dimensions, a.logger,
	)

	a.docEmbedder = healthyEmbedder{InstrumentedEmbedder: instrumented, checker: base}
	a.queryEmbedder = instrumented
	if cfg.Embedding.QueryInstruction != "" {
		a.queryEmbedder = domain.NewQueryEmbedder(instrumented, cfg.Embedding.QueryInstruction)
	}
	a.logger.Info("Embedder created",
		zap.String("provider", cfg.Embedding.Provider),
		zap.String("model", cfg.Embedding.Model),
		zap.Int("dimensions", cfg.Embedding.Dimensions),
	)
}

func (a *app) loadFixture(ctx context.Context, path string) error {
	ps, err := ingestuc.LoadFixture(path)
	if err != nil {
		return fmt.Errorf("load fixture: %w", err)
	}
	if _, err := a.ingest.Ingest(ctx, ps); err != nil {
		return fmt.Errorf("ingest fixture: %w", err)
	}
	return nil
}

// healthyEmbedder exposes the provider health check on the decorated chain.
type healthyEmbedder struct {
	*embeddinguc.InstrumentedEmbedder
	checker domain.HealthChecker
}

func (h healthyEmbedder) HealthCheck(ctx context.Context) error {
	if err := h.checker.HealthCheck(ctx); err != nil {
		return fmt.Errorf("embedding health check: %w", err)
	}
	return nil
}
