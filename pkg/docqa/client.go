package docqa

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/docqa/internal/db"
	"github.com/kailas-cloud/docqa/internal/db/memory"
	dbPostgres "github.com/kailas-cloud/docqa/internal/db/postgres"
	dbRedis "github.com/kailas-cloud/docqa/internal/db/redis"
	"github.com/kailas-cloud/docqa/internal/domain"
	"github.com/kailas-cloud/docqa/internal/domain/chat"
	"github.com/kailas-cloud/docqa/internal/domain/passage"
	"github.com/kailas-cloud/docqa/internal/domain/vocabulary"
	passagerepo "github.com/kailas-cloud/docqa/internal/repository/passage"
	healthuc "github.com/kailas-cloud/docqa/internal/usecase/health"
	ingestuc "github.com/kailas-cloud/docqa/internal/usecase/ingest"
	normalizeuc "github.com/kailas-cloud/docqa/internal/usecase/normalize"
	retrievaluc "github.com/kailas-cloud/docqa/internal/usecase/retrieval"
	searchuc "github.com/kailas-cloud/docqa/internal/usecase/search"
)

const (
	defaultReadinessTimeout = 10 * time.Second
	defaultVectorDimensions = 1536
	defaultKeyPrefix        = "docqa:"
	defaultIndexName        = "passages"
	defaultHNSWM            = 16
	defaultHNSWEFConstruct  = 200
)

// Internal interfaces, swapped for mocks in tests.
type normalizerUseCase interface {
	Normalize(ctx context.Context, query string) normalizeuc.Result
}

type retrievalUseCase interface {
	RetrieveAndFormatIn(ctx context.Context, turns []chat.Turn, scope passage.Scope) (retrievaluc.Result, error)
}

type ingestUseCase interface {
	Ingest(ctx context.Context, passages []passage.Passage) (ingestuc.Stats, error)
}

// Client is the docqa SDK entry point.
type Client struct {
	store      db.Store
	normalizer normalizerUseCase
	retriever  retrievalUseCase
	ingester   ingestUseCase
	healthSvc  healthUseCase
	obs        *observer
}

// New creates a Client, connects to the passage store and ensures the
// passage index exists. The provided context is used for the initial
// readiness check.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{
		vectorDimensions: defaultVectorDimensions,
		keyPrefix:        defaultKeyPrefix,
		hnswM:            defaultHNSWM,
		hnswEFConstruct:  defaultHNSWEFConstruct,
		threshold:        normalizeuc.DefaultThreshold,
	}
	for _, o := range opts {
		o.apply(cfg)
	}

	if cfg.driver == "" {
		return nil, errors.New("docqa: passage store required (use WithRedis, WithPostgres or WithMemory)")
	}

	vocab, err := buildVocabulary(cfg.terms)
	if err != nil {
		return nil, err
	}

	store, err := createStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("docqa: database not ready: %w", err)
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		store.Close()
		return nil, err
	}

	c, err := wireClient(ctx, store, vocab, cfg, obs)
	if err != nil {
		store.Close()
		return nil, err
	}
	return c, nil
}

func buildVocabulary(terms []Term) (*vocabulary.Vocabulary, error) {
	if len(terms) == 0 {
		return vocabulary.Default(), nil
	}
	v, err := vocabulary.New(toDomainTerms(terms))
	if err != nil {
		return nil, fmt.Errorf("docqa: vocabulary: %w", err)
	}
	return v, nil
}

func createStore(ctx context.Context, cfg *clientConfig) (db.Store, error) {
	switch cfg.driver {
	case "redis":
		if len(cfg.addrs) == 0 || cfg.addrs[0] == "" {
			return nil, errors.New("docqa: redis address required")
		}
		s, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.addrs,
			Password: cfg.password,
		})
		if err != nil {
			return nil, fmt.Errorf("docqa: create redis store: %w", err)
		}
		return s, nil
	case "postgres":
		if cfg.dsn == "" {
			return nil, errors.New("docqa: postgres dsn required")
		}
		s, err := dbPostgres.NewStore(ctx, dbPostgres.Config{DSN: cfg.dsn})
		if err != nil {
			return nil, fmt.Errorf("docqa: create postgres store: %w", err)
		}
		return s, nil
	case "memory":
		return memory.NewStore(), nil
	default:
		return nil, fmt.Errorf("docqa: unknown driver %q", cfg.driver)
	}
}

func wireClient(
	ctx context.Context, store db.Store, vocab *vocabulary.Vocabulary, cfg *clientConfig, obs *observer,
) (*Client, error) {
	log := zap.NewNop()

	repo := passagerepo.New(store, passagerepo.Options{
		KeyPrefix:       cfg.keyPrefix,
		IndexName:       defaultIndexName,
		Dimensions:      cfg.vectorDimensions,
		HNSWM:           cfg.hnswM,
		HNSWEFConstruct: cfg.hnswEFConstruct,
	})
	if err := repo.EnsureIndex(ctx); err != nil {
		return nil, fmt.Errorf("docqa: ensure passage index: %w", err)
	}

	normCfg := normalizeuc.DefaultConfig()
	normCfg.Enabled = !cfg.noSpelling
	normCfg.Threshold = cfg.threshold
	normalizer := normalizeuc.New(vocab, normCfg, log)

	// Nil interfaces, not typed nils, when no embedder is configured.
	var docEmb, queryEmb domain.Embedder
	var embChecker healthuc.Checker
	if cfg.embedder != nil {
		docEmb = adaptEmbedder(cfg.embedder)
		queryEmb = docEmb
		if cfg.queryInstruction != "" {
			queryEmb = domain.NewQueryEmbedder(docEmb, cfg.queryInstruction)
		}
		if hc, ok := cfg.embedder.(domain.HealthChecker); ok {
			embChecker = hc
		}
	}

	search := searchuc.New(repo, searchuc.Options{TopK: cfg.topK}, log)
	retriever := retrievaluc.New(normalizer, queryEmb, search, retrievaluc.Options{
		Timeout: cfg.timeout,
		TopK:    cfg.topK,
	}, log)

	return &Client{
		store:      store,
		normalizer: normalizer,
		retriever:  retriever,
		ingester:   ingestuc.New(repo, docEmb, cfg.vectorDimensions, log),
		healthSvc:  healthuc.New(store, embChecker, nil),
		obs:        obs,
	}, nil
}

// Close releases all resources.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Close()
	}
}

// Ping checks database connectivity.
func (c *Client) Ping(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("ping", start, err) }()

	if err = c.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Normalize rewrites misspelled domain terms in query to their canonical
// vocabulary form.
func (c *Client) Normalize(ctx context.Context, query string) NormalizeResult {
	start := time.Now()
	res := c.normalizer.Normalize(ctx, query)
	c.obs.observe("normalize", start, nil, "corrections", len(res.Corrections))
	return NormalizeResult{Query: res.Query, Corrections: fromCorrections(res.Corrections)}
}

// Retrieve returns cited documentation context for question. Store or
// embedder failures and empty results yield NoContext with a nil error;
// only a blank question returns ErrInvalidQuery.
func (c *Client) Retrieve(ctx context.Context, question string) (RetrieveResult, error) {
	return c.RetrieveIn(ctx, question, Scope{})
}

// RetrieveIn is Retrieve restricted to scope.
func (c *Client) RetrieveIn(ctx context.Context, question string, scope Scope) (_ RetrieveResult, err error) {
	start := time.Now()
	var res retrievaluc.Result
	defer func() { c.obs.observe("retrieve", start, err, "outcome", string(res.Outcome)) }()

	turns := []chat.Turn{{Role: chat.RoleUser, Content: question}}
	res, err = c.retriever.RetrieveAndFormatIn(ctx, turns, passage.Scope(scope))
	if err != nil {
		return RetrieveResult{}, fmt.Errorf("retrieve: %w", err)
	}
	return fromRetrieval(res), nil
}

// Ingest validates, embeds (when passages lack embeddings) and stores
// passages. Passages with an existing ID are replaced.
func (c *Client) Ingest(ctx context.Context, passages []Passage) (_ IngestStats, err error) {
	start := time.Now()
	defer func() { c.obs.observe("ingest", start, err, "passages", len(passages)) }()

	stats, err := c.ingester.Ingest(ctx, toDomainPassages(passages))
	if err != nil {
		return IngestStats{}, fmt.Errorf("ingest: %w", err)
	}
	return IngestStats(stats), nil
}
