package docqa

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	driver   string // "redis", "postgres" or "memory"
	addrs    []string
	password string
	dsn      string

	embedder         Embedder
	queryInstruction string

	vectorDimensions int
	hnswM            int
	hnswEFConstruct  int
	keyPrefix        string

	terms      []Term
	topK       int
	timeout    time.Duration
	threshold  float64
	noSpelling bool

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

// WithRedis stores passages in a Redis or Valkey instance with a search module.
func WithRedis(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "redis"
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithPostgres stores passages in PostgreSQL with the pgvector extension.
func WithPostgres(dsn string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "postgres"
		c.dsn = dsn
	})
}

// WithMemory keeps passages in process memory.
func WithMemory() Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "memory"
	})
}

// WithEmbedder sets the text embedding provider.
// Without it retrieval uses keyword search only.
func WithEmbedder(e Embedder) Option {
	return optionFunc(func(c *clientConfig) {
		c.embedder = e
	})
}

// WithQueryInstruction prefixes queries (not passages) before embedding,
// as instruction-tuned embedding models expect.
func WithQueryInstruction(instruction string) Option {
	return optionFunc(func(c *clientConfig) {
		c.queryInstruction = instruction
	})
}

// WithVectorDimensions sets the embedding dimension of the passage index.
// Defaults to 1536.
func WithVectorDimensions(dim int) Option {
	return optionFunc(func(c *clientConfig) {
		c.vectorDimensions = dim
	})
}

// WithHNSW configures HNSW index parameters (M and EF construction).
func WithHNSW(m, efConstruct int) Option {
	return optionFunc(func(c *clientConfig) {
		c.hnswM = m
		c.hnswEFConstruct = efConstruct
	})
}

// WithKeyPrefix namespaces every key the client writes. Default: "docqa:".
func WithKeyPrefix(prefix string) Option {
	return optionFunc(func(c *clientConfig) {
		c.keyPrefix = prefix
	})
}

// WithVocabulary replaces the built-in vocabulary used for query correction.
func WithVocabulary(terms ...Term) Option {
	return optionFunc(func(c *clientConfig) {
		c.terms = terms
	})
}

// WithoutSpellingCorrection passes queries through unchanged.
func WithoutSpellingCorrection() Option {
	return optionFunc(func(c *clientConfig) {
		c.noSpelling = true
	})
}

// WithCorrectionThreshold sets the minimum match score for a correction.
func WithCorrectionThreshold(threshold float64) Option {
	return optionFunc(func(c *clientConfig) {
		c.threshold = threshold
	})
}

// WithTopK sets how many passages a retrieval returns. Default: 3.
func WithTopK(k int) Option {
	return optionFunc(func(c *clientConfig) {
		c.topK = k
	})
}

// WithTimeout bounds each retrieval. Default: 10s.
func WithTimeout(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.timeout = d
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
