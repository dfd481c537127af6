// Package config loads the docqa service configuration from YAML.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Database drivers.
const (
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config holds the docqa configuration.
type Config struct {
	HTTP       HTTPConfig                `yaml:"http"`
	Database   DatabaseConfig            `yaml:"database"`
	Providers  map[string]ProviderConfig `yaml:"providers"`
	Embedding  EmbeddingConfig           `yaml:"embedding"`
	Generation GenerationConfig          `yaml:"generation"`
	Normalizer NormalizerConfig          `yaml:"normalizer"`
	Search     SearchConfig              `yaml:"search"`
	Ranking    RankingConfig             `yaml:"ranking"`
	Retrieval  RetrievalConfig           `yaml:"retrieval"`
	Tracing    TracingConfig             `yaml:"tracing"`
	Storage    StorageConfig             `yaml:"storage"`
	Logging    LoggingConfig             `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds passage store connection settings.
type DatabaseConfig struct {
	Driver           string      `yaml:"driver"` // redis, postgres, memory (default: redis)
	Addrs            []string    `yaml:"addrs"`
	Username         string      `yaml:"username"`
	Password         string      `yaml:"password"`
	DSN              string      `yaml:"dsn"`
	Fixture          string      `yaml:"fixture"`
	ReadinessTimeout int         `yaml:"readiness_timeout_sec"`
	Index            IndexConfig `yaml:"index"`
}

// IndexConfig holds passage index settings.
type IndexConfig struct {
	Name            string `yaml:"name"`
	HNSWM           int    `yaml:"hnsw_m"`
	HNSWEFConstruct int    `yaml:"hnsw_ef_construction"`
}

// StorageConfig holds storage settings.
type StorageConfig struct {
	KeyPrefix string `yaml:"key_prefix"`
}

// ProviderConfig holds OpenAI-compatible provider settings.
type ProviderConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
}

// EmbeddingConfig holds query embedding settings. An empty provider
// disables semantic retrieval.
type EmbeddingConfig struct {
	Provider         string `yaml:"provider"`
	Model            string `yaml:"model"`
	Dimensions       int    `yaml:"dimensions"`
	QueryInstruction string `yaml:"query_instruction"`
	CacheTTLSec      int    `yaml:"cache_ttl_sec"`
}

// GenerationConfig holds answer generation settings. An empty provider
// disables the chat endpoint.
type GenerationConfig struct {
	Provider     string  `yaml:"provider"`
	Model        string  `yaml:"model"`
	Temperature  float32 `yaml:"temperature"`
	MaxTokens    int     `yaml:"max_tokens"`
	SystemPrompt string  `yaml:"system_prompt"`
}

// NormalizerConfig holds query spell correction settings.
type NormalizerConfig struct {
	Enabled        *bool   `yaml:"enabled"` // default: true
	Threshold      float64 `yaml:"threshold"`
	MaxCorrections int     `yaml:"max_corrections"`
	Scorer         string  `yaml:"scorer"` // levenshtein (default), fuzzy
	VocabularyFile string  `yaml:"vocabulary_file"`
}

// IsEnabled reports whether correction is turned on.
func (n NormalizerConfig) IsEnabled() bool {
	return n.Enabled == nil || *n.Enabled
}

// SearchConfig holds hybrid search settings.
type SearchConfig struct {
	TopK          int    `yaml:"top_k"`
	PerQueryLimit int    `yaml:"per_query_limit"` // 0 = top_k
	Fusion        string `yaml:"fusion"`          // max (default), rrf
	ExploreTopK   int    `yaml:"explore_top_k"`
}

// RankingConfig holds multi-source merge settings.
type RankingConfig struct {
	SimilarityWeight float64 `yaml:"similarity_weight"`
	KeywordWeight    float64 `yaml:"keyword_weight"`
	SourceBoost      float64 `yaml:"source_boost"`
	PreferredSource  string  `yaml:"preferred_source"`
	TieEpsilon       float64 `yaml:"tie_epsilon"`
	MaxResults       int     `yaml:"max_results"`
}

// RetrievalConfig holds orchestrator settings.
type RetrievalConfig struct {
	TimeoutMs int `yaml:"timeout_ms"`
}

// Timeout returns the per-request retrieval deadline.
func (r RetrievalConfig) Timeout() time.Duration {
	return time.Duration(r.TimeoutMs) * time.Millisecond
}

// TracingConfig holds OpenTelemetry settings. An empty endpoint disables export.
type TracingConfig struct {
	OTLPEndpoint string  `yaml:"otlp_endpoint"`
	SampleRate   float64 `yaml:"sample_rate"`
	ServiceName  string  `yaml:"service_name"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	return LoadFile(findConfigPath(env))
}

// LoadFile reads configuration from an explicit YAML path.
func LoadFile(configPath string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 30
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Embedding.Dimensions <= 0 {
		c.Embedding.Dimensions = 1536
	}
	if c.Database.Driver == "" {
		c.Database.Driver = DriverRedis
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Database.Index.Name == "" {
		c.Database.Index.Name = "passages"
	}
	if c.Database.Index.HNSWM <= 0 {
		c.Database.Index.HNSWM = 16
	}
	if c.Database.Index.HNSWEFConstruct <= 0 {
		c.Database.Index.HNSWEFConstruct = 200
	}
	if c.Storage.KeyPrefix == "" {
		c.Storage.KeyPrefix = "docqa:"
	}
	if c.Embedding.CacheTTLSec <= 0 {
		c.Embedding.CacheTTLSec = 86400
	}
	if c.Generation.MaxTokens <= 0 {
		c.Generation.MaxTokens = 800
	}
	if c.Normalizer.Threshold <= 0 {
		c.Normalizer.Threshold = 0.8
	}
	if c.Normalizer.MaxCorrections <= 0 {
		c.Normalizer.MaxCorrections = 3
	}
	if c.Normalizer.Scorer == "" {
		c.Normalizer.Scorer = "levenshtein"
	}
	if c.Search.TopK <= 0 {
		c.Search.TopK = 3
	}
	if c.Search.Fusion == "" {
		c.Search.Fusion = "max"
	}
	if c.Search.ExploreTopK <= 0 {
		c.Search.ExploreTopK = 10
	}
	if c.Ranking.SimilarityWeight == 0 && c.Ranking.KeywordWeight == 0 {
		c.Ranking.SimilarityWeight = 0.65
		c.Ranking.KeywordWeight = 0.35
	}
	if c.Ranking.SourceBoost == 0 {
		c.Ranking.SourceBoost = 0.1
	}
	if c.Ranking.PreferredSource == "" {
		c.Ranking.PreferredSource = "official"
	}
	if c.Ranking.TieEpsilon <= 0 {
		c.Ranking.TieEpsilon = 0.01
	}
	if c.Ranking.MaxResults <= 0 {
		c.Ranking.MaxResults = 10
	}
	if c.Retrieval.TimeoutMs <= 0 {
		c.Retrieval.TimeoutMs = 10000
	}
	if c.Tracing.SampleRate <= 0 {
		c.Tracing.SampleRate = 1
	}
	if c.Tracing.ServiceName == "" {
		c.Tracing.ServiceName = "docqa"
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	switch c.Database.Driver {
	case DriverRedis:
		if len(c.Database.Addrs) == 0 {
			return fmt.Errorf("database.addrs is required for driver %q", c.Database.Driver)
		}
	case DriverPostgres:
		if c.Database.DSN == "" {
			return fmt.Errorf("database.dsn is required for driver %q", c.Database.Driver)
		}
	case DriverMemory:
	default:
		return fmt.Errorf("database.driver must be redis, postgres or memory, got %q", c.Database.Driver)
	}
	if err := c.validateProvider("embedding", c.Embedding.Provider); err != nil {
		return err
	}
	if err := c.validateProvider("generation", c.Generation.Provider); err != nil {
		return err
	}
	if c.Normalizer.Threshold > 1 {
		return fmt.Errorf("normalizer.threshold must be in (0,1], got %g", c.Normalizer.Threshold)
	}
	switch c.Normalizer.Scorer {
	case "levenshtein", "fuzzy":
	default:
		return fmt.Errorf("normalizer.scorer must be \"levenshtein\" or \"fuzzy\", got %q", c.Normalizer.Scorer)
	}
	switch c.Search.Fusion {
	case "max", "rrf":
	default:
		return fmt.Errorf("search.fusion must be \"max\" or \"rrf\", got %q", c.Search.Fusion)
	}
	if c.Search.PerQueryLimit < 0 {
		return fmt.Errorf("search.per_query_limit must not be negative, got %d", c.Search.PerQueryLimit)
	}
	if c.Ranking.SimilarityWeight < 0 || c.Ranking.KeywordWeight < 0 {
		return fmt.Errorf("ranking weights must not be negative")
	}
	return nil
}

func (c *Config) validateProvider(section, name string) error {
	if name == "" {
		return nil
	}
	if _, ok := c.Providers[name]; !ok {
		return fmt.Errorf("%s.provider %q is not defined in providers", section, name)
	}
	if section == "embedding" && c.Embedding.Model == "" {
		return fmt.Errorf("embedding.model is required when a provider is set")
	}
	if section == "generation" && c.Generation.Model == "" {
		return fmt.Errorf("generation.model is required when a provider is set")
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
