package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the propfinder configuration.
type Config struct {
	HTTP       HTTPConfig       `yaml:"http"`
	Redis      RedisConfig      `yaml:"redis"`
	Postgres   PostgresConfig   `yaml:"postgres"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Analysis   AnalysisConfig   `yaml:"analysis"`
	Search     SearchConfig     `yaml:"search"`
	Extraction ExtractionConfig `yaml:"extraction"`
	Logging    LoggingConfig    `yaml:"logging"`
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

// RedisConfig holds the vector store connection.
type RedisConfig struct {
	Addrs            []string `yaml:"addrs"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	DB               int      `yaml:"db"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// PostgresConfig holds the listing database connection.
type PostgresConfig struct {
	DSN                string `yaml:"dsn"`
	MaxOpenConns       int    `yaml:"max_open_conns"`
	MaxIdleConns       int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeSec int    `yaml:"conn_max_lifetime_sec"`
	SlowQueryMs        int    `yaml:"slow_query_ms"`
}

// EmbeddingConfig holds the query embedding provider settings.
type EmbeddingConfig struct {
	Provider         string `yaml:"provider"` // label for metrics and logs
	APIKey           string `yaml:"api_key"`
	BaseURL          string `yaml:"base_url"`
	Model            string `yaml:"model"`
	Dimensions       int    `yaml:"dimensions"`
	QueryInstruction string `yaml:"query_instruction"`
	TimeoutMs        int    `yaml:"timeout_ms"`
	CacheTTLHours    int    `yaml:"cache_ttl_hours"` // 0 = no cache
}

// AnalysisConfig holds the result summary model settings. An empty model
// disables analysis.
type AnalysisConfig struct {
	APIKey      string  `yaml:"api_key"`  // default: embedding.api_key
	BaseURL     string  `yaml:"base_url"` // default: embedding.base_url
	Model       string  `yaml:"model"`
	MaxTokens   int     `yaml:"max_tokens"`
	Temperature float32 `yaml:"temperature"`
	TimeoutMs   int     `yaml:"timeout_ms"`
}

// SearchConfig tunes the retrieval pipeline.
type SearchConfig struct {
	TopK              int     `yaml:"top_k"`
	MinVectorResults  int     `yaml:"min_vector_results"`
	SQLBaseline       float64 `yaml:"sql_baseline"`
	EagerSQLMaxTokens int     `yaml:"eager_sql_max_tokens"` // 0 = never prefetch
	VectorTimeoutMs   int     `yaml:"vector_timeout_ms"`
	SQLTimeoutMs      int     `yaml:"sql_timeout_ms"`
	USDToMXN          float64 `yaml:"usd_mxn_rate"`
}

// ExtractionConfig points at optional vocabulary extensions.
type ExtractionConfig struct {
	DictionaryFile string `yaml:"dictionary_file"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	return Parse(data)
}

// Parse expands env variables in data, decodes it and applies defaults.
func Parse(data []byte) (Config, error) {
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
		c.HTTP.WriteTimeoutSec = 20
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Redis.ReadinessTimeout <= 0 {
		c.Redis.ReadinessTimeout = 10
	}
	if c.Postgres.MaxOpenConns <= 0 {
		c.Postgres.MaxOpenConns = 20
	}
	if c.Postgres.MaxIdleConns <= 0 {
		c.Postgres.MaxIdleConns = 5
	}
	if c.Postgres.ConnMaxLifetimeSec <= 0 {
		c.Postgres.ConnMaxLifetimeSec = 1800
	}
	if c.Postgres.SlowQueryMs <= 0 {
		c.Postgres.SlowQueryMs = 200
	}
	if c.Embedding.Provider == "" {
		c.Embedding.Provider = "openai"
	}
	if c.Embedding.TimeoutMs <= 0 {
		c.Embedding.TimeoutMs = 3000
	}
	if c.Analysis.APIKey == "" {
		c.Analysis.APIKey = c.Embedding.APIKey
	}
	if c.Analysis.BaseURL == "" {
		c.Analysis.BaseURL = c.Embedding.BaseURL
	}
	if c.Analysis.MaxTokens <= 0 {
		c.Analysis.MaxTokens = 160
	}
	if c.Analysis.TimeoutMs <= 0 {
		c.Analysis.TimeoutMs = 4000
	}
	if c.Search.TopK <= 0 {
		c.Search.TopK = 30
	}
	if c.Search.MinVectorResults <= 0 {
		c.Search.MinVectorResults = 3
	}
	if c.Search.SQLBaseline <= 0 {
		c.Search.SQLBaseline = 0.5
	}
	if c.Search.VectorTimeoutMs <= 0 {
		c.Search.VectorTimeoutMs = 3000
	}
	if c.Search.SQLTimeoutMs <= 0 {
		c.Search.SQLTimeoutMs = 5000
	}
	if c.Search.USDToMXN <= 0 {
		c.Search.USDToMXN = 17
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	var errs []error
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		errs = append(errs, fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port))
	}
	if len(c.Redis.Addrs) == 0 {
		errs = append(errs, errors.New("redis.addrs is required"))
	}
	if c.Postgres.DSN == "" {
		errs = append(errs, errors.New("postgres.dsn is required"))
	}
	if c.Embedding.Model == "" {
		errs = append(errs, errors.New("embedding.model is required"))
	}
	if c.Embedding.Dimensions <= 0 {
		errs = append(errs, fmt.Errorf("embedding.dimensions must be positive, got %d", c.Embedding.Dimensions))
	}
	if c.Search.TopK < 20 || c.Search.TopK > 50 {
		errs = append(errs, fmt.Errorf("search.top_k must be between 20 and 50, got %d", c.Search.TopK))
	}
	if c.Search.SQLBaseline > 1 {
		errs = append(errs, fmt.Errorf("search.sql_baseline must be in (0, 1], got %g", c.Search.SQLBaseline))
	}
	if c.Search.EagerSQLMaxTokens < 0 {
		errs = append(errs, errors.New("search.eager_sql_max_tokens must not be negative"))
	}
	return errors.Join(errs...)
}

// Timeouts expressed as durations.

func (c HTTPConfig) ReadTimeout() time.Duration     { return seconds(c.ReadTimeoutSec) }
func (c HTTPConfig) WriteTimeout() time.Duration    { return seconds(c.WriteTimeoutSec) }
func (c HTTPConfig) ShutdownTimeout() time.Duration { return seconds(c.ShutdownSec) }

func (c EmbeddingConfig) Timeout() time.Duration  { return millis(c.TimeoutMs) }
func (c EmbeddingConfig) CacheTTL() time.Duration { return time.Duration(c.CacheTTLHours) * time.Hour }
func (c AnalysisConfig) Timeout() time.Duration   { return millis(c.TimeoutMs) }
func (c SearchConfig) VectorTimeout() time.Duration {
	return millis(c.VectorTimeoutMs)
}
func (c SearchConfig) SQLTimeout() time.Duration { return millis(c.SQLTimeoutMs) }

func seconds(n int) time.Duration { return time.Duration(n) * time.Second }
func millis(n int) time.Duration  { return time.Duration(n) * time.Millisecond }

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
		expr := string(match[2 : len(match)-1])
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
