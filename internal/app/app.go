// Package app wires configuration into the search pipeline. It is the
// composition root shared by the API server and the CLI.
package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/kailas-cloud/propfinder/internal/config"
	dbPostgres "github.com/kailas-cloud/propfinder/internal/db/postgres"
	dbRedis "github.com/kailas-cloud/propfinder/internal/db/redis"
	"github.com/kailas-cloud/propfinder/internal/domain"
	"github.com/kailas-cloud/propfinder/internal/domain/query"
	"github.com/kailas-cloud/propfinder/internal/metrics"
	"github.com/kailas-cloud/propfinder/internal/repository/embcache"
	listingrepo "github.com/kailas-cloud/propfinder/internal/repository/listing"
	vectorrepo "github.com/kailas-cloud/propfinder/internal/repository/vector"
	openaiTransport "github.com/kailas-cloud/propfinder/internal/transport/openai"
	analysisuc "github.com/kailas-cloud/propfinder/internal/usecase/analysis"
	embeddinguc "github.com/kailas-cloud/propfinder/internal/usecase/embedding"
	healthuc "github.com/kailas-cloud/propfinder/internal/usecase/health"
	searchuc "github.com/kailas-cloud/propfinder/internal/usecase/search"
)

// App holds the long-lived components.
type App struct {
	Store   *dbRedis.Store
	DB      *gorm.DB
	Vector  *vectorrepo.Repo
	Search  *searchuc.Service
	Health  *healthuc.Service
	cleanup []func()
}

// Build connects to both stores and assembles the pipeline. The vector store
// may be unreachable: searches then fall back to SQL. The listing database
// must answer.
func Build(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	a := &App{}

	store, err := OpenVectorStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	a.Store = store
	a.cleanup = append(a.cleanup, store.Close)

	sqlDB, err := dbPostgres.Open(ctx, dbPostgres.Config{
		DSN:             cfg.Postgres.DSN,
		MaxOpenConns:    cfg.Postgres.MaxOpenConns,
		MaxIdleConns:    cfg.Postgres.MaxIdleConns,
		ConnMaxLifetime: time.Duration(cfg.Postgres.ConnMaxLifetimeSec) * time.Second,
		SlowThreshold:   time.Duration(cfg.Postgres.SlowQueryMs) * time.Millisecond,
	}, logger)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("listing database: %w", err)
	}
	a.DB = sqlDB
	a.cleanup = append(a.cleanup, func() { _ = dbPostgres.Close(sqlDB) })

	dict, err := LoadDictionary(cfg.Extraction.DictionaryFile)
	if err != nil {
		a.Close()
		return nil, err
	}

	embedder := BuildEmbedder(cfg, store, logger)
	listing := listingrepo.New(sqlDB)
	a.Vector = vectorrepo.New(store)

	a.Search = searchuc.New(
		query.NewExtractor(dict),
		embedder,
		a.Vector,
		listing,
		BuildAnalyst(cfg, logger),
		searchuc.Config{
			TopK:              cfg.Search.TopK,
			MinVectorResults:  cfg.Search.MinVectorResults,
			SQLBaseline:       cfg.Search.SQLBaseline,
			EagerSQLMaxTokens: cfg.Search.EagerSQLMaxTokens,
			VectorTimeout:     cfg.Search.VectorTimeout(),
			SQLTimeout:        cfg.Search.SQLTimeout(),
			USDToMXN:          cfg.Search.USDToMXN,
		},
	)
	a.Health = healthuc.New(store, listing, embedder)
	return a, nil
}

// Close releases connections in reverse order of acquisition.
func (a *App) Close() {
	for i := len(a.cleanup) - 1; i >= 0; i-- {
		a.cleanup[i]()
	}
	a.cleanup = nil
}

// OpenVectorStore creates the Redis client and waits for it briefly.
func OpenVectorStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*dbRedis.Store, error) {
	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Redis.Addrs,
		Username: cfg.Redis.Username,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		return nil, fmt.Errorf("vector store: %w", err)
	}
	if err := store.WaitForReady(ctx, time.Duration(cfg.Redis.ReadinessTimeout)*time.Second); err != nil {
		logger.Warn("Vector store not ready, searches will fall back to SQL", zap.Error(err))
	}
	return store, nil
}

// LoadDictionary returns the built-in vocabulary extended by path, if set.
func LoadDictionary(path string) (query.Dictionary, error) {
	dict := query.DefaultDictionary()
	if path == "" {
		return dict, nil
	}
	data, err := os.ReadFile(path) //nolint:gosec // operator-supplied path
	if err != nil {
		return query.Dictionary{}, fmt.Errorf("read dictionary %s: %w", path, err)
	}
	extra, err := query.ParseDictionary(data)
	if err != nil {
		return query.Dictionary{}, fmt.Errorf("parse dictionary %s: %w", path, err)
	}
	return dict.Merge(extra), nil
}

// Embedder is the query embedder plus its health probe.
type Embedder interface {
	domain.Embedder
	domain.HealthChecker
}

// BuildEmbedder assembles the decorator chain: OpenAI -> Cached -> Guarded -> Instruction.
// The instruction is outermost so cache keys include it.
func BuildEmbedder(cfg *config.Config, store *dbRedis.Store, logger *zap.Logger) Embedder {
	ec := cfg.Embedding
	base := openaiTransport.NewEmbedder(&openaiTransport.Config{
		APIKey:     ec.APIKey,
		BaseURL:    ec.BaseURL,
		Model:      ec.Model,
		Dimensions: ec.Dimensions,
		Provider:   ec.Provider,
		Logger:     logger,
	})

	var embedder domain.Embedder = base
	if ec.CacheTTLHours > 0 && store != nil {
		embedder = embcache.New(base, store, ec.Model, ec.CacheTTL(), metrics.EmbeddingCacheTotal, logger)
	}

	guarded := embeddinguc.NewGuardedEmbedder(
		embedder, ec.Provider, ec.Model, ec.Dimensions, ec.Timeout(), logger,
	)
	if ec.QueryInstruction != "" {
		return domain.NewInstructionEmbedder(guarded, ec.QueryInstruction)
	}
	return guarded
}

// BuildAnalyst returns nil when no analysis model is configured.
func BuildAnalyst(cfg *config.Config, logger *zap.Logger) searchuc.Analyst {
	ac := cfg.Analysis
	if ac.Model == "" {
		logger.Info("Analysis disabled: no model configured")
		return nil
	}
	llm := openaiTransport.NewAnalyst(&openaiTransport.Config{
		APIKey:   ac.APIKey,
		BaseURL:  ac.BaseURL,
		Model:    ac.Model,
		Provider: cfg.Embedding.Provider,
		Logger:   logger,
	}, ac.MaxTokens, ac.Temperature)
	return analysisuc.New(llm, ac.Timeout(), logger)
}
