// Package search orchestrates the natural-language property search pipeline.
package search

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/propfinder/internal/domain/property"
	"github.com/kailas-cloud/propfinder/internal/domain/query"
	"github.com/kailas-cloud/propfinder/internal/domain/search/mode"
	"github.com/kailas-cloud/propfinder/internal/domain/search/request"
	"github.com/kailas-cloud/propfinder/internal/domain/search/result"
	"github.com/kailas-cloud/propfinder/internal/logger"
	"github.com/kailas-cloud/propfinder/internal/metrics"
)

// Config tunes the pipeline. Zero fields take the defaults below.
type Config struct {
	TopK              int
	MinVectorResults  int
	SQLBaseline       float64
	EagerSQLMaxTokens int
	VectorTimeout     time.Duration
	SQLTimeout        time.Duration
	USDToMXN          float64
}

// Pipeline defaults.
const (
	DefaultTopK             = 30
	DefaultMinVectorResults = 3
	DefaultVectorTimeout    = 3 * time.Second
	DefaultSQLTimeout       = 5 * time.Second
	DefaultUSDToMXN         = 17.0
)

func (c Config) withDefaults() Config {
	if c.TopK <= 0 {
		c.TopK = DefaultTopK
	}
	if c.MinVectorResults <= 0 {
		c.MinVectorResults = DefaultMinVectorResults
	}
	if c.SQLBaseline <= 0 {
		c.SQLBaseline = DefaultBaseline
	}
	if c.VectorTimeout <= 0 {
		c.VectorTimeout = DefaultVectorTimeout
	}
	if c.SQLTimeout <= 0 {
		c.SQLTimeout = DefaultSQLTimeout
	}
	if c.USDToMXN <= 0 {
		c.USDToMXN = DefaultUSDToMXN
	}
	return c
}

// Response is the outcome of one search.
type Response struct {
	QueryID        string
	Results        []result.Ranked
	Filters        property.Filters
	Analysis       string
	Language       query.Language
	Residual       string
	Path           mode.Mode
	FallbackReason mode.Reason
	Matches        []query.Match
}

// Service runs the search pipeline. It holds no per-request state and is
// safe for concurrent use.
type Service struct {
	extractor Extractor
	embedder  Embedder
	vector    VectorSearcher
	sql       SQLSearcher
	analyst   Analyst
	cfg       Config
}

// New creates a search service. analyst may be nil.
func New(
	extractor Extractor, embedder Embedder,
	vector VectorSearcher, sql SQLSearcher,
	analyst Analyst, cfg Config,
) *Service {
	return &Service{
		extractor: extractor,
		embedder:  embedder,
		vector:    vector,
		sql:       sql,
		analyst:   analyst,
		cfg:       cfg.withDefaults(),
	}
}

// Preview is the extraction outcome with explicit filters applied.
type Preview struct {
	Extraction query.Extraction
	Filters    property.Filters
}

// Extract runs normalization and extraction only and merges explicit filters.
func (s *Service) Extract(req *request.Request) Preview {
	ex := s.extractor.Extract(query.Normalize(req.Query()))
	return Preview{Extraction: ex, Filters: reconcile(ex.Filters, req.Explicit(), s.cfg.USDToMXN)}
}

// Search runs the full pipeline. The only error it returns for a valid
// request wraps domain.ErrSQLSearchFailure; embedding, vector and analysis
// failures degrade silently.
func (s *Service) Search(ctx context.Context, req *request.Request) (*Response, error) {
	start := time.Now()
	queryID := uuid.NewString()
	log := logger.FromContext(ctx).With(zap.String("query_id", queryID))
	ctx = logger.ContextWithLogger(ctx, log)

	t := time.Now()
	preview := s.Extract(req)
	s.observe("extract", t, nil)
	ex := preview.Extraction
	for _, m := range ex.Matches {
		metrics.ExtractedFiltersTotal.WithLabelValues(m.Stage).Inc()
	}

	r := &retrieval{
		residual: ex.Residual,
		filters:  preview.Filters.InMXN(s.cfg.USDToMXN),
		sqlLimit: req.Limit() + s.cfg.TopK,
	}
	if err := s.retrieve(ctx, r); err != nil {
		metrics.SearchRequestsTotal.WithLabelValues(string(r.path()), "error").Inc()
		log.Error("Search failed",
			zap.String("query", req.Query()),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err),
		)
		return nil, fmt.Errorf("search: %w", err)
	}
	if r.reason != mode.ReasonNone {
		metrics.SearchFallbacksTotal.WithLabelValues(string(r.reason)).Inc()
	}

	t = time.Now()
	ranked := Merge(r.vector, r.sql, r.filters, req.Limit(), s.cfg.SQLBaseline)
	s.observe("merge", t, nil)

	resp := &Response{
		QueryID:        queryID,
		Results:        ranked,
		Filters:        preview.Filters,
		Language:       ex.Query.Language,
		Residual:       ex.Residual,
		Path:           r.path(),
		FallbackReason: r.reason,
		Matches:        ex.Matches,
	}
	resp.Analysis = s.analyze(ctx, req.Query(), ex.Query.Language, ranked)

	metrics.SearchRequestsTotal.WithLabelValues(string(resp.Path), "ok").Inc()
	metrics.SearchResultsReturned.Observe(float64(len(ranked)))
	log.Info("Search completed",
		zap.String("query", req.Query()),
		zap.String("language", string(resp.Language)),
		zap.String("residual", resp.Residual),
		zap.String("path", string(resp.Path)),
		zap.String("fallback_reason", string(resp.FallbackReason)),
		zap.Int("vector_candidates", len(r.vector)),
		zap.Int("sql_candidates", len(r.sql)),
		zap.Int("results", len(ranked)),
		zap.Int("embedding_tokens", r.embedUsed),
		zap.Duration("elapsed", time.Since(start)),
	)
	return resp, nil
}

func (s *Service) analyze(ctx context.Context, q string, lang query.Language, ranked []result.Ranked) string {
	if s.analyst == nil || !s.analyst.Enabled() || len(ranked) == 0 {
		return ""
	}
	t := time.Now()
	text, err := s.analyst.Summarize(ctx, q, lang, ranked)
	s.observe("analysis", t, err)
	if err != nil {
		logger.FromContext(ctx).Warn("Analysis omitted", zap.Error(err))
		return ""
	}
	return text
}

func (s *Service) observe(stage string, start time.Time, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.SearchStageDuration.WithLabelValues(stage, status).Observe(time.Since(start).Seconds())
}

// reconcile overlays explicit filters on extracted ones. Bounds quoted in
// different currencies are both moved to MXN first. When the overlay leaves
// the price range inverted, the extracted bound gives way.
func reconcile(extracted, explicit property.Filters, usdRate float64) property.Filters {
	if extracted.Currency != "" && explicit.Currency != "" && extracted.Currency != explicit.Currency {
		extracted = extracted.InMXN(usdRate)
		explicit = explicit.InMXN(usdRate)
	}
	f := extracted.Merge(explicit)
	if f.PriceMin != nil && f.PriceMax != nil && *f.PriceMin > *f.PriceMax {
		if explicit.PriceMin != nil {
			f.PriceMax = nil
		} else {
			f.PriceMin = nil
		}
	}
	return f
}

func tokenCount(s string) int {
	return len(strings.Fields(s))
}
