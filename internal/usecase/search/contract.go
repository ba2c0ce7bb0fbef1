package search

import (
	"context"

	"github.com/kailas-cloud/propfinder/internal/domain"
	"github.com/kailas-cloud/propfinder/internal/domain/property"
	"github.com/kailas-cloud/propfinder/internal/domain/query"
	"github.com/kailas-cloud/propfinder/internal/domain/search/result"
)

// Extractor turns a normalized query into filters and a residual.
type Extractor interface {
	Extract(q query.Normalized) query.Extraction
}

// Embedder vectorizes the residual query.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// VectorSearcher runs pre-filtered KNN over the listing index.
type VectorSearcher interface {
	Search(ctx context.Context, vec []float32, filters property.Filters, topK int) ([]result.Candidate, error)
}

// SQLSearcher runs structured-only search over the relational store.
type SQLSearcher interface {
	Search(ctx context.Context, filters property.Filters, limit int) ([]result.Candidate, error)
}

// Analyst summarizes a ranked result set. Best effort.
type Analyst interface {
	Enabled() bool
	Summarize(ctx context.Context, q string, lang query.Language, results []result.Ranked) (string, error)
}
