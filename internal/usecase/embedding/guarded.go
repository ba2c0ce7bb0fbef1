// Package embedding bounds and observes calls to the embedding provider.
package embedding

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/propfinder/internal/domain"
)

// DefaultTimeout bounds one embedding call when none is configured.
const DefaultTimeout = 3 * time.Second

// GuardedEmbedder gives every call a single deadline and no retries.
// Any failure surfaces as domain.ErrEmbeddingUnavailable so the search
// pipeline can fall back to structured search.
type GuardedEmbedder struct {
	inner     domain.Embedder
	provider  string
	model     string
	dimension int
	timeout   time.Duration
	logger    *zap.Logger
}

// NewGuardedEmbedder wraps inner. dimension > 0 rejects vectors of any other length.
func NewGuardedEmbedder(
	inner domain.Embedder, provider, model string,
	dimension int, timeout time.Duration, logger *zap.Logger,
) *GuardedEmbedder {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &GuardedEmbedder{
		inner:     inner,
		provider:  provider,
		model:     model,
		dimension: dimension,
		timeout:   timeout,
		logger:    logger,
	}
}

// Embed delegates under the configured timeout.
func (g *GuardedEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	start := time.Now()
	result, err := g.inner.Embed(ctx, text)
	duration := time.Since(start)

	if err == nil && len(result.Embedding) == 0 {
		err = fmt.Errorf("empty vector: %w", domain.ErrEmbeddingProviderError)
	}
	if err == nil && g.dimension > 0 && len(result.Embedding) != g.dimension {
		err = fmt.Errorf("vector has %d dimensions, index expects %d: %w",
			len(result.Embedding), g.dimension, domain.ErrEmbeddingProviderError)
	}

	if err != nil {
		g.logger.Warn("Embedding unavailable",
			zap.String("provider", g.provider),
			zap.String("model", g.model),
			zap.Duration("duration", duration),
			zap.Duration("timeout", g.timeout),
			zap.Error(err),
		)
		return domain.EmbeddingResult{}, &domain.StageError{
			Stage:   "embedding",
			Elapsed: duration.Round(time.Millisecond).String(),
			Err:     fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, err),
		}
	}

	g.logger.Debug("Embedding request completed",
		zap.String("provider", g.provider),
		zap.String("model", g.model),
		zap.Duration("duration", duration),
		zap.Int("dimensions", len(result.Embedding)),
		zap.Int("prompt_tokens", result.PromptTokens),
		zap.Int("total_tokens", result.TotalTokens),
	)
	return result, nil
}

// HealthCheck forwards to the inner embedder when it supports health checks.
func (g *GuardedEmbedder) HealthCheck(ctx context.Context) error {
	if hc, ok := g.inner.(domain.HealthChecker); ok {
		return hc.HealthCheck(ctx) //nolint:wrapcheck // transparent decorator
	}
	return nil
}
