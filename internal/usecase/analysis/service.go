// Package analysis writes a short natural-language overview of search results.
package analysis

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/propfinder/internal/domain"
	"github.com/kailas-cloud/propfinder/internal/domain/query"
	"github.com/kailas-cloud/propfinder/internal/domain/search/result"
)

// DefaultTimeout bounds one analysis call when none is configured.
const DefaultTimeout = 4 * time.Second

const systemPrompt = "You are a real estate assistant. Summarize the listing statistics " +
	"you are given in 2 or 3 sentences for a home buyer. Use only the numbers provided, " +
	"do not invent listings, and answer in the requested language."

// Service produces best-effort result summaries.
type Service struct {
	llm     Completer
	timeout time.Duration
	logger  *zap.Logger
}

// New creates a Service. A nil llm disables analysis.
func New(llm Completer, timeout time.Duration, logger *zap.Logger) *Service {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Service{llm: llm, timeout: timeout, logger: logger}
}

// Enabled reports whether a model is configured.
func (s *Service) Enabled() bool { return s != nil && s.llm != nil }

// Summarize asks the model for an overview of results in the query language.
// Empty result sets produce no analysis. Every failure, including the
// timeout, wraps domain.ErrAnalysisUnavailable.
func (s *Service) Summarize(
	ctx context.Context, q string, lang query.Language, results []result.Ranked,
) (string, error) {
	if !s.Enabled() {
		return "", fmt.Errorf("no analysis model configured: %w", domain.ErrAnalysisUnavailable)
	}
	if len(results) == 0 {
		return "", nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	text, err := s.llm.Complete(ctx, systemPrompt, NewDigest(results).Prompt(q, lang))
	if err != nil {
		s.logger.Warn("Analysis unavailable",
			zap.Duration("duration", time.Since(start)),
			zap.Error(err),
		)
		return "", &domain.StageError{
			Stage:   "analysis",
			Elapsed: time.Since(start).Round(time.Millisecond).String(),
			Err:     fmt.Errorf("%w: %w", domain.ErrAnalysisUnavailable, err),
		}
	}
	return text, nil
}
