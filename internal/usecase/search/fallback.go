package search

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/propfinder/internal/domain"
	"github.com/kailas-cloud/propfinder/internal/domain/property"
	"github.com/kailas-cloud/propfinder/internal/domain/search/mode"
	"github.com/kailas-cloud/propfinder/internal/domain/search/result"
	"github.com/kailas-cloud/propfinder/internal/logger"
)

// step is a state of the retrieval machine:
//
//	tryVector -> done                (enough vector results)
//	tryVector -> trySQL -> done      (unavailable or insufficient)
//	trySQL -> done                   (no residual)
type step int

const (
	stepTryVector step = iota
	stepTrySQL
	stepDone
)

// retrieval is the per-request state threaded through the machine.
type retrieval struct {
	residual string
	filters  property.Filters
	sqlLimit int

	vector    []result.Candidate
	sql       []result.Candidate
	sqlRan    bool
	reason    mode.Reason
	sqlErr    error
	prefetch  *prefetch
	embedUsed int
}

// path reports which sources fed the result.
func (r *retrieval) path() mode.Mode {
	switch {
	case r.sqlRan && len(r.vector) > 0:
		return mode.Hybrid
	case r.sqlRan:
		return mode.SQL
	default:
		return mode.Vector
	}
}

// retrieve runs the machine to completion.
func (s *Service) retrieve(ctx context.Context, r *retrieval) error {
	next := stepTryVector
	if r.residual == "" {
		r.reason = mode.ReasonNoResidual
		next = stepTrySQL
	} else if s.cfg.EagerSQLMaxTokens > 0 && tokenCount(r.residual) <= s.cfg.EagerSQLMaxTokens {
		r.prefetch = s.startPrefetch(ctx, r.filters, r.sqlLimit)
	}

	for next != stepDone {
		switch next {
		case stepTryVector:
			next = s.tryVector(ctx, r)
		case stepTrySQL:
			next = s.trySQL(ctx, r)
		}
	}

	if r.prefetch != nil && !r.sqlRan {
		r.prefetch.discard()
	}

	// Partial vector results beat an error: SQL failure is fatal only
	// when nothing else is left to show.
	if r.sqlErr != nil && len(r.vector) == 0 {
		return r.sqlErr
	}
	if r.sqlErr != nil {
		logger.FromContext(ctx).Warn("SQL top-up failed, returning vector results only",
			zap.Int("vector_results", len(r.vector)),
			zap.Error(r.sqlErr),
		)
	}
	return nil
}

func (s *Service) tryVector(ctx context.Context, r *retrieval) step {
	log := logger.FromContext(ctx)

	start := time.Now()
	emb, err := s.embedder.Embed(ctx, r.residual)
	s.observe("embedding", start, err)
	if err != nil {
		log.Warn("Falling back to SQL: embedding unavailable",
			zap.String("residual", r.residual),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err),
		)
		r.reason = mode.ReasonEmbeddingUnavailable
		return stepTrySQL
	}
	r.embedUsed = emb.TotalTokens

	vctx, cancel := context.WithTimeout(ctx, s.cfg.VectorTimeout)
	defer cancel()

	start = time.Now()
	cands, err := s.vector.Search(vctx, emb.Embedding, r.filters, s.cfg.TopK)
	s.observe("vector", start, err)
	if err != nil {
		log.Warn("Falling back to SQL: vector search unavailable",
			zap.String("residual", r.residual),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err),
		)
		r.reason = mode.ReasonVectorUnavailable
		return stepTrySQL
	}

	r.vector = cands
	if len(cands) < s.cfg.MinVectorResults {
		log.Debug("Topping up with SQL: too few vector results",
			zap.Int("vector_results", len(cands)),
			zap.Int("min_vector_results", s.cfg.MinVectorResults),
		)
		r.reason = mode.ReasonInsufficient
		return stepTrySQL
	}
	return stepDone
}

func (s *Service) trySQL(ctx context.Context, r *retrieval) step {
	r.sqlRan = true
	if r.prefetch != nil {
		r.sql, r.sqlErr = r.prefetch.wait()
	} else {
		r.sql, r.sqlErr = s.searchSQL(ctx, r.filters, r.sqlLimit)
	}
	if r.sqlErr != nil {
		logger.FromContext(ctx).Error("SQL search failed",
			zap.String("reason", string(r.reason)),
			zap.Error(r.sqlErr),
		)
	}
	return stepDone
}

func (s *Service) searchSQL(ctx context.Context, f property.Filters, limit int) ([]result.Candidate, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.SQLTimeout)
	defer cancel()

	start := time.Now()
	cands, err := s.sql.Search(ctx, f, limit)
	// A discarded prefetch is not a failure.
	if !errors.Is(err, context.Canceled) {
		s.observe("sql", start, err)
	}
	if err != nil {
		if errors.Is(err, domain.ErrSQLSearchFailure) {
			return nil, err //nolint:wrapcheck // repository already wrapped it
		}
		return nil, fmt.Errorf("%w: %w", domain.ErrSQLSearchFailure, err)
	}
	return cands, nil
}

// prefetch is an SQL query started alongside the vector path.
type prefetch struct {
	g      errgroup.Group
	cancel context.CancelFunc
	cands  []result.Candidate
}

func (s *Service) startPrefetch(ctx context.Context, f property.Filters, limit int) *prefetch {
	ctx, cancel := context.WithCancel(ctx)
	p := &prefetch{cancel: cancel}
	p.g.Go(func() error {
		cands, err := s.searchSQL(ctx, f, limit)
		p.cands = cands
		return err
	})
	return p
}

// wait blocks until the prefetched query finishes.
func (p *prefetch) wait() ([]result.Candidate, error) {
	defer p.cancel()
	if err := p.g.Wait(); err != nil {
		return nil, err //nolint:wrapcheck // already wrapped by the repository
	}
	return p.cands, nil
}

// discard cancels the query and waits for its goroutine to exit.
func (p *prefetch) discard() {
	p.cancel()
	_ = p.g.Wait()
}
