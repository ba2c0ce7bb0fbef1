package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidFilters signals explicit filters that cannot be applied.
	ErrInvalidFilters = errors.New("invalid filters")

	// ErrEmbeddingUnavailable signals that the query could not be vectorized.
	// The pipeline recovers from it by falling back to SQL search.
	ErrEmbeddingUnavailable = errors.New("embedding unavailable")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrVectorSearchUnavailable signals a failed or timed-out vector query.
	ErrVectorSearchUnavailable = errors.New("vector search unavailable")
	// ErrSQLSearchFailure signals that the relational store could not answer.
	// No further fallback exists, so it is surfaced to the caller.
	ErrSQLSearchFailure = errors.New("sql search failure")
	// ErrAnalysisUnavailable signals a failed or timed-out result summary.
	ErrAnalysisUnavailable = errors.New("analysis unavailable")
)

// StageError records which pipeline stage failed and after how long.
type StageError struct {
	Stage   string
	Elapsed string
	Err     error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s failed after %s: %v", e.Stage, e.Elapsed, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }
