// Package health reports the availability of the search backends.
package health

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates a failing component the pipeline can fall back from.
	Degraded Status = "degraded"
	// Unhealthy indicates the SQL store is down, so searches fail.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Component names.
const (
	VectorStore = "vector_store"
	SQLStore    = "sql_store"
	Embedding   = "embedding"
)

// DefaultTimeout bounds each individual check.
const DefaultTimeout = 2 * time.Second

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates health checks.
type Service struct {
	vector    Pinger
	sql       Pinger
	embedding EmbeddingChecker
	timeout   time.Duration
}

// New creates a Service. vector and embedding can be nil.
func New(vector, sql Pinger, embedding EmbeddingChecker) *Service {
	return &Service{vector: vector, sql: sql, embedding: embedding, timeout: DefaultTimeout}
}

// Check runs all component checks concurrently.
func (s *Service) Check(ctx context.Context) Report {
	var (
		mu     sync.Mutex
		checks = make(map[string]CheckResult, 3)
		g      errgroup.Group
	)
	run := func(name string, check func(context.Context) error) {
		g.Go(func() error {
			cctx, cancel := context.WithTimeout(ctx, s.timeout)
			defer cancel()
			res := CheckOK
			if err := check(cctx); err != nil {
				res = CheckError
			}
			mu.Lock()
			checks[name] = res
			mu.Unlock()
			return nil
		})
	}

	run(SQLStore, s.sql.Ping)
	if s.vector != nil {
		run(VectorStore, s.vector.Ping)
	}
	if s.embedding != nil {
		run(Embedding, s.embedding.HealthCheck)
	}
	_ = g.Wait()

	return Report{Status: aggregate(checks), Checks: checks}
}

func aggregate(checks map[string]CheckResult) Status {
	if checks[SQLStore] == CheckError {
		return Unhealthy
	}
	for _, v := range checks {
		if v == CheckError {
			return Degraded
		}
	}
	return Healthy
}
