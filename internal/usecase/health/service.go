package health

import (
	"context"
	"sync"
	"time"
)

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates an optional collaborator is failing. Retrieval
	// still works, possibly without a semantic signal or generation.
	Degraded Status = "degraded"
	// Unhealthy indicates the passage store is unreachable.
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

// Component names reported in Report.Checks.
const (
	ComponentStore      = "passage_store"
	ComponentEmbedding  = "embedding"
	ComponentGeneration = "generation"
)

// DefaultCheckTimeout bounds each individual probe.
const DefaultCheckTimeout = 3 * time.Second

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates health checks.
type Service struct {
	store      Pinger
	embedding  Checker
	generation Checker
	timeout    time.Duration
}

// New creates a Service. embedding and generation can be nil.
func New(store Pinger, embedding, generation Checker) *Service {
	return &Service{store: store, embedding: embedding, generation: generation, timeout: DefaultCheckTimeout}
}

// Check probes all components concurrently.
func (s *Service) Check(ctx context.Context) Report {
	probes := map[string]func(context.Context) error{ComponentStore: s.store.Ping}
	if s.embedding != nil {
		probes[ComponentEmbedding] = s.embedding.HealthCheck
	}
	if s.generation != nil {
		probes[ComponentGeneration] = s.generation.HealthCheck
	}

	var (
		mu     sync.Mutex
		wg     sync.WaitGroup
		checks = make(map[string]CheckResult, len(probes))
	)
	for name, probe := range probes {
		wg.Add(1)
		go func() {
			defer wg.Done()
			pctx, cancel := context.WithTimeout(ctx, s.timeout)
			defer cancel()

			res := CheckOK
			if err := probe(pctx); err != nil {
				res = CheckError
			}
			mu.Lock()
			checks[name] = res
			mu.Unlock()
		}()
	}
	wg.Wait()

	status := Healthy
	for name, v := range checks {
		if v != CheckError {
			continue
		}
		if name == ComponentStore {
			status = Unhealthy
			break
		}
		status = Degraded
	}

	return Report{Status: status, Checks: checks}
}
