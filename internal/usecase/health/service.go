package health

import (
	"context"
	"fmt"
)

// Color is the traffic-light health of the index store.
type Color string

const (
	// Green means the store answers and the index exists.
	Green Color = "green"
	// Yellow means the store answers but the index or the embedding provider is unavailable.
	Yellow Color = "yellow"
	// Red means the store is unreachable.
	Red Color = "red"
)

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates the store is reachable.
	Healthy Status = "healthy"
	// Unhealthy indicates the store is unreachable.
	Unhealthy Status = "unhealthy"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckMissing indicates the component answers but the resource is absent.
	CheckMissing CheckResult = "missing"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Report aggregates health check results.
type Report struct {
	Color  Color
	Status Status
	Checks map[string]CheckResult
	// Error describes the first failure, empty when Color is Green.
	Error string
}

// Service coordinates health checks.
type Service struct {
	db        DBPinger
	index     IndexChecker
	embedding EmbeddingChecker
}

// New creates a Service. embedding can be nil.
func New(db DBPinger, index IndexChecker, embedding EmbeddingChecker) *Service {
	return &Service{db: db, index: index, embedding: embedding}
}

// Check runs health checks against all components.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)

	if err := s.db.Ping(ctx); err != nil {
		checks["database"] = CheckError
		return Report{Color: Red, Status: Unhealthy, Checks: checks, Error: err.Error()}
	}
	checks["database"] = CheckOK

	color := Green
	var problem string

	exists, err := s.index.Exists(ctx)
	switch {
	case err != nil:
		checks["index"] = CheckError
		return Report{Color: Red, Status: Unhealthy, Checks: checks, Error: err.Error()}
	case !exists:
		checks["index"] = CheckMissing
		color, problem = Yellow, "index does not exist"
	default:
		checks["index"] = CheckOK
	}

	if s.embedding != nil {
		if err := s.embedding.HealthCheck(ctx); err != nil {
			checks["embedding"] = CheckError
			color = Yellow
			if problem == "" {
				problem = fmt.Sprintf("embedding: %v", err)
			}
		} else {
			checks["embedding"] = CheckOK
		}
	}

	return Report{Color: color, Status: Healthy, Checks: checks, Error: problem}
}
