package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure. Keyword search still works.
	Degraded Status = "degraded"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
	// CheckDisabled indicates the component is not configured.
	CheckDisabled CheckResult = "disabled"
)

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates health checks. Every dependency is optional: a nil
// component reports "disabled" rather than failing the check.
type Service struct {
	db      DBPinger
	backend BackendChecker
	index   IndexReadiness
}

// New creates a Service. Any argument can be nil.
func New(db DBPinger, backend BackendChecker, index IndexReadiness) *Service {
	return &Service{db: db, backend: backend, index: index}
}

// Check runs health checks against all components. The service stays
// available on partial failure because keyword retrieval has no external
// dependencies.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)

	switch {
	case s.db == nil:
		checks["database"] = CheckDisabled
	case s.db.Ping(ctx) != nil:
		checks["database"] = CheckError
	default:
		checks["database"] = CheckOK
	}

	switch {
	case s.backend == nil:
		checks["backend"] = CheckDisabled
	case s.backend.HealthCheck(ctx) != nil:
		checks["backend"] = CheckError
	default:
		checks["backend"] = CheckOK
	}

	if s.index != nil {
		if s.index.Ready() {
			checks["semantic_index"] = CheckOK
		} else {
			checks["semantic_index"] = CheckError
		}
	}

	status := Healthy
	for _, v := range checks {
		if v == CheckError {
			status = Degraded
			break
		}
	}

	return Report{Status: status, Checks: checks}
}
