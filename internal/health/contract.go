package health

import "context"

// DBPinger checks database availability.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// BackendChecker checks AI backend availability.
type BackendChecker interface {
	HealthCheck(ctx context.Context) error
}

// IndexReadiness reports whether the semantic index can serve queries.
type IndexReadiness interface {
	Ready() bool
}
