package chi

import (
	"context"

	"github.com/kirei-app/kirei/internal/domain"
	"github.com/kirei-app/kirei/internal/health"
	"github.com/kirei-app/kirei/internal/store"
)

// RecordSource serves the record browsing endpoints.
type RecordSource interface {
	Filter(region, category string, minRating float64) []domain.Record
	TopRated(n int) []domain.Record
	Statistics() store.Stats
}

// ChatService serves the conversational endpoints.
type ChatService interface {
	Chat(ctx context.Context, message, sessionID string) (id, reply string)
	Search(ctx context.Context, query, sessionID string) (string, []domain.Record)
	History(sessionID string) []domain.Turn
}

// HealthService aggregates component health checks.
type HealthService interface {
	Check(ctx context.Context) health.Report
}

// Reindexer rebuilds the semantic index from the current collection.
type Reindexer interface {
	Rebuild(ctx context.Context) error
}
