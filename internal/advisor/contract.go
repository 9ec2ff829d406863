package advisor

import (
	"context"

	"github.com/kirei-app/kirei/internal/conversation"
	"github.com/kirei-app/kirei/internal/domain"
	"github.com/kirei-app/kirei/internal/retrieval"
)

// Retriever routes queries to the best available index.
type Retriever interface {
	Search(ctx context.Context, query string, k int) ([]domain.Record, retrieval.Path)
}

// Sessions selects or creates the conversation context for a session id.
type Sessions interface {
	Session(id string) (string, *conversation.Context)
}

// Composer renders the deterministic fallback reply.
type Composer interface {
	Compose(query string, records []domain.Record, hasRetrievalContext bool) string
}
