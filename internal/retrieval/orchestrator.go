// Package retrieval chooses between the semantic and keyword search paths
// behind a single search contract.
package retrieval

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/kirei-app/kirei/internal/domain"
	"github.com/kirei-app/kirei/internal/metrics"
)

// DefaultTopK bounds semantic results when the caller passes no limit.
const DefaultTopK = 5

// Path tells which index served a search call.
type Path string

const (
	// PathSemantic means the vector index answered.
	PathSemantic Path = "semantic"
	// PathKeyword means the deterministic substring filter answered.
	PathKeyword Path = "keyword"
	// PathNone means the query was empty and nothing was searched.
	PathNone Path = "none"
)

// SemanticIndex is the optional high-quality search path.
type SemanticIndex interface {
	Ready() bool
	Search(ctx context.Context, query string, k int) ([]domain.Record, error)
}

// KeywordIndex is the always-available fallback path. It ignores k and
// returns all matches; callers cap display length themselves.
type KeywordIndex interface {
	Search(query string) []domain.Record
}

// Orchestrator routes each search call to the best available index. The
// choice is evaluated per call, so a semantic index that becomes ready
// mid-session is used on the next call. Results from the two indexes are
// never mixed within one call.
type Orchestrator struct {
	semantic SemanticIndex
	keyword  KeywordIndex
	logger   *zap.Logger
}

// New creates an Orchestrator. semantic may be nil.
func New(semantic SemanticIndex, keyword KeywordIndex, logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{semantic: semantic, keyword: keyword, logger: logger}
}

// Search returns matching records and the path that produced them. An empty
// or whitespace-only query returns an empty result with PathNone; it is not
// an error the caller has to handle.
func (o *Orchestrator) Search(ctx context.Context, query string, k int) ([]domain.Record, Path) {
	if strings.TrimSpace(query) == "" {
		metrics.RetrievalRequestsTotal.WithLabelValues(string(PathNone)).Inc()
		return nil, PathNone
	}
	if k <= 0 {
		k = DefaultTopK
	}

	if o.semantic != nil && o.semantic.Ready() {
		records, err := o.semantic.Search(ctx, query, k)
		if err == nil {
			metrics.RetrievalRequestsTotal.WithLabelValues(string(PathSemantic)).Inc()
			return records, PathSemantic
		}
		// Transient capability failure: fall back for this call only.
		o.logger.Warn("semantic search failed, falling back to keyword",
			zap.String("query", query),
			zap.Error(err),
		)
	}

	metrics.RetrievalRequestsTotal.WithLabelValues(string(PathKeyword)).Inc()
	return o.keyword.Search(query), PathKeyword
}
