// Package semantic implements the optional vector index. Construction embeds
// a composed text per record through the embedding capability; search embeds
// the query and ranks records by cosine similarity. The index degrades
// silently: an absent or failing capability leaves it not Ready and callers
// fall back to keyword search.
package semantic

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/kirei-app/kirei/internal/domain"
)

type indexEntry struct {
	record domain.Record
	vector []float32
}

type snapshot struct {
	entries []indexEntry
}

// Index holds embedded records. Rebuilds are published atomically: readers
// see either the previous snapshot or the new one in full.
type Index struct {
	embedder domain.Embedder
	logger   *zap.Logger
	current  atomic.Pointer[snapshot]
}

// New creates an empty index. embedder may be nil; the index then never
// becomes Ready through Build (a persisted snapshot can still be loaded,
// but Search needs the embedder for the query and will fail without it).
func New(embedder domain.Embedder, logger *zap.Logger) *Index {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Index{embedder: embedder, logger: logger}
}

// Enabled reports whether the index has an embedding capability at all. A
// disabled index is a deliberate deployment choice, not a failure.
func (ix *Index) Enabled() bool {
	return ix.embedder != nil
}

// Ready reports whether a snapshot is available for searching.
func (ix *Index) Ready() bool {
	return ix.current.Load() != nil && ix.embedder != nil
}

// Build embeds every record and swaps in the new snapshot. On any failure the
// previous snapshot (if any) stays in place and the error is returned for
// logging; callers must treat a failed build as "index unavailable", not as a
// fatal condition.
func (ix *Index) Build(ctx context.Context, records []domain.Record) error {
	if ix.embedder == nil {
		return fmt.Errorf("build semantic index: %w", domain.ErrBackendUnavailable)
	}

	entries := make([]indexEntry, 0, len(records))
	for _, r := range records {
		res, err := ix.embedder.Embed(ctx, ComposedText(r))
		if err != nil {
			return fmt.Errorf("embed record %s: %w", r.ID, err)
		}
		entries = append(entries, indexEntry{record: r, vector: res.Embedding})
	}

	ix.current.Store(&snapshot{entries: entries})
	ix.logger.Info("semantic index built", zap.Int("records", len(entries)))
	return nil
}

// Search embeds the query and returns the k most similar records, most
// similar first. Ties keep store order. k <= 0 means no cap.
func (ix *Index) Search(ctx context.Context, query string, k int) ([]domain.Record, error) {
	snap := ix.current.Load()
	if snap == nil {
		return nil, domain.ErrIndexNotReady
	}
	if ix.embedder == nil {
		return nil, fmt.Errorf("search semantic index: %w", domain.ErrBackendUnavailable)
	}

	res, err := ix.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	type scored struct {
		record domain.Record
		score  float64
	}
	ranked := make([]scored, len(snap.entries))
	for i, e := range snap.entries {
		ranked[i] = scored{record: e.record, score: cosineSimilarity(res.Embedding, e.vector)}
	}

	// Stable sort keeps store order for equal scores.
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})

	if k <= 0 || k > len(ranked) {
		k = len(ranked)
	}
	out := make([]domain.Record, k)
	for i := range out {
		out[i] = ranked[i].record
	}
	return out, nil
}

// Len returns the number of indexed records, 0 when not Ready.
func (ix *Index) Len() int {
	snap := ix.current.Load()
	if snap == nil {
		return 0
	}
	return len(snap.entries)
}

// ComposedText builds the text that represents a record for embedding.
func ComposedText(r domain.Record) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Name: %s\n", r.Name)
	fmt.Fprintf(&b, "Category: %s\n", r.Category)
	fmt.Fprintf(&b, "Location: %s, %s\n", r.Area, r.Region)
	fmt.Fprintf(&b, "Description: %s\n", r.Description)
	fmt.Fprintf(&b, "Services: %s\n", strings.Join(r.Services, ", "))
	fmt.Fprintf(&b, "Rating: %.1f/5 (%d reviews)\n", r.Rating, r.ReviewCount)
	fmt.Fprintf(&b, "Price Range: %s\n", r.PriceRange)
	fmt.Fprintf(&b, "Features: %s\n", strings.Join(r.Features, ", "))
	fmt.Fprintf(&b, "Access: %s\n", r.Access)
	return b.String()
}

// cosineSimilarity returns 0 for mismatched dimensions or zero vectors.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
