// Package keyword implements the deterministic retrieval fallback: an
// unranked substring filter over a composed searchable text per record.
package keyword

import (
	"strings"

	"github.com/kirei-app/kirei/internal/domain"
)

type entry struct {
	record domain.Record
	text   string
}

// Index is built once from a store snapshot and is safe for concurrent reads.
type Index struct {
	entries []entry
}

// Build creates an index over the given records, preserving store order.
func Build(records []domain.Record) *Index {
	entries := make([]entry, len(records))
	for i, r := range records {
		entries[i] = entry{record: r, text: searchableText(r)}
	}
	return &Index{entries: entries}
}

// searchableText concatenates the searchable fields into one lowercase string.
// Missing optional fields contribute empty segments, never a literal "null".
func searchableText(r domain.Record) string {
	parts := []string{
		r.Name,
		r.Description,
		r.Area,
		r.Region,
		r.Category,
		strings.Join(r.Services, " "),
	}
	return strings.ToLower(strings.Join(parts, " "))
}

// Search splits the query on whitespace into lowercase tokens and returns
// every record whose searchable text contains at least one token (logical OR).
// Results come back in store order; this is a filter, not a ranked search.
// An empty or whitespace-only query yields an empty result, never the whole
// collection.
func (ix *Index) Search(query string) []domain.Record {
	tokens := strings.Fields(strings.ToLower(query))
	if len(tokens) == 0 {
		return nil
	}

	var out []domain.Record
	for _, e := range ix.entries {
		for _, tok := range tokens {
			if strings.Contains(e.text, tok) {
				out = append(out, e.record)
				break
			}
		}
	}
	return out
}

// Len returns the number of indexed records.
func (ix *Index) Len() int {
	return len(ix.entries)
}
