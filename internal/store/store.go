// Package store holds the normalized record collection. The collection is
// read-only after load; a reload swaps the whole collection atomically so
// concurrent readers see either the old snapshot or the new one in full.
package store

import (
	"context"
	"sort"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/kirei-app/kirei/internal/domain"
)

// FieldResolver reconciles bilingual fields during normalization.
type FieldResolver interface {
	Resolve(ctx context.Context, raw domain.RawRecord, field string) domain.ResolvedField
}

// Stats summarizes the loaded collection.
type Stats struct {
	Total          int            `json:"total"`
	AverageRating  float64        `json:"average_rating"`
	CategoryCounts map[string]int `json:"category_counts"`
	RegionCounts   map[string]int `json:"region_counts"`
}

// RecordStore holds normalized records in load order.
type RecordStore struct {
	resolver FieldResolver
	logger   *zap.Logger
	records  atomic.Pointer[[]domain.Record]
}

// New creates an empty RecordStore.
func New(resolver FieldResolver, logger *zap.Logger) *RecordStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &RecordStore{resolver: resolver, logger: logger}
	empty := []domain.Record{}
	s.records.Store(&empty)
	return s
}

// Load normalizes the raw batch and replaces the whole collection. Records
// without a usable id are skipped and logged; they never abort the batch.
// Returns the number of records loaded and the number skipped.
func (s *RecordStore) Load(ctx context.Context, raws []domain.RawRecord) (loaded, skipped int) {
	records := make([]domain.Record, 0, len(raws))
	seen := make(map[string]struct{}, len(raws))

	for i, raw := range raws {
		if strings.TrimSpace(raw.ID) == "" {
			s.logger.Warn("skipping malformed record",
				zap.Int("position", i),
				zap.Error(domain.ErrMissingRecordID),
			)
			skipped++
			continue
		}
		if _, dup := seen[raw.ID]; dup {
			s.logger.Warn("skipping duplicate record id",
				zap.Int("position", i),
				zap.String("id", raw.ID),
			)
			skipped++
			continue
		}
		seen[raw.ID] = struct{}{}
		records = append(records, s.normalize(ctx, raw))
	}

	s.records.Store(&records)
	return len(records), skipped
}

// normalize resolves bilingual fields once, clamps the rating and defaults
// missing sequences, so no read site ever re-applies these rules.
func (s *RecordStore) normalize(ctx context.Context, raw domain.RawRecord) domain.Record {
	name := s.resolver.Resolve(ctx, raw, "name")
	description := s.resolver.Resolve(ctx, raw, "description")

	rating := raw.Rating
	if rating < 0 {
		rating = 0
	}
	if rating > 5 {
		rating = 5
	}
	reviewCount := raw.ReviewCount
	if reviewCount < 0 {
		reviewCount = 0
	}

	services := raw.Services
	if services == nil {
		services = []string{}
	}
	features := raw.Features
	if features == nil {
		features = []string{}
	}

	return domain.Record{
		ID:                   raw.ID,
		Name:                 name.Value,
		NameLocalized:        raw.NameLocalized,
		Category:             raw.Category,
		Region:               raw.Region,
		Area:                 raw.Area,
		Rating:               rating,
		ReviewCount:          reviewCount,
		PriceRange:           raw.PriceRange,
		Services:             services,
		Description:          description.Value,
		DescriptionLocalized: raw.DescriptionLocalized,
		Features:             features,
		Access:               raw.Access,
		ContactPhone:         raw.ContactPhone,
		Website:              raw.Website,
	}
}

// Records returns the current snapshot in load order. The slice must not be
// mutated by callers.
func (s *RecordStore) Records() []domain.Record {
	return *s.records.Load()
}

// Len returns the number of loaded records.
func (s *RecordStore) Len() int {
	return len(s.Records())
}

// FilterByRating returns records with rating >= min, in load order.
func (s *RecordStore) FilterByRating(min float64) []domain.Record {
	return s.filter(func(r domain.Record) bool {
		return r.Rating >= min
	})
}

// FilterByRegion returns records whose region contains text, case-insensitive.
func (s *RecordStore) FilterByRegion(text string) []domain.Record {
	needle := strings.ToLower(text)
	return s.filter(func(r domain.Record) bool {
		return strings.Contains(strings.ToLower(r.Region), needle)
	})
}

// FilterByCategory returns records whose category contains text, case-insensitive.
func (s *RecordStore) FilterByCategory(text string) []domain.Record {
	needle := strings.ToLower(text)
	return s.filter(func(r domain.Record) bool {
		return strings.Contains(strings.ToLower(r.Category), needle)
	})
}

// Filter combines the region, category and rating filters. Empty strings and
// a zero minRating mean "no constraint" for that dimension.
func (s *RecordStore) Filter(region, category string, minRating float64) []domain.Record {
	regionNeedle := strings.ToLower(region)
	categoryNeedle := strings.ToLower(category)
	return s.filter(func(r domain.Record) bool {
		if region != "" && !strings.Contains(strings.ToLower(r.Region), regionNeedle) {
			return false
		}
		if category != "" && !strings.Contains(strings.ToLower(r.Category), categoryNeedle) {
			return false
		}
		return r.Rating >= minRating
	})
}

func (s *RecordStore) filter(keep func(domain.Record) bool) []domain.Record {
	records := s.Records()
	out := make([]domain.Record, 0, len(records))
	for _, r := range records {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}

// TopRated returns the n highest rated records. The sort is stable: records
// with equal ratings keep their load order.
func (s *RecordStore) TopRated(n int) []domain.Record {
	records := s.Records()
	sorted := make([]domain.Record, len(records))
	copy(sorted, records)

	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Rating > sorted[j].Rating
	})

	if n < 0 {
		n = 0
	}
	if n > len(sorted) {
		n = len(sorted)
	}
	return sorted[:n]
}

// Statistics computes collection-wide aggregates. An empty store reports an
// average rating of 0.
func (s *RecordStore) Statistics() Stats {
	records := s.Records()
	stats := Stats{
		Total:          len(records),
		CategoryCounts: make(map[string]int),
		RegionCounts:   make(map[string]int),
	}

	var sum float64
	for _, r := range records {
		sum += r.Rating
		stats.CategoryCounts[r.Category]++
		stats.RegionCounts[r.Region]++
	}
	if stats.Total > 0 {
		stats.AverageRating = sum / float64(stats.Total)
	}
	return stats
}
