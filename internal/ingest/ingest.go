// Package ingest supplies raw records to the store. Real acquisition is an
// external concern; this package reads a previously captured JSON file and
// falls back to a synthetic sample set when no file exists.
package ingest

import (
	"encoding/json"
	"fmt"
	"os"
	"unicode"

	"github.com/kirei-app/kirei/internal/domain"
)

// LoadFile reads raw records from a JSON file.
func LoadFile(path string) ([]domain.RawRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read records file: %w", err)
	}

	var raws []domain.RawRecord
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, fmt.Errorf("parse records file: %w", err)
	}
	return raws, nil
}

// SaveFile writes raw records to a JSON file.
func SaveFile(path string, raws []domain.RawRecord) error {
	data, err := json.MarshalIndent(raws, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal records: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write records file: %w", err)
	}
	return nil
}

var sampleAreas = map[string][]string{
	"tokyo": {"Shibuya", "Shinjuku", "Ginza", "Harajuku", "Roppongi"},
	"osaka": {"Umeda", "Namba", "Shinsaibashi", "Tennoji", "Kyobashi"},
	"kyoto": {"Kawaramachi", "Gion", "Arashiyama", "Kyoto Station", "Sanjo"},
}

var sampleServices = map[string][]string{
	"salon":    {"Hair Cut", "Hair Color", "Perm", "Treatment", "Head Spa"},
	"nail":     {"Gel Nails", "Nail Art", "Manicure", "Pedicure", "Nail Care"},
	"eyelash":  {"Eyelash Extensions", "Lash Lift", "Eyelash Perm", "Tinting"},
	"esthetic": {"Facial", "Body Treatment", "Slimming", "Hair Removal", "Whitening"},
}

// SampleRecords generates the synthetic record set used for demos and tests
// when no captured data file is available.
func SampleRecords(region, category string) []domain.RawRecord {
	areas, ok := sampleAreas[region]
	if !ok {
		areas = []string{"Shibuya", "Shinjuku", "Ginza"}
	}
	services, ok := sampleServices[category]
	if !ok {
		services = []string{"Standard Service"}
	}
	if len(services) > 3 {
		services = services[:3]
	}

	raws := make([]domain.RawRecord, 0, len(areas))
	for i, area := range areas {
		raws = append(raws, domain.RawRecord{
			ID:                   fmt.Sprintf("%s_%s_%d", category, region, i+1),
			Name:                 fmt.Sprintf("%s Beauty %s %d", area, capitalize(category), i+1),
			NameLocalized:        fmt.Sprintf("%sビューティー%s%d", area, capitalize(category), i+1),
			Category:             category,
			Region:               region,
			Area:                 area,
			Rating:               4.0 + float64(i)*0.2,
			ReviewCount:          50 + i*25,
			PriceRange:           fmt.Sprintf("¥%d - ¥%d", 3000+i*1000, 8000+i*2000),
			Services:             services,
			Description:          fmt.Sprintf("A premium %s in %s, offering top-quality services with experienced staff.", category, area),
			DescriptionLocalized: fmt.Sprintf("%sにあるプレミアム%sサロン。経験豊富なスタッフが最高品質のサービスを提供します。", area, category),
			Features: []string{
				"English speaking staff",
				"Credit card accepted",
				"Online booking available",
			},
			Access:       fmt.Sprintf("%d min walk from %s Station", i+2, area),
			ContactPhone: fmt.Sprintf("03-%04d-%04d", 1000+i*111, 2000+i*222),
			Website:      fmt.Sprintf("https://example.com/%s_%s_%d/", category, region, i+1),
		})
	}
	return raws
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	runes := []rune(s)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
