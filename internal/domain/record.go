package domain

// RawRecord is a record as produced by the ingestion collaborator, before
// normalization. English-facing fields may be empty when only the localized
// counterpart (suffix "_localized") was captured.
type RawRecord struct {
	ID                   string   `json:"id"`
	Name                 string   `json:"name"`
	NameLocalized        string   `json:"name_localized"`
	Category             string   `json:"category"`
	Region               string   `json:"region"`
	Area                 string   `json:"area"`
	Rating               float64  `json:"rating"`
	ReviewCount          int      `json:"review_count"`
	PriceRange           string   `json:"price_range"`
	Services             []string `json:"services"`
	Description          string   `json:"description"`
	DescriptionLocalized string   `json:"description_localized"`
	Features             []string `json:"features"`
	Access               string   `json:"access"`
	ContactPhone         string   `json:"contact_phone"`
	Website              string   `json:"website"`
}

// Record is one discoverable entity, normalized exactly once at load time
// and never mutated afterwards.
type Record struct {
	ID                   string   `json:"id"`
	Name                 string   `json:"name"`
	NameLocalized        string   `json:"name_localized,omitempty"`
	Category             string   `json:"category"`
	Region               string   `json:"region"`
	Area                 string   `json:"area"`
	Rating               float64  `json:"rating"`
	ReviewCount          int      `json:"review_count"`
	PriceRange           string   `json:"price_range"`
	Services             []string `json:"services"`
	Description          string   `json:"description"`
	DescriptionLocalized string   `json:"description_localized,omitempty"`
	Features             []string `json:"features"`
	Access               string   `json:"access"`
	ContactPhone         string   `json:"contact_phone,omitempty"`
	Website              string   `json:"website,omitempty"`
}

// FieldSource tells where a resolved bilingual field value came from.
type FieldSource string

const (
	// SourceNative means the English-facing field was present and used verbatim.
	SourceNative FieldSource = "native"
	// SourceTranslated means the localized field was translated successfully.
	SourceTranslated FieldSource = "translated"
	// SourceFallbackOriginal means the localized text was used untranslated.
	SourceFallbackOriginal FieldSource = "fallback-original"
)

// ResolvedField is the outcome of bilingual field reconciliation.
type ResolvedField struct {
	Value  string
	Source FieldSource
}
