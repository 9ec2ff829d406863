// Package bilingual reconciles a record's English-facing fields with their
// localized counterparts (suffix "_localized" in the raw schema).
package bilingual

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/kirei-app/kirei/internal/domain"
)

// Resolver applies bilingual precedence: native English text wins verbatim,
// otherwise the localized text is translated, otherwise it is used as is.
// Resolve never fails; any translation error degrades to the untranslated text.
type Resolver struct {
	translator domain.Translator
	sourceLang string
	targetLang string
	logger     *zap.Logger
}

// New creates a Resolver. translator may be nil, in which case every
// localized-only field resolves with SourceFallbackOriginal.
func New(translator domain.Translator, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{
		translator: translator,
		sourceLang: "ja",
		targetLang: "en",
		logger:     logger,
	}
}

// WithLanguages overrides the default ja -> en translation pair.
func (r *Resolver) WithLanguages(source, target string) *Resolver {
	if source != "" {
		r.sourceLang = source
	}
	if target != "" {
		r.targetLang = target
	}
	return r
}

// Resolve returns the value for the canonical field name, reconciling the
// English-facing and localized variants of the raw record.
func (r *Resolver) Resolve(ctx context.Context, raw domain.RawRecord, field string) domain.ResolvedField {
	native, localized := fieldPair(raw, field)

	if strings.TrimSpace(native) != "" {
		return domain.ResolvedField{Value: native, Source: domain.SourceNative}
	}
	if strings.TrimSpace(localized) == "" {
		return domain.ResolvedField{Value: "", Source: domain.SourceFallbackOriginal}
	}

	if r.translator == nil {
		return domain.ResolvedField{Value: localized, Source: domain.SourceFallbackOriginal}
	}

	translated, err := r.translator.Translate(ctx, localized, r.sourceLang, r.targetLang)
	if err != nil || strings.TrimSpace(translated) == "" {
		r.logger.Warn("translation failed, using localized text",
			zap.String("field", field),
			zap.Error(err),
		)
		return domain.ResolvedField{Value: localized, Source: domain.SourceFallbackOriginal}
	}

	return domain.ResolvedField{Value: translated, Source: domain.SourceTranslated}
}

// fieldPair maps a canonical field name to its English and localized values.
// Unknown field names resolve to empty values.
func fieldPair(raw domain.RawRecord, field string) (native, localized string) {
	switch field {
	case "name":
		return raw.Name, raw.NameLocalized
	case "description":
		return raw.Description, raw.DescriptionLocalized
	default:
		return "", ""
	}
}
