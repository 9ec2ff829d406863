// Package compose renders the deterministic reply used whenever the
// generation capability is unavailable or fails. Output is a pure function
// of the inputs, so it can be golden-tested.
package compose

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/kirei-app/kirei/internal/domain"
)

// Composer builds templated replies from retrieval results.
type Composer struct{}

// New creates a Composer.
func New() *Composer {
	return &Composer{}
}

// Compose renders the fallback reply. With retrieval context it lists the
// given records; without it, a fixed help message with example queries.
func (c *Composer) Compose(query string, records []domain.Record, hasRetrievalContext bool) string {
	var b strings.Builder
	b.WriteString("I'm here to help you find the perfect salon or clinic! ")

	if hasRetrievalContext {
		b.WriteString("\n\nHere is what I found:\n")
		for _, r := range records {
			b.WriteString(FormatRecord(r))
		}
		b.WriteString("\nWould you like more information about any of these?")
		return b.String()
	}

	b.WriteString("\nI can help you:\n")
	b.WriteString("- Find salons and clinics by location or service\n")
	b.WriteString("- Compare different providers\n")
	b.WriteString("- Provide information about services and prices\n")
	b.WriteString("- Guide you through the booking process\n\n")
	b.WriteString("Try asking me something like:\n")
	b.WriteString("- 'Find me a salon in Shibuya'\n")
	b.WriteString("- 'What are the best rated clinics?'\n")
	b.WriteString("- 'I'm looking for facial treatments'\n")
	return b.String()
}

// FormatRecord renders one record block for display or generation context.
func FormatRecord(r domain.Record) string {
	var b strings.Builder
	fmt.Fprintf(&b, "\n**%s**\n", r.Name)
	fmt.Fprintf(&b, "   Category: %s\n", capitalize(r.Category))
	fmt.Fprintf(&b, "   Location: %s, %s\n", r.Area, capitalize(r.Region))
	fmt.Fprintf(&b, "   Rating: %s %.1f/5 (%d reviews)\n", stars(r.Rating), r.Rating, r.ReviewCount)
	fmt.Fprintf(&b, "   Services: %s\n", strings.Join(r.Services, ", "))
	fmt.Fprintf(&b, "   Price Range: %s\n", r.PriceRange)
	if r.Description != "" {
		fmt.Fprintf(&b, "   %s\n", r.Description)
	}
	if len(r.Features) > 0 {
		fmt.Fprintf(&b, "   Features: %s\n", strings.Join(r.Features, ", "))
	}
	if r.Access != "" {
		fmt.Fprintf(&b, "   Access: %s\n", r.Access)
	}
	if r.ContactPhone != "" {
		fmt.Fprintf(&b, "   Phone: %s\n", r.ContactPhone)
	}
	return b.String()
}

// stars renders the rating scaled to whole stars.
func stars(rating float64) string {
	n := int(rating)
	if n < 0 {
		n = 0
	}
	if n > 5 {
		n = 5
	}
	return strings.Repeat("★", n)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	runes := []rune(s)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
