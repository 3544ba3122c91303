// Package normalize canonicalizes the free-text inputs that arrive on
// routes and listing payloads: slugged city/locality/category segments,
// price and salary text, and contact phone numbers.
package normalize

import (
	"strings"

	"classifieds-service/internal/model"
)

// irregularCategories maps category slugs that cannot be derived
// mechanically from the display name. Everything else round-trips through
// SlugToDisplay.
var irregularCategories = map[string]string{
	"buy-sell":   "Buy/Sell",
	"lost-found": "Lost & Found",
}

// SlugToDisplay turns a hyphenated route segment into a display string:
// "andheri-east" -> "Andheri East".
func SlugToDisplay(slug string) string {
	words := strings.Split(strings.TrimSpace(slug), "-")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
	}
	return strings.TrimSpace(strings.Join(words, " "))
}

// MatchCategory resolves a category slug against the fixed enumeration.
// Unmatched slugs fail closed; structured SEO routes must treat that as
// not-found.
func MatchCategory(slug string) (string, bool) {
	key := strings.ToLower(strings.TrimSpace(slug))
	if c, ok := irregularCategories[key]; ok {
		return c, true
	}
	display := SlugToDisplay(key)
	for _, c := range model.Categories {
		if strings.EqualFold(c, display) {
			return c, true
		}
	}
	return "", false
}

// CategoryOrDisplay is the lenient variant for freeform routes (locality
// pages): an unmatched slug falls back to its formatted display string
// instead of a strict 404.
func CategoryOrDisplay(slug string) string {
	if c, ok := MatchCategory(slug); ok {
		return c
	}
	return SlugToDisplay(slug)
}

// Phone strips a contact number down to digits. A normalized phone must be
// 10 to 15 digits; anything else is rejected.
func Phone(raw string) (string, bool) {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if len(digits) < 10 || len(digits) > 15 {
		return "", false
	}
	return digits, true
}
