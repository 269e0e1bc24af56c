// Package emoji normalizes reaction keys so that visually identical emoji compare equal
package emoji

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// variationSelector16 is appended by many clients to request emoji presentation
const variationSelector16 = "\ufe0f"

// SuggestionSuffix marks reactions the bot itself adds as suggestions ("🦀 ?")
const SuggestionSuffix = " ?"

// Normalize returns the canonical form of a reaction key: NFC, without
// variation selectors, without the suggestion suffix and surrounding spaces.
func Normalize(key string) string {
	key = strings.TrimSuffix(key, SuggestionSuffix)
	key = strings.ReplaceAll(key, variationSelector16, "")
	return strings.TrimSpace(norm.NFC.String(key))
}

// Equal reports whether two reaction keys denote the same emoji
func Equal(a, b string) bool {
	return Normalize(a) == Normalize(b)
}

// Suggestion returns the key the bot uses to suggest an emoji to editors
func Suggestion(key string) string {
	return Normalize(key) + SuggestionSuffix
}
