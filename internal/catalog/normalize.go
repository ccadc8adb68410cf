package catalog

import (
	"regexp"
	"strconv"
	"strings"
)

// LanguageUnspecified is the tag applied when no vocabulary entry is found.
const LanguageUnspecified = "unspecified"

// DefaultLanguages is the tag vocabulary applied when none is configured.
// Order matters: the first vocabulary entry found in the text wins.
var DefaultLanguages = []string{"Bengali", "Hindi", "English"}

var yearRe = regexp.MustCompile(`(19|20)\d{2}`)

// Normalize projects text down to its lowercase ASCII alphanumerics. All
// spacing, punctuation and non-Latin script is dropped, so "The Creator (2023)"
// and "the-creator-2023" collapse to the same key. Titles with no ASCII
// alphanumerics at all normalize to the empty string.
func Normalize(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range strings.ToLower(text) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ExtractYear returns the first 4-digit 19xx/20xx run in text order. Posts
// mentioning several years keep whichever appears first, even when that is a
// remake-reference year rather than the release year.
func ExtractYear(text string) (int, bool) {
	m := yearRe.FindString(text)
	if m == "" {
		return 0, false
	}
	year, err := strconv.Atoi(m)
	if err != nil {
		return 0, false
	}
	return year, true
}

// ExtractLanguage returns the first vocabulary tag contained in text,
// case-insensitively. Vocabulary declaration order wins, not text order.
// A nil vocab falls back to DefaultLanguages.
func ExtractLanguage(text string, vocab []string) string {
	if vocab == nil {
		vocab = DefaultLanguages
	}
	lower := strings.ToLower(text)
	for _, tag := range vocab {
		if strings.Contains(lower, strings.ToLower(tag)) {
			return tag
		}
	}
	return LanguageUnspecified
}
