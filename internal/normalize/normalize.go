package normalize

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	reUFToken    = regexp.MustCompile(`(?i)\b(PE|PERNAMBUCO)\b`)
	reMultiSpace = regexp.MustCompile(`\s{2,}`)
	reAnySpace   = regexp.MustCompile(`\s+`)

	stripMn = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
)

// StripAccentsUpper removes diacritics and uppercases s. This is the
// canonical key form for zone membership and place lookups.
func StripAccentsUpper(s string) string {
	if s == "" {
		return ""
	}
	out, _, err := transform.String(stripMn, s)
	if err != nil {
		out = s
	}
	return strings.ToUpper(strings.TrimSpace(out))
}

// SanitizeMunicipality reduces a raw municipality value to a bare city
// name: everything from the first comma is dropped, standalone UF tokens
// ("PE", "PERNAMBUCO") are removed and runs of whitespace collapse.
func SanitizeMunicipality(raw string) string {
	if raw == "" {
		return ""
	}
	s := strings.TrimSpace(raw)
	if idx := strings.Index(s, ","); idx >= 0 {
		s = s[:idx]
	}
	s = reUFToken.ReplaceAllString(s, "")
	s = reMultiSpace.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// CollapseSpaces trims s and squeezes interior whitespace to single spaces.
func CollapseSpaces(s string) string {
	return strings.TrimSpace(reAnySpace.ReplaceAllString(s, " "))
}
