package extract

import (
	"fmt"
	"regexp"

	"github.com/nfemapa/nfe-extractor-service/internal/normalize"
)

var (
	rePhone    = regexp.MustCompile(`(\(?\d{2}\)?\s*\d{4,5}[-\s]?\d{4}|\b\d{10,11}\b)`)
	reNonDigit = regexp.MustCompile(`\D`)
)

// NormalizePhone formats Brazilian national numbers: 11 digits become
// (DD)DDDDD-DDDD, 10 digits (DD)DDDD-DDDD. Anything else is returned
// whitespace-collapsed as-is.
func NormalizePhone(raw string) string {
	if raw == "" {
		return ""
	}
	digits := reNonDigit.ReplaceAllString(raw, "")
	switch len(digits) {
	case 11:
		return fmt.Sprintf("(%s)%s-%s", digits[:2], digits[2:7], digits[7:])
	case 10:
		return fmt.Sprintf("(%s)%s-%s", digits[:2], digits[2:6], digits[6:])
	}
	return normalize.CollapseSpaces(raw)
}

// FindPhone extracts and normalizes the first phone-looking token in txt.
func FindPhone(txt string) string {
	m := rePhone.FindStringSubmatch(txt)
	if m == nil {
		return ""
	}
	return NormalizePhone(m[1])
}
