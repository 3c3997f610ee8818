// Package normalize converts free-form statement text into amounts and
// calendar dates. Every function here is pure; failure is reported as a
// false second return value, never as an error.
package normalize

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"golang-statement-normalizer/internal/models"
)

var (
	currencySymbols = strings.NewReplacer(
		"₹", "", "$", "", "€", "", "£", "", "¥", "",
		" ", "", " ", "",
	)
	currencyPrefix = regexp.MustCompile(`(?i)^(?:rs\.?|inr|usd|eur)\s*`)
	currencySuffix = regexp.MustCompile(`(?i)\s*(?:inr|usd|eur)$`)
	markerSuffix   = regexp.MustCompile(`(?i)^(.*?[\d\s.)])\s*(cr|dr)\.?$`)
	decimalComma   = regexp.MustCompile(`^[^,]*,\d{1,2}$`)
	plainNumber    = regexp.MustCompile(`^(?:\d+(?:\.\d*)?|\.\d+)$`)
	whitespace     = regexp.MustCompile(`\s+`)
)

// ParseAmount converts a textual amount into a signed decimal. Negative
// values are written with a leading or trailing minus or in parentheses.
// A trailing Cr/Dr marker is ignored here; see DirectionMarker.
func ParseAmount(raw string) (decimal.Decimal, bool) {
	s := strings.TrimSpace(currencySymbols.Replace(raw))
	if s == "" {
		return decimal.Zero, false
	}

	if rest, _, ok := splitMarker(s); ok {
		s = rest
	}

	s = currencyPrefix.ReplaceAllString(s, "")
	s = currencySuffix.ReplaceAllString(s, "")
	s = whitespace.ReplaceAllString(s, "")

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
		s = currencyPrefix.ReplaceAllString(s, "")
	}
	switch {
	case strings.HasPrefix(s, "-"):
		negative = !negative
		s = s[1:]
	case strings.HasPrefix(s, "+"):
		s = s[1:]
	case strings.HasSuffix(s, "-"):
		negative = !negative
		s = s[:len(s)-1]
	}

	s = foldSeparators(s)
	if !plainNumber.MatchString(s) {
		return decimal.Zero, false
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	if negative {
		d = d.Neg()
	}
	return d, true
}

// foldSeparators rewrites grouping and decimal separators so that only a
// single '.' decimal point remains.
func foldSeparators(s string) string {
	lastComma := strings.LastIndex(s, ",")
	lastDot := strings.LastIndex(s, ".")

	switch {
	case lastComma >= 0 && lastDot >= 0:
		if lastComma > lastDot {
			s = strings.ReplaceAll(s, ".", "")
			return strings.Replace(s, ",", ".", 1)
		}
		return strings.ReplaceAll(s, ",", "")
	case lastComma >= 0:
		if decimalComma.MatchString(s) {
			return strings.Replace(s, ",", ".", 1)
		}
		return strings.ReplaceAll(s, ",", "")
	}
	return s
}

// DirectionMarker reports the direction named by a trailing Cr or Dr
// marker, as in "1,250.00 Cr".
func DirectionMarker(raw string) (models.Direction, bool) {
	_, dir, ok := splitMarker(strings.TrimSpace(raw))
	return dir, ok
}

func splitMarker(s string) (string, models.Direction, bool) {
	m := markerSuffix.FindStringSubmatch(s)
	if m == nil {
		return s, "", false
	}
	dir := models.DirectionDebit
	if strings.EqualFold(m[2], "cr") {
		dir = models.DirectionCredit
	}
	return strings.TrimSpace(m[1]), dir, true
}

// FormatAmount renders d with two fixed decimals.
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}
