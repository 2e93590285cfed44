package extract

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	nonPriceChars = regexp.MustCompile(`[^\d.,]`)
	// a minus sign ahead of the first digit, after any currency prefix
	negativePrice = regexp.MustCompile(`^[^\d]*-`)
)

// NormalizePrice parses a loosely formatted price string.
//
// Everything except digits, '.' and ',' is dropped. With both separators
// present '.' groups thousands and ',' is the decimal mark; a lone ',' is
// the decimal mark. Negative, zero and unparsable inputs report false.
func NormalizePrice(raw string) (decimal.Decimal, bool) {
	s := strings.TrimSpace(raw)
	if negativePrice.MatchString(s) {
		return decimal.Zero, false
	}

	cleaned := nonPriceChars.ReplaceAllString(s, "")
	if cleaned == "" {
		return decimal.Zero, false
	}

	normalized := cleaned
	hasDot := strings.Contains(cleaned, ".")
	hasComma := strings.Contains(cleaned, ",")
	switch {
	case hasDot && hasComma:
		normalized = strings.Replace(strings.ReplaceAll(cleaned, ".", ""), ",", ".", 1)
	case hasComma:
		normalized = strings.Replace(cleaned, ",", ".", 1)
	}

	d, err := decimal.NewFromString(normalized)
	if err != nil || !d.IsPositive() {
		return decimal.Zero, false
	}
	return d, true
}

// FormatPrice renders d with two decimals, using ',' as the decimal mark
// when comma is set.
func FormatPrice(d decimal.Decimal, comma bool) string {
	s := d.StringFixed(2)
	if comma {
		return strings.Replace(s, ".", ",", 1)
	}
	return s
}

// NormalizePriceString combines NormalizePrice and FormatPrice; it returns ""
// for rejected input.
func NormalizePriceString(raw string, comma bool) string {
	d, ok := NormalizePrice(raw)
	if !ok {
		return ""
	}
	return FormatPrice(d, comma)
}
