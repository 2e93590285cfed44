package extract

import (
	"regexp"
	"strings"
)

var identifierPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)/dp/([A-Z0-9]{10})`),
	regexp.MustCompile(`(?i)/gp/product/([A-Z0-9]{10})`),
	regexp.MustCompile(`(?i)[?&]asin=([A-Z0-9]{10})`),
}

var identifierRe = regexp.MustCompile(`^[A-Z0-9]{10}$`)

// Identifier returns the upper-cased ASIN found in rawURL, or "" when no
// known URL shape matches. The first matching pattern wins.
func Identifier(rawURL string) string {
	for _, re := range identifierPatterns {
		if m := re.FindStringSubmatch(rawURL); m != nil {
			return strings.ToUpper(m[1])
		}
	}
	return ""
}

// NormalizeIdentifier trims and upper-cases id and reports whether it is a
// 10-character alphanumeric identifier.
func NormalizeIdentifier(id string) (string, bool) {
	id = strings.ToUpper(strings.TrimSpace(id))
	return id, identifierRe.MatchString(id)
}
