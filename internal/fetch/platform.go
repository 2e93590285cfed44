// Package fetch - platform.go detects the marketplace behind a product URL.
package fetch

import (
	"net/url"
	"strings"
)

// Platform represents a known marketplace.
type Platform string

const (
	// PlatformAmazon covers every amazon.* storefront and amzn short links.
	PlatformAmazon Platform = "amazon"
	// PlatformUnknown is any other shop.
	PlatformUnknown Platform = "unknown"
)

// DetectPlatform identifies the marketplace from a URL.
func DetectPlatform(urlStr string) Platform {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return PlatformUnknown
	}

	host := strings.ToLower(parsed.Hostname())

	if strings.Contains(host, "amazon.") ||
		host == "amzn.to" || host == "amzn.eu" ||
		strings.HasSuffix(host, ".amzn.to") {
		return PlatformAmazon
	}

	return PlatformUnknown
}

// FallbackTitle is the post title used when a page yields none.
func FallbackTitle(platform Platform) string {
	if platform == PlatformAmazon {
		return "Offerta Amazon"
	}
	return "Offerta"
}
