package fetch

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectPlatform(t *testing.T) {
	tests := []struct {
		url  string
		want Platform
	}{
		{"https://www.amazon.it/dp/B0ABCDEFGH", PlatformAmazon},
		{"https://amazon.de/gp/product/B0ABCDEFGH", PlatformAmazon},
		{"https://amzn.to/3xyz", PlatformAmazon},
		{"https://www.mediaworld.it/product/123", PlatformUnknown},
		{"://bad", PlatformUnknown},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, DetectPlatform(tt.url), tt.url)
	}
}

func TestFallbackTitle(t *testing.T) {
	assert.Equal(t, "Offerta Amazon", FallbackTitle(PlatformAmazon))
	assert.Equal(t, "Offerta", FallbackTitle(PlatformUnknown))
}
