package secrets

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/jonathan/deal-poster/internal/paapi"
)

// Secret keys, matched case-insensitively. Both the short form and the env
// var name are accepted.
var (
	accessKeyNames  = []string{"access_key", "AMAZON_ACCESS_KEY"}
	secretKeyNames  = []string{"secret_key", "AMAZON_SECRET_KEY"}
	partnerTagNames = []string{"partner_tag", "AMAZON_ASSOCIATE_TAG"}
)

// Complete reports whether no credential value is missing.
func Complete(c paapi.Credentials) bool {
	return c.AccessKey != "" && c.SecretKey != "" && c.PartnerTag != ""
}

// FillCredentials returns creds with empty values taken from the secret id.
// Values already present are kept. The provider is not called when creds
// are complete or id is empty.
func FillCredentials(ctx context.Context, p Provider, id string, creds paapi.Credentials) (paapi.Credentials, error) {
	if Complete(creds) || id == "" || p == nil {
		return creds, nil
	}

	secret, err := p.GetSecret(ctx, id)
	if err != nil {
		return creds, err
	}

	filled := 0
	fill := func(dst *string, names []string) {
		if *dst != "" {
			return
		}
		if v := lookup(secret, names); v != "" {
			*dst = v
			filled++
		}
	}
	fill(&creds.AccessKey, accessKeyNames)
	fill(&creds.SecretKey, secretKeyNames)
	fill(&creds.PartnerTag, partnerTagNames)

	log.Debug().Str("secret_id", id).Int("filled", filled).Msg("vendor credentials resolved from secrets manager")
	return creds, nil
}

func lookup(m map[string]string, names []string) string {
	for k, v := range m {
		for _, name := range names {
			if strings.EqualFold(k, name) {
				return strings.TrimSpace(v)
			}
		}
	}
	return ""
}
