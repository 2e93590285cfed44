// Package secrets fills vendor credentials that are missing from the
// environment from a secrets manager.
package secrets

import "context"

// Provider defines a generic secrets manager interface.
type Provider interface {
	// GetSecret retrieves a secret by id and returns it as a key-value map.
	GetSecret(ctx context.Context, id string) (map[string]string, error)
}
