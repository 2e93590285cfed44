package pipeline

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/jonathan/deal-poster/internal/paapi"
	"github.com/jonathan/deal-poster/internal/pipeline/steps"
	"github.com/jonathan/deal-poster/internal/secrets"
	"github.com/jonathan/deal-poster/internal/types"
)

// ItemGetter is the vendor lookup used by the signed pipeline.
type ItemGetter interface {
	GetItem(ctx context.Context, asin string) (*types.ProductRecord, error)
	AffiliateURL(asin string) string
}

// SignedInput is the signed pipeline input.
type SignedInput struct {
	ASIN        string
	Note        string
	Credentials paapi.Credentials
	// SecretID and Secrets fill credentials missing from Credentials.
	SecretID string
	Secrets  secrets.Provider
	// Validate rejects incomplete credentials after resolution.
	Validate func(paapi.Credentials) error
	// NewClient builds the vendor client from the resolved credentials.
	NewClient func(paapi.Credentials) ItemGetter
}

// RunSigned looks the item up through the vendor API and writes its post.
// Credential, upstream and not-found failures abort before anything is written.
func RunSigned(ctx context.Context, in SignedInput, opts RunOptions) (*Result, error) {
	r := newRun(steps.CategorySigned, &opts)

	client, err := r.resolve(ctx, in)
	if err != nil {
		return nil, err
	}

	prod, err := r.getItem(ctx, client, in.ASIN)
	if err != nil {
		return nil, err
	}
	if prod.Title == "" {
		prod.Title = fmt.Sprintf("Offerta (%s)", in.ASIN)
	}
	if opts.Printer != nil {
		opts.Printer.PrintProduct(prod)
	}

	url := client.AffiliateURL(in.ASIN)
	path, err := r.write(prod, url, url, in.Note)
	if err != nil {
		return nil, err
	}

	res := &Result{Path: path, Product: prod, URL: url}
	res.Notified = r.notify(ctx, prod, url, in.Note)
	return res, nil
}

// Lookup resolves credentials and fetches the item without writing a post.
func Lookup(ctx context.Context, in SignedInput, opts RunOptions) (*types.ProductRecord, error) {
	r := newRun(steps.CategorySigned, &opts)

	client, err := r.resolve(ctx, in)
	if err != nil {
		return nil, err
	}
	return r.getItem(ctx, client, in.ASIN)
}

func (r *run) resolve(ctx context.Context, in SignedInput) (ItemGetter, error) {
	var client ItemGetter
	err := r.step("resolve_credentials", "Resolving vendor credentials...", func() error {
		creds, err := secrets.FillCredentials(ctx, in.Secrets, in.SecretID, in.Credentials)
		if err != nil {
			return fmt.Errorf("failed to resolve credentials: %w", err)
		}
		if in.Validate != nil {
			if err := in.Validate(creds); err != nil {
				return err
			}
		}
		client = in.NewClient(creds)
		return nil
	})
	return client, err
}

func (r *run) getItem(ctx context.Context, client ItemGetter, asin string) (*types.ProductRecord, error) {
	var prod *types.ProductRecord
	err := r.step("get_item", fmt.Sprintf("Fetching item %s...", asin), func() error {
		var err error
		prod, err = client.GetItem(ctx, asin)
		return err
	})
	if err != nil {
		return nil, err
	}
	log.Debug().Str("asin", asin).Str("title", prod.Title).Msg("item resolved")
	return prod, nil
}
