package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/deal-poster/internal/config"
	"github.com/jonathan/deal-poster/internal/notify"
	"github.com/jonathan/deal-poster/internal/observability"
	"github.com/jonathan/deal-poster/internal/paapi"
	"github.com/jonathan/deal-poster/internal/pipeline"
	"github.com/jonathan/deal-poster/internal/post"
	"github.com/jonathan/deal-poster/internal/secrets"
)

// newSecretsProvider is swapped in tests.
var newSecretsProvider = func(ctx context.Context) (secrets.Provider, error) {
	p, err := secrets.NewAWSProvider(ctx, "")
	if err != nil {
		return nil, err
	}
	return p, nil
}

// runOptions wires writer, notifier, clock and verbose output for cmd.
func runOptions(cmd *cobra.Command, schema post.Schema) (pipeline.RunOptions, error) {
	loc, err := cfg.Location()
	if err != nil {
		return pipeline.RunOptions{}, err
	}

	opts := pipeline.RunOptions{
		Writer: post.NewWriter(cfg.OutputDir, schema, loc),
		Now:    now,
	}

	tg, err := config.LoadTelegramEnv()
	if err != nil {
		return pipeline.RunOptions{}, err
	}
	if nopts := cfg.NotifyOptions(tg); nopts.Configured() {
		opts.Notifier = notify.NewTelegram(nopts)
	} else {
		fmt.Fprintln(cmd.ErrOrStderr(), "Telegram not configured; skipping notification.")
	}

	if verbose {
		opts.Printer = observability.NewPrinter(cmd.OutOrStdout())
		opts.OnProgress = func(e pipeline.ProgressEvent) {
			fmt.Fprintf(cmd.ErrOrStderr(), "Step %d/%d: %s\n", e.Index, e.Total, e.Message)
		}
	}
	return opts, nil
}

// signedInput builds the vendor pipeline input from env and config.
func signedInput(ctx context.Context, env *config.VendorEnv) (pipeline.SignedInput, error) {
	in := pipeline.SignedInput{
		ASIN:        env.ASIN,
		Note:        env.Note,
		Credentials: env.Credentials(),
		SecretID:    env.SecretID,
		Validate:    config.ValidateCredentials,
		NewClient: func(c paapi.Credentials) pipeline.ItemGetter {
			return paapi.NewClient(c, cfg.PAAPIOptions(), now)
		},
	}
	if in.SecretID == "" {
		in.SecretID = cfg.SecretID
	}

	if in.SecretID != "" && !secrets.Complete(in.Credentials) {
		provider, err := newSecretsProvider(ctx)
		if err != nil {
			return in, err
		}
		in.Secrets = provider
	}
	return in, nil
}
