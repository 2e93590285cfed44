package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/deal-poster/internal/config"
	"github.com/jonathan/deal-poster/internal/pipeline"
)

var createDealCmd = &cobra.Command{
	Use:   "create-deal",
	Short: "Create a deal post from a vendor API lookup",
	Long: `Look up ASIN through the signed Product Advertising API GetItems call and
write a deal post with the affiliate link.

Environment: ASIN (required), NOTE, AMAZON_ACCESS_KEY, AMAZON_SECRET_KEY,
AMAZON_ASSOCIATE_TAG, AMAZON_SECRET_ID, TELEGRAM_BOT_TOKEN, TELEGRAM_CHANNEL_ID.`,
	Args: cobra.NoArgs,
	RunE: runCreateDeal,
}

func init() {
	rootCmd.AddCommand(createDealCmd)
}

func runCreateDeal(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	env, err := config.LoadVendorEnv()
	if err != nil {
		return err
	}
	in, err := signedInput(ctx, env)
	if err != nil {
		return err
	}
	opts, err := runOptions(cmd, cfg.PostSchema(false))
	if err != nil {
		return err
	}

	res, err := pipeline.RunSigned(ctx, in, opts)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Created: %s\n", res.Path)
	if res.Notified {
		fmt.Fprintln(out, "Telegram sent.")
	}
	return nil
}
