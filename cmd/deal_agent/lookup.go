package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonathan/deal-poster/internal/config"
	"github.com/jonathan/deal-poster/internal/pipeline"
)

var lookupCmd = &cobra.Command{
	Use:   "lookup",
	Short: "Print vendor item fields as KEY=VALUE lines",
	Long:  "Look up ASIN through the vendor API and print TITLE, IMAGE_URL, DETAIL_URL, PRICE, CURRENCY and PRICE_TS lines for workflow capture. No post is written.",
	Args:  cobra.NoArgs,
	RunE:  runLookup,
}

func init() {
	rootCmd.AddCommand(lookupCmd)
}

func runLookup(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	env, err := config.LoadVendorEnv()
	if err != nil {
		return err
	}
	in, err := signedInput(ctx, env)
	if err != nil {
		return err
	}

	prod, err := pipeline.Lookup(ctx, in, pipeline.RunOptions{})
	if err != nil {
		return err
	}

	title := prod.Title
	if title == "" {
		title = in.ASIN
	}
	price := ""
	if prod.CurrentPrice.Valid {
		price = prod.CurrentPrice.Decimal.StringFixed(2)
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "TITLE=%s\n", title)
	fmt.Fprintf(out, "IMAGE_URL=%s\n", prod.ImageURL)
	fmt.Fprintf(out, "DETAIL_URL=%s\n", prod.DetailURL)
	fmt.Fprintf(out, "PRICE=%s\n", price)
	fmt.Fprintf(out, "CURRENCY=%s\n", prod.Currency)
	fmt.Fprintf(out, "PRICE_TS=%s\n", now().UTC().Format(time.RFC3339))
	return nil
}
