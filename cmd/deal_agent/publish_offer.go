package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/deal-poster/internal/extract"
	"github.com/jonathan/deal-poster/internal/fetch"
	"github.com/jonathan/deal-poster/internal/pipeline"
)

var publishOfferCmd = &cobra.Command{
	Use:   "publish-offer <https://...>",
	Short: "Create a deal post by scraping a product page",
	Long: `Fetch the product page, read title, image and price from structured data
and meta tags, and write a deal post. A page that cannot be fetched still
produces a post with fallback values unless --strict is set.`,
	Args: cobra.ExactArgs(1),
	RunE: runPublishOffer,
}

var (
	publishStrict       bool
	publishBrowser      bool
	publishDecimalComma bool
	publishNote         string
)

func init() {
	publishOfferCmd.Flags().BoolVar(&publishStrict, "strict", false, "Fail when the page cannot be fetched")
	publishOfferCmd.Flags().BoolVar(&publishBrowser, "browser", false, "Retry with a headless browser after HTTP attempts fail")
	publishOfferCmd.Flags().BoolVar(&publishDecimalComma, "decimal-comma", true, "Render prices with a decimal comma")
	publishOfferCmd.Flags().StringVar(&publishNote, "note", "", "Free text appended below the front-matter")

	rootCmd.AddCommand(publishOfferCmd)
}

func runPublishOffer(cmd *cobra.Command, args []string) error {
	url := args[0]
	if err := fetch.ValidateURL(url); err != nil {
		return err
	}

	schema := cfg.PostSchema(publishDecimalComma)
	if cmd.Flags().Changed("decimal-comma") {
		schema.DecimalComma = publishDecimalComma
	}
	opts, err := runOptions(cmd, schema)
	if err != nil {
		return err
	}

	fetcher := fetch.NewFetcher(cfg.FetchOptions(publishBrowser))
	res, err := pipeline.RunScrape(cmd.Context(), fetcher, pipeline.ScrapeInput{
		URL:    url,
		Note:   publishNote,
		Strict: publishStrict,
	}, opts)
	if err != nil {
		return err
	}

	if !res.Fetch.Fetched {
		fmt.Fprintln(cmd.ErrOrStderr(), "Fetch failed (published anyway): could not fetch page content")
	}

	price := ""
	if res.Product.CurrentPrice.Valid {
		price = extract.FormatPrice(res.Product.CurrentPrice.Decimal, schema.DecimalComma)
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Created: %s\n", res.Path)
	fmt.Fprintf(out, "Title: %s\n", res.Product.Title)
	fmt.Fprintf(out, "Image: %s\n", orNone(res.Product.ImageURL))
	fmt.Fprintf(out, "Price: %s\n", orNone(price))
	fmt.Fprintf(out, "ASIN: %s\n", orNone(res.Product.ASIN))
	return nil
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}
