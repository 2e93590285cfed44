package pipeline

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/jonathan/deal-poster/internal/extract"
	"github.com/jonathan/deal-poster/internal/fetch"
	"github.com/jonathan/deal-poster/internal/pipeline/steps"
	"github.com/jonathan/deal-poster/internal/types"
)

// PageFetcher retrieves a product page.
type PageFetcher interface {
	Page(ctx context.Context, url string) (*fetch.Result, error)
}

// ScrapeInput is the scrape pipeline input.
type ScrapeInput struct {
	URL  string
	Note string
	// Strict makes a failed fetch fatal instead of publishing defaults.
	Strict bool
}

// RunScrape fetches a page, extracts its metadata and writes a post. A
// failed fetch still publishes a post with the fallback title unless Strict.
func RunScrape(ctx context.Context, fetcher PageFetcher, in ScrapeInput, opts RunOptions) (*Result, error) {
	r := newRun(steps.CategoryScrape, &opts)

	var page *fetch.Result
	err := r.step("fetch_page", fmt.Sprintf("Fetching %s...", in.URL), func() error {
		var err error
		page, err = fetcher.Page(ctx, in.URL)
		if err != nil {
			return err
		}
		if !page.Fetched && in.Strict {
			return fmt.Errorf("page fetch failed after %d attempt(s): %w", page.Attempts, page.Err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	var md *extract.Metadata
	err = r.step("extract_metadata", "Extracting metadata...", func() error {
		var err error
		md, err = extract.Extract(page.HTML, fetch.FallbackTitle(fetch.DetectPlatform(in.URL)))
		return err
	})
	if err != nil {
		return nil, err
	}
	if md.SkippedBlocks > 0 {
		log.Debug().Int("skipped", md.SkippedBlocks).Msg("malformed structured-data blocks ignored")
	}
	if md.RawPrice != "" && !md.Price.Valid {
		log.Debug().Str("raw", md.RawPrice).Msg("price rejected by normalization")
	}

	prod := &types.ProductRecord{
		ASIN:         extract.Identifier(in.URL),
		Title:        md.Title,
		ImageURL:     md.Image,
		CurrentPrice: md.Price,
	}
	if opts.Printer != nil {
		opts.Printer.PrintExtraction(page, md)
		opts.Printer.PrintProduct(prod)
	}

	path, err := r.write(prod, in.URL, in.URL, in.Note)
	if err != nil {
		return nil, err
	}

	res := &Result{Path: path, Product: prod, URL: in.URL, Fetch: page}
	res.Notified = r.notify(ctx, prod, in.URL, in.Note)
	return res, nil
}
