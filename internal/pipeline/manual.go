package pipeline

import (
	"context"
	"net/url"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/jonathan/deal-poster/internal/extract"
	"github.com/jonathan/deal-poster/internal/pipeline/steps"
	"github.com/jonathan/deal-poster/internal/types"
)

// ManualInput is a hand-entered deal.
type ManualInput struct {
	Title    string
	URL      string
	ImageURL string
	Price    string
	Discount *int
	Note     string
	// PartnerTag is appended as tag= unless the URL already carries one.
	PartnerTag string
}

// RunManual writes a post from hand-entered values.
func RunManual(ctx context.Context, in ManualInput, opts RunOptions) (*Result, error) {
	r := newRun(steps.CategoryManual, &opts)

	var prod *types.ProductRecord
	link := in.URL
	err := r.step("build_product", "Building product...", func() error {
		prod = &types.ProductRecord{
			ASIN:            extract.Identifier(in.URL),
			Title:           in.Title,
			ImageURL:        in.ImageURL,
			DiscountPercent: in.Discount,
		}
		if in.Price != "" {
			if d, ok := extract.NormalizePrice(in.Price); ok {
				prod.CurrentPrice = types.Price(d)
			} else {
				log.Warn().Str("price", in.Price).Msg("price not understood; leaving it empty")
			}
		}
		link = AddAffiliateTag(in.URL, in.PartnerTag)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if opts.Printer != nil {
		opts.Printer.PrintProduct(prod)
	}

	path, err := r.write(prod, link, in.URL, in.Note)
	if err != nil {
		return nil, err
	}

	res := &Result{Path: path, Product: prod, URL: link}
	res.Notified = r.notify(ctx, prod, link, in.Note)
	return res, nil
}

// AddAffiliateTag appends tag=<tag> to rawURL unless tag is empty or the
// query already has a tag parameter.
func AddAffiliateTag(rawURL, tag string) string {
	if rawURL == "" || tag == "" {
		return rawURL
	}
	if u, err := url.Parse(rawURL); err == nil && u.Query().Has("tag") {
		return rawURL
	}
	sep := "?"
	if strings.Contains(rawURL, "?") {
		sep = "&"
	}
	return rawURL + sep + "tag=" + url.QueryEscape(tag)
}
