// Package extract pulls product metadata out of an HTML page.
//
// Each field is resolved by an ordered list of strategies; the first one that
// yields a value wins. Strategies are pure functions over a parsed Page.
package extract

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/shopspring/decimal"
)

// Page is a parsed HTML document plus lazily parsed structured data.
type Page struct {
	Doc *goquery.Document
	// SkippedBlocks counts ld+json blocks that could not be parsed.
	SkippedBlocks int

	ld       []map[string]any
	ldParsed bool
}

// Strategy looks up one field on a page.
type Strategy struct {
	Name string
	Find func(p *Page) (string, bool)
}

// TitleStrategies resolve the product title.
var TitleStrategies = []Strategy{
	{Name: "meta", Find: MetaContent("og:title", "twitter:title")},
	{Name: "title", Find: DocumentTitle},
}

// ImageStrategies resolve the product image URL.
var ImageStrategies = []Strategy{
	{Name: "meta", Find: MetaContent("og:image", "twitter:image")},
}

// PriceStrategies resolve the raw, unnormalized price string.
var PriceStrategies = []Strategy{
	{Name: "ld+json", Find: JSONLDPrice},
	{Name: "meta", Find: MetaContent("product:price:amount", "")},
	{Name: "og-meta", Find: MetaContent("og:price:amount", "")},
}

// Metadata is what a page yielded.
type Metadata struct {
	Title       string
	TitleSource string
	Image       string
	RawPrice    string
	Price       decimal.NullDecimal
	PriceSource string
	// SkippedBlocks counts malformed structured-data blocks.
	SkippedBlocks int
}

// ParsePage parses html; empty input yields an empty document.
func ParsePage(html string) (*Page, error) {
	if strings.TrimSpace(html) == "" {
		html = "<html></html>"
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return &Page{Doc: doc}, nil
}

// FirstOf runs strategies in order and returns the first value found along
// with the name of the strategy that produced it.
func FirstOf(p *Page, strategies []Strategy) (value, source string, ok bool) {
	for _, s := range strategies {
		if v, found := s.Find(p); found {
			return v, s.Name, true
		}
	}
	return "", "", false
}

// Extract resolves title, image and price from html. fallbackTitle is used
// when no title strategy matches.
func Extract(html, fallbackTitle string) (*Metadata, error) {
	page, err := ParsePage(html)
	if err != nil {
		return nil, err
	}

	meta := &Metadata{Title: fallbackTitle, TitleSource: "fallback"}

	if v, src, ok := FirstOf(page, TitleStrategies); ok {
		meta.Title, meta.TitleSource = v, src
	}
	if v, _, ok := FirstOf(page, ImageStrategies); ok {
		meta.Image = v
	}
	if v, src, ok := FirstOf(page, PriceStrategies); ok {
		meta.RawPrice, meta.PriceSource = v, src
		if d, valid := NormalizePrice(v); valid {
			meta.Price = decimal.NullDecimal{Decimal: d, Valid: true}
		}
	}
	meta.SkippedBlocks = page.SkippedBlocks

	return meta, nil
}

// MetaContent returns a strategy reading <meta property=...> first and then
// <meta name=...>; name may be empty.
func MetaContent(property, name string) func(p *Page) (string, bool) {
	return func(p *Page) (string, bool) {
		if v := attrContent(p.Doc, fmt.Sprintf(`meta[property=%q]`, property)); v != "" {
			return v, true
		}
		if name != "" {
			if v := attrContent(p.Doc, fmt.Sprintf(`meta[name=%q]`, name)); v != "" {
				return v, true
			}
		}
		return "", false
	}
}

// DocumentTitle returns the trimmed text of the first <title>.
func DocumentTitle(p *Page) (string, bool) {
	v := strings.TrimSpace(p.Doc.Find("title").First().Text())
	return v, v != ""
}

func attrContent(doc *goquery.Document, selector string) string {
	v, _ := doc.Find(selector).First().Attr("content")
	return strings.TrimSpace(v)
}
