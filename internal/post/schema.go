// Package post writes deal posts: a YAML front-matter block followed by an
// optional free-text note, stored under a timestamped, slugged filename.
package post

import (
	"bytes"
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/jonathan/deal-poster/internal/extract"
	"github.com/jonathan/deal-poster/internal/types"
)

const (
	// DefaultLayout is the static-site layout tag.
	DefaultLayout = "deal"
	// DefaultDateOffset is appended verbatim to the local timestamp.
	DefaultDateOffset = "+0100"

	dateLayout = "2006-01-02 15:04:05"
	delimiter  = "---\n"
)

// Schema names the front-matter keys that differ between site variants.
type Schema struct {
	Layout       string
	URLKey       string // amazon_url or source_url
	PriceKey     string // price_current or price
	DateKey      string // date or published_at
	DecimalComma bool
	DateOffset   string
}

// DefaultSchema matches the deals layout of the site.
func DefaultSchema() Schema {
	return Schema{
		Layout:     DefaultLayout,
		URLKey:     "amazon_url",
		PriceKey:   "price_current",
		DateKey:    "date",
		DateOffset: DefaultDateOffset,
	}
}

func (s Schema) withDefaults() Schema {
	d := DefaultSchema()
	if s.Layout == "" {
		s.Layout = d.Layout
	}
	if s.URLKey == "" {
		s.URLKey = d.URLKey
	}
	if s.PriceKey == "" {
		s.PriceKey = d.PriceKey
	}
	if s.DateKey == "" {
		s.DateKey = d.DateKey
	}
	if s.DateOffset == "" {
		s.DateOffset = d.DateOffset
	}
	return s
}

// Post is everything that ends up in one output document.
type Post struct {
	Product *types.ProductRecord
	// URL is the outbound link written to the front-matter.
	URL string
	// SourceURL feeds the filename hash when the product has no ASIN.
	SourceURL   string
	Note        string
	PublishedAt time.Time
}

// FrontMatter renders the delimited front-matter block. Every key is always
// present; unknown values are written as "".
func (s Schema) FrontMatter(p Post, loc *time.Location) ([]byte, error) {
	s = s.withDefaults()
	if loc == nil {
		loc = time.Local
	}
	prod := p.Product
	if prod == nil {
		prod = &types.ProductRecord{}
	}

	doc := &yaml.Node{Kind: yaml.MappingNode}
	add := func(key string, value *yaml.Node) {
		doc.Content = append(doc.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key}, value)
	}

	add("layout", plain(s.Layout))
	add("title", quoted(prod.Title))
	add("asin", quoted(prod.ASIN))
	add("image", quoted(prod.ImageURL))
	add(s.PriceKey, quoted(s.price(prod.CurrentPrice)))
	add("price_list", quoted(s.price(prod.ListPrice)))
	if prod.DiscountPercent != nil {
		add("discount_pct", &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.Itoa(*prod.DiscountPercent)})
	} else {
		add("discount_pct", quoted(""))
	}
	add(s.URLKey, quoted(p.URL))
	add(s.DateKey, plain(p.PublishedAt.In(loc).Format(dateLayout)+" "+s.DateOffset))

	var buf bytes.Buffer
	buf.WriteString(delimiter)
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("failed to encode front matter: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to encode front matter: %w", err)
	}
	buf.WriteString(delimiter)

	return buf.Bytes(), nil
}

// Render returns the full document: front-matter plus note.
func (s Schema) Render(p Post, loc *time.Location) ([]byte, error) {
	fm, err := s.FrontMatter(p, loc)
	if err != nil {
		return nil, err
	}
	if p.Note != "" {
		fm = append(fm, p.Note...)
		fm = append(fm, '\n')
	}
	return fm, nil
}

func (s Schema) price(v decimal.NullDecimal) string {
	if !v.Valid || !v.Decimal.IsPositive() {
		return ""
	}
	return extract.FormatPrice(v.Decimal, s.DecimalComma)
}

func plain(v string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v}
}

func quoted(v string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v, Style: yaml.DoubleQuotedStyle}
}
