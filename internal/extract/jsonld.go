package extract

import (
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"
	"github.com/titanous/json5"
)

// StructuredData parses every application/ld+json block once and returns the
// flattened objects. Blocks that fail to parse are skipped and counted.
func (p *Page) StructuredData() []map[string]any {
	if p.ldParsed {
		return p.ld
	}
	p.ldParsed = true

	p.Doc.Find(`script[type="application/ld+json"]`).Each(func(i int, s *goquery.Selection) {
		txt := strings.TrimSpace(s.Text())
		if txt == "" {
			return
		}
		var v any
		if err := json5.Unmarshal([]byte(txt), &v); err != nil {
			p.SkippedBlocks++
			log.Debug().Int("block", i).Err(err).Msg("skipping malformed ld+json block")
			return
		}
		p.ld = append(p.ld, flatten(v)...)
	})

	return p.ld
}

// flatten expands arrays and @graph containers into a flat object list.
func flatten(v any) []map[string]any {
	switch t := v.(type) {
	case []any:
		var out []map[string]any
		for _, e := range t {
			out = append(out, flatten(e)...)
		}
		return out
	case map[string]any:
		out := []map[string]any{t}
		if g, ok := t["@graph"]; ok {
			out = append(out, flatten(g)...)
		}
		return out
	default:
		return nil
	}
}

// JSONLDPrice finds the first offer price in the page's structured data.
// An object's offers/Offers field wins over the object itself being typed
// Offer or AggregateOffer.
func JSONLDPrice(p *Page) (string, bool) {
	for _, obj := range p.StructuredData() {
		offers := field(obj, "offers", "Offers")
		if offers != nil {
			list, ok := offers.([]any)
			if !ok {
				list = []any{offers}
			}
			for _, o := range list {
				off, ok := o.(map[string]any)
				if !ok {
					continue
				}
				if price, ok := scalarString(field(off, "price", "Price")); ok {
					return price, true
				}
			}
		}

		if hasType(obj, "Offer", "AggregateOffer") {
			if price, ok := scalarString(obj["price"]); ok {
				return price, true
			}
			if price, ok := scalarString(obj["lowPrice"]); ok {
				return price, true
			}
		}
	}
	return "", false
}

func field(obj map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := obj[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

func hasType(obj map[string]any, names ...string) bool {
	var types []string
	switch t := obj["@type"].(type) {
	case string:
		types = []string{t}
	case []any:
		for _, e := range t {
			if s, ok := e.(string); ok {
				types = append(types, s)
			}
		}
	}
	for _, have := range types {
		for _, want := range names {
			if have == want {
				return true
			}
		}
	}
	return false
}

func scalarString(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case int64:
		return strconv.FormatInt(t, 10), true
	case int:
		return strconv.Itoa(t), true
	default:
		return "", false
	}
}
