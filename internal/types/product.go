package types

import (
	"github.com/shopspring/decimal"
)

// ProductRecord is the product metadata resolved for a single post.
// Optional prices use decimal.NullDecimal; DiscountPercent is nil when unknown.
type ProductRecord struct {
	ASIN            string              `json:"asin,omitempty"`
	Title           string              `json:"title"`
	ImageURL        string              `json:"image_url,omitempty"`
	DetailURL       string              `json:"detail_url,omitempty"`
	Currency        string              `json:"currency,omitempty"`
	CurrentPrice    decimal.NullDecimal `json:"price_current"`
	ListPrice       decimal.NullDecimal `json:"price_list"`
	DiscountPercent *int                `json:"discount_pct,omitempty"`
}

var hundred = decimal.NewFromInt(100)

// ComputeDiscount returns round((list-current)/list*100) when both prices are
// known and list is positive.
func ComputeDiscount(current, list decimal.NullDecimal) *int {
	if !current.Valid || !list.Valid || !list.Decimal.IsPositive() {
		return nil
	}
	pct := list.Decimal.Sub(current.Decimal).Div(list.Decimal).Mul(hundred).Round(0)
	n := int(pct.IntPart())
	return &n
}

// FillDiscount sets DiscountPercent from the two prices if it is not already set.
func (p *ProductRecord) FillDiscount() {
	if p.DiscountPercent == nil {
		p.DiscountPercent = ComputeDiscount(p.CurrentPrice, p.ListPrice)
	}
}

// Price wraps a decimal as a present optional value.
func Price(d decimal.Decimal) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: d, Valid: true}
}
