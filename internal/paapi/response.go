package paapi

import (
	"github.com/shopspring/decimal"

	"github.com/jonathan/deal-poster/internal/types"
)

type getItemsResponse struct {
	ItemsResult *struct {
		Items []item `json:"Items"`
	} `json:"ItemsResult"`
}

type item struct {
	ASIN          string `json:"ASIN"`
	DetailPageURL string `json:"DetailPageURL"`
	ItemInfo      struct {
		Title struct {
			DisplayValue string `json:"DisplayValue"`
		} `json:"Title"`
	} `json:"ItemInfo"`
	Images struct {
		Primary struct {
			Large struct {
				URL string `json:"URL"`
			} `json:"Large"`
		} `json:"Primary"`
	} `json:"Images"`
	Offers struct {
		Listings []listing `json:"Listings"`
	} `json:"Offers"`
}

type listing struct {
	Price       *money `json:"Price"`
	SavingBasis *money `json:"SavingBasis"`
}

type money struct {
	Amount   decimal.NullDecimal `json:"Amount"`
	Currency string              `json:"Currency"`
}

func (m *money) amount() decimal.NullDecimal {
	if m == nil {
		return decimal.NullDecimal{}
	}
	return m.Amount
}

// toProduct maps the first returned item onto a ProductRecord.
func (it item) toProduct(asin string) *types.ProductRecord {
	p := &types.ProductRecord{
		ASIN:      asin,
		Title:     it.ItemInfo.Title.DisplayValue,
		ImageURL:  it.Images.Primary.Large.URL,
		DetailURL: it.DetailPageURL,
	}
	if len(it.Offers.Listings) > 0 {
		l := it.Offers.Listings[0]
		p.CurrentPrice = l.Price.amount()
		p.ListPrice = l.SavingBasis.amount()
		if l.Price != nil {
			p.Currency = l.Price.Currency
		}
	}
	p.FillDiscount()
	return p
}
