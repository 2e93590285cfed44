package paapi

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const itemResponse = `{
	"ItemsResult": {
		"Items": [{
			"ASIN": "B0TESTABCD",
			"DetailPageURL": "https://www.amazon.it/dp/B0TESTABCD?tag=dealsblog-21",
			"ItemInfo": {"Title": {"DisplayValue": "Test Product"}},
			"Images": {"Primary": {"Large": {"URL": "https://m.media-amazon.com/images/I/test.jpg"}}},
			"Offers": {"Listings": [{
				"Price": {"Amount": 49.99, "Currency": "EUR"},
				"SavingBasis": {"Amount": 59.99, "Currency": "EUR"}
			}]}
		}]
	}
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	opts := DefaultOptions()
	opts.Endpoint = server.URL
	return NewClient(testCreds, opts, func() time.Time { return testNow })
}

func TestGetItem_Success(t *testing.T) {
	var gotBody string
	var gotHeaders http.Header
	var gotPath, gotMethod string

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		gotHeaders = r.Header.Clone()
		gotPath = r.URL.Path
		gotMethod = r.Method
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(itemResponse))
	})

	product, err := client.GetItem(context.Background(), "B0TESTABCD")
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, GetItemsPath, gotPath)
	assert.Equal(t, goldenPayload, gotBody)
	assert.Equal(t, "amz-1.0", gotHeaders.Get("Content-Encoding"))
	assert.Equal(t, "20240517T083000Z", gotHeaders.Get("X-Amz-Date"))
	assert.Equal(t, GetItemsTarget, gotHeaders.Get("X-Amz-Target"))
	assert.Equal(t, testContext().Authorization([]byte(goldenPayload)), gotHeaders.Get("Authorization"))

	assert.Equal(t, "B0TESTABCD", product.ASIN)
	assert.Equal(t, "Test Product", product.Title)
	assert.Equal(t, "https://m.media-amazon.com/images/I/test.jpg", product.ImageURL)
	assert.Equal(t, "EUR", product.Currency)
	require.True(t, product.CurrentPrice.Valid)
	assert.Equal(t, "49.99", product.CurrentPrice.Decimal.StringFixed(2))
	require.True(t, product.ListPrice.Valid)
	assert.Equal(t, "59.99", product.ListPrice.Decimal.StringFixed(2))
	require.NotNil(t, product.DiscountPercent)
	assert.Equal(t, 17, *product.DiscountPercent)
}

func TestGetItem_NoSavingBasis(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"ItemsResult":{"Items":[{"ItemInfo":{"Title":{"DisplayValue":"Solo"}},"Offers":{"Listings":[{"Price":{"Amount":10}}]}}]}}`))
	})

	product, err := client.GetItem(context.Background(), "B0TESTABCD")
	require.NoError(t, err)
	assert.True(t, product.CurrentPrice.Valid)
	assert.False(t, product.ListPrice.Valid)
	assert.Nil(t, product.DiscountPercent)
	assert.Empty(t, product.ImageURL)
}

func TestGetItem_UpstreamError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"Errors":[{"Code":"TooManyRequests"}]}`))
	})

	product, err := client.GetItem(context.Background(), "B0TESTABCD")
	require.Error(t, err)
	assert.Nil(t, product)

	var upstream *UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, http.StatusTooManyRequests, upstream.StatusCode)
	assert.Contains(t, upstream.Body, "TooManyRequests")
	assert.Contains(t, err.Error(), "429")
}

func TestGetItem_NotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"Errors":[{"Code":"ItemNotAccessible"}]}`))
	})

	_, err := client.GetItem(context.Background(), "B0TESTABCD")
	require.Error(t, err)

	var notFound *NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "B0TESTABCD", notFound.ASIN)
	assert.True(t, errors.Is(err, ErrItemNotFound))
}

func TestGetItem_InvalidJSON(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	})

	_, err := client.GetItem(context.Background(), "B0TESTABCD")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to decode")
}

func TestAffiliateURL(t *testing.T) {
	client := NewClient(testCreds, nil, nil)
	assert.Equal(t, "https://www.amazon.it/dp/B0TESTABCD?tag=dealsblog-21", client.AffiliateURL("B0TESTABCD"))
}
