package paapi

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"

	"github.com/jonathan/deal-poster/internal/types"
)

// DefaultTimeout bounds the single GetItems call.
const DefaultTimeout = 30 * time.Second

// Options configures the marketplace a Client talks to.
type Options struct {
	Region      string
	Host        string
	Marketplace string
	// Endpoint overrides https://{Host}; the signature still names Host.
	Endpoint string
	Timeout  time.Duration
}

// DefaultOptions targets the Italian marketplace.
func DefaultOptions() *Options {
	return &Options{
		Region:      "eu-west-1",
		Host:        "webservices.amazon.it",
		Marketplace: "www.amazon.it",
		Timeout:     DefaultTimeout,
	}
}

// Client performs signed GetItems lookups.
type Client struct {
	http  *resty.Client
	creds Credentials
	opts  Options
	now   func() time.Time
}

// NewClient builds a client. now is the clock used for request timestamps.
func NewClient(creds Credentials, opts *Options, now func() time.Time) *Client {
	if opts == nil {
		opts = DefaultOptions()
	}
	if now == nil {
		now = time.Now
	}
	o := *opts
	if o.Timeout == 0 {
		o.Timeout = DefaultTimeout
	}
	if o.Endpoint == "" {
		o.Endpoint = "https://" + o.Host
	}

	client := resty.New()
	client.SetTimeout(o.Timeout)

	return &Client{
		http:  client,
		creds: creds,
		opts:  o,
		now:   now,
	}
}

// AffiliateURL returns the tagged product link for asin on the client's marketplace.
func (c *Client) AffiliateURL(asin string) string {
	return fmt.Sprintf("https://%s/dp/%s?tag=%s", c.opts.Marketplace, asin, c.creds.PartnerTag)
}

// GetItem fetches a single item and maps it to a ProductRecord.
func (c *Client) GetItem(ctx context.Context, asin string) (*types.ProductRecord, error) {
	payload, err := BuildPayload(asin, c.creds.PartnerTag, c.opts.Marketplace)
	if err != nil {
		return nil, err
	}

	sc := NewSigningContext(c.creds, c.opts.Region, c.opts.Host, c.now())
	endpoint := strings.TrimRight(c.opts.Endpoint, "/") + GetItemsPath

	log.Debug().Str("asin", asin).Str("endpoint", endpoint).Str("x-amz-date", sc.Timestamp).Msg("calling GetItems")

	resp, err := c.http.R().
		SetContext(ctx).
		SetHeaders(sc.Headers(payload)).
		SetBody(payload).
		Post(endpoint)
	if err != nil {
		return nil, fmt.Errorf("PA-API request failed: %w", err)
	}

	if !resp.IsSuccess() {
		return nil, &UpstreamError{
			StatusCode: resp.StatusCode(),
			Body:       strings.TrimSpace(resp.String()),
		}
	}

	var parsed getItemsResponse
	if err := json.Unmarshal(resp.Body(), &parsed); err != nil {
		return nil, fmt.Errorf("failed to decode PA-API response: %w", err)
	}
	if parsed.ItemsResult == nil || len(parsed.ItemsResult.Items) == 0 {
		return nil, &NotFoundError{ASIN: asin}
	}

	return parsed.ItemsResult.Items[0].toProduct(asin), nil
}
