// Package fetch retrieves product pages with browser-like headers and a
// small fixed number of attempts. A page that cannot be fetched is reported
// as an unfetched Result rather than an error so callers can still publish.
package fetch

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"
)

// DefaultTimeout is the per-attempt HTTP timeout.
const DefaultTimeout = 30 * time.Second

// DefaultAttempts is how many times a page GET is tried.
const DefaultAttempts = 2

// DefaultUserAgent mimics a desktop Chrome browser.
const DefaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36"

// DefaultAcceptLanguage prefers Italian content.
const DefaultAcceptLanguage = "it-IT,it;q=0.9,en;q=0.8"

const maxRedirects = 10

// Result holds the outcome of a page fetch.
type Result struct {
	URL        string
	HTML       string
	StatusCode int
	Attempts   int
	// Fetched is false when every attempt failed; HTML is then empty.
	Fetched bool
	// ViaBrowser is set when the HTML came from the headless fallback.
	ViaBrowser bool
	// Err is the last failure when Fetched is false.
	Err error
}

// Error represents an error during URL fetching.
type Error struct {
	URL     string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("fetch error for %s: %s: %v", e.URL, e.Message, e.Cause)
	}
	return fmt.Sprintf("fetch error for %s: %s", e.URL, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Options configures the fetch behavior.
type Options struct {
	Timeout        time.Duration
	Attempts       int
	RetryWait      time.Duration
	UserAgent      string
	AcceptLanguage string
	Headers        map[string]string
	// UseBrowser renders the page headlessly after all HTTP attempts fail.
	UseBrowser     bool
	BrowserTimeout time.Duration
}

// DefaultOptions returns sensible defaults for fetching.
func DefaultOptions() *Options {
	return &Options{
		Timeout:        DefaultTimeout,
		Attempts:       DefaultAttempts,
		RetryWait:      500 * time.Millisecond,
		UserAgent:      DefaultUserAgent,
		AcceptLanguage: DefaultAcceptLanguage,
		BrowserTimeout: DefaultBrowserTimeout,
	}
}

// Fetcher performs page GETs.
type Fetcher struct {
	http *resty.Client
	opts Options
	// browser is swapped in tests.
	browser func(ctx context.Context, url string, timeout time.Duration) (string, error)
}

// NewFetcher builds a Fetcher from opts, filling zero values from DefaultOptions.
func NewFetcher(opts *Options) *Fetcher {
	o := *DefaultOptions()
	if opts != nil {
		if opts.Timeout > 0 {
			o.Timeout = opts.Timeout
		}
		if opts.Attempts > 0 {
			o.Attempts = opts.Attempts
		}
		if opts.RetryWait > 0 {
			o.RetryWait = opts.RetryWait
		}
		if opts.UserAgent != "" {
			o.UserAgent = opts.UserAgent
		}
		if opts.AcceptLanguage != "" {
			o.AcceptLanguage = opts.AcceptLanguage
		}
		if opts.BrowserTimeout > 0 {
			o.BrowserTimeout = opts.BrowserTimeout
		}
		o.Headers = opts.Headers
		o.UseBrowser = opts.UseBrowser
	}

	client := resty.New()
	client.SetTimeout(o.Timeout)
	client.SetRedirectPolicy(resty.FlexibleRedirectPolicy(maxRedirects))
	client.SetHeaders(map[string]string{
		"User-Agent":      o.UserAgent,
		"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8",
		"Accept-Language": o.AcceptLanguage,
		"Cache-Control":   "no-cache",
		"Pragma":          "no-cache",
	})
	client.SetHeaders(o.Headers)
	client.SetRetryCount(o.Attempts - 1)
	client.SetRetryWaitTime(o.RetryWait)
	client.SetRetryMaxWaitTime(o.RetryWait)
	client.AddRetryCondition(func(r *resty.Response, err error) bool {
		return err != nil || r == nil || !r.IsSuccess()
	})
	client.AddRetryHook(func(r *resty.Response, err error) {
		ev := log.Warn()
		if err != nil {
			ev = ev.Err(err)
		}
		if r != nil {
			ev = ev.Int("status", r.StatusCode())
		}
		ev.Msg("page fetch attempt failed, retrying")
	})

	return &Fetcher{http: client, opts: o, browser: WithBrowser}
}

// Page fetches rawURL. The returned error is non-nil only for an invalid
// URL; network and status failures yield Result.Fetched == false.
func (f *Fetcher) Page(ctx context.Context, rawURL string) (*Result, error) {
	if err := ValidateURL(rawURL); err != nil {
		return nil, err
	}

	result := &Result{URL: rawURL}

	resp, err := f.http.R().SetContext(ctx).Get(rawURL)
	if resp != nil && resp.Request != nil {
		result.Attempts = resp.Request.Attempt
	}
	switch {
	case err != nil:
		result.Err = &Error{URL: rawURL, Message: "HTTP request failed", Cause: err}
	case !resp.IsSuccess():
		result.StatusCode = resp.StatusCode()
		result.Err = &Error{URL: rawURL, Message: fmt.Sprintf("HTTP status %d", resp.StatusCode())}
	default:
		result.StatusCode = resp.StatusCode()
		result.HTML = resp.String()
		result.Fetched = true
		log.Debug().Str("url", rawURL).Int("bytes", len(result.HTML)).Int("attempts", result.Attempts).Msg("page fetched")
		return result, nil
	}

	log.Warn().Err(result.Err).Int("attempts", result.Attempts).Msg("page fetch failed, continuing with empty document")

	if f.opts.UseBrowser && f.browser != nil {
		html, berr := f.browser(ctx, rawURL, f.opts.BrowserTimeout)
		if berr != nil {
			log.Warn().Err(berr).Msg("browser fallback failed")
			return result, nil
		}
		result.HTML = html
		result.Fetched = true
		result.ViaBrowser = true
		result.Err = nil
	}

	return result, nil
}

// ValidateURL accepts only absolute http(s) URLs.
func ValidateURL(rawURL string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return &Error{
			URL:     rawURL,
			Message: "invalid URL",
			Cause:   err,
		}
	}
	return nil
}
