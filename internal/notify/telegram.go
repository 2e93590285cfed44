// Package notify announces a new deal on a Telegram channel.
package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"

	"github.com/jonathan/deal-poster/internal/extract"
	"github.com/jonathan/deal-poster/internal/types"
)

const (
	// DefaultAPIBase is the Bot API root.
	DefaultAPIBase = "https://api.telegram.org"
	// DefaultCaptionLimit caps photo captions, in runes.
	DefaultCaptionLimit = 1000
	// DefaultTextLimit caps text messages, in runes.
	DefaultTextLimit = 4096

	defaultTimeout = 15 * time.Second
)

// Error is a failed Bot API call.
type Error struct {
	Method     string
	StatusCode int
	Body       string
	Cause      error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("telegram %s failed: %v", e.Method, e.Cause)
	}
	return fmt.Sprintf("telegram %s failed: HTTP %d: %s", e.Method, e.StatusCode, e.Body)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Options configures the Telegram notifier.
type Options struct {
	Token        string
	ChatID       string
	APIBase      string
	CaptionLimit int
	TextLimit    int
	Timeout      time.Duration
}

// Configured reports whether both token and chat id are set.
func (o Options) Configured() bool {
	return o.Token != "" && o.ChatID != ""
}

// Telegram sends deal messages through the Bot API.
type Telegram struct {
	http *resty.Client
	opts Options
}

// NewTelegram returns a notifier; zero limits and base fall back to defaults.
func NewTelegram(opts Options) *Telegram {
	if opts.APIBase == "" {
		opts.APIBase = DefaultAPIBase
	}
	if opts.CaptionLimit <= 0 {
		opts.CaptionLimit = DefaultCaptionLimit
	}
	if opts.TextLimit <= 0 {
		opts.TextLimit = DefaultTextLimit
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}

	client := resty.New()
	client.SetBaseURL(strings.TrimRight(opts.APIBase, "/"))
	client.SetTimeout(opts.Timeout)
	client.SetHeader("Content-Type", "application/json")

	return &Telegram{http: client, opts: opts}
}

// Message is the deal announcement content.
type Message struct {
	Product *types.ProductRecord
	URL     string
	Note    string
}

// Text formats the announcement body.
func (m Message) Text() string {
	var sb strings.Builder
	title := ""
	var discount *int
	price := ""
	if m.Product != nil {
		title = m.Product.Title
		discount = m.Product.DiscountPercent
		if m.Product.CurrentPrice.Valid {
			price = extract.FormatPrice(m.Product.CurrentPrice.Decimal, false)
		}
	}

	sb.WriteString("🔥 " + title + "\n")
	if price != "" {
		sb.WriteString("💶 " + price + "€")
		if discount != nil {
			sb.WriteString(fmt.Sprintf(" (-%d%%)", *discount))
		}
		sb.WriteString("\n")
	}
	sb.WriteString(m.URL)
	if m.Note != "" {
		sb.WriteString("\n\n📝 " + m.Note)
	}
	return sb.String()
}

// Send posts m as a photo with caption when an image is known, else as text.
func (t *Telegram) Send(ctx context.Context, m Message) error {
	text := m.Text()
	image := ""
	if m.Product != nil {
		image = m.Product.ImageURL
	}

	if image != "" {
		return t.call(ctx, "sendPhoto", map[string]string{
			"chat_id": t.opts.ChatID,
			"photo":   image,
			"caption": truncate(text, t.opts.CaptionLimit),
		})
	}
	return t.call(ctx, "sendMessage", map[string]string{
		"chat_id": t.opts.ChatID,
		"text":    truncate(text, t.opts.TextLimit),
	})
}

func (t *Telegram) call(ctx context.Context, method string, body map[string]string) error {
	resp, err := t.http.R().
		SetContext(ctx).
		SetPathParams(map[string]string{"token": t.opts.Token, "method": method}).
		SetBody(body).
		Post("/bot{token}/{method}")
	if err != nil {
		return &Error{Method: method, Cause: err}
	}
	if !resp.IsSuccess() {
		return &Error{Method: method, StatusCode: resp.StatusCode(), Body: strings.TrimSpace(resp.String())}
	}
	log.Debug().Str("method", method).Msg("telegram message sent")
	return nil
}

func truncate(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit])
}
