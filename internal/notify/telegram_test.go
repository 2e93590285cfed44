package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/deal-poster/internal/types"
)

type captured struct {
	path string
	body map[string]string
}

func botServer(t *testing.T, status int, got *captured) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got.path = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got.body))
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	t.Cleanup(server.Close)
	return server
}

func dealProduct() *types.ProductRecord {
	p := &types.ProductRecord{
		ASIN:         "B0TESTABCD",
		Title:        "Test Product",
		ImageURL:     "https://m.media-amazon.com/images/I/test.jpg",
		CurrentPrice: types.Price(decimal.RequireFromString("49.99")),
		ListPrice:    types.Price(decimal.RequireFromString("59.99")),
	}
	p.FillDiscount()
	return p
}

func TestMessageText(t *testing.T) {
	m := Message{Product: dealProduct(), URL: "https://www.amazon.it/dp/B0TESTABCD?tag=x-21", Note: "Minimo storico"}
	assert.Equal(t, "🔥 Test Product\n💶 49.99€ (-17%)\nhttps://www.amazon.it/dp/B0TESTABCD?tag=x-21\n\n📝 Minimo storico", m.Text())
}

func TestMessageText_NoPrice(t *testing.T) {
	m := Message{Product: &types.ProductRecord{Title: "Offerta"}, URL: "https://shop.example.com/item/42"}
	assert.Equal(t, "🔥 Offerta\nhttps://shop.example.com/item/42", m.Text())
}

func TestSend_PhotoWhenImageKnown(t *testing.T) {
	var got captured
	server := botServer(t, http.StatusOK, &got)

	tg := NewTelegram(Options{Token: "123:abc", ChatID: "@deals", APIBase: server.URL})
	err := tg.Send(context.Background(), Message{Product: dealProduct(), URL: "https://www.amazon.it/dp/B0TESTABCD"})
	require.NoError(t, err)

	assert.Equal(t, "/bot123:abc/sendPhoto", got.path)
	assert.Equal(t, "@deals", got.body["chat_id"])
	assert.Equal(t, "https://m.media-amazon.com/images/I/test.jpg", got.body["photo"])
	assert.Contains(t, got.body["caption"], "Test Product")
}

func TestSend_TextWithoutImage(t *testing.T) {
	var got captured
	server := botServer(t, http.StatusOK, &got)

	tg := NewTelegram(Options{Token: "123:abc", ChatID: "-100200", APIBase: server.URL})
	err := tg.Send(context.Background(), Message{Product: &types.ProductRecord{Title: "Offerta"}, URL: "https://shop.example.com/item/42"})
	require.NoError(t, err)

	assert.Equal(t, "/bot123:abc/sendMessage", got.path)
	assert.Equal(t, "🔥 Offerta\nhttps://shop.example.com/item/42", got.body["text"])
}

func TestSend_TruncatesCaption(t *testing.T) {
	var got captured
	server := botServer(t, http.StatusOK, &got)

	tg := NewTelegram(Options{Token: "t", ChatID: "c", APIBase: server.URL, CaptionLimit: 20})
	p := dealProduct()
	p.Title = strings.Repeat("è", 50)
	require.NoError(t, tg.Send(context.Background(), Message{Product: p, URL: "https://x"}))

	assert.Len(t, []rune(got.body["caption"]), 20)
}

func TestSend_HTTPErrorIsTyped(t *testing.T) {
	var got captured
	server := botServer(t, http.StatusBadRequest, &got)

	tg := NewTelegram(Options{Token: "t", ChatID: "c", APIBase: server.URL})
	err := tg.Send(context.Background(), Message{Product: &types.ProductRecord{Title: "x"}, URL: "https://x"})
	require.Error(t, err)

	var nerr *Error
	require.True(t, errors.As(err, &nerr))
	assert.Equal(t, "sendMessage", nerr.Method)
	assert.Equal(t, http.StatusBadRequest, nerr.StatusCode)
}

func TestOptionsConfigured(t *testing.T) {
	assert.False(t, Options{}.Configured())
	assert.False(t, Options{Token: "t"}.Configured())
	assert.True(t, Options{Token: "t", ChatID: "c"}.Configured())
}
