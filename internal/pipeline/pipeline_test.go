package pipeline

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/deal-poster/internal/fetch"
	"github.com/jonathan/deal-poster/internal/notify"
	"github.com/jonathan/deal-poster/internal/paapi"
	"github.com/jonathan/deal-poster/internal/pipeline/steps"
	"github.com/jonathan/deal-poster/internal/post"
)

const itemResponse = `{
	"ItemsResult": {
		"Items": [{
			"ASIN": "B0TESTABCD",
			"ItemInfo": {"Title": {"DisplayValue": "Test Product"}},
			"Images": {"Primary": {"Large": {"URL": "https://m.media-amazon.com/images/I/test.jpg"}}},
			"Offers": {"Listings": [{
				"Price": {"Amount": 49.99, "Currency": "EUR"},
				"SavingBasis": {"Amount": 59.99, "Currency": "EUR"}
			}]}
		}]
	}
}`

var (
	rome    = time.FixedZone("CET", 3600)
	fixedAt = time.Date(2024, time.May, 17, 16, 36, 0, 0, rome)
	creds   = paapi.Credentials{AccessKey: "AKIDEXAMPLE", SecretKey: "secret", PartnerTag: "dealsblog-21"}
)

type fakeNotifier struct {
	err  error
	sent []notify.Message
}

func (f *fakeNotifier) Send(_ context.Context, m notify.Message) error {
	f.sent = append(f.sent, m)
	return f.err
}

type fakeSecrets struct {
	secret map[string]string
	calls  int
}

func (f *fakeSecrets) GetSecret(_ context.Context, _ string) (map[string]string, error) {
	f.calls++
	return f.secret, nil
}

func testOptions(t *testing.T) (RunOptions, string) {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "_posts")
	return RunOptions{
		Writer: post.NewWriter(dir, post.DefaultSchema(), rome),
		Now:    func() time.Time { return fixedAt },
	}, dir
}

func vendorServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func signedInput(endpoint string) SignedInput {
	return SignedInput{
		ASIN:        "B0TESTABCD",
		Credentials: creds,
		NewClient: func(c paapi.Credentials) ItemGetter {
			opts := paapi.DefaultOptions()
			opts.Endpoint = endpoint
			return paapi.NewClient(c, opts, func() time.Time { return fixedAt })
		},
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestRunSigned_EndToEnd(t *testing.T) {
	server := vendorServer(t, http.StatusOK, itemResponse)
	opts, dir := testOptions(t)
	notifier := &fakeNotifier{}
	opts.Notifier = notifier

	var events []ProgressEvent
	opts.OnProgress = func(e ProgressEvent) { events = append(events, e) }

	in := signedInput(server.URL)
	in.Note = "Minimo storico"
	res, err := RunSigned(context.Background(), in, opts)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "2024-05-17-1636-test-product-b0testabcd.md"), res.Path)
	assert.Equal(t, "https://www.amazon.it/dp/B0TESTABCD?tag=dealsblog-21", res.URL)
	assert.True(t, res.Notified)

	content := readFile(t, res.Path)
	assert.Contains(t, content, `asin: "B0TESTABCD"`)
	assert.Contains(t, content, "discount_pct: 17\n")
	assert.Contains(t, content, `price_current: "49.99"`)
	assert.Contains(t, content, `price_list: "59.99"`)
	assert.Contains(t, content, `amazon_url: "https://www.amazon.it/dp/B0TESTABCD?tag=dealsblog-21"`)
	assert.Contains(t, content, "date: 2024-05-17 16:36:00 +0100\n")
	assert.Contains(t, content, "---\nMinimo storico\n")

	require.Len(t, notifier.sent, 1)
	assert.Equal(t, "Minimo storico", notifier.sent[0].Note)

	names := make([]string, 0, len(events))
	for _, e := range events {
		names = append(names, e.Step)
		assert.Equal(t, 4, e.Total)
	}
	assert.Equal(t, []string{"resolve_credentials", "get_item", "write_post", "notify"}, names)
}

func TestRunSigned_UpstreamErrorWritesNothing(t *testing.T) {
	server := vendorServer(t, http.StatusTooManyRequests, `{"Errors":[{"Code":"TooManyRequests"}]}`)
	opts, dir := testOptions(t)

	_, err := RunSigned(context.Background(), signedInput(server.URL), opts)
	require.Error(t, err)

	var upstream *paapi.UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, http.StatusTooManyRequests, upstream.StatusCode)
	assert.NoDirExists(t, dir)
}

func TestRunSigned_NotFound(t *testing.T) {
	server := vendorServer(t, http.StatusOK, `{"ItemsResult":{"Items":[]}}`)
	opts, dir := testOptions(t)

	_, err := RunSigned(context.Background(), signedInput(server.URL), opts)
	require.Error(t, err)
	assert.ErrorIs(t, err, paapi.ErrItemNotFound)
	assert.NoDirExists(t, dir)
}

func TestRunSigned_FallbackTitle(t *testing.T) {
	server := vendorServer(t, http.StatusOK, `{"ItemsResult":{"Items":[{"ASIN":"B0TESTABCD"}]}}`)
	opts, _ := testOptions(t)

	res, err := RunSigned(context.Background(), signedInput(server.URL), opts)
	require.NoError(t, err)
	assert.Equal(t, "Offerta (B0TESTABCD)", res.Product.Title)
	assert.Contains(t, readFile(t, res.Path), `discount_pct: ""`)
}

func TestRunSigned_CredentialsFromSecrets(t *testing.T) {
	server := vendorServer(t, http.StatusOK, itemResponse)
	opts, _ := testOptions(t)

	provider := &fakeSecrets{secret: map[string]string{"access_key": "AKID-SM", "secret_key": "sm"}}
	var used paapi.Credentials

	in := signedInput(server.URL)
	in.Credentials = paapi.Credentials{PartnerTag: "dealsblog-21"}
	in.SecretID = "prod/paapi"
	in.Secrets = provider
	build := in.NewClient
	in.NewClient = func(c paapi.Credentials) ItemGetter {
		used = c
		return build(c)
	}

	_, err := RunSigned(context.Background(), in, opts)
	require.NoError(t, err)
	assert.Equal(t, 1, provider.calls)
	assert.Equal(t, paapi.Credentials{AccessKey: "AKID-SM", SecretKey: "sm", PartnerTag: "dealsblog-21"}, used)
}

func TestRunSigned_ValidationStopsRun(t *testing.T) {
	opts, dir := testOptions(t)
	in := signedInput("http://127.0.0.1:1")
	in.Credentials = paapi.Credentials{}
	in.Validate = func(paapi.Credentials) error { return errors.New("missing AMAZON_ACCESS_KEY") }
	in.NewClient = func(paapi.Credentials) ItemGetter {
		t.Fatal("client must not be built")
		return nil
	}

	_, err := RunSigned(context.Background(), in, opts)
	require.Error(t, err)
	assert.NoDirExists(t, dir)
}

func TestRunSigned_NotificationFailureIsNotFatal(t *testing.T) {
	server := vendorServer(t, http.StatusOK, itemResponse)
	opts, _ := testOptions(t)
	opts.Notifier = &fakeNotifier{err: errors.New("telegram sendPhoto failed: HTTP 400")}

	res, err := RunSigned(context.Background(), signedInput(server.URL), opts)
	require.NoError(t, err)
	assert.False(t, res.Notified)
	assert.FileExists(t, res.Path)
}

func TestRunStep_OptionalFailureIsLogged(t *testing.T) {
	r := newRun(steps.CategoryManual, &RunOptions{})
	require.NoError(t, r.step("build_product", "", func() error { return nil }))
	require.NoError(t, r.step("write_post", "", func() error { return nil }))

	err := r.step("notify", "", func() error { return errors.New("bot blocked") })
	require.NoError(t, err)
	assert.False(t, r.completed["notify"])
}

func TestRunStep_RequiredFailureIsReturned(t *testing.T) {
	r := newRun(steps.CategoryManual, &RunOptions{})
	require.NoError(t, r.step("build_product", "", func() error { return nil }))

	err := r.step("write_post", "", func() error { return post.ErrExists })
	assert.ErrorIs(t, err, post.ErrExists)
	assert.False(t, r.completed["write_post"])
}

func TestLookup(t *testing.T) {
	server := vendorServer(t, http.StatusOK, itemResponse)
	opts, dir := testOptions(t)

	prod, err := Lookup(context.Background(), signedInput(server.URL), opts)
	require.NoError(t, err)
	assert.Equal(t, "Test Product", prod.Title)
	assert.NoDirExists(t, dir)
}

func quickFetcher() *fetch.Fetcher {
	return fetch.NewFetcher(&fetch.Options{Attempts: 2, RetryWait: time.Millisecond})
}

func TestRunScrape_Extracts(t *testing.T) {
	html := `<html><head>
		<meta property="og:title" content="Cuffie Bluetooth &amp; Microfono">
		<meta property="og:image" content="https://shop.example.com/cuffie.jpg">
		<script type="application/ld+json">{ not json</script>
		<script type="application/ld+json">{"@type":"Offer","price":"1.234,56"}</script>
	</head></html>`
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(html))
	}))
	t.Cleanup(server.Close)

	opts, _ := testOptions(t)
	opts.Writer = post.NewWriter(t.TempDir(), post.Schema{DecimalComma: true}, rome)
	res, err := RunScrape(context.Background(), quickFetcher(), ScrapeInput{URL: server.URL + "/dp/B0ABCDEFGH"}, opts)
	require.NoError(t, err)

	assert.True(t, res.Fetch.Fetched)
	assert.Equal(t, "B0ABCDEFGH", res.Product.ASIN)
	assert.Equal(t, "Cuffie Bluetooth & Microfono", res.Product.Title)
	assert.Equal(t, "2024-05-17-1636-cuffie-bluetooth-and-microfono-b0abcdefgh.md", filepath.Base(res.Path))

	content := readFile(t, res.Path)
	assert.Contains(t, content, `price_current: "1234,56"`)
	assert.Contains(t, content, `image: "https://shop.example.com/cuffie.jpg"`)
	assert.Contains(t, content, `discount_pct: ""`)
}

func TestRunScrape_FetchDegraded(t *testing.T) {
	var hits int32
	opts, _ := testOptions(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(server.Close)

	res, err := RunScrape(context.Background(), quickFetcher(), ScrapeInput{URL: server.URL + "/item/42"}, opts)
	require.NoError(t, err)

	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
	assert.False(t, res.Fetch.Fetched)
	assert.Equal(t, "Offerta", res.Product.Title)

	content := readFile(t, res.Path)
	assert.Contains(t, content, `title: "Offerta"`)
	assert.Contains(t, content, `price_current: ""`)
	assert.Contains(t, content, `image: ""`)
	assert.Contains(t, content, `asin: ""`)
}

func TestRunScrape_StrictFailsWithoutWriting(t *testing.T) {
	opts, dir := testOptions(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	t.Cleanup(server.Close)

	_, err := RunScrape(context.Background(), quickFetcher(), ScrapeInput{URL: server.URL, Strict: true}, opts)
	require.Error(t, err)

	var ferr *fetch.Error
	assert.ErrorAs(t, err, &ferr)
	assert.NoDirExists(t, dir)
}

func TestRunScrape_InvalidURL(t *testing.T) {
	opts, _ := testOptions(t)
	fetcher := fetch.NewFetcher(nil)

	_, err := RunScrape(context.Background(), fetcher, ScrapeInput{URL: "ftp://example.com/file"}, opts)
	require.Error(t, err)
}

func TestRunManual(t *testing.T) {
	opts, _ := testOptions(t)
	notifier := &fakeNotifier{}
	opts.Notifier = notifier

	discount := 25
	res, err := RunManual(context.Background(), ManualInput{
		Title:      "Cuffie Bluetooth",
		URL:        "https://www.amazon.it/dp/B0ABCDEFGH?th=1",
		Price:      "29,90",
		Discount:   &discount,
		PartnerTag: "dealsblog-21",
	}, opts)
	require.NoError(t, err)

	assert.Equal(t, "https://www.amazon.it/dp/B0ABCDEFGH?th=1&tag=dealsblog-21", res.URL)
	content := readFile(t, res.Path)
	assert.Contains(t, content, `asin: "B0ABCDEFGH"`)
	assert.Contains(t, content, `price_current: "29.90"`)
	assert.Contains(t, content, "discount_pct: 25\n")
	assert.Contains(t, content, `amazon_url: "https://www.amazon.it/dp/B0ABCDEFGH?th=1&tag=dealsblog-21"`)
	require.Len(t, notifier.sent, 1)
}

func TestRunManual_UnparseablePriceLeftEmpty(t *testing.T) {
	opts, _ := testOptions(t)

	res, err := RunManual(context.Background(), ManualInput{Title: "Offerta", URL: "https://shop.example.com/p", Price: "gratis"}, opts)
	require.NoError(t, err)
	assert.False(t, res.Product.CurrentPrice.Valid)
	assert.Contains(t, readFile(t, res.Path), `price_current: ""`)
}

func TestAddAffiliateTag(t *testing.T) {
	tests := []struct {
		url, tag, want string
	}{
		{"https://www.amazon.it/dp/B0ABCDEFGH", "x-21", "https://www.amazon.it/dp/B0ABCDEFGH?tag=x-21"},
		{"https://www.amazon.it/dp/B0ABCDEFGH?th=1", "x-21", "https://www.amazon.it/dp/B0ABCDEFGH?th=1&tag=x-21"},
		{"https://www.amazon.it/dp/B0ABCDEFGH?tag=other-21", "x-21", "https://www.amazon.it/dp/B0ABCDEFGH?tag=other-21"},
		{"https://www.amazon.it/dp/B0ABCDEFGH", "", "https://www.amazon.it/dp/B0ABCDEFGH"},
		{"", "x-21", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, AddAffiliateTag(tt.url, tt.tag), tt.url)
	}
}
