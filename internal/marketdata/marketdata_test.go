package marketdata

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"lv-tradesense/internal/model"
	"lv-tradesense/internal/types"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingFetcher struct {
	calls int
	price decimal.Decimal
	err   error
}

func (f *countingFetcher) Name() string { return "counting" }

func (f *countingFetcher) Fetch(_ context.Context, symbol string) (model.Quote, error) {
	f.calls++
	if f.err != nil {
		return model.Quote{}, f.err
	}
	return model.Quote{Symbol: symbol, Price: f.price, AsOf: time.Now()}, nil
}

func TestNormalizeSymbol(t *testing.T) {
	tests := map[string]string{
		"btc":     "BTC-USD",
		" eth ":   "ETH-USD",
		"SOL-USD": "SOL-USD",
		"aapl":    "AAPL",
		"":        "",
	}
	for in, want := range tests {
		assert.Equal(t, want, NormalizeSymbol(in), in)
	}
}

func TestQuoteCacheFreshness(t *testing.T) {
	c := NewQuoteCache(30 * time.Second)
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	c.Set(model.Quote{Symbol: "AAPL", Price: decimal.NewFromInt(190), AsOf: now.Add(-10 * time.Second)})
	_, ok := c.Fresh("AAPL")
	assert.True(t, ok)

	now = now.Add(time.Minute)
	_, ok = c.Fresh("AAPL")
	assert.False(t, ok, "quote older than max age must not be served")

	c.Set(model.Quote{Symbol: "AAPL", Price: decimal.Zero, AsOf: now})
	q, _ := c.Fresh("AAPL")
	assert.True(t, q.Price.Equal(decimal.NewFromInt(190)), "non-positive prices are ignored")
}

func TestCachedProviderUsesCacheThenFetches(t *testing.T) {
	f := &countingFetcher{price: decimal.NewFromInt(64000)}
	bus := NewBus()
	sub := bus.Subscribe()
	defer bus.Unsubscribe(sub)
	p := NewCachedProvider(NewQuoteCache(time.Minute), f, bus)

	q, err := p.GetPrice(context.Background(), "btc")
	require.NoError(t, err)
	assert.Equal(t, "BTC-USD", q.Symbol)
	_, err = p.GetPrice(context.Background(), "BTC-USD")
	require.NoError(t, err)
	assert.Equal(t, 1, f.calls)

	evt := <-sub
	assert.Equal(t, types.EventTypeQuote, evt.Type)
}

func TestCachedProviderUnavailable(t *testing.T) {
	f := &countingFetcher{err: errors.New("upstream down")}
	p := NewCachedProvider(NewQuoteCache(time.Minute), f, nil)
	_, err := p.GetPrice(context.Background(), "TSLA")
	assert.ErrorIs(t, err, ErrUnavailable)

	p = NewCachedProvider(NewQuoteCache(time.Minute), nil, nil)
	_, err = p.GetPrice(context.Background(), "TSLA")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestYahooFetcher(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/AAPL"))
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte(`{"chart":{"result":[{"meta":{"symbol":"AAPL","regularMarketPrice":189.25}}],"error":null}}`))
	}))
	defer srv.Close()

	f := NewYahooFetcher()
	f.BaseURL = srv.URL + "/chart/%s"
	q, err := f.Fetch(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, "189.25", q.Price.String())
	assert.WithinDuration(t, time.Now(), q.AsOf, 5*time.Second)
}

func TestYahooFetcherErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"http error", http.StatusTooManyRequests, `{}`},
		{"api error", http.StatusOK, `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found"}}}`},
		{"empty result", http.StatusOK, `{"chart":{"result":[]}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()
			f := NewYahooFetcher()
			f.BaseURL = srv.URL + "/%s"
			_, err := f.Fetch(context.Background(), "XYZ")
			assert.Error(t, err)
		})
	}
}

func TestHandlerQuoteAndSetPrice(t *testing.T) {
	static := NewStaticFetcher(map[string]decimal.Decimal{"AAPL": decimal.NewFromInt(100)})
	provider := NewCachedProvider(NewQuoteCache(time.Minute), static, nil)
	h := NewHandler(provider, static)
	r := chi.NewRouter()
	r.Get("/quotes/{symbol}", h.Quote)
	r.Post("/quotes", h.SetPrice)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/quotes/aapl", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"price":"100"`)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/quotes", strings.NewReader(`{"symbol":"AAPL","price":"120.5"}`)))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/quotes/AAPL", nil))
	assert.Contains(t, rec.Body.String(), `"price":"120.5"`)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/quotes/MSFT", nil))
	assert.Equal(t, http.StatusFailedDependency, rec.Code)
}
