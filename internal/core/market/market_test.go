package market

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/stockhub-kr/stockhub/internal/core"
)

func TestFormatPrice(t *testing.T) {
	require.Equal(t, "69,420.00", FormatPrice(69420))
	require.Equal(t, "1,234.57", FormatPrice(1234.567))
	require.Equal(t, "123.46", FormatPrice(123.456))
	require.Equal(t, "1.235", FormatPrice(1.2345))
	require.Equal(t, "0.1235", FormatPrice(0.12345))
}

func TestFormatChange(t *testing.T) {
	require.Equal(t, "+1.500", FormatChange(1.5))
	require.Equal(t, "-1.500", FormatChange(-1.5))
	require.Equal(t, "+0.0000", FormatChange(0))
}

func TestFormatChangePercent(t *testing.T) {
	require.Equal(t, "+1.25%", FormatChangePercent(1.25))
	require.Equal(t, "-0.80%", FormatChangePercent(-0.8))
}

func TestCurrencyFor(t *testing.T) {
	require.Equal(t, "KRW", CurrencyFor("005930.KS"))
	require.Equal(t, "KRW", CurrencyFor("035720.kq"))
	require.Equal(t, "USD", CurrencyFor("AAPL"))
	require.Equal(t, "USD", CurrencyFor("^GSPC"))
}

func TestYahooQuote(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		require.Equal(t, "Mozilla/5.0", r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"chart":{"result":[{"meta":{
			"regularMarketPrice":110.0,
			"chartPreviousClose":100.0,
			"currency":"USD"
		}}],"error":null}}`))
	}))
	defer srv.Close()

	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	client := NewYahooClient(NewMemoryCache(), nil)
	client.BaseURL = srv.URL
	client.Clock = func() time.Time { return now }

	quote, err := client.Quote(context.Background(), "^GSPC")
	require.NoError(t, err)
	require.Equal(t, 110.0, quote.Price)
	require.Equal(t, 10.0, quote.Change)
	require.InDelta(t, 10.0, quote.ChangePercent, 0.0001)
	require.Equal(t, "USD", quote.Currency)

	// A second request inside the TTL is served from cache.
	_, err = client.Quote(context.Background(), "^GSPC")
	require.NoError(t, err)
	require.Equal(t, 1, calls)

	// Past the TTL the provider is hit again.
	now = now.Add(31 * time.Second)
	_, err = client.Quote(context.Background(), "^GSPC")
	require.NoError(t, err)
	require.Equal(t, 2, calls)
}

func TestYahooQuoteUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found"}}}`))
	}))
	defer srv.Close()

	client := NewYahooClient(nil, nil)
	client.BaseURL = srv.URL

	_, err := client.Quote(context.Background(), "NOPE")
	require.Error(t, err)
	require.Contains(t, err.Error(), "No data found")
}

func TestFinnhubQuote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "AAPL", r.URL.Query().Get("symbol"))
		require.Equal(t, "test-key", r.URL.Query().Get("token"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"c":150.25,"d":2.5,"dp":1.69}`))
	}))
	defer srv.Close()

	client := NewFinnhubClient("test-key", nil, nil)
	client.BaseURL = srv.URL

	quote, err := client.Quote(context.Background(), "AAPL")
	require.NoError(t, err)
	require.Equal(t, 150.25, quote.Price)
	require.Equal(t, 2.5, quote.Change)
	require.Equal(t, "USD", quote.Currency)
}

func TestFinnhubQuoteRequiresAPIKey(t *testing.T) {
	client := NewFinnhubClient("", nil, nil)
	_, err := client.Quote(context.Background(), "AAPL")
	require.Error(t, err)
}

func TestFinnhubQuotesPlaceholdersOnFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("symbol") == "BAD" {
			_, _ = w.Write([]byte(`{"c":0,"d":0,"dp":0}`))
			return
		}
		_, _ = w.Write([]byte(`{"c":99.5,"d":-0.5,"dp":-0.5}`))
	}))
	defer srv.Close()

	client := NewFinnhubClient("test-key", nil, nil)
	client.BaseURL = srv.URL

	quotes := client.Quotes(context.Background(), []string{"GOOD", "BAD"})
	require.Len(t, quotes, 2)

	require.True(t, quotes[0].OK)
	require.Equal(t, "99.500", quotes[0].Price)
	require.Equal(t, "-0.5000", quotes[0].Change)

	require.False(t, quotes[1].OK)
	require.Equal(t, Placeholder, quotes[1].Price)
	require.Equal(t, Placeholder, quotes[1].Change)
	require.Equal(t, "BAD", quotes[1].Symbol)
}

func TestMemoryCacheRoundTrip(t *testing.T) {
	cache := NewMemoryCache()
	ctx := context.Background()

	got, err := cache.GetCachedQuote(ctx, "yahoo", "AAPL")
	require.NoError(t, err)
	require.Nil(t, got)

	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	quote := quoteFixture("AAPL", now)
	require.NoError(t, cache.PutCachedQuote(ctx, "yahoo", "AAPL", quote))

	got, err = cache.GetCachedQuote(ctx, "yahoo", "AAPL")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, quote.Price, got.Price)

	// Providers do not share entries.
	got, err = cache.GetCachedQuote(ctx, "finnhub", "AAPL")
	require.NoError(t, err)
	require.Nil(t, got)
}

func quoteFixture(symbol string, fetchedAt time.Time) *core.Quote {
	return &core.Quote{
		Symbol:        symbol,
		Price:         123.45,
		Change:        1.5,
		ChangePercent: 1.23,
		Currency:      "USD",
		FetchedAt:     fetchedAt,
	}
}
