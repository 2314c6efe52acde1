package market

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/stockhub-kr/stockhub/internal/core"
	"github.com/stockhub-kr/stockhub/internal/core/engine"
	"github.com/stockhub-kr/stockhub/internal/metrics"
)

const yahooEndpoint = "query1.finance.yahoo.com"

// YahooClient fetches index and equity quotes from the Yahoo Finance
// chart API. Yahoo rejects default Go user agents, so requests carry a
// browser one.
type YahooClient struct {
	BaseURL  string
	Client   *http.Client
	Cache    QuoteCache
	CacheTTL time.Duration
	Limiter  *engine.RateLimiter
	Clock    func() time.Time
}

// NewYahooClient constructs a client with defaults.
func NewYahooClient(cache QuoteCache, limiter *engine.RateLimiter) *YahooClient {
	return &YahooClient{
		BaseURL:  "https://query1.finance.yahoo.com",
		Client:   &http.Client{Timeout: 10 * time.Second},
		Cache:    cache,
		CacheTTL: DefaultCacheTTL,
		Limiter:  limiter,
	}
}

type yahooChartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				RegularMarketPrice float64 `json:"regularMarketPrice"`
				ChartPreviousClose float64 `json:"chartPreviousClose"`
				Currency           string  `json:"currency"`
			} `json:"meta"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// Quote fetches the current quote for a symbol, serving from cache
// while fresh.
func (c *YahooClient) Quote(ctx context.Context, symbol string) (*core.Quote, error) {
	now := c.now()

	if q := cachedFresh(ctx, c.Cache, "yahoo", symbol, c.CacheTTL, now); q != nil {
		return q, nil
	}

	if allowed, wait, err := c.Limiter.Allow(ctx, yahooEndpoint); err == nil && !allowed {
		return nil, fmt.Errorf("yahoo rate limited, retry in %s", wait)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/v8/finance/chart/%s", c.BaseURL, url.PathEscape(symbol)), nil)
	if err != nil {
		return nil, fmt.Errorf("build yahoo request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	client := c.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		metrics.RecordMarketFetch("yahoo", false)
		return nil, fmt.Errorf("fetch yahoo quote: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	_ = c.Limiter.Record(ctx, yahooEndpoint)

	if resp.StatusCode == http.StatusTooManyRequests {
		retryAfter := parseRetryAfter(resp.Header.Get("Retry-After"))
		_ = c.Limiter.Record429(ctx, yahooEndpoint, retryAfter)
		metrics.RecordMarketFetch("yahoo", false)
		return nil, fmt.Errorf("yahoo rate limited upstream")
	}
	if resp.StatusCode != http.StatusOK {
		metrics.RecordMarketFetch("yahoo", false)
		return nil, fmt.Errorf("yahoo quote: unexpected status %d", resp.StatusCode)
	}

	var payload yahooChartResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		metrics.RecordMarketFetch("yahoo", false)
		return nil, fmt.Errorf("decode yahoo quote: %w", err)
	}
	if payload.Chart.Error != nil {
		metrics.RecordMarketFetch("yahoo", false)
		return nil, fmt.Errorf("yahoo quote: %s", payload.Chart.Error.Description)
	}
	if len(payload.Chart.Result) == 0 {
		metrics.RecordMarketFetch("yahoo", false)
		return nil, fmt.Errorf("yahoo quote: no result for %s", symbol)
	}

	meta := payload.Chart.Result[0].Meta
	change := meta.RegularMarketPrice - meta.ChartPreviousClose
	pct := 0.0
	if meta.ChartPreviousClose != 0 {
		pct = change / meta.ChartPreviousClose * 100
	}

	currency := meta.Currency
	if currency == "" {
		currency = CurrencyFor(symbol)
	}

	quote := &core.Quote{
		Symbol:        symbol,
		Price:         meta.RegularMarketPrice,
		Change:        change,
		ChangePercent: pct,
		Currency:      currency,
		FetchedAt:     now,
	}

	if c.Cache != nil {
		_ = c.Cache.PutCachedQuote(ctx, "yahoo", symbol, quote)
	}
	metrics.RecordMarketFetch("yahoo", true)
	return quote, nil
}

func (c *YahooClient) now() time.Time {
	if c.Clock != nil {
		return c.Clock()
	}
	return time.Now().UTC()
}

func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(header); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	return 0
}
