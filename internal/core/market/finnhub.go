package market

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/stockhub-kr/stockhub/internal/core"
	"github.com/stockhub-kr/stockhub/internal/core/engine"
	"github.com/stockhub-kr/stockhub/internal/metrics"
	"github.com/stockhub-kr/stockhub/internal/observability"
	"go.uber.org/zap"
)

const finnhubEndpoint = "finnhub.io"

// FinnhubClient fetches equity quotes from the Finnhub quote API.
type FinnhubClient struct {
	BaseURL  string
	APIKey   string
	Client   *http.Client
	Cache    QuoteCache
	CacheTTL time.Duration
	Limiter  *engine.RateLimiter
	Clock    func() time.Time
}

// NewFinnhubClient constructs a client with defaults.
func NewFinnhubClient(apiKey string, cache QuoteCache, limiter *engine.RateLimiter) *FinnhubClient {
	return &FinnhubClient{
		BaseURL:  "https://finnhub.io/api/v1",
		APIKey:   apiKey,
		Client:   &http.Client{Timeout: 10 * time.Second},
		Cache:    cache,
		CacheTTL: DefaultCacheTTL,
		Limiter:  limiter,
	}
}

type finnhubQuoteResponse struct {
	Current       float64 `json:"c"`
	Change        float64 `json:"d"`
	ChangePercent float64 `json:"dp"`
}

// Quote fetches the current quote for a single symbol.
func (c *FinnhubClient) Quote(ctx context.Context, symbol string) (*core.Quote, error) {
	now := c.now()

	if q := cachedFresh(ctx, c.Cache, "finnhub", symbol, c.CacheTTL, now); q != nil {
		return q, nil
	}

	if c.APIKey == "" {
		return nil, fmt.Errorf("finnhub api key not configured")
	}

	if allowed, wait, err := c.Limiter.Allow(ctx, finnhubEndpoint); err == nil && !allowed {
		return nil, fmt.Errorf("finnhub rate limited, retry in %s", wait)
	}

	endpoint := fmt.Sprintf("%s/quote?symbol=%s&token=%s",
		c.BaseURL, url.QueryEscape(symbol), url.QueryEscape(c.APIKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build finnhub request: %w", err)
	}

	client := c.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		metrics.RecordMarketFetch("finnhub", false)
		return nil, fmt.Errorf("fetch finnhub quote: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	_ = c.Limiter.Record(ctx, finnhubEndpoint)

	if resp.StatusCode == http.StatusTooManyRequests {
		retryAfter := parseRetryAfter(resp.Header.Get("Retry-After"))
		_ = c.Limiter.Record429(ctx, finnhubEndpoint, retryAfter)
		metrics.RecordMarketFetch("finnhub", false)
		return nil, fmt.Errorf("finnhub rate limited upstream")
	}
	if resp.StatusCode != http.StatusOK {
		metrics.RecordMarketFetch("finnhub", false)
		return nil, fmt.Errorf("finnhub quote: unexpected status %d", resp.StatusCode)
	}

	var payload finnhubQuoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		metrics.RecordMarketFetch("finnhub", false)
		return nil, fmt.Errorf("decode finnhub quote: %w", err)
	}
	if payload.Current == 0 {
		metrics.RecordMarketFetch("finnhub", false)
		return nil, fmt.Errorf("finnhub quote: no data for %s", symbol)
	}

	quote := &core.Quote{
		Symbol:        symbol,
		Price:         payload.Current,
		Change:        payload.Change,
		ChangePercent: payload.ChangePercent,
		Currency:      CurrencyFor(symbol),
		FetchedAt:     now,
	}

	if c.Cache != nil {
		_ = c.Cache.PutCachedQuote(ctx, "finnhub", symbol, quote)
	}
	metrics.RecordMarketFetch("finnhub", true)
	return quote, nil
}

// DisplayQuote is a render-ready quote row. Failed symbols keep their
// position with placeholder values.
type DisplayQuote struct {
	Symbol        string `json:"symbol"`
	Price         string `json:"price"`
	Change        string `json:"change"`
	ChangePercent string `json:"change_percent"`
	Currency      string `json:"currency,omitempty"`
	OK            bool   `json:"ok"`
}

// Quotes fetches multiple symbols, substituting placeholders for any
// symbol that fails so one bad symbol never empties the response.
func (c *FinnhubClient) Quotes(ctx context.Context, symbols []string) []DisplayQuote {
	out := make([]DisplayQuote, 0, len(symbols))
	for _, symbol := range symbols {
		quote, err := c.Quote(ctx, symbol)
		if err != nil {
			if observability.ServerLogger != nil {
				observability.ServerLogger.Warn("finnhub quote failed",
					zap.String("symbol", symbol),
					zap.Error(err),
				)
			}
			out = append(out, DisplayQuote{
				Symbol:        symbol,
				Price:         Placeholder,
				Change:        Placeholder,
				ChangePercent: Placeholder,
			})
			continue
		}
		out = append(out, DisplayQuote{
			Symbol:        quote.Symbol,
			Price:         FormatPrice(quote.Price),
			Change:        FormatChange(quote.Change),
			ChangePercent: FormatChangePercent(quote.ChangePercent),
			Currency:      quote.Currency,
			OK:            true,
		})
	}
	return out
}

func (c *FinnhubClient) now() time.Time {
	if c.Clock != nil {
		return c.Clock()
	}
	return time.Now().UTC()
}
