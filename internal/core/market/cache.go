package market

import (
	"context"
	"sync"
	"time"

	"github.com/stockhub-kr/stockhub/internal/core"
)

// DefaultCacheTTL bounds how stale a served quote may be.
const DefaultCacheTTL = 30 * time.Second

// QuoteCache stores recently fetched quotes keyed by provider and symbol.
type QuoteCache interface {
	GetCachedQuote(ctx context.Context, provider, symbol string) (*core.Quote, error)
	PutCachedQuote(ctx context.Context, provider, symbol string, quote *core.Quote) error
}

// MemoryCache is an in-process QuoteCache.
type MemoryCache struct {
	mu     sync.RWMutex
	quotes map[string]core.Quote
}

// NewMemoryCache constructs an empty MemoryCache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{quotes: make(map[string]core.Quote)}
}

func (m *MemoryCache) GetCachedQuote(ctx context.Context, provider, symbol string) (*core.Quote, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	q, ok := m.quotes[provider+"|"+symbol]
	if !ok {
		return nil, nil
	}
	return &q, nil
}

func (m *MemoryCache) PutCachedQuote(ctx context.Context, provider, symbol string, quote *core.Quote) error {
	if quote == nil {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.quotes == nil {
		m.quotes = make(map[string]core.Quote)
	}
	m.quotes[provider+"|"+symbol] = *quote
	return nil
}

// cachedFresh returns the cached quote when it is younger than ttl.
func cachedFresh(ctx context.Context, cache QuoteCache, provider, symbol string, ttl time.Duration, now time.Time) *core.Quote {
	if cache == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}

	q, err := cache.GetCachedQuote(ctx, provider, symbol)
	if err != nil || q == nil {
		return nil
	}
	if now.Sub(q.FetchedAt) >= ttl {
		return nil
	}
	return q
}
