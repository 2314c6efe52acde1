package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/stockhub-kr/stockhub/internal/core"
)

// GetCachedQuote returns the stored quote for a provider and symbol, or
// nil when absent. Staleness is the caller's concern.
func (s *Store) GetCachedQuote(ctx context.Context, provider, symbol string) (*core.Quote, error) {
	if s == nil || s.DB == nil {
		return nil, errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	provider = strings.TrimSpace(provider)
	symbol = strings.TrimSpace(symbol)
	if provider == "" || symbol == "" {
		return nil, errors.New("provider and symbol are required")
	}

	var (
		quote     core.Quote
		currency  sql.NullString
		fetchedAt int64
	)

	row := s.DB.QueryRowContext(ctx, `
		SELECT symbol, price, change, change_percent, currency, fetched_at
		FROM quote_cache
		WHERE provider = ? AND symbol = ?
	`, provider, symbol)

	if err := row.Scan(&quote.Symbol, &quote.Price, &quote.Change,
		&quote.ChangePercent, &currency, &fetchedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetch cached quote: %w", err)
	}

	quote.Currency = currency.String
	quote.FetchedAt = time.Unix(fetchedAt, 0).UTC()
	return &quote, nil
}

// PutCachedQuote upserts a quote for a provider and symbol.
func (s *Store) PutCachedQuote(ctx context.Context, provider, symbol string, quote *core.Quote) error {
	if s == nil || s.DB == nil {
		return errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	provider = strings.TrimSpace(provider)
	symbol = strings.TrimSpace(symbol)
	if provider == "" || symbol == "" {
		return errors.New("provider and symbol are required")
	}
	if quote == nil {
		return errors.New("quote is required")
	}

	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO quote_cache (provider, symbol, price, change, change_percent, currency, fetched_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(provider, symbol) DO UPDATE SET
			price = excluded.price,
			change = excluded.change,
			change_percent = excluded.change_percent,
			currency = excluded.currency,
			fetched_at = excluded.fetched_at
	`, provider, symbol, quote.Price, quote.Change, quote.ChangePercent,
		nullString(quote.Currency), quote.FetchedAt.UTC().Unix())
	if err != nil {
		return fmt.Errorf("store cached quote: %w", err)
	}
	return nil
}
