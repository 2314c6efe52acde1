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

// GetSetting returns the value stored under key, or "" when absent.
func (s *Store) GetSetting(ctx context.Context, key string) (string, error) {
	if s == nil || s.DB == nil {
		return "", errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	key = strings.TrimSpace(key)
	if key == "" {
		return "", errors.New("setting key is required")
	}

	var value string
	row := s.DB.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key)
	if err := row.Scan(&value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("fetch setting: %w", err)
	}
	return value, nil
}

// SetSetting upserts a key/value pair.
func (s *Store) SetSetting(ctx context.Context, key, value string) error {
	if s == nil || s.DB == nil {
		return errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	key = strings.TrimSpace(key)
	if key == "" {
		return errors.New("setting key is required")
	}

	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO settings (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at
	`, key, value, time.Now().UTC().Unix())
	if err != nil {
		return fmt.Errorf("store setting: %w", err)
	}
	return nil
}

// FeedTracker persists the newest-seen feed item id across restarts so
// a restarted watcher does not re-announce old items.
type FeedTracker struct {
	Store *Store
}

func lastSeenKey(feed core.FeedKind) string {
	return "last_seen_" + string(feed)
}

func (t *FeedTracker) LastSeen(ctx context.Context, feed core.FeedKind) (string, error) {
	if t == nil || t.Store == nil {
		return "", errors.New("store is not initialized")
	}
	return t.Store.GetSetting(ctx, lastSeenKey(feed))
}

func (t *FeedTracker) SetLastSeen(ctx context.Context, feed core.FeedKind, id string) error {
	if t == nil || t.Store == nil {
		return errors.New("store is not initialized")
	}
	return t.Store.SetSetting(ctx, lastSeenKey(feed), id)
}
