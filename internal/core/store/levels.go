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

// GetUserLevel returns the stored level state for a user, or nil when
// the user has never earned points.
func (s *Store) GetUserLevel(ctx context.Context, userID string) (*core.UserLevel, error) {
	if s == nil || s.DB == nil {
		return nil, errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, errors.New("user id is required")
	}

	var (
		exp       int
		level     int
		season    int
		updatedAt int64
	)
	row := s.DB.QueryRowContext(ctx, `
		SELECT exp, level, season, updated_at
		FROM user_levels
		WHERE user_id = ?
	`, userID)
	if err := row.Scan(&exp, &level, &season, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetch user level: %w", err)
	}

	return &core.UserLevel{
		UserID:    userID,
		Exp:       exp,
		Level:     level,
		Season:    season,
		UpdatedAt: time.Unix(updatedAt, 0).UTC(),
	}, nil
}

// UpsertUserLevel persists level state for a user.
func (s *Store) UpsertUserLevel(ctx context.Context, level *core.UserLevel) error {
	if s == nil || s.DB == nil {
		return errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if level == nil || strings.TrimSpace(level.UserID) == "" {
		return errors.New("user id is required")
	}

	updatedAt := level.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}

	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO user_levels (user_id, exp, level, season, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			exp = excluded.exp,
			level = excluded.level,
			season = excluded.season,
			updated_at = excluded.updated_at
	`, level.UserID, level.Exp, level.Level, level.Season, updatedAt.Unix())
	if err != nil {
		return fmt.Errorf("store user level: %w", err)
	}
	return nil
}

// TopUserLevels returns the highest-ranked users for the leaderboard,
// ordered by level then remaining experience.
func (s *Store) TopUserLevels(ctx context.Context, limit int) ([]core.UserLevel, error) {
	if s == nil || s.DB == nil {
		return nil, errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.DB.QueryContext(ctx, `
		SELECT user_id, exp, level, season, updated_at
		FROM user_levels
		ORDER BY level DESC, exp DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list user levels: %w", err)
	}
	defer rows.Close() // nolint:errcheck // best-effort cleanup

	levels := []core.UserLevel{}
	for rows.Next() {
		var (
			entry     core.UserLevel
			updatedAt int64
		)
		if err := rows.Scan(&entry.UserID, &entry.Exp, &entry.Level, &entry.Season, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan user levels: %w", err)
		}
		entry.UpdatedAt = time.Unix(updatedAt, 0).UTC()
		levels = append(levels, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list user levels: %w", err)
	}
	return levels, nil
}
