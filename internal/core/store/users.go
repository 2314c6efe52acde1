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

// EnsureUser upserts a user row so community writes always have a
// referent, even when the account was created out-of-band by the
// hosted identity provider.
func (s *Store) EnsureUser(ctx context.Context, user *core.User) error {
	if s == nil || s.DB == nil {
		return errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if user == nil || strings.TrimSpace(user.ID) == "" {
		return errors.New("user id is required")
	}

	createdAt := user.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO users (id, username, email, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			username = excluded.username,
			email = excluded.email
	`, user.ID, user.Username, nullString(user.Email), createdAt.Unix())
	if err != nil {
		return fmt.Errorf("ensure user: %w", err)
	}
	return nil
}

// GetUser returns a user by id, or nil when absent.
func (s *Store) GetUser(ctx context.Context, id string) (*core.User, error) {
	if s == nil || s.DB == nil {
		return nil, errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	id = strings.TrimSpace(id)
	if id == "" {
		return nil, errors.New("user id is required")
	}

	var (
		username  string
		email     sql.NullString
		createdAt int64
	)
	row := s.DB.QueryRowContext(ctx, `
		SELECT username, email, created_at
		FROM users
		WHERE id = ?
	`, id)
	if err := row.Scan(&username, &email, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetch user: %w", err)
	}

	return &core.User{
		ID:        id,
		Username:  username,
		Email:     email.String,
		CreatedAt: time.Unix(createdAt, 0).UTC(),
	}, nil
}

func nullString(value string) sql.NullString {
	value = strings.TrimSpace(value)
	if value == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: value, Valid: true}
}
