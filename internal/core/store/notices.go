package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/stockhub-kr/stockhub/internal/core"
)

// InsertNotice stores an admin announcement.
func (s *Store) InsertNotice(ctx context.Context, notice *core.Notice) error {
	if s == nil || s.DB == nil {
		return errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if notice == nil || strings.TrimSpace(notice.ID) == "" {
		return errors.New("notice id is required")
	}

	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO notices (id, title, content, pinned, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, notice.ID, notice.Title, notice.Content, boolToInt(notice.Pinned),
		notice.CreatedAt.Unix(), notice.UpdatedAt.Unix())
	if err != nil {
		return fmt.Errorf("store notice: %w", err)
	}
	return nil
}

// UpdateNotice rewrites an announcement's title, content and pin state.
func (s *Store) UpdateNotice(ctx context.Context, notice *core.Notice) (bool, error) {
	if s == nil || s.DB == nil {
		return false, errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if notice == nil || strings.TrimSpace(notice.ID) == "" {
		return false, errors.New("notice id is required")
	}

	result, err := s.DB.ExecContext(ctx, `
		UPDATE notices
		SET title = ?, content = ?, pinned = ?, updated_at = ?
		WHERE id = ?
	`, notice.Title, notice.Content, boolToInt(notice.Pinned), notice.UpdatedAt.Unix(), notice.ID)
	if err != nil {
		return false, fmt.Errorf("update notice: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update notice: %w", err)
	}
	return affected > 0, nil
}

// DeleteNotice removes an announcement.
func (s *Store) DeleteNotice(ctx context.Context, id string) (bool, error) {
	if s == nil || s.DB == nil {
		return false, errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	result, err := s.DB.ExecContext(ctx, `DELETE FROM notices WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete notice: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete notice: %w", err)
	}
	return affected > 0, nil
}

// ListNotices returns announcements with pinned ones first, then newest.
func (s *Store) ListNotices(ctx context.Context) ([]core.Notice, error) {
	if s == nil || s.DB == nil {
		return nil, errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	rows, err := s.DB.QueryContext(ctx, `
		SELECT id, title, content, pinned, created_at, updated_at
		FROM notices
		ORDER BY pinned DESC, created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list notices: %w", err)
	}
	defer rows.Close() // nolint:errcheck // best-effort cleanup

	notices := []core.Notice{}
	for rows.Next() {
		var (
			notice    core.Notice
			pinned    int
			createdAt int64
			updatedAt int64
		)
		if err := rows.Scan(&notice.ID, &notice.Title, &notice.Content, &pinned, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan notices: %w", err)
		}
		notice.Pinned = pinned != 0
		notice.CreatedAt = time.Unix(createdAt, 0).UTC()
		notice.UpdatedAt = time.Unix(updatedAt, 0).UTC()
		notices = append(notices, notice)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list notices: %w", err)
	}
	return notices, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
