package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/stockhub-kr/stockhub/internal/core"
)

// InsertInquiry stores a contact-form submission.
func (s *Store) InsertInquiry(ctx context.Context, inquiry *core.Inquiry) error {
	if s == nil || s.DB == nil {
		return errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if inquiry == nil || strings.TrimSpace(inquiry.ID) == "" {
		return errors.New("inquiry id is required")
	}

	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO inquiries (id, name, email, subject, message, answered, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, inquiry.ID, inquiry.Name, inquiry.Email, inquiry.Subject, inquiry.Message,
		boolToInt(inquiry.Answered), inquiry.CreatedAt.Unix())
	if err != nil {
		return fmt.Errorf("store inquiry: %w", err)
	}
	return nil
}

// MarkInquiryAnswered flags a submission as handled.
func (s *Store) MarkInquiryAnswered(ctx context.Context, id string) (bool, error) {
	if s == nil || s.DB == nil {
		return false, errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	result, err := s.DB.ExecContext(ctx, `
		UPDATE inquiries SET answered = 1 WHERE id = ?
	`, id)
	if err != nil {
		return false, fmt.Errorf("mark inquiry answered: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("mark inquiry answered: %w", err)
	}
	return affected > 0, nil
}

// ListInquiries returns submissions newest first.
func (s *Store) ListInquiries(ctx context.Context, limit int) ([]core.Inquiry, error) {
	if s == nil || s.DB == nil {
		return nil, errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.DB.QueryContext(ctx, `
		SELECT id, name, email, subject, message, answered, created_at
		FROM inquiries
		ORDER BY created_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list inquiries: %w", err)
	}
	defer rows.Close() // nolint:errcheck // best-effort cleanup

	inquiries := []core.Inquiry{}
	for rows.Next() {
		var (
			inquiry   core.Inquiry
			answered  int
			createdAt int64
		)
		if err := rows.Scan(&inquiry.ID, &inquiry.Name, &inquiry.Email,
			&inquiry.Subject, &inquiry.Message, &answered, &createdAt); err != nil {
			return nil, fmt.Errorf("scan inquiries: %w", err)
		}
		inquiry.Answered = answered != 0
		inquiry.CreatedAt = time.Unix(createdAt, 0).UTC()
		inquiries = append(inquiries, inquiry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list inquiries: %w", err)
	}
	return inquiries, nil
}
