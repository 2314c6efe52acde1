package community

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/stockhub-kr/stockhub/internal/core"
	"github.com/stockhub-kr/stockhub/internal/core/validate"
)

// NoticeInput carries the admin-supplied fields of an announcement.
type NoticeInput struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Pinned  bool   `json:"pinned"`
}

func (in *NoticeInput) validate() error {
	if strings.TrimSpace(in.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrInvalid)
	}
	if utf8.RuneCountInString(in.Title) > MaxTitleLength {
		return fmt.Errorf("%w: title exceeds %d characters", ErrInvalid, MaxTitleLength)
	}
	if strings.TrimSpace(in.Content) == "" {
		return fmt.Errorf("%w: content is required", ErrInvalid)
	}
	if utf8.RuneCountInString(in.Content) > MaxContentLength {
		return fmt.Errorf("%w: content exceeds %d characters", ErrInvalid, MaxContentLength)
	}
	return nil
}

// CreateNotice publishes an announcement. Authorization happens at the
// HTTP layer.
func (s *Service) CreateNotice(ctx context.Context, in NoticeInput) (*core.Notice, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	now := s.now()
	notice := &core.Notice{
		ID:        newID("notice"),
		Title:     validate.SanitizeText(in.Title),
		Content:   validate.SanitizeHTML(in.Content),
		Pinned:    in.Pinned,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.Store.InsertNotice(ctx, notice); err != nil {
		return nil, err
	}
	return notice, nil
}

// UpdateNotice rewrites an announcement.
func (s *Service) UpdateNotice(ctx context.Context, id string, in NoticeInput) (*core.Notice, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	notice := &core.Notice{
		ID:        id,
		Title:     validate.SanitizeText(in.Title),
		Content:   validate.SanitizeHTML(in.Content),
		Pinned:    in.Pinned,
		UpdatedAt: s.now(),
	}
	updated, err := s.Store.UpdateNotice(ctx, notice)
	if err != nil {
		return nil, err
	}
	if !updated {
		return nil, fmt.Errorf("%w: notice %s", ErrNotFound, id)
	}
	return notice, nil
}

// DeleteNotice removes an announcement.
func (s *Service) DeleteNotice(ctx context.Context, id string) error {
	deleted, err := s.Store.DeleteNotice(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return fmt.Errorf("%w: notice %s", ErrNotFound, id)
	}
	return nil
}

// ListNotices returns announcements pinned-first, then newest.
func (s *Service) ListNotices(ctx context.Context) ([]core.Notice, error) {
	return s.Store.ListNotices(ctx)
}
