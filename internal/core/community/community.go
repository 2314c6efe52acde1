// Package community implements the portal's user-generated content:
// posts, comments, sentiment votes, bookmarks, notices and inquiries.
package community

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/stockhub-kr/stockhub/internal/core"
	"github.com/stockhub-kr/stockhub/internal/core/points"
	"github.com/stockhub-kr/stockhub/internal/core/store"
	"github.com/stockhub-kr/stockhub/internal/core/validate"
)

const (
	MaxTitleLength   = 200
	MaxContentLength = 20000
	MaxCommentLength = 2000
	MaxSubjectLength = 200
	MaxMessageLength = 5000
)

// Sentinel errors the HTTP layer maps onto status codes.
var (
	ErrInvalid   = errors.New("invalid input")
	ErrNotFound  = errors.New("not found")
	ErrForbidden = errors.New("forbidden")
)

// Service coordinates community writes: sanitize, persist, then award
// experience points best-effort.
type Service struct {
	Store  *store.Store
	Points *points.Accumulator

	// Clock is overridable for tests.
	Clock func() time.Time
}

// NewService wires a community service over the store.
func NewService(st *store.Store, acc *points.Accumulator) *Service {
	return &Service{Store: st, Points: acc}
}

// PostInput carries the caller-supplied fields of a post write.
type PostInput struct {
	UserID   string `json:"user_id"`
	Author   string `json:"author"`
	Title    string `json:"title"`
	Content  string `json:"content"`
	Category string `json:"category,omitempty"`
}

func (in *PostInput) validate() error {
	if strings.TrimSpace(in.UserID) == "" {
		return fmt.Errorf("%w: user_id is required", ErrInvalid)
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return fmt.Errorf("%w: title is required", ErrInvalid)
	}
	if utf8.RuneCountInString(title) > MaxTitleLength {
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

// CreatePost sanitizes and stores a new post, then awards points.
func (s *Service) CreatePost(ctx context.Context, in PostInput) (*core.Post, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	now := s.now()
	post := &core.Post{
		ID:        newID("post"),
		UserID:    in.UserID,
		Author:    validate.SanitizeText(in.Author),
		Title:     validate.SanitizeText(in.Title),
		Content:   validate.SanitizeHTML(in.Content),
		Category:  validate.SanitizeText(in.Category),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.ensureAuthor(ctx, in.UserID, post.Author); err != nil {
		return nil, err
	}
	if err := s.Store.InsertPost(ctx, post); err != nil {
		return nil, err
	}

	s.award(ctx, in.UserID, core.AwardPost)
	return post, nil
}

// GetPost returns a post and bumps its view counter.
func (s *Service) GetPost(ctx context.Context, id string) (*core.Post, error) {
	post, err := s.Store.GetPost(ctx, id)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, fmt.Errorf("%w: post %s", ErrNotFound, id)
	}

	// View counts are advisory; a miss is not worth failing the read.
	if err := s.Store.IncrementPostViews(ctx, id); err == nil {
		post.Views++
	}
	return post, nil
}

// ListPosts pages through posts, optionally filtered by category.
func (s *Service) ListPosts(ctx context.Context, q store.PostQuery) ([]core.Post, error) {
	return s.Store.ListPosts(ctx, q)
}

// UpdatePost rewrites a post the caller owns.
func (s *Service) UpdatePost(ctx context.Context, id string, in PostInput) (*core.Post, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	existing, err := s.Store.GetPost(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, fmt.Errorf("%w: post %s", ErrNotFound, id)
	}
	if existing.UserID != in.UserID {
		return nil, fmt.Errorf("%w: post %s belongs to another user", ErrForbidden, id)
	}

	existing.Title = validate.SanitizeText(in.Title)
	existing.Content = validate.SanitizeHTML(in.Content)
	existing.Category = validate.SanitizeText(in.Category)
	existing.UpdatedAt = s.now()

	updated, err := s.Store.UpdatePost(ctx, existing)
	if err != nil {
		return nil, err
	}
	if !updated {
		return nil, fmt.Errorf("%w: post %s", ErrNotFound, id)
	}
	return existing, nil
}

// DeletePost removes a post the caller owns, along with its comments.
func (s *Service) DeletePost(ctx context.Context, id, userID string) error {
	deleted, err := s.Store.DeletePost(ctx, id, userID)
	if err != nil {
		return err
	}
	if !deleted {
		existing, err := s.Store.GetPost(ctx, id)
		if err != nil {
			return err
		}
		if existing == nil {
			return fmt.Errorf("%w: post %s", ErrNotFound, id)
		}
		return fmt.Errorf("%w: post %s belongs to another user", ErrForbidden, id)
	}
	return nil
}

// CommentInput carries the caller-supplied fields of a comment write.
type CommentInput struct {
	TargetID string `json:"target_id"`
	UserID   string `json:"user_id"`
	Author   string `json:"author"`
	Content  string `json:"content"`
}

// AddComment sanitizes and stores a comment, then awards points.
func (s *Service) AddComment(ctx context.Context, in CommentInput) (*core.Comment, error) {
	if strings.TrimSpace(in.TargetID) == "" {
		return nil, fmt.Errorf("%w: target_id is required", ErrInvalid)
	}
	if strings.TrimSpace(in.UserID) == "" {
		return nil, fmt.Errorf("%w: user_id is required", ErrInvalid)
	}
	content := strings.TrimSpace(in.Content)
	if content == "" {
		return nil, fmt.Errorf("%w: content is required", ErrInvalid)
	}
	if utf8.RuneCountInString(content) > MaxCommentLength {
		return nil, fmt.Errorf("%w: content exceeds %d characters", ErrInvalid, MaxCommentLength)
	}

	comment := &core.Comment{
		ID:        newID("comment"),
		TargetID:  in.TargetID,
		UserID:    in.UserID,
		Author:    validate.SanitizeText(in.Author),
		Content:   validate.SanitizeText(content),
		CreatedAt: s.now(),
	}

	if err := s.ensureAuthor(ctx, in.UserID, comment.Author); err != nil {
		return nil, err
	}
	if err := s.Store.InsertComment(ctx, comment); err != nil {
		return nil, err
	}

	s.award(ctx, in.UserID, core.AwardComment)
	return comment, nil
}

// ListComments returns comments on a news item or post, oldest first.
func (s *Service) ListComments(ctx context.Context, targetID string) ([]core.Comment, error) {
	if strings.TrimSpace(targetID) == "" {
		return nil, fmt.Errorf("%w: target_id is required", ErrInvalid)
	}
	return s.Store.ListComments(ctx, targetID)
}

// DeleteComment removes a comment the caller owns.
func (s *Service) DeleteComment(ctx context.Context, id, userID string) error {
	deleted, err := s.Store.DeleteComment(ctx, id, userID)
	if err != nil {
		return err
	}
	if !deleted {
		return fmt.Errorf("%w: comment %s", ErrNotFound, id)
	}
	return nil
}

// Vote records a sentiment vote. Voting the same direction again
// removes the vote; voting the other direction switches it. The bool
// reports whether a vote remains afterward.
func (s *Service) Vote(ctx context.Context, targetID, userID string, kind core.VoteKind) (bool, error) {
	if strings.TrimSpace(targetID) == "" || strings.TrimSpace(userID) == "" {
		return false, fmt.Errorf("%w: target_id and user_id are required", ErrInvalid)
	}
	if kind != core.VoteBullish && kind != core.VoteBearish {
		return false, fmt.Errorf("%w: unknown vote kind %q", ErrInvalid, kind)
	}

	existing, err := s.Store.GetVote(ctx, targetID, userID)
	if err != nil {
		return false, err
	}
	if existing != nil && existing.Kind == kind {
		_, err := s.Store.DeleteVote(ctx, targetID, userID)
		return false, err
	}

	vote := &core.Vote{
		ID:        newID("vote"),
		TargetID:  targetID,
		UserID:    userID,
		Kind:      kind,
		CreatedAt: s.now(),
	}
	if err := s.Store.UpsertVote(ctx, vote); err != nil {
		return false, err
	}

	// Switching direction is not a fresh contribution.
	if existing == nil {
		s.award(ctx, userID, core.AwardVote)
	}
	return true, nil
}

// NewsStats aggregates vote and comment counts for a news item.
func (s *Service) NewsStats(ctx context.Context, targetID string) (*core.NewsStats, error) {
	if strings.TrimSpace(targetID) == "" {
		return nil, fmt.Errorf("%w: target_id is required", ErrInvalid)
	}
	return s.Store.GetNewsStats(ctx, targetID)
}

// ToggleBookmark saves or unsaves a news item. The bool reports whether
// the bookmark exists afterward.
func (s *Service) ToggleBookmark(ctx context.Context, targetID, userID string) (bool, error) {
	if strings.TrimSpace(targetID) == "" || strings.TrimSpace(userID) == "" {
		return false, fmt.Errorf("%w: target_id and user_id are required", ErrInvalid)
	}

	removed, err := s.Store.RemoveBookmark(ctx, targetID, userID)
	if err != nil {
		return false, err
	}
	if removed {
		return false, nil
	}

	bookmark := &core.Bookmark{
		ID:        newID("bookmark"),
		TargetID:  targetID,
		UserID:    userID,
		CreatedAt: s.now(),
	}
	if err := s.Store.AddBookmark(ctx, bookmark); err != nil {
		return false, err
	}
	return true, nil
}

// ListBookmarks returns a user's saved items newest first.
func (s *Service) ListBookmarks(ctx context.Context, userID string) ([]core.Bookmark, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("%w: user_id is required", ErrInvalid)
	}
	return s.Store.ListBookmarks(ctx, userID)
}

// ensureAuthor upserts the user row so content rows have an anchor.
func (s *Service) ensureAuthor(ctx context.Context, userID, username string) error {
	return s.Store.EnsureUser(ctx, &core.User{
		ID:        userID,
		Username:  username,
		CreatedAt: s.now(),
	})
}

// award hands off to the accumulator; failures are already logged there
// and never surface to the caller.
func (s *Service) award(ctx context.Context, userID string, reason core.AwardReason) {
	if s.Points == nil {
		return
	}
	_ = s.Points.Award(ctx, userID, reason)
}

func (s *Service) now() time.Time {
	if s.Clock != nil {
		return s.Clock().UTC()
	}
	return time.Now().UTC()
}

func newID(prefix string) string {
	return prefix + "_" + uuid.NewString()
}
