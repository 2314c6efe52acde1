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

// PostQuery filters and pages post listings.
type PostQuery struct {
	Category string
	Limit    int
	Offset   int
}

// InsertPost stores a new post.
func (s *Store) InsertPost(ctx context.Context, post *core.Post) error {
	if s == nil || s.DB == nil {
		return errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if post == nil || strings.TrimSpace(post.ID) == "" {
		return errors.New("post id is required")
	}

	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO posts (id, user_id, author, title, content, category, views, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, post.ID, post.UserID, post.Author, post.Title, post.Content,
		nullString(post.Category), post.Views, post.CreatedAt.Unix(), post.UpdatedAt.Unix())
	if err != nil {
		return fmt.Errorf("store post: %w", err)
	}
	return nil
}

// GetPost returns a post by id, or nil when absent.
func (s *Store) GetPost(ctx context.Context, id string) (*core.Post, error) {
	if s == nil || s.DB == nil {
		return nil, errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	id = strings.TrimSpace(id)
	if id == "" {
		return nil, errors.New("post id is required")
	}

	row := s.DB.QueryRowContext(ctx, `
		SELECT id, user_id, author, title, content, category, views, created_at, updated_at
		FROM posts
		WHERE id = ?
	`, id)

	post, err := scanPost(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetch post: %w", err)
	}
	return post, nil
}

// ListPosts returns posts newest first, optionally filtered by category.
func (s *Store) ListPosts(ctx context.Context, q PostQuery) ([]core.Post, error) {
	if s == nil || s.DB == nil {
		return nil, errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	limit := q.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}

	where := ""
	args := []any{}
	if category := strings.TrimSpace(q.Category); category != "" {
		where = "WHERE category = ?"
		args = append(args, category)
	}
	args = append(args, limit, offset)

	rows, err := s.DB.QueryContext(ctx, fmt.Sprintf(`
		SELECT id, user_id, author, title, content, category, views, created_at, updated_at
		FROM posts
		%s
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?
	`, where), args...)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	defer rows.Close() // nolint:errcheck // best-effort cleanup

	posts := []core.Post{}
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("scan posts: %w", err)
		}
		posts = append(posts, *post)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	return posts, nil
}

// UpdatePost rewrites a post's title, content and category. Only the
// owning user's rows are touched; the bool reports whether a row changed.
func (s *Store) UpdatePost(ctx context.Context, post *core.Post) (bool, error) {
	if s == nil || s.DB == nil {
		return false, errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if post == nil || strings.TrimSpace(post.ID) == "" {
		return false, errors.New("post id is required")
	}

	result, err := s.DB.ExecContext(ctx, `
		UPDATE posts
		SET title = ?, content = ?, category = ?, updated_at = ?
		WHERE id = ? AND user_id = ?
	`, post.Title, post.Content, nullString(post.Category), post.UpdatedAt.Unix(), post.ID, post.UserID)
	if err != nil {
		return false, fmt.Errorf("update post: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update post: %w", err)
	}
	return affected > 0, nil
}

// DeletePost removes a post owned by userID along with its comments.
func (s *Store) DeletePost(ctx context.Context, id, userID string) (bool, error) {
	if s == nil || s.DB == nil {
		return false, errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	result, err := s.DB.ExecContext(ctx, `
		DELETE FROM posts WHERE id = ? AND user_id = ?
	`, id, userID)
	if err != nil {
		return false, fmt.Errorf("delete post: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete post: %w", err)
	}
	if affected == 0 {
		return false, nil
	}

	if _, err := s.DB.ExecContext(ctx, `DELETE FROM comments WHERE target_id = ?`, id); err != nil {
		return true, fmt.Errorf("delete post comments: %w", err)
	}
	return true, nil
}

// IncrementPostViews bumps a post's view counter.
func (s *Store) IncrementPostViews(ctx context.Context, id string) error {
	if s == nil || s.DB == nil {
		return errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	if _, err := s.DB.ExecContext(ctx, `
		UPDATE posts SET views = views + 1 WHERE id = ?
	`, id); err != nil {
		return fmt.Errorf("increment post views: %w", err)
	}
	return nil
}

// InsertComment stores a new comment on a news item or post.
func (s *Store) InsertComment(ctx context.Context, comment *core.Comment) error {
	if s == nil || s.DB == nil {
		return errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if comment == nil || strings.TrimSpace(comment.ID) == "" {
		return errors.New("comment id is required")
	}

	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO comments (id, target_id, user_id, author, content, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, comment.ID, comment.TargetID, comment.UserID, comment.Author, comment.Content, comment.CreatedAt.Unix())
	if err != nil {
		return fmt.Errorf("store comment: %w", err)
	}
	return nil
}

// ListComments returns comments on a target, oldest first.
func (s *Store) ListComments(ctx context.Context, targetID string) ([]core.Comment, error) {
	if s == nil || s.DB == nil {
		return nil, errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	rows, err := s.DB.QueryContext(ctx, `
		SELECT id, target_id, user_id, author, content, created_at
		FROM comments
		WHERE target_id = ?
		ORDER BY created_at
	`, targetID)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	defer rows.Close() // nolint:errcheck // best-effort cleanup

	comments := []core.Comment{}
	for rows.Next() {
		var (
			comment   core.Comment
			createdAt int64
		)
		if err := rows.Scan(&comment.ID, &comment.TargetID, &comment.UserID,
			&comment.Author, &comment.Content, &createdAt); err != nil {
			return nil, fmt.Errorf("scan comments: %w", err)
		}
		comment.CreatedAt = time.Unix(createdAt, 0).UTC()
		comments = append(comments, comment)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	return comments, nil
}

// DeleteComment removes a comment owned by userID.
func (s *Store) DeleteComment(ctx context.Context, id, userID string) (bool, error) {
	if s == nil || s.DB == nil {
		return false, errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	result, err := s.DB.ExecContext(ctx, `
		DELETE FROM comments WHERE id = ? AND user_id = ?
	`, id, userID)
	if err != nil {
		return false, fmt.Errorf("delete comment: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete comment: %w", err)
	}
	return affected > 0, nil
}

// UpsertVote records a sentiment vote; re-voting replaces the direction.
func (s *Store) UpsertVote(ctx context.Context, vote *core.Vote) error {
	if s == nil || s.DB == nil {
		return errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if vote == nil || strings.TrimSpace(vote.ID) == "" {
		return errors.New("vote id is required")
	}

	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO votes (id, target_id, user_id, kind, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(target_id, user_id) DO UPDATE SET
			kind = excluded.kind,
			created_at = excluded.created_at
	`, vote.ID, vote.TargetID, vote.UserID, string(vote.Kind), vote.CreatedAt.Unix())
	if err != nil {
		return fmt.Errorf("store vote: %w", err)
	}
	return nil
}

// DeleteVote removes a user's vote on a target.
func (s *Store) DeleteVote(ctx context.Context, targetID, userID string) (bool, error) {
	if s == nil || s.DB == nil {
		return false, errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	result, err := s.DB.ExecContext(ctx, `
		DELETE FROM votes WHERE target_id = ? AND user_id = ?
	`, targetID, userID)
	if err != nil {
		return false, fmt.Errorf("delete vote: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete vote: %w", err)
	}
	return affected > 0, nil
}

// GetVote returns a user's vote on a target, or nil when absent.
func (s *Store) GetVote(ctx context.Context, targetID, userID string) (*core.Vote, error) {
	if s == nil || s.DB == nil {
		return nil, errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var (
		vote      core.Vote
		kind      string
		createdAt int64
	)
	row := s.DB.QueryRowContext(ctx, `
		SELECT id, target_id, user_id, kind, created_at
		FROM votes
		WHERE target_id = ? AND user_id = ?
	`, targetID, userID)
	if err := row.Scan(&vote.ID, &vote.TargetID, &vote.UserID, &kind, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetch vote: %w", err)
	}
	vote.Kind = core.VoteKind(kind)
	vote.CreatedAt = time.Unix(createdAt, 0).UTC()
	return &vote, nil
}

// GetNewsStats aggregates vote and comment counts for a news item.
func (s *Store) GetNewsStats(ctx context.Context, targetID string) (*core.NewsStats, error) {
	if s == nil || s.DB == nil {
		return nil, errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	stats := &core.NewsStats{TargetID: targetID}

	row := s.DB.QueryRowContext(ctx, `
		SELECT
			COUNT(CASE WHEN kind = 'bullish' THEN 1 END),
			COUNT(CASE WHEN kind = 'bearish' THEN 1 END)
		FROM votes
		WHERE target_id = ?
	`, targetID)
	if err := row.Scan(&stats.BullishVotes, &stats.BearishVotes); err != nil {
		return nil, fmt.Errorf("count votes: %w", err)
	}

	row = s.DB.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM comments WHERE target_id = ?
	`, targetID)
	if err := row.Scan(&stats.CommentCount); err != nil {
		return nil, fmt.Errorf("count comments: %w", err)
	}

	return stats, nil
}

// AddBookmark saves a news item for a user. Duplicate saves are no-ops.
func (s *Store) AddBookmark(ctx context.Context, bookmark *core.Bookmark) error {
	if s == nil || s.DB == nil {
		return errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if bookmark == nil || strings.TrimSpace(bookmark.ID) == "" {
		return errors.New("bookmark id is required")
	}

	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO bookmarks (id, target_id, user_id, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(target_id, user_id) DO NOTHING
	`, bookmark.ID, bookmark.TargetID, bookmark.UserID, bookmark.CreatedAt.Unix())
	if err != nil {
		return fmt.Errorf("store bookmark: %w", err)
	}
	return nil
}

// RemoveBookmark deletes a user's bookmark on a target.
func (s *Store) RemoveBookmark(ctx context.Context, targetID, userID string) (bool, error) {
	if s == nil || s.DB == nil {
		return false, errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	result, err := s.DB.ExecContext(ctx, `
		DELETE FROM bookmarks WHERE target_id = ? AND user_id = ?
	`, targetID, userID)
	if err != nil {
		return false, fmt.Errorf("delete bookmark: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete bookmark: %w", err)
	}
	return affected > 0, nil
}

// ListBookmarks returns a user's bookmarks newest first.
func (s *Store) ListBookmarks(ctx context.Context, userID string) ([]core.Bookmark, error) {
	if s == nil || s.DB == nil {
		return nil, errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	rows, err := s.DB.QueryContext(ctx, `
		SELECT id, target_id, user_id, created_at
		FROM bookmarks
		WHERE user_id = ?
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list bookmarks: %w", err)
	}
	defer rows.Close() // nolint:errcheck // best-effort cleanup

	bookmarks := []core.Bookmark{}
	for rows.Next() {
		var (
			bookmark  core.Bookmark
			createdAt int64
		)
		if err := rows.Scan(&bookmark.ID, &bookmark.TargetID, &bookmark.UserID, &createdAt); err != nil {
			return nil, fmt.Errorf("scan bookmarks: %w", err)
		}
		bookmark.CreatedAt = time.Unix(createdAt, 0).UTC()
		bookmarks = append(bookmarks, bookmark)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list bookmarks: %w", err)
	}
	return bookmarks, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPost(row rowScanner) (*core.Post, error) {
	var (
		post      core.Post
		category  sql.NullString
		createdAt int64
		updatedAt int64
	)
	if err := row.Scan(&post.ID, &post.UserID, &post.Author, &post.Title, &post.Content,
		&category, &post.Views, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	post.Category = category.String
	post.CreatedAt = time.Unix(createdAt, 0).UTC()
	post.UpdatedAt = time.Unix(updatedAt, 0).UTC()
	return &post, nil
}
