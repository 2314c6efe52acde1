//go:build cgo

package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/stockhub-kr/stockhub/internal/config"
	"github.com/stockhub-kr/stockhub/internal/core"
)

func TestOpenMemoryStore(t *testing.T) {
	ctx := context.Background()
	cfg := config.StoreConfig{
		Driver: "libsql",
		Path:   ":memory:",
	}

	store, err := Open(ctx, cfg)
	require.NoError(t, err)
	require.NotNil(t, store)
	require.Equal(t, "libsql", store.Driver())
	require.NoError(t, store.Close())
}

func TestOpenLocalStore_ConfiguresSQLite(t *testing.T) {
	ctx := context.Background()

	cfg := config.StoreConfig{
		Driver: "libsql",
		Path:   "file:" + t.TempDir() + "/stockhub.db",
	}

	store, err := Open(ctx, cfg)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	require.Equal(t, 1, store.DB.Stats().MaxOpenConnections)

	var journalMode string
	require.NoError(t, store.DB.QueryRowContext(ctx, "PRAGMA journal_mode").Scan(&journalMode))
	require.Contains(t, journalMode, "wal")

	var busyTimeout int
	require.NoError(t, store.DB.QueryRowContext(ctx, "PRAGMA busy_timeout").Scan(&busyTimeout))
	require.GreaterOrEqual(t, busyTimeout, 1000)
}

func openTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := Open(context.Background(), config.StoreConfig{
		Driver: "libsql",
		Path:   ":memory:",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	require.NoError(t, store.Migrate(context.Background()))
	return store
}

func TestUserRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	require.NoError(t, store.EnsureUser(ctx, &core.User{
		ID:       "u1",
		Username: "trader",
		Email:    "trader@example.com",
	}))

	user, err := store.GetUser(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, user)
	require.Equal(t, "trader", user.Username)

	// Re-registering the same id updates the profile.
	require.NoError(t, store.EnsureUser(ctx, &core.User{
		ID:       "u1",
		Username: "investor",
	}))

	user, err = store.GetUser(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, "investor", user.Username)

	missing, err := store.GetUser(ctx, "nobody")
	require.NoError(t, err)
	require.Nil(t, missing)
}

func TestUserLevelRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	level, err := store.GetUserLevel(ctx, "u1")
	require.NoError(t, err)
	require.Nil(t, level)

	require.NoError(t, store.UpsertUserLevel(ctx, &core.UserLevel{
		UserID: "u1",
		Exp:    50,
		Level:  2,
		Season: 1,
	}))

	level, err = store.GetUserLevel(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, level)
	require.Equal(t, 50, level.Exp)
	require.Equal(t, 2, level.Level)

	require.NoError(t, store.UpsertUserLevel(ctx, &core.UserLevel{
		UserID: "u1",
		Exp:    5,
		Level:  3,
		Season: 1,
	}))
	require.NoError(t, store.UpsertUserLevel(ctx, &core.UserLevel{
		UserID: "u2",
		Exp:    0,
		Level:  1,
		Season: 1,
	}))

	top, err := store.TopUserLevels(ctx, 10)
	require.NoError(t, err)
	require.Len(t, top, 2)
	require.Equal(t, "u1", top[0].UserID)
	require.Equal(t, 3, top[0].Level)
}

func TestPostLifecycle(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	now := time.Now().UTC().Truncate(time.Second)

	post := &core.Post{
		ID:        "post_1",
		UserID:    "u1",
		Author:    "trader",
		Title:     "Earnings preview",
		Content:   "<p>Numbers out tomorrow.</p>",
		Category:  "discussion",
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, store.InsertPost(ctx, post))

	got, err := store.GetPost(ctx, "post_1")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, "Earnings preview", got.Title)
	require.Equal(t, "discussion", got.Category)

	require.NoError(t, store.IncrementPostViews(ctx, "post_1"))
	got, err = store.GetPost(ctx, "post_1")
	require.NoError(t, err)
	require.Equal(t, 1, got.Views)

	post.Title = "Earnings recap"
	post.UpdatedAt = now.Add(time.Minute)
	updated, err := store.UpdatePost(ctx, post)
	require.NoError(t, err)
	require.True(t, updated)

	// A different user cannot rewrite the post.
	stranger := *post
	stranger.UserID = "u2"
	updated, err = store.UpdatePost(ctx, &stranger)
	require.NoError(t, err)
	require.False(t, updated)

	listed, err := store.ListPosts(ctx, PostQuery{Category: "discussion"})
	require.NoError(t, err)
	require.Len(t, listed, 1)

	listed, err = store.ListPosts(ctx, PostQuery{Category: "news"})
	require.NoError(t, err)
	require.Empty(t, listed)

	deleted, err := store.DeletePost(ctx, "post_1", "u2")
	require.NoError(t, err)
	require.False(t, deleted)

	deleted, err = store.DeletePost(ctx, "post_1", "u1")
	require.NoError(t, err)
	require.True(t, deleted)

	got, err = store.GetPost(ctx, "post_1")
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestDeletePostRemovesComments(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	now := time.Now().UTC().Truncate(time.Second)

	require.NoError(t, store.InsertPost(ctx, &core.Post{
		ID: "post_1", UserID: "u1", Author: "trader",
		Title: "t", Content: "c", CreatedAt: now, UpdatedAt: now,
	}))
	require.NoError(t, store.InsertComment(ctx, &core.Comment{
		ID: "c1", TargetID: "post_1", UserID: "u2", Author: "other",
		Content: "reply", CreatedAt: now,
	}))

	deleted, err := store.DeletePost(ctx, "post_1", "u1")
	require.NoError(t, err)
	require.True(t, deleted)

	comments, err := store.ListComments(ctx, "post_1")
	require.NoError(t, err)
	require.Empty(t, comments)
}

func TestCommentRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	now := time.Now().UTC().Truncate(time.Second)

	require.NoError(t, store.InsertComment(ctx, &core.Comment{
		ID: "c1", TargetID: "news_1", UserID: "u1", Author: "trader",
		Content: "first", CreatedAt: now,
	}))
	require.NoError(t, store.InsertComment(ctx, &core.Comment{
		ID: "c2", TargetID: "news_1", UserID: "u2", Author: "other",
		Content: "second", CreatedAt: now.Add(time.Second),
	}))

	comments, err := store.ListComments(ctx, "news_1")
	require.NoError(t, err)
	require.Len(t, comments, 2)
	require.Equal(t, "first", comments[0].Content)
	require.Equal(t, "second", comments[1].Content)

	deleted, err := store.DeleteComment(ctx, "c1", "u2")
	require.NoError(t, err)
	require.False(t, deleted)

	deleted, err = store.DeleteComment(ctx, "c1", "u1")
	require.NoError(t, err)
	require.True(t, deleted)
}

func TestVoteUpsertAndStats(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	now := time.Now().UTC().Truncate(time.Second)

	require.NoError(t, store.UpsertVote(ctx, &core.Vote{
		ID: "v1", TargetID: "news_1", UserID: "u1",
		Kind: core.VoteBullish, CreatedAt: now,
	}))
	require.NoError(t, store.UpsertVote(ctx, &core.Vote{
		ID: "v2", TargetID: "news_1", UserID: "u2",
		Kind: core.VoteBearish, CreatedAt: now,
	}))

	// Re-voting flips the direction instead of adding a row.
	require.NoError(t, store.UpsertVote(ctx, &core.Vote{
		ID: "v3", TargetID: "news_1", UserID: "u1",
		Kind: core.VoteBearish, CreatedAt: now.Add(time.Second),
	}))

	vote, err := store.GetVote(ctx, "news_1", "u1")
	require.NoError(t, err)
	require.NotNil(t, vote)
	require.Equal(t, core.VoteBearish, vote.Kind)

	require.NoError(t, store.InsertComment(ctx, &core.Comment{
		ID: "c1", TargetID: "news_1", UserID: "u1", Author: "trader",
		Content: "agreed", CreatedAt: now,
	}))

	stats, err := store.GetNewsStats(ctx, "news_1")
	require.NoError(t, err)
	require.Equal(t, 0, stats.BullishVotes)
	require.Equal(t, 2, stats.BearishVotes)
	require.Equal(t, 1, stats.CommentCount)

	deleted, err := store.DeleteVote(ctx, "news_1", "u1")
	require.NoError(t, err)
	require.True(t, deleted)

	stats, err = store.GetNewsStats(ctx, "news_1")
	require.NoError(t, err)
	require.Equal(t, 1, stats.BearishVotes)
}

func TestBookmarkRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	now := time.Now().UTC().Truncate(time.Second)

	require.NoError(t, store.AddBookmark(ctx, &core.Bookmark{
		ID: "b1", TargetID: "news_1", UserID: "u1", CreatedAt: now,
	}))

	// Saving the same item twice is a no-op.
	require.NoError(t, store.AddBookmark(ctx, &core.Bookmark{
		ID: "b2", TargetID: "news_1", UserID: "u1", CreatedAt: now.Add(time.Second),
	}))

	bookmarks, err := store.ListBookmarks(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, bookmarks, 1)
	require.Equal(t, "news_1", bookmarks[0].TargetID)

	removed, err := store.RemoveBookmark(ctx, "news_1", "u1")
	require.NoError(t, err)
	require.True(t, removed)

	removed, err = store.RemoveBookmark(ctx, "news_1", "u1")
	require.NoError(t, err)
	require.False(t, removed)
}

func TestNoticeOrdering(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	now := time.Now().UTC().Truncate(time.Second)

	require.NoError(t, store.InsertNotice(ctx, &core.Notice{
		ID: "n1", Title: "Old", Content: "c",
		CreatedAt: now, UpdatedAt: now,
	}))
	require.NoError(t, store.InsertNotice(ctx, &core.Notice{
		ID: "n2", Title: "New", Content: "c",
		CreatedAt: now.Add(time.Hour), UpdatedAt: now.Add(time.Hour),
	}))
	require.NoError(t, store.InsertNotice(ctx, &core.Notice{
		ID: "n3", Title: "Pinned", Content: "c", Pinned: true,
		CreatedAt: now.Add(-time.Hour), UpdatedAt: now.Add(-time.Hour),
	}))

	notices, err := store.ListNotices(ctx)
	require.NoError(t, err)
	require.Len(t, notices, 3)
	require.Equal(t, "Pinned", notices[0].Title)
	require.Equal(t, "New", notices[1].Title)
	require.Equal(t, "Old", notices[2].Title)

	updated, err := store.UpdateNotice(ctx, &core.Notice{
		ID: "n1", Title: "Old (edited)", Content: "c", UpdatedAt: now,
	})
	require.NoError(t, err)
	require.True(t, updated)

	deleted, err := store.DeleteNotice(ctx, "n2")
	require.NoError(t, err)
	require.True(t, deleted)

	notices, err = store.ListNotices(ctx)
	require.NoError(t, err)
	require.Len(t, notices, 2)
}

func TestInquiryRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	now := time.Now().UTC().Truncate(time.Second)

	require.NoError(t, store.InsertInquiry(ctx, &core.Inquiry{
		ID: "q1", Name: "Alex", Email: "alex@example.com",
		Subject: "Feature request", Message: "Dark mode please",
		CreatedAt: now,
	}))

	inquiries, err := store.ListInquiries(ctx, 0)
	require.NoError(t, err)
	require.Len(t, inquiries, 1)
	require.Equal(t, "Feature request", inquiries[0].Subject)
	require.False(t, inquiries[0].Answered)

	marked, err := store.MarkInquiryAnswered(ctx, "q1")
	require.NoError(t, err)
	require.True(t, marked)

	inquiries, err = store.ListInquiries(ctx, 0)
	require.NoError(t, err)
	require.True(t, inquiries[0].Answered)

	marked, err = store.MarkInquiryAnswered(ctx, "missing")
	require.NoError(t, err)
	require.False(t, marked)
}

func TestRateLimitRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	now := time.Now().UTC().Truncate(time.Second)

	state, err := store.GetRateLimit(ctx, "finnhub.io")
	require.NoError(t, err)
	require.Nil(t, state)

	backoff := now.Add(time.Minute)
	require.NoError(t, store.UpdateRateLimit(ctx, "finnhub.io", &core.RateLimitState{
		RequestCount: 12,
		WindowStart:  now,
		BackoffUntil: &backoff,
	}))

	state, err = store.GetRateLimit(ctx, "finnhub.io")
	require.NoError(t, err)
	require.NotNil(t, state)
	require.Equal(t, 12, state.RequestCount)
	require.Equal(t, now, state.WindowStart)
	require.NotNil(t, state.BackoffUntil)
	require.Equal(t, backoff, *state.BackoffUntil)
	require.Nil(t, state.Last429At)

	require.NoError(t, store.UpdateRateLimit(ctx, "query1.finance.yahoo.com", &core.RateLimitState{
		RequestCount: 1,
		WindowStart:  now,
	}))

	entries, err := store.ListRateLimits(ctx, RateLimitQuery{All: true})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, "finnhub.io", entries[0].Endpoint)

	count, err := store.CountRateLimits(ctx, RateLimitQuery{Prefix: "query1."})
	require.NoError(t, err)
	require.Equal(t, 1, count)

	affected, err := store.ResetRateLimits(ctx, RateLimitQuery{Endpoint: "finnhub.io"})
	require.NoError(t, err)
	require.Equal(t, int64(1), affected)

	count, err = store.CountRateLimits(ctx, RateLimitQuery{All: true})
	require.NoError(t, err)
	require.Equal(t, 1, count)
}

func TestQuoteCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	now := time.Now().UTC().Truncate(time.Second)

	quote, err := store.GetCachedQuote(ctx, "finnhub", "AAPL")
	require.NoError(t, err)
	require.Nil(t, quote)

	require.NoError(t, store.PutCachedQuote(ctx, "finnhub", "AAPL", &core.Quote{
		Symbol:        "AAPL",
		Price:         189.5,
		Change:        1.25,
		ChangePercent: 0.66,
		Currency:      "USD",
		FetchedAt:     now,
	}))

	quote, err = store.GetCachedQuote(ctx, "finnhub", "AAPL")
	require.NoError(t, err)
	require.NotNil(t, quote)
	require.Equal(t, 189.5, quote.Price)
	require.Equal(t, "USD", quote.Currency)
	require.Equal(t, now, quote.FetchedAt)

	// Refreshing replaces the row.
	require.NoError(t, store.PutCachedQuote(ctx, "finnhub", "AAPL", &core.Quote{
		Symbol: "AAPL", Price: 190.0, FetchedAt: now.Add(time.Minute),
	}))

	quote, err = store.GetCachedQuote(ctx, "finnhub", "AAPL")
	require.NoError(t, err)
	require.Equal(t, 190.0, quote.Price)
}

func TestSettingsAndFeedTracker(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	value, err := store.GetSetting(ctx, "last_seen_news")
	require.NoError(t, err)
	require.Empty(t, value)

	tracker := &FeedTracker{Store: store}
	require.NoError(t, tracker.SetLastSeen(ctx, core.FeedKindNews, "news_42"))

	seen, err := tracker.LastSeen(ctx, core.FeedKindNews)
	require.NoError(t, err)
	require.Equal(t, "news_42", seen)

	// Feeds track independently.
	seen, err = tracker.LastSeen(ctx, core.FeedKindEvents)
	require.NoError(t, err)
	require.Empty(t, seen)

	require.NoError(t, tracker.SetLastSeen(ctx, core.FeedKindNews, "news_43"))
	seen, err = tracker.LastSeen(ctx, core.FeedKindNews)
	require.NoError(t, err)
	require.Equal(t, "news_43", seen)
}

func TestEnsureColumnIdempotent(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	// Migrate ran once in openTestStore; running again must not fail.
	require.NoError(t, store.Migrate(ctx))
}
