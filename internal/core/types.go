package core

import "time"

// FeedKind identifies the type of upstream feed being watched.
type FeedKind string

const (
	FeedKindNews   FeedKind = "news"
	FeedKindEvents FeedKind = "events"
)

// VoteKind is a sentiment vote direction on a news item.
type VoteKind string

const (
	VoteBullish VoteKind = "bullish"
	VoteBearish VoteKind = "bearish"
)

// AwardReason identifies the community activity earning points.
type AwardReason string

const (
	AwardPost    AwardReason = "post"
	AwardComment AwardReason = "comment"
	AwardVote    AwardReason = "vote"
)

// NewsItem is a single entry from the news feed, newest first.
type NewsItem struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Summary     string    `json:"summary,omitempty"`
	URL         string    `json:"url,omitempty"`
	Source      string    `json:"source,omitempty"`
	PublishedAt time.Time `json:"published_at"`
}

// EconomicEvent is a scheduled economic calendar entry.
type EconomicEvent struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Country     string    `json:"country,omitempty"`
	Importance  string    `json:"importance,omitempty"`
	Actual      string    `json:"actual,omitempty"`
	Forecast    string    `json:"forecast,omitempty"`
	Previous    string    `json:"previous,omitempty"`
	ScheduledAt time.Time `json:"scheduled_at"`
}

// Post is a community board entry.
type Post struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Author    string    `json:"author"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Category  string    `json:"category,omitempty"`
	Views     int       `json:"views"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Comment is attached to a news item or community post.
type Comment struct {
	ID        string    `json:"id"`
	TargetID  string    `json:"target_id"`
	UserID    string    `json:"user_id"`
	Author    string    `json:"author"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Vote records a user's sentiment on a news item. One vote per user
// per item; re-voting replaces the direction.
type Vote struct {
	ID        string    `json:"id"`
	TargetID  string    `json:"target_id"`
	UserID    string    `json:"user_id"`
	Kind      VoteKind  `json:"kind"`
	CreatedAt time.Time `json:"created_at"`
}

// Bookmark marks a news item saved by a user.
type Bookmark struct {
	ID        string    `json:"id"`
	TargetID  string    `json:"target_id"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Notice is an admin-published announcement. Pinned notices sort first.
type Notice struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Pinned    bool      `json:"pinned"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Inquiry is a contact-form submission relayed to the admin mailbox.
type Inquiry struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Subject   string    `json:"subject"`
	Message   string    `json:"message"`
	Answered  bool      `json:"answered"`
	CreatedAt time.Time `json:"created_at"`
}

// User is a registered account reference. Auth itself is delegated to
// the hosted identity provider; this row anchors foreign keys.
type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// UserLevel tracks accumulated experience for a user within a season.
type UserLevel struct {
	UserID    string    `json:"user_id"`
	Exp       int       `json:"exp"`
	Level     int       `json:"level"`
	Season    int       `json:"season"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewsStats aggregates community reaction counts for a news item.
type NewsStats struct {
	TargetID     string `json:"target_id"`
	BullishVotes int    `json:"bullish_votes"`
	BearishVotes int    `json:"bearish_votes"`
	CommentCount int    `json:"comment_count"`
}

// Quote is a normalized market quote from an upstream provider.
type Quote struct {
	Symbol        string    `json:"symbol"`
	Price         float64   `json:"price"`
	Change        float64   `json:"change"`
	ChangePercent float64   `json:"change_percent"`
	Currency      string    `json:"currency,omitempty"`
	FetchedAt     time.Time `json:"fetched_at"`
}

// RateLimitState captures per-endpoint outbound rate limiting state.
type RateLimitState struct {
	RequestCount int
	WindowStart  time.Time
	BackoffUntil *time.Time
	Last429At    *time.Time
}
