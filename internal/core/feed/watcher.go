package feed

import (
	"context"
	"sync"
	"time"

	"github.com/stockhub-kr/stockhub/internal/core"
	"github.com/stockhub-kr/stockhub/internal/metrics"
	"github.com/stockhub-kr/stockhub/internal/observability"
	"go.uber.org/zap"
)

// Default watcher cadence.
const (
	DefaultInterval       = 30 * time.Second
	DefaultBannerDuration = 3 * time.Second
)

// Notifier receives fresh entries detected by a watcher cycle.
type Notifier interface {
	Notify(ctx context.Context, feed core.FeedKind, fresh []Entry)
}

// Tracker durably records the newest seen id per feed, surviving
// process restarts.
type Tracker interface {
	LastSeen(ctx context.Context, feed core.FeedKind) (string, error)
	SetLastSeen(ctx context.Context, feed core.FeedKind, id string) error
}

// Banner is the transient fresh-items indicator surfaced to clients.
type Banner struct {
	Active    bool      `json:"active"`
	Items     []Entry   `json:"items,omitempty"`
	ExpiresAt time.Time `json:"expires_at,omitempty"`
}

// Watcher polls a feed and flags entries not seen on the previous cycle.
// Without a Tracker the first successful fetch only seeds the known set.
// With a Tracker the first cycle front-walks against the persisted
// last-seen id, so entries published while the process was down are
// still announced after a restart.
type Watcher struct {
	Feed           core.FeedKind
	Fetch          FetchFunc
	Interval       time.Duration
	BannerDuration time.Duration
	Notifiers      []Notifier
	Tracker        Tracker
	Clock          func() time.Time

	mu     sync.Mutex
	known  map[string]struct{}
	seeded bool
	banner Banner
}

// NewWatcher constructs a Watcher with default cadence.
func NewWatcher(feed core.FeedKind, fetch FetchFunc) *Watcher {
	return &Watcher{
		Feed:           feed,
		Fetch:          fetch,
		Interval:       DefaultInterval,
		BannerDuration: DefaultBannerDuration,
	}
}

// Run polls the feed until the context is cancelled. One cycle runs
// immediately, then on each tick.
func (w *Watcher) Run(ctx context.Context) {
	interval := w.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}

	w.Cycle(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.Cycle(ctx)
		}
	}
}

// Cycle runs one poll. Fetch errors are logged and swallowed so a bad
// cycle never kills the watcher; known state is left untouched and the
// next cycle retries.
func (w *Watcher) Cycle(ctx context.Context) {
	start := w.now()

	items, err := w.Fetch(ctx)
	if err != nil {
		if observability.ServerLogger != nil {
			observability.ServerLogger.Warn("feed fetch failed",
				zap.String("feed", string(w.Feed)),
				zap.Error(err),
			)
		}
		metrics.RecordWatcherCycle(string(w.Feed), "error", 0, w.now().Sub(start))
		return
	}

	if len(items) == 0 {
		metrics.RecordWatcherCycle(string(w.Feed), "empty", 0, w.now().Sub(start))
		return
	}

	firstCycle := !w.isSeeded()
	fresh := w.advance(items, w.seedFresh(ctx, firstCycle, items))

	if len(fresh) > 0 {
		w.notify(ctx, fresh)
	}
	if len(fresh) > 0 || firstCycle {
		// Persist the baseline even on a quiet seed cycle so the next
		// restart compares against it.
		w.recordLastSeen(ctx, items[0].ID)
	}

	metrics.RecordWatcherCycle(string(w.Feed), "ok", len(fresh), w.now().Sub(start))
}

// seedFresh resolves the fresh prefix for the first cycle from the
// durable tracker. An empty or missing persisted id seeds silently.
func (w *Watcher) seedFresh(ctx context.Context, firstCycle bool, items []Entry) []Entry {
	if !firstCycle || w.Tracker == nil {
		return nil
	}

	lastSeen, err := w.Tracker.LastSeen(ctx, w.Feed)
	if err != nil {
		if observability.ServerLogger != nil {
			observability.ServerLogger.Warn("failed to read last seen id",
				zap.String("feed", string(w.Feed)),
				zap.Error(err),
			)
		}
		return nil
	}
	if lastSeen == "" {
		return nil
	}
	return FreshSince(items, lastSeen)
}

func (w *Watcher) isSeeded() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.seeded
}

// advance updates the known set from the fetched items and returns the
// fresh prefix. The known set is replaced wholesale with the current
// feed contents, so ids that scroll off the feed are forgotten. On the
// first cycle seedFresh (from the durable tracker) stands in for the
// not-yet-populated known set.
func (w *Watcher) advance(items []Entry, seedFresh []Entry) []Entry {
	w.mu.Lock()
	defer w.mu.Unlock()

	var fresh []Entry
	if w.seeded {
		fresh = freshAgainst(items, w.known)
	} else {
		fresh = seedFresh
	}

	next := make(map[string]struct{}, len(items))
	for _, item := range items {
		next[item.ID] = struct{}{}
	}
	w.known = next
	w.seeded = true

	if len(fresh) > 0 {
		w.banner = Banner{
			Active:    true,
			Items:     fresh,
			ExpiresAt: w.now().Add(w.bannerDuration()),
		}
	}
	return fresh
}

// Banner returns the current fresh-items banner, clearing it once the
// display window has lapsed.
func (w *Watcher) Banner() Banner {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.banner.Active && !w.now().Before(w.banner.ExpiresAt) {
		w.banner = Banner{}
	}
	return w.banner
}

func (w *Watcher) notify(ctx context.Context, fresh []Entry) {
	for _, n := range w.Notifiers {
		n.Notify(ctx, w.Feed, fresh)
	}
}

func (w *Watcher) recordLastSeen(ctx context.Context, id string) {
	if w.Tracker == nil {
		return
	}
	if err := w.Tracker.SetLastSeen(ctx, w.Feed, id); err != nil && observability.ServerLogger != nil {
		observability.ServerLogger.Warn("failed to record last seen id",
			zap.String("feed", string(w.Feed)),
			zap.String("id", id),
			zap.Error(err),
		)
	}
}

func (w *Watcher) bannerDuration() time.Duration {
	if w.BannerDuration > 0 {
		return w.BannerDuration
	}
	return DefaultBannerDuration
}

func (w *Watcher) now() time.Time {
	if w.Clock != nil {
		return w.Clock()
	}
	return time.Now().UTC()
}

// LogNotifier logs fresh entries as they are detected.
type LogNotifier struct{}

func (LogNotifier) Notify(ctx context.Context, feed core.FeedKind, fresh []Entry) {
	if observability.ServerLogger == nil {
		return
	}
	titles := make([]string, 0, len(fresh))
	for _, item := range fresh {
		titles = append(titles, item.Title)
	}
	observability.ServerLogger.Info("fresh feed entries",
		zap.String("feed", string(feed)),
		zap.Int("count", len(fresh)),
		zap.Strings("titles", titles),
	)
}
