package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fulmenhq/gofulmen/signals"
	"github.com/spf13/cobra"

	"github.com/stockhub-kr/stockhub/internal/core"
	"github.com/stockhub-kr/stockhub/internal/core/feed"
	"github.com/stockhub-kr/stockhub/internal/core/store"
)

var (
	watchFeed     string
	watchSource   string
	watchInterval time.Duration
	watchTimeout  time.Duration
	watchTrack    bool
)

// printNotifier writes fresh entries to stdout for interactive use.
type printNotifier struct{}

func (printNotifier) Notify(ctx context.Context, kind core.FeedKind, fresh []feed.Entry) {
	fmt.Printf("[%s] %d fresh entr(ies)\n", kind, len(fresh))
	for _, entry := range fresh {
		fmt.Printf("  %s  %s\n", entry.ID, entry.Title)
	}
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Run a feed freshness watcher in the foreground",
	Long: `Poll a news or events feed and print fresh entries as they appear.

The source may be an HTTP(S) URL or a local JSON file. With --track the
last seen entry is persisted in the store so restarts do not re-announce
old entries.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := parseFeedKind(watchFeed)
		if err != nil {
			return err
		}
		if strings.TrimSpace(watchSource) == "" {
			return fmt.Errorf("--source is required")
		}

		src := feed.OpenSource(watchSource, watchTimeout)
		fetch := feed.NewsFetch(src)
		if kind == core.FeedKindEvents {
			fetch = feed.EventsFetch(src)
		}

		w := feed.NewWatcher(kind, fetch)
		if watchInterval > 0 {
			w.Interval = watchInterval
		}
		w.Notifiers = []feed.Notifier{printNotifier{}}

		if watchTrack {
			db, err := openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close() // nolint:errcheck // best-effort cleanup
			w.Tracker = &store.FeedTracker{Store: db}
		}

		runCtx, cancel := context.WithCancel(context.Background())
		defer cancel()

		signals.OnShutdown(func(ctx context.Context) error {
			cancel()
			return nil
		})
		go func() {
			_ = signals.Listen(cmd.Context())
		}()

		fmt.Printf("Watching %s feed at %s (interval %s). Ctrl+C to stop.\n", kind, watchSource, w.Interval)
		w.Run(runCtx)
		return nil
	},
}

func parseFeedKind(value string) (core.FeedKind, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", string(core.FeedKindNews):
		return core.FeedKindNews, nil
	case string(core.FeedKindEvents):
		return core.FeedKindEvents, nil
	default:
		return "", fmt.Errorf("unknown feed kind: %s (expected news or events)", value)
	}
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().StringVar(&watchFeed, "feed", string(core.FeedKindNews), "feed kind: news|events")
	watchCmd.Flags().StringVar(&watchSource, "source", "", "feed source URL or JSON file path")
	watchCmd.Flags().DurationVar(&watchInterval, "interval", 0, "poll interval (default from watcher)")
	watchCmd.Flags().DurationVar(&watchTimeout, "timeout", 10*time.Second, "HTTP fetch timeout")
	watchCmd.Flags().BoolVar(&watchTrack, "track", false, "persist last seen entry in the store")
}
