package cmd

import (
	"context"
	"net/http"
	"time"

	"github.com/fulmenhq/gofulmen/signals"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/stockhub-kr/stockhub/internal/config"
	"github.com/stockhub-kr/stockhub/internal/core"
	"github.com/stockhub-kr/stockhub/internal/core/community"
	"github.com/stockhub-kr/stockhub/internal/core/engine"
	"github.com/stockhub-kr/stockhub/internal/core/feed"
	"github.com/stockhub-kr/stockhub/internal/core/guard"
	"github.com/stockhub-kr/stockhub/internal/core/market"
	"github.com/stockhub-kr/stockhub/internal/core/points"
	"github.com/stockhub-kr/stockhub/internal/core/store"
	errwrap "github.com/stockhub-kr/stockhub/internal/errors"
	"github.com/stockhub-kr/stockhub/internal/mail"
	"github.com/stockhub-kr/stockhub/internal/observability"
	"github.com/stockhub-kr/stockhub/internal/server"
	"github.com/stockhub-kr/stockhub/internal/server/handlers"
)

var (
	serverPort int
	serverHost string
)

// signalHealthChecker implements HealthChecker for signal system
type signalHealthChecker struct{}

func (s signalHealthChecker) CheckHealth(ctx context.Context) error {
	// Signal handlers are registered and ready
	return nil
}

// telemetryHealthChecker ensures telemetry system and exporter are available
type telemetryHealthChecker struct{}

func (telemetryHealthChecker) CheckHealth(ctx context.Context) error {
	if observability.TelemetrySystem == nil || observability.PrometheusExporter == nil {
		return errwrap.NewInternalError("telemetry system not initialized")
	}
	return nil
}

// identityHealthChecker validates app identity metadata
type identityHealthChecker struct {
	binaryName string
	envPrefix  string
	configName string
}

func (i identityHealthChecker) CheckHealth(ctx context.Context) error {
	switch {
	case i.binaryName == "":
		return errwrap.NewConfigInvalidError("app identity missing binary name")
	case i.envPrefix == "":
		return errwrap.NewConfigInvalidError("app identity missing env prefix")
	case i.configName == "":
		return errwrap.NewConfigInvalidError("app identity missing config name")
	}
	return nil
}

// storeHealthChecker pings the backing database
type storeHealthChecker struct {
	db *store.Store
}

func (s storeHealthChecker) CheckHealth(ctx context.Context) error {
	if s.db == nil || s.db.DB == nil {
		return errwrap.NewInternalError("store not initialized")
	}
	if err := s.db.DB.PingContext(ctx); err != nil {
		return errwrap.WrapDatabaseError(ctx, err, "store ping failed")
	}
	return nil
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Start the HTTP server with graceful shutdown support.

Signal Handling:
  • Ctrl+C (SIGINT) or SIGTERM: Graceful shutdown
  • Ctrl+C twice within 2s: Force quit
  • SIGHUP: Config reload (placeholder - restart recommended)

The server will cleanly shut down the HTTP server, close the store,
and flush logs on shutdown.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Get app identity for telemetry namespace
		identity := GetAppIdentity()
		namespace := identity.TelemetryNamespace()

		// Initialize server logger with namespace
		logLevel := viper.GetString("logging.level")
		observability.InitServerLogger(identity.BinaryName, logLevel, namespace)

		metricsPort := viper.GetInt("metrics.port")
		if metricsPort == 0 {
			metricsPort = 9090
		}

		// Initialize metrics with namespace
		if err := observability.InitMetrics(identity.BinaryName, metricsPort, namespace); err != nil {
			observability.ServerLogger.Error("Failed to initialize metrics",
				zap.Error(err))
			return errwrap.WrapInternal(cmd.Context(), err, "metrics initialization failed")
		}

		cfg, err := config.Load(cmd.Context())
		if err != nil {
			return errwrap.WrapConfigInvalid(cmd.Context(), err, "config load failed")
		}

		observability.ServerLogger.Info("Initializing server",
			zap.String("service", identity.BinaryName),
			zap.String("namespace", namespace),
			zap.String("version", versionInfo.Version),
			zap.String("host", serverHost),
			zap.Int("port", serverPort),
			zap.Int("metrics_port", metricsPort))

		db, err := store.Open(cmd.Context(), cfg.Store)
		if err != nil {
			return errwrap.WrapDatabaseError(cmd.Context(), err, "store open failed")
		}
		if err := db.Migrate(cmd.Context()); err != nil {
			_ = db.Close()
			return errwrap.WrapDatabaseError(cmd.Context(), err, "store migration failed")
		}

		// Background workers stop when this context is cancelled at shutdown.
		runCtx, cancelWorkers := context.WithCancel(context.Background())

		// In-process guard for auth-action budgets
		limiter := guard.NewLimiter(guardPolicies(cfg.Guard))
		limiter.Default = guard.Policy{Max: cfg.Guard.DefaultMax, Window: cfg.Guard.DefaultWindow}
		go limiter.RunJanitor(runCtx, cfg.Guard.SweepInterval)

		// Activity rewards
		accumulator := points.NewAccumulator(db)
		if rewards, ok := pointsRewards(cfg.Points); ok {
			accumulator.Rewards = rewards
		}
		if cfg.Points.Season > 0 {
			accumulator.Season = cfg.Points.Season
		}

		communityService := community.NewService(db, accumulator)

		// Outbound pacing for provider requests, persisted across restarts
		pacer := &engine.RateLimiter{Store: db}
		pacer.ApplyOverrides(cfg.RateLimits)
		pacer.ApplySafetyMargin(cfg.RateLimitMargin)

		yahoo := market.NewYahooClient(db, pacer)
		if cfg.Market.CacheTTL > 0 {
			yahoo.CacheTTL = cfg.Market.CacheTTL
		}
		if cfg.Market.Timeout > 0 {
			yahoo.Client = &http.Client{Timeout: cfg.Market.Timeout}
		}

		var finnhub *market.FinnhubClient
		if cfg.Market.FinnhubAPIKey != "" {
			finnhub = market.NewFinnhubClient(cfg.Market.FinnhubAPIKey, db, pacer)
			if cfg.Market.CacheTTL > 0 {
				finnhub.CacheTTL = cfg.Market.CacheTTL
			}
			if cfg.Market.Timeout > 0 {
				finnhub.Client = &http.Client{Timeout: cfg.Market.Timeout}
			}
		}

		// Feed sources and freshness watchers
		var (
			newsSource    feed.Source
			eventsSource  feed.Source
			newsWatcher   *feed.Watcher
			eventsWatcher *feed.Watcher
		)
		tracker := &store.FeedTracker{Store: db}
		if cfg.Watch.NewsURL != "" {
			newsSource = feed.OpenSource(cfg.Watch.NewsURL, cfg.Watch.Timeout)
			newsWatcher = newFeedWatcher(core.FeedKindNews, feed.NewsFetch(newsSource), cfg.Watch, tracker)
			go newsWatcher.Run(runCtx)
		}
		if cfg.Watch.EventsURL != "" {
			eventsSource = feed.OpenSource(cfg.Watch.EventsURL, cfg.Watch.Timeout)
			eventsWatcher = newFeedWatcher(core.FeedKindEvents, feed.EventsFetch(eventsSource), cfg.Watch, tracker)
			go eventsWatcher.Run(runCtx)
		}

		// Outbound mail relay for inquiries
		var dispatcher *mail.Dispatcher
		if cfg.Mail.Enabled && cfg.Mail.APIKey != "" {
			dispatcher = mail.NewDispatcher(mail.NewClient(cfg.Mail.APIKey), cfg.Mail.From, cfg.Mail.AdminEmail)
			go dispatcher.Run(runCtx)
		}

		// Initialize health manager
		handlers.InitHealthManager(versionInfo.Version)
		hm := handlers.GetHealthManager()
		hm.RegisterChecker("signal_handlers", signalHealthChecker{})
		hm.RegisterChecker("telemetry", telemetryHealthChecker{})
		hm.RegisterChecker("store", storeHealthChecker{db: db})
		hm.RegisterChecker("app_identity", identityHealthChecker{
			binaryName: identity.BinaryName,
			envPrefix:  identity.EnvPrefix,
			configName: identity.ConfigName,
		})

		api := &handlers.API{
			Guard:         limiter,
			Community:     communityService,
			Store:         db,
			News:          newsSource,
			Events:        eventsSource,
			NewsWatcher:   newsWatcher,
			EventsWatcher: eventsWatcher,
			Yahoo:         yahoo,
			Finnhub:       finnhub,
			Mail:          dispatcher,
			AdminToken:    cfg.Admin.Password,
		}

		// Create server
		srv := server.New(serverHost, serverPort, api)

		// Set app identity for handlers
		handlers.SetAppIdentity(identity)

		// Get shutdown timeout from config
		shutdownTimeout := viper.GetDuration("server.shutdown_timeout")
		if shutdownTimeout == 0 {
			shutdownTimeout = 10 * time.Second
		}

		// Register graceful shutdown handlers (LIFO order - last registered, first executed)
		// Handler 1: Flush logger (executed last)
		signals.OnShutdown(func(ctx context.Context) error {
			observability.ServerLogger.Info("Flushing logger...")
			if err := observability.ServerLogger.Sync(); err != nil {
				// Sync errors are often benign (stdout/stderr already closed)
				observability.ServerLogger.Warn("Logger sync returned error (may be benign)",
					zap.Error(err))
			}
			return nil
		})

		// Handler 2: Stop background workers and close the store
		signals.OnShutdown(func(ctx context.Context) error {
			observability.ServerLogger.Info("Stopping workers and closing store...")
			cancelWorkers()
			if err := db.Close(); err != nil {
				observability.ServerLogger.Warn("Store close returned error", zap.Error(err))
			}
			return nil
		})

		// Handler 3: Shutdown HTTP server (executed first)
		signals.OnShutdown(func(ctx context.Context) error {
			observability.ServerLogger.Info("Shutting down HTTP server...")
			shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
			defer cancel()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				return errwrap.WrapInternal(ctx, err, "server shutdown failed")
			}

			observability.ServerLogger.Info("HTTP server stopped gracefully")
			return nil
		})

		// Register config reload handler (SIGHUP)
		signals.OnReload(func(ctx context.Context) error {
			observability.ServerLogger.Info("Received SIGHUP: attempting config reload")

			// Attempt to reload configuration
			if err := viper.ReadInConfig(); err != nil {
				if _, ok := err.(viper.ConfigFileNotFoundError); ok {
					observability.ServerLogger.Info("No config file found - using defaults and environment variables")
					return nil
				}
				observability.ServerLogger.Error("Failed to reload config file",
					zap.String("file", viper.ConfigFileUsed()),
					zap.Error(err))
				return errwrap.WrapConfigInvalid(ctx, err, "config reload failed")
			}

			observability.ServerLogger.Info("Configuration reloaded successfully",
				zap.String("file", viper.ConfigFileUsed()))

			return nil
		})

		// Enable double-tap force quit (Ctrl+C within 2 seconds)
		if err := signals.EnableDoubleTap(signals.DoubleTapConfig{
			Window:  2 * time.Second,
			Message: "Press Ctrl+C again within 2 seconds to force quit",
		}); err != nil {
			observability.ServerLogger.Warn("Failed to enable double-tap force quit",
				zap.Error(err))
		}

		// Start server in background goroutine
		errChan := make(chan error, 1)
		go func() {
			observability.ServerLogger.Info("Starting HTTP server...",
				zap.String("host", serverHost),
				zap.Int("port", serverPort))
			if err := srv.Start(); err != nil && err != http.ErrServerClosed {
				errChan <- err
			}
		}()

		// Start signal listener in background
		go func() {
			if err := signals.Listen(cmd.Context()); err != nil {
				observability.ServerLogger.Error("Signal handler error", zap.Error(err))
				errChan <- err
			}
		}()

		// Wait for error or shutdown completion
		if err := <-errChan; err != nil {
			return errwrap.WrapInternal(cmd.Context(), err, "server error")
		}

		return nil
	},
}

// guardPolicies converts configured budgets; empty falls back to the defaults.
func guardPolicies(cfg config.GuardConfig) map[string]guard.Policy {
	if len(cfg.Policies) == 0 {
		return nil
	}
	policies := make(map[string]guard.Policy, len(cfg.Policies))
	for action, policy := range cfg.Policies {
		policies[action] = guard.Policy{Max: policy.Max, Window: policy.Window}
	}
	return policies
}

// pointsRewards reports the configured schedule when any reward is set.
func pointsRewards(cfg config.PointsConfig) (points.Rewards, bool) {
	if cfg.PostReward <= 0 && cfg.CommentReward <= 0 && cfg.VoteReward <= 0 {
		return points.Rewards{}, false
	}
	rewards := points.DefaultRewards
	if cfg.PostReward > 0 {
		rewards.Post = cfg.PostReward
	}
	if cfg.CommentReward > 0 {
		rewards.Comment = cfg.CommentReward
	}
	if cfg.VoteReward > 0 {
		rewards.Vote = cfg.VoteReward
	}
	return rewards, true
}

func newFeedWatcher(kind core.FeedKind, fetch feed.FetchFunc, cfg config.WatchConfig, tracker feed.Tracker) *feed.Watcher {
	w := feed.NewWatcher(kind, fetch)
	if cfg.Interval > 0 {
		w.Interval = cfg.Interval
	}
	if cfg.BannerDuration > 0 {
		w.BannerDuration = cfg.BannerDuration
	}
	w.Tracker = tracker
	w.Notifiers = []feed.Notifier{feed.LogNotifier{}}
	return w
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serverHost, "host", "localhost", "server host")
	serveCmd.Flags().IntVarP(&serverPort, "port", "p", 8080, "server port")

	_ = viper.BindPFlag("server.host", serveCmd.Flags().Lookup("host"))
	_ = viper.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))
}
