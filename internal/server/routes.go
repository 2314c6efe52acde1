package server

import (
	"context"
	"os"

	"github.com/fulmenhq/gofulmen/signals"
	"go.uber.org/zap"

	"github.com/stockhub-kr/stockhub/internal/appid"
	"github.com/stockhub-kr/stockhub/internal/observability"
	"github.com/stockhub-kr/stockhub/internal/server/handlers"
)

// registerRoutes registers all HTTP routes
func (s *Server) registerRoutes() {
	api := s.api

	// Health and operational endpoints
	s.router.Get("/health", handlers.HealthHandler)
	s.router.Get("/health/live", handlers.LivenessHandler)
	s.router.Get("/health/ready", handlers.ReadinessHandler)
	s.router.Get("/health/startup", handlers.StartupHandler)
	s.router.Get("/version", handlers.VersionHandler)
	s.router.Get("/metrics", MetricsHandler)

	// Feeds
	s.router.Get("/api/news", api.NewsList)
	s.router.Get("/api/news/{id}", api.NewsByID)
	s.router.Get("/api/news/{id}/stats", api.NewsStats)
	s.router.Get("/api/events", api.EventsList)
	s.router.Get("/api/events/{id}", api.EventByID)
	s.router.Get("/api/live", api.Live)
	s.router.Get("/rss", api.RSS)

	// Rate limiting
	s.router.Post("/api/rate-limit", api.RateLimitCheck)
	s.router.Get("/api/rate-limit", api.RateLimitPeek)
	s.router.Post("/api/guard", api.GuardAction)

	// Community
	s.router.Post("/api/community/posts", api.PostCreate)
	s.router.Get("/api/community/posts", api.PostList)
	s.router.Get("/api/community/posts/{id}", api.PostGet)
	s.router.Put("/api/community/posts/{id}", api.PostUpdate)
	s.router.Delete("/api/community/posts/{id}", api.PostDelete)
	s.router.Post("/api/comments", api.CommentCreate)
	s.router.Get("/api/comments", api.CommentList)
	s.router.Delete("/api/comments/{id}", api.CommentDelete)
	s.router.Post("/api/votes", api.VoteCast)
	s.router.Get("/api/votes", api.VoteGet)
	s.router.Post("/api/bookmarks/toggle", api.BookmarkToggle)
	s.router.Get("/api/bookmarks", api.BookmarkList)

	// Notices and inquiries
	s.router.Get("/api/notices", api.NoticeList)
	s.router.Post("/api/notices", api.RequireAdmin(api.NoticeCreate))
	s.router.Put("/api/notices/{id}", api.RequireAdmin(api.NoticeUpdate))
	s.router.Delete("/api/notices/{id}", api.RequireAdmin(api.NoticeDelete))
	s.router.Post("/api/inquiries", api.InquiryCreate)
	s.router.Get("/api/inquiries", api.RequireAdmin(api.InquiryList))
	s.router.Post("/api/inquiries/{id}/answered", api.RequireAdmin(api.InquiryMarkAnswered))

	// Market data
	s.router.Get("/api/market-data", api.MarketData)
	s.router.Get("/api/stock-price", api.StockPrice)

	// Levels
	s.router.Get("/api/levels", api.Leaderboard)
	s.router.Get("/api/levels/{userId}", api.UserLevel)

	// Admin signal endpoint (optional, requires STOCKHUB_ADMIN_TOKEN)
	s.registerAdminEndpoint()
}

// registerAdminEndpoint optionally registers the admin signal endpoint
func (s *Server) registerAdminEndpoint() {
	ctx := context.Background()
	identity, _ := appid.Get(ctx)
	envPrefix := "STOCKHUB_"
	if identity != nil && identity.EnvPrefix != "" {
		envPrefix = identity.EnvPrefix
	}

	adminToken := os.Getenv(envPrefix + "ADMIN_TOKEN")
	logger := observability.ServerLogger

	if adminToken == "" {
		if logger != nil {
			logger.Debug("Admin signal endpoint disabled (no " + envPrefix + "ADMIN_TOKEN set)")
		}
		return
	}

	handler := signals.NewHTTPHandler(signals.HTTPConfig{
		TokenAuth: adminToken,
		RateLimit: 10,
		RateBurst: 5,
		Manager:   nil,
	})

	s.router.Post("/admin/signal", handler.ServeHTTP)

	if logger != nil {
		logger.Info("Admin signal endpoint enabled",
			zap.String("path", "/admin/signal"),
			zap.String("auth", "bearer token"),
			zap.String("rate_limit", "10/min, burst 5"))
		logger.Warn("Admin endpoint enabled - ensure this server is not exposed to public internet")
	}
}
