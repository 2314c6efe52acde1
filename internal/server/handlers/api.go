package handlers

import (
	"github.com/stockhub-kr/stockhub/internal/core/community"
	"github.com/stockhub-kr/stockhub/internal/core/feed"
	"github.com/stockhub-kr/stockhub/internal/core/guard"
	"github.com/stockhub-kr/stockhub/internal/core/market"
	"github.com/stockhub-kr/stockhub/internal/core/store"
	"github.com/stockhub-kr/stockhub/internal/mail"
)

// API bundles the portal's domain services for the HTTP handlers. Any
// field may be nil; the affected endpoints answer 503.
type API struct {
	Guard     *guard.Limiter
	Community *community.Service
	Store     *store.Store

	News   feed.Source
	Events feed.Source

	NewsWatcher   *feed.Watcher
	EventsWatcher *feed.Watcher

	Yahoo   *market.YahooClient
	Finnhub *market.FinnhubClient

	Mail *mail.Dispatcher

	// AdminToken gates notice writes and inquiry reads. Empty disables
	// those endpoints.
	AdminToken string
}
