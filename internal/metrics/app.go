package metrics

import (
	"time"

	"github.com/stockhub-kr/stockhub/internal/observability"
)

// Application-level metrics following Prometheus conventions
var (
	// Guard (auth rate limiter) metrics
	GuardDecisionsTotal = "app_guard_decisions_total"

	// Points / leveling metrics
	PointsAwardsTotal = "app_points_awards_total"
	LevelUpsTotal     = "app_level_ups_total"

	// Feed watcher metrics
	WatcherCyclesTotal   = "app_watcher_cycles_total"
	WatcherFreshItems    = "app_watcher_fresh_items"
	WatcherCycleDuration = "app_watcher_cycle_duration_ms"

	// Market proxy metrics
	MarketFetchTotal = "app_market_fetch_total"

	// Mail dispatch metrics
	MailDispatchTotal = "app_mail_dispatch_total"

	// Health check metrics
	HealthCheckTotal    = "app_health_check_total"
	HealthCheckDuration = "app_health_check_duration_ms"

	// Server lifecycle metrics
	ServerStartTime = "app_server_start_time_seconds"
	ServerUptime    = "app_server_uptime_seconds"
)

// RecordGuardDecision records a rate-limit guard decision.
// Outcome is one of "allowed", "denied", "fail_open".
func RecordGuardDecision(action string, outcome string) {
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Counter(
			GuardDecisionsTotal,
			1,
			map[string]string{
				"action":  action,
				"outcome": outcome,
			},
		)
	}
}

// RecordPointsAward records a points award attempt with status
func RecordPointsAward(reason string, success bool) {
	status := "success"
	if !success {
		status = "failure"
	}

	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Counter(
			PointsAwardsTotal,
			1,
			map[string]string{
				"reason": reason,
				"status": status,
			},
		)
	}
}

// RecordLevelUps records level transitions produced by a single award
func RecordLevelUps(count int) {
	if count <= 0 {
		return
	}
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Counter(
			LevelUpsTotal,
			float64(count),
			nil,
		)
	}
}

// RecordWatcherCycle records one freshness poll cycle
func RecordWatcherCycle(feed string, outcome string, freshCount int, duration time.Duration) {
	if observability.TelemetrySystem == nil {
		return
	}

	_ = observability.TelemetrySystem.Counter(
		WatcherCyclesTotal,
		1,
		map[string]string{
			"feed":    feed,
			"outcome": outcome,
		},
	)

	_ = observability.TelemetrySystem.Gauge(
		WatcherFreshItems,
		float64(freshCount),
		map[string]string{"feed": feed},
	)

	_ = observability.TelemetrySystem.Histogram(
		WatcherCycleDuration,
		duration,
		map[string]string{"feed": feed},
	)
}

// RecordMarketFetch records an upstream market-data fetch
func RecordMarketFetch(provider string, success bool) {
	status := "success"
	if !success {
		status = "failure"
	}

	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Counter(
			MarketFetchTotal,
			1,
			map[string]string{
				"provider": provider,
				"status":   status,
			},
		)
	}
}

// RecordMailDispatch records an outbound mail attempt
func RecordMailDispatch(success bool) {
	status := "success"
	if !success {
		status = "failure"
	}

	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Counter(
			MailDispatchTotal,
			1,
			map[string]string{"status": status},
		)
	}
}

// RecordHealthCheck records a health check execution
func RecordHealthCheck(checkName string, healthy bool, duration time.Duration) {
	status := "healthy"
	if !healthy {
		status = "unhealthy"
	}

	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Counter(
			HealthCheckTotal,
			1,
			map[string]string{
				"check":  checkName,
				"status": status,
			},
		)

		_ = observability.TelemetrySystem.Histogram(
			HealthCheckDuration,
			duration,
			map[string]string{
				"check": checkName,
			},
		)
	}
}

// SetServerStartTime records the server start time (Unix timestamp)
func SetServerStartTime(timestamp int64) {
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Gauge(
			ServerStartTime,
			float64(timestamp),
			nil,
		)
	}
}

// SetServerUptime records the server uptime in seconds
func SetServerUptime(seconds int64) {
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Gauge(
			ServerUptime,
			float64(seconds),
			nil,
		)
	}
}
