package config

import (
	"time"
)

// Config represents the complete application configuration
// following the Fulmen Forge Workhorse Standard three-layer pattern:
// Layer 1: Crucible defaults (config/stockhub/v0/stockhub-defaults.yaml)
// Layer 2: User overrides (~/.config/stockhub/stockhub/config.yaml)
// Layer 3: Environment variables and runtime overrides
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Store   StoreConfig   `mapstructure:"store"`
	Guard   GuardConfig   `mapstructure:"guard"`
	Points  PointsConfig  `mapstructure:"points"`
	Watch   WatchConfig   `mapstructure:"watch"`
	Market  MarketConfig  `mapstructure:"market"`
	Mail    MailConfig    `mapstructure:"mail"`
	Admin   AdminConfig   `mapstructure:"admin"`
	Logging LoggingConfig `mapstructure:"logging"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Health  HealthConfig  `mapstructure:"health"`
	Debug   DebugConfig   `mapstructure:"debug"`
	Workers int           `mapstructure:"workers"`

	RateLimits      map[string]int `mapstructure:"rate_limits"`
	RateLimitMargin float64        `mapstructure:"rate_limit_margin"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// StoreConfig contains database configuration for libsql/Turso
type StoreConfig struct {
	Driver    string `mapstructure:"driver"`
	Path      string `mapstructure:"path"`
	URL       string `mapstructure:"url"`
	AuthToken string `mapstructure:"auth_token"`
}

// GuardConfig configures the in-memory request guard.
type GuardConfig struct {
	// DefaultMax is the attempt budget applied when no policy matches.
	DefaultMax int `mapstructure:"default_max"`

	// DefaultWindow is the window length applied when no policy matches.
	DefaultWindow time.Duration `mapstructure:"default_window"`

	// SweepInterval controls how often expired windows are evicted.
	SweepInterval time.Duration `mapstructure:"sweep_interval"`

	// Policies maps action names (signup, signin, reset) to per-action budgets.
	Policies map[string]GuardPolicy `mapstructure:"policies"`
}

// GuardPolicy is a per-action attempt budget.
type GuardPolicy struct {
	Max    int           `mapstructure:"max"`
	Window time.Duration `mapstructure:"window"`
}

// PointsConfig contains activity reward configuration.
type PointsConfig struct {
	PostReward    int `mapstructure:"post_reward"`
	CommentReward int `mapstructure:"comment_reward"`
	VoteReward    int `mapstructure:"vote_reward"`
	Season        int `mapstructure:"season"`
}

// WatchConfig contains feed freshness watcher configuration.
type WatchConfig struct {
	Interval       time.Duration `mapstructure:"interval"`
	BannerDuration time.Duration `mapstructure:"banner_duration"`
	NewsURL        string        `mapstructure:"news_url"`
	EventsURL      string        `mapstructure:"events_url"`
	Timeout        time.Duration `mapstructure:"timeout"`
}

// MarketConfig contains external market data provider configuration.
type MarketConfig struct {
	FinnhubAPIKey string        `mapstructure:"finnhub_api_key"`
	CacheTTL      time.Duration `mapstructure:"cache_ttl"`
	Timeout       time.Duration `mapstructure:"timeout"`
}

// MailConfig contains outbound mail delivery configuration.
type MailConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	APIKey     string `mapstructure:"api_key"`
	From       string `mapstructure:"from"`
	AdminEmail string `mapstructure:"admin_email"`
}

// AdminConfig contains admin surface configuration.
type AdminConfig struct {
	// Password gates notice management endpoints. Empty disables them.
	Password string `mapstructure:"password"`
}

// LoggingConfig contains logging configuration
// Supports progressive logging profiles per Fulmen Forge Workhorse Standard:
// - SIMPLE: Console output only, minimal configuration (CLI tools)
// - STRUCTURED: Structured sinks, correlation IDs (API services)
// - ENTERPRISE: Multiple sinks, middleware, throttling, policy enforcement (production)
type LoggingConfig struct {
	// Level controls the minimum log level
	// Valid values: trace, debug, info, warn, error
	Level string `mapstructure:"level"`

	// Profile selects the logging complexity level
	// Valid values: SIMPLE, STRUCTURED, ENTERPRISE
	Profile string `mapstructure:"profile"`
}

// MetricsConfig contains Prometheus metrics configuration
type MetricsConfig struct {
	// Enabled controls whether metrics are exposed
	Enabled bool `mapstructure:"enabled"`

	// Port is the dedicated metrics endpoint port (Prometheus format)
	// Metrics are also available at the main HTTP port in JSON format
	Port int `mapstructure:"port"`
}

// HealthConfig contains health check configuration
type HealthConfig struct {
	// Enabled controls whether health endpoints are exposed
	Enabled bool `mapstructure:"enabled"`
}

// DebugConfig contains debug and profiling configuration
type DebugConfig struct {
	// Enabled controls whether debug mode is active
	Enabled bool `mapstructure:"enabled"`

	// PprofEnabled controls whether pprof endpoints are exposed
	// WARNING: Only enable in development/staging environments
	PprofEnabled bool `mapstructure:"pprof_enabled"`
}
