package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	gfconfig "github.com/fulmenhq/gofulmen/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func findRepoRootForTest(t *testing.T) string {
	cwd, err := os.Getwd()
	require.NoError(t, err)

	dir := cwd
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	t.Fatalf("could not locate repo root containing go.mod from %s", cwd)
	return ""
}

func TestLoad(t *testing.T) {
	ctx := context.Background()

	// Regression test: in CI containers the repo checkout may be outside $HOME.
	// When $HOME is not an ancestor of the repo, pathfinder's default home boundary
	// can prevent repo root discovery unless a CI boundary hint is applied.
	t.Run("CIBoundaryHint", func(t *testing.T) {
		repoRoot := findRepoRootForTest(t)
		t.Setenv("HOME", t.TempDir())
		t.Setenv("CI", "true")
		t.Setenv("FULMEN_WORKSPACE_ROOT", repoRoot)

		cfg, err := Load(ctx)
		require.NoError(t, err)
		require.NotNil(t, cfg)
	})

	// Test basic config loading with defaults
	t.Run("LoadDefaults", func(t *testing.T) {
		t.Setenv("XDG_DATA_HOME", t.TempDir())

		cfg, err := Load(ctx)
		require.NoError(t, err)
		require.NotNil(t, cfg)

		// Verify server defaults
		assert.Equal(t, "localhost", cfg.Server.Host)
		assert.Equal(t, 8080, cfg.Server.Port)
		assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
		assert.Equal(t, 30*time.Second, cfg.Server.WriteTimeout)
		assert.Equal(t, 120*time.Second, cfg.Server.IdleTimeout)
		assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)

		// Verify store defaults
		assert.Equal(t, "libsql", cfg.Store.Driver)
		expectedStorePath := filepath.Join(gfconfig.GetAppDataDir("stockhub"), "stockhub.db")
		assert.Equal(t, expectedStorePath, cfg.Store.Path)
		assert.Equal(t, "", cfg.Store.URL)
		assert.Equal(t, "", cfg.Store.AuthToken)

		// Verify guard defaults
		assert.Equal(t, 5, cfg.Guard.DefaultMax)
		assert.Equal(t, 5*time.Minute, cfg.Guard.DefaultWindow)
		assert.Equal(t, time.Minute, cfg.Guard.SweepInterval)
		require.Contains(t, cfg.Guard.Policies, "signup")
		assert.Equal(t, 3, cfg.Guard.Policies["signup"].Max)
		assert.Equal(t, 5*time.Minute, cfg.Guard.Policies["signup"].Window)
		require.Contains(t, cfg.Guard.Policies, "signin")
		assert.Equal(t, 5, cfg.Guard.Policies["signin"].Max)

		// Verify points defaults
		assert.Equal(t, 5, cfg.Points.PostReward)
		assert.Equal(t, 1, cfg.Points.CommentReward)
		assert.Equal(t, 1, cfg.Points.VoteReward)
		assert.Equal(t, 1, cfg.Points.Season)

		// Verify watch defaults
		assert.Equal(t, 30*time.Second, cfg.Watch.Interval)
		assert.Equal(t, 3*time.Second, cfg.Watch.BannerDuration)

		// Verify market defaults
		assert.Equal(t, 30*time.Second, cfg.Market.CacheTTL)

		// Verify rate limit defaults
		assert.Equal(t, 0.9, cfg.RateLimitMargin)

		// Verify logging defaults
		assert.Equal(t, "info", cfg.Logging.Level)
		assert.Equal(t, "SIMPLE", cfg.Logging.Profile)

		// Verify metrics defaults
		assert.True(t, cfg.Metrics.Enabled)
		assert.Equal(t, 9090, cfg.Metrics.Port)

		// Verify health defaults
		assert.True(t, cfg.Health.Enabled)

		// Verify debug defaults
		assert.False(t, cfg.Debug.Enabled)
		assert.False(t, cfg.Debug.PprofEnabled)

		// Verify workers default
		assert.Equal(t, 4, cfg.Workers)
	})

	// Test runtime overrides
	t.Run("RuntimeOverrides", func(t *testing.T) {
		overrides := map[string]any{
			"server": map[string]any{
				"port": 9000,
				"host": "0.0.0.0",
			},
			"logging": map[string]any{
				"level": "debug",
			},
		}

		cfg, err := Load(ctx, overrides)
		require.NoError(t, err)
		require.NotNil(t, cfg)

		// Verify overrides were applied
		assert.Equal(t, "0.0.0.0", cfg.Server.Host)
		assert.Equal(t, 9000, cfg.Server.Port)
		assert.Equal(t, "debug", cfg.Logging.Level)

		// Verify non-overridden values remain default
		assert.Equal(t, "SIMPLE", cfg.Logging.Profile)
		assert.Equal(t, 9090, cfg.Metrics.Port)
	})

	// Test environment variable overrides
	t.Run("EnvOverrides", func(t *testing.T) {
		require.NoError(t, os.Setenv("STOCKHUB_PORT", "3000"))
		require.NoError(t, os.Setenv("STOCKHUB_LOG_LEVEL", "warn"))
		require.NoError(t, os.Setenv("STOCKHUB_METRICS_ENABLED", "false"))
		require.NoError(t, os.Setenv("STOCKHUB_RATE_LIMIT_MARGIN", "0.8"))
		defer func() {
			_ = os.Unsetenv("STOCKHUB_PORT")
			_ = os.Unsetenv("STOCKHUB_LOG_LEVEL")
			_ = os.Unsetenv("STOCKHUB_METRICS_ENABLED")
			_ = os.Unsetenv("STOCKHUB_RATE_LIMIT_MARGIN")
		}()

		cfg, err := Load(ctx)
		require.NoError(t, err)
		require.NotNil(t, cfg)

		// Verify env overrides were applied
		assert.Equal(t, 3000, cfg.Server.Port)
		assert.Equal(t, "warn", cfg.Logging.Level)
		assert.False(t, cfg.Metrics.Enabled)
		assert.Equal(t, 0.8, cfg.RateLimitMargin)
	})

	// Test per-action guard policy env overrides
	t.Run("GuardPolicyEnvOverrides", func(t *testing.T) {
		require.NoError(t, os.Setenv("STOCKHUB_GUARD_POLICY_SIGNUP_MAX", "10"))
		require.NoError(t, os.Setenv("STOCKHUB_GUARD_POLICY_SIGNUP_WINDOW", "1m"))
		defer func() {
			_ = os.Unsetenv("STOCKHUB_GUARD_POLICY_SIGNUP_MAX")
			_ = os.Unsetenv("STOCKHUB_GUARD_POLICY_SIGNUP_WINDOW")
		}()

		cfg, err := Load(ctx)
		require.NoError(t, err)
		require.NotNil(t, cfg)

		require.Contains(t, cfg.Guard.Policies, "signup")
		assert.Equal(t, 10, cfg.Guard.Policies["signup"].Max)
		assert.Equal(t, time.Minute, cfg.Guard.Policies["signup"].Window)
	})

	// Test config precedence: runtime > env > defaults
	t.Run("ConfigPrecedence", func(t *testing.T) {
		require.NoError(t, os.Setenv("STOCKHUB_PORT", "4000"))
		defer func() {
			_ = os.Unsetenv("STOCKHUB_PORT")
		}()

		// Runtime override should win
		overrides := map[string]any{
			"server": map[string]any{
				"port": 5000,
			},
		}

		cfg, err := Load(ctx, overrides)
		require.NoError(t, err)
		require.NotNil(t, cfg)

		// Runtime override should take precedence over env var
		assert.Equal(t, 5000, cfg.Server.Port)
	})
}

func TestGetConfig(t *testing.T) {
	ctx := context.Background()

	cfg, err := Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	t.Run("GetConfigReturnsLoadedConfig", func(t *testing.T) {
		retrieved := GetConfig()
		assert.NotNil(t, retrieved)
		assert.Equal(t, cfg.Server.Port, retrieved.Server.Port)
		assert.Equal(t, cfg.Logging.Level, retrieved.Logging.Level)
	})
}

func TestEnvSpecs(t *testing.T) {
	// Need to set app identity for env specs
	ctx := context.Background()
	_, err := Load(ctx)
	require.NoError(t, err)

	specs := getEnvSpecs()
	assert.NotEmpty(t, specs)

	// Verify critical env var mappings exist
	envVarNames := make(map[string]bool)
	for _, spec := range specs {
		envVarNames[spec.Name] = true
	}

	// Check required Workhorse Standard env vars
	assert.True(t, envVarNames["STOCKHUB_LOG_LEVEL"], "LOG_LEVEL env var must be mapped")
	assert.True(t, envVarNames["STOCKHUB_PORT"], "PORT env var must be mapped")
	assert.True(t, envVarNames["STOCKHUB_HOST"], "HOST env var must be mapped")
	assert.True(t, envVarNames["STOCKHUB_METRICS_PORT"], "METRICS_PORT env var must be mapped")
	assert.True(t, envVarNames["STOCKHUB_DB_PATH"], "DB_PATH env var must be mapped")
	assert.True(t, envVarNames["STOCKHUB_FINNHUB_API_KEY"], "FINNHUB_API_KEY env var must be mapped")
	assert.True(t, envVarNames["STOCKHUB_ADMIN_PASSWORD"], "ADMIN_PASSWORD env var must be mapped")
}

func TestDurationParsing(t *testing.T) {
	ctx := context.Background()

	t.Run("DurationFromEnv", func(t *testing.T) {
		require.NoError(t, os.Setenv("STOCKHUB_READ_TIMEOUT", "45s"))
		require.NoError(t, os.Setenv("STOCKHUB_SHUTDOWN_TIMEOUT", "5m"))
		defer func() {
			_ = os.Unsetenv("STOCKHUB_READ_TIMEOUT")
			_ = os.Unsetenv("STOCKHUB_SHUTDOWN_TIMEOUT")
		}()

		cfg, err := Load(ctx)
		require.NoError(t, err)
		require.NotNil(t, cfg)

		assert.Equal(t, 45*time.Second, cfg.Server.ReadTimeout)
		assert.Equal(t, 5*time.Minute, cfg.Server.ShutdownTimeout)
	})
}

func TestConfigReload(t *testing.T) {
	ctx := context.Background()

	cfg1, err := Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, cfg1)
	initialPort := cfg1.Server.Port

	overrides := map[string]any{
		"server": map[string]any{
			"port": initialPort + 1000,
		},
	}

	cfg2, err := Load(ctx, overrides)
	require.NoError(t, err)
	require.NotNil(t, cfg2)

	// Verify reload updated the config
	assert.Equal(t, initialPort+1000, cfg2.Server.Port)

	// Verify GetConfig returns the updated config
	current := GetConfig()
	assert.Equal(t, cfg2.Server.Port, current.Server.Port)
}
