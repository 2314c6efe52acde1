package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

// TestDefaultsFileShape guards the shipped defaults file against drift:
// every top-level config section must be present so layered loading
// never falls back to zero values silently.
func TestDefaultsFileShape(t *testing.T) {
	repoRoot := findRepoRootForTest(t)
	raw, err := os.ReadFile(filepath.Join(repoRoot, "config", "stockhub", "v0", "stockhub-defaults.yaml"))
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, yaml.Unmarshal(raw, &doc))

	for _, section := range []string{
		"server", "store", "guard", "points", "watch",
		"market", "mail", "logging", "metrics", "health",
	} {
		require.Contains(t, doc, section, "defaults file missing section %q", section)
	}

	guard, ok := doc["guard"].(map[string]any)
	require.True(t, ok)
	policies, ok := guard["policies"].(map[string]any)
	require.True(t, ok)
	for _, action := range []string{"signup", "signin", "reset"} {
		require.Contains(t, policies, action)
	}
}
