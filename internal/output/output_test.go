package output

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/stockhub-kr/stockhub/internal/core"
	"github.com/stockhub-kr/stockhub/internal/core/store"
)

func TestParseFormat(t *testing.T) {
	format, err := ParseFormat("table")
	require.NoError(t, err)
	require.Equal(t, FormatTable, format)

	format, err = ParseFormat("JSON")
	require.NoError(t, err)
	require.Equal(t, FormatJSON, format)

	format, err = ParseFormat("")
	require.NoError(t, err)
	require.Equal(t, FormatTable, format)

	_, err = ParseFormat("csv")
	require.Error(t, err)
}

func sampleEntries() []store.RateLimitEntry {
	backoff := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return []store.RateLimitEntry{
		{
			Endpoint: "finnhub.io",
			State: core.RateLimitState{
				RequestCount: 27,
				WindowStart:  time.Date(2026, 3, 1, 11, 59, 0, 0, time.UTC),
				BackoffUntil: &backoff,
			},
		},
		{
			Endpoint: "query1.finance.yahoo.com",
			State: core.RateLimitState{
				RequestCount: 3,
				WindowStart:  time.Date(2026, 3, 1, 11, 58, 30, 0, time.UTC),
			},
		},
	}
}

func TestJSONFormatterRoundTrips(t *testing.T) {
	formatter := &JSONFormatter{Indent: true}
	rendered, err := formatter.FormatRateLimits(sampleEntries())
	require.NoError(t, err)

	var decoded []store.RateLimitEntry
	require.NoError(t, json.Unmarshal([]byte(rendered), &decoded))
	require.Len(t, decoded, 2)
	require.Equal(t, "finnhub.io", decoded[0].Endpoint)
	require.Equal(t, 27, decoded[0].State.RequestCount)
	require.NotNil(t, decoded[0].State.BackoffUntil)
}

func TestJSONFormatterEmptyEntries(t *testing.T) {
	formatter := &JSONFormatter{}
	rendered, err := formatter.FormatRateLimits(nil)
	require.NoError(t, err)
	require.Equal(t, "[]", rendered)
}

func TestTableFormatterIncludesEndpoints(t *testing.T) {
	formatter := &TableFormatter{}
	rendered, err := formatter.FormatRateLimits(sampleEntries())
	require.NoError(t, err)
	require.Contains(t, rendered, "finnhub.io")
	require.Contains(t, rendered, "query1.finance.yahoo.com")
	require.Contains(t, rendered, "2 endpoint(s)")
}

func TestMarkdownFormatterEscapesPipes(t *testing.T) {
	entries := []store.RateLimitEntry{
		{
			Endpoint: "weird|endpoint",
			State: core.RateLimitState{
				RequestCount: 1,
				WindowStart:  time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
			},
		},
	}

	formatter := &MarkdownFormatter{}
	rendered, err := formatter.FormatRateLimits(entries)
	require.NoError(t, err)
	require.Contains(t, rendered, `weird\|endpoint`)
	require.True(t, strings.HasPrefix(rendered, "## Stored rate limits"))
}

func TestMarkdownFormatterEmptyEntries(t *testing.T) {
	formatter := &MarkdownFormatter{}
	rendered, err := formatter.FormatRateLimits(nil)
	require.NoError(t, err)
	require.Contains(t, rendered, "No stored rate limit state")
}

func TestNewFormatterSelection(t *testing.T) {
	require.IsType(t, &JSONFormatter{}, NewFormatter(FormatJSON))
	require.IsType(t, &MarkdownFormatter{}, NewFormatter(FormatMarkdown))
	require.IsType(t, &TableFormatter{}, NewFormatter(FormatTable))
}
