package output

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/stockhub-kr/stockhub/internal/core/store"
)

// TableFormatter renders results as an ASCII table.
type TableFormatter struct{}

// FormatRateLimits renders rate limit entries as a table.
func (f *TableFormatter) FormatRateLimits(entries []store.RateLimitEntry) (string, error) {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Endpoint", "Requests", "Window Start", "Backoff Until", "Last 429"})

	for _, entry := range entries {
		t.AppendRow(table.Row{
			entry.Endpoint,
			entry.State.RequestCount,
			entry.State.WindowStart.UTC().Format("2006-01-02 15:04:05"),
			formatOptionalTime(entry.State.BackoffUntil),
			formatOptionalTime(entry.State.Last429At),
		})
	}

	if len(entries) > 0 {
		t.AppendFooter(table.Row{"", fmt.Sprintf("%d endpoint(s)", len(entries)), "", "", ""})
	}

	return t.Render(), nil
}
