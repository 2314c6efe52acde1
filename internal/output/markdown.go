package output

import (
	"fmt"
	"strings"

	"github.com/stockhub-kr/stockhub/internal/core/store"
)

// MarkdownFormatter renders results as a markdown table.
type MarkdownFormatter struct{}

// FormatRateLimits renders rate limit entries as Markdown.
func (f *MarkdownFormatter) FormatRateLimits(entries []store.RateLimitEntry) (string, error) {
	var sb strings.Builder
	sb.WriteString("## Stored rate limits\n\n")
	sb.WriteString("| Endpoint | Requests | Window Start | Backoff Until | Last 429 |\n")
	sb.WriteString("|----------|----------|--------------|---------------|----------|\n")

	for _, entry := range entries {
		sb.WriteString(fmt.Sprintf("| %s | %d | %s | %s | %s |\n",
			escapeMarkdownCell(entry.Endpoint),
			entry.State.RequestCount,
			entry.State.WindowStart.UTC().Format("2006-01-02 15:04:05"),
			formatOptionalTime(entry.State.BackoffUntil),
			formatOptionalTime(entry.State.Last429At),
		))
	}

	if len(entries) == 0 {
		sb.WriteString("\n_No stored rate limit state._\n")
	}

	return sb.String(), nil
}

func escapeMarkdownCell(value string) string {
	return strings.ReplaceAll(value, "|", "\\|")
}
