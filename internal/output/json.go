package output

import (
	"encoding/json"

	"github.com/stockhub-kr/stockhub/internal/core/store"
)

// JSONFormatter renders results as JSON.
type JSONFormatter struct {
	Indent bool
}

// FormatRateLimits renders rate limit entries as JSON.
func (f *JSONFormatter) FormatRateLimits(entries []store.RateLimitEntry) (string, error) {
	if entries == nil {
		entries = []store.RateLimitEntry{}
	}

	var (
		data []byte
		err  error
	)

	if f.Indent {
		data, err = json.MarshalIndent(entries, "", "  ")
	} else {
		data, err = json.Marshal(entries)
	}
	if err != nil {
		return "", err
	}

	return string(data), nil
}
