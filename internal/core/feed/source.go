package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/stockhub-kr/stockhub/internal/core"
)

// Source reads a newest-first feed collection.
type Source interface {
	FetchNews(ctx context.Context) ([]core.NewsItem, error)
	FetchEvents(ctx context.Context) ([]core.EconomicEvent, error)
}

// OpenSource picks a file or HTTP source from a location string.
func OpenSource(ref string, timeout time.Duration) Source {
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return NewHTTPSource(ref, timeout)
	}
	return &FileSource{Path: ref}
}

// HTTPSource fetches feed contents from a JSON endpoint returning a
// newest-first array.
type HTTPSource struct {
	URL    string
	Client *http.Client
}

// NewHTTPSource constructs a source with a sensible request timeout.
func NewHTTPSource(url string, timeout time.Duration) *HTTPSource {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPSource{
		URL:    url,
		Client: &http.Client{Timeout: timeout},
	}
}

// FetchNews retrieves the current news list.
func (s *HTTPSource) FetchNews(ctx context.Context) ([]core.NewsItem, error) {
	var items []core.NewsItem
	if err := s.fetchJSON(ctx, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// FetchEvents retrieves the current economic calendar.
func (s *HTTPSource) FetchEvents(ctx context.Context) ([]core.EconomicEvent, error) {
	var events []core.EconomicEvent
	if err := s.fetchJSON(ctx, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// NewsFetch adapts a source to the watcher's FetchFunc.
func NewsFetch(src Source) FetchFunc {
	return func(ctx context.Context) ([]Entry, error) {
		items, err := src.FetchNews(ctx)
		if err != nil {
			return nil, err
		}
		return NewsEntries(items), nil
	}
}

// EventsFetch adapts a source to the watcher's FetchFunc.
func EventsFetch(src Source) FetchFunc {
	return func(ctx context.Context) ([]Entry, error) {
		events, err := src.FetchEvents(ctx)
		if err != nil {
			return nil, err
		}
		return EventEntries(events), nil
	}
}

func (s *HTTPSource) fetchJSON(ctx context.Context, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return fmt.Errorf("build feed request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch feed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetch feed: unexpected status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode feed: %w", err)
	}
	return nil
}

// FileSource reads feed contents from a JSON file on disk, the output
// of the offline ingestion pipeline.
type FileSource struct {
	Path string
}

// FetchNews reads the current news list.
func (s *FileSource) FetchNews(ctx context.Context) ([]core.NewsItem, error) {
	var items []core.NewsItem
	if err := s.readJSON(ctx, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// FetchEvents reads the current economic calendar.
func (s *FileSource) FetchEvents(ctx context.Context) ([]core.EconomicEvent, error) {
	var events []core.EconomicEvent
	if err := s.readJSON(ctx, &events); err != nil {
		return nil, err
	}
	return events, nil
}

func (s *FileSource) readJSON(ctx context.Context, out any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := os.ReadFile(s.Path)
	if err != nil {
		return fmt.Errorf("read feed file: %w", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode feed: %w", err)
	}
	return nil
}

// NewsEntries projects news items onto watcher entries.
func NewsEntries(items []core.NewsItem) []Entry {
	entries := make([]Entry, 0, len(items))
	for _, item := range items {
		entries = append(entries, Entry{ID: item.ID, Title: item.Title})
	}
	return entries
}

// EventEntries projects economic events onto watcher entries.
func EventEntries(events []core.EconomicEvent) []Entry {
	entries := make([]Entry, 0, len(events))
	for _, event := range events {
		entries = append(entries, Entry{ID: event.ID, Title: event.Title})
	}
	return entries
}
