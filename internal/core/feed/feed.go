// Package feed watches upstream item feeds for fresh entries. Feeds are
// ordered newest first, so freshness detection walks the front of the
// list and stops at the first already-known id.
package feed

import "context"

// Entry is the minimal item shape the watcher tracks.
type Entry struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// FetchFunc retrieves the current feed contents, newest first.
type FetchFunc func(ctx context.Context) ([]Entry, error)

// FreshSince returns the leading entries that appear before lastSeenID.
// An empty lastSeenID, or one no longer present near the front, marks
// the entire list fresh.
func FreshSince(items []Entry, lastSeenID string) []Entry {
	if lastSeenID == "" {
		return items
	}
	for i, item := range items {
		if item.ID == lastSeenID {
			return items[:i]
		}
	}
	return items
}

// freshAgainst walks the front of items and stops at the first id
// present in known.
func freshAgainst(items []Entry, known map[string]struct{}) []Entry {
	for i, item := range items {
		if _, ok := known[item.ID]; ok {
			return items[:i]
		}
	}
	return items
}
