package handlers

import (
	"encoding/xml"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/stockhub-kr/stockhub/internal/core"
	"github.com/stockhub-kr/stockhub/internal/core/feed"
	apperrors "github.com/stockhub-kr/stockhub/internal/errors"
)

// NewsList serves the news feed, newest first.
func (a *API) NewsList(w http.ResponseWriter, r *http.Request) {
	if a.News == nil {
		respondUnavailable(w, r, "news source")
		return
	}

	items, err := a.News.FetchNews(r.Context())
	if err != nil {
		respondWithError(w, r, apperrors.WrapExternalService(r.Context(), err, "news feed unavailable"))
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// NewsByID serves a single news item.
func (a *API) NewsByID(w http.ResponseWriter, r *http.Request) {
	if a.News == nil {
		respondUnavailable(w, r, "news source")
		return
	}

	id := chi.URLParam(r, "id")
	items, err := a.News.FetchNews(r.Context())
	if err != nil {
		respondWithError(w, r, apperrors.WrapExternalService(r.Context(), err, "news feed unavailable"))
		return
	}

	for _, item := range items {
		if item.ID == id {
			writeJSON(w, http.StatusOK, item)
			return
		}
	}
	respondWithError(w, r, apperrors.NewNotFoundError("news item not found"))
}

// NewsStats serves vote/comment counts for a news item.
func (a *API) NewsStats(w http.ResponseWriter, r *http.Request) {
	if a.Community == nil {
		respondUnavailable(w, r, "community service")
		return
	}

	stats, err := a.Community.NewsStats(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// EventsList serves the economic calendar.
func (a *API) EventsList(w http.ResponseWriter, r *http.Request) {
	if a.Events == nil {
		respondUnavailable(w, r, "events source")
		return
	}

	events, err := a.Events.FetchEvents(r.Context())
	if err != nil {
		respondWithError(w, r, apperrors.WrapExternalService(r.Context(), err, "events feed unavailable"))
		return
	}
	writeJSON(w, http.StatusOK, events)
}

// EventByID serves a single calendar entry.
func (a *API) EventByID(w http.ResponseWriter, r *http.Request) {
	if a.Events == nil {
		respondUnavailable(w, r, "events source")
		return
	}

	id := chi.URLParam(r, "id")
	events, err := a.Events.FetchEvents(r.Context())
	if err != nil {
		respondWithError(w, r, apperrors.WrapExternalService(r.Context(), err, "events feed unavailable"))
		return
	}

	for _, event := range events {
		if event.ID == id {
			writeJSON(w, http.StatusOK, event)
			return
		}
	}
	respondWithError(w, r, apperrors.NewNotFoundError("event not found"))
}

type liveResponse struct {
	Active bool         `json:"active"`
	Items  []feed.Entry `json:"items,omitempty"`
}

// Live serves the watcher's transient fresh-items banner.
func (a *API) Live(w http.ResponseWriter, r *http.Request) {
	resp := liveResponse{}
	if a.NewsWatcher != nil {
		banner := a.NewsWatcher.Banner()
		resp.Active = banner.Active
		resp.Items = banner.Items
	}
	writeJSON(w, http.StatusOK, resp)
}

type rssFeed struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title       string    `xml:"title"`
	Link        string    `xml:"link"`
	Description string    `xml:"description"`
	Items       []rssItem `xml:"item"`
}

type rssItem struct {
	Title   string `xml:"title"`
	Link    string `xml:"link,omitempty"`
	GUID    string `xml:"guid"`
	PubDate string `xml:"pubDate"`
	Desc    string `xml:"description,omitempty"`
}

// RSS serves the news feed as RSS 2.0.
func (a *API) RSS(w http.ResponseWriter, r *http.Request) {
	if a.News == nil {
		respondUnavailable(w, r, "news source")
		return
	}

	items, err := a.News.FetchNews(r.Context())
	if err != nil {
		respondWithError(w, r, apperrors.WrapExternalService(r.Context(), err, "news feed unavailable"))
		return
	}

	doc := rssFeed{
		Version: "2.0",
		Channel: rssChannel{
			Title:       "StockHub News",
			Link:        "https://" + r.Host,
			Description: "Latest market news",
			Items:       rssItems(items),
		},
	}

	w.Header().Set("Content-Type", "application/rss+xml; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(xml.Header))
	_ = xml.NewEncoder(w).Encode(doc)
}

func rssItems(items []core.NewsItem) []rssItem {
	out := make([]rssItem, 0, len(items))
	for _, item := range items {
		out = append(out, rssItem{
			Title:   item.Title,
			Link:    item.URL,
			GUID:    item.ID,
			PubDate: item.PublishedAt.UTC().Format(time.RFC1123Z),
			Desc:    item.Summary,
		})
	}
	return out
}
