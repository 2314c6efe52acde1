//go:build cgo

package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/stockhub-kr/stockhub/internal/config"
	"github.com/stockhub-kr/stockhub/internal/core"
	"github.com/stockhub-kr/stockhub/internal/core/community"
	"github.com/stockhub-kr/stockhub/internal/core/points"
	"github.com/stockhub-kr/stockhub/internal/core/store"
	"github.com/stockhub-kr/stockhub/internal/server/handlers"
)

func newPortalServer(t *testing.T) *Server {
	t.Helper()

	st, err := store.Open(context.Background(), config.StoreConfig{
		Driver: "libsql",
		Path:   ":memory:",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.Migrate(context.Background()))

	svc := community.NewService(st, points.NewAccumulator(st))
	return New("127.0.0.1", 0, &handlers.API{
		Community:  svc,
		Store:      st,
		AdminToken: "secret",
	})
}

func do(t *testing.T, srv *Server, method, path, body string, header ...string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func TestPostEndpoints(t *testing.T) {
	srv := newPortalServer(t)

	rec := do(t, srv, http.MethodPost, "/api/community/posts",
		`{"user_id":"u1","author":"trader","title":"Earnings","content":"<p>soon</p>"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var post core.Post
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&post))
	require.NotEmpty(t, post.ID)

	rec = do(t, srv, http.MethodGet, "/api/community/posts", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var posts []core.Post
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&posts))
	require.Len(t, posts, 1)

	rec = do(t, srv, http.MethodGet, "/api/community/posts/"+post.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, srv, http.MethodDelete, "/api/community/posts/"+post.ID+"?user_id=u2", "")
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = do(t, srv, http.MethodDelete, "/api/community/posts/"+post.ID+"?user_id=u1", "")
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, srv, http.MethodGet, "/api/community/posts/"+post.ID, "")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestVoteAndStatsEndpoints(t *testing.T) {
	srv := newPortalServer(t)

	rec := do(t, srv, http.MethodPost, "/api/votes",
		`{"target_id":"news_1","user_id":"u1","kind":"bullish"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var result struct {
		Voted bool           `json:"voted"`
		Stats core.NewsStats `json:"stats"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&result))
	require.True(t, result.Voted)
	require.Equal(t, 1, result.Stats.BullishVotes)

	rec = do(t, srv, http.MethodGet, "/api/news/news_1/stats", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var stats core.NewsStats
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&stats))
	require.Equal(t, 1, stats.BullishVotes)
	require.Equal(t, 0, stats.BearishVotes)
}

func TestLevelEndpoint(t *testing.T) {
	srv := newPortalServer(t)

	// Fresh users read as level 1 with 100 exp to the next level.
	rec := do(t, srv, http.MethodGet, "/api/levels/u1", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var level struct {
		UserID      string `json:"user_id"`
		Level       int    `json:"level"`
		Exp         int    `json:"exp"`
		ExpNeeded   int    `json:"exp_needed"`
		ToNextLevel int    `json:"to_next_level"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&level))
	require.Equal(t, 1, level.Level)
	require.Equal(t, 0, level.Exp)
	require.Equal(t, 100, level.ExpNeeded)
	require.Equal(t, 100, level.ToNextLevel)

	// Posting earns 5 exp.
	rec = do(t, srv, http.MethodPost, "/api/community/posts",
		`{"user_id":"u1","author":"trader","title":"t","content":"c"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = do(t, srv, http.MethodGet, "/api/levels/u1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&level))
	require.Equal(t, 5, level.Exp)
	require.Equal(t, 95, level.ToNextLevel)
}

func TestNoticeAdminFlow(t *testing.T) {
	srv := newPortalServer(t)

	rec := do(t, srv, http.MethodPost, "/api/notices",
		`{"title":"Maintenance","content":"Sunday","pinned":true}`,
		handlers.AdminTokenHeader, "secret")
	require.Equal(t, http.StatusCreated, rec.Code)

	var notice core.Notice
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&notice))

	// Reads are public.
	rec = do(t, srv, http.MethodGet, "/api/notices", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var notices []core.Notice
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&notices))
	require.Len(t, notices, 1)

	rec = do(t, srv, http.MethodDelete, "/api/notices/"+notice.ID, "",
		handlers.AdminTokenHeader, "secret")
	require.Equal(t, http.StatusNoContent, rec.Code)
}

func TestInquiryEndpoints(t *testing.T) {
	srv := newPortalServer(t)

	rec := do(t, srv, http.MethodPost, "/api/inquiries",
		`{"name":"Alex","email":"alex@example.com","subject":"s","message":"m"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var inquiry core.Inquiry
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&inquiry))

	// Listing is admin-gated.
	rec = do(t, srv, http.MethodGet, "/api/inquiries", "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(t, srv, http.MethodGet, "/api/inquiries", "",
		handlers.AdminTokenHeader, "secret")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, srv, http.MethodPost, "/api/inquiries/"+inquiry.ID+"/answered", "",
		handlers.AdminTokenHeader, "secret")
	require.Equal(t, http.StatusNoContent, rec.Code)
}
