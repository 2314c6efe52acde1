package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/stockhub-kr/stockhub/internal/core/guard"
	apperrors "github.com/stockhub-kr/stockhub/internal/errors"
	"github.com/stockhub-kr/stockhub/internal/server/handlers"
)

func TestServerUsesStandardErrorHandlers(t *testing.T) {
	srv := New("127.0.0.1", 0, nil)

	req := httptest.NewRequest(http.MethodGet, "/does-not-exist", nil)
	rec := httptest.NewRecorder()

	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)

	var body apperrors.HTTPErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	require.Equal(t, "NOT_FOUND", body.Error.Code)
}

func TestRateLimitEndpoint(t *testing.T) {
	srv := New("127.0.0.1", 0, &handlers.API{Guard: guard.NewLimiter(nil)})

	consume := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/rate-limit",
			strings.NewReader(`{"key":"10.0.0.1","maxRequests":2,"windowMs":300000}`))
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, req)
		return rec
	}

	rec := consume()
	require.Equal(t, http.StatusOK, rec.Code)

	var decision guard.Decision
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&decision))
	require.True(t, decision.Allowed)
	require.Equal(t, 1, decision.Remaining)

	rec = consume()
	require.Equal(t, http.StatusOK, rec.Code)

	rec = consume()
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&decision))
	require.False(t, decision.Allowed)
	require.Equal(t, 0, decision.Remaining)
	require.Equal(t, 300, decision.RetryAfter)
}

func TestRateLimitEndpointRequiresKey(t *testing.T) {
	srv := New("127.0.0.1", 0, &handlers.API{Guard: guard.NewLimiter(nil)})

	req := httptest.NewRequest(http.MethodPost, "/api/rate-limit", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRateLimitPeekDoesNotConsume(t *testing.T) {
	limiter := guard.NewLimiter(nil)
	srv := New("127.0.0.1", 0, &handlers.API{Guard: limiter})

	req := httptest.NewRequest(http.MethodGet, "/api/rate-limit?key=10.0.0.1", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var peek struct {
		Key    string `json:"key"`
		Exists bool   `json:"exists"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&peek))
	require.Equal(t, "10.0.0.1", peek.Key)
	require.False(t, peek.Exists)
}

func TestGuardActionPolicies(t *testing.T) {
	srv := New("127.0.0.1", 0, &handlers.API{Guard: guard.NewLimiter(nil)})

	signup := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/guard",
			strings.NewReader(`{"action":"signup","key":"10.0.0.1"}`))
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, req)
		return rec
	}

	for i := 0; i < 3; i++ {
		require.Equal(t, http.StatusOK, signup().Code)
	}
	require.Equal(t, http.StatusTooManyRequests, signup().Code)

	// The signin budget is independent of signup.
	req := httptest.NewRequest(http.MethodPost, "/api/guard",
		strings.NewReader(`{"action":"signin","key":"10.0.0.1"}`))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestLiveBannerDefaultsInactive(t *testing.T) {
	srv := New("127.0.0.1", 0, &handlers.API{})

	req := httptest.NewRequest(http.MethodGet, "/api/live", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var banner struct {
		Active bool `json:"active"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&banner))
	require.False(t, banner.Active)
}

func TestAdminGate(t *testing.T) {
	t.Run("DisabledWithoutToken", func(t *testing.T) {
		srv := New("127.0.0.1", 0, &handlers.API{})

		req := httptest.NewRequest(http.MethodPost, "/api/notices",
			strings.NewReader(`{"title":"t","content":"c"}`))
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, req)

		require.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("RejectsWrongToken", func(t *testing.T) {
		srv := New("127.0.0.1", 0, &handlers.API{AdminToken: "secret"})

		req := httptest.NewRequest(http.MethodPost, "/api/notices",
			strings.NewReader(`{"title":"t","content":"c"}`))
		req.Header.Set(handlers.AdminTokenHeader, "wrong")
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, req)

		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestMarketDataRequiresSymbols(t *testing.T) {
	srv := New("127.0.0.1", 0, &handlers.API{})

	req := httptest.NewRequest(http.MethodGet, "/api/market-data", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	// No provider configured reads as unavailable, not a panic.
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestUnwiredDependenciesAnswerUnavailable(t *testing.T) {
	// A server with no backing services must answer 503 on every
	// dependent endpoint rather than panic on a nil dereference.
	srv := New("127.0.0.1", 0, &handlers.API{})

	paths := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/community/posts"},
		{http.MethodGet, "/api/community/posts/p1"},
		{http.MethodGet, "/api/comments?post_id=p1"},
		{http.MethodGet, "/api/votes?news_id=n1&user_id=u1"},
		{http.MethodGet, "/api/bookmarks?user_id=u1"},
		{http.MethodGet, "/api/news"},
		{http.MethodGet, "/api/news/n1/stats"},
		{http.MethodGet, "/api/events"},
		{http.MethodGet, "/api/levels/u1"},
		{http.MethodGet, "/api/levels"},
		{http.MethodGet, "/api/rate-limit?key=k"},
		{http.MethodGet, "/api/market-data?symbols=AAPL"},
	}
	for _, p := range paths {
		req := httptest.NewRequest(p.method, p.path, nil)
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, req)

		require.Equalf(t, http.StatusServiceUnavailable, rec.Code, "%s %s", p.method, p.path)

		var body apperrors.HTTPErrorResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
		require.Equalf(t, "SERVICE_UNAVAILABLE", body.Error.Code, "%s %s", p.method, p.path)
	}
}
