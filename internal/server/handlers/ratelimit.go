package handlers

import (
	"net/http"
	"strings"
	"time"

	apperrors "github.com/stockhub-kr/stockhub/internal/errors"
)

// rateLimitRequest is the consume-one call. Window is in milliseconds
// to match the portal clients.
type rateLimitRequest struct {
	Key         string `json:"key"`
	MaxRequests int    `json:"maxRequests,omitempty"`
	WindowMs    int64  `json:"windowMs,omitempty"`
}

type rateLimitPeekResponse struct {
	Key     string `json:"key"`
	Exists  bool   `json:"exists"`
	Count   int    `json:"count,omitempty"`
	ResetAt string `json:"resetAt,omitempty"`
}

// RateLimitCheck consumes one slot for a key. Rejections answer 429
// with the seconds to wait; internal limiter failures answer as allowed.
func (a *API) RateLimitCheck(w http.ResponseWriter, r *http.Request) {
	if a.Guard == nil {
		respondUnavailable(w, r, "rate limiter")
		return
	}

	var req rateLimitRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, r, apperrors.WrapInvalidInput(r.Context(), err, "invalid rate limit request"))
		return
	}
	if strings.TrimSpace(req.Key) == "" {
		respondWithError(w, r, apperrors.NewInvalidInputError("key is required"))
		return
	}

	decision := a.Guard.Check(req.Key, req.MaxRequests, time.Duration(req.WindowMs)*time.Millisecond)
	if decision.Allowed {
		writeJSON(w, http.StatusOK, decision)
		return
	}
	writeJSON(w, http.StatusTooManyRequests, decision)
}

// RateLimitPeek reports a key's current window without consuming.
func (a *API) RateLimitPeek(w http.ResponseWriter, r *http.Request) {
	if a.Guard == nil {
		respondUnavailable(w, r, "rate limiter")
		return
	}

	key := strings.TrimSpace(r.URL.Query().Get("key"))
	if key == "" {
		respondWithError(w, r, apperrors.NewInvalidInputError("key query parameter is required"))
		return
	}

	resp := rateLimitPeekResponse{Key: key}
	if count, resetAt, ok := a.Guard.Peek(key); ok {
		resp.Exists = true
		resp.Count = count
		resp.ResetAt = resetAt.UTC().Format(time.RFC3339)
	}
	writeJSON(w, http.StatusOK, resp)
}

// GuardAction consumes one slot under a named policy (signup, signin,
// reset), keyed by caller identifier.
func (a *API) GuardAction(w http.ResponseWriter, r *http.Request) {
	if a.Guard == nil {
		respondUnavailable(w, r, "rate limiter")
		return
	}

	var req struct {
		Action string `json:"action"`
		Key    string `json:"key"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, r, apperrors.WrapInvalidInput(r.Context(), err, "invalid guard request"))
		return
	}
	if strings.TrimSpace(req.Action) == "" || strings.TrimSpace(req.Key) == "" {
		respondWithError(w, r, apperrors.NewInvalidInputError("action and key are required"))
		return
	}

	decision := a.Guard.Allow(req.Action, req.Key)
	if decision.Allowed {
		writeJSON(w, http.StatusOK, decision)
		return
	}
	writeJSON(w, http.StatusTooManyRequests, decision)
}
