package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/stockhub-kr/stockhub/internal/core/points"
	apperrors "github.com/stockhub-kr/stockhub/internal/errors"
)

type levelResponse struct {
	UserID      string `json:"user_id"`
	Level       int    `json:"level"`
	Exp         int    `json:"exp"`
	ExpNeeded   int    `json:"exp_needed"`
	ToNextLevel int    `json:"to_next_level"`
	Season      int    `json:"season"`
}

// UserLevel handles GET /api/levels/{userId}. Users with no activity
// yet read as level 1 with zero experience.
func (a *API) UserLevel(w http.ResponseWriter, r *http.Request) {
	if a.Store == nil {
		respondUnavailable(w, r, "store")
		return
	}

	userID := strings.TrimSpace(chi.URLParam(r, "userId"))
	if userID == "" {
		respondWithError(w, r, apperrors.NewInvalidInputError("user id is required"))
		return
	}

	level, err := a.Store.GetUserLevel(r.Context(), userID)
	if err != nil {
		respondWithError(w, r, apperrors.WrapDatabaseError(r.Context(), err, "level lookup failed"))
		return
	}

	resp := levelResponse{
		UserID: userID,
		Level:  1,
		Season: points.DefaultSeason,
	}
	if level != nil {
		resp.Level = level.Level
		resp.Exp = level.Exp
		resp.Season = level.Season
	}
	resp.ExpNeeded = points.ExpNeeded(resp.Level)
	resp.ToNextLevel = points.ToNextLevel(resp.Exp, resp.Level)

	writeJSON(w, http.StatusOK, resp)
}

// Leaderboard handles GET /api/levels?limit=.
func (a *API) Leaderboard(w http.ResponseWriter, r *http.Request) {
	if a.Store == nil {
		respondUnavailable(w, r, "store")
		return
	}

	levels, err := a.Store.TopUserLevels(r.Context(), queryInt(r, "limit"))
	if err != nil {
		respondWithError(w, r, apperrors.WrapDatabaseError(r.Context(), err, "leaderboard lookup failed"))
		return
	}
	writeJSON(w, http.StatusOK, levels)
}
