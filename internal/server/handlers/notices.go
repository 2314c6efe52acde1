package handlers

import (
	"crypto/subtle"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/stockhub-kr/stockhub/internal/core/community"
	apperrors "github.com/stockhub-kr/stockhub/internal/errors"
)

// AdminTokenHeader carries the shared admin secret for gated endpoints.
const AdminTokenHeader = "X-Admin-Token"

// RequireAdmin wraps a handler with the shared-token gate. With no
// token configured the endpoints stay disabled.
func (a *API) RequireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if a.AdminToken == "" {
			respondWithError(w, r, apperrors.NewForbiddenError("admin endpoints are disabled"))
			return
		}

		supplied := r.Header.Get(AdminTokenHeader)
		if subtle.ConstantTimeCompare([]byte(supplied), []byte(a.AdminToken)) != 1 {
			respondWithError(w, r, apperrors.NewUnauthorizedError("invalid admin token"))
			return
		}
		next(w, r)
	}
}

// NoticeList handles GET /api/notices, pinned first.
func (a *API) NoticeList(w http.ResponseWriter, r *http.Request) {
	if a.Community == nil {
		respondUnavailable(w, r, "community service")
		return
	}

	notices, err := a.Community.ListNotices(r.Context())
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, notices)
}

// NoticeCreate handles POST /api/notices. Admin only.
func (a *API) NoticeCreate(w http.ResponseWriter, r *http.Request) {
	if a.Community == nil {
		respondUnavailable(w, r, "community service")
		return
	}

	var in community.NoticeInput
	if err := decodeJSON(r, &in); err != nil {
		respondWithError(w, r, apperrors.WrapInvalidInput(r.Context(), err, "invalid notice body"))
		return
	}

	notice, err := a.Community.CreateNotice(r.Context(), in)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, notice)
}

// NoticeUpdate handles PUT /api/notices/{id}. Admin only.
func (a *API) NoticeUpdate(w http.ResponseWriter, r *http.Request) {
	if a.Community == nil {
		respondUnavailable(w, r, "community service")
		return
	}

	var in community.NoticeInput
	if err := decodeJSON(r, &in); err != nil {
		respondWithError(w, r, apperrors.WrapInvalidInput(r.Context(), err, "invalid notice body"))
		return
	}

	notice, err := a.Community.UpdateNotice(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, notice)
}

// NoticeDelete handles DELETE /api/notices/{id}. Admin only.
func (a *API) NoticeDelete(w http.ResponseWriter, r *http.Request) {
	if a.Community == nil {
		respondUnavailable(w, r, "community service")
		return
	}

	if err := a.Community.DeleteNotice(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
