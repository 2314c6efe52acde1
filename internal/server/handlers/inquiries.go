package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/stockhub-kr/stockhub/internal/core/community"
	apperrors "github.com/stockhub-kr/stockhub/internal/errors"
)

// InquiryCreate handles POST /api/inquiries; delivery to the admin
// mailbox is fire-and-forget.
func (a *API) InquiryCreate(w http.ResponseWriter, r *http.Request) {
	if a.Community == nil {
		respondUnavailable(w, r, "community service")
		return
	}

	var in community.InquiryInput
	if err := decodeJSON(r, &in); err != nil {
		respondWithError(w, r, apperrors.WrapInvalidInput(r.Context(), err, "invalid inquiry body"))
		return
	}

	var relay community.InquiryRelay
	if a.Mail != nil {
		relay = a.Mail
	}

	inquiry, err := a.Community.SubmitInquiry(r.Context(), in, relay)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, inquiry)
}

// InquiryList handles GET /api/inquiries. Admin only.
func (a *API) InquiryList(w http.ResponseWriter, r *http.Request) {
	if a.Community == nil {
		respondUnavailable(w, r, "community service")
		return
	}

	inquiries, err := a.Community.ListInquiries(r.Context(), queryInt(r, "limit"))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, inquiries)
}

// InquiryMarkAnswered handles POST /api/inquiries/{id}/answered. Admin only.
func (a *API) InquiryMarkAnswered(w http.ResponseWriter, r *http.Request) {
	if a.Community == nil {
		respondUnavailable(w, r, "community service")
		return
	}

	if err := a.Community.MarkInquiryAnswered(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
