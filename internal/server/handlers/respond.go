package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/stockhub-kr/stockhub/internal/core/community"
	apperrors "github.com/stockhub-kr/stockhub/internal/errors"
)

// maxRequestBody caps JSON request bodies at 1 MiB.
const maxRequestBody = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decodeJSON(r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(nil, r.Body, maxRequestBody)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decode request body: %w", err)
	}
	return nil
}

// respondUnavailable answers 503 for an endpoint whose backing
// dependency was not wired at startup.
func respondUnavailable(w http.ResponseWriter, r *http.Request, what string) {
	respondWithError(w, r, apperrors.NewServiceUnavailableError(what+" not configured"))
}

// respondServiceError maps community sentinel errors onto envelopes so
// handlers stay a one-liner on the failure path.
func respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, community.ErrInvalid):
		respondWithError(w, r, apperrors.NewInvalidInputError(err.Error()))
	case errors.Is(err, community.ErrNotFound):
		respondWithError(w, r, apperrors.NewNotFoundError(err.Error()))
	case errors.Is(err, community.ErrForbidden):
		respondWithError(w, r, apperrors.NewForbiddenError(err.Error()))
	default:
		respondWithError(w, r, apperrors.WrapDatabaseError(r.Context(), err, "storage operation failed"))
	}
}
