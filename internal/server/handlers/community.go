package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/stockhub-kr/stockhub/internal/core"
	"github.com/stockhub-kr/stockhub/internal/core/community"
	"github.com/stockhub-kr/stockhub/internal/core/store"
	apperrors "github.com/stockhub-kr/stockhub/internal/errors"
)

// PostCreate handles POST /api/community/posts.
func (a *API) PostCreate(w http.ResponseWriter, r *http.Request) {
	if a.Community == nil {
		respondUnavailable(w, r, "community service")
		return
	}

	var in community.PostInput
	if err := decodeJSON(r, &in); err != nil {
		respondWithError(w, r, apperrors.WrapInvalidInput(r.Context(), err, "invalid post body"))
		return
	}

	post, err := a.Community.CreatePost(r.Context(), in)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, post)
}

// PostList handles GET /api/community/posts.
func (a *API) PostList(w http.ResponseWriter, r *http.Request) {
	if a.Community == nil {
		respondUnavailable(w, r, "community service")
		return
	}

	q := store.PostQuery{
		Category: r.URL.Query().Get("category"),
		Limit:    queryInt(r, "limit"),
		Offset:   queryInt(r, "offset"),
	}

	posts, err := a.Community.ListPosts(r.Context(), q)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, posts)
}

// PostGet handles GET /api/community/posts/{id}; each read counts a view.
func (a *API) PostGet(w http.ResponseWriter, r *http.Request) {
	if a.Community == nil {
		respondUnavailable(w, r, "community service")
		return
	}

	post, err := a.Community.GetPost(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, post)
}

// PostUpdate handles PUT /api/community/posts/{id}.
func (a *API) PostUpdate(w http.ResponseWriter, r *http.Request) {
	if a.Community == nil {
		respondUnavailable(w, r, "community service")
		return
	}

	var in community.PostInput
	if err := decodeJSON(r, &in); err != nil {
		respondWithError(w, r, apperrors.WrapInvalidInput(r.Context(), err, "invalid post body"))
		return
	}

	post, err := a.Community.UpdatePost(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, post)
}

// PostDelete handles DELETE /api/community/posts/{id}?user_id=.
func (a *API) PostDelete(w http.ResponseWriter, r *http.Request) {
	if a.Community == nil {
		respondUnavailable(w, r, "community service")
		return
	}

	userID := strings.TrimSpace(r.URL.Query().Get("user_id"))
	if userID == "" {
		respondWithError(w, r, apperrors.NewInvalidInputError("user_id query parameter is required"))
		return
	}

	if err := a.Community.DeletePost(r.Context(), chi.URLParam(r, "id"), userID); err != nil {
		respondServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CommentCreate handles POST /api/comments.
func (a *API) CommentCreate(w http.ResponseWriter, r *http.Request) {
	if a.Community == nil {
		respondUnavailable(w, r, "community service")
		return
	}

	var in community.CommentInput
	if err := decodeJSON(r, &in); err != nil {
		respondWithError(w, r, apperrors.WrapInvalidInput(r.Context(), err, "invalid comment body"))
		return
	}

	comment, err := a.Community.AddComment(r.Context(), in)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, comment)
}

// CommentList handles GET /api/comments?news_id= or ?post_id=.
func (a *API) CommentList(w http.ResponseWriter, r *http.Request) {
	if a.Community == nil {
		respondUnavailable(w, r, "community service")
		return
	}

	targetID := r.URL.Query().Get("news_id")
	if targetID == "" {
		targetID = r.URL.Query().Get("post_id")
	}

	comments, err := a.Community.ListComments(r.Context(), targetID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, comments)
}

// CommentDelete handles DELETE /api/comments/{id}?user_id=.
func (a *API) CommentDelete(w http.ResponseWriter, r *http.Request) {
	if a.Community == nil {
		respondUnavailable(w, r, "community service")
		return
	}

	userID := strings.TrimSpace(r.URL.Query().Get("user_id"))
	if userID == "" {
		respondWithError(w, r, apperrors.NewInvalidInputError("user_id query parameter is required"))
		return
	}

	if err := a.Community.DeleteComment(r.Context(), chi.URLParam(r, "id"), userID); err != nil {
		respondServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type voteRequest struct {
	TargetID string `json:"target_id"`
	UserID   string `json:"user_id"`
	Kind     string `json:"kind"`
}

// VoteCast handles POST /api/votes; same-direction re-votes remove.
func (a *API) VoteCast(w http.ResponseWriter, r *http.Request) {
	if a.Community == nil {
		respondUnavailable(w, r, "community service")
		return
	}

	var req voteRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, r, apperrors.WrapInvalidInput(r.Context(), err, "invalid vote body"))
		return
	}

	voted, err := a.Community.Vote(r.Context(), req.TargetID, req.UserID, core.VoteKind(req.Kind))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	stats, err := a.Community.NewsStats(r.Context(), req.TargetID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"voted": voted,
		"stats": stats,
	})
}

// VoteGet handles GET /api/votes?news_id=&user_id=.
func (a *API) VoteGet(w http.ResponseWriter, r *http.Request) {
	if a.Community == nil {
		respondUnavailable(w, r, "community service")
		return
	}

	stats, err := a.Community.NewsStats(r.Context(), r.URL.Query().Get("news_id"))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

type bookmarkRequest struct {
	TargetID string `json:"target_id"`
	UserID   string `json:"user_id"`
}

// BookmarkToggle handles POST /api/bookmarks/toggle.
func (a *API) BookmarkToggle(w http.ResponseWriter, r *http.Request) {
	if a.Community == nil {
		respondUnavailable(w, r, "community service")
		return
	}

	var req bookmarkRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, r, apperrors.WrapInvalidInput(r.Context(), err, "invalid bookmark body"))
		return
	}

	saved, err := a.Community.ToggleBookmark(r.Context(), req.TargetID, req.UserID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"bookmarked": saved})
}

// BookmarkList handles GET /api/bookmarks?user_id=.
func (a *API) BookmarkList(w http.ResponseWriter, r *http.Request) {
	if a.Community == nil {
		respondUnavailable(w, r, "community service")
		return
	}

	bookmarks, err := a.Community.ListBookmarks(r.Context(), r.URL.Query().Get("user_id"))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, bookmarks)
}

func queryInt(r *http.Request, name string) int {
	n, _ := strconv.Atoi(r.URL.Query().Get(name))
	return n
}
