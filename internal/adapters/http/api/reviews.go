package api

import (
	"net/http"
	"strings"

	service "github.com/okian/critic/internal/app"
)

// ReviewsHandler handles review create/update/delete requests.
type ReviewsHandler struct {
	deps ReviewDependencies
}

// NewReviewsHandler creates a new reviews handler.
func NewReviewsHandler(deps ReviewDependencies) *ReviewsHandler {
	return &ReviewsHandler{deps: deps}
}

// HandleCreate handles POST /reviews.
func (h *ReviewsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	const op = "api.create_review"
	var req service.CreateReviewInput
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	res, err := h.deps.CreateReview(r.Context(), req)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// HandleUpdate handles PATCH /reviews/{album_id}.
func (h *ReviewsHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	const op = "api.update_review"
	albumID := strings.TrimSpace(r.PathValue("album_id"))
	if albumID == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	var req service.UpdateReviewInput
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	res, err := h.deps.UpdateReview(r.Context(), albumID, req)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// HandleDelete handles DELETE /reviews/{album_id}?artist_id=ID.
func (h *ReviewsHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	const op = "api.delete_review"
	albumID := strings.TrimSpace(r.PathValue("album_id"))
	if albumID == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	artistID := strings.TrimSpace(r.URL.Query().Get("artist_id"))
	if err := h.deps.DeleteReview(r.Context(), albumID, artistID); err != nil {
		writeServiceError(w, op, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
