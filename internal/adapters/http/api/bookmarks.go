package api

import (
	"net/http"

	"github.com/okian/critic/internal/domain/model"
)

// BookmarksHandler serves the saved-for-later albums.
type BookmarksHandler struct {
	deps BookmarkDependencies
}

// NewBookmarksHandler creates a new bookmarks handler.
func NewBookmarksHandler(deps BookmarkDependencies) *BookmarksHandler {
	return &BookmarksHandler{deps: deps}
}

// HandleToggle handles POST /bookmarks/{album_id}/toggle.
func (h *BookmarksHandler) HandleToggle(w http.ResponseWriter, r *http.Request) {
	res, err := h.deps.ToggleBookmark(r.Context(), r.PathValue("album_id"))
	if err != nil {
		writeServiceError(w, "api.toggle_bookmark", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// HandleList handles GET /bookmarks.
func (h *BookmarksHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	list, err := h.deps.ListBookmarks(r.Context())
	if err != nil {
		writeServiceError(w, "api.list_bookmarks", err)
		return
	}
	if list == nil {
		list = []model.Bookmark{}
	}
	writeJSON(w, http.StatusOK, list)
}

// HandleRandom handles GET /bookmarks/random.
func (h *BookmarksHandler) HandleRandom(w http.ResponseWriter, r *http.Request) {
	b, err := h.deps.ChooseRandomBookmark(r.Context())
	if err != nil {
		writeServiceError(w, "api.random_bookmark", err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}
