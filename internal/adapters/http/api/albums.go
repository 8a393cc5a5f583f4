package api

import (
	"net/http"
)

// AlbumsHandler serves reviewed albums.
type AlbumsHandler struct {
	deps CatalogDependencies
}

// NewAlbumsHandler creates a new albums handler.
func NewAlbumsHandler(deps CatalogDependencies) *AlbumsHandler {
	return &AlbumsHandler{deps: deps}
}

// HandleList handles GET /albums.
func (h *AlbumsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	albums, err := h.deps.ListAlbums(r.Context())
	if err != nil {
		writeServiceError(w, "api.list_albums", err)
		return
	}
	writeJSON(w, http.StatusOK, albums)
}

// HandleGet handles GET /albums/{album_id}.
func (h *AlbumsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	album, err := h.deps.GetAlbum(r.Context(), r.PathValue("album_id"))
	if err != nil {
		writeServiceError(w, "api.get_album", err)
		return
	}
	writeJSON(w, http.StatusOK, album)
}
