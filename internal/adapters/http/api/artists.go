package api

import (
	"net/http"

	"github.com/okian/critic/internal/domain/model"
)

// ArtistsHandler serves the leaderboard and artist details.
type ArtistsHandler struct {
	deps CatalogDependencies
}

// NewArtistsHandler creates a new artists handler.
func NewArtistsHandler(deps CatalogDependencies) *ArtistsHandler {
	return &ArtistsHandler{deps: deps}
}

// HandleList handles GET /artists. Artists come in leaderboard order.
func (h *ArtistsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	artists, err := h.deps.ListArtists(r.Context())
	if err != nil {
		writeServiceError(w, "api.list_artists", err)
		return
	}
	if artists == nil {
		artists = []model.Artist{}
	}
	writeJSON(w, http.StatusOK, artists)
}

// HandleGet handles GET /artists/{artist_id}.
func (h *ArtistsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	detail, err := h.deps.GetArtist(r.Context(), r.PathValue("artist_id"))
	if err != nil {
		writeServiceError(w, "api.get_artist", err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}
