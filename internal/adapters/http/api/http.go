// Package api exposes the review service over JSON HTTP and registers its
// routes.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	service "github.com/okian/critic/internal/app"
	"github.com/okian/critic/internal/domain/model"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to the service implementation.
type Dependencies interface {
	ReviewDependencies
	CatalogDependencies
	BookmarkDependencies
}

// ReviewDependencies covers the review lifecycle transitions.
type ReviewDependencies interface {
	CreateReview(ctx context.Context, in service.CreateReviewInput) (service.ReviewResult, error)
	UpdateReview(ctx context.Context, albumID string, in service.UpdateReviewInput) (service.ReviewResult, error)
	DeleteReview(ctx context.Context, albumID, artistID string) error
}

// CatalogDependencies covers read access to reviewed albums and artists.
type CatalogDependencies interface {
	ListAlbums(ctx context.Context) ([]model.Album, error)
	GetAlbum(ctx context.Context, albumID string) (model.Album, error)
	ListArtists(ctx context.Context) ([]model.Artist, error)
	GetArtist(ctx context.Context, artistID string) (model.ArtistDetail, error)
}

// BookmarkDependencies covers the bookmark table.
type BookmarkDependencies interface {
	ToggleBookmark(ctx context.Context, albumID string) (service.ToggleResult, error)
	ListBookmarks(ctx context.Context) ([]model.Bookmark, error)
	ChooseRandomBookmark(ctx context.Context) (model.Bookmark, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler   *HealthHandler
	statsHandler    *StatsHandler
	reviewsHandler  *ReviewsHandler
	albumsHandler   *AlbumsHandler
	artistsHandler  *ArtistsHandler
	bookmarkHandler *BookmarksHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:   NewHealthHandler(),
		statsHandler:    NewStatsHandler(statsProvider),
		reviewsHandler:  NewReviewsHandler(deps),
		albumsHandler:   NewAlbumsHandler(deps),
		artistsHandler:  NewArtistsHandler(deps),
		bookmarkHandler: NewBookmarksHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	mux.HandleFunc("POST /reviews", MetricsMiddleware(s.reviewsHandler.HandleCreate, "reviews"))
	mux.HandleFunc("PATCH /reviews/{album_id}", MetricsMiddleware(s.reviewsHandler.HandleUpdate, "review"))
	mux.HandleFunc("DELETE /reviews/{album_id}", MetricsMiddleware(s.reviewsHandler.HandleDelete, "review"))

	mux.HandleFunc("GET /albums", MetricsMiddleware(s.albumsHandler.HandleList, "albums"))
	mux.HandleFunc("GET /albums/{album_id}", MetricsMiddleware(s.albumsHandler.HandleGet, "album"))

	mux.HandleFunc("GET /artists", MetricsMiddleware(s.artistsHandler.HandleList, "artists"))
	mux.HandleFunc("GET /artists/{artist_id}", MetricsMiddleware(s.artistsHandler.HandleGet, "artist"))

	mux.HandleFunc("GET /bookmarks", MetricsMiddleware(s.bookmarkHandler.HandleList, "bookmarks"))
	mux.HandleFunc("GET /bookmarks/random", MetricsMiddleware(s.bookmarkHandler.HandleRandom, "bookmarks_random"))
	mux.HandleFunc("POST /bookmarks/{album_id}/toggle", MetricsMiddleware(s.bookmarkHandler.HandleToggle, "bookmark_toggle"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// decodeBody decodes a single JSON object from the request body.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decoding body: %w", err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errors.New("body must contain a single JSON object")
	}
	return nil
}
