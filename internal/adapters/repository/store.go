// Package repository persists artists, reviewed albums and bookmarks.
//
// All writes go through Store.WithTx. A unit of work either commits as a
// whole or leaves the store untouched; readers never observe a partially
// applied unit.
package repository

import (
	"context"

	"github.com/okian/critic/internal/domain/model"
)

// Reader exposes read access to committed (or, inside a Tx, in-flight) state.
type Reader interface {
	// ArtistByID and ArtistBySpotifyID return ErrNotFound for unknown artists.
	ArtistByID(ctx context.Context, id string) (model.Artist, error)
	ArtistBySpotifyID(ctx context.Context, spotifyID string) (model.Artist, error)
	// ListArtists returns all artists by leaderboard position, unranked
	// artists last in creation order.
	ListArtists(ctx context.Context) ([]model.Artist, error)

	AlbumBySpotifyID(ctx context.Context, spotifyID string) (model.Album, error)
	// ListAlbums returns all albums, most recently reviewed first.
	ListAlbums(ctx context.Context) ([]model.Album, error)
	// AlbumsByArtist returns the albums linked to an artist id.
	AlbumsByArtist(ctx context.Context, artistID string) ([]model.Album, error)

	BookmarkBySpotifyID(ctx context.Context, spotifyID string) (model.Bookmark, error)
	// ListBookmarks returns bookmarks in insertion order.
	ListBookmarks(ctx context.Context) ([]model.Bookmark, error)

	Counts(ctx context.Context) (Counts, error)
}

// Tx is a unit of work. It is only valid inside the WithTx callback.
type Tx interface {
	Reader

	// InsertArtist assigns an id when empty. Returns ErrConflict when the
	// spotify id is taken.
	InsertArtist(ctx context.Context, a *model.Artist) error
	UpdateArtistAverage(ctx context.Context, artistID string, avg *float64) error
	DeleteArtist(ctx context.Context, artistID string) error
	// SetLeaderboard writes positions for the given artist ids in one batch.
	SetLeaderboard(ctx context.Context, positions map[string]int) error

	// InsertAlbum assigns an id when empty. Returns ErrConflict when the
	// spotify id is taken.
	InsertAlbum(ctx context.Context, a *model.Album) error
	UpdateAlbumScore(ctx context.Context, albumID string, tracks []model.ScoredTrack, score *int) error
	UpdateAlbumBestSong(ctx context.Context, albumID, song string) error
	UpdateAlbumWorstSong(ctx context.Context, albumID, song string) error
	UpdateAlbumContent(ctx context.Context, albumID, content string) error
	DeleteAlbum(ctx context.Context, albumID string) error
	// AdoptAlbums links unowned albums of artistSpotifyID to artistID and
	// returns how many were linked.
	AdoptAlbums(ctx context.Context, artistSpotifyID, artistID string) (int, error)

	// InsertBookmark returns ErrConflict when the spotify id is bookmarked.
	InsertBookmark(ctx context.Context, b model.Bookmark) error
	// DeleteBookmark reports whether a row was removed.
	DeleteBookmark(ctx context.Context, spotifyID string) (bool, error)
}

// Store provides read/write access to the review state.
type Store interface {
	Reader
	// WithTx runs fn in a unit of work. A non-nil error from fn (or from the
	// commit) discards every write made through tx.
	WithTx(ctx context.Context, fn func(tx Tx) error) error
	Close() error
}

// Counts summarises table sizes.
type Counts struct {
	Artists   int `json:"artists"`
	Albums    int `json:"albums"`
	Bookmarks int `json:"bookmarks"`
}
