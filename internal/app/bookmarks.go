package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/okian/critic/internal/adapters/catalog"
	"github.com/okian/critic/internal/adapters/repository"
	"github.com/okian/critic/internal/domain/model"
	"github.com/okian/critic/pkg/logger"
	"github.com/okian/critic/pkg/metrics"
)

// Bookmark toggle outcomes.
const (
	BookmarkAdded   = "added"
	BookmarkRemoved = "removed"
)

// ToggleResult reports which branch a toggle took.
type ToggleResult struct {
	Action   string          `json:"action"`
	Bookmark *model.Bookmark `json:"bookmark,omitempty"`
}

// ToggleBookmark removes the bookmark for albumSpotifyID when present, and
// otherwise creates it from catalog metadata. Reviewed albums cannot be
// bookmarked.
func (s *Service) ToggleBookmark(ctx context.Context, albumSpotifyID string) (ToggleResult, error) {
	const op = "toggle bookmark"
	if strings.TrimSpace(albumSpotifyID) == "" {
		return ToggleResult{}, classify(op, invalid("missing album id"))
	}

	var removed bool
	err := s.withTx(ctx, "toggle", func(tx repository.Tx) error {
		var err error
		removed, err = tx.DeleteBookmark(ctx, albumSpotifyID)
		return err
	})
	if err != nil {
		return ToggleResult{}, classify(op, err)
	}
	if removed {
		metrics.RecordBookmarkToggle(BookmarkRemoved)
		s.logger.Info(ctx, "bookmark removed", logger.String("album", albumSpotifyID))
		return ToggleResult{Action: BookmarkRemoved}, nil
	}

	if _, err := s.store.AlbumBySpotifyID(ctx, albumSpotifyID); err == nil {
		return ToggleResult{}, classify(op, fmt.Errorf("album %s: %w", albumSpotifyID, ErrAlreadyReviewed))
	} else if !errors.Is(err, repository.ErrNotFound) {
		return ToggleResult{}, classify(op, err)
	}

	meta, err := s.catalog.Album(ctx, albumSpotifyID)
	if err != nil {
		s.logger.Warn(ctx, "album metadata fetch failed",
			logger.String("album", albumSpotifyID),
			logger.Error(err),
		)
		return ToggleResult{}, fmt.Errorf("%s: %w: %w", op, ErrExternalFetch, err)
	}
	b := bookmarkFrom(albumSpotifyID, meta)

	err = s.withTx(ctx, "toggle", func(tx repository.Tx) error {
		// Re-check under the unit of work: a review may have been created
		// while the catalog was being queried.
		if _, err := tx.AlbumBySpotifyID(ctx, albumSpotifyID); err == nil {
			return fmt.Errorf("album %s: %w", albumSpotifyID, ErrAlreadyReviewed)
		} else if !errors.Is(err, repository.ErrNotFound) {
			return err
		}
		if existing, err := tx.BookmarkBySpotifyID(ctx, albumSpotifyID); err == nil {
			b = existing
			return nil
		}
		return tx.InsertBookmark(ctx, b)
	})
	if err != nil {
		return ToggleResult{}, classify(op, err)
	}

	metrics.RecordBookmarkToggle(BookmarkAdded)
	s.logger.Info(ctx, "bookmark added", logger.String("album", albumSpotifyID))
	return ToggleResult{Action: BookmarkAdded, Bookmark: &b}, nil
}

func bookmarkFrom(id string, a catalog.Album) model.Bookmark {
	artist := a.PrimaryArtist()
	return model.Bookmark{
		SpotifyID:       id,
		ArtistSpotifyID: artist.ID,
		ArtistName:      artist.Name,
		Name:            a.Name,
		ReleaseYear:     a.ReleaseYear(),
		ReleaseDate:     a.ReleaseDate,
		ImageURL:        a.ImageURL(),
	}
}

// ListBookmarks returns every bookmark in insertion order.
func (s *Service) ListBookmarks(ctx context.Context) ([]model.Bookmark, error) {
	list, err := s.store.ListBookmarks(ctx)
	if err != nil {
		return nil, classify("list bookmarks", err)
	}
	return list, nil
}

// ChooseRandomBookmark picks a bookmark uniformly at random and returns the
// earliest released bookmark of the same artist. Bookmarks with equal
// release dates keep insertion order.
func (s *Service) ChooseRandomBookmark(ctx context.Context) (model.Bookmark, error) {
	const op = "choose bookmark"
	list, err := s.store.ListBookmarks(ctx)
	if err != nil {
		return model.Bookmark{}, classify(op, err)
	}
	if len(list) == 0 {
		return model.Bookmark{}, fmt.Errorf("%s: no bookmarks: %w", op, ErrNotFound)
	}

	s.rngMu.Lock()
	picked := list[s.rng.IntN(len(list))]
	s.rngMu.Unlock()

	group := make([]model.Bookmark, 0, len(list))
	for _, b := range list {
		if b.ArtistSpotifyID == picked.ArtistSpotifyID {
			group = append(group, b)
		}
	}
	slices.SortStableFunc(group, func(a, b model.Bookmark) int {
		return strings.Compare(a.ReleaseDate, b.ReleaseDate)
	})
	return group[0], nil
}
