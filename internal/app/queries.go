package service

import (
	"context"
	"errors"
	"slices"

	"github.com/okian/critic/internal/adapters/repository"
	"github.com/okian/critic/internal/domain/model"
)

// ListArtists returns every artist in leaderboard order.
func (s *Service) ListArtists(ctx context.Context) ([]model.Artist, error) {
	artists, err := s.store.ListArtists(ctx)
	if err != nil {
		return nil, classify("list artists", err)
	}
	return artists, nil
}

// GetArtist returns an artist, looked up by id or catalog id, with its
// albums, most recently reviewed first.
func (s *Service) GetArtist(ctx context.Context, id string) (model.ArtistDetail, error) {
	const op = "get artist"
	artist, err := s.store.ArtistByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		artist, err = s.store.ArtistBySpotifyID(ctx, id)
	}
	if err != nil {
		return model.ArtistDetail{}, classify(op, err)
	}
	albums, err := s.store.AlbumsByArtist(ctx, artist.ID)
	if err != nil {
		return model.ArtistDetail{}, classify(op, err)
	}
	slices.SortStableFunc(albums, func(a, b model.Album) int {
		return b.ReviewDate.Compare(a.ReviewDate)
	})
	if albums == nil {
		albums = []model.Album{}
	}
	return model.ArtistDetail{Artist: artist, Albums: albums}, nil
}

// ListAlbums returns every reviewed album, most recently reviewed first.
func (s *Service) ListAlbums(ctx context.Context) ([]model.Album, error) {
	albums, err := s.store.ListAlbums(ctx)
	if err != nil {
		return nil, classify("list albums", err)
	}
	return albums, nil
}

// GetAlbum returns a reviewed album by catalog id.
func (s *Service) GetAlbum(ctx context.Context, spotifyID string) (model.Album, error) {
	album, err := s.store.AlbumBySpotifyID(ctx, spotifyID)
	if err != nil {
		return model.Album{}, classify("get album", err)
	}
	return album, nil
}
