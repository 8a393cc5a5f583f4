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
	"github.com/okian/critic/internal/domain/scoring"
	"github.com/okian/critic/pkg/logger"
	"github.com/okian/critic/pkg/metrics"
)

// WarnArtistUnavailable is reported when a review was stored without its
// artist because the catalog could not describe the artist.
const WarnArtistUnavailable = "artist metadata unavailable; review saved without artist ranking"

// errNeedArtist aborts a create unit of work that found no artist row and
// has no catalog metadata to create one from yet.
var errNeedArtist = errors.New("artist metadata required")

// CreateReviewInput carries a new review and the album metadata the client
// already holds from the catalog.
type CreateReviewInput struct {
	AlbumSpotifyID  string              `json:"album_spotify_id"`
	Name            string              `json:"name"`
	ArtistSpotifyID string              `json:"artist_spotify_id"`
	ArtistName      string              `json:"artist_name"`
	ReleaseYear     int                 `json:"release_year"`
	Tracks          []model.ScoredTrack `json:"tracks"`
	BestSong        string              `json:"best_song"`
	WorstSong       string              `json:"worst_song"`
	Content         string              `json:"review_content"`
}

func (in CreateReviewInput) validate() error {
	switch {
	case strings.TrimSpace(in.AlbumSpotifyID) == "":
		return invalid("missing album_spotify_id")
	case strings.TrimSpace(in.ArtistSpotifyID) == "":
		return invalid("missing artist_spotify_id")
	case strings.TrimSpace(in.Name) == "":
		return invalid("missing name")
	}
	return validateTracks(in.Tracks)
}

// UpdateReviewInput carries the new values of an edit. A nil field keeps
// the stored value.
type UpdateReviewInput struct {
	Tracks    []model.ScoredTrack `json:"tracks,omitempty"`
	BestSong  *string             `json:"best_song,omitempty"`
	WorstSong *string             `json:"worst_song,omitempty"`
	Content   *string             `json:"review_content,omitempty"`
}

// ReviewResult is the outcome of a create or update.
type ReviewResult struct {
	Album    model.Album   `json:"album"`
	Artist   *model.Artist `json:"artist,omitempty"`
	Warnings []string      `json:"warnings,omitempty"`
}

func validateTracks(tracks []model.ScoredTrack) error {
	seen := make(map[string]struct{}, len(tracks))
	for _, t := range tracks {
		if strings.TrimSpace(t.TrackID) == "" {
			return invalid("track without track_id")
		}
		if t.Rating < model.NotASong || t.Rating > model.MaxRating {
			return invalid("track %s: rating %d outside %d..%d", t.TrackID, t.Rating, model.NotASong, model.MaxRating)
		}
		if _, dup := seen[t.TrackID]; dup {
			return invalid("track %s rated twice", t.TrackID)
		}
		seen[t.TrackID] = struct{}{}
	}
	return nil
}

func ratingsOf(tracks []model.ScoredTrack) []model.TrackRating {
	return model.Album{ScoredTracks: tracks}.Ratings()
}

// CreateReview reviews an unreviewed album. The owning artist is created on
// first review from catalog metadata; when the catalog fails the review is
// still stored, unlinked, and the result carries a warning.
func (s *Service) CreateReview(ctx context.Context, in CreateReviewInput) (res ReviewResult, err error) {
	const op = "create review"
	defer func() { recordTransition("create", err) }()

	if err := in.validate(); err != nil {
		return ReviewResult{}, classify(op, err)
	}
	score := scoring.AlbumScorePtr(ratingsOf(in.Tracks))

	var (
		meta        *catalog.Artist
		fetchFailed bool
	)
	for {
		res, err = s.createOnce(ctx, in, score, meta, fetchFailed)
		if !errors.Is(err, errNeedArtist) {
			break
		}
		// Catalog lookup runs outside the unit of work.
		a, ferr := s.catalog.Artist(ctx, in.ArtistSpotifyID)
		if ferr != nil {
			fetchFailed = true
			s.logger.Warn(ctx, "artist metadata fetch failed; storing review without artist",
				logger.String("album", in.AlbumSpotifyID),
				logger.String("artist", in.ArtistSpotifyID),
				logger.Error(ferr),
			)
			continue
		}
		meta = &a
	}
	if err != nil {
		return ReviewResult{}, classify(op, err)
	}
	if fetchFailed && res.Album.ArtistID == "" {
		metrics.RecordDegradedCreate()
		res.Warnings = append(res.Warnings, WarnArtistUnavailable)
	}

	s.logger.Info(ctx, "review created",
		logger.String("album", res.Album.SpotifyID),
		logger.String("artist", res.Album.ArtistID),
	)
	return res, nil
}

func (s *Service) createOnce(ctx context.Context, in CreateReviewInput, score *int, meta *catalog.Artist, fetchFailed bool) (ReviewResult, error) {
	var res ReviewResult
	err := s.withTx(ctx, "create", func(tx repository.Tx) error {
		res = ReviewResult{}
		if _, err := tx.AlbumBySpotifyID(ctx, in.AlbumSpotifyID); err == nil {
			return fmt.Errorf("album %s: %w", in.AlbumSpotifyID, ErrAlreadyReviewed)
		} else if !errors.Is(err, repository.ErrNotFound) {
			return err
		}

		artist, err := tx.ArtistBySpotifyID(ctx, in.ArtistSpotifyID)
		switch {
		case err == nil:
		case !errors.Is(err, repository.ErrNotFound):
			return err
		case meta != nil:
			artist = newArtist(in, *meta)
			if err := tx.InsertArtist(ctx, &artist); err != nil {
				return err
			}
			if _, err := tx.AdoptAlbums(ctx, artist.SpotifyID, artist.ID); err != nil {
				return err
			}
		case fetchFailed:
			artist = model.Artist{}
		default:
			return errNeedArtist
		}

		album := model.Album{
			SpotifyID:       in.AlbumSpotifyID,
			ArtistID:        artist.ID,
			ArtistSpotifyID: in.ArtistSpotifyID,
			ArtistName:      in.ArtistName,
			Name:            in.Name,
			ReleaseYear:     in.ReleaseYear,
			ScoredTracks:    slices.Clone(in.Tracks),
			BestSong:        in.BestSong,
			WorstSong:       in.WorstSong,
			ReviewContent:   in.Content,
			ReviewScore:     score,
			ReviewDate:      s.now().UTC(),
		}
		if err := tx.InsertAlbum(ctx, &album); err != nil {
			return err
		}

		if artist.ID != "" {
			if err := s.refreshAverage(ctx, tx, artist.ID); err != nil {
				return err
			}
		}
		if _, err := tx.DeleteBookmark(ctx, in.AlbumSpotifyID); err != nil {
			return err
		}
		if err := s.rerank(ctx, tx); err != nil {
			return err
		}

		res.Album = album
		if artist.ID != "" {
			fresh, err := tx.ArtistByID(ctx, artist.ID)
			if err != nil {
				return err
			}
			res.Artist = &fresh
		}
		return nil
	})
	return res, err
}

func newArtist(in CreateReviewInput, meta catalog.Artist) model.Artist {
	name := meta.Name
	if name == "" {
		name = in.ArtistName
	}
	return model.Artist{
		SpotifyID: in.ArtistSpotifyID,
		Name:      name,
		ImageURLs: meta.ImageURLs(),
	}
}

// refreshAverage recomputes an artist's average over every album it owns
// in the unit of work's current view.
func (s *Service) refreshAverage(ctx context.Context, tx repository.Tx, artistID string) error {
	albums, err := tx.AlbumsByArtist(ctx, artistID)
	if err != nil {
		return err
	}
	return tx.UpdateArtistAverage(ctx, artistID, scoring.ArtistAverage(albums))
}

// UpdateReview edits a review. Only fields that differ from the stored
// review are written; a rating change rescores the album, refreshes the
// artist average and re-ranks the leaderboard.
func (s *Service) UpdateReview(ctx context.Context, albumSpotifyID string, in UpdateReviewInput) (res ReviewResult, err error) {
	const op = "update review"
	defer func() { recordTransition("update", err) }()

	if in.Tracks != nil {
		if err := validateTracks(in.Tracks); err != nil {
			return ReviewResult{}, classify(op, err)
		}
	}

	var rescored bool
	err = s.withTx(ctx, "update", func(tx repository.Tx) error {
		res = ReviewResult{}
		rescored = false
		old, err := tx.AlbumBySpotifyID(ctx, albumSpotifyID)
		if err != nil {
			return err
		}

		switch {
		case in.Tracks == nil:
		case sameRatings(old.ScoredTracks, in.Tracks):
			// Order or display metadata only: the score cannot move.
			if !slices.Equal(old.ScoredTracks, in.Tracks) {
				if err := tx.UpdateAlbumScore(ctx, old.ID, slices.Clone(in.Tracks), old.ReviewScore); err != nil {
					return err
				}
			}
		default:
			score := scoring.AlbumScorePtr(ratingsOf(in.Tracks))
			if err := tx.UpdateAlbumScore(ctx, old.ID, slices.Clone(in.Tracks), score); err != nil {
				return err
			}
			if old.ArtistID != "" {
				if err := s.refreshAverage(ctx, tx, old.ArtistID); err != nil {
					return err
				}
			}
			if err := s.rerank(ctx, tx); err != nil {
				return err
			}
			rescored = true
		}
		if in.BestSong != nil && *in.BestSong != old.BestSong {
			if err := tx.UpdateAlbumBestSong(ctx, old.ID, *in.BestSong); err != nil {
				return err
			}
		}
		if in.WorstSong != nil && *in.WorstSong != old.WorstSong {
			if err := tx.UpdateAlbumWorstSong(ctx, old.ID, *in.WorstSong); err != nil {
				return err
			}
		}
		if in.Content != nil && *in.Content != old.ReviewContent {
			if err := tx.UpdateAlbumContent(ctx, old.ID, *in.Content); err != nil {
				return err
			}
		}

		if res.Album, err = tx.AlbumBySpotifyID(ctx, albumSpotifyID); err != nil {
			return err
		}
		if old.ArtistID != "" {
			a, err := tx.ArtistByID(ctx, old.ArtistID)
			if err != nil {
				return err
			}
			res.Artist = &a
		}
		return nil
	})
	if err != nil {
		return ReviewResult{}, classify(op, err)
	}

	s.logger.Info(ctx, "review updated",
		logger.String("album", albumSpotifyID),
		logger.Bool("rescored", rescored),
	)
	return res, nil
}

// sameRatings reports whether two track lists give every track the same
// rating. Track order and display metadata are ignored.
func sameRatings(a, b []model.ScoredTrack) bool {
	if len(a) != len(b) {
		return false
	}
	byTrack := make(map[string]int, len(a))
	for _, t := range a {
		byTrack[t.TrackID] = t.Rating
	}
	for _, t := range b {
		if r, ok := byTrack[t.TrackID]; !ok || r != t.Rating {
			return false
		}
	}
	return true
}

// DeleteReview removes a review. When artistID is set it must name the
// album's owner (by id or catalog id), otherwise the album is reported as
// not found. An artist left without albums is deleted.
func (s *Service) DeleteReview(ctx context.Context, albumSpotifyID, artistID string) (err error) {
	const op = "delete review"
	defer func() { recordTransition("delete", err) }()

	var artistRemoved bool
	err = s.withTx(ctx, "delete", func(tx repository.Tx) error {
		artistRemoved = false
		album, err := tx.AlbumBySpotifyID(ctx, albumSpotifyID)
		if err != nil {
			return err
		}
		if artistID != "" && artistID != album.ArtistID && artistID != album.ArtistSpotifyID {
			return fmt.Errorf("album %s of artist %s: %w", albumSpotifyID, artistID, ErrNotFound)
		}
		if err := tx.DeleteAlbum(ctx, album.ID); err != nil {
			return err
		}

		if album.ArtistID != "" {
			remaining, err := tx.AlbumsByArtist(ctx, album.ArtistID)
			if err != nil {
				return err
			}
			if len(remaining) == 0 {
				if err := tx.DeleteArtist(ctx, album.ArtistID); err != nil {
					return fmt.Errorf("removing artist without albums: %w: %w", ErrConsistency, err)
				}
				artistRemoved = true
			} else if err := tx.UpdateArtistAverage(ctx, album.ArtistID, scoring.ArtistAverage(remaining)); err != nil {
				return err
			}
		}
		return s.rerank(ctx, tx)
	})
	if err != nil {
		return classify(op, err)
	}

	s.logger.Info(ctx, "review deleted",
		logger.String("album", albumSpotifyID),
		logger.Bool("artistRemoved", artistRemoved),
	)
	return nil
}

func recordTransition(op string, err error) {
	outcome := "ok"
	switch {
	case err == nil:
	case errors.Is(err, ErrInvalidInput):
		outcome = "invalid"
	case errors.Is(err, ErrNotFound):
		outcome = "not_found"
	case errors.Is(err, ErrAlreadyReviewed):
		outcome = "conflict"
	default:
		outcome = "error"
	}
	metrics.RecordReviewTransition(op, outcome)
}
