// Package model contains domain models passed between layers.
package model

import "time"

// NotASong is the rating reserved for interludes, skits and other tracks
// that do not count towards an album score.
const NotASong = 0

// MaxRating is the highest rating a single track can receive.
const MaxRating = 10

// TrackRating is a single rating submitted with a review.
type TrackRating struct {
	TrackID string `json:"track_id"`
	Rating  int    `json:"rating"`
}

// ScoredTrack is a rated track as persisted on a reviewed album.
type ScoredTrack struct {
	TrackID     string `json:"track_id"`
	Name        string `json:"name,omitempty"`
	TrackNumber int    `json:"track_number,omitempty"`
	Rating      int    `json:"rating"`
}

// Album is a reviewed album. ArtistID is empty when the owning artist could
// not be materialized at review time; ArtistSpotifyID is always set so the
// album can be adopted once the artist row exists.
type Album struct {
	ID              string        `json:"id"`
	SpotifyID       string        `json:"spotify_id"`
	ArtistID        string        `json:"artist_id,omitempty"`
	ArtistSpotifyID string        `json:"artist_spotify_id"`
	ArtistName      string        `json:"artist_name,omitempty"`
	Name            string        `json:"name"`
	ReleaseYear     int           `json:"release_year,omitempty"`
	ScoredTracks    []ScoredTrack `json:"scored_tracks"`
	BestSong        string        `json:"best_song,omitempty"`
	WorstSong       string        `json:"worst_song,omitempty"`
	ReviewContent   string        `json:"review_content,omitempty"`
	ReviewScore     *int          `json:"review_score"`
	ReviewDate      time.Time     `json:"review_date"`
}

// Ratings returns the track ratings carried by the album's scored tracks.
func (a Album) Ratings() []TrackRating {
	out := make([]TrackRating, len(a.ScoredTracks))
	for i, t := range a.ScoredTracks {
		out[i] = TrackRating{TrackID: t.TrackID, Rating: t.Rating}
	}
	return out
}

// Clone returns a deep copy of the album.
func (a Album) Clone() Album {
	if a.ScoredTracks != nil {
		a.ScoredTracks = append([]ScoredTrack(nil), a.ScoredTracks...)
	}
	if a.ReviewScore != nil {
		v := *a.ReviewScore
		a.ReviewScore = &v
	}
	return a
}
