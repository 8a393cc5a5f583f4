package model

import "time"

// Artist owns one or more reviewed albums. AverageScore is nil when none of
// the artist's albums has a score. LeaderboardPosition is zero only for an
// artist that has not been ranked yet.
type Artist struct {
	ID                  string    `json:"id"`
	SpotifyID           string    `json:"spotify_id"`
	Name                string    `json:"name"`
	ImageURLs           []string  `json:"image_urls"`
	AverageScore        *float64  `json:"average_score"`
	LeaderboardPosition int       `json:"leaderboard_position"`
	CreatedAt           time.Time `json:"created_at"`
}

// Clone returns a deep copy of the artist.
func (a Artist) Clone() Artist {
	if a.ImageURLs != nil {
		a.ImageURLs = append([]string(nil), a.ImageURLs...)
	}
	if a.AverageScore != nil {
		v := *a.AverageScore
		a.AverageScore = &v
	}
	return a
}

// ArtistDetail is an artist together with the albums it owns.
type ArtistDetail struct {
	Artist
	Albums []Album `json:"albums"`
}
