package model

// Bookmark is an album saved for later listening.
type Bookmark struct {
	SpotifyID       string `json:"spotify_id"`
	ArtistSpotifyID string `json:"artist_spotify_id"`
	ArtistName      string `json:"artist_name"`
	Name            string `json:"name"`
	ReleaseYear     int    `json:"release_year,omitempty"`
	ReleaseDate     string `json:"release_date"`
	ImageURL        string `json:"image_url,omitempty"`
}
