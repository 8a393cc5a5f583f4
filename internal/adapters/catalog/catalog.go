// Package catalog is a client for the Spotify Web API, the external music
// catalog the review service reads artist and album metadata from.
package catalog

import (
	"errors"
	"fmt"
	"strconv"
)

// ErrFetch is the kind of every error returned by the client.
var ErrFetch = errors.New("catalog fetch failed")

// FetchError describes a failed catalog request. StatusCode is zero for
// transport failures.
type FetchError struct {
	Resource   string
	ID         string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("catalog %s %s: status %d", e.Resource, e.ID, e.StatusCode)
	}
	return fmt.Sprintf("catalog %s %s: %v", e.Resource, e.ID, e.Err)
}

// Unwrap exposes the transport or decoding cause.
func (e *FetchError) Unwrap() error { return e.Err }

// Is makes every FetchError match ErrFetch.
func (e *FetchError) Is(target error) bool { return target == ErrFetch }

// Image is a catalog image reference.
type Image struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

// ArtistRef is the short artist form embedded in album responses.
type ArtistRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Artist is the catalog's artist object.
type Artist struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Images []Image `json:"images"`
}

// ImageURLs returns the artist image urls, largest first as the catalog lists them.
func (a Artist) ImageURLs() []string {
	out := make([]string, 0, len(a.Images))
	for _, img := range a.Images {
		out = append(out, img.URL)
	}
	return out
}

// Track is an album track.
type Track struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	TrackNumber int    `json:"track_number"`
}

// Album is the catalog's album object.
type Album struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Artists     []ArtistRef `json:"artists"`
	Images      []Image     `json:"images"`
	ReleaseDate string      `json:"release_date"`
	Tracks      struct {
		Items []Track `json:"items"`
	} `json:"tracks"`
}

// PrimaryArtist returns the first credited artist.
func (a Album) PrimaryArtist() ArtistRef {
	if len(a.Artists) == 0 {
		return ArtistRef{}
	}
	return a.Artists[0]
}

// ImageURL returns the first (largest) cover image, if any.
func (a Album) ImageURL() string {
	if len(a.Images) == 0 {
		return ""
	}
	return a.Images[0].URL
}

// ReleaseYear parses the year out of ReleaseDate, which has year, month or
// day precision ("1999", "1999-05", "1999-05-04").
func (a Album) ReleaseYear() int {
	if len(a.ReleaseDate) < 4 {
		return 0
	}
	y, err := strconv.Atoi(a.ReleaseDate[:4])
	if err != nil {
		return 0
	}
	return y
}
