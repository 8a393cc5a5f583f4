// Package scoring derives album scores from track ratings and artist
// averages from album scores.
//
// Both computations are pure reductions over the complete current input.
// Callers recompute from the full member set after every mutation instead
// of adjusting a previous result.
package scoring

import (
	"github.com/okian/critic/internal/domain/model"
)

// maxScoreValue is the album score awarded when every counted track is rated
// model.MaxRating.
const maxScoreValue = 100

// AlbumScore converts track ratings into a 0..100 percentage. Ratings equal
// to model.NotASong are ignored. The second result is false when no rating
// counts, in which case the album has no score.
//
// Halves round up: 72.5 becomes 73.
func AlbumScore(ratings []model.TrackRating) (int, bool) {
	sum, count := 0, 0
	for _, r := range ratings {
		if r.Rating == model.NotASong {
			continue
		}
		sum += r.Rating
		count++
	}
	if count == 0 {
		return 0, false
	}
	return roundHalfUp(sum*maxScoreValue, model.MaxRating*count), true
}

// AlbumScorePtr is AlbumScore returning nil for an unscored album.
func AlbumScorePtr(ratings []model.TrackRating) *int {
	score, ok := AlbumScore(ratings)
	if !ok {
		return nil
	}
	return &score
}

// Average returns the unweighted mean of the defined scores. Nil entries are
// excluded from both sum and count; the second result is false when no
// entry is defined.
func Average(scores []*int) (float64, bool) {
	sum, count := 0, 0
	for _, s := range scores {
		if s == nil {
			continue
		}
		sum += *s
		count++
	}
	if count == 0 {
		return 0, false
	}
	return float64(sum) / float64(count), true
}

// ArtistAverage computes the average over an artist's albums.
func ArtistAverage(albums []model.Album) *float64 {
	scores := make([]*int, len(albums))
	for i := range albums {
		scores[i] = albums[i].ReviewScore
	}
	avg, ok := Average(scores)
	if !ok {
		return nil
	}
	return &avg
}

// roundHalfUp returns num/den rounded to the nearest integer, halves up.
// Integer arithmetic keeps exact halves such as 57.5 from drifting below.
func roundHalfUp(num, den int) int {
	return (2*num + den) / (2 * den)
}
