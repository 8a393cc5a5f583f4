// Package ranking orders artists into the leaderboard.
//
// Ordering: average score DESC, artists without an average last. Artists
// with equal averages keep their previous relative order: the one already
// ranked higher stays higher, unranked artists follow ranked ones in input
// order. Positions are dense, 1..N.
//
// Every call re-sorts the full set, O(N log N). That is fine for catalogs of
// a few thousand artists; beyond that an order-statistics index would have to
// preserve the same tie rule.
package ranking

import (
	"cmp"
	"slices"

	"github.com/okian/critic/internal/domain/model"
)

// Entry is one leaderboard row.
type Entry struct {
	Position     int      `json:"position"`
	ArtistID     string   `json:"artist_id"`
	AverageScore *float64 `json:"average_score"`
}

// Rank returns the leaderboard for artists. The input slice is not modified;
// it must list artists in their current order (the order stores return them
// in), which decides ties among unranked artists.
func Rank(artists []model.Artist) []Entry {
	sorted := make([]model.Artist, len(artists))
	copy(sorted, artists)

	slices.SortStableFunc(sorted, compare)

	out := make([]Entry, len(sorted))
	for i, a := range sorted {
		out[i] = Entry{Position: i + 1, ArtistID: a.ID, AverageScore: a.AverageScore}
	}
	return out
}

// Positions returns the artist id -> position mapping for Rank(artists).
func Positions(artists []model.Artist) map[string]int {
	entries := Rank(artists)
	out := make(map[string]int, len(entries))
	for _, e := range entries {
		out[e.ArtistID] = e.Position
	}
	return out
}

// Changed returns only the positions that differ from the artists' current
// ones, which is what a store needs to write.
func Changed(artists []model.Artist, positions map[string]int) map[string]int {
	out := make(map[string]int)
	for _, a := range artists {
		if p, ok := positions[a.ID]; ok && p != a.LeaderboardPosition {
			out[a.ID] = p
		}
	}
	return out
}

// Valid reports whether positions over artists form exactly 1..N.
func Valid(artists []model.Artist) bool {
	seen := make([]bool, len(artists)+1)
	for _, a := range artists {
		p := a.LeaderboardPosition
		if p < 1 || p > len(artists) || seen[p] {
			return false
		}
		seen[p] = true
	}
	return true
}

// compare returns a negative value when a ranks ahead of b.
func compare(a, b model.Artist) int {
	if c := compareScore(a.AverageScore, b.AverageScore); c != 0 {
		return c
	}
	return comparePrior(a.LeaderboardPosition, b.LeaderboardPosition)
}

func compareScore(a, b *float64) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	}
	return cmp.Compare(*b, *a) // higher score ranks earlier
}

// comparePrior keeps ranked artists ahead of unranked ones and otherwise
// preserves their previous positions.
func comparePrior(a, b int) int {
	switch {
	case a > 0 && b > 0:
		return cmp.Compare(a, b)
	case a > 0:
		return -1
	case b > 0:
		return 1
	}
	return 0
}
