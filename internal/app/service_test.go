package service_test

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"github.com/okian/critic/internal/adapters/catalog"
	"github.com/okian/critic/internal/adapters/repository"
	service "github.com/okian/critic/internal/app"
	"github.com/okian/critic/internal/domain/model"
	"github.com/okian/critic/internal/domain/ranking"
	"github.com/okian/critic/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

type fakeCatalog struct {
	mu          sync.Mutex
	artists     map[string]catalog.Artist
	albums      map[string]catalog.Album
	down        bool
	artistCalls int
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{artists: map[string]catalog.Artist{}, albums: map[string]catalog.Album{}}
}

func (f *fakeCatalog) Artist(_ context.Context, id string) (catalog.Artist, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.artistCalls++
	a, ok := f.artists[id]
	if f.down || !ok {
		return catalog.Artist{}, &catalog.FetchError{Resource: "artist", ID: id, StatusCode: 503}
	}
	return a, nil
}

func (f *fakeCatalog) Album(_ context.Context, id string) (catalog.Album, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.albums[id]
	if f.down || !ok {
		return catalog.Album{}, &catalog.FetchError{Resource: "album", ID: id, StatusCode: 404}
	}
	return a, nil
}

func (f *fakeCatalog) addArtist(id, name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.artists[id] = catalog.Artist{ID: id, Name: name, Images: []catalog.Image{{URL: "https://img/" + id}}}
}

func (f *fakeCatalog) addAlbum(id, artistID, releaseDate string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.albums[id] = catalog.Album{
		ID: id, Name: "Album " + id, ReleaseDate: releaseDate,
		Artists: []catalog.ArtistRef{{ID: artistID, Name: "Artist " + artistID}},
	}
}

// flakyStore wraps a store to inject failures into units of work.
type flakyStore struct {
	repository.Store
	mu        sync.Mutex
	conflicts int
	failRank  bool
}

func (f *flakyStore) WithTx(ctx context.Context, fn func(tx repository.Tx) error) error {
	f.mu.Lock()
	if f.conflicts > 0 {
		f.conflicts--
		f.mu.Unlock()
		return fmt.Errorf("artist spotify:x: %w", repository.ErrConflict)
	}
	failRank := f.failRank
	f.mu.Unlock()
	return f.Store.WithTx(ctx, func(tx repository.Tx) error {
		return fn(&flakyTx{Tx: tx, failRank: failRank})
	})
}

type flakyTx struct {
	repository.Tx
	failRank bool
}

func (t *flakyTx) SetLeaderboard(ctx context.Context, positions map[string]int) error {
	if t.failRank {
		return errors.New("disk full")
	}
	return t.Tx.SetLeaderboard(ctx, positions)
}

// tracks builds a rated track list t1..tn.
func tracks(ratings ...int) []model.ScoredTrack {
	out := make([]model.ScoredTrack, len(ratings))
	for i, r := range ratings {
		out[i] = model.ScoredTrack{TrackID: fmt.Sprintf("t%d", i+1), TrackNumber: i + 1, Rating: r}
	}
	return out
}

func review(album, artist string, ratings ...int) service.CreateReviewInput {
	return service.CreateReviewInput{
		AlbumSpotifyID:  album,
		Name:            "Album " + album,
		ArtistSpotifyID: artist,
		ArtistName:      "Artist " + artist,
		ReleaseYear:     2000,
		Tracks:          tracks(ratings...),
	}
}

type fixture struct {
	store   *repository.MemoryStore
	flaky   *flakyStore
	catalog *fakeCatalog
	svc     *service.Service
}

func newFixture(opts ...service.Option) *fixture {
	ctx := context.Background()
	store := repository.NewMemoryStore(ctx, repository.WithMetricsUpdateInterval(time.Hour))
	flaky := &flakyStore{Store: store}
	cat := newFakeCatalog()
	for _, id := range []string{"x", "y", "a", "b", "c"} {
		cat.addArtist(id, "Artist "+id)
	}
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var clockMu sync.Mutex
	now := func() time.Time {
		clockMu.Lock()
		defer clockMu.Unlock()
		clock = clock.Add(time.Minute)
		return clock
	}
	all := append([]service.Option{service.WithClock(now), service.WithLogger(logger.Nop())}, opts...)
	return &fixture{store: store, flaky: flaky, catalog: cat, svc: service.New(flaky, cat, all...)}
}

func (f *fixture) artist(spotifyID string) model.Artist {
	a, err := f.store.ArtistBySpotifyID(context.Background(), spotifyID)
	So(err, ShouldBeNil)
	return a
}

func (f *fixture) mustCreate(in service.CreateReviewInput) service.ReviewResult {
	res, err := f.svc.CreateReview(context.Background(), in)
	So(err, ShouldBeNil)
	return res
}

func (f *fixture) leaderboardValid() bool {
	artists, err := f.store.ListArtists(context.Background())
	So(err, ShouldBeNil)
	return ranking.Valid(artists)
}

func TestCreateReview(t *testing.T) {
	Convey("Given an empty review store", t, func() {
		f := newFixture()
		defer f.store.Close()
		ctx := context.Background()

		Convey("When the first review of an artist is created", func() {
			res := f.mustCreate(review("al-1", "x", 8, 0, 6))

			Convey("Then the album is scored and the artist materialized", func() {
				So(*res.Album.ReviewScore, ShouldEqual, 70)
				So(res.Album.ArtistID, ShouldNotBeEmpty)
				So(res.Warnings, ShouldBeEmpty)
				So(res.Artist, ShouldNotBeNil)
				So(res.Artist.Name, ShouldEqual, "Artist x")
				So(res.Artist.ImageURLs, ShouldResemble, []string{"https://img/x"})
				So(*res.Artist.AverageScore, ShouldEqual, 70.0)
				So(res.Artist.LeaderboardPosition, ShouldEqual, 1)
			})
		})

		Convey("When a second album of the same artist is reviewed", func() {
			f.mustCreate(review("al-1", "x", 6))
			f.mustCreate(review("al-2", "x", 9))

			Convey("Then the average covers both albums and the catalog is asked once", func() {
				a := f.artist("x")
				So(*a.AverageScore, ShouldEqual, 75.0)
				So(f.catalog.artistCalls, ShouldEqual, 1)
			})
		})

		Convey("When every track is rated as not a song", func() {
			res := f.mustCreate(review("al-1", "x", 0, 0))

			Convey("Then the album and artist have no score and the artist still ranks", func() {
				So(res.Album.ReviewScore, ShouldBeNil)
				So(res.Artist.AverageScore, ShouldBeNil)
				So(res.Artist.LeaderboardPosition, ShouldEqual, 1)
			})
		})

		Convey("When the album was bookmarked", func() {
			f.catalog.addAlbum("al-1", "x", "1999-01-01")
			toggled, err := f.svc.ToggleBookmark(ctx, "al-1")
			So(err, ShouldBeNil)
			So(toggled.Action, ShouldEqual, service.BookmarkAdded)

			f.mustCreate(review("al-1", "x", 7))

			Convey("Then the bookmark is removed", func() {
				list, err := f.svc.ListBookmarks(ctx)
				So(err, ShouldBeNil)
				So(list, ShouldBeEmpty)
			})
		})

		Convey("When the album is reviewed twice", func() {
			f.mustCreate(review("al-1", "x", 7))
			_, err := f.svc.CreateReview(ctx, review("al-1", "x", 2))

			Convey("Then the second create is rejected", func() {
				So(errors.Is(err, service.ErrAlreadyReviewed), ShouldBeTrue)
				album, _ := f.svc.GetAlbum(ctx, "al-1")
				So(*album.ReviewScore, ShouldEqual, 70)
			})
		})

		Convey("When a rating is out of range", func() {
			_, err := f.svc.CreateReview(ctx, review("al-1", "x", 11))

			Convey("Then the request is invalid and nothing is stored", func() {
				So(errors.Is(err, service.ErrInvalidInput), ShouldBeTrue)
				stats, _ := f.svc.GetStats(ctx)
				So(stats.Albums, ShouldEqual, 0)
			})
		})

		Convey("When required identifiers are missing", func() {
			in := review("al-1", "x", 5)
			in.ArtistSpotifyID = ""
			_, err := f.svc.CreateReview(ctx, in)
			So(errors.Is(err, service.ErrInvalidInput), ShouldBeTrue)
		})
	})
}

func TestCreateReview_DegradedArtist(t *testing.T) {
	Convey("Given a catalog that cannot describe the artist", t, func() {
		f := newFixture()
		defer f.store.Close()
		ctx := context.Background()
		f.catalog.down = true

		res := f.mustCreate(review("al-1", "z", 9))

		Convey("Then the review is stored unlinked with a warning", func() {
			So(res.Album.ArtistID, ShouldBeEmpty)
			So(res.Album.ArtistSpotifyID, ShouldEqual, "z")
			So(res.Artist, ShouldBeNil)
			So(res.Warnings, ShouldContain, service.WarnArtistUnavailable)

			stats, err := f.svc.GetStats(ctx)
			So(err, ShouldBeNil)
			So(stats.Albums, ShouldEqual, 1)
			So(stats.Artists, ShouldEqual, 0)
		})

		Convey("When the catalog recovers and the artist is reviewed again", func() {
			f.catalog.down = false
			f.catalog.addArtist("z", "Artist z")
			res := f.mustCreate(review("al-2", "z", 5))

			Convey("Then the orphaned album is adopted into the average", func() {
				So(res.Warnings, ShouldBeEmpty)
				So(*res.Artist.AverageScore, ShouldEqual, 70.0)

				detail, err := f.svc.GetArtist(ctx, res.Artist.ID)
				So(err, ShouldBeNil)
				So(detail.Albums, ShouldHaveLength, 2)
				So(detail.Albums[0].SpotifyID, ShouldEqual, "al-2")
			})
		})
	})
}

func TestLeaderboardScenario(t *testing.T) {
	Convey("Given artist X with albums scored 60 and 80 and artist Y at 90", t, func() {
		f := newFixture()
		defer f.store.Close()
		ctx := context.Background()

		f.mustCreate(review("x-60", "x", 6))
		f.mustCreate(review("x-80", "x", 8))
		f.mustCreate(review("y-90", "y", 9))

		So(*f.artist("x").AverageScore, ShouldEqual, 70.0)
		So(f.artist("x").LeaderboardPosition, ShouldEqual, 2)
		So(f.artist("y").LeaderboardPosition, ShouldEqual, 1)

		Convey("When X's 60 album is deleted", func() {
			So(f.svc.DeleteReview(ctx, "x-60", ""), ShouldBeNil)

			Convey("Then X's average is exactly 80 and X stays behind Y", func() {
				x := f.artist("x")
				So(*x.AverageScore, ShouldEqual, 80.0)
				So(x.LeaderboardPosition, ShouldEqual, 2)
				So(f.leaderboardValid(), ShouldBeTrue)
			})
		})

		Convey("When X's 60 album is re-rated to 100", func() {
			_, err := f.svc.UpdateReview(ctx, "x-60", service.UpdateReviewInput{Tracks: tracks(10)})
			So(err, ShouldBeNil)

			Convey("Then X overtakes Y", func() {
				So(*f.artist("x").AverageScore, ShouldEqual, 90.0)
				// Tie at 90: Y was ranked ahead before, so it stays ahead.
				So(f.artist("y").LeaderboardPosition, ShouldEqual, 1)
				So(f.artist("x").LeaderboardPosition, ShouldEqual, 2)

				_, err := f.svc.UpdateReview(ctx, "x-80", service.UpdateReviewInput{Tracks: tracks(10)})
				So(err, ShouldBeNil)
				So(f.artist("x").LeaderboardPosition, ShouldEqual, 1)
				So(f.artist("y").LeaderboardPosition, ShouldEqual, 2)
			})
		})

		Convey("When Y's only review is deleted", func() {
			So(f.svc.DeleteReview(ctx, "y-90", "y"), ShouldBeNil)

			Convey("Then Y no longer exists and X moves up", func() {
				_, err := f.store.ArtistBySpotifyID(ctx, "y")
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
				So(f.artist("x").LeaderboardPosition, ShouldEqual, 1)
				So(f.leaderboardValid(), ShouldBeTrue)
			})
		})
	})
}

func TestLeaderboardTies(t *testing.T) {
	Convey("Given artists A and B both averaging 80, A created first", t, func() {
		f := newFixture()
		defer f.store.Close()
		ctx := context.Background()

		f.mustCreate(review("a-1", "a", 8))
		f.mustCreate(review("b-1", "b", 8))

		Convey("Then repeated re-ranking never swaps them", func() {
			for i := 0; i < 5; i++ {
				f.mustCreate(review(fmt.Sprintf("c-%d", i), "c", 5))
				So(f.artist("a").LeaderboardPosition, ShouldEqual, 1)
				So(f.artist("b").LeaderboardPosition, ShouldEqual, 2)
				So(f.artist("c").LeaderboardPosition, ShouldEqual, 3)
			}
			artists, err := f.svc.ListArtists(ctx)
			So(err, ShouldBeNil)
			So(artists[0].SpotifyID, ShouldEqual, "a")
			So(artists[1].SpotifyID, ShouldEqual, "b")
			So(f.leaderboardValid(), ShouldBeTrue)
		})
	})
}

func TestUpdateReview(t *testing.T) {
	Convey("Given a reviewed album", t, func() {
		f := newFixture()
		defer f.store.Close()
		ctx := context.Background()

		in := review("al-1", "x", 8, 6)
		in.BestSong = "t1"
		in.Content = "solid"
		f.mustCreate(in)

		Convey("When only the text changes", func() {
			content := "better on repeat"
			worst := "t2"
			res, err := f.svc.UpdateReview(ctx, "al-1", service.UpdateReviewInput{Content: &content, WorstSong: &worst})

			Convey("Then scores are untouched", func() {
				So(err, ShouldBeNil)
				So(res.Album.ReviewContent, ShouldEqual, content)
				So(res.Album.WorstSong, ShouldEqual, "t2")
				So(res.Album.BestSong, ShouldEqual, "t1")
				So(*res.Album.ReviewScore, ShouldEqual, 70)
			})
		})

		Convey("When the ratings change", func() {
			res, err := f.svc.UpdateReview(ctx, "al-1", service.UpdateReviewInput{Tracks: tracks(10, 0)})

			Convey("Then the album is rescored and the average recomputed", func() {
				So(err, ShouldBeNil)
				So(*res.Album.ReviewScore, ShouldEqual, 100)
				So(*res.Artist.AverageScore, ShouldEqual, 100.0)
				So(res.Album.ReviewContent, ShouldEqual, "solid")
			})
		})

		Convey("When the same ratings come back reordered and renamed", func() {
			f.flaky.failRank = true
			edited := []model.ScoredTrack{
				{TrackID: "t2", TrackNumber: 2, Name: "Second", Rating: 6},
				{TrackID: "t1", TrackNumber: 1, Name: "Opener", Rating: 8},
			}
			res, err := f.svc.UpdateReview(ctx, "al-1", service.UpdateReviewInput{Tracks: edited})

			Convey("Then the tracks are saved without re-ranking", func() {
				So(err, ShouldBeNil)
				So(*res.Album.ReviewScore, ShouldEqual, 70)
				So(res.Album.ScoredTracks, ShouldResemble, edited)

				stored, err := f.store.AlbumBySpotifyID(ctx, "al-1")
				So(err, ShouldBeNil)
				So(stored.ScoredTracks[1].Name, ShouldEqual, "Opener")
			})
		})

		Convey("When an invalid rating is submitted", func() {
			_, err := f.svc.UpdateReview(ctx, "al-1", service.UpdateReviewInput{Tracks: tracks(-1)})
			So(errors.Is(err, service.ErrInvalidInput), ShouldBeTrue)
		})

		Convey("When the album does not exist", func() {
			_, err := f.svc.UpdateReview(ctx, "missing", service.UpdateReviewInput{})
			So(errors.Is(err, service.ErrNotFound), ShouldBeTrue)
		})
	})
}

func TestDeleteReview(t *testing.T) {
	Convey("Given a reviewed album", t, func() {
		f := newFixture()
		defer f.store.Close()
		ctx := context.Background()
		res := f.mustCreate(review("al-1", "x", 8))

		Convey("When deleted with the wrong artist", func() {
			err := f.svc.DeleteReview(ctx, "al-1", "someone-else")

			Convey("Then it is reported as not found and kept", func() {
				So(errors.Is(err, service.ErrNotFound), ShouldBeTrue)
				_, err := f.svc.GetAlbum(ctx, "al-1")
				So(err, ShouldBeNil)
			})
		})

		Convey("When the last review of the artist is deleted by artist id", func() {
			So(f.svc.DeleteReview(ctx, "al-1", res.Artist.ID), ShouldBeNil)

			Convey("Then the artist is removed", func() {
				_, err := f.svc.GetArtist(ctx, res.Artist.ID)
				So(errors.Is(err, service.ErrNotFound), ShouldBeTrue)
				stats, _ := f.svc.GetStats(ctx)
				So(stats.Artists, ShouldEqual, 0)
				So(stats.Albums, ShouldEqual, 0)
			})
		})

		Convey("When an unknown album is deleted", func() {
			err := f.svc.DeleteReview(ctx, "missing", "")
			So(errors.Is(err, service.ErrNotFound), ShouldBeTrue)
		})
	})
}

func TestUnitOfWorkFailures(t *testing.T) {
	Convey("Given a ranked leaderboard", t, func() {
		f := newFixture(service.WithTxMaxAttempts(3))
		defer f.store.Close()
		ctx := context.Background()
		f.mustCreate(review("x-1", "x", 6))

		Convey("When writing positions fails during a create", func() {
			f.flaky.failRank = true
			_, err := f.svc.CreateReview(ctx, review("y-1", "y", 9))

			Convey("Then the whole transition is rolled back", func() {
				So(errors.Is(err, service.ErrConsistency), ShouldBeTrue)
				_, err := f.store.AlbumBySpotifyID(ctx, "y-1")
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
				_, err = f.store.ArtistBySpotifyID(ctx, "y")
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
				So(f.artist("x").LeaderboardPosition, ShouldEqual, 1)
			})

			Convey("And the create can be retried", func() {
				f.flaky.failRank = false
				res := f.mustCreate(review("y-1", "y", 9))
				So(res.Artist.LeaderboardPosition, ShouldEqual, 1)
				So(f.artist("x").LeaderboardPosition, ShouldEqual, 2)
			})
		})

		Convey("When a unit of work conflicts fewer times than the limit", func() {
			f.flaky.conflicts = 2
			err := f.svc.DeleteReview(ctx, "x-1", "")
			So(err, ShouldBeNil)
		})

		Convey("When it keeps conflicting", func() {
			f.flaky.conflicts = 3
			err := f.svc.DeleteReview(ctx, "x-1", "")
			So(errors.Is(err, service.ErrConsistency), ShouldBeTrue)
			So(errors.Is(err, repository.ErrConflict), ShouldBeTrue)
		})
	})
}

func TestConcurrentCreatesForNewArtist(t *testing.T) {
	Convey("Given many reviews of one new artist created at once", t, func() {
		f := newFixture()
		defer f.store.Close()
		ctx := context.Background()

		const n = 10
		var wg sync.WaitGroup
		errs := make(chan error, n)
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, err := f.svc.CreateReview(ctx, review(fmt.Sprintf("al-%d", i), "x", 1+i%10))
				errs <- err
			}(i)
		}
		wg.Wait()
		close(errs)

		Convey("Then exactly one artist owns every album", func() {
			for err := range errs {
				So(err, ShouldBeNil)
			}
			stats, err := f.svc.GetStats(ctx)
			So(err, ShouldBeNil)
			So(stats.Artists, ShouldEqual, 1)
			So(stats.Albums, ShouldEqual, n)

			detail, err := f.svc.GetArtist(ctx, "x")
			So(err, ShouldBeNil)
			So(detail.Albums, ShouldHaveLength, n)
			// ratings 1..10 -> scores 10..100
			So(*detail.AverageScore, ShouldEqual, 55.0)
		})
	})
}

func TestBookmarks(t *testing.T) {
	Convey("Given a catalog with several albums", t, func() {
		f := newFixture(service.WithRand(rand.New(rand.NewPCG(1, 2))))
		defer f.store.Close()
		ctx := context.Background()
		f.catalog.addAlbum("a-late", "a", "2010-05-01")
		f.catalog.addAlbum("a-early", "a", "1995")
		f.catalog.addAlbum("a-mid", "a", "2001-02")
		f.catalog.addAlbum("b-only", "b", "2005-01-01")

		Convey("When nothing is bookmarked", func() {
			_, err := f.svc.ChooseRandomBookmark(ctx)
			So(errors.Is(err, service.ErrNotFound), ShouldBeTrue)
		})

		Convey("When an album is toggled twice", func() {
			first, err := f.svc.ToggleBookmark(ctx, "a-late")
			So(err, ShouldBeNil)
			second, err := f.svc.ToggleBookmark(ctx, "a-late")
			So(err, ShouldBeNil)

			Convey("Then it is added then removed", func() {
				So(first.Action, ShouldEqual, service.BookmarkAdded)
				So(first.Bookmark.ArtistSpotifyID, ShouldEqual, "a")
				So(first.Bookmark.ReleaseYear, ShouldEqual, 2010)
				So(second.Action, ShouldEqual, service.BookmarkRemoved)
				list, _ := f.svc.ListBookmarks(ctx)
				So(list, ShouldBeEmpty)
			})
		})

		Convey("When bookmarks of two artists exist", func() {
			for _, id := range []string{"a-late", "b-only", "a-early", "a-mid"} {
				_, err := f.svc.ToggleBookmark(ctx, id)
				So(err, ShouldBeNil)
			}

			Convey("Then listing keeps insertion order", func() {
				list, err := f.svc.ListBookmarks(ctx)
				So(err, ShouldBeNil)
				So(list, ShouldHaveLength, 4)
				So(list[0].SpotifyID, ShouldEqual, "a-late")
				So(list[3].SpotifyID, ShouldEqual, "a-mid")
			})

			Convey("Then a random choice is always an artist's earliest release", func() {
				seen := map[string]bool{}
				for i := 0; i < 50; i++ {
					b, err := f.svc.ChooseRandomBookmark(ctx)
					So(err, ShouldBeNil)
					So(b.SpotifyID, ShouldBeIn, []string{"a-early", "b-only"})
					seen[b.SpotifyID] = true
				}
				So(seen["a-early"], ShouldBeTrue)
				So(seen["b-only"], ShouldBeTrue)
			})
		})

		Convey("When a reviewed album is toggled", func() {
			f.mustCreate(review("a-late", "a", 7))
			_, err := f.svc.ToggleBookmark(ctx, "a-late")
			So(errors.Is(err, service.ErrAlreadyReviewed), ShouldBeTrue)
		})

		Convey("When the catalog cannot describe the album", func() {
			_, err := f.svc.ToggleBookmark(ctx, "unknown")

			Convey("Then the toggle fails as an external fetch", func() {
				So(errors.Is(err, service.ErrExternalFetch), ShouldBeTrue)
				So(errors.Is(err, catalog.ErrFetch), ShouldBeTrue)
				list, _ := f.svc.ListBookmarks(ctx)
				So(list, ShouldBeEmpty)
			})
		})
	})
}

func TestReads(t *testing.T) {
	Convey("Given reviews of two artists", t, func() {
		f := newFixture()
		defer f.store.Close()
		ctx := context.Background()
		f.mustCreate(review("x-1", "x", 5))
		f.mustCreate(review("y-1", "y", 9))
		f.mustCreate(review("x-2", "x", 7))

		Convey("Then albums list most recent first", func() {
			albums, err := f.svc.ListAlbums(ctx)
			So(err, ShouldBeNil)
			So(albums, ShouldHaveLength, 3)
			So(albums[0].SpotifyID, ShouldEqual, "x-2")
		})

		Convey("Then artists list in leaderboard order", func() {
			artists, err := f.svc.ListArtists(ctx)
			So(err, ShouldBeNil)
			So(artists[0].SpotifyID, ShouldEqual, "y")
			So(artists[1].SpotifyID, ShouldEqual, "x")
		})

		Convey("Then an artist can be fetched by catalog id", func() {
			detail, err := f.svc.GetArtist(ctx, "x")
			So(err, ShouldBeNil)
			So(detail.Albums, ShouldHaveLength, 2)
			So(*detail.AverageScore, ShouldEqual, 60.0)
		})

		Convey("Then stats count ranked artists", func() {
			stats, err := f.svc.GetStats(ctx)
			So(err, ShouldBeNil)
			So(stats.RankedArtists, ShouldEqual, 2)
			So(stats.Bookmarks, ShouldEqual, 0)
		})
	})
}
