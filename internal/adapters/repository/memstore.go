package repository

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/okian/critic/internal/domain/model"
	"github.com/okian/critic/pkg/metrics"
)

// In-memory Store implementation.
//
// Writers are serialized by mu. A unit of work mutates a private copy of the
// current state and publishes it with a single atomic pointer swap on commit,
// so readers always see the last committed state and never wait on writers.

const defaultMetricsUpdateInterval = 5 * time.Second

// state is an immutable-once-published view of all tables. Records are
// cloned on the way in and out, so maps can be shallow-copied per unit of work.
type state struct {
	artists         map[string]model.Artist
	artistOrder     []string          // creation order
	artistBySpotify map[string]string // spotify id -> id

	albums         map[string]model.Album
	albumOrder     []string
	albumBySpotify map[string]string

	bookmarks     map[string]model.Bookmark // keyed by spotify id
	bookmarkOrder []string
}

func newState() *state {
	return &state{
		artists:         make(map[string]model.Artist),
		artistBySpotify: make(map[string]string),
		albums:          make(map[string]model.Album),
		albumBySpotify:  make(map[string]string),
		bookmarks:       make(map[string]model.Bookmark),
	}
}

func (st *state) clone() *state {
	return &state{
		artists:         cloneMap(st.artists),
		artistOrder:     slices.Clone(st.artistOrder),
		artistBySpotify: cloneMap(st.artistBySpotify),
		albums:          cloneMap(st.albums),
		albumOrder:      slices.Clone(st.albumOrder),
		albumBySpotify:  cloneMap(st.albumBySpotify),
		bookmarks:       cloneMap(st.bookmarks),
		bookmarkOrder:   slices.Clone(st.bookmarkOrder),
	}
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// MemoryStore keeps all review state in process memory.
type MemoryStore struct {
	mu       sync.Mutex // serializes units of work
	snapshot atomic.Pointer[state]
	closed   atomic.Bool
	now      func() time.Time

	metricsUpdateInterval time.Duration
	wg                    sync.WaitGroup
	stopChan              chan struct{}
}

// NewMemoryStore constructs an empty store with configuration options.
func NewMemoryStore(ctx context.Context, opts ...Option) *MemoryStore {
	s := &MemoryStore{
		now:                   time.Now,
		metricsUpdateInterval: defaultMetricsUpdateInterval,
		stopChan:              make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.snapshot.Store(newState())
	s.startMetricsUpdater(ctx)
	return s
}

// Close stops background work. Further calls fail with ErrClosed.
func (s *MemoryStore) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	close(s.stopChan)
	s.wg.Wait()
	return nil
}

// WithTx implements Store.
func (s *MemoryStore) WithTx(ctx context.Context, fn func(tx Tx) error) error {
	start := time.Now()
	defer func() {
		metrics.RecordTxDuration("memory", float64(time.Since(start).Milliseconds()))
	}()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed.Load() {
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("begin unit of work: %w", err)
	}

	tx := &memTx{memReader: memReader{st: s.snapshot.Load().clone()}, now: s.now}
	if err := fn(tx); err != nil {
		return err
	}
	s.snapshot.Store(tx.st)
	return nil
}

func (s *MemoryStore) reader() memReader {
	return memReader{st: s.snapshot.Load()}
}

// ArtistByID implements Reader.
func (s *MemoryStore) ArtistByID(ctx context.Context, id string) (model.Artist, error) {
	return s.reader().ArtistByID(ctx, id)
}

// ArtistBySpotifyID implements Reader.
func (s *MemoryStore) ArtistBySpotifyID(ctx context.Context, spotifyID string) (model.Artist, error) {
	return s.reader().ArtistBySpotifyID(ctx, spotifyID)
}

// ListArtists implements Reader.
func (s *MemoryStore) ListArtists(ctx context.Context) ([]model.Artist, error) {
	return s.reader().ListArtists(ctx)
}

// AlbumBySpotifyID implements Reader.
func (s *MemoryStore) AlbumBySpotifyID(ctx context.Context, spotifyID string) (model.Album, error) {
	return s.reader().AlbumBySpotifyID(ctx, spotifyID)
}

// ListAlbums implements Reader.
func (s *MemoryStore) ListAlbums(ctx context.Context) ([]model.Album, error) {
	return s.reader().ListAlbums(ctx)
}

// AlbumsByArtist implements Reader.
func (s *MemoryStore) AlbumsByArtist(ctx context.Context, artistID string) ([]model.Album, error) {
	return s.reader().AlbumsByArtist(ctx, artistID)
}

// BookmarkBySpotifyID implements Reader.
func (s *MemoryStore) BookmarkBySpotifyID(ctx context.Context, spotifyID string) (model.Bookmark, error) {
	return s.reader().BookmarkBySpotifyID(ctx, spotifyID)
}

// ListBookmarks implements Reader.
func (s *MemoryStore) ListBookmarks(ctx context.Context) ([]model.Bookmark, error) {
	return s.reader().ListBookmarks(ctx)
}

// Counts implements Reader.
func (s *MemoryStore) Counts(ctx context.Context) (Counts, error) {
	return s.reader().Counts(ctx)
}

// startMetricsUpdater starts a background goroutine that updates table size gauges.
func (s *MemoryStore) startMetricsUpdater(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.metricsUpdateInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopChan:
				return
			case <-ticker.C:
				c, _ := s.Counts(ctx)
				metrics.UpdateTableSizes(c.Artists, c.Albums, c.Bookmarks)
			}
		}
	}()
}

type memReader struct {
	st *state
}

func (r memReader) ArtistByID(_ context.Context, id string) (model.Artist, error) {
	a, ok := r.st.artists[id]
	if !ok {
		return model.Artist{}, fmt.Errorf("artist %s: %w", id, ErrNotFound)
	}
	return a.Clone(), nil
}

func (r memReader) ArtistBySpotifyID(ctx context.Context, spotifyID string) (model.Artist, error) {
	id, ok := r.st.artistBySpotify[spotifyID]
	if !ok {
		return model.Artist{}, fmt.Errorf("artist spotify:%s: %w", spotifyID, ErrNotFound)
	}
	return r.ArtistByID(ctx, id)
}

func (r memReader) ListArtists(_ context.Context) ([]model.Artist, error) {
	out := make([]model.Artist, 0, len(r.st.artistOrder))
	for _, id := range r.st.artistOrder {
		out = append(out, r.st.artists[id].Clone())
	}
	slices.SortStableFunc(out, func(a, b model.Artist) int {
		return comparePosition(a.LeaderboardPosition, b.LeaderboardPosition)
	})
	return out, nil
}

func (r memReader) AlbumBySpotifyID(_ context.Context, spotifyID string) (model.Album, error) {
	id, ok := r.st.albumBySpotify[spotifyID]
	if !ok {
		return model.Album{}, fmt.Errorf("album spotify:%s: %w", spotifyID, ErrNotFound)
	}
	return r.st.albums[id].Clone(), nil
}

func (r memReader) ListAlbums(_ context.Context) ([]model.Album, error) {
	out := make([]model.Album, 0, len(r.st.albumOrder))
	for i := len(r.st.albumOrder) - 1; i >= 0; i-- {
		out = append(out, r.st.albums[r.st.albumOrder[i]].Clone())
	}
	slices.SortStableFunc(out, func(a, b model.Album) int {
		return b.ReviewDate.Compare(a.ReviewDate)
	})
	return out, nil
}

func (r memReader) AlbumsByArtist(_ context.Context, artistID string) ([]model.Album, error) {
	var out []model.Album
	for _, id := range r.st.albumOrder {
		if a := r.st.albums[id]; a.ArtistID == artistID && artistID != "" {
			out = append(out, a.Clone())
		}
	}
	return out, nil
}

func (r memReader) BookmarkBySpotifyID(_ context.Context, spotifyID string) (model.Bookmark, error) {
	b, ok := r.st.bookmarks[spotifyID]
	if !ok {
		return model.Bookmark{}, fmt.Errorf("bookmark spotify:%s: %w", spotifyID, ErrNotFound)
	}
	return b, nil
}

func (r memReader) ListBookmarks(_ context.Context) ([]model.Bookmark, error) {
	out := make([]model.Bookmark, 0, len(r.st.bookmarkOrder))
	for _, id := range r.st.bookmarkOrder {
		out = append(out, r.st.bookmarks[id])
	}
	return out, nil
}

func (r memReader) Counts(_ context.Context) (Counts, error) {
	return Counts{
		Artists:   len(r.st.artists),
		Albums:    len(r.st.albums),
		Bookmarks: len(r.st.bookmarks),
	}, nil
}

// memTx writes into its private state copy.
type memTx struct {
	memReader
	now func() time.Time
}

func (t *memTx) InsertArtist(_ context.Context, a *model.Artist) error {
	if _, ok := t.st.artistBySpotify[a.SpotifyID]; ok {
		return fmt.Errorf("artist spotify:%s: %w", a.SpotifyID, ErrConflict)
	}
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = t.now().UTC()
	}
	t.st.artists[a.ID] = a.Clone()
	t.st.artistBySpotify[a.SpotifyID] = a.ID
	t.st.artistOrder = append(t.st.artistOrder, a.ID)
	return nil
}

func (t *memTx) UpdateArtistAverage(_ context.Context, artistID string, avg *float64) error {
	a, ok := t.st.artists[artistID]
	if !ok {
		return fmt.Errorf("artist %s: %w", artistID, ErrNotFound)
	}
	a = a.Clone()
	a.AverageScore = nil
	if avg != nil {
		v := *avg
		a.AverageScore = &v
	}
	t.st.artists[artistID] = a
	return nil
}

func (t *memTx) DeleteArtist(_ context.Context, artistID string) error {
	a, ok := t.st.artists[artistID]
	if !ok {
		return fmt.Errorf("artist %s: %w", artistID, ErrNotFound)
	}
	delete(t.st.artists, artistID)
	delete(t.st.artistBySpotify, a.SpotifyID)
	t.st.artistOrder = removeID(t.st.artistOrder, artistID)
	return nil
}

func (t *memTx) SetLeaderboard(_ context.Context, positions map[string]int) error {
	for id := range positions {
		if _, ok := t.st.artists[id]; !ok {
			return fmt.Errorf("rank artist %s: %w", id, ErrNotFound)
		}
	}
	for id, pos := range positions {
		a := t.st.artists[id]
		a.LeaderboardPosition = pos
		t.st.artists[id] = a
	}
	return nil
}

func (t *memTx) InsertAlbum(_ context.Context, a *model.Album) error {
	if _, ok := t.st.albumBySpotify[a.SpotifyID]; ok {
		return fmt.Errorf("album spotify:%s: %w", a.SpotifyID, ErrConflict)
	}
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	t.st.albums[a.ID] = a.Clone()
	t.st.albumBySpotify[a.SpotifyID] = a.ID
	t.st.albumOrder = append(t.st.albumOrder, a.ID)
	return nil
}

func (t *memTx) updateAlbum(albumID string, fn func(*model.Album)) error {
	a, ok := t.st.albums[albumID]
	if !ok {
		return fmt.Errorf("album %s: %w", albumID, ErrNotFound)
	}
	a = a.Clone()
	fn(&a)
	t.st.albums[albumID] = a
	return nil
}

func (t *memTx) UpdateAlbumScore(_ context.Context, albumID string, tracks []model.ScoredTrack, score *int) error {
	return t.updateAlbum(albumID, func(a *model.Album) {
		a.ScoredTracks = slices.Clone(tracks)
		a.ReviewScore = nil
		if score != nil {
			v := *score
			a.ReviewScore = &v
		}
	})
}

func (t *memTx) UpdateAlbumBestSong(_ context.Context, albumID, song string) error {
	return t.updateAlbum(albumID, func(a *model.Album) { a.BestSong = song })
}

func (t *memTx) UpdateAlbumWorstSong(_ context.Context, albumID, song string) error {
	return t.updateAlbum(albumID, func(a *model.Album) { a.WorstSong = song })
}

func (t *memTx) UpdateAlbumContent(_ context.Context, albumID, content string) error {
	return t.updateAlbum(albumID, func(a *model.Album) { a.ReviewContent = content })
}

func (t *memTx) DeleteAlbum(_ context.Context, albumID string) error {
	a, ok := t.st.albums[albumID]
	if !ok {
		return fmt.Errorf("album %s: %w", albumID, ErrNotFound)
	}
	delete(t.st.albums, albumID)
	delete(t.st.albumBySpotify, a.SpotifyID)
	t.st.albumOrder = removeID(t.st.albumOrder, albumID)
	return nil
}

func (t *memTx) AdoptAlbums(_ context.Context, artistSpotifyID, artistID string) (int, error) {
	if _, ok := t.st.artists[artistID]; !ok {
		return 0, fmt.Errorf("artist %s: %w", artistID, ErrNotFound)
	}
	n := 0
	for _, id := range t.st.albumOrder {
		a := t.st.albums[id]
		if a.ArtistID == "" && a.ArtistSpotifyID == artistSpotifyID {
			a.ArtistID = artistID
			t.st.albums[id] = a
			n++
		}
	}
	return n, nil
}

func (t *memTx) InsertBookmark(_ context.Context, b model.Bookmark) error {
	if _, ok := t.st.bookmarks[b.SpotifyID]; ok {
		return fmt.Errorf("bookmark spotify:%s: %w", b.SpotifyID, ErrConflict)
	}
	t.st.bookmarks[b.SpotifyID] = b
	t.st.bookmarkOrder = append(t.st.bookmarkOrder, b.SpotifyID)
	return nil
}

func (t *memTx) DeleteBookmark(_ context.Context, spotifyID string) (bool, error) {
	if _, ok := t.st.bookmarks[spotifyID]; !ok {
		return false, nil
	}
	delete(t.st.bookmarks, spotifyID)
	t.st.bookmarkOrder = removeID(t.st.bookmarkOrder, spotifyID)
	return true, nil
}

func removeID(ids []string, id string) []string {
	return slices.DeleteFunc(ids, func(s string) bool { return s == id })
}

// comparePosition orders ranked artists by position and unranked ones last.
func comparePosition(a, b int) int {
	switch {
	case a > 0 && b > 0:
		return a - b
	case a > 0:
		return -1
	case b > 0:
		return 1
	}
	return 0
}
