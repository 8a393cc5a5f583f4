package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/okian/critic/internal/domain/model"
	"github.com/okian/critic/pkg/metrics"
)

// SQLite-backed Store implementation.
//
// The pool is limited to one connection, which makes SQLite the single
// writer: units of work run one at a time and reads outside a unit of work
// see only committed rows.

const (
	artistColumns = `id, spotify_id, name, image_urls, average_score, leaderboard_position, created_at`
	albumColumns  = `id, spotify_id, artist_id, artist_spotify_id, artist_name, name, release_year,
	scored_tracks, best_song, worst_song, review_content, review_score, review_date`
	bookmarkColumns = `spotify_id, artist_spotify_id, artist_name, name, release_year, release_date, image_url`

	// Ranked artists first by position, unranked last in creation order.
	artistOrder = `ORDER BY CASE WHEN leaderboard_position > 0 THEN 0 ELSE 1 END, leaderboard_position, rowid`

	// timeLayout is fixed-width so stored timestamps sort lexically.
	timeLayout = "2006-01-02T15:04:05.000000000Z"
)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// SQLStore persists review state in SQLite.
type SQLStore struct {
	db *sql.DB
	sqlReader
}

// OpenSQLite opens (creating if needed) the database at path, applies
// pragmas and migrations. Use ":memory:" for a throwaway database.
func OpenSQLite(ctx context.Context, path string) (*SQLStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// Single writer connection for SQLite
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.ExecContext(ctx, pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	if err := Migrate(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return NewSQLStore(db), nil
}

// NewSQLStore wraps an already migrated database.
func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db, sqlReader: sqlReader{q: db}}
}

// Close closes the underlying database connection.
func (s *SQLStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// WithTx implements Store.
func (s *SQLStore) WithTx(ctx context.Context, fn func(tx Tx) error) error {
	start := time.Now()
	defer func() {
		metrics.RecordTxDuration("sqlite", float64(time.Since(start).Milliseconds()))
	}()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		if errors.Is(err, sql.ErrConnDone) {
			return ErrClosed
		}
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback is a no-op after commit

	if err := fn(&sqlTx{sqlReader: sqlReader{q: tx}, tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	c, err := s.Counts(ctx)
	if err == nil {
		metrics.UpdateTableSizes(c.Artists, c.Albums, c.Bookmarks)
	}
	return nil
}

type sqlReader struct {
	q querier
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanArtist(row rowScanner) (model.Artist, error) {
	var (
		a         model.Artist
		images    string
		avg       sql.NullFloat64
		createdAt string
	)
	if err := row.Scan(&a.ID, &a.SpotifyID, &a.Name, &images, &avg, &a.LeaderboardPosition, &createdAt); err != nil {
		return model.Artist{}, err
	}
	if err := json.Unmarshal([]byte(images), &a.ImageURLs); err != nil {
		return model.Artist{}, fmt.Errorf("decoding image urls: %w", err)
	}
	if avg.Valid {
		v := avg.Float64
		a.AverageScore = &v
	}
	a.CreatedAt, _ = time.Parse(timeLayout, createdAt)
	return a, nil
}

func scanAlbum(row rowScanner) (model.Album, error) {
	var (
		a          model.Album
		artistID   sql.NullString
		tracks     string
		score      sql.NullInt64
		reviewDate string
	)
	if err := row.Scan(&a.ID, &a.SpotifyID, &artistID, &a.ArtistSpotifyID, &a.ArtistName, &a.Name,
		&a.ReleaseYear, &tracks, &a.BestSong, &a.WorstSong, &a.ReviewContent, &score, &reviewDate); err != nil {
		return model.Album{}, err
	}
	a.ArtistID = artistID.String
	if err := json.Unmarshal([]byte(tracks), &a.ScoredTracks); err != nil {
		return model.Album{}, fmt.Errorf("decoding scored tracks: %w", err)
	}
	if score.Valid {
		v := int(score.Int64)
		a.ReviewScore = &v
	}
	a.ReviewDate, _ = time.Parse(timeLayout, reviewDate)
	return a, nil
}

func scanBookmark(row rowScanner) (model.Bookmark, error) {
	var b model.Bookmark
	err := row.Scan(&b.SpotifyID, &b.ArtistSpotifyID, &b.ArtistName, &b.Name, &b.ReleaseYear, &b.ReleaseDate, &b.ImageURL)
	return b, err
}

func notFound(err error, what string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return fmt.Errorf("getting %s: %w", what, err)
}

func (r sqlReader) ArtistByID(ctx context.Context, id string) (model.Artist, error) {
	a, err := scanArtist(r.q.QueryRowContext(ctx, `SELECT `+artistColumns+` FROM artists WHERE id = ?`, id))
	if err != nil {
		return model.Artist{}, notFound(err, "artist "+id)
	}
	return a, nil
}

func (r sqlReader) ArtistBySpotifyID(ctx context.Context, spotifyID string) (model.Artist, error) {
	a, err := scanArtist(r.q.QueryRowContext(ctx, `SELECT `+artistColumns+` FROM artists WHERE spotify_id = ?`, spotifyID))
	if err != nil {
		return model.Artist{}, notFound(err, "artist spotify:"+spotifyID)
	}
	return a, nil
}

func (r sqlReader) ListArtists(ctx context.Context) ([]model.Artist, error) {
	rows, err := r.q.QueryContext(ctx, `SELECT `+artistColumns+` FROM artists `+artistOrder)
	if err != nil {
		return nil, fmt.Errorf("listing artists: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var out []model.Artist
	for rows.Next() {
		a, err := scanArtist(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning artist: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r sqlReader) AlbumBySpotifyID(ctx context.Context, spotifyID string) (model.Album, error) {
	a, err := scanAlbum(r.q.QueryRowContext(ctx, `SELECT `+albumColumns+` FROM albums WHERE spotify_id = ?`, spotifyID))
	if err != nil {
		return model.Album{}, notFound(err, "album spotify:"+spotifyID)
	}
	return a, nil
}

func (r sqlReader) queryAlbums(ctx context.Context, query string, args ...any) ([]model.Album, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing albums: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var out []model.Album
	for rows.Next() {
		a, err := scanAlbum(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning album: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r sqlReader) ListAlbums(ctx context.Context) ([]model.Album, error) {
	return r.queryAlbums(ctx, `SELECT `+albumColumns+` FROM albums ORDER BY review_date DESC, rowid DESC`)
}

func (r sqlReader) AlbumsByArtist(ctx context.Context, artistID string) ([]model.Album, error) {
	return r.queryAlbums(ctx, `SELECT `+albumColumns+` FROM albums WHERE artist_id = ? ORDER BY rowid`, artistID)
}

func (r sqlReader) BookmarkBySpotifyID(ctx context.Context, spotifyID string) (model.Bookmark, error) {
	b, err := scanBookmark(r.q.QueryRowContext(ctx, `SELECT `+bookmarkColumns+` FROM bookmarks WHERE spotify_id = ?`, spotifyID))
	if err != nil {
		return model.Bookmark{}, notFound(err, "bookmark spotify:"+spotifyID)
	}
	return b, nil
}

func (r sqlReader) ListBookmarks(ctx context.Context) ([]model.Bookmark, error) {
	rows, err := r.q.QueryContext(ctx, `SELECT `+bookmarkColumns+` FROM bookmarks ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("listing bookmarks: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var out []model.Bookmark
	for rows.Next() {
		b, err := scanBookmark(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning bookmark: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r sqlReader) Counts(ctx context.Context) (Counts, error) {
	var c Counts
	err := r.q.QueryRowContext(ctx, `SELECT
		(SELECT COUNT(*) FROM artists),
		(SELECT COUNT(*) FROM albums),
		(SELECT COUNT(*) FROM bookmarks)`).Scan(&c.Artists, &c.Albums, &c.Bookmarks)
	if err != nil {
		return Counts{}, fmt.Errorf("counting rows: %w", err)
	}
	return c, nil
}

type sqlTx struct {
	sqlReader
	tx *sql.Tx
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// execOne runs a single-row write and maps a missing row to ErrNotFound.
func (t *sqlTx) execOne(ctx context.Context, what, query string, args ...any) error {
	res, err := t.q.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", what, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", what, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return nil
}

func nullableFloat(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullableInt(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func (t *sqlTx) InsertArtist(ctx context.Context, a *model.Artist) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	images := a.ImageURLs
	if images == nil {
		images = []string{}
	}
	encoded, err := json.Marshal(images)
	if err != nil {
		return fmt.Errorf("encoding image urls: %w", err)
	}
	_, err = t.q.ExecContext(ctx, `INSERT INTO artists (`+artistColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.SpotifyID, a.Name, string(encoded), nullableFloat(a.AverageScore), a.LeaderboardPosition,
		a.CreatedAt.UTC().Format(timeLayout))
	if isUniqueViolation(err) {
		return fmt.Errorf("artist spotify:%s: %w", a.SpotifyID, ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("creating artist: %w", err)
	}
	return nil
}

func (t *sqlTx) UpdateArtistAverage(ctx context.Context, artistID string, avg *float64) error {
	return t.execOne(ctx, "updating artist average",
		`UPDATE artists SET average_score = ? WHERE id = ?`, nullableFloat(avg), artistID)
}

func (t *sqlTx) DeleteArtist(ctx context.Context, artistID string) error {
	return t.execOne(ctx, "deleting artist", `DELETE FROM artists WHERE id = ?`, artistID)
}

func (t *sqlTx) SetLeaderboard(ctx context.Context, positions map[string]int) error {
	if len(positions) == 0 {
		return nil
	}
	stmt, err := t.tx.PrepareContext(ctx, `UPDATE artists SET leaderboard_position = ? WHERE id = ?`)
	if err != nil {
		return fmt.Errorf("preparing leaderboard update: %w", err)
	}
	defer stmt.Close() //nolint:errcheck

	for id, pos := range positions {
		res, err := stmt.ExecContext(ctx, pos, id)
		if err != nil {
			return fmt.Errorf("ranking artist %s: %w", id, err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("rank artist %s: %w", id, ErrNotFound)
		}
	}
	return nil
}

func (t *sqlTx) InsertAlbum(ctx context.Context, a *model.Album) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	tracks, err := encodeTracks(a.ScoredTracks)
	if err != nil {
		return err
	}
	_, err = t.q.ExecContext(ctx, `INSERT INTO albums (`+albumColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.SpotifyID, nullableString(a.ArtistID), a.ArtistSpotifyID, a.ArtistName, a.Name, a.ReleaseYear,
		tracks, a.BestSong, a.WorstSong, a.ReviewContent, nullableInt(a.ReviewScore),
		a.ReviewDate.UTC().Format(timeLayout))
	if isUniqueViolation(err) {
		return fmt.Errorf("album spotify:%s: %w", a.SpotifyID, ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("creating album: %w", err)
	}
	return nil
}

func encodeTracks(tracks []model.ScoredTrack) (string, error) {
	if tracks == nil {
		tracks = []model.ScoredTrack{}
	}
	b, err := json.Marshal(tracks)
	if err != nil {
		return "", fmt.Errorf("encoding scored tracks: %w", err)
	}
	return string(b), nil
}

func (t *sqlTx) UpdateAlbumScore(ctx context.Context, albumID string, tracks []model.ScoredTrack, score *int) error {
	encoded, err := encodeTracks(tracks)
	if err != nil {
		return err
	}
	return t.execOne(ctx, "updating album score",
		`UPDATE albums SET scored_tracks = ?, review_score = ? WHERE id = ?`, encoded, nullableInt(score), albumID)
}

func (t *sqlTx) UpdateAlbumBestSong(ctx context.Context, albumID, song string) error {
	return t.execOne(ctx, "updating best song", `UPDATE albums SET best_song = ? WHERE id = ?`, song, albumID)
}

func (t *sqlTx) UpdateAlbumWorstSong(ctx context.Context, albumID, song string) error {
	return t.execOne(ctx, "updating worst song", `UPDATE albums SET worst_song = ? WHERE id = ?`, song, albumID)
}

func (t *sqlTx) UpdateAlbumContent(ctx context.Context, albumID, content string) error {
	return t.execOne(ctx, "updating review content", `UPDATE albums SET review_content = ? WHERE id = ?`, content, albumID)
}

func (t *sqlTx) DeleteAlbum(ctx context.Context, albumID string) error {
	return t.execOne(ctx, "deleting album", `DELETE FROM albums WHERE id = ?`, albumID)
}

func (t *sqlTx) AdoptAlbums(ctx context.Context, artistSpotifyID, artistID string) (int, error) {
	res, err := t.q.ExecContext(ctx,
		`UPDATE albums SET artist_id = ? WHERE artist_id IS NULL AND artist_spotify_id = ?`, artistID, artistSpotifyID)
	if err != nil {
		return 0, fmt.Errorf("adopting albums: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("adopting albums: %w", err)
	}
	return int(n), nil
}

func (t *sqlTx) InsertBookmark(ctx context.Context, b model.Bookmark) error {
	_, err := t.q.ExecContext(ctx, `INSERT INTO bookmarks (`+bookmarkColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		b.SpotifyID, b.ArtistSpotifyID, b.ArtistName, b.Name, b.ReleaseYear, b.ReleaseDate, b.ImageURL)
	if isUniqueViolation(err) {
		return fmt.Errorf("bookmark spotify:%s: %w", b.SpotifyID, ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("creating bookmark: %w", err)
	}
	return nil
}

func (t *sqlTx) DeleteBookmark(ctx context.Context, spotifyID string) (bool, error) {
	res, err := t.q.ExecContext(ctx, `DELETE FROM bookmarks WHERE spotify_id = ?`, spotifyID)
	if err != nil {
		return false, fmt.Errorf("deleting bookmark: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("deleting bookmark: %w", err)
	}
	return n > 0, nil
}
