// Package service implements the review lifecycle: scoring albums,
// aggregating artist averages, keeping the leaderboard ranked and the
// bookmark table consistent with review state.
//
// Every mutating operation runs as one repository unit of work. Catalog
// lookups happen before the unit of work starts.
package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/okian/critic/internal/adapters/catalog"
	"github.com/okian/critic/internal/adapters/repository"
	"github.com/okian/critic/internal/domain/ranking"
	"github.com/okian/critic/pkg/logger"
	"github.com/okian/critic/pkg/metrics"
)

const defaultTxMaxAttempts = 3

// Catalog is the subset of the music catalog the service depends on.
type Catalog interface {
	Artist(ctx context.Context, id string) (catalog.Artist, error)
	Album(ctx context.Context, id string) (catalog.Album, error)
}

// Service implements the API dependencies for the review system.
type Service struct {
	store   repository.Store
	catalog Catalog
	logger  logger.Logger
	now     func() time.Time

	txMaxAttempts int

	rngMu sync.Mutex
	rng   *rand.Rand
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithTxMaxAttempts bounds how often a unit of work is retried after a
// uniqueness conflict.
func WithTxMaxAttempts(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.txMaxAttempts = n
		}
	}
}

// WithRandSeed makes bookmark selection deterministic. Zero keeps a
// randomly seeded source.
func WithRandSeed(seed uint64) Option {
	return func(s *Service) {
		if seed != 0 {
			s.rng = rand.New(rand.NewPCG(seed, seed)) //nolint:gosec // not security sensitive
		}
	}
}

// WithRand replaces the random source used by ChooseRandomBookmark.
func WithRand(r *rand.Rand) Option {
	return func(s *Service) {
		if r != nil {
			s.rng = r
		}
	}
}

// WithClock sets the clock used to stamp review dates.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// New constructs a Service on top of a store and a catalog.
func New(store repository.Store, cat Catalog, opts ...Option) *Service {
	s := &Service{
		store:         store,
		catalog:       cat,
		logger:        logger.Nop(),
		now:           time.Now,
		txMaxAttempts: defaultTxMaxAttempts,
		rng:           rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())), //nolint:gosec // not security sensitive
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// withTx runs fn in a unit of work, retrying the whole unit when it fails
// on a uniqueness conflict. A retry re-reads state, so a row created by a
// concurrent writer is found instead of inserted twice.
func (s *Service) withTx(ctx context.Context, op string, fn func(tx repository.Tx) error) error {
	var err error
	for attempt := 1; attempt <= s.txMaxAttempts; attempt++ {
		err = s.store.WithTx(ctx, fn)
		if !errors.Is(err, repository.ErrConflict) {
			return err
		}
		if attempt < s.txMaxAttempts {
			metrics.RecordTxRetry()
			s.logger.Debug(ctx, "retrying unit of work after conflict",
				logger.String("op", op),
				logger.Int("attempt", attempt),
				logger.Error(err),
			)
		}
	}
	return fmt.Errorf("%d attempts: %w", s.txMaxAttempts, err)
}

// rerank recomputes the leaderboard from the unit of work's view of all
// artists and writes the positions that moved in one batch.
func (s *Service) rerank(ctx context.Context, tx repository.Tx) error {
	start := time.Now()
	artists, err := tx.ListArtists(ctx)
	if err != nil {
		return fmt.Errorf("reading artists for ranking: %w", err)
	}
	changed := ranking.Changed(artists, ranking.Positions(artists))
	if err := tx.SetLeaderboard(ctx, changed); err != nil {
		return fmt.Errorf("writing leaderboard: %w", err)
	}
	metrics.RecordRerank(float64(time.Since(start).Milliseconds()), len(artists))
	return nil
}

// Stats summarises the stored review state.
type Stats struct {
	repository.Counts
	RankedArtists int `json:"ranked_artists"`
	TxMaxAttempts int `json:"tx_max_attempts"`
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats(ctx context.Context) (Stats, error) {
	counts, err := s.store.Counts(ctx)
	if err != nil {
		return Stats{}, classify("stats", err)
	}
	artists, err := s.store.ListArtists(ctx)
	if err != nil {
		return Stats{}, classify("stats", err)
	}
	ranked := 0
	for _, a := range artists {
		if a.LeaderboardPosition > 0 {
			ranked++
		}
	}
	metrics.UpdateTableSizes(counts.Artists, counts.Albums, counts.Bookmarks)
	return Stats{Counts: counts, RankedArtists: ranked, TxMaxAttempts: s.txMaxAttempts}, nil
}
