package catalog

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/example/movie-platform/services/recommender/internal/domain"
	"github.com/example/movie-platform/services/recommender/internal/ratelimit"
	"github.com/example/movie-platform/services/recommender/internal/tmdb"
)

// Refresher keeps an in-memory candidate snapshot warm from the TMDb lists,
// so scoring reads never block on the upstream API. Popular pages build the
// candidate pool; the weekly trending list tops up popularity signals.
type Refresher struct {
	client   tmdb.Provider
	target   *InMemoryCatalog
	limiter  *ratelimit.Limiter
	interval time.Duration
	pages    int
	log      *zap.Logger
}

func NewRefresher(client tmdb.Provider, target *InMemoryCatalog, interval time.Duration, pages int, log *zap.Logger) *Refresher {
	if interval <= 0 {
		interval = 30 * time.Minute
	}
	if pages <= 0 {
		pages = 5
	}
	return &Refresher{
		client:   client,
		target:   target,
		limiter:  ratelimit.NewRPS(4),
		interval: interval,
		pages:    pages,
		log:      log,
	}
}

// Run refreshes once immediately, then on every interval tick until ctx ends.
func (r *Refresher) Run(ctx context.Context) {
	defer r.limiter.Stop()

	r.refresh(ctx)
	t := time.NewTicker(r.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			r.refresh(ctx)
		}
	}
}

// refresh is best-effort: a failed page keeps the previous snapshot for the
// ids it covered.
func (r *Refresher) refresh(ctx context.Context) {
	start := time.Now()
	var stored int

	for page := 1; page <= r.pages; page++ {
		if err := r.limiter.Wait(ctx); err != nil {
			return
		}
		resp, err := r.client.GetPopularMovies(ctx, page)
		if err != nil {
			r.log.Warn("popular page fetch failed", zap.Int("page", page), zap.Error(err))
			continue
		}
		stored += r.store(resp.Results)
	}

	if err := r.limiter.Wait(ctx); err != nil {
		return
	}
	if resp, err := r.client.GetTrendingMovies(ctx); err != nil {
		r.log.Warn("trending fetch failed", zap.Error(err))
	} else {
		stored += r.store(resp.Results)
	}

	if err := r.refreshGenres(ctx); err != nil {
		r.log.Warn("genre refresh failed", zap.Error(err))
	}

	r.log.Info("catalog snapshot refreshed",
		zap.Int("movies", stored),
		zap.Duration("took", time.Since(start)))
}

func (r *Refresher) store(movies []tmdb.MovieData) int {
	for _, m := range movies {
		r.target.Put(mapMovie(m))
	}
	return len(movies)
}

func (r *Refresher) refreshGenres(ctx context.Context) error {
	if err := r.limiter.Wait(ctx); err != nil {
		return err
	}
	resp, err := r.client.GetGenres(ctx)
	if err != nil {
		return err
	}
	for _, g := range resp.Genres {
		r.target.PutGenre(domain.Genre{ID: g.ID, Name: g.Name})
	}
	return nil
}
