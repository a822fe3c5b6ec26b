package catalog

import (
	"context"
	"fmt"
	"sync"

	"github.com/example/movie-platform/services/recommender/internal/domain"
	"github.com/example/movie-platform/services/recommender/internal/tmdb"
)

// TMDbCatalog serves candidates straight from the TMDb API. The genre list
// changes rarely and is cached in-process after the first lookup.
type TMDbCatalog struct {
	client tmdb.Provider

	mu     sync.RWMutex
	genres map[int64]domain.Genre
}

func NewTMDbCatalog(client tmdb.Provider) *TMDbCatalog {
	return &TMDbCatalog{client: client}
}

func (c *TMDbCatalog) GetCandidates(ctx context.Context, filter CandidateFilter) ([]domain.CandidateMovie, error) {
	var (
		resp *tmdb.MovieListResponse
		err  error
	)
	if len(filter.GenreIDs) > 0 {
		resp, err = c.client.DiscoverMovies(ctx, filter.GenreIDs, 1)
	} else {
		resp, err = c.client.GetPopularMovies(ctx, 1)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCatalogUnavailable, err)
	}

	out := make([]domain.CandidateMovie, 0, len(resp.Results))
	for _, m := range resp.Results {
		out = append(out, mapMovie(m))
	}
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (c *TMDbCatalog) GetMoviesByIDs(ctx context.Context, ids []int64) ([]domain.CandidateMovie, error) {
	out := make([]domain.CandidateMovie, 0, len(ids))
	for _, id := range ids {
		d, err := c.client.GetMovieDetails(ctx, id)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			// Unknown or transiently unavailable movies are skipped; a
			// partial profile beats failing the whole computation.
			continue
		}
		m := mapMovie(d.MovieData)
		for _, g := range d.Genres {
			m.GenreIDs = append(m.GenreIDs, g.ID)
		}
		for _, cast := range d.Credits.Cast {
			m.CastIDs = append(m.CastIDs, cast.ID)
		}
		out = append(out, m)
	}
	return out, nil
}

func (c *TMDbCatalog) GetGenre(ctx context.Context, id int64) (domain.Genre, error) {
	c.mu.RLock()
	g, ok := c.genres[id]
	c.mu.RUnlock()
	if ok {
		return g, nil
	}

	resp, err := c.client.GetGenres(ctx)
	if err != nil {
		return domain.Genre{}, fmt.Errorf("%w: %v", domain.ErrCatalogUnavailable, err)
	}

	c.mu.Lock()
	c.genres = make(map[int64]domain.Genre, len(resp.Genres))
	for _, rg := range resp.Genres {
		c.genres[rg.ID] = domain.Genre{ID: rg.ID, Name: rg.Name}
	}
	g, ok = c.genres[id]
	c.mu.Unlock()

	if !ok {
		return domain.Genre{}, fmt.Errorf("genre %d not found", id)
	}
	return g, nil
}

func mapMovie(m tmdb.MovieData) domain.CandidateMovie {
	return domain.CandidateMovie{
		ID:               m.ID,
		Title:            m.Title,
		GenreIDs:         m.GenreIDs,
		VoteAverage:      m.VoteAverage,
		VoteCount:        m.VoteCount,
		Popularity:       m.Popularity,
		Overview:         m.Overview,
		ReleaseYear:      m.ReleaseYear(),
		OriginalLanguage: m.OriginalLanguage,
	}
}
