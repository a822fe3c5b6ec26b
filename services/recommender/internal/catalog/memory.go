package catalog

import (
	"context"
	"sort"
	"sync"

	"github.com/example/movie-platform/services/recommender/internal/domain"
)

// InMemoryCatalog serves a fixed snapshot, used in tests and as the local
// cache target for the TMDb-backed refresher.
type InMemoryCatalog struct {
	mu     sync.RWMutex
	movies map[int64]domain.CandidateMovie
	genres map[int64]domain.Genre
}

func NewInMemoryCatalog() *InMemoryCatalog {
	return &InMemoryCatalog{
		movies: make(map[int64]domain.CandidateMovie),
		genres: make(map[int64]domain.Genre),
	}
}

func (c *InMemoryCatalog) GetCandidates(_ context.Context, filter CandidateFilter) ([]domain.CandidateMovie, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]domain.CandidateMovie, 0, len(c.movies))
	for _, m := range c.movies {
		if len(filter.GenreIDs) > 0 && !hasAnyGenre(m, filter.GenreIDs) {
			continue
		}
		out = append(out, m)
	}
	// Popularity-descending, id ascending for a stable snapshot order.
	sort.Slice(out, func(i, j int) bool {
		if out[i].Popularity != out[j].Popularity {
			return out[i].Popularity > out[j].Popularity
		}
		return out[i].ID < out[j].ID
	})
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (c *InMemoryCatalog) GetMoviesByIDs(_ context.Context, ids []int64) ([]domain.CandidateMovie, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]domain.CandidateMovie, 0, len(ids))
	for _, id := range ids {
		if m, ok := c.movies[id]; ok {
			out = append(out, m)
		}
	}
	return out, nil
}

func (c *InMemoryCatalog) GetGenre(_ context.Context, id int64) (domain.Genre, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if g, ok := c.genres[id]; ok {
		return g, nil
	}
	return domain.Genre{}, domain.ErrCatalogUnavailable
}

// Put upserts a movie into the snapshot.
func (c *InMemoryCatalog) Put(m domain.CandidateMovie) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.movies[m.ID] = m
}

// PutGenre upserts a genre record.
func (c *InMemoryCatalog) PutGenre(g domain.Genre) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.genres[g.ID] = g
}

func hasAnyGenre(m domain.CandidateMovie, wanted []int64) bool {
	for _, w := range wanted {
		for _, g := range m.GenreIDs {
			if g == w {
				return true
			}
		}
	}
	return false
}
