package catalog

import (
	"context"

	"github.com/example/movie-platform/services/recommender/internal/domain"
)

// LayeredCatalog serves candidate reads from a warm in-memory snapshot and
// falls through to an origin catalog for specific movies the snapshot does
// not carry (old favorites, long-tail history entries).
type LayeredCatalog struct {
	snapshot *InMemoryCatalog
	origin   Catalog
}

func NewLayeredCatalog(snapshot *InMemoryCatalog, origin Catalog) *LayeredCatalog {
	return &LayeredCatalog{snapshot: snapshot, origin: origin}
}

func (c *LayeredCatalog) GetCandidates(ctx context.Context, filter CandidateFilter) ([]domain.CandidateMovie, error) {
	return c.snapshot.GetCandidates(ctx, filter)
}

func (c *LayeredCatalog) GetMoviesByIDs(ctx context.Context, ids []int64) ([]domain.CandidateMovie, error) {
	found, err := c.snapshot.GetMoviesByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	if len(found) == len(ids) {
		return found, nil
	}

	have := make(map[int64]struct{}, len(found))
	for _, m := range found {
		have[m.ID] = struct{}{}
	}
	missing := make([]int64, 0, len(ids)-len(found))
	for _, id := range ids {
		if _, ok := have[id]; !ok {
			missing = append(missing, id)
		}
	}

	rest, err := c.origin.GetMoviesByIDs(ctx, missing)
	if err != nil {
		// The snapshot half is still useful on its own.
		return found, nil
	}
	return append(found, rest...), nil
}

func (c *LayeredCatalog) GetGenre(ctx context.Context, id int64) (domain.Genre, error) {
	if g, err := c.snapshot.GetGenre(ctx, id); err == nil {
		return g, nil
	}
	return c.origin.GetGenre(ctx, id)
}
