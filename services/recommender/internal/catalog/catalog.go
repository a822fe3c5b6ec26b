package catalog

import (
	"context"

	"github.com/example/movie-platform/services/recommender/internal/domain"
)

// CandidateFilter narrows the candidate set a scorer works on.
// Zero-value fields are ignored.
type CandidateFilter struct {
	GenreIDs []int64
	Limit    int
}

// Catalog is the read-only view over the movie data available to the core.
// Candidates returned here are a snapshot; the core never mutates them.
type Catalog interface {
	GetCandidates(ctx context.Context, filter CandidateFilter) ([]domain.CandidateMovie, error)
	// GetMoviesByIDs resolves specific movies (favorites, history entries)
	// that may fall outside the current candidate snapshot. Unknown ids are
	// silently skipped.
	GetMoviesByIDs(ctx context.Context, ids []int64) ([]domain.CandidateMovie, error)
	GetGenre(ctx context.Context, id int64) (domain.Genre, error)
}
