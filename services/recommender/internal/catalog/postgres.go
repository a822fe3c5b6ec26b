package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/example/movie-platform/services/recommender/internal/domain"
)

// PostgresCatalog reads the movie snapshot maintained by the ingestion jobs.
type PostgresCatalog struct {
	db *pgxpool.Pool
}

func NewPostgresCatalog(db *pgxpool.Pool) *PostgresCatalog {
	return &PostgresCatalog{db: db}
}

func (c *PostgresCatalog) GetCandidates(ctx context.Context, filter CandidateFilter) ([]domain.CandidateMovie, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 500
	}

	var rows pgx.Rows
	var err error
	if len(filter.GenreIDs) > 0 {
		rows, err = c.db.Query(ctx, `
SELECT id, title, genre_ids, cast_ids, vote_average, vote_count, popularity,
       overview, release_year, original_language
FROM movies WHERE genre_ids && $1
ORDER BY popularity DESC, id LIMIT $2`, filter.GenreIDs, limit)
	} else {
		rows, err = c.db.Query(ctx, `
SELECT id, title, genre_ids, cast_ids, vote_average, vote_count, popularity,
       overview, release_year, original_language
FROM movies ORDER BY popularity DESC, id LIMIT $1`, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: candidates query: %v", domain.ErrCatalogUnavailable, err)
	}
	defer rows.Close()

	var out []domain.CandidateMovie
	for rows.Next() {
		var m domain.CandidateMovie
		if err := rows.Scan(&m.ID, &m.Title, &m.GenreIDs, &m.CastIDs, &m.VoteAverage,
			&m.VoteCount, &m.Popularity, &m.Overview, &m.ReleaseYear, &m.OriginalLanguage); err != nil {
			return nil, fmt.Errorf("%w: candidates scan: %v", domain.ErrCatalogUnavailable, err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (c *PostgresCatalog) GetMoviesByIDs(ctx context.Context, ids []int64) ([]domain.CandidateMovie, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := c.db.Query(ctx, `
SELECT id, title, genre_ids, cast_ids, vote_average, vote_count, popularity,
       overview, release_year, original_language
FROM movies WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("%w: movies query: %v", domain.ErrCatalogUnavailable, err)
	}
	defer rows.Close()

	var out []domain.CandidateMovie
	for rows.Next() {
		var m domain.CandidateMovie
		if err := rows.Scan(&m.ID, &m.Title, &m.GenreIDs, &m.CastIDs, &m.VoteAverage,
			&m.VoteCount, &m.Popularity, &m.Overview, &m.ReleaseYear, &m.OriginalLanguage); err != nil {
			return nil, fmt.Errorf("%w: movies scan: %v", domain.ErrCatalogUnavailable, err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (c *PostgresCatalog) GetGenre(ctx context.Context, id int64) (domain.Genre, error) {
	var g domain.Genre
	err := c.db.QueryRow(ctx, `SELECT id, name FROM genres WHERE id = $1`, id).Scan(&g.ID, &g.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Genre{}, fmt.Errorf("genre %d: %w", id, pgx.ErrNoRows)
		}
		return domain.Genre{}, fmt.Errorf("%w: genre query: %v", domain.ErrCatalogUnavailable, err)
	}
	return g, nil
}
