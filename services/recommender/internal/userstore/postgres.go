package userstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/example/movie-platform/services/recommender/internal/domain"
)

// PostgresUserStore is the production Postgres-backed implementation.
type PostgresUserStore struct {
	db *pgxpool.Pool
}

func NewPostgresUserStore(db *pgxpool.Pool) *PostgresUserStore {
	return &PostgresUserStore{db: db}
}

func (s *PostgresUserStore) GetFavorites(ctx context.Context, userID string) ([]int64, error) {
	rows, err := s.db.Query(ctx, `
SELECT movie_id FROM user_favorites WHERE user_id = $1::uuid ORDER BY created_at`, userID)
	if err != nil {
		return nil, fmt.Errorf("favorites query: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("favorites scan: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *PostgresUserStore) GetPreferences(ctx context.Context, userID string) (domain.Preferences, bool, error) {
	var p domain.Preferences
	err := s.db.QueryRow(ctx, `
SELECT preferred_genres, avoided_genres, min_vote_average, min_vote_count,
       preferred_languages, release_year_range
FROM user_preferences WHERE user_id = $1::uuid`, userID,
	).Scan(&p.PreferredGenres, &p.AvoidedGenres, &p.MinVoteAverage, &p.MinVoteCount,
		&p.PreferredLanguages, &p.ReleaseYearRange)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Preferences{}, false, nil
		}
		return domain.Preferences{}, false, fmt.Errorf("preferences query: %w", err)
	}
	return p, true, nil
}

func (s *PostgresUserStore) GetHistory(ctx context.Context, userID string) ([]domain.HistoryEntry, error) {
	rows, err := s.db.Query(ctx, `
SELECT movie_id, COALESCE(rating, 0), watched_at
FROM viewing_history WHERE user_id = $1::uuid ORDER BY watched_at`, userID)
	if err != nil {
		return nil, fmt.Errorf("history query: %w", err)
	}
	defer rows.Close()

	var out []domain.HistoryEntry
	for rows.Next() {
		var h domain.HistoryEntry
		if err := rows.Scan(&h.MovieID, &h.Rating, &h.WatchedAt); err != nil {
			return nil, fmt.Errorf("history scan: %w", err)
		}
		out = append(out, h)
	}
	return out, rows.Err()
}
