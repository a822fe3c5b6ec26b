package interactions

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore builds the interaction matrix from the favorites and
// viewing-history tables in one pass each.
type PostgresStore struct {
	db *pgxpool.Pool
}

func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) GetAllUserInteractions(ctx context.Context) (Matrix, error) {
	m := make(Matrix)

	rows, err := s.db.Query(ctx, `SELECT user_id::text, movie_id FROM user_favorites`)
	if err != nil {
		return nil, fmt.Errorf("favorites query: %w", err)
	}
	for rows.Next() {
		var uid string
		var mid int64
		if err := rows.Scan(&uid, &mid); err != nil {
			rows.Close()
			return nil, fmt.Errorf("favorites scan: %w", err)
		}
		set(m, uid, mid, FavoriteWeight)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = s.db.Query(ctx, `SELECT user_id::text, movie_id, COALESCE(rating, 0) FROM viewing_history`)
	if err != nil {
		return nil, fmt.Errorf("history query: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var uid string
		var mid int64
		var rating int
		if err := rows.Scan(&uid, &mid, &rating); err != nil {
			return nil, fmt.Errorf("history scan: %w", err)
		}
		// Favorites win over history for the same (user, movie) pair.
		if _, ok := m[uid][mid]; !ok {
			set(m, uid, mid, RatingWeight(rating))
		}
	}
	return m, rows.Err()
}

func set(m Matrix, uid string, mid int64, w float64) {
	if m[uid] == nil {
		m[uid] = make(map[int64]float64)
	}
	m[uid][mid] = w
}
