// Package interactions supplies the cross-user interaction snapshot used by
// the collaborative and latent-factor scorers. The snapshot is produced by an
// external batch process; the core only reads it.
package interactions

import "context"

// Interaction weights, matching the historical scoring of the catalog:
// a favorite counts full, an unrated watch slightly less, a rated watch
// proportional to the rating.
const (
	FavoriteWeight = 1.0
	WatchedWeight  = 0.8
)

// Matrix maps user id -> movie id -> interaction weight.
type Matrix map[string]map[int64]float64

// Vector returns one user's interaction row, or nil when absent.
func (m Matrix) Vector(userID string) map[int64]float64 {
	return m[userID]
}

// Store provides read-only access to the interaction snapshot.
type Store interface {
	GetAllUserInteractions(ctx context.Context) (Matrix, error)
}

// RatingWeight converts a 1-10 rating to an interaction weight.
func RatingWeight(rating int) float64 {
	if rating <= 0 {
		return WatchedWeight
	}
	return float64(rating) / 10.0
}
