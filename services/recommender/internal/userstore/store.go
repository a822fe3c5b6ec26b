package userstore

import (
	"context"

	"github.com/example/movie-platform/services/recommender/internal/domain"
)

// UserStore exposes the read-only user signals the recommender consumes.
// Mutations happen in the external favorites/preferences services; they
// publish invalidation events instead of writing through this interface.
type UserStore interface {
	// GetFavorites returns the user's favorited movie ids.
	GetFavorites(ctx context.Context, userID string) ([]int64, error)

	// GetPreferences returns the user's preference record.
	// found=false means the user has never saved preferences.
	GetPreferences(ctx context.Context, userID string) (prefs domain.Preferences, found bool, err error)

	// GetHistory returns viewing-history entries ordered oldest first.
	GetHistory(ctx context.Context, userID string) ([]domain.HistoryEntry, error)
}
