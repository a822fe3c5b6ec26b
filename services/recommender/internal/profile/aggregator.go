// Package profile builds the normalized UserProfile consumed by the scorers.
package profile

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/example/movie-platform/services/recommender/internal/domain"
	"github.com/example/movie-platform/services/recommender/internal/userstore"
)

// Aggregator collects favorites, preferences and viewing history into a
// UserProfile. It is a pure read/transform with no side effects.
type Aggregator struct {
	store userstore.UserStore
	log   *zap.Logger
}

func NewAggregator(store userstore.UserStore, log *zap.Logger) *Aggregator {
	return &Aggregator{store: store, log: log}
}

// BuildProfile assembles the profile for userID.
//
// A missing preference record is not a failure: first-time users still get
// trending-fallback recommendations, so absence of preferences means
// "no opinion" and yields a default profile with MinVoteAverage 0.
// Store read failures wrap domain.ErrProfileUnavailable.
func (a *Aggregator) BuildProfile(ctx context.Context, userID string) (domain.UserProfile, error) {
	p := domain.UserProfile{
		UserID:             userID,
		Favorites:          make(map[int64]struct{}),
		PreferredGenres:    make(map[int64]struct{}),
		AvoidedGenres:      make(map[int64]struct{}),
		PreferredLanguages: make(map[string]struct{}),
	}

	// Anonymous callers get the default profile; the trending fallback
	// needs no stored signals.
	if userID == "" {
		return p, nil
	}

	favs, err := a.store.GetFavorites(ctx, userID)
	if err != nil {
		return domain.UserProfile{}, fmt.Errorf("favorites for %s: %v: %w", userID, err, domain.ErrProfileUnavailable)
	}
	for _, id := range favs {
		p.Favorites[id] = struct{}{}
	}

	prefs, found, err := a.store.GetPreferences(ctx, userID)
	if err != nil {
		return domain.UserProfile{}, fmt.Errorf("preferences for %s: %v: %w", userID, err, domain.ErrProfileUnavailable)
	}
	if found {
		for _, g := range prefs.AvoidedGenres {
			p.AvoidedGenres[g] = struct{}{}
		}
		for _, g := range prefs.PreferredGenres {
			// Avoided wins when a genre appears on both lists.
			if _, avoided := p.AvoidedGenres[g]; avoided {
				a.log.Warn("genre on both preferred and avoided lists, avoided wins",
					zap.String("user_id", userID), zap.Int64("genre_id", g))
				continue
			}
			p.PreferredGenres[g] = struct{}{}
		}
		p.MinVoteAverage = prefs.MinVoteAverage
		p.MinVoteCount = prefs.MinVoteCount
		p.ReleaseYearRange = prefs.ReleaseYearRange
		for _, l := range prefs.PreferredLanguages {
			p.PreferredLanguages[l] = struct{}{}
		}
	}

	history, err := a.store.GetHistory(ctx, userID)
	if err != nil {
		return domain.UserProfile{}, fmt.Errorf("history for %s: %v: %w", userID, err, domain.ErrProfileUnavailable)
	}
	p.History = dedupeHistory(history)

	return p, nil
}

// dedupeHistory keeps only the most recent entry per movie and returns the
// result ordered oldest first.
func dedupeHistory(in []domain.HistoryEntry) []domain.HistoryEntry {
	latest := make(map[int64]domain.HistoryEntry, len(in))
	for _, h := range in {
		if cur, ok := latest[h.MovieID]; !ok || h.WatchedAt.After(cur.WatchedAt) {
			latest[h.MovieID] = h
		}
	}
	out := make([]domain.HistoryEntry, 0, len(latest))
	for _, h := range latest {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].WatchedAt.Equal(out[j].WatchedAt) {
			return out[i].WatchedAt.Before(out[j].WatchedAt)
		}
		return out[i].MovieID < out[j].MovieID
	})
	return out
}
