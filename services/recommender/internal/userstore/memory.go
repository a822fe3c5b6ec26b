package userstore

import (
	"context"
	"sync"

	"github.com/example/movie-platform/services/recommender/internal/domain"
)

// InMemoryUserStore is a development/test implementation.
type InMemoryUserStore struct {
	mu        sync.RWMutex
	favorites map[string][]int64
	prefs     map[string]domain.Preferences
	history   map[string][]domain.HistoryEntry
}

func NewInMemoryUserStore() *InMemoryUserStore {
	return &InMemoryUserStore{
		favorites: make(map[string][]int64),
		prefs:     make(map[string]domain.Preferences),
		history:   make(map[string][]domain.HistoryEntry),
	}
}

func (s *InMemoryUserStore) GetFavorites(_ context.Context, userID string) ([]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]int64, len(s.favorites[userID]))
	copy(out, s.favorites[userID])
	return out, nil
}

func (s *InMemoryUserStore) GetPreferences(_ context.Context, userID string) (domain.Preferences, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.prefs[userID]
	return p, ok, nil
}

func (s *InMemoryUserStore) GetHistory(_ context.Context, userID string) ([]domain.HistoryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.HistoryEntry, len(s.history[userID]))
	copy(out, s.history[userID])
	return out, nil
}

// Seed helpers used by tests and the development bootstrap.

func (s *InMemoryUserStore) AddFavorite(userID string, movieID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.favorites[userID] = append(s.favorites[userID], movieID)
}

func (s *InMemoryUserStore) SetPreferences(userID string, p domain.Preferences) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prefs[userID] = p
}

func (s *InMemoryUserStore) AddHistory(userID string, h domain.HistoryEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history[userID] = append(s.history[userID], h)
}
