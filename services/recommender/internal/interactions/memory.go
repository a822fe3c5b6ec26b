package interactions

import (
	"context"
	"sync"
)

// InMemoryStore holds a static interaction snapshot for tests and development.
type InMemoryStore struct {
	mu     sync.RWMutex
	matrix Matrix
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{matrix: make(Matrix)}
}

func (s *InMemoryStore) GetAllUserInteractions(_ context.Context) (Matrix, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(Matrix, len(s.matrix))
	for uid, row := range s.matrix {
		cp := make(map[int64]float64, len(row))
		for mid, w := range row {
			cp[mid] = w
		}
		out[uid] = cp
	}
	return out, nil
}

// Set records one interaction weight, replacing any previous value.
func (s *InMemoryStore) Set(userID string, movieID int64, weight float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.matrix[userID] == nil {
		s.matrix[userID] = make(map[int64]float64)
	}
	s.matrix[userID][movieID] = weight
}
