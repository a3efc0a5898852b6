package credit

import (
	"context"
	"sync"
)

type memoryRepository struct {
	mu     sync.RWMutex
	scores map[string]Score
}

// NewMemoryRepository builds an in-memory score store for testing.
func NewMemoryRepository() Repository {
	return &memoryRepository{scores: make(map[string]Score)}
}

func (r *memoryRepository) Get(_ context.Context, address string) (Score, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.scores[address]
	if !ok {
		return Score{}, ErrScoreNotFound
	}
	return s, nil
}

func (r *memoryRepository) Upsert(_ context.Context, score Score) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scores[score.Address] = score
	return nil
}
