package user

import (
	"context"
	"sync"
)

type memoryRepository struct {
	mu    sync.RWMutex
	users map[string]User // keyed by username
}

// NewMemoryRepository builds an in-memory user store for testing.
func NewMemoryRepository() Repository {
	return &memoryRepository{users: make(map[string]User)}
}

func (r *memoryRepository) Create(_ context.Context, u User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.users[u.Username]; exists {
		return ErrUsernameTaken
	}
	if u.WalletAddress != "" {
		for _, other := range r.users {
			if other.WalletAddress == u.WalletAddress {
				return ErrWalletTaken
			}
		}
	}
	r.users[u.Username] = u
	return nil
}

func (r *memoryRepository) FindByID(_ context.Context, id string) (User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if u.ID == id {
			return u, nil
		}
	}
	return User{}, ErrNotFound
}

func (r *memoryRepository) FindByUsername(_ context.Context, username string) (User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[username]
	if !ok {
		return User{}, ErrNotFound
	}
	return u, nil
}

func (r *memoryRepository) FindByWallet(_ context.Context, address string) (User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if u.WalletAddress == address && address != "" {
			return u, nil
		}
	}
	return User{}, ErrNotFound
}

func (r *memoryRepository) UpdateWallet(_ context.Context, id, address string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, other := range r.users {
		if other.WalletAddress == address && other.ID != id {
			return ErrWalletTaken
		}
	}
	for username, u := range r.users {
		if u.ID == id {
			u.WalletAddress = address
			r.users[username] = u
			return nil
		}
	}
	return ErrNotFound
}

func (r *memoryRepository) UpdateTokenVersion(_ context.Context, id string, version int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for username, u := range r.users {
		if u.ID == id {
			u.TokenVersion = version
			r.users[username] = u
			return nil
		}
	}
	return ErrNotFound
}
