package user

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

type memoryRepository struct {
	mu    sync.RWMutex
	users map[string]User // keyed by phone number
}

// NewMemoryRepository builds an in-memory user store for testing.
func NewMemoryRepository() Repository {
	return &memoryRepository{users: make(map[string]User)}
}

func (r *memoryRepository) Create(_ context.Context, input CreateInput) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.users[input.PhoneNumber]; exists {
		return User{}, errors.New("user exists")
	}
	u := User{
		ID:          uuid.NewString(),
		PhoneNumber: input.PhoneNumber,
		FullName:    input.FullName,
		Email:       input.Email,
		DateOfBirth: input.DateOfBirth,
		Address:     input.Address,
		KYCStatus:   KYCPending,
		CreatedAt:   time.Now().UTC(),
	}
	r.users[input.PhoneNumber] = u
	return u, nil
}

func (r *memoryRepository) FindByPhone(_ context.Context, phone string) (User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[phone]
	if !ok {
		return User{}, ErrNotFound
	}
	return u, nil
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
