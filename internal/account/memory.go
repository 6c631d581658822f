package account

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

type memoryRepository struct {
	mu       sync.RWMutex
	accounts map[string]Account
	seq      int
}

// NewMemoryRepository constructs an in-memory repository for tests.
func NewMemoryRepository() Repository {
	return &memoryRepository{accounts: make(map[string]Account)}
}

func (r *memoryRepository) Create(_ context.Context, input CreateInput) (Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	a := Account{
		ID:            uuid.NewString(),
		UserID:        input.UserID,
		AccessToken:   input.AccessToken,
		ExternalID:    input.ExternalID,
		AccountNumber: input.AccountNumber,
		RoutingNumber: input.RoutingNumber,
		BankName:      input.BankName,
		HolderName:    input.HolderName,
		AccountType:   input.AccountType,
		Verified:      true,
		Active:        true,
		Default:       input.Default,
		CreatedAt:     time.Now().UTC().Add(time.Duration(r.seq) * time.Millisecond),
	}
	r.accounts[a.ID] = a
	return a, nil
}

func (r *memoryRepository) FindByUser(_ context.Context, userID string) ([]Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var accounts []Account
	for _, a := range r.accounts {
		if a.UserID == userID && a.Active {
			accounts = append(accounts, a)
		}
	}
	sort.Slice(accounts, func(i, j int) bool {
		if accounts[i].Default != accounts[j].Default {
			return accounts[i].Default
		}
		return accounts[i].CreatedAt.Before(accounts[j].CreatedAt)
	})
	return accounts, nil
}

func (r *memoryRepository) FindByID(_ context.Context, id string) (Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.accounts[id]
	if !ok {
		return Account{}, ErrNotFound
	}
	return a, nil
}

func (r *memoryRepository) CountByUser(_ context.Context, userID string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	count := 0
	for _, a := range r.accounts {
		if a.UserID == userID && a.Active {
			count++
		}
	}
	return count, nil
}

func (r *memoryRepository) SetDefault(_ context.Context, accountID, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	target, ok := r.accounts[accountID]
	if !ok || target.UserID != userID || !target.Active {
		return ErrNotFound
	}
	for id, a := range r.accounts {
		if a.UserID == userID && a.Default {
			a.Default = false
			r.accounts[id] = a
		}
	}
	target.Default = true
	r.accounts[accountID] = target
	return nil
}

func (r *memoryRepository) Deactivate(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[id]
	if !ok {
		return ErrNotFound
	}
	a.Active = false
	a.Default = false
	r.accounts[id] = a
	return nil
}
