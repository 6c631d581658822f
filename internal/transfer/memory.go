package transfer

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

type memoryRepository struct {
	mu        sync.RWMutex
	transfers map[string]Transfer
	seq       int
}

// NewMemoryRepository constructs an in-memory repository for tests.
func NewMemoryRepository() Repository {
	return &memoryRepository{transfers: make(map[string]Transfer)}
}

func (r *memoryRepository) Create(_ context.Context, input CreateInput) (Transfer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	t := Transfer{
		ID:             uuid.NewString(),
		Code:           input.Code,
		UserID:         input.UserID,
		RecipientID:    input.RecipientID,
		Amount:         input.Amount,
		Fee:            input.Fee,
		FeeLabel:       input.FeeLabel,
		Rate:           input.Rate,
		Destination:    input.Destination,
		Status:         StatusQuote,
		QuoteExpiresAt: input.QuoteExpiresAt.UTC(),
		CreatedAt:      time.Now().UTC().Add(time.Duration(r.seq) * time.Millisecond),
	}
	r.transfers[t.ID] = t
	return t, nil
}

func (r *memoryRepository) FindByID(_ context.Context, id string) (Transfer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.transfers[id]
	if !ok {
		return Transfer{}, ErrNotFound
	}
	return t, nil
}

func (r *memoryRepository) FindActive(_ context.Context, userID, recipientID string, amount float64) (Transfer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var (
		latest Transfer
		found  bool
	)
	for _, t := range r.transfers {
		if t.UserID == userID && t.RecipientID == recipientID && t.Amount == amount && t.Status.Active() {
			if !found || t.CreatedAt.After(latest.CreatedAt) {
				latest = t
				found = true
			}
		}
	}
	if !found {
		return Transfer{}, ErrNotFound
	}
	return latest, nil
}

func (r *memoryRepository) FindRecentByUser(_ context.Context, userID string, limit int) ([]Transfer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Transfer
	for _, t := range r.transfers {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *memoryRepository) UpdateStatus(_ context.Context, id string, from, to Status) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.transfers[id]
	if !ok {
		return false, ErrNotFound
	}
	if t.Status != from {
		return false, nil
	}
	now := time.Now().UTC()
	t.Status = to
	switch to {
	case StatusProcessingWithdrawal:
		t.ConfirmedAt = &now
	case StatusProcessingPayout:
		t.WithdrawnAt = &now
	case StatusCompleted:
		t.CompletedAt = &now
	case StatusCancelled:
		t.CancelledAt = &now
	case StatusFailed:
		t.FailedAt = &now
	}
	r.transfers[id] = t
	return true, nil
}

func (r *memoryRepository) UpdateQuote(_ context.Context, id string, rate, destination float64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.transfers[id]
	if !ok {
		return false, ErrNotFound
	}
	if t.Status != StatusQuote {
		return false, nil
	}
	t.Rate = rate
	t.Destination = destination
	r.transfers[id] = t
	return true, nil
}

func (r *memoryRepository) AttachAccount(_ context.Context, id, accountID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.transfers[id]
	if !ok {
		return ErrNotFound
	}
	t.AccountID = accountID
	r.transfers[id] = t
	return nil
}
