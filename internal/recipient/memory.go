package recipient

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

type memoryRepository struct {
	mu         sync.RWMutex
	recipients map[string]Recipient
	seq        int
}

// NewMemoryRepository constructs an in-memory repository for tests.
func NewMemoryRepository() Repository {
	return &memoryRepository{recipients: make(map[string]Recipient)}
}

func (r *memoryRepository) Create(_ context.Context, input CreateInput) (Recipient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	rec := Recipient{
		ID:               uuid.NewString(),
		UserID:           input.UserID,
		Nickname:         input.Nickname,
		PaymentMethod:    input.PaymentMethod,
		UPIID:            input.UPIID,
		AccountNumber:    input.AccountNumber,
		IFSCCode:         input.IFSCCode,
		BankName:         input.BankName,
		Verified:         input.Verified,
		VerificationName: input.VerificationName,
		Active:           true,
		CreatedAt:        time.Now().UTC().Add(time.Duration(r.seq) * time.Millisecond),
	}
	r.recipients[rec.ID] = rec
	return rec, nil
}

func (r *memoryRepository) FindByUser(_ context.Context, userID string) ([]Recipient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Recipient
	for _, rec := range r.recipients {
		if rec.UserID == userID && rec.Active {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *memoryRepository) FindByID(_ context.Context, id string) (Recipient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.recipients[id]
	if !ok {
		return Recipient{}, ErrNotFound
	}
	return rec, nil
}

func (r *memoryRepository) FindByNickname(_ context.Context, userID, nickname string) (Recipient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, rec := range r.recipients {
		if rec.UserID == userID && rec.Active && strings.EqualFold(rec.Nickname, nickname) {
			return rec, nil
		}
	}
	return Recipient{}, ErrNotFound
}

func (r *memoryRepository) Deactivate(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.recipients[id]
	if !ok {
		return ErrNotFound
	}
	rec.Active = false
	r.recipients[id] = rec
	return nil
}
