package recipient

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound indicates no recipient exists for the lookup key.
var ErrNotFound = errors.New("recipient not found")

// Payment methods.
const (
	MethodUPI  = "upi"
	MethodBank = "bank"
)

// Recipient is a saved payout destination in India. Exactly one payment
// method is populated: UPIID for MethodUPI, or the bank triple for
// MethodBank. Recipients are soft-deleted.
type Recipient struct {
	ID               string
	UserID           string
	Nickname         string
	PaymentMethod    string
	UPIID            string
	AccountNumber    string
	IFSCCode         string
	BankName         string
	Verified         bool
	VerificationName string
	Active           bool
	CreatedAt        time.Time
}

// PaymentInfo is the short payment summary shown next to the nickname.
func (r Recipient) PaymentInfo() string {
	if r.PaymentMethod == MethodUPI {
		return r.UPIID
	}
	if len(r.AccountNumber) >= 4 {
		return "****" + r.AccountNumber[len(r.AccountNumber)-4:]
	}
	return "****" + r.AccountNumber
}

// CreateInput captures a confirmed recipient draft.
type CreateInput struct {
	UserID           string
	Nickname         string
	PaymentMethod    string
	UPIID            string
	AccountNumber    string
	IFSCCode         string
	BankName         string
	Verified         bool
	VerificationName string
}

// Repository persists recipients.
type Repository interface {
	Create(ctx context.Context, input CreateInput) (Recipient, error)
	FindByUser(ctx context.Context, userID string) ([]Recipient, error)
	FindByID(ctx context.Context, id string) (Recipient, error)
	// FindByNickname matches case-insensitively among the user's active
	// recipients; nicknames are unique per user under that comparison.
	FindByNickname(ctx context.Context, userID, nickname string) (Recipient, error)
	Deactivate(ctx context.Context, id string) error
}
