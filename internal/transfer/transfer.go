package transfer

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound indicates no transfer exists for the lookup key.
var ErrNotFound = errors.New("transfer not found")

// Status is a transfer's position in its lifecycle. Quotes advance
// through the two processing phases to completed; cancelled and failed
// are terminal exits.
type Status string

const (
	StatusQuote                Status = "quote"
	StatusProcessingWithdrawal Status = "processing_withdrawal"
	StatusProcessingPayout     Status = "processing_payout"
	StatusCompleted            Status = "completed"
	StatusCancelled            Status = "cancelled"
	StatusFailed               Status = "failed"
)

// Active reports whether the transfer still occupies the duplicate
// detection window.
func (s Status) Active() bool {
	switch s {
	case StatusQuote, StatusProcessingWithdrawal, StatusProcessingPayout:
		return true
	}
	return false
}

// Icon is the status marker shown in transfer listings.
func (s Status) Icon() string {
	switch s {
	case StatusCompleted:
		return "✅"
	case StatusProcessingWithdrawal, StatusProcessingPayout:
		return "⏳"
	case StatusQuote:
		return "📋"
	case StatusCancelled:
		return "🚫"
	case StatusFailed:
		return "❌"
	}
	return "•"
}

// Label is the human wording for a status.
func (s Status) Label() string {
	switch s {
	case StatusQuote:
		return "Quoted"
	case StatusProcessingWithdrawal:
		return "Withdrawing funds"
	case StatusProcessingPayout:
		return "Sending to recipient"
	case StatusCompleted:
		return "Completed"
	case StatusCancelled:
		return "Cancelled"
	case StatusFailed:
		return "Failed"
	}
	return string(s)
}

// Transfer is one USD to INR remittance. Amounts are USD, Destination
// is INR. AccountID is empty until the sender picks a funding account.
type Transfer struct {
	ID             string
	Code           string
	UserID         string
	RecipientID    string
	AccountID      string
	Amount         float64
	Fee            float64
	FeeLabel       string
	Rate           float64
	Destination    float64
	Status         Status
	QuoteExpiresAt time.Time
	CreatedAt      time.Time

	ConfirmedAt *time.Time
	WithdrawnAt *time.Time
	CompletedAt *time.Time
	CancelledAt *time.Time
	FailedAt    *time.Time
}

// QuoteExpired reports whether the quote window has passed.
func (t Transfer) QuoteExpired(now time.Time) bool {
	return now.After(t.QuoteExpiresAt)
}

// CreateInput captures a freshly priced quote.
type CreateInput struct {
	Code           string
	UserID         string
	RecipientID    string
	Amount         float64
	Fee            float64
	FeeLabel       string
	Rate           float64
	Destination    float64
	QuoteExpiresAt time.Time
}

// Repository persists transfers. Status transitions are
// compare-and-set: UpdateStatus only applies when the stored status
// still equals from, so a confirmation and a background refresh racing
// on the same quote cannot both win.
type Repository interface {
	Create(ctx context.Context, input CreateInput) (Transfer, error)
	FindByID(ctx context.Context, id string) (Transfer, error)
	// FindActive returns an in-flight transfer matching the same user,
	// recipient and amount, or ErrNotFound.
	FindActive(ctx context.Context, userID, recipientID string, amount float64) (Transfer, error)
	FindRecentByUser(ctx context.Context, userID string, limit int) ([]Transfer, error)
	// UpdateStatus moves id from one status to another and stamps the
	// transition time. Returns false without error when the stored
	// status no longer matches from.
	UpdateStatus(ctx context.Context, id string, from, to Status) (bool, error)
	// UpdateQuote replaces the rate and destination while the transfer
	// is still a quote. Returns false when it no longer is.
	UpdateQuote(ctx context.Context, id string, rate, destination float64) (bool, error)
	AttachAccount(ctx context.Context, id, accountID string) error
}
