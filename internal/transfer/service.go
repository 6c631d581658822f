package transfer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/surgepay/surgepay/internal/fx"
)

var (
	// ErrDuplicateActive blocks a second in-flight transfer with the
	// same user, recipient and amount.
	ErrDuplicateActive = errors.New("matching transfer already in progress")
	// ErrQuoteExpired means the quote window passed before confirmation.
	ErrQuoteExpired = errors.New("quote expired")
	// ErrAlreadyProcessed means the transfer left the quote state and
	// the requested transition no longer applies.
	ErrAlreadyProcessed = errors.New("transfer already processed")
)

// RateSource supplies live USD/INR rates for pricing.
type RateSource interface {
	Live(ctx context.Context) (float64, error)
}

// Service drives the transfer lifecycle. Quotes are priced on live
// rates only; the informational fallback chain is never used for
// money movement.
type Service struct {
	repo     Repository
	rates    RateSource
	quoteTTL time.Duration
	logger   *slog.Logger
}

// NewService builds a transfer service.
func NewService(repo Repository, rates RateSource, quoteTTL time.Duration, logger *slog.Logger) *Service {
	return &Service{repo: repo, rates: rates, quoteTTL: quoteTTL, logger: logger}
}

// CreateQuote prices a new transfer and stores it as a quote. A live
// rate is required; an unreachable rate source fails the quote.
func (s *Service) CreateQuote(ctx context.Context, userID, recipientID string, amount float64) (Transfer, error) {
	if existing, err := s.repo.FindActive(ctx, userID, recipientID, amount); err == nil {
		return existing, ErrDuplicateActive
	} else if !errors.Is(err, ErrNotFound) {
		return Transfer{}, err
	}

	rate, err := s.rates.Live(ctx)
	if err != nil {
		return Transfer{}, fmt.Errorf("price quote: %w", err)
	}
	q := fx.NewQuote(amount, rate)

	t, err := s.repo.Create(ctx, CreateInput{
		Code:           GenerateCode(),
		UserID:         userID,
		RecipientID:    recipientID,
		Amount:         q.Amount,
		Fee:            q.Fee,
		FeeLabel:       q.FeeLabel,
		Rate:           q.Rate,
		Destination:    q.Destination,
		QuoteExpiresAt: time.Now().Add(s.quoteTTL),
	})
	if err != nil {
		return Transfer{}, err
	}
	s.logger.Info("quote created", "transfer_id", t.ID, "code", t.Code, "amount", t.Amount, "rate", t.Rate)
	return t, nil
}

// RefreshQuote reprices an open quote at the current live rate. It
// returns ErrAlreadyProcessed when the transfer left the quote state
// and ErrQuoteExpired, after cancelling, when the window passed.
func (s *Service) RefreshQuote(ctx context.Context, id string) (Transfer, error) {
	t, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return Transfer{}, err
	}
	if t.Status != StatusQuote {
		return t, ErrAlreadyProcessed
	}
	if t.QuoteExpired(time.Now()) {
		if _, err := s.repo.UpdateStatus(ctx, id, StatusQuote, StatusCancelled); err != nil {
			return t, err
		}
		return t, ErrQuoteExpired
	}

	rate, err := s.rates.Live(ctx)
	if err != nil {
		return t, err
	}
	q := fx.NewQuote(t.Amount, rate)
	ok, err := s.repo.UpdateQuote(ctx, id, q.Rate, q.Destination)
	if err != nil {
		return t, err
	}
	if !ok {
		// Confirmed between our read and the write. Leave it alone.
		return t, ErrAlreadyProcessed
	}
	t.Rate = q.Rate
	t.Destination = q.Destination
	return t, nil
}

// Settle confirms a quote for payment: the funding account is attached
// and the transfer moves to withdrawal. The status transition is
// compare-and-set, so a quote can settle at most once.
func (s *Service) Settle(ctx context.Context, id, accountID string) (Transfer, error) {
	t, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return Transfer{}, err
	}
	if t.Status != StatusQuote {
		return t, ErrAlreadyProcessed
	}
	if t.QuoteExpired(time.Now()) {
		if _, err := s.repo.UpdateStatus(ctx, id, StatusQuote, StatusCancelled); err != nil {
			return t, err
		}
		return t, ErrQuoteExpired
	}

	if err := s.repo.AttachAccount(ctx, id, accountID); err != nil {
		return t, err
	}
	ok, err := s.repo.UpdateStatus(ctx, id, StatusQuote, StatusProcessingWithdrawal)
	if err != nil {
		return t, err
	}
	if !ok {
		return t, ErrAlreadyProcessed
	}
	s.logger.Info("transfer confirmed", "transfer_id", t.ID, "code", t.Code, "account_id", accountID)
	return s.repo.FindByID(ctx, id)
}

// Cancel abandons an open quote. Cancelling a transfer that already
// moved on is a no-op.
func (s *Service) Cancel(ctx context.Context, id string) error {
	_, err := s.repo.UpdateStatus(ctx, id, StatusQuote, StatusCancelled)
	return err
}

// Advance moves a processing transfer one settlement phase forward.
// It reports false when the stored status no longer matches from.
func (s *Service) Advance(ctx context.Context, id string, from, to Status) (bool, error) {
	return s.repo.UpdateStatus(ctx, id, from, to)
}

// Get fetches one transfer.
func (s *Service) Get(ctx context.Context, id string) (Transfer, error) {
	return s.repo.FindByID(ctx, id)
}

// Recent lists the user's latest transfers, newest first.
func (s *Service) Recent(ctx context.Context, userID string, limit int) ([]Transfer, error) {
	return s.repo.FindRecentByUser(ctx, userID, limit)
}
