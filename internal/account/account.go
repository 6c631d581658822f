package account

import (
	"context"
	"errors"
	"time"
)

// MaxActivePerUser caps how many funding accounts a user may keep linked.
const MaxActivePerUser = 5

var (
	// ErrNotFound indicates no account exists for the identifier.
	ErrNotFound = errors.New("bank account not found")
	// ErrLimitReached indicates the user already holds the maximum number
	// of active accounts.
	ErrLimitReached = errors.New("bank account limit reached")
	// ErrLastAccount indicates a removal would leave the user with no
	// active funding account.
	ErrLastAccount = errors.New("cannot remove the only bank account")
)

// Account types.
const (
	TypeChecking = "checking"
	TypeSavings  = "savings"
)

// Account is a user's linked US funding account. Accounts are soft-deleted:
// Active=false rather than removed.
type Account struct {
	ID            string
	UserID        string
	AccessToken   string
	ExternalID    string
	AccountNumber string
	RoutingNumber string
	BankName      string
	HolderName    string
	AccountType   string
	Verified      bool
	Active        bool
	Default       bool
	CreatedAt     time.Time
}

// Last4 returns the trailing four digits used whenever the account is shown
// to the user.
func (a Account) Last4() string {
	if len(a.AccountNumber) < 4 {
		return a.AccountNumber
	}
	return a.AccountNumber[len(a.AccountNumber)-4:]
}

// CreateInput captures the aggregator-provided metadata for a new account.
type CreateInput struct {
	UserID        string
	AccessToken   string
	ExternalID    string
	AccountNumber string
	RoutingNumber string
	BankName      string
	HolderName    string
	AccountType   string
	Default       bool
}

// Repository persists funding accounts.
type Repository interface {
	Create(ctx context.Context, input CreateInput) (Account, error)
	// FindByUser returns the user's active accounts ordered default-first,
	// then by creation time. This ordering defines the 1-indexed numbers
	// the user types in DEFAULT/REMOVE commands.
	FindByUser(ctx context.Context, userID string) ([]Account, error)
	FindByID(ctx context.Context, id string) (Account, error)
	CountByUser(ctx context.Context, userID string) (int, error)
	// SetDefault clears the default flag on all of the user's accounts and
	// sets it on the given one, keeping exactly one default.
	SetDefault(ctx context.Context, accountID, userID string) error
	Deactivate(ctx context.Context, id string) error
}

// Service enforces the account-set invariants on top of the repository.
type Service struct {
	repo Repository
}

// NewService builds an account service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Link stores a newly connected account, enforcing the active-account cap.
func (s *Service) Link(ctx context.Context, input CreateInput) (Account, error) {
	count, err := s.repo.CountByUser(ctx, input.UserID)
	if err != nil {
		return Account{}, err
	}
	if count >= MaxActivePerUser {
		return Account{}, ErrLimitReached
	}
	return s.repo.Create(ctx, input)
}

// SetDefault makes the account the user's single default.
func (s *Service) SetDefault(ctx context.Context, accountID, userID string) error {
	return s.repo.SetDefault(ctx, accountID, userID)
}

// Remove soft-deletes an account. The last active account cannot be removed.
func (s *Service) Remove(ctx context.Context, userID, accountID string) error {
	count, err := s.repo.CountByUser(ctx, userID)
	if err != nil {
		return err
	}
	if count <= 1 {
		return ErrLastAccount
	}
	return s.repo.Deactivate(ctx, accountID)
}

// List returns the user's active accounts in command-numbering order.
func (s *Service) List(ctx context.Context, userID string) ([]Account, error) {
	return s.repo.FindByUser(ctx, userID)
}

// Count returns the number of active accounts.
func (s *Service) Count(ctx context.Context, userID string) (int, error) {
	return s.repo.CountByUser(ctx, userID)
}

// Get fetches a single account.
func (s *Service) Get(ctx context.Context, id string) (Account, error) {
	return s.repo.FindByID(ctx, id)
}
