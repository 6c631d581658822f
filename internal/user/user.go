package user

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound indicates no user exists for the lookup key.
var ErrNotFound = errors.New("user not found")

// KYC statuses.
const (
	KYCPending  = "pending"
	KYCVerified = "verified"
	KYCRejected = "rejected"
)

// User is a registered sender identified by phone number.
type User struct {
	ID          string
	PhoneNumber string
	FullName    string
	Email       string
	DateOfBirth time.Time
	Address     string
	KYCStatus   string
	CreatedAt   time.Time
}

// CreateInput captures the profile collected during onboarding.
type CreateInput struct {
	PhoneNumber string
	FullName    string
	Email       string
	DateOfBirth time.Time
	Address     string
}

// Repository persists users.
type Repository interface {
	Create(ctx context.Context, input CreateInput) (User, error)
	FindByPhone(ctx context.Context, phone string) (User, error)
	FindByID(ctx context.Context, id string) (User, error)
}
