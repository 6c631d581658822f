// Package verify resolves recipient payment details to an account
// holder name before money is sent to them.
package verify

import (
	"context"
	"errors"
)

// ErrVerificationFailed means the payment details could not be resolved.
var ErrVerificationFailed = errors.New("verification failed")

// Result is a successful verification.
type Result struct {
	HolderName string
}

// Verifier checks payout destinations with the payment rails.
type Verifier interface {
	VerifyUPI(ctx context.Context, upiID string) (Result, error)
	VerifyBank(ctx context.Context, accountNumber, ifsc string) (Result, error)
}

type simulator struct{}

// NewSimulator builds a verifier that resolves every well-formed
// destination to a plausible holder name. Inputs reaching it have
// already passed format validation.
func NewSimulator() Verifier {
	return simulator{}
}

var holderNames = []string{
	"Rahul Sharma",
	"Priya Patel",
	"Amit Kumar",
	"Sneha Reddy",
	"Vikram Singh",
}

func pickName(seed string) string {
	sum := 0
	for _, r := range seed {
		sum += int(r)
	}
	return holderNames[sum%len(holderNames)]
}

func (simulator) VerifyUPI(_ context.Context, upiID string) (Result, error) {
	if upiID == "" {
		return Result{}, ErrVerificationFailed
	}
	return Result{HolderName: pickName(upiID)}, nil
}

func (simulator) VerifyBank(_ context.Context, accountNumber, ifsc string) (Result, error) {
	if accountNumber == "" || ifsc == "" {
		return Result{}, ErrVerificationFailed
	}
	return Result{HolderName: pickName(accountNumber + ifsc)}, nil
}
