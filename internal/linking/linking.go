// Package linking connects US bank accounts through an account
// aggregator. The production aggregator is simulated; the institution
// catalog and connection flow match what a real integration exposes.
package linking

import (
	"context"
	"errors"
	"strconv"
	"strings"
)

// ErrUnknownInstitution means the selection matched no supported bank.
var ErrUnknownInstitution = errors.New("unknown institution")

// ErrConnectionFailed means the aggregator could not link the account.
var ErrConnectionFailed = errors.New("bank connection failed")

// Institution is a bank the aggregator can connect to.
type Institution struct {
	ID            string
	Name          string
	RoutingNumber string
}

// LinkedDetails is what a successful connection returns.
type LinkedDetails struct {
	AccessToken   string
	ExternalID    string
	AccountNumber string
	RoutingNumber string
	BankName      string
	HolderName    string
	AccountType   string
}

// Aggregator lists institutions and links accounts at them.
type Aggregator interface {
	Institutions() []Institution
	Connect(ctx context.Context, institutionID, holderName string) (LinkedDetails, error)
}

// ParseSelection resolves a user's institution choice against the
// catalog: a 1-based list number, or a name match loose enough for
// "chase" and "wells".
func ParseSelection(input string, institutions []Institution) (Institution, error) {
	trimmed := strings.TrimSpace(input)
	if n, err := strconv.Atoi(trimmed); err == nil {
		if n >= 1 && n <= len(institutions) {
			return institutions[n-1], nil
		}
		return Institution{}, ErrUnknownInstitution
	}

	lower := strings.ToLower(trimmed)
	for _, inst := range institutions {
		name := strings.ToLower(inst.Name)
		if name == lower || strings.Contains(name, lower) || strings.Contains(lower, name) {
			return inst, nil
		}
	}
	return Institution{}, ErrUnknownInstitution
}
