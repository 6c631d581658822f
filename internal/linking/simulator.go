package linking

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
)

var institutions = []Institution{
	{ID: "chase", Name: "Chase", RoutingNumber: "021000021"},
	{ID: "bofa", Name: "Bank of America", RoutingNumber: "026009593"},
	{ID: "wells_fargo", Name: "Wells Fargo", RoutingNumber: "121000248"},
}

// Simulator stands in for the aggregator in development. Connections
// take a short, randomized delay and fail within a small budget to
// exercise the retry path.
type Simulator struct {
	delay       time.Duration
	failureRate float64
	random      func() float64
}

// NewSimulator builds a simulator with production-like latency and a
// 10% connection failure rate.
func NewSimulator() *Simulator {
	return &Simulator{delay: 2 * time.Second, failureRate: 0.1, random: rand.Float64}
}

// NewDeterministicSimulator builds a simulator with no delay and no
// failures, for tests.
func NewDeterministicSimulator() *Simulator {
	return &Simulator{random: func() float64 { return 1 }}
}

// NewFailingSimulator builds a simulator whose connections always
// fail, for tests of the retry path.
func NewFailingSimulator() *Simulator {
	return &Simulator{failureRate: 1, random: func() float64 { return 0 }}
}

// Institutions lists the supported banks.
func (s *Simulator) Institutions() []Institution {
	out := make([]Institution, len(institutions))
	copy(out, institutions)
	return out
}

// Connect simulates linking a checking account at the institution.
func (s *Simulator) Connect(ctx context.Context, institutionID, holderName string) (LinkedDetails, error) {
	var inst Institution
	for _, candidate := range institutions {
		if candidate.ID == institutionID {
			inst = candidate
			break
		}
	}
	if inst.ID == "" {
		return LinkedDetails{}, ErrUnknownInstitution
	}

	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return LinkedDetails{}, ctx.Err()
		}
	}
	if s.random() < s.failureRate {
		return LinkedDetails{}, ErrConnectionFailed
	}

	return LinkedDetails{
		AccessToken:   "access-" + uuid.NewString(),
		ExternalID:    "ext-" + uuid.NewString(),
		AccountNumber: fmt.Sprintf("%010d", rand.Int64N(10_000_000_000)),
		RoutingNumber: inst.RoutingNumber,
		BankName:      inst.Name,
		HolderName:    holderName,
		AccountType:   "checking",
	}, nil
}
