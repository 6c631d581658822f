package fx

import (
	"context"
	"errors"
)

// ErrUnavailable indicates no live rate could be fetched.
var ErrUnavailable = errors.New("exchange rate unavailable")

// Source supplies the live USD/INR exchange rate.
type Source interface {
	Live(ctx context.Context) (float64, error)
}

// StaticSource always returns a fixed rate. Used in tests and as a
// stand-in when no API key is configured.
type StaticSource float64

// Live returns the fixed rate.
func (s StaticSource) Live(context.Context) (float64, error) {
	return float64(s), nil
}

// FailingSource always returns ErrUnavailable.
type FailingSource struct{}

// Live returns ErrUnavailable.
func (FailingSource) Live(context.Context) (float64, error) {
	return 0, ErrUnavailable
}
