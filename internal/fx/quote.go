// Package fx provides USD to INR exchange rates and transfer pricing.
package fx

import "math"

// FallbackRate is used when no live or cached rate is available.
const FallbackRate = 83.50

const (
	feePercent = 0.001
	feeCap     = 2.00
)

// Quote prices a transfer at a given rate. The fee is deducted in USD
// before conversion.
type Quote struct {
	Amount      float64
	Fee         float64
	FeeLabel    string
	Rate        float64
	Destination float64
}

// Fee is the transfer fee for a USD amount: 0.1% capped at $2.
// The label says which rule applied.
func Fee(amount float64) (float64, string) {
	fee := Round2(amount * feePercent)
	if fee > feeCap {
		return feeCap, "max $2"
	}
	return fee, "0.1%"
}

// NewQuote prices an amount at the given USD/INR rate.
func NewQuote(amount, rate float64) Quote {
	fee, label := Fee(amount)
	return Quote{
		Amount:      amount,
		Fee:         fee,
		FeeLabel:    label,
		Rate:        rate,
		Destination: Round2((amount - fee) * rate),
	}
}

// Round2 rounds to 2 decimal places, for money amounts.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Round4 rounds to 4 decimal places, for exchange rates.
func Round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
