package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/surgepay/surgepay/internal/metrics"
	"github.com/surgepay/surgepay/internal/session"
	"github.com/surgepay/surgepay/internal/transfer"
	"github.com/surgepay/surgepay/internal/transport"
)

// RateRefresher keeps an open quote priced at the live rate while the
// sender is looking at it. The job stops itself as soon as the
// conversation leaves the quote, the quote is confirmed or cancelled,
// or the rate source goes away.
type RateRefresher struct {
	transfers *transfer.Service
	sessions  *session.Store
	sender    transport.Sender
	interval  time.Duration
	logger    *slog.Logger
}

// NewRateRefresher builds a refresher ticking at the given interval.
func NewRateRefresher(transfers *transfer.Service, sessions *session.Store, sender transport.Sender, interval time.Duration, logger *slog.Logger) *RateRefresher {
	return &RateRefresher{
		transfers: transfers,
		sessions:  sessions,
		sender:    sender,
		interval:  interval,
		logger:    logger,
	}
}

// RateJobID names the registry slot for a transfer's rate refresh job.
func RateJobID(transferID string) string {
	return "rate:" + transferID
}

// Run refreshes the quote until it is resolved or the context ends.
func (r *RateRefresher) Run(ctx context.Context, phone, transferID string) {
	logger := r.logger.With("transfer_id", transferID)
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		// The quote must still be on screen. Anything else means the
		// conversation moved on and the refresh is stale.
		sess, err := r.sessions.Get(ctx, phone)
		if err != nil || sess.State != session.StateShowingQuote || sess.Data.TransferID != transferID {
			return
		}

		refreshed, err := r.transfers.RefreshQuote(ctx, transferID)
		switch {
		case err == nil:
			r.send(ctx, phone, fmt.Sprintf("💱 Rate updated: ₹%.4f per $1. You'd now receive ₹%.2f.\n\nReply CONFIRM to lock this rate or CANCEL.",
				refreshed.Rate, refreshed.Destination), logger)
		case errors.Is(err, transfer.ErrQuoteExpired):
			r.send(ctx, phone, "⏰ Your quote expired and the transfer was cancelled. Send a new amount to get a fresh quote.", logger)
			r.resetToIdle(ctx, phone, sess, logger)
			return
		case errors.Is(err, transfer.ErrAlreadyProcessed):
			return
		default:
			// A quote that cannot be repriced must not stay on screen.
			logger.Warn("rate refresh failed, stopping", "error", err)
			r.send(ctx, phone, "⚠️ I lost the live exchange rate, so this transfer wasn't confirmed. Send a new amount when you're ready and I'll get you a fresh quote.", logger)
			r.resetToIdle(ctx, phone, sess, logger)
			return
		}
	}
}

func (r *RateRefresher) resetToIdle(ctx context.Context, phone string, sess session.Session, logger *slog.Logger) {
	sess.State = session.StateIdle
	sess.Data.ClearTransaction()
	if err := r.sessions.Put(ctx, phone, sess); err != nil {
		logger.Warn("could not reset session", "error", err)
	}
}

func (r *RateRefresher) send(ctx context.Context, phone, body string, logger *slog.Logger) {
	if err := r.sender.Send(ctx, transport.Reply{To: phone, Body: body}); err != nil {
		metrics.SendFailures.Inc()
		logger.Warn("rate update notification failed", "error", err)
	}
}
