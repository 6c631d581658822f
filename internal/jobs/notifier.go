package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/surgepay/surgepay/internal/account"
	"github.com/surgepay/surgepay/internal/metrics"
	"github.com/surgepay/surgepay/internal/recipient"
	"github.com/surgepay/surgepay/internal/session"
	"github.com/surgepay/surgepay/internal/transfer"
	"github.com/surgepay/surgepay/internal/transport"
)

// SettlementDelays sets how long after confirmation each settlement
// notification fires. Offsets are from the moment the job starts.
type SettlementDelays struct {
	WithdrawalStarted  time.Duration
	WithdrawalComplete time.Duration
	PayoutStarted      time.Duration
	Completed          time.Duration
}

// DefaultSettlementDelays mirrors the simulated settlement timeline.
func DefaultSettlementDelays() SettlementDelays {
	return SettlementDelays{
		WithdrawalStarted:  5 * time.Second,
		WithdrawalComplete: 15 * time.Second,
		PayoutStarted:      20 * time.Second,
		Completed:          30 * time.Second,
	}
}

// SettlementNotifier walks a confirmed transfer through the settlement
// phases, messaging the sender at each step and releasing the
// conversation lock at the end. Notification failures do not stall the
// transfer; status transitions that lose their compare-and-set stop
// the job.
type SettlementNotifier struct {
	transfers  *transfer.Service
	recipients recipient.Repository
	accounts   *account.Service
	sessions   *session.Store
	sender     transport.Sender
	delays     SettlementDelays
	logger     *slog.Logger
}

// NewSettlementNotifier builds a notifier.
func NewSettlementNotifier(transfers *transfer.Service, recipients recipient.Repository, accounts *account.Service, sessions *session.Store, sender transport.Sender, delays SettlementDelays, logger *slog.Logger) *SettlementNotifier {
	return &SettlementNotifier{
		transfers:  transfers,
		recipients: recipients,
		accounts:   accounts,
		sessions:   sessions,
		sender:     sender,
		delays:     delays,
		logger:     logger,
	}
}

// JobID names the registry slot for a transfer's settlement job.
func JobID(transferID string) string {
	return "settle:" + transferID
}

// Run executes the settlement timeline for one transfer. It is meant
// to be started through a Registry under JobID(transferID).
func (n *SettlementNotifier) Run(ctx context.Context, phone, transferID string) {
	start := time.Now()
	logger := n.logger.With("transfer_id", transferID)

	t, err := n.transfers.Get(ctx, transferID)
	if err != nil {
		logger.Error("settlement job could not load transfer", "error", err)
		return
	}
	recipientName := "your recipient"
	if rec, err := n.recipients.FindByID(ctx, t.RecipientID); err == nil {
		recipientName = rec.Nickname
	}
	acctLast4 := "----"
	if acct, err := n.accounts.Get(ctx, t.AccountID); err == nil {
		acctLast4 = acct.Last4()
	}

	steps := []struct {
		offset time.Duration
		run    func(ctx context.Context, t transfer.Transfer) (string, bool)
	}{
		{n.delays.WithdrawalStarted, func(_ context.Context, t transfer.Transfer) (string, bool) {
			return fmt.Sprintf("💸 Withdrawing $%.2f from your bank account ending in %s...", t.Amount, acctLast4), true
		}},
		{n.delays.WithdrawalComplete, func(ctx context.Context, t transfer.Transfer) (string, bool) {
			ok, err := n.transfers.Advance(ctx, t.ID, transfer.StatusProcessingWithdrawal, transfer.StatusProcessingPayout)
			if err != nil || !ok {
				return "", false
			}
			return "✅ Withdrawal complete. Preparing payout to " + recipientName + "...", true
		}},
		{n.delays.PayoutStarted, func(_ context.Context, t transfer.Transfer) (string, bool) {
			return fmt.Sprintf("🏦 Sending ₹%.2f to %s...", t.Destination, recipientName), true
		}},
		{n.delays.Completed, func(ctx context.Context, t transfer.Transfer) (string, bool) {
			ok, err := n.transfers.Advance(ctx, t.ID, transfer.StatusProcessingPayout, transfer.StatusCompleted)
			if err != nil || !ok {
				return "", false
			}
			return fmt.Sprintf("🎉 Transfer %s complete!\n\n%s received ₹%.2f.\n\nAmount sent: $%.2f\nFee: $%.2f\nRate: ₹%.4f per $1\n\nThank you for using SurgePay!",
				t.Code, recipientName, t.Destination, t.Amount, t.Fee, t.Rate), true
		}},
	}

	for _, step := range steps {
		if !sleepUntil(ctx, start.Add(step.offset)) {
			return
		}
		message, ok := step.run(ctx, t)
		if !ok {
			logger.Warn("settlement step lost its transition, stopping")
			return
		}
		if err := n.sender.Send(ctx, transport.Reply{To: phone, Body: message}); err != nil {
			metrics.SendFailures.Inc()
			logger.Warn("settlement notification failed", "error", err)
		}
	}

	n.releaseLock(ctx, phone, transferID, logger)
	logger.Info("transfer settled", "code", t.Code)
}

// releaseLock clears the conversation's processing lock. The session
// may have expired or moved on; drift is tolerated.
func (n *SettlementNotifier) releaseLock(ctx context.Context, phone, transferID string, logger *slog.Logger) {
	sess, err := n.sessions.Get(ctx, phone)
	if err != nil {
		return
	}
	if sess.Data.ActiveTransferID != transferID {
		return
	}
	sess.State = session.StateIdle
	sess.Data.TransferProcessing = false
	sess.Data.ActiveTransferID = ""
	if err := n.sessions.Put(ctx, phone, sess); err != nil {
		logger.Warn("could not release conversation lock", "error", err)
	}
}

func sleepUntil(ctx context.Context, at time.Time) bool {
	wait := time.Until(at)
	if wait <= 0 {
		return ctx.Err() == nil
	}
	select {
	case <-time.After(wait):
		return true
	case <-ctx.Done():
		return false
	}
}
