package dialog

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/surgepay/surgepay/internal/fx"
	"github.com/surgepay/surgepay/internal/jobs"
	"github.com/surgepay/surgepay/internal/metrics"
	"github.com/surgepay/surgepay/internal/session"
	"github.com/surgepay/surgepay/internal/transfer"
	"github.com/surgepay/surgepay/internal/transport"
	"github.com/surgepay/surgepay/internal/validate"
)

func (h *Handlers) handleAskingAmount(ctx context.Context, in Context) (Result, error) {
	amount, err := validate.Amount(in.Input)
	if err != nil {
		return stay(session.StateAskingAmount, err.Error()), nil
	}
	data := in.Data
	if data.SelectedRecipientID == "" {
		return CancelResult(data, ""), nil
	}
	rec, err := h.Recipients.FindByID(ctx, data.SelectedRecipientID)
	if err != nil {
		return CancelResult(data, "I lost track of that recipient. "+IdleMenu()), nil
	}

	t, err := h.Transfers.CreateQuote(ctx, in.User.ID, rec.ID, amount)
	switch {
	case errors.Is(err, transfer.ErrDuplicateActive):
		return CancelResult(data, fmt.Sprintf("You already have a transfer of $%.2f to %s in progress (%s). Type STATUS to check on it.",
			t.Amount, rec.Nickname, t.Code)), nil
	case errors.Is(err, fx.ErrUnavailable):
		return stay(session.StateAskingAmount, "⚠️ I can't fetch the live exchange rate right now. Please try the amount again in a moment."), nil
	case err != nil:
		return Result{}, err
	}
	metrics.TransfersCreated.Inc()

	data.TransferID = t.ID
	data.RateJobID = jobs.RateJobID(t.ID)
	data.QuoteStartedAt = t.CreatedAt.Format(time.RFC3339)
	h.Jobs.Start(data.RateJobID, func(jobCtx context.Context) {
		h.Refresher.Run(jobCtx, in.Phone, t.ID)
	})

	return Result{
		NextState: session.StateShowingQuote,
		Reply: fmt.Sprintf("Here's your quote (%s):\n\n"+
			"💵 You send: $%.2f\n"+
			"🧾 Fee (%s): $%.2f\n"+
			"💱 Rate: ₹%.4f per $1\n"+
			"🇮🇳 %s receives: ₹%.2f\n\n"+
			"This quote is valid for 5 minutes and the rate refreshes while you decide.\n\n"+
			"Reply CONFIRM to continue or CANCEL.",
			t.Code, t.Amount, t.FeeLabel, t.Fee, t.Rate, rec.Nickname, t.Destination),
		Template: transport.TemplateConfirmCancel,
		Data:     &data,
	}, nil
}

func (h *Handlers) handleShowingQuote(ctx context.Context, in Context) (Result, error) {
	action, err := validate.QuoteAction(in.Input)
	if err != nil {
		return stay(session.StateShowingQuote, err.Error()), nil
	}
	data := in.Data
	if data.TransferID == "" {
		return CancelResult(data, ""), nil
	}

	h.Jobs.Stop(jobs.RateJobID(data.TransferID))

	if action == "CANCEL" {
		if err := h.Transfers.Cancel(ctx, data.TransferID); err != nil {
			h.Logger.Warn("cancel quote failed", "transfer_id", data.TransferID, "error", err)
		}
		return CancelResult(data, "Transfer cancelled. "+IdleMenu()), nil
	}

	t, err := h.Transfers.Get(ctx, data.TransferID)
	if err != nil {
		return Result{}, err
	}
	if t.Status != transfer.StatusQuote || t.QuoteExpired(time.Now()) {
		if err := h.Transfers.Cancel(ctx, data.TransferID); err != nil {
			h.Logger.Warn("cancel expired quote failed", "transfer_id", data.TransferID, "error", err)
		}
		return CancelResult(data, "⏰ That quote expired. Send the amount again for a fresh one."), nil
	}

	accounts, err := h.Accounts.List(ctx, in.User.ID)
	if err != nil {
		return Result{}, err
	}
	if len(accounts) == 0 {
		return CancelResult(data, "You have no linked bank account to pay from. Type ADD BANK first."), nil
	}

	var b strings.Builder
	b.WriteString("Which account should we withdraw from?\n\n")
	for i, acct := range accounts {
		marker := ""
		if acct.Default {
			marker = " (default)"
		}
		fmt.Fprintf(&b, "%d️⃣ %s ****%s%s\n", i+1, acct.BankName, acct.Last4(), marker)
	}
	b.WriteString("\nReply with the number.")

	return Result{
		NextState: session.StateSelectingAccount,
		Reply:     b.String(),
		Data:      &data,
	}, nil
}

func (h *Handlers) handleSelectingAccount(ctx context.Context, in Context) (Result, error) {
	data := in.Data
	if data.TransferID == "" {
		return CancelResult(data, ""), nil
	}

	accounts, err := h.Accounts.List(ctx, in.User.ID)
	if err != nil {
		return Result{}, err
	}
	n, err := strconv.Atoi(strings.TrimSpace(in.Input))
	if err != nil || n < 1 || n > len(accounts) {
		return stay(session.StateSelectingAccount, fmt.Sprintf("Please reply with a number between 1 and %d.", len(accounts))), nil
	}
	acct := accounts[n-1]
	data.SelectedAccountID = acct.ID

	t, err := h.Transfers.Get(ctx, data.TransferID)
	if err != nil {
		return Result{}, err
	}
	rec, err := h.Recipients.FindByID(ctx, t.RecipientID)
	if err != nil {
		return CancelResult(data, "I lost track of that recipient. "+IdleMenu()), nil
	}

	return Result{
		NextState: session.StateConfirmingTransfer,
		Reply: fmt.Sprintf("Final check:\n\n"+
			"💵 $%.2f from %s ****%s\n"+
			"🇮🇳 ₹%.2f to %s\n\n"+
			"Reply PAY to send it or CANCEL.",
			t.Amount, acct.BankName, acct.Last4(), t.Destination, rec.Nickname),
		Template: transport.TemplatePayCancel,
		Data:     &data,
	}, nil
}

func (h *Handlers) handleConfirmingTransfer(ctx context.Context, in Context) (Result, error) {
	action, err := validate.PayAction(in.Input)
	if err != nil {
		return stay(session.StateConfirmingTransfer, err.Error()), nil
	}
	data := in.Data
	if data.TransferID == "" || data.SelectedAccountID == "" {
		return CancelResult(data, ""), nil
	}

	if action == "CANCEL" {
		if err := h.Transfers.Cancel(ctx, data.TransferID); err != nil {
			h.Logger.Warn("cancel transfer failed", "transfer_id", data.TransferID, "error", err)
		}
		return CancelResult(data, "Transfer cancelled. Nothing was charged. "+IdleMenu()), nil
	}

	t, err := h.Transfers.Settle(ctx, data.TransferID, data.SelectedAccountID)
	switch {
	case errors.Is(err, transfer.ErrQuoteExpired):
		return CancelResult(data, "⏰ That quote expired before payment. Send the amount again for a fresh one."), nil
	case errors.Is(err, transfer.ErrAlreadyProcessed):
		return CancelResult(data, "This transfer is already being processed. Type STATUS to follow it."), nil
	case err != nil:
		return Result{}, err
	}
	metrics.TransfersSettled.Inc()

	transferID := t.ID
	phone := in.Phone
	h.Jobs.Start(jobs.JobID(transferID), func(jobCtx context.Context) {
		h.Notifier.Run(jobCtx, phone, transferID)
	})

	data.ClearTransaction()
	data.TransferProcessing = true
	data.ActiveTransferID = transferID
	return Result{
		NextState: session.StateIdle,
		Reply: fmt.Sprintf("🚀 Transfer %s is on its way!\n\nI'll keep you posted at every step. You can't start another transfer until this one settles.",
			t.Code),
		Data: &data,
	}, nil
}
