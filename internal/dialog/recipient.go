package dialog

import (
	"context"
	"fmt"

	"github.com/surgepay/surgepay/internal/recipient"
	"github.com/surgepay/surgepay/internal/session"
	"github.com/surgepay/surgepay/internal/transport"
	"github.com/surgepay/surgepay/internal/validate"
)

func (h *Handlers) handleAskingRecipientName(ctx context.Context, in Context) (Result, error) {
	nickname, err := validate.Nickname(in.Input)
	if err != nil {
		return stay(session.StateAskingRecipientName, err.Error()), nil
	}
	data := in.Data

	// A nickname the user already saved skips straight to the amount.
	if existing, err := h.Recipients.FindByNickname(ctx, in.User.ID, nickname); err == nil {
		data.SelectedRecipientID = existing.ID
		return Result{
			NextState: session.StateAskingAmount,
			Reply: fmt.Sprintf("You already have %s saved (%s).\n\nHow much would you like to send? (e.g. $100)",
				existing.Nickname, existing.PaymentInfo()),
			Data: &data,
		}, nil
	}

	data.RecipientDraft = &session.RecipientDraft{Nickname: nickname}
	return Result{
		NextState: session.StateAskingPaymentMethod,
		Reply:     fmt.Sprintf("How will %s receive the money?\n\n1️⃣ UPI\n2️⃣ Bank account\n\nReply 1 or 2.", nickname),
		Template:  transport.TemplatePaymentMethod,
		Data:      &data,
	}, nil
}

func (h *Handlers) handleAskingPaymentMethod(_ context.Context, in Context) (Result, error) {
	method, err := validate.PaymentMethod(in.Input)
	if err != nil {
		return stay(session.StateAskingPaymentMethod, err.Error()), nil
	}
	data := in.Data
	if data.RecipientDraft == nil {
		return CancelResult(data, ""), nil
	}
	data.RecipientDraft.PaymentMethod = method

	if method == recipient.MethodUPI {
		return Result{
			NextState: session.StateAskingUPIID,
			Reply:     fmt.Sprintf("What's %s's UPI ID? (e.g. name@paytm)", data.RecipientDraft.Nickname),
			Data:      &data,
		}, nil
	}
	return Result{
		NextState: session.StateAskingAccountNumber,
		Reply:     fmt.Sprintf("What's %s's bank account number?", data.RecipientDraft.Nickname),
		Data:      &data,
	}, nil
}

func (h *Handlers) handleAskingUPIID(ctx context.Context, in Context) (Result, error) {
	upi, err := validate.UPIID(in.Input)
	if err != nil {
		return stay(session.StateAskingUPIID, err.Error()), nil
	}
	data := in.Data
	if data.RecipientDraft == nil {
		return CancelResult(data, ""), nil
	}

	result, err := h.Verifier.VerifyUPI(ctx, upi)
	if err != nil {
		return stay(session.StateAskingUPIID, "❌ I couldn't verify that UPI ID. Please check it and try again."), nil
	}
	data.RecipientDraft.UPIID = upi
	data.RecipientDraft.VerificationName = result.HolderName
	return h.recipientSummary(data), nil
}

func (h *Handlers) handleAskingAccountNumber(_ context.Context, in Context) (Result, error) {
	number, err := validate.AccountNumber(in.Input)
	if err != nil {
		return stay(session.StateAskingAccountNumber, err.Error()), nil
	}
	data := in.Data
	if data.RecipientDraft == nil {
		return CancelResult(data, ""), nil
	}
	data.RecipientDraft.AccountNumber = number
	return Result{
		NextState: session.StateAskingIFSC,
		Reply:     "What's the IFSC code of their bank? (e.g. SBIN0001234)",
		Data:      &data,
	}, nil
}

func (h *Handlers) handleAskingIFSC(_ context.Context, in Context) (Result, error) {
	code, err := validate.IFSC(in.Input)
	if err != nil {
		return stay(session.StateAskingIFSC, err.Error()), nil
	}
	data := in.Data
	if data.RecipientDraft == nil {
		return CancelResult(data, ""), nil
	}
	data.RecipientDraft.IFSCCode = code
	return Result{
		NextState: session.StateAskingBankName,
		Reply:     "And the name of their bank?",
		Data:      &data,
	}, nil
}

func (h *Handlers) handleAskingBankName(ctx context.Context, in Context) (Result, error) {
	bankName, err := validate.BankName(in.Input)
	if err != nil {
		return stay(session.StateAskingBankName, err.Error()), nil
	}
	data := in.Data
	if data.RecipientDraft == nil {
		return CancelResult(data, ""), nil
	}
	draft := data.RecipientDraft

	result, err := h.Verifier.VerifyBank(ctx, draft.AccountNumber, draft.IFSCCode)
	if err != nil {
		// Restart the bank detail group, keeping nickname and method.
		draft.AccountNumber = ""
		draft.IFSCCode = ""
		draft.BankName = ""
		return Result{
			NextState: session.StateAskingAccountNumber,
			Reply:     "❌ I couldn't verify that account. Let's try again. What's the account number?",
			Data:      &data,
		}, nil
	}
	draft.BankName = bankName
	draft.VerificationName = result.HolderName
	return h.recipientSummary(data), nil
}

// recipientSummary shows the verified draft for a YES/NO confirmation.
func (h *Handlers) recipientSummary(data session.Data) Result {
	draft := data.RecipientDraft
	var details string
	if draft.PaymentMethod == recipient.MethodUPI {
		details = "UPI: " + draft.UPIID
	} else {
		details = fmt.Sprintf("Account: ****%s\nIFSC: %s\nBank: %s",
			lastFour(draft.AccountNumber), draft.IFSCCode, draft.BankName)
	}
	return Result{
		NextState: session.StateConfirmingRecipient,
		Reply: fmt.Sprintf("✅ Verified! The account belongs to %s.\n\n👤 %s\n%s\n\nSave this recipient? (YES/NO)",
			draft.VerificationName, draft.Nickname, details),
		Template: transport.TemplateYesNo,
		Data:     &data,
	}
}

func (h *Handlers) handleConfirmingRecipient(ctx context.Context, in Context) (Result, error) {
	answer, err := validate.YesNo(in.Input)
	if err != nil {
		return stay(session.StateConfirmingRecipient, err.Error()), nil
	}
	data := in.Data
	if data.RecipientDraft == nil {
		return CancelResult(data, ""), nil
	}
	draft := data.RecipientDraft

	if answer == "NO" {
		// Keep the nickname, redo the payment details.
		nickname := draft.Nickname
		data.RecipientDraft = &session.RecipientDraft{Nickname: nickname}
		return Result{
			NextState: session.StateAskingPaymentMethod,
			Reply:     fmt.Sprintf("Okay, let's redo the details. How will %s receive the money?\n\n1️⃣ UPI\n2️⃣ Bank account", nickname),
			Template:  transport.TemplatePaymentMethod,
			Data:      &data,
		}, nil
	}

	rec, err := h.Recipients.Create(ctx, recipient.CreateInput{
		UserID:           in.User.ID,
		Nickname:         draft.Nickname,
		PaymentMethod:    draft.PaymentMethod,
		UPIID:            draft.UPIID,
		AccountNumber:    draft.AccountNumber,
		IFSCCode:         draft.IFSCCode,
		BankName:         draft.BankName,
		Verified:         true,
		VerificationName: draft.VerificationName,
	})
	if err != nil {
		return Result{}, err
	}

	data.RecipientDraft = nil
	data.SelectedRecipientID = rec.ID
	return Result{
		NextState: session.StateAskingAmount,
		Reply:     fmt.Sprintf("💾 %s saved!\n\nHow much would you like to send? (e.g. $100)", rec.Nickname),
		Data:      &data,
	}, nil
}
