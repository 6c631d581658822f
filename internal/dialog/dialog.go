// Package dialog is the per-user conversation state machine. Each
// handler consumes one inbound message for one state and returns the
// next state, the reply, and the session data to persist.
package dialog

import (
	"context"
	"log/slog"
	"strings"

	"github.com/surgepay/surgepay/internal/account"
	"github.com/surgepay/surgepay/internal/jobs"
	"github.com/surgepay/surgepay/internal/linking"
	"github.com/surgepay/surgepay/internal/recipient"
	"github.com/surgepay/surgepay/internal/session"
	"github.com/surgepay/surgepay/internal/transfer"
	"github.com/surgepay/surgepay/internal/transport"
	"github.com/surgepay/surgepay/internal/user"
	"github.com/surgepay/surgepay/internal/verify"
)

// Context carries one inbound message into a handler. User is nil
// until the sender finishes onboarding. Data is the current session
// data; handlers copy it before mutating.
type Context struct {
	User  *user.User
	Phone string
	Input string
	Data  session.Data
}

// Result is a handler's outcome. A nil Data leaves the stored session
// data unchanged.
type Result struct {
	NextState session.State
	Reply     string
	Template  transport.Template
	Data      *session.Data
}

// Handlers holds the dependencies the state handlers share.
type Handlers struct {
	Users      user.Repository
	Accounts   *account.Service
	Recipients recipient.Repository
	Transfers  *transfer.Service
	Aggregator linking.Aggregator
	Verifier   verify.Verifier
	Jobs       *jobs.Registry
	Notifier   *jobs.SettlementNotifier
	Refresher  *jobs.RateRefresher
	Logger     *slog.Logger
}

// Handle routes the message to the handler for the session's state.
func (h *Handlers) Handle(ctx context.Context, state session.State, in Context) (Result, error) {
	switch state {
	case session.StateInitial:
		return h.handleInitial(ctx, in)
	case session.StateIdle:
		return h.handleIdle(ctx, in)

	case session.StateAskingName:
		return h.handleAskingName(ctx, in)
	case session.StateAskingEmail:
		return h.handleAskingEmail(ctx, in)
	case session.StateAskingDOB:
		return h.handleAskingDOB(ctx, in)
	case session.StateAskingAddress:
		return h.handleAskingAddress(ctx, in)

	case session.StateInitiatingLink:
		return h.handleInitiatingLink(ctx, in)
	case session.StateSelectingInstitution:
		return h.handleSelectingInstitution(ctx, in)
	case session.StateConfirmingLink:
		return h.handleConfirmingLink(ctx, in)

	case session.StateAskingRecipientName:
		return h.handleAskingRecipientName(ctx, in)
	case session.StateAskingPaymentMethod:
		return h.handleAskingPaymentMethod(ctx, in)
	case session.StateAskingUPIID:
		return h.handleAskingUPIID(ctx, in)
	case session.StateAskingAccountNumber:
		return h.handleAskingAccountNumber(ctx, in)
	case session.StateAskingIFSC:
		return h.handleAskingIFSC(ctx, in)
	case session.StateAskingBankName:
		return h.handleAskingBankName(ctx, in)
	case session.StateConfirmingRecipient:
		return h.handleConfirmingRecipient(ctx, in)

	case session.StateAskingAmount:
		return h.handleAskingAmount(ctx, in)
	case session.StateShowingQuote:
		return h.handleShowingQuote(ctx, in)
	case session.StateSelectingAccount:
		return h.handleSelectingAccount(ctx, in)
	case session.StateConfirmingTransfer:
		return h.handleConfirmingTransfer(ctx, in)
	}

	// Unknown states can appear after a deploy changes the state set
	// under a live session. Reset to idle.
	h.Logger.Warn("unknown session state, resetting", "state", string(state))
	return h.handleIdle(ctx, in)
}

// stay re-prompts in the same state, leaving session data untouched.
// Every re-prompt reminds the user the flow can be abandoned, unless
// the message already mentions CANCEL itself.
func stay(state session.State, reply string) Result {
	if !strings.Contains(reply, "CANCEL") {
		reply += "\n\nOr type CANCEL to abort."
	}
	return Result{NextState: state, Reply: reply}
}
