// Package command intercepts global keywords before the dialog state
// machine sees them. Commands run from idle; mid-flow CANCEL aborts,
// other recognized commands are refused, and a settling transfer locks
// the conversation entirely.
package command

import (
	"context"
	"log/slog"
	"regexp"
	"strings"

	"github.com/surgepay/surgepay/internal/account"
	"github.com/surgepay/surgepay/internal/dialog"
	"github.com/surgepay/surgepay/internal/fx"
	"github.com/surgepay/surgepay/internal/jobs"
	"github.com/surgepay/surgepay/internal/linking"
	"github.com/surgepay/surgepay/internal/recipient"
	"github.com/surgepay/surgepay/internal/session"
	"github.com/surgepay/surgepay/internal/transfer"
	"github.com/surgepay/surgepay/internal/user"
)

var (
	defaultPattern = regexp.MustCompile(`^DEFAULT\s+(\d+)$`)
	removePattern  = regexp.MustCompile(`^REMOVE(?:\s+BANK)?\s+(\d+)$`)
)

var globalCommands = map[string]bool{
	"HELP":           true,
	"STATUS":         true,
	"RATE":           true,
	"FEES":           true,
	"BANKS":          true,
	"ADD BANK":       true,
	"RECIPIENTS":     true,
	"PROFILE":        true,
	"NEW":            true,
	"CONFIRM REMOVE": true,
}

// isGlobalCommand reports whether the uppercased token is one of the
// idle-menu commands, including the numbered DEFAULT and REMOVE forms.
func isGlobalCommand(token string) bool {
	return globalCommands[token] ||
		defaultPattern.MatchString(token) ||
		removePattern.MatchString(token)
}

// Interceptor resolves global commands.
type Interceptor struct {
	Users      user.Repository
	Accounts   *account.Service
	Recipients recipient.Repository
	Transfers  *transfer.Service
	Rates      *fx.Service
	Aggregator linking.Aggregator
	Jobs       *jobs.Registry
	Logger     *slog.Logger
}

// Intercept checks whether the message is a global command. When it
// returns true the dialog state machine must not run; the returned
// result is the full outcome.
func (i *Interceptor) Intercept(ctx context.Context, state session.State, in dialog.Context) (dialog.Result, bool, error) {
	// A settling transfer locks the whole conversation, commands
	// included, until the settlement job releases it.
	if in.Data.TransferProcessing {
		return dialog.Result{
			NextState: state,
			Reply:     "⏳ Your transfer is being processed. I'll message you as soon as it's done!",
		}, true, nil
	}

	token := strings.ToUpper(strings.TrimSpace(in.Input))

	if token == "CANCEL" {
		return i.cancelCurrent(ctx, state, in), true, nil
	}

	// Mid-flow, a recognized command is refused rather than executed
	// so the flow cannot be abandoned by accident. Anything else is
	// flow input, so a recipient named "Rate" still works.
	if state != session.StateIdle && state != session.StateInitial {
		if isGlobalCommand(token) {
			return dialog.Result{
				NextState: state,
				Reply: "This action is not available right now.\n\n" +
					"You can:\n• Complete the current step\n• Type CANCEL to abort and return to the menu",
			}, true, nil
		}
		return dialog.Result{}, false, nil
	}

	// Commands below need a registered user.
	if in.User == nil {
		if token == "HELP" {
			return i.help(in), true, nil
		}
		return dialog.Result{}, false, nil
	}

	switch token {
	case "HELP":
		return i.help(in), true, nil
	case "STATUS":
		res, err := i.status(ctx, in)
		return res, true, err
	case "RATE":
		return i.rate(ctx, in), true, nil
	case "FEES":
		return i.fees(in), true, nil
	case "BANKS":
		res, err := i.banks(ctx, in)
		return res, true, err
	case "ADD BANK":
		res, err := i.addBank(ctx, in)
		return res, true, err
	case "RECIPIENTS":
		res, err := i.recipients(ctx, in)
		return res, true, err
	case "PROFILE":
		res, err := i.profile(ctx, in)
		return res, true, err
	case "NEW":
		return i.newRecipient(in), true, nil
	case "CONFIRM REMOVE":
		res, err := i.confirmRemove(ctx, in)
		return res, true, err
	}

	if m := defaultPattern.FindStringSubmatch(token); m != nil {
		res, err := i.setDefault(ctx, in, m[1])
		return res, true, err
	}
	if m := removePattern.FindStringSubmatch(token); m != nil {
		res, err := i.removeBank(ctx, in, m[1])
		return res, true, err
	}

	return dialog.Result{}, false, nil
}

// cancelCurrent abandons whatever the conversation was doing: any rate
// refresh job is stopped and an open quote is cancelled.
func (i *Interceptor) cancelCurrent(ctx context.Context, state session.State, in dialog.Context) dialog.Result {
	if in.Data.RateJobID != "" {
		i.Jobs.Stop(in.Data.RateJobID)
	}
	if in.Data.TransferID != "" {
		if err := i.Transfers.Cancel(ctx, in.Data.TransferID); err != nil {
			i.Logger.Warn("cancel on command failed", "transfer_id", in.Data.TransferID, "error", err)
		}
	}
	if state == session.StateIdle || state == session.StateInitial {
		return dialog.Result{
			NextState: session.StateIdle,
			Reply:     "Nothing to cancel. " + dialog.IdleMenu(),
		}
	}
	return dialog.CancelResult(in.Data, "")
}
