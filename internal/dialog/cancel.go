package dialog

import (
	"github.com/surgepay/surgepay/internal/session"
	"github.com/surgepay/surgepay/internal/transport"
)

// IdleMenu is the prompt shown whenever the conversation is parked.
func IdleMenu() string {
	return "What would you like to do?\n\n" +
		"💸 Type a recipient's name to send money\n" +
		"➕ NEW - add a recipient\n" +
		"👥 RECIPIENTS - your saved recipients\n" +
		"🏦 BANKS - your linked bank accounts\n" +
		"📊 STATUS - recent transfers\n" +
		"💱 RATE - today's USD to INR rate\n" +
		"❓ HELP - all commands"
}

// CancelResult abandons whatever flow is in progress: transaction
// fields are cleared, profile fields survive, and the conversation
// returns to idle with the menu.
func CancelResult(data session.Data, reply string) Result {
	data.ClearTransaction()
	if reply == "" {
		reply = "Cancelled. " + IdleMenu()
	}
	return Result{
		NextState: session.StateIdle,
		Reply:     reply,
		Template:  transport.TemplateIdleMenu,
		Data:      &data,
	}
}
