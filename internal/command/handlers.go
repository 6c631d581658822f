package command

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/surgepay/surgepay/internal/account"
	"github.com/surgepay/surgepay/internal/dialog"
	"github.com/surgepay/surgepay/internal/fx"
	"github.com/surgepay/surgepay/internal/session"
	"github.com/surgepay/surgepay/internal/transport"
)

const recentTransferCount = 5

func (i *Interceptor) help(in dialog.Context) dialog.Result {
	return dialog.Result{
		NextState: session.StateIdle,
		Reply: "Here's everything I understand:\n\n" +
			"💸 Type a recipient's name and I'll start a transfer\n" +
			"➕ NEW - add a recipient\n" +
			"👥 RECIPIENTS - your saved recipients\n" +
			"🏦 BANKS - your linked bank accounts\n" +
			"➕ ADD BANK - link another bank account\n" +
			"⭐ DEFAULT n - make bank n your default\n" +
			"🗑 REMOVE BANK n - remove bank n\n" +
			"📊 STATUS - your recent transfers\n" +
			"💱 RATE - today's USD to INR rate\n" +
			"🧾 FEES - how fees work\n" +
			"👤 PROFILE - your details\n" +
			"❌ CANCEL - abandon what we're doing",
	}
}

func (i *Interceptor) status(ctx context.Context, in dialog.Context) (dialog.Result, error) {
	transfers, err := i.Transfers.Recent(ctx, in.User.ID, recentTransferCount)
	if err != nil {
		return dialog.Result{}, err
	}
	if len(transfers) == 0 {
		return dialog.Result{
			NextState: session.StateIdle,
			Reply:     "You haven't sent any transfers yet. Type a recipient's name or NEW to get started!",
		}, nil
	}

	var b strings.Builder
	b.WriteString("Your recent transfers:\n\n")
	for _, t := range transfers {
		name := "recipient"
		if rec, err := i.Recipients.FindByID(ctx, t.RecipientID); err == nil {
			name = rec.Nickname
		}
		fmt.Fprintf(&b, "%s %s - $%.2f to %s (%s)\n", t.Status.Icon(), t.Code, t.Amount, name, t.Status.Label())
	}
	return dialog.Result{NextState: session.StateIdle, Reply: strings.TrimRight(b.String(), "\n")}, nil
}

func (i *Interceptor) rate(ctx context.Context, in dialog.Context) dialog.Result {
	rate, source := i.Rates.Informational(ctx)
	note := ""
	switch source {
	case fx.SourceCached:
		note = " (cached)"
	case fx.SourceFallback:
		note = " (approximate)"
	}

	q100 := fx.NewQuote(100, rate)
	q500 := fx.NewQuote(500, rate)
	return dialog.Result{
		NextState: session.StateIdle,
		Reply: fmt.Sprintf("💱 Today's rate%s: ₹%.4f per $1\n\n"+
			"$100 → ₹%.2f after fees\n"+
			"$500 → ₹%.2f after fees\n\n"+
			"Type a recipient's name to send money at this rate.",
			note, rate, q100.Destination, q500.Destination),
	}
}

func (i *Interceptor) fees(in dialog.Context) dialog.Result {
	return dialog.Result{
		NextState: session.StateIdle,
		Reply: "🧾 Our fee is 0.1% of the amount, capped at $2.\n\n" +
			"$100 → $0.10 fee\n" +
			"$500 → $0.50 fee\n" +
			"$2,000 and up → $2.00 fee\n\n" +
			"The fee is deducted before conversion. No hidden charges.",
	}
}

func (i *Interceptor) banks(ctx context.Context, in dialog.Context) (dialog.Result, error) {
	accounts, err := i.Accounts.List(ctx, in.User.ID)
	if err != nil {
		return dialog.Result{}, err
	}
	if len(accounts) == 0 {
		return dialog.Result{
			NextState: session.StateIdle,
			Reply:     "You have no linked bank accounts. Type ADD BANK to connect one.",
		}, nil
	}

	var b strings.Builder
	b.WriteString("Your linked bank accounts:\n\n")
	for n, acct := range accounts {
		marker := ""
		if acct.Default {
			marker = " ⭐ default"
		}
		fmt.Fprintf(&b, "%d. %s ****%s%s\n", n+1, acct.BankName, acct.Last4(), marker)
	}
	b.WriteString("\nDEFAULT n to change your default, REMOVE BANK n to remove one, ADD BANK to add another.")
	return dialog.Result{NextState: session.StateIdle, Reply: b.String()}, nil
}

func (i *Interceptor) addBank(ctx context.Context, in dialog.Context) (dialog.Result, error) {
	count, err := i.Accounts.Count(ctx, in.User.ID)
	if err != nil {
		return dialog.Result{}, err
	}
	if count >= account.MaxActivePerUser {
		return dialog.Result{
			NextState: session.StateIdle,
			Reply: fmt.Sprintf("You already have %d linked accounts, which is the maximum. Remove one first with REMOVE BANK n.",
				account.MaxActivePerUser),
		}, nil
	}

	data := in.Data
	data.AddingAccount = true
	return dialog.Result{
		NextState: session.StateSelectingInstitution,
		Reply:     dialog.BankListPrompt(i.Aggregator.Institutions()),
		Template:  transport.TemplateBankSelection,
		Data:      &data,
	}, nil
}

func (i *Interceptor) recipients(ctx context.Context, in dialog.Context) (dialog.Result, error) {
	recipients, err := i.Recipients.FindByUser(ctx, in.User.ID)
	if err != nil {
		return dialog.Result{}, err
	}
	if len(recipients) == 0 {
		return dialog.Result{
			NextState: session.StateIdle,
			Reply:     "You have no saved recipients yet. Type NEW to add one.",
		}, nil
	}

	var b strings.Builder
	b.WriteString("Your recipients:\n\n")
	for _, rec := range recipients {
		fmt.Fprintf(&b, "👤 %s (%s)\n", rec.Nickname, rec.PaymentInfo())
	}
	b.WriteString("\nType a name to send money, or NEW to add another.")
	return dialog.Result{NextState: session.StateIdle, Reply: b.String()}, nil
}

func (i *Interceptor) profile(ctx context.Context, in dialog.Context) (dialog.Result, error) {
	accountCount, err := i.Accounts.Count(ctx, in.User.ID)
	if err != nil {
		return dialog.Result{}, err
	}
	recipients, err := i.Recipients.FindByUser(ctx, in.User.ID)
	if err != nil {
		return dialog.Result{}, err
	}
	return dialog.Result{
		NextState: session.StateIdle,
		Reply: fmt.Sprintf("Your profile:\n\n👤 %s\n📧 %s\n📱 %s\n🏠 %s\n\n🏦 %d linked accounts\n👥 %d recipients",
			in.User.FullName, in.User.Email, in.User.PhoneNumber, in.User.Address, accountCount, len(recipients)),
	}, nil
}

func (i *Interceptor) newRecipient(in dialog.Context) dialog.Result {
	return dialog.Result{
		NextState: session.StateAskingRecipientName,
		Reply:     "Who would you like to send money to? Give them a nickname (e.g. Mom).",
		Template:  transport.TemplateAddRecipient,
	}
}

func (i *Interceptor) setDefault(ctx context.Context, in dialog.Context, number string) (dialog.Result, error) {
	accounts, err := i.Accounts.List(ctx, in.User.ID)
	if err != nil {
		return dialog.Result{}, err
	}
	n, _ := strconv.Atoi(number)
	if n < 1 || n > len(accounts) {
		return dialog.Result{
			NextState: session.StateIdle,
			Reply:     fmt.Sprintf("There's no bank %s. Type BANKS to see the numbered list.", number),
		}, nil
	}
	acct := accounts[n-1]
	if err := i.Accounts.SetDefault(ctx, acct.ID, in.User.ID); err != nil {
		return dialog.Result{}, err
	}
	return dialog.Result{
		NextState: session.StateIdle,
		Reply:     fmt.Sprintf("⭐ %s ****%s is now your default account.", acct.BankName, acct.Last4()),
	}, nil
}

// removeBank is the first half of the two-step removal: the account is
// staged in session data and nothing changes until CONFIRM REMOVE.
func (i *Interceptor) removeBank(ctx context.Context, in dialog.Context, number string) (dialog.Result, error) {
	accounts, err := i.Accounts.List(ctx, in.User.ID)
	if err != nil {
		return dialog.Result{}, err
	}
	n, _ := strconv.Atoi(number)
	if n < 1 || n > len(accounts) {
		return dialog.Result{
			NextState: session.StateIdle,
			Reply:     fmt.Sprintf("There's no bank %s. Type BANKS to see the numbered list.", number),
		}, nil
	}
	if len(accounts) == 1 {
		return dialog.Result{
			NextState: session.StateIdle,
			Reply:     "You can't remove your only bank account. Link another with ADD BANK first.",
		}, nil
	}

	acct := accounts[n-1]
	data := in.Data
	data.AwaitingRemoveConfirm = true
	data.AccountToRemove = acct.ID
	return dialog.Result{
		NextState: session.StateIdle,
		Reply:     fmt.Sprintf("Remove %s ****%s? Reply CONFIRM REMOVE to go ahead, or anything else to keep it.", acct.BankName, acct.Last4()),
		Data:      &data,
	}, nil
}

func (i *Interceptor) confirmRemove(ctx context.Context, in dialog.Context) (dialog.Result, error) {
	if !in.Data.AwaitingRemoveConfirm || in.Data.AccountToRemove == "" {
		return dialog.Result{
			NextState: session.StateIdle,
			Reply:     "There's no removal pending. Type BANKS and then REMOVE BANK n.",
		}, nil
	}

	acct, err := i.Accounts.Get(ctx, in.Data.AccountToRemove)
	if err != nil {
		return dialog.Result{}, err
	}
	data := in.Data
	data.AwaitingRemoveConfirm = false
	data.AccountToRemove = ""

	if err := i.Accounts.Remove(ctx, in.User.ID, acct.ID); err != nil {
		if errors.Is(err, account.ErrLastAccount) {
			return dialog.Result{
				NextState: session.StateIdle,
				Reply:     "You can't remove your only bank account. Link another with ADD BANK first.",
				Data:      &data,
			}, nil
		}
		return dialog.Result{}, err
	}

	if acct.Default {
		// Promote whichever account now lists first.
		if remaining, lerr := i.Accounts.List(ctx, in.User.ID); lerr == nil && len(remaining) > 0 && !remaining[0].Default {
			if derr := i.Accounts.SetDefault(ctx, remaining[0].ID, in.User.ID); derr != nil {
				i.Logger.Warn("promote default after removal failed", "error", derr)
			}
		}
	}

	return dialog.Result{
		NextState: session.StateIdle,
		Reply:     fmt.Sprintf("🗑 %s ****%s removed.", acct.BankName, acct.Last4()),
		Data:      &data,
	}, nil
}
