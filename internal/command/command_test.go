package command

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/surgepay/surgepay/internal/account"
	"github.com/surgepay/surgepay/internal/dialog"
	"github.com/surgepay/surgepay/internal/fx"
	"github.com/surgepay/surgepay/internal/jobs"
	"github.com/surgepay/surgepay/internal/linking"
	"github.com/surgepay/surgepay/internal/logging"
	"github.com/surgepay/surgepay/internal/recipient"
	"github.com/surgepay/surgepay/internal/session"
	"github.com/surgepay/surgepay/internal/transfer"
	"github.com/surgepay/surgepay/internal/user"
)

type fixture struct {
	interceptor *Interceptor
	user        *user.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := logging.Discard()

	users := user.NewMemoryRepository()
	registry := jobs.NewRegistry()
	t.Cleanup(registry.StopAll)

	i := &Interceptor{
		Users:      users,
		Accounts:   account.NewService(account.NewMemoryRepository()),
		Recipients: recipient.NewMemoryRepository(),
		Transfers:  transfer.NewService(transfer.NewMemoryRepository(), fx.StaticSource(83.50), 5*time.Minute, logger),
		Rates:      fx.NewService(fx.StaticSource(83.50), nil, logger),
		Aggregator: linking.NewDeterministicSimulator(),
		Jobs:       registry,
		Logger:     logger,
	}

	u, err := users.Create(context.Background(), user.CreateInput{
		PhoneNumber: "+14155551234",
		FullName:    "Asha Patel",
		Email:       "asha@example.com",
		DateOfBirth: time.Date(1990, 8, 15, 0, 0, 0, 0, time.UTC),
		Address:     "12 Mission St, San Francisco, CA",
	})
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return &fixture{interceptor: i, user: &u}
}

func (f *fixture) intercept(t *testing.T, state session.State, input string, data session.Data) (dialog.Result, bool) {
	t.Helper()
	res, intercepted, err := f.interceptor.Intercept(context.Background(), state, dialog.Context{
		User: f.user, Phone: f.user.PhoneNumber, Input: input, Data: data,
	})
	if err != nil {
		t.Fatalf("intercept %q: %v", input, err)
	}
	return res, intercepted
}

func (f *fixture) linkAccounts(t *testing.T, n int) []account.Account {
	t.Helper()
	var out []account.Account
	banks := []string{"Chase", "Bank of America", "Wells Fargo", "Chase", "Chase"}
	for i := 0; i < n; i++ {
		a, err := f.interceptor.Accounts.Link(context.Background(), account.CreateInput{
			UserID:        f.user.ID,
			AccountNumber: "123456789" + string(rune('0'+i)),
			BankName:      banks[i],
			Default:       i == 0,
		})
		if err != nil {
			t.Fatalf("link account %d: %v", i, err)
		}
		out = append(out, a)
	}
	return out
}

func TestProcessingLockBlocksEverything(t *testing.T) {
	f := newFixture(t)
	data := session.Data{TransferProcessing: true, ActiveTransferID: "t1"}

	for _, input := range []string{"HELP", "STATUS", "CANCEL", "Mom", "$50"} {
		res, intercepted := f.intercept(t, session.StateIdle, input, data)
		if !intercepted {
			t.Fatalf("%q should be blocked while settling", input)
		}
		if !strings.Contains(res.Reply, "being processed") {
			t.Fatalf("expected lock message for %q, got %q", input, res.Reply)
		}
	}
}

func TestMidFlowRefusesCommandsExceptCancel(t *testing.T) {
	f := newFixture(t)

	// A recognized command mid-flow is refused in place, not executed.
	for _, input := range []string{"STATUS", "rate", "BANKS", "DEFAULT 2", "REMOVE BANK 1"} {
		res, intercepted := f.intercept(t, session.StateAskingAmount, input, session.Data{SelectedRecipientID: "r1"})
		if !intercepted {
			t.Fatalf("%q should be refused mid-flow, not passed through", input)
		}
		if res.NextState != session.StateAskingAmount {
			t.Fatalf("%q must keep the flow in place, got %s", input, res.NextState)
		}
		if !strings.Contains(res.Reply, "not available right now") {
			t.Fatalf("expected refusal message for %q, got %q", input, res.Reply)
		}
	}

	// Ordinary flow input still reaches the state handler.
	if _, intercepted := f.intercept(t, session.StateAskingRecipientName, "Mom", session.Data{}); intercepted {
		t.Fatal("plain input must pass through mid-flow")
	}

	res, intercepted := f.intercept(t, session.StateAskingAmount, "cancel", session.Data{SelectedRecipientID: "r1"})
	if !intercepted {
		t.Fatal("CANCEL must intercept mid-flow")
	}
	if res.NextState != session.StateIdle {
		t.Fatalf("expected idle after cancel, got %s", res.NextState)
	}
	if res.Data == nil || res.Data.SelectedRecipientID != "" {
		t.Fatal("expected transaction data cleared")
	}
}

func TestCancelStopsRateJobAndQuote(t *testing.T) {
	f := newFixture(t)
	tr, err := f.interceptor.Transfers.CreateQuote(context.Background(), f.user.ID, "r1", 100)
	if err != nil {
		t.Fatalf("create quote: %v", err)
	}
	jobID := jobs.RateJobID(tr.ID)
	f.interceptor.Jobs.Start(jobID, func(ctx context.Context) { <-ctx.Done() })

	data := session.Data{TransferID: tr.ID, RateJobID: jobID}
	_, intercepted := f.intercept(t, session.StateShowingQuote, "CANCEL", data)
	if !intercepted {
		t.Fatal("expected CANCEL intercepted")
	}
	if f.interceptor.Jobs.Count() != 0 {
		t.Fatalf("expected rate job stopped, got %d", f.interceptor.Jobs.Count())
	}
	got, _ := f.interceptor.Transfers.Get(context.Background(), tr.ID)
	if got.Status != transfer.StatusCancelled {
		t.Fatalf("expected quote cancelled, got %s", got.Status)
	}
}

func TestStatusListsRecentWithIcons(t *testing.T) {
	f := newFixture(t)
	rec, err := f.interceptor.Recipients.Create(context.Background(), recipient.CreateInput{
		UserID: f.user.ID, Nickname: "Mom", PaymentMethod: recipient.MethodUPI, UPIID: "mom@paytm",
	})
	if err != nil {
		t.Fatalf("seed recipient: %v", err)
	}
	if _, err := f.interceptor.Transfers.CreateQuote(context.Background(), f.user.ID, rec.ID, 100); err != nil {
		t.Fatalf("create quote: %v", err)
	}

	res, intercepted := f.intercept(t, session.StateIdle, "STATUS", session.Data{})
	if !intercepted {
		t.Fatal("expected STATUS intercepted")
	}
	if !strings.Contains(res.Reply, "📋") || !strings.Contains(res.Reply, "Mom") {
		t.Fatalf("expected quote icon and nickname, got %q", res.Reply)
	}

	// No transfers yet reads differently.
	f2 := newFixture(t)
	res, _ = f2.intercept(t, session.StateIdle, "STATUS", session.Data{})
	if !strings.Contains(res.Reply, "haven't sent any") {
		t.Fatalf("expected empty-state message, got %q", res.Reply)
	}
}

func TestRateShowsExamples(t *testing.T) {
	f := newFixture(t)
	res, intercepted := f.intercept(t, session.StateIdle, "RATE", session.Data{})
	if !intercepted {
		t.Fatal("expected RATE intercepted")
	}
	if !strings.Contains(res.Reply, "83.5000") {
		t.Fatalf("expected live rate in reply, got %q", res.Reply)
	}
	if !strings.Contains(res.Reply, "$100") || !strings.Contains(res.Reply, "$500") {
		t.Fatalf("expected conversion examples, got %q", res.Reply)
	}

	// With the source down and no cache, the fallback is labeled.
	f.interceptor.Rates = fx.NewService(fx.FailingSource{}, nil, logging.Discard())
	res, _ = f.intercept(t, session.StateIdle, "RATE", session.Data{})
	if !strings.Contains(res.Reply, "approximate") {
		t.Fatalf("expected fallback label, got %q", res.Reply)
	}
}

func TestDefaultCommandRenumbers(t *testing.T) {
	f := newFixture(t)
	accounts := f.linkAccounts(t, 3)

	res, intercepted := f.intercept(t, session.StateIdle, "DEFAULT 3", session.Data{})
	if !intercepted {
		t.Fatal("expected DEFAULT intercepted")
	}
	if !strings.Contains(res.Reply, "default account") {
		t.Fatalf("expected confirmation, got %q", res.Reply)
	}

	list, _ := f.interceptor.Accounts.List(context.Background(), f.user.ID)
	if !list[0].Default {
		t.Fatal("expected a default account first")
	}
	// DEFAULT 3 targeted the third listed account, which was the last linked.
	if list[0].ID != accounts[2].ID {
		t.Fatalf("expected account %s default, got %s", accounts[2].ID, list[0].ID)
	}

	res, _ = f.intercept(t, session.StateIdle, "DEFAULT 9", session.Data{})
	if !strings.Contains(res.Reply, "no bank 9") {
		t.Fatalf("expected out-of-range message, got %q", res.Reply)
	}
}

func TestRemoveBankIsTwoStep(t *testing.T) {
	f := newFixture(t)
	f.linkAccounts(t, 2)

	// CONFIRM REMOVE with nothing staged.
	res, intercepted := f.intercept(t, session.StateIdle, "CONFIRM REMOVE", session.Data{})
	if !intercepted {
		t.Fatal("expected CONFIRM REMOVE intercepted")
	}
	if !strings.Contains(res.Reply, "no removal pending") {
		t.Fatalf("expected nothing-pending message, got %q", res.Reply)
	}

	res, _ = f.intercept(t, session.StateIdle, "REMOVE BANK 2", session.Data{})
	if res.Data == nil || !res.Data.AwaitingRemoveConfirm || res.Data.AccountToRemove == "" {
		t.Fatalf("expected removal staged, got %+v", res.Data)
	}
	if !strings.Contains(res.Reply, "CONFIRM REMOVE") {
		t.Fatalf("expected confirmation instructions, got %q", res.Reply)
	}

	// Nothing was removed yet.
	if count, _ := f.interceptor.Accounts.Count(context.Background(), f.user.ID); count != 2 {
		t.Fatalf("expected both accounts still active, got %d", count)
	}

	res, _ = f.intercept(t, session.StateIdle, "CONFIRM REMOVE", *res.Data)
	if !strings.Contains(res.Reply, "removed") {
		t.Fatalf("expected removal confirmation, got %q", res.Reply)
	}
	if count, _ := f.interceptor.Accounts.Count(context.Background(), f.user.ID); count != 1 {
		t.Fatalf("expected one account left, got %d", count)
	}
	if res.Data.AwaitingRemoveConfirm || res.Data.AccountToRemove != "" {
		t.Fatal("expected staging cleared")
	}
}

func TestRemoveLastBankRefused(t *testing.T) {
	f := newFixture(t)
	f.linkAccounts(t, 1)

	res, _ := f.intercept(t, session.StateIdle, "REMOVE BANK 1", session.Data{})
	if !strings.Contains(res.Reply, "only bank account") {
		t.Fatalf("expected last-account refusal, got %q", res.Reply)
	}
}

func TestAddBankRespectsCap(t *testing.T) {
	f := newFixture(t)
	f.linkAccounts(t, 2)

	res, intercepted := f.intercept(t, session.StateIdle, "ADD BANK", session.Data{})
	if !intercepted {
		t.Fatal("expected ADD BANK intercepted")
	}
	if res.NextState != session.StateSelectingInstitution {
		t.Fatalf("expected institution selection, got %s", res.NextState)
	}
	if res.Data == nil || !res.Data.AddingAccount {
		t.Fatal("expected adding-account flag set")
	}

	// At the cap, the command refuses instead.
	f2 := newFixture(t)
	f2.linkAccounts(t, 2)
	for i := 0; i < account.MaxActivePerUser-2; i++ {
		if _, err := f2.interceptor.Accounts.Link(context.Background(), account.CreateInput{
			UserID: f2.user.ID, AccountNumber: "99999999" + string(rune('0'+i)) + "9", BankName: "Chase",
		}); err != nil {
			t.Fatalf("fill to cap: %v", err)
		}
	}
	res, _ = f2.intercept(t, session.StateIdle, "ADD BANK", session.Data{})
	if res.NextState != session.StateIdle || !strings.Contains(res.Reply, "maximum") {
		t.Fatalf("expected cap refusal, got %s %q", res.NextState, res.Reply)
	}
}

func TestUnregisteredUserOnlyGetsHelp(t *testing.T) {
	f := newFixture(t)
	in := dialog.Context{User: nil, Phone: "+19995550000", Input: "STATUS"}

	_, intercepted, err := f.interceptor.Intercept(context.Background(), session.StateIdle, in)
	if err != nil {
		t.Fatalf("intercept: %v", err)
	}
	if intercepted {
		t.Fatal("STATUS must not run for an unregistered sender")
	}

	in.Input = "HELP"
	res, intercepted, err := f.interceptor.Intercept(context.Background(), session.StateIdle, in)
	if err != nil {
		t.Fatalf("intercept: %v", err)
	}
	if !intercepted || !strings.Contains(res.Reply, "CANCEL") {
		t.Fatalf("expected help for unregistered sender, got %q", res.Reply)
	}
}
