package dialog

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/surgepay/surgepay/internal/account"
	"github.com/surgepay/surgepay/internal/fx"
	"github.com/surgepay/surgepay/internal/jobs"
	"github.com/surgepay/surgepay/internal/linking"
	"github.com/surgepay/surgepay/internal/logging"
	"github.com/surgepay/surgepay/internal/recipient"
	"github.com/surgepay/surgepay/internal/session"
	"github.com/surgepay/surgepay/internal/transfer"
	"github.com/surgepay/surgepay/internal/transport"
	"github.com/surgepay/surgepay/internal/user"
	"github.com/surgepay/surgepay/internal/verify"
)

type fixture struct {
	handlers *Handlers
	sessions *session.Store
	sender   *transport.RecordingSender
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := logging.Discard()

	users := user.NewMemoryRepository()
	accounts := account.NewService(account.NewMemoryRepository())
	recipients := recipient.NewMemoryRepository()
	transfers := transfer.NewService(transfer.NewMemoryRepository(), fx.StaticSource(83.50), 5*time.Minute, logger)
	sessions := session.NewStore(nil, session.NewMemoryStore(), time.Hour, logger)
	sender := &transport.RecordingSender{}
	registry := jobs.NewRegistry()
	t.Cleanup(registry.StopAll)

	delays := jobs.SettlementDelays{
		WithdrawalStarted:  time.Millisecond,
		WithdrawalComplete: 2 * time.Millisecond,
		PayoutStarted:      3 * time.Millisecond,
		Completed:          4 * time.Millisecond,
	}
	h := &Handlers{
		Users:      users,
		Accounts:   accounts,
		Recipients: recipients,
		Transfers:  transfers,
		Aggregator: linking.NewDeterministicSimulator(),
		Verifier:   verify.NewSimulator(),
		Jobs:       registry,
		Notifier:   jobs.NewSettlementNotifier(transfers, recipients, accounts, sessions, sender, delays, logger),
		Refresher:  jobs.NewRateRefresher(transfers, sessions, sender, time.Minute, logger),
		Logger:     logger,
	}
	return &fixture{handlers: h, sessions: sessions, sender: sender}
}

// drive runs one message through the state machine and returns the
// result plus the data that should now be stored.
func drive(t *testing.T, f *fixture, state session.State, in Context) (Result, session.Data) {
	t.Helper()
	res, err := f.handlers.Handle(context.Background(), state, in)
	if err != nil {
		t.Fatalf("handle %s %q: %v", state, in.Input, err)
	}
	data := in.Data
	if res.Data != nil {
		data = *res.Data
	}
	return res, data
}

func (f *fixture) onboardedUser(t *testing.T) *user.User {
	t.Helper()
	u, err := f.handlers.Users.Create(context.Background(), user.CreateInput{
		PhoneNumber: "+14155551234",
		FullName:    "Asha Patel",
		Email:       "asha@example.com",
		DateOfBirth: time.Date(1990, 8, 15, 0, 0, 0, 0, time.UTC),
		Address:     "12 Mission St, San Francisco, CA",
	})
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return &u
}

func TestOnboardingThroughBankLink(t *testing.T) {
	f := newFixture(t)
	state := session.StateInitial
	data := session.Data{}

	step := func(input string, wantState session.State) Result {
		t.Helper()
		res, nextData := drive(t, f, state, Context{Phone: "+14155551234", Input: input, Data: data})
		if res.NextState != wantState {
			t.Fatalf("after %q: expected state %s, got %s (reply %q)", input, wantState, res.NextState, res.Reply)
		}
		state = res.NextState
		data = nextData
		return res
	}

	step("Hi", session.StateAskingName)
	step("Asha Patel", session.StateAskingEmail)
	step("Asha@Example.com", session.StateAskingDOB)
	step("15/08/1990", session.StateAskingAddress)
	step("12 Mission St, San Francisco, CA", session.StateInitiatingLink)
	if data.Email != "asha@example.com" {
		t.Fatalf("expected email lowercased, got %q", data.Email)
	}

	step("LINK BANK", session.StateSelectingInstitution)
	res := step("2", session.StateConfirmingLink)
	if !strings.Contains(res.Reply, "Bank of America") {
		t.Fatalf("expected Bank of America in confirmation, got %q", res.Reply)
	}
	if data.LinkedAccount == nil {
		t.Fatal("expected linked account staged in session data")
	}

	step("YES", session.StateIdle)

	// The profile and the default account were created together.
	u, err := f.handlers.Users.FindByPhone(context.Background(), "+14155551234")
	if err != nil {
		t.Fatalf("expected user created: %v", err)
	}
	if u.FullName != "Asha Patel" {
		t.Fatalf("unexpected user: %+v", u)
	}
	accounts, err := f.handlers.Accounts.List(context.Background(), u.ID)
	if err != nil || len(accounts) != 1 {
		t.Fatalf("expected one linked account, got %d (%v)", len(accounts), err)
	}
	if !accounts[0].Default {
		t.Fatal("expected first account to be the default")
	}
	if data.Name != "" || data.LinkedAccount != nil {
		t.Fatalf("expected session data reset after onboarding, got %+v", data)
	}
}

func TestWelcomeBackSkipsOnboarding(t *testing.T) {
	f := newFixture(t)
	u := f.onboardedUser(t)

	res, _ := drive(t, f, session.StateInitial, Context{User: u, Phone: u.PhoneNumber, Input: "Hi"})
	if res.NextState != session.StateIdle {
		t.Fatalf("expected idle, got %s", res.NextState)
	}
	if !strings.Contains(res.Reply, "Welcome back, Asha") {
		t.Fatalf("expected welcome back, got %q", res.Reply)
	}
}

func TestValidationErrorsStayInState(t *testing.T) {
	f := newFixture(t)

	res, _ := drive(t, f, session.StateAskingEmail, Context{Input: "not-an-email"})
	if res.NextState != session.StateAskingEmail {
		t.Fatalf("expected to stay asking email, got %s", res.NextState)
	}
	if res.Data != nil {
		t.Fatal("expected no data change on a validation failure")
	}
	if !strings.Contains(res.Reply, "Or type CANCEL to abort.") {
		t.Fatalf("expected cancel hint on re-prompt, got %q", res.Reply)
	}

	res, _ = drive(t, f, session.StateAskingDOB, Context{Input: "31/02/2000"})
	if res.NextState != session.StateAskingDOB {
		t.Fatalf("expected invalid calendar date rejected, got %s", res.NextState)
	}
	if !strings.Contains(res.Reply, "CANCEL") {
		t.Fatalf("expected cancel hint on re-prompt, got %q", res.Reply)
	}
}

func TestBankConnectionFailureOffersRetry(t *testing.T) {
	f := newFixture(t)
	f.handlers.Aggregator = linking.NewFailingSimulator()

	res, data := drive(t, f, session.StateSelectingInstitution, Context{Input: "chase", Data: session.Data{Name: "Asha Patel"}})
	if res.NextState != session.StateSelectingInstitution {
		t.Fatalf("expected to stay selecting, got %s", res.NextState)
	}
	if !strings.Contains(res.Reply, "RETRY") {
		t.Fatalf("expected retry offer, got %q", res.Reply)
	}
	if data.InstitutionKey != "chase" {
		t.Fatalf("expected institution remembered for RETRY, got %q", data.InstitutionKey)
	}

	// RETRY reuses the remembered institution and succeeds once the
	// aggregator recovers.
	f.handlers.Aggregator = linking.NewDeterministicSimulator()
	res, data = drive(t, f, session.StateSelectingInstitution, Context{Input: "RETRY", Data: data})
	if res.NextState != session.StateConfirmingLink {
		t.Fatalf("expected confirmation after retry, got %s", res.NextState)
	}
	if data.LinkedAccount == nil || data.LinkedAccount.BankName != "Chase" {
		t.Fatalf("expected Chase linked on retry, got %+v", data.LinkedAccount)
	}
}

func TestRecipientUPIFlow(t *testing.T) {
	f := newFixture(t)
	u := f.onboardedUser(t)
	state := session.StateAskingRecipientName
	data := session.Data{}

	step := func(input string, wantState session.State) Result {
		t.Helper()
		res, nextData := drive(t, f, state, Context{User: u, Phone: u.PhoneNumber, Input: input, Data: data})
		if res.NextState != wantState {
			t.Fatalf("after %q: expected state %s, got %s (reply %q)", input, wantState, res.NextState, res.Reply)
		}
		state = res.NextState
		data = nextData
		return res
	}

	step("Mom", session.StateAskingPaymentMethod)
	step("1", session.StateAskingUPIID)
	res := step("Mom@Paytm", session.StateConfirmingRecipient)
	if !strings.Contains(res.Reply, "Verified") {
		t.Fatalf("expected verification in summary, got %q", res.Reply)
	}
	step("YES", session.StateAskingAmount)

	rec, err := f.handlers.Recipients.FindByNickname(context.Background(), u.ID, "mom")
	if err != nil {
		t.Fatalf("expected recipient saved and matchable case-insensitively: %v", err)
	}
	if rec.UPIID != "mom@paytm" {
		t.Fatalf("expected UPI ID normalized, got %q", rec.UPIID)
	}
	if data.SelectedRecipientID != rec.ID {
		t.Fatal("expected saved recipient selected for the transfer")
	}
	if data.RecipientDraft != nil {
		t.Fatal("expected draft cleared after save")
	}
}

func TestExistingNicknameFastPath(t *testing.T) {
	f := newFixture(t)
	u := f.onboardedUser(t)
	rec, err := f.handlers.Recipients.Create(context.Background(), recipient.CreateInput{
		UserID: u.ID, Nickname: "Mom", PaymentMethod: recipient.MethodUPI, UPIID: "mom@paytm",
	})
	if err != nil {
		t.Fatalf("seed recipient: %v", err)
	}

	// From idle, typing the nickname starts a transfer directly.
	res, data := drive(t, f, session.StateIdle, Context{User: u, Phone: u.PhoneNumber, Input: "mom"})
	if res.NextState != session.StateAskingAmount {
		t.Fatalf("expected amount prompt, got %s", res.NextState)
	}
	if data.SelectedRecipientID != rec.ID {
		t.Fatal("expected recipient selected")
	}
}

func TestTransferFlowEndToEnd(t *testing.T) {
	f := newFixture(t)
	u := f.onboardedUser(t)
	rec, err := f.handlers.Recipients.Create(context.Background(), recipient.CreateInput{
		UserID: u.ID, Nickname: "Mom", PaymentMethod: recipient.MethodUPI, UPIID: "mom@paytm",
	})
	if err != nil {
		t.Fatalf("seed recipient: %v", err)
	}
	if _, err := f.handlers.Accounts.Link(context.Background(), account.CreateInput{
		UserID: u.ID, AccountNumber: "1234567890", BankName: "Chase", Default: true,
	}); err != nil {
		t.Fatalf("seed account: %v", err)
	}

	state := session.StateAskingAmount
	data := session.Data{SelectedRecipientID: rec.ID}

	step := func(input string, wantState session.State) Result {
		t.Helper()
		res, nextData := drive(t, f, state, Context{User: u, Phone: u.PhoneNumber, Input: input, Data: data})
		if res.NextState != wantState {
			t.Fatalf("after %q: expected state %s, got %s (reply %q)", input, wantState, res.NextState, res.Reply)
		}
		state = res.NextState
		data = nextData
		return res
	}

	res := step("$100", session.StateShowingQuote)
	if !strings.Contains(res.Reply, "₹8341.65") {
		t.Fatalf("expected destination amount in quote, got %q", res.Reply)
	}
	if data.TransferID == "" {
		t.Fatal("expected transfer recorded in session")
	}
	if f.handlers.Jobs.Count() != 1 {
		t.Fatalf("expected rate refresh job running, got %d jobs", f.handlers.Jobs.Count())
	}

	step("CONFIRM", session.StateSelectingAccount)
	step("1", session.StateConfirmingTransfer)
	res = step("PAY", session.StateIdle)
	if !strings.Contains(res.Reply, "on its way") {
		t.Fatalf("expected settlement kickoff, got %q", res.Reply)
	}
	if !data.TransferProcessing || data.ActiveTransferID == "" {
		t.Fatalf("expected conversation locked for settlement, got %+v", data)
	}

	got, err := f.handlers.Transfers.Get(context.Background(), data.ActiveTransferID)
	if err != nil {
		t.Fatalf("get transfer: %v", err)
	}
	if got.Status != transfer.StatusProcessingWithdrawal && got.Status != transfer.StatusProcessingPayout && got.Status != transfer.StatusCompleted {
		t.Fatalf("expected transfer in settlement, got %s", got.Status)
	}
	if got.AccountID == "" {
		t.Fatal("expected funding account attached")
	}
}

func TestQuoteCancelStopsJobAndClears(t *testing.T) {
	f := newFixture(t)
	u := f.onboardedUser(t)
	rec, _ := f.handlers.Recipients.Create(context.Background(), recipient.CreateInput{
		UserID: u.ID, Nickname: "Mom", PaymentMethod: recipient.MethodUPI, UPIID: "mom@paytm",
	})

	res, data := drive(t, f, session.StateAskingAmount, Context{
		User: u, Phone: u.PhoneNumber, Input: "100",
		Data: session.Data{SelectedRecipientID: rec.ID},
	})
	if res.NextState != session.StateShowingQuote {
		t.Fatalf("expected quote, got %s", res.NextState)
	}
	transferID := data.TransferID

	res, data = drive(t, f, session.StateShowingQuote, Context{User: u, Phone: u.PhoneNumber, Input: "CANCEL", Data: data})
	if res.NextState != session.StateIdle {
		t.Fatalf("expected idle after cancel, got %s", res.NextState)
	}
	if data.TransferID != "" || data.RateJobID != "" {
		t.Fatalf("expected transaction data cleared, got %+v", data)
	}
	if f.handlers.Jobs.Count() != 0 {
		t.Fatalf("expected rate job stopped, got %d", f.handlers.Jobs.Count())
	}
	got, _ := f.handlers.Transfers.Get(context.Background(), transferID)
	if got.Status != transfer.StatusCancelled {
		t.Fatalf("expected cancelled, got %s", got.Status)
	}
}

func TestDuplicateActiveTransferBlocked(t *testing.T) {
	f := newFixture(t)
	u := f.onboardedUser(t)
	rec, _ := f.handlers.Recipients.Create(context.Background(), recipient.CreateInput{
		UserID: u.ID, Nickname: "Mom", PaymentMethod: recipient.MethodUPI, UPIID: "mom@paytm",
	})

	_, data := drive(t, f, session.StateAskingAmount, Context{
		User: u, Phone: u.PhoneNumber, Input: "100",
		Data: session.Data{SelectedRecipientID: rec.ID},
	})
	if data.TransferID == "" {
		t.Fatal("expected first quote created")
	}

	res, _ := drive(t, f, session.StateAskingAmount, Context{
		User: u, Phone: u.PhoneNumber, Input: "100",
		Data: session.Data{SelectedRecipientID: rec.ID},
	})
	if res.NextState != session.StateIdle {
		t.Fatalf("expected duplicate rejected to idle, got %s", res.NextState)
	}
	if !strings.Contains(res.Reply, "already have a transfer") {
		t.Fatalf("expected duplicate explanation, got %q", res.Reply)
	}
}
