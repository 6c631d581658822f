package jobs

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/surgepay/surgepay/internal/account"
	"github.com/surgepay/surgepay/internal/fx"
	"github.com/surgepay/surgepay/internal/logging"
	"github.com/surgepay/surgepay/internal/recipient"
	"github.com/surgepay/surgepay/internal/session"
	"github.com/surgepay/surgepay/internal/transfer"
	"github.com/surgepay/surgepay/internal/transport"
)

func TestRegistryStartAndStop(t *testing.T) {
	r := NewRegistry()
	done := make(chan struct{})

	r.Start("job-1", func(ctx context.Context) {
		<-ctx.Done()
		close(done)
	})
	if r.Count() != 1 {
		t.Fatalf("expected 1 job, got %d", r.Count())
	}

	r.Stop("job-1")
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("job did not observe cancellation")
	}
}

func TestRegistryReplacesJobUnderSameID(t *testing.T) {
	r := NewRegistry()
	firstCancelled := make(chan struct{})

	r.Start("job-1", func(ctx context.Context) {
		<-ctx.Done()
		close(firstCancelled)
	})
	r.Start("job-1", func(ctx context.Context) {
		<-ctx.Done()
	})

	select {
	case <-firstCancelled:
	case <-time.After(time.Second):
		t.Fatal("starting under the same ID should cancel the old job")
	}
	if r.Count() != 1 {
		t.Fatalf("expected 1 job after replacement, got %d", r.Count())
	}
	r.StopAll()
	if r.Count() != 0 {
		t.Fatalf("expected empty registry after StopAll, got %d", r.Count())
	}
}

type settlementFixture struct {
	transfers *transfer.Service
	notifier  *SettlementNotifier
	sessions  *session.Store
	sender    *transport.RecordingSender
	transfer  transfer.Transfer
}

func newSettlementFixture(t *testing.T) *settlementFixture {
	t.Helper()
	logger := logging.Discard()

	transfers := transfer.NewService(transfer.NewMemoryRepository(), fx.StaticSource(83.50), 5*time.Minute, logger)
	recipients := recipient.NewMemoryRepository()
	accounts := account.NewService(account.NewMemoryRepository())
	sessions := session.NewStore(nil, session.NewMemoryStore(), time.Hour, logger)
	sender := &transport.RecordingSender{}

	rec, err := recipients.Create(context.Background(), recipient.CreateInput{
		UserID: "u1", Nickname: "Mom", PaymentMethod: recipient.MethodUPI, UPIID: "mom@paytm",
	})
	if err != nil {
		t.Fatalf("create recipient: %v", err)
	}
	acct, err := accounts.Link(context.Background(), account.CreateInput{
		UserID: "u1", AccountNumber: "1234567890", BankName: "Chase", Default: true,
	})
	if err != nil {
		t.Fatalf("link account: %v", err)
	}

	tr, err := transfers.CreateQuote(context.Background(), "u1", rec.ID, 100)
	if err != nil {
		t.Fatalf("create quote: %v", err)
	}
	tr, err = transfers.Settle(context.Background(), tr.ID, acct.ID)
	if err != nil {
		t.Fatalf("settle: %v", err)
	}

	delays := SettlementDelays{
		WithdrawalStarted:  time.Millisecond,
		WithdrawalComplete: 2 * time.Millisecond,
		PayoutStarted:      3 * time.Millisecond,
		Completed:          4 * time.Millisecond,
	}
	notifier := NewSettlementNotifier(transfers, recipients, accounts, sessions, sender, delays, logger)
	return &settlementFixture{transfers: transfers, notifier: notifier, sessions: sessions, sender: sender, transfer: tr}
}

func TestSettlementNotifierWalksPhases(t *testing.T) {
	f := newSettlementFixture(t)

	data := session.Data{TransferProcessing: true, ActiveTransferID: f.transfer.ID}
	if err := f.sessions.Put(context.Background(), "+1415", session.Session{State: session.StateIdle, Data: data}); err != nil {
		t.Fatalf("seed session: %v", err)
	}

	f.notifier.Run(context.Background(), "+1415", f.transfer.ID)

	if len(f.sender.Replies()) != 4 {
		t.Fatalf("expected 4 notifications, got %d", len(f.sender.Replies()))
	}
	got, err := f.transfers.Get(context.Background(), f.transfer.ID)
	if err != nil {
		t.Fatalf("get transfer: %v", err)
	}
	if got.Status != transfer.StatusCompleted {
		t.Fatalf("expected completed, got %s", got.Status)
	}

	sess, err := f.sessions.Get(context.Background(), "+1415")
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if sess.Data.TransferProcessing {
		t.Fatal("expected conversation lock released")
	}
	if sess.Data.ActiveTransferID != "" {
		t.Fatal("expected active transfer cleared")
	}
}

func TestSettlementNotifierStopsOnLostTransition(t *testing.T) {
	f := newSettlementFixture(t)

	// Someone else already advanced the transfer; the notifier's
	// compare-and-set must lose and the job must stop.
	if ok, err := f.transfers.Advance(context.Background(), f.transfer.ID, transfer.StatusProcessingWithdrawal, transfer.StatusProcessingPayout); err != nil || !ok {
		t.Fatalf("advance: ok=%v err=%v", ok, err)
	}

	f.notifier.Run(context.Background(), "+1415", f.transfer.ID)

	if len(f.sender.Replies()) != 1 {
		t.Fatalf("expected only the first notification, got %d", len(f.sender.Replies()))
	}
}

func TestRateRefresherStopsWhenConversationMovesOn(t *testing.T) {
	logger := logging.Discard()
	transfers := transfer.NewService(transfer.NewMemoryRepository(), fx.StaticSource(83.50), 5*time.Minute, logger)
	sessions := session.NewStore(nil, session.NewMemoryStore(), time.Hour, logger)
	sender := &transport.RecordingSender{}

	tr, err := transfers.CreateQuote(context.Background(), "u1", "r1", 100)
	if err != nil {
		t.Fatalf("create quote: %v", err)
	}
	// The conversation is idle, not showing the quote.
	if err := sessions.Put(context.Background(), "+1415", session.Session{State: session.StateIdle}); err != nil {
		t.Fatalf("seed session: %v", err)
	}

	refresher := NewRateRefresher(transfers, sessions, sender, time.Millisecond, logger)
	done := make(chan struct{})
	go func() {
		refresher.Run(context.Background(), "+1415", tr.ID)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("refresher did not stop for a stale conversation")
	}
	if len(sender.Replies()) != 0 {
		t.Fatalf("expected no rate updates, got %d", len(sender.Replies()))
	}
}

// flakyRate serves one live rate for the quote, then goes dark.
type flakyRate struct {
	mu    sync.Mutex
	calls int
}

func (f *flakyRate) Live(context.Context) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.calls == 1 {
		return 83.50, nil
	}
	return 0, fx.ErrUnavailable
}

func TestRateRefresherResetsSessionWhenRateLost(t *testing.T) {
	logger := logging.Discard()
	transfers := transfer.NewService(transfer.NewMemoryRepository(), &flakyRate{}, 5*time.Minute, logger)
	sessions := session.NewStore(nil, session.NewMemoryStore(), time.Hour, logger)
	sender := &transport.RecordingSender{}

	tr, err := transfers.CreateQuote(context.Background(), "u1", "r1", 100)
	if err != nil {
		t.Fatalf("create quote: %v", err)
	}
	data := session.Data{TransferID: tr.ID, RateJobID: RateJobID(tr.ID)}
	if err := sessions.Put(context.Background(), "+1415", session.Session{State: session.StateShowingQuote, Data: data}); err != nil {
		t.Fatalf("seed session: %v", err)
	}

	refresher := NewRateRefresher(transfers, sessions, sender, time.Millisecond, logger)
	refresher.Run(context.Background(), "+1415", tr.ID)

	if len(sender.Replies()) != 1 {
		t.Fatalf("expected one notice, got %d", len(sender.Replies()))
	}
	if !strings.Contains(sender.Last().Body, "wasn't confirmed") {
		t.Fatalf("expected rate-loss notice, got %q", sender.Last().Body)
	}
	sess, err := sessions.Get(context.Background(), "+1415")
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if sess.State != session.StateIdle || sess.Data.TransferID != "" || sess.Data.RateJobID != "" {
		t.Fatalf("expected idle session with cleared transfer, got %s %+v", sess.State, sess.Data)
	}
}

func TestRateRefresherCancelsExpiredQuote(t *testing.T) {
	logger := logging.Discard()
	transfers := transfer.NewService(transfer.NewMemoryRepository(), fx.StaticSource(83.50), -time.Second, logger)
	sessions := session.NewStore(nil, session.NewMemoryStore(), time.Hour, logger)
	sender := &transport.RecordingSender{}

	tr, err := transfers.CreateQuote(context.Background(), "u1", "r1", 100)
	if err != nil {
		t.Fatalf("create quote: %v", err)
	}
	data := session.Data{TransferID: tr.ID}
	if err := sessions.Put(context.Background(), "+1415", session.Session{State: session.StateShowingQuote, Data: data}); err != nil {
		t.Fatalf("seed session: %v", err)
	}

	refresher := NewRateRefresher(transfers, sessions, sender, time.Millisecond, logger)
	refresher.Run(context.Background(), "+1415", tr.ID)

	got, err := transfers.Get(context.Background(), tr.ID)
	if err != nil {
		t.Fatalf("get transfer: %v", err)
	}
	if got.Status != transfer.StatusCancelled {
		t.Fatalf("expected expired quote cancelled, got %s", got.Status)
	}
	if len(sender.Replies()) != 1 {
		t.Fatalf("expected one expiry notice, got %d", len(sender.Replies()))
	}

	sess, err := sessions.Get(context.Background(), "+1415")
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if sess.State != session.StateIdle || sess.Data.TransferID != "" {
		t.Fatalf("expected idle session with cleared transfer, got %s %+v", sess.State, sess.Data)
	}
}
