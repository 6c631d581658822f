package transport

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// LogSender writes outbound messages to the log instead of a channel.
// It backs development and tests, and is the fallback when Twilio is
// not configured.
type LogSender struct {
	logger *slog.Logger
}

// NewLogSender builds a log-only sender.
func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

// Send logs the reply.
func (s *LogSender) Send(_ context.Context, reply Reply) error {
	s.logger.Info("outbound message", "to", reply.To, "template", string(reply.Template), "body", reply.Body)
	return nil
}

// TwilioSender delivers WhatsApp messages through the Twilio REST API.
type TwilioSender struct {
	client     *http.Client
	accountSID string
	authToken  string
	from       string
}

// NewTwilioSender builds a sender for the given Twilio account. from is
// the WhatsApp-enabled number, without the channel prefix.
func NewTwilioSender(accountSID, authToken, from string) *TwilioSender {
	return &TwilioSender{
		client:     &http.Client{Timeout: 10 * time.Second},
		accountSID: accountSID,
		authToken:  authToken,
		from:       from,
	}
}

// Send posts the message to Twilio.
func (s *TwilioSender) Send(ctx context.Context, reply Reply) error {
	form := url.Values{}
	form.Set("From", "whatsapp:"+s.from)
	form.Set("To", "whatsapp:"+reply.To)
	form.Set("Body", reply.Body)

	endpoint := fmt.Sprintf("https://api.twilio.com/2010-04-01/Accounts/%s/Messages.json", s.accountSID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.SetBasicAuth(s.accountSID, s.authToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("twilio send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("twilio send: status %d", resp.StatusCode)
	}
	return nil
}

// RecordingSender captures sent replies for tests. Safe for use from
// background jobs.
type RecordingSender struct {
	mu      sync.Mutex
	replies []Reply
}

// Send records the reply.
func (s *RecordingSender) Send(_ context.Context, reply Reply) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replies = append(s.replies, reply)
	return nil
}

// Replies returns a copy of everything sent so far.
func (s *RecordingSender) Replies() []Reply {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Reply, len(s.replies))
	copy(out, s.replies)
	return out
}

// Last returns the most recent reply, or a zero Reply.
func (s *RecordingSender) Last() Reply {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.replies) == 0 {
		return Reply{}
	}
	return s.replies[len(s.replies)-1]
}
