// Package engine processes one inbound message end to end: session
// resolution, command interception, dialog dispatch, persistence, and
// the outbound reply.
package engine

import (
	"context"
	"errors"
	"log/slog"

	"github.com/surgepay/surgepay/internal/command"
	"github.com/surgepay/surgepay/internal/dialog"
	"github.com/surgepay/surgepay/internal/metrics"
	"github.com/surgepay/surgepay/internal/session"
	"github.com/surgepay/surgepay/internal/transport"
	"github.com/surgepay/surgepay/internal/user"
)

const genericErrorReply = "😕 Something went wrong on my end. Please try that again."

// Engine routes inbound messages.
type Engine struct {
	Sessions    *session.Store
	Users       user.Repository
	Interceptor *command.Interceptor
	Dialog      *dialog.Handlers
	Sender      transport.Sender
	Logger      *slog.Logger
}

// HandleIncomingMessage runs one message through the pipeline. The
// reply is sent before returning; processing errors are answered with
// a generic apology so the conversation never goes silent.
func (e *Engine) HandleIncomingMessage(ctx context.Context, in transport.Inbound) error {
	sess, err := e.Sessions.Get(ctx, in.Phone)
	if err != nil {
		if !errors.Is(err, session.ErrNotFound) {
			e.Logger.Warn("session load failed, starting fresh", "phone", in.Phone, "error", err)
		}
		sess = session.New()
	}

	var usr *user.User
	if u, err := e.Users.FindByPhone(ctx, in.Phone); err == nil {
		usr = &u
	} else if !errors.Is(err, user.ErrNotFound) {
		return e.fail(ctx, in.Phone, err)
	}

	dctx := dialog.Context{User: usr, Phone: in.Phone, Input: in.Text, Data: sess.Data}

	res, intercepted, err := e.Interceptor.Intercept(ctx, sess.State, dctx)
	if err != nil {
		return e.fail(ctx, in.Phone, err)
	}
	if !intercepted {
		res, err = e.Dialog.Handle(ctx, sess.State, dctx)
		if err != nil {
			return e.fail(ctx, in.Phone, err)
		}
	}

	sess.State = res.NextState
	if res.Data != nil {
		sess.Data = *res.Data
	}
	if err := e.Sessions.Put(ctx, in.Phone, sess); err != nil {
		return e.fail(ctx, in.Phone, err)
	}

	if res.Reply != "" {
		if err := e.Sender.Send(ctx, transport.Reply{To: in.Phone, Body: res.Reply, Template: res.Template}); err != nil {
			metrics.SendFailures.Inc()
			e.Logger.Error("reply delivery failed", "phone", in.Phone, "error", err)
		}
	}

	metrics.MessagesHandled.WithLabelValues("ok").Inc()
	return nil
}

// fail answers with the generic apology and surfaces the error.
func (e *Engine) fail(ctx context.Context, phone string, err error) error {
	metrics.MessagesHandled.WithLabelValues("error").Inc()
	e.Logger.Error("message processing failed", "phone", phone, "error", err)
	if serr := e.Sender.Send(ctx, transport.Reply{To: phone, Body: genericErrorReply}); serr != nil {
		metrics.SendFailures.Inc()
		e.Logger.Error("apology delivery failed", "phone", phone, "error", serr)
	}
	return err
}
