package dialog

import (
	"context"
	"fmt"

	"github.com/surgepay/surgepay/internal/session"
	"github.com/surgepay/surgepay/internal/transport"
	"github.com/surgepay/surgepay/internal/validate"
)

// handleInitial greets a first message. Known senders go straight to
// the menu; new senders start onboarding.
func (h *Handlers) handleInitial(_ context.Context, in Context) (Result, error) {
	if in.User != nil {
		return Result{
			NextState: session.StateIdle,
			Reply:     fmt.Sprintf("Welcome back, %s! 👋\n\n%s", firstName(in.User.FullName), IdleMenu()),
			Template:  transport.TemplateIdleMenu,
		}, nil
	}
	return Result{
		NextState: session.StateAskingName,
		Reply: "👋 Welcome to SurgePay!\n\n" +
			"Send money from the US to India, right here in WhatsApp.\n\n" +
			"Let's set up your account. What's your full name?",
	}, nil
}

// handleIdle treats unmatched input as a possible recipient nickname;
// anything else gets the menu. Command keywords never reach here.
func (h *Handlers) handleIdle(ctx context.Context, in Context) (Result, error) {
	if in.User == nil {
		return h.handleInitial(ctx, in)
	}

	// Anything other than CONFIRM REMOVE keeps a staged bank account.
	if in.Data.AwaitingRemoveConfirm {
		data := in.Data
		data.AwaitingRemoveConfirm = false
		data.AccountToRemove = ""
		return Result{
			NextState: session.StateIdle,
			Reply:     "Okay, keeping that account. " + IdleMenu(),
			Template:  transport.TemplateIdleMenu,
			Data:      &data,
		}, nil
	}

	rec, err := h.Recipients.FindByNickname(ctx, in.User.ID, in.Input)
	if err == nil {
		data := in.Data
		data.SelectedRecipientID = rec.ID
		return Result{
			NextState: session.StateAskingAmount,
			Reply:     fmt.Sprintf("Sending to %s (%s).\n\nHow much would you like to send? (e.g. $100)", rec.Nickname, rec.PaymentInfo()),
			Data:      &data,
		}, nil
	}

	return Result{
		NextState: session.StateIdle,
		Reply:     "I didn't recognize that. " + IdleMenu(),
		Template:  transport.TemplateIdleMenu,
	}, nil
}

func (h *Handlers) handleAskingName(_ context.Context, in Context) (Result, error) {
	name, err := validate.Name(in.Input)
	if err != nil {
		return stay(session.StateAskingName, err.Error()), nil
	}
	data := in.Data
	data.Name = name
	return Result{
		NextState: session.StateAskingEmail,
		Reply:     fmt.Sprintf("Nice to meet you, %s! 😊\n\nWhat's your email address?", firstName(name)),
		Data:      &data,
	}, nil
}

func (h *Handlers) handleAskingEmail(_ context.Context, in Context) (Result, error) {
	email, err := validate.Email(in.Input)
	if err != nil {
		return stay(session.StateAskingEmail, err.Error()), nil
	}
	data := in.Data
	data.Email = email
	return Result{
		NextState: session.StateAskingDOB,
		Reply:     "Got it. What's your date of birth? (DD/MM/YYYY)",
		Data:      &data,
	}, nil
}

func (h *Handlers) handleAskingDOB(_ context.Context, in Context) (Result, error) {
	dob, err := validate.DateOfBirth(in.Input)
	if err != nil {
		return stay(session.StateAskingDOB, err.Error()), nil
	}
	data := in.Data
	data.DOB = dob
	return Result{
		NextState: session.StateAskingAddress,
		Reply:     "And your home address? (street, city, state)",
		Data:      &data,
	}, nil
}

func (h *Handlers) handleAskingAddress(_ context.Context, in Context) (Result, error) {
	address, err := validate.Address(in.Input)
	if err != nil {
		return stay(session.StateAskingAddress, err.Error()), nil
	}
	data := in.Data
	data.Address = address
	return Result{
		NextState: session.StateInitiatingLink,
		Reply: fmt.Sprintf("Here's what I have:\n\n"+
			"👤 %s\n📧 %s\n🎂 %s\n🏠 %s\n\n"+
			"Last step: connect the US bank account you'll send money from.\n\n"+
			"Type LINK BANK to continue.", data.Name, data.Email, data.DOB, data.Address),
		Template: transport.TemplateLinkBank,
		Data:     &data,
	}, nil
}

func firstName(full string) string {
	for i, r := range full {
		if r == ' ' {
			return full[:i]
		}
	}
	return full
}
