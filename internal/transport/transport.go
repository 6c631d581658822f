// Package transport moves WhatsApp messages in and out of the bot.
package transport

import (
	"context"
	"strings"
)

// Template hints which interactive reply buttons accompany a message.
// The channel may render them as buttons or fall back to plain text.
type Template string

const (
	TemplateNone          Template = ""
	TemplateIdleMenu      Template = "idle_menu"
	TemplateYesNo         Template = "yes_no"
	TemplateConfirmCancel Template = "confirm_cancel"
	TemplatePayCancel     Template = "pay_cancel"
	TemplateLinkBank      Template = "link_bank"
	TemplateBankSelection Template = "bank_selection"
	TemplatePaymentMethod Template = "payment_method"
	TemplateAddRecipient  Template = "add_recipient"
)

// Reply is one outbound message.
type Reply struct {
	To       string
	Body     string
	Template Template
}

// Sender delivers replies to the messaging channel.
type Sender interface {
	Send(ctx context.Context, reply Reply) error
}

// Inbound is a parsed incoming webhook message. Phone is the bare
// number with the channel prefix stripped.
type Inbound struct {
	Phone string
	Text  string
}

// InboundPayload is the form body Twilio posts for incoming WhatsApp
// traffic. Button taps arrive with a payload alongside the text.
type InboundPayload struct {
	From          string
	Body          string
	ButtonText    string
	ButtonPayload string
	MessageStatus string
}

// ParseInbound extracts the message from a webhook payload. It returns
// false for delivery receipts and empty messages, which the bot
// ignores. Button payloads win over displayed button text and body.
func ParseInbound(p InboundPayload) (Inbound, bool) {
	if p.MessageStatus != "" {
		return Inbound{}, false
	}
	text := p.ButtonPayload
	if text == "" {
		text = p.ButtonText
	}
	if text == "" {
		text = p.Body
	}
	text = strings.TrimSpace(text)
	phone := strings.TrimPrefix(strings.TrimSpace(p.From), "whatsapp:")
	if phone == "" || text == "" {
		return Inbound{}, false
	}
	return Inbound{Phone: phone, Text: text}, true
}
