package transport

import "testing"

func TestParseInboundStripsChannelPrefix(t *testing.T) {
	in, ok := ParseInbound(InboundPayload{From: "whatsapp:+14155551234", Body: "Hi"})
	if !ok {
		t.Fatal("expected message accepted")
	}
	if in.Phone != "+14155551234" {
		t.Fatalf("expected bare number, got %q", in.Phone)
	}
	if in.Text != "Hi" {
		t.Fatalf("expected body, got %q", in.Text)
	}
}

func TestParseInboundPrefersButtonPayload(t *testing.T) {
	in, ok := ParseInbound(InboundPayload{
		From:          "whatsapp:+14155551234",
		Body:          "Yes, confirm",
		ButtonText:    "Yes ✅",
		ButtonPayload: "YES",
	})
	if !ok {
		t.Fatal("expected message accepted")
	}
	if in.Text != "YES" {
		t.Fatalf("expected button payload to win, got %q", in.Text)
	}

	in, _ = ParseInbound(InboundPayload{From: "whatsapp:+1", ButtonText: "Yes ✅"})
	if in.Text != "Yes ✅" {
		t.Fatalf("expected button text over empty body, got %q", in.Text)
	}
}

func TestParseInboundIgnoresReceiptsAndEmpties(t *testing.T) {
	if _, ok := ParseInbound(InboundPayload{From: "whatsapp:+1", MessageStatus: "delivered"}); ok {
		t.Fatal("expected delivery receipt ignored")
	}
	if _, ok := ParseInbound(InboundPayload{From: "whatsapp:+1", Body: "   "}); ok {
		t.Fatal("expected blank message ignored")
	}
	if _, ok := ParseInbound(InboundPayload{Body: "Hi"}); ok {
		t.Fatal("expected missing sender ignored")
	}
}
