package validate

import (
	"fmt"
	"strings"
	"testing"
	"time"
)

func TestNameBounds(t *testing.T) {
	if _, err := Name("  "); err == nil {
		t.Fatal("expected empty name to fail")
	}
	if _, err := Name(strings.Repeat("a", 101)); err == nil {
		t.Fatal("expected 101-char name to fail")
	}
	got, err := Name("  Asha Patel  ")
	if err != nil {
		t.Fatalf("valid name rejected: %v", err)
	}
	if got != "Asha Patel" {
		t.Fatalf("expected trimmed name, got %q", got)
	}
}

func TestEmailNormalization(t *testing.T) {
	got, err := Email(" Asha@Example.COM ")
	if err != nil {
		t.Fatalf("valid email rejected: %v", err)
	}
	if got != "asha@example.com" {
		t.Fatalf("expected lower-cased email, got %q", got)
	}
	for _, bad := range []string{"nope", "a@b", "a b@c.com", "@x.com"} {
		if _, err := Email(bad); err == nil {
			t.Fatalf("expected %q to fail", bad)
		}
	}
}

func TestDateOfBirth(t *testing.T) {
	if _, err := DateOfBirth("15/08/1990"); err != nil {
		t.Fatalf("valid dob rejected: %v", err)
	}
	if _, err := DateOfBirth("31/02/2000"); err == nil {
		t.Fatal("expected calendar-invalid date to fail")
	}
	if _, err := DateOfBirth("1990-08-15"); err == nil {
		t.Fatal("expected wrong format to fail")
	}

	minor := time.Now().AddDate(-17, 0, 0).Format("02/01/2006")
	if _, err := DateOfBirth(minor); err == nil {
		t.Fatal("expected under-18 dob to fail")
	}
	ancient := time.Now().AddDate(-121, 0, 0).Format("02/01/2006")
	if _, err := DateOfBirth(ancient); err == nil {
		t.Fatal("expected over-120 dob to fail")
	}
}

func TestAmountNormalization(t *testing.T) {
	cases := []struct {
		in      string
		want    float64
		wantErr bool
	}{
		{"$1,000.50", 1000.50, false},
		{"100", 100, false},
		{"10", 10, false},
		{"10000", 10000, false},
		{"9.99", 0, true},
		{"10000.01", 0, true},
		{"12.345", 0, true},
		{"-50", 0, true},
		{"abc", 0, true},
	}
	for _, c := range cases {
		got, err := Amount(c.in)
		if c.wantErr {
			if err == nil {
				t.Fatalf("expected %q to fail", c.in)
			}
			continue
		}
		if err != nil {
			t.Fatalf("amount %q rejected: %v", c.in, err)
		}
		if got != c.want {
			t.Fatalf("amount %q: expected %v got %v", c.in, c.want, got)
		}
	}
}

func TestIFSCRoundTrip(t *testing.T) {
	got, err := IFSC("hdfc0001234")
	if err != nil {
		t.Fatalf("valid ifsc rejected: %v", err)
	}
	if got != "HDFC0001234" {
		t.Fatalf("expected upper-cased ifsc, got %q", got)
	}

	// Idempotent normalization: the accepted output must be accepted
	// unchanged when fed back in.
	again, err := IFSC(got)
	if err != nil {
		t.Fatalf("normalized ifsc rejected: %v", err)
	}
	if again != got {
		t.Fatalf("normalization not idempotent: %q vs %q", again, got)
	}

	for _, bad := range []string{"HDFC1001234", "HDF00012345", "HDFC000123"} {
		if _, err := IFSC(bad); err == nil {
			t.Fatalf("expected %q to fail", bad)
		}
	}
}

func TestAccountNumber(t *testing.T) {
	got, err := AccountNumber("1234 5678 9012")
	if err != nil {
		t.Fatalf("valid account rejected: %v", err)
	}
	if got != "123456789012" {
		t.Fatalf("expected spaces stripped, got %q", got)
	}
	if _, err := AccountNumber("12345678"); err == nil {
		t.Fatal("expected 8 digits to fail")
	}
	if _, err := AccountNumber(strings.Repeat("1", 19)); err == nil {
		t.Fatal("expected 19 digits to fail")
	}
	if _, err := AccountNumber("12345abc9"); err == nil {
		t.Fatal("expected non-digits to fail")
	}
}

func TestUPIID(t *testing.T) {
	got, err := UPIID(" Raj@Paytm ")
	if err != nil {
		t.Fatalf("valid upi rejected: %v", err)
	}
	if got != "raj@paytm" {
		t.Fatalf("expected lower-cased upi, got %q", got)
	}
	if _, err := UPIID("a@b"); err == nil {
		t.Fatal("expected short upi to fail")
	}
	if _, err := UPIID("rajpaytm"); err == nil {
		t.Fatal("expected upi without @ to fail")
	}
}

func TestTokenSets(t *testing.T) {
	if got, _ := YesNo(" yes "); got != "YES" {
		t.Fatalf("expected YES, got %q", got)
	}
	if _, err := YesNo("maybe"); err == nil {
		t.Fatal("expected non-member token to fail")
	}
	if got, _ := QuoteAction("confirm"); got != "CONFIRM" {
		t.Fatalf("expected CONFIRM, got %q", got)
	}
	if got, _ := PayAction("PAY"); got != "PAY" {
		t.Fatalf("expected PAY, got %q", got)
	}

	for in, want := range map[string]string{"1": "upi", "UPI": "upi", "2": "bank", "bank": "bank", "BANK_ACCOUNT": "bank"} {
		got, err := PaymentMethod(in)
		if err != nil {
			t.Fatalf("payment method %q rejected: %v", in, err)
		}
		if got != want {
			t.Fatalf("payment method %q: expected %q got %q", in, want, got)
		}
	}
}

func TestNormalizationIdempotence(t *testing.T) {
	// Every validator's accepted output must be accepted unchanged.
	checks := []struct {
		name string
		fn   func(string) (string, error)
		in   string
	}{
		{"name", Name, " Asha "},
		{"email", Email, "ASHA@Example.com"},
		{"upi", UPIID, "Raj@Paytm"},
		{"ifsc", IFSC, "sbin0001234"},
		{"account", AccountNumber, "1234 567 890"},
		{"dob", DateOfBirth, "15/08/1990"},
	}
	for _, c := range checks {
		first, err := c.fn(c.in)
		if err != nil {
			t.Fatalf("%s: %v", c.name, err)
		}
		second, err := c.fn(first)
		if err != nil {
			t.Fatalf("%s re-validation: %v", c.name, err)
		}
		if fmt.Sprint(first) != fmt.Sprint(second) {
			t.Fatalf("%s not idempotent: %q vs %q", c.name, first, second)
		}
	}
}
