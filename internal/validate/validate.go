// Package validate holds the per-step input validators for the dialog state
// machine. Validators are pure: they normalize raw input, run their checks in
// a fixed order, and return either the normalized value or an error whose
// message is shown to the user verbatim.
package validate

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	ifscPattern    = regexp.MustCompile(`^[A-Z]{4}0[A-Z0-9]{6}$`)
	digitsPattern  = regexp.MustCompile(`^\d+$`)
	emailPattern   = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	dobShape       = regexp.MustCompile(`^\d{2}/\d{2}/\d{4}$`)
	amountStripper = strings.NewReplacer("$", "", ",", "")
)

// Name accepts 1-100 characters.
func Name(raw string) (string, error) {
	name := strings.TrimSpace(raw)
	if len(name) < 1 {
		return "", errors.New("Please enter your name.")
	}
	if len(name) > 100 {
		return "", errors.New("Name must be under 100 characters.")
	}
	return name, nil
}

// Email accepts a standard address shape and lower-cases it.
func Email(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	if !emailPattern.MatchString(email) {
		return "", errors.New("Please enter a valid email address.")
	}
	return email, nil
}

// DateOfBirth accepts DD/MM/YYYY, calendar-valid, age between 18 and 120.
// It returns the normalized input string; Parse guarantees it round-trips.
func DateOfBirth(raw string) (string, error) {
	dob := strings.TrimSpace(raw)
	if !dobShape.MatchString(dob) {
		return "", errors.New("Please use DD/MM/YYYY format. Example: 15/08/1990")
	}

	parsed, err := time.Parse("02/01/2006", dob)
	if err != nil {
		return "", errors.New("Invalid date. Please check day and month.")
	}

	age := ageAt(parsed, time.Now())
	if age < 18 {
		return "", errors.New("You must be at least 18 years old.")
	}
	if age > 120 {
		return "", errors.New("Please enter a valid date of birth.")
	}
	return dob, nil
}

func ageAt(birth, now time.Time) int {
	age := now.Year() - birth.Year()
	if now.Month() < birth.Month() ||
		(now.Month() == birth.Month() && now.Day() < birth.Day()) {
		age--
	}
	return age
}

// Address accepts at least 5 characters.
func Address(raw string) (string, error) {
	address := strings.TrimSpace(raw)
	if len(address) < 5 {
		return "", errors.New("Please enter address with city, state, and country.")
	}
	return address, nil
}

// Amount strips currency punctuation and accepts 10-10000 USD with at most
// two decimal places.
func Amount(raw string) (float64, error) {
	cleaned := strings.TrimSpace(amountStripper.Replace(raw))
	amount, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, errors.New("Please enter a valid number.")
	}
	if amount <= 0 {
		return 0, errors.New("Amount must be positive.")
	}
	if amount < 10 {
		return 0, errors.New("Minimum amount is $10.")
	}
	if amount > 10000 {
		return 0, errors.New("Maximum amount is $10,000.")
	}
	if frac := strings.SplitN(cleaned, ".", 2); len(frac) == 2 && len(frac[1]) > 2 {
		return 0, errors.New("Maximum 2 decimal places allowed.")
	}
	return amount, nil
}

// UPIID accepts identifiers of at least 5 characters containing '@',
// lower-cased.
func UPIID(raw string) (string, error) {
	upi := strings.ToLower(strings.TrimSpace(raw))
	if len(upi) < 5 {
		return "", errors.New("UPI ID is too short.")
	}
	if !strings.Contains(upi, "@") {
		return "", errors.New("UPI ID must contain @. Example: name@paytm")
	}
	return upi, nil
}

// IFSC accepts 4 letters + literal 0 + 6 alphanumerics, upper-cased.
func IFSC(raw string) (string, error) {
	code := strings.ToUpper(strings.TrimSpace(raw))
	if !ifscPattern.MatchString(code) {
		return "", errors.New("Invalid IFSC code. Example: SBIN0001234")
	}
	return code, nil
}

// AccountNumber accepts 9-18 digits, spaces removed.
func AccountNumber(raw string) (string, error) {
	number := strings.ReplaceAll(raw, " ", "")
	if !digitsPattern.MatchString(number) {
		return "", errors.New("Account number must contain only digits.")
	}
	if len(number) < 9 || len(number) > 18 {
		return "", errors.New("Account number must be 9-18 digits.")
	}
	return number, nil
}

// BankName accepts at least 2 characters.
func BankName(raw string) (string, error) {
	name := strings.TrimSpace(raw)
	if len(name) < 2 {
		return "", errors.New("Please enter a valid bank name.")
	}
	return name, nil
}

// Nickname accepts at least 1 character.
func Nickname(raw string) (string, error) {
	nick := strings.TrimSpace(raw)
	if len(nick) < 1 {
		return "", errors.New("Please enter a nickname for this recipient.")
	}
	return nick, nil
}

// YesNo matches the closed YES/NO set, case-insensitively.
func YesNo(raw string) (string, error) {
	return oneOf(raw, "Reply YES or NO.", "YES", "NO")
}

// QuoteAction matches CONFIRM/CANCEL.
func QuoteAction(raw string) (string, error) {
	return oneOf(raw, "Reply CONFIRM or CANCEL.", "CONFIRM", "CANCEL")
}

// PayAction matches PAY/CANCEL.
func PayAction(raw string) (string, error) {
	return oneOf(raw, "Reply PAY or CANCEL.", "PAY", "CANCEL")
}

// PaymentMethod accepts 1/UPI for UPI and 2/BANK/BANK_ACCOUNT (button
// payload) for bank, returning the canonical method name.
func PaymentMethod(raw string) (string, error) {
	choice, err := oneOf(raw, "Reply 1 for UPI or 2 for Bank.", "1", "2", "UPI", "BANK", "BANK_ACCOUNT")
	if err != nil {
		return "", err
	}
	if choice == "1" || choice == "UPI" {
		return "upi", nil
	}
	return "bank", nil
}

// LinkInit accepts the keywords that start the account-linking flow.
func LinkInit(raw string) (string, error) {
	return oneOf(raw, "Please type LINK BANK to connect your bank account.", "LINK BANK", "LINK", "CONNECT", "1")
}

func oneOf(raw, message string, allowed ...string) (string, error) {
	token := strings.ToUpper(strings.TrimSpace(raw))
	for _, a := range allowed {
		if token == a {
			return token, nil
		}
	}
	return "", errors.New(message)
}
