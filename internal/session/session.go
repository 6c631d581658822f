package session

import "time"

// State identifies the dialog state a conversation is parked in. States are
// persisted as strings so sessions survive process restarts and schema-free
// cache storage.
type State string

const (
	StateInitial State = "initial"
	StateIdle    State = "idle"

	// Onboarding.
	StateAskingName    State = "asking_name"
	StateAskingEmail   State = "asking_email"
	StateAskingDOB     State = "asking_dob"
	StateAskingAddress State = "asking_address"

	// Funding account linking.
	StateInitiatingLink       State = "initiating_link"
	StateSelectingInstitution State = "selecting_institution"
	StateConfirmingLink       State = "confirming_link"

	// Recipient setup.
	StateAskingRecipientName State = "asking_recipient_name"
	StateAskingPaymentMethod State = "asking_payment_method"
	StateAskingUPIID         State = "asking_upi_id"
	StateAskingAccountNumber State = "asking_account_number"
	StateAskingIFSC          State = "asking_ifsc"
	StateAskingBankName      State = "asking_bank_name"
	StateConfirmingRecipient State = "confirming_recipient"

	// Transfer.
	StateAskingAmount       State = "asking_amount"
	StateShowingQuote       State = "showing_quote"
	StateSelectingAccount   State = "selecting_account"
	StateConfirmingTransfer State = "confirming_transfer"
)

// LinkedAccount carries funding-account metadata returned by the linking
// aggregator while the user confirms it.
type LinkedAccount struct {
	AccessToken   string `json:"access_token"`
	AccountID     string `json:"account_id"`
	AccountNumber string `json:"account_number"`
	RoutingNumber string `json:"routing_number"`
	BankName      string `json:"bank_name"`
	AccountType   string `json:"account_type"`
	HolderName    string `json:"holder_name"`
}

// RecipientDraft accumulates recipient fields across the setup states.
type RecipientDraft struct {
	Nickname         string `json:"nickname,omitempty"`
	PaymentMethod    string `json:"payment_method,omitempty"`
	UPIID            string `json:"upi_id,omitempty"`
	AccountNumber    string `json:"account_number,omitempty"`
	IFSCCode         string `json:"ifsc_code,omitempty"`
	BankName         string `json:"bank_name,omitempty"`
	VerificationName string `json:"verification_name,omitempty"`
}

// Data is the open bag of optional fields a conversation accumulates. Fields
// are grouped by the flow that owns them; ClearTransaction is the single
// place that enumerates which of them are transaction-scoped.
type Data struct {
	// Onboarding profile in progress.
	Name    string `json:"name,omitempty"`
	Email   string `json:"email,omitempty"`
	DOB     string `json:"dob,omitempty"`
	Address string `json:"address,omitempty"`

	// Funding account linking.
	InstitutionKey string         `json:"institution_key,omitempty"`
	LinkedAccount  *LinkedAccount `json:"linked_account,omitempty"`
	AddingAccount  bool           `json:"adding_account,omitempty"`

	// Recipient setup.
	RecipientDraft      *RecipientDraft `json:"recipient_draft,omitempty"`
	SelectedRecipientID string          `json:"selected_recipient_id,omitempty"`

	// Transfer in progress.
	TransferID        string `json:"transfer_id,omitempty"`
	SelectedAccountID string `json:"selected_account_id,omitempty"`
	RateJobID         string `json:"rate_job_id,omitempty"`
	QuoteStartedAt    string `json:"quote_started_at,omitempty"`

	// Account removal two-step confirmation.
	AwaitingRemoveConfirm bool   `json:"awaiting_remove_confirm,omitempty"`
	AccountToRemove       string `json:"account_to_remove,omitempty"`

	// Settlement lock. While set, the command interceptor rejects every
	// inbound message for this user.
	TransferProcessing bool   `json:"transfer_processing,omitempty"`
	ActiveTransferID   string `json:"active_transfer_id,omitempty"`
}

// ClearTransaction zeroes every transaction-scoped field. Every cancel path
// goes through here so no path can forget a field.
func (d *Data) ClearTransaction() {
	d.InstitutionKey = ""
	d.LinkedAccount = nil
	d.AddingAccount = false
	d.RecipientDraft = nil
	d.SelectedRecipientID = ""
	d.TransferID = ""
	d.SelectedAccountID = ""
	d.RateJobID = ""
	d.QuoteStartedAt = ""
	d.AwaitingRemoveConfirm = false
	d.AccountToRemove = ""
}

// Session is one user's conversation state.
type Session struct {
	State     State     `json:"state"`
	Data      Data      `json:"data"`
	CreatedAt time.Time `json:"created_at"`
}

// New returns a fresh session parked at the initial state.
func New() Session {
	return Session{State: StateInitial, CreatedAt: time.Now().UTC()}
}
