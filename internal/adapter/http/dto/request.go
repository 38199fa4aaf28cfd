package dto

import (
	"encoding/json"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/dandoingdev/ledger/internal/domain"
)

// AccountRefDTO identifies an accountable entity in requests and responses.
type AccountRefDTO struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

// ToDomain converts to a domain ref.
func (r AccountRefDTO) ToDomain() domain.AccountRef {
	return domain.AccountRef{Type: r.Type, ID: r.ID}
}

// RegisterAccountRequest represents a request to register an account.
type RegisterAccountRequest struct {
	Type     string `json:"type"`
	ID       string `json:"id"`
	Name     string `json:"name"`
	Currency string `json:"currency"`
}

// CreditRequest represents a request to credit an account.
type CreditRequest struct {
	From     string          `json:"from"`
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
	Reason   string          `json:"reason"`
}

// DebitRequest represents a request to debit an account.
type DebitRequest struct {
	To       string          `json:"to"`
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
	Reason   string          `json:"reason"`
}

// TopUpRequest represents a request to top up an account.
type TopUpRequest struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
	Reason   string          `json:"reason"`
}

// RecipientList accepts either a single recipient object or an array of
// recipients, mirroring the transfer contract.
type RecipientList struct {
	Refs   []AccountRefDTO
	Single bool
}

// UnmarshalJSON implements json.Unmarshaler.
func (l *RecipientList) UnmarshalJSON(data []byte) error {
	var many []AccountRefDTO
	if err := json.Unmarshal(data, &many); err == nil {
		l.Refs = many
		l.Single = false
		return nil
	}

	var one AccountRefDTO
	if err := json.Unmarshal(data, &one); err != nil {
		return errors.New("to must be a recipient or an array of recipients")
	}

	l.Refs = []AccountRefDTO{one}
	l.Single = true

	return nil
}

// ToDomain converts the recipients to domain accountables.
func (l *RecipientList) ToDomain() []domain.Accountable {
	refs := make([]domain.Accountable, len(l.Refs))
	for i, r := range l.Refs {
		refs[i] = r.ToDomain()
	}
	return refs
}

// TransferRequest represents a request to transfer funds to one or more
// recipients. The sender comes from the URL.
type TransferRequest struct {
	To       RecipientList   `json:"to"`
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
	Reason   string          `json:"reason"`
}
