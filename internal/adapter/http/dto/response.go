package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/dandoingdev/ledger/internal/domain"
	"github.com/dandoingdev/ledger/internal/usecase"
)

// AccountResponse represents an account in API responses.
type AccountResponse struct {
	Type      string          `json:"type"`
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Currency  string          `json:"currency,omitempty"`
	Balance   decimal.Decimal `json:"balance"`
	CreatedAt time.Time       `json:"created_at"`
}

// AccountFromDomain converts a domain account to a response.
func AccountFromDomain(a *domain.Account, balance decimal.Decimal) *AccountResponse {
	return &AccountResponse{
		Type:      a.Type,
		ID:        a.ID,
		Name:      a.Name,
		Currency:  a.Currency,
		Balance:   balance,
		CreatedAt: a.CreatedAt,
	}
}

// EntryResponse represents an entry in API responses.
type EntryResponse struct {
	ID               string          `json:"id"`
	Owner            AccountRefDTO   `json:"owner"`
	OwnerName        string          `json:"owner_name,omitempty"`
	Direction        string          `json:"direction"`
	Amount           decimal.Decimal `json:"amount"`
	Currency         string          `json:"currency,omitempty"`
	CounterpartyTo   string          `json:"counterparty_to,omitempty"`
	CounterpartyFrom string          `json:"counterparty_from,omitempty"`
	Reason           string          `json:"reason,omitempty"`
	ResultingBalance decimal.Decimal `json:"resulting_balance"`
	BalanceCurrency  string          `json:"balance_currency,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
}

// EntryFromDomain converts a domain entry to a response.
func EntryFromDomain(e *domain.Entry) *EntryResponse {
	return &EntryResponse{
		ID:               e.ID,
		Owner:            AccountRefDTO{Type: e.Owner.Type, ID: e.Owner.ID},
		Direction:        string(e.Direction),
		Amount:           e.Amount,
		Currency:         e.Currency,
		CounterpartyTo:   e.CounterpartyTo,
		CounterpartyFrom: e.CounterpartyFrom,
		Reason:           e.Reason,
		ResultingBalance: e.ResultingBalance,
		BalanceCurrency:  e.BalanceCurrency,
		CreatedAt:        e.CreatedAt,
	}
}

// EntriesFromDomain converts domain entries to responses.
func EntriesFromDomain(entries []*domain.Entry) []*EntryResponse {
	result := make([]*EntryResponse, len(entries))
	for i, e := range entries {
		result[i] = EntryFromDomain(e)
	}
	return result
}

// EntryFromView converts an enriched entry view to a response.
func EntryFromView(v *usecase.EntryView) *EntryResponse {
	resp := EntryFromDomain(&v.Entry)
	resp.OwnerName = v.OwnerName
	return resp
}

// EntriesFromViews converts enriched entry views to responses.
func EntriesFromViews(views []*usecase.EntryView) []*EntryResponse {
	result := make([]*EntryResponse, len(views))
	for i, v := range views {
		result[i] = EntryFromView(v)
	}
	return result
}

// BalanceResponse represents a derived balance.
type BalanceResponse struct {
	Owner   AccountRefDTO   `json:"owner"`
	Balance decimal.Decimal `json:"balance"`
}

// AuditResponse represents an audit check result.
type AuditResponse struct {
	Owner           AccountRefDTO   `json:"owner"`
	Consistent      bool            `json:"consistent"`
	DerivedBalance  decimal.Decimal `json:"derived_balance"`
	SnapshotBalance decimal.Decimal `json:"snapshot_balance"`
	LastEntryID     string          `json:"last_entry_id,omitempty"`
	CheckedAt       time.Time       `json:"checked_at"`
}

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
