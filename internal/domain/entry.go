package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Direction marks an entry as increasing (credit) or decreasing (debit) the
// owner's balance.
type Direction string

const (
	DirectionCredit Direction = "credit"
	DirectionDebit  Direction = "debit"
)

// ParseDirection parses a direction string, case-insensitively.
func ParseDirection(s string) (Direction, bool) {
	switch s {
	case "credit", "CREDIT", "Credit":
		return DirectionCredit, true
	case "debit", "DEBIT", "Debit":
		return DirectionDebit, true
	}
	return "", false
}

// Entry is the atomic, immutable unit of record. Entries are append-only;
// corrections are made by appending compensating entries, never by editing
// history.
type Entry struct {
	ID               string
	Owner            AccountRef
	Direction        Direction
	Amount           decimal.Decimal
	Currency         string
	CounterpartyTo   string
	CounterpartyFrom string
	Reason           string
	ResultingBalance decimal.Decimal
	BalanceCurrency  string
	CreatedAt        time.Time
}

// Signed returns the amount with the sign implied by the direction.
func (e *Entry) Signed() decimal.Decimal {
	if e.Direction == DirectionDebit {
		return e.Amount.Neg()
	}
	return e.Amount
}

// Validate checks the invariants every entry must satisfy before it is
// persisted.
func (e *Entry) Validate() error {
	if err := e.Owner.Validate(); err != nil {
		return err
	}

	if e.Amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}

	if e.Direction != DirectionCredit && e.Direction != DirectionDebit {
		return ErrInvalidDirection
	}

	return nil
}
