package domain

import "errors"

var (
	// Ledger errors
	ErrInvalidAmount       = errors.New("amount must be positive")
	ErrInvalidDirection    = errors.New("entry direction must be credit or debit")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrInvalidRecipient    = errors.New("source and recipient cannot be the same entity")
	ErrNoRecipients        = errors.New("transfer requires at least one recipient")

	// Lookup errors
	ErrAccountNotFound   = errors.New("account not found")
	ErrEntryNotFound     = errors.New("entry not found")
	ErrInvalidAccountRef = errors.New("invalid account reference")
	ErrAccountExists     = errors.New("account already registered")

	// Storage errors
	ErrStorageConflict = errors.New("storage conflict: concurrent write invalidated the operation")

	// Auth errors
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
)
