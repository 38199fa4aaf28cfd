package domain_test

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/dandoingdev/ledger/internal/domain"
)

func TestValidateAmount(t *testing.T) {
	tests := []struct {
		name    string
		amount  decimal.Decimal
		wantErr error
	}{
		{name: "positive integer", amount: decimal.NewFromInt(100)},
		{name: "fractional", amount: decimal.NewFromFloat(0.01)},
		{name: "at the ceiling", amount: decimal.RequireFromString(domain.MaxEntryAmount)},
		{name: "zero", amount: decimal.Zero, wantErr: domain.ErrInvalidAmount},
		{name: "negative", amount: decimal.NewFromInt(-1), wantErr: domain.ErrInvalidAmount},
		{
			name:    "above the ceiling",
			amount:  decimal.RequireFromString(domain.MaxEntryAmount).Add(decimal.NewFromInt(1)),
			wantErr: domain.ErrAmountTooLarge,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := domain.ValidateAmount(tt.amount)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestValidateCurrency(t *testing.T) {
	tests := []struct {
		name     string
		currency string
		wantErr  bool
	}{
		{name: "empty is allowed", currency: ""},
		{name: "usd", currency: "USD"},
		{name: "lowercase", currency: "eur"},
		{name: "padded", currency: " GBP "},
		{name: "unknown code", currency: "XYZ", wantErr: true},
		{name: "not a code", currency: "dollars", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := domain.ValidateCurrency(tt.currency)
			if tt.wantErr {
				if !errors.Is(err, domain.ErrInvalidCurrency) {
					t.Errorf("expected ErrInvalidCurrency, got %v", err)
				}
				return
			}
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestValidateReason(t *testing.T) {
	if err := domain.ValidateReason(""); err != nil {
		t.Errorf("empty reason should be valid: %v", err)
	}

	long := make([]byte, domain.MaxReasonLength+1)
	for i := range long {
		long[i] = 'a'
	}

	if err := domain.ValidateReason(string(long)); !errors.Is(err, domain.ErrReasonTooLong) {
		t.Errorf("expected ErrReasonTooLong, got %v", err)
	}

	if err := domain.ValidateReason(string(long[:domain.MaxReasonLength])); err != nil {
		t.Errorf("reason at the limit should be valid: %v", err)
	}
}

func TestValidatePagination(t *testing.T) {
	tests := []struct {
		name               string
		limit, offset      int
		wantLimit, wantOff int
	}{
		{name: "defaults", limit: 0, offset: 0, wantLimit: 10, wantOff: 0},
		{name: "negative limit", limit: -5, offset: 0, wantLimit: 10, wantOff: 0},
		{name: "explicit", limit: 25, offset: 50, wantLimit: 25, wantOff: 50},
		{name: "capped", limit: 5000, offset: 0, wantLimit: 1000, wantOff: 0},
		{name: "negative offset", limit: 10, offset: -1, wantLimit: 10, wantOff: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			limit, offset := domain.ValidatePagination(tt.limit, tt.offset)
			if limit != tt.wantLimit || offset != tt.wantOff {
				t.Errorf("ValidatePagination(%d, %d) = (%d, %d), want (%d, %d)",
					tt.limit, tt.offset, limit, offset, tt.wantLimit, tt.wantOff)
			}
		})
	}
}
