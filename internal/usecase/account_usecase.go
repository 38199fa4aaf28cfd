package usecase

import (
	"context"

	"github.com/dandoingdev/ledger/internal/domain"
)

// AccountUseCase handles directory plumbing: registering accountable entities
// and reading them back. The ledger core only ever reads these records.
type AccountUseCase struct {
	directory AccountDirectory
	clock     Clock
}

// NewAccountUseCase creates a new AccountUseCase.
func NewAccountUseCase(directory AccountDirectory, clock Clock) *AccountUseCase {
	return &AccountUseCase{
		directory: directory,
		clock:     clock,
	}
}

// RegisterAccountInput represents input for registering an account.
type RegisterAccountInput struct {
	Type     string
	ID       string
	Name     string
	Currency string
}

// RegisterAccount records an accountable entity in the directory.
func (uc *AccountUseCase) RegisterAccount(ctx context.Context, input RegisterAccountInput) (*domain.Account, error) {
	ref := domain.AccountRef{Type: input.Type, ID: input.ID}
	if err := ref.Validate(); err != nil {
		return nil, err
	}

	if err := domain.ValidateCurrency(input.Currency); err != nil {
		return nil, err
	}

	account := &domain.Account{
		AccountRef: ref,
		Name:       input.Name,
		Currency:   input.Currency,
		CreatedAt:  uc.clock.Now(),
	}

	if err := uc.directory.Register(ctx, account); err != nil {
		return nil, err
	}

	return account, nil
}

// GetAccount retrieves a directory record by ref.
func (uc *AccountUseCase) GetAccount(ctx context.Context, ref domain.AccountRef) (*domain.Account, error) {
	if err := ref.Validate(); err != nil {
		return nil, err
	}

	return uc.directory.Get(ctx, ref)
}

// ListAccountsInput represents input for listing accounts.
type ListAccountsInput struct {
	Limit  int
	Offset int
}

// ListAccounts lists directory records with pagination.
func (uc *AccountUseCase) ListAccounts(ctx context.Context, input ListAccountsInput) ([]*domain.Account, error) {
	limit, offset := domain.ValidatePagination(input.Limit, input.Offset)

	return uc.directory.List(ctx, limit, offset)
}
