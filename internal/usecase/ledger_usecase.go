package usecase

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dandoingdev/ledger/internal/domain"
)

// LedgerUseCase executes credit, debit, top-up and transfer operations. Every
// write is a read-validate-write sequence performed inside one storage
// transaction holding row locks on all touched accounts, so concurrent
// operations on the same account serialize and the no-negative-balance
// invariant holds.
type LedgerUseCase struct {
	txManager TransactionManager
	entryRepo EntryRepository
	directory AccountDirectory
	idGen     IDGenerator
	clock     Clock
	retrier   Retrier
}

// NewLedgerUseCase creates a new LedgerUseCase. retrier may be nil, in which
// case transient storage conflicts are not retried.
func NewLedgerUseCase(
	txManager TransactionManager,
	entryRepo EntryRepository,
	directory AccountDirectory,
	idGen IDGenerator,
	clock Clock,
	retrier Retrier,
) *LedgerUseCase {
	return &LedgerUseCase{
		txManager: txManager,
		entryRepo: entryRepo,
		directory: directory,
		idGen:     idGen,
		clock:     clock,
		retrier:   retrier,
	}
}

// CreditInput represents input for crediting an account.
type CreditInput struct {
	To        domain.Accountable
	FromLabel string
	Amount    decimal.Decimal
	Currency  string
	Reason    string
}

// Credit increases the balance of an account. Credits have no ceiling; the
// only precondition is a positive amount.
func (uc *LedgerUseCase) Credit(ctx context.Context, input CreditInput) (*domain.Entry, error) {
	if err := validateOperation(input.To, input.Amount, input.Currency, input.Reason); err != nil {
		return nil, err
	}

	var entry *domain.Entry

	err := uc.withRetry(ctx, func() error {
		var err error
		entry, err = uc.appendOne(ctx, input.To.LedgerRef(), func(account *domain.Account, balance decimal.Decimal) (*domain.Entry, error) {
			return &domain.Entry{
				Owner:            account.AccountRef,
				Direction:        domain.DirectionCredit,
				Amount:           input.Amount,
				Currency:         input.Currency,
				CounterpartyFrom: input.FromLabel,
				Reason:           input.Reason,
				ResultingBalance: balance.Add(input.Amount),
				BalanceCurrency:  account.Currency,
			}, nil
		})

		return err
	})
	if err != nil {
		return nil, err
	}

	return entry, nil
}

// DebitInput represents input for debiting an account.
type DebitInput struct {
	From     domain.Accountable
	ToLabel  string
	Amount   decimal.Decimal
	Currency string
	Reason   string
}

// Debit decreases the balance of an account. Fails with
// ErrInsufficientBalance when the balance is zero or less than the amount; no
// entry is written on failure.
func (uc *LedgerUseCase) Debit(ctx context.Context, input DebitInput) (*domain.Entry, error) {
	if err := validateOperation(input.From, input.Amount, input.Currency, input.Reason); err != nil {
		return nil, err
	}

	var entry *domain.Entry

	err := uc.withRetry(ctx, func() error {
		var err error
		entry, err = uc.appendOne(ctx, input.From.LedgerRef(), func(account *domain.Account, balance decimal.Decimal) (*domain.Entry, error) {
			if balance.IsZero() || input.Amount.GreaterThan(balance) {
				return nil, domain.ErrInsufficientBalance
			}

			return &domain.Entry{
				Owner:            account.AccountRef,
				Direction:        domain.DirectionDebit,
				Amount:           input.Amount,
				Currency:         input.Currency,
				CounterpartyTo:   input.ToLabel,
				Reason:           input.Reason,
				ResultingBalance: balance.Sub(input.Amount),
				BalanceCurrency:  account.Currency,
			}, nil
		})

		return err
	})
	if err != nil {
		return nil, err
	}

	return entry, nil
}

// TopUpInput represents input for topping up an account.
type TopUpInput struct {
	To       domain.Accountable
	Amount   decimal.Decimal
	Currency string
	Reason   string
}

// TopUp credits an account with no originating counterparty (a self-funding
// deposit).
func (uc *LedgerUseCase) TopUp(ctx context.Context, input TopUpInput) (*domain.Entry, error) {
	return uc.Credit(ctx, CreditInput{
		To:       input.To,
		Amount:   input.Amount,
		Currency: input.Currency,
		Reason:   input.Reason,
	})
}

// TransferInput represents input for a single-recipient transfer.
type TransferInput struct {
	From     domain.Accountable
	To       domain.Accountable
	Amount   decimal.Decimal
	Currency string
	Reason   string
}

// Transfer moves an amount from one account to another, writing a credit
// entry for the recipient and a debit entry for the sender atomically. The
// debit entry is returned as the canonical receipt.
func (uc *LedgerUseCase) Transfer(ctx context.Context, input TransferInput) (*domain.Entry, error) {
	receipts, err := uc.TransferMany(ctx, MultiTransferInput{
		From:     input.From,
		To:       []domain.Accountable{input.To},
		Amount:   input.Amount,
		Currency: input.Currency,
		Reason:   input.Reason,
	})
	if err != nil {
		return nil, err
	}

	return receipts[0], nil
}

// MultiTransferInput represents input for a multi-recipient transfer. Each
// recipient receives Amount; the sender is debited Amount per recipient.
type MultiTransferInput struct {
	From     domain.Accountable
	To       []domain.Accountable
	Amount   decimal.Decimal
	Currency string
	Reason   string
}

// TransferMany transfers Amount to each recipient in list order, all within
// one storage transaction: either every recipient is funded or none is. The
// sender balance is re-checked before each sub-transfer, so a partially
// exhausted balance rolls the whole batch back. Returns the debit receipts in
// recipient order.
func (uc *LedgerUseCase) TransferMany(ctx context.Context, input MultiTransferInput) ([]*domain.Entry, error) {
	if len(input.To) == 0 {
		return nil, domain.ErrNoRecipients
	}

	if err := validateOperation(input.From, input.Amount, input.Currency, input.Reason); err != nil {
		return nil, err
	}

	fromRef := input.From.LedgerRef()

	toRefs := make([]domain.AccountRef, len(input.To))
	for i, to := range input.To {
		toRefs[i] = to.LedgerRef()

		if err := toRefs[i].Validate(); err != nil {
			return nil, err
		}

		if fromRef.Equal(toRefs[i]) {
			return nil, domain.ErrInvalidRecipient
		}
	}

	reason := input.Reason
	if reason == "" {
		reason = DefaultTransferReason
	}

	var receipts []*domain.Entry

	err := uc.withRetry(ctx, func() error {
		var err error
		receipts, err = uc.transferManyTx(ctx, fromRef, toRefs, input.Amount, input.Currency, reason)

		return err
	})
	if err != nil {
		return nil, err
	}

	return receipts, nil
}

func (uc *LedgerUseCase) transferManyTx(
	ctx context.Context,
	fromRef domain.AccountRef,
	toRefs []domain.AccountRef,
	amount decimal.Decimal,
	currency, reason string,
) ([]*domain.Entry, error) {
	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	// Lock all touched accounts in sorted key order (deadlock prevention).
	accounts, err := uc.lockAccounts(ctx, tx, append([]domain.AccountRef{fromRef}, toRefs...))
	if err != nil {
		return nil, err
	}

	balances := make(map[string]decimal.Decimal, len(accounts))
	for key := range accounts {
		balance, err := uc.balanceTx(ctx, tx, accounts[key].AccountRef)
		if err != nil {
			return nil, err
		}

		balances[key] = balance
	}

	from := accounts[fromRef.Key()]
	total := amount.Mul(decimal.NewFromInt(int64(len(toRefs))))

	if balances[fromRef.Key()].IsZero() || total.GreaterThan(balances[fromRef.Key()]) {
		return nil, domain.ErrInsufficientBalance
	}

	now := uc.clock.Now()
	receipts := make([]*domain.Entry, 0, len(toRefs))

	for _, toRef := range toRefs {
		to := accounts[toRef.Key()]

		// Re-validated per sub-transfer: the batch aborts rather than drive
		// the sender negative.
		if amount.GreaterThan(balances[fromRef.Key()]) {
			return nil, domain.ErrInsufficientBalance
		}

		creditEntry := &domain.Entry{
			ID:               uc.idGen.Generate(),
			Owner:            to.AccountRef,
			Direction:        domain.DirectionCredit,
			Amount:           amount,
			Currency:         currency,
			CounterpartyFrom: from.Name,
			Reason:           reason,
			ResultingBalance: balances[toRef.Key()].Add(amount),
			BalanceCurrency:  to.Currency,
			CreatedAt:        now,
		}

		if err := uc.entryRepo.Insert(ctx, tx, creditEntry); err != nil {
			return nil, err
		}

		balances[toRef.Key()] = creditEntry.ResultingBalance

		debitEntry := &domain.Entry{
			ID:               uc.idGen.Generate(),
			Owner:            from.AccountRef,
			Direction:        domain.DirectionDebit,
			Amount:           amount,
			Currency:         currency,
			CounterpartyTo:   to.Name,
			Reason:           reason,
			ResultingBalance: balances[fromRef.Key()].Sub(amount),
			BalanceCurrency:  from.Currency,
			CreatedAt:        now,
		}

		if err := uc.entryRepo.Insert(ctx, tx, debitEntry); err != nil {
			return nil, err
		}

		balances[fromRef.Key()] = debitEntry.ResultingBalance
		receipts = append(receipts, debitEntry)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return receipts, nil
}

// Balance derives the current balance of an account: the sum of its credit
// entries minus the sum of its debit entries. No side effects, no locks.
func (uc *LedgerUseCase) Balance(ctx context.Context, account domain.Accountable) (decimal.Decimal, error) {
	ref := account.LedgerRef()
	if err := ref.Validate(); err != nil {
		return decimal.Zero, err
	}

	credits, err := uc.entryRepo.SumByDirection(ctx, ref, domain.DirectionCredit)
	if err != nil {
		return decimal.Zero, err
	}

	debits, err := uc.entryRepo.SumByDirection(ctx, ref, domain.DirectionDebit)
	if err != nil {
		return decimal.Zero, err
	}

	return credits.Sub(debits), nil
}

// AuditResult reports whether an account's derived balance matches the
// snapshot stored on its newest entry.
type AuditResult struct {
	Consistent      bool
	DerivedBalance  decimal.Decimal
	SnapshotBalance decimal.Decimal
	LastEntryID     string
	CheckedAt       time.Time
}

// Audit recomputes an account's balance from its entry history and compares
// it with the resulting-balance snapshot on its newest entry. A mismatch
// indicates corruption or out-of-band edits.
func (uc *LedgerUseCase) Audit(ctx context.Context, account domain.Accountable) (*AuditResult, error) {
	ref := account.LedgerRef()
	if err := ref.Validate(); err != nil {
		return nil, err
	}

	derived, err := uc.Balance(ctx, account)
	if err != nil {
		return nil, err
	}

	result := &AuditResult{
		DerivedBalance: derived,
		CheckedAt:      uc.clock.Now(),
	}

	last, err := uc.entryRepo.LastByOwner(ctx, ref)
	if err != nil {
		if errors.Is(err, domain.ErrEntryNotFound) {
			result.Consistent = derived.IsZero()
			return result, nil
		}

		return nil, err
	}

	result.SnapshotBalance = last.ResultingBalance
	result.LastEntryID = last.ID
	result.Consistent = derived.Equal(last.ResultingBalance)

	return result, nil
}

// appendOne runs the read-validate-write sequence for a single account: lock
// its directory row, derive the balance inside the transaction, build the
// entry, append, commit.
func (uc *LedgerUseCase) appendOne(
	ctx context.Context,
	ref domain.AccountRef,
	build func(account *domain.Account, balance decimal.Decimal) (*domain.Entry, error),
) (*domain.Entry, error) {
	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	accounts, err := uc.lockAccounts(ctx, tx, []domain.AccountRef{ref})
	if err != nil {
		return nil, err
	}

	account := accounts[ref.Key()]

	balance, err := uc.balanceTx(ctx, tx, ref)
	if err != nil {
		return nil, err
	}

	entry, err := build(account, balance)
	if err != nil {
		return nil, err
	}

	entry.ID = uc.idGen.Generate()
	entry.CreatedAt = uc.clock.Now()

	if err := entry.Validate(); err != nil {
		return nil, err
	}

	if err := uc.entryRepo.Insert(ctx, tx, entry); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return entry, nil
}

// lockAccounts locks the directory rows for the unique refs, sorted by key,
// and returns them keyed by Key().
func (uc *LedgerUseCase) lockAccounts(ctx context.Context, tx Transaction, refs []domain.AccountRef) (map[string]*domain.Account, error) {
	seen := make(map[string]bool, len(refs))

	unique := make([]domain.AccountRef, 0, len(refs))
	for _, ref := range refs {
		if !seen[ref.Key()] {
			seen[ref.Key()] = true
			unique = append(unique, ref)
		}
	}

	sort.Slice(unique, func(i, j int) bool {
		return unique[i].Key() < unique[j].Key()
	})

	accounts, err := uc.directory.GetForUpdate(ctx, tx, unique)
	if err != nil {
		return nil, err
	}

	if len(accounts) != len(unique) {
		return nil, domain.ErrAccountNotFound
	}

	byKey := make(map[string]*domain.Account, len(accounts))
	for _, account := range accounts {
		byKey[account.Key()] = account
	}

	return byKey, nil
}

func (uc *LedgerUseCase) balanceTx(ctx context.Context, tx Transaction, ref domain.AccountRef) (decimal.Decimal, error) {
	credits, err := uc.entryRepo.SumByDirectionTx(ctx, tx, ref, domain.DirectionCredit)
	if err != nil {
		return decimal.Zero, err
	}

	debits, err := uc.entryRepo.SumByDirectionTx(ctx, tx, ref, domain.DirectionDebit)
	if err != nil {
		return decimal.Zero, err
	}

	return credits.Sub(debits), nil
}

func (uc *LedgerUseCase) withRetry(ctx context.Context, operation func() error) error {
	if uc.retrier == nil {
		return operation()
	}

	return uc.retrier.Retry(ctx, operation)
}

func validateOperation(account domain.Accountable, amount decimal.Decimal, currency, reason string) error {
	if account == nil {
		return domain.ErrInvalidAccountRef
	}

	if err := account.LedgerRef().Validate(); err != nil {
		return err
	}

	if err := domain.ValidateAmount(amount); err != nil {
		return err
	}

	if err := domain.ValidateCurrency(currency); err != nil {
		return err
	}

	return domain.ValidateReason(reason)
}
