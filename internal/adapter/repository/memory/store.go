// Package memory provides an in-process implementation of the ledger storage
// contracts. Write transactions are serialized through a single writer lock,
// which gives the engine the same isolation it gets from row locks in
// Postgres. Used by unit tests and memory-backed runs.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/dandoingdev/ledger/internal/domain"
	"github.com/dandoingdev/ledger/internal/usecase"
)

// Store implements usecase.EntryRepository, usecase.AccountDirectory and
// usecase.TransactionManager over in-process maps.
type Store struct {
	writeMu sync.Mutex
	mu      sync.RWMutex

	entries  []*domain.Entry
	accounts map[string]*domain.Account
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		accounts: make(map[string]*domain.Account),
	}
}

// Begin starts a write transaction. The writer lock is held until Commit or
// Rollback, so concurrent read-validate-write sequences serialize.
func (s *Store) Begin(ctx context.Context) (usecase.Transaction, error) {
	s.writeMu.Lock()

	return &memTx{store: s}, nil
}

type memTx struct {
	store  *Store
	staged []*domain.Entry
	done   bool
}

func (t *memTx) Commit(ctx context.Context) error {
	if t.done {
		return nil
	}

	t.store.mu.Lock()
	t.store.entries = append(t.store.entries, t.staged...)
	t.store.mu.Unlock()

	t.done = true
	t.store.writeMu.Unlock()

	return nil
}

func (t *memTx) Rollback(ctx context.Context) error {
	if t.done {
		return nil
	}

	t.staged = nil
	t.done = true
	t.store.writeMu.Unlock()

	return nil
}

// Insert stages an entry; it becomes visible on Commit.
func (s *Store) Insert(ctx context.Context, tx usecase.Transaction, entry *domain.Entry) error {
	mtx := tx.(*memTx)

	clone := *entry
	mtx.staged = append(mtx.staged, &clone)

	return nil
}

// SumByDirection aggregates committed entry amounts for one owner and
// direction.
func (s *Store) SumByDirection(ctx context.Context, owner domain.AccountRef, direction domain.Direction) (decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return sumEntries(s.entries, owner, direction), nil
}

// SumByDirectionTx aggregates committed entries plus the transaction's own
// staged writes.
func (s *Store) SumByDirectionTx(ctx context.Context, tx usecase.Transaction, owner domain.AccountRef, direction domain.Direction) (decimal.Decimal, error) {
	mtx := tx.(*memTx)

	s.mu.RLock()
	sum := sumEntries(s.entries, owner, direction)
	s.mu.RUnlock()

	return sum.Add(sumEntries(mtx.staged, owner, direction)), nil
}

// ListByOwner returns committed entries for an owner, id descending.
func (s *Store) ListByOwner(ctx context.Context, owner domain.AccountRef, filter usecase.EntryFilter, limit, offset int) ([]*domain.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []*domain.Entry

	for _, entry := range s.entries {
		if !entry.Owner.Equal(owner) {
			continue
		}

		if filter.Direction != nil && entry.Direction != *filter.Direction {
			continue
		}

		if filter.Since != nil && entry.CreatedAt.Before(*filter.Since) {
			continue
		}

		clone := *entry
		matched = append(matched, &clone)
	}

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].ID > matched[j].ID
	})

	if offset >= len(matched) {
		return nil, nil
	}

	matched = matched[offset:]
	if limit < len(matched) {
		matched = matched[:limit]
	}

	return matched, nil
}

// GetByID returns a committed entry by id.
func (s *Store) GetByID(ctx context.Context, id string) (*domain.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, entry := range s.entries {
		if entry.ID == id {
			clone := *entry
			return &clone, nil
		}
	}

	return nil, domain.ErrEntryNotFound
}

// LastByOwner returns the newest committed entry for an owner.
func (s *Store) LastByOwner(ctx context.Context, owner domain.AccountRef) (*domain.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var last *domain.Entry

	for _, entry := range s.entries {
		if !entry.Owner.Equal(owner) {
			continue
		}

		if last == nil || entry.ID > last.ID {
			last = entry
		}
	}

	if last == nil {
		return nil, domain.ErrEntryNotFound
	}

	clone := *last

	return &clone, nil
}

// Register records an account in the directory.
func (s *Store) Register(ctx context.Context, account *domain.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.accounts[account.Key()]; exists {
		return domain.ErrAccountExists
	}

	clone := *account
	s.accounts[account.Key()] = &clone

	return nil
}

// Get returns a directory record by ref.
func (s *Store) Get(ctx context.Context, ref domain.AccountRef) (*domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	account, ok := s.accounts[ref.Key()]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}

	clone := *account

	return &clone, nil
}

// GetForUpdate returns the directory rows for the given refs. The writer lock
// held by the transaction already serializes writers, so no further locking
// is needed here.
func (s *Store) GetForUpdate(ctx context.Context, tx usecase.Transaction, refs []domain.AccountRef) ([]*domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	accounts := make([]*domain.Account, 0, len(refs))

	for _, ref := range refs {
		account, ok := s.accounts[ref.Key()]
		if !ok {
			continue
		}

		clone := *account
		accounts = append(accounts, &clone)
	}

	return accounts, nil
}

// ResolveName returns the display name for a ref.
func (s *Store) ResolveName(ctx context.Context, ref domain.AccountRef) (string, error) {
	account, err := s.Get(ctx, ref)
	if err != nil {
		return "", err
	}

	return account.Name, nil
}

// List returns directory records ordered by key.
func (s *Store) List(ctx context.Context, limit, offset int) ([]*domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.accounts))
	for key := range s.accounts {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	if offset >= len(keys) {
		return nil, nil
	}

	keys = keys[offset:]
	if limit < len(keys) {
		keys = keys[:limit]
	}

	accounts := make([]*domain.Account, 0, len(keys))
	for _, key := range keys {
		clone := *s.accounts[key]
		accounts = append(accounts, &clone)
	}

	return accounts, nil
}

func sumEntries(entries []*domain.Entry, owner domain.AccountRef, direction domain.Direction) decimal.Decimal {
	sum := decimal.Zero

	for _, entry := range entries {
		if entry.Owner.Equal(owner) && entry.Direction == direction {
			sum = sum.Add(entry.Amount)
		}
	}

	return sum
}
