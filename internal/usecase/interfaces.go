package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dandoingdev/ledger/internal/domain"
)

// EntryFilter narrows entry listings. A nil Direction means both directions;
// a nil Since means no time floor.
type EntryFilter struct {
	Direction *domain.Direction
	Since     *time.Time
}

// EntryRepository defines durable append-only access to ledger entries.
// Entries are never updated or deleted through this interface.
type EntryRepository interface {
	// Insert appends an entry within the given transaction.
	Insert(ctx context.Context, tx Transaction, entry *domain.Entry) error
	// SumByDirection aggregates entry amounts for one owner and direction.
	SumByDirection(ctx context.Context, owner domain.AccountRef, direction domain.Direction) (decimal.Decimal, error)
	// SumByDirectionTx is SumByDirection inside a transaction, so the engine
	// observes a snapshot consistent with the locks it holds.
	SumByDirectionTx(ctx context.Context, tx Transaction, owner domain.AccountRef, direction domain.Direction) (decimal.Decimal, error)
	// ListByOwner returns entries for one owner, newest first (id descending).
	ListByOwner(ctx context.Context, owner domain.AccountRef, filter EntryFilter, limit, offset int) ([]*domain.Entry, error)
	// GetByID returns a single entry regardless of owner.
	GetByID(ctx context.Context, id string) (*domain.Entry, error)
	// LastByOwner returns the newest entry for an owner, or ErrEntryNotFound.
	LastByOwner(ctx context.Context, owner domain.AccountRef) (*domain.Entry, error)
}

// AccountDirectory registers accountable entities and resolves their display
// names. Directory rows also anchor the per-account locks the engine takes.
type AccountDirectory interface {
	Register(ctx context.Context, account *domain.Account) error
	Get(ctx context.Context, ref domain.AccountRef) (*domain.Account, error)
	// GetForUpdate locks and returns the directory rows for the given refs.
	// Callers must pass refs sorted by Key() to keep lock order stable.
	GetForUpdate(ctx context.Context, tx Transaction, refs []domain.AccountRef) ([]*domain.Account, error)
	ResolveName(ctx context.Context, ref domain.AccountRef) (string, error)
	List(ctx context.Context, limit, offset int) ([]*domain.Account, error)
}

// Transaction represents a storage transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// Retrier re-runs an operation when the store reports a transient conflict.
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}

// IDGenerator generates unique, monotonically increasing IDs.
type IDGenerator interface {
	Generate() string
}

// Clock supplies the current time. Injected so tests can fix it.
type Clock interface {
	Now() time.Time
}

// Cache defines caching operations.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
}
