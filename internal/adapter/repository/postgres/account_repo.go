package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dandoingdev/ledger/internal/domain"
	"github.com/dandoingdev/ledger/internal/usecase"
)

const pgErrUniqueViolation = "23505"

// AccountDirectory implements usecase.AccountDirectory on PostgreSQL.
// Directory rows double as the lock anchor for per-account serialization:
// the engine takes FOR UPDATE locks on them for the duration of each
// read-validate-write sequence.
type AccountDirectory struct {
	pool *pgxpool.Pool
}

// NewAccountDirectory creates a new AccountDirectory.
func NewAccountDirectory(pool *pgxpool.Pool) *AccountDirectory {
	return &AccountDirectory{pool: pool}
}

// Register records an accountable entity.
func (r *AccountDirectory) Register(ctx context.Context, account *domain.Account) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO ledger_accounts (account_type, account_id, name, currency, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		account.Type,
		account.ID,
		account.Name,
		account.Currency,
		timeToPgTimestamptz(account.CreatedAt),
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgErrUniqueViolation {
			return domain.ErrAccountExists
		}

		return err
	}

	return nil
}

// Get retrieves a directory record by ref.
func (r *AccountDirectory) Get(ctx context.Context, ref domain.AccountRef) (*domain.Account, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT account_type, account_id, name, currency, created_at
		FROM ledger_accounts
		WHERE account_type = $1 AND account_id = $2`,
		ref.Type, ref.ID,
	)

	account, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}

		return nil, err
	}

	return account, nil
}

// GetForUpdate locks and returns the directory rows for the given refs.
// Refs must arrive sorted by Key(); the ORDER BY keeps the row lock
// acquisition order deterministic across concurrent transactions.
func (r *AccountDirectory) GetForUpdate(ctx context.Context, tx usecase.Transaction, refs []domain.AccountRef) ([]*domain.Account, error) {
	pgxTx := tx.(*Tx).PgxTx()

	keys := make([]string, len(refs))
	for i, ref := range refs {
		keys[i] = ref.Key()
	}

	rows, err := pgxTx.Query(ctx, `
		SELECT account_type, account_id, name, currency, created_at
		FROM ledger_accounts
		WHERE account_type || ':' || account_id = ANY($1::text[])
		ORDER BY account_type, account_id
		FOR UPDATE`,
		keys,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	accounts := make([]*domain.Account, 0, len(refs))

	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}

		accounts = append(accounts, account)
	}

	return accounts, rows.Err()
}

// ResolveName returns the display name for a ref.
func (r *AccountDirectory) ResolveName(ctx context.Context, ref domain.AccountRef) (string, error) {
	var name string

	err := r.pool.QueryRow(ctx, `
		SELECT name FROM ledger_accounts WHERE account_type = $1 AND account_id = $2`,
		ref.Type, ref.ID,
	).Scan(&name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", domain.ErrAccountNotFound
		}

		return "", err
	}

	return name, nil
}

// List returns directory records ordered by (type, id).
func (r *AccountDirectory) List(ctx context.Context, limit, offset int) ([]*domain.Account, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT account_type, account_id, name, currency, created_at
		FROM ledger_accounts
		ORDER BY account_type, account_id
		LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []*domain.Account

	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}

		accounts = append(accounts, account)
	}

	return accounts, rows.Err()
}

func scanAccount(row pgx.Row) (*domain.Account, error) {
	var (
		account   domain.Account
		createdAt pgtype.Timestamptz
	)

	err := row.Scan(
		&account.AccountRef.Type,
		&account.AccountRef.ID,
		&account.Name,
		&account.Currency,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}

	account.CreatedAt = createdAt.Time

	return &account, nil
}
