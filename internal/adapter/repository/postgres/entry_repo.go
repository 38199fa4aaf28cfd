package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/dandoingdev/ledger/internal/domain"
	"github.com/dandoingdev/ledger/internal/usecase"
)

// dbtx is satisfied by both *pgxpool.Pool and pgx.Tx.
type dbtx interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const entryColumns = `id, owner_type, owner_id, direction, amount, currency,
	counterparty_to, counterparty_from, reason, resulting_balance, balance_currency, created_at`

// EntryRepository implements usecase.EntryRepository on PostgreSQL. The
// ledger_entries table is append-only; this repository issues no UPDATE or
// DELETE statements.
type EntryRepository struct {
	pool *pgxpool.Pool
}

// NewEntryRepository creates a new EntryRepository.
func NewEntryRepository(pool *pgxpool.Pool) *EntryRepository {
	return &EntryRepository{pool: pool}
}

// Insert appends an entry within the given transaction.
func (r *EntryRepository) Insert(ctx context.Context, tx usecase.Transaction, entry *domain.Entry) error {
	pgxTx := tx.(*Tx).PgxTx()

	_, err := pgxTx.Exec(ctx, `
		INSERT INTO ledger_entries (id, owner_type, owner_id, direction, amount, currency,
			counterparty_to, counterparty_from, reason, resulting_balance, balance_currency, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		entry.ID,
		entry.Owner.Type,
		entry.Owner.ID,
		string(entry.Direction),
		decimalToNumeric(entry.Amount),
		entry.Currency,
		entry.CounterpartyTo,
		entry.CounterpartyFrom,
		entry.Reason,
		decimalToNumeric(entry.ResultingBalance),
		entry.BalanceCurrency,
		timeToPgTimestamptz(entry.CreatedAt),
	)

	return err
}

// SumByDirection aggregates entry amounts for one owner and direction.
func (r *EntryRepository) SumByDirection(ctx context.Context, owner domain.AccountRef, direction domain.Direction) (decimal.Decimal, error) {
	return sumByDirection(ctx, r.pool, owner, direction)
}

// SumByDirectionTx is SumByDirection executed inside a transaction.
func (r *EntryRepository) SumByDirectionTx(ctx context.Context, tx usecase.Transaction, owner domain.AccountRef, direction domain.Direction) (decimal.Decimal, error) {
	return sumByDirection(ctx, tx.(*Tx).PgxTx(), owner, direction)
}

func sumByDirection(ctx context.Context, db dbtx, owner domain.AccountRef, direction domain.Direction) (decimal.Decimal, error) {
	var sum pgtype.Numeric

	err := db.QueryRow(ctx, `
		SELECT COALESCE(SUM(amount), 0)
		FROM ledger_entries
		WHERE owner_type = $1 AND owner_id = $2 AND direction = $3`,
		owner.Type, owner.ID, string(direction),
	).Scan(&sum)
	if err != nil {
		return decimal.Zero, err
	}

	return numericToDecimal(sum), nil
}

// ListByOwner returns entries for one owner, newest first (id descending).
func (r *EntryRepository) ListByOwner(ctx context.Context, owner domain.AccountRef, filter usecase.EntryFilter, limit, offset int) ([]*domain.Entry, error) {
	query := `SELECT ` + entryColumns + `
		FROM ledger_entries
		WHERE owner_type = $1 AND owner_id = $2`
	args := []any{owner.Type, owner.ID}

	if filter.Direction != nil {
		args = append(args, string(*filter.Direction))
		query += fmt.Sprintf(" AND direction = $%d", len(args))
	}

	if filter.Since != nil {
		args = append(args, timeToPgTimestamptz(*filter.Since))
		query += fmt.Sprintf(" AND created_at >= $%d", len(args))
	}

	args = append(args, limit, offset)
	query += fmt.Sprintf(" ORDER BY id DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*domain.Entry

	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}

		entries = append(entries, entry)
	}

	return entries, rows.Err()
}

// GetByID returns a single entry by id.
func (r *EntryRepository) GetByID(ctx context.Context, id string) (*domain.Entry, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+entryColumns+` FROM ledger_entries WHERE id = $1`, id)

	entry, err := scanEntry(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrEntryNotFound
		}

		return nil, err
	}

	return entry, nil
}

// LastByOwner returns the newest entry for an owner.
func (r *EntryRepository) LastByOwner(ctx context.Context, owner domain.AccountRef) (*domain.Entry, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+entryColumns+`
		FROM ledger_entries
		WHERE owner_type = $1 AND owner_id = $2
		ORDER BY id DESC
		LIMIT 1`,
		owner.Type, owner.ID,
	)

	entry, err := scanEntry(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrEntryNotFound
		}

		return nil, err
	}

	return entry, nil
}

func scanEntry(row pgx.Row) (*domain.Entry, error) {
	var (
		entry            domain.Entry
		direction        string
		amount           pgtype.Numeric
		resultingBalance pgtype.Numeric
		createdAt        pgtype.Timestamptz
	)

	err := row.Scan(
		&entry.ID,
		&entry.Owner.Type,
		&entry.Owner.ID,
		&direction,
		&amount,
		&entry.Currency,
		&entry.CounterpartyTo,
		&entry.CounterpartyFrom,
		&entry.Reason,
		&resultingBalance,
		&entry.BalanceCurrency,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}

	entry.Direction = domain.Direction(direction)
	entry.Amount = numericToDecimal(amount)
	entry.ResultingBalance = numericToDecimal(resultingBalance)
	entry.CreatedAt = createdAt.Time

	return &entry, nil
}

// Type conversion helpers.
func decimalToNumeric(d decimal.Decimal) pgtype.Numeric {
	var n pgtype.Numeric

	_ = n.Scan(d.String())

	return n
}

func numericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid {
		return decimal.Zero
	}

	d, _ := decimal.NewFromString(n.Int.String())
	if n.Exp != 0 {
		d = d.Shift(n.Exp)
	}

	return d
}

func timeToPgTimestamptz(t time.Time) pgtype.Timestamptz {
	return pgtype.Timestamptz{Time: t, Valid: true}
}
