package integration

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/dandoingdev/ledger/internal/adapter/repository/postgres"
	"github.com/dandoingdev/ledger/internal/domain"
	"github.com/dandoingdev/ledger/internal/usecase"
	"github.com/dandoingdev/ledger/tests/testutil"
)

func TestConcurrentDebits(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()

	testDB := testutil.NewTestDB(t)
	defer testDB.Cleanup()

	pool := testDB.Pool
	directory := postgres.NewAccountDirectory(pool)
	entryRepo := postgres.NewEntryRepository(pool)
	txManager := postgres.NewTxManager(pool)
	idGen := postgres.NewULIDGenerator()
	retrier := postgres.NewRetrier()
	clock := usecase.NewSystemClock()

	ledgerUC := usecase.NewLedgerUseCase(txManager, entryRepo, directory, idGen, clock, retrier)

	t.Run("100 concurrent debits drain the balance exactly", func(t *testing.T) {
		testDB.TruncateAll(ctx)
		alice := testDB.RegisterAccount(ctx, "user", "alice", "Alice")

		_, err := ledgerUC.TopUp(ctx, usecase.TopUpInput{
			To:     alice,
			Amount: decimal.NewFromInt(1000),
		})
		if err != nil {
			t.Fatalf("topup failed: %v", err)
		}

		numDebits := 100
		debitAmount := decimal.NewFromInt(10)

		var (
			wg           sync.WaitGroup
			successCount atomic.Int32
			errorCount   atomic.Int32
		)

		wg.Add(numDebits)

		for range numDebits {
			go func() {
				defer wg.Done()

				_, err := ledgerUC.Debit(ctx, usecase.DebitInput{
					From:   alice,
					Amount: debitAmount,
				})
				if err != nil {
					errorCount.Add(1)
				} else {
					successCount.Add(1)
				}
			}()
		}

		wg.Wait()

		// 1000 / 10 = 100, every debit fits.
		if successCount.Load() != int32(numDebits) {
			t.Errorf("expected %d successful debits, got %d (errors: %d)", numDebits, successCount.Load(), errorCount.Load())
		}

		balance, err := ledgerUC.Balance(ctx, alice)
		if err != nil {
			t.Fatalf("balance failed: %v", err)
		}
		if !balance.Equal(decimal.Zero) {
			t.Errorf("expected balance 0, got %s", balance)
		}
	})

	t.Run("concurrent debits reject overdraft", func(t *testing.T) {
		testDB.TruncateAll(ctx)
		alice := testDB.RegisterAccount(ctx, "user", "alice", "Alice")

		_, err := ledgerUC.TopUp(ctx, usecase.TopUpInput{
			To:     alice,
			Amount: decimal.NewFromInt(100),
		})
		if err != nil {
			t.Fatalf("topup failed: %v", err)
		}

		numDebits := 20
		debitAmount := decimal.NewFromInt(10) // 20 * 10 = 200 > 100

		var (
			wg           sync.WaitGroup
			successCount atomic.Int32
		)

		wg.Add(numDebits)

		for range numDebits {
			go func() {
				defer wg.Done()

				if _, err := ledgerUC.Debit(ctx, usecase.DebitInput{
					From:   alice,
					Amount: debitAmount,
				}); err == nil {
					successCount.Add(1)
				}
			}()
		}

		wg.Wait()

		if successCount.Load() != 10 {
			t.Errorf("expected exactly 10 debits to succeed, got %d", successCount.Load())
		}

		balance, err := ledgerUC.Balance(ctx, alice)
		if err != nil {
			t.Fatalf("balance failed: %v", err)
		}
		if !balance.Equal(decimal.Zero) {
			t.Errorf("expected balance 0, got %s", balance)
		}

		var sum decimal.Decimal
		sum, err = entryRepo.SumByDirection(ctx, domain.AccountRef{Type: "user", ID: "alice"}, domain.DirectionDebit)
		if err != nil {
			t.Fatalf("sum failed: %v", err)
		}
		if !sum.Equal(decimal.NewFromInt(100)) {
			t.Errorf("expected total debits of 100, got %s", sum)
		}
	})
}

func TestConcurrentTransfersBetweenAccounts(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()

	testDB := testutil.NewTestDB(t)
	defer testDB.Cleanup()

	pool := testDB.Pool
	directory := postgres.NewAccountDirectory(pool)
	entryRepo := postgres.NewEntryRepository(pool)
	txManager := postgres.NewTxManager(pool)
	idGen := postgres.NewULIDGenerator()
	retrier := postgres.NewRetrier()
	clock := usecase.NewSystemClock()

	ledgerUC := usecase.NewLedgerUseCase(txManager, entryRepo, directory, idGen, clock, retrier)

	t.Run("opposing transfers keep both histories consistent", func(t *testing.T) {
		testDB.TruncateAll(ctx)
		alice := testDB.RegisterAccount(ctx, "user", "alice", "Alice")
		bob := testDB.RegisterAccount(ctx, "user", "bob", "Bob")

		for _, ref := range []domain.AccountRef{alice, bob} {
			if _, err := ledgerUC.TopUp(ctx, usecase.TopUpInput{
				To:     ref,
				Amount: decimal.NewFromInt(500),
			}); err != nil {
				t.Fatalf("topup failed: %v", err)
			}
		}

		numTransfers := 50
		amount := decimal.NewFromInt(5)

		var wg sync.WaitGroup
		wg.Add(numTransfers * 2)

		// Lock ordering on directory rows keeps opposing transfers from
		// deadlocking permanently; retries absorb serialization aborts.
		for range numTransfers {
			go func() {
				defer wg.Done()
				_, _ = ledgerUC.Transfer(ctx, usecase.TransferInput{
					From:   alice,
					To:     bob,
					Amount: amount,
				})
			}()
			go func() {
				defer wg.Done()
				_, _ = ledgerUC.Transfer(ctx, usecase.TransferInput{
					From:   bob,
					To:     alice,
					Amount: amount,
				})
			}()
		}

		wg.Wait()

		aliceBalance, err := ledgerUC.Balance(ctx, alice)
		if err != nil {
			t.Fatalf("balance failed: %v", err)
		}
		bobBalance, err := ledgerUC.Balance(ctx, bob)
		if err != nil {
			t.Fatalf("balance failed: %v", err)
		}

		total := aliceBalance.Add(bobBalance)
		if !total.Equal(decimal.NewFromInt(1000)) {
			t.Errorf("expected funds to be conserved at 1000, got %s", total)
		}

		for _, check := range []struct {
			ref  domain.AccountRef
			want decimal.Decimal
		}{
			{alice, aliceBalance},
			{bob, bobBalance},
		} {
			audit, err := ledgerUC.Audit(ctx, check.ref)
			if err != nil {
				t.Fatalf("audit failed: %v", err)
			}
			if !audit.Consistent {
				t.Errorf("expected %s history to be consistent", check.ref.Key())
			}
		}
	})
}
