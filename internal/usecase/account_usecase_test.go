package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/dandoingdev/ledger/internal/adapter/repository/memory"
	"github.com/dandoingdev/ledger/internal/domain"
	"github.com/dandoingdev/ledger/internal/usecase"
)

func TestAccountUseCase_RegisterAccount(t *testing.T) {
	t.Run("records the account", func(t *testing.T) {
		store := memory.NewStore()
		uc := usecase.NewAccountUseCase(store, fixedClock{now: testNow})

		account, err := uc.RegisterAccount(context.Background(), usecase.RegisterAccountInput{
			Type:     "user",
			ID:       "alice",
			Name:     "Alice",
			Currency: "USD",
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if account.Key() != "user:alice" {
			t.Errorf("key = %s, want user:alice", account.Key())
		}
		if account.Name != "Alice" {
			t.Errorf("name = %q, want Alice", account.Name)
		}
		if !account.CreatedAt.Equal(testNow) {
			t.Errorf("created at = %s, want %s", account.CreatedAt, testNow)
		}

		stored, err := store.Get(context.Background(), account.AccountRef)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if stored.Currency != "USD" {
			t.Errorf("stored currency = %q, want USD", stored.Currency)
		}
	})

	t.Run("rejects duplicates", func(t *testing.T) {
		store := memory.NewStore()
		uc := usecase.NewAccountUseCase(store, fixedClock{now: testNow})

		input := usecase.RegisterAccountInput{Type: "user", ID: "alice"}

		if _, err := uc.RegisterAccount(context.Background(), input); err != nil {
			t.Fatalf("first register: %v", err)
		}

		_, err := uc.RegisterAccount(context.Background(), input)
		if !errors.Is(err, domain.ErrAccountExists) {
			t.Errorf("expected ErrAccountExists, got %v", err)
		}
	})

	t.Run("rejects an incomplete ref", func(t *testing.T) {
		uc := usecase.NewAccountUseCase(memory.NewStore(), fixedClock{now: testNow})

		_, err := uc.RegisterAccount(context.Background(), usecase.RegisterAccountInput{Type: "user"})
		if !errors.Is(err, domain.ErrInvalidAccountRef) {
			t.Errorf("expected ErrInvalidAccountRef, got %v", err)
		}
	})

	t.Run("rejects an unknown currency", func(t *testing.T) {
		uc := usecase.NewAccountUseCase(memory.NewStore(), fixedClock{now: testNow})

		_, err := uc.RegisterAccount(context.Background(), usecase.RegisterAccountInput{
			Type:     "user",
			ID:       "alice",
			Currency: "XYZ",
		})
		if !errors.Is(err, domain.ErrInvalidCurrency) {
			t.Errorf("expected ErrInvalidCurrency, got %v", err)
		}
	})
}

func TestAccountUseCase_GetAccount(t *testing.T) {
	store := memory.NewStore()
	uc := usecase.NewAccountUseCase(store, fixedClock{now: testNow})

	if _, err := uc.RegisterAccount(context.Background(), usecase.RegisterAccountInput{Type: "user", ID: "alice"}); err != nil {
		t.Fatalf("register: %v", err)
	}

	if _, err := uc.GetAccount(context.Background(), domain.AccountRef{Type: "user", ID: "alice"}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	_, err := uc.GetAccount(context.Background(), domain.AccountRef{Type: "user", ID: "ghost"})
	if !errors.Is(err, domain.ErrAccountNotFound) {
		t.Errorf("expected ErrAccountNotFound, got %v", err)
	}
}

func TestAccountUseCase_ListAccounts(t *testing.T) {
	store := memory.NewStore()
	uc := usecase.NewAccountUseCase(store, fixedClock{now: testNow})

	for _, id := range []string{"carol", "alice", "bob"} {
		if _, err := uc.RegisterAccount(context.Background(), usecase.RegisterAccountInput{Type: "user", ID: id}); err != nil {
			t.Fatalf("register %s: %v", id, err)
		}
	}

	accounts, err := uc.ListAccounts(context.Background(), usecase.ListAccountsInput{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(accounts) != 3 {
		t.Fatalf("expected 3 accounts, got %d", len(accounts))
	}

	// Ordered by key.
	for i, want := range []string{"alice", "bob", "carol"} {
		if accounts[i].ID != want {
			t.Errorf("account %d = %s, want %s", i, accounts[i].ID, want)
		}
	}

	page, err := uc.ListAccounts(context.Background(), usecase.ListAccountsInput{Limit: 2, Offset: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(page) != 1 || page[0].ID != "carol" {
		t.Errorf("expected [carol], got %+v", page)
	}
}
