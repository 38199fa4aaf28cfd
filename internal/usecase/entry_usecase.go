package usecase

import (
	"context"

	"github.com/dandoingdev/ledger/internal/domain"
)

// EntryView is an entry enriched with the owning account's display name.
type EntryView struct {
	domain.Entry

	OwnerName string
}

// EntryQueryUseCase is the read side: filtered, paginated projections over
// the entry store. It never writes entries and shares nothing with the write
// path except the store itself.
type EntryQueryUseCase struct {
	entryRepo EntryRepository
	directory AccountDirectory
	clock     Clock
	cache     Cache
}

// NewEntryQueryUseCase creates a new EntryQueryUseCase. cache may be nil, in
// which case display names are resolved from the directory on every call.
func NewEntryQueryUseCase(entryRepo EntryRepository, directory AccountDirectory, clock Clock, cache Cache) *EntryQueryUseCase {
	return &EntryQueryUseCase{
		entryRepo: entryRepo,
		directory: directory,
		clock:     clock,
		cache:     cache,
	}
}

// ListInput represents input for listing entries.
type ListInput struct {
	Account   domain.Accountable
	Direction *domain.Direction
	DaysAgo   int
	Limit     int
	Offset    int
}

// List returns entries for an account, newest first (id descending). An
// insert between two paginated reads may shift the offset window; no cursor
// stability is guaranteed.
func (uc *EntryQueryUseCase) List(ctx context.Context, input ListInput) ([]*EntryView, error) {
	ref := input.Account.LedgerRef()
	if err := ref.Validate(); err != nil {
		return nil, err
	}

	limit, offset := domain.ValidatePagination(input.Limit, input.Offset)

	filter := EntryFilter{Direction: input.Direction}
	if input.DaysAgo > 0 {
		since := uc.clock.Now().AddDate(0, 0, -input.DaysAgo)
		filter.Since = &since
	}

	entries, err := uc.entryRepo.ListByOwner(ctx, ref, filter, limit, offset)
	if err != nil {
		return nil, err
	}

	name, err := uc.resolveName(ctx, ref)
	if err != nil {
		return nil, err
	}

	views := make([]*EntryView, len(entries))
	for i, entry := range entries {
		views[i] = &EntryView{Entry: *entry, OwnerName: name}
	}

	return views, nil
}

// ListByDirection lists credit-only or debit-only entries for an account.
func (uc *EntryQueryUseCase) ListByDirection(ctx context.Context, account domain.Accountable, direction domain.Direction, limit, offset int) ([]*EntryView, error) {
	return uc.List(ctx, ListInput{
		Account:   account,
		Direction: &direction,
		Limit:     limit,
		Offset:    offset,
	})
}

// ListSince lists entries created within the last daysAgo days, optionally
// filtered by direction.
func (uc *EntryQueryUseCase) ListSince(ctx context.Context, account domain.Accountable, daysAgo int, direction *domain.Direction, limit, offset int) ([]*EntryView, error) {
	return uc.List(ctx, ListInput{
		Account:   account,
		Direction: direction,
		DaysAgo:   daysAgo,
		Limit:     limit,
		Offset:    offset,
	})
}

// FindByID returns a single entry. Fails with ErrEntryNotFound when the entry
// is absent or owned by a different account.
func (uc *EntryQueryUseCase) FindByID(ctx context.Context, account domain.Accountable, entryID string) (*EntryView, error) {
	ref := account.LedgerRef()
	if err := ref.Validate(); err != nil {
		return nil, err
	}

	entry, err := uc.entryRepo.GetByID(ctx, entryID)
	if err != nil {
		return nil, err
	}

	if !entry.Owner.Equal(ref) {
		return nil, domain.ErrEntryNotFound
	}

	name, err := uc.resolveName(ctx, ref)
	if err != nil {
		return nil, err
	}

	return &EntryView{Entry: *entry, OwnerName: name}, nil
}

func (uc *EntryQueryUseCase) resolveName(ctx context.Context, ref domain.AccountRef) (string, error) {
	cacheKey := "name:" + ref.Key()

	if uc.cache != nil {
		if cached, err := uc.cache.Get(ctx, cacheKey); err == nil && len(cached) > 0 {
			return string(cached), nil
		}
	}

	name, err := uc.directory.ResolveName(ctx, ref)
	if err != nil {
		return "", err
	}

	if uc.cache != nil {
		// Cache failures are not fatal; the next call resolves again.
		_ = uc.cache.Set(ctx, cacheKey, []byte(name), DisplayNameCacheTTL)
	}

	return name, nil
}
