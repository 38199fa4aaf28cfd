package domain

import (
	"fmt"
	"time"
)

// AccountRef identifies an accountable entity by a (type, id) pair. The type
// discriminates unrelated entity kinds sharing one ledger; the id is opaque.
type AccountRef struct {
	Type string
	ID   string
}

// LedgerRef implements Accountable, so a bare ref can be used wherever an
// accountable entity is expected.
func (r AccountRef) LedgerRef() AccountRef {
	return r
}

// Key returns the canonical string form of the ref, used for lock ordering
// and cache keys.
func (r AccountRef) Key() string {
	return r.Type + ":" + r.ID
}

// Equal reports whether two refs denote the same entity.
func (r AccountRef) Equal(other AccountRef) bool {
	return r.Type == other.Type && r.ID == other.ID
}

func (r AccountRef) String() string {
	return r.Key()
}

// Validate checks that both parts of the ref are present.
func (r AccountRef) Validate() error {
	if r.Type == "" || r.ID == "" {
		return fmt.Errorf("%w: type and id are required", ErrInvalidAccountRef)
	}
	return nil
}

// Accountable is the capability any domain object needs to hold a ledger
// balance. The engine is generic over this interface; no embedding or
// registration beyond the directory record is required.
type Accountable interface {
	LedgerRef() AccountRef
}

// Account is the directory record for an accountable entity. The ledger never
// mutates the entity it mirrors; the record exists to resolve display names
// and to anchor per-account row locks.
type Account struct {
	AccountRef

	Name      string
	Currency  string
	CreatedAt time.Time
}

// DisplayName returns the name used to enrich query results.
func (a *Account) DisplayName() string {
	return a.Name
}
