package usecase

import "time"

const (
	// DefaultTransferReason is used when a transfer carries no reason.
	DefaultTransferReason = "funds transfer"

	// IdempotencyKeyTTL is how long idempotency keys are cached.
	IdempotencyKeyTTL = 24 * time.Hour

	// DisplayNameCacheTTL bounds staleness of cached display names.
	DisplayNameCacheTTL = 5 * time.Minute
)
