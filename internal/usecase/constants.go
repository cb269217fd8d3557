package usecase

import "time"

const (
	// DefaultTransactionTimeout is the maximum duration for a database transaction
	// This prevents long-running transactions from blocking tables
	DefaultTransactionTimeout = 10 * time.Second

	// DefaultStaleProcessingThreshold is how long a withdrawal may sit in
	// processing before it is flagged for manual reconciliation
	DefaultStaleProcessingThreshold = 24 * time.Hour

	// balanceCacheTTL bounds how stale a cached balance read may be
	balanceCacheTTL = 5 * time.Second

	// IdempotencyKeyTTL is how long idempotency keys are cached
	IdempotencyKeyTTL = 24 * time.Hour
)
