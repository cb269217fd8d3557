package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/gopayout/internal/domain"
)

// ParticipantRepository defines data access for participants.
type ParticipantRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Participant, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.Participant, error)
	ListActive(ctx context.Context, limit, offset int) ([]*domain.Participant, error)
}

// EarningRepository defines read access to completed-session earnings.
// The booking subsystem owns the rows; this service never writes them.
type EarningRepository interface {
	SumSuccessfulCredits(ctx context.Context, participantID string) (decimal.Decimal, error)
	SumSuccessfulCreditsTx(ctx context.Context, tx Transaction, participantID string) (decimal.Decimal, error)
	ListByParticipant(ctx context.Context, participantID string, limit, offset int) ([]*domain.EarningEvent, error)
}

// WithdrawalRepository defines data access for withdrawal records.
type WithdrawalRepository interface {
	Create(ctx context.Context, tx Transaction, w *domain.WithdrawalRecord) error
	GetByID(ctx context.Context, id string) (*domain.WithdrawalRecord, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.WithdrawalRecord, error)
	MarkProcessing(ctx context.Context, tx Transaction, id string, updatedAt time.Time) error
	UpdateDecision(ctx context.Context, tx Transaction, id string, status domain.WithdrawalStatus, note string, decidedAt time.Time) error
	RecordOutcome(ctx context.Context, tx Transaction, id string, status domain.WithdrawalStatus, providerTxnID, failureReason string, processedAt time.Time) error
	ListReserving(ctx context.Context, participantID string) ([]*domain.WithdrawalRecord, error)
	ListReservingTx(ctx context.Context, tx Transaction, participantID string) ([]*domain.WithdrawalRecord, error)
	ListByParticipant(ctx context.Context, participantID string, limit, offset int) ([]*domain.WithdrawalRecord, error)
	ListStaleProcessing(ctx context.Context, olderThan time.Time) ([]*domain.WithdrawalRecord, error)
}

// DestinationRepository defines read access to payout destinations,
// owned by the participant profile subsystem.
type DestinationRepository interface {
	GetByParticipant(ctx context.Context, participantID string) (*domain.PayoutDestination, error)
}

// ReportRepository defines data access for sweep reports.
type ReportRepository interface {
	Create(ctx context.Context, report *domain.PayoutReport) error
	GetByID(ctx context.Context, id string) (*domain.PayoutReport, error)
	List(ctx context.Context, limit, offset int) ([]*domain.PayoutReport, error)
}

// OutboxRepository defines data access for outbox events.
type OutboxRepository interface {
	Create(ctx context.Context, tx Transaction, event *domain.OutboxEvent) error
	GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	MarkPublished(ctx context.Context, id string, publishedAt time.Time) error
	DeletePublished(ctx context.Context, before time.Time) error
}

// Gateway is the external transfer capability of a payment provider.
type Gateway interface {
	Transfer(ctx context.Context, req domain.TransferRequest) (*domain.TransferReceipt, error)
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
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
