package usecase

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/iho/gopayout/internal/domain"
	"github.com/iho/gopayout/internal/infrastructure/metrics"
)

// ReconcileUseCase surfaces withdrawals that need manual attention. A
// record sitting in processing past the staleness threshold means a
// gateway call neither completed nor failed cleanly; it is reported as
// an integrity violation and excluded from automatic retry.
type ReconcileUseCase struct {
	withdrawalRepo WithdrawalRepository
	metrics        *metrics.Metrics
	staleThreshold time.Duration
}

// NewReconcileUseCase creates a new ReconcileUseCase.
func NewReconcileUseCase(withdrawalRepo WithdrawalRepository, metrics *metrics.Metrics, staleThreshold time.Duration) *ReconcileUseCase {
	if staleThreshold <= 0 {
		staleThreshold = DefaultStaleProcessingThreshold
	}

	return &ReconcileUseCase{
		withdrawalRepo: withdrawalRepo,
		metrics:        metrics,
		staleThreshold: staleThreshold,
	}
}

// FindStaleProcessing lists withdrawals stuck in processing, logging
// each as an integrity error.
func (uc *ReconcileUseCase) FindStaleProcessing(ctx context.Context) ([]*domain.WithdrawalRecord, error) {
	olderThan := time.Now().UTC().Add(-uc.staleThreshold)

	stale, err := uc.withdrawalRepo.ListStaleProcessing(ctx, olderThan)
	if err != nil {
		return nil, err
	}

	for _, w := range stale {
		integrityErr := &domain.IntegrityError{
			ParticipantID: w.ParticipantID,
			Detail:        "withdrawal " + w.ID + " in processing since " + w.UpdatedAt.Format(time.RFC3339),
		}

		log.Error().
			Str("withdrawal_id", w.ID).
			Str("participant_id", w.ParticipantID).
			Time("updated_at", w.UpdatedAt).
			Err(integrityErr).
			Msg("withdrawal requires manual reconciliation")

		if uc.metrics != nil {
			uc.metrics.IntegrityErrors.Inc()
		}
	}

	return stale, nil
}
