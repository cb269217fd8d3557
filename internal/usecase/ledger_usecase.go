package usecase

import (
	"context"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/iho/gopayout/internal/domain"
	"github.com/iho/gopayout/internal/infrastructure/metrics"
)

// LedgerUseCase computes participant balances from earning and
// withdrawal history. It never writes ledger state.
type LedgerUseCase struct {
	participantRepo ParticipantRepository
	earningRepo     EarningRepository
	withdrawalRepo  WithdrawalRepository
	cache           Cache
	metrics         *metrics.Metrics
}

// NewLedgerUseCase creates a new LedgerUseCase.
func NewLedgerUseCase(
	participantRepo ParticipantRepository,
	earningRepo EarningRepository,
	withdrawalRepo WithdrawalRepository,
	cache Cache,
	metrics *metrics.Metrics,
) *LedgerUseCase {
	return &LedgerUseCase{
		participantRepo: participantRepo,
		earningRepo:     earningRepo,
		withdrawalRepo:  withdrawalRepo,
		cache:           cache,
		metrics:         metrics,
	}
}

const balanceCachePrefix = "balance:"

// ComputeAvailableCredits returns the participant's net earned balance:
// credits from successful sessions minus the credit equivalent of every
// reserving withdrawal. The result is never negative; a negative
// computation is a data-integrity error that is logged and clamped.
func (uc *LedgerUseCase) ComputeAvailableCredits(ctx context.Context, participantID string) (decimal.Decimal, error) {
	if _, err := uc.participantRepo.GetByID(ctx, participantID); err != nil {
		return decimal.Zero, err
	}

	if uc.cache != nil {
		if cached, err := uc.cache.Get(ctx, balanceCachePrefix+participantID); err == nil && cached != nil {
			if balance, err := decimal.NewFromString(string(cached)); err == nil {
				return balance, nil
			}
		}
	}

	earned, err := uc.earningRepo.SumSuccessfulCredits(ctx, participantID)
	if err != nil {
		return decimal.Zero, err
	}

	withdrawals, err := uc.withdrawalRepo.ListReserving(ctx, participantID)
	if err != nil {
		return decimal.Zero, err
	}

	available := uc.settle(participantID, earned, withdrawals)

	if uc.cache != nil {
		_ = uc.cache.Set(ctx, balanceCachePrefix+participantID, []byte(available.String()), balanceCacheTTL)
	}

	return available, nil
}

// ComputeAvailableCreditsTx computes the balance inside an open
// transaction, reading through the same row locks the caller holds.
// Payout reservation uses this so the check-then-insert is atomic.
func (uc *LedgerUseCase) ComputeAvailableCreditsTx(ctx context.Context, tx Transaction, participantID string) (decimal.Decimal, error) {
	earned, err := uc.earningRepo.SumSuccessfulCreditsTx(ctx, tx, participantID)
	if err != nil {
		return decimal.Zero, err
	}

	withdrawals, err := uc.withdrawalRepo.ListReservingTx(ctx, tx, participantID)
	if err != nil {
		return decimal.Zero, err
	}

	return uc.settle(participantID, earned, withdrawals), nil
}

// settle nets reservations against earnings, clamping at zero.
func (uc *LedgerUseCase) settle(participantID string, earned decimal.Decimal, withdrawals []*domain.WithdrawalRecord) decimal.Decimal {
	reserved := decimal.Zero
	for _, w := range withdrawals {
		reserved = reserved.Add(w.CreditsReserved())
	}

	if uc.metrics != nil {
		uc.metrics.BalanceComputations.Inc()
	}

	available := earned.Sub(reserved)
	if available.IsNegative() {
		integrityErr := &domain.IntegrityError{
			ParticipantID: participantID,
			Detail:        "computed balance " + available.String() + " is negative (earned " + earned.String() + ", reserved " + reserved.String() + ")",
		}
		log.Error().
			Str("participant_id", participantID).
			Str("earned", earned.String()).
			Str("reserved", reserved.String()).
			Err(integrityErr).
			Msg("negative available balance clamped to zero")

		if uc.metrics != nil {
			uc.metrics.IntegrityErrors.Inc()
		}

		return decimal.Zero
	}

	return available
}

// InvalidateBalance drops the cached balance after a reservation or a
// status transition changes the reserving set.
func (uc *LedgerUseCase) InvalidateBalance(ctx context.Context, participantID string) {
	if uc.cache != nil {
		_ = uc.cache.Delete(ctx, balanceCachePrefix+participantID)
	}
}

// ListEarningsInput represents input for listing earning events.
type ListEarningsInput struct {
	ParticipantID string
	Limit         int
	Offset        int
}

// ListEarnings lists a participant's earning events.
func (uc *LedgerUseCase) ListEarnings(ctx context.Context, input ListEarningsInput) ([]*domain.EarningEvent, error) {
	if _, err := uc.participantRepo.GetByID(ctx, input.ParticipantID); err != nil {
		return nil, err
	}

	limit, offset := domain.ValidatePagination(input.Limit, input.Offset)

	return uc.earningRepo.ListByParticipant(ctx, input.ParticipantID, limit, offset)
}
