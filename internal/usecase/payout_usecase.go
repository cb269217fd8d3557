package usecase

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/iho/gopayout/internal/domain"
	"github.com/iho/gopayout/internal/infrastructure/metrics"
)

// PayoutUseCase drives the withdrawal lifecycle: reservation inside a
// participant-serialized transaction, the external transfer, and the
// terminal transition. A withdrawal is never left in processing; every
// gateway outcome lands it in completed or failed.
type PayoutUseCase struct {
	txManager       TransactionManager
	participantRepo ParticipantRepository
	withdrawalRepo  WithdrawalRepository
	outboxRepo      OutboxRepository
	ledger          *LedgerUseCase
	eligibility     *EligibilityUseCase
	gateway         Gateway
	rates           domain.RateTable
	idGen           IDGenerator
	metrics         *metrics.Metrics
}

// NewPayoutUseCase creates a new PayoutUseCase.
func NewPayoutUseCase(
	txManager TransactionManager,
	participantRepo ParticipantRepository,
	withdrawalRepo WithdrawalRepository,
	outboxRepo OutboxRepository,
	ledger *LedgerUseCase,
	eligibility *EligibilityUseCase,
	gateway Gateway,
	rates domain.RateTable,
	idGen IDGenerator,
	metrics *metrics.Metrics,
) *PayoutUseCase {
	return &PayoutUseCase{
		txManager:       txManager,
		participantRepo: participantRepo,
		withdrawalRepo:  withdrawalRepo,
		outboxRepo:      outboxRepo,
		ledger:          ledger,
		eligibility:     eligibility,
		gateway:         gateway,
		rates:           rates,
		idGen:           idGen,
		metrics:         metrics,
	}
}

// RequestPayoutInput represents input for creating a withdrawal.
type RequestPayoutInput struct {
	ParticipantID string
	Note          string
	Credits       decimal.Decimal
	// RequireApproval gates the withdrawal behind an admin decision:
	// the record stays pending until approved. The scheduled sweep sets
	// this false and goes straight to processing.
	RequireApproval bool
}

// RequestPayout reserves credits and, unless an approval gate applies,
// immediately executes the external transfer. The reservation commits
// before the gateway is called, so the balance invariant holds even
// while the transfer is in flight; a failed transfer releases the
// reservation by moving the record to failed.
func (uc *PayoutUseCase) RequestPayout(ctx context.Context, input RequestPayoutInput) (*domain.WithdrawalRecord, error) {
	start := time.Now()

	if err := domain.ValidateCredits(input.Credits); err != nil {
		return nil, err
	}

	w, err := uc.reserve(ctx, input)
	if err != nil {
		return nil, err
	}

	uc.ledger.InvalidateBalance(ctx, input.ParticipantID)

	if uc.metrics != nil {
		uc.metrics.PayoutsRequested.Inc()
		defer func() {
			uc.metrics.PayoutDuration.Observe(time.Since(start).Seconds())
		}()
	}

	if w.Status != domain.WithdrawalStatusProcessing {
		return w, nil
	}

	return uc.executeTransfer(ctx, w)
}

// reserve runs read-balance, check-eligibility, insert-withdrawal as one
// atomic unit. The participant row lock serializes concurrent requests
// for the same participant, so two requests cannot both draw on the same
// balance.
func (uc *PayoutUseCase) reserve(ctx context.Context, input RequestPayoutInput) (*domain.WithdrawalRecord, error) {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	participant, err := uc.participantRepo.GetByIDForUpdate(txCtx, tx, input.ParticipantID)
	if err != nil {
		return nil, err
	}

	if !participant.Active {
		return nil, domain.ErrParticipantInactive
	}

	available, err := uc.ledger.ComputeAvailableCreditsTx(txCtx, tx, participant.ID)
	if err != nil {
		return nil, err
	}

	check, err := uc.eligibility.CheckWithAvailable(txCtx, participant.ID, input.Credits, available)
	if err != nil {
		return nil, err
	}

	if !check.OK {
		return nil, &domain.IneligibleError{Reason: check.Reason, Detail: check.Detail}
	}

	rate, err := uc.rates.Rate(participant.SettlementCurrency)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()

	status := domain.WithdrawalStatusPending
	if !input.RequireApproval {
		status = domain.WithdrawalStatusProcessing
	}

	w := &domain.WithdrawalRecord{
		ID:            uc.idGen.Generate(),
		ParticipantID: participant.ID,
		Credits:       input.Credits,
		Amount:        input.Credits.Mul(rate),
		Currency:      participant.SettlementCurrency,
		Rate:          rate,
		Status:        status,
		Destination:   *check.Destination,
		Note:          input.Note,
		RequestedAt:   now,
		UpdatedAt:     now,
	}

	if err := w.Validate(); err != nil {
		return nil, err
	}

	if err := uc.withdrawalRepo.Create(txCtx, tx, w); err != nil {
		return nil, err
	}

	if err := uc.emitEvent(txCtx, tx, w, domain.EventTypeWithdrawalRequested, now); err != nil {
		return nil, err
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}

	return w, nil
}

// executeTransfer runs the gateway leg for a withdrawal already in
// processing and records the terminal outcome. The terminal record is
// returned together with the gateway error, if any, so batch callers
// can put the failure on the report's error list.
func (uc *PayoutUseCase) executeTransfer(ctx context.Context, w *domain.WithdrawalRecord) (*domain.WithdrawalRecord, error) {
	receipt, gwErr := uc.gateway.Transfer(ctx, domain.TransferRequest{
		WithdrawalID: w.ID,
		Amount:       w.Amount,
		Currency:     w.Currency,
		Destination:  w.Destination,
	})

	if gwErr != nil {
		log.Error().
			Str("withdrawal_id", w.ID).
			Str("participant_id", w.ParticipantID).
			Err(gwErr).
			Msg("gateway transfer failed")

		failed, err := uc.finalize(ctx, w.ID, domain.WithdrawalStatusFailed, "", gwErr.Error())
		if err != nil {
			return nil, err
		}

		if uc.metrics != nil {
			uc.metrics.PayoutsFailed.Inc()
		}

		return failed, gwErr
	}

	completed, err := uc.finalize(ctx, w.ID, domain.WithdrawalStatusCompleted, receipt.TransactionID, "")
	if err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.PayoutsCompleted.Inc()
		amount, _ := completed.Amount.Float64()
		uc.metrics.PayoutAmount.WithLabelValues(completed.Currency).Add(amount)
	}

	return completed, nil
}

// finalize transitions a processing withdrawal to its terminal state.
func (uc *PayoutUseCase) finalize(ctx context.Context, withdrawalID string, status domain.WithdrawalStatus, providerTxnID, failureReason string) (*domain.WithdrawalRecord, error) {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	w, err := uc.withdrawalRepo.GetByIDForUpdate(txCtx, tx, withdrawalID)
	if err != nil {
		return nil, err
	}

	if !w.Status.CanTransitionTo(status) {
		return nil, domain.ErrInvalidStatusTransition
	}

	now := time.Now().UTC()
	if err := uc.withdrawalRepo.RecordOutcome(txCtx, tx, w.ID, status, providerTxnID, failureReason, now); err != nil {
		return nil, err
	}

	w.Status = status
	w.ProviderTransactionID = providerTxnID
	w.FailureReason = failureReason
	w.ProcessedAt = &now
	w.UpdatedAt = now

	eventType := domain.EventTypeWithdrawalCompleted
	if status == domain.WithdrawalStatusFailed {
		eventType = domain.EventTypeWithdrawalFailed
	}

	if err := uc.emitEvent(txCtx, tx, w, eventType, now); err != nil {
		return nil, err
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}

	// A failed withdrawal releases its reservation.
	uc.ledger.InvalidateBalance(ctx, w.ParticipantID)

	return w, nil
}

// Approve lifts the admin gate on a pending withdrawal and executes it.
func (uc *PayoutUseCase) Approve(ctx context.Context, withdrawalID, note string) (*domain.WithdrawalRecord, error) {
	w, err := uc.decide(ctx, withdrawalID, domain.WithdrawalStatusApproved, note)
	if err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.PayoutsApproved.Inc()
	}

	return uc.dispatch(ctx, w)
}

// Reject terminates a pending or approved withdrawal, releasing its
// reservation.
func (uc *PayoutUseCase) Reject(ctx context.Context, withdrawalID, reason string) (*domain.WithdrawalRecord, error) {
	w, err := uc.decide(ctx, withdrawalID, domain.WithdrawalStatusRejected, reason)
	if err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.PayoutsRejected.Inc()
	}

	uc.ledger.InvalidateBalance(ctx, w.ParticipantID)

	return w, nil
}

// decide records an admin decision on a non-terminal withdrawal.
func (uc *PayoutUseCase) decide(ctx context.Context, withdrawalID string, status domain.WithdrawalStatus, note string) (*domain.WithdrawalRecord, error) {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	w, err := uc.withdrawalRepo.GetByIDForUpdate(txCtx, tx, withdrawalID)
	if err != nil {
		return nil, err
	}

	if status == domain.WithdrawalStatusApproved && w.Status != domain.WithdrawalStatusPending {
		return nil, domain.ErrWithdrawalNotPending
	}

	if !w.Status.CanTransitionTo(status) {
		return nil, domain.ErrInvalidStatusTransition
	}

	now := time.Now().UTC()
	if err := uc.withdrawalRepo.UpdateDecision(txCtx, tx, w.ID, status, note, now); err != nil {
		return nil, err
	}

	w.Status = status
	if note != "" {
		w.Note = note
	}
	w.DecidedAt = &now
	w.UpdatedAt = now

	eventType := domain.EventTypeWithdrawalApproved
	if status == domain.WithdrawalStatusRejected {
		eventType = domain.EventTypeWithdrawalRejected
	}

	if err := uc.emitEvent(txCtx, tx, w, eventType, now); err != nil {
		return nil, err
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}

	return w, nil
}

// dispatch moves an approved withdrawal into processing and runs the
// gateway leg.
func (uc *PayoutUseCase) dispatch(ctx context.Context, w *domain.WithdrawalRecord) (*domain.WithdrawalRecord, error) {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	locked, err := uc.withdrawalRepo.GetByIDForUpdate(txCtx, tx, w.ID)
	if err != nil {
		return nil, err
	}

	if locked.Status != domain.WithdrawalStatusApproved {
		return nil, domain.ErrWithdrawalNotApproved
	}

	now := time.Now().UTC()
	if err := uc.withdrawalRepo.MarkProcessing(txCtx, tx, locked.ID, now); err != nil {
		return nil, err
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}

	locked.Status = domain.WithdrawalStatusProcessing
	locked.UpdatedAt = now

	return uc.executeTransfer(ctx, locked)
}

// GetWithdrawal retrieves a withdrawal by ID.
func (uc *PayoutUseCase) GetWithdrawal(ctx context.Context, id string) (*domain.WithdrawalRecord, error) {
	return uc.withdrawalRepo.GetByID(ctx, id)
}

// ListWithdrawalsInput represents input for listing withdrawals.
type ListWithdrawalsInput struct {
	ParticipantID string
	Limit         int
	Offset        int
}

// ListWithdrawals lists a participant's withdrawal history.
func (uc *PayoutUseCase) ListWithdrawals(ctx context.Context, input ListWithdrawalsInput) ([]*domain.WithdrawalRecord, error) {
	limit, offset := domain.ValidatePagination(input.Limit, input.Offset)

	return uc.withdrawalRepo.ListByParticipant(ctx, input.ParticipantID, limit, offset)
}

func (uc *PayoutUseCase) emitEvent(ctx context.Context, tx Transaction, w *domain.WithdrawalRecord, eventType string, now time.Time) error {
	if uc.outboxRepo == nil {
		return nil
	}

	return uc.outboxRepo.Create(ctx, tx, &domain.OutboxEvent{
		ID:            uc.idGen.Generate(),
		AggregateID:   w.ID,
		AggregateType: domain.AggregateTypeWithdrawal,
		EventType:     eventType,
		Payload: domain.WithdrawalEvent{
			WithdrawalID:  w.ID,
			ParticipantID: w.ParticipantID,
			Credits:       w.Credits.String(),
			Amount:        w.Amount.String(),
			Currency:      w.Currency,
			Status:        string(w.Status),
		},
		CreatedAt: now,
		Published: false,
	})
}
