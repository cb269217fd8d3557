package usecase

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/iho/gopayout/internal/domain"
	"github.com/iho/gopayout/internal/infrastructure/metrics"
)

// SweepUseCase runs the payout pipeline over every active participant.
// Participants are independent: one failure goes on the report's error
// list and the sweep continues.
type SweepUseCase struct {
	txManager       TransactionManager
	participantRepo ParticipantRepository
	reportRepo      ReportRepository
	outboxRepo      OutboxRepository
	ledger          *LedgerUseCase
	payout          *PayoutUseCase
	idGen           IDGenerator
	metrics         *metrics.Metrics
	minCredits      decimal.Decimal
}

// NewSweepUseCase creates a new SweepUseCase. Participants with less
// than minCredits available are skipped. outboxRepo may be nil to
// disable sweep events.
func NewSweepUseCase(
	txManager TransactionManager,
	participantRepo ParticipantRepository,
	reportRepo ReportRepository,
	outboxRepo OutboxRepository,
	ledger *LedgerUseCase,
	payout *PayoutUseCase,
	idGen IDGenerator,
	metrics *metrics.Metrics,
	minCredits decimal.Decimal,
) *SweepUseCase {
	return &SweepUseCase{
		txManager:       txManager,
		participantRepo: participantRepo,
		reportRepo:      reportRepo,
		outboxRepo:      outboxRepo,
		ledger:          ledger,
		payout:          payout,
		idGen:           idGen,
		metrics:         metrics,
		minCredits:      minCredits,
	}
}

const sweepPageSize = 100

// RunInput represents the period a sweep settles.
type RunInput struct {
	PeriodStart time.Time
	PeriodEnd   time.Time
}

// Run sweeps all active participants and persists one PayoutReport.
func (uc *SweepUseCase) Run(ctx context.Context, input RunInput) (*domain.PayoutReport, error) {
	start := time.Now()

	report := &domain.PayoutReport{
		ID:               uc.idGen.Generate(),
		PeriodStart:      input.PeriodStart,
		PeriodEnd:        input.PeriodEnd,
		TotalsByCurrency: make(map[string]decimal.Decimal),
		CreatedAt:        start.UTC(),
	}

	processed := 0

	for offset := 0; ; offset += sweepPageSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		participants, err := uc.participantRepo.ListActive(ctx, sweepPageSize, offset)
		if err != nil {
			return nil, err
		}

		if len(participants) == 0 {
			break
		}

		for _, p := range participants {
			processed++
			uc.sweepParticipant(ctx, p, report)
		}

		if len(participants) < sweepPageSize {
			break
		}
	}

	if err := uc.reportRepo.Create(ctx, report); err != nil {
		return nil, err
	}

	if err := uc.emitCompleted(ctx, report); err != nil {
		// The report is already persisted; a lost event is logged, not
		// a sweep failure.
		log.Warn().Err(err).Str("report_id", report.ID).Msg("sweep: completion event not recorded")
	}

	if uc.metrics != nil {
		uc.metrics.SweepsRun.Inc()
		uc.metrics.SweepDuration.Observe(time.Since(start).Seconds())
		uc.metrics.SweepParticipants.Observe(float64(processed))
	}

	log.Info().
		Str("report_id", report.ID).
		Int("participants", processed).
		Int("completed", report.Completed).
		Int("failed", report.Failed).
		Int("skipped", report.Skipped).
		Int("errors", len(report.Errors)).
		Msg("sweep finished")

	return report, nil
}

// sweepParticipant runs the full pipeline for one participant. Errors
// are collected, never propagated, so one participant cannot abort the
// sweep.
func (uc *SweepUseCase) sweepParticipant(ctx context.Context, p *domain.Participant, report *domain.PayoutReport) {
	available, err := uc.ledger.ComputeAvailableCredits(ctx, p.ID)
	if err != nil {
		uc.recordError(report, p.ID, err)
		return
	}

	if available.LessThan(uc.minCredits) {
		report.Skipped++
		return
	}

	w, err := uc.payout.RequestPayout(ctx, RequestPayoutInput{
		ParticipantID: p.ID,
		Credits:       available,
		Note:          "scheduled sweep",
	})

	// A gateway failure still yields a terminal failed record; count it
	// and keep the error on the list.
	if w != nil {
		report.AddWithdrawal(w)
	}

	if err != nil {
		uc.recordError(report, p.ID, err)
	}
}

// emitCompleted writes the sweep.completed outbox event for a persisted
// report.
func (uc *SweepUseCase) emitCompleted(ctx context.Context, report *domain.PayoutReport) error {
	if uc.outboxRepo == nil {
		return nil
	}

	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	event := &domain.OutboxEvent{
		ID:            uc.idGen.Generate(),
		AggregateID:   report.ID,
		AggregateType: domain.AggregateTypeReport,
		EventType:     domain.EventTypeSweepCompleted,
		Payload: domain.SweepCompletedEvent{
			ReportID:  report.ID,
			Completed: report.Completed,
			Failed:    report.Failed,
			Skipped:   report.Skipped,
		},
		CreatedAt: time.Now().UTC(),
	}

	if err := uc.outboxRepo.Create(txCtx, tx, event); err != nil {
		return err
	}

	return tx.Commit(txCtx)
}

func (uc *SweepUseCase) recordError(report *domain.PayoutReport, participantID string, err error) {
	report.AddError(participantID, err)

	if uc.metrics != nil {
		uc.metrics.SweepErrors.Inc()
	}

	log.Warn().
		Str("participant_id", participantID).
		Err(err).
		Msg("sweep: participant skipped with error")
}

// GetReport retrieves a sweep report by ID.
func (uc *SweepUseCase) GetReport(ctx context.Context, id string) (*domain.PayoutReport, error) {
	return uc.reportRepo.GetByID(ctx, id)
}

// ListReports lists sweep reports, most recent first.
func (uc *SweepUseCase) ListReports(ctx context.Context, limit, offset int) ([]*domain.PayoutReport, error) {
	limit, offset = domain.ValidatePagination(limit, offset)

	return uc.reportRepo.List(ctx, limit, offset)
}
