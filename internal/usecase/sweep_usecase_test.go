package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/mock/gomock"

	"github.com/iho/gopayout/internal/domain"
	"github.com/iho/gopayout/internal/usecase"
	"github.com/iho/gopayout/internal/usecase/mocks"
)

type sweepFixture struct {
	*payoutFixture
	reportRepo *mocks.MockReportRepository
	sweep      *usecase.SweepUseCase
}

func newSweepFixture(ctrl *gomock.Controller, minCredits decimal.Decimal) *sweepFixture {
	f := &sweepFixture{
		payoutFixture: newPayoutFixture(ctrl),
		reportRepo:    mocks.NewMockReportRepository(ctrl),
	}

	ledger := usecase.NewLedgerUseCase(f.participantRepo, f.earningRepo, f.withdrawalRepo, nil, nil)

	f.sweep = usecase.NewSweepUseCase(
		f.txManager, f.participantRepo, f.reportRepo, nil, ledger, f.uc, f.idGen, nil, minCredits,
	)

	return f
}

// expectSweepParticipant wires the balance read and the payout
// reservation one swept participant triggers.
func (f *sweepFixture) expectSweepParticipant(p *domain.Participant, earned decimal.Decimal, withdrawalID string) {
	f.participantRepo.EXPECT().GetByID(gomock.Any(), p.ID).Return(p, nil)
	f.earningRepo.EXPECT().SumSuccessfulCredits(gomock.Any(), p.ID).Return(earned, nil)
	f.withdrawalRepo.EXPECT().ListReserving(gomock.Any(), p.ID).Return(nil, nil)

	f.expectReserve(p.ID, earned)
	f.destinationRepo.EXPECT().GetByParticipant(gomock.Any(), p.ID).Return(completeBankDestination(), nil)
	f.idGen.EXPECT().Generate().Return(withdrawalID)

	var created *domain.WithdrawalRecord
	f.withdrawalRepo.EXPECT().Create(gomock.Any(), f.tx, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ usecase.Transaction, w *domain.WithdrawalRecord) error {
			created = w
			return nil
		})
	f.withdrawalRepo.EXPECT().GetByIDForUpdate(gomock.Any(), f.tx, withdrawalID).
		DoAndReturn(func(context.Context, usecase.Transaction, string) (*domain.WithdrawalRecord, error) {
			return created, nil
		})
}

func TestSweepUseCase_Run(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newSweepFixture(ctrl, decimal.RequireFromString("0.01"))

	participants := []*domain.Participant{
		{ID: "p-1", SettlementCurrency: "USD", Active: true},
		{ID: "p-2", SettlementCurrency: "USD", Active: true},
		{ID: "p-3", SettlementCurrency: "USD", Active: true},
	}

	f.idGen.EXPECT().Generate().Return("rep-1")
	f.participantRepo.EXPECT().ListActive(gomock.Any(), 100, 0).Return(participants, nil)

	f.expectSweepParticipant(participants[0], decimal.NewFromInt(10), "w-1")
	f.expectSweepParticipant(participants[1], decimal.NewFromInt(4), "w-2")
	f.expectSweepParticipant(participants[2], decimal.NewFromInt(6), "w-3")

	// Transfers resolve in participant order; the second fails.
	f.gateway.EXPECT().Transfer(gomock.Any(), gomock.Any()).
		Return(&domain.TransferReceipt{TransactionID: "txn-1", Provider: "international"}, nil)
	f.gateway.EXPECT().Transfer(gomock.Any(), gomock.Any()).
		Return(nil, &domain.GatewayError{Provider: "international", Err: errors.New("insufficient provider funds")})
	f.gateway.EXPECT().Transfer(gomock.Any(), gomock.Any()).
		Return(&domain.TransferReceipt{TransactionID: "txn-3", Provider: "international"}, nil)

	f.withdrawalRepo.EXPECT().
		RecordOutcome(gomock.Any(), f.tx, "w-1", domain.WithdrawalStatusCompleted, "txn-1", "", gomock.Any()).
		Return(nil)
	f.withdrawalRepo.EXPECT().
		RecordOutcome(gomock.Any(), f.tx, "w-2", domain.WithdrawalStatusFailed, "", gomock.Any(), gomock.Any()).
		Return(nil)
	f.withdrawalRepo.EXPECT().
		RecordOutcome(gomock.Any(), f.tx, "w-3", domain.WithdrawalStatusCompleted, "txn-3", "", gomock.Any()).
		Return(nil)

	var saved *domain.PayoutReport
	f.reportRepo.EXPECT().Create(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, r *domain.PayoutReport) error {
			saved = r
			return nil
		})

	report, err := f.sweep.Run(context.Background(), usecase.RunInput{
		PeriodStart: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		PeriodEnd:   time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC),
	})

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if saved == nil {
		t.Fatal("expected report persisted")
	}

	if report.Completed != 2 {
		t.Errorf("expected 2 completed, got %d", report.Completed)
	}

	if report.Failed != 1 {
		t.Errorf("expected 1 failed, got %d", report.Failed)
	}

	if len(report.Errors) != 1 {
		t.Fatalf("expected 1 sweep error, got %d", len(report.Errors))
	}

	if report.Errors[0].ParticipantID != "p-2" {
		t.Errorf("expected error for p-2, got %s", report.Errors[0].ParticipantID)
	}

	if len(report.WithdrawalIDs) != 3 {
		t.Errorf("expected 3 withdrawal ids, got %d", len(report.WithdrawalIDs))
	}

	// Only completed amounts settle into the totals: 10 and 6 credits at
	// rate 1.5.
	if !report.TotalsByCurrency["USD"].Equal(decimal.NewFromInt(24)) {
		t.Errorf("expected USD total 24, got %s", report.TotalsByCurrency["USD"])
	}
}

func TestSweepUseCase_Run_SkipsBelowMinimum(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newSweepFixture(ctrl, decimal.NewFromInt(5))

	f.idGen.EXPECT().Generate().Return("rep-1")
	f.participantRepo.EXPECT().ListActive(gomock.Any(), 100, 0).Return([]*domain.Participant{
		{ID: "p-1", SettlementCurrency: "USD", Active: true},
	}, nil)

	f.participantRepo.EXPECT().GetByID(gomock.Any(), "p-1").
		Return(&domain.Participant{ID: "p-1", Active: true}, nil)
	f.earningRepo.EXPECT().SumSuccessfulCredits(gomock.Any(), "p-1").Return(decimal.NewFromInt(3), nil)
	f.withdrawalRepo.EXPECT().ListReserving(gomock.Any(), "p-1").Return(nil, nil)

	f.reportRepo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)

	report, err := f.sweep.Run(context.Background(), usecase.RunInput{})

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if report.Skipped != 1 {
		t.Errorf("expected 1 skipped, got %d", report.Skipped)
	}

	if len(report.WithdrawalIDs) != 0 {
		t.Errorf("expected no withdrawals, got %d", len(report.WithdrawalIDs))
	}
}

func TestSweepUseCase_Run_BalanceErrorDoesNotAbort(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newSweepFixture(ctrl, decimal.RequireFromString("0.01"))

	f.idGen.EXPECT().Generate().Return("rep-1")
	f.participantRepo.EXPECT().ListActive(gomock.Any(), 100, 0).Return([]*domain.Participant{
		{ID: "p-1", SettlementCurrency: "USD", Active: true},
		{ID: "p-2", SettlementCurrency: "USD", Active: true},
	}, nil)

	f.participantRepo.EXPECT().GetByID(gomock.Any(), "p-1").
		Return(nil, errors.New("connection reset"))

	f.expectSweepParticipant(&domain.Participant{ID: "p-2", SettlementCurrency: "USD", Active: true},
		decimal.NewFromInt(6), "w-2")
	f.gateway.EXPECT().Transfer(gomock.Any(), gomock.Any()).
		Return(&domain.TransferReceipt{TransactionID: "txn-2", Provider: "international"}, nil)
	f.withdrawalRepo.EXPECT().
		RecordOutcome(gomock.Any(), f.tx, "w-2", domain.WithdrawalStatusCompleted, "txn-2", "", gomock.Any()).
		Return(nil)

	f.reportRepo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)

	report, err := f.sweep.Run(context.Background(), usecase.RunInput{})

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if report.Completed != 1 {
		t.Errorf("expected 1 completed, got %d", report.Completed)
	}

	if len(report.Errors) != 1 || report.Errors[0].ParticipantID != "p-1" {
		t.Errorf("expected one error for p-1, got %+v", report.Errors)
	}
}

func TestSweepUseCase_Run_EmitsCompletionEvent(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newSweepFixture(ctrl, decimal.NewFromInt(5))
	outboxRepo := mocks.NewMockOutboxRepository(ctrl)
	ledger := usecase.NewLedgerUseCase(f.participantRepo, f.earningRepo, f.withdrawalRepo, nil, nil)
	sweep := usecase.NewSweepUseCase(
		f.txManager, f.participantRepo, f.reportRepo, outboxRepo, ledger, f.uc, f.idGen, nil, decimal.NewFromInt(5),
	)

	f.idGen.EXPECT().Generate().Return("rep-1")
	f.participantRepo.EXPECT().ListActive(gomock.Any(), 100, 0).Return([]*domain.Participant{
		{ID: "p-1", SettlementCurrency: "USD", Active: true},
	}, nil)

	f.participantRepo.EXPECT().GetByID(gomock.Any(), "p-1").
		Return(&domain.Participant{ID: "p-1", Active: true}, nil)
	f.earningRepo.EXPECT().SumSuccessfulCredits(gomock.Any(), "p-1").Return(decimal.NewFromInt(3), nil)
	f.withdrawalRepo.EXPECT().ListReserving(gomock.Any(), "p-1").Return(nil, nil)

	f.reportRepo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)

	f.idGen.EXPECT().Generate().Return("evt-1")
	var event *domain.OutboxEvent
	outboxRepo.EXPECT().Create(gomock.Any(), f.tx, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ usecase.Transaction, e *domain.OutboxEvent) error {
			event = e
			return nil
		})

	if _, err := sweep.Run(context.Background(), usecase.RunInput{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if event == nil {
		t.Fatal("expected a completion event")
	}
	if event.EventType != domain.EventTypeSweepCompleted {
		t.Errorf("expected sweep.completed, got %s", event.EventType)
	}
	if event.AggregateType != domain.AggregateTypeReport || event.AggregateID != "rep-1" {
		t.Errorf("expected report aggregate rep-1, got %s %s", event.AggregateType, event.AggregateID)
	}

	payload, ok := event.Payload.(domain.SweepCompletedEvent)
	if !ok {
		t.Fatalf("expected SweepCompletedEvent payload, got %T", event.Payload)
	}
	if payload.ReportID != "rep-1" || payload.Skipped != 1 {
		t.Errorf("expected rep-1 with 1 skipped, got %+v", payload)
	}
}
