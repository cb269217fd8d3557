package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// SweepError is one per-participant failure collected during a batch
// sweep. Failures never abort the sweep; they end up here.
type SweepError struct {
	ParticipantID string
	Reason        string
}

// PayoutReport is the immutable audit record of one batch sweep run.
type PayoutReport struct {
	ID               string
	PeriodStart      time.Time
	PeriodEnd        time.Time
	WithdrawalIDs    []string
	Errors           []SweepError
	TotalsByCurrency map[string]decimal.Decimal
	Completed        int
	Failed           int
	Skipped          int
	CreatedAt        time.Time
}

// AddWithdrawal accumulates a terminal withdrawal into the report.
func (r *PayoutReport) AddWithdrawal(w *WithdrawalRecord) {
	r.WithdrawalIDs = append(r.WithdrawalIDs, w.ID)

	switch w.Status {
	case WithdrawalStatusCompleted:
		r.Completed++
		if r.TotalsByCurrency == nil {
			r.TotalsByCurrency = make(map[string]decimal.Decimal)
		}
		r.TotalsByCurrency[w.Currency] = r.TotalsByCurrency[w.Currency].Add(w.Amount)
	case WithdrawalStatusFailed:
		r.Failed++
	}
}

// AddError records a per-participant failure.
func (r *PayoutReport) AddError(participantID string, err error) {
	r.Errors = append(r.Errors, SweepError{
		ParticipantID: participantID,
		Reason:        err.Error(),
	})
}
