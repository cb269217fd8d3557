package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type WithdrawalStatus string

const (
	WithdrawalStatusPending    WithdrawalStatus = "pending"
	WithdrawalStatusApproved   WithdrawalStatus = "approved"
	WithdrawalStatusProcessing WithdrawalStatus = "processing"
	WithdrawalStatusCompleted  WithdrawalStatus = "completed"
	WithdrawalStatusFailed     WithdrawalStatus = "failed"
	WithdrawalStatusRejected   WithdrawalStatus = "rejected"
)

var withdrawalTransitions = map[WithdrawalStatus][]WithdrawalStatus{
	WithdrawalStatusPending:    {WithdrawalStatusApproved, WithdrawalStatusProcessing, WithdrawalStatusRejected},
	WithdrawalStatusApproved:   {WithdrawalStatusProcessing, WithdrawalStatusRejected},
	WithdrawalStatusProcessing: {WithdrawalStatusCompleted, WithdrawalStatusFailed},
}

// CanTransitionTo reports whether next is a legal lifecycle step.
func (s WithdrawalStatus) CanTransitionTo(next WithdrawalStatus) bool {
	for _, allowed := range withdrawalTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Terminal reports whether the status admits no further transitions.
func (s WithdrawalStatus) Terminal() bool {
	return len(withdrawalTransitions[s]) == 0
}

// Reserves reports whether a withdrawal in this status counts against
// the participant's available balance. Everything except a rejected or
// failed withdrawal reserves funds; a pending request already does, so
// two concurrent requests cannot both draw on the same credits.
func (s WithdrawalStatus) Reserves() bool {
	switch s {
	case WithdrawalStatusPending, WithdrawalStatusApproved, WithdrawalStatusProcessing, WithdrawalStatusCompleted:
		return true
	}
	return false
}

// WithdrawalRecord is one payout attempt. It is created in pending (or
// processing, for the scheduled sweep) and only ever mutated by status
// transitions; it is never deleted.
type WithdrawalRecord struct {
	DecidedAt     *time.Time
	ProcessedAt   *time.Time
	ID            string
	ParticipantID string
	// Credits is the requested amount in credit units; Amount is the
	// settlement-currency equivalent computed with Rate at request time.
	Credits     decimal.Decimal
	Amount      decimal.Decimal
	Currency    string
	Rate        decimal.Decimal
	Status      WithdrawalStatus
	Destination PayoutDestination
	// ProviderTransactionID is set on completion, FailureReason on failure.
	ProviderTransactionID string
	FailureReason         string
	Note                  string
	RequestedAt           time.Time
	UpdatedAt             time.Time
}

// Validate checks request-time invariants.
func (w *WithdrawalRecord) Validate() error {
	if w.Credits.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}
	if w.Rate.LessThanOrEqual(decimal.Zero) {
		return ErrUnknownCurrencyRate
	}
	return nil
}

// CreditsReserved converts the stored monetary amount back to credit
// units using the rate snapshotted at request time.
func (w *WithdrawalRecord) CreditsReserved() decimal.Decimal {
	return w.Amount.Div(w.Rate)
}
