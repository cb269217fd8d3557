package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type SessionStatus string

const (
	SessionStatusScheduled  SessionStatus = "scheduled"
	SessionStatusSuccessful SessionStatus = "successful"
	SessionStatusCancelled  SessionStatus = "cancelled"
)

// EarningEvent is one completed, billable tutoring session. Records are
// written by the booking subsystem and read-only here; only sessions in
// the terminal successful state contribute to a participant's balance.
type EarningEvent struct {
	CompletedAt   *time.Time
	ID            string
	ParticipantID string
	SessionID     string
	Credits       decimal.Decimal
	Status        SessionStatus
	CreatedAt     time.Time
}

// Earns reports whether the event counts toward the available balance.
func (e *EarningEvent) Earns() bool {
	return e.Status == SessionStatusSuccessful
}
