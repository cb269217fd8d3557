package domain

import "time"

// Event types
const (
	EventTypeWithdrawalRequested = "withdrawal.requested"
	EventTypeWithdrawalApproved  = "withdrawal.approved"
	EventTypeWithdrawalRejected  = "withdrawal.rejected"
	EventTypeWithdrawalCompleted = "withdrawal.completed"
	EventTypeWithdrawalFailed    = "withdrawal.failed"
	EventTypeSweepCompleted      = "sweep.completed"
)

// Aggregate types
const (
	AggregateTypeWithdrawal = "withdrawal"
	AggregateTypeReport     = "report"
)

// OutboxEvent represents an event to be published. Payload is one of
// the typed event payloads below; events read back from storage carry
// the decoded JSON instead.
type OutboxEvent struct {
	ID            string
	AggregateID   string
	AggregateType string
	EventType     string
	Payload       any
	CreatedAt     time.Time
	PublishedAt   *time.Time
	Published     bool
}

// WithdrawalEvent payload shared by the withdrawal lifecycle events
type WithdrawalEvent struct {
	WithdrawalID  string `json:"withdrawal_id"`
	ParticipantID string `json:"participant_id"`
	Credits       string `json:"credits"`
	Amount        string `json:"amount"`
	Currency      string `json:"currency"`
	Status        string `json:"status"`
}

// SweepCompletedEvent payload
type SweepCompletedEvent struct {
	ReportID  string `json:"report_id"`
	Completed int    `json:"completed"`
	Failed    int    `json:"failed"`
	Skipped   int    `json:"skipped"`
}
