package domain

import (
	"errors"
	"fmt"
)

var (
	// Lookup errors
	ErrParticipantNotFound = errors.New("participant not found")
	ErrWithdrawalNotFound  = errors.New("withdrawal not found")
	ErrDestinationNotFound = errors.New("payout destination not found")
	ErrReportNotFound      = errors.New("payout report not found")

	// Validation errors
	ErrInvalidAmount       = errors.New("amount must be positive")
	ErrParticipantInactive = errors.New("participant is not active")
	ErrUnknownCurrencyRate = errors.New("no exchange rate configured for currency")

	// Eligibility errors
	ErrInsufficientBalance   = errors.New("insufficient balance")
	ErrIncompletePaymentInfo = errors.New("incomplete payment info")

	// Lifecycle errors
	ErrInvalidStatusTransition = errors.New("invalid withdrawal status transition")
	ErrWithdrawalNotPending    = errors.New("withdrawal is not pending")
	ErrWithdrawalNotApproved   = errors.New("withdrawal is not approved")
)

// EligibilityReason identifies why a payout request was rejected.
type EligibilityReason string

const (
	ReasonInsufficientBalance   EligibilityReason = "insufficient_balance"
	ReasonIncompletePaymentInfo EligibilityReason = "incomplete_payment_info"
)

// IneligibleError is returned when a payout request fails an eligibility
// rule. It is a user-actionable rejection, never retried.
type IneligibleError struct {
	Reason EligibilityReason
	Detail string
}

func (e *IneligibleError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("payout ineligible (%s): %s", e.Reason, e.Detail)
	}
	return fmt.Sprintf("payout ineligible (%s)", e.Reason)
}

// Unwrap maps the reason to its sentinel so errors.Is keeps working.
func (e *IneligibleError) Unwrap() error {
	switch e.Reason {
	case ReasonInsufficientBalance:
		return ErrInsufficientBalance
	case ReasonIncompletePaymentInfo:
		return ErrIncompletePaymentInfo
	}
	return nil
}

// GatewayError wraps a failed or timed-out transfer call to a payment
// provider. A bounded retry is allowed before it becomes terminal.
type GatewayError struct {
	Err      error
	Provider string
	Timeout  bool
}

func (e *GatewayError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("gateway %s: transfer timed out: %v", e.Provider, e.Err)
	}
	return fmt.Sprintf("gateway %s: transfer failed: %v", e.Provider, e.Err)
}

func (e *GatewayError) Unwrap() error { return e.Err }

// IntegrityError signals ledger state that should be impossible, such as
// a negative computed balance or a withdrawal stuck in processing. It is
// never retried automatically and requires manual reconciliation.
type IntegrityError struct {
	ParticipantID string
	Detail        string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("ledger integrity violation for participant %s: %s", e.ParticipantID, e.Detail)
}
