package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/gopayout/internal/domain"
)

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Reason  string `json:"reason,omitempty"`
}

// BalanceResponse represents a participant's available balance.
type BalanceResponse struct {
	ParticipantID    string          `json:"participant_id"`
	AvailableCredits decimal.Decimal `json:"available_credits"`
}

// WithdrawalResponse represents a withdrawal in API responses.
type WithdrawalResponse struct {
	ID                    string          `json:"id"`
	ParticipantID         string          `json:"participant_id"`
	Credits               decimal.Decimal `json:"credits"`
	Amount                decimal.Decimal `json:"amount"`
	Currency              string          `json:"currency"`
	Rate                  decimal.Decimal `json:"rate"`
	Status                string          `json:"status"`
	Method                string          `json:"method"`
	ProviderTransactionID string          `json:"provider_transaction_id,omitempty"`
	FailureReason         string          `json:"failure_reason,omitempty"`
	Note                  string          `json:"note,omitempty"`
	RequestedAt           time.Time       `json:"requested_at"`
	DecidedAt             *time.Time      `json:"decided_at,omitempty"`
	ProcessedAt           *time.Time      `json:"processed_at,omitempty"`
}

// WithdrawalFromDomain converts a domain withdrawal to a response.
func WithdrawalFromDomain(w *domain.WithdrawalRecord) *WithdrawalResponse {
	return &WithdrawalResponse{
		ID:                    w.ID,
		ParticipantID:         w.ParticipantID,
		Credits:               w.Credits,
		Amount:                w.Amount,
		Currency:              w.Currency,
		Rate:                  w.Rate,
		Status:                string(w.Status),
		Method:                string(w.Destination.Method),
		ProviderTransactionID: w.ProviderTransactionID,
		FailureReason:         w.FailureReason,
		Note:                  w.Note,
		RequestedAt:           w.RequestedAt,
		DecidedAt:             w.DecidedAt,
		ProcessedAt:           w.ProcessedAt,
	}
}

// WithdrawalsFromDomain converts domain withdrawals to responses.
func WithdrawalsFromDomain(withdrawals []*domain.WithdrawalRecord) []*WithdrawalResponse {
	result := make([]*WithdrawalResponse, len(withdrawals))
	for i, w := range withdrawals {
		result[i] = WithdrawalFromDomain(w)
	}
	return result
}

// ListWithdrawalsResponse wraps a withdrawal listing.
type ListWithdrawalsResponse struct {
	Withdrawals []*WithdrawalResponse `json:"withdrawals"`
	Total       int64                 `json:"total"`
}

// EarningResponse represents an earning event in API responses.
type EarningResponse struct {
	ID            string          `json:"id"`
	ParticipantID string          `json:"participant_id"`
	SessionID     string          `json:"session_id"`
	Credits       decimal.Decimal `json:"credits"`
	Status        string          `json:"status"`
	Earns         bool            `json:"earns"`
	CompletedAt   *time.Time      `json:"completed_at,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// EarningsFromDomain converts domain earning events to responses.
func EarningsFromDomain(events []*domain.EarningEvent) []*EarningResponse {
	result := make([]*EarningResponse, len(events))
	for i, e := range events {
		result[i] = &EarningResponse{
			ID:            e.ID,
			ParticipantID: e.ParticipantID,
			SessionID:     e.SessionID,
			Credits:       e.Credits,
			Status:        string(e.Status),
			Earns:         e.Earns(),
			CompletedAt:   e.CompletedAt,
			CreatedAt:     e.CreatedAt,
		}
	}
	return result
}

// ListEarningsResponse wraps an earning listing.
type ListEarningsResponse struct {
	Earnings []*EarningResponse `json:"earnings"`
	Total    int64              `json:"total"`
}

// SweepErrorResponse represents one per-participant sweep failure.
type SweepErrorResponse struct {
	ParticipantID string `json:"participant_id"`
	Reason        string `json:"reason"`
}

// ReportResponse represents a sweep report in API responses.
type ReportResponse struct {
	ID               string               `json:"id"`
	PeriodStart      time.Time            `json:"period_start"`
	PeriodEnd        time.Time            `json:"period_end"`
	WithdrawalIDs    []string             `json:"withdrawal_ids"`
	Errors           []SweepErrorResponse `json:"errors"`
	TotalsByCurrency map[string]string    `json:"totals_by_currency"`
	Completed        int                  `json:"completed"`
	Failed           int                  `json:"failed"`
	Skipped          int                  `json:"skipped"`
	CreatedAt        time.Time            `json:"created_at"`
}

// ReportFromDomain converts a domain report to a response.
func ReportFromDomain(r *domain.PayoutReport) *ReportResponse {
	sweepErrors := make([]SweepErrorResponse, len(r.Errors))
	for i, e := range r.Errors {
		sweepErrors[i] = SweepErrorResponse{ParticipantID: e.ParticipantID, Reason: e.Reason}
	}

	totals := make(map[string]string, len(r.TotalsByCurrency))
	for currency, amount := range r.TotalsByCurrency {
		totals[currency] = amount.String()
	}

	return &ReportResponse{
		ID:               r.ID,
		PeriodStart:      r.PeriodStart,
		PeriodEnd:        r.PeriodEnd,
		WithdrawalIDs:    r.WithdrawalIDs,
		Errors:           sweepErrors,
		TotalsByCurrency: totals,
		Completed:        r.Completed,
		Failed:           r.Failed,
		Skipped:          r.Skipped,
		CreatedAt:        r.CreatedAt,
	}
}

// ReportsFromDomain converts domain reports to responses.
func ReportsFromDomain(reports []*domain.PayoutReport) []*ReportResponse {
	result := make([]*ReportResponse, len(reports))
	for i, r := range reports {
		result[i] = ReportFromDomain(r)
	}
	return result
}

// ListReportsResponse wraps a report listing.
type ListReportsResponse struct {
	Reports []*ReportResponse `json:"reports"`
	Total   int64             `json:"total"`
}
