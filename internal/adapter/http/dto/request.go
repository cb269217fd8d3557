package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/gopayout/internal/usecase"
)

// CreateWithdrawalRequest represents a request to withdraw credits.
type CreateWithdrawalRequest struct {
	ParticipantID   string          `json:"participant_id"`
	Credits         decimal.Decimal `json:"credits"`
	Note            string          `json:"note,omitempty"`
	RequireApproval bool            `json:"require_approval,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateWithdrawalRequest) ToUseCaseInput() usecase.RequestPayoutInput {
	return usecase.RequestPayoutInput{
		ParticipantID:   r.ParticipantID,
		Credits:         r.Credits,
		Note:            r.Note,
		RequireApproval: r.RequireApproval,
	}
}

// DecisionRequest carries the note attached to an approve or reject.
type DecisionRequest struct {
	Note string `json:"note,omitempty"`
}

// RunSweepRequest represents a request to run a batch sweep.
type RunSweepRequest struct {
	PeriodStart time.Time `json:"period_start"`
	PeriodEnd   time.Time `json:"period_end"`
}

// ToUseCaseInput converts to use case input.
func (r *RunSweepRequest) ToUseCaseInput() usecase.RunInput {
	return usecase.RunInput{
		PeriodStart: r.PeriodStart,
		PeriodEnd:   r.PeriodEnd,
	}
}
