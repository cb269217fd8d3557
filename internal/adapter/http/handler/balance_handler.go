package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/iho/gopayout/internal/adapter/http/dto"
	"github.com/iho/gopayout/internal/domain"
	"github.com/iho/gopayout/internal/usecase"
)

// LedgerService defines the behavior needed by BalanceHandler.
type LedgerService interface {
	ComputeAvailableCredits(ctx context.Context, participantID string) (decimal.Decimal, error)
	ListEarnings(ctx context.Context, input usecase.ListEarningsInput) ([]*domain.EarningEvent, error)
}

// BalanceHandler handles balance and earning HTTP requests.
type BalanceHandler struct {
	ledgerUC LedgerService
}

// NewBalanceHandler creates a new BalanceHandler.
func NewBalanceHandler(ledgerUC LedgerService) *BalanceHandler {
	return &BalanceHandler{ledgerUC: ledgerUC}
}

// GetBalance returns a participant's available credit balance.
func (h *BalanceHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing participant ID", "")
		return
	}

	available, err := h.ledgerUC.ComputeAvailableCredits(r.Context(), id)
	if err != nil {
		writeDomainError(w, err, "failed to compute balance")
		return
	}

	writeJSON(w, http.StatusOK, dto.BalanceResponse{
		ParticipantID:    id,
		AvailableCredits: available,
	})
}

// ListEarnings lists a participant's earning events.
func (h *BalanceHandler) ListEarnings(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing participant ID", "")
		return
	}

	events, err := h.ledgerUC.ListEarnings(r.Context(), usecase.ListEarningsInput{
		ParticipantID: id,
		Limit:         parseIntQuery(r, "limit", 20),
		Offset:        parseIntQuery(r, "offset", 0),
	})
	if err != nil {
		writeDomainError(w, err, "failed to list earnings")
		return
	}

	writeJSON(w, http.StatusOK, dto.ListEarningsResponse{
		Earnings: dto.EarningsFromDomain(events),
		Total:    int64(len(events)),
	})
}
