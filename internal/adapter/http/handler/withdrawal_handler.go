package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/gopayout/internal/adapter/http/dto"
	"github.com/iho/gopayout/internal/domain"
	"github.com/iho/gopayout/internal/usecase"
)

// PayoutService defines the behavior needed by WithdrawalHandler.
type PayoutService interface {
	RequestPayout(ctx context.Context, input usecase.RequestPayoutInput) (*domain.WithdrawalRecord, error)
	Approve(ctx context.Context, withdrawalID, note string) (*domain.WithdrawalRecord, error)
	Reject(ctx context.Context, withdrawalID, reason string) (*domain.WithdrawalRecord, error)
	GetWithdrawal(ctx context.Context, id string) (*domain.WithdrawalRecord, error)
	ListWithdrawals(ctx context.Context, input usecase.ListWithdrawalsInput) ([]*domain.WithdrawalRecord, error)
}

// WithdrawalHandler handles withdrawal-related HTTP requests.
type WithdrawalHandler struct {
	payoutUC PayoutService
}

// NewWithdrawalHandler creates a new WithdrawalHandler.
func NewWithdrawalHandler(payoutUC PayoutService) *WithdrawalHandler {
	return &WithdrawalHandler{payoutUC: payoutUC}
}

// Create requests a new withdrawal.
func (h *WithdrawalHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateWithdrawalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if req.ParticipantID == "" {
		writeError(w, http.StatusBadRequest, "missing participant_id", "")
		return
	}

	record, err := h.payoutUC.RequestPayout(r.Context(), req.ToUseCaseInput())
	if err != nil {
		// A gateway failure still produced a terminal record; return it
		// with the failure status so the caller sees what happened.
		var gwErr *domain.GatewayError
		if errors.As(err, &gwErr) && record != nil {
			writeJSON(w, http.StatusBadGateway, dto.WithdrawalFromDomain(record))
			return
		}

		writeDomainError(w, err, "failed to request withdrawal")
		return
	}

	writeJSON(w, http.StatusCreated, dto.WithdrawalFromDomain(record))
}

// Get retrieves a withdrawal by ID.
func (h *WithdrawalHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing withdrawal ID", "")
		return
	}

	record, err := h.payoutUC.GetWithdrawal(r.Context(), id)
	if err != nil {
		writeDomainError(w, err, "failed to get withdrawal")
		return
	}

	writeJSON(w, http.StatusOK, dto.WithdrawalFromDomain(record))
}

// Approve lifts the admin gate on a pending withdrawal.
func (h *WithdrawalHandler) Approve(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.payoutUC.Approve, "failed to approve withdrawal")
}

// Reject terminates a pending or approved withdrawal.
func (h *WithdrawalHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.payoutUC.Reject, "failed to reject withdrawal")
}

func (h *WithdrawalHandler) decide(w http.ResponseWriter, r *http.Request, decision func(context.Context, string, string) (*domain.WithdrawalRecord, error), message string) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing withdrawal ID", "")
		return
	}

	var req dto.DecisionRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
			return
		}
	}

	record, err := decision(r.Context(), id, req.Note)
	if err != nil {
		var gwErr *domain.GatewayError
		if errors.As(err, &gwErr) && record != nil {
			writeJSON(w, http.StatusBadGateway, dto.WithdrawalFromDomain(record))
			return
		}

		writeDomainError(w, err, message)
		return
	}

	writeJSON(w, http.StatusOK, dto.WithdrawalFromDomain(record))
}

// ListByParticipant lists a participant's withdrawal history.
func (h *WithdrawalHandler) ListByParticipant(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing participant ID", "")
		return
	}

	withdrawals, err := h.payoutUC.ListWithdrawals(r.Context(), usecase.ListWithdrawalsInput{
		ParticipantID: id,
		Limit:         parseIntQuery(r, "limit", 20),
		Offset:        parseIntQuery(r, "offset", 0),
	})
	if err != nil {
		writeDomainError(w, err, "failed to list withdrawals")
		return
	}

	writeJSON(w, http.StatusOK, dto.ListWithdrawalsResponse{
		Withdrawals: dto.WithdrawalsFromDomain(withdrawals),
		Total:       int64(len(withdrawals)),
	})
}
