package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/gopayout/internal/adapter/http/dto"
	"github.com/iho/gopayout/internal/domain"
	"github.com/iho/gopayout/internal/usecase"
)

// SweepService defines the behavior needed by SweepHandler.
type SweepService interface {
	Run(ctx context.Context, input usecase.RunInput) (*domain.PayoutReport, error)
	GetReport(ctx context.Context, id string) (*domain.PayoutReport, error)
	ListReports(ctx context.Context, limit, offset int) ([]*domain.PayoutReport, error)
}

// ReconcileService defines the behavior needed for stale detection.
type ReconcileService interface {
	FindStaleProcessing(ctx context.Context) ([]*domain.WithdrawalRecord, error)
}

// SweepHandler handles batch sweep and reconciliation HTTP requests.
type SweepHandler struct {
	sweepUC     SweepService
	reconcileUC ReconcileService
}

// NewSweepHandler creates a new SweepHandler.
func NewSweepHandler(sweepUC SweepService, reconcileUC ReconcileService) *SweepHandler {
	return &SweepHandler{
		sweepUC:     sweepUC,
		reconcileUC: reconcileUC,
	}
}

// Run executes a batch sweep over all active participants.
func (h *SweepHandler) Run(w http.ResponseWriter, r *http.Request) {
	var req dto.RunSweepRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
			return
		}
	}

	report, err := h.sweepUC.Run(r.Context(), req.ToUseCaseInput())
	if err != nil {
		writeDomainError(w, err, "sweep failed")
		return
	}

	writeJSON(w, http.StatusCreated, dto.ReportFromDomain(report))
}

// GetReport retrieves a sweep report by ID.
func (h *SweepHandler) GetReport(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing report ID", "")
		return
	}

	report, err := h.sweepUC.GetReport(r.Context(), id)
	if err != nil {
		writeDomainError(w, err, "failed to get report")
		return
	}

	writeJSON(w, http.StatusOK, dto.ReportFromDomain(report))
}

// ListReports lists sweep reports.
func (h *SweepHandler) ListReports(w http.ResponseWriter, r *http.Request) {
	reports, err := h.sweepUC.ListReports(r.Context(),
		parseIntQuery(r, "limit", 20), parseIntQuery(r, "offset", 0))
	if err != nil {
		writeDomainError(w, err, "failed to list reports")
		return
	}

	writeJSON(w, http.StatusOK, dto.ListReportsResponse{
		Reports: dto.ReportsFromDomain(reports),
		Total:   int64(len(reports)),
	})
}

// ListStale lists withdrawals stuck in processing.
func (h *SweepHandler) ListStale(w http.ResponseWriter, r *http.Request) {
	stale, err := h.reconcileUC.FindStaleProcessing(r.Context())
	if err != nil {
		writeDomainError(w, err, "failed to list stale withdrawals")
		return
	}

	writeJSON(w, http.StatusOK, dto.ListWithdrawalsResponse{
		Withdrawals: dto.WithdrawalsFromDomain(stale),
		Total:       int64(len(stale)),
	})
}
