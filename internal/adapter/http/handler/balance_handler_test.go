package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/iho/gopayout/internal/adapter/http/dto"
	"github.com/iho/gopayout/internal/domain"
	"github.com/iho/gopayout/internal/usecase"
)

type ledgerServiceStub struct {
	computeFn func(ctx context.Context, participantID string) (decimal.Decimal, error)
	listFn    func(ctx context.Context, input usecase.ListEarningsInput) ([]*domain.EarningEvent, error)
}

func (s *ledgerServiceStub) ComputeAvailableCredits(ctx context.Context, participantID string) (decimal.Decimal, error) {
	return s.computeFn(ctx, participantID)
}

func (s *ledgerServiceStub) ListEarnings(ctx context.Context, input usecase.ListEarningsInput) ([]*domain.EarningEvent, error) {
	return s.listFn(ctx, input)
}

func TestBalanceHandler_GetBalance_Success(t *testing.T) {
	handler := NewBalanceHandler(&ledgerServiceStub{
		computeFn: func(ctx context.Context, participantID string) (decimal.Decimal, error) {
			if participantID != "p-1" {
				t.Fatalf("expected participant p-1, got %s", participantID)
			}
			return decimal.RequireFromString("42.5"), nil
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/participants/p-1/balance", nil)
	req = setChiURLParam(req, "id", "p-1")
	rec := httptest.NewRecorder()

	handler.GetBalance(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp dto.BalanceResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.ParticipantID != "p-1" {
		t.Fatalf("expected participant p-1, got %s", resp.ParticipantID)
	}
	if !resp.AvailableCredits.Equal(decimal.RequireFromString("42.5")) {
		t.Fatalf("expected 42.5 available credits, got %s", resp.AvailableCredits)
	}
}

func TestBalanceHandler_GetBalance_NotFound(t *testing.T) {
	handler := NewBalanceHandler(&ledgerServiceStub{
		computeFn: func(ctx context.Context, participantID string) (decimal.Decimal, error) {
			return decimal.Zero, domain.ErrParticipantNotFound
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/participants/missing/balance", nil)
	req = setChiURLParam(req, "id", "missing")
	rec := httptest.NewRecorder()

	handler.GetBalance(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestBalanceHandler_GetBalance_MissingID(t *testing.T) {
	handler := NewBalanceHandler(&ledgerServiceStub{
		computeFn: func(ctx context.Context, participantID string) (decimal.Decimal, error) {
			t.Fatal("ComputeAvailableCredits should not be called without an ID")
			return decimal.Zero, nil
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/participants//balance", nil)
	rec := httptest.NewRecorder()

	handler.GetBalance(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestBalanceHandler_ListEarnings(t *testing.T) {
	handler := NewBalanceHandler(&ledgerServiceStub{
		listFn: func(ctx context.Context, input usecase.ListEarningsInput) ([]*domain.EarningEvent, error) {
			if input.ParticipantID != "p-1" || input.Limit != 5 || input.Offset != 2 {
				t.Fatalf("unexpected input %+v", input)
			}
			return []*domain.EarningEvent{
				{ID: "e-1", ParticipantID: "p-1", Credits: decimal.NewFromInt(2), Status: domain.SessionStatusSuccessful},
				{ID: "e-2", ParticipantID: "p-1", Credits: decimal.NewFromInt(3), Status: domain.SessionStatusScheduled},
			}, nil
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/participants/p-1/earnings?limit=5&offset=2", nil)
	req = setChiURLParam(req, "id", "p-1")
	rec := httptest.NewRecorder()

	handler.ListEarnings(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp dto.ListEarningsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Earnings) != 2 || resp.Total != 2 {
		t.Fatalf("expected 2 earnings, got %+v", resp)
	}

	// Only the settled session counts toward the balance.
	if !resp.Earnings[0].Earns || resp.Earnings[1].Earns {
		t.Fatalf("expected earns flags true,false, got %+v", resp.Earnings)
	}
}

func setChiURLParam(r *http.Request, key, value string) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, &chi.Context{
		URLParams: chi.RouteParams{
			Keys:   []string{key},
			Values: []string{value},
		},
	}))
}
