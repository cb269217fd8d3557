package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/iho/gopayout/internal/adapter/http/dto"
	"github.com/iho/gopayout/internal/domain"
	"github.com/iho/gopayout/internal/usecase"
)

type payoutServiceStub struct {
	requestFn func(ctx context.Context, input usecase.RequestPayoutInput) (*domain.WithdrawalRecord, error)
	approveFn func(ctx context.Context, withdrawalID, note string) (*domain.WithdrawalRecord, error)
	rejectFn  func(ctx context.Context, withdrawalID, reason string) (*domain.WithdrawalRecord, error)
	getFn     func(ctx context.Context, id string) (*domain.WithdrawalRecord, error)
	listFn    func(ctx context.Context, input usecase.ListWithdrawalsInput) ([]*domain.WithdrawalRecord, error)
}

func (s *payoutServiceStub) RequestPayout(ctx context.Context, input usecase.RequestPayoutInput) (*domain.WithdrawalRecord, error) {
	return s.requestFn(ctx, input)
}

func (s *payoutServiceStub) Approve(ctx context.Context, withdrawalID, note string) (*domain.WithdrawalRecord, error) {
	return s.approveFn(ctx, withdrawalID, note)
}

func (s *payoutServiceStub) Reject(ctx context.Context, withdrawalID, reason string) (*domain.WithdrawalRecord, error) {
	return s.rejectFn(ctx, withdrawalID, reason)
}

func (s *payoutServiceStub) GetWithdrawal(ctx context.Context, id string) (*domain.WithdrawalRecord, error) {
	return s.getFn(ctx, id)
}

func (s *payoutServiceStub) ListWithdrawals(ctx context.Context, input usecase.ListWithdrawalsInput) ([]*domain.WithdrawalRecord, error) {
	return s.listFn(ctx, input)
}

func completedWithdrawal() *domain.WithdrawalRecord {
	return &domain.WithdrawalRecord{
		ID:                    "w-1",
		ParticipantID:         "p-1",
		Credits:               decimal.NewFromInt(10),
		Amount:                decimal.NewFromInt(15),
		Currency:              "USD",
		Rate:                  decimal.RequireFromString("1.5"),
		Status:                domain.WithdrawalStatusCompleted,
		ProviderTransactionID: "txn-1",
	}
}

func TestWithdrawalHandler_Create_Success(t *testing.T) {
	var captured usecase.RequestPayoutInput
	handler := NewWithdrawalHandler(&payoutServiceStub{
		requestFn: func(ctx context.Context, input usecase.RequestPayoutInput) (*domain.WithdrawalRecord, error) {
			captured = input
			return completedWithdrawal(), nil
		},
	})

	body, _ := json.Marshal(dto.CreateWithdrawalRequest{
		ParticipantID: "p-1",
		Credits:       decimal.NewFromInt(10),
		Note:          "monthly payout",
	})

	req := httptest.NewRequest(http.MethodPost, "/withdrawals", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	handler.Create(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if captured.ParticipantID != "p-1" || !captured.Credits.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("expected input to match request, got %+v", captured)
	}

	var resp dto.WithdrawalResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.ID != "w-1" || resp.Status != string(domain.WithdrawalStatusCompleted) {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestWithdrawalHandler_Create_InvalidJSON(t *testing.T) {
	handler := NewWithdrawalHandler(&payoutServiceStub{
		requestFn: func(ctx context.Context, input usecase.RequestPayoutInput) (*domain.WithdrawalRecord, error) {
			t.Fatal("RequestPayout should not be called for invalid payload")
			return nil, nil
		},
	})

	req := httptest.NewRequest(http.MethodPost, "/withdrawals", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()

	handler.Create(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestWithdrawalHandler_Create_MissingParticipant(t *testing.T) {
	handler := NewWithdrawalHandler(&payoutServiceStub{
		requestFn: func(ctx context.Context, input usecase.RequestPayoutInput) (*domain.WithdrawalRecord, error) {
			t.Fatal("RequestPayout should not be called without a participant")
			return nil, nil
		},
	})

	req := httptest.NewRequest(http.MethodPost, "/withdrawals", strings.NewReader(`{"credits":"5"}`))
	rec := httptest.NewRecorder()

	handler.Create(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestWithdrawalHandler_Create_Ineligible(t *testing.T) {
	handler := NewWithdrawalHandler(&payoutServiceStub{
		requestFn: func(ctx context.Context, input usecase.RequestPayoutInput) (*domain.WithdrawalRecord, error) {
			return nil, &domain.IneligibleError{Reason: domain.ReasonInsufficientBalance}
		},
	})

	req := httptest.NewRequest(http.MethodPost, "/withdrawals", strings.NewReader(`{"participant_id":"p-1","credits":"500"}`))
	rec := httptest.NewRecorder()

	handler.Create(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp dto.ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Reason != string(domain.ReasonInsufficientBalance) {
		t.Fatalf("expected insufficient_balance reason, got %q", resp.Reason)
	}
}

func TestWithdrawalHandler_Create_GatewayFailureReturnsRecord(t *testing.T) {
	failed := completedWithdrawal()
	failed.Status = domain.WithdrawalStatusFailed
	failed.FailureReason = "provider unavailable"

	handler := NewWithdrawalHandler(&payoutServiceStub{
		requestFn: func(ctx context.Context, input usecase.RequestPayoutInput) (*domain.WithdrawalRecord, error) {
			return failed, &domain.GatewayError{Err: errors.New("provider unavailable"), Provider: "intl"}
		},
	})

	req := httptest.NewRequest(http.MethodPost, "/withdrawals", strings.NewReader(`{"participant_id":"p-1","credits":"10"}`))
	rec := httptest.NewRecorder()

	handler.Create(rec, req)

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp dto.WithdrawalResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Status != string(domain.WithdrawalStatusFailed) || resp.FailureReason != "provider unavailable" {
		t.Fatalf("expected failed record in body, got %+v", resp)
	}
}

func TestWithdrawalHandler_Get_NotFound(t *testing.T) {
	handler := NewWithdrawalHandler(&payoutServiceStub{
		getFn: func(ctx context.Context, id string) (*domain.WithdrawalRecord, error) {
			return nil, domain.ErrWithdrawalNotFound
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/withdrawals/w-404", nil)
	req = setChiURLParam(req, "id", "w-404")
	rec := httptest.NewRecorder()

	handler.Get(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestWithdrawalHandler_Approve_PassesNote(t *testing.T) {
	handler := NewWithdrawalHandler(&payoutServiceStub{
		approveFn: func(ctx context.Context, withdrawalID, note string) (*domain.WithdrawalRecord, error) {
			if withdrawalID != "w-1" || note != "looks good" {
				t.Fatalf("unexpected decision args %s %q", withdrawalID, note)
			}
			return completedWithdrawal(), nil
		},
	})

	req := httptest.NewRequest(http.MethodPost, "/withdrawals/w-1/approve", strings.NewReader(`{"note":"looks good"}`))
	req = setChiURLParam(req, "id", "w-1")
	rec := httptest.NewRecorder()

	handler.Approve(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestWithdrawalHandler_Approve_EmptyBodyAllowed(t *testing.T) {
	handler := NewWithdrawalHandler(&payoutServiceStub{
		approveFn: func(ctx context.Context, withdrawalID, note string) (*domain.WithdrawalRecord, error) {
			if note != "" {
				t.Fatalf("expected empty note, got %q", note)
			}
			return completedWithdrawal(), nil
		},
	})

	req := httptest.NewRequest(http.MethodPost, "/withdrawals/w-1/approve", nil)
	req = setChiURLParam(req, "id", "w-1")
	rec := httptest.NewRecorder()

	handler.Approve(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestWithdrawalHandler_Reject_Conflict(t *testing.T) {
	handler := NewWithdrawalHandler(&payoutServiceStub{
		rejectFn: func(ctx context.Context, withdrawalID, reason string) (*domain.WithdrawalRecord, error) {
			return nil, domain.ErrInvalidStatusTransition
		},
	})

	req := httptest.NewRequest(http.MethodPost, "/withdrawals/w-1/reject", strings.NewReader(`{"note":"fraud"}`))
	req = setChiURLParam(req, "id", "w-1")
	rec := httptest.NewRecorder()

	handler.Reject(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
}

func TestWithdrawalHandler_ListByParticipant(t *testing.T) {
	handler := NewWithdrawalHandler(&payoutServiceStub{
		listFn: func(ctx context.Context, input usecase.ListWithdrawalsInput) ([]*domain.WithdrawalRecord, error) {
			if input.ParticipantID != "p-1" || input.Limit != 20 || input.Offset != 0 {
				t.Fatalf("unexpected input %+v", input)
			}
			return []*domain.WithdrawalRecord{completedWithdrawal()}, nil
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/participants/p-1/withdrawals", nil)
	req = setChiURLParam(req, "id", "p-1")
	rec := httptest.NewRecorder()

	handler.ListByParticipant(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp dto.ListWithdrawalsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Withdrawals) != 1 || resp.Withdrawals[0].ID != "w-1" {
		t.Fatalf("unexpected listing %+v", resp)
	}
}
