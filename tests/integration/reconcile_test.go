package integration

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/gopayout/internal/adapter/http/dto"
	"github.com/iho/gopayout/tests/testutil"
)

func TestStaleProcessingListing(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()
	env := newTestEnv(t)

	p := env.DB.CreateTestParticipant(ctx, "Gil Ramos", "USD")
	env.DB.AddSuccessfulEarning(ctx, p.ID, decimal.NewFromInt(10))
	env.DB.SetBankDestination(ctx, p.ID)

	// A withdrawal stuck in processing since two days ago.
	staleID := testutil.GenerateID()
	old := time.Now().UTC().Add(-48 * time.Hour)
	_, err := env.DB.Pool.Exec(ctx,
		`INSERT INTO withdrawals
		 (id, participant_id, credits, amount, currency, rate, status, method, requested_at, updated_at)
		 VALUES ($1, $2, 4, 6, 'USD', 1.5, 'processing', 'bank', $3, $3)`,
		staleID, p.ID, old)
	if err != nil {
		t.Fatalf("failed to seed stale withdrawal: %v", err)
	}

	// A fresh processing withdrawal must not show up.
	freshID := testutil.GenerateID()
	_, err = env.DB.Pool.Exec(ctx,
		`INSERT INTO withdrawals
		 (id, participant_id, credits, amount, currency, rate, status, method, requested_at, updated_at)
		 VALUES ($1, $2, 2, 3, 'USD', 1.5, 'processing', 'bank', now(), now())`,
		freshID, p.ID)
	if err != nil {
		t.Fatalf("failed to seed fresh withdrawal: %v", err)
	}

	rec := env.request(t, http.MethodGet, "/api/v1/reconciliation/stale", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp dto.ListWithdrawalsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if len(resp.Withdrawals) != 1 || resp.Withdrawals[0].ID != staleID {
		t.Fatalf("expected only the stale withdrawal, got %+v", resp.Withdrawals)
	}
}
