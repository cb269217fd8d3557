package integration

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/gopayout/internal/adapter/gateway"
	adaptershttp "github.com/iho/gopayout/internal/adapter/http"
	"github.com/iho/gopayout/internal/adapter/http/handler"
	"github.com/iho/gopayout/internal/adapter/repository/postgres"
	redisrepo "github.com/iho/gopayout/internal/adapter/repository/redis"
	"github.com/iho/gopayout/internal/domain"
	"github.com/iho/gopayout/internal/usecase"
	"github.com/iho/gopayout/tests/testutil"
)

// testEnv wires the full service against a live database, an embedded
// redis and a fake payment provider.
type testEnv struct {
	DB      *testutil.TestDB
	Router  http.Handler
	Gateway *fakeGateway
}

type fakeGateway struct {
	server       *httptest.Server
	requests     int
	fail         bool
	lastTransfer fakeTransfer
}

// fakeTransfer is the slice of the provider payload the tests inspect.
type fakeTransfer struct {
	Reference   string `json:"reference"`
	Method      string `json:"method"`
	Destination struct {
		BankAccountNumber  string `json:"bank_account_number"`
		ConnectedAccountID string `json:"connected_account_id"`
	} `json:"destination"`
}

func (g *fakeGateway) URL() string { return g.server.URL }

func newFakeGateway(t *testing.T) *fakeGateway {
	t.Helper()

	g := &fakeGateway{}
	g.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		g.requests++
		if g.fail {
			w.WriteHeader(http.StatusUnprocessableEntity)
			json.NewEncoder(w).Encode(map[string]any{
				"error": map[string]string{"code": "rejected", "message": "transfer rejected"},
			})
			return
		}

		var payload fakeTransfer
		json.NewDecoder(r.Body).Decode(&payload)
		g.lastTransfer = payload

		json.NewEncoder(w).Encode(map[string]string{
			"transaction_id": "prov-" + payload.Reference,
			"status":         "completed",
		})
	}))
	t.Cleanup(g.server.Close)

	return g
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	testDB := testutil.NewTestDB(t)
	t.Cleanup(testDB.Cleanup)
	testDB.TruncateAll(context.Background())

	mr := miniredis.RunT(t)
	redisClient := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { redisClient.Close() })

	fake := newFakeGateway(t)

	pool := testDB.Pool
	txManager := postgres.NewTxManager(pool)
	participantRepo := postgres.NewParticipantRepository(pool)
	earningRepo := postgres.NewEarningRepository(pool)
	withdrawalRepo := postgres.NewWithdrawalRepository(pool)
	destinationRepo := postgres.NewDestinationRepository(pool)
	reportRepo := postgres.NewReportRepository(pool)
	outboxRepo := postgres.NewOutboxRepository(pool)
	idGen := postgres.NewULIDGenerator()

	gw := gateway.NewClient("test", fake.URL(), "secret", 5*time.Second, nil)
	rates := domain.RateTable{"USD": decimal.RequireFromString("1.5")}

	ledgerUC := usecase.NewLedgerUseCase(participantRepo, earningRepo, withdrawalRepo, nil, nil)
	eligibilityUC := usecase.NewEligibilityUseCase(ledgerUC, destinationRepo)
	payoutUC := usecase.NewPayoutUseCase(txManager, participantRepo, withdrawalRepo, outboxRepo,
		ledgerUC, eligibilityUC, gw, rates, idGen, nil)
	sweepUC := usecase.NewSweepUseCase(txManager, participantRepo, reportRepo, outboxRepo, ledgerUC, payoutUC, idGen, nil, decimal.NewFromInt(1))
	reconcileUC := usecase.NewReconcileUseCase(withdrawalRepo, nil, 24*time.Hour)

	router := adaptershttp.NewRouter(adaptershttp.RouterConfig{
		BalanceHandler:    handler.NewBalanceHandler(ledgerUC),
		WithdrawalHandler: handler.NewWithdrawalHandler(payoutUC),
		SweepHandler:      handler.NewSweepHandler(sweepUC, reconcileUC),
		HealthHandler:     handler.NewHealthHandler(pool, redisClient),
		IdempotencyStore:  redisrepo.NewIdempotencyStore(redisClient),
		Logger:            zerolog.Nop(),
	})

	return &testEnv{DB: testDB, Router: router, Gateway: fake}
}

func (env *testEnv) request(t *testing.T, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	env.Router.ServeHTTP(rec, req)
	return rec
}
