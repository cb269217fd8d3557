package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/gopayout/internal/domain"
	"github.com/iho/gopayout/internal/usecase"
)

const withdrawalColumns = `id, participant_id, credits, amount, currency, rate, status,
	method, bank_name, bank_account_name, bank_account_number,
	ewallet_name, ewallet_number, connected_account_id,
	provider_transaction_id, failure_reason, note,
	requested_at, decided_at, processed_at, updated_at`

// Statuses that reserve credits against the available balance.
const reservingStatuses = `('pending', 'approved', 'processing', 'completed')`

// WithdrawalRepository implements usecase.WithdrawalRepository.
type WithdrawalRepository struct {
	pool *pgxpool.Pool
}

// NewWithdrawalRepository creates a new WithdrawalRepository.
func NewWithdrawalRepository(pool *pgxpool.Pool) *WithdrawalRepository {
	return &WithdrawalRepository{pool: pool}
}

// Create inserts a withdrawal within a transaction.
func (r *WithdrawalRepository) Create(ctx context.Context, tx usecase.Transaction, w *domain.WithdrawalRecord) error {
	pgxTx := tx.(*Tx).PgxTx()

	_, err := pgxTx.Exec(ctx,
		`INSERT INTO withdrawals (`+withdrawalColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)`,
		w.ID, w.ParticipantID,
		decimalToNumeric(w.Credits), decimalToNumeric(w.Amount),
		w.Currency, decimalToNumeric(w.Rate), string(w.Status),
		string(w.Destination.Method),
		w.Destination.BankName, w.Destination.BankAccountName, w.Destination.BankAccountNumber,
		w.Destination.EWalletName, w.Destination.EWalletNumber,
		w.Destination.ConnectedAccountID,
		w.ProviderTransactionID, w.FailureReason, w.Note,
		timeToPgTimestamptz(w.RequestedAt), optionalTimestamptz(w.DecidedAt), optionalTimestamptz(w.ProcessedAt),
		timeToPgTimestamptz(w.UpdatedAt))

	return err
}

// GetByID retrieves a withdrawal by ID.
func (r *WithdrawalRepository) GetByID(ctx context.Context, id string) (*domain.WithdrawalRecord, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+withdrawalColumns+` FROM withdrawals WHERE id = $1`, id)

	return scanWithdrawal(row)
}

// GetByIDForUpdate retrieves a withdrawal with a FOR UPDATE lock.
func (r *WithdrawalRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.WithdrawalRecord, error) {
	pgxTx := tx.(*Tx).PgxTx()

	row := pgxTx.QueryRow(ctx,
		`SELECT `+withdrawalColumns+` FROM withdrawals WHERE id = $1 FOR UPDATE`, id)

	return scanWithdrawal(row)
}

// MarkProcessing moves an approved withdrawal into processing.
func (r *WithdrawalRepository) MarkProcessing(ctx context.Context, tx usecase.Transaction, id string, updatedAt time.Time) error {
	pgxTx := tx.(*Tx).PgxTx()

	_, err := pgxTx.Exec(ctx,
		`UPDATE withdrawals SET status = 'processing', updated_at = $2 WHERE id = $1`,
		id, timeToPgTimestamptz(updatedAt))

	return err
}

// UpdateDecision records an approve or reject decision.
func (r *WithdrawalRepository) UpdateDecision(ctx context.Context, tx usecase.Transaction, id string, status domain.WithdrawalStatus, note string, decidedAt time.Time) error {
	pgxTx := tx.(*Tx).PgxTx()

	_, err := pgxTx.Exec(ctx,
		`UPDATE withdrawals
		 SET status = $2, note = CASE WHEN $3 <> '' THEN $3 ELSE note END,
		     decided_at = $4, updated_at = $4
		 WHERE id = $1`,
		id, string(status), note, timeToPgTimestamptz(decidedAt))

	return err
}

// RecordOutcome writes the terminal state of a processed withdrawal.
func (r *WithdrawalRepository) RecordOutcome(ctx context.Context, tx usecase.Transaction, id string, status domain.WithdrawalStatus, providerTxnID, failureReason string, processedAt time.Time) error {
	pgxTx := tx.(*Tx).PgxTx()

	_, err := pgxTx.Exec(ctx,
		`UPDATE withdrawals
		 SET status = $2, provider_transaction_id = $3, failure_reason = $4,
		     processed_at = $5, updated_at = $5
		 WHERE id = $1`,
		id, string(status), providerTxnID, failureReason, timeToPgTimestamptz(processedAt))

	return err
}

// ListReserving lists the withdrawals currently reserving credits.
func (r *WithdrawalRepository) ListReserving(ctx context.Context, participantID string) ([]*domain.WithdrawalRecord, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+withdrawalColumns+` FROM withdrawals
		 WHERE participant_id = $1 AND status IN `+reservingStatuses,
		participantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectWithdrawals(rows)
}

// ListReservingTx lists reserving withdrawals inside an open transaction.
func (r *WithdrawalRepository) ListReservingTx(ctx context.Context, tx usecase.Transaction, participantID string) ([]*domain.WithdrawalRecord, error) {
	pgxTx := tx.(*Tx).PgxTx()

	rows, err := pgxTx.Query(ctx,
		`SELECT `+withdrawalColumns+` FROM withdrawals
		 WHERE participant_id = $1 AND status IN `+reservingStatuses,
		participantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectWithdrawals(rows)
}

// ListByParticipant lists a participant's withdrawals, most recent first.
func (r *WithdrawalRepository) ListByParticipant(ctx context.Context, participantID string, limit, offset int) ([]*domain.WithdrawalRecord, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+withdrawalColumns+` FROM withdrawals
		 WHERE participant_id = $1
		 ORDER BY requested_at DESC LIMIT $2 OFFSET $3`,
		participantID, int32(limit), int32(offset))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectWithdrawals(rows)
}

// ListStaleProcessing lists withdrawals stuck in processing since before
// the cutoff.
func (r *WithdrawalRepository) ListStaleProcessing(ctx context.Context, olderThan time.Time) ([]*domain.WithdrawalRecord, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+withdrawalColumns+` FROM withdrawals
		 WHERE status = 'processing' AND updated_at < $1
		 ORDER BY updated_at`,
		timeToPgTimestamptz(olderThan))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectWithdrawals(rows)
}

func collectWithdrawals(rows pgx.Rows) ([]*domain.WithdrawalRecord, error) {
	var withdrawals []*domain.WithdrawalRecord
	for rows.Next() {
		w, err := scanWithdrawal(rows)
		if err != nil {
			return nil, err
		}
		withdrawals = append(withdrawals, w)
	}

	return withdrawals, rows.Err()
}

func scanWithdrawal(row pgx.Row) (*domain.WithdrawalRecord, error) {
	var (
		w                     domain.WithdrawalRecord
		credits, amount, rate pgtype.Numeric
		status, method        string
		requested, updated    pgtype.Timestamptz
		decided, processed    pgtype.Timestamptz
	)

	err := row.Scan(
		&w.ID, &w.ParticipantID, &credits, &amount, &w.Currency, &rate, &status,
		&method,
		&w.Destination.BankName, &w.Destination.BankAccountName, &w.Destination.BankAccountNumber,
		&w.Destination.EWalletName, &w.Destination.EWalletNumber,
		&w.Destination.ConnectedAccountID,
		&w.ProviderTransactionID, &w.FailureReason, &w.Note,
		&requested, &decided, &processed, &updated)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrWithdrawalNotFound
		}
		return nil, err
	}

	w.Credits = numericToDecimal(credits)
	w.Amount = numericToDecimal(amount)
	w.Rate = numericToDecimal(rate)
	w.Status = domain.WithdrawalStatus(status)
	w.Destination.Method = domain.PayoutMethod(method)
	w.RequestedAt = requested.Time
	w.UpdatedAt = updated.Time

	if decided.Valid {
		t := decided.Time
		w.DecidedAt = &t
	}

	if processed.Valid {
		t := processed.Time
		w.ProcessedAt = &t
	}

	return &w, nil
}

func optionalTimestamptz(t *time.Time) pgtype.Timestamptz {
	if t == nil {
		return pgtype.Timestamptz{}
	}
	return timeToPgTimestamptz(*t)
}
