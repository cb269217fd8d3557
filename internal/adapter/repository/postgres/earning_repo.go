package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/iho/gopayout/internal/domain"
	"github.com/iho/gopayout/internal/usecase"
)

const sumSuccessfulCreditsQuery = `
	SELECT COALESCE(SUM(credits), 0)
	FROM earning_events
	WHERE participant_id = $1 AND status = 'successful'`

// EarningRepository implements usecase.EarningRepository. The rows are
// written by the booking subsystem; this service only reads them.
type EarningRepository struct {
	pool    *pgxpool.Pool
	retrier *Retrier
}

// NewEarningRepository creates a new EarningRepository.
func NewEarningRepository(pool *pgxpool.Pool) *EarningRepository {
	return &EarningRepository{pool: pool, retrier: NewRetrier()}
}

// SumSuccessfulCredits sums the credits of all successful sessions.
func (r *EarningRepository) SumSuccessfulCredits(ctx context.Context, participantID string) (decimal.Decimal, error) {
	var sum pgtype.Numeric

	err := r.retrier.Retry(ctx, func() error {
		return r.pool.QueryRow(ctx, sumSuccessfulCreditsQuery, participantID).Scan(&sum)
	})
	if err != nil {
		return decimal.Zero, err
	}

	return numericToDecimal(sum), nil
}

// SumSuccessfulCreditsTx sums earned credits inside an open transaction.
func (r *EarningRepository) SumSuccessfulCreditsTx(ctx context.Context, tx usecase.Transaction, participantID string) (decimal.Decimal, error) {
	pgxTx := tx.(*Tx).PgxTx()

	var sum pgtype.Numeric

	err := pgxTx.QueryRow(ctx, sumSuccessfulCreditsQuery, participantID).Scan(&sum)
	if err != nil {
		return decimal.Zero, err
	}

	return numericToDecimal(sum), nil
}

// ListByParticipant lists earning events, most recent first.
func (r *EarningRepository) ListByParticipant(ctx context.Context, participantID string, limit, offset int) ([]*domain.EarningEvent, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, participant_id, session_id, credits, status, completed_at, created_at
		 FROM earning_events
		 WHERE participant_id = $1
		 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		participantID, int32(limit), int32(offset))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := make([]*domain.EarningEvent, 0, limit)
	for rows.Next() {
		e, err := scanEarningEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}

	return events, rows.Err()
}

func scanEarningEvent(row pgx.Row) (*domain.EarningEvent, error) {
	var (
		e         domain.EarningEvent
		credits   pgtype.Numeric
		status    string
		completed pgtype.Timestamptz
		created   pgtype.Timestamptz
	)

	err := row.Scan(&e.ID, &e.ParticipantID, &e.SessionID, &credits, &status, &completed, &created)
	if err != nil {
		return nil, err
	}

	e.Credits = numericToDecimal(credits)
	e.Status = domain.SessionStatus(status)
	e.CreatedAt = created.Time

	if completed.Valid {
		t := completed.Time
		e.CompletedAt = &t
	}

	return &e, nil
}
