package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/iho/gopayout/internal/domain"
	"github.com/iho/gopayout/internal/usecase"
)

const participantColumns = `id, name, settlement_currency, active, created_at, updated_at`

// ParticipantRepository implements usecase.ParticipantRepository.
type ParticipantRepository struct {
	pool *pgxpool.Pool
}

// NewParticipantRepository creates a new ParticipantRepository.
func NewParticipantRepository(pool *pgxpool.Pool) *ParticipantRepository {
	return &ParticipantRepository{pool: pool}
}

// GetByID retrieves a participant by ID.
func (r *ParticipantRepository) GetByID(ctx context.Context, id string) (*domain.Participant, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+participantColumns+` FROM participants WHERE id = $1`, id)

	return scanParticipant(row)
}

// GetByIDForUpdate retrieves a participant with a FOR UPDATE lock. The
// lock serializes concurrent withdrawal requests for one participant.
func (r *ParticipantRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Participant, error) {
	pgxTx := tx.(*Tx).PgxTx()

	row := pgxTx.QueryRow(ctx,
		`SELECT `+participantColumns+` FROM participants WHERE id = $1 FOR UPDATE`, id)

	return scanParticipant(row)
}

// ListActive lists active participants ordered by ID, with pagination.
func (r *ParticipantRepository) ListActive(ctx context.Context, limit, offset int) ([]*domain.Participant, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+participantColumns+` FROM participants
		 WHERE active ORDER BY id LIMIT $1 OFFSET $2`,
		int32(limit), int32(offset))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	participants := make([]*domain.Participant, 0, limit)
	for rows.Next() {
		p, err := scanParticipant(rows)
		if err != nil {
			return nil, err
		}
		participants = append(participants, p)
	}

	return participants, rows.Err()
}

func scanParticipant(row pgx.Row) (*domain.Participant, error) {
	var (
		p                domain.Participant
		created, updated pgtype.Timestamptz
	)

	err := row.Scan(&p.ID, &p.Name, &p.SettlementCurrency, &p.Active, &created, &updated)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrParticipantNotFound
		}
		return nil, err
	}

	p.CreatedAt = created.Time
	p.UpdatedAt = updated.Time

	return &p, nil
}

// Type conversion helpers.
func decimalToNumeric(d decimal.Decimal) pgtype.Numeric {
	var n pgtype.Numeric

	_ = n.Scan(d.String())

	return n
}

func numericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid {
		return decimal.Zero
	}

	d, _ := decimal.NewFromString(n.Int.String())
	if n.Exp != 0 {
		d = d.Shift(n.Exp)
	}

	return d
}

func timeToPgTimestamptz(t time.Time) pgtype.Timestamptz {
	return pgtype.Timestamptz{Time: t, Valid: true}
}
