package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/gopayout/internal/domain"
)

// DestinationRepository implements usecase.DestinationRepository. The
// rows are owned by the participant profile subsystem and read-only
// here.
type DestinationRepository struct {
	pool *pgxpool.Pool
}

// NewDestinationRepository creates a new DestinationRepository.
func NewDestinationRepository(pool *pgxpool.Pool) *DestinationRepository {
	return &DestinationRepository{pool: pool}
}

// GetByParticipant retrieves a participant's payout destination.
func (r *DestinationRepository) GetByParticipant(ctx context.Context, participantID string) (*domain.PayoutDestination, error) {
	var (
		d      domain.PayoutDestination
		method string
	)

	err := r.pool.QueryRow(ctx,
		`SELECT method, bank_name, bank_account_name, bank_account_number,
		        ewallet_name, ewallet_number, connected_account_id
		 FROM payout_destinations WHERE participant_id = $1`,
		participantID).Scan(
		&method,
		&d.BankName, &d.BankAccountName, &d.BankAccountNumber,
		&d.EWalletName, &d.EWalletNumber,
		&d.ConnectedAccountID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrDestinationNotFound
		}
		return nil, err
	}

	d.Method = domain.PayoutMethod(method)

	return &d, nil
}
