package postgres

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/iho/gopayout/internal/domain"
)

const reportColumns = `id, period_start, period_end, withdrawal_ids, errors,
	totals_by_currency, completed, failed, skipped, created_at`

// ReportRepository implements usecase.ReportRepository.
type ReportRepository struct {
	pool *pgxpool.Pool
}

// NewReportRepository creates a new ReportRepository.
func NewReportRepository(pool *pgxpool.Pool) *ReportRepository {
	return &ReportRepository{pool: pool}
}

// Create persists a sweep report.
func (r *ReportRepository) Create(ctx context.Context, report *domain.PayoutReport) error {
	sweepErrors, err := json.Marshal(report.Errors)
	if err != nil {
		return err
	}

	totals := make(map[string]string, len(report.TotalsByCurrency))
	for currency, amount := range report.TotalsByCurrency {
		totals[currency] = amount.String()
	}

	totalsJSON, err := json.Marshal(totals)
	if err != nil {
		return err
	}

	_, err = r.pool.Exec(ctx,
		`INSERT INTO payout_reports (`+reportColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		report.ID,
		timeToPgTimestamptz(report.PeriodStart), timeToPgTimestamptz(report.PeriodEnd),
		report.WithdrawalIDs, sweepErrors, totalsJSON,
		int32(report.Completed), int32(report.Failed), int32(report.Skipped),
		timeToPgTimestamptz(report.CreatedAt))

	return err
}

// GetByID retrieves a report by ID.
func (r *ReportRepository) GetByID(ctx context.Context, id string) (*domain.PayoutReport, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+reportColumns+` FROM payout_reports WHERE id = $1`, id)

	return scanReport(row)
}

// List lists reports, most recent first.
func (r *ReportRepository) List(ctx context.Context, limit, offset int) ([]*domain.PayoutReport, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+reportColumns+` FROM payout_reports
		 ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
		int32(limit), int32(offset))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reports := make([]*domain.PayoutReport, 0, limit)
	for rows.Next() {
		report, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		reports = append(reports, report)
	}

	return reports, rows.Err()
}

func scanReport(row pgx.Row) (*domain.PayoutReport, error) {
	var (
		report                     domain.PayoutReport
		periodStart, periodEnd     pgtype.Timestamptz
		created                    pgtype.Timestamptz
		sweepErrors, totalsJSON    []byte
		completed, failed, skipped int32
	)

	err := row.Scan(
		&report.ID, &periodStart, &periodEnd, &report.WithdrawalIDs,
		&sweepErrors, &totalsJSON, &completed, &failed, &skipped, &created)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrReportNotFound
		}
		return nil, err
	}

	report.PeriodStart = periodStart.Time
	report.PeriodEnd = periodEnd.Time
	report.CreatedAt = created.Time
	report.Completed = int(completed)
	report.Failed = int(failed)
	report.Skipped = int(skipped)

	if sweepErrors != nil {
		if err := json.Unmarshal(sweepErrors, &report.Errors); err != nil {
			return nil, err
		}
	}

	if totalsJSON != nil {
		var totals map[string]string
		if err := json.Unmarshal(totalsJSON, &totals); err != nil {
			return nil, err
		}

		report.TotalsByCurrency = make(map[string]decimal.Decimal, len(totals))
		for currency, amount := range totals {
			d, err := decimal.NewFromString(amount)
			if err != nil {
				return nil, err
			}
			report.TotalsByCurrency[currency] = d
		}
	}

	return &report, nil
}
