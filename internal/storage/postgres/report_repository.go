package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/saurabhwebdev/parkd/internal/domain"
)

// ReportRepository serves the read-only scans behind occupancy and revenue
// reports. Queries run outside transactions; each one is individually
// consistent.
type ReportRepository struct {
	pool *pgxpool.Pool
}

func NewReportRepository(pool *pgxpool.Pool) *ReportRepository {
	return &ReportRepository{pool: pool}
}

func (r *ReportRepository) ListZones(ctx context.Context) ([]domain.Zone, error) {
	const query = `
SELECT id, name, description, hourly_rate, currency, created_at
FROM zones
ORDER BY created_at ASC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, wrapErr("list zones", err)
	}
	defer rows.Close()

	var zones []domain.Zone
	for rows.Next() {
		var z domain.Zone
		if err := rows.Scan(&z.ID, &z.Name, &z.Description, &z.HourlyRate, &z.Currency, &z.CreatedAt); err != nil {
			return nil, wrapErr("scan zone", err)
		}
		zones = append(zones, z)
	}
	if rows.Err() != nil {
		return nil, wrapErr("iterate zones", rows.Err())
	}
	return zones, nil
}

func (r *ReportRepository) ListAllSpots(ctx context.Context) ([]domain.Spot, error) {
	const query = `
SELECT id, spot_number, level, section, zone_id, occupied, created_at
FROM spots`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, wrapErr("list spots", err)
	}
	defer rows.Close()

	return scanSpots(rows)
}

func (r *ReportRepository) ListExitedBetween(ctx context.Context, start, end time.Time) ([]domain.Record, error) {
	query := fmt.Sprintf(`
SELECT %s FROM records
WHERE status = 'exited' AND exit_time >= $1 AND exit_time <= $2`, recordColumns)

	rows, err := r.pool.Query(ctx, query, start, end)
	if err != nil {
		return nil, wrapErr("list exited records", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}
