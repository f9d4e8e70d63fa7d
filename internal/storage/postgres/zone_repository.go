package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/saurabhwebdev/parkd/internal/domain"
)

type ZoneRepository struct {
	pool *pgxpool.Pool
}

func NewZoneRepository(pool *pgxpool.Pool) *ZoneRepository {
	return &ZoneRepository{pool: pool}
}

func (r *ZoneRepository) CreateZone(ctx context.Context, zone domain.Zone) error {
	const stmt = `
INSERT INTO zones (id, name, description, hourly_rate, currency, created_at)
VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.pool.Exec(ctx, stmt,
		zone.ID, zone.Name, zone.Description, zone.HourlyRate, zone.Currency, zone.CreatedAt)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return wrapErr("create zone", err)
	}
	return nil
}

func (r *ZoneRepository) GetZone(ctx context.Context, id string) (domain.Zone, error) {
	const query = `
SELECT id, name, description, hourly_rate, currency, created_at
FROM zones
WHERE id = $1`

	var z domain.Zone
	err := r.pool.QueryRow(ctx, query, id).
		Scan(&z.ID, &z.Name, &z.Description, &z.HourlyRate, &z.Currency, &z.CreatedAt)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.Zone{}, domain.ErrInvalidID
		}
		if err == pgx.ErrNoRows {
			return domain.Zone{}, domain.ErrZoneNotFound
		}
		return domain.Zone{}, wrapErr("get zone", err)
	}
	return z, nil
}

func (r *ZoneRepository) UpdateZone(ctx context.Context, zone domain.Zone) error {
	const stmt = `
UPDATE zones
SET name = $2, description = $3, hourly_rate = $4, currency = $5
WHERE id = $1`

	tag, err := r.pool.Exec(ctx, stmt,
		zone.ID, zone.Name, zone.Description, zone.HourlyRate, zone.Currency)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return wrapErr("update zone", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrZoneNotFound
	}
	return nil
}

// DeleteZone removes the zone row only; spots and records keep their
// zone_id references.
func (r *ZoneRepository) DeleteZone(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM zones WHERE id = $1`, id)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return wrapErr("delete zone", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrZoneNotFound
	}
	return nil
}

func (r *ZoneRepository) ListZones(ctx context.Context) ([]domain.Zone, error) {
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
