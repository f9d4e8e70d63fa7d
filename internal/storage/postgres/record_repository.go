package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/saurabhwebdev/parkd/internal/app"
	"github.com/saurabhwebdev/parkd/internal/domain"
)

const recordColumns = `id, license_plate, spot_id, zone_id, entry_time, exit_time, status, duration_minutes, fee, currency, created_at`

type RecordRepository struct {
	pool *pgxpool.Pool
}

func NewRecordRepository(pool *pgxpool.Pool) *RecordRepository {
	return &RecordRepository{pool: pool}
}

func (r *RecordRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.pool, fn)
}

func (r *RecordRepository) GetSpotForUpdate(ctx context.Context, spotID string) (domain.Spot, error) {
	const query = `
SELECT id, spot_number, level, section, zone_id, occupied, created_at
FROM spots
WHERE id = $1
FOR UPDATE`

	var s domain.Spot
	err := r.queryRow(ctx, query, spotID).
		Scan(&s.ID, &s.SpotNumber, &s.Level, &s.Section, &s.ZoneID, &s.Occupied, &s.CreatedAt)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.Spot{}, domain.ErrInvalidID
		}
		if err == pgx.ErrNoRows {
			return domain.Spot{}, domain.ErrSpotNotFound
		}
		return domain.Spot{}, wrapErr("get spot", err)
	}
	return s, nil
}

func (r *RecordRepository) GetZone(ctx context.Context, zoneID string) (domain.Zone, error) {
	const query = `
SELECT id, name, description, hourly_rate, currency, created_at
FROM zones
WHERE id = $1`

	var z domain.Zone
	err := r.queryRow(ctx, query, zoneID).
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

func (r *RecordRepository) ListZones(ctx context.Context) ([]domain.Zone, error) {
	const query = `
SELECT id, name, description, hourly_rate, currency, created_at
FROM zones
ORDER BY created_at ASC`

	rows, err := r.query(ctx, query)
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

func (r *RecordRepository) CreateRecord(ctx context.Context, record domain.Record) error {
	const stmt = `
INSERT INTO records (id, license_plate, spot_id, zone_id, entry_time, status, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.exec(ctx, stmt,
		record.ID, record.LicensePlate, record.SpotID, record.ZoneID,
		record.EntryTime, record.Status, record.CreatedAt)
	if err != nil {
		// A second parked record for the same spot trips the partial unique
		// index; the loser of the race sees the spot as occupied.
		if isUniqueViolation(err) {
			return domain.ErrSpotAlreadyOccupied
		}
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return wrapErr("create record", err)
	}
	return nil
}

func (r *RecordRepository) GetRecord(ctx context.Context, id string) (domain.Record, error) {
	return r.getRecord(ctx, id, false)
}

func (r *RecordRepository) GetRecordForUpdate(ctx context.Context, id string) (domain.Record, error) {
	return r.getRecord(ctx, id, true)
}

func (r *RecordRepository) getRecord(ctx context.Context, id string, forUpdate bool) (domain.Record, error) {
	query := fmt.Sprintf(`SELECT %s FROM records WHERE id = $1`, recordColumns)
	if forUpdate {
		query += ` FOR UPDATE`
	}

	rec, err := scanRecord(r.queryRow(ctx, query, id))
	if err != nil {
		if isInvalidUUID(err) {
			return domain.Record{}, domain.ErrInvalidID
		}
		if err == pgx.ErrNoRows {
			return domain.Record{}, domain.ErrRecordNotFound
		}
		return domain.Record{}, wrapErr("get record", err)
	}
	return rec, nil
}

// FinalizeRecord writes the exit fields and the status flip in one
// statement, guarded on the parked status so a record can only be
// finalized once.
func (r *RecordRepository) FinalizeRecord(ctx context.Context, record domain.Record) error {
	const stmt = `
UPDATE records
SET exit_time = $2, status = $3, duration_minutes = $4, fee = $5, currency = $6
WHERE id = $1 AND status = 'parked'`

	tag, err := r.exec(ctx, stmt,
		record.ID, record.ExitTime, record.Status,
		record.DurationMinutes, record.Fee, record.Currency)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return wrapErr("finalize record", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrRecordAlreadyExited
	}
	return nil
}

func (r *RecordRepository) SetSpotOccupied(ctx context.Context, spotID string, occupied bool) error {
	tag, err := r.exec(ctx, `UPDATE spots SET occupied = $2 WHERE id = $1`, spotID, occupied)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return wrapErr("set occupied", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrSpotNotFound
	}
	return nil
}

func (r *RecordRepository) ListActive(ctx context.Context) ([]domain.Record, error) {
	query := fmt.Sprintf(`
SELECT %s FROM records
WHERE status = 'parked'
ORDER BY entry_time ASC`, recordColumns)

	rows, err := r.query(ctx, query)
	if err != nil {
		return nil, wrapErr("list active records", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

func (r *RecordRepository) ListByPlate(ctx context.Context, licensePlate string) ([]domain.Record, error) {
	query := fmt.Sprintf(`
SELECT %s FROM records
WHERE license_plate = $1
ORDER BY entry_time DESC`, recordColumns)

	rows, err := r.query(ctx, query, licensePlate)
	if err != nil {
		return nil, wrapErr("list records by plate", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

// ListRange returns records whose entry time falls within [start, end],
// with optional equality filters and a case-insensitive plate substring
// match. Ordering is newest entry first; callers re-sort as needed.
func (r *RecordRepository) ListRange(ctx context.Context, start, end time.Time, filter app.HistoryFilter) ([]domain.Record, error) {
	query := fmt.Sprintf(`
SELECT %s FROM records
WHERE entry_time >= $1 AND entry_time <= $2`, recordColumns)
	args := []any{start, end}

	if filter.PlateSubstring != "" {
		args = append(args, "%"+filter.PlateSubstring+"%")
		query += fmt.Sprintf(` AND license_plate ILIKE $%d`, len(args))
	}
	if filter.ZoneID != "" {
		args = append(args, filter.ZoneID)
		query += fmt.Sprintf(` AND zone_id = $%d`, len(args))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		query += fmt.Sprintf(` AND status = $%d`, len(args))
	}
	query += ` ORDER BY entry_time DESC`

	rows, err := r.query(ctx, query, args...)
	if err != nil {
		if isInvalidUUID(err) {
			return nil, domain.ErrInvalidID
		}
		return nil, wrapErr("list record history", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

func scanRecord(row pgx.Row) (domain.Record, error) {
	var rec domain.Record
	err := row.Scan(
		&rec.ID, &rec.LicensePlate, &rec.SpotID, &rec.ZoneID,
		&rec.EntryTime, &rec.ExitTime, &rec.Status,
		&rec.DurationMinutes, &rec.Fee, &rec.Currency, &rec.CreatedAt)
	return rec, err
}

func scanRecords(rows pgx.Rows) ([]domain.Record, error) {
	var records []domain.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, wrapErr("scan record", err)
		}
		records = append(records, rec)
	}
	if rows.Err() != nil {
		return nil, wrapErr("iterate records", rows.Err())
	}
	return records, nil
}

func (r *RecordRepository) exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Exec(ctx, sql, args...)
	}
	return r.pool.Exec(ctx, sql, args...)
}

func (r *RecordRepository) query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Query(ctx, sql, args...)
	}
	return r.pool.Query(ctx, sql, args...)
}

func (r *RecordRepository) queryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if tx := txFromContext(ctx); tx != nil {
		return tx.QueryRow(ctx, sql, args...)
	}
	return r.pool.QueryRow(ctx, sql, args...)
}
