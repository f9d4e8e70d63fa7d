package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/saurabhwebdev/parkd/internal/domain"
)

type SpotRepository struct {
	pool *pgxpool.Pool
}

func NewSpotRepository(pool *pgxpool.Pool) *SpotRepository {
	return &SpotRepository{pool: pool}
}

func (r *SpotRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.pool, fn)
}

func (r *SpotRepository) ZoneExists(ctx context.Context, zoneID string) (bool, error) {
	var exists bool
	err := r.queryRow(ctx, `SELECT EXISTS (SELECT 1 FROM zones WHERE id = $1)`, zoneID).Scan(&exists)
	if err != nil {
		if isInvalidUUID(err) {
			return false, domain.ErrInvalidID
		}
		return false, wrapErr("check zone", err)
	}
	return exists, nil
}

// CreateSpot inserts one spot. Inside a transaction the insert runs under a
// savepoint so a unique-constraint loss during a bulk create does not poison
// the surrounding transaction.
func (r *SpotRepository) CreateSpot(ctx context.Context, spot domain.Spot) error {
	const stmt = `
INSERT INTO spots (id, spot_number, level, section, zone_id, occupied, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`

	args := []any{
		spot.ID, spot.SpotNumber, spot.Level, spot.Section, spot.ZoneID, spot.Occupied, spot.CreatedAt,
	}

	var err error
	if tx := txFromContext(ctx); tx != nil {
		err = execInSavepoint(ctx, tx, stmt, args...)
	} else {
		_, err = r.pool.Exec(ctx, stmt, args...)
	}
	if err != nil {
		if isUniqueViolation(err) {
			return &domain.DuplicateSpotError{SpotNumbers: []string{spot.SpotNumber}}
		}
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return wrapErr("create spot", err)
	}
	return nil
}

func execInSavepoint(ctx context.Context, tx pgx.Tx, stmt string, args ...any) error {
	nested, err := tx.Begin(ctx)
	if err != nil {
		return err
	}
	if _, err := nested.Exec(ctx, stmt, args...); err != nil {
		_ = nested.Rollback(ctx)
		return err
	}
	return nested.Commit(ctx)
}

func (r *SpotRepository) GetSpot(ctx context.Context, id string) (domain.Spot, error) {
	return r.getSpot(ctx, id, false)
}

func (r *SpotRepository) GetSpotForUpdate(ctx context.Context, id string) (domain.Spot, error) {
	return r.getSpot(ctx, id, true)
}

func (r *SpotRepository) getSpot(ctx context.Context, id string, forUpdate bool) (domain.Spot, error) {
	query := `
SELECT id, spot_number, level, section, zone_id, occupied, created_at
FROM spots
WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	var s domain.Spot
	err := r.queryRow(ctx, query, id).
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

// ListSpots returns all spots, restricted to one zone when zoneID is set.
func (r *SpotRepository) ListSpots(ctx context.Context, zoneID string) ([]domain.Spot, error) {
	query := `
SELECT id, spot_number, level, section, zone_id, occupied, created_at
FROM spots`
	var args []any
	if zoneID != "" {
		query += ` WHERE zone_id = $1`
		args = append(args, zoneID)
	}
	query += ` ORDER BY level, section, spot_number`

	rows, err := r.query(ctx, query, args...)
	if err != nil {
		if isInvalidUUID(err) {
			return nil, domain.ErrInvalidID
		}
		return nil, wrapErr("list spots", err)
	}
	defer rows.Close()

	return scanSpots(rows)
}

// ListSpotNumbersForUpdate locks and returns the existing spot numbers of a
// (zone, level, section) triple, so a bulk duplicate check cannot race a
// concurrent create against the same rows.
func (r *SpotRepository) ListSpotNumbersForUpdate(ctx context.Context, zoneID, level, section string) ([]string, error) {
	const query = `
SELECT spot_number
FROM spots
WHERE zone_id = $1 AND level = $2 AND section = $3
FOR UPDATE`

	rows, err := r.query(ctx, query, zoneID, level, section)
	if err != nil {
		if isInvalidUUID(err) {
			return nil, domain.ErrInvalidID
		}
		return nil, wrapErr("list spot numbers", err)
	}
	defer rows.Close()

	var numbers []string
	for rows.Next() {
		var number string
		if err := rows.Scan(&number); err != nil {
			return nil, wrapErr("scan spot number", err)
		}
		numbers = append(numbers, number)
	}
	if rows.Err() != nil {
		return nil, wrapErr("iterate spot numbers", rows.Err())
	}
	return numbers, nil
}

func (r *SpotRepository) SetOccupied(ctx context.Context, id string, occupied bool) error {
	tag, err := r.exec(ctx, `UPDATE spots SET occupied = $2 WHERE id = $1`, id, occupied)
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

func (r *SpotRepository) DeleteSpot(ctx context.Context, id string) error {
	tag, err := r.exec(ctx, `DELETE FROM spots WHERE id = $1`, id)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return wrapErr("delete spot", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrSpotNotFound
	}
	return nil
}

func scanSpots(rows pgx.Rows) ([]domain.Spot, error) {
	var spots []domain.Spot
	for rows.Next() {
		var s domain.Spot
		if err := rows.Scan(&s.ID, &s.SpotNumber, &s.Level, &s.Section, &s.ZoneID, &s.Occupied, &s.CreatedAt); err != nil {
			return nil, wrapErr("scan spot", err)
		}
		spots = append(spots, s)
	}
	if rows.Err() != nil {
		return nil, wrapErr("iterate spots", rows.Err())
	}
	return spots, nil
}

func (r *SpotRepository) exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Exec(ctx, sql, args...)
	}
	return r.pool.Exec(ctx, sql, args...)
}

func (r *SpotRepository) query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Query(ctx, sql, args...)
	}
	return r.pool.Query(ctx, sql, args...)
}

func (r *SpotRepository) queryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if tx := txFromContext(ctx); tx != nil {
		return tx.QueryRow(ctx, sql, args...)
	}
	return r.pool.QueryRow(ctx, sql, args...)
}
