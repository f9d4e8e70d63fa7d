package postgres_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/saurabhwebdev/parkd/internal/app"
	"github.com/saurabhwebdev/parkd/internal/clock"
	"github.com/saurabhwebdev/parkd/internal/domain"
	"github.com/saurabhwebdev/parkd/internal/storage/postgres"
	"github.com/saurabhwebdev/parkd/internal/testutil"
)

func TestSpotService_CreateSpotsBulk_Integration(t *testing.T) {
	pool := testutil.NewTestPool(t)
	ctx := context.Background()
	testutil.ApplyMigrations(t, ctx, pool)
	testutil.TruncateAll(t, ctx, pool)

	zoneID := testutil.InsertZone(t, ctx, pool, "North Garage", decimal.RequireFromString("5.00"), "USD")

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc := app.NewSpotService(postgres.NewSpotRepository(pool), clock.NewFixed(now))

	results, err := svc.CreateSpotsBulk(ctx, app.BulkCreateSpotsInput{
		SpotNumbers: []string{"A-01", "A-02", "A-03"},
		Level:       "1",
		Section:     "A",
		ZoneID:      zoneID,
	})
	if err != nil {
		t.Fatalf("bulk create: %v", err)
	}
	for _, result := range results {
		if result.Err != nil {
			t.Fatalf("expected success for %s, got %v", result.SpotNumber, result.Err)
		}
	}

	var count int
	if err := pool.QueryRow(ctx, `SELECT COUNT(*) FROM spots WHERE zone_id = $1`, zoneID).Scan(&count); err != nil {
		t.Fatalf("count spots: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected 3 spots, got %d", count)
	}

	// A second batch touching an existing number must create nothing.
	_, err = svc.CreateSpotsBulk(ctx, app.BulkCreateSpotsInput{
		SpotNumbers: []string{"A-03", "A-04"},
		Level:       "1",
		Section:     "A",
		ZoneID:      zoneID,
	})
	if !errors.Is(err, domain.ErrDuplicateSpot) {
		t.Fatalf("expected ErrDuplicateSpot, got %v", err)
	}
	if err := pool.QueryRow(ctx, `SELECT COUNT(*) FROM spots WHERE zone_id = $1`, zoneID).Scan(&count); err != nil {
		t.Fatalf("count spots: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected batch rejected atomically, got %d spots", count)
	}

	// Same number on another level is a different spot.
	if _, err := svc.CreateSpot(ctx, app.CreateSpotInput{
		SpotNumber: "A-01",
		Level:      "2",
		Section:    "A",
		ZoneID:     zoneID,
	}); err != nil {
		t.Fatalf("create on another level: %v", err)
	}
}

func TestSpotRepository_DuplicateMapping(t *testing.T) {
	pool := testutil.NewTestPool(t)
	ctx := context.Background()
	testutil.ApplyMigrations(t, ctx, pool)
	testutil.TruncateAll(t, ctx, pool)

	zoneID := testutil.InsertZone(t, ctx, pool, "Lot B", decimal.RequireFromString("3.00"), "USD")
	testutil.InsertSpot(t, ctx, pool, zoneID, "B-01", false)

	repo := postgres.NewSpotRepository(pool)
	err := repo.CreateSpot(ctx, domain.Spot{
		ID:         "1b1b1b1b-1b1b-4b1b-8b1b-1b1b1b1b1b1b",
		SpotNumber: "B-01",
		ZoneID:     zoneID,
		CreatedAt:  time.Now().UTC(),
	})
	if !errors.Is(err, domain.ErrDuplicateSpot) {
		t.Fatalf("expected ErrDuplicateSpot, got %v", err)
	}

	var dup *domain.DuplicateSpotError
	if !errors.As(err, &dup) || len(dup.SpotNumbers) != 1 || dup.SpotNumbers[0] != "B-01" {
		t.Fatalf("unexpected duplicate detail: %v", err)
	}
}
