package app

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/guregu/null.v4"

	"github.com/saurabhwebdev/parkd/internal/clock"
	"github.com/saurabhwebdev/parkd/internal/domain"
)

func TestLedgerService_RecordEntry(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	makeRepo := func() *fakeRecordRepo {
		repo := newFakeRecordRepo()
		repo.zones["zone-1"] = domain.Zone{
			ID:         "zone-1",
			Name:       "North Garage",
			HourlyRate: decimal.RequireFromString("5.00"),
			Currency:   "USD",
		}
		repo.spots["spot-1"] = domain.Spot{ID: "spot-1", SpotNumber: "A-01", ZoneID: "zone-1"}
		return repo
	}

	t.Run("parks a vehicle", func(t *testing.T) {
		repo := makeRepo()
		svc := NewLedgerService(repo, clock.NewFixed(now))

		record, err := svc.RecordEntry(context.Background(), EntryInput{
			LicensePlate: "  abc-123 ",
			SpotID:       "spot-1",
		})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if record.LicensePlate != "ABC-123" {
			t.Fatalf("expected normalized plate, got %q", record.LicensePlate)
		}
		if record.Status != domain.RecordStatusParked {
			t.Fatalf("expected parked, got %s", record.Status)
		}
		if record.ZoneID != "zone-1" {
			t.Fatalf("expected zone derived from spot, got %q", record.ZoneID)
		}
		if !record.EntryTime.Equal(now) {
			t.Fatalf("expected entry_time %v, got %v", now, record.EntryTime)
		}
		if !repo.spots["spot-1"].Occupied {
			t.Fatalf("expected spot marked occupied")
		}
	})

	t.Run("rejects blank plate", func(t *testing.T) {
		svc := NewLedgerService(makeRepo(), clock.NewFixed(now))

		_, err := svc.RecordEntry(context.Background(), EntryInput{
			LicensePlate: "   ",
			SpotID:       "spot-1",
		})
		if !errors.Is(err, domain.ErrLicensePlateRequired) {
			t.Fatalf("expected ErrLicensePlateRequired, got %v", err)
		}
	})

	t.Run("rejects occupied spot", func(t *testing.T) {
		repo := makeRepo()
		spot := repo.spots["spot-1"]
		spot.Occupied = true
		repo.spots["spot-1"] = spot
		svc := NewLedgerService(repo, clock.NewFixed(now))

		_, err := svc.RecordEntry(context.Background(), EntryInput{
			LicensePlate: "ABC-123",
			SpotID:       "spot-1",
		})
		if !errors.Is(err, domain.ErrSpotAlreadyOccupied) {
			t.Fatalf("expected ErrSpotAlreadyOccupied, got %v", err)
		}
		if len(repo.records) != 0 {
			t.Fatalf("expected no record created, got %d", len(repo.records))
		}
	})

	t.Run("rejects zone mismatch", func(t *testing.T) {
		svc := NewLedgerService(makeRepo(), clock.NewFixed(now))

		_, err := svc.RecordEntry(context.Background(), EntryInput{
			LicensePlate: "ABC-123",
			SpotID:       "spot-1",
			ZoneID:       "zone-2",
		})
		if !errors.Is(err, domain.ErrZoneMismatch) {
			t.Fatalf("expected ErrZoneMismatch, got %v", err)
		}
	})

	t.Run("rejects unknown spot", func(t *testing.T) {
		svc := NewLedgerService(makeRepo(), clock.NewFixed(now))

		_, err := svc.RecordEntry(context.Background(), EntryInput{
			LicensePlate: "ABC-123",
			SpotID:       "missing",
		})
		if !errors.Is(err, domain.ErrSpotNotFound) {
			t.Fatalf("expected ErrSpotNotFound, got %v", err)
		}
	})
}

func TestLedgerService_RecordExit(t *testing.T) {
	t.Parallel()

	entry := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	seed := func(repo *fakeRecordRepo) {
		repo.zones["zone-1"] = domain.Zone{
			ID:         "zone-1",
			Name:       "North Garage",
			HourlyRate: decimal.RequireFromString("5.00"),
			Currency:   "EUR",
		}
		repo.spots["spot-1"] = domain.Spot{ID: "spot-1", ZoneID: "zone-1", Occupied: true}
		repo.records["rec-1"] = domain.Record{
			ID:           "rec-1",
			LicensePlate: "ABC-123",
			SpotID:       "spot-1",
			ZoneID:       "zone-1",
			EntryTime:    entry,
			Status:       domain.RecordStatusParked,
		}
	}

	t.Run("finalizes a 47 minute stay", func(t *testing.T) {
		repo := newFakeRecordRepo()
		seed(repo)
		svc := NewLedgerService(repo, clock.NewFixed(entry.Add(47*time.Minute)))

		record, err := svc.RecordExit(context.Background(), "rec-1")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if record.Status != domain.RecordStatusExited {
			t.Fatalf("expected exited, got %s", record.Status)
		}
		if !record.ExitTime.Valid || !record.ExitTime.Time.Equal(entry.Add(47*time.Minute)) {
			t.Fatalf("unexpected exit time: %+v", record.ExitTime)
		}
		if !record.DurationMinutes.Valid || record.DurationMinutes.Int64 != 47 {
			t.Fatalf("expected 47 minutes, got %+v", record.DurationMinutes)
		}
		if !record.Fee.Valid || !record.Fee.Decimal.Equal(decimal.RequireFromString("5.00")) {
			t.Fatalf("expected fee 5.00, got %+v", record.Fee)
		}
		if !record.Currency.Valid || record.Currency.String != "EUR" {
			t.Fatalf("expected currency EUR, got %+v", record.Currency)
		}
		if repo.spots["spot-1"].Occupied {
			t.Fatalf("expected spot freed")
		}
	})

	t.Run("rejects double exit", func(t *testing.T) {
		repo := newFakeRecordRepo()
		seed(repo)
		record := repo.records["rec-1"]
		record.Status = domain.RecordStatusExited
		repo.records["rec-1"] = record
		svc := NewLedgerService(repo, clock.NewFixed(entry.Add(time.Hour)))

		_, err := svc.RecordExit(context.Background(), "rec-1")
		if !errors.Is(err, domain.ErrRecordAlreadyExited) {
			t.Fatalf("expected ErrRecordAlreadyExited, got %v", err)
		}
	})

	t.Run("zone deleted mid-stay falls back to zero rate", func(t *testing.T) {
		repo := newFakeRecordRepo()
		seed(repo)
		delete(repo.zones, "zone-1")
		svc := NewLedgerService(repo, clock.NewFixed(entry.Add(2*time.Hour)), WithDefaultCurrency("GBP"))

		record, err := svc.RecordExit(context.Background(), "rec-1")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !record.Fee.Valid || !record.Fee.Decimal.IsZero() {
			t.Fatalf("expected zero fee, got %+v", record.Fee)
		}
		if record.Currency.String != "GBP" {
			t.Fatalf("expected fallback currency GBP, got %+v", record.Currency)
		}
		if repo.spots["spot-1"].Occupied {
			t.Fatalf("expected spot freed despite missing zone")
		}
	})

	t.Run("unknown record", func(t *testing.T) {
		repo := newFakeRecordRepo()
		seed(repo)
		svc := NewLedgerService(repo, clock.NewFixed(entry.Add(time.Hour)))

		_, err := svc.RecordExit(context.Background(), "missing")
		if !errors.Is(err, domain.ErrRecordNotFound) {
			t.Fatalf("expected ErrRecordNotFound, got %v", err)
		}
	})
}

func TestLedgerService_ListHistory_Sorting(t *testing.T) {
	t.Parallel()

	day := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	exited := domain.Record{
		ID:              "rec-exited",
		LicensePlate:    "AAA-111",
		ZoneID:          "zone-1",
		EntryTime:       day.Add(9 * time.Hour),
		ExitTime:        null.TimeFrom(day.Add(10 * time.Hour)),
		Status:          domain.RecordStatusExited,
		DurationMinutes: null.IntFrom(60),
		Fee:             decimal.NewNullDecimal(decimal.RequireFromString("5.00")),
		Currency:        null.StringFrom("USD"),
	}
	cheap := domain.Record{
		ID:              "rec-cheap",
		LicensePlate:    "BBB-222",
		ZoneID:          "zone-1",
		EntryTime:       day.Add(11 * time.Hour),
		ExitTime:        null.TimeFrom(day.Add(12 * time.Hour)),
		Status:          domain.RecordStatusExited,
		DurationMinutes: null.IntFrom(60),
		Fee:             decimal.NewNullDecimal(decimal.RequireFromString("2.00")),
		Currency:        null.StringFrom("USD"),
	}
	parked := domain.Record{
		ID:           "rec-parked",
		LicensePlate: "CCC-333",
		ZoneID:       "zone-gone",
		EntryTime:    day.Add(10 * time.Hour),
		Status:       domain.RecordStatusParked,
	}

	makeSvc := func() *LedgerService {
		repo := newFakeRecordRepo()
		repo.zones["zone-1"] = domain.Zone{ID: "zone-1", Name: "North Garage"}
		for _, record := range []domain.Record{exited, cheap, parked} {
			repo.records[record.ID] = record
			repo.recordOrder = append(repo.recordOrder, record.ID)
		}
		return NewLedgerService(repo, clock.NewFixed(day))
	}

	t.Run("absent fee sorts last ascending", func(t *testing.T) {
		records, err := makeSvc().ListHistory(context.Background(), HistoryQuery{
			Start: day, End: day, Sort: SortByFee,
		})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		assertOrder(t, records, "rec-cheap", "rec-exited", "rec-parked")
	})

	t.Run("absent fee sorts first descending", func(t *testing.T) {
		records, err := makeSvc().ListHistory(context.Background(), HistoryQuery{
			Start: day, End: day, Sort: SortByFee, Desc: true,
		})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		assertOrder(t, records, "rec-parked", "rec-exited", "rec-cheap")
	})

	t.Run("defaults to entry time ascending", func(t *testing.T) {
		records, err := makeSvc().ListHistory(context.Background(), HistoryQuery{
			Start: day, End: day,
		})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		assertOrder(t, records, "rec-exited", "rec-parked", "rec-cheap")
	})

	t.Run("zone sort resolves deleted zones as Unknown Zone", func(t *testing.T) {
		// "North Garage" < "Unknown Zone", so the dangling record lands last.
		records, err := makeSvc().ListHistory(context.Background(), HistoryQuery{
			Start: day, End: day, Sort: SortByZone,
		})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if records[len(records)-1].ID != "rec-parked" {
			t.Fatalf("expected dangling zone record last, got %s", records[len(records)-1].ID)
		}
	})

	t.Run("range excludes other days", func(t *testing.T) {
		records, err := makeSvc().ListHistory(context.Background(), HistoryQuery{
			Start: day.AddDate(0, 0, 1), End: day.AddDate(0, 0, 1),
		})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(records) != 0 {
			t.Fatalf("expected no records, got %d", len(records))
		}
	})
}

func TestLedgerService_ListByPlate(t *testing.T) {
	t.Parallel()

	repo := newFakeRecordRepo()
	repo.records["rec-1"] = domain.Record{ID: "rec-1", LicensePlate: "ABC-123"}
	repo.recordOrder = append(repo.recordOrder, "rec-1")
	svc := NewLedgerService(repo, clock.NewFixed(time.Now()))

	records, err := svc.ListByPlate(context.Background(), " abc-123 ")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}

	if _, err := svc.ListByPlate(context.Background(), "  "); !errors.Is(err, domain.ErrLicensePlateRequired) {
		t.Fatalf("expected ErrLicensePlateRequired, got %v", err)
	}
}

func assertOrder(t *testing.T, records []domain.Record, want ...string) {
	t.Helper()
	if len(records) != len(want) {
		t.Fatalf("expected %d records, got %d", len(want), len(records))
	}
	for i, id := range want {
		if records[i].ID != id {
			t.Fatalf("position %d: expected %s, got %s", i, id, records[i].ID)
		}
	}
}

type fakeRecordRepo struct {
	zones       map[string]domain.Zone
	spots       map[string]domain.Spot
	records     map[string]domain.Record
	recordOrder []string
}

func newFakeRecordRepo() *fakeRecordRepo {
	return &fakeRecordRepo{
		zones:   make(map[string]domain.Zone),
		spots:   make(map[string]domain.Spot),
		records: make(map[string]domain.Record),
	}
}

func (f *fakeRecordRepo) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (f *fakeRecordRepo) GetSpotForUpdate(_ context.Context, spotID string) (domain.Spot, error) {
	spot, ok := f.spots[spotID]
	if !ok {
		return domain.Spot{}, domain.ErrSpotNotFound
	}
	return spot, nil
}

func (f *fakeRecordRepo) GetZone(_ context.Context, zoneID string) (domain.Zone, error) {
	zone, ok := f.zones[zoneID]
	if !ok {
		return domain.Zone{}, domain.ErrZoneNotFound
	}
	return zone, nil
}

func (f *fakeRecordRepo) ListZones(_ context.Context) ([]domain.Zone, error) {
	out := make([]domain.Zone, 0, len(f.zones))
	for _, zone := range f.zones {
		out = append(out, zone)
	}
	return out, nil
}

func (f *fakeRecordRepo) CreateRecord(_ context.Context, record domain.Record) error {
	f.records[record.ID] = record
	f.recordOrder = append(f.recordOrder, record.ID)
	return nil
}

func (f *fakeRecordRepo) GetRecord(_ context.Context, id string) (domain.Record, error) {
	record, ok := f.records[id]
	if !ok {
		return domain.Record{}, domain.ErrRecordNotFound
	}
	return record, nil
}

func (f *fakeRecordRepo) GetRecordForUpdate(ctx context.Context, id string) (domain.Record, error) {
	return f.GetRecord(ctx, id)
}

func (f *fakeRecordRepo) FinalizeRecord(_ context.Context, record domain.Record) error {
	existing, ok := f.records[record.ID]
	if !ok {
		return domain.ErrRecordNotFound
	}
	if existing.Status == domain.RecordStatusExited {
		return domain.ErrRecordAlreadyExited
	}
	f.records[record.ID] = record
	return nil
}

func (f *fakeRecordRepo) SetSpotOccupied(_ context.Context, spotID string, occupied bool) error {
	spot, ok := f.spots[spotID]
	if !ok {
		return domain.ErrSpotNotFound
	}
	spot.Occupied = occupied
	f.spots[spotID] = spot
	return nil
}

func (f *fakeRecordRepo) ListActive(_ context.Context) ([]domain.Record, error) {
	var out []domain.Record
	for _, id := range f.recordOrder {
		if record, ok := f.records[id]; ok && record.Status == domain.RecordStatusParked {
			out = append(out, record)
		}
	}
	return out, nil
}

func (f *fakeRecordRepo) ListByPlate(_ context.Context, licensePlate string) ([]domain.Record, error) {
	var out []domain.Record
	for _, id := range f.recordOrder {
		if record, ok := f.records[id]; ok && record.LicensePlate == licensePlate {
			out = append(out, record)
		}
	}
	return out, nil
}

func (f *fakeRecordRepo) ListRange(_ context.Context, start, end time.Time, filter HistoryFilter) ([]domain.Record, error) {
	var out []domain.Record
	for _, id := range f.recordOrder {
		record, ok := f.records[id]
		if !ok {
			continue
		}
		if record.EntryTime.Before(start) || record.EntryTime.After(end) {
			continue
		}
		if filter.PlateSubstring != "" && !strings.Contains(record.LicensePlate, strings.ToUpper(filter.PlateSubstring)) {
			continue
		}
		if filter.ZoneID != "" && record.ZoneID != filter.ZoneID {
			continue
		}
		if filter.Status != "" && record.Status != filter.Status {
			continue
		}
		out = append(out, record)
	}
	return out, nil
}
