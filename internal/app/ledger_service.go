package app

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/guregu/null.v4"

	"github.com/saurabhwebdev/parkd/internal/clock"
	"github.com/saurabhwebdev/parkd/internal/domain"
)

type RecordRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	GetSpotForUpdate(ctx context.Context, spotID string) (domain.Spot, error)
	GetZone(ctx context.Context, zoneID string) (domain.Zone, error)
	ListZones(ctx context.Context) ([]domain.Zone, error)
	CreateRecord(ctx context.Context, record domain.Record) error
	GetRecord(ctx context.Context, id string) (domain.Record, error)
	GetRecordForUpdate(ctx context.Context, id string) (domain.Record, error)
	FinalizeRecord(ctx context.Context, record domain.Record) error
	SetSpotOccupied(ctx context.Context, spotID string, occupied bool) error
	ListActive(ctx context.Context) ([]domain.Record, error)
	ListByPlate(ctx context.Context, licensePlate string) ([]domain.Record, error)
	ListRange(ctx context.Context, start, end time.Time, filter HistoryFilter) ([]domain.Record, error)
}

// LedgerService owns the entry/exit state machine. Both transitions run as
// a single transaction with the spot (entry) or record (exit) row locked,
// so a lost race surfaces as a conflict error instead of a double booking.
type LedgerService struct {
	repo            RecordRepository
	clock           clock.Clock
	defaultCurrency string
}

func NewLedgerService(repo RecordRepository, clk clock.Clock, opts ...LedgerServiceOption) *LedgerService {
	svc := &LedgerService{
		repo:            repo,
		clock:           clk,
		defaultCurrency: DefaultCurrency,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

type LedgerServiceOption func(*LedgerService)

// WithDefaultCurrency overrides the currency used when a record's zone no
// longer exists at exit time.
func WithDefaultCurrency(currency string) LedgerServiceOption {
	return func(s *LedgerService) {
		if currency != "" {
			s.defaultCurrency = currency
		}
	}
}

type EntryInput struct {
	LicensePlate string
	SpotID       string
	// ZoneID is optional. The zone is always re-derived from the spot; a
	// supplied value that disagrees with the spot's zone is rejected.
	ZoneID string
}

func (s *LedgerService) RecordEntry(ctx context.Context, in EntryInput) (domain.Record, error) {
	plate := strings.ToUpper(strings.TrimSpace(in.LicensePlate))
	if plate == "" {
		return domain.Record{}, domain.ErrLicensePlateRequired
	}

	now := s.clock.Now()
	var result domain.Record

	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		spot, err := s.repo.GetSpotForUpdate(txCtx, in.SpotID)
		if err != nil {
			return err
		}
		if in.ZoneID != "" && in.ZoneID != spot.ZoneID {
			return domain.ErrZoneMismatch
		}
		if spot.Occupied {
			return domain.ErrSpotAlreadyOccupied
		}

		if _, err := s.repo.GetZone(txCtx, spot.ZoneID); err != nil {
			return err
		}

		record := domain.Record{
			ID:           newID(),
			LicensePlate: plate,
			SpotID:       spot.ID,
			ZoneID:       spot.ZoneID,
			EntryTime:    now,
			Status:       domain.RecordStatusParked,
			CreatedAt:    now,
		}

		if err := s.repo.CreateRecord(txCtx, record); err != nil {
			return err
		}
		if err := s.repo.SetSpotOccupied(txCtx, spot.ID, true); err != nil {
			return err
		}

		result = record
		return nil
	})
	if err != nil {
		return domain.Record{}, err
	}
	return result, nil
}

// RecordExit finalizes a parked record: exit time, duration, fee and
// currency are written once, atomically with the status flip and the spot
// going vacant. The fee uses the zone's rate at the moment of exit; if the
// zone was deleted mid-stay the exit still completes at a zero rate so the
// record and spot never get stuck.
func (s *LedgerService) RecordExit(ctx context.Context, recordID string) (domain.Record, error) {
	now := s.clock.Now()
	var result domain.Record

	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		record, err := s.repo.GetRecordForUpdate(txCtx, recordID)
		if err != nil {
			return err
		}
		if record.Status == domain.RecordStatusExited {
			return domain.ErrRecordAlreadyExited
		}

		rate := decimal.Zero
		currency := s.defaultCurrency
		zone, err := s.repo.GetZone(txCtx, record.ZoneID)
		switch {
		case err == nil:
			rate = zone.HourlyRate
			currency = zone.Currency
		case errors.Is(err, domain.ErrZoneNotFound):
			// Zone deleted mid-stay: complete the exit at the fallback rate.
		default:
			return err
		}

		durationMinutes, fee, err := ComputeFee(record.EntryTime, now, rate)
		if err != nil {
			return err
		}

		record.ExitTime = null.TimeFrom(now)
		record.Status = domain.RecordStatusExited
		record.DurationMinutes = null.IntFrom(durationMinutes)
		record.Fee = decimal.NewNullDecimal(fee)
		record.Currency = null.StringFrom(currency)

		if err := s.repo.FinalizeRecord(txCtx, record); err != nil {
			return err
		}
		if err := s.repo.SetSpotOccupied(txCtx, record.SpotID, false); err != nil {
			return err
		}

		result = record
		return nil
	})
	if err != nil {
		return domain.Record{}, err
	}
	return result, nil
}

func (s *LedgerService) GetRecord(ctx context.Context, id string) (domain.Record, error) {
	return s.repo.GetRecord(ctx, id)
}

// ListActive returns every record still in the parked state.
func (s *LedgerService) ListActive(ctx context.Context) ([]domain.Record, error) {
	return s.repo.ListActive(ctx)
}

// ListByPlate returns a vehicle's full history, newest entry first.
func (s *LedgerService) ListByPlate(ctx context.Context, licensePlate string) ([]domain.Record, error) {
	plate := strings.ToUpper(strings.TrimSpace(licensePlate))
	if plate == "" {
		return nil, domain.ErrLicensePlateRequired
	}
	return s.repo.ListByPlate(ctx, plate)
}

type HistoryFilter struct {
	PlateSubstring string
	ZoneID         string
	Status         domain.RecordStatus
}

type SortField string

const (
	SortByLicensePlate SortField = "licensePlate"
	SortByZone         SortField = "zone"
	SortByEntryTime    SortField = "entryTime"
	SortByExitTime     SortField = "exitTime"
	SortByDuration     SortField = "durationMinutes"
	SortByFee          SortField = "fee"
	SortByStatus       SortField = "status"
)

type HistoryQuery struct {
	Start  time.Time
	End    time.Time
	Filter HistoryFilter
	Sort   SortField
	Desc   bool
}

// ListHistory returns records whose entry time falls within the query's
// day range, filtered and then sorted. Records missing a sortable field
// (still parked, so no exit time, duration or fee) compare as infinitely
// large: they land last ascending and first descending.
func (s *LedgerService) ListHistory(ctx context.Context, q HistoryQuery) ([]domain.Record, error) {
	start := startOfDay(q.Start)
	end := endOfDay(q.End)

	records, err := s.repo.ListRange(ctx, start, end, q.Filter)
	if err != nil {
		return nil, err
	}

	field := q.Sort
	if field == "" {
		field = SortByEntryTime
	}

	zoneName := func(string) string { return "" }
	if field == SortByZone {
		zones, err := s.repo.ListZones(ctx)
		if err != nil {
			return nil, err
		}
		names := make(map[string]string, len(zones))
		for _, zone := range zones {
			names[zone.ID] = zone.Name
		}
		zoneName = func(zoneID string) string {
			if name, ok := names[zoneID]; ok {
				return name
			}
			return "Unknown Zone"
		}
	}

	sort.SliceStable(records, func(i, j int) bool {
		cmp := compareRecords(records[i], records[j], field, zoneName)
		if q.Desc {
			return cmp > 0
		}
		return cmp < 0
	})

	return records, nil
}

// compareRecords reproduces the history table ordering: absent optional
// fields always compare greater than present ones, independent of the sort
// direction, which negates the result afterwards.
func compareRecords(a, b domain.Record, field SortField, zoneName func(string) string) int {
	switch field {
	case SortByLicensePlate:
		return strings.Compare(a.LicensePlate, b.LicensePlate)
	case SortByZone:
		return strings.Compare(zoneName(a.ZoneID), zoneName(b.ZoneID))
	case SortByEntryTime:
		return a.EntryTime.Compare(b.EntryTime)
	case SortByExitTime:
		if cmp, decided := compareValidity(a.ExitTime.Valid, b.ExitTime.Valid); decided {
			return cmp
		}
		return a.ExitTime.Time.Compare(b.ExitTime.Time)
	case SortByDuration:
		if cmp, decided := compareValidity(a.DurationMinutes.Valid, b.DurationMinutes.Valid); decided {
			return cmp
		}
		switch {
		case a.DurationMinutes.Int64 < b.DurationMinutes.Int64:
			return -1
		case a.DurationMinutes.Int64 > b.DurationMinutes.Int64:
			return 1
		}
		return 0
	case SortByFee:
		if cmp, decided := compareValidity(a.Fee.Valid, b.Fee.Valid); decided {
			return cmp
		}
		return a.Fee.Decimal.Cmp(b.Fee.Decimal)
	case SortByStatus:
		return strings.Compare(string(a.Status), string(b.Status))
	}
	return 0
}

func compareValidity(aValid, bValid bool) (int, bool) {
	switch {
	case !aValid && !bValid:
		return 0, true
	case !aValid:
		return 1, true
	case !bValid:
		return -1, true
	}
	return 0, false
}

func startOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func endOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, int(999*time.Millisecond), time.UTC)
}
