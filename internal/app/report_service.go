package app

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/saurabhwebdev/parkd/internal/domain"
)

type ReportRepository interface {
	ListZones(ctx context.Context) ([]domain.Zone, error)
	ListAllSpots(ctx context.Context) ([]domain.Spot, error)
	ListExitedBetween(ctx context.Context, start, end time.Time) ([]domain.Record, error)
}

// ReportService serves read-only aggregations over the spot registry and
// the record ledger. It never mutates state.
type ReportService struct {
	repo            ReportRepository
	defaultCurrency string
}

func NewReportService(repo ReportRepository, opts ...ReportServiceOption) *ReportService {
	svc := &ReportService{
		repo:            repo,
		defaultCurrency: DefaultCurrency,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

type ReportServiceOption func(*ReportService)

// WithReportCurrency overrides the baseline currency reported when a day
// has no exited records and no zones exist.
func WithReportCurrency(currency string) ReportServiceOption {
	return func(s *ReportService) {
		if currency != "" {
			s.defaultCurrency = currency
		}
	}
}

type ZoneOccupancy struct {
	ZoneName      string
	Total         int
	Occupied      int
	Vacant        int
	OccupancyRate float64
}

type OccupancyReport struct {
	Total         int
	Occupied      int
	Vacant        int
	OccupancyRate float64
	ByZone        map[string]ZoneOccupancy
}

// OccupancyReport scans all spots once and groups them by zone. Spots whose
// zone has been deleted are reported under "Unknown Zone".
func (s *ReportService) OccupancyReport(ctx context.Context) (OccupancyReport, error) {
	zones, err := s.repo.ListZones(ctx)
	if err != nil {
		return OccupancyReport{}, err
	}
	names := make(map[string]string, len(zones))
	for _, zone := range zones {
		names[zone.ID] = zone.Name
	}

	spots, err := s.repo.ListAllSpots(ctx)
	if err != nil {
		return OccupancyReport{}, err
	}

	report := OccupancyReport{
		Total:  len(spots),
		ByZone: make(map[string]ZoneOccupancy),
	}

	for _, spot := range spots {
		zone := report.ByZone[spot.ZoneID]
		if zone.ZoneName == "" {
			zone.ZoneName = names[spot.ZoneID]
			if zone.ZoneName == "" {
				zone.ZoneName = "Unknown Zone"
			}
		}
		zone.Total++
		if spot.Occupied {
			report.Occupied++
			zone.Occupied++
		} else {
			zone.Vacant++
		}
		report.ByZone[spot.ZoneID] = zone
	}
	report.Vacant = report.Total - report.Occupied

	if report.Total > 0 {
		report.OccupancyRate = float64(report.Occupied) / float64(report.Total) * 100
	}
	for zoneID, zone := range report.ByZone {
		if zone.Total > 0 {
			zone.OccupancyRate = float64(zone.Occupied) / float64(zone.Total) * 100
		}
		report.ByZone[zoneID] = zone
	}

	return report, nil
}

type DailyRevenue struct {
	Date  time.Time
	Total decimal.Decimal
	// Currency is the single reported currency: the one with the largest
	// summed fee among the day's exited records. ByCurrency carries the
	// full breakdown for facilities that mix currencies.
	Currency   string
	ByCurrency map[string]decimal.Decimal
}

// DailyRevenue sums the fees of records exited within the given day.
// With no exited records that day, the currency falls back to the first
// zone's, then to the baseline currency.
func (s *ReportService) DailyRevenue(ctx context.Context, date time.Time) (DailyRevenue, error) {
	start := startOfDay(date)
	end := endOfDay(date)

	records, err := s.repo.ListExitedBetween(ctx, start, end)
	if err != nil {
		return DailyRevenue{}, err
	}

	revenue := DailyRevenue{
		Date:       start,
		Total:      decimal.Zero,
		ByCurrency: make(map[string]decimal.Decimal),
	}

	for _, record := range records {
		if !record.Fee.Valid {
			continue
		}
		currency := s.defaultCurrency
		if record.Currency.Valid && record.Currency.String != "" {
			currency = record.Currency.String
		}
		revenue.Total = revenue.Total.Add(record.Fee.Decimal)
		revenue.ByCurrency[currency] = revenue.ByCurrency[currency].Add(record.Fee.Decimal)
	}

	revenue.Currency = s.primaryCurrency(ctx, revenue.ByCurrency)
	return revenue, nil
}

// primaryCurrency picks the currency with the largest summed fee, breaking
// ties lexicographically so the report is deterministic.
func (s *ReportService) primaryCurrency(ctx context.Context, byCurrency map[string]decimal.Decimal) string {
	if len(byCurrency) == 0 {
		zones, err := s.repo.ListZones(ctx)
		if err == nil && len(zones) > 0 && zones[0].Currency != "" {
			return zones[0].Currency
		}
		return s.defaultCurrency
	}

	primary := ""
	var max decimal.Decimal
	for currency, amount := range byCurrency {
		switch cmp := amount.Cmp(max); {
		case primary == "" || cmp > 0:
			primary, max = currency, amount
		case cmp == 0 && currency < primary:
			primary = currency
		}
	}
	return primary
}
