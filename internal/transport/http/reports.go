package http

import (
	"context"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/saurabhwebdev/parkd/internal/app"
)

// ReportService is the minimal interface needed for report endpoints.
type ReportService interface {
	OccupancyReport(ctx context.Context) (app.OccupancyReport, error)
	DailyRevenue(ctx context.Context, date time.Time) (app.DailyRevenue, error)
}

// HandleOccupancyReport returns an HTTP handler for the facility-wide
// occupancy snapshot.
func HandleOccupancyReport(svc ReportService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report, err := svc.OccupancyReport(r.Context())
		if err != nil {
			writeDomainError(w, err)
			return
		}

		resp := occupancyResponse{
			Total:         report.Total,
			Occupied:      report.Occupied,
			Vacant:        report.Vacant,
			OccupancyRate: report.OccupancyRate,
			ByZone:        make(map[string]zoneOccupancyResponse, len(report.ByZone)),
		}
		for zoneID, zone := range report.ByZone {
			resp.ByZone[zoneID] = zoneOccupancyResponse{
				ZoneName:      zone.ZoneName,
				Total:         zone.Total,
				Occupied:      zone.Occupied,
				Vacant:        zone.Vacant,
				OccupancyRate: zone.OccupancyRate,
			}
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// HandleDailyRevenue returns an HTTP handler for the per-day revenue
// report. ?date= is a date (2006-01-02) and defaults to today.
func HandleDailyRevenue(svc ReportService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		date := time.Now().UTC()
		if raw := r.URL.Query().Get("date"); raw != "" {
			parsed, err := time.Parse(dateLayout, raw)
			if err != nil {
				writeError(w, http.StatusBadRequest, codeInvalidDate, "invalid date, want YYYY-MM-DD")
				return
			}
			date = parsed
		}

		revenue, err := svc.DailyRevenue(r.Context(), date)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, revenueResponse{
			Date:       revenue.Date.Format(dateLayout),
			Total:      revenue.Total,
			Currency:   revenue.Currency,
			ByCurrency: revenue.ByCurrency,
		})
	}
}

type zoneOccupancyResponse struct {
	ZoneName      string  `json:"zone_name"`
	Total         int     `json:"total"`
	Occupied      int     `json:"occupied"`
	Vacant        int     `json:"vacant"`
	OccupancyRate float64 `json:"occupancy_rate"`
}

type occupancyResponse struct {
	Total         int                              `json:"total"`
	Occupied      int                              `json:"occupied"`
	Vacant        int                              `json:"vacant"`
	OccupancyRate float64                          `json:"occupancy_rate"`
	ByZone        map[string]zoneOccupancyResponse `json:"by_zone"`
}

type revenueResponse struct {
	Date       string                     `json:"date"`
	Total      decimal.Decimal            `json:"total"`
	Currency   string                     `json:"currency"`
	ByCurrency map[string]decimal.Decimal `json:"by_currency"`
}
