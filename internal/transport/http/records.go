package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"gopkg.in/guregu/null.v4"

	"github.com/saurabhwebdev/parkd/internal/app"
	"github.com/saurabhwebdev/parkd/internal/domain"
)

const dateLayout = "2006-01-02"

// LedgerService is the minimal interface needed for record endpoints.
type LedgerService interface {
	RecordEntry(ctx context.Context, in app.EntryInput) (domain.Record, error)
	RecordExit(ctx context.Context, recordID string) (domain.Record, error)
	GetRecord(ctx context.Context, id string) (domain.Record, error)
	ListActive(ctx context.Context) ([]domain.Record, error)
	ListByPlate(ctx context.Context, licensePlate string) ([]domain.Record, error)
	ListHistory(ctx context.Context, q app.HistoryQuery) ([]domain.Record, error)
}

// HandleRecordEntry returns an HTTP handler for checking a vehicle in.
func HandleRecordEntry(svc LedgerService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req entryRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}

		record, err := svc.RecordEntry(r.Context(), app.EntryInput{
			LicensePlate: req.LicensePlate,
			SpotID:       req.SpotID,
			ZoneID:       req.ZoneID,
		})
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, newRecordResponse(record))
	}
}

// HandleRecordExit returns an HTTP handler for checking a vehicle out. The
// response carries the finalized duration, fee and currency.
func HandleRecordExit(svc LedgerService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		record, err := svc.RecordExit(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, newRecordResponse(record))
	}
}

// HandleGetRecord returns an HTTP handler for fetching a single record.
func HandleGetRecord(svc LedgerService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		record, err := svc.GetRecord(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, newRecordResponse(record))
	}
}

// HandleListActive returns an HTTP handler for listing parked records.
func HandleListActive(svc LedgerService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		records, err := svc.ListActive(r.Context())
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, newRecordsResponse(records))
	}
}

// HandleListByPlate returns an HTTP handler for a vehicle's full history.
func HandleListByPlate(svc LedgerService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		records, err := svc.ListByPlate(r.Context(), chi.URLParam(r, "plate"))
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, newRecordsResponse(records))
	}
}

// HandleListHistory returns an HTTP handler for the filtered, sorted
// history view. start and end are dates (2006-01-02) and default to today;
// end defaults to start when only start is given.
func HandleListHistory(svc LedgerService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()

		start := time.Now().UTC()
		if raw := query.Get("start"); raw != "" {
			parsed, err := time.Parse(dateLayout, raw)
			if err != nil {
				writeError(w, http.StatusBadRequest, codeInvalidDate, "invalid start date, want YYYY-MM-DD")
				return
			}
			start = parsed
		}
		end := start
		if raw := query.Get("end"); raw != "" {
			parsed, err := time.Parse(dateLayout, raw)
			if err != nil {
				writeError(w, http.StatusBadRequest, codeInvalidDate, "invalid end date, want YYYY-MM-DD")
				return
			}
			end = parsed
		}

		var status domain.RecordStatus
		switch raw := query.Get("status"); raw {
		case "":
		case string(domain.RecordStatusParked), string(domain.RecordStatusExited):
			status = domain.RecordStatus(raw)
		default:
			writeError(w, http.StatusBadRequest, codeInvalidStatus, "invalid status, want parked or exited")
			return
		}

		sortField := app.SortByEntryTime
		switch raw := app.SortField(query.Get("sort")); raw {
		case "":
		case app.SortByLicensePlate, app.SortByZone, app.SortByEntryTime,
			app.SortByExitTime, app.SortByDuration, app.SortByFee, app.SortByStatus:
			sortField = raw
		default:
			writeError(w, http.StatusBadRequest, codeInvalidSort, "invalid sort field")
			return
		}

		records, err := svc.ListHistory(r.Context(), app.HistoryQuery{
			Start: start,
			End:   end,
			Filter: app.HistoryFilter{
				PlateSubstring: query.Get("plate"),
				ZoneID:         query.Get("zone_id"),
				Status:         status,
			},
			Sort: sortField,
			Desc: query.Get("dir") == "desc",
		})
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, newRecordsResponse(records))
	}
}

type entryRequest struct {
	LicensePlate string `json:"license_plate"`
	SpotID       string `json:"spot_id"`
	ZoneID       string `json:"zone_id,omitempty"`
}

type recordResponse struct {
	ID              string              `json:"id"`
	LicensePlate    string              `json:"license_plate"`
	SpotID          string              `json:"spot_id"`
	ZoneID          string              `json:"zone_id"`
	EntryTime       time.Time           `json:"entry_time"`
	ExitTime        null.Time           `json:"exit_time"`
	Status          string              `json:"status"`
	DurationMinutes null.Int            `json:"duration_minutes"`
	Fee             decimal.NullDecimal `json:"fee"`
	Currency        null.String         `json:"currency"`
	CreatedAt       time.Time           `json:"created_at"`
}

func newRecordResponse(record domain.Record) recordResponse {
	return recordResponse{
		ID:              record.ID,
		LicensePlate:    record.LicensePlate,
		SpotID:          record.SpotID,
		ZoneID:          record.ZoneID,
		EntryTime:       record.EntryTime,
		ExitTime:        record.ExitTime,
		Status:          string(record.Status),
		DurationMinutes: record.DurationMinutes,
		Fee:             record.Fee,
		Currency:        record.Currency,
		CreatedAt:       record.CreatedAt,
	}
}

func newRecordsResponse(records []domain.Record) []recordResponse {
	resp := make([]recordResponse, 0, len(records))
	for _, record := range records {
		resp = append(resp, newRecordResponse(record))
	}
	return resp
}
