package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/saurabhwebdev/parkd/internal/app"
	"github.com/saurabhwebdev/parkd/internal/domain"
)

// ZoneService is the minimal interface needed for zone endpoints.
type ZoneService interface {
	CreateZone(ctx context.Context, in app.ZoneInput) (domain.Zone, error)
	UpdateZone(ctx context.Context, id string, in app.ZoneInput) (domain.Zone, error)
	DeleteZone(ctx context.Context, id string) error
	GetZone(ctx context.Context, id string) (domain.Zone, error)
	ListZones(ctx context.Context) ([]domain.Zone, error)
}

// HandleCreateZone returns an HTTP handler for creating zones.
func HandleCreateZone(svc ZoneService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, ok := decodeZoneRequest(w, r)
		if !ok {
			return
		}

		zone, err := svc.CreateZone(r.Context(), req.toInput())
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, newZoneResponse(zone))
	}
}

// HandleUpdateZone returns an HTTP handler for updating a zone.
func HandleUpdateZone(svc ZoneService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, ok := decodeZoneRequest(w, r)
		if !ok {
			return
		}

		zone, err := svc.UpdateZone(r.Context(), chi.URLParam(r, "id"), req.toInput())
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, newZoneResponse(zone))
	}
}

// HandleDeleteZone returns an HTTP handler for deleting a zone.
func HandleDeleteZone(svc ZoneService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.DeleteZone(r.Context(), chi.URLParam(r, "id")); err != nil {
			writeDomainError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// HandleGetZone returns an HTTP handler for fetching a single zone.
func HandleGetZone(svc ZoneService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		zone, err := svc.GetZone(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, newZoneResponse(zone))
	}
}

// HandleListZones returns an HTTP handler for listing all zones.
func HandleListZones(svc ZoneService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		zones, err := svc.ListZones(r.Context())
		if err != nil {
			writeDomainError(w, err)
			return
		}
		resp := make([]zoneResponse, 0, len(zones))
		for _, zone := range zones {
			resp = append(resp, newZoneResponse(zone))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

type zoneRequest struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	HourlyRate  decimal.Decimal `json:"hourly_rate"`
	Currency    string          `json:"currency"`
}

func (req zoneRequest) toInput() app.ZoneInput {
	return app.ZoneInput{
		Name:        req.Name,
		Description: req.Description,
		HourlyRate:  req.HourlyRate,
		Currency:    req.Currency,
	}
}

func decodeZoneRequest(w http.ResponseWriter, r *http.Request) (zoneRequest, bool) {
	var req zoneRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
		return zoneRequest{}, false
	}
	return req, true
}

type zoneResponse struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	HourlyRate  decimal.Decimal `json:"hourly_rate"`
	Currency    string          `json:"currency"`
	CreatedAt   time.Time       `json:"created_at"`
}

func newZoneResponse(zone domain.Zone) zoneResponse {
	return zoneResponse{
		ID:          zone.ID,
		Name:        zone.Name,
		Description: zone.Description,
		HourlyRate:  zone.HourlyRate,
		Currency:    zone.Currency,
		CreatedAt:   zone.CreatedAt,
	}
}
