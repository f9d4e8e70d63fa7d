package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/saurabhwebdev/parkd/internal/app"
	"github.com/saurabhwebdev/parkd/internal/domain"
)

// SpotService is the minimal interface needed for spot endpoints.
type SpotService interface {
	CreateSpot(ctx context.Context, in app.CreateSpotInput) (domain.Spot, error)
	CreateSpotsBulk(ctx context.Context, in app.BulkCreateSpotsInput) ([]app.BulkSpotResult, error)
	DeleteSpot(ctx context.Context, id string) error
	GetSpot(ctx context.Context, id string) (domain.Spot, error)
	ListSpots(ctx context.Context, zoneID string) ([]domain.Spot, error)
}

// HandleCreateSpot returns an HTTP handler for creating a single spot.
func HandleCreateSpot(svc SpotService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createSpotRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}

		spot, err := svc.CreateSpot(r.Context(), app.CreateSpotInput{
			SpotNumber: req.SpotNumber,
			Level:      req.Level,
			Section:    req.Section,
			ZoneID:     req.ZoneID,
			Occupied:   req.Occupied,
		})
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, newSpotResponse(spot))
	}
}

// HandleCreateSpotsBulk returns an HTTP handler for batch spot creation.
// Any duplicate in the batch rejects the whole call; past that check the
// response reports each spot's outcome individually.
func HandleCreateSpotsBulk(svc SpotService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req bulkCreateSpotsRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}

		results, err := svc.CreateSpotsBulk(r.Context(), app.BulkCreateSpotsInput{
			SpotNumbers: req.SpotNumbers,
			Level:       req.Level,
			Section:     req.Section,
			ZoneID:      req.ZoneID,
		})
		if err != nil {
			writeDomainError(w, err)
			return
		}

		resp := bulkCreateSpotsResponse{
			Created: make([]spotResponse, 0, len(results)),
			Failed:  make([]bulkSpotFailure, 0),
		}
		for _, result := range results {
			if result.Err != nil {
				resp.Failed = append(resp.Failed, bulkSpotFailure{
					SpotNumber: result.SpotNumber,
					Error:      result.Err.Error(),
				})
				continue
			}
			resp.Created = append(resp.Created, newSpotResponse(*result.Spot))
		}

		status := http.StatusCreated
		if len(resp.Failed) > 0 {
			status = http.StatusMultiStatus
		}
		writeJSON(w, status, resp)
	}
}

// HandleDeleteSpot returns an HTTP handler for deleting a vacant spot.
func HandleDeleteSpot(svc SpotService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.DeleteSpot(r.Context(), chi.URLParam(r, "id")); err != nil {
			writeDomainError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// HandleGetSpot returns an HTTP handler for fetching a single spot.
func HandleGetSpot(svc SpotService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		spot, err := svc.GetSpot(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, newSpotResponse(spot))
	}
}

// HandleListSpots returns an HTTP handler for listing spots, optionally
// narrowed to one zone via ?zone_id=.
func HandleListSpots(svc SpotService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		spots, err := svc.ListSpots(r.Context(), r.URL.Query().Get("zone_id"))
		if err != nil {
			writeDomainError(w, err)
			return
		}
		resp := make([]spotResponse, 0, len(spots))
		for _, spot := range spots {
			resp = append(resp, newSpotResponse(spot))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

type createSpotRequest struct {
	SpotNumber string `json:"spot_number"`
	Level      string `json:"level"`
	Section    string `json:"section"`
	ZoneID     string `json:"zone_id"`
	Occupied   bool   `json:"occupied"`
}

type bulkCreateSpotsRequest struct {
	SpotNumbers []string `json:"spot_numbers"`
	Level       string   `json:"level"`
	Section     string   `json:"section"`
	ZoneID      string   `json:"zone_id"`
}

type spotResponse struct {
	ID         string    `json:"id"`
	SpotNumber string    `json:"spot_number"`
	Level      string    `json:"level"`
	Section    string    `json:"section"`
	ZoneID     string    `json:"zone_id"`
	Occupied   bool      `json:"occupied"`
	CreatedAt  time.Time `json:"created_at"`
}

type bulkSpotFailure struct {
	SpotNumber string `json:"spot_number"`
	Error      string `json:"error"`
}

type bulkCreateSpotsResponse struct {
	Created []spotResponse    `json:"created"`
	Failed  []bulkSpotFailure `json:"failed"`
}

func newSpotResponse(spot domain.Spot) spotResponse {
	return spotResponse{
		ID:         spot.ID,
		SpotNumber: spot.SpotNumber,
		Level:      spot.Level,
		Section:    spot.Section,
		ZoneID:     spot.ZoneID,
		Occupied:   spot.Occupied,
		CreatedAt:  spot.CreatedAt,
	}
}
