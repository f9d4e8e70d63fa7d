package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/saurabhwebdev/parkd/internal/domain"
)

const (
	codeNotFound             = "not_found"
	codeInvalidRequestBody   = "invalid_request_body"
	codeInvalidDate          = "invalid_date"
	codeInvalidStatus        = "invalid_status"
	codeInvalidSort          = "invalid_sort"
	codeInvalidID            = "invalid_id"
	codeZoneNameRequired     = "zone_name_required"
	codeInvalidHourlyRate    = "invalid_hourly_rate"
	codeSpotNumberRequired   = "spot_number_required"
	codeLicensePlateRequired = "license_plate_required"
	codeZoneMismatch         = "zone_mismatch"
	codeZoneNotFound         = "zone_not_found"
	codeSpotNotFound         = "spot_not_found"
	codeRecordNotFound       = "record_not_found"
	codeSpotAlreadyOccupied  = "spot_already_occupied"
	codeSpotOccupied         = "spot_occupied"
	codeRecordAlreadyExited  = "record_already_exited"
	codeDuplicateSpot        = "duplicate_spot"
	codeInvalidInterval      = "invalid_interval"
	codeStoreUnavailable     = "store_unavailable"
	codeForbidden            = "forbidden"
	codeInternalError        = "internal_error"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	payload, err := json.Marshal(errorResponse{
		Error: msg,
		Code:  code,
	})
	if err != nil {
		_, _ = w.Write([]byte(`{"error":"internal error","code":"internal_error"}`))
		return
	}
	_, _ = w.Write(payload)
}

// writeDomainError translates the engine's error taxonomy into the JSON
// error envelope: validation 400, not found 404, conflicts 409, clock
// anomalies 422, store outages 503.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrZoneNameRequired):
		writeError(w, http.StatusBadRequest, codeZoneNameRequired, err.Error())
	case errors.Is(err, domain.ErrInvalidHourlyRate):
		writeError(w, http.StatusBadRequest, codeInvalidHourlyRate, err.Error())
	case errors.Is(err, domain.ErrSpotNumberRequired):
		writeError(w, http.StatusBadRequest, codeSpotNumberRequired, err.Error())
	case errors.Is(err, domain.ErrLicensePlateRequired):
		writeError(w, http.StatusBadRequest, codeLicensePlateRequired, err.Error())
	case errors.Is(err, domain.ErrZoneMismatch):
		writeError(w, http.StatusBadRequest, codeZoneMismatch, err.Error())
	case errors.Is(err, domain.ErrInvalidID):
		writeError(w, http.StatusBadRequest, codeInvalidID, err.Error())
	case errors.Is(err, domain.ErrZoneNotFound):
		writeError(w, http.StatusNotFound, codeZoneNotFound, err.Error())
	case errors.Is(err, domain.ErrSpotNotFound):
		writeError(w, http.StatusNotFound, codeSpotNotFound, err.Error())
	case errors.Is(err, domain.ErrRecordNotFound):
		writeError(w, http.StatusNotFound, codeRecordNotFound, err.Error())
	case errors.Is(err, domain.ErrSpotAlreadyOccupied):
		writeError(w, http.StatusConflict, codeSpotAlreadyOccupied, err.Error())
	case errors.Is(err, domain.ErrSpotOccupied):
		writeError(w, http.StatusConflict, codeSpotOccupied, err.Error())
	case errors.Is(err, domain.ErrRecordAlreadyExited):
		writeError(w, http.StatusConflict, codeRecordAlreadyExited, err.Error())
	case errors.Is(err, domain.ErrDuplicateSpot):
		writeError(w, http.StatusConflict, codeDuplicateSpot, err.Error())
	case errors.Is(err, domain.ErrInvalidInterval):
		writeError(w, http.StatusUnprocessableEntity, codeInvalidInterval, err.Error())
	case errors.Is(err, domain.ErrStoreUnavailable):
		writeError(w, http.StatusServiceUnavailable, codeStoreUnavailable, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
