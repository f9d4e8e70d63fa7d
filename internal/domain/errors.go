package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrZoneNotFound         = errors.New("zone not found")
	ErrSpotNotFound         = errors.New("spot not found")
	ErrRecordNotFound       = errors.New("record not found")
	ErrZoneNameRequired     = errors.New("zone name required")
	ErrInvalidHourlyRate    = errors.New("hourly rate must be positive")
	ErrSpotNumberRequired   = errors.New("spot number required")
	ErrLicensePlateRequired = errors.New("license plate required")
	ErrZoneMismatch         = errors.New("zone does not match spot")
	ErrSpotAlreadyOccupied  = errors.New("spot already occupied")
	ErrSpotOccupied         = errors.New("spot is occupied")
	ErrRecordAlreadyExited  = errors.New("record already exited")
	ErrDuplicateSpot        = errors.New("duplicate spot")
	ErrInvalidInterval      = errors.New("invalid time interval")
	ErrInvalidID            = errors.New("invalid id")
	ErrStoreUnavailable     = errors.New("store unavailable")
)

// DuplicateSpotError reports the spot numbers that collided during a
// create. It matches ErrDuplicateSpot under errors.Is.
type DuplicateSpotError struct {
	SpotNumbers []string
}

func (e *DuplicateSpotError) Error() string {
	return fmt.Sprintf("duplicate spot: %s", strings.Join(e.SpotNumbers, ", "))
}

func (e *DuplicateSpotError) Is(target error) bool {
	return target == ErrDuplicateSpot
}
