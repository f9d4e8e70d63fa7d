package domain

import (
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/guregu/null.v4"
)

type RecordStatus string

const (
	RecordStatusParked RecordStatus = "parked"
	RecordStatusExited RecordStatus = "exited"
)

// Record is one vehicle stay, created at entry and finalized once at exit.
// Records are never deleted; the ledger is append-only. ExitTime,
// DurationMinutes, Fee and Currency stay null until the exit transition
// and are written exactly once, together with the status flip.
type Record struct {
	ID              string
	LicensePlate    string
	SpotID          string
	ZoneID          string
	EntryTime       time.Time
	ExitTime        null.Time
	Status          RecordStatus
	DurationMinutes null.Int
	Fee             decimal.NullDecimal
	Currency        null.String
	CreatedAt       time.Time
}
