package app

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/saurabhwebdev/parkd/internal/domain"
)

// ComputeFee derives the billable duration and fee for a stay.
//
// Duration is rounded up to whole minutes (a 30 second stay bills as one
// minute). The fee bills whole hours, rounded up with a floor of one hour,
// at the given rate. A non-positive interval is a clock anomaly and is
// rejected rather than producing a zero or negative fee.
func ComputeFee(entryTime, exitTime time.Time, hourlyRate decimal.Decimal) (int64, decimal.Decimal, error) {
	if !exitTime.After(entryTime) {
		return 0, decimal.Decimal{}, domain.ErrInvalidInterval
	}

	elapsed := exitTime.Sub(entryTime)
	durationMinutes := int64((elapsed + time.Minute - 1) / time.Minute)

	billedHours := (durationMinutes + 59) / 60
	if billedHours < 1 {
		billedHours = 1
	}

	fee := hourlyRate.Mul(decimal.NewFromInt(billedHours))
	return durationMinutes, fee, nil
}
