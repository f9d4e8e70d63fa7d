package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Zone is a billing grouping of spots sharing an hourly rate and currency.
type Zone struct {
	ID          string
	Name        string
	Description string
	HourlyRate  decimal.Decimal
	Currency    string
	CreatedAt   time.Time
}
