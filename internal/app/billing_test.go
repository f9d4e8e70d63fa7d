package app

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/saurabhwebdev/parkd/internal/domain"
)

func TestComputeFee(t *testing.T) {
	t.Parallel()

	entry := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	rate := decimal.RequireFromString("5.00")

	tests := []struct {
		name            string
		exit            time.Time
		rate            decimal.Decimal
		wantMinutes     int64
		wantFee         string
	}{
		{
			name:        "47 minutes bills one hour",
			exit:        entry.Add(47 * time.Minute),
			rate:        rate,
			wantMinutes: 47,
			wantFee:     "5.00",
		},
		{
			name:        "61 minutes bills two hours",
			exit:        entry.Add(61 * time.Minute),
			rate:        rate,
			wantMinutes: 61,
			wantFee:     "10.00",
		},
		{
			name:        "exact hour bills one hour",
			exit:        entry.Add(60 * time.Minute),
			rate:        rate,
			wantMinutes: 60,
			wantFee:     "5.00",
		},
		{
			name:        "ten seconds rounds up to one minute and one hour",
			exit:        entry.Add(10 * time.Second),
			rate:        rate,
			wantMinutes: 1,
			wantFee:     "5.00",
		},
		{
			name:        "partial minute rounds up",
			exit:        entry.Add(60*time.Minute + time.Second),
			rate:        rate,
			wantMinutes: 61,
			wantFee:     "10.00",
		},
		{
			name:        "zero rate yields zero fee",
			exit:        entry.Add(3 * time.Hour),
			rate:        decimal.Zero,
			wantMinutes: 180,
			wantFee:     "0",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			minutes, fee, err := ComputeFee(entry, tc.exit, tc.rate)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if minutes != tc.wantMinutes {
				t.Fatalf("expected %d minutes, got %d", tc.wantMinutes, minutes)
			}
			if want := decimal.RequireFromString(tc.wantFee); !fee.Equal(want) {
				t.Fatalf("expected fee %s, got %s", want, fee)
			}
		})
	}
}

func TestComputeFee_InvalidInterval(t *testing.T) {
	t.Parallel()

	entry := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	rate := decimal.RequireFromString("5.00")

	for _, exit := range []time.Time{entry, entry.Add(-time.Minute)} {
		_, _, err := ComputeFee(entry, exit, rate)
		if !errors.Is(err, domain.ErrInvalidInterval) {
			t.Fatalf("expected ErrInvalidInterval for exit %v, got %v", exit, err)
		}
	}
}
