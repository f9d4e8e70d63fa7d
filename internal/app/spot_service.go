package app

import (
	"context"
	"strings"

	"github.com/saurabhwebdev/parkd/internal/clock"
	"github.com/saurabhwebdev/parkd/internal/domain"
)

type SpotRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	ZoneExists(ctx context.Context, zoneID string) (bool, error)
	CreateSpot(ctx context.Context, spot domain.Spot) error
	GetSpot(ctx context.Context, id string) (domain.Spot, error)
	GetSpotForUpdate(ctx context.Context, id string) (domain.Spot, error)
	ListSpots(ctx context.Context, zoneID string) ([]domain.Spot, error)
	ListSpotNumbersForUpdate(ctx context.Context, zoneID, level, section string) ([]string, error)
	SetOccupied(ctx context.Context, id string, occupied bool) error
	DeleteSpot(ctx context.Context, id string) error
}

type SpotService struct {
	repo  SpotRepository
	clock clock.Clock
}

func NewSpotService(repo SpotRepository, clk clock.Clock) *SpotService {
	return &SpotService{
		repo:  repo,
		clock: clk,
	}
}

type CreateSpotInput struct {
	SpotNumber string
	Level      string
	Section    string
	ZoneID     string
	Occupied   bool
}

func (s *SpotService) CreateSpot(ctx context.Context, in CreateSpotInput) (domain.Spot, error) {
	number := strings.TrimSpace(in.SpotNumber)
	if number == "" {
		return domain.Spot{}, domain.ErrSpotNumberRequired
	}

	spot := domain.Spot{
		ID:         newID(),
		SpotNumber: number,
		Level:      in.Level,
		Section:    in.Section,
		ZoneID:     in.ZoneID,
		Occupied:   in.Occupied,
		CreatedAt:  s.clock.Now(),
	}

	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		exists, err := s.repo.ZoneExists(txCtx, in.ZoneID)
		if err != nil {
			return err
		}
		if !exists {
			return domain.ErrZoneNotFound
		}
		return s.repo.CreateSpot(txCtx, spot)
	})
	if err != nil {
		return domain.Spot{}, err
	}
	return spot, nil
}

type BulkCreateSpotsInput struct {
	SpotNumbers []string
	Level       string
	Section     string
	ZoneID      string
}

// BulkSpotResult reports the outcome for one spot number of a bulk create.
// Err is only set for failures past the duplicate check, e.g. a lost race
// against a concurrent single create.
type BulkSpotResult struct {
	SpotNumber string
	Spot       *domain.Spot
	Err        error
}

// CreateSpotsBulk validates the whole batch against the existing spots of
// the (zone, level, section) triple before creating anything: any collision,
// including a duplicate within the batch itself, rejects the entire call and
// persists nothing. Once the check passes, individual create failures are
// reported per spot without aborting the remaining creations.
func (s *SpotService) CreateSpotsBulk(ctx context.Context, in BulkCreateSpotsInput) ([]BulkSpotResult, error) {
	numbers := make([]string, 0, len(in.SpotNumbers))
	for _, raw := range in.SpotNumbers {
		number := strings.TrimSpace(raw)
		if number == "" {
			continue
		}
		numbers = append(numbers, number)
	}
	if len(numbers) == 0 {
		return nil, domain.ErrSpotNumberRequired
	}

	now := s.clock.Now()
	var results []BulkSpotResult

	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		exists, err := s.repo.ZoneExists(txCtx, in.ZoneID)
		if err != nil {
			return err
		}
		if !exists {
			return domain.ErrZoneNotFound
		}

		existing, err := s.repo.ListSpotNumbersForUpdate(txCtx, in.ZoneID, in.Level, in.Section)
		if err != nil {
			return err
		}
		taken := make(map[string]bool, len(existing))
		for _, number := range existing {
			taken[number] = true
		}

		var offenders []string
		seen := make(map[string]bool, len(numbers))
		for _, number := range numbers {
			if taken[number] || seen[number] {
				offenders = append(offenders, number)
			}
			seen[number] = true
		}
		if len(offenders) > 0 {
			return &domain.DuplicateSpotError{SpotNumbers: offenders}
		}

		results = make([]BulkSpotResult, 0, len(numbers))
		for _, number := range numbers {
			spot := domain.Spot{
				ID:         newID(),
				SpotNumber: number,
				Level:      in.Level,
				Section:    in.Section,
				ZoneID:     in.ZoneID,
				CreatedAt:  now,
			}
			if err := s.repo.CreateSpot(txCtx, spot); err != nil {
				results = append(results, BulkSpotResult{SpotNumber: number, Err: err})
				continue
			}
			results = append(results, BulkSpotResult{SpotNumber: number, Spot: &spot})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

// SetOccupied flips the derived occupancy flag. It exists for the record
// ledger; external callers go through entry/exit instead.
func (s *SpotService) SetOccupied(ctx context.Context, id string, occupied bool) error {
	return s.repo.SetOccupied(ctx, id, occupied)
}

func (s *SpotService) DeleteSpot(ctx context.Context, id string) error {
	return s.repo.WithTx(ctx, func(txCtx context.Context) error {
		spot, err := s.repo.GetSpotForUpdate(txCtx, id)
		if err != nil {
			return err
		}
		if spot.Occupied {
			return domain.ErrSpotOccupied
		}
		return s.repo.DeleteSpot(txCtx, id)
	})
}

func (s *SpotService) GetSpot(ctx context.Context, id string) (domain.Spot, error) {
	return s.repo.GetSpot(ctx, id)
}

// ListSpots returns all spots, or only a zone's spots when zoneID is set.
func (s *SpotService) ListSpots(ctx context.Context, zoneID string) ([]domain.Spot, error) {
	return s.repo.ListSpots(ctx, zoneID)
}
