package app

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/saurabhwebdev/parkd/internal/clock"
	"github.com/saurabhwebdev/parkd/internal/domain"
)

// DefaultCurrency is used when a zone is created without a currency and as
// the baseline for revenue reporting when no zone exists.
const DefaultCurrency = "USD"

type ZoneRepository interface {
	CreateZone(ctx context.Context, zone domain.Zone) error
	GetZone(ctx context.Context, id string) (domain.Zone, error)
	UpdateZone(ctx context.Context, zone domain.Zone) error
	DeleteZone(ctx context.Context, id string) error
	ListZones(ctx context.Context) ([]domain.Zone, error)
}

type ZoneService struct {
	repo  ZoneRepository
	clock clock.Clock
}

func NewZoneService(repo ZoneRepository, clk clock.Clock) *ZoneService {
	return &ZoneService{
		repo:  repo,
		clock: clk,
	}
}

type ZoneInput struct {
	Name        string
	Description string
	HourlyRate  decimal.Decimal
	Currency    string
}

func (in ZoneInput) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return domain.ErrZoneNameRequired
	}
	if !in.HourlyRate.IsPositive() {
		return domain.ErrInvalidHourlyRate
	}
	return nil
}

func (s *ZoneService) CreateZone(ctx context.Context, in ZoneInput) (domain.Zone, error) {
	if err := in.validate(); err != nil {
		return domain.Zone{}, err
	}

	zone := domain.Zone{
		ID:          newID(),
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		HourlyRate:  in.HourlyRate,
		Currency:    normalizeCurrency(in.Currency),
		CreatedAt:   s.clock.Now(),
	}

	if err := s.repo.CreateZone(ctx, zone); err != nil {
		return domain.Zone{}, err
	}
	return zone, nil
}

func (s *ZoneService) UpdateZone(ctx context.Context, id string, in ZoneInput) (domain.Zone, error) {
	if err := in.validate(); err != nil {
		return domain.Zone{}, err
	}

	zone, err := s.repo.GetZone(ctx, id)
	if err != nil {
		return domain.Zone{}, err
	}

	zone.Name = strings.TrimSpace(in.Name)
	zone.Description = in.Description
	zone.HourlyRate = in.HourlyRate
	zone.Currency = normalizeCurrency(in.Currency)

	if err := s.repo.UpdateZone(ctx, zone); err != nil {
		return domain.Zone{}, err
	}
	return zone, nil
}

// DeleteZone removes the zone only. Spots and historical records keep their
// zone reference; readers resolve it as "Unknown Zone".
func (s *ZoneService) DeleteZone(ctx context.Context, id string) error {
	return s.repo.DeleteZone(ctx, id)
}

func (s *ZoneService) GetZone(ctx context.Context, id string) (domain.Zone, error) {
	return s.repo.GetZone(ctx, id)
}

func (s *ZoneService) ListZones(ctx context.Context) ([]domain.Zone, error) {
	return s.repo.ListZones(ctx)
}

func normalizeCurrency(currency string) string {
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "" {
		return DefaultCurrency
	}
	return currency
}
