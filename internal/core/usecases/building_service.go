package usecases

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/samirrijal/orgdirectory/internal/core/domain"
	"github.com/samirrijal/orgdirectory/internal/core/ports"
	"github.com/samirrijal/orgdirectory/internal/pkg/metrics"
)

// BuildingInput is the payload for creating a building. When either
// coordinate is missing the address is geocoded.
type BuildingInput struct {
	Address   string   `json:"address"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

// BuildingService handles building-related business logic.
type BuildingService struct {
	buildings ports.BuildingRepository
	geocoder  ports.Geocoder
	cache     ports.CacheService
	events    ports.EventPublisher
}

// NewBuildingService creates a new BuildingService. geocoder, cache and events may be nil.
func NewBuildingService(buildings ports.BuildingRepository, geocoder ports.Geocoder, cache ports.CacheService, events ports.EventPublisher) *BuildingService {
	return &BuildingService{buildings: buildings, geocoder: geocoder, cache: cache, events: events}
}

// Create validates and stores a building, resolving coordinates from the
// address when they are not supplied.
func (s *BuildingService) Create(ctx context.Context, in BuildingInput) (*domain.Building, error) {
	address := strings.TrimSpace(in.Address)
	if address == "" {
		return nil, fmt.Errorf("%w: address is required", domain.ErrInvalidInput)
	}

	var loc domain.GeoPoint
	if in.Latitude != nil && in.Longitude != nil {
		loc = domain.GeoPoint{Lat: *in.Latitude, Lon: *in.Longitude}
		if !loc.Valid() {
			return nil, fmt.Errorf("%w: latitude must be in [-90, 90] and longitude in [-180, 180]", domain.ErrInvalidInput)
		}
	} else {
		p, err := s.resolve(ctx, address)
		if err != nil {
			return nil, err
		}
		loc = *p
	}

	b := &domain.Building{Address: address, Latitude: loc.Lat, Longitude: loc.Lon}
	if err := s.buildings.Create(ctx, b); err != nil {
		return nil, fmt.Errorf("create building: %w", err)
	}

	metrics.EntitiesCreated.WithLabelValues("building").Inc()
	publish(ctx, s.events, domain.NewEvent(domain.EventBuildingCreated, b.ID, b))
	return b, nil
}

func (s *BuildingService) resolve(ctx context.Context, address string) (*domain.GeoPoint, error) {
	if s.geocoder == nil {
		return nil, fmt.Errorf("%w: latitude and longitude are required", domain.ErrInvalidInput)
	}
	p, err := s.geocoder.Geocode(ctx, address)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("%w: could not resolve coordinates for address", domain.ErrInvalidInput)
	}
	if err != nil {
		return nil, fmt.Errorf("geocode address: %w", err)
	}
	return p, nil
}

// GetByID returns a single building.
func (s *BuildingService) GetByID(ctx context.Context, id int64) (*domain.Building, error) {
	return readThrough(ctx, s.cache, fmt.Sprintf("buildings:id:%d", id), buildingTTL, func() (*domain.Building, error) {
		return s.buildings.GetByID(ctx, id)
	})
}

// List returns a page of buildings ordered by id and the total count.
func (s *BuildingService) List(ctx context.Context, offset, limit int) ([]domain.Building, int, error) {
	offset, limit = clampPage(offset, limit)
	return s.buildings.List(ctx, offset, limit)
}
