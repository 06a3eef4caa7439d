package usecases

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/samirrijal/orgdirectory/internal/core/domain"
	"github.com/samirrijal/orgdirectory/internal/core/ports"
	"github.com/samirrijal/orgdirectory/internal/pkg/geospatial"
	"github.com/samirrijal/orgdirectory/internal/pkg/metrics"
)

var tracer = otel.Tracer("github.com/samirrijal/orgdirectory/internal/core/usecases")

const (
	defaultSearchLimit = 100
	maxSearchLimit     = 500
)

// OrganizationInput is the payload for creating an organization.
type OrganizationInput struct {
	Name         string   `json:"name"`
	PhoneNumbers []string `json:"phone_numbers"`
	BuildingID   *int64   `json:"building_id"`
	ActivityIDs  []int64  `json:"activity_ids"`
}

// OrganizationService handles organization business logic and search.
type OrganizationService struct {
	orgs         ports.OrganizationRepository
	buildings    ports.BuildingRepository
	activities   *ActivityService
	geocoder     ports.Geocoder
	events       ports.EventPublisher
	cityRadiusKm float64
}

// NewOrganizationService creates a new OrganizationService. geocoder and
// events may be nil; cityRadiusKm is the radius applied to geocoded city
// searches that do not give one.
func NewOrganizationService(
	orgs ports.OrganizationRepository,
	buildings ports.BuildingRepository,
	activities *ActivityService,
	geocoder ports.Geocoder,
	events ports.EventPublisher,
	cityRadiusKm float64,
) *OrganizationService {
	return &OrganizationService{
		orgs:         orgs,
		buildings:    buildings,
		activities:   activities,
		geocoder:     geocoder,
		events:       events,
		cityRadiusKm: cityRadiusKm,
	}
}

// Create validates references and stores the organization with its activity links.
func (s *OrganizationService) Create(ctx context.Context, in OrganizationInput) (*domain.Organization, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", domain.ErrInvalidInput)
	}

	org := &domain.Organization{
		Name:         name,
		PhoneNumbers: domain.SplitPhones(domain.JoinPhones(in.PhoneNumbers)),
	}

	if in.BuildingID != nil && *in.BuildingID != 0 {
		id := *in.BuildingID
		if id < 0 {
			return nil, fmt.Errorf("%w: building_id must be a positive integer", domain.ErrInvalidInput)
		}
		b, err := s.buildings.GetByID(ctx, id)
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: building with id=%d does not exist", domain.ErrInvalidInput, id)
		}
		if err != nil {
			return nil, fmt.Errorf("lookup building: %w", err)
		}
		org.BuildingID = &id
		org.Building = b
	}

	ids := dedupeIDs(in.ActivityIDs)
	if len(ids) > 0 {
		ok, err := s.activities.AllExist(ctx, ids)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("%w: one or more activities do not exist", domain.ErrInvalidInput)
		}
	}
	org.ActivityIDs = ids

	if err := s.orgs.Create(ctx, org); err != nil {
		return nil, fmt.Errorf("create organization: %w", err)
	}

	metrics.EntitiesCreated.WithLabelValues("organization").Inc()
	publish(ctx, s.events, domain.NewEvent(domain.EventOrganizationCreated, org.ID, org))

	out := []domain.Organization{*org}
	if err := s.render(ctx, out); err != nil {
		return nil, err
	}
	return &out[0], nil
}

// GetByID returns a single organization with its building and activity trees.
func (s *OrganizationService) GetByID(ctx context.Context, id int64) (*domain.Organization, error) {
	org, err := s.orgs.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	out := []domain.Organization{*org}
	if err := s.render(ctx, out); err != nil {
		return nil, err
	}
	return &out[0], nil
}

// List returns a filtered page of organizations and the total match count.
func (s *OrganizationService) List(ctx context.Context, filter domain.OrganizationFilter) ([]domain.Organization, int, error) {
	filter.Name = strings.TrimSpace(filter.Name)
	filter.Offset, filter.Limit = clampPage(filter.Offset, filter.Limit)

	orgs, total, err := s.orgs.List(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	if err := s.render(ctx, orgs); err != nil {
		return nil, 0, err
	}
	return orgs, total, nil
}

// ListByBuilding returns a page of organizations located in a building.
// It reports domain.ErrNotFound when the building does not exist.
func (s *OrganizationService) ListByBuilding(ctx context.Context, buildingID int64, offset, limit int) ([]domain.Organization, int, error) {
	if _, err := s.buildings.GetByID(ctx, buildingID); err != nil {
		return nil, 0, err
	}
	return s.List(ctx, domain.OrganizationFilter{BuildingID: buildingID, Offset: offset, Limit: limit})
}

// Search finds located organizations matching every complete criterion of q:
// the bounding box, the radius around a base point and the address substring.
// Results with a base point carry their distance and are ordered by it.
func (s *OrganizationService) Search(ctx context.Context, q domain.SearchQuery) ([]domain.Organization, error) {
	ctx, span := tracer.Start(ctx, "OrganizationService.Search")
	defer span.End()

	city := strings.TrimSpace(q.City)
	base, radius := q.Base, q.RadiusKm

	if r := q.RadiusKm; r != nil && (math.IsNaN(*r) || math.IsInf(*r, 0) || *r < 0) {
		return nil, fmt.Errorf("%w: radius_km must be a non-negative finite number", domain.ErrInvalidInput)
	}
	if q.Base != nil && !q.Base.Valid() {
		return nil, fmt.Errorf("%w: base_lat must be in [-90, 90] and base_lon in [-180, 180]", domain.ErrInvalidInput)
	}
	if b := q.Bounds; b != nil && !b.Finite() {
		return nil, fmt.Errorf("%w: bounding box edges must be finite numbers", domain.ErrInvalidInput)
	}
	if b := q.Bounds; b != nil && (b.MinLat > b.MaxLat || b.MinLon > b.MaxLon) {
		return nil, fmt.Errorf("%w: bounding box minimums must not exceed maximums", domain.ErrInvalidInput)
	}

	mode := "text"
	if q.Geocode {
		if city == "" {
			return nil, fmt.Errorf("%w: geocode requires city", domain.ErrInvalidInput)
		}
		if base != nil {
			return nil, fmt.Errorf("%w: geocode cannot be combined with base_lat and base_lon", domain.ErrInvalidInput)
		}
		p, err := s.geocodeCity(ctx, city)
		if err != nil {
			return nil, err
		}
		base = p
		if radius == nil {
			r := s.cityRadiusKm
			radius = &r
		}
		city = ""
		mode = "geocode"
	}

	hasRadius := base != nil && radius != nil
	hasBounds := q.Bounds != nil
	hasCity := city != ""
	if !hasRadius && !hasBounds && !hasCity {
		return nil, fmt.Errorf("%w: provide city, base_lat with base_lon and radius_km, or min_lat, max_lat, min_lon and max_lon", domain.ErrInvalidInput)
	}
	if mode != "geocode" {
		switch {
		case hasBounds:
			mode = "bbox"
		case hasRadius:
			mode = "radius"
		}
	}
	span.SetAttributes(
		attribute.String("search.mode", mode),
		attribute.Bool("search.bbox", hasBounds),
		attribute.Bool("search.radius", hasRadius),
		attribute.Bool("search.city", hasCity),
	)
	metrics.SearchRequests.WithLabelValues(mode).Inc()

	candidates, err := s.candidates(ctx, q.Bounds, base, radius, city)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	needle := strings.ToLower(city)
	out := make([]domain.Organization, 0, len(candidates))
	for _, org := range candidates {
		if org.Building == nil {
			continue
		}
		loc := org.Building.Location()
		if hasBounds && !q.Bounds.Contains(loc) {
			continue
		}
		if hasRadius {
			d := geospatial.HaversineKm(base.Lat, base.Lon, loc.Lat, loc.Lon)
			if d > *radius {
				continue
			}
			org.Distance = &d
		}
		if hasCity && !strings.Contains(strings.ToLower(org.Building.Address), needle) {
			continue
		}
		out = append(out, org)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if hasRadius && *out[i].Distance != *out[j].Distance {
			return *out[i].Distance < *out[j].Distance
		}
		return out[i].ID < out[j].ID
	})

	limit := q.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	if limit > maxSearchLimit {
		limit = maxSearchLimit
	}
	if len(out) > limit {
		out = out[:limit]
	}

	if err := s.render(ctx, out); err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int("search.results", len(out)))
	metrics.SearchResults.Observe(float64(len(out)))
	return out, nil
}

// candidates narrows the scan in storage. The result is a superset of the
// final answer; Search applies the exact predicates.
func (s *OrganizationService) candidates(ctx context.Context, bounds *domain.Bounds, base *domain.GeoPoint, radius *float64, city string) ([]domain.Organization, error) {
	switch {
	case bounds != nil:
		return s.orgs.FindInBounds(ctx, *bounds)
	case base != nil && radius != nil:
		minLat, minLon, maxLat, maxLon, ok := geospatial.BoundingBox(base.Lat, base.Lon, *radius)
		if !ok {
			return s.orgs.ListLocated(ctx)
		}
		return s.orgs.FindInBounds(ctx, domain.Bounds{MinLat: minLat, MinLon: minLon, MaxLat: maxLat, MaxLon: maxLon})
	default:
		return s.orgs.FindByAddress(ctx, city)
	}
}

func (s *OrganizationService) geocodeCity(ctx context.Context, city string) (*domain.GeoPoint, error) {
	if s.geocoder == nil {
		return nil, fmt.Errorf("%w: geocoding is not configured", domain.ErrInvalidInput)
	}
	p, err := s.geocoder.Geocode(ctx, city)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("%w: could not resolve city %q", domain.ErrInvalidInput, city)
	}
	if err != nil {
		return nil, fmt.Errorf("geocode city: %w", err)
	}
	return p, nil
}

// render replaces activity ids with trees, in place.
func (s *OrganizationService) render(ctx context.Context, orgs []domain.Organization) error {
	if len(orgs) == 0 {
		return nil
	}
	var ids []int64
	for _, org := range orgs {
		ids = append(ids, org.ActivityIDs...)
	}
	forest, err := s.activities.ForestCovering(ctx, ids)
	if err != nil {
		return err
	}
	depth := s.activities.Depth(0)
	for i := range orgs {
		orgs[i].Activities = forest.Trees(orgs[i].ActivityIDs, depth)
		if orgs[i].PhoneNumbers == nil {
			orgs[i].PhoneNumbers = []string{}
		}
	}
	return nil
}

func dedupeIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
