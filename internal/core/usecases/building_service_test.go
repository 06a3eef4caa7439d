package usecases_test

import (
	"context"
	"errors"
	"testing"

	"github.com/samirrijal/orgdirectory/internal/core/domain"
	"github.com/samirrijal/orgdirectory/internal/core/usecases"
)

func TestBuildingService_Create_WithCoordinates(t *testing.T) {
	var stored *domain.Building
	repo := &mockBuildingRepo{
		createFn: func(ctx context.Context, b *domain.Building) error {
			b.ID = 7
			stored = b
			return nil
		},
	}
	geo := &mockGeocoder{
		geocodeFn: func(ctx context.Context, q string) (*domain.GeoPoint, error) {
			t.Error("geocoder must not be called when coordinates are given")
			return nil, nil
		},
	}
	events := &mockPublisher{}

	svc := usecases.NewBuildingService(repo, geo, nil, events)
	b, err := svc.Create(context.Background(), usecases.BuildingInput{
		Address:   "  Москва, Ленина 1, офис 3 ",
		Latitude:  ptr(55.7558),
		Longitude: ptr(37.6173),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.ID != 7 || stored == nil {
		t.Fatalf("expected building to be stored with id 7, got %+v", b)
	}
	if b.Address != "Москва, Ленина 1, офис 3" {
		t.Errorf("expected trimmed address, got %q", b.Address)
	}
	if len(events.events) != 1 || events.events[0].Type != domain.EventBuildingCreated {
		t.Errorf("expected one building.created event, got %+v", events.events)
	}
}

func TestBuildingService_Create_Geocodes(t *testing.T) {
	geo := &mockGeocoder{
		geocodeFn: func(ctx context.Context, q string) (*domain.GeoPoint, error) {
			return &domain.GeoPoint{Lat: 59.9343, Lon: 30.3351}, nil
		},
	}
	svc := usecases.NewBuildingService(&mockBuildingRepo{}, geo, nil, nil)

	b, err := svc.Create(context.Background(), usecases.BuildingInput{
		Address:  "Санкт-Петербург, Невский проспект, д. 22",
		Latitude: ptr(1.0), // longitude missing, so the address is geocoded
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.Latitude != 59.9343 || b.Longitude != 30.3351 {
		t.Errorf("expected geocoded coordinates, got %f,%f", b.Latitude, b.Longitude)
	}
}

func TestBuildingService_Create_Validation(t *testing.T) {
	svc := usecases.NewBuildingService(&mockBuildingRepo{}, &mockGeocoder{}, nil, nil)

	cases := []struct {
		name string
		in   usecases.BuildingInput
	}{
		{"blank address", usecases.BuildingInput{Address: "   ", Latitude: ptr(1.0), Longitude: ptr(1.0)}},
		{"latitude out of range", usecases.BuildingInput{Address: "x", Latitude: ptr(91.0), Longitude: ptr(1.0)}},
		{"longitude out of range", usecases.BuildingInput{Address: "x", Latitude: ptr(1.0), Longitude: ptr(-181.0)}},
		{"unresolvable address", usecases.BuildingInput{Address: "nowhere"}},
	}
	for _, tc := range cases {
		_, err := svc.Create(context.Background(), tc.in)
		if !errors.Is(err, domain.ErrInvalidInput) {
			t.Errorf("%s: expected ErrInvalidInput, got %v", tc.name, err)
		}
	}
}

func TestBuildingService_Create_NoGeocoder(t *testing.T) {
	svc := usecases.NewBuildingService(&mockBuildingRepo{}, nil, nil, nil)
	_, err := svc.Create(context.Background(), usecases.BuildingInput{Address: "Main St 1"})
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput without geocoder, got %v", err)
	}
}

func TestBuildingService_Create_GeocoderUnavailable(t *testing.T) {
	geo := &mockGeocoder{
		geocodeFn: func(ctx context.Context, q string) (*domain.GeoPoint, error) {
			return nil, domain.ErrUnavailable
		},
	}
	svc := usecases.NewBuildingService(&mockBuildingRepo{}, geo, nil, nil)
	_, err := svc.Create(context.Background(), usecases.BuildingInput{Address: "Main St 1"})
	if !errors.Is(err, domain.ErrUnavailable) {
		t.Errorf("expected ErrUnavailable, got %v", err)
	}
}

func TestBuildingService_GetByID_Cached(t *testing.T) {
	calls := 0
	repo := &mockBuildingRepo{
		getByIDFn: func(ctx context.Context, id int64) (*domain.Building, error) {
			calls++
			return &domain.Building{ID: id, Address: "Main St 1"}, nil
		},
	}
	svc := usecases.NewBuildingService(repo, nil, newMemCache(), nil)

	for i := 0; i < 3; i++ {
		b, err := svc.GetByID(context.Background(), 5)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if b.ID != 5 {
			t.Errorf("expected id 5, got %d", b.ID)
		}
	}
	if calls != 1 {
		t.Errorf("expected 1 repo call, got %d", calls)
	}
}

func TestBuildingService_GetByID_NotFound(t *testing.T) {
	svc := usecases.NewBuildingService(&mockBuildingRepo{}, nil, newMemCache(), nil)
	_, err := svc.GetByID(context.Background(), 404)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestBuildingService_List_ClampLimit(t *testing.T) {
	repo := &mockBuildingRepo{
		listFn: func(ctx context.Context, offset, limit int) ([]domain.Building, int, error) {
			if offset != 0 || limit != 100 {
				t.Errorf("expected offset 0 limit 100, got %d %d", offset, limit)
			}
			return nil, 0, nil
		},
	}
	svc := usecases.NewBuildingService(repo, nil, nil, nil)
	_, _, _ = svc.List(context.Background(), -3, 5000)
}
