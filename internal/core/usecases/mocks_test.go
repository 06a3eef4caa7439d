package usecases_test

import (
	"context"
	"fmt"
	"sync"

	"github.com/samirrijal/orgdirectory/internal/core/domain"
)

// --- Mock BuildingRepository ---

type mockBuildingRepo struct {
	createFn  func(ctx context.Context, b *domain.Building) error
	getByIDFn func(ctx context.Context, id int64) (*domain.Building, error)
	listFn    func(ctx context.Context, offset, limit int) ([]domain.Building, int, error)
}

func (m *mockBuildingRepo) Create(ctx context.Context, b *domain.Building) error {
	if m.createFn != nil {
		return m.createFn(ctx, b)
	}
	b.ID = 1
	return nil
}

func (m *mockBuildingRepo) GetByID(ctx context.Context, id int64) (*domain.Building, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, domain.ErrNotFound
}

func (m *mockBuildingRepo) List(ctx context.Context, offset, limit int) ([]domain.Building, int, error) {
	if m.listFn != nil {
		return m.listFn(ctx, offset, limit)
	}
	return nil, 0, nil
}

// --- Mock ActivityRepository ---

type mockActivityRepo struct {
	mu       sync.Mutex
	items    []domain.Activity
	listAllN int
	// afterSnapshot runs once ListAll has read the items, before it returns.
	afterSnapshot func()
}

func newMockActivityRepo(items ...domain.Activity) *mockActivityRepo {
	return &mockActivityRepo{items: items}
}

func (m *mockActivityRepo) Create(ctx context.Context, a *domain.Activity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a.ID = int64(len(m.items) + 1)
	m.items = append(m.items, *a)
	return nil
}

func (m *mockActivityRepo) GetByID(ctx context.Context, id int64) (*domain.Activity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.items {
		if a.ID == id {
			return &a, nil
		}
	}
	return nil, fmt.Errorf("activity %d: %w", id, domain.ErrNotFound)
}

func (m *mockActivityRepo) ExistingIDs(ctx context.Context, ids []int64) ([]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []int64
	for _, id := range ids {
		for _, a := range m.items {
			if a.ID == id {
				out = append(out, id)
				break
			}
		}
	}
	return out, nil
}

func (m *mockActivityRepo) ListAll(ctx context.Context) ([]domain.Activity, error) {
	m.mu.Lock()
	m.listAllN++
	out := append([]domain.Activity(nil), m.items...)
	hook := m.afterSnapshot
	m.afterSnapshot = nil
	m.mu.Unlock()

	if hook != nil {
		hook()
	}
	return out, nil
}

// --- Mock OrganizationRepository ---

type mockOrgRepo struct {
	createFn        func(ctx context.Context, org *domain.Organization) error
	getByIDFn       func(ctx context.Context, id int64) (*domain.Organization, error)
	listFn          func(ctx context.Context, f domain.OrganizationFilter) ([]domain.Organization, int, error)
	findInBoundsFn  func(ctx context.Context, b domain.Bounds) ([]domain.Organization, error)
	findByAddressFn func(ctx context.Context, substr string) ([]domain.Organization, error)
	listLocatedFn   func(ctx context.Context) ([]domain.Organization, error)
}

func (m *mockOrgRepo) Create(ctx context.Context, org *domain.Organization) error {
	if m.createFn != nil {
		return m.createFn(ctx, org)
	}
	org.ID = 1
	return nil
}

func (m *mockOrgRepo) GetByID(ctx context.Context, id int64) (*domain.Organization, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, domain.ErrNotFound
}

func (m *mockOrgRepo) List(ctx context.Context, f domain.OrganizationFilter) ([]domain.Organization, int, error) {
	if m.listFn != nil {
		return m.listFn(ctx, f)
	}
	return nil, 0, nil
}

func (m *mockOrgRepo) FindInBounds(ctx context.Context, b domain.Bounds) ([]domain.Organization, error) {
	if m.findInBoundsFn != nil {
		return m.findInBoundsFn(ctx, b)
	}
	return nil, nil
}

func (m *mockOrgRepo) FindByAddress(ctx context.Context, substr string) ([]domain.Organization, error) {
	if m.findByAddressFn != nil {
		return m.findByAddressFn(ctx, substr)
	}
	return nil, nil
}

func (m *mockOrgRepo) ListLocated(ctx context.Context) ([]domain.Organization, error) {
	if m.listLocatedFn != nil {
		return m.listLocatedFn(ctx)
	}
	return nil, nil
}

// --- Mock Geocoder ---

type mockGeocoder struct {
	geocodeFn func(ctx context.Context, query string) (*domain.GeoPoint, error)
}

func (m *mockGeocoder) Geocode(ctx context.Context, query string) (*domain.GeoPoint, error) {
	if m.geocodeFn != nil {
		return m.geocodeFn(ctx, query)
	}
	return nil, domain.ErrNotFound
}

// --- Mock EventPublisher ---

type mockPublisher struct {
	mu     sync.Mutex
	events []domain.Event
	err    error
}

func (m *mockPublisher) Publish(ctx context.Context, ev domain.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, ev)
	return m.err
}

// --- In-memory CacheService ---

type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemCache() *memCache { return &memCache{data: map[string][]byte{}} }

func (c *memCache) Get(ctx context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	if !ok {
		return nil, fmt.Errorf("miss")
	}
	return v, nil
}

func (c *memCache) Set(ctx context.Context, key string, value []byte, ttlSeconds int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	return nil
}

func (c *memCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

func ptr[T any](v T) *T { return &v }
