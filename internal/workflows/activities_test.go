package workflows

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/samirrijal/orgdirectory/internal/core/domain"
	"github.com/samirrijal/orgdirectory/internal/core/usecases"
)

// memStore backs the building, activity and organization repositories.
type memStore struct {
	mu         sync.Mutex
	buildings  []domain.Building
	activities []domain.Activity
	orgs       []domain.Organization
}

type memBuildings struct{ *memStore }

func (m memBuildings) Create(_ context.Context, b *domain.Building) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b.ID = int64(len(m.buildings) + 1)
	m.buildings = append(m.buildings, *b)
	return nil
}

func (m memBuildings) GetByID(_ context.Context, id int64) (*domain.Building, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range m.buildings {
		if b.ID == id {
			return &b, nil
		}
	}
	return nil, fmt.Errorf("building %d: %w", id, domain.ErrNotFound)
}

func (m memBuildings) List(_ context.Context, offset, limit int) ([]domain.Building, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := len(m.buildings)
	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return append([]domain.Building(nil), m.buildings[offset:end]...), total, nil
}

type memActivities struct{ *memStore }

func (m memActivities) Create(_ context.Context, a *domain.Activity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a.ID = int64(len(m.activities) + 1)
	m.activities = append(m.activities, *a)
	return nil
}

func (m memActivities) GetByID(_ context.Context, id int64) (*domain.Activity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.activities {
		if a.ID == id {
			return &a, nil
		}
	}
	return nil, fmt.Errorf("activity %d: %w", id, domain.ErrNotFound)
}

func (m memActivities) ExistingIDs(_ context.Context, ids []int64) ([]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []int64
	for _, id := range ids {
		if id > 0 && int(id) <= len(m.activities) {
			out = append(out, id)
		}
	}
	return out, nil
}

func (m memActivities) ListAll(context.Context) ([]domain.Activity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.Activity(nil), m.activities...), nil
}

type memOrgs struct{ *memStore }

func (m memOrgs) Create(_ context.Context, org *domain.Organization) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	org.ID = int64(len(m.orgs) + 1)
	m.orgs = append(m.orgs, *org)
	return nil
}

func (m memOrgs) GetByID(_ context.Context, id int64) (*domain.Organization, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.orgs {
		if o.ID == id {
			return &o, nil
		}
	}
	return nil, fmt.Errorf("organization %d: %w", id, domain.ErrNotFound)
}

func (m memOrgs) List(_ context.Context, f domain.OrganizationFilter) ([]domain.Organization, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var match []domain.Organization
	for _, o := range m.orgs {
		if f.Name != "" && !strings.Contains(strings.ToLower(o.Name), strings.ToLower(f.Name)) {
			continue
		}
		if f.BuildingID != 0 && (o.BuildingID == nil || *o.BuildingID != f.BuildingID) {
			continue
		}
		match = append(match, o)
	}
	total := len(match)
	if f.Offset > total {
		f.Offset = total
	}
	end := f.Offset + f.Limit
	if end > total {
		end = total
	}
	return match[f.Offset:end], total, nil
}

func (memOrgs) FindInBounds(context.Context, domain.Bounds) ([]domain.Organization, error) {
	return nil, nil
}

func (memOrgs) FindByAddress(context.Context, string) ([]domain.Organization, error) {
	return nil, nil
}

func (memOrgs) ListLocated(context.Context) ([]domain.Organization, error) {
	return nil, nil
}

func newImportActivities() *ImportActivities {
	store := &memStore{}
	buildings := memBuildings{store}
	acts := usecases.NewActivityService(memActivities{store}, nil, nil, usecases.DepthPolicy{Default: 3})
	return &ImportActivities{
		Buildings:     usecases.NewBuildingService(buildings, nil, nil, nil),
		Activities:    acts,
		Organizations: usecases.NewOrganizationService(memOrgs{store}, buildings, acts, nil, nil, 25),
	}
}

func TestImportActivities_RetryReusesEarlierWrites(t *testing.T) {
	ctx := context.Background()
	a := newImportActivities()

	// First attempts; ctx is not an activity context, so nothing is looked up.
	bin := usecases.BuildingInput{Address: "Москва, Ленина 1", Latitude: f64(55.75), Longitude: f64(37.61)}
	bid, err := a.CreateBuilding(ctx, bin)
	require.NoError(t, err)
	food, err := a.CreateActivity(ctx, usecases.ActivityInput{Name: "Еда"})
	require.NoError(t, err)
	meat, err := a.CreateActivity(ctx, usecases.ActivityInput{Name: "Мясо", ParentID: &food})
	require.NoError(t, err)
	oin := usecases.OrganizationInput{Name: "Рога и Копыта", BuildingID: &bid, ActivityIDs: []int64{meat}}
	oid, err := a.CreateOrganization(ctx, oin)
	require.NoError(t, err)

	// What a retried attempt finds.
	id, ok, err := a.findBuilding(ctx, bin)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, bid, id)

	id, ok, err = a.findActivity(ctx, usecases.ActivityInput{Name: " Мясо ", ParentID: &food})
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, meat, id)

	id, ok, err = a.findOrganization(ctx, oin)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, oid, id)
}

func TestImportActivities_RetryCreatesWhenNothingWritten(t *testing.T) {
	ctx := context.Background()
	a := newImportActivities()

	bid, err := a.CreateBuilding(ctx, usecases.BuildingInput{Address: "Казань, Баумана 5", Latitude: f64(55.79), Longitude: f64(49.12)})
	require.NoError(t, err)
	food, err := a.CreateActivity(ctx, usecases.ActivityInput{Name: "Еда"})
	require.NoError(t, err)
	_, err = a.CreateOrganization(ctx, usecases.OrganizationInput{Name: "Рога и Копыта", BuildingID: &bid})
	require.NoError(t, err)

	// Same address at other coordinates is a different building.
	_, ok, err := a.findBuilding(ctx, usecases.BuildingInput{Address: "Казань, Баумана 5", Latitude: f64(1), Longitude: f64(1)})
	require.NoError(t, err)
	require.False(t, ok)

	// Same name under another parent is a different activity.
	_, ok, err = a.findActivity(ctx, usecases.ActivityInput{Name: "Еда", ParentID: &food})
	require.NoError(t, err)
	require.False(t, ok)

	// Same name without a building is a different organization.
	_, ok, err = a.findOrganization(ctx, usecases.OrganizationInput{Name: "Рога и Копыта"})
	require.NoError(t, err)
	require.False(t, ok)
}

func TestSameID(t *testing.T) {
	zero, one := int64(0), int64(1)
	require.True(t, sameID(nil, nil))
	require.True(t, sameID(nil, &zero))
	require.True(t, sameID(&one, &one))
	require.False(t, sameID(nil, &one))
}
