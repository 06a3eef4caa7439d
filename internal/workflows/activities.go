package workflows

import (
	"context"
	"errors"
	"strings"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"

	"github.com/samirrijal/orgdirectory/internal/core/domain"
	"github.com/samirrijal/orgdirectory/internal/core/usecases"
)

// ImportActivities creates directory entities through the same services the
// HTTP API uses.
type ImportActivities struct {
	Buildings     *usecases.BuildingService
	Activities    *usecases.ActivityService
	Organizations *usecases.OrganizationService
}

// lookupPageSize bounds each page read while looking for an earlier write.
const lookupPageSize = 100

// retrying reports whether an earlier attempt of the running activity may
// already have written its entity.
func retrying(ctx context.Context) bool {
	return activity.IsActivity(ctx) && activity.GetInfo(ctx).Attempt > 1
}

// CreateBuilding stores a building and returns its id. A retried attempt
// first reuses a building with the same address written by an earlier one.
func (a *ImportActivities) CreateBuilding(ctx context.Context, in usecases.BuildingInput) (int64, error) {
	if retrying(ctx) {
		if id, ok, err := a.findBuilding(ctx, in); err != nil || ok {
			return id, err
		}
	}
	b, err := a.Buildings.Create(ctx, in)
	if err != nil {
		return 0, classify(err)
	}
	activity.GetLogger(ctx).Info("building imported", "id", b.ID, "address", b.Address)
	return b.ID, nil
}

// CreateActivity stores an activity and returns its id. A retried attempt
// first reuses an activity with the same name under the same parent.
func (a *ImportActivities) CreateActivity(ctx context.Context, in usecases.ActivityInput) (int64, error) {
	if retrying(ctx) {
		if id, ok, err := a.findActivity(ctx, in); err != nil || ok {
			return id, err
		}
	}
	node, err := a.Activities.Create(ctx, in)
	if err != nil {
		return 0, classify(err)
	}
	activity.GetLogger(ctx).Info("activity imported", "id", node.ID, "name", node.Name)
	return node.ID, nil
}

// CreateOrganization stores an organization and returns its id. A retried
// attempt first reuses an organization with the same name in the same building.
func (a *ImportActivities) CreateOrganization(ctx context.Context, in usecases.OrganizationInput) (int64, error) {
	if retrying(ctx) {
		if id, ok, err := a.findOrganization(ctx, in); err != nil || ok {
			return id, err
		}
	}
	org, err := a.Organizations.Create(ctx, in)
	if err != nil {
		return 0, classify(err)
	}
	activity.GetLogger(ctx).Info("organization imported", "id", org.ID, "name", org.Name)
	return org.ID, nil
}

func (a *ImportActivities) findBuilding(ctx context.Context, in usecases.BuildingInput) (int64, bool, error) {
	address := strings.TrimSpace(in.Address)
	for offset := 0; ; offset += lookupPageSize {
		page, total, err := a.Buildings.List(ctx, offset, lookupPageSize)
		if err != nil {
			return 0, false, err
		}
		for _, b := range page {
			if b.Address != address {
				continue
			}
			if in.Latitude != nil && in.Longitude != nil && (b.Latitude != *in.Latitude || b.Longitude != *in.Longitude) {
				continue
			}
			return b.ID, true, nil
		}
		if len(page) == 0 || offset+len(page) >= total {
			return 0, false, nil
		}
	}
}

func (a *ImportActivities) findActivity(ctx context.Context, in usecases.ActivityInput) (int64, bool, error) {
	name := strings.TrimSpace(in.Name)
	forest, err := a.Activities.Forest(ctx)
	if err != nil {
		return 0, false, err
	}
	for _, id := range forest.IDs() {
		act, _ := forest.Get(id)
		if act.Name == name && sameID(act.ParentID, in.ParentID) {
			return id, true, nil
		}
	}
	return 0, false, nil
}

func (a *ImportActivities) findOrganization(ctx context.Context, in usecases.OrganizationInput) (int64, bool, error) {
	name := strings.TrimSpace(in.Name)
	filter := domain.OrganizationFilter{Name: name, Limit: lookupPageSize}
	if in.BuildingID != nil {
		filter.BuildingID = *in.BuildingID
	}
	for {
		page, total, err := a.Organizations.List(ctx, filter)
		if err != nil {
			return 0, false, err
		}
		for _, org := range page {
			if org.Name == name && sameID(org.BuildingID, in.BuildingID) {
				return org.ID, true, nil
			}
		}
		filter.Offset += len(page)
		if len(page) == 0 || filter.Offset >= total {
			return 0, false, nil
		}
	}
}

// sameID compares optional ids, treating nil and 0 as absent.
func sameID(a, b *int64) bool {
	var x, y int64
	if a != nil {
		x = *a
	}
	if b != nil {
		y = *b
	}
	return x == y
}

// classify marks validation failures as non-retryable; everything else is
// left to the retry policy.
func classify(err error) error {
	if errors.Is(err, domain.ErrInvalidInput) || errors.Is(err, domain.ErrNotFound) {
		return temporal.NewNonRetryableApplicationError(err.Error(), "InvalidInput", err)
	}
	return err
}
