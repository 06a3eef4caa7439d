package workflows

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/samirrijal/orgdirectory/internal/core/usecases"
)

// ImportResult reports the ids assigned during an import.
type ImportResult struct {
	Buildings     map[string]int64 `json:"buildings"`
	Activities    map[string]int64 `json:"activities"`
	Organizations []int64          `json:"organizations"`
}

// ImportDirectoryWorkflow creates buildings, then activities parents-first,
// then organizations. The manifest is validated before anything is written.
func ImportDirectoryWorkflow(ctx workflow.Context, m Manifest) (*ImportResult, error) {
	logger := workflow.GetLogger(ctx)

	if err := m.Validate(); err != nil {
		return nil, temporal.NewNonRetryableApplicationError(err.Error(), "InvalidManifest", nil)
	}

	ctx = workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval: time.Second,
			MaximumAttempts: 5,
		},
	})

	var a *ImportActivities
	result := &ImportResult{
		Buildings:  make(map[string]int64, len(m.Buildings)),
		Activities: make(map[string]int64),
	}

	for _, b := range m.Buildings {
		var id int64
		in := usecases.BuildingInput{Address: b.Address, Latitude: b.Latitude, Longitude: b.Longitude}
		if err := workflow.ExecuteActivity(ctx, a.CreateBuilding, in).Get(ctx, &id); err != nil {
			return nil, err
		}
		result.Buildings[b.Key] = id
	}

	for _, p := range m.plan() {
		in := usecases.ActivityInput{Name: p.Name}
		if p.ParentKey != "" {
			parent := result.Activities[p.ParentKey]
			in.ParentID = &parent
		}
		var id int64
		if err := workflow.ExecuteActivity(ctx, a.CreateActivity, in).Get(ctx, &id); err != nil {
			return nil, err
		}
		result.Activities[p.Key] = id
	}

	for _, o := range m.Organizations {
		in := usecases.OrganizationInput{Name: o.Name, PhoneNumbers: o.PhoneNumbers}
		if o.Building != "" {
			bid := result.Buildings[o.Building]
			in.BuildingID = &bid
		}
		for _, k := range o.Activities {
			in.ActivityIDs = append(in.ActivityIDs, result.Activities[k])
		}
		var id int64
		if err := workflow.ExecuteActivity(ctx, a.CreateOrganization, in).Get(ctx, &id); err != nil {
			return nil, err
		}
		result.Organizations = append(result.Organizations, id)
	}

	logger.Info("directory import finished",
		"buildings", len(result.Buildings),
		"activities", len(result.Activities),
		"organizations", len(result.Organizations))
	return result, nil
}
