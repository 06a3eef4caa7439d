package workflows

import (
	"fmt"
	"strings"
)

// Manifest describes a batch of directory data to import. Buildings and
// activities are referenced from organizations by key.
type Manifest struct {
	Buildings     []BuildingSpec     `yaml:"buildings" json:"buildings"`
	Activities    []ActivitySpec     `yaml:"activities" json:"activities"`
	Organizations []OrganizationSpec `yaml:"organizations" json:"organizations"`
}

// BuildingSpec is a building to create. Missing coordinates are geocoded.
type BuildingSpec struct {
	Key       string   `yaml:"key" json:"key"`
	Address   string   `yaml:"address" json:"address"`
	Latitude  *float64 `yaml:"latitude" json:"latitude,omitempty"`
	Longitude *float64 `yaml:"longitude" json:"longitude,omitempty"`
}

// ActivitySpec is an activity with nested children. Key defaults to Name.
type ActivitySpec struct {
	Key      string         `yaml:"key" json:"key,omitempty"`
	Name     string         `yaml:"name" json:"name"`
	Children []ActivitySpec `yaml:"children" json:"children,omitempty"`
}

// OrganizationSpec is an organization referencing building and activity keys.
type OrganizationSpec struct {
	Name         string   `yaml:"name" json:"name"`
	PhoneNumbers []string `yaml:"phone_numbers" json:"phone_numbers,omitempty"`
	Building     string   `yaml:"building" json:"building,omitempty"`
	Activities   []string `yaml:"activities" json:"activities,omitempty"`
}

// plannedActivity is an activity in creation order; parents precede children.
type plannedActivity struct {
	Key       string
	Name      string
	ParentKey string
}

// plan flattens the activity forest parents-first.
func (m Manifest) plan() []plannedActivity {
	var out []plannedActivity
	var walk func(specs []ActivitySpec, parent string)
	walk = func(specs []ActivitySpec, parent string) {
		for _, s := range specs {
			key := activityKey(s)
			out = append(out, plannedActivity{Key: key, Name: s.Name, ParentKey: parent})
			walk(s.Children, key)
		}
	}
	walk(m.Activities, "")
	return out
}

func activityKey(s ActivitySpec) string {
	if k := strings.TrimSpace(s.Key); k != "" {
		return k
	}
	return strings.TrimSpace(s.Name)
}

// Validate checks keys are unique and every reference resolves.
func (m Manifest) Validate() error {
	var errs []string

	buildings := make(map[string]bool, len(m.Buildings))
	for i, b := range m.Buildings {
		key := strings.TrimSpace(b.Key)
		switch {
		case key == "":
			errs = append(errs, fmt.Sprintf("buildings[%d]: key is required", i))
		case buildings[key]:
			errs = append(errs, fmt.Sprintf("buildings[%d]: duplicate key %q", i, key))
		}
		if strings.TrimSpace(b.Address) == "" {
			errs = append(errs, fmt.Sprintf("buildings[%d]: address is required", i))
		}
		buildings[key] = true
	}

	activities := make(map[string]bool)
	for _, a := range m.plan() {
		switch {
		case a.Key == "":
			errs = append(errs, "activity: name is required")
		case activities[a.Key]:
			errs = append(errs, fmt.Sprintf("activity: duplicate key %q", a.Key))
		}
		activities[a.Key] = true
	}

	for i, o := range m.Organizations {
		if strings.TrimSpace(o.Name) == "" {
			errs = append(errs, fmt.Sprintf("organizations[%d]: name is required", i))
		}
		if o.Building != "" && !buildings[o.Building] {
			errs = append(errs, fmt.Sprintf("organizations[%d]: unknown building %q", i, o.Building))
		}
		for _, k := range o.Activities {
			if !activities[k] {
				errs = append(errs, fmt.Sprintf("organizations[%d]: unknown activity %q", i, k))
			}
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid manifest:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
