package domain

import (
	"time"
)

// Building is a physical location that organizations occupy.
type Building struct {
	ID        int64     `json:"id"`
	Address   string    `json:"address"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Location returns the building coordinates as a GeoPoint.
func (b Building) Location() GeoPoint {
	return GeoPoint{Lat: b.Latitude, Lon: b.Longitude}
}

// Activity is a node of the business activity taxonomy. A nil ParentID marks a root.
type Activity struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	ParentID  *int64    `json:"parent_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Organization is a directory entry. PhoneNumbers are stored as a single
// comma-delimited column; see JoinPhones and SplitPhones.
type Organization struct {
	ID           int64          `json:"id"`
	Name         string         `json:"name"`
	PhoneNumbers []string       `json:"phone_numbers"`
	BuildingID   *int64         `json:"-"`
	Building     *Building      `json:"building"`
	ActivityIDs  []int64        `json:"-"`
	Activities   []ActivityNode `json:"activities"`
	Distance     *float64       `json:"distance_km,omitempty"` // computed field
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// OrganizationFilter narrows an organization listing. Zero values are ignored.
type OrganizationFilter struct {
	Name       string
	ActivityID int64
	BuildingID int64
	Offset     int
	Limit      int
}

// SearchQuery is a geographic or textual organization search. A group
// participates only when all of its fields are present.
type SearchQuery struct {
	City     string
	Base     *GeoPoint
	RadiusKm *float64
	Bounds   *Bounds
	Geocode  bool
	Limit    int
}

// DirectoryStats summarises row counts across the directory.
type DirectoryStats struct {
	Buildings     int64 `json:"buildings"`
	Activities    int64 `json:"activities"`
	Organizations int64 `json:"organizations"`
	Links         int64 `json:"organization_activities"`
}
