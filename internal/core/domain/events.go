package domain

import (
	"time"

	"github.com/google/uuid"
)

// Event types published when directory entities are created.
const (
	EventBuildingCreated     = "building.created"
	EventActivityCreated     = "activity.created"
	EventOrganizationCreated = "organization.created"
)

// Event is a directory change notification.
type Event struct {
	ID       string    `json:"id"`
	Type     string    `json:"type"`
	EntityID int64     `json:"entity_id"`
	Time     time.Time `json:"time"`
	Payload  any       `json:"payload,omitempty"`
}

// NewEvent stamps a new event with a random id and the current UTC time.
func NewEvent(eventType string, entityID int64, payload any) Event {
	return Event{
		ID:       uuid.New().String(),
		Type:     eventType,
		EntityID: entityID,
		Time:     time.Now().UTC(),
		Payload:  payload,
	}
}
