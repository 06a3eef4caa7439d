package ports

import (
	"context"

	"github.com/samirrijal/orgdirectory/internal/core/domain"
)

// EventPublisher publishes domain events to a message broker.
type EventPublisher interface {
	Publish(ctx context.Context, event domain.Event) error
}

// CacheService provides read-through caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}

// Geocoder resolves free-form addresses to coordinates.
// It returns domain.ErrNotFound when the address has no match.
type Geocoder interface {
	Geocode(ctx context.Context, query string) (*domain.GeoPoint, error)
}
