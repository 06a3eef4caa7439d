package usecases

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/samirrijal/orgdirectory/internal/core/domain"
	"github.com/samirrijal/orgdirectory/internal/core/ports"
)

// Cache TTLs in seconds.
const (
	buildingTTL = 600
	catalogTTL  = 300
)

// readThrough returns the cached value for key, or calls load and caches its
// result. A nil cache or any cache failure degrades to calling load.
func readThrough[T any](ctx context.Context, cache ports.CacheService, key string, ttl int, load func() (T, error)) (T, error) {
	if cache != nil {
		if data, err := cache.Get(ctx, key); err == nil {
			var v T
			if err := json.Unmarshal(data, &v); err == nil {
				return v, nil
			}
		}
	}

	v, err := load()
	if err != nil {
		return v, err
	}

	if cache != nil {
		if data, err := json.Marshal(v); err == nil {
			if err := cache.Set(ctx, key, data, ttl); err != nil {
				slog.Debug("cache set failed", "key", key, "error", err)
			}
		}
	}
	return v, nil
}

func invalidate(ctx context.Context, cache ports.CacheService, key string) {
	if cache == nil {
		return
	}
	if err := cache.Delete(ctx, key); err != nil {
		slog.Warn("cache invalidation failed", "key", key, "error", err)
	}
}

// publish emits a directory event. Publishing is best effort: a broker outage
// never fails the write that produced the event.
func publish(ctx context.Context, events ports.EventPublisher, ev domain.Event) {
	if events == nil {
		return
	}
	if err := events.Publish(ctx, ev); err != nil {
		slog.Warn("event publish failed", "type", ev.Type, "entity_id", ev.EntityID, "error", err)
	}
}
