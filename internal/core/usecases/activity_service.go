package usecases

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"

	"github.com/samirrijal/orgdirectory/internal/core/domain"
	"github.com/samirrijal/orgdirectory/internal/core/ports"
	"github.com/samirrijal/orgdirectory/internal/pkg/metrics"
)

const catalogCacheKey = "activities:all"

// ActivityInput is the payload for creating an activity.
type ActivityInput struct {
	Name     string `json:"name"`
	ParentID *int64 `json:"parent_id"`
}

// ActivityService handles the activity taxonomy.
type ActivityService struct {
	activities ports.ActivityRepository
	cache      ports.CacheService
	events     ports.EventPublisher
	depth      DepthPolicy

	// generation advances on every create so a catalog load that raced a
	// create is not written back to the cache.
	generation atomic.Uint64
}

// NewActivityService creates a new ActivityService. cache and events may be nil.
func NewActivityService(activities ports.ActivityRepository, cache ports.CacheService, events ports.EventPublisher, depth DepthPolicy) *ActivityService {
	return &ActivityService{activities: activities, cache: cache, events: events, depth: depth}
}

// Depth returns the effective render depth for a requested value.
func (s *ActivityService) Depth(requested int) int {
	return s.depth.Resolve(requested)
}

// Create stores a new activity. A parent, when given, must already exist,
// which keeps the taxonomy acyclic.
func (s *ActivityService) Create(ctx context.Context, in ActivityInput) (*domain.ActivityNode, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", domain.ErrInvalidInput)
	}

	if in.ParentID != nil {
		if *in.ParentID <= 0 {
			return nil, fmt.Errorf("%w: parent_id must be a positive integer", domain.ErrInvalidInput)
		}
		if _, err := s.activities.GetByID(ctx, *in.ParentID); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, fmt.Errorf("%w: parent with id=%d does not exist", domain.ErrInvalidInput, *in.ParentID)
			}
			return nil, fmt.Errorf("lookup parent: %w", err)
		}
	}

	a := &domain.Activity{Name: name, ParentID: in.ParentID}
	if err := s.activities.Create(ctx, a); err != nil {
		return nil, fmt.Errorf("create activity: %w", err)
	}

	s.generation.Add(1)
	invalidate(ctx, s.cache, catalogCacheKey)
	metrics.EntitiesCreated.WithLabelValues("activity").Inc()
	publish(ctx, s.events, domain.NewEvent(domain.EventActivityCreated, a.ID, a))

	return &domain.ActivityNode{ID: a.ID, Name: a.Name, Children: []domain.ActivityNode{}}, nil
}

// AllExist reports whether every id in ids names a stored activity.
// ids must not contain duplicates.
func (s *ActivityService) AllExist(ctx context.Context, ids []int64) (bool, error) {
	existing, err := s.activities.ExistingIDs(ctx, ids)
	if err != nil {
		return false, fmt.Errorf("lookup activities: %w", err)
	}
	return len(existing) == len(ids), nil
}

// Forest returns an index over the whole taxonomy.
func (s *ActivityService) Forest(ctx context.Context) (*domain.ActivityForest, error) {
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, catalogCacheKey); err == nil {
			var all []domain.Activity
			if err := json.Unmarshal(data, &all); err == nil {
				return domain.NewActivityForest(all), nil
			}
		}
	}
	return s.reload(ctx)
}

// ForestCovering returns an index that contains every id in ids that
// exists in storage. A cached catalog missing one of them may predate a
// create on another instance, so it is replaced by a fresh load.
func (s *ActivityService) ForestCovering(ctx context.Context, ids []int64) (*domain.ActivityForest, error) {
	forest, err := s.Forest(ctx)
	if err != nil || s.cache == nil {
		return forest, err
	}
	for _, id := range ids {
		if !forest.Has(id) {
			return s.reload(ctx)
		}
	}
	return forest, nil
}

// reload reads the catalog from storage and caches it unless a create
// happened while it was loading.
func (s *ActivityService) reload(ctx context.Context) (*domain.ActivityForest, error) {
	gen := s.generation.Load()
	all, err := s.activities.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load activities: %w", err)
	}
	if s.cache != nil && s.generation.Load() == gen {
		if data, err := json.Marshal(all); err == nil {
			if err := s.cache.Set(ctx, catalogCacheKey, data, catalogTTL); err != nil {
				slog.Debug("cache set failed", "key", catalogCacheKey, "error", err)
			}
		}
	}
	return domain.NewActivityForest(all), nil
}

// GetTree renders the subtree rooted at id.
func (s *ActivityService) GetTree(ctx context.Context, id int64, depth int) (*domain.ActivityNode, error) {
	forest, err := s.ForestCovering(ctx, []int64{id})
	if err != nil {
		return nil, err
	}
	node, ok := forest.Tree(id, s.Depth(depth))
	if !ok {
		return nil, fmt.Errorf("activity %d: %w", id, domain.ErrNotFound)
	}
	return &node, nil
}

// ListTrees renders a page of activities as trees. With rootsOnly only
// top-level activities are listed; otherwise every activity is, each with
// its own subtree.
func (s *ActivityService) ListTrees(ctx context.Context, depth int, rootsOnly bool, offset, limit int) ([]domain.ActivityNode, int, error) {
	forest, err := s.Forest(ctx)
	if err != nil {
		return nil, 0, err
	}

	ids := forest.IDs()
	if rootsOnly {
		ids = forest.Roots()
	}
	total := len(ids)

	offset, limit = clampPage(offset, limit)
	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return forest.Trees(ids[offset:end], s.Depth(depth)), total, nil
}
