package ports

import (
	"context"

	"github.com/samirrijal/orgdirectory/internal/core/domain"
)

// BuildingRepository persists buildings.
type BuildingRepository interface {
	Create(ctx context.Context, b *domain.Building) error
	GetByID(ctx context.Context, id int64) (*domain.Building, error)
	List(ctx context.Context, offset, limit int) ([]domain.Building, int, error)
}

// ActivityRepository persists the activity taxonomy.
type ActivityRepository interface {
	Create(ctx context.Context, a *domain.Activity) error
	GetByID(ctx context.Context, id int64) (*domain.Activity, error)
	// ExistingIDs returns the subset of ids that exist.
	ExistingIDs(ctx context.Context, ids []int64) ([]int64, error)
	// ListAll returns every activity, ordered by id.
	ListAll(ctx context.Context) ([]domain.Activity, error)
}

// OrganizationRepository persists organizations and their activity links.
// Returned organizations carry their building (when set) and ActivityIDs;
// the service layer renders the activity trees.
type OrganizationRepository interface {
	// Create inserts the organization and its activity links atomically.
	Create(ctx context.Context, org *domain.Organization) error
	GetByID(ctx context.Context, id int64) (*domain.Organization, error)
	List(ctx context.Context, filter domain.OrganizationFilter) ([]domain.Organization, int, error)
	// FindInBounds returns organizations whose building lies inside b.
	FindInBounds(ctx context.Context, b domain.Bounds) ([]domain.Organization, error)
	// FindByAddress returns organizations whose building address contains
	// substr, compared case-insensitively.
	FindByAddress(ctx context.Context, substr string) ([]domain.Organization, error)
	// ListLocated returns every organization that has a building.
	ListLocated(ctx context.Context) ([]domain.Organization, error)
}

// StatsRepository reports directory row counts.
type StatsRepository interface {
	Stats(ctx context.Context) (*domain.DirectoryStats, error)
}
