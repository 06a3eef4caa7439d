package usecases

import (
	"context"

	"github.com/samirrijal/orgdirectory/internal/core/domain"
	"github.com/samirrijal/orgdirectory/internal/core/ports"
)

// StatsService reports directory-wide counts.
type StatsService struct {
	stats ports.StatsRepository
}

// NewStatsService creates a new StatsService.
func NewStatsService(stats ports.StatsRepository) *StatsService {
	return &StatsService{stats: stats}
}

// Get returns current row counts.
func (s *StatsService) Get(ctx context.Context) (*domain.DirectoryStats, error) {
	return s.stats.Stats(ctx)
}
