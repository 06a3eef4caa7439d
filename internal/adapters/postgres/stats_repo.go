package postgres

import (
	"context"

	"github.com/samirrijal/orgdirectory/internal/core/domain"
)

// StatsRepo implements ports.StatsRepository.
type StatsRepo struct {
	db *DB
}

func NewStatsRepo(db *DB) *StatsRepo { return &StatsRepo{db: db} }

func (r *StatsRepo) Stats(ctx context.Context) (*domain.DirectoryStats, error) {
	var s domain.DirectoryStats
	err := r.db.Pool.QueryRow(ctx, `
		SELECT (SELECT count(*) FROM buildings),
		       (SELECT count(*) FROM activities),
		       (SELECT count(*) FROM organizations),
		       (SELECT count(*) FROM organization_activities)
	`).Scan(&s.Buildings, &s.Activities, &s.Organizations, &s.Links)
	if err != nil {
		return nil, err
	}
	return &s, nil
}
