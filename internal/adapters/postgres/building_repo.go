package postgres

import (
	"context"
	"fmt"

	"github.com/samirrijal/orgdirectory/internal/core/domain"
)

// BuildingRepo implements ports.BuildingRepository.
type BuildingRepo struct {
	db *DB
}

func NewBuildingRepo(db *DB) *BuildingRepo {
	return &BuildingRepo{db: db}
}

func (r *BuildingRepo) Create(ctx context.Context, b *domain.Building) error {
	err := r.db.Pool.QueryRow(ctx, `
		INSERT INTO buildings (address, latitude, longitude)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at
	`, b.Address, b.Latitude, b.Longitude).Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert building: %w", err)
	}
	return nil
}

func (r *BuildingRepo) GetByID(ctx context.Context, id int64) (*domain.Building, error) {
	b := &domain.Building{}
	err := r.db.Pool.QueryRow(ctx, `
		SELECT id, address, latitude, longitude, created_at, updated_at
		FROM buildings WHERE id = $1
	`, id).Scan(&b.ID, &b.Address, &b.Latitude, &b.Longitude, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, notFound(err, "building", id)
	}
	return b, nil
}

func (r *BuildingRepo) List(ctx context.Context, offset, limit int) ([]domain.Building, int, error) {
	var total int
	if err := r.db.Pool.QueryRow(ctx, `SELECT count(*) FROM buildings`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count buildings: %w", err)
	}

	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, address, latitude, longitude, created_at, updated_at
		FROM buildings ORDER BY id
		OFFSET $1 LIMIT $2
	`, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	buildings := []domain.Building{}
	for rows.Next() {
		var b domain.Building
		if err := rows.Scan(&b.ID, &b.Address, &b.Latitude, &b.Longitude, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, 0, err
		}
		buildings = append(buildings, b)
	}
	return buildings, total, rows.Err()
}
