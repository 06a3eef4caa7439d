package postgres

import (
	"context"
	"fmt"

	"github.com/samirrijal/orgdirectory/internal/core/domain"
)

// ActivityRepo implements ports.ActivityRepository.
type ActivityRepo struct {
	db *DB
}

func NewActivityRepo(db *DB) *ActivityRepo { return &ActivityRepo{db: db} }

func (r *ActivityRepo) Create(ctx context.Context, a *domain.Activity) error {
	err := r.db.Pool.QueryRow(ctx, `
		INSERT INTO activities (name, parent_id)
		VALUES ($1, $2)
		RETURNING id, created_at, updated_at
	`, a.Name, a.ParentID).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert activity: %w", err)
	}
	return nil
}

func (r *ActivityRepo) GetByID(ctx context.Context, id int64) (*domain.Activity, error) {
	var a domain.Activity
	err := r.db.Pool.QueryRow(ctx, `
		SELECT id, name, parent_id, created_at, updated_at
		FROM activities WHERE id = $1
	`, id).Scan(&a.ID, &a.Name, &a.ParentID, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, notFound(err, "activity", id)
	}
	return &a, nil
}

func (r *ActivityRepo) ExistingIDs(ctx context.Context, ids []int64) ([]int64, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	rows, err := r.db.Pool.Query(ctx, `SELECT id FROM activities WHERE id = ANY($1) ORDER BY id`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var found []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		found = append(found, id)
	}
	return found, rows.Err()
}

func (r *ActivityRepo) ListAll(ctx context.Context) ([]domain.Activity, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, name, parent_id, created_at, updated_at
		FROM activities ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	activities := []domain.Activity{}
	for rows.Next() {
		var a domain.Activity
		if err := rows.Scan(&a.ID, &a.Name, &a.ParentID, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		activities = append(activities, a)
	}
	return activities, rows.Err()
}
