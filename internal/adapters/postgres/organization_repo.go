package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/samirrijal/orgdirectory/internal/core/domain"
)

// OrganizationRepo implements ports.OrganizationRepository.
type OrganizationRepo struct {
	db *DB
}

// NewOrganizationRepo creates a new OrganizationRepo.
func NewOrganizationRepo(db *DB) *OrganizationRepo {
	return &OrganizationRepo{db: db}
}

// selectOrganizations joins each organization with its building and its
// aggregated activity ids. Callers append WHERE clauses on o and b.
const selectOrganizations = `
	SELECT o.id, o.name, o.phone_numbers, o.created_at, o.updated_at,
	       b.id, b.address, b.latitude, b.longitude, b.created_at, b.updated_at,
	       COALESCE(
	           array_agg(oa.activity_id ORDER BY oa.activity_id) FILTER (WHERE oa.activity_id IS NOT NULL),
	           '{}'
	       ) AS activity_ids
	FROM organizations o
	LEFT JOIN buildings b ON b.id = o.building_id
	LEFT JOIN organization_activities oa ON oa.organization_id = o.id
`

const groupOrganizations = `
	GROUP BY o.id, b.id
	ORDER BY o.id
`

// Create inserts the organization and its activity links in one transaction.
func (r *OrganizationRepo) Create(ctx context.Context, org *domain.Organization) error {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	err = tx.QueryRow(ctx, `
		INSERT INTO organizations (name, phone_numbers, building_id)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at
	`, org.Name, domain.JoinPhones(org.PhoneNumbers), org.BuildingID).Scan(&org.ID, &org.CreatedAt, &org.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert organization: %w", err)
	}

	if len(org.ActivityIDs) > 0 {
		batch := &pgx.Batch{}
		for _, aid := range org.ActivityIDs {
			batch.Queue(`
				INSERT INTO organization_activities (organization_id, activity_id)
				VALUES ($1, $2)
				ON CONFLICT DO NOTHING
			`, org.ID, aid)
		}
		br := tx.SendBatch(ctx, batch)
		for range org.ActivityIDs {
			if _, err := br.Exec(); err != nil {
				br.Close()
				return fmt.Errorf("batch exec: %w", err)
			}
		}
		if err := br.Close(); err != nil {
			return fmt.Errorf("batch close: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (r *OrganizationRepo) GetByID(ctx context.Context, id int64) (*domain.Organization, error) {
	row := r.db.Pool.QueryRow(ctx, selectOrganizations+` WHERE o.id = $1`+groupOrganizations, id)
	org, err := scanOrganization(row)
	if err != nil {
		return nil, notFound(err, "organization", id)
	}
	return org, nil
}

func (r *OrganizationRepo) List(ctx context.Context, f domain.OrganizationFilter) ([]domain.Organization, int, error) {
	var (
		conds []string
		args  []any
	)
	if f.Name != "" {
		args = append(args, "%"+escapeLike(f.Name)+"%")
		conds = append(conds, fmt.Sprintf("o.name ILIKE $%d", len(args)))
	}
	if f.ActivityID != 0 {
		args = append(args, f.ActivityID)
		conds = append(conds, fmt.Sprintf(
			"EXISTS (SELECT 1 FROM organization_activities x WHERE x.organization_id = o.id AND x.activity_id = $%d)", len(args)))
	}
	if f.BuildingID != 0 {
		args = append(args, f.BuildingID)
		conds = append(conds, fmt.Sprintf("o.building_id = $%d", len(args)))
	}

	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := r.db.Pool.QueryRow(ctx, `SELECT count(*) FROM organizations o`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count organizations: %w", err)
	}

	args = append(args, f.Offset, f.Limit)
	query := selectOrganizations + where + groupOrganizations +
		fmt.Sprintf(" OFFSET $%d LIMIT $%d", len(args)-1, len(args))

	orgs, err := r.query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	return orgs, total, nil
}

func (r *OrganizationRepo) FindInBounds(ctx context.Context, bb domain.Bounds) ([]domain.Organization, error) {
	return r.query(ctx, selectOrganizations+`
		WHERE b.latitude BETWEEN $1 AND $2
		  AND b.longitude BETWEEN $3 AND $4
	`+groupOrganizations, bb.MinLat, bb.MaxLat, bb.MinLon, bb.MaxLon)
}

func (r *OrganizationRepo) FindByAddress(ctx context.Context, substr string) ([]domain.Organization, error) {
	return r.query(ctx, selectOrganizations+`
		WHERE b.address ILIKE $1
	`+groupOrganizations, "%"+escapeLike(substr)+"%")
}

func (r *OrganizationRepo) ListLocated(ctx context.Context) ([]domain.Organization, error) {
	return r.query(ctx, selectOrganizations+` WHERE o.building_id IS NOT NULL`+groupOrganizations)
}

func (r *OrganizationRepo) query(ctx context.Context, sql string, args ...any) ([]domain.Organization, error) {
	rows, err := r.db.Pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orgs := []domain.Organization{}
	for rows.Next() {
		org, err := scanOrganization(rows)
		if err != nil {
			return nil, err
		}
		orgs = append(orgs, *org)
	}
	return orgs, rows.Err()
}

func scanOrganization(row pgx.Row) (*domain.Organization, error) {
	var (
		org    domain.Organization
		phones string

		bID        *int64
		bAddress   *string
		bLat, bLon *float64
		bCreated   *time.Time
		bUpdated   *time.Time
	)
	err := row.Scan(
		&org.ID, &org.Name, &phones, &org.CreatedAt, &org.UpdatedAt,
		&bID, &bAddress, &bLat, &bLon, &bCreated, &bUpdated,
		&org.ActivityIDs,
	)
	if err != nil {
		return nil, err
	}

	org.PhoneNumbers = domain.SplitPhones(phones)
	if bID != nil {
		org.BuildingID = bID
		org.Building = &domain.Building{
			ID:        *bID,
			Address:   *bAddress,
			Latitude:  *bLat,
			Longitude: *bLon,
			CreatedAt: *bCreated,
			UpdatedAt: *bUpdated,
		}
	}
	return &org, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike makes s match literally inside a LIKE pattern.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
