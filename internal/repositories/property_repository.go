package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/poofware/listings-service/internal/models"
)

/* ------------------------------------------------------------------
   Public interface
------------------------------------------------------------------ */

type PropertyRepository interface {
	Create(ctx context.Context, p *models.Property) error

	GetByID(ctx context.Context, id uuid.UUID) (*models.Property, error)

	UpdateIfVersion(ctx context.Context, p *models.Property, expected int64) (pgconn.CommandTag, error)
	UpdateWithRetry(ctx context.Context, id uuid.UUID, mutate func(*models.Property) error) error

	// Delete removes the parent row and reports how many rows went away.
	Delete(ctx context.Context, id uuid.UUID) (int64, error)
}

/* ------------------------------------------------------------------
   Implementation
------------------------------------------------------------------ */

type propertyRepo struct {
	*versionedRepo[*models.Property]
	db DB
}

func NewPropertyRepository(db DB) PropertyRepository {
	r := &propertyRepo{db: db}
	selectStmt := baseSelectProperty() + " WHERE id=$1"
	r.versionedRepo = newVersionedRepo(db, selectStmt, scanProperty)
	return r
}

// Create inserts p and fills in the server-side timestamps and row version.
func (r *propertyRepo) Create(ctx context.Context, p *models.Property) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return r.db.QueryRow(ctx, `
        INSERT INTO properties (
            id, owner_id, title, price, status, address, property_type,
            created_at, updated_at, row_version
        ) VALUES ($1,$2,$3,$4,$5,$6,$7, NOW(), NOW(), 1)
        RETURNING created_at, updated_at, row_version
    `,
		p.ID,
		p.OwnerID,
		p.Title,
		p.Price,
		string(p.Status),
		p.Address,
		string(p.Type),
	).Scan(&p.CreatedAt, &p.UpdatedAt, &p.RowVersion)
}

func (r *propertyRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Property, error) {
	return r.getByID(ctx, id)
}

func (r *propertyRepo) UpdateIfVersion(ctx context.Context, p *models.Property, expected int64) (pgconn.CommandTag, error) {
	return r.db.Exec(ctx, `
        UPDATE properties SET
            title=$1, price=$2, status=$3, address=$4, updated_at=NOW(),
            row_version=row_version+1
        WHERE id=$5 AND row_version=$6
    `,
		p.Title, p.Price, string(p.Status), p.Address,
		p.ID, expected,
	)
}

func (r *propertyRepo) UpdateWithRetry(ctx context.Context, id uuid.UUID, mutate func(*models.Property) error) error {
	return r.updateWithRetry(ctx, id, mutate, r.UpdateIfVersion)
}

func (r *propertyRepo) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM properties WHERE id=$1`, id)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

const propertySelectColumns = `
            p.id, p.owner_id, p.title, p.price, p.status, p.address,
            p.property_type, p.created_at, p.updated_at, p.row_version`

func baseSelectProperty() string {
	return "SELECT" + propertySelectColumns + "\n        FROM properties p\n"
}

// propertyScanTargets matches the column order of baseSelectProperty so joined
// queries can append their own columns after it.
func propertyScanTargets(p *models.Property) []any {
	return []any{
		&p.ID,
		&p.OwnerID,
		&p.Title,
		&p.Price,
		&p.Status,
		&p.Address,
		&p.Type,
		&p.CreatedAt,
		&p.UpdatedAt,
		&p.RowVersion,
	}
}

func scanProperty(row pgx.Row) (*models.Property, error) {
	var p models.Property
	err := row.Scan(propertyScanTargets(&p)...)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}
