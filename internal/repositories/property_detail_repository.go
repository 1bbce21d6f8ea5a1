package repositories

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/poofware/listings-service/internal/models"
)

/* ------------------------------------------------------------------
   Public interface
------------------------------------------------------------------ */

type PropertyDetailRepository interface {
	// Insert writes d into the table of its variant. The schema rejects the
	// row when the parent property declares a different type.
	Insert(ctx context.Context, d models.PropertyDetail) error

	// Get returns nil, nil when the table of type t holds no row for id.
	Get(ctx context.Context, id uuid.UUID, t models.PropertyType) (models.PropertyDetail, error)

	// DeleteAll clears every detail table for id and returns the rows removed.
	DeleteAll(ctx context.Context, id uuid.UUID) (int64, error)

	// CountRows reports how many rows each detail table holds for id.
	CountRows(ctx context.Context, id uuid.UUID) (map[models.PropertyType]int, error)
}

/* ------------------------------------------------------------------
   Fixed type → table mapping. Identifiers never come from input.
------------------------------------------------------------------ */

type detailSpec struct {
	table   string
	columns []string
}

var detailSpecs = map[models.PropertyType]detailSpec{
	models.PropertyTypeApartment: {
		table:   "apartments",
		columns: []string{"rooms", "bathrooms", "kitchen", "carpet_area", "super_built_up", "floor_number"},
	},
	models.PropertyTypeBungalow: {
		table:   "bungalows",
		columns: []string{"bedrooms", "bathrooms", "kitchen", "garden", "parking", "total_area"},
	},
	models.PropertyTypeCommercial: {
		table:   "commercial_complexes",
		columns: []string{"floors", "total_area", "parking_space", "lift_available"},
	},
	models.PropertyTypeLand: {
		table:   "lands",
		columns: []string{"area", "zone"},
	},
}

// DetailTable returns the table that stores details of type t.
func DetailTable(t models.PropertyType) (string, error) {
	spec, ok := detailSpecs[t]
	if !ok {
		return "", fmt.Errorf("no detail table for property type %q", t)
	}
	return spec.table, nil
}

// detailSelectColumns renders the variant columns qualified with alias.
func detailSelectColumns(t models.PropertyType, alias string) string {
	spec := detailSpecs[t]
	cols := make([]string, len(spec.columns))
	for i, c := range spec.columns {
		cols[i] = alias + "." + c
	}
	return strings.Join(cols, ", ")
}

func detailScanTargets(d models.PropertyDetail) []any {
	switch v := d.(type) {
	case *models.ApartmentDetail:
		return []any{&v.Rooms, &v.Bathrooms, &v.Kitchen, &v.CarpetArea, &v.SuperBuiltUp, &v.FloorNumber}
	case *models.BungalowDetail:
		return []any{&v.Bedrooms, &v.Bathrooms, &v.Kitchen, &v.Garden, &v.Parking, &v.TotalArea}
	case *models.CommercialDetail:
		return []any{&v.Floors, &v.TotalArea, &v.ParkingSpace, &v.LiftAvailable}
	case *models.LandDetail:
		return []any{&v.Area, &v.Zone}
	}
	return nil
}

func detailValues(d models.PropertyDetail) []any {
	switch v := d.(type) {
	case *models.ApartmentDetail:
		return []any{v.Rooms, v.Bathrooms, v.Kitchen, v.CarpetArea, v.SuperBuiltUp, v.FloorNumber}
	case *models.BungalowDetail:
		return []any{v.Bedrooms, v.Bathrooms, v.Kitchen, v.Garden, v.Parking, v.TotalArea}
	case *models.CommercialDetail:
		return []any{v.Floors, v.TotalArea, v.ParkingSpace, v.LiftAvailable}
	case *models.LandDetail:
		return []any{v.Area, v.Zone}
	}
	return nil
}

/* ------------------------------------------------------------------
   Implementation
------------------------------------------------------------------ */

type propertyDetailRepo struct {
	db DB
}

func NewPropertyDetailRepository(db DB) PropertyDetailRepository {
	return &propertyDetailRepo{db: db}
}

func (r *propertyDetailRepo) Insert(ctx context.Context, d models.PropertyDetail) error {
	if d == nil {
		return fmt.Errorf("nil property detail")
	}
	spec, ok := detailSpecs[d.PropertyType()]
	if !ok {
		return fmt.Errorf("no detail table for property type %q", d.PropertyType())
	}

	var sb strings.Builder
	sb.WriteString("INSERT INTO ")
	sb.WriteString(spec.table)
	sb.WriteString(" (property_id, ")
	sb.WriteString(strings.Join(spec.columns, ", "))
	sb.WriteString(") VALUES ($1")
	for i := range spec.columns {
		fmt.Fprintf(&sb, ", $%d", i+2)
	}
	sb.WriteString(")")

	args := append([]any{d.GetPropertyID()}, detailValues(d)...)
	_, err := r.db.Exec(ctx, sb.String(), args...)
	return err
}

func (r *propertyDetailRepo) Get(ctx context.Context, id uuid.UUID, t models.PropertyType) (models.PropertyDetail, error) {
	spec, ok := detailSpecs[t]
	if !ok {
		return nil, fmt.Errorf("no detail table for property type %q", t)
	}
	d, err := models.NewDetail(t)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(
		"SELECT %s FROM %s d WHERE d.property_id=$1",
		detailSelectColumns(t, "d"), spec.table,
	)
	if err := r.db.QueryRow(ctx, query, id).Scan(detailScanTargets(d)...); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	d.SetPropertyID(id)
	return d, nil
}

func (r *propertyDetailRepo) DeleteAll(ctx context.Context, id uuid.UUID) (int64, error) {
	var total int64
	for _, t := range models.AllPropertyTypes {
		tag, err := r.db.Exec(ctx, "DELETE FROM "+detailSpecs[t].table+" WHERE property_id=$1", id)
		if err != nil {
			return total, err
		}
		total += tag.RowsAffected()
	}
	return total, nil
}

func (r *propertyDetailRepo) CountRows(ctx context.Context, id uuid.UUID) (map[models.PropertyType]int, error) {
	subs := make([]string, len(models.AllPropertyTypes))
	for i, t := range models.AllPropertyTypes {
		subs[i] = fmt.Sprintf("(SELECT COUNT(*) FROM %s WHERE property_id=$1)", detailSpecs[t].table)
	}

	counts := make([]int, len(models.AllPropertyTypes))
	targets := make([]any, len(counts))
	for i := range counts {
		targets[i] = &counts[i]
	}
	if err := r.db.QueryRow(ctx, "SELECT "+strings.Join(subs, ", "), id).Scan(targets...); err != nil {
		return nil, err
	}

	out := make(map[models.PropertyType]int, len(counts))
	for i, t := range models.AllPropertyTypes {
		out[t] = counts[i]
	}
	return out, nil
}
