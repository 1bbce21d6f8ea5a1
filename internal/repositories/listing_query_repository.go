package repositories

import (
	"context"
	"strconv"
	"strings"

	"github.com/jackc/pgtype"
	"github.com/poofware/listings-service/internal/models"
)

type ListingQueryRepository interface {
	// ListProperties applies every non-nil filter field conjunctively.
	ListProperties(ctx context.Context, f models.ListingFilter) ([]models.PropertySummary, error)

	// ListByType returns only properties that have a detail row of type t.
	ListByType(ctx context.Context, t models.PropertyType) ([]models.TypedListing, error)
}

type listingQueryRepo struct {
	db DB
}

func NewListingQueryRepository(db DB) ListingQueryRepository {
	return &listingQueryRepo{db: db}
}

// Lowest image id per property.
const representativeImageColumn = `
            (SELECT i.image_url FROM property_images i
              WHERE i.property_id = p.id
              ORDER BY i.id ASC LIMIT 1) AS image_url`

const listingOrder = " ORDER BY p.created_at DESC, p.id"

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// buildListQuery renders the all-properties view for f. Table names come only
// from the fixed detail mapping.
func buildListQuery(f models.ListingFilter) (string, []any, error) {
	var (
		qb   strings.Builder
		args []any
		idx  = 1
	)

	qb.WriteString("SELECT")
	qb.WriteString(propertySelectColumns)
	qb.WriteString(",")
	qb.WriteString(representativeImageColumn)
	qb.WriteString("\n        FROM properties p WHERE TRUE")

	if f.Status != nil {
		qb.WriteString(" AND p.status = $")
		qb.WriteString(strconv.Itoa(idx))
		args = append(args, string(*f.Status))
		idx++
	}

	if f.Search != nil && *f.Search != "" {
		n := strconv.Itoa(idx)
		qb.WriteString(" AND (p.title ILIKE $" + n + " OR p.address ILIKE $" + n + ")")
		args = append(args, "%"+likeEscaper.Replace(*f.Search)+"%")
		idx++
	}

	if f.Type != nil {
		table, err := DetailTable(*f.Type)
		if err != nil {
			return "", nil, err
		}
		qb.WriteString(" AND EXISTS (SELECT 1 FROM ")
		qb.WriteString(table)
		qb.WriteString(" d WHERE d.property_id = p.id)")
	}

	if f.PriceMin != nil {
		qb.WriteString(" AND p.price >= $")
		qb.WriteString(strconv.Itoa(idx))
		args = append(args, *f.PriceMin)
		idx++
	}

	if f.PriceMax != nil {
		qb.WriteString(" AND p.price <= $")
		qb.WriteString(strconv.Itoa(idx))
		args = append(args, *f.PriceMax)
		idx++
	}

	if f.OwnerID != nil {
		qb.WriteString(" AND p.owner_id = $")
		qb.WriteString(strconv.Itoa(idx))
		args = append(args, *f.OwnerID)
	}

	qb.WriteString(listingOrder)
	return qb.String(), args, nil
}

func buildTypeQuery(t models.PropertyType) (string, error) {
	table, err := DetailTable(t)
	if err != nil {
		return "", err
	}
	var qb strings.Builder
	qb.WriteString("SELECT")
	qb.WriteString(propertySelectColumns)
	qb.WriteString(", ")
	qb.WriteString(detailSelectColumns(t, "d"))
	qb.WriteString(",")
	qb.WriteString(representativeImageColumn)
	qb.WriteString("\n        FROM properties p JOIN ")
	qb.WriteString(table)
	qb.WriteString(" d ON d.property_id = p.id")
	qb.WriteString(listingOrder)
	return qb.String(), nil
}

func (r *listingQueryRepo) ListProperties(ctx context.Context, f models.ListingFilter) ([]models.PropertySummary, error) {
	query, args, err := buildListQuery(f)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.PropertySummary{}
	for rows.Next() {
		var (
			s   models.PropertySummary
			img pgtype.Text
		)
		targets := append(propertyScanTargets(&s.Property), &img)
		if err := rows.Scan(targets...); err != nil {
			return nil, err
		}
		s.ImageURL = textPtr(img)
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *listingQueryRepo) ListByType(ctx context.Context, t models.PropertyType) ([]models.TypedListing, error) {
	query, err := buildTypeQuery(t)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.TypedListing{}
	for rows.Next() {
		var (
			l   models.TypedListing
			img pgtype.Text
		)
		detail, err := models.NewDetail(t)
		if err != nil {
			return nil, err
		}
		targets := propertyScanTargets(&l.Property)
		targets = append(targets, detailScanTargets(detail)...)
		targets = append(targets, &img)
		if err := rows.Scan(targets...); err != nil {
			return nil, err
		}
		detail.SetPropertyID(l.ID)
		l.Detail = detail
		l.ImageURL = textPtr(img)
		out = append(out, l)
	}
	return out, rows.Err()
}

func textPtr(t pgtype.Text) *string {
	if t.Status != pgtype.Present {
		return nil
	}
	s := t.String
	return &s
}
