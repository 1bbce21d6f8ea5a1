package repositories

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/poofware/listings-service/internal/models"
	"github.com/poofware/listings-service/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildListQuery_NoFilters(t *testing.T) {
	q, args, err := buildListQuery(models.ListingFilter{})
	require.NoError(t, err)
	assert.Empty(t, args)
	assert.Contains(t, q, "FROM properties p WHERE TRUE ORDER BY p.created_at DESC, p.id")
	assert.NotContains(t, q, "$1")
}

func TestBuildListQuery_AllFilters(t *testing.T) {
	status := models.PropertyStatusAvailable
	typ := models.PropertyTypeApartment
	owner := uuid.New()
	f := models.ListingFilter{
		Status:   &status,
		Search:   utils.Ptr("sea view"),
		Type:     &typ,
		PriceMin: utils.Ptr(100.0),
		PriceMax: utils.Ptr(500.0),
		OwnerID:  &owner,
	}

	q, args, err := buildListQuery(f)
	require.NoError(t, err)

	assert.Contains(t, q, "p.status = $1")
	assert.Contains(t, q, "(p.title ILIKE $2 OR p.address ILIKE $2)")
	assert.Contains(t, q, "EXISTS (SELECT 1 FROM apartments d WHERE d.property_id = p.id)")
	assert.Contains(t, q, "p.price >= $3")
	assert.Contains(t, q, "p.price <= $4")
	assert.Contains(t, q, "p.owner_id = $5")

	require.Len(t, args, 5)
	assert.Equal(t, "available", args[0])
	assert.Equal(t, "%sea view%", args[1])
	assert.Equal(t, 100.0, args[2])
	assert.Equal(t, 500.0, args[3])
	assert.Equal(t, owner, args[4])
}

func TestBuildListQuery_TypeUsesFixedTable(t *testing.T) {
	for _, typ := range models.AllPropertyTypes {
		typ := typ
		q, args, err := buildListQuery(models.ListingFilter{Type: &typ})
		require.NoError(t, err)
		table, err := DetailTable(typ)
		require.NoError(t, err)
		assert.Contains(t, q, "FROM "+table+" d WHERE")
		assert.Empty(t, args, "type filter must not bind user input")
	}
}

func TestBuildListQuery_UnknownTypeRejected(t *testing.T) {
	bad := models.PropertyType("Apartment; DROP TABLE properties")
	_, _, err := buildListQuery(models.ListingFilter{Type: &bad})
	require.Error(t, err)
}

func TestBuildListQuery_SearchEscapesWildcards(t *testing.T) {
	_, args, err := buildListQuery(models.ListingFilter{Search: utils.Ptr(`50%_off\`)})
	require.NoError(t, err)
	require.Len(t, args, 1)
	assert.Equal(t, `%50\%\_off\\%`, args[0])
}

func TestBuildListQuery_EmptySearchIgnored(t *testing.T) {
	q, args, err := buildListQuery(models.ListingFilter{Search: utils.Ptr("")})
	require.NoError(t, err)
	assert.Empty(t, args)
	assert.NotContains(t, q, "ILIKE")
}

func TestBuildTypeQuery(t *testing.T) {
	q, err := buildTypeQuery(models.PropertyTypeCommercial)
	require.NoError(t, err)
	assert.Contains(t, q, "JOIN commercial_complexes d ON d.property_id = p.id")
	assert.Contains(t, q, "d.floors, d.total_area, d.parking_space, d.lift_available")
	assert.True(t, strings.Contains(q, "ORDER BY i.id ASC LIMIT 1"))
}

func TestDetailSpecsCoverEveryType(t *testing.T) {
	for _, typ := range models.AllPropertyTypes {
		spec, ok := detailSpecs[typ]
		require.True(t, ok, "missing spec for %s", typ)

		d, err := models.NewDetail(typ)
		require.NoError(t, err)
		assert.Len(t, detailScanTargets(d), len(spec.columns), typ)
		assert.Len(t, detailValues(d), len(spec.columns), typ)
	}
}
