package services

import (
	"testing"

	"github.com/poofware/listings-service/internal/models"
	"github.com/poofware/listings-service/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidatePropertyInput_PriceFitsColumn(t *testing.T) {
	f := newFixture(t)

	for _, price := range []float64{0.001, 0.009, 1e15, 1_000_000_000_000} {
		in := f.propertyInput(models.PropertyTypeLand, price)
		err := ValidatePropertyInput(&in)
		require.ErrorIs(t, err, utils.ErrValidation, "price %v", price)

		var ve *utils.ValidationError
		require.ErrorAs(t, err, &ve)
		assert.Equal(t, "price", ve.Field)
	}

	for _, price := range []float64{0.01, 999_999_999_999.99} {
		in := f.propertyInput(models.PropertyTypeLand, price)
		assert.NoError(t, ValidatePropertyInput(&in), "price %v", price)
	}
}

func TestValidateDetail_IntsFitColumn(t *testing.T) {
	tests := []struct {
		name   string
		typ    models.PropertyType
		detail models.PropertyDetail
		field  string
	}{
		{"rooms", models.PropertyTypeApartment,
			&models.ApartmentDetail{Rooms: 3_000_000_000, Bathrooms: 1, CarpetArea: 900}, "details.rooms"},
		{"floor number", models.PropertyTypeApartment,
			&models.ApartmentDetail{Rooms: 2, Bathrooms: 1, CarpetArea: 900, FloorNumber: utils.Ptr(1 << 31)}, "details.floor_number"},
		{"bungalow area", models.PropertyTypeBungalow,
			&models.BungalowDetail{Bedrooms: 3, Bathrooms: 2, TotalArea: 1 << 40}, "details.total_area"},
		{"land area", models.PropertyTypeLand,
			&models.LandDetail{Area: 2_147_483_648}, "details.area"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateDetail(tc.typ, tc.detail)
			require.ErrorIs(t, err, utils.ErrValidation)
			var ve *utils.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tc.field, ve.Field)
			assert.Contains(t, ve.Reason, "2147483647")
		})
	}

	assert.NoError(t, ValidateDetail(models.PropertyTypeLand, &models.LandDetail{Area: 2_147_483_647}))
}
