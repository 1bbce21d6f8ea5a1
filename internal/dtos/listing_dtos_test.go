package dtos

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/poofware/listings-service/internal/models"
	"github.com/poofware/listings-service/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListPropertiesQuery_ToFilter(t *testing.T) {
	f, err := ListPropertiesQuery{}.ToFilter()
	require.NoError(t, err)
	assert.Equal(t, models.ListingFilter{}, f)

	f, err = ListPropertiesQuery{
		Status:   "Available",
		Search:   " villa ",
		Type:     "LAND",
		PriceMin: "100",
		PriceMax: "500.50",
	}.ToFilter()
	require.NoError(t, err)
	assert.Equal(t, models.PropertyStatusAvailable, *f.Status)
	assert.Equal(t, "villa", *f.Search)
	assert.Equal(t, models.PropertyTypeLand, *f.Type)
	assert.Equal(t, 100.0, *f.PriceMin)
	assert.Equal(t, 500.5, *f.PriceMax)
}

func TestListPropertiesQuery_Rejections(t *testing.T) {
	tests := map[string]ListPropertiesQuery{
		"status":    {Status: "demolished"},
		"type":      {Type: "Apartment; DROP TABLE x"},
		"price_min": {PriceMin: "cheap"},
		"price_max": {PriceMax: "-1"},
	}
	for field, q := range tests {
		_, err := q.ToFilter()
		var ve *utils.ValidationError
		require.ErrorAs(t, err, &ve, field)
		assert.Equal(t, field, ve.Field)
	}
}

func TestListingResponse_MergesDetailFlat(t *testing.T) {
	id := uuid.New()
	url := "/uploads/1-abc-a.png"
	resp := NewListingResponse(&models.Listing{
		Property: models.Property{ID: id, Title: "Flat", Price: 250000, Type: models.PropertyTypeApartment},
		Detail:   &models.ApartmentDetail{PropertyID: id, Rooms: 2, Bathrooms: 1, CarpetArea: 900},
		ImageURL: &url,
	})

	raw, err := json.Marshal(resp)
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(raw, &m))
	assert.Equal(t, id.String(), m["property_id"])
	assert.Equal(t, "Flat", m["title"])
	assert.Equal(t, "apartment", m["type"])
	assert.Equal(t, 900.0, m["carpet_area"])
	assert.Equal(t, 2.0, m["rooms"])
	assert.Equal(t, url, m["image_url"])
	assert.Equal(t, []any{}, m["images"])
}

func TestListingResponse_NoDetailNoImages(t *testing.T) {
	raw, err := json.Marshal(NewTypedListingResponses([]models.TypedListing{{
		Property: models.Property{ID: uuid.New(), Type: models.PropertyTypeLand},
	}}))
	require.NoError(t, err)

	var rows []map[string]any
	require.NoError(t, json.Unmarshal(raw, &rows))
	require.Len(t, rows, 1)
	assert.Nil(t, rows[0]["image_url"])
	_, hasImages := rows[0]["images"]
	assert.False(t, hasImages)
	_, hasArea := rows[0]["area"]
	assert.False(t, hasArea)
}
