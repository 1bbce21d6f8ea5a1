package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgconn"
	"github.com/poofware/listings-service/internal/models"
	"github.com/poofware/listings-service/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapWriteError(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantIs    error
		wantField string
	}{
		{
			name:      "check violation names its column",
			err:       &pgconn.PgError{Code: "23514", TableName: "properties", ConstraintName: "properties_price_check"},
			wantIs:    utils.ErrValidation,
			wantField: "price",
		},
		{
			name:   "numeric overflow",
			err:    fmt.Errorf("insert apartment: %w", &pgconn.PgError{Code: "22003"}),
			wantIs: utils.ErrValidation,
		},
		{
			name:      "column reported directly",
			err:       &pgconn.PgError{Code: "23514", ColumnName: "rooms"},
			wantIs:    utils.ErrValidation,
			wantField: "rooms",
		},
		{
			name:   "lost connection",
			err:    &pgconn.PgError{Code: "08006"},
			wantIs: utils.ErrStorageUnavailable,
		},
		{
			name:   "not found passes through",
			err:    utils.NewNotFoundError("property", "x"),
			wantIs: utils.ErrNotFound,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := mapWriteError("write", tc.err)
			require.ErrorIs(t, got, tc.wantIs)
			var ve *utils.ValidationError
			if errors.As(got, &ve) {
				assert.Equal(t, tc.wantField, ve.Field)
			}
		})
	}

	boom := errors.New("boom")
	assert.Same(t, boom, mapWriteError("write", boom))
	assert.NoError(t, mapWriteError("write", nil))
}

func TestCreateListing_SchemaRangeRejectionIsValidation(t *testing.T) {
	f := newFixture(t)
	f.store.FailOn("Details.Insert", &pgconn.PgError{Code: "22003", Message: "integer out of range"})

	_, err := f.commands.CreateListing(context.Background(), CreateListingInput{
		Property: f.propertyInput(models.PropertyTypeApartment, 250000),
		Detail:   sampleDetail(models.PropertyTypeApartment),
		Images:   uploads(1),
	})
	require.ErrorIs(t, err, utils.ErrValidation)
	assert.Zero(t, f.store.PropertyCount())
	assert.Empty(t, f.uploadedFiles(t))
}
