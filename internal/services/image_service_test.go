package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/poofware/listings-service/internal/models"
	"github.com/poofware/listings-service/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepresentativeImage_LowestID(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	l := f.createListing(t, models.PropertyTypeApartment, 100, 3)

	rep, err := f.images.RepresentativeImage(ctx, l.ID)
	require.NoError(t, err)
	require.NotNil(t, rep)

	minImg := l.Images[0]
	for _, img := range l.Images {
		if img.ID < minImg.ID {
			minImg = img
		}
	}
	assert.Equal(t, minImg.ImageURL, *rep)

	// attaching more keeps the earliest as representative
	_, err = f.images.AttachImages(ctx, l.ID, []models.ImageUpload{pngUpload("late.png")})
	require.NoError(t, err)
	rep, err = f.images.RepresentativeImage(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, minImg.ImageURL, *rep)
}

func TestRepresentativeImage_NoneForImageless(t *testing.T) {
	f := newFixture(t)
	l := f.createListing(t, models.PropertyTypeApartment, 100, 0)

	rep, err := f.images.RepresentativeImage(context.Background(), l.ID)
	require.NoError(t, err)
	assert.Nil(t, rep)
}

func TestListImages(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	empty := f.createListing(t, models.PropertyTypeLand, 100, 0)
	imgs, err := f.queries.ListImages(ctx, empty.ID)
	require.NoError(t, err)
	assert.NotNil(t, imgs)
	assert.Empty(t, imgs)

	full := f.createListing(t, models.PropertyTypeLand, 100, 4)
	imgs, err = f.queries.ListImages(ctx, full.ID)
	require.NoError(t, err)
	require.Len(t, imgs, 4)
	for i := 1; i < len(imgs); i++ {
		assert.Less(t, imgs[i-1].ID, imgs[i].ID)
	}

	_, err = f.queries.ListImages(ctx, uuid.New())
	require.ErrorIs(t, err, utils.ErrNotFound)
}

func TestAttachImages_RespectsLimit(t *testing.T) {
	f := newFixture(t)
	l := f.createListing(t, models.PropertyTypeApartment, 100, 4)

	_, err := f.images.AttachImages(context.Background(), l.ID, uploads(2))
	require.ErrorIs(t, err, utils.ErrValidation)
	assert.Len(t, f.uploadedFiles(t), 4)
}

func TestAttachImages_UnknownProperty(t *testing.T) {
	f := newFixture(t)
	_, err := f.images.AttachImages(context.Background(), uuid.New(), uploads(1))
	require.ErrorIs(t, err, utils.ErrNotFound)
	assert.Empty(t, f.uploadedFiles(t))
}

func TestDeleteAllImages(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	l := f.createListing(t, models.PropertyTypeApartment, 100, 2)

	require.NoError(t, f.images.DeleteAllImages(ctx, l.ID))
	imgs, err := f.images.ListImages(ctx, l.ID)
	require.NoError(t, err)
	assert.Empty(t, imgs)
	assert.Empty(t, f.uploadedFiles(t))
}

func TestValidateUploads_DeclaredTypeMustBeImage(t *testing.T) {
	up := pngUpload("x.png")
	up.ContentType = "application/pdf"
	err := ValidateUploads([]models.ImageUpload{up})
	var ve *utils.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "images[0]", ve.Field)

	require.NoError(t, ValidateUploads(uploads(5)))
	require.NoError(t, ValidateUploads(nil))
}
