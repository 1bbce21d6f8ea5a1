package services

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/poofware/listings-service/internal/models"
	"github.com/poofware/listings-service/internal/storage"
	"github.com/poofware/listings-service/internal/testhelpers"
	"github.com/poofware/listings-service/internal/utils"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	store    *testhelpers.MemStore
	dir      string
	files    storage.FileStore
	props    *PropertyService
	images   *ImageService
	queries  *ListingQueryService
	commands *ListingCommandService
	owner    models.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWithFiles(t, nil)
}

// newFixtureWithFiles uses files when non-nil, else a local store on a temp dir.
func newFixtureWithFiles(t *testing.T, files storage.FileStore) *fixture {
	t.Helper()
	f := &fixture{store: testhelpers.NewMemStore(), dir: t.TempDir()}
	if files == nil {
		var err error
		files, err = storage.NewLocalFileStore(f.dir)
		require.NoError(t, err)
	}
	f.files = files

	repos := f.store.Repos()
	f.props = NewPropertyService(repos, time.Second)
	f.images = NewImageService(repos, f.store, files, time.Second)
	f.queries = NewListingQueryService(repos, f.images, time.Second)
	f.commands = NewListingCommandService(repos, f.store, f.images, time.Second)
	f.owner = f.store.AddUser(models.RoleOwner)
	return f
}

// uploadedFiles lists what is currently in the uploads dir.
func (f *fixture) uploadedFiles(t *testing.T) []string {
	t.Helper()
	entries, err := os.ReadDir(f.dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func pngBytes(tag string) []byte {
	var b bytes.Buffer
	b.WriteString("\x89PNG\r\n\x1a\n")
	b.WriteString(tag)
	return b.Bytes()
}

func pngUpload(name string) models.ImageUpload {
	return models.ImageUpload{FileName: name, ContentType: "image/png", Data: pngBytes(name)}
}

func uploads(n int) []models.ImageUpload {
	out := make([]models.ImageUpload, n)
	for i := range out {
		out[i] = pngUpload("photo" + string(rune('a'+i)) + ".png")
	}
	return out
}

func (f *fixture) propertyInput(t models.PropertyType, price float64) PropertyInput {
	return PropertyInput{
		OwnerID: f.owner.ID,
		Title:   "Listing " + string(t),
		Price:   price,
		Status:  models.PropertyStatusAvailable,
		Address: "12 Harbour Road",
		Type:    t,
	}
}

func sampleDetail(t models.PropertyType) models.PropertyDetail {
	switch t {
	case models.PropertyTypeApartment:
		return &models.ApartmentDetail{Rooms: 2, Bathrooms: 1, Kitchen: true, CarpetArea: 900}
	case models.PropertyTypeBungalow:
		return &models.BungalowDetail{Bedrooms: 3, Bathrooms: 2, Kitchen: true, Garden: true, TotalArea: 2400}
	case models.PropertyTypeCommercial:
		return &models.CommercialDetail{Floors: 4, TotalArea: 12000, LiftAvailable: true}
	case models.PropertyTypeLand:
		return &models.LandDetail{Area: 5000, Zone: utils.Ptr("agricultural")}
	}
	return nil
}

func (f *fixture) createListing(t *testing.T, typ models.PropertyType, price float64, imgs int) *models.Listing {
	t.Helper()
	l, err := f.commands.CreateListing(context.Background(), CreateListingInput{
		Property: f.propertyInput(typ, price),
		Detail:   sampleDetail(typ),
		Images:   uploads(imgs),
	})
	require.NoError(t, err)
	return l
}

func fileNameOf(url string) string {
	return filepath.Base(url)
}
