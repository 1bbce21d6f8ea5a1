//go:build integration

package integration

import (
	"context"
	"log"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/poofware/listings-service/internal/app"
	"github.com/poofware/listings-service/internal/config"
	"github.com/poofware/listings-service/internal/models"
	"github.com/poofware/listings-service/internal/repositories"
	"github.com/poofware/listings-service/internal/services"
	"github.com/poofware/listings-service/internal/storage"
	"github.com/poofware/listings-service/internal/utils"
	"github.com/stretchr/testify/require"
)

// TestHelper carries the live pool and the service graph built over it.
type TestHelper struct {
	Ctx        context.Context
	DB         *pgxpool.Pool
	UploadsDir string
	Repos      repositories.Repos
	UoW        repositories.UnitOfWork
	Files      storage.FileStore
	Props      *services.PropertyService
	Images     *services.ImageService
	Queries    *services.ListingQueryService
	Commands   *services.ListingCommandService
}

var h *TestHelper

func TestMain(m *testing.M) {
	utils.InitLogger(config.AppName)

	dbURL := os.Getenv("DB_URL")
	if dbURL == "" {
		log.Fatal("DB_URL env var is missing")
	}

	ctx := context.Background()
	pool, err := pgxpool.Connect(ctx, dbURL)
	if err != nil {
		log.Fatalf("connect: %v", err)
	}
	if err := app.ApplySchema(ctx, pool); err != nil {
		log.Fatalf("schema: %v", err)
	}

	dir, err := os.MkdirTemp("", "listings-uploads-")
	if err != nil {
		log.Fatalf("uploads dir: %v", err)
	}
	files, err := storage.NewLocalFileStore(dir)
	if err != nil {
		log.Fatalf("file store: %v", err)
	}

	repos := repositories.NewRepos(pool)
	uow := repositories.NewPgUnitOfWork(pool)
	images := services.NewImageService(repos, uow, files, 5*time.Second)
	h = &TestHelper{
		Ctx:        ctx,
		DB:         pool,
		UploadsDir: dir,
		Repos:      repos,
		UoW:        uow,
		Files:      files,
		Props:      services.NewPropertyService(repos, 5*time.Second),
		Images:     images,
		Queries:    services.NewListingQueryService(repos, images, 5*time.Second),
		Commands:   services.NewListingCommandService(repos, uow, images, 5*time.Second),
	}

	log.Printf("listings-service integration tests: DB connected, uploads=%s", dir)
	code := m.Run()

	pool.Close()
	_ = os.RemoveAll(dir)
	os.Exit(code)
}

// NewOwner inserts a fresh Owner so each test filters on its own rows.
func (h *TestHelper) NewOwner(t *testing.T) models.User {
	t.Helper()
	u := models.User{
		ID:    uuid.New(),
		Name:  "Integration Owner",
		Email: "owner-" + uuid.NewString() + "@listings.test",
		Role:  models.RoleOwner,
	}
	require.NoError(t, h.Repos.Users.Create(h.Ctx, &u))
	return u
}

// RowCounts reports the rows a property owns in every table.
func (h *TestHelper) RowCounts(t *testing.T, id uuid.UUID) (props, details, images int) {
	t.Helper()
	require.NoError(t, h.DB.QueryRow(h.Ctx, `SELECT COUNT(*) FROM properties WHERE id=$1`, id).Scan(&props))
	counts, err := h.Repos.Details.CountRows(h.Ctx, id)
	require.NoError(t, err)
	for _, n := range counts {
		details += n
	}
	require.NoError(t, h.DB.QueryRow(h.Ctx, `SELECT COUNT(*) FROM property_images WHERE property_id=$1`, id).Scan(&images))
	return props, details, images
}

func (h *TestHelper) UploadedFiles(t *testing.T) int {
	t.Helper()
	entries, err := os.ReadDir(h.UploadsDir)
	require.NoError(t, err)
	return len(entries)
}
