package app

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/poofware/listings-service/internal/models"
	"github.com/poofware/listings-service/internal/repositories"
	"github.com/poofware/listings-service/internal/services"
	"github.com/poofware/listings-service/internal/utils"
)

// Fixed ids so repeated seeding finds the same accounts.
var (
	SeedOwnerID = uuid.MustParse("5e1d0a11-0000-4000-8000-000000000001")
	SeedAdminID = uuid.MustParse("5e1d0a11-0000-4000-8000-000000000002")
	SeedUserID  = uuid.MustParse("5e1d0a11-0000-4000-8000-000000000003")
)

// SeedAllTestData inserts demo accounts and, when the demo owner has no
// listings yet, one listing of every type. Safe to run on every start.
func SeedAllTestData(
	ctx context.Context,
	users repositories.UserRepository,
	queries *services.ListingQueryService,
	commands *services.ListingCommandService,
) error {
	accounts := []models.User{
		{ID: SeedOwnerID, Name: "Demo Owner", Email: "owner@listings.test", Role: models.RoleOwner},
		{ID: SeedAdminID, Name: "Demo Admin", Email: "admin@listings.test", Role: models.RoleAdmin},
		{ID: SeedUserID, Name: "Demo User", Email: "user@listings.test", Phone: utils.Ptr("+15550000003"), Role: models.RoleUser},
	}
	for i := range accounts {
		if err := users.Create(ctx, &accounts[i]); err != nil {
			return fmt.Errorf("seed user %s: %w", accounts[i].Email, err)
		}
	}
	utils.Logger.Infof("Seeded %d demo accounts", len(accounts))

	existing, err := queries.ListByOwner(ctx, SeedOwnerID)
	if err != nil {
		return fmt.Errorf("check seeded listings: %w", err)
	}
	if len(existing) > 0 {
		utils.Logger.Infof("Demo owner already has %d listings; skipping listing seed.", len(existing))
		return nil
	}

	for _, l := range seedListings() {
		l.Property.OwnerID = SeedOwnerID
		created, err := commands.CreateListing(ctx, l)
		if err != nil {
			return fmt.Errorf("seed listing %q: %w", l.Property.Title, err)
		}
		utils.Logger.Infof("Seeded %s listing id=%s", created.Type, created.ID)
	}
	return nil
}

func seedListings() []services.CreateListingInput {
	return []services.CreateListingInput{
		{
			Property: services.PropertyInput{
				Title: "Sunny two-bedroom flat", Price: 1200, Status: models.PropertyStatusAvailable,
				Address: "14 Lake View Road", Type: models.PropertyTypeApartment,
			},
			Detail: &models.ApartmentDetail{
				Rooms: 2, Bathrooms: 1, Kitchen: true, CarpetArea: 850,
				SuperBuiltUp: utils.Ptr(1000), FloorNumber: utils.Ptr(3),
			},
		},
		{
			Property: services.PropertyInput{
				Title: "Garden bungalow", Price: 450000, Status: models.PropertyStatusAvailable,
				Address: "2 Orchard Lane", Type: models.PropertyTypeBungalow,
			},
			Detail: &models.BungalowDetail{
				Bedrooms: 4, Bathrooms: 3, Kitchen: true, Garden: true, Parking: true, TotalArea: 3200,
			},
		},
		{
			Property: services.PropertyInput{
				Title: "Downtown office block", Price: 25000, Status: models.PropertyStatusRented,
				Address: "100 Market Street", Type: models.PropertyTypeCommercial,
			},
			Detail: &models.CommercialDetail{
				Floors: 6, TotalArea: 18000, ParkingSpace: true, LiftAvailable: true,
			},
		},
		{
			Property: services.PropertyInput{
				Title: "Farm plot by the river", Price: 90000, Status: models.PropertyStatusAvailable,
				Address: "Survey 42, River Road", Type: models.PropertyTypeLand,
			},
			Detail: &models.LandDetail{Area: 43560, Zone: utils.Ptr("agricultural")},
		},
	}
}
