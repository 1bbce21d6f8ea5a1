package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/poofware/listings-service/internal/models"
	"github.com/poofware/listings-service/internal/repositories"
	"github.com/poofware/listings-service/internal/utils"
	"github.com/sirupsen/logrus"
)

// ListingQueryService serves the read views over properties, their details
// and images. Every query is retried on transient storage failures.
type ListingQueryService struct {
	repos   repositories.Repos
	images  *ImageService
	timeout time.Duration
}

func NewListingQueryService(repos repositories.Repos, images *ImageService, timeout time.Duration) *ListingQueryService {
	return &ListingQueryService{repos: repos, images: images, timeout: timeout}
}

func validateFilter(f models.ListingFilter) error {
	if f.Status != nil && !f.Status.Valid() {
		return utils.NewValidationError("status", "must be one of: available, rented, sold")
	}
	if f.Type != nil && !f.Type.Valid() {
		return utils.NewValidationError("type", "must be one of: apartment, bungalow, commercial, land")
	}
	if f.PriceMin != nil && *f.PriceMin < 0 {
		return utils.NewValidationError("price_min", "must not be negative")
	}
	if f.PriceMax != nil && *f.PriceMax < 0 {
		return utils.NewValidationError("price_max", "must not be negative")
	}
	return nil
}

// ListProperties returns every property matching all set filter fields, each
// with its representative image (nil when it has none).
func (s *ListingQueryService) ListProperties(ctx context.Context, f models.ListingFilter) ([]models.PropertySummary, error) {
	if err := validateFilter(f); err != nil {
		return nil, err
	}
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	return repositories.WithReadRetry(ctx, "list properties", func(ctx context.Context) ([]models.PropertySummary, error) {
		return s.repos.Listings.ListProperties(ctx, f)
	})
}

// ListByType returns properties of type t merged with their detail.
func (s *ListingQueryService) ListByType(ctx context.Context, t models.PropertyType) ([]models.TypedListing, error) {
	if !t.Valid() {
		return nil, utils.NewValidationError("type", "must be one of: apartment, bungalow, commercial, land")
	}
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	return repositories.WithReadRetry(ctx, "list by type", func(ctx context.Context) ([]models.TypedListing, error) {
		return s.repos.Listings.ListByType(ctx, t)
	})
}

// ListByOwner returns the listings of one user. An unknown user simply owns
// nothing, so the result is empty rather than NotFound.
func (s *ListingQueryService) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.PropertySummary, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	f := models.ListingFilter{OwnerID: &ownerID}
	return repositories.WithReadRetry(ctx, "list by owner", func(ctx context.Context) ([]models.PropertySummary, error) {
		return s.repos.Listings.ListProperties(ctx, f)
	})
}

func (s *ListingQueryService) ListImages(ctx context.Context, propertyID uuid.UUID) ([]models.PropertyImage, error) {
	return s.images.ListImages(ctx, propertyID)
}

// GetPropertyDetail resolves one property with its detail and images. When
// the detail row for the declared type is missing the anomaly is logged and
// the listing is returned without a detail.
func (s *ListingQueryService) GetPropertyDetail(ctx context.Context, id uuid.UUID) (*models.Listing, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	p, err := repositories.WithReadRetry(ctx, "get property", func(ctx context.Context) (*models.Property, error) {
		return s.repos.Properties.GetByID(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, utils.NewNotFoundError("property", id.String())
	}

	detail, err := repositories.WithReadRetry(ctx, "get property detail", func(ctx context.Context) (models.PropertyDetail, error) {
		return s.repos.Details.Get(ctx, id, p.Type)
	})
	if err != nil {
		return nil, err
	}
	if detail == nil {
		s.reportAnomaly(ctx, p)
	}

	images, err := repositories.WithReadRetry(ctx, "list images", func(ctx context.Context) ([]models.PropertyImage, error) {
		return s.repos.Images.ListByProperty(ctx, id)
	})
	if err != nil {
		return nil, err
	}

	l := &models.Listing{Property: *p, Detail: detail, Images: images}
	if len(images) > 0 {
		l.ImageURL = &images[0].ImageURL
	}
	return l, nil
}

func (s *ListingQueryService) reportAnomaly(ctx context.Context, p *models.Property) {
	counts, err := s.repos.Details.CountRows(ctx, p.ID)
	if err != nil {
		utils.Logger.WithError(err).WithField("property_id", p.ID).
			Error("Property has no detail row for its type; counting rows failed")
		return
	}
	anomaly := &utils.IntegrityAnomalyError{
		PropertyID: p.ID.String(),
		Declared:   string(p.Type),
		Counts:     make(map[string]int, len(counts)),
	}
	for t, n := range counts {
		anomaly.Counts[string(t)] = n
	}
	utils.Logger.WithError(anomaly).WithFields(logrus.Fields{
		"property_id": p.ID,
		"declared":    p.Type,
	}).Error("Integrity anomaly in property details")
}
