package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/poofware/listings-service/internal/models"
	"github.com/poofware/listings-service/internal/repositories"
	"github.com/poofware/listings-service/internal/utils"
	"github.com/sirupsen/logrus"
)

// PropertyService covers single-row operations on the parent property.
type PropertyService struct {
	repos   repositories.Repos
	timeout time.Duration
}

func NewPropertyService(repos repositories.Repos, timeout time.Duration) *PropertyService {
	return &PropertyService{repos: repos, timeout: timeout}
}

// InsertProperty validates in and stores the parent row only. Listings that
// need a detail go through ListingCommandService.CreateListing.
func (s *PropertyService) InsertProperty(ctx context.Context, in PropertyInput) (*models.Property, error) {
	if err := ValidatePropertyInput(&in); err != nil {
		return nil, err
	}
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	if err := ensureOwner(ctx, s.repos.Users, in.OwnerID); err != nil {
		return nil, err
	}
	p, err := insertProperty(ctx, s.repos.Properties, in)
	if err != nil {
		return nil, mapWriteError("insert property", err)
	}
	return p, nil
}

// GetProperty returns nil, nil when the property does not exist.
func (s *PropertyService) GetProperty(ctx context.Context, id uuid.UUID) (*models.Property, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	return repositories.WithReadRetry(ctx, "get property", func(ctx context.Context) (*models.Property, error) {
		return s.repos.Properties.GetByID(ctx, id)
	})
}

func (s *PropertyService) DeleteProperty(ctx context.Context, id uuid.UUID) error {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	n, err := s.repos.Properties.Delete(ctx, id)
	if err != nil {
		return mapWriteError("delete property", err)
	}
	if n == 0 {
		return utils.NewNotFoundError("property", id.String())
	}
	return nil
}

// UpdateStatus moves a property to any known status, retrying on concurrent
// row_version bumps.
func (s *PropertyService) UpdateStatus(ctx context.Context, id uuid.UUID, status models.PropertyStatus) (*models.Property, error) {
	if !status.Valid() {
		return nil, utils.NewValidationError("status", "must be one of: available, rented, sold")
	}
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	var updated *models.Property
	err := s.repos.Properties.UpdateWithRetry(ctx, id, func(p *models.Property) error {
		p.Status = status
		updated = p
		return nil
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, utils.NewNotFoundError("property", id.String())
		}
		if errors.Is(err, utils.ErrRowVersionConflict) {
			return nil, err
		}
		return nil, mapWriteError("update property status", err)
	}

	utils.Logger.WithFields(logrus.Fields{
		"property_id": id,
		"status":      status,
	}).Info("Property status updated")
	return updated, nil
}
