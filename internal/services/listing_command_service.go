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

// CreateListingInput is a complete new listing: the property, the detail of
// its type, and up to five images.
type CreateListingInput struct {
	Property PropertyInput
	Detail   models.PropertyDetail
	Images   []models.ImageUpload
}

// ListingCommandService creates and deletes whole listings. Every
// multi-table write runs inside one unit of work.
type ListingCommandService struct {
	repos   repositories.Repos
	uow     repositories.UnitOfWork
	images  *ImageService
	timeout time.Duration
}

func NewListingCommandService(
	repos repositories.Repos,
	uow repositories.UnitOfWork,
	images *ImageService,
	timeout time.Duration,
) *ListingCommandService {
	return &ListingCommandService{repos: repos, uow: uow, images: images, timeout: timeout}
}

// CreateListing validates everything before touching storage, writes the
// image files, then inserts property, detail and image rows in one
// transaction. A failed transaction leaves no rows and removes the files.
func (s *ListingCommandService) CreateListing(ctx context.Context, in CreateListingInput) (*models.Listing, error) {
	if err := ValidatePropertyInput(&in.Property); err != nil {
		return nil, err
	}
	if err := ValidateDetail(in.Property.Type, in.Detail); err != nil {
		return nil, err
	}
	if err := ValidateUploads(in.Images); err != nil {
		return nil, err
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	if err := ensureOwner(ctx, s.repos.Users, in.Property.OwnerID); err != nil {
		return nil, err
	}

	urls, err := s.images.saveFiles(ctx, in.Images)
	if err != nil {
		return nil, err
	}

	var listing *models.Listing
	err = s.uow.Do(ctx, func(r repositories.Repos) error {
		p, err := insertProperty(ctx, r.Properties, in.Property)
		if err != nil {
			return err
		}
		in.Detail.SetPropertyID(p.ID)
		if err := r.Details.Insert(ctx, in.Detail); err != nil {
			return err
		}
		imgs, err := r.Images.InsertMany(ctx, p.ID, urls)
		if err != nil {
			return err
		}
		listing = &models.Listing{Property: *p, Detail: in.Detail, Images: imgs}
		if len(imgs) > 0 {
			listing.ImageURL = &imgs[0].ImageURL
		}
		return nil
	})
	if err != nil {
		s.images.removeFiles(ctx, uuid.Nil, urls)
		utils.Logger.WithError(err).WithField("owner_id", in.Property.OwnerID).
			Warn("Create listing rolled back")
		return nil, mapWriteError("create listing", err)
	}

	utils.Logger.WithFields(logrus.Fields{
		"property_id": listing.ID,
		"owner_id":    listing.OwnerID,
		"type":        listing.Type,
		"images":      len(listing.Images),
	}).Info("Listing created")
	return listing, nil
}

// DeleteListing removes the property, its detail and its image rows in one
// transaction, then removes the image files best effort.
func (s *ListingCommandService) DeleteListing(ctx context.Context, id uuid.UUID) error {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	var urls []string
	err := s.uow.Do(ctx, func(r repositories.Repos) error {
		p, err := r.Properties.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if p == nil {
			return utils.NewNotFoundError("property", id.String())
		}
		if urls, err = r.Images.DeleteByProperty(ctx, id); err != nil {
			return err
		}
		if _, err := r.Details.DeleteAll(ctx, id); err != nil {
			return err
		}
		n, err := r.Properties.Delete(ctx, id)
		if err != nil {
			return err
		}
		if n == 0 {
			return utils.NewNotFoundError("property", id.String())
		}
		return nil
	})
	if err != nil {
		return mapWriteError("delete listing", err)
	}

	s.images.removeFiles(ctx, id, urls)
	utils.Logger.WithFields(logrus.Fields{
		"property_id": id,
		"images":      len(urls),
	}).Info("Listing deleted")
	return nil
}
