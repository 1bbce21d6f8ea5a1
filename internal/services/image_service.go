package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/poofware/listings-service/internal/constants"
	"github.com/poofware/listings-service/internal/models"
	"github.com/poofware/listings-service/internal/repositories"
	"github.com/poofware/listings-service/internal/storage"
	"github.com/poofware/listings-service/internal/utils"
	"github.com/sirupsen/logrus"
)

// ImageService owns image attachments: files in the FileStore and their rows.
type ImageService struct {
	repos   repositories.Repos
	uow     repositories.UnitOfWork
	files   storage.FileStore
	timeout time.Duration
	now     func() time.Time
}

func NewImageService(
	repos repositories.Repos,
	uow repositories.UnitOfWork,
	files storage.FileStore,
	timeout time.Duration,
) *ImageService {
	return &ImageService{
		repos:   repos,
		uow:     uow,
		files:   files,
		timeout: timeout,
		now:     time.Now,
	}
}

func (s *ImageService) ValidateUploads(uploads []models.ImageUpload) error {
	return ValidateUploads(uploads)
}

// AttachImages adds uploads to an existing property. Rows are inserted in
// upload order; if the insert fails the written files are removed again.
func (s *ImageService) AttachImages(ctx context.Context, propertyID uuid.UUID, uploads []models.ImageUpload) ([]models.PropertyImage, error) {
	if err := ValidateUploads(uploads); err != nil {
		return nil, err
	}
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	p, err := repositories.WithReadRetry(ctx, "get property", func(ctx context.Context) (*models.Property, error) {
		return s.repos.Properties.GetByID(ctx, propertyID)
	})
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, utils.NewNotFoundError("property", propertyID.String())
	}
	existing, err := repositories.WithReadRetry(ctx, "list images", func(ctx context.Context) ([]models.PropertyImage, error) {
		return s.repos.Images.ListByProperty(ctx, propertyID)
	})
	if err != nil {
		return nil, err
	}
	if len(existing)+len(uploads) > constants.MaxImagesPerListing {
		return nil, utils.NewValidationError("images",
			fmt.Sprintf("property already has %d images, at most %d are allowed", len(existing), constants.MaxImagesPerListing))
	}

	urls, err := s.saveFiles(ctx, uploads)
	if err != nil {
		return nil, err
	}

	var out []models.PropertyImage
	err = s.uow.Do(ctx, func(r repositories.Repos) error {
		var err error
		out, err = r.Images.InsertMany(ctx, propertyID, urls)
		return err
	})
	if err != nil {
		s.removeFiles(ctx, propertyID, urls)
		if repositories.IsForeignKeyViolation(err) {
			return nil, utils.NewNotFoundError("property", propertyID.String())
		}
		return nil, mapWriteError("attach images", err)
	}
	return out, nil
}

// RepresentativeImage returns the url of the lowest-id image, or nil.
func (s *ImageService) RepresentativeImage(ctx context.Context, propertyID uuid.UUID) (*string, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	return repositories.WithReadRetry(ctx, "representative image", func(ctx context.Context) (*string, error) {
		return s.repos.Images.Representative(ctx, propertyID)
	})
}

// ListImages returns images in id order. A property without images yields an
// empty slice; an unknown property is NotFound.
func (s *ImageService) ListImages(ctx context.Context, propertyID uuid.UUID) ([]models.PropertyImage, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	p, err := repositories.WithReadRetry(ctx, "get property", func(ctx context.Context) (*models.Property, error) {
		return s.repos.Properties.GetByID(ctx, propertyID)
	})
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, utils.NewNotFoundError("property", propertyID.String())
	}
	return repositories.WithReadRetry(ctx, "list images", func(ctx context.Context) ([]models.PropertyImage, error) {
		return s.repos.Images.ListByProperty(ctx, propertyID)
	})
}

// DeleteAllImages removes the rows, then the files. File failures are logged
// and never returned.
func (s *ImageService) DeleteAllImages(ctx context.Context, propertyID uuid.UUID) error {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	urls, err := s.repos.Images.DeleteByProperty(ctx, propertyID)
	if err != nil {
		return mapWriteError("delete images", err)
	}
	s.removeFiles(ctx, propertyID, urls)
	return nil
}

// saveFiles writes every upload under a collision-resistant name. On failure
// the files already written are removed and the error returned.
func (s *ImageService) saveFiles(ctx context.Context, uploads []models.ImageUpload) ([]string, error) {
	urls := make([]string, 0, len(uploads))
	for _, up := range uploads {
		url, err := s.files.Save(ctx, utils.UploadFileName(s.now(), up.FileName), up.Data)
		if err != nil {
			s.removeFiles(ctx, uuid.Nil, urls)
			return nil, err
		}
		urls = append(urls, url)
	}
	return urls, nil
}

// removeFiles is best effort. It ignores ctx cancellation so cleanup still
// runs after a request deadline.
func (s *ImageService) removeFiles(ctx context.Context, propertyID uuid.UUID, urls []string) {
	ctx = context.WithoutCancel(ctx)
	for _, u := range urls {
		if err := s.files.Remove(ctx, u); err != nil {
			utils.Logger.WithError(err).WithFields(logrus.Fields{
				"property_id": propertyID,
				"image_url":   u,
			}).Warn("Failed to remove image file")
		}
	}
}
