package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/poofware/listings-service/internal/models"
)

type PropertyImageRepository interface {
	// InsertMany stores urls in slice order, so ids increase in that order.
	InsertMany(ctx context.Context, propertyID uuid.UUID, urls []string) ([]models.PropertyImage, error)

	ListByProperty(ctx context.Context, propertyID uuid.UUID) ([]models.PropertyImage, error)
	Representative(ctx context.Context, propertyID uuid.UUID) (*string, error)

	// DeleteByProperty removes every image row and returns the urls it held.
	DeleteByProperty(ctx context.Context, propertyID uuid.UUID) ([]string, error)

	// ExistingURLs reports which of urls still have an image row.
	ExistingURLs(ctx context.Context, urls []string) (map[string]bool, error)
}

type propertyImageRepo struct {
	db DB
}

func NewPropertyImageRepository(db DB) PropertyImageRepository {
	return &propertyImageRepo{db: db}
}

func (r *propertyImageRepo) InsertMany(ctx context.Context, propertyID uuid.UUID, urls []string) ([]models.PropertyImage, error) {
	out := make([]models.PropertyImage, 0, len(urls))
	for _, u := range urls {
		img := models.PropertyImage{PropertyID: propertyID, ImageURL: u}
		err := r.db.QueryRow(ctx, `
            INSERT INTO property_images (property_id, image_url, created_at)
            VALUES ($1, $2, NOW())
            RETURNING id, created_at
        `, propertyID, u).Scan(&img.ID, &img.CreatedAt)
		if err != nil {
			return nil, err
		}
		out = append(out, img)
	}
	return out, nil
}

func (r *propertyImageRepo) ListByProperty(ctx context.Context, propertyID uuid.UUID) ([]models.PropertyImage, error) {
	rows, err := r.db.Query(ctx, `
        SELECT id, property_id, image_url, created_at
        FROM property_images
        WHERE property_id=$1
        ORDER BY id ASC
    `, propertyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.PropertyImage{}
	for rows.Next() {
		var img models.PropertyImage
		if err := rows.Scan(&img.ID, &img.PropertyID, &img.ImageURL, &img.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, img)
	}
	return out, rows.Err()
}

func (r *propertyImageRepo) Representative(ctx context.Context, propertyID uuid.UUID) (*string, error) {
	var url string
	err := r.db.QueryRow(ctx, `
        SELECT image_url FROM property_images
        WHERE property_id=$1
        ORDER BY id ASC
        LIMIT 1
    `, propertyID).Scan(&url)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &url, nil
}

func (r *propertyImageRepo) DeleteByProperty(ctx context.Context, propertyID uuid.UUID) ([]string, error) {
	rows, err := r.db.Query(ctx, `
        DELETE FROM property_images WHERE property_id=$1
        RETURNING image_url
    `, propertyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var urls []string
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, err
		}
		urls = append(urls, u)
	}
	return urls, rows.Err()
}

func (r *propertyImageRepo) ExistingURLs(ctx context.Context, urls []string) (map[string]bool, error) {
	out := make(map[string]bool, len(urls))
	if len(urls) == 0 {
		return out, nil
	}
	rows, err := r.db.Query(ctx, `
        SELECT image_url FROM property_images WHERE image_url = ANY($1)
    `, urls)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, err
		}
		out[u] = true
	}
	return out, rows.Err()
}
