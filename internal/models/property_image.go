package models

import (
	"time"

	"github.com/google/uuid"
)

// PropertyImage is one stored image. IDs increase strictly with insertion, so
// the lowest ID per property is its representative image.
type PropertyImage struct {
	ID         int64     `json:"image_id"`
	PropertyID uuid.UUID `json:"property_id"`
	ImageURL   string    `json:"image_url"`
	CreatedAt  time.Time `json:"created_at"`
}
