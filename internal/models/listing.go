package models

import "github.com/google/uuid"

// ListingFilter is the conjunctive filter behind the all-properties view.
// Nil fields impose no constraint.
type ListingFilter struct {
	Status   *PropertyStatus
	Search   *string
	Type     *PropertyType
	PriceMin *float64
	PriceMax *float64
	OwnerID  *uuid.UUID
}

// PropertySummary is a property plus its representative image, if any.
type PropertySummary struct {
	Property
	ImageURL *string `json:"image_url"`
}

// TypedListing is a property joined with its detail and representative image.
type TypedListing struct {
	Property
	Detail   PropertyDetail `json:"-"`
	ImageURL *string        `json:"image_url"`
}

// Listing is the fully resolved single-property view. Detail is nil only when
// the stored rows are inconsistent with Property.Type.
type Listing struct {
	Property
	Detail   PropertyDetail  `json:"-"`
	ImageURL *string         `json:"image_url"`
	Images   []PropertyImage `json:"images"`
}
