package models

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// PropertyDetail is the type-specific half of a listing. Exactly one variant
// exists per property, matching Property.Type.
type PropertyDetail interface {
	PropertyType() PropertyType
	GetPropertyID() uuid.UUID
	SetPropertyID(id uuid.UUID)
}

type ApartmentDetail struct {
	PropertyID   uuid.UUID `json:"property_id"`
	Rooms        int       `json:"rooms" validate:"gt=0,lte=2147483647"`
	Bathrooms    int       `json:"bathrooms" validate:"gt=0,lte=2147483647"`
	Kitchen      bool      `json:"kitchen"`
	CarpetArea   int       `json:"carpet_area" validate:"gt=0,lte=2147483647"`
	SuperBuiltUp *int      `json:"super_built_up" validate:"omitempty,gt=0,lte=2147483647"`
	FloorNumber  *int      `json:"floor_number" validate:"omitempty,gte=0,lte=2147483647"`
}

type BungalowDetail struct {
	PropertyID uuid.UUID `json:"property_id"`
	Bedrooms   int       `json:"bedrooms" validate:"gt=0,lte=2147483647"`
	Bathrooms  int       `json:"bathrooms" validate:"gt=0,lte=2147483647"`
	Kitchen    bool      `json:"kitchen"`
	Garden     bool      `json:"garden"`
	Parking    bool      `json:"parking"`
	TotalArea  int       `json:"total_area" validate:"gt=0,lte=2147483647"`
}

type CommercialDetail struct {
	PropertyID    uuid.UUID `json:"property_id"`
	Floors        int       `json:"floors" validate:"gt=0,lte=2147483647"`
	TotalArea     int       `json:"total_area" validate:"gt=0,lte=2147483647"`
	ParkingSpace  bool      `json:"parking_space"`
	LiftAvailable bool      `json:"lift_available"`
}

type LandDetail struct {
	PropertyID uuid.UUID `json:"property_id"`
	Area       int       `json:"area" validate:"gt=0,lte=2147483647"`
	Zone       *string   `json:"zone"`
}

func (d *ApartmentDetail) PropertyType() PropertyType  { return PropertyTypeApartment }
func (d *BungalowDetail) PropertyType() PropertyType   { return PropertyTypeBungalow }
func (d *CommercialDetail) PropertyType() PropertyType { return PropertyTypeCommercial }
func (d *LandDetail) PropertyType() PropertyType       { return PropertyTypeLand }

func (d *ApartmentDetail) GetPropertyID() uuid.UUID  { return d.PropertyID }
func (d *BungalowDetail) GetPropertyID() uuid.UUID   { return d.PropertyID }
func (d *CommercialDetail) GetPropertyID() uuid.UUID { return d.PropertyID }
func (d *LandDetail) GetPropertyID() uuid.UUID       { return d.PropertyID }

func (d *ApartmentDetail) SetPropertyID(id uuid.UUID)  { d.PropertyID = id }
func (d *BungalowDetail) SetPropertyID(id uuid.UUID)   { d.PropertyID = id }
func (d *CommercialDetail) SetPropertyID(id uuid.UUID) { d.PropertyID = id }
func (d *LandDetail) SetPropertyID(id uuid.UUID)       { d.PropertyID = id }

// NewDetail returns an empty detail of the given variant.
func NewDetail(t PropertyType) (PropertyDetail, error) {
	switch t {
	case PropertyTypeApartment:
		return &ApartmentDetail{}, nil
	case PropertyTypeBungalow:
		return &BungalowDetail{}, nil
	case PropertyTypeCommercial:
		return &CommercialDetail{}, nil
	case PropertyTypeLand:
		return &LandDetail{}, nil
	}
	return nil, fmt.Errorf("invalid property type: %q", t)
}

// DecodeDetail parses raw JSON into the variant selected by t. Unknown keys
// are rejected so a payload meant for another type does not pass silently.
func DecodeDetail(t PropertyType, raw []byte) (PropertyDetail, error) {
	d, err := NewDetail(t)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return d, nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(d); err != nil {
		return nil, fmt.Errorf("decoding %s details: %w", t, err)
	}
	return d, nil
}
