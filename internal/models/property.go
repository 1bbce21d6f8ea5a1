package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type PropertyStatus string

const (
	PropertyStatusAvailable PropertyStatus = "available"
	PropertyStatusRented    PropertyStatus = "rented"
	PropertyStatusSold      PropertyStatus = "sold"
)

// Valid reports whether s is any known status.
func (s PropertyStatus) Valid() bool {
	switch s {
	case PropertyStatusAvailable, PropertyStatusRented, PropertyStatusSold:
		return true
	}
	return false
}

// Listable reports whether a new listing may start in status s.
func (s PropertyStatus) Listable() bool {
	return s == PropertyStatusAvailable || s == PropertyStatusRented
}

type PropertyType string

const (
	PropertyTypeApartment  PropertyType = "apartment"
	PropertyTypeBungalow   PropertyType = "bungalow"
	PropertyTypeCommercial PropertyType = "commercial"
	PropertyTypeLand       PropertyType = "land"
)

// AllPropertyTypes lists the variants in their canonical resolution order.
var AllPropertyTypes = []PropertyType{
	PropertyTypeApartment,
	PropertyTypeBungalow,
	PropertyTypeCommercial,
	PropertyTypeLand,
}

func (t PropertyType) Valid() bool {
	switch t {
	case PropertyTypeApartment, PropertyTypeBungalow, PropertyTypeCommercial, PropertyTypeLand:
		return true
	}
	return false
}

func ParsePropertyType(s string) (PropertyType, error) {
	t := PropertyType(s)
	if !t.Valid() {
		return "", fmt.Errorf("invalid property type: %q", s)
	}
	return t, nil
}

type Property struct {
	Versioned
	ID        uuid.UUID      `json:"property_id"`
	OwnerID   uuid.UUID      `json:"owner_id"`
	Title     string         `json:"title"`
	Price     float64        `json:"price"`
	Status    PropertyStatus `json:"status"`
	Address   string         `json:"address"`
	Type      PropertyType   `json:"type"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

func (p *Property) GetID() uuid.UUID { return p.ID }
