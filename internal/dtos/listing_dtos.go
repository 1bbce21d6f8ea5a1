package dtos

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/poofware/listings-service/internal/models"
	"github.com/poofware/listings-service/internal/utils"
)

// ListPropertiesQuery mirrors the query string of GET /properties. Empty
// values impose no constraint.
type ListPropertiesQuery struct {
	Status   string
	Search   string
	Type     string
	PriceMin string
	PriceMax string
}

// ToFilter parses q into a listing filter. Unparseable values are
// ValidationErrors naming the offending parameter.
func (q ListPropertiesQuery) ToFilter() (models.ListingFilter, error) {
	var f models.ListingFilter

	if s := strings.TrimSpace(q.Status); s != "" {
		st := models.PropertyStatus(strings.ToLower(s))
		if !st.Valid() {
			return f, utils.NewValidationError("status", "must be one of: available, rented, sold")
		}
		f.Status = &st
	}
	if s := strings.TrimSpace(q.Search); s != "" {
		f.Search = &s
	}
	if s := strings.TrimSpace(q.Type); s != "" {
		t, err := models.ParsePropertyType(strings.ToLower(s))
		if err != nil {
			return f, utils.NewValidationError("type", "must be one of: apartment, bungalow, commercial, land")
		}
		f.Type = &t
	}

	var err error
	if f.PriceMin, err = parsePrice("price_min", q.PriceMin); err != nil {
		return f, err
	}
	if f.PriceMax, err = parsePrice("price_max", q.PriceMax); err != nil {
		return f, err
	}
	return f, nil
}

func parsePrice(field, raw string) (*float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < 0 {
		return nil, utils.NewValidationError(field, "must be a non-negative number")
	}
	return &v, nil
}

// UpdateStatusRequest is the body of PATCH /properties/{id}/status.
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=available rented sold"`
}

// ListingResponse renders a property with its detail columns merged into the
// same JSON object, the shape clients of the listing views expect.
type ListingResponse struct {
	Property models.Property
	Detail   models.PropertyDetail
	ImageURL *string
	Images   []models.PropertyImage
	// withImages adds the "images" array (single-property view only).
	withImages bool
}

func (r ListingResponse) MarshalJSON() ([]byte, error) {
	out := map[string]any{}
	if r.Detail != nil {
		if err := mergeJSON(out, r.Detail); err != nil {
			return nil, err
		}
	}
	// property fields win over detail fields on a name clash
	if err := mergeJSON(out, r.Property); err != nil {
		return nil, err
	}
	out["image_url"] = r.ImageURL
	if r.withImages {
		images := r.Images
		if images == nil {
			images = []models.PropertyImage{}
		}
		out["images"] = images
	}
	return json.Marshal(out)
}

func mergeJSON(dst map[string]any, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return err
	}
	for k, val := range m {
		dst[k] = val
	}
	return nil
}

func NewTypedListingResponses(in []models.TypedListing) []ListingResponse {
	out := make([]ListingResponse, 0, len(in))
	for _, l := range in {
		out = append(out, ListingResponse{Property: l.Property, Detail: l.Detail, ImageURL: l.ImageURL})
	}
	return out
}

func NewListingResponse(l *models.Listing) ListingResponse {
	return ListingResponse{
		Property:   l.Property,
		Detail:     l.Detail,
		ImageURL:   l.ImageURL,
		Images:     l.Images,
		withImages: true,
	}
}

// PropertySummaryResponse is one row of the all-properties and owner views.
type PropertySummaryResponse struct {
	models.Property
	ImageURL *string `json:"image_url"`
}

func NewPropertySummaryResponses(in []models.PropertySummary) []PropertySummaryResponse {
	out := make([]PropertySummaryResponse, 0, len(in))
	for _, s := range in {
		out = append(out, PropertySummaryResponse{Property: s.Property, ImageURL: s.ImageURL})
	}
	return out
}

// ImagesResponse wraps GET /properties/{id}/images.
type ImagesResponse struct {
	Images []models.PropertyImage `json:"images"`
}
