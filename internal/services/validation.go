package services

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/poofware/listings-service/internal/constants"
	"github.com/poofware/listings-service/internal/models"
	"github.com/poofware/listings-service/internal/utils"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report json names so a ValidationError names the field the client sent.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// toValidationError converts the first validator failure into the service
// error taxonomy. Field order in the struct decides which failure wins.
func toValidationError(prefix string, err error) error {
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) || len(ves) == 0 {
		return utils.NewValidationError(strings.TrimSuffix(prefix, "."), err.Error())
	}
	fe := ves[0]
	return utils.NewValidationError(prefix+fe.Field(), describe(fe))
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "gt":
		return "must be greater than " + fe.Param()
	case "gte":
		return "must be at least " + fe.Param()
	case "lte":
		return "must be at most " + fe.Param()
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	}
	return fmt.Sprintf("failed %q check", fe.Tag())
}

// PropertyInput is the caller-supplied part of a new property. Field order
// matches the order in which failures are reported.
type PropertyInput struct {
	OwnerID uuid.UUID             `json:"owner_id"`
	Title   string                `json:"title" validate:"required,max=200"`
	Price   float64               `json:"price" validate:"gt=0,gte=0.01,lte=999999999999.99"`
	Status  models.PropertyStatus `json:"status" validate:"oneof=available rented"`
	Address string                `json:"address" validate:"required,max=500"`
	Type    models.PropertyType   `json:"type" validate:"oneof=apartment bungalow commercial land"`
}

func (in *PropertyInput) normalize() {
	in.Title = strings.TrimSpace(in.Title)
	in.Address = strings.TrimSpace(in.Address)
	in.Status = models.PropertyStatus(strings.ToLower(strings.TrimSpace(string(in.Status))))
	in.Type = models.PropertyType(strings.ToLower(strings.TrimSpace(string(in.Type))))
}

// ValidatePropertyInput normalizes in and reports the first invalid field in
// the order title, price, status, address, type.
func ValidatePropertyInput(in *PropertyInput) error {
	in.normalize()
	if err := validate.Struct(in); err != nil {
		return toValidationError("", err)
	}
	return nil
}

// ValidateDetail checks that d is present, matches t and has in-range values.
func ValidateDetail(t models.PropertyType, d models.PropertyDetail) error {
	if d == nil {
		return utils.NewValidationError("details", "is required")
	}
	if d.PropertyType() != t {
		return utils.NewValidationError("details", fmt.Sprintf("are for %s, not %s", d.PropertyType(), t))
	}
	if err := validate.Struct(d); err != nil {
		return toValidationError("details.", err)
	}
	return nil
}

// ValidateUploads checks count, size and MIME type of every upload. The MIME
// type is sniffed from the bytes; a declared type, when present, must agree
// that the file is an image.
func ValidateUploads(uploads []models.ImageUpload) error {
	if len(uploads) > constants.MaxImagesPerListing {
		return utils.NewValidationError("images",
			fmt.Sprintf("at most %d images are allowed, got %d", constants.MaxImagesPerListing, len(uploads)))
	}
	for i, up := range uploads {
		field := fmt.Sprintf("images[%d]", i)
		if len(up.Data) == 0 {
			return utils.NewValidationError(field, "is empty")
		}
		if len(up.Data) > constants.MaxImageBytes {
			return utils.NewValidationError(field,
				fmt.Sprintf("exceeds %d bytes", constants.MaxImageBytes))
		}
		if !strings.HasPrefix(http.DetectContentType(up.Data), "image/") {
			return utils.NewValidationError(field, "is not an image")
		}
		if up.ContentType != "" && !strings.HasPrefix(strings.ToLower(up.ContentType), "image/") {
			return utils.NewValidationError(field, "declared content type is not an image")
		}
	}
	return nil
}
