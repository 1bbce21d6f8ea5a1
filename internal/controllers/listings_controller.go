package controllers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/poofware/listings-service/internal/constants"
	"github.com/poofware/listings-service/internal/dtos"
	"github.com/poofware/listings-service/internal/middleware"
	"github.com/poofware/listings-service/internal/models"
	"github.com/poofware/listings-service/internal/services"
	"github.com/poofware/listings-service/internal/utils"
)

type ListingsController struct {
	props    *services.PropertyService
	queries  *services.ListingQueryService
	commands *services.ListingCommandService
}

func NewListingsController(
	props *services.PropertyService,
	queries *services.ListingQueryService,
	commands *services.ListingCommandService,
) *ListingsController {
	return &ListingsController{props: props, queries: queries, commands: commands}
}

var listingsValidate = validator.New()

func pathID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		return uuid.Nil, utils.NewValidationError("id", "must be a UUID")
	}
	return id, nil
}

// GET /api/v1/properties?status=&search=&type=&price_min=&price_max=
func (c *ListingsController) ListPropertiesHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter, err := dtos.ListPropertiesQuery{
		Status:   q.Get("status"),
		Search:   q.Get("search"),
		Type:     q.Get("type"),
		PriceMin: q.Get("price_min"),
		PriceMax: q.Get("price_max"),
	}.ToFilter()
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}

	list, err := c.queries.ListProperties(r.Context(), filter)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dtos.NewPropertySummaryResponses(list))
}

// POST /api/v1/properties (multipart/form-data)
// Fields: title, price, status, address, type, details (JSON object), images (0..5 files).
func (c *ListingsController) CreateListingHandler(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		utils.HandleAppError(w, &utils.AuthorizationError{Reason: "Caller id required"})
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, constants.MaxMultipartBytes)
	if err := r.ParseMultipartForm(1 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			utils.HandleAppError(w, utils.NewValidationError("images", "request body too large"))
			return
		}
		utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeInvalidPayload, "Invalid multipart form", nil, err)
		return
	}
	defer r.MultipartForm.RemoveAll()

	in := services.PropertyInput{
		OwnerID: ownerID,
		Title:   r.FormValue("title"),
		Price:   parseFormPrice(r.FormValue("price")),
		Status:  models.PropertyStatus(r.FormValue("status")),
		Address: r.FormValue("address"),
		Type:    models.PropertyType(r.FormValue("type")),
	}

	if err := services.ValidatePropertyInput(&in); err != nil {
		utils.HandleAppError(w, err)
		return
	}
	detail, err := models.DecodeDetail(in.Type, []byte(r.FormValue(constants.DetailsFormField)))
	if err != nil {
		utils.HandleAppError(w, utils.NewValidationError("details", err.Error()))
		return
	}
	if err := services.ValidateDetail(in.Type, detail); err != nil {
		utils.HandleAppError(w, err)
		return
	}
	uploads, err := readUploads(r.MultipartForm.File[constants.ImagesFormField])
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}

	listing, err := c.commands.CreateListing(r.Context(), services.CreateListingInput{
		Property: in,
		Detail:   detail,
		Images:   uploads,
	})
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, dtos.NewListingResponse(listing))
}

// parseFormPrice maps an unparseable price to 0 so validation reports it in
// field order.
func parseFormPrice(raw string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0
	}
	return v
}

// readUploads rejects too many or too large files before reading any bytes,
// then applies the full upload checks.
func readUploads(files []*multipart.FileHeader) ([]models.ImageUpload, error) {
	if len(files) > constants.MaxImagesPerListing {
		return nil, utils.NewValidationError("images",
			fmt.Sprintf("at most %d images are allowed, got %d", constants.MaxImagesPerListing, len(files)))
	}
	out := make([]models.ImageUpload, 0, len(files))
	for i, fh := range files {
		if fh.Size > constants.MaxImageBytes {
			return nil, utils.NewValidationError(fmt.Sprintf("images[%d]", i),
				fmt.Sprintf("exceeds %d bytes", constants.MaxImageBytes))
		}
		f, err := fh.Open()
		if err != nil {
			return nil, err
		}
		data, err := io.ReadAll(io.LimitReader(f, constants.MaxImageBytes+1))
		f.Close()
		if err != nil {
			return nil, err
		}
		out = append(out, models.ImageUpload{
			FileName:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Data:        data,
		})
	}
	if err := services.ValidateUploads(out); err != nil {
		return nil, err
	}
	return out, nil
}

// GET /api/v1/properties/{id}
func (c *ListingsController) GetPropertyHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	listing, err := c.queries.GetPropertyDetail(r.Context(), id)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dtos.NewListingResponse(listing))
}

// DELETE /api/v1/properties/{id} (Owner or Admin)
func (c *ListingsController) DeletePropertyHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	if err := c.commands.DeleteListing(r.Context(), id); err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dtos.MessageResponse{Message: "Property deleted"})
}

// GET /api/v1/properties/{id}/images
func (c *ListingsController) ListImagesHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	images, err := c.queries.ListImages(r.Context(), id)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dtos.ImagesResponse{Images: images})
}

// PATCH /api/v1/properties/{id}/status
func (c *ListingsController) UpdateStatusHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}

	var req dtos.UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeInvalidPayload, "Invalid JSON body", nil, err)
		return
	}
	req.Status = strings.ToLower(strings.TrimSpace(req.Status))
	if err := listingsValidate.StructCtx(r.Context(), req); err != nil {
		utils.HandleAppError(w, utils.NewValidationError("status", "must be one of: available, rented, sold"))
		return
	}

	p, err := c.props.UpdateStatus(r.Context(), id, models.PropertyStatus(req.Status))
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, p)
}

// ListByTypeHandler serves GET /api/v1/{apartments|bungalows|commercial|land}.
func (c *ListingsController) ListByTypeHandler(t models.PropertyType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := c.queries.ListByType(r.Context(), t)
		if err != nil {
			utils.HandleAppError(w, err)
			return
		}
		utils.RespondWithJSON(w, http.StatusOK, dtos.NewTypedListingResponses(list))
	}
}

// GET /api/v1/users/{id}/listings
func (c *ListingsController) ListByOwnerHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	list, err := c.queries.ListByOwner(r.Context(), id)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dtos.NewPropertySummaryResponses(list))
}
