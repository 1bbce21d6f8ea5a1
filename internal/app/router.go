package app

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/poofware/listings-service/internal/controllers"
	"github.com/poofware/listings-service/internal/middleware"
	"github.com/poofware/listings-service/internal/models"
	"github.com/poofware/listings-service/internal/repositories"
	"github.com/poofware/listings-service/internal/routes"
)

type Controllers struct {
	Health   *controllers.HealthController
	Listings *controllers.ListingsController
	Sessions *controllers.SessionsController
}

// NewRouter registers every route. Everything under /api resolves the
// caller first; deletes additionally require the Owner or Admin role and
// session eviction requires Admin.
func NewRouter(
	c Controllers,
	sessions middleware.SessionStore,
	users repositories.UserRepository,
	uploadsDir string,
) *mux.Router {
	router := mux.NewRouter()

	// Public
	router.HandleFunc(routes.Health, c.Health.HealthCheckHandler).Methods(http.MethodGet)
	router.PathPrefix(routes.Uploads).Handler(
		http.StripPrefix(routes.Uploads, http.FileServer(http.Dir(uploadsDir))),
	).Methods(http.MethodGet)

	api := router.NewRoute().Subrouter()
	api.Use(middleware.CallerMiddleware(sessions, users))

	api.HandleFunc(routes.Properties, c.Listings.ListPropertiesHandler).Methods(http.MethodGet)
	api.HandleFunc(routes.Properties, c.Listings.CreateListingHandler).Methods(http.MethodPost)
	api.HandleFunc(routes.Property, c.Listings.GetPropertyHandler).Methods(http.MethodGet)
	api.Handle(routes.Property,
		middleware.RequireRoles(models.RoleOwner, models.RoleAdmin)(http.HandlerFunc(c.Listings.DeletePropertyHandler)),
	).Methods(http.MethodDelete)
	api.HandleFunc(routes.PropertyImages, c.Listings.ListImagesHandler).Methods(http.MethodGet)
	api.HandleFunc(routes.PropertyStatus, c.Listings.UpdateStatusHandler).Methods(http.MethodPatch)
	api.HandleFunc(routes.UserListings, c.Listings.ListByOwnerHandler).Methods(http.MethodGet)
	api.Handle(routes.Session,
		middleware.RequireRoles(models.RoleAdmin)(http.HandlerFunc(c.Sessions.InvalidateSessionHandler)),
	).Methods(http.MethodDelete)

	api.HandleFunc(routes.Apartments, c.Listings.ListByTypeHandler(models.PropertyTypeApartment)).Methods(http.MethodGet)
	api.HandleFunc(routes.Bungalows, c.Listings.ListByTypeHandler(models.PropertyTypeBungalow)).Methods(http.MethodGet)
	api.HandleFunc(routes.Commercial, c.Listings.ListByTypeHandler(models.PropertyTypeCommercial)).Methods(http.MethodGet)
	api.HandleFunc(routes.Land, c.Listings.ListByTypeHandler(models.PropertyTypeLand)).Methods(http.MethodGet)

	return router
}
