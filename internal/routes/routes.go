package routes

const (
	// Health
	Health = "/health"

	// Properties
	Properties     = "/api/v1/properties"
	Property       = "/api/v1/properties/{id}"
	PropertyImages = "/api/v1/properties/{id}/images"
	PropertyStatus = "/api/v1/properties/{id}/status"
	UserListings   = "/api/v1/users/{id}/listings"

	// Cached caller sessions
	Session = "/api/v1/sessions/{id}"

	// Typed listing views
	Apartments = "/api/v1/apartments"
	Bungalows  = "/api/v1/bungalows"
	Commercial = "/api/v1/commercial"
	Land       = "/api/v1/land"

	// Static uploads
	Uploads = "/uploads/"
)
