package dtos

type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}

type MessageResponse struct {
	Message string `json:"message"`
}
