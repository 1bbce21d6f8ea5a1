package models

import "github.com/google/uuid"

type RoleName string

const (
	RoleOwner RoleName = "Owner"
	RoleAdmin RoleName = "Admin"
	RoleUser  RoleName = "User"
)

// User is read-only here; accounts are managed by the signup collaborator.
type User struct {
	ID    uuid.UUID `json:"user_id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
	Phone *string   `json:"phone,omitempty"`
	Role  RoleName  `json:"role_name"`
}
