package users

import (
	"time"

	"github.com/amanah-org/amanah/internal/shared"
)

// User represents a member account.
type User struct {
	ID           int64
	Name         string
	Email        string
	PasswordHash string
	Role         shared.Role
	DepartmentID int64
	DivisionID   int64
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// CreateInput carries the fields for a new user.
type CreateInput struct {
	Name         string
	Email        string
	Password     string
	Role         shared.Role
	DepartmentID int64
	DivisionID   int64
}

// UpdateInput carries the mutable fields of an existing user. Role is empty
// when the update does not change it.
type UpdateInput struct {
	Name         string
	Email        string
	Password     string
	Role         shared.Role
	DepartmentID int64
	DivisionID   int64
	IsActive     *bool
}
