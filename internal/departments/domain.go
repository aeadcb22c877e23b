// Package departments holds the organization structure master data.
package departments

import "time"

// Department represents one organization department.
type Department struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Division represents a sub-unit inside a department.
type Division struct {
	ID           int64     `json:"id"`
	DepartmentID int64     `json:"department_id"`
	Name         string    `json:"name"`
	CreatedAt    time.Time `json:"created_at"`
}
