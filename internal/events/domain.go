// Package events manages organization events and the attendance eligibility
// rules attached to them.
package events

import "time"

// EventType classifies who an event is for.
type EventType string

// Event classifications.
const (
	// TypeInternal restricts attendance to members of the allowed departments.
	TypeInternal EventType = "internal"
	// TypePublic is open, possibly gated by payment or registration.
	TypePublic EventType = "public"
)

// Event represents one organization event.
//
// Invariants, enforced at create and update:
//   - TypeInternal implies a non-empty AllowedDepartments set.
//   - IsPaid implies Price > 0.
//
// AllowedDepartments is replaced wholesale on update, never merged.
type Event struct {
	ID                   int64
	Title                string
	Description          string
	EventType            EventType
	IsPaid               bool
	Price                int64
	HasRegistration      bool
	RegistrationDeadline time.Time
	StartsAt             time.Time
	Location             string
	AllowedDepartments   []int64
	CreatedByID          int64
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// CreateInput carries the fields for a new event.
type CreateInput struct {
	Title                string
	Description          string
	EventType            EventType
	IsPaid               bool
	Price                int64
	HasRegistration      bool
	RegistrationDeadline time.Time
	StartsAt             time.Time
	Location             string
	AllowedDepartments   []int64
}

// UpdateInput mirrors CreateInput for full updates. AllowedDepartments fully
// replaces the stored set.
type UpdateInput = CreateInput
