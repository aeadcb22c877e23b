// Package rbac manages per-user event permission grants. Grants are an escape
// hatch outside the role hierarchy: they let an actor whose role alone is
// insufficient validate attendance, manage events or create events.
package rbac

import "time"

// EventPermission holds the capability flags granted to one user.
type EventPermission struct {
	UserID          int64
	CanValidate     bool
	CanManage       bool
	CanCreateEvents bool
	GrantedByID     int64
	UpdatedAt       time.Time
}

// Capability names a single grantable flag.
type Capability string

// Grantable capabilities.
const (
	CapabilityValidate     Capability = "validate"
	CapabilityManage       Capability = "manage"
	CapabilityCreateEvents Capability = "create_events"
)
