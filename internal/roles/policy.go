package roles

import (
	"fmt"

	"github.com/amanah-org/amanah/internal/shared"
)

// RequireRole passes iff the actor's role is a member of the allowed set.
// Membership is exact, not hierarchy based: a higher rank outside the set is
// still denied.
func RequireRole(actor *shared.Actor, allowed ...shared.Role) error {
	if actor == nil {
		return fmt.Errorf("%w: no verified actor", shared.ErrUnauthenticated)
	}
	for _, role := range allowed {
		if actor.Role == role {
			return nil
		}
	}
	return fmt.Errorf("%w: role %s is not permitted for this operation", shared.ErrPermissionDenied, actor.Role)
}

// RequireMinimumRole passes iff the actor's rank is at least the rank of min.
func RequireMinimumRole(actor *shared.Actor, min shared.Role) error {
	if actor == nil {
		return fmt.Errorf("%w: no verified actor", shared.ErrUnauthenticated)
	}
	if Level(actor.Role) < Level(min) {
		return fmt.Errorf("%w: requires at least %s", shared.ErrPermissionDenied, min)
	}
	return nil
}

// CanManageUser decides whether actor may create, update or delete the target
// identity. Management requires a strictly higher rank, and self-management is
// always denied regardless of rank. When the operation assigns a new role,
// newRole must also rank strictly below the actor; pass an empty role when no
// role change is involved.
func CanManageUser(actor *shared.Actor, targetID int64, targetRole, newRole shared.Role) error {
	if actor == nil {
		return fmt.Errorf("%w: no verified actor", shared.ErrUnauthenticated)
	}
	if actor.ID == targetID {
		return fmt.Errorf("%w: self-management forbidden", shared.ErrPermissionDenied)
	}
	if Level(actor.Role) <= Level(targetRole) {
		return fmt.Errorf("%w: insufficient rank over target", shared.ErrPermissionDenied)
	}
	if newRole != "" && Level(actor.Role) <= Level(newRole) {
		return fmt.Errorf("%w: cannot assign a role at or above own rank", shared.ErrPermissionDenied)
	}
	return nil
}

// RoleBasedFilter returns the set of roles ranked strictly below the actor,
// used to scope listing queries so an actor only sees lower-ranked identities.
// For the lowest rank the set is empty, which callers treat as "no filter";
// this mirrors the legacy behavior and is deliberate.
func RoleBasedFilter(actor *shared.Actor) []shared.Role {
	if actor == nil {
		return nil
	}
	own := Level(actor.Role)
	var allowed []shared.Role
	for _, role := range All() {
		if Level(role) < own {
			allowed = append(allowed, role)
		}
	}
	return allowed
}
