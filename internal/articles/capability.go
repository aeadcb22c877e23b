package articles

import (
	"context"

	"github.com/amanah-org/amanah/internal/roles"
	"github.com/amanah-org/amanah/internal/shared"
	"github.com/amanah-org/amanah/internal/users"
)

// SetPort reads the current authorized-department set.
type SetPort interface {
	AuthorizedDepartmentIDs(ctx context.Context) ([]int64, error)
}

// UserPort fetches user records, used to resolve an author's current
// department.
type UserPort interface {
	Get(ctx context.Context, id int64) (users.User, error)
}

// staffRole reports whether the role belongs to the department-staff subset
// that may manage articles when its department is authorized.
func staffRole(role shared.Role) bool {
	return role == shared.RoleKepalaDepartemen || role == shared.RoleStaf
}

// Resolver answers article capability questions against the live
// authorized-department set. Decisions are evaluated per call, never cached:
// removing a department from the set revokes its members immediately.
type Resolver struct {
	set       SetPort
	usersPort UserPort
}

// NewResolver builds Resolver instance.
func NewResolver(set SetPort, usersPort UserPort) *Resolver {
	return &Resolver{set: set, usersPort: usersPort}
}

// CanManageArticle reports whether the actor may create and manage articles.
// Top-level officers always may; department staff may while their department
// is in the authorized set.
func (r *Resolver) CanManageArticle(ctx context.Context, actor *shared.Actor) (bool, error) {
	if actor == nil {
		return false, nil
	}
	if roles.TopLevel(actor.Role) {
		return true, nil
	}
	if !staffRole(actor.Role) || actor.DepartmentID == 0 {
		return false, nil
	}
	return r.departmentAuthorized(ctx, actor.DepartmentID)
}

// CanEditArticle reports whether the actor may edit the given article.
// Authorship alone is not enough: the author keeps edit rights only while
// their department stays authorized. Department colleagues of the author may
// edit under the same condition.
func (r *Resolver) CanEditArticle(ctx context.Context, actor *shared.Actor, article Article) (bool, error) {
	if actor == nil {
		return false, nil
	}
	if roles.TopLevel(actor.Role) {
		return true, nil
	}
	if actor.ID == article.AuthorID {
		return r.CanManageArticle(ctx, actor)
	}
	if !staffRole(actor.Role) || actor.DepartmentID == 0 {
		return false, nil
	}
	author, err := r.usersPort.Get(ctx, article.AuthorID)
	if err != nil {
		return false, err
	}
	if actor.DepartmentID != author.DepartmentID {
		return false, nil
	}
	return r.departmentAuthorized(ctx, actor.DepartmentID)
}

func (r *Resolver) departmentAuthorized(ctx context.Context, departmentID int64) (bool, error) {
	ids, err := r.set.AuthorizedDepartmentIDs(ctx)
	if err != nil {
		return false, err
	}
	for _, id := range ids {
		if id == departmentID {
			return true, nil
		}
	}
	return false, nil
}
