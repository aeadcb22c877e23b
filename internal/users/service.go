package users

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/amanah-org/amanah/internal/roles"
	"github.com/amanah-org/amanah/internal/shared"
)

// AuditPort abstracts audit logging.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service handles user management business logic. Every mutating operation is
// gated by the role hierarchy: managing a user requires a strictly higher
// rank, and self-management is denied outright.
type Service struct {
	repo  RepositoryPort
	audit AuditPort
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, audit AuditPort) *Service {
	return &Service{repo: repo, audit: audit}
}

// List returns the users the actor is allowed to see. The listing is scoped to
// roles ranked strictly below the actor; for the lowest rank the scope set is
// empty and the listing is returned unfiltered (legacy behavior, kept).
func (s *Service) List(ctx context.Context, actor *shared.Actor) ([]User, error) {
	if actor == nil {
		return nil, fmt.Errorf("%w: no verified actor", shared.ErrUnauthenticated)
	}
	return s.repo.List(ctx, roles.RoleBasedFilter(actor))
}

// Get fetches one user, subject to the same rank scoping as List. Actors may
// always fetch themselves.
func (s *Service) Get(ctx context.Context, actor *shared.Actor, id int64) (User, error) {
	if actor == nil {
		return User{}, fmt.Errorf("%w: no verified actor", shared.ErrUnauthenticated)
	}
	user, err := s.repo.Get(ctx, id)
	if err != nil {
		return User{}, err
	}
	if actor.ID != id && roles.Level(actor.Role) <= roles.Level(user.Role) {
		return User{}, fmt.Errorf("%w: insufficient rank over target", shared.ErrPermissionDenied)
	}
	return user, nil
}

// Create registers a new user with a role strictly below the actor's own.
func (s *Service) Create(ctx context.Context, actor *shared.Actor, input CreateInput) (User, error) {
	if err := validateCreate(input); err != nil {
		return User{}, err
	}
	// Target id 0: the record does not exist yet, only the assigned role matters.
	if err := roles.CanManageUser(actor, 0, "", input.Role); err != nil {
		return User{}, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, err
	}
	created, err := s.repo.Create(ctx, User{
		Name:         strings.TrimSpace(input.Name),
		Email:        strings.ToLower(strings.TrimSpace(input.Email)),
		PasswordHash: string(hash),
		Role:         input.Role,
		DepartmentID: input.DepartmentID,
		DivisionID:   input.DivisionID,
		IsActive:     true,
	})
	if err != nil {
		return User{}, err
	}
	s.recordAudit(ctx, actor, "users.create", created.ID, map[string]any{"role": created.Role})
	return created, nil
}

// Update modifies an existing user. The actor must outrank the target both
// before and, when the role changes, after the update.
func (s *Service) Update(ctx context.Context, actor *shared.Actor, id int64, input UpdateInput) (User, error) {
	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return User{}, err
	}
	newRole := input.Role
	if newRole == current.Role {
		newRole = ""
	}
	if newRole != "" && !roles.Known(newRole) {
		return User{}, fmt.Errorf("%w: unknown role %q", shared.ErrValidation, newRole)
	}
	if err := roles.CanManageUser(actor, id, current.Role, newRole); err != nil {
		return User{}, err
	}

	next := current
	if input.Name != "" {
		next.Name = strings.TrimSpace(input.Name)
	}
	if input.Email != "" {
		next.Email = strings.ToLower(strings.TrimSpace(input.Email))
	}
	if input.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
		if err != nil {
			return User{}, err
		}
		next.PasswordHash = string(hash)
	}
	if input.Role != "" {
		next.Role = input.Role
	}
	if input.DepartmentID != 0 {
		next.DepartmentID = input.DepartmentID
	}
	if input.DivisionID != 0 {
		next.DivisionID = input.DivisionID
	}
	if input.IsActive != nil {
		next.IsActive = *input.IsActive
	}

	updated, err := s.repo.Update(ctx, next)
	if err != nil {
		return User{}, err
	}
	if newRole != "" {
		s.recordAudit(ctx, actor, "users.role_change", id, map[string]any{
			"from": current.Role,
			"to":   newRole,
		})
	}
	return updated, nil
}

// Delete removes a user the actor outranks.
func (s *Service) Delete(ctx context.Context, actor *shared.Actor, id int64) error {
	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := roles.CanManageUser(actor, id, current.Role, ""); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.recordAudit(ctx, actor, "users.delete", id, nil)
	return nil
}

func validateCreate(input CreateInput) error {
	if strings.TrimSpace(input.Name) == "" {
		return fmt.Errorf("%w: name required", shared.ErrValidation)
	}
	if strings.TrimSpace(input.Email) == "" {
		return fmt.Errorf("%w: email required", shared.ErrValidation)
	}
	if len(input.Password) < 8 {
		return fmt.Errorf("%w: password must be at least 8 characters", shared.ErrValidation)
	}
	if !roles.Known(input.Role) {
		return fmt.Errorf("%w: unknown role %q", shared.ErrValidation, input.Role)
	}
	return nil
}

func (s *Service) recordAudit(ctx context.Context, actor *shared.Actor, action string, userID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actor.ID,
		Action:   action,
		Entity:   "user",
		EntityID: fmt.Sprintf("%d", userID),
		Meta:     meta,
	})
}
