package rbac

import (
	"context"
	"errors"
	"fmt"

	"github.com/amanah-org/amanah/internal/roles"
	"github.com/amanah-org/amanah/internal/shared"
)

// AuditPort abstracts audit logging.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service orchestrates event permission grants.
type Service struct {
	repo  RepositoryPort
	audit AuditPort
}

// NewService constructs a Service.
func NewService(repo RepositoryPort, audit AuditPort) *Service {
	return &Service{repo: repo, audit: audit}
}

// Has reports whether the user holds the given capability. A missing grant row
// simply means no capabilities.
func (s *Service) Has(ctx context.Context, userID int64, cap Capability) (bool, error) {
	perm, err := s.repo.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	switch cap {
	case CapabilityValidate:
		return perm.CanValidate, nil
	case CapabilityManage:
		return perm.CanManage, nil
	case CapabilityCreateEvents:
		return perm.CanCreateEvents, nil
	default:
		return false, nil
	}
}

// Grant replaces the flags for a user. Only top-level officers may change
// grants, and nobody may grant flags to themselves.
func (s *Service) Grant(ctx context.Context, actor *shared.Actor, perm EventPermission) error {
	if err := roles.RequireMinimumRole(actor, shared.RoleWakilKetua); err != nil {
		return err
	}
	if actor.ID == perm.UserID {
		return fmt.Errorf("%w: self-management forbidden", shared.ErrPermissionDenied)
	}
	perm.GrantedByID = actor.ID
	if err := s.repo.Upsert(ctx, perm); err != nil {
		return err
	}
	s.recordAudit(ctx, actor, perm)
	return nil
}

// Revoke removes every flag for a user.
func (s *Service) Revoke(ctx context.Context, actor *shared.Actor, userID int64) error {
	if err := roles.RequireMinimumRole(actor, shared.RoleWakilKetua); err != nil {
		return err
	}
	return s.repo.Delete(ctx, userID)
}

// List returns every grant; restricted to top-level officers.
func (s *Service) List(ctx context.Context, actor *shared.Actor) ([]EventPermission, error) {
	if err := roles.RequireMinimumRole(actor, shared.RoleWakilKetua); err != nil {
		return nil, err
	}
	return s.repo.List(ctx)
}

func (s *Service) recordAudit(ctx context.Context, actor *shared.Actor, perm EventPermission) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actor.ID,
		Action:   "rbac.grant",
		Entity:   "event_permission",
		EntityID: fmt.Sprintf("%d", perm.UserID),
		Meta: map[string]any{
			"can_validate":      perm.CanValidate,
			"can_manage":        perm.CanManage,
			"can_create_events": perm.CanCreateEvents,
		},
	})
}
