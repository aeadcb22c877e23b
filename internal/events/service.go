package events

import (
	"context"
	"fmt"
	"strings"

	"github.com/amanah-org/amanah/internal/departments"
	"github.com/amanah-org/amanah/internal/rbac"
	"github.com/amanah-org/amanah/internal/roles"
	"github.com/amanah-org/amanah/internal/shared"
)

// RepositoryPort defines data access methods for events.
type RepositoryPort interface {
	Get(ctx context.Context, id int64) (Event, error)
	List(ctx context.Context) ([]Event, error)
	Create(ctx context.Context, event Event) (Event, error)
	Update(ctx context.Context, event Event) (Event, error)
	Delete(ctx context.Context, id int64) error
}

// CapabilityPort resolves escape-hatch event permission flags.
type CapabilityPort interface {
	Has(ctx context.Context, userID int64, cap rbac.Capability) (bool, error)
}

// DepartmentPort validates department references.
type DepartmentPort interface {
	Resolve(ctx context.Context, ids []int64) ([]departments.Department, error)
}

// SeederPort schedules attendance placeholder seeding for internal events.
type SeederPort interface {
	EnqueueSeed(ctx context.Context, eventID int64) error
}

// Service coordinates event management.
type Service struct {
	repo        RepositoryPort
	caps        CapabilityPort
	departments DepartmentPort
	seeder      SeederPort
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, caps CapabilityPort, deps DepartmentPort, seeder SeederPort) *Service {
	return &Service{repo: repo, caps: caps, departments: deps, seeder: seeder}
}

// Get returns one event.
func (s *Service) Get(ctx context.Context, id int64) (Event, error) {
	return s.repo.Get(ctx, id)
}

// List returns all events.
func (s *Service) List(ctx context.Context) ([]Event, error) {
	return s.repo.List(ctx)
}

// Create registers a new event. Allowed for top-level officers and for actors
// holding the create-events grant.
func (s *Service) Create(ctx context.Context, actor *shared.Actor, input CreateInput) (Event, error) {
	if err := s.requireCapability(ctx, actor, rbac.CapabilityCreateEvents); err != nil {
		return Event{}, err
	}
	if err := s.validate(ctx, input); err != nil {
		return Event{}, err
	}
	created, err := s.repo.Create(ctx, Event{
		Title:                strings.TrimSpace(input.Title),
		Description:          input.Description,
		EventType:            input.EventType,
		IsPaid:               input.IsPaid,
		Price:                input.Price,
		HasRegistration:      input.HasRegistration,
		RegistrationDeadline: input.RegistrationDeadline,
		StartsAt:             input.StartsAt,
		Location:             input.Location,
		AllowedDepartments:   dedupe(input.AllowedDepartments),
		CreatedByID:          actor.ID,
	})
	if err != nil {
		return Event{}, err
	}
	if created.EventType == TypeInternal && s.seeder != nil {
		if err := s.seeder.EnqueueSeed(ctx, created.ID); err != nil {
			return Event{}, err
		}
	}
	return created, nil
}

// Update rewrites an event. AllowedDepartments is fully replaced, never
// merged. Allowed for the creator, top-level officers and manage-grant
// holders.
func (s *Service) Update(ctx context.Context, actor *shared.Actor, id int64, input UpdateInput) (Event, error) {
	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return Event{}, err
	}
	if err := s.requireManage(ctx, actor, current); err != nil {
		return Event{}, err
	}
	if err := s.validate(ctx, input); err != nil {
		return Event{}, err
	}
	next := current
	next.Title = strings.TrimSpace(input.Title)
	next.Description = input.Description
	next.EventType = input.EventType
	next.IsPaid = input.IsPaid
	next.Price = input.Price
	next.HasRegistration = input.HasRegistration
	next.RegistrationDeadline = input.RegistrationDeadline
	next.StartsAt = input.StartsAt
	next.Location = input.Location
	next.AllowedDepartments = dedupe(input.AllowedDepartments)

	updated, err := s.repo.Update(ctx, next)
	if err != nil {
		return Event{}, err
	}
	if updated.EventType == TypeInternal && s.seeder != nil {
		// Newly allowed departments get their pending placeholders; the
		// seeding job skips pairs that already exist.
		if err := s.seeder.EnqueueSeed(ctx, updated.ID); err != nil {
			return Event{}, err
		}
	}
	return updated, nil
}

// Delete removes an event; attendance records cascade with it.
func (s *Service) Delete(ctx context.Context, actor *shared.Actor, id int64) error {
	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.requireManage(ctx, actor, current); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

func (s *Service) requireCapability(ctx context.Context, actor *shared.Actor, cap rbac.Capability) error {
	if actor == nil {
		return fmt.Errorf("%w: no verified actor", shared.ErrUnauthenticated)
	}
	if roles.TopLevel(actor.Role) {
		return nil
	}
	if s.caps != nil {
		ok, err := s.caps.Has(ctx, actor.ID, cap)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
	}
	return fmt.Errorf("%w: not allowed to manage events", shared.ErrPermissionDenied)
}

func (s *Service) requireManage(ctx context.Context, actor *shared.Actor, event Event) error {
	if actor == nil {
		return fmt.Errorf("%w: no verified actor", shared.ErrUnauthenticated)
	}
	if actor.ID == event.CreatedByID {
		return nil
	}
	return s.requireCapability(ctx, actor, rbac.CapabilityManage)
}

func (s *Service) validate(ctx context.Context, input CreateInput) error {
	if strings.TrimSpace(input.Title) == "" {
		return fmt.Errorf("%w: title required", shared.ErrValidation)
	}
	switch input.EventType {
	case TypeInternal, TypePublic:
	default:
		return fmt.Errorf("%w: unknown event type %q", shared.ErrValidation, input.EventType)
	}
	if input.EventType == TypeInternal && len(input.AllowedDepartments) == 0 {
		return fmt.Errorf("%w: internal events require at least one allowed department", shared.ErrValidation)
	}
	if input.IsPaid && input.Price <= 0 {
		return fmt.Errorf("%w: paid events require a positive price", shared.ErrValidation)
	}
	if len(input.AllowedDepartments) > 0 {
		if _, err := s.departments.Resolve(ctx, input.AllowedDepartments); err != nil {
			return err
		}
	}
	return nil
}

func dedupe(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
