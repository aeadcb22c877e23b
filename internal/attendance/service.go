package attendance

import (
	"context"
	"fmt"
	"io"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/amanah-org/amanah/internal/events"
	"github.com/amanah-org/amanah/internal/rbac"
	"github.com/amanah-org/amanah/internal/roles"
	"github.com/amanah-org/amanah/internal/shared"
	"github.com/amanah-org/amanah/internal/users"
)

// RepositoryPort defines data access methods for attendance records.
type RepositoryPort interface {
	Get(ctx context.Context, id int64) (Attendance, error)
	Upsert(ctx context.Context, att Attendance) (Attendance, error)
	SetValidation(ctx context.Context, id int64, status Status, reason string, validatorID int64, at time.Time) (Attendance, error)
	SeedPlaceholders(ctx context.Context, eventID int64, userIDs []int64) (int64, error)
	ListByEvent(ctx context.Context, eventID int64) ([]Record, error)
	ListValidatedByEvent(ctx context.Context, eventID int64) ([]Record, error)
}

// EventPort fetches event data read-only.
type EventPort interface {
	Get(ctx context.Context, id int64) (events.Event, error)
}

// EligibilityPort decides whether an actor may submit to an event.
type EligibilityPort interface {
	Check(ctx context.Context, actor *shared.Actor, event events.Event) error
}

// CapabilityPort resolves escape-hatch event permission flags.
type CapabilityPort interface {
	Has(ctx context.Context, userID int64, cap rbac.Capability) (bool, error)
}

// UserPort fetches user records for validator scoping and display fields.
type UserPort interface {
	Get(ctx context.Context, id int64) (users.User, error)
}

// ProofStore persists one uploaded proof file and returns a stable opaque
// reference.
type ProofStore interface {
	Store(ctx context.Context, name string, content io.Reader) (string, error)
}

// MemberPort lists the members of a department set, used for placeholder
// seeding.
type MemberPort interface {
	MemberIDs(ctx context.Context, departmentIDs []int64) ([]int64, error)
}

// AuditPort abstracts audit logging.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service owns the attendance state machine.
type Service struct {
	repo        RepositoryPort
	eventsPort  EventPort
	eligibility EligibilityPort
	caps        CapabilityPort
	usersPort   UserPort
	members     MemberPort
	proofs      ProofStore
	audit       AuditPort
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, eventsPort EventPort, eligibility EligibilityPort, caps CapabilityPort, usersPort UserPort, members MemberPort, proofs ProofStore, audit AuditPort) *Service {
	return &Service{
		repo:        repo,
		eventsPort:  eventsPort,
		eligibility: eligibility,
		caps:        caps,
		usersPort:   usersPort,
		members:     members,
		proofs:      proofs,
		audit:       audit,
	}
}

// Submit records the actor's own attendance for an event. The write is an
// upsert keyed on (actor, event): a resubmission fully replaces the previous
// one, including any prior validation.
func (s *Service) Submit(ctx context.Context, actor *shared.Actor, input SubmitInput) (Attendance, error) {
	if actor == nil {
		return Attendance{}, fmt.Errorf("%w: no verified actor", shared.ErrUnauthenticated)
	}
	if !input.Status.SelfReportable() {
		return Attendance{}, fmt.Errorf("%w: status %q cannot be self-reported", shared.ErrValidation, input.Status)
	}

	event, err := s.eventsPort.Get(ctx, input.EventID)
	if err != nil {
		return Attendance{}, err
	}
	if err := s.eligibility.Check(ctx, actor, event); err != nil {
		return Attendance{}, err
	}

	refs := make([]string, 0, len(input.Proofs))
	for _, proof := range input.Proofs {
		ref, err := s.proofs.Store(ctx, proof.Name, proof.Content)
		if err != nil {
			return Attendance{}, err
		}
		refs = append(refs, ref)
	}

	return s.repo.Upsert(ctx, Attendance{
		EventID:   event.ID,
		UserID:    actor.ID,
		Status:    input.Status,
		ProofRefs: refs,
		Notes:     input.Notes,
	})
}

// Validate transitions a record on behalf of its attendee.
func (s *Service) Validate(ctx context.Context, validator *shared.Actor, attendanceID int64, outcome Status, rejectionReason string) (Attendance, error) {
	if validator == nil {
		return Attendance{}, fmt.Errorf("%w: no verified actor", shared.ErrUnauthenticated)
	}
	record, err := s.repo.Get(ctx, attendanceID)
	if err != nil {
		return Attendance{}, err
	}
	if !outcome.ValidOutcome() {
		return Attendance{}, fmt.Errorf("%w: invalid outcome status %q", shared.ErrValidation, outcome)
	}
	if outcome == StatusRejected && rejectionReason == "" {
		return Attendance{}, fmt.Errorf("%w: rejection requires a reason", shared.ErrValidation)
	}
	if outcome != StatusRejected {
		rejectionReason = ""
	}
	if err := s.authorizeValidator(ctx, validator, record); err != nil {
		return Attendance{}, err
	}

	validated, err := s.repo.SetValidation(ctx, attendanceID, outcome, rejectionReason, validator.ID, time.Now().UTC())
	if err != nil {
		return Attendance{}, err
	}
	s.recordAudit(ctx, validator, validated)
	return validated, nil
}

// authorizeValidator allows top-level officers everywhere, department heads
// inside their own department on internal events, and holders of the validate
// grant.
func (s *Service) authorizeValidator(ctx context.Context, validator *shared.Actor, record Attendance) error {
	if roles.TopLevel(validator.Role) {
		return nil
	}
	if validator.Role == shared.RoleKepalaDepartemen {
		event, err := s.eventsPort.Get(ctx, record.EventID)
		if err != nil {
			return err
		}
		attendee, err := s.usersPort.Get(ctx, record.UserID)
		if err != nil {
			return err
		}
		if event.EventType == events.TypeInternal &&
			attendee.DepartmentID != 0 &&
			attendee.DepartmentID == validator.DepartmentID &&
			containsID(event.AllowedDepartments, attendee.DepartmentID) {
			return nil
		}
	}
	if s.caps != nil {
		ok, err := s.caps.Has(ctx, validator.ID, rbac.CapabilityValidate)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
	}
	return fmt.Errorf("%w: not allowed to validate this attendance", shared.ErrPermissionDenied)
}

// SeedPlaceholders creates pending records for every member of the event's
// allowed departments. Safe to retry: pairs that already exist are skipped.
func (s *Service) SeedPlaceholders(ctx context.Context, eventID int64) (int64, error) {
	event, err := s.eventsPort.Get(ctx, eventID)
	if err != nil {
		return 0, err
	}
	if event.EventType != events.TypeInternal {
		return 0, nil
	}
	memberIDs, err := s.members.MemberIDs(ctx, event.AllowedDepartments)
	if err != nil {
		return 0, err
	}
	if len(memberIDs) == 0 {
		return 0, nil
	}
	return s.repo.SeedPlaceholders(ctx, eventID, memberIDs)
}

// EventSummary bundles an event with its attendance listing.
type EventSummary struct {
	Event   events.Event
	Records []Record
}

// ListForEvent returns the event and its attendance records. Restricted to
// actors who could validate at least some records of the event.
func (s *Service) ListForEvent(ctx context.Context, actor *shared.Actor, eventID int64) (EventSummary, error) {
	if err := s.requireOverview(ctx, actor); err != nil {
		return EventSummary{}, err
	}
	var summary EventSummary
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		event, err := s.eventsPort.Get(gctx, eventID)
		if err != nil {
			return err
		}
		summary.Event = event
		return nil
	})
	g.Go(func() error {
		records, err := s.repo.ListByEvent(gctx, eventID)
		if err != nil {
			return err
		}
		summary.Records = records
		return nil
	})
	if err := g.Wait(); err != nil {
		return EventSummary{}, err
	}
	return summary, nil
}

// ListValidated returns the validated records of an event with resolved
// display fields, for export and report collaborators.
func (s *Service) ListValidated(ctx context.Context, actor *shared.Actor, eventID int64) ([]Record, error) {
	if err := s.requireOverview(ctx, actor); err != nil {
		return nil, err
	}
	return s.repo.ListValidatedByEvent(ctx, eventID)
}

func (s *Service) requireOverview(ctx context.Context, actor *shared.Actor) error {
	if actor == nil {
		return fmt.Errorf("%w: no verified actor", shared.ErrUnauthenticated)
	}
	if roles.TopLevel(actor.Role) || actor.Role == shared.RoleKepalaDepartemen {
		return nil
	}
	if s.caps != nil {
		for _, cap := range []rbac.Capability{rbac.CapabilityValidate, rbac.CapabilityManage} {
			ok, err := s.caps.Has(ctx, actor.ID, cap)
			if err != nil {
				return err
			}
			if ok {
				return nil
			}
		}
	}
	return fmt.Errorf("%w: not allowed to view attendance listings", shared.ErrPermissionDenied)
}

func (s *Service) recordAudit(ctx context.Context, validator *shared.Actor, record Attendance) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  validator.ID,
		Action:   "attendance.validate",
		Entity:   "attendance",
		EntityID: fmt.Sprintf("%d", record.ID),
		Meta: map[string]any{
			"event_id": record.EventID,
			"user_id":  record.UserID,
			"status":   record.Status,
		},
	})
}

func containsID(ids []int64, id int64) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}
