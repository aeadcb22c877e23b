package attendance

import (
	"context"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/amanah-org/amanah/internal/events"
	"github.com/amanah-org/amanah/internal/rbac"
	"github.com/amanah-org/amanah/internal/shared"
	"github.com/amanah-org/amanah/internal/users"
)

type memoryRepo struct {
	records map[int64]Attendance
	nextID  int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{records: make(map[int64]Attendance)}
}

func (r *memoryRepo) Get(ctx context.Context, id int64) (Attendance, error) {
	att, ok := r.records[id]
	if !ok {
		return Attendance{}, fmt.Errorf("%w: attendance %d", shared.ErrNotFound, id)
	}
	return att, nil
}

func (r *memoryRepo) Upsert(ctx context.Context, att Attendance) (Attendance, error) {
	for id, existing := range r.records {
		if existing.UserID == att.UserID && existing.EventID == att.EventID {
			att.ID = id
			att.CreatedAt = existing.CreatedAt
			att.UpdatedAt = time.Now().UTC()
			r.records[id] = att
			return att, nil
		}
	}
	r.nextID++
	att.ID = r.nextID
	att.CreatedAt = time.Now().UTC()
	att.UpdatedAt = att.CreatedAt
	r.records[att.ID] = att
	return att, nil
}

func (r *memoryRepo) SetValidation(ctx context.Context, id int64, status Status, reason string, validatorID int64, at time.Time) (Attendance, error) {
	att, ok := r.records[id]
	if !ok {
		return Attendance{}, fmt.Errorf("%w: attendance %d", shared.ErrNotFound, id)
	}
	att.Status = status
	att.RejectionReason = reason
	att.ValidatedAt = at
	att.ValidatedByID = validatorID
	att.UpdatedAt = at
	r.records[id] = att
	return att, nil
}

func (r *memoryRepo) SeedPlaceholders(ctx context.Context, eventID int64, userIDs []int64) (int64, error) {
	var inserted int64
	for _, userID := range userIDs {
		exists := false
		for _, existing := range r.records {
			if existing.UserID == userID && existing.EventID == eventID {
				exists = true
				break
			}
		}
		if exists {
			continue
		}
		r.nextID++
		r.records[r.nextID] = Attendance{ID: r.nextID, EventID: eventID, UserID: userID, Status: StatusPending}
		inserted++
	}
	return inserted, nil
}

func (r *memoryRepo) ListByEvent(ctx context.Context, eventID int64) ([]Record, error) {
	var out []Record
	for _, att := range r.records {
		if att.EventID == eventID {
			out = append(out, Record{Attendance: att})
		}
	}
	return out, nil
}

func (r *memoryRepo) ListValidatedByEvent(ctx context.Context, eventID int64) ([]Record, error) {
	var out []Record
	for _, att := range r.records {
		if att.EventID == eventID && att.Validated() {
			out = append(out, Record{Attendance: att})
		}
	}
	return out, nil
}

type stubEvents struct {
	events map[int64]events.Event
}

func (s stubEvents) Get(ctx context.Context, id int64) (events.Event, error) {
	event, ok := s.events[id]
	if !ok {
		return events.Event{}, fmt.Errorf("%w: event %d", shared.ErrNotFound, id)
	}
	return event, nil
}

type stubEligibility struct {
	denied map[int64]bool
}

func (s stubEligibility) Check(ctx context.Context, actor *shared.Actor, event events.Event) error {
	if s.denied[actor.ID] {
		return fmt.Errorf("%w: department not required to attend", shared.ErrPermissionDenied)
	}
	return nil
}

type stubCaps struct {
	grants map[int64]map[rbac.Capability]bool
}

func (s stubCaps) Has(ctx context.Context, userID int64, cap rbac.Capability) (bool, error) {
	return s.grants[userID][cap], nil
}

type stubUsers struct {
	users map[int64]users.User
}

func (s stubUsers) Get(ctx context.Context, id int64) (users.User, error) {
	user, ok := s.users[id]
	if !ok {
		return users.User{}, fmt.Errorf("%w: user %d", shared.ErrNotFound, id)
	}
	return user, nil
}

type stubMembers struct {
	byDept map[int64][]int64
}

func (s stubMembers) MemberIDs(ctx context.Context, departmentIDs []int64) ([]int64, error) {
	var out []int64
	for _, id := range departmentIDs {
		out = append(out, s.byDept[id]...)
	}
	return out, nil
}

type memoryProofs struct {
	stored []string
}

func (p *memoryProofs) Store(ctx context.Context, name string, content io.Reader) (string, error) {
	if _, err := io.Copy(io.Discard, content); err != nil {
		return "", err
	}
	ref := fmt.Sprintf("proof-%d-%s", len(p.stored)+1, name)
	p.stored = append(p.stored, ref)
	return ref, nil
}

type noopAudit struct{}

func (noopAudit) Record(ctx context.Context, log shared.AuditLog) error { return nil }

func newTestService() (*Service, *memoryRepo, *memoryProofs) {
	repo := newMemoryRepo()
	proofs := &memoryProofs{}
	eventStore := stubEvents{events: map[int64]events.Event{
		1: {ID: 1, Title: "Rapat Kerja", EventType: events.TypeInternal, AllowedDepartments: []int64{5}},
		2: {ID: 2, Title: "Seminar", EventType: events.TypePublic},
	}}
	svc := NewService(
		repo,
		eventStore,
		stubEligibility{denied: map[int64]bool{66: true}},
		stubCaps{grants: map[int64]map[rbac.Capability]bool{
			40: {rbac.CapabilityValidate: true},
		}},
		stubUsers{users: map[int64]users.User{
			3: {ID: 3, Name: "Sari", Role: shared.RoleAnggota, DepartmentID: 5},
			9: {ID: 9, Name: "Budi", Role: shared.RoleAnggota, DepartmentID: 6},
		}},
		stubMembers{byDept: map[int64][]int64{5: {3, 7}}},
		proofs,
		noopAudit{},
	)
	return svc, repo, proofs
}

func TestSubmitRejectsValidatorOnlyStatuses(t *testing.T) {
	svc, _, _ := newTestService()
	actor := &shared.Actor{ID: 3, Role: shared.RoleAnggota, DepartmentID: 5}

	for _, status := range []Status{StatusAbsent, StatusRejected, StatusPending, Status("late")} {
		_, err := svc.Submit(context.Background(), actor, SubmitInput{EventID: 1, Status: status})
		require.ErrorIs(t, err, shared.ErrValidation, "status %q", status)
	}
}

func TestSubmitChecksEligibility(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.Submit(context.Background(), &shared.Actor{ID: 66, Role: shared.RoleAnggota}, SubmitInput{EventID: 1, Status: StatusPresent})
	require.ErrorIs(t, err, shared.ErrPermissionDenied)

	_, err = svc.Submit(context.Background(), nil, SubmitInput{EventID: 1, Status: StatusPresent})
	require.ErrorIs(t, err, shared.ErrUnauthenticated)
}

func TestSubmitStoresProofs(t *testing.T) {
	svc, _, proofs := newTestService()
	actor := &shared.Actor{ID: 3, Role: shared.RoleAnggota, DepartmentID: 5}

	att, err := svc.Submit(context.Background(), actor, SubmitInput{
		EventID: 1,
		Status:  StatusExcused,
		Notes:   "surat dokter",
		Proofs:  []ProofFile{{Name: "surat.pdf", Content: strings.NewReader("pdf-bytes")}},
	})
	require.NoError(t, err)
	require.Equal(t, proofs.stored, att.ProofRefs)
	require.Len(t, att.ProofRefs, 1)
}

func TestResubmissionReplacesPreviousRecord(t *testing.T) {
	svc, repo, _ := newTestService()
	actor := &shared.Actor{ID: 3, Role: shared.RoleAnggota, DepartmentID: 5}
	validator := &shared.Actor{ID: 1, Role: shared.RoleKetua}
	ctx := context.Background()

	first, err := svc.Submit(ctx, actor, SubmitInput{EventID: 1, Status: StatusExcused, Notes: "izin"})
	require.NoError(t, err)

	_, err = svc.Validate(ctx, validator, first.ID, StatusRejected, "bukti kurang")
	require.NoError(t, err)

	second, err := svc.Submit(ctx, actor, SubmitInput{EventID: 1, Status: StatusPresent})
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)
	require.Equal(t, StatusPresent, second.Status)
	require.Empty(t, second.Notes)
	require.Len(t, repo.records, 1)
}

func TestValidateOutcomeRules(t *testing.T) {
	svc, _, _ := newTestService()
	actor := &shared.Actor{ID: 3, Role: shared.RoleAnggota, DepartmentID: 5}
	validator := &shared.Actor{ID: 1, Role: shared.RoleKetua}
	ctx := context.Background()

	att, err := svc.Submit(ctx, actor, SubmitInput{EventID: 1, Status: StatusPresent})
	require.NoError(t, err)

	_, err = svc.Validate(ctx, validator, 999, StatusPresent, "")
	require.ErrorIs(t, err, shared.ErrNotFound)

	_, err = svc.Validate(ctx, validator, att.ID, StatusPending, "")
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.Validate(ctx, validator, att.ID, StatusRejected, "")
	require.ErrorIs(t, err, shared.ErrValidation)

	// A stray reason on a non-rejection is dropped, not stored.
	validated, err := svc.Validate(ctx, validator, att.ID, StatusPresent, "ignored")
	require.NoError(t, err)
	require.Empty(t, validated.RejectionReason)
	require.Equal(t, validator.ID, validated.ValidatedByID)
	require.True(t, validated.Validated())
}

func TestValidateAuthorization(t *testing.T) {
	svc, _, _ := newTestService()
	attendee := &shared.Actor{ID: 3, Role: shared.RoleAnggota, DepartmentID: 5}
	ctx := context.Background()

	att, err := svc.Submit(ctx, attendee, SubmitInput{EventID: 1, Status: StatusPresent})
	require.NoError(t, err)

	// Department head of the attendee's department on an internal event.
	head := &shared.Actor{ID: 8, Role: shared.RoleKepalaDepartemen, DepartmentID: 5}
	_, err = svc.Validate(ctx, head, att.ID, StatusPresent, "")
	require.NoError(t, err)

	// Head of another department is denied.
	otherHead := &shared.Actor{ID: 12, Role: shared.RoleKepalaDepartemen, DepartmentID: 6}
	_, err = svc.Validate(ctx, otherHead, att.ID, StatusPresent, "")
	require.ErrorIs(t, err, shared.ErrPermissionDenied)

	// Validate-grant holder passes despite a low role.
	granted := &shared.Actor{ID: 40, Role: shared.RoleStaf}
	_, err = svc.Validate(ctx, granted, att.ID, StatusExcused, "")
	require.NoError(t, err)

	// Everyone else is denied.
	_, err = svc.Validate(ctx, &shared.Actor{ID: 50, Role: shared.RoleStaf}, att.ID, StatusPresent, "")
	require.ErrorIs(t, err, shared.ErrPermissionDenied)
}

func TestDepartmentHeadCannotValidatePublicEvent(t *testing.T) {
	svc, _, _ := newTestService()
	attendee := &shared.Actor{ID: 3, Role: shared.RoleAnggota, DepartmentID: 5}
	ctx := context.Background()

	att, err := svc.Submit(ctx, attendee, SubmitInput{EventID: 2, Status: StatusPresent})
	require.NoError(t, err)

	head := &shared.Actor{ID: 8, Role: shared.RoleKepalaDepartemen, DepartmentID: 5}
	_, err = svc.Validate(ctx, head, att.ID, StatusPresent, "")
	require.ErrorIs(t, err, shared.ErrPermissionDenied)
}

func TestSeedPlaceholders(t *testing.T) {
	svc, repo, _ := newTestService()
	ctx := context.Background()

	inserted, err := svc.SeedPlaceholders(ctx, 1)
	require.NoError(t, err)
	require.EqualValues(t, 2, inserted)

	// Re-running skips existing pairs.
	inserted, err = svc.SeedPlaceholders(ctx, 1)
	require.NoError(t, err)
	require.Zero(t, inserted)
	require.Len(t, repo.records, 2)

	// Public events never seed.
	inserted, err = svc.SeedPlaceholders(ctx, 2)
	require.NoError(t, err)
	require.Zero(t, inserted)
}

func TestListForEventRequiresOverviewRole(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	_, err := svc.ListForEvent(ctx, &shared.Actor{ID: 50, Role: shared.RoleAnggota}, 1)
	require.ErrorIs(t, err, shared.ErrPermissionDenied)

	_, err = svc.SeedPlaceholders(ctx, 1)
	require.NoError(t, err)

	summary, err := svc.ListForEvent(ctx, &shared.Actor{ID: 1, Role: shared.RoleWakilKetua}, 1)
	require.NoError(t, err)
	require.Equal(t, "Rapat Kerja", summary.Event.Title)
	require.Len(t, summary.Records, 2)
}

func TestListValidatedFiltersUnvalidated(t *testing.T) {
	svc, _, _ := newTestService()
	attendee := &shared.Actor{ID: 3, Role: shared.RoleAnggota, DepartmentID: 5}
	validator := &shared.Actor{ID: 1, Role: shared.RoleKetua}
	ctx := context.Background()

	att, err := svc.Submit(ctx, attendee, SubmitInput{EventID: 1, Status: StatusPresent})
	require.NoError(t, err)
	_, err = svc.SeedPlaceholders(ctx, 1)
	require.NoError(t, err)

	records, err := svc.ListValidated(ctx, validator, 1)
	require.NoError(t, err)
	require.Empty(t, records)

	_, err = svc.Validate(ctx, validator, att.ID, StatusPresent, "")
	require.NoError(t, err)

	records, err = svc.ListValidated(ctx, validator, 1)
	require.NoError(t, err)
	require.Len(t, records, 1)
}
