package events

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/amanah-org/amanah/internal/departments"
	"github.com/amanah-org/amanah/internal/rbac"
	"github.com/amanah-org/amanah/internal/shared"
)

type memoryRepo struct {
	events map[int64]Event
	nextID int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{events: make(map[int64]Event)}
}

func (r *memoryRepo) Get(ctx context.Context, id int64) (Event, error) {
	event, ok := r.events[id]
	if !ok {
		return Event{}, fmt.Errorf("%w: event %d", shared.ErrNotFound, id)
	}
	return event, nil
}

func (r *memoryRepo) List(ctx context.Context) ([]Event, error) {
	out := make([]Event, 0, len(r.events))
	for _, event := range r.events {
		out = append(out, event)
	}
	return out, nil
}

func (r *memoryRepo) Create(ctx context.Context, event Event) (Event, error) {
	r.nextID++
	event.ID = r.nextID
	r.events[event.ID] = event
	return event, nil
}

func (r *memoryRepo) Update(ctx context.Context, event Event) (Event, error) {
	if _, ok := r.events[event.ID]; !ok {
		return Event{}, fmt.Errorf("%w: event %d", shared.ErrNotFound, event.ID)
	}
	r.events[event.ID] = event
	return event, nil
}

func (r *memoryRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := r.events[id]; !ok {
		return fmt.Errorf("%w: event %d", shared.ErrNotFound, id)
	}
	delete(r.events, id)
	return nil
}

type stubCaps struct {
	grants map[int64]map[rbac.Capability]bool
}

func (s stubCaps) Has(ctx context.Context, userID int64, cap rbac.Capability) (bool, error) {
	return s.grants[userID][cap], nil
}

type stubDepartments struct {
	known map[int64]string
}

func (s stubDepartments) Resolve(ctx context.Context, ids []int64) ([]departments.Department, error) {
	var out []departments.Department
	for _, id := range ids {
		name, ok := s.known[id]
		if !ok {
			return nil, fmt.Errorf("%w: unknown department ids %d", shared.ErrValidation, id)
		}
		out = append(out, departments.Department{ID: id, Name: name})
	}
	return out, nil
}

type recordingSeeder struct {
	enqueued []int64
}

func (s *recordingSeeder) EnqueueSeed(ctx context.Context, eventID int64) error {
	s.enqueued = append(s.enqueued, eventID)
	return nil
}

func newTestService() (*Service, *memoryRepo, *recordingSeeder) {
	repo := newMemoryRepo()
	seeder := &recordingSeeder{}
	caps := stubCaps{grants: map[int64]map[rbac.Capability]bool{
		30: {rbac.CapabilityCreateEvents: true},
		31: {rbac.CapabilityManage: true},
	}}
	deps := stubDepartments{known: map[int64]string{5: "Media", 6: "Humas"}}
	return NewService(repo, caps, deps, seeder), repo, seeder
}

func validInternalInput() CreateInput {
	return CreateInput{
		Title:              "Rapat Kerja",
		EventType:          TypeInternal,
		StartsAt:           time.Now().Add(48 * time.Hour),
		AllowedDepartments: []int64{5},
	}
}

func TestCreateRequiresCapability(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Create(ctx, &shared.Actor{ID: 2, Role: shared.RoleAnggota}, validInternalInput())
	require.ErrorIs(t, err, shared.ErrPermissionDenied)

	// Top-level role passes without a grant.
	_, err = svc.Create(ctx, &shared.Actor{ID: 1, Role: shared.RoleWakilKetua}, validInternalInput())
	require.NoError(t, err)

	// Grant holder passes despite a low role.
	_, err = svc.Create(ctx, &shared.Actor{ID: 30, Role: shared.RoleStaf}, validInternalInput())
	require.NoError(t, err)
}

func TestCreateEnforcesInvariants(t *testing.T) {
	svc, _, _ := newTestService()
	actor := &shared.Actor{ID: 1, Role: shared.RoleKetua}
	ctx := context.Background()

	input := validInternalInput()
	input.AllowedDepartments = nil
	_, err := svc.Create(ctx, actor, input)
	require.ErrorIs(t, err, shared.ErrValidation)

	input = validInternalInput()
	input.EventType = TypePublic
	input.AllowedDepartments = nil
	input.IsPaid = true
	input.Price = 0
	_, err = svc.Create(ctx, actor, input)
	require.ErrorIs(t, err, shared.ErrValidation)

	input = validInternalInput()
	input.AllowedDepartments = []int64{99}
	_, err = svc.Create(ctx, actor, input)
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestCreateInternalEnqueuesSeeding(t *testing.T) {
	svc, _, seeder := newTestService()
	actor := &shared.Actor{ID: 1, Role: shared.RoleKetua}
	ctx := context.Background()

	event, err := svc.Create(ctx, actor, validInternalInput())
	require.NoError(t, err)
	require.Equal(t, []int64{event.ID}, seeder.enqueued)

	// Public events do not seed placeholders.
	public := CreateInput{Title: "Seminar", EventType: TypePublic, StartsAt: time.Now()}
	_, err = svc.Create(ctx, actor, public)
	require.NoError(t, err)
	require.Len(t, seeder.enqueued, 1)
}

func TestUpdateReplacesDepartmentsWholesale(t *testing.T) {
	svc, repo, _ := newTestService()
	actor := &shared.Actor{ID: 1, Role: shared.RoleKetua}
	ctx := context.Background()

	event, err := svc.Create(ctx, actor, validInternalInput())
	require.NoError(t, err)

	input := validInternalInput()
	input.AllowedDepartments = []int64{6}
	updated, err := svc.Update(ctx, actor, event.ID, input)
	require.NoError(t, err)
	require.Equal(t, []int64{6}, updated.AllowedDepartments)
	require.Equal(t, []int64{6}, repo.events[event.ID].AllowedDepartments)
}

func TestUpdateAuthorization(t *testing.T) {
	svc, _, _ := newTestService()
	creator := &shared.Actor{ID: 30, Role: shared.RoleStaf}
	ctx := context.Background()

	event, err := svc.Create(ctx, creator, validInternalInput())
	require.NoError(t, err)

	// Creator may update their own event.
	_, err = svc.Update(ctx, creator, event.ID, validInternalInput())
	require.NoError(t, err)

	// Manage-grant holder may update someone else's event.
	_, err = svc.Update(ctx, &shared.Actor{ID: 31, Role: shared.RoleStaf}, event.ID, validInternalInput())
	require.NoError(t, err)

	// Anyone else is denied.
	_, err = svc.Update(ctx, &shared.Actor{ID: 77, Role: shared.RoleStaf}, event.ID, validInternalInput())
	require.ErrorIs(t, err, shared.ErrPermissionDenied)
}

func TestDelete(t *testing.T) {
	svc, repo, _ := newTestService()
	actor := &shared.Actor{ID: 1, Role: shared.RoleKetua}
	ctx := context.Background()

	event, err := svc.Create(ctx, actor, validInternalInput())
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, actor, event.ID))
	require.Empty(t, repo.events)

	require.ErrorIs(t, svc.Delete(ctx, actor, 999), shared.ErrNotFound)
}
