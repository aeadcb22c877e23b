package users

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/amanah-org/amanah/internal/shared"
)

type memoryRepo struct {
	users  map[int64]User
	emails map[string]int64
	nextID int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{users: make(map[int64]User), emails: make(map[string]int64)}
}

func (r *memoryRepo) seed(user User) User {
	r.nextID++
	user.ID = r.nextID
	r.users[user.ID] = user
	r.emails[user.Email] = user.ID
	return user
}

func (r *memoryRepo) Get(ctx context.Context, id int64) (User, error) {
	user, ok := r.users[id]
	if !ok {
		return User{}, fmt.Errorf("%w: user %d", shared.ErrNotFound, id)
	}
	return user, nil
}

func (r *memoryRepo) GetByEmail(ctx context.Context, email string) (User, error) {
	id, ok := r.emails[email]
	if !ok {
		return User{}, fmt.Errorf("%w: user %s", shared.ErrNotFound, email)
	}
	return r.users[id], nil
}

func (r *memoryRepo) List(ctx context.Context, roleFilter []shared.Role) ([]User, error) {
	allowed := make(map[shared.Role]struct{}, len(roleFilter))
	for _, role := range roleFilter {
		allowed[role] = struct{}{}
	}
	var out []User
	for _, user := range r.users {
		if len(roleFilter) > 0 {
			if _, ok := allowed[user.Role]; !ok {
				continue
			}
		}
		out = append(out, user)
	}
	return out, nil
}

func (r *memoryRepo) Create(ctx context.Context, user User) (User, error) {
	if _, dup := r.emails[user.Email]; dup {
		return User{}, fmt.Errorf("%w: email already registered", shared.ErrConflict)
	}
	return r.seed(user), nil
}

func (r *memoryRepo) Update(ctx context.Context, user User) (User, error) {
	if _, ok := r.users[user.ID]; !ok {
		return User{}, fmt.Errorf("%w: user %d", shared.ErrNotFound, user.ID)
	}
	if owner, dup := r.emails[user.Email]; dup && owner != user.ID {
		return User{}, fmt.Errorf("%w: email already registered", shared.ErrConflict)
	}
	r.users[user.ID] = user
	r.emails[user.Email] = user.ID
	return user, nil
}

func (r *memoryRepo) Delete(ctx context.Context, id int64) error {
	user, ok := r.users[id]
	if !ok {
		return fmt.Errorf("%w: user %d", shared.ErrNotFound, id)
	}
	delete(r.emails, user.Email)
	delete(r.users, id)
	return nil
}

func TestCreateDeniesRoleAtOrAboveOwnRank(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil)
	ketua := &shared.Actor{ID: 1, Role: shared.RoleKetua}
	ctx := context.Background()

	_, err := svc.Create(ctx, ketua, CreateInput{Name: "A", Email: "a@org.id", Password: "secret123", Role: shared.RoleKetua})
	require.ErrorIs(t, err, shared.ErrPermissionDenied)

	_, err = svc.Create(ctx, ketua, CreateInput{Name: "A", Email: "a@org.id", Password: "secret123", Role: shared.RoleAdmin})
	require.ErrorIs(t, err, shared.ErrPermissionDenied)

	user, err := svc.Create(ctx, ketua, CreateInput{Name: "A", Email: "a@org.id", Password: "secret123", Role: shared.RoleStaf})
	require.NoError(t, err)
	require.Equal(t, shared.RoleStaf, user.Role)
	require.True(t, user.IsActive)
	require.NotEqual(t, "secret123", user.PasswordHash)
}

func TestCreateConflictOnDuplicateEmail(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil)
	admin := &shared.Actor{ID: 1, Role: shared.RoleAdmin}
	ctx := context.Background()

	_, err := svc.Create(ctx, admin, CreateInput{Name: "A", Email: "same@org.id", Password: "secret123", Role: shared.RoleAnggota})
	require.NoError(t, err)
	_, err = svc.Create(ctx, admin, CreateInput{Name: "B", Email: "same@org.id", Password: "secret123", Role: shared.RoleAnggota})
	require.ErrorIs(t, err, shared.ErrConflict)
}

func TestUpdateSelfDenied(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil)
	seeded := repo.seed(User{Name: "Ketua", Email: "k@org.id", Role: shared.RoleKetua, IsActive: true})
	actor := &shared.Actor{ID: seeded.ID, Role: shared.RoleKetua}

	_, err := svc.Update(context.Background(), actor, seeded.ID, UpdateInput{Name: "New Name"})
	require.ErrorIs(t, err, shared.ErrPermissionDenied)
	require.Contains(t, err.Error(), "self-management")
}

func TestUpdateCannotPromoteAboveOwnRank(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil)
	target := repo.seed(User{Name: "Staf", Email: "s@org.id", Role: shared.RoleStaf, IsActive: true})
	wakil := &shared.Actor{ID: 99, Role: shared.RoleWakilKetua}
	ctx := context.Background()

	_, err := svc.Update(ctx, wakil, target.ID, UpdateInput{Role: shared.RoleKetua})
	require.ErrorIs(t, err, shared.ErrPermissionDenied)

	updated, err := svc.Update(ctx, wakil, target.ID, UpdateInput{Role: shared.RoleKepalaDepartemen})
	require.NoError(t, err)
	require.Equal(t, shared.RoleKepalaDepartemen, updated.Role)
}

func TestListScopedByRank(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil)
	repo.seed(User{Name: "Admin", Email: "adm@org.id", Role: shared.RoleAdmin})
	repo.seed(User{Name: "Staf", Email: "st@org.id", Role: shared.RoleStaf})
	repo.seed(User{Name: "Anggota", Email: "ag@org.id", Role: shared.RoleAnggota})
	ctx := context.Background()

	list, err := svc.List(ctx, &shared.Actor{ID: 50, Role: shared.RoleKepalaDepartemen})
	require.NoError(t, err)
	require.Len(t, list, 2)
	for _, user := range list {
		require.NotEqual(t, shared.RoleAdmin, user.Role)
	}

	// Lowest rank: empty scope set means no filter at all.
	list, err = svc.List(ctx, &shared.Actor{ID: 51, Role: shared.RoleAnggota})
	require.NoError(t, err)
	require.Len(t, list, 3)
}

func TestDeleteRequiresHigherRank(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil)
	target := repo.seed(User{Name: "Bendahara", Email: "b@org.id", Role: shared.RoleBendahara})
	ctx := context.Background()

	err := svc.Delete(ctx, &shared.Actor{ID: 80, Role: shared.RoleSekretaris}, target.ID)
	require.NoError(t, err)

	target = repo.seed(User{Name: "Sekretaris", Email: "sek@org.id", Role: shared.RoleSekretaris})
	err = svc.Delete(ctx, &shared.Actor{ID: 81, Role: shared.RoleSekretaris}, target.ID)
	require.ErrorIs(t, err, shared.ErrPermissionDenied)
}
