package articles

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/amanah-org/amanah/internal/departments"
	"github.com/amanah-org/amanah/internal/shared"
	"github.com/amanah-org/amanah/internal/users"
)

type memoryRepo struct {
	articles   map[int64]Article
	authorized []int64
	nextID     int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{articles: make(map[int64]Article)}
}

func (r *memoryRepo) Get(ctx context.Context, id int64) (Article, error) {
	article, ok := r.articles[id]
	if !ok {
		return Article{}, fmt.Errorf("%w: article %d", shared.ErrNotFound, id)
	}
	return article, nil
}

func (r *memoryRepo) Count(ctx context.Context) (int, error) {
	return len(r.articles), nil
}

func (r *memoryRepo) List(ctx context.Context, limit, offset int) ([]Article, error) {
	out := make([]Article, 0, len(r.articles))
	for _, article := range r.articles {
		out = append(out, article)
	}
	return out, nil
}

func (r *memoryRepo) Create(ctx context.Context, article Article) (Article, error) {
	r.nextID++
	article.ID = r.nextID
	article.PublishedAt = time.Now().UTC()
	r.articles[article.ID] = article
	return article, nil
}

func (r *memoryRepo) Update(ctx context.Context, article Article) (Article, error) {
	if _, ok := r.articles[article.ID]; !ok {
		return Article{}, fmt.Errorf("%w: article %d", shared.ErrNotFound, article.ID)
	}
	r.articles[article.ID] = article
	return article, nil
}

func (r *memoryRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := r.articles[id]; !ok {
		return fmt.Errorf("%w: article %d", shared.ErrNotFound, id)
	}
	delete(r.articles, id)
	return nil
}

func (r *memoryRepo) AuthorizedDepartmentIDs(ctx context.Context) ([]int64, error) {
	return r.authorized, nil
}

func (r *memoryRepo) ReplaceAuthorizedDepartments(ctx context.Context, departmentIDs []int64) error {
	r.authorized = append([]int64(nil), departmentIDs...)
	return nil
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

func newTestService() (*Service, *memoryRepo) {
	repo := newMemoryRepo()
	repo.authorized = []int64{5}
	resolver := NewResolver(repo, stubUsers{users: map[int64]users.User{
		3: {ID: 3, Name: "Sari", Role: shared.RoleStaf, DepartmentID: 5},
		4: {ID: 4, Name: "Budi", Role: shared.RoleStaf, DepartmentID: 6},
	}})
	deps := stubDepartments{known: map[int64]string{3: "Syiar", 4: "Kaderisasi", 5: "Media", 6: "Humas"}}
	return NewService(repo, resolver, deps, nil), repo
}

func TestCreateRequiresCapability(t *testing.T) {
	svc, _ := newTestService()
	input := CreateInput{Title: "Kajian Rutin", Content: "Isi artikel."}
	ctx := context.Background()

	// Staff of an authorized department may publish.
	_, err := svc.Create(ctx, &shared.Actor{ID: 3, Role: shared.RoleStaf, DepartmentID: 5}, input)
	require.NoError(t, err)

	// Staff of an unauthorized department may not.
	_, err = svc.Create(ctx, &shared.Actor{ID: 4, Role: shared.RoleStaf, DepartmentID: 6}, input)
	require.ErrorIs(t, err, shared.ErrPermissionDenied)

	// Top-level officers always may.
	_, err = svc.Create(ctx, &shared.Actor{ID: 1, Role: shared.RoleKetua}, input)
	require.NoError(t, err)

	// Non-staff roles of an authorized department may not.
	_, err = svc.Create(ctx, &shared.Actor{ID: 9, Role: shared.RoleAnggota, DepartmentID: 5}, input)
	require.ErrorIs(t, err, shared.ErrPermissionDenied)

	_, err = svc.Create(ctx, nil, input)
	require.ErrorIs(t, err, shared.ErrUnauthenticated)
}

func TestCreateValidatesInput(t *testing.T) {
	svc, _ := newTestService()
	actor := &shared.Actor{ID: 1, Role: shared.RoleKetua}

	_, err := svc.Create(context.Background(), actor, CreateInput{Title: " ", Content: "x"})
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.Create(context.Background(), actor, CreateInput{Title: "x", Content: ""})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestAuthorLosesEditRightsWithDepartment(t *testing.T) {
	svc, repo := newTestService()
	author := &shared.Actor{ID: 3, Role: shared.RoleStaf, DepartmentID: 5}
	ctx := context.Background()

	article, err := svc.Create(ctx, author, CreateInput{Title: "Kajian", Content: "Isi."})
	require.NoError(t, err)

	_, err = svc.Update(ctx, author, article.ID, CreateInput{Title: "Kajian (rev)", Content: "Isi."})
	require.NoError(t, err)

	// Removing department 5 from the set revokes the author immediately,
	// even on their own prior article.
	repo.authorized = []int64{6}
	_, err = svc.Update(ctx, author, article.ID, CreateInput{Title: "Kajian (rev 2)", Content: "Isi."})
	require.ErrorIs(t, err, shared.ErrPermissionDenied)
	require.ErrorIs(t, svc.Delete(ctx, author, article.ID), shared.ErrPermissionDenied)

	// A top-level officer can still edit it.
	_, err = svc.Update(ctx, &shared.Actor{ID: 1, Role: shared.RoleWakilKetua}, article.ID, CreateInput{Title: "Final", Content: "Isi."})
	require.NoError(t, err)
}

func TestDepartmentColleagueMayEdit(t *testing.T) {
	svc, repo := newTestService()
	author := &shared.Actor{ID: 3, Role: shared.RoleStaf, DepartmentID: 5}
	ctx := context.Background()

	article, err := svc.Create(ctx, author, CreateInput{Title: "Kajian", Content: "Isi."})
	require.NoError(t, err)

	// Same-department staff may edit a colleague's article.
	colleague := &shared.Actor{ID: 8, Role: shared.RoleKepalaDepartemen, DepartmentID: 5}
	_, err = svc.Update(ctx, colleague, article.ID, CreateInput{Title: "Kajian (rev)", Content: "Isi."})
	require.NoError(t, err)

	// Staff of another department may not, even while theirs is authorized.
	repo.authorized = []int64{5, 6}
	outsider := &shared.Actor{ID: 4, Role: shared.RoleStaf, DepartmentID: 6}
	_, err = svc.Update(ctx, outsider, article.ID, CreateInput{Title: "Hijack", Content: "Isi."})
	require.ErrorIs(t, err, shared.ErrPermissionDenied)
}

func TestReplaceAuthorizedDepartments(t *testing.T) {
	svc, repo := newTestService()
	actor := &shared.Actor{ID: 1, Role: shared.RoleWakilKetua}
	ctx := context.Background()

	deps, err := svc.ReplaceAuthorizedDepartments(ctx, actor, []int64{3, 4})
	require.NoError(t, err)
	require.Equal(t, []int64{3, 4}, repo.authorized)

	// The result carries names, collated.
	require.Len(t, deps, 2)
	require.Equal(t, "Kaderisasi", deps[0].Name)
	require.Equal(t, "Syiar", deps[1].Name)

	// Replace, not merge.
	_, err = svc.ReplaceAuthorizedDepartments(ctx, actor, []int64{4})
	require.NoError(t, err)
	require.Equal(t, []int64{4}, repo.authorized)
}

func TestReplaceRejectsUnknownAndUnderprivileged(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	_, err := svc.ReplaceAuthorizedDepartments(ctx, &shared.Actor{ID: 2, Role: shared.RoleSekretaris}, []int64{5})
	require.ErrorIs(t, err, shared.ErrPermissionDenied)

	_, err = svc.ReplaceAuthorizedDepartments(ctx, &shared.Actor{ID: 1, Role: shared.RoleKetua}, []int64{99})
	require.ErrorIs(t, err, shared.ErrValidation)
	// Failed replace leaves the set untouched.
	require.Equal(t, []int64{5}, repo.authorized)
}
