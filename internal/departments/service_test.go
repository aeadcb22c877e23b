package departments

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/amanah-org/amanah/internal/shared"
)

type memoryRepo struct {
	departments map[int64]Department
	members     map[int64][]int64
}

func (r *memoryRepo) List(ctx context.Context) ([]Department, error) {
	out := make([]Department, 0, len(r.departments))
	for _, dep := range r.departments {
		out = append(out, dep)
	}
	return out, nil
}

func (r *memoryRepo) GetByIDs(ctx context.Context, ids []int64) ([]Department, error) {
	var out []Department
	seen := make(map[int64]struct{})
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if dep, ok := r.departments[id]; ok {
			out = append(out, dep)
		}
	}
	return out, nil
}

func (r *memoryRepo) MemberIDs(ctx context.Context, departmentIDs []int64) ([]int64, error) {
	var out []int64
	for _, id := range departmentIDs {
		out = append(out, r.members[id]...)
	}
	return out, nil
}

func TestResolveReportsMissingIDs(t *testing.T) {
	repo := &memoryRepo{departments: map[int64]Department{
		3: {ID: 3, Name: "Media"},
		4: {ID: 4, Name: "Humas"},
	}}
	svc := NewService(repo)
	ctx := context.Background()

	deps, err := svc.Resolve(ctx, []int64{3, 4})
	require.NoError(t, err)
	require.Len(t, deps, 2)

	_, err = svc.Resolve(ctx, []int64{3, 9, 11})
	require.ErrorIs(t, err, shared.ErrValidation)
	require.Contains(t, err.Error(), "9")
	require.Contains(t, err.Error(), "11")
}

func TestResolveDeduplicates(t *testing.T) {
	repo := &memoryRepo{departments: map[int64]Department{5: {ID: 5, Name: "Litbang"}}}
	svc := NewService(repo)

	deps, err := svc.Resolve(context.Background(), []int64{5, 5, 5})
	require.NoError(t, err)
	require.Len(t, deps, 1)
}
