package departments

import (
	"context"
	"fmt"
	"strings"

	"github.com/amanah-org/amanah/internal/shared"
)

// Service handles organization structure lookups.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// List returns all departments.
func (s *Service) List(ctx context.Context) ([]Department, error) {
	return s.repo.List(ctx)
}

// Resolve returns the departments for the given ids and fails with a
// validation error listing every id that does not exist.
func (s *Service) Resolve(ctx context.Context, ids []int64) ([]Department, error) {
	deps, err := s.repo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	if len(deps) == len(dedupe(ids)) {
		return deps, nil
	}
	found := make(map[int64]struct{}, len(deps))
	for _, dep := range deps {
		found[dep.ID] = struct{}{}
	}
	var missing []string
	for _, id := range dedupe(ids) {
		if _, ok := found[id]; !ok {
			missing = append(missing, fmt.Sprintf("%d", id))
		}
	}
	return nil, fmt.Errorf("%w: unknown department ids %s", shared.ErrValidation, strings.Join(missing, ", "))
}

// MemberIDs returns the active members of the given departments.
func (s *Service) MemberIDs(ctx context.Context, departmentIDs []int64) ([]int64, error) {
	return s.repo.MemberIDs(ctx, departmentIDs)
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
