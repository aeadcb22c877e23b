package departments

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// RepositoryPort defines data access for organization structure.
type RepositoryPort interface {
	List(ctx context.Context) ([]Department, error)
	GetByIDs(ctx context.Context, ids []int64) ([]Department, error)
	MemberIDs(ctx context.Context, departmentIDs []int64) ([]int64, error)
}

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// List returns all departments ordered by id.
func (r *Repository) List(ctx context.Context) ([]Department, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, created_at, updated_at FROM departments ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var deps []Department
	for rows.Next() {
		var dep Department
		if err := rows.Scan(&dep.ID, &dep.Name, &dep.CreatedAt, &dep.UpdatedAt); err != nil {
			return nil, err
		}
		deps = append(deps, dep)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return deps, nil
}

// GetByIDs returns the departments matching ids. Missing ids are simply absent
// from the result; callers compare lengths to detect them.
func (r *Repository) GetByIDs(ctx context.Context, ids []int64) ([]Department, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := r.pool.Query(ctx, `SELECT id, name, created_at, updated_at FROM departments WHERE id = ANY($1) ORDER BY id`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var deps []Department
	for rows.Next() {
		var dep Department
		if err := rows.Scan(&dep.ID, &dep.Name, &dep.CreatedAt, &dep.UpdatedAt); err != nil {
			return nil, err
		}
		deps = append(deps, dep)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return deps, nil
}

// MemberIDs returns the ids of active users belonging to any of the given
// departments. Feeds attendance placeholder seeding for internal events.
func (r *Repository) MemberIDs(ctx context.Context, departmentIDs []int64) ([]int64, error) {
	if len(departmentIDs) == 0 {
		return nil, nil
	}
	rows, err := r.pool.Query(ctx, `SELECT id FROM users WHERE department_id = ANY($1) AND is_active ORDER BY id`, departmentIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}

var _ RepositoryPort = (*Repository)(nil)
