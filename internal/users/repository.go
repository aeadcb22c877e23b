package users

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/amanah-org/amanah/internal/shared"
)

// RepositoryPort defines data access methods for users.
type RepositoryPort interface {
	Get(ctx context.Context, id int64) (User, error)
	GetByEmail(ctx context.Context, email string) (User, error)
	List(ctx context.Context, roleFilter []shared.Role) ([]User, error)
	Create(ctx context.Context, user User) (User, error)
	Update(ctx context.Context, user User) (User, error)
	Delete(ctx context.Context, id int64) error
}

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const userColumns = `id, name, email, password_hash, role, COALESCE(department_id, 0), COALESCE(division_id, 0), is_active, created_at, updated_at`

// Get fetches a user by id.
func (r *Repository) Get(ctx context.Context, id int64) (User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, fmt.Errorf("%w: user %d", shared.ErrNotFound, id)
		}
		return User{}, err
	}
	return user, nil
}

// GetByEmail fetches a user by email, used by the login flow.
func (r *Repository) GetByEmail(ctx context.Context, email string) (User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, fmt.Errorf("%w: user %s", shared.ErrNotFound, email)
		}
		return User{}, err
	}
	return user, nil
}

// List returns users, restricted to the given roles when the filter is
// non-empty. An empty filter returns the unfiltered listing.
func (r *Repository) List(ctx context.Context, roleFilter []shared.Role) ([]User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY id`
	args := []any{}
	if len(roleFilter) > 0 {
		query = `SELECT ` + userColumns + ` FROM users WHERE role = ANY($1) ORDER BY id`
		filter := make([]string, len(roleFilter))
		for i, role := range roleFilter {
			filter[i] = string(role)
		}
		args = append(args, filter)
	}
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, user)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Create inserts a new user. Email collisions surface as Conflict.
func (r *Repository) Create(ctx context.Context, user User) (User, error) {
	now := time.Now().UTC()
	row := r.pool.QueryRow(ctx,
		`INSERT INTO users (name, email, password_hash, role, department_id, division_id, is_active, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, NULLIF($5, 0), NULLIF($6, 0), $7, $8, $8)
		 RETURNING `+userColumns,
		user.Name, user.Email, user.PasswordHash, string(user.Role), user.DepartmentID, user.DivisionID, user.IsActive, now)
	created, err := scanUser(row)
	if err != nil {
		return User{}, mapUniqueViolation(err)
	}
	return created, nil
}

// Update rewrites the mutable columns of a user.
func (r *Repository) Update(ctx context.Context, user User) (User, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE users SET name = $2, email = $3, password_hash = $4, role = $5,
			department_id = NULLIF($6, 0), division_id = NULLIF($7, 0), is_active = $8, updated_at = $9
		 WHERE id = $1
		 RETURNING `+userColumns,
		user.ID, user.Name, user.Email, user.PasswordHash, string(user.Role),
		user.DepartmentID, user.DivisionID, user.IsActive, time.Now().UTC())
	updated, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, fmt.Errorf("%w: user %d", shared.ErrNotFound, user.ID)
		}
		return User{}, mapUniqueViolation(err)
	}
	return updated, nil
}

// Delete removes a user by id.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: user %d", shared.ErrNotFound, id)
	}
	return nil
}

func scanUser(row pgx.Row) (User, error) {
	var user User
	var role string
	err := row.Scan(&user.ID, &user.Name, &user.Email, &user.PasswordHash, &role,
		&user.DepartmentID, &user.DivisionID, &user.IsActive, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return User{}, err
	}
	user.Role = shared.Role(role)
	return user, nil
}

func mapUniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return fmt.Errorf("%w: email already registered", shared.ErrConflict)
	}
	return err
}

var _ RepositoryPort = (*Repository)(nil)
