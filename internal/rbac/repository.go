package rbac

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/amanah-org/amanah/internal/shared"
)

// RepositoryPort defines data access for event permission grants.
type RepositoryPort interface {
	Get(ctx context.Context, userID int64) (EventPermission, error)
	Upsert(ctx context.Context, perm EventPermission) error
	Delete(ctx context.Context, userID int64) error
	List(ctx context.Context) ([]EventPermission, error)
}

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Get fetches the grant row for a user.
func (r *Repository) Get(ctx context.Context, userID int64) (EventPermission, error) {
	var perm EventPermission
	err := r.pool.QueryRow(ctx,
		`SELECT user_id, can_validate, can_manage, can_create_events, granted_by_id, updated_at
		 FROM event_permissions WHERE user_id = $1`, userID).
		Scan(&perm.UserID, &perm.CanValidate, &perm.CanManage, &perm.CanCreateEvents, &perm.GrantedByID, &perm.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return EventPermission{}, fmt.Errorf("%w: event permission for user %d", shared.ErrNotFound, userID)
		}
		return EventPermission{}, err
	}
	return perm, nil
}

// Upsert writes the grant row, replacing any previous flags.
func (r *Repository) Upsert(ctx context.Context, perm EventPermission) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO event_permissions (user_id, can_validate, can_manage, can_create_events, granted_by_id, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (user_id) DO UPDATE SET
			can_validate = EXCLUDED.can_validate,
			can_manage = EXCLUDED.can_manage,
			can_create_events = EXCLUDED.can_create_events,
			granted_by_id = EXCLUDED.granted_by_id,
			updated_at = EXCLUDED.updated_at`,
		perm.UserID, perm.CanValidate, perm.CanManage, perm.CanCreateEvents, perm.GrantedByID, time.Now().UTC())
	return err
}

// Delete removes the grant row for a user.
func (r *Repository) Delete(ctx context.Context, userID int64) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM event_permissions WHERE user_id = $1`, userID)
	return err
}

// List returns every grant row.
func (r *Repository) List(ctx context.Context) ([]EventPermission, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT user_id, can_validate, can_manage, can_create_events, granted_by_id, updated_at
		 FROM event_permissions ORDER BY user_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var perms []EventPermission
	for rows.Next() {
		var perm EventPermission
		if err := rows.Scan(&perm.UserID, &perm.CanValidate, &perm.CanManage, &perm.CanCreateEvents, &perm.GrantedByID, &perm.UpdatedAt); err != nil {
			return nil, err
		}
		perms = append(perms, perm)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return perms, nil
}

var _ RepositoryPort = (*Repository)(nil)
