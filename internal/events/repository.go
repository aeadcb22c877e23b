package events

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/amanah-org/amanah/internal/platform/db"
	"github.com/amanah-org/amanah/internal/shared"
)

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const eventColumns = `id, title, description, event_type, is_paid, price, has_registration,
	COALESCE(registration_deadline, 'epoch'::timestamptz), starts_at, COALESCE(location, ''),
	created_by_id, created_at, updated_at`

// Get fetches one event with its allowed departments.
func (r *Repository) Get(ctx context.Context, id int64) (Event, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+eventColumns+` FROM events WHERE id = $1`, id)
	event, err := scanEvent(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Event{}, fmt.Errorf("%w: event %d", shared.ErrNotFound, id)
		}
		return Event{}, err
	}
	deps, err := r.allowedDepartments(ctx, id)
	if err != nil {
		return Event{}, err
	}
	event.AllowedDepartments = deps
	return event, nil
}

// List returns all events ordered by start time descending.
func (r *Repository) List(ctx context.Context) ([]Event, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+eventColumns+` FROM events ORDER BY starts_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Event
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, event)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range out {
		deps, err := r.allowedDepartments(ctx, out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].AllowedDepartments = deps
	}
	return out, nil
}

// Create inserts the event and its allowed departments in one transaction.
func (r *Repository) Create(ctx context.Context, event Event) (Event, error) {
	var created Event
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		now := time.Now().UTC()
		row := tx.QueryRow(ctx,
			`INSERT INTO events (title, description, event_type, is_paid, price, has_registration,
				registration_deadline, starts_at, location, created_by_id, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, 'epoch'::timestamptz), $8, NULLIF($9, ''), $10, $11, $11)
			 RETURNING `+eventColumns,
			event.Title, event.Description, string(event.EventType), event.IsPaid, event.Price,
			event.HasRegistration, event.RegistrationDeadline.UTC(), event.StartsAt.UTC(),
			event.Location, event.CreatedByID, now)
		var err error
		created, err = scanEvent(row)
		if err != nil {
			return err
		}
		if err := replaceDepartments(ctx, tx, created.ID, event.AllowedDepartments); err != nil {
			return err
		}
		created.AllowedDepartments = event.AllowedDepartments
		return nil
	})
	if err != nil {
		return Event{}, err
	}
	return created, nil
}

// Update rewrites the event row and fully replaces its allowed departments.
func (r *Repository) Update(ctx context.Context, event Event) (Event, error) {
	var updated Event
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx,
			`UPDATE events SET title = $2, description = $3, event_type = $4, is_paid = $5, price = $6,
				has_registration = $7, registration_deadline = NULLIF($8, 'epoch'::timestamptz),
				starts_at = $9, location = NULLIF($10, ''), updated_at = $11
			 WHERE id = $1
			 RETURNING `+eventColumns,
			event.ID, event.Title, event.Description, string(event.EventType), event.IsPaid, event.Price,
			event.HasRegistration, event.RegistrationDeadline.UTC(), event.StartsAt.UTC(),
			event.Location, time.Now().UTC())
		var err error
		updated, err = scanEvent(row)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("%w: event %d", shared.ErrNotFound, event.ID)
			}
			return err
		}
		if err := replaceDepartments(ctx, tx, event.ID, event.AllowedDepartments); err != nil {
			return err
		}
		updated.AllowedDepartments = event.AllowedDepartments
		return nil
	})
	if err != nil {
		return Event{}, err
	}
	return updated, nil
}

// Delete removes the event. Attendance and allowed-department rows cascade via
// foreign keys.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: event %d", shared.ErrNotFound, id)
	}
	return nil
}

func (r *Repository) allowedDepartments(ctx context.Context, eventID int64) ([]int64, error) {
	rows, err := r.pool.Query(ctx, `SELECT department_id FROM event_departments WHERE event_id = $1 ORDER BY department_id`, eventID)
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

// replaceDepartments implements the replace-not-merge contract: delete all
// then insert all inside the caller's transaction.
func replaceDepartments(ctx context.Context, tx pgx.Tx, eventID int64, departmentIDs []int64) error {
	if _, err := tx.Exec(ctx, `DELETE FROM event_departments WHERE event_id = $1`, eventID); err != nil {
		return err
	}
	for _, depID := range departmentIDs {
		if _, err := tx.Exec(ctx,
			`INSERT INTO event_departments (event_id, department_id) VALUES ($1, $2)`, eventID, depID); err != nil {
			return err
		}
	}
	return nil
}

func scanEvent(row pgx.Row) (Event, error) {
	var event Event
	var eventType string
	err := row.Scan(&event.ID, &event.Title, &event.Description, &eventType, &event.IsPaid, &event.Price,
		&event.HasRegistration, &event.RegistrationDeadline, &event.StartsAt, &event.Location,
		&event.CreatedByID, &event.CreatedAt, &event.UpdatedAt)
	if err != nil {
		return Event{}, err
	}
	event.EventType = EventType(eventType)
	return event, nil
}

var _ RepositoryPort = (*Repository)(nil)
