package attendance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

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

const attendanceColumns = `id, event_id, user_id, status, proof_refs, COALESCE(notes, ''),
	COALESCE(rejection_reason, ''), COALESCE(validated_at, 'epoch'::timestamptz),
	COALESCE(validated_by_id, 0), created_at, updated_at`

// Get fetches one attendance record.
func (r *Repository) Get(ctx context.Context, id int64) (Attendance, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+attendanceColumns+` FROM attendance WHERE id = $1`, id)
	att, err := scanAttendance(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Attendance{}, fmt.Errorf("%w: attendance %d", shared.ErrNotFound, id)
		}
		return Attendance{}, err
	}
	return att, nil
}

// Upsert writes a submission keyed on (user_id, event_id) in a single atomic
// statement. An existing row is overwritten, not merged; any prior validation
// is reset.
func (r *Repository) Upsert(ctx context.Context, att Attendance) (Attendance, error) {
	now := time.Now().UTC()
	row := r.pool.QueryRow(ctx,
		`INSERT INTO attendance (event_id, user_id, status, proof_refs, notes, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, $6)
		 ON CONFLICT (user_id, event_id) DO UPDATE SET
			status = EXCLUDED.status,
			proof_refs = EXCLUDED.proof_refs,
			notes = EXCLUDED.notes,
			rejection_reason = NULL,
			validated_at = NULL,
			validated_by_id = NULL,
			updated_at = EXCLUDED.updated_at
		 RETURNING `+attendanceColumns,
		att.EventID, att.UserID, string(att.Status), att.ProofRefs, att.Notes, now)
	stored, err := scanAttendance(row)
	if err != nil {
		return Attendance{}, err
	}
	return stored, nil
}

// SetValidation records a validator decision.
func (r *Repository) SetValidation(ctx context.Context, id int64, status Status, reason string, validatorID int64, at time.Time) (Attendance, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE attendance SET status = $2, rejection_reason = NULLIF($3, ''),
			validated_at = $4, validated_by_id = $5, updated_at = $4
		 WHERE id = $1
		 RETURNING `+attendanceColumns,
		id, string(status), reason, at.UTC(), validatorID)
	att, err := scanAttendance(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Attendance{}, fmt.Errorf("%w: attendance %d", shared.ErrNotFound, id)
		}
		return Attendance{}, err
	}
	return att, nil
}

// SeedPlaceholders bulk-inserts pending records for the given users, skipping
// (user, event) pairs that already exist. Idempotent under concurrent retries.
func (r *Repository) SeedPlaceholders(ctx context.Context, eventID int64, userIDs []int64) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`INSERT INTO attendance (event_id, user_id, status, proof_refs, created_at, updated_at)
		 SELECT $1, uid, 'pending', '{}', NOW(), NOW() FROM unnest($2::bigint[]) AS uid
		 ON CONFLICT (user_id, event_id) DO NOTHING`,
		eventID, userIDs)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

const recordQuery = `SELECT a.id, a.event_id, a.user_id, a.status, a.proof_refs, COALESCE(a.notes, ''),
	COALESCE(a.rejection_reason, ''), COALESCE(a.validated_at, 'epoch'::timestamptz),
	COALESCE(a.validated_by_id, 0), a.created_at, a.updated_at,
	u.name, COALESCE(d.name, ''), COALESCE(v.name, '')
 FROM attendance a
 JOIN users u ON u.id = a.user_id
 LEFT JOIN departments d ON d.id = u.department_id
 LEFT JOIN users v ON v.id = a.validated_by_id
 WHERE a.event_id = $1`

// ListByEvent returns all records of an event with display fields resolved.
func (r *Repository) ListByEvent(ctx context.Context, eventID int64) ([]Record, error) {
	return r.queryRecords(ctx, recordQuery+` ORDER BY u.name, a.id`, eventID)
}

// ListValidatedByEvent returns only validated records, newest decision first.
func (r *Repository) ListValidatedByEvent(ctx context.Context, eventID int64) ([]Record, error) {
	return r.queryRecords(ctx, recordQuery+` AND a.validated_at IS NOT NULL ORDER BY a.validated_at DESC, a.id`, eventID)
}

func (r *Repository) queryRecords(ctx context.Context, query string, eventID int64) ([]Record, error) {
	rows, err := r.pool.Query(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Record
	for rows.Next() {
		var rec Record
		var status string
		if err := rows.Scan(&rec.ID, &rec.EventID, &rec.UserID, &status, &rec.ProofRefs, &rec.Notes,
			&rec.RejectionReason, &rec.ValidatedAt, &rec.ValidatedByID, &rec.CreatedAt, &rec.UpdatedAt,
			&rec.UserName, &rec.DepartmentName, &rec.ValidatorName); err != nil {
			return nil, err
		}
		rec.Status = Status(status)
		normalizeEpoch(&rec.Attendance)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func scanAttendance(row pgx.Row) (Attendance, error) {
	var att Attendance
	var status string
	err := row.Scan(&att.ID, &att.EventID, &att.UserID, &status, &att.ProofRefs, &att.Notes,
		&att.RejectionReason, &att.ValidatedAt, &att.ValidatedByID, &att.CreatedAt, &att.UpdatedAt)
	if err != nil {
		return Attendance{}, err
	}
	att.Status = Status(status)
	normalizeEpoch(&att)
	return att, nil
}

// normalizeEpoch maps the COALESCE epoch sentinel back to the zero time.
func normalizeEpoch(att *Attendance) {
	if att.ValidatedAt.Unix() == 0 {
		att.ValidatedAt = time.Time{}
	}
}

var _ RepositoryPort = (*Repository)(nil)
