package events

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ParticipationStore answers the payment and registration lookups the
// eligibility resolver needs. Payments and registrations are written by
// separate flows; eligibility only ever reads them.
type ParticipationStore struct {
	pool *pgxpool.Pool
}

// NewParticipationStore constructs the store.
func NewParticipationStore(pool *pgxpool.Pool) *ParticipationStore {
	return &ParticipationStore{pool: pool}
}

// VerifiedPayment reports whether a verified payment exists for (user, event).
func (s *ParticipationStore) VerifiedPayment(ctx context.Context, userID, eventID int64) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM event_payments WHERE user_id = $1 AND event_id = $2 AND status = 'verified')`,
		userID, eventID).Scan(&exists)
	return exists, err
}

// ApprovedRegistration reports whether an approved registration exists for
// (user, event).
func (s *ParticipationStore) ApprovedRegistration(ctx context.Context, userID, eventID int64) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM event_registrations WHERE user_id = $1 AND event_id = $2 AND status = 'approved')`,
		userID, eventID).Scan(&exists)
	return exists, err
}

var (
	_ PaymentPort      = (*ParticipationStore)(nil)
	_ RegistrationPort = (*ParticipationStore)(nil)
)
