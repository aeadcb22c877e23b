package events

import (
	"context"
	"fmt"

	"github.com/amanah-org/amanah/internal/shared"
)

// PaymentPort reports whether a verified payment exists for (user, event).
type PaymentPort interface {
	VerifiedPayment(ctx context.Context, userID, eventID int64) (bool, error)
}

// RegistrationPort reports whether an approved registration exists for
// (user, event).
type RegistrationPort interface {
	ApprovedRegistration(ctx context.Context, userID, eventID int64) (bool, error)
}

// Eligibility decides whether an actor may submit attendance to an event.
// Rules are evaluated with fixed precedence, stopping at the first applicable
// one: internal scoping, then payment, then registration, then open access.
type Eligibility struct {
	payments      PaymentPort
	registrations RegistrationPort
}

// NewEligibility constructs the resolver.
func NewEligibility(payments PaymentPort, registrations RegistrationPort) *Eligibility {
	return &Eligibility{payments: payments, registrations: registrations}
}

// Check returns nil when the actor may submit attendance for the event, or a
// permission error carrying the denial reason.
func (e *Eligibility) Check(ctx context.Context, actor *shared.Actor, event Event) error {
	if actor == nil {
		return fmt.Errorf("%w: no verified actor", shared.ErrUnauthenticated)
	}

	if event.EventType == TypeInternal {
		for _, dep := range event.AllowedDepartments {
			if actor.DepartmentID != 0 && actor.DepartmentID == dep {
				return nil
			}
		}
		return fmt.Errorf("%w: department not required to attend", shared.ErrPermissionDenied)
	}

	if event.IsPaid {
		paid, err := e.payments.VerifiedPayment(ctx, actor.ID, event.ID)
		if err != nil {
			return err
		}
		if !paid {
			return fmt.Errorf("%w: payment not verified", shared.ErrPermissionDenied)
		}
		return nil
	}

	if event.HasRegistration {
		approved, err := e.registrations.ApprovedRegistration(ctx, actor.ID, event.ID)
		if err != nil {
			return err
		}
		if !approved {
			return fmt.Errorf("%w: not registered or registration not approved", shared.ErrPermissionDenied)
		}
		return nil
	}

	return nil
}
