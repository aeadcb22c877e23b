package shared

import "errors"

// Sentinel errors forming the core taxonomy. Domain packages wrap these with
// fmt.Errorf("%w: reason", ...) so the boundary can map kind to transport
// status while the reason stays human readable.
var (
	// ErrUnauthenticated indicates no verified actor on the request.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrPermissionDenied indicates a role/hierarchy/department/ownership check failed.
	ErrPermissionDenied = errors.New("permission denied")
	// ErrNotFound indicates a referenced record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrValidation indicates malformed or rejected input.
	ErrValidation = errors.New("validation failed")
	// ErrConflict indicates a unique-constraint collision.
	ErrConflict = errors.New("conflict")
)

// UserSafeMessage returns a message safe to surface to clients.
func UserSafeMessage(err error) string {
	switch {
	case errors.Is(err, ErrUnauthenticated),
		errors.Is(err, ErrPermissionDenied),
		errors.Is(err, ErrNotFound),
		errors.Is(err, ErrValidation),
		errors.Is(err, ErrConflict):
		return err.Error()
	default:
		return "internal error"
	}
}
