package auth

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/amanah-org/amanah/internal/shared"
	"github.com/amanah-org/amanah/internal/users"
)

// UserPort looks up accounts for the login flow.
type UserPort interface {
	GetByEmail(ctx context.Context, email string) (users.User, error)
}

// RevocationPort tracks logged-out token ids.
type RevocationPort interface {
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// Session is the result of a successful login.
type Session struct {
	Token     string
	ExpiresAt time.Time
	User      users.User
}

// Service wraps authentication business rules.
type Service struct {
	usersPort UserPort
	issuer    *Issuer
	revoked   RevocationPort
}

// NewService builds Service instance.
func NewService(usersPort UserPort, issuer *Issuer, revoked RevocationPort) *Service {
	return &Service{usersPort: usersPort, issuer: issuer, revoked: revoked}
}

// Login validates credentials and issues an access token. Unknown email,
// wrong password and a deactivated account all produce the same error so the
// response does not leak which one failed.
func (s *Service) Login(ctx context.Context, email, password string) (Session, error) {
	user, err := s.usersPort.GetByEmail(ctx, email)
	if err != nil {
		return Session{}, invalidCredentials()
	}
	if !user.IsActive {
		return Session{}, invalidCredentials()
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return Session{}, invalidCredentials()
	}
	token, claims, err := s.issuer.Issue(user)
	if err != nil {
		return Session{}, err
	}
	return Session{Token: token, ExpiresAt: claims.ExpiresAt.Time, User: user}, nil
}

// Logout revokes the presented token for its remaining lifetime.
func (s *Service) Logout(ctx context.Context, rawToken string) error {
	claims, err := s.issuer.Verify(rawToken)
	if err != nil {
		return err
	}
	return s.revoked.Revoke(ctx, claims.ID, time.Until(claims.ExpiresAt.Time))
}

// Verify checks the token signature and the revocation set, and returns the
// actor it carries.
func (s *Service) Verify(ctx context.Context, rawToken string) (*shared.Actor, error) {
	claims, err := s.issuer.Verify(rawToken)
	if err != nil {
		return nil, err
	}
	revoked, err := s.revoked.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, fmt.Errorf("%w: token revoked", shared.ErrUnauthenticated)
	}
	return claims.Actor()
}

func invalidCredentials() error {
	return fmt.Errorf("%w: invalid credentials", shared.ErrUnauthenticated)
}
