// Package auth issues and verifies the bearer tokens that carry the actor
// identity into every request.
package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/amanah-org/amanah/internal/shared"
	"github.com/amanah-org/amanah/internal/users"
)

const tokenIssuer = "amanah"

// Claims is the payload of one access token. The role and department are
// authoritative for the lifetime of the token.
type Claims struct {
	Role         string `json:"role"`
	DepartmentID int64  `json:"department_id,omitempty"`
	DivisionID   int64  `json:"division_id,omitempty"`
	jwt.RegisteredClaims
}

// Actor converts the claims back into the request actor.
func (c Claims) Actor() (*shared.Actor, error) {
	id, err := parseSubject(c.Subject)
	if err != nil {
		return nil, err
	}
	return &shared.Actor{
		ID:           id,
		Role:         shared.Role(c.Role),
		DepartmentID: c.DepartmentID,
		DivisionID:   c.DivisionID,
	}, nil
}

// Issuer signs and verifies access tokens.
type Issuer struct {
	secret []byte
	ttl    time.Duration
}

// NewIssuer builds Issuer instance.
func NewIssuer(secret string, ttl time.Duration) *Issuer {
	return &Issuer{secret: []byte(secret), ttl: ttl}
}

// TTL returns the configured token lifetime.
func (i *Issuer) TTL() time.Duration {
	return i.ttl
}

// Issue signs a token for the user. Each token carries a unique jti so it can
// be revoked individually on logout.
func (i *Issuer) Issue(user users.User) (string, Claims, error) {
	now := time.Now().UTC()
	claims := Claims{
		Role:         string(user.Role),
		DepartmentID: user.DepartmentID,
		DivisionID:   user.DivisionID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   fmt.Sprintf("%d", user.ID),
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", Claims{}, err
	}
	return signed, claims, nil
}

// Verify parses and validates a signed token.
func (i *Issuer) Verify(raw string) (Claims, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(raw, &claims,
		func(token *jwt.Token) (any, error) { return i.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return Claims{}, fmt.Errorf("%w: invalid token", shared.ErrUnauthenticated)
	}
	return claims, nil
}

func parseSubject(sub string) (int64, error) {
	var id int64
	if _, err := fmt.Sscanf(sub, "%d", &id); err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid token subject", shared.ErrUnauthenticated)
	}
	return id, nil
}
