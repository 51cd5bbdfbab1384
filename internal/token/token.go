// Package token issues and checks the compact signed credential carried by
// authenticated requests.
package token

import (
	"errors"
	"fmt"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"

	"github.com/launchlane/launchlane/internal/domain"
)

var (
	// ErrInvalid is the generic verification failure.
	ErrInvalid = errors.New("invalid token")
	// ErrExpired matches tokens whose signature checked out but whose expiry
	// has passed. Alias of the library sentinel so callers need only this
	// package.
	ErrExpired = jwtlib.ErrTokenExpired
	// ErrMalformed matches input that is not a token at all.
	ErrMalformed = jwtlib.ErrTokenMalformed
)

// Identity is the set of claims a token asserts about its bearer.
type Identity struct {
	FirstName string
	LastName  string
	Email     string
	Role      domain.Role
}

// Claims is the wire payload of a platform token.
type Claims struct {
	FirstName string      `json:"firstName"`
	LastName  string      `json:"lastName"`
	Email     string      `json:"email"`
	Role      domain.Role `json:"role"`
	jwtlib.RegisteredClaims
}

// Identity rebuilds the asserted identity from the claims.
func (c *Claims) Identity() Identity {
	return Identity{
		FirstName: c.FirstName,
		LastName:  c.LastName,
		Email:     c.Email,
		Role:      c.Role,
	}
}

// Manager signs and verifies tokens with a process-wide symmetric secret.
type Manager struct {
	secret []byte
}

// NewManager constructs a Manager around the shared signing secret.
func NewManager(secret string) Manager {
	return Manager{secret: []byte(secret)}
}

// Issue signs the identity with the given expiry. The expiry is always chosen
// by the caller; the issuer imposes no clock of its own.
func (m Manager) Issue(identity Identity, expiresAt time.Time) (string, error) {
	claims := Claims{
		FirstName: identity.FirstName,
		LastName:  identity.LastName,
		Email:     identity.Email,
		Role:      identity.Role,
		RegisteredClaims: jwtlib.RegisteredClaims{
			ExpiresAt: jwtlib.NewNumericDate(expiresAt),
		},
	}
	tok := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims)
	return tok.SignedString(m.secret)
}

// Verify validates signature and expiry and returns the claims. Malformed
// input propagates the library's message verbatim; every other failure wraps
// ErrInvalid while remaining matchable against the library sentinels (so
// errors.Is(err, ErrExpired) still distinguishes an expired token).
func (m Manager) Verify(tok string) (*Claims, error) {
	parsed, err := jwtlib.ParseWithClaims(tok, &Claims{}, func(*jwtlib.Token) (interface{}, error) {
		return m.secret, nil
	}, jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS256.Name}))
	if err != nil {
		if errors.Is(err, ErrMalformed) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalid
	}
	return claims, nil
}

// Decode extracts claims without checking signature or expiry. It returns nil
// when the input cannot be parsed at all and never fails. The result must not
// authorize anything; it is a lookup aid paired with a prior Verify of the
// same token.
func (m Manager) Decode(tok string) *Claims {
	parsed, _, err := jwtlib.NewParser().ParseUnverified(tok, &Claims{})
	if err != nil {
		return nil
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok {
		return nil
	}
	return claims
}
